package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mchmarny/cherry/pkg/bayes"
	"github.com/mchmarny/cherry/pkg/config"
	"github.com/mchmarny/cherry/pkg/logging"
	"github.com/mchmarny/cherry/pkg/model"
	"github.com/mchmarny/cherry/pkg/store"
	"github.com/mchmarny/cherry/pkg/token"
	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "cherry"
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"

	debugFlagName  = "debug"
	dirFlagName    = "dir"
	dbFlagName     = "db"
	formatFlagName = "format"
	langFlagName   = "lang"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger("info")

	ctx, cancel := signalContext()
	defer cancel()

	if err := newApp().Run(ctx, os.Args); err != nil {
		if isUnavailable(err) {
			slog.Error("model not found, maybe you should train or import one first", "error", err)
		} else {
			slog.Error("fatal error", "error", err)
		}
		os.Exit(1)
	}
}

type appConfig struct {
	Dir      string
	Config   *config.Config
	DB       *store.DB
	Cache    *model.Cache
	Format   string
	Language string
	TopWords int
}

func getConfig(cmd *urfave.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

func newApp() *urfave.Command {
	return &urfave.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Classify text with trained Naive Bayes models and explain the decision",
		Metadata:              map[string]any{},
		Flags: []urfave.Flag{
			&urfave.BoolFlag{
				Name:  debugFlagName,
				Usage: "Prints verbose logs (optional, default: false)",
			},
			&urfave.StringFlag{
				Name:    dirFlagName,
				Usage:   "Path to the app data directory (optional, default: $HOME/.cherry)",
				Sources: urfave.EnvVars("CHERRY_DIR"),
			},
			&urfave.StringFlag{
				Name:    dbFlagName,
				Usage:   "Path to the Sqlite database file or postgres connection string",
				Sources: urfave.EnvVars("CHERRY_DB"),
			},
			&urfave.StringFlag{
				Name:  formatFlagName,
				Usage: "Output format [json, yaml]",
			},
			&urfave.StringFlag{
				Name:    langFlagName,
				Aliases: []string{"l"},
				Usage:   fmt.Sprintf("Model and tokenizer language (e.g. %v)", token.Languages),
				Sources: urfave.EnvVars("CHERRY_LANG"),
			},
		},
		Commands: []*urfave.Command{
			newClassifyCmd(),
			newBatchCmd(),
			newImportCmd(),
			newExportCmd(),
			newModelsCmd(),
			newResetCmd(),
			newServerCmd(),
		},
		Before: setup,
		After: func(_ context.Context, cmd *urfave.Command) error {
			if cfg, ok := cmd.Root().Metadata[appConfigKey].(*appConfig); ok && cfg.DB != nil {
				cfg.DB.Close()
			}
			return nil
		},
	}
}

func setup(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
	if cmd.Bool(debugFlagName) {
		logging.SetDefaultCLILogger("debug")
	}

	dir := cmd.String(dirFlagName)
	if dir == "" {
		d, _, err := config.GetOrCreateHomeDir(appName)
		if err != nil {
			return ctx, fmt.Errorf("resolving app dir: %w", err)
		}
		dir = d
	}

	conf, err := config.ReadOrCreate(dir)
	if err != nil {
		return ctx, fmt.Errorf("reading config: %w", err)
	}
	if !cmd.Bool(debugFlagName) {
		logging.SetDefaultCLILogger(conf.LogLevel)
	}

	dsn := firstNonEmpty(cmd.String(dbFlagName), conf.DSN, filepath.Join(dir, store.DataFileName))
	if err := store.Init(dsn); err != nil {
		return ctx, fmt.Errorf("initializing database: %w", err)
	}

	db, err := store.GetDB(dsn)
	if err != nil {
		return ctx, fmt.Errorf("opening database: %w", err)
	}

	cache, err := model.NewCache(firstNonEmpty(conf.CacheDir, dir))
	if err != nil {
		db.Close()
		return ctx, fmt.Errorf("opening model cache: %w", err)
	}

	format := firstNonEmpty(cmd.String(formatFlagName), conf.Format)
	if format == "yml" {
		format = formatYAML
	}

	cmd.Root().Metadata[appConfigKey] = &appConfig{
		Dir:      dir,
		Config:   conf,
		DB:       db,
		Cache:    cache,
		Format:   format,
		Language: firstNonEmpty(cmd.String(langFlagName), conf.Language),
		TopWords: conf.TopWords,
	}
	slog.Debug("app configured", "dir", dir, "driver", db.Driver(), "format", format)
	return ctx, nil
}

// loadModel loads the model of a language from the store, falling back to
// the msgpack file cache.
func loadModel(cfg *appConfig, lang string) (*bayes.Model, error) {
	start := time.Now()
	m, err := store.LoadModel(cfg.DB, lang)
	if err == nil {
		slog.Debug("model loaded from store", "lang", lang, "duration", time.Since(start))
		return m, nil
	}
	if !isUnavailable(err) {
		return nil, fmt.Errorf("loading model %s: %w", lang, err)
	}

	slog.Debug("model not in store, trying file cache", "lang", lang, "path", cfg.Cache.Path(lang))
	m, err = cfg.Cache.LoadModel(lang)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", lang, err)
	}
	slog.Debug("model loaded from cache", "lang", lang, "duration", time.Since(start))
	return m, nil
}

func encode(w io.Writer, format string, v any) error {
	if format == formatYAML {
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
