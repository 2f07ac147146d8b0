package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mchmarny/cherry/pkg/bayes"
	"github.com/mchmarny/cherry/pkg/model"
	"github.com/mchmarny/cherry/pkg/store"
	urfave "github.com/urfave/cli/v3"
)

const yesFlagName = "yes"

func newImportCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Import a trained model artifact into the store",
		UsageText: `cherry import --file spam.yaml               # language taken from the artifact
   cherry import --file model.mp --lang zh      # override the artifact language
   cherry import --file https://host/spam.json  # fetch a remote artifact`,
		HideHelpCommand: true,
		Action:          cmdImport,
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:     fileFlagName,
				Aliases:  []string{"f"},
				Usage:    "Model artifact file or http(s) URL (.yaml, .json, .mp)",
				Required: true,
			},
		},
	}
}

func newExportCmd() *urfave.Command {
	return &urfave.Command{
		Name:            "export",
		Usage:           "Export a stored model to an artifact file or the file cache",
		HideHelpCommand: true,
		Action:          cmdExport,
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:    fileFlagName,
				Aliases: []string{"f"},
				Usage:   "Target artifact file (.yaml, .json, .mp), default: the msgpack cache of the language",
			},
		},
	}
}

func newModelsCmd() *urfave.Command {
	return &urfave.Command{
		Name:            "models",
		Aliases:         []string{"m"},
		Usage:           "List stored and cached models",
		HideHelpCommand: true,
		Action:          cmdModels,
	}
}

func newResetCmd() *urfave.Command {
	return &urfave.Command{
		Name:            "reset",
		Usage:           "Delete all stored models and start fresh",
		HideHelpCommand: true,
		Action:          cmdReset,
		Flags: []urfave.Flag{
			&urfave.BoolFlag{
				Name:    yesFlagName,
				Aliases: []string{"y"},
				Usage:   "Skip the confirmation prompt",
			},
		},
	}
}

// ModelSummary describes a model written by import or export.
type ModelSummary struct {
	Language string   `json:"language" yaml:"language"`
	Classes  []string `json:"classes" yaml:"classes"`
	Terms    int      `json:"terms" yaml:"terms"`
	Target   string   `json:"target" yaml:"target"`
}

// ModelList is the output of the models command.
type ModelList struct {
	Stored []*store.ModelInfo `json:"stored" yaml:"stored"`
	Cached []string           `json:"cached" yaml:"cached"`
	State  map[string]int64   `json:"state" yaml:"state"`
}

func cmdImport(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)
	path := cmd.String(fileFlagName)

	a, err := model.Read(ctx, path)
	if err != nil {
		return fmt.Errorf("reading artifact: %w", err)
	}

	lang := a.Language
	if cmd.IsSet(langFlagName) || lang == "" {
		lang = cfg.Language
	}
	lang, err = supportedLanguage(lang)
	if err != nil {
		return err
	}

	m, err := a.ToModel()
	if err != nil {
		return fmt.Errorf("validating artifact %s: %w", path, err)
	}

	if err := store.SaveModel(cfg.DB, lang, m); err != nil {
		return fmt.Errorf("saving model: %w", err)
	}
	slog.Info("model imported", "lang", lang, "classes", m.NumClasses(), "terms", m.Vocabulary().Len())

	return encode(cmd.Root().Writer, cfg.Format, summarize(lang, m, cfg.DB.Driver()))
}

func cmdExport(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)
	lang, err := supportedLanguage(cfg.Language)
	if err != nil {
		return err
	}

	m, err := store.LoadModel(cfg.DB, lang)
	if err != nil {
		return fmt.Errorf("loading model %s: %w", lang, err)
	}
	a := model.FromModel(lang, m)

	target := cmd.String(fileFlagName)
	if target == "" {
		target = cfg.Cache.Path(lang)
		err = cfg.Cache.Save(a)
	} else {
		err = model.WriteFile(target, a)
	}
	if err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	slog.Info("model exported", "lang", lang, "target", target)

	return encode(cmd.Root().Writer, cfg.Format, summarize(lang, m, target))
}

func cmdModels(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)

	stored, err := store.ListModels(cfg.DB)
	if err != nil {
		return fmt.Errorf("listing stored models: %w", err)
	}

	cached, err := cfg.Cache.Languages()
	if err != nil {
		return fmt.Errorf("listing cached models: %w", err)
	}

	state, err := store.GetDataState(cfg.DB)
	if err != nil {
		return fmt.Errorf("reading store state: %w", err)
	}

	return encode(cmd.Root().Writer, cfg.Format, &ModelList{Stored: stored, Cached: cached, State: state})
}

func cmdReset(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)
	w := cmd.Root().Writer

	scope := "all stored models"
	if cmd.IsSet(langFlagName) {
		scope = fmt.Sprintf("the stored %s model", cfg.Language)
	}

	if !cmd.Bool(yesFlagName) {
		fmt.Fprintf(w, "This will permanently delete %s (%s)\n", scope, cfg.DB.Driver())
		fmt.Fprint(w, "Are you sure? [y/N]: ")

		answer, err := bufio.NewReader(cmd.Root().Reader).ReadString('\n')
		if err != nil && answer == "" {
			return fmt.Errorf("reading input: %w", err)
		}
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Fprintln(w, "Aborted.")
			return nil
		}
	}

	if cmd.IsSet(langFlagName) {
		if err := store.DeleteModel(cfg.DB, cfg.Language); err != nil {
			return fmt.Errorf("deleting model %s: %w", cfg.Language, err)
		}
	} else if err := store.DeleteAll(cfg.DB); err != nil {
		return fmt.Errorf("deleting models: %w", err)
	}

	slog.Info("stored models deleted", "scope", scope)
	fmt.Fprintln(w, "Reset complete.")
	return nil
}

func summarize(lang string, m *bayes.Model, target string) *ModelSummary {
	return &ModelSummary{
		Language: lang,
		Classes:  m.Labels(),
		Terms:    m.Vocabulary().Len(),
		Target:   target,
	}
}

// isUnavailable reports whether err means that no model could be supplied.
func isUnavailable(err error) bool {
	return errors.Is(err, bayes.ErrModelUnavailable)
}
