package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"
	dirMode        = 0700
	fileMode       = 0600

	languageDefault = "en"
	formatDefault   = "json"
	logLevelDefault = "info"
	topWordsDefault = 10
	workersDefault  = 4
)

// Config represents app config object.
type Config struct {
	// Language selects the model and tokenizer used when none is given.
	Language string `yaml:"language"`
	// Format is the output format, json or yaml.
	Format   string `yaml:"format"`
	LogLevel string `yaml:"log_level"`
	// TopWords limits the attribution list printed per document, 0 for all.
	TopWords int `yaml:"top_words"`
	// Workers bounds concurrent classifications in batch mode.
	Workers int `yaml:"workers"`
	// DSN is a SQLite file path or a postgres connection string. Empty means
	// data.db in the config directory.
	DSN string `yaml:"dsn,omitempty"`
	// CacheDir holds per-language msgpack model caches. Empty means the
	// config directory.
	CacheDir string `yaml:"cache_dir,omitempty"`
}

// Default returns the config used when no file exists.
func Default() *Config {
	return &Config{
		Language: languageDefault,
		Format:   formatDefault,
		LogLevel: logLevelDefault,
		TopWords: topWordsDefault,
		Workers:  workersDefault,
	}
}

// applyDefaults fills the zero values of a partially written file.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Language == "" {
		c.Language = d.Language
	}
	if c.Format == "" {
		c.Format = d.Format
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.TopWords < 0 {
		c.TopWords = 0
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
}

func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", configFileName)
	}
	return nil
}

// ReadOrCreate reads app config from directory or creates a new one.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if err := os.MkdirAll(dirPath, dirMode); err != nil {
		return nil, errors.Wrapf(err, "failed to create dir: %s", dirPath)
	}

	path := filepath.Join(dirPath, configFileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating default config", "path", path)
		if err := Save(dirPath, Default()); err != nil {
			return nil, errors.Wrap(err, "failed to create default config")
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file: %s", path)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling config file: %s", path)
	}
	c.applyDefaults()
	return &c, nil
}

// GetOrCreateHomeDir returns the app directory in the home of the current user.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, errors.Wrap(err, "failed to get user home dir")
	}
	slog.Debug("home dir", "path", home)

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, errors.Wrapf(err, "failed to create dir: %s", dir)
		}
		created = true
	}
	return dir, created, nil
}
