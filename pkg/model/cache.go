package model

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mchmarny/cherry/pkg/bayes"
	"github.com/pkg/errors"
)

const (
	dirMode       = 0700
	cacheFileName = "model.mp"
)

// ErrInvalidLanguage is returned for language selectors that cannot name a
// cache directory.
var ErrInvalidLanguage = errors.New("invalid cache language")

// Cache stores one msgpack artifact per language under
// <dir>/data/<lang>/cache/.
type Cache struct {
	dir string
}

// NewCache returns a cache rooted at dir.
func NewCache(dir string) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache directory required")
	}
	return &Cache{dir: dir}, nil
}

// Path returns the cache file path for a language.
func (c *Cache) Path(lang string) string {
	return filepath.Join(c.dir, "data", lang, "cache", cacheFileName)
}

func checkLanguage(lang string) error {
	if lang == "" || lang == "." || lang == ".." || strings.ContainsAny(lang, `/\`) {
		return errors.Wrapf(ErrInvalidLanguage, "language: %q", lang)
	}
	return nil
}

// Load returns the cached artifact for a language. A missing cache is
// reported as bayes.ErrModelUnavailable.
func (c *Cache) Load(lang string) (*Artifact, error) {
	if err := checkLanguage(lang); err != nil {
		return nil, err
	}
	p := c.Path(lang)
	slog.Debug("loading model cache", "lang", lang, "path", p)
	a, err := ReadFile(p)
	if err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language = lang
	}
	return a, nil
}

// Save writes the artifact into the cache of its language.
func (c *Cache) Save(a *Artifact) error {
	if a == nil || a.Language == "" {
		return errors.New("artifact with language required")
	}
	if err := checkLanguage(a.Language); err != nil {
		return err
	}
	p := c.Path(a.Language)
	if err := os.MkdirAll(filepath.Dir(p), dirMode); err != nil {
		return errors.Wrapf(err, "failed to create dir: %s", filepath.Dir(p))
	}
	slog.Debug("saving model cache", "lang", a.Language, "path", p)
	return WriteFile(p, a)
}

// Languages lists the languages with a cached artifact.
func (c *Cache) Languages() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(c.dir, "data"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, errors.Wrapf(err, "failed to list cache dir: %s", c.dir)
	}

	list := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(c.Path(e.Name())); err == nil {
			list = append(list, e.Name())
		}
	}
	sort.Strings(list)
	return list, nil
}

// LoadModel loads and validates the cached model for a language.
func (c *Cache) LoadModel(lang string) (*bayes.Model, error) {
	a, err := c.Load(lang)
	if err != nil {
		return nil, err
	}
	return a.ToModel()
}
