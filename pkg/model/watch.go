package model

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// data/<lang>/cache
const watchDepth = 2

// Watch calls onChange with the language whenever a cache file is written,
// replaced or removed. Languages cached after the call are picked up as
// their directories appear. It returns once the watcher is set up; events
// are delivered until ctx is done.
func (c *Cache) Watch(ctx context.Context, onChange func(lang string)) error {
	root := filepath.Join(c.dir, "data")
	if err := os.MkdirAll(root, dirMode); err != nil {
		return errors.Wrapf(err, "failed to create dir: %s", root)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create cache watcher")
	}

	if err := c.watchTree(w, root, nil); err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) {
					if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
						// cache files written before the dir was watched are reported by the walk
						if err := c.watchTree(w, event.Name, onChange); err != nil {
							slog.Error("model cache watcher", "dir", event.Name, "error", err)
						}
						continue
					}
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				lang, ok := c.languageOf(event.Name)
				if !ok {
					continue
				}
				slog.Debug("model cache changed", "lang", lang, "op", event.Op.String())
				onChange(lang)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Error("model cache watcher", "error", err)
			}
		}
	}()

	return nil
}

// watchTree adds dir and its subdirectories down to the cache level. When
// found is set it is called for every cache file already present.
func (c *Cache) watchTree(w *fsnotify.Watcher, dir string, found func(string)) error {
	root := filepath.Join(c.dir, "data")
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "failed to walk cache dir: %s", p)
		}
		if !d.IsDir() {
			if lang, ok := c.languageOf(p); ok && found != nil {
				found(lang)
			}
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return errors.Wrapf(err, "failed to resolve cache dir: %s", p)
		}
		if rel != "." && strings.Count(rel, string(filepath.Separator)) >= watchDepth {
			return fs.SkipDir
		}
		if err := w.Add(p); err != nil {
			return errors.Wrapf(err, "failed to watch cache dir: %s", p)
		}
		slog.Debug("watching model cache dir", "dir", p)
		return nil
	})
}

// languageOf returns the language whose cache file is path.
func (c *Cache) languageOf(path string) (string, bool) {
	if filepath.Base(path) != cacheFileName {
		return "", false
	}
	lang := filepath.Base(filepath.Dir(filepath.Dir(path)))
	return lang, filepath.Clean(path) == filepath.Clean(c.Path(lang))
}
