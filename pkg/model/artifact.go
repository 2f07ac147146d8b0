// Package model reads and writes trained model artifacts produced by the
// training pipeline.
package model

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/mchmarny/cherry/pkg/bayes"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

const (
	fileMode = 0600

	FormatYAML    = "yaml"
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

var ErrUnknownFormat = errors.New("unknown artifact format")

// Class is the serialized form of a single class profile.
type Class struct {
	Label    string    `json:"label" yaml:"label" msgpack:"label"`
	LogPrior float64   `json:"log_prior" yaml:"log_prior" msgpack:"log_prior"`
	LogProbs []float64 `json:"log_probs" yaml:"log_probs,flow" msgpack:"log_probs"`
}

// Artifact is the serialized form of a trained model for one language.
type Artifact struct {
	Language   string   `json:"language" yaml:"language" msgpack:"language"`
	Vocabulary []string `json:"vocabulary" yaml:"vocabulary,flow" msgpack:"vocabulary"`
	Classes    []Class  `json:"classes" yaml:"classes" msgpack:"classes"`
}

// ToModel validates the artifact and returns the model it describes.
func (a *Artifact) ToModel() (*bayes.Model, error) {
	if a == nil {
		return nil, bayes.ErrModelUnavailable
	}
	labels := make([]string, len(a.Classes))
	profiles := make([]bayes.ClassProfile, len(a.Classes))
	for i, c := range a.Classes {
		labels[i] = c.Label
		profiles[i] = bayes.ClassProfile{LogProbs: c.LogProbs, LogPrior: c.LogPrior}
	}
	m, err := bayes.NewModel(a.Vocabulary, labels, profiles)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid model artifact for language %q", a.Language)
	}
	return m, nil
}

// FromModel converts a model into its serialized form.
func FromModel(lang string, m *bayes.Model) *Artifact {
	a := &Artifact{
		Language:   lang,
		Vocabulary: m.Vocabulary().Terms(),
		Classes:    make([]Class, m.NumClasses()),
	}
	for i, l := range m.Labels() {
		p := m.Profile(i)
		a.Classes[i] = Class{Label: l, LogPrior: p.LogPrior, LogProbs: p.LogProbs}
	}
	return a
}

// FormatOf derives the artifact format from the file extension.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".mp", ".msgpack":
		return FormatMsgpack, nil
	default:
		return "", errors.Wrapf(ErrUnknownFormat, "file: %s", path)
	}
}

// Decode parses an artifact in the given format.
func Decode(format string, b []byte) (*Artifact, error) {
	var a Artifact
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(b, &a)
	case FormatJSON:
		err = json.Unmarshal(b, &a)
	case FormatMsgpack:
		err = msgpack.Unmarshal(b, &a)
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "format: %s", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s artifact", format)
	}
	return &a, nil
}

// Encode serializes an artifact in the given format.
func Encode(format string, a *Artifact) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(a); err != nil {
			return nil, errors.Wrap(err, "failed to encode yaml artifact")
		}
		return buf.Bytes(), nil
	case FormatJSON:
		b, err := json.MarshalIndent(a, "", "  ")
		return b, errors.Wrap(err, "failed to encode json artifact")
	case FormatMsgpack:
		b, err := msgpack.Marshal(a)
		return b, errors.Wrap(err, "failed to encode msgpack artifact")
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "format: %s", format)
	}
}

// ReadFile reads an artifact, the format is derived from the extension.
// A missing file is reported as bayes.ErrModelUnavailable.
func ReadFile(path string) (*Artifact, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(bayes.ErrModelUnavailable, "artifact not found: %s", path)
		}
		return nil, errors.Wrapf(err, "error reading artifact: %s", path)
	}
	return Decode(format, b)
}

// WriteFile writes an artifact atomically, the format is derived from the
// extension.
func WriteFile(path string, a *Artifact) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	b, err := Encode(format, a)
	if err != nil {
		return err
	}
	return writeAtomic(path, b)
}

func writeAtomic(path string, b []byte) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temp file in: %s", dir)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(b); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write: %s", f.Name())
	}
	if err := f.Chmod(fileMode); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to chmod: %s", f.Name())
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close: %s", f.Name())
	}
	return errors.Wrapf(os.Rename(f.Name(), path), "failed to rename into: %s", path)
}
