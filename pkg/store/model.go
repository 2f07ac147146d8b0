package store

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mchmarny/cherry/pkg/bayes"
	"github.com/pkg/errors"
)

const (
	upsertModelSQL = `INSERT INTO model (lang, classes, terms, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(lang) DO UPDATE SET classes = excluded.classes, terms = excluded.terms, updated_at = excluded.updated_at
	`

	deleteVocabSQL   = `DELETE FROM vocab WHERE lang = ?`
	deleteProfileSQL = `DELETE FROM profile WHERE lang = ?`
	deleteModelSQL   = `DELETE FROM model WHERE lang = ?`

	insertVocabSQL   = `INSERT INTO vocab (lang, idx, term) VALUES (?, ?, ?)`
	insertProfileSQL = `INSERT INTO profile (lang, class_idx, label, log_prior, log_probs) VALUES (?, ?, ?, ?, ?)`

	selectModelSQL   = `SELECT classes, terms, updated_at FROM model WHERE lang = ?`
	selectVocabSQL   = `SELECT idx, term FROM vocab WHERE lang = ? ORDER BY idx`
	selectProfileSQL = `SELECT class_idx, label, log_prior, log_probs FROM profile WHERE lang = ? ORDER BY class_idx`

	selectModelsSQL = `SELECT lang, classes, terms, updated_at FROM model ORDER BY lang`
	selectLabelsSQL = `SELECT label FROM profile WHERE lang = ? ORDER BY class_idx`
)

// ModelInfo summarizes a stored model.
type ModelInfo struct {
	Language  string    `json:"language" yaml:"language"`
	Classes   int       `json:"classes" yaml:"classes"`
	Terms     int       `json:"terms" yaml:"terms"`
	Labels    []string  `json:"labels" yaml:"labels"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// SaveModel replaces the stored model of a language.
func SaveModel(db *DB, lang string, m *bayes.Model) error {
	if db == nil {
		return ErrDBNotInitialized
	}
	if lang == "" || m == nil {
		return errors.Errorf("lang: %q and model are required", lang)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	vocab := m.Vocabulary()
	if _, err := tx.Exec(db.Rebind(upsertModelSQL), lang, m.NumClasses(), vocab.Len(), time.Now().UTC().Unix()); err != nil {
		return errors.Wrapf(err, "failed to upsert model: %s", lang)
	}

	for _, q := range []string{deleteVocabSQL, deleteProfileSQL} {
		if _, err := tx.Exec(db.Rebind(q), lang); err != nil {
			return errors.Wrapf(err, "failed to clear previous model: %s", lang)
		}
	}

	vocabStmt, err := tx.Prepare(db.Rebind(insertVocabSQL))
	if err != nil {
		return errors.Wrap(err, "failed to prepare vocab insert statement")
	}
	defer vocabStmt.Close()

	for i, term := range vocab.Terms() {
		if _, err := vocabStmt.Exec(lang, i, term); err != nil {
			return errors.Wrapf(err, "failed to insert term %d: %s", i, term)
		}
	}

	profileStmt, err := tx.Prepare(db.Rebind(insertProfileSQL))
	if err != nil {
		return errors.Wrap(err, "failed to prepare profile insert statement")
	}
	defer profileStmt.Close()

	for c, label := range m.Labels() {
		p := m.Profile(c)
		b, err := json.Marshal(p.LogProbs)
		if err != nil {
			return errors.Wrapf(err, "failed to marshal log-probabilities of class: %s", label)
		}
		if _, err := profileStmt.Exec(lang, c, label, p.LogPrior, string(b)); err != nil {
			return errors.Wrapf(err, "failed to insert class: %s", label)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit model")
	}

	slog.Debug("model saved", "lang", lang, "classes", m.NumClasses(), "terms", vocab.Len())
	return nil
}

// LoadModel reads and validates the stored model of a language. A language
// without a stored model is reported as bayes.ErrModelUnavailable.
func LoadModel(db *DB, lang string) (*bayes.Model, error) {
	if db == nil {
		return nil, ErrDBNotInitialized
	}

	var classes, terms int
	var updated int64
	err := db.QueryRow(db.Rebind(selectModelSQL), lang).Scan(&classes, &terms, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(bayes.ErrModelUnavailable, "no stored model for language: %s", lang)
		}
		return nil, errors.Wrapf(err, "failed to select model: %s", lang)
	}

	vocab, err := loadVocab(db, lang)
	if err != nil {
		return nil, err
	}
	if len(vocab) != terms {
		return nil, errors.Wrapf(bayes.ErrDimensionMismatch, "model %s lists %d terms, found %d", lang, terms, len(vocab))
	}

	labels, profiles, err := loadProfiles(db, lang)
	if err != nil {
		return nil, err
	}
	if len(labels) != classes {
		return nil, errors.Wrapf(bayes.ErrDimensionMismatch, "model %s lists %d classes, found %d", lang, classes, len(labels))
	}

	m, err := bayes.NewModel(vocab, labels, profiles)
	if err != nil {
		return nil, errors.Wrapf(err, "stored model %s is invalid", lang)
	}

	slog.Debug("model loaded", "lang", lang, "classes", classes, "terms", terms)
	return m, nil
}

func loadVocab(db *DB, lang string) ([]string, error) {
	rows, err := db.Query(db.Rebind(selectVocabSQL), lang)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to select vocabulary: %s", lang)
	}
	defer rows.Close()

	list := make([]string, 0)
	for rows.Next() {
		var idx int
		var term string
		if err := rows.Scan(&idx, &term); err != nil {
			return nil, errors.Wrap(err, "failed to scan term")
		}
		if idx != len(list) {
			return nil, errors.Wrapf(bayes.ErrCorruptModel, "vocabulary %s has gap at index %d", lang, len(list))
		}
		list = append(list, term)
	}
	return list, errors.Wrap(rows.Err(), "failed to iterate vocabulary")
}

func loadProfiles(db *DB, lang string) ([]string, []bayes.ClassProfile, error) {
	rows, err := db.Query(db.Rebind(selectProfileSQL), lang)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to select profiles: %s", lang)
	}
	defer rows.Close()

	labels := make([]string, 0)
	profiles := make([]bayes.ClassProfile, 0)
	for rows.Next() {
		var idx int
		var label, raw string
		var prior float64
		if err := rows.Scan(&idx, &label, &prior, &raw); err != nil {
			return nil, nil, errors.Wrap(err, "failed to scan profile")
		}
		if idx != len(labels) {
			return nil, nil, errors.Wrapf(bayes.ErrCorruptModel, "profiles %s have gap at index %d", lang, len(labels))
		}
		var lps []float64
		if err := json.Unmarshal([]byte(raw), &lps); err != nil {
			return nil, nil, errors.Wrapf(bayes.ErrCorruptModel, "class %s log-probabilities: %v", label, err)
		}
		labels = append(labels, label)
		profiles = append(profiles, bayes.ClassProfile{LogProbs: lps, LogPrior: prior})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "failed to iterate profiles")
	}
	return labels, profiles, nil
}

// ListModels returns a summary of every stored model.
func ListModels(db *DB) ([]*ModelInfo, error) {
	if db == nil {
		return nil, ErrDBNotInitialized
	}

	rows, err := db.Query(selectModelsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to select models")
	}

	list := make([]*ModelInfo, 0)
	for rows.Next() {
		var updated int64
		mi := &ModelInfo{}
		if err := rows.Scan(&mi.Language, &mi.Classes, &mi.Terms, &updated); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "failed to scan model")
		}
		mi.UpdatedAt = time.Unix(updated, 0).UTC()
		list = append(list, mi)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, errors.Wrap(err, "failed to iterate models")
	}

	// labels are read after the model rows are released
	for _, mi := range list {
		if mi.Labels, err = selectLabels(db, mi.Language); err != nil {
			return nil, err
		}
	}

	return list, nil
}

func selectLabels(db *DB, lang string) ([]string, error) {
	rows, err := db.Query(db.Rebind(selectLabelsSQL), lang)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to select labels: %s", lang)
	}
	defer rows.Close()

	list := make([]string, 0)
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, errors.Wrap(err, "failed to scan label")
		}
		list = append(list, l)
	}
	return list, errors.Wrap(rows.Err(), "failed to iterate labels")
}

// DeleteModel removes the stored model of a language.
func DeleteModel(db *DB, lang string) error {
	if db == nil {
		return ErrDBNotInitialized
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.Exec(db.Rebind(deleteModelSQL), lang)
	if err != nil {
		return errors.Wrapf(err, "failed to delete model: %s", lang)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(bayes.ErrModelUnavailable, "no stored model for language: %s", lang)
	}

	for _, q := range []string{deleteVocabSQL, deleteProfileSQL} {
		if _, err := tx.Exec(db.Rebind(q), lang); err != nil {
			return errors.Wrapf(err, "failed to delete model data: %s", lang)
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit delete")
}

// DeleteAll removes every stored model.
func DeleteAll(db *DB) error {
	if db == nil {
		return ErrDBNotInitialized
	}
	for _, t := range []string{"vocab", "profile", "model"} {
		if _, err := db.Exec("DELETE FROM " + t); err != nil {
			return errors.Wrapf(err, "failed to clear table: %s", t)
		}
	}
	return nil
}
