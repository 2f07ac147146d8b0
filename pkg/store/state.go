package store

import (
	"database/sql"

	"github.com/pkg/errors"
)

var stateQueries = map[string]string{
	"model":   "SELECT COUNT(*) FROM model",
	"term":    "SELECT COUNT(*) FROM vocab",
	"profile": "SELECT COUNT(*) FROM profile",
}

// GetDataState returns row counts of the stored model tables.
func GetDataState(db *DB) (map[string]int64, error) {
	if db == nil {
		return nil, ErrDBNotInitialized
	}

	state := make(map[string]int64)
	for k, v := range stateQueries {
		var count int64
		if err := db.QueryRow(v).Scan(&count); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				state[k] = 0
				continue
			}
			return nil, errors.Wrapf(err, "error getting %s count", k)
		}
		state[k] = count
	}
	return state, nil
}
