package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mchmarny/cherry/pkg/bayes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	err := Init(dbPath)
	require.NoError(t, err)
	db, err := GetDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testModel(t *testing.T) *bayes.Model {
	t.Helper()
	m, err := bayes.NewModel(
		[]string{"free", "win", "meeting"},
		[]string{"spam", "ham"},
		[]bayes.ClassProfile{
			{LogProbs: []float64{-1.0, -1.2, -5.0}, LogPrior: -0.5},
			{LogProbs: []float64{-4.0, -4.5, -0.8}, LogPrior: -0.5},
		},
	)
	require.NoError(t, err)
	return m
}

func TestInit_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	err := Init(dbPath)
	require.NoError(t, err)
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestInit_EmptyPath(t *testing.T) {
	err := Init("")
	assert.Error(t, err)
}

func TestInit_SchemaVersion(t *testing.T) {
	db := setupTestDB(t)

	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	assert.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestInit_Idempotent(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	require.NoError(t, Init(dbPath))
	assert.NoError(t, Init(dbPath))

	db, err := GetDB(dbPath)
	require.NoError(t, err)
	defer db.Close()

	var rows int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestDriverFor(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"/tmp/data.db", DriverSQLite},
		{"data.db", DriverSQLite},
		{"postgres://u:p@localhost:5432/cherry", DriverPostgres},
		{"postgresql://localhost/cherry", DriverPostgres},
		{"host=localhost dbname=cherry", DriverPostgres},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.want, DriverFor(tt.dsn))
		})
	}
}

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE b = ? AND c = ?"
	assert.Equal(t, q, (&DB{driver: DriverSQLite}).Rebind(q))
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2", (&DB{driver: DriverPostgres}).Rebind(q))
}
