package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Amr-9/rrt/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadFirstRow(t *testing.T) {
	row, err := readFirstRow(writeCSV(t, "name,role\nalice,admin\nbob,user\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "alice", "role": "admin"}, row)
}

func TestReadFirstRow_Errors(t *testing.T) {
	_, err := readFirstRow(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = readFirstRow(writeCSV(t, ""))
	assert.ErrorContains(t, err, "failed to read csv header")

	_, err = readFirstRow(writeCSV(t, "name\n"))
	assert.ErrorContains(t, err, "at least one row")

	_, err = readFirstRow(writeCSV(t, "name,\nalice,x\n"))
	assert.ErrorContains(t, err, "empty field")

	_, err = readFirstRow(writeCSV(t, "name,role\nalice\n"))
	assert.Error(t, err, "rows must match the header width")
}

func TestLoadFixtures(t *testing.T) {
	path := writeCSV(t, "email,password\nqa@example.com,secret\nother@example.com,x\n")

	fixtures, err := LoadFixtures([]models.DataSource{{Name: "users", Path: path}})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"users.email":    "qa@example.com",
		"users.password": "secret",
	}, fixtures)

	none, err := LoadFixtures(nil)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = LoadFixtures([]models.DataSource{{Name: "bad", Path: "/does/not/exist.csv"}})
	assert.ErrorContains(t, err, `data source "bad"`)
}
