package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sellout/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"add sales index":        "add_sales_index",
		"Add-Feed-Columns":       "add_feed_columns",
		"ADD__DEALER__TYPE":      "add_dealer_type",
		"   spaces   ":           "spaces",
		"special!@#$chars":       "specialchars",
		"_leading and trailing_": "leading_and_trailing",
		"":                       "",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeName(in), in)
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_existing.up.sql"), []byte("--"), 0o644))

	mf, err := CreateMigration(dir, "add feed index", "Index feed dates")
	require.NoError(t, err)

	assert.Equal(t, "000008", mf.Version)
	assert.Equal(t, filepath.Join(dir, "000008_add_feed_index.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "000008_add_feed_index.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add feed index\n")
	assert.Contains(t, string(up), "-- Description: Index feed dates")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(Rollback)")
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(dir, "init", "")
	require.NoError(t, err)
	assert.Equal(t, "000001", mf.Version)
	assert.FileExists(t, mf.UpPath)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{
		"000002_sales.up.sql", "000002_sales.down.sql",
		"000001_refs.up.sql", "000001_refs.down.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("--"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.up.sql"), 0o755))

	got, err := ListMigrations(os.DirFS(dir))
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_refs", "000002_sales"}, got)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	got, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "absent")))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListMigrations_Embedded(t *testing.T) {
	got, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"000001_reference_tables",
		"000002_sales_logs",
		"000003_distributor_feed",
	}, got)
}
