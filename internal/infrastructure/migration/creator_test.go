package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"create pipeline tables", "create_pipeline_tables"},
		{"Create-Shipping-Tables", "create_shipping_tables"},
		{"ADD_TRACKING_CODE", "add_tracking_code"},
		{"add__index__twice", "add_index_twice"},
		{"Sendcloud v2", "sendcloud_v2"},
		{"   spaces   ", "spaces"},
		{"dots.and!bangs", "dotsandbangs"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigrationWritesPair(t *testing.T) {
	tmpDir := t.TempDir()

	mf, err := CreateMigration(tmpDir, "add lot numbers", "Lot numbers on shipment lines")
	require.NoError(t, err)

	assert.Len(t, mf.Version, 14, "version is the YYYYMMDDHHMMSS timestamp")
	assert.Equal(t, "add_lot_numbers", mf.Name)
	assert.Equal(t,
		strings.TrimSuffix(filepath.Base(mf.UpPath), ".up.sql"),
		strings.TrimSuffix(filepath.Base(mf.DownPath), ".down.sql"))

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add_lot_numbers")
	assert.Contains(t, string(up), "Lot numbers on shipment lines")
	assert.Contains(t, string(up), "Write your UP migration SQL here")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(Rollback)")
	assert.Contains(t, string(down), "Rollback for Lot numbers on shipment lines")
}

func TestCreateMigrationCreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "db", "migrations")

	mf, err := CreateMigration(nested, "init", "")
	require.NoError(t, err)
	require.NotNil(t, mf)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestListMigrationsOnePerPair(t *testing.T) {
	tmpDir := t.TempDir()

	files := []string{
		"20260815100000_create_pipeline_tables.up.sql",
		"20260815100000_create_pipeline_tables.down.sql",
		"20260815101500_create_shipping_tables.up.sql",
		"20260815101500_create_shipping_tables.down.sql",
	}
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, f), []byte("-- sql"), 0644))
	}

	migrations, err := ListMigrations(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"20260815100000_create_pipeline_tables",
		"20260815101500_create_shipping_tables",
	}, migrations)
}

func TestListMigrationsIgnoresStrays(t *testing.T) {
	tmpDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "20260815100000_init.up.sql"), []byte("-- sql"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "20260815100000_init.down.sql"), []byte("-- sql"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "README.md"), []byte("docs"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".gitkeep"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "archive.up.sql"), 0755))

	migrations, err := ListMigrations(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"20260815100000_init"}, migrations)
}

func TestListMigrationsMissingDirectory(t *testing.T) {
	migrations, err := ListMigrations(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}
