package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add pickup date", "add_pickup_date"},
		{"Add-Pickup-Date", "add_pickup_date"},
		{"ADD__PICKUP__DATE", "add_pickup_date"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "create donations")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_donations.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_create_donations.down.sql"), first.DownPath)

	second, err := CreateMigration(dir, "add pickup date")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	for _, path := range []string{first.UpPath, first.DownPath, second.UpPath, second.DownPath} {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}
}

func TestCreateMigration_InvalidName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_add_index.up.sql",
		"000002_add_index.down.sql",
		"000001_create_donations.up.sql",
		"000001_create_donations.down.sql",
		"README.md",
		"notes.up.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	files, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, uint(1), files[0].Version)
	assert.Equal(t, "create_donations", files[0].Name)
	assert.Equal(t, uint(2), files[1].Version)
	assert.Equal(t, "add_index", files[1].Name)
}

func TestListMigrations_MissingDir(t *testing.T) {
	files, err := ListMigrations(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestListMigrations_RepositoryMigrations(t *testing.T) {
	files, err := ListMigrations(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "create_donations", files[0].Name)
}
