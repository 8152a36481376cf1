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
		{"add vendor phone", "add_vendor_phone"},
		{"Add-Vendor-Phone", "add_vendor_phone"},
		{"ADD_VENDOR_PHONE", "add_vendor_phone"},
		{"add__vendor__phone", "add_vendor_phone"},
		{"Index Usages 2", "index_usages_2"},
		{"create-min-stock", "create_min_stock"},
		{"drop !!! column", "drop_column"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := sanitizeName(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestCreateMigration(t *testing.T) {
	root := t.TempDir()

	files, err := CreateMigration(root, "add supplier column", "Track the supplier of a purchase")
	require.NoError(t, err)
	require.Len(t, files, 2)

	// One version across dialects
	assert.Len(t, files[0].Version, 14)
	assert.Equal(t, files[0].Version, files[1].Version)
	assert.Equal(t, filepath.Join(root, DialectPostgres), filepath.Dir(files[0].UpPath))
	assert.Equal(t, filepath.Join(root, DialectSQLite), filepath.Dir(files[1].UpPath))

	for _, mf := range files {
		assert.True(t, strings.HasSuffix(mf.UpPath, ".up.sql"))
		assert.True(t, strings.HasSuffix(mf.DownPath, ".down.sql"))

		upBase := strings.TrimSuffix(filepath.Base(mf.UpPath), ".up.sql")
		downBase := strings.TrimSuffix(filepath.Base(mf.DownPath), ".down.sql")
		assert.Equal(t, upBase, downBase)

		upContent, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(upContent), "add supplier column")
		assert.Contains(t, string(upContent), "Track the supplier of a purchase")

		assert.Contains(t, string(upContent), "Dialect: "+mf.Dialect)

		downContent, err := os.ReadFile(mf.DownPath)
		require.NoError(t, err)
		assert.Contains(t, string(downContent), "(rollback)")
		assert.Contains(t, string(downContent), "Rollback for: Track the supplier of a purchase")
	}
}

func TestCreateMigration_InvalidName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{
		"000002_raw_material_purchases.up.sql",
		"000002_raw_material_purchases.down.sql",
		"000001_init.up.sql",
		"000001_init.down.sql",
		"README.md",
		".gitkeep",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("-- test"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.up.sql"), 0o755))

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init", "000002_raw_material_purchases"}, migrations)

	empty, err := ListMigrations(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, empty)

	missing, err := ListMigrations(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}
