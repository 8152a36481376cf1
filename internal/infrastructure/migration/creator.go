package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"text/template"
	"time"
)

var migrationTemplate = template.Must(template.New("migration").Parse(`-- {{.File.Name}}{{if .Down}} (rollback){{end}}
-- Dialect: {{.Dialect}}
-- Created: {{.File.Timestamp}}
{{- with .File.Description}}
-- {{if $.Down}}Rollback for: {{end}}{{.}}
{{- end}}

`))

// MigrationFile is one generated up/down pair
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	Dialect     string
	UpPath      string
	DownPath    string
}

// CreateMigration writes an empty up/down pair for every dialect under root
// (root/postgres and root/sqlite3). Both pairs share one version.
func CreateMigration(root, name, description string) ([]*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}

	now := time.Now()
	files := make([]*MigrationFile, 0, 2)
	for _, dialect := range []string{DialectPostgres, DialectSQLite} {
		dir := filepath.Join(root, dialect)
		base := filepath.Join(dir, now.Format("20060102150405")+"_"+slug)
		mf := &MigrationFile{
			Version:     now.Format("20060102150405"),
			Name:        name,
			Description: description,
			Timestamp:   now.Format(time.RFC3339),
			Dialect:     dialect,
			UpPath:      base + ".up.sql",
			DownPath:    base + ".down.sql",
		}
		if err := writePair(dir, mf); err != nil {
			return nil, fmt.Errorf("%s: %w", dialect, err)
		}
		files = append(files, mf)
	}
	return files, nil
}

func writePair(dir string, mf *MigrationFile) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create migrations directory: %w", err)
	}
	if err := render(mf.UpPath, mf, false); err != nil {
		return err
	}
	if err := render(mf.DownPath, mf, true); err != nil {
		_ = os.Remove(mf.UpPath)
		return err
	}
	return nil
}

func render(path string, mf *MigrationFile, down bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	data := struct {
		File    *MigrationFile
		Dialect string
		Down    bool
	}{mf, mf.Dialect, down}
	if err := migrationTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// sanitizeName lower-cases name and keeps ASCII letters and digits, joining
// words with single underscores
func sanitizeName(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	for i, w := range words {
		words[i] = strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, w)
	}
	words = slices.DeleteFunc(words, func(w string) bool { return w == "" })
	return strings.Join(words, "_")
}

// ListMigrations returns the sorted base names of the up migrations in dir.
// A missing directory has none.
func ListMigrations(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	names := make([]string, 0, len(entries)/2)
	for _, e := range entries {
		if base, ok := strings.CutSuffix(e.Name(), ".up.sql"); ok && !e.IsDir() && base != "" {
			names = append(names, base)
		}
	}
	sort.Strings(names)
	return names, nil
}
