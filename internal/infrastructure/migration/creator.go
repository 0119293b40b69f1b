package migration

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

var migrationTemplate = template.Must(template.New("migration").Parse(`-- Migration: {{.Name}}{{if .Rollback}} (Rollback){{end}}
-- Created: {{.Timestamp}}
{{- if .Description}}
-- Description: {{.Description}}
{{- end}}

`))

// MigrationFile describes a created up/down pair
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration writes the next sequentially numbered up/down pair into dir
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	safe := sanitizeName(name)
	if safe == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := ListMigrations(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	next := 1
	for _, m := range existing {
		if n, err := strconv.Atoi(strings.SplitN(m, "_", 2)[0]); err == nil && n >= next {
			next = n + 1
		}
	}

	mf := &MigrationFile{
		Version:     fmt.Sprintf("%06d", next),
		Name:        name,
		Description: description,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	base := mf.Version + "_" + safe
	mf.UpPath = filepath.Join(dir, base+".up.sql")
	mf.DownPath = filepath.Join(dir, base+".down.sql")

	if err := writeMigrationFile(mf.UpPath, mf, false); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := writeMigrationFile(mf.DownPath, mf, true); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}
	return mf, nil
}

func writeMigrationFile(path string, mf *MigrationFile, rollback bool) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return migrationTemplate.Execute(f, struct {
		*MigrationFile
		Rollback bool
	}{mf, rollback})
}

// sanitizeName lowercases name and joins its alphanumeric runs with underscores
func sanitizeName(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		kept := strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, f)
		if kept != "" {
			parts = append(parts, kept)
		}
	}
	return strings.Join(parts, "_")
}

// ListMigrations returns the sorted base names of every up migration in fsys.
// A missing directory lists as empty.
func ListMigrations(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	out := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(e.Name(), ".up.sql"); ok {
			out = append(out, base)
		}
	}
	sort.Strings(out)
	return out, nil
}
