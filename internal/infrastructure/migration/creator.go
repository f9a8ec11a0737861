package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
	"unicode"
)

const versionDigits = 6

var fileTemplate = template.Must(template.New("migration").Parse(`-- {{.Name}} ({{.Direction}})
-- Created: {{.Created}}
{{if .Description}}-- {{.Description}}
{{end}}
`))

// File is one migration pair in a directory
type File struct {
	Version  uint
	Name     string
	UpPath   string
	DownPath string
}

// BaseName is the file name without direction and extension
func (f File) BaseName() string {
	return fmt.Sprintf("%0*d_%s", versionDigits, f.Version, f.Name)
}

// Create writes an empty up/down pair numbered after the highest existing version
func Create(dir, name, description string, now time.Time) (*File, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}
	existing, err := List(dir)
	if err != nil {
		return nil, err
	}

	f := &File{Version: 1, Name: slug}
	if n := len(existing); n > 0 {
		f.Version = existing[n-1].Version + 1
	}
	f.UpPath = filepath.Join(dir, f.BaseName()+".up.sql")
	f.DownPath = filepath.Join(dir, f.BaseName()+".down.sql")

	if err := writeTemplate(f.UpPath, name, "up", description, now); err != nil {
		return nil, err
	}
	if err := writeTemplate(f.DownPath, name, "down", description, now); err != nil {
		_ = os.Remove(f.UpPath)
		return nil, err
	}
	return f, nil
}

// List returns the migration pairs of dir ordered by version. A missing
// directory has no migrations.
func List(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var files []File
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		base, ok := strings.CutSuffix(entry.Name(), ".up.sql")
		if !ok {
			continue
		}
		rawVersion, name, ok := strings.Cut(base, "_")
		if !ok {
			continue
		}
		version, err := strconv.ParseUint(rawVersion, 10, 32)
		if err != nil {
			continue
		}
		files = append(files, File{
			Version:  uint(version),
			Name:     name,
			UpPath:   filepath.Join(dir, entry.Name()),
			DownPath: filepath.Join(dir, base+".down.sql"),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

func writeTemplate(path, name, direction, description string, now time.Time) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()

	return fileTemplate.Execute(out, map[string]string{
		"Name":        name,
		"Direction":   direction,
		"Created":     now.UTC().Format(time.RFC3339),
		"Description": description,
	})
}

// sanitizeName lowercases name and joins its alphanumeric words with underscores
func sanitizeName(name string) string {
	var b strings.Builder
	for _, word := range strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}) {
		var part strings.Builder
		for _, r := range strings.ToLower(word) {
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
				part.WriteRune(r)
			}
		}
		if part.Len() == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('_')
		}
		b.WriteString(part.String())
	}
	return b.String()
}
