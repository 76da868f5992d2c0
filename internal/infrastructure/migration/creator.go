package migration

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"text/template"
)

// files are named <version>_<name>.<up|down>.sql
var (
	upFile       = regexp.MustCompile(`^(\d+)_(.+)\.up\.sql$`)
	nameSplitter = regexp.MustCompile(`[\s_-]+`)
	nameJunk     = regexp.MustCompile(`[^a-z0-9_]`)
)

const versionWidth = 6

var skeleton = template.Must(template.New("migration").Parse(
	`-- {{.Base}} ({{.Direction}}){{with .Description}}
-- {{.}}{{end}}

`))

// MigrationFile is a created up/down pair
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	UpPath      string
	DownPath    string
}

// CreateMigration writes empty up and down files for the next version in
// dir, creating dir when needed. Existing files are never overwritten.
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, errors.New("migration name must contain letters or digits")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	existing, err := ListMigrations(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	next := 1
	if n := len(existing); n > 0 {
		last, _ := migrationVersion(existing[n-1])
		next = last + 1
	}

	version := fmt.Sprintf("%0*d", versionWidth, next)
	base := version + "_" + slug
	mf := &MigrationFile{
		Version:     version,
		Name:        name,
		Description: description,
		UpPath:      filepath.Join(dir, base+".up.sql"),
		DownPath:    filepath.Join(dir, base+".down.sql"),
	}
	if err := writeSkeleton(mf.UpPath, base, "up", description); err != nil {
		return nil, err
	}
	if err := writeSkeleton(mf.DownPath, base, "down", description); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func writeSkeleton(path, base, direction, description string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	err = skeleton.Execute(f, map[string]string{"Base": base, "Direction": direction, "Description": description})
	return errors.Join(err, f.Close())
}

// sanitizeName lower snake cases name, dropping anything but letters and
// digits: "Add-Debts index!" -> "add_debts_index"
func sanitizeName(name string) string {
	s := nameSplitter.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	return strings.Trim(nameJunk.ReplaceAllString(s, ""), "_")
}

func migrationVersion(base string) (int, bool) {
	prefix, _, _ := strings.Cut(base, "_")
	n, err := strconv.Atoi(prefix)
	return n, err == nil
}

// ListMigrations returns the base names of the up files in fsys by version.
// A missing directory has none.
func ListMigrations(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	type numbered struct {
		base    string
		version int
	}
	var found []numbered
	for _, e := range entries {
		m := upFile.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		v, _ := strconv.Atoi(m[1])
		found = append(found, numbered{strings.TrimSuffix(e.Name(), ".up.sql"), v})
	}
	slices.SortFunc(found, func(a, b numbered) int { return cmp.Compare(a.version, b.version) })

	bases := make([]string, len(found))
	for i, n := range found {
		bases[i] = n.base
	}
	return bases, nil
}
