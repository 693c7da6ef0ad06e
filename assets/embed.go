package assets

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed games.yaml sql/*.sql
var FS embed.FS

// Migration is one embedded SQL script.
type Migration struct {
	Name string
	SQL  string
}

// Games returns the embedded game catalog (YAML).
func Games() ([]byte, error) {
	return FS.ReadFile("games.yaml")
}

// Migrations returns the embedded sql/*.sql scripts in lexical order.
func Migrations() ([]Migration, error) {
	names, err := fs.Glob(FS, "sql/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, n := range names {
		b, err := FS.ReadFile(n)
		if err != nil {
			return nil, err
		}
		out = append(out, Migration{Name: strings.TrimPrefix(n, "sql/"), SQL: string(b)})
	}
	return out, nil
}
