package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/FocuswithJustin/selah-index/core/errors"
)

func TestParse(t *testing.T) {
	m, err := Parse([]byte(`
out: assets/data
sources:
  - path: bsb_concordance.xlsx
  - path: bsb_topical_index.xlsx
    skip_rows: 2
    sheet: Topics
  - path: themes.tsv
    delimiter: "\t"
`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if m.Parallel != DefaultParallel {
		t.Errorf("Parallel = %d, want %d", m.Parallel, DefaultParallel)
	}
	want := []Source{
		{Path: "bsb_concordance.xlsx"},
		{Path: "bsb_topical_index.xlsx", SkipRows: 2, Sheet: "Topics"},
		{Path: "themes.tsv", Delimiter: "\t"},
	}
	if !reflect.DeepEqual(m.Sources, want) {
		t.Errorf("Sources = %+v, want %+v", m.Sources, want)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no out", "sources:\n  - path: a.csv\n"},
		{"no sources", "out: x\n"},
		{"empty path", "out: x\nsources:\n  - skip_rows: 1\n"},
		{"negative skip", "out: x\nsources:\n  - path: a.csv\n    skip_rows: -1\n"},
		{"negative parallel", "out: x\nparallel: -2\nsources:\n  - path: a.csv\n"},
		{"long delimiter", "out: x\nsources:\n  - path: a.csv\n    delimiter: ';;'\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("Parse() error = %v, want validation error", err)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte("out: [unclosed")); err == nil {
		t.Error("Parse() should fail on malformed YAML")
	}
}

func TestLoadFileResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "build.yaml")
	abs := filepath.Join(dir, "elsewhere", "t.csv")
	data := "out: out\nparallel: 1\nsources:\n  - path: data/c.csv\n  - path: " + abs + "\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if m.Out != filepath.Join(dir, "out") {
		t.Errorf("Out = %q", m.Out)
	}
	want := []string{filepath.Join(dir, "data", "c.csv"), abs}
	if got := m.Paths(); !reflect.DeepEqual(got, want) {
		t.Errorf("Paths() = %v, want %v", got, want)
	}
	if m.Parallel != 1 {
		t.Errorf("Parallel = %d, want 1", m.Parallel)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("LoadFile() error = %v, want not found", err)
	}
}
