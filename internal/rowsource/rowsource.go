// Package rowsource opens tabular input files as row sources. The reader is
// picked by file extension: delimited text (optionally gzip or xz
// compressed), XLSX workbooks and SQLite databases.
package rowsource

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/selah-index/core/errors"
	"github.com/FocuswithJustin/selah-index/core/rows"
	"github.com/FocuswithJustin/selah-index/internal/validation"
)

// Options control how a source is read.
type Options struct {
	// SkipRows is the number of leading rows dropped before the header.
	// Ignored for SQLite, whose header is the column list.
	SkipRows int
	// Sheet names the XLSX worksheet to read; the first sheet by default.
	Sheet string
	// Table names the SQLite table to read; the first user table by default.
	Table string
	// Comma is the field delimiter of text sources. Zero picks tab for
	// .tsv and .tab files and comma otherwise.
	Comma rune
}

// Format is an input file format.
type Format string

const (
	FormatDelimited Format = "delimited"
	FormatXLSX      Format = "xlsx"
	FormatSQLite    Format = "sqlite"
)

// compressionExt strips a trailing .gz or .xz from name.
func compressionExt(name string) (base, ext string) {
	lower := strings.ToLower(name)
	for _, e := range []string{".gz", ".xz"} {
		if strings.HasSuffix(lower, e) {
			return name[:len(name)-len(e)], e
		}
	}
	return name, ""
}

// Detect returns the format of path from its extension.
func Detect(path string) (Format, error) {
	base, comp := compressionExt(path)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".csv", ".tsv", ".tab", ".txt":
		return FormatDelimited, nil
	case ".xlsx", ".xlsm":
		if comp == "" {
			return FormatXLSX, nil
		}
	case ".db", ".sqlite", ".sqlite3":
		if comp == "" {
			return FormatSQLite, nil
		}
	}
	return "", errors.NewUnsupported("input format", filepath.Base(path))
}

// contentType is the file content expected for path in format.
func contentType(path string, format Format) validation.FileType {
	switch format {
	case FormatXLSX:
		return validation.FileTypeZip
	case FormatSQLite:
		return validation.FileTypeSQLite
	}
	switch _, comp := compressionExt(path); comp {
	case ".gz":
		return validation.FileTypeGzip
	case ".xz":
		return validation.FileTypeXZ
	}
	return validation.FileTypeText
}

// Open opens path as a row source. A missing file is reported as a
// *errors.NotFoundError.
func Open(path string, opts Options) (rows.Source, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("input", path)
		}
		return nil, errors.NewIO("stat", path, err)
	}

	format, err := Detect(path)
	if err != nil {
		return nil, err
	}
	if err := validation.ExpectFileType(path, contentType(path, format)); err != nil {
		return nil, err
	}

	var r rawReader
	switch format {
	case FormatXLSX:
		var x *xlsxReader
		x, err = openXLSX(path, opts.Sheet)
		r = x
	case FormatSQLite:
		src, err := openSQLite(path, opts.Table)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		var d *delimitedReader
		d, err = openDelimited(path, opts.Comma)
		r = d
	}
	if err != nil {
		return nil, err
	}
	return newTableSource(path, r, opts.SkipRows)
}

// rawReader yields physical rows, header included.
type rawReader interface {
	Next() (rows.Row, error)
	Close() error
}

// tableSource turns a rawReader into a rows.Source: leading rows are
// skipped and the next row becomes the header.
type tableSource struct {
	rawReader
	header []string
}

func newTableSource(path string, r rawReader, skip int) (rows.Source, error) {
	var row rows.Row
	var err error
	for i := 0; i <= skip; i++ {
		row, err = r.Next()
		if err != nil {
			break
		}
	}
	if err == io.EOF {
		// An empty input has an empty header; detection rejects it.
		return &tableSource{rawReader: r}, nil
	}
	if err != nil {
		r.Close()
		return nil, errors.NewIO("read header of", path, err)
	}

	header := make([]string, len(row))
	for i, c := range row {
		header[i] = c.Text()
	}
	return &tableSource{rawReader: r, header: header}, nil
}

func (s *tableSource) Header() []string { return s.header }

// Opener opens inputs with per-path options. It satisfies pipeline.Opener.
type Opener struct {
	Defaults Options
	PerPath  map[string]Options
}

// Open opens path with its own options, or the defaults.
func (o Opener) Open(path string) (rows.Source, error) {
	if opts, ok := o.PerPath[path]; ok {
		return Open(path, opts)
	}
	return Open(path, o.Defaults)
}
