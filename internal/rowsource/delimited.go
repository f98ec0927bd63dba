package rowsource

import (
	"compress/gzip"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/selah-index/core/errors"
	"github.com/FocuswithJustin/selah-index/core/rows"
)

const utf8BOM = "\ufeff"

// delimitedReader reads comma or tab separated text. Every field is a text
// cell; numeric interpretation is left to the consumer.
type delimitedReader struct {
	path         string
	file         *os.File
	decompressor io.Closer
	csv          *csv.Reader
	first        bool
}

func openDelimited(path string, comma rune) (*delimitedReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}

	var reader io.Reader = f
	var decompressor io.Closer

	base, comp := compressionExt(path)
	switch comp {
	case ".xz":
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.NewIO("open xz stream", path, err)
		}
		reader = xzr
	case ".gz":
		gzr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.NewIO("open gzip stream", path, err)
		}
		reader = gzr
		decompressor = gzr
	}

	if comma == 0 {
		comma = ','
		switch strings.ToLower(filepath.Ext(base)) {
		case ".tsv", ".tab":
			comma = '\t'
		}
	}

	cr := csv.NewReader(reader)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	return &delimitedReader{
		path:         path,
		file:         f,
		decompressor: decompressor,
		csv:          cr,
		first:        true,
	}, nil
}

func (d *delimitedReader) Next() (rows.Row, error) {
	rec, err := d.csv.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, errors.NewIO("read", d.path, err)
	}
	if d.first && len(rec) > 0 {
		rec[0] = strings.TrimPrefix(rec[0], utf8BOM)
	}
	d.first = false

	row := make(rows.Row, len(rec))
	for i, field := range rec {
		row[i] = rows.Text(field)
	}
	return row, nil
}

// Close closes the reader and any underlying decompressor.
func (d *delimitedReader) Close() error {
	var errs []error
	if d.decompressor != nil {
		if err := d.decompressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := d.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
