// Package jsonl writes the compact artifacts of a build: gzip-compressed
// JSON Lines files of positional records, and the plain JSON topic catalog.
//
// Every artifact is written to a temporary file beside its target and renamed
// into place on Commit, so a failed or cancelled job never leaves a partial
// file at the target path. Each committed artifact carries the BLAKE3 digest
// of its on-disk bytes.
package jsonl

import (
	"bufio"
	"compress/gzip"
	"encoding/hex"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/selah-index/core/errors"
)

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

// Artifact describes one committed output file.
type Artifact struct {
	Path    string `json:"path"`
	Records int    `json:"records"`
	Bytes   int64  `json:"bytes"`
	BLAKE3  string `json:"blake3"`
}

// Weight is a float that always serializes with a fraction ("1.0", "0.5").
type Weight float64

// MarshalJSON implements json.Marshaler.
func (w Weight) MarshalJSON() ([]byte, error) {
	f := float64(w)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errors.NewValidation("weight", "not a finite number")
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return []byte(s), nil
}

// digestWriter counts and hashes everything written to the temp file.
type digestWriter struct {
	hash *blake3.Hasher
	n    int64
}

func (d *digestWriter) Write(p []byte) (int, error) {
	d.n += int64(len(p))
	return d.hash.Write(p)
}

// Writer streams positional records into a gzip-compressed JSON Lines file.
type Writer struct {
	path    string
	tmp     *os.File
	buf     *bufio.Writer
	gz      *gzip.Writer
	enc     *json.Encoder
	digest  *digestWriter
	records int
	done    bool
}

// Create opens a writer whose output becomes visible at path on Commit.
// The parent directory is created when missing.
func Create(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.NewIO("create directory", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return nil, errors.NewIO("create temp file for", path, err)
	}

	digest := &digestWriter{hash: blake3.New()}
	buf := bufio.NewWriterSize(io.MultiWriter(tmp, digest), 64*1024)
	// A zero header (no name, no mtime) keeps the output byte-identical
	// across runs.
	gz, err := gzip.NewWriterLevel(buf, gzip.BestCompression)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, errors.NewIO("create gzip writer for", path, err)
	}
	enc := json.NewEncoder(gz)
	enc.SetEscapeHTML(false)

	return &Writer{
		path:   path,
		tmp:    tmp,
		buf:    buf,
		gz:     gz,
		enc:    enc,
		digest: digest,
	}, nil
}

// Path returns the target path.
func (w *Writer) Path() string { return w.path }

// Records returns the number of records written so far.
func (w *Writer) Records() int { return w.records }

// WriteRecord writes fields as one JSON array followed by a newline.
func (w *Writer) WriteRecord(fields ...any) error {
	if w.done {
		return errors.NewIO("write", w.path, os.ErrClosed)
	}
	if err := w.enc.Encode(fields); err != nil {
		return errors.NewIO("write", w.path, err)
	}
	w.records++
	return nil
}

// Commit flushes all data and renames the temp file to the target path.
func (w *Writer) Commit() (Artifact, error) {
	if w.done {
		return Artifact{}, errors.NewIO("commit", w.path, os.ErrClosed)
	}
	if err := w.gz.Close(); err != nil {
		w.Abort()
		return Artifact{}, errors.NewIO("compress", w.path, err)
	}
	if err := w.buf.Flush(); err != nil {
		w.Abort()
		return Artifact{}, errors.NewIO("write", w.path, err)
	}
	if err := w.tmp.Sync(); err != nil {
		w.Abort()
		return Artifact{}, errors.NewIO("sync", w.path, err)
	}
	if err := w.tmp.Close(); err != nil {
		os.Remove(w.tmp.Name())
		w.done = true
		return Artifact{}, errors.NewIO("close", w.path, err)
	}
	w.done = true
	if err := osRename(w.tmp.Name(), w.path); err != nil {
		os.Remove(w.tmp.Name())
		return Artifact{}, errors.NewIO("rename", w.path, err)
	}

	return Artifact{
		Path:    w.path,
		Records: w.records,
		Bytes:   w.digest.n,
		BLAKE3:  hex.EncodeToString(w.digest.hash.Sum(nil)),
	}, nil
}

// Abort discards the output. It is a no-op after Commit or a previous Abort,
// so it can be deferred unconditionally.
func (w *Writer) Abort() {
	if w.done {
		return
	}
	w.done = true
	w.tmp.Close()
	os.Remove(w.tmp.Name())
}
