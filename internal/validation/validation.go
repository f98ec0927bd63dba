// Package validation checks user-supplied paths and verifies that input files
// hold what their extension claims.
package validation

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/FocuswithJustin/selah-index/core/errors"
)

// MaxPathLength is the maximum allowed path length.
const MaxPathLength = 4096

// sniffLen is the number of leading bytes read for magic byte detection.
const sniffLen = 512

// ValidatePath rejects empty or overlong paths and paths carrying null bytes
// or control characters. field names the flag or manifest key in the error.
func ValidatePath(field, path string) error {
	if path == "" {
		return errors.NewValidation(field, "path cannot be empty")
	}
	if len(path) > MaxPathLength {
		return errors.NewValidation(field, "path too long")
	}
	if strings.Contains(path, "\x00") {
		return errors.NewValidation(field, "null byte not allowed in path")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return errors.NewValidation(field, "control character not allowed in path")
		}
	}
	return nil
}

// FileType is a file content type recognized from its leading bytes.
type FileType string

const (
	FileTypeGzip    FileType = "gzip"
	FileTypeXZ      FileType = "xz"
	FileTypeZip     FileType = "zip"
	FileTypeSQLite  FileType = "sqlite"
	FileTypeText    FileType = "text"
	FileTypeEmpty   FileType = "empty"
	FileTypeUnknown FileType = "unknown"
)

// magicBytes defines magic byte signatures for file type detection.
var magicBytes = []struct {
	fileType FileType
	magic    []byte
}{
	{FileTypeGzip, []byte{0x1f, 0x8b}},
	{FileTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{FileTypeZip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{FileTypeSQLite, []byte("SQLite format 3\x00")},
}

// Sniff reads the first bytes of r and reports its content type.
func Sniff(r io.Reader) (FileType, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileTypeUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	buf = buf[:n]

	if len(buf) == 0 {
		return FileTypeEmpty, nil
	}
	for _, sig := range magicBytes {
		if bytes.HasPrefix(buf, sig.magic) {
			return sig.fileType, nil
		}
	}
	if isLikelyText(buf) {
		return FileTypeText, nil
	}
	return FileTypeUnknown, nil
}

// SniffFile opens path and sniffs its content type.
func SniffFile(path string) (FileType, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileTypeUnknown, errors.NewIO("open", path, err)
	}
	defer f.Close()

	t, err := Sniff(f)
	if err != nil {
		return FileTypeUnknown, errors.NewIO("read", path, err)
	}
	return t, nil
}

// ExpectFileType fails with an *errors.UnsupportedError when the content of
// path is not want. Empty files pass; so do unrecognized bytes where text is
// expected, since legacy encodings have no signature.
func ExpectFileType(path string, want FileType) error {
	got, err := SniffFile(path)
	if err != nil {
		return err
	}
	switch {
	case got == want, got == FileTypeEmpty:
		return nil
	case want == FileTypeText && got == FileTypeUnknown:
		return nil
	}
	return errors.NewUnsupported("input content",
		fmt.Sprintf("%s: extension suggests %s but content is %s", filepath.Base(path), want, got))
}

// isLikelyText checks if the buffer contains likely text content.
func isLikelyText(buf []byte) bool {
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}

	printable := 0
	control := 0
	for _, b := range buf {
		if b >= 0x20 && b <= 0x7e || b == '\t' || b == '\n' || b == '\r' {
			printable++
		} else if b < 0x20 {
			control++
		}
		// UTF-8 lead and continuation bytes are neutral
	}

	return printable > 0 && float64(printable)/float64(printable+control) > 0.95
}
