package jsonl

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/selah-index/core/errors"
	"github.com/FocuswithJustin/selah-index/core/topics"
)

// CatalogVersion is the "v" field of topics_min.json.
const CatalogVersion = 1

// Catalog is the document written to topics_min.json.
type Catalog struct {
	V      int            `json:"v"`
	Topics []topics.Topic `json:"topics"`
}

// WriteCatalog atomically writes the compact topic catalog to path.
func WriteCatalog(path string, list []topics.Topic) (Artifact, error) {
	if list == nil {
		list = []topics.Topic{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Catalog{V: CatalogVersion, Topics: list}); err != nil {
		return Artifact{}, errors.NewIO("encode", path, err)
	}
	data := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	if err := writeFileAtomic(path, data); err != nil {
		return Artifact{}, err
	}

	sum := blake3.Sum256(data)
	return Artifact{
		Path:    path,
		Records: len(list),
		Bytes:   int64(len(data)),
		BLAKE3:  hex.EncodeToString(sum[:]),
	}, nil
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewIO("create directory", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return errors.NewIO("create temp file for", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.NewIO("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.NewIO("close", path, err)
	}
	if err := osRename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.NewIO("rename", path, err)
	}
	return nil
}
