package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"mercadona/snapshot/internal/domain"

	log "github.com/sirupsen/logrus"
)

// Writer persists the snapshot tree:
//
//	<out>/categories.json        normalized category forest
//	<out>/product_ids.json       sorted product id index
//	<out>/categories/<id>.json   verbatim category detail
//	<out>/products/<id>.json     verbatim product detail
//
// Writes are atomic (temp file + rename) and optionally skipped when the
// content is byte-identical, which keeps weekly dataset diffs quiet. The
// writer does no network I/O and never retries: any failure here is fatal to
// the run.
type Writer struct {
	outDir        string
	skipUnchanged bool
}

func NewWriter(outDir string, skipUnchanged bool) *Writer {
	return &Writer{
		outDir:        outDir,
		skipUnchanged: skipUnchanged,
	}
}

// OutDir returns the snapshot root directory.
func (w *Writer) OutDir() string {
	return w.outDir
}

// WriteForest writes categories.json from the normalized forest.
func (w *Writer) WriteForest(forest []domain.Category) error {
	return w.writeValue(filepath.Join(w.outDir, "categories.json"), forest)
}

// WriteProductIDs writes product_ids.json. The ids must already be sorted;
// the file is the reproducibility anchor for the whole snapshot.
func (w *Writer) WriteProductIDs(ids []int) error {
	return w.writeValue(filepath.Join(w.outDir, "product_ids.json"), ids)
}

// WriteCategory writes one category detail body under categories/<id>.json.
func (w *Writer) WriteCategory(id int, raw json.RawMessage) error {
	return w.writeRaw(filepath.Join(w.outDir, "categories", strconv.Itoa(id)+".json"), raw)
}

// WriteProduct writes one product detail body under products/<id>.json.
func (w *Writer) WriteProduct(id int, raw json.RawMessage) error {
	return w.writeRaw(filepath.Join(w.outDir, "products", strconv.Itoa(id)+".json"), raw)
}

// writeValue marshals a Go value with stable two-space indentation.
func (w *Writer) writeValue(path string, v any) error {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return w.writeFile(path, append(content, '\n'))
}

// writeRaw re-indents a verbatim API body without touching key order.
func (w *Writer) writeRaw(path string, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("failed to indent %s: %w", filepath.Base(path), err)
	}
	buf.WriteByte('\n')
	return w.writeFile(path, buf.Bytes())
}

func (w *Writer) writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	if w.skipUnchanged {
		old, err := os.ReadFile(path)
		if err == nil && bytes.Equal(old, content) {
			log.Debugf("Unchanged, skipping %s", path)
			return nil
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
