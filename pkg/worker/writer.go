package worker

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bulkdock/bulkdock/pkg/internal/fsutil"
)

// ResultColumn is appended to the batch header in CSV outputs.
const ResultColumn = "result"

// ItemResult is a successful placement.
type ItemResult struct {
	Item     Item
	Artifact []byte
}

// ResultWriter persists the successful results of one batch.
type ResultWriter interface {
	WriteResults(path string, header []string, results []ItemResult) error
}

// FileResultWriter writes CSV outputs as the batch rows plus a result column,
// and any other extension as the artifacts concatenated in item order.
type FileResultWriter struct{}

// WriteResults implements ResultWriter. The file is replaced atomically.
func (FileResultWriter) WriteResults(path string, header []string, results []ItemResult) error {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return fsutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
			cw := csv.NewWriter(w)
			if err := cw.Write(append(append([]string(nil), header...), ResultColumn)); err != nil {
				return fmt.Errorf("write header to %s: %w", path, err)
			}
			for _, r := range results {
				row := append(append([]string(nil), r.Item.Fields...), string(bytes.TrimSpace(r.Artifact)))
				if err := cw.Write(row); err != nil {
					return fmt.Errorf("write row to %s: %w", path, err)
				}
			}
			cw.Flush()
			return cw.Error()
		})
	}

	return fsutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		for _, r := range results {
			if _, err := w.Write(r.Artifact); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
		}
		return nil
	})
}
