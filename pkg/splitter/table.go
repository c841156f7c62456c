package splitter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bulkdock/bulkdock/pkg/core"
	"github.com/bulkdock/bulkdock/pkg/internal/fsutil"
)

// Table is a headered delimited file held in memory.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of name in the header, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// ReadTable reads a CSV file with a header row. Rows must have as many fields as the header.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &core.InputError{Path: path, Reason: "cannot open", Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, &core.InputError{Path: path, Reason: "missing header row"}
	}
	if err != nil {
		return nil, &core.InputError{Path: path, Reason: "malformed header", Err: err}
	}

	t := &Table{Header: header}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &core.InputError{Path: path, Reason: "malformed row", Err: err}
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// WriteTable writes header and rows to path atomically.
func WriteTable(path string, header []string, rows [][]string) error {
	return fsutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("write header to %s: %w", path, err)
		}
		if err := cw.WriteAll(rows); err != nil {
			return fmt.Errorf("write rows to %s: %w", path, err)
		}
		return nil
	})
}
