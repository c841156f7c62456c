package splitter

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/bulkdock/bulkdock/pkg/core"
	"github.com/bulkdock/bulkdock/pkg/naming"
)

// DefaultPayloadColumn is the column every source must carry.
const DefaultPayloadColumn = "smiles"

// Splitter partitions source files into batch files.
type Splitter struct {
	payloadColumn string
	logger        *slog.Logger
}

// Option configures a Splitter.
type Option interface {
	apply(*Splitter)
}

type optionFunc func(*Splitter)

func (f optionFunc) apply(s *Splitter) { f(s) }

// PayloadColumn sets the required primary payload column.
func PayloadColumn(name string) Option {
	return optionFunc(func(s *Splitter) {
		if name != "" {
			s.payloadColumn = name
		}
	})
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(s *Splitter) {
		if l != nil {
			s.logger = l
		}
	})
}

// New creates a Splitter.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		payloadColumn: DefaultPayloadColumn,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt.apply(s)
	}
	return s
}

// Load reads a source file and validates it: the payload column must exist
// and there must be at least one data row.
func (s *Splitter) Load(sourcePath string) (*Table, error) {
	t, err := ReadTable(sourcePath)
	if err != nil {
		return nil, err
	}
	if t.Column(s.payloadColumn) < 0 {
		return nil, &core.InputError{Path: sourcePath, Reason: fmt.Sprintf("missing required column %q", s.payloadColumn)}
	}
	if len(t.Rows) == 0 {
		return nil, &core.InputError{Path: sourcePath, Reason: "no data rows"}
	}
	return t, nil
}

// CountRows returns the number of data rows in a source file.
func (s *Splitter) CountRows(sourcePath string) (int, error) {
	t, err := s.Load(sourcePath)
	if err != nil {
		return 0, err
	}
	return len(t.Rows), nil
}

// Split writes ceil(n/batchSize) batch files into outDir and returns them in index order.
// A batchSize <= 0 produces one batch holding every row.
func (s *Splitter) Split(sourcePath string, batchSize int, outDir string) ([]core.BatchFile, error) {
	key, ext := naming.SourceKey(sourcePath)
	if err := naming.ValidateSourceKey(key); err != nil {
		return nil, err
	}

	t, err := s.Load(sourcePath)
	if err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = len(t.Rows)
	}

	batches := make([]core.BatchFile, 0, (len(t.Rows)+batchSize-1)/batchSize)
	for start, index := 0, 0; start < len(t.Rows); start, index = start+batchSize, index+1 {
		end := min(start+batchSize, len(t.Rows))

		name, err := naming.EncodeBatchFileName(naming.BatchName{
			SourceKey:  key,
			BatchSize:  batchSize,
			BatchIndex: index,
			Ext:        ext,
		})
		if err != nil {
			return nil, err
		}
		path := filepath.Join(outDir, name)
		if err := WriteTable(path, t.Header, t.Rows[start:end]); err != nil {
			return nil, err
		}

		batches = append(batches, core.BatchFile{
			SourceKey:  key,
			BatchSize:  batchSize,
			BatchIndex: index,
			ItemCount:  end - start,
			Path:       path,
		})
	}

	s.logger.Info("split source", "source", sourcePath, "rows", len(t.Rows), "batch_size", batchSize, "batches", len(batches))
	return batches, nil
}
