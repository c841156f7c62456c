package collate

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hashicorp/go-multierror"

	"github.com/bulkdock/bulkdock/pkg/core"
	"github.com/bulkdock/bulkdock/pkg/naming"
	"github.com/bulkdock/bulkdock/pkg/splitter"
)

// RowCounter reports the number of data rows in a source file.
type RowCounter interface {
	CountRows(path string) (int, error)
}

// Request describes one collation.
type Request struct {
	SourcePath string
	// BatchSize is the size the source was split with; <= 0 means a single batch.
	BatchSize int
	// OutputName overrides the merged file name "<sourceKey>_combined.<ext>".
	OutputName string
}

// Collator merges worker outputs found in an output directory.
type Collator struct {
	outputDir string
	resultDir string
	counter   RowCounter
	logger    *slog.Logger
}

// Option configures a Collator.
type Option interface {
	apply(*Collator)
}

type optionFunc func(*Collator)

func (f optionFunc) apply(c *Collator) { f(c) }

// ResultDir sets where the merged artifact is written. Default: the output directory.
func ResultDir(dir string) Option {
	return optionFunc(func(c *Collator) {
		c.resultDir = dir
	})
}

// WithRowCounter replaces the source row counter.
func WithRowCounter(rc RowCounter) Option {
	return optionFunc(func(c *Collator) {
		if rc != nil {
			c.counter = rc
		}
	})
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *Collator) {
		if l != nil {
			c.logger = l
		}
	})
}

// New creates a Collator reading worker outputs from outputDir.
func New(outputDir string, opts ...Option) *Collator {
	c := &Collator{
		outputDir: outputDir,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt.apply(c)
	}
	if c.counter == nil {
		c.counter = splitter.New(splitter.WithLogger(c.logger))
	}
	if c.resultDir == "" {
		c.resultDir = c.outputDir
	}
	return c
}

// Collate merges every output of req.SourcePath in batch index order.
//
// Missing batches do not fail the call: the artifact is written from what was
// found and the result's Incomplete method reports the gap. If nothing was
// found, no artifact is written and an *core.IncompleteCollationError is returned.
// Re-running with the same inputs rewrites an identical artifact.
func (c *Collator) Collate(ctx context.Context, req Request) (*core.CollationResult, error) {
	sourceKey, sourceExt := naming.SourceKey(req.SourcePath)
	if err := naming.ValidateSourceKey(sourceKey); err != nil {
		return nil, err
	}

	total, err := c.counter.CountRows(req.SourcePath)
	if err != nil {
		return nil, err
	}
	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = total
	}

	res := &core.CollationResult{
		SourceKey:          sourceKey,
		TotalItems:         total,
		BatchSize:          batchSize,
		ExpectedBatchCount: (total + batchSize - 1) / batchSize,
	}

	matches, err := filepath.Glob(naming.GlobPattern(c.outputDir, sourceKey))
	if err != nil {
		return nil, fmt.Errorf("glob outputs for %s: %w", sourceKey, err)
	}
	sort.Strings(matches)

	var warnings *multierror.Error
	byIndex := map[int][]core.BatchOutput{}
	sizes := mapset.NewThreadUnsafeSet(batchSize)

	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, ok := naming.DecodeBatchFileName(path)
		if !ok || name.JobID == "" {
			warnings = multierror.Append(warnings, fmt.Errorf("stray file %s", filepath.Base(path)))
			res.Skipped = append(res.Skipped, path)
			continue
		}
		if name.SourceKey != sourceKey {
			// Another source whose key starts with ours.
			c.logger.Debug("skipping output of another source", "path", path, "source_key", name.SourceKey)
			continue
		}
		sizes.Add(name.BatchSize)
		if name.BatchSize == batchSize && name.BatchIndex >= res.ExpectedBatchCount {
			warnings = multierror.Append(warnings, fmt.Errorf("batch index %d out of range in %s", name.BatchIndex, filepath.Base(path)))
			res.Skipped = append(res.Skipped, path)
			continue
		}
		byIndex[name.BatchIndex] = append(byIndex[name.BatchIndex], core.BatchOutput{
			Path:       path,
			SourceKey:  name.SourceKey,
			BatchSize:  name.BatchSize,
			BatchIndex: name.BatchIndex,
			JobID:      name.JobID,
		})
	}

	if sizes.Cardinality() > 1 {
		found := sizes.ToSlice()
		slices.Sort(found)
		return nil, &core.BatchMixError{SourceKey: sourceKey, Sizes: found}
	}

	for i := 0; i < res.ExpectedBatchCount; i++ {
		outputs := byIndex[i]
		if len(outputs) == 0 {
			res.Missing = append(res.Missing, i)
			continue
		}
		// matches were sorted, so the first output is the lexicographically first path.
		res.Kept = append(res.Kept, outputs[0])
		if len(outputs) > 1 {
			dup := core.DuplicateBatch{BatchIndex: i, Kept: outputs[0].Path}
			for _, o := range outputs[1:] {
				dup.Ignored = append(dup.Ignored, o.Path)
			}
			res.Duplicates = append(res.Duplicates, dup)
			warnings = multierror.Append(warnings, fmt.Errorf("batch %d produced %d outputs, keeping %s",
				i, len(outputs), filepath.Base(outputs[0].Path)))
		}
	}
	if len(res.Missing) > 0 {
		warnings = multierror.Append(warnings, res.Incomplete())
	}
	c.logWarnings(sourceKey, warnings)

	if len(res.Kept) == 0 {
		return res, res.Incomplete()
	}

	ext := res.Kept[0].Path
	ext = strings.TrimPrefix(filepath.Ext(ext), ".")
	if ext == "" {
		ext = sourceExt
	}
	outName := req.OutputName
	if outName == "" {
		outName = sourceKey + "_combined." + ext
	}
	res.OutputPath = filepath.Join(c.resultDir, outName)

	paths := make([]string, len(res.Kept))
	for i, k := range res.Kept {
		paths[i] = k.Path
	}
	if err := Merge(res.OutputPath, paths); err != nil {
		return nil, err
	}

	c.logger.Info("collated batch outputs",
		"source_key", sourceKey,
		"kept", len(res.Kept),
		"expected", res.ExpectedBatchCount,
		"missing", len(res.Missing),
		"duplicates", len(res.Duplicates),
		"output", res.OutputPath)
	return res, nil
}

func (c *Collator) logWarnings(sourceKey string, warnings *multierror.Error) {
	if warnings.ErrorOrNil() == nil {
		return
	}
	for _, w := range warnings.Errors {
		c.logger.Warn("collation warning", "source_key", sourceKey, "warning", w.Error())
	}
}
