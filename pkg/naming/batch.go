package naming

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/bulkdock/bulkdock/pkg/core"
)

// BatchIndexWidth is the zero-padded width of batch indices in file names.
const BatchIndexWidth = 3

var (
	batchFilePattern = regexp.MustCompile(`^(.+)_split(\d+)_batch(\d+)(?:_job([A-Za-z0-9-]+))?\.([A-Za-z0-9]+)$`)
	jobIDPattern     = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	extPattern       = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

// BatchName identifies one batch file. JobID is empty for split inputs and set for worker outputs.
type BatchName struct {
	SourceKey  string
	BatchSize  int
	BatchIndex int
	JobID      string
	Ext        string
}

// Stem returns the name without job id or extension; it doubles as the job name descriptor.
func (n BatchName) Stem() string {
	return fmt.Sprintf("%s_split%d_batch%0*d", n.SourceKey, n.BatchSize, BatchIndexWidth, n.BatchIndex)
}

// WithJobID returns a copy of n naming the output of the given job.
func (n BatchName) WithJobID(jobID string) BatchName {
	n.JobID = jobID
	return n
}

// Validate checks that every component can be encoded unambiguously.
func (n BatchName) Validate() error {
	if err := ValidateSourceKey(n.SourceKey); err != nil {
		return err
	}
	if n.BatchSize < 1 {
		return &core.NamingError{Field: "batch size", Value: strconv.Itoa(n.BatchSize), Reason: "must be positive"}
	}
	if n.BatchIndex < 0 {
		return &core.NamingError{Field: "batch index", Value: strconv.Itoa(n.BatchIndex), Reason: "must not be negative"}
	}
	if n.JobID != "" && !jobIDPattern.MatchString(n.JobID) {
		return &core.NamingError{Field: "job id", Value: n.JobID, Reason: "must be alphanumeric"}
	}
	if !extPattern.MatchString(n.Ext) {
		return &core.NamingError{Field: "extension", Value: n.Ext, Reason: "must be alphanumeric"}
	}
	return nil
}

// EncodeBatchFileName returns the file name for n.
func EncodeBatchFileName(n BatchName) (string, error) {
	if err := n.Validate(); err != nil {
		return "", err
	}
	name := n.Stem()
	if n.JobID != "" {
		name += "_job" + n.JobID
	}
	return name + "." + n.Ext, nil
}

// DecodeBatchFileName recovers the batch identity from a file name (a base
// name or a path). ok is false for anything that is not a canonical batch file name.
func DecodeBatchFileName(name string) (n BatchName, ok bool) {
	m := batchFilePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return BatchName{}, false
	}
	size, err := strconv.Atoi(m[2])
	if err != nil || size < 1 || strconv.Itoa(size) != m[2] {
		return BatchName{}, false
	}
	index, err := strconv.Atoi(m[3])
	if err != nil || fmt.Sprintf("%0*d", BatchIndexWidth, index) != m[3] {
		return BatchName{}, false
	}
	n = BatchName{
		SourceKey:  m[1],
		BatchSize:  size,
		BatchIndex: index,
		JobID:      m[4],
		Ext:        m[5],
	}
	if n.Validate() != nil {
		return BatchName{}, false
	}
	return n, true
}

// SourceKey returns the stem of a source file path together with its extension (without the dot).
func SourceKey(path string) (key, ext string) {
	base := filepath.Base(path)
	ext = strings.TrimPrefix(filepath.Ext(base), ".")
	return strings.TrimSuffix(base, filepath.Ext(base)), ext
}

// ValidateSourceKey rejects keys that cannot be embedded in a file name.
func ValidateSourceKey(key string) error {
	switch {
	case key == "":
		return &core.NamingError{Field: "source key", Value: key, Reason: "must not be empty"}
	case strings.ContainsAny(key, `/\`+"\x00"):
		return &core.NamingError{Field: "source key", Value: key, Reason: "must not contain path separators"}
	case strings.ContainsAny(key, "*?["):
		return &core.NamingError{Field: "source key", Value: key, Reason: "must not contain glob metacharacters"}
	case strings.IndexFunc(key, unicode.IsControl) >= 0:
		return &core.NamingError{Field: "source key", Value: key, Reason: "must not contain control characters"}
	}
	return nil
}

// GlobPattern matches every batch file (input or output) of sourceKey inside dir.
// Callers must still decode each match: the pattern also matches longer keys.
func GlobPattern(dir, sourceKey string) string {
	return filepath.Join(dir, sourceKey+"_split*_batch*")
}
