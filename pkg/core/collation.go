package core

// BatchOutput is a worker output file with the identity recovered from its name.
type BatchOutput struct {
	Path       string
	SourceKey  string
	BatchSize  int
	BatchIndex int
	JobID      string
}

// DuplicateBatch records a batch index produced more than once.
// Kept is the lexicographically first match; the rest were ignored.
type DuplicateBatch struct {
	BatchIndex int
	Kept       string
	Ignored    []string
}

// CollationResult describes one collation of a source's worker outputs.
type CollationResult struct {
	SourceKey          string
	TotalItems         int
	BatchSize          int
	ExpectedBatchCount int
	Kept               []BatchOutput // in BatchIndex order
	Missing            []int
	Duplicates         []DuplicateBatch
	Skipped            []string // files that did not decode as outputs of this source
	OutputPath         string
}

// Complete reports whether every expected batch was found.
func (r *CollationResult) Complete() bool {
	return len(r.Missing) == 0
}

// Incomplete returns an IncompleteCollationError when batches are missing, nil otherwise.
func (r *CollationResult) Incomplete() error {
	if r.Complete() {
		return nil
	}
	return &IncompleteCollationError{
		SourceKey: r.SourceKey,
		Missing:   append([]int(nil), r.Missing...),
		Expected:  r.ExpectedBatchCount,
	}
}
