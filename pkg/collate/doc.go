// Package collate merges the per-batch outputs of one source into a single artifact.
//
// Outputs are found by globbing the output directory for the source key and
// identified purely from their file names. Missing and duplicate batches are
// warnings; outputs produced with different batch sizes are an error.
package collate
