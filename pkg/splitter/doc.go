// Package splitter partitions a headered delimited source file into
// fixed-size, order-preserving batch files.
//
// Batch files repeat the source header and are named by the naming package,
// so any process can regenerate a batch path from (sourceKey, batchSize,
// batchIndex) without a manifest. Output is deterministic: the same source
// and batch size always produce byte-identical files.
package splitter
