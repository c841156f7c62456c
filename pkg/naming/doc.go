// Package naming encodes and decodes batch identity into file names and
// scheduler job names.
//
// Names are the system's state store: a running job's name tells the
// progress monitor what it is working on, and a worker output's file name
// tells the collator which batch it holds. Nothing else is needed to
// correlate the two, so every rule here is a wire contract:
//
//	<sourceKey>_split<batchSize>_batch<batchIndex:03d>.<ext>
//	<sourceKey>_split<batchSize>_batch<batchIndex:03d>_job<jobID>.<ext>
//	<Prefix>.<command>:<target>:<descriptor>
//
// Encoders reject component values that contain a reserved separator.
// Decoders never panic and report unrecognised input instead of guessing.
package naming
