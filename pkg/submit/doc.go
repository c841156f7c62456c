// Package submit turns a source file into a scheduler job graph: one worker
// job per batch and a collation job that runs after all of them finish,
// whether they succeeded or not.
//
// Batch identity travels in job and file names, so nothing here needs to be
// remembered for the monitor or collator to work. An append-only audit log
// and an optional store keep a record for humans.
package submit
