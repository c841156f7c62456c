// Package core provides the fundamental types and interfaces for bulkdock.
//
// This package contains:
//   - Batch, SubmittedJob and Submission data models (the latter two with GORM annotations)
//   - ProgressSample and CollationResult value types
//   - Store interface defining the optional job-state persistence contract
//   - Error types for input, naming, submission and collation failures
//
// Most users should import the root package github.com/bulkdock/bulkdock
// instead of this package directly.
package core
