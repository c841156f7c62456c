// Package security provides sanitization and limits for bulkdock.
//
// This package includes:
//   - A length limit for encoded scheduler job names
//   - Sanitization of failure reasons captured from placement commands
//   - Clamping of per-item placement attempts
package security
