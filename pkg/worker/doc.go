// Package worker runs the "place" role inside a scheduler job.
//
// This package includes:
//   - Runner: walks one batch file, logging a progress marker per item
//   - Placer: the per-item computation, with CommandPlacer running an external tool
//   - Outcome: the tagged result of one placement attempt
//   - RetryConfig: bounded retries with exponential backoff for transient outcomes
//   - ResultWriter: persists the successful artifacts next to the batch identity
package worker
