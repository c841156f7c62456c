// Package schedule provides the polling schedules used by status watching.
//
//   - Every() for fixed-interval polling
//   - Cron() for cron expression-based polling
//   - Parse() accepts either a Go duration ("30s") or a cron expression
//   - Run() drives a callback from a schedule until the context ends
package schedule
