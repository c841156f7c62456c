// Package monitor samples running batch jobs and estimates their progress.
//
// A pass lists the scheduler's jobs, keeps the ones carrying the job prefix,
// decodes their names and, for worker jobs, reads the last
// "Placement task <i>/<n>" marker from the job log. A job whose log is
// missing, empty or garbled is reported as starting; it never fails the pass.
package monitor
