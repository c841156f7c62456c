// Package scheduler talks to a SLURM-like batch scheduler through its
// command-line tools.
//
// Submission shells out to sbatch and recovers the job id from the last
// whitespace-delimited token of its output; listing shells out to squeue.
// All process execution goes through a Runner so tests can substitute a fake.
package scheduler
