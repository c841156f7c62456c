package core

import "time"

// ProgressMarker precedes "<attempted>/<total>" in worker job logs.
const ProgressMarker = "Placement task"

// ProgressSample is a point-in-time read of one running worker job.
// Samples are recomputed on every poll and never persisted.
type ProgressSample struct {
	Attempted int
	Total     int
	Elapsed   time.Duration
}

// Fraction returns attempted/total, or 0 when the total is unknown.
func (p ProgressSample) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Attempted) / float64(p.Total)
}

// Throughput returns the wall time spent per attempted item.
// ok is false when nothing has been attempted yet.
func (p ProgressSample) Throughput() (perItem time.Duration, ok bool) {
	if p.Attempted <= 0 {
		return 0, false
	}
	return p.Elapsed / time.Duration(p.Attempted), true
}

// ETA extrapolates the observed throughput over the remaining items.
// ok is false when no throughput is available.
func (p ProgressSample) ETA() (remaining time.Duration, ok bool) {
	perItem, ok := p.Throughput()
	if !ok {
		return 0, false
	}
	left := p.Total - p.Attempted
	if left < 0 {
		left = 0
	}
	return perItem * time.Duration(left), true
}
