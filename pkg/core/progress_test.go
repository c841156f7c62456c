package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressSample_Derived(t *testing.T) {
	p := ProgressSample{Attempted: 7, Total: 20, Elapsed: 70 * time.Second}

	assert.InDelta(t, 0.35, p.Fraction(), 1e-9)

	perItem, ok := p.Throughput()
	assert.True(t, ok)
	assert.Equal(t, 10*time.Second, perItem)

	eta, ok := p.ETA()
	assert.True(t, ok)
	assert.Equal(t, 130*time.Second, eta)
}

func TestProgressSample_NothingAttempted(t *testing.T) {
	p := ProgressSample{Attempted: 0, Total: 20, Elapsed: time.Minute}

	assert.Equal(t, 0.0, p.Fraction())

	_, ok := p.Throughput()
	assert.False(t, ok, "no throughput before the first item")

	_, ok = p.ETA()
	assert.False(t, ok, "no ETA before the first item")
}

func TestProgressSample_UnknownTotal(t *testing.T) {
	assert.Equal(t, 0.0, ProgressSample{Attempted: 3}.Fraction())
}

func TestProgressSample_OverrunClampsETA(t *testing.T) {
	eta, ok := ProgressSample{Attempted: 5, Total: 4, Elapsed: 5 * time.Second}.ETA()
	assert.True(t, ok)
	assert.Equal(t, time.Duration(0), eta)
}
