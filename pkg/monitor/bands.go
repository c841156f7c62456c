package monitor

import "time"

// Band is the display tier of a job's fraction complete.
type Band int

const (
	BandLow Band = iota
	BandLowerMid
	BandUpperMid
	BandHigh
)

func (b Band) String() string {
	switch b {
	case BandHigh:
		return "high"
	case BandUpperMid:
		return "upper-mid"
	case BandLowerMid:
		return "lower-mid"
	default:
		return "low"
	}
}

// FractionBand classifies f with strict thresholds at 0.75, 0.50 and 0.25.
func FractionBand(f float64) Band {
	switch {
	case f > 0.75:
		return BandHigh
	case f > 0.50:
		return BandUpperMid
	case f > 0.25:
		return BandLowerMid
	default:
		return BandLow
	}
}

// Speed is the display tier of a job's time per item.
type Speed int

const (
	SpeedFast Speed = iota
	SpeedGood
	SpeedModerate
	SpeedSlow
)

func (s Speed) String() string {
	switch s {
	case SpeedFast:
		return "fast"
	case SpeedGood:
		return "good"
	case SpeedModerate:
		return "moderate"
	default:
		return "slow"
	}
}

// ThroughputBand classifies the time spent per item: under 10s, 20s, 60s, or slower.
func ThroughputBand(perItem time.Duration) Speed {
	switch {
	case perItem < 10*time.Second:
		return SpeedFast
	case perItem < 20*time.Second:
		return SpeedGood
	case perItem < 60*time.Second:
		return SpeedModerate
	default:
		return SpeedSlow
	}
}
