package score

import (
	"math"

	"github.com/medrank/tracker/internal/model"
)

// Band is the qualitative classification of a percentage.
type Band string

const (
	BandWeak    Band = "Weak"
	BandAverage Band = "Average"
	BandStrong  Band = "Strong"
)

// Band boundaries. 50 is Weak, 79 is Average, 80 is Strong.
const (
	WeakMax   = 50
	StrongMin = 80
)

// Classify returns the band of a percentage.
func Classify(pct int) Band {
	switch {
	case pct <= WeakMax:
		return BandWeak
	case pct < StrongMin:
		return BandAverage
	default:
		return BandStrong
	}
}

// Color returns the fill color (hex RGB) used for the band in every output.
func (b Band) Color() string {
	switch b {
	case BandWeak:
		return "#FECACA"
	case BandAverage:
		return "#FEF9C3"
	default:
		return "#BBF7D0"
	}
}

// CSSClass returns the band's stylesheet class.
func (b Band) CSSClass() string {
	switch b {
	case BandWeak:
		return "band-weak"
	case BandAverage:
		return "band-average"
	default:
		return "band-strong"
	}
}

// Trend compares one percentage with the subject's cross-test mean.
type Trend string

const (
	TrendNone Trend = ""
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// TrendDeadZone is the distance from the mean still reported as flat.
const TrendDeadZone = 0.5

// TrendOf returns the trend of pct against mean. It is TrendNone unless more
// than one test exists.
func TrendOf(pct int, mean float64, tests int) Trend {
	if tests <= 1 {
		return TrendNone
	}
	diff := float64(pct) - mean
	switch {
	case diff > TrendDeadZone:
		return TrendUp
	case diff < -TrendDeadZone:
		return TrendDown
	default:
		return TrendFlat
	}
}

// Symbol returns a one-character arrow for the trend.
func (t Trend) Symbol() string {
	switch t {
	case TrendUp:
		return "↑"
	case TrendDown:
		return "↓"
	case TrendFlat:
		return "→"
	}
	return ""
}

// Mean returns the average percentage of a subject across tests.
// Tests without a score for the subject count as 0.
func Mean(tests []model.GrandTest, subjectID string) float64 {
	if len(tests) == 0 {
		return 0
	}
	total := 0
	for _, t := range tests {
		total += t.ScoreFor(subjectID).Percentage
	}
	return float64(total) / float64(len(tests))
}

// DirectEntryTolerance is the largest gap between stored obtained marks and the
// count formula that still counts as count-derived.
const DirectEntryTolerance = 0.1

// floatSlack absorbs binary representation noise in the tolerance comparison.
const floatSlack = 1e-9

// WithinTolerance reports whether a marks difference is inside DirectEntryTolerance.
func WithinTolerance(diff float64) bool {
	return math.Abs(diff) <= DirectEntryTolerance+floatSlack
}

// IsDirectEntry reports whether a stored test was entered as direct marks rather
// than attempt counts. CUSTOM tests always are; otherwise any subject whose
// stored obtained marks disagree with its counts marks the whole test as direct.
func IsDirectEntry(t model.GrandTest) bool {
	if t.Mode == model.ModeCustom {
		return true
	}
	for _, s := range t.Scores {
		expected := Calculate(s.CorrectCount(), s.WrongCount(), t.Mode)
		if !WithinTolerance(s.ObtainedMarks - expected.Obtained) {
			return true
		}
	}
	return false
}
