// Package score converts attempt counts into marks and percentages and
// classifies percentages into bands and trends.
package score

import (
	"math"

	"github.com/medrank/tracker/internal/model"
)

// Marks is the obtained and total marks for one subject.
type Marks struct {
	Obtained float64
	Total    float64
}

// Calculate derives marks from correct and wrong counts under a marking scheme.
// ModeCustom has no formula; it returns zero marks and callers use FromMarks.
func Calculate(correct, wrong int, mode model.ExamMode) Marks {
	c, w := float64(correct), float64(wrong)
	var m Marks
	switch mode {
	case model.ModeNEETPG:
		m = Marks{Obtained: c*4 - w*1, Total: (c + w) * 4}
	case model.ModeINICET:
		m = Marks{Obtained: c*1 - w*0.33, Total: (c + w) * 1}
	default:
		return Marks{}
	}
	return Marks{Obtained: Round2(m.Obtained), Total: Round2(m.Total)}
}

// FromMarks returns directly entered marks rounded to 2 decimal places.
func FromMarks(obtained, total float64) Marks {
	return Marks{Obtained: Round2(obtained), Total: Round2(total)}
}

// Percentage returns round(obtained/total*100), or 0 when total is not positive.
// The result is not clamped: negative marking can make it negative.
func (m Marks) Percentage() int {
	return Percentage(m.Obtained, m.Total)
}

// Percentage returns round(obtained/total*100), or 0 when total is not positive.
func Percentage(obtained, total float64) int {
	if total <= 0 {
		return 0
	}
	return int(roundHalfUp(obtained / total * 100))
}

// Round2 rounds to 2 decimal places.
func Round2(x float64) float64 {
	return roundHalfUp(x*100) / 100
}

// roundHalfUp rounds .5 towards +Inf, so -2.5 becomes -2.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// Subject builds a complete SubjectScore from attempt counts.
func Subject(subjectID string, correct, wrong int, mode model.ExamMode) model.SubjectScore {
	m := Calculate(correct, wrong, mode)
	return model.SubjectScore{
		SubjectID:     subjectID,
		Correct:       model.IntPtr(correct),
		Wrong:         model.IntPtr(wrong),
		ObtainedMarks: m.Obtained,
		TotalMarks:    m.Total,
		Percentage:    m.Percentage(),
	}
}

// SubjectFromMarks builds a SubjectScore from directly entered marks.
// Counts are kept when given so an edit can show them again.
func SubjectFromMarks(subjectID string, correct, wrong int, obtained, total float64) model.SubjectScore {
	m := FromMarks(obtained, total)
	return model.SubjectScore{
		SubjectID:     subjectID,
		Correct:       model.IntPtr(correct),
		Wrong:         model.IntPtr(wrong),
		ObtainedMarks: m.Obtained,
		TotalMarks:    m.Total,
		Percentage:    m.Percentage(),
	}
}
