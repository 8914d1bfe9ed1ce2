package form

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/medrank/tracker/internal/model"
)

// Field names used by the HTML form.
const (
	FieldName   = "name"
	FieldDate   = "date"
	FieldMode   = "mode"
	FieldDirect = "direct"
)

const (
	prefixCorrect  = "correct_"
	prefixWrong    = "wrong_"
	prefixObtained = "obtained_"
	prefixTotal    = "total_"
)

// CorrectField returns the input name of a subject's correct count.
func CorrectField(subjectID string) string { return prefixCorrect + subjectID }

// WrongField returns the input name of a subject's wrong count.
func WrongField(subjectID string) string { return prefixWrong + subjectID }

// ObtainedField returns the input name of a subject's obtained marks.
func ObtainedField(subjectID string) string { return prefixObtained + subjectID }

// TotalField returns the input name of a subject's total marks.
func TotalField(subjectID string) string { return prefixTotal + subjectID }

// Apply copies submitted values into an open form. Blank numbers count as 0,
// matching the browser inputs. Unparseable numbers are reported together.
func (f *Form) Apply(v url.Values) error {
	if !f.IsOpen() {
		return ErrClosed
	}
	if name, ok := v[FieldName]; ok {
		f.Name = strings.TrimSpace(first(name))
	}
	if date, ok := v[FieldDate]; ok {
		f.Date = strings.TrimSpace(first(date))
	}
	if raw := v.Get(FieldMode); raw != "" {
		mode, err := model.ParseExamMode(raw)
		if err != nil {
			return &ValidationError{Problems: []string{err.Error()}}
		}
		f.Mode = mode
	}
	f.Direct = isChecked(v.Get(FieldDirect))

	var problems []string
	for _, s := range model.Subjects() {
		correct, err := parseInt(v.Get(CorrectField(s.ID)))
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s correct: %v", s.Name, err))
		}
		wrong, err := parseInt(v.Get(WrongField(s.ID)))
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s wrong: %v", s.Name, err))
		}
		if err := f.SetCounts(s.ID, correct, wrong); err != nil {
			return err
		}
		if !f.usesCounts() {
			obtained, err := parseFloat(v.Get(ObtainedField(s.ID)))
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s obtained: %v", s.Name, err))
			}
			total, err := parseFloat(v.Get(TotalField(s.ID)))
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s total: %v", s.Name, err))
			}
			if err := f.SetMarks(s.ID, obtained, total); err != nil {
				return err
			}
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func isChecked(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return f, nil
}
