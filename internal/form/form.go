// Package form models the add/edit test form as a small state machine.
package form

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medrank/tracker/internal/model"
	"github.com/medrank/tracker/internal/score"
)

// Status is the form's lifecycle state.
type Status int

const (
	Closed Status = iota
	Create
	Edit
)

func (s Status) String() string {
	switch s {
	case Create:
		return "create"
	case Edit:
		return "edit"
	}
	return "closed"
}

// DefaultTotal is the total marks a fresh row starts with.
const DefaultTotal = 100

var (
	ErrClosed         = errors.New("form is closed")
	ErrUnknownSubject = errors.New("unknown subject")
)

// Row is the editable state of one subject.
type Row struct {
	Correct  int
	Wrong    int
	Obtained float64
	Total    float64
}

func defaultRow() Row {
	return Row{Total: DefaultTotal}
}

// Form collects one test's subject-level marks.
type Form struct {
	Status Status
	ID     string
	Name   string
	Date   string
	Mode   model.ExamMode
	// Direct means obtained/total are typed in rather than derived from counts.
	Direct bool
	Rows   map[string]Row
}

// OpenCreate opens an empty form for the next test.
func (f *Form) OpenCreate(testCount int, today time.Time) {
	*f = Form{
		Status: Create,
		Name:   fmt.Sprintf("GT%d", testCount+1),
		Date:   today.Format(model.DateLayout),
		Mode:   model.ModeNEETPG,
		Rows:   make(map[string]Row, len(model.Subjects())),
	}
	for _, s := range model.Subjects() {
		f.Rows[s.ID] = defaultRow()
	}
}

// OpenEdit opens the form pre-filled from t. Tests whose stored marks do not
// match their counts reopen in direct entry.
func (f *Form) OpenEdit(t model.GrandTest) {
	*f = Form{
		Status: Edit,
		ID:     t.ID,
		Name:   t.Name,
		Date:   t.Date,
		Mode:   t.Mode,
		Direct: score.IsDirectEntry(t),
		Rows:   make(map[string]Row, len(model.Subjects())),
	}
	for _, s := range model.Subjects() {
		sc, ok := t.Scores[s.ID]
		if !ok {
			f.Rows[s.ID] = defaultRow()
			continue
		}
		f.Rows[s.ID] = Row{
			Correct:  sc.CorrectCount(),
			Wrong:    sc.WrongCount(),
			Obtained: sc.ObtainedMarks,
			Total:    sc.TotalMarks,
		}
	}
}

// Close discards the form.
func (f *Form) Close() {
	*f = Form{}
}

// IsOpen reports whether the form is being edited.
func (f *Form) IsOpen() bool {
	return f.Status != Closed
}

// usesCounts reports whether marks are derived from attempt counts.
func (f *Form) usesCounts() bool {
	return !f.Direct && f.Mode != model.ModeCustom
}

// SetMode switches the marking scheme and recomputes count-derived rows.
func (f *Form) SetMode(m model.ExamMode) error {
	if !f.IsOpen() {
		return ErrClosed
	}
	f.Mode = m
	f.recompute()
	return nil
}

// SetDirect switches between count entry and direct marks entry.
func (f *Form) SetDirect(direct bool) error {
	if !f.IsOpen() {
		return ErrClosed
	}
	f.Direct = direct
	f.recompute()
	return nil
}

// SetCounts records correct/wrong counts. In count entry the row's marks are
// recomputed with the current mode.
func (f *Form) SetCounts(subjectID string, correct, wrong int) error {
	if !f.IsOpen() {
		return ErrClosed
	}
	row, ok := f.Rows[subjectID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSubject, subjectID)
	}
	row.Correct, row.Wrong = correct, wrong
	if f.usesCounts() {
		m := score.Calculate(correct, wrong, f.Mode)
		row.Obtained, row.Total = m.Obtained, m.Total
	}
	f.Rows[subjectID] = row
	return nil
}

// SetMarks records directly entered marks. It is ignored in count entry,
// where marks always follow the counts.
func (f *Form) SetMarks(subjectID string, obtained, total float64) error {
	if !f.IsOpen() {
		return ErrClosed
	}
	row, ok := f.Rows[subjectID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSubject, subjectID)
	}
	if f.usesCounts() {
		return nil
	}
	row.Obtained, row.Total = obtained, total
	f.Rows[subjectID] = row
	return nil
}

func (f *Form) recompute() {
	if !f.usesCounts() {
		return
	}
	for id, row := range f.Rows {
		m := score.Calculate(row.Correct, row.Wrong, f.Mode)
		row.Obtained, row.Total = m.Obtained, m.Total
		f.Rows[id] = row
	}
}

// ValidationError lists every invalid field of a form.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid test: " + strings.Join(e.Problems, "; ")
}

// Validate checks the form can produce a test.
func (f *Form) Validate() error {
	if !f.IsOpen() {
		return ErrClosed
	}
	var problems []string
	if strings.TrimSpace(f.Name) == "" {
		problems = append(problems, "name is required")
	}
	if _, err := time.Parse(model.DateLayout, f.Date); err != nil {
		problems = append(problems, fmt.Sprintf("date %q is not YYYY-MM-DD", f.Date))
	}
	if _, err := model.ParseExamMode(string(f.Mode)); err != nil {
		problems = append(problems, err.Error())
	}
	for _, s := range model.Subjects() {
		row := f.Rows[s.ID]
		if row.Correct < 0 || row.Wrong < 0 {
			problems = append(problems, s.Name+": counts must not be negative")
		}
		if !finite(row.Obtained) || !finite(row.Total) {
			problems = append(problems, s.Name+": marks must be finite numbers")
		} else if row.Total < 0 {
			problems = append(problems, s.Name+": total marks must not be negative")
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Save recomputes every subject score and returns the complete test. The form
// closes on success and stays open on validation failure.
func (f *Form) Save() (model.GrandTest, error) {
	if err := f.Validate(); err != nil {
		return model.GrandTest{}, err
	}
	id := f.ID
	if f.Status == Create || id == "" {
		id = uuid.NewString()
	}
	t := model.GrandTest{
		ID:     id,
		Name:   strings.TrimSpace(f.Name),
		Date:   f.Date,
		Mode:   f.Mode,
		Scores: make(map[string]model.SubjectScore, len(f.Rows)),
	}
	for _, s := range model.Subjects() {
		row, ok := f.Rows[s.ID]
		if !ok {
			row = defaultRow()
		}
		if f.usesCounts() {
			t.Scores[s.ID] = score.Subject(s.ID, row.Correct, row.Wrong, f.Mode)
		} else {
			t.Scores[s.ID] = score.SubjectFromMarks(s.ID, row.Correct, row.Wrong, row.Obtained, row.Total)
		}
	}
	f.Close()
	return t, nil
}
