package model

import (
	"context"
	"fmt"
	"strings"
)

// DateLayout is the layout of GrandTest.Date.
const DateLayout = "2006-01-02"

// ExamMode selects the marking scheme used to turn attempt counts into marks.
type ExamMode string

const (
	// ModeNEETPG awards +4 per correct answer and -1 per wrong answer.
	ModeNEETPG ExamMode = "NEET_PG"
	// ModeINICET awards +1 per correct answer and -0.33 per wrong answer.
	ModeINICET ExamMode = "INI_CET"
	// ModeCustom means marks were entered directly. Kept for older records.
	ModeCustom ExamMode = "CUSTOM"
)

// Modes lists the selectable modes in display order.
var Modes = []ExamMode{ModeNEETPG, ModeINICET, ModeCustom}

// Label returns the human readable mode name.
func (m ExamMode) Label() string {
	switch m {
	case ModeNEETPG:
		return "NEET PG"
	case ModeINICET:
		return "INI CET"
	case ModeCustom:
		return "Direct Marks"
	}
	return strings.ReplaceAll(string(m), "_", " ")
}

// ParseExamMode parses a mode name. Matching is case-insensitive.
func ParseExamMode(s string) (ExamMode, error) {
	m := ExamMode(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown exam mode %q", s)
}

// SubjectScore holds one subject's marks inside a GrandTest.
// Field names match the blob written by the browser version of the tracker.
type SubjectScore struct {
	SubjectID     string  `json:"subjectId"`
	Correct       *int    `json:"correct,omitempty"`
	Wrong         *int    `json:"wrong,omitempty"`
	Unattempted   *int    `json:"unattempted,omitempty"`
	ObtainedMarks float64 `json:"obtainedMarks"`
	TotalMarks    float64 `json:"totalMarks"`
	Percentage    int     `json:"percentage"`
}

// CorrectCount returns the number of correct answers, 0 when not recorded.
func (s SubjectScore) CorrectCount() int {
	if s.Correct == nil {
		return 0
	}
	return *s.Correct
}

// WrongCount returns the number of wrong answers, 0 when not recorded.
func (s SubjectScore) WrongCount() int {
	if s.Wrong == nil {
		return 0
	}
	return *s.Wrong
}

// GrandTest is one full-length mock exam sitting.
type GrandTest struct {
	ID     string                  `json:"id"`
	Name   string                  `json:"name"`
	Date   string                  `json:"date"`
	Mode   ExamMode                `json:"mode"`
	Scores map[string]SubjectScore `json:"scores"`
}

// ScoreFor returns the score for a subject, or a zero score when the test has none.
func (t GrandTest) ScoreFor(subjectID string) SubjectScore {
	if s, ok := t.Scores[subjectID]; ok {
		return s
	}
	return SubjectScore{SubjectID: subjectID}
}

// Clone returns a deep copy of the test.
func (t GrandTest) Clone() GrandTest {
	c := t
	c.Scores = make(map[string]SubjectScore, len(t.Scores))
	for k, v := range t.Scores {
		c.Scores[k] = v.clone()
	}
	return c
}

func (s SubjectScore) clone() SubjectScore {
	c := s
	c.Correct = cloneInt(s.Correct)
	c.Wrong = cloneInt(s.Wrong)
	c.Unattempted = cloneInt(s.Unattempted)
	return c
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// AppConfig holds runtime parameters set via CLI flags.
type AppConfig struct {
	BasePath      string // URL prefix for sub-path deployments (e.g. "/medrank")
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
	Lang          string
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}
