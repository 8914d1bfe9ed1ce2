package score

import (
	"testing"

	"github.com/medrank/tracker/internal/model"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name         string
		correct      int
		wrong        int
		mode         model.ExamMode
		wantObtained float64
		wantTotal    float64
		wantPct      int
	}{
		{"neet pg example", 80, 20, model.ModeNEETPG, 300, 400, 75},
		{"ini cet example", 50, 0, model.ModeINICET, 50, 50, 100},
		{"ini cet negative marking", 10, 3, model.ModeINICET, 9.01, 13, 69},
		{"ini cet rounding", 0, 1, model.ModeINICET, -0.33, 1, -33},
		{"nothing attempted", 0, 0, model.ModeNEETPG, 0, 0, 0},
		{"all wrong neet pg", 0, 5, model.ModeNEETPG, -5, 20, -25},
		{"all correct neet pg", 12, 0, model.ModeNEETPG, 48, 48, 100},
		{"custom has no formula", 10, 2, model.ModeCustom, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Calculate(tt.correct, tt.wrong, tt.mode)
			if m.Obtained != tt.wantObtained {
				t.Errorf("Obtained = %v, want %v", m.Obtained, tt.wantObtained)
			}
			if m.Total != tt.wantTotal {
				t.Errorf("Total = %v, want %v", m.Total, tt.wantTotal)
			}
			if got := m.Percentage(); got != tt.wantPct {
				t.Errorf("Percentage() = %d, want %d", got, tt.wantPct)
			}
		})
	}
}

func TestCalculateFormulas(t *testing.T) {
	for c := 0; c <= 30; c += 3 {
		for w := 0; w <= 30; w += 5 {
			neet := Calculate(c, w, model.ModeNEETPG)
			if neet.Obtained != Round2(float64(4*c-w)) || neet.Total != Round2(float64(4*(c+w))) {
				t.Errorf("NEET_PG c=%d w=%d: got %+v", c, w, neet)
			}
			ini := Calculate(c, w, model.ModeINICET)
			if ini.Obtained != Round2(float64(c)-0.33*float64(w)) || ini.Total != float64(c+w) {
				t.Errorf("INI_CET c=%d w=%d: got %+v", c, w, ini)
			}
		}
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name     string
		obtained float64
		total    float64
		want     int
	}{
		{"zero total", 10, 0, 0},
		{"negative total", 10, -4, 0},
		{"half rounds up", 1, 8, 13},
		{"negative half rounds up", -1, 40, -2},
		{"not clamped above", 120, 100, 120},
		{"not clamped below", -50, 100, -50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentage(tt.obtained, tt.total); got != tt.want {
				t.Errorf("Percentage(%v, %v) = %d, want %d", tt.obtained, tt.total, got, tt.want)
			}
		})
	}
}

func TestSubject(t *testing.T) {
	s := Subject("anat", 80, 20, model.ModeNEETPG)
	if s.SubjectID != "anat" {
		t.Errorf("SubjectID = %q", s.SubjectID)
	}
	if s.CorrectCount() != 80 || s.WrongCount() != 20 {
		t.Errorf("counts = %d/%d, want 80/20", s.CorrectCount(), s.WrongCount())
	}
	if s.ObtainedMarks != 300 || s.TotalMarks != 400 || s.Percentage != 75 {
		t.Errorf("got %+v", s)
	}
	if Classify(s.Percentage) != BandAverage {
		t.Errorf("band = %s, want Average", Classify(s.Percentage))
	}
}

func TestSubjectFromMarks(t *testing.T) {
	s := SubjectFromMarks("med", 0, 0, 45.556, 60)
	if s.ObtainedMarks != 45.56 {
		t.Errorf("ObtainedMarks = %v, want 45.56", s.ObtainedMarks)
	}
	if s.Percentage != 76 {
		t.Errorf("Percentage = %d, want 76", s.Percentage)
	}
}
