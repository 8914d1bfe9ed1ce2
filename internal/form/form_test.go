package form

import (
	"errors"
	"math"
	"net/url"
	"testing"
	"time"

	"github.com/medrank/tracker/internal/model"
	"github.com/medrank/tracker/internal/score"
)

func openCreate(t *testing.T, count int) *Form {
	t.Helper()
	var f Form
	f.OpenCreate(count, time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC))
	return &f
}

func TestOpenCreateDefaults(t *testing.T) {
	f := openCreate(t, 4)
	if f.Status != Create || !f.IsOpen() {
		t.Fatalf("status = %v", f.Status)
	}
	if f.Name != "GT5" {
		t.Errorf("Name = %q, want GT5", f.Name)
	}
	if f.Date != "2026-02-03" {
		t.Errorf("Date = %q", f.Date)
	}
	if f.Mode != model.ModeNEETPG || f.Direct {
		t.Errorf("Mode = %s, Direct = %v", f.Mode, f.Direct)
	}
	if len(f.Rows) != len(model.Subjects()) {
		t.Fatalf("rows = %d, want %d", len(f.Rows), len(model.Subjects()))
	}
	if r := f.Rows["anat"]; r != (Row{Total: DefaultTotal}) {
		t.Errorf("anat row = %+v", r)
	}
}

func TestSetCountsRecomputes(t *testing.T) {
	f := openCreate(t, 0)
	if err := f.SetCounts("anat", 10, 5); err != nil {
		t.Fatalf("SetCounts: %v", err)
	}
	if r := f.Rows["anat"]; r.Obtained != 35 || r.Total != 60 {
		t.Errorf("NEET PG row = %+v, want 35/60", r)
	}

	if err := f.SetMode(model.ModeINICET); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if r := f.Rows["anat"]; r.Obtained != 8.35 || r.Total != 15 {
		t.Errorf("INI CET row = %+v, want 8.35/15", r)
	}

	// Marks follow counts while in count entry.
	if err := f.SetMarks("anat", 99, 100); err != nil {
		t.Fatalf("SetMarks: %v", err)
	}
	if r := f.Rows["anat"]; r.Obtained != 8.35 {
		t.Errorf("SetMarks changed a count-derived row: %+v", r)
	}

	if err := f.SetCounts("nope", 1, 1); !errors.Is(err, ErrUnknownSubject) {
		t.Errorf("expected ErrUnknownSubject, got %v", err)
	}
}

func TestDirectEntryKeepsMarks(t *testing.T) {
	f := openCreate(t, 0)
	if err := f.SetDirect(true); err != nil {
		t.Fatalf("SetDirect: %v", err)
	}
	if err := f.SetCounts("med", 10, 2); err != nil {
		t.Fatalf("SetCounts: %v", err)
	}
	if err := f.SetMarks("med", 41.5, 50); err != nil {
		t.Fatalf("SetMarks: %v", err)
	}
	got, err := f.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	med := got.Scores["med"]
	if med.ObtainedMarks != 41.5 || med.TotalMarks != 50 || med.Percentage != 83 {
		t.Errorf("med = %+v", med)
	}
	if med.CorrectCount() != 10 || med.WrongCount() != 2 {
		t.Errorf("counts not kept: %+v", med)
	}
}

func TestOpenEditDetectsDirectEntry(t *testing.T) {
	counted := model.GrandTest{
		ID: "a", Name: "GT1", Date: "2026-01-01", Mode: model.ModeNEETPG,
		Scores: map[string]model.SubjectScore{
			"anat": score.Subject("anat", 10, 5, model.ModeNEETPG),
		},
	}
	direct := counted.Clone()
	direct.Scores["anat"] = score.SubjectFromMarks("anat", 10, 5, 40, 60)

	tests := []struct {
		name       string
		test       model.GrandTest
		wantDirect bool
	}{
		{"count derived", counted, false},
		{"marks disagree with counts", direct, true},
		{"custom mode", func() model.GrandTest { c := counted.Clone(); c.Mode = model.ModeCustom; return c }(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Form
			f.OpenEdit(tt.test)
			if f.Status != Edit || f.ID != "a" {
				t.Fatalf("status=%v id=%q", f.Status, f.ID)
			}
			if f.Direct != tt.wantDirect {
				t.Errorf("Direct = %v, want %v", f.Direct, tt.wantDirect)
			}
			if r := f.Rows["anat"]; r.Correct != 10 || r.Wrong != 5 {
				t.Errorf("counts not pre-populated: %+v", r)
			}
			if r := f.Rows["physio"]; r != (Row{Total: DefaultTotal}) {
				t.Errorf("missing subject row = %+v", r)
			}
		})
	}
}

func TestEditDirectEntryRoundTrip(t *testing.T) {
	original := model.GrandTest{
		ID: "keep", Name: "GT2", Date: "2026-01-08", Mode: model.ModeNEETPG,
		Scores: map[string]model.SubjectScore{
			"anat": score.SubjectFromMarks("anat", 10, 5, 40, 60),
		},
	}
	var f Form
	f.OpenEdit(original)
	got, err := f.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got.ID != "keep" {
		t.Errorf("edit changed id to %q", got.ID)
	}
	if a := got.Scores["anat"]; a.ObtainedMarks != 40 || a.TotalMarks != 60 {
		t.Errorf("direct marks were recomputed from counts: %+v", a)
	}
	if f.IsOpen() {
		t.Error("form should close after save")
	}
}

func TestSaveCreate(t *testing.T) {
	f := openCreate(t, 0)
	if err := f.SetCounts("anat", 80, 20); err != nil {
		t.Fatalf("SetCounts: %v", err)
	}
	got, err := f.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got.ID == "" {
		t.Error("expected generated id")
	}
	if len(got.Scores) != len(model.Subjects()) {
		t.Errorf("scores = %d, want every subject", len(got.Scores))
	}
	if a := got.Scores["anat"]; a.ObtainedMarks != 300 || a.TotalMarks != 400 || a.Percentage != 75 {
		t.Errorf("anat = %+v", a)
	}
	if p := got.Scores["physio"]; p.TotalMarks != 0 || p.Percentage != 0 {
		t.Errorf("untouched subject = %+v", p)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(f *Form)
		valid bool
	}{
		{"defaults", func(*Form) {}, true},
		{"blank name", func(f *Form) { f.Name = "  " }, false},
		{"bad date", func(f *Form) { f.Date = "03/02/2026" }, false},
		{"bad mode", func(f *Form) { f.Mode = "AIIMS" }, false},
		{"negative count", func(f *Form) { f.Rows["ent"] = Row{Correct: -1, Total: 100} }, false},
		{"negative total", func(f *Form) { f.Direct = true; f.Rows["ent"] = Row{Total: -5} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := openCreate(t, 0)
			tt.edit(f)
			err := f.Validate()
			if tt.valid && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.valid {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if _, err := f.Save(); err == nil || !f.IsOpen() {
					t.Error("invalid form should not save or close")
				}
			}
		})
	}
}

func TestClosedForm(t *testing.T) {
	var f Form
	if err := f.SetCounts("anat", 1, 1); !errors.Is(err, ErrClosed) {
		t.Errorf("SetCounts: %v", err)
	}
	if _, err := f.Save(); !errors.Is(err, ErrClosed) {
		t.Errorf("Save: %v", err)
	}
}

func TestApply(t *testing.T) {
	f := openCreate(t, 1)
	v := url.Values{}
	v.Set(FieldName, " Mock 7 ")
	v.Set(FieldDate, "2026-02-10")
	v.Set(FieldMode, "ini_cet")
	v.Set(CorrectField("anat"), "10")
	v.Set(WrongField("anat"), "5")
	v.Set(ObtainedField("anat"), "99")
	if err := f.Apply(v); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if f.Name != "Mock 7" || f.Mode != model.ModeINICET {
		t.Errorf("header = %q %s", f.Name, f.Mode)
	}
	if r := f.Rows["anat"]; r.Obtained != 8.35 || r.Total != 15 {
		t.Errorf("anat = %+v", r)
	}

	v.Set(FieldDirect, "on")
	v.Set(TotalField("anat"), "120")
	if err := f.Apply(v); err != nil {
		t.Fatalf("Apply direct: %v", err)
	}
	if r := f.Rows["anat"]; r.Obtained != 99 || r.Total != 120 {
		t.Errorf("direct anat = %+v", r)
	}

	v.Set(CorrectField("ent"), "ten")
	var ve *ValidationError
	if err := f.Apply(v); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for bad number, got %v", err)
	}
}

func TestApplyRejectsNonFiniteMarks(t *testing.T) {
	for _, raw := range []string{"NaN", "Inf", "-Inf", "+inf"} {
		t.Run(raw, func(t *testing.T) {
			f := openCreate(t, 0)
			v := url.Values{}
			v.Set(FieldDirect, "on")
			v.Set(ObtainedField("anat"), raw)
			v.Set(TotalField("anat"), "100")

			var ve *ValidationError
			if err := f.Apply(v); !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if r := f.Rows["anat"]; math.IsNaN(r.Obtained) || math.IsInf(r.Obtained, 0) {
				t.Errorf("non-finite value stored in the form: %+v", r)
			}
		})
	}
}

func TestValidateRejectsNonFiniteMarks(t *testing.T) {
	tests := []struct {
		name            string
		obtained, total float64
	}{
		{"nan obtained", math.NaN(), 100},
		{"nan total", 10, math.NaN()},
		{"inf total", 10, math.Inf(1)},
		{"negative inf obtained", math.Inf(-1), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := openCreate(t, 0)
			if err := f.SetDirect(true); err != nil {
				t.Fatal(err)
			}
			if err := f.SetMarks("anat", tt.obtained, tt.total); err != nil {
				t.Fatal(err)
			}
			var ve *ValidationError
			if _, err := f.Save(); !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !f.IsOpen() {
				t.Error("form should stay open after a failed save")
			}
		})
	}
}
