package export

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/medrank/tracker/internal/model"
)

func gt(id string, mode model.ExamMode, pcts map[string]int) model.GrandTest {
	t := model.GrandTest{ID: id, Name: id, Date: "2026-01-01", Mode: mode, Scores: map[string]model.SubjectScore{}}
	for sub, p := range pcts {
		t.Scores[sub] = model.SubjectScore{SubjectID: sub, Percentage: p}
	}
	return t
}

func readBack(t *testing.T, tests []model.GrandTest, filter model.Category) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, tests, filter); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(SheetName, ref)
	if err != nil {
		t.Fatalf("GetCellValue(%s): %v", ref, err)
	}
	return v
}

func fillColor(t *testing.T, f *excelize.File, ref string) string {
	t.Helper()
	id, err := f.GetCellStyle(SheetName, ref)
	if err != nil {
		t.Fatalf("GetCellStyle(%s): %v", ref, err)
	}
	st, err := f.GetStyle(id)
	if err != nil {
		t.Fatalf("GetStyle(%d): %v", id, err)
	}
	if len(st.Fill.Color) == 0 {
		return ""
	}
	return strings.ToUpper(st.Fill.Color[0])
}

func TestWorkbookLayout(t *testing.T) {
	tests := []model.GrandTest{
		gt("GT1", model.ModeNEETPG, map[string]int{"anat": 50, "physio": 80}),
		gt("GT2", model.ModeINICET, map[string]int{"anat": 79, "physio": -4}),
	}
	f := readBack(t, tests, model.CategoryAll)

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != SheetName {
		t.Fatalf("sheets = %v", sheets)
	}
	if cell(t, f, "A1") != "Subject" || cell(t, f, "B1") != "GT1" || cell(t, f, "C1") != "GT2" {
		t.Errorf("header row = %q %q %q", cell(t, f, "A1"), cell(t, f, "B1"), cell(t, f, "C1"))
	}
	if cell(t, f, "A2") != "Rank Building" {
		t.Errorf("A2 = %q, want category header", cell(t, f, "A2"))
	}
	if !strings.HasSuffix(fillColor(t, f, "A2"), "DBEAFE") {
		t.Errorf("category fill = %q", fillColor(t, f, "A2"))
	}
	if cell(t, f, "A3") != "Anatomy" || cell(t, f, "A4") != "Physiology" {
		t.Errorf("subject rows = %q %q", cell(t, f, "A3"), cell(t, f, "A4"))
	}

	bands := []struct {
		ref, value, color string
	}{
		{"B3", "50", "FECACA"},
		{"C3", "79", "FEF9C3"},
		{"B4", "80", "BBF7D0"},
		{"C4", "-4", "FECACA"},
	}
	for _, b := range bands {
		if got := cell(t, f, b.ref); got != b.value {
			t.Errorf("%s = %q, want %q", b.ref, got, b.value)
		}
		if got := fillColor(t, f, b.ref); !strings.HasSuffix(got, b.color) {
			t.Errorf("%s fill = %q, want %s", b.ref, got, b.color)
		}
	}

	// 1 header + 3 category rows + 19 subjects.
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1+3+len(model.Subjects()) {
		t.Errorf("rows = %d", len(rows))
	}
	maint := 1 + 1 + 8 + 1 // header, building header, 8 subjects, then maintaining header
	if got := cell(t, f, "A"+strconv.Itoa(maint)); got != "Rank Maintaining" {
		t.Errorf("row %d = %q", maint, got)
	}
}

func TestWorkbookFilter(t *testing.T) {
	f := readBack(t, []model.GrandTest{gt("GT1", model.ModeNEETPG, map[string]int{"eye": 91})}, model.CategoryRankDeciding)
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1+1+7 {
		t.Errorf("rows = %d, want 9", len(rows))
	}
	if cell(t, f, "A2") != "Rank Deciding" || cell(t, f, "A3") != "Ophthalmology" || cell(t, f, "B3") != "91" {
		t.Errorf("unexpected filtered layout: %v", rows[:3])
	}
}

func TestWriteNoTests(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil, model.CategoryAll); !errors.Is(err, ErrNoTests) {
		t.Fatalf("expected ErrNoTests, got %v", err)
	}
	if buf.Len() != 0 {
		t.Error("nothing should be written when there are no tests")
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []model.GrandTest{gt("GT1", model.ModeNEETPG, nil), gt("GT2", model.ModeINICET, nil)}
	cases := []struct {
		name   string
		tests  []model.GrandTest
		filter model.Category
		want   string
	}{
		{"all", tests, model.CategoryAll, "MedRank_ALL_INI_CET_2026-03-01.xlsx"},
		{"category", tests[:1], model.CategoryRankBuilding, "MedRank_BUILDING_NEET_PG_2026-03-01.xlsx"},
		{"empty", nil, "", "MedRank_ALL_NONE_2026-03-01.xlsx"},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := Filename(tt.tests, tt.filter, now); got != tt.want {
				t.Errorf("Filename() = %q, want %q", got, tt.want)
			}
		})
	}
}
