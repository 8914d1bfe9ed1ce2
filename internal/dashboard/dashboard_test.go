package dashboard

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/medrank/tracker/internal/model"
	"github.com/medrank/tracker/internal/score"
)

func testWith(id, name string, pcts map[string]int) model.GrandTest {
	t := model.GrandTest{ID: id, Name: name, Date: "2026-01-01", Mode: model.ModeNEETPG, Scores: map[string]model.SubjectScore{}}
	for sub, p := range pcts {
		t.Scores[sub] = model.SubjectScore{SubjectID: sub, Percentage: p}
	}
	return t
}

func findRow(t *testing.T, g Grid, subjectID string) Row {
	t.Helper()
	for _, s := range g.Sections {
		for _, r := range s.Rows {
			if r.Subject.ID == subjectID {
				return r
			}
		}
	}
	t.Fatalf("row %s not in grid", subjectID)
	return Row{}
}

func TestBuildSingleTest(t *testing.T) {
	g := Build([]model.GrandTest{testWith("a", "GT1", map[string]int{"anat": 75})}, model.CategoryAll)
	if g.ShowAverage {
		t.Error("average must be hidden with a single test")
	}
	if len(g.Sections) != 3 {
		t.Fatalf("sections = %d, want 3", len(g.Sections))
	}
	r := findRow(t, g, "anat")
	if c := r.Cells[0]; c.Percentage != 75 || c.Band != score.BandAverage || c.Trend != score.TrendNone {
		t.Errorf("cell = %+v", c)
	}
	// Missing subjects are 0% and weak.
	if c := findRow(t, g, "ent").Cells[0]; c.Percentage != 0 || c.Band != score.BandWeak {
		t.Errorf("missing subject cell = %+v", c)
	}
}

func TestBuildTrends(t *testing.T) {
	tests := []model.GrandTest{
		testWith("a", "GT1", map[string]int{"anat": 60, "med": 70}),
		testWith("b", "GT2", map[string]int{"anat": 80, "med": 70}),
	}
	g := Build(tests, model.CategoryAll)
	if !g.ShowAverage {
		t.Fatal("average should be shown for two tests")
	}
	anat := findRow(t, g, "anat")
	if anat.Average != 70 || anat.AverageLabel() != "70.0%" {
		t.Errorf("anat average = %v (%s)", anat.Average, anat.AverageLabel())
	}
	if anat.Cells[0].Trend != score.TrendDown || anat.Cells[1].Trend != score.TrendUp {
		t.Errorf("anat trends = %s, %s", anat.Cells[0].Trend, anat.Cells[1].Trend)
	}
	if anat.Cells[1].Band != score.BandStrong || anat.Cells[1].VsAverage != 10 {
		t.Errorf("anat GT2 = %+v", anat.Cells[1])
	}
	med := findRow(t, g, "med")
	if med.Cells[0].Trend != score.TrendFlat {
		t.Errorf("equal scores should be flat, got %s", med.Cells[0].Trend)
	}
}

func TestBuildFilter(t *testing.T) {
	tests := []model.GrandTest{testWith("a", "GT1", nil), testWith("b", "GT2", nil)}
	g := Build(tests, model.CategoryRankMaintaining)
	if len(g.Sections) != 1 || g.Sections[0].Category != model.CategoryRankMaintaining {
		t.Fatalf("sections = %+v", g.Sections)
	}
	if len(g.Sections[0].Rows) != 4 {
		t.Errorf("rows = %d, want 4", len(g.Sections[0].Rows))
	}
	if len(g.Columns) != 2 {
		t.Errorf("filtering must keep every test column, got %d", len(g.Columns))
	}
}

func TestBuildEmpty(t *testing.T) {
	g := Build(nil, "")
	if !g.Empty() || g.Filter != model.CategoryAll {
		t.Errorf("grid = %+v", g)
	}
	if len(g.Sections) != 3 {
		t.Errorf("empty grid should still list categories, got %d", len(g.Sections))
	}
}

func TestScoreboard(t *testing.T) {
	color.NoColor = true
	tests := []model.GrandTest{
		testWith("a", "GT1", map[string]int{"anat": 40}),
		testWith("b", "GT2", map[string]int{"anat": 90}),
	}
	var buf bytes.Buffer
	if err := Scoreboard(&buf, Build(tests, model.CategoryRankBuilding)); err != nil {
		t.Fatalf("Scoreboard: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Rank Building", "Anatomy", "GT1 (NEET PG)", "40% ↓", "90% ↑", "65.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Medicine") {
		t.Error("filtered category leaked into output")
	}

	buf.Reset()
	if err := Scoreboard(&buf, Build(nil, model.CategoryAll)); err != nil {
		t.Fatalf("Scoreboard empty: %v", err)
	}
	if !strings.Contains(buf.String(), "No test data available") {
		t.Errorf("empty output = %q", buf.String())
	}
}
