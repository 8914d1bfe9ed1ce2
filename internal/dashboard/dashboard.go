// Package dashboard builds the subject-by-test score grid shown on the
// dashboard and in the terminal scoreboard.
package dashboard

import (
	"fmt"

	"github.com/medrank/tracker/internal/model"
	"github.com/medrank/tracker/internal/score"
)

// Column is one test, in creation order.
type Column struct {
	ID        string
	Name      string
	Date      string
	Mode      model.ExamMode
	ModeLabel string
}

// Cell is one subject's result in one test.
type Cell struct {
	TestID     string
	Percentage int
	Band       score.Band
	Trend      score.Trend
	// VsAverage is the percentage minus the subject's mean.
	VsAverage float64
}

// Row is one subject across every test.
type Row struct {
	Subject model.Subject
	Average float64
	Cells   []Cell
}

// AverageLabel formats the average with one decimal, e.g. "62.5%".
func (r Row) AverageLabel() string {
	return fmt.Sprintf("%.1f%%", r.Average)
}

// Section groups the rows of one category.
type Section struct {
	Category model.Category
	Label    string
	Rows     []Row
}

// Grid is the full dashboard view model.
type Grid struct {
	Filter   model.Category
	Columns  []Column
	Sections []Section
	// ShowAverage is set when there is more than one test; averages and trends
	// are meaningless otherwise.
	ShowAverage bool
}

// Empty reports whether there are no tests to show.
func (g Grid) Empty() bool {
	return len(g.Columns) == 0
}

// Build computes the grid for tests under a category filter. Filtering only
// selects subject rows; every test keeps its column.
func Build(tests []model.GrandTest, filter model.Category) Grid {
	if filter == "" {
		filter = model.CategoryAll
	}
	g := Grid{
		Filter:      filter,
		Columns:     make([]Column, 0, len(tests)),
		ShowAverage: len(tests) > 1,
	}
	for _, t := range tests {
		g.Columns = append(g.Columns, Column{
			ID:        t.ID,
			Name:      t.Name,
			Date:      t.Date,
			Mode:      t.Mode,
			ModeLabel: t.Mode.Label(),
		})
	}

	for _, cat := range model.VisibleCategories(filter) {
		sec := Section{Category: cat, Label: cat.Label()}
		for _, sub := range model.SubjectsInCategory(cat) {
			sec.Rows = append(sec.Rows, buildRow(sub, tests))
		}
		g.Sections = append(g.Sections, sec)
	}
	return g
}

func buildRow(sub model.Subject, tests []model.GrandTest) Row {
	mean := score.Mean(tests, sub.ID)
	row := Row{Subject: sub, Average: mean, Cells: make([]Cell, 0, len(tests))}
	for _, t := range tests {
		pct := t.ScoreFor(sub.ID).Percentage
		row.Cells = append(row.Cells, Cell{
			TestID:     t.ID,
			Percentage: pct,
			Band:       score.Classify(pct),
			Trend:      score.TrendOf(pct, mean, len(tests)),
			VsAverage:  float64(pct) - mean,
		})
	}
	return row
}
