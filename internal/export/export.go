// Package export writes the filtered scoreboard to an xlsx workbook.
package export

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/medrank/tracker/internal/metrics"
	"github.com/medrank/tracker/internal/model"
	"github.com/medrank/tracker/internal/score"
)

// SheetName is the name of the only sheet in the workbook.
const SheetName = "Scores"

// ContentType is the MIME type of the generated file.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var ErrNoTests = errors.New("no tests to export")

var categoryFills = map[model.Category]string{
	model.CategoryRankBuilding:    "#DBEAFE",
	model.CategoryRankMaintaining: "#F3E8FF",
	model.CategoryRankDeciding:    "#FFEDD5",
}

// CategoryColor returns the header fill of a category.
func CategoryColor(c model.Category) string {
	return categoryFills[c]
}

// Filename returns the download name, e.g. MedRank_ALL_NEET_PG_2026-03-01.xlsx.
// The mode is that of the latest test.
func Filename(tests []model.GrandTest, filter model.Category, now time.Time) string {
	scope := "ALL"
	if filter != model.CategoryAll && filter != "" {
		scope = filter.Short()
	}
	mode := "NONE"
	if len(tests) > 0 {
		mode = string(tests[len(tests)-1].Mode)
	}
	return fmt.Sprintf("MedRank_%s_%s_%s.xlsx", scope, mode, now.Format(model.DateLayout))
}

type styles struct {
	header   int
	subject  int
	category map[model.Category]int
	band     map[score.Band]int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error
	s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#F3F4F6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return s, fmt.Errorf("header style: %w", err)
	}
	s.subject, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return s, fmt.Errorf("subject style: %w", err)
	}

	s.category = make(map[model.Category]int, len(categoryFills))
	for c, fill := range categoryFills {
		id, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
		})
		if err != nil {
			return s, fmt.Errorf("category style: %w", err)
		}
		s.category[c] = id
	}

	s.band = make(map[score.Band]int, 3)
	for _, b := range []score.Band{score.BandWeak, score.BandAverage, score.BandStrong} {
		id, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{b.Color()}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		if err != nil {
			return s, fmt.Errorf("band style: %w", err)
		}
		s.band[b] = id
	}
	return s, nil
}

// Workbook builds the spreadsheet. Row 1 holds the test names; each visible
// category gets a filled header row followed by its subjects, and every score
// cell holds the integer percentage filled with its band color.
func Workbook(tests []model.GrandTest, filter model.Category) (*excelize.File, error) {
	if len(tests) == 0 {
		return nil, ErrNoTests
	}
	f := excelize.NewFile()
	if err := fill(f, tests, filter); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func fill(f *excelize.File, tests []model.GrandTest, filter model.Category) error {
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	st, err := newStyles(f)
	if err != nil {
		return err
	}
	lastCol := len(tests) + 1

	if err := setCell(f, 1, 1, "Subject", st.header); err != nil {
		return err
	}
	for i, t := range tests {
		if err := setCell(f, i+2, 1, t.Name, st.header); err != nil {
			return err
		}
	}

	row := 2
	for _, cat := range model.VisibleCategories(filter) {
		if err := setCell(f, 1, row, cat.Label(), st.category[cat]); err != nil {
			return err
		}
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(lastCol, row)
		if lastCol > 1 {
			if err := f.MergeCell(SheetName, first, last); err != nil {
				return fmt.Errorf("merge category row: %w", err)
			}
		}
		if err := f.SetCellStyle(SheetName, first, last, st.category[cat]); err != nil {
			return fmt.Errorf("style category row: %w", err)
		}
		row++

		for _, sub := range model.SubjectsInCategory(cat) {
			if err := setCell(f, 1, row, sub.Name, st.subject); err != nil {
				return err
			}
			for i, t := range tests {
				pct := t.ScoreFor(sub.ID).Percentage
				if err := setCell(f, i+2, row, pct, st.band[score.Classify(pct)]); err != nil {
					return err
				}
			}
			row++
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 24); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	lastName, _ := excelize.ColumnNumberToName(lastCol)
	if lastCol > 1 {
		if err := f.SetColWidth(SheetName, "B", lastName, 14); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value any, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		return fmt.Errorf("set %s: %w", cell, err)
	}
	if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
		return fmt.Errorf("style %s: %w", cell, err)
	}
	return nil
}

// Write builds the workbook and writes it to w.
func Write(w io.Writer, tests []model.GrandTest, filter model.Category) error {
	f, err := Workbook(tests, filter)
	if errors.Is(err, ErrNoTests) {
		metrics.Exports.WithLabelValues("empty").Inc()
		return err
	}
	if err != nil {
		metrics.Exports.WithLabelValues("error").Inc()
		return fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		metrics.Exports.WithLabelValues("error").Inc()
		return fmt.Errorf("write workbook: %w", err)
	}
	metrics.Exports.WithLabelValues("ok").Inc()
	slog.Info("exported workbook", "tests", len(tests), "filter", filter)
	return nil
}
