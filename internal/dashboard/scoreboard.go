package dashboard

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/medrank/tracker/internal/score"
)

var bandColors = map[score.Band]*color.Color{
	score.BandWeak:    color.New(color.FgRed, color.Bold),
	score.BandAverage: color.New(color.FgYellow),
	score.BandStrong:  color.New(color.FgGreen),
}

var headingColor = color.New(color.FgCyan, color.Bold)

// Scoreboard renders the grid as terminal tables, one per category.
func Scoreboard(w io.Writer, g Grid) error {
	if g.Empty() {
		_, err := fmt.Fprintln(w, "No test data available. Add your first GT to see the scoreboard.")
		return err
	}

	header := []string{"Subject"}
	for _, c := range g.Columns {
		header = append(header, fmt.Sprintf("%s (%s)", c.Name, c.ModeLabel))
	}
	if g.ShowAverage {
		header = append(header, "Avg")
	}

	for _, sec := range g.Sections {
		if _, err := headingColor.Fprintf(w, "\n%s\n", sec.Label); err != nil {
			return err
		}
		table := tablewriter.NewWriter(w)
		table.SetAutoFormatHeaders(false)
		table.SetHeader(header)
		for _, r := range sec.Rows {
			line := []string{r.Subject.Name}
			for _, c := range r.Cells {
				line = append(line, cellText(c))
			}
			if g.ShowAverage {
				line = append(line, r.AverageLabel())
			}
			table.Append(line)
		}
		table.Render()
	}
	return nil
}

func cellText(c Cell) string {
	text := fmt.Sprintf("%d%%", c.Percentage)
	if sym := c.Trend.Symbol(); sym != "" {
		text += " " + sym
	}
	if col, ok := bandColors[c.Band]; ok {
		return col.Sprint(text)
	}
	return text
}
