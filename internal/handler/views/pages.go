package views

import (
	"github.com/medrank/tracker/internal/dashboard"
	"github.com/medrank/tracker/internal/form"
	"github.com/medrank/tracker/internal/model"
	"github.com/medrank/tracker/internal/score"
)

// Option is one entry of a select box.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// DashboardView is the data of the dashboard page.
type DashboardView struct {
	Grid    dashboard.Grid
	Filter  string
	Filters []Option
	Alert   string
}

// NewDashboardView wraps a grid with the category filter options.
func NewDashboardView(g dashboard.Grid, allLabel, alert string) DashboardView {
	filter := g.Filter
	if filter == "" {
		filter = model.CategoryAll
	}
	v := DashboardView{Grid: g, Filter: string(filter), Alert: alert}
	v.Filters = append(v.Filters, Option{
		Value:    string(model.CategoryAll),
		Label:    allLabel,
		Selected: filter == model.CategoryAll,
	})
	for _, c := range model.Categories() {
		v.Filters = append(v.Filters, Option{Value: string(c), Label: c.Label(), Selected: filter == c})
	}
	return v
}

// FormRow is one subject line of the entry form.
type FormRow struct {
	form.Row
	SubjectID     string
	Name          string
	CorrectField  string
	WrongField    string
	ObtainedField string
	TotalField    string
	Percentage    int
	Band          score.Band
}

// FormSection groups form rows by category.
type FormSection struct {
	Label string
	Rows  []FormRow
}

// FormView is the data of the add/edit page.
type FormView struct {
	TitleKey   string
	Action     string
	Name       string
	Date       string
	Direct     bool
	UsesCounts bool
	Modes      []Option
	Sections   []FormSection
	Problems   []string
}

// NewFormView lays out an open form. action is the application path the form
// posts to.
func NewFormView(f *form.Form, action string, problems []string) FormView {
	v := FormView{
		TitleKey:   "FormAddTitle",
		Action:     action,
		Name:       f.Name,
		Date:       f.Date,
		Direct:     f.Direct,
		UsesCounts: !f.Direct && f.Mode != model.ModeCustom,
		Problems:   problems,
	}
	if f.Status == form.Edit {
		v.TitleKey = "FormEditTitle"
	}
	for _, m := range model.Modes {
		v.Modes = append(v.Modes, Option{Value: string(m), Label: m.Label(), Selected: f.Mode == m})
	}
	for _, c := range model.Categories() {
		sec := FormSection{Label: c.Label()}
		for _, s := range model.SubjectsInCategory(c) {
			row := f.Rows[s.ID]
			pct := score.Percentage(row.Obtained, row.Total)
			sec.Rows = append(sec.Rows, FormRow{
				Row:           row,
				SubjectID:     s.ID,
				Name:          s.Name,
				CorrectField:  form.CorrectField(s.ID),
				WrongField:    form.WrongField(s.ID),
				ObtainedField: form.ObtainedField(s.ID),
				TotalField:    form.TotalField(s.ID),
				Percentage:    pct,
				Band:          score.Classify(pct),
			})
		}
		v.Sections = append(v.Sections, sec)
	}
	return v
}

// InsightsView is the data of the AI insights page.
type InsightsView struct {
	TestCount int
	Analysis  string
	Analyzing bool
}
