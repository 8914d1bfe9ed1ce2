package views

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"

	"github.com/medrank/tracker/internal/dashboard"
	"github.com/medrank/tracker/internal/form"
	appI18n "github.com/medrank/tracker/internal/i18n"
	"github.com/medrank/tracker/internal/model"
	"github.com/medrank/tracker/internal/score"
)

func TestMain(m *testing.M) {
	if err := appI18n.Init("en"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func render(t *testing.T, ctx context.Context, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return b.String()
}

func requestContext(basePath, token string) context.Context {
	ctx := model.ContextWithBasePath(context.Background(), basePath)
	return model.ContextWithCSRFToken(ctx, token)
}

func TestDashboardPage(t *testing.T) {
	tests := []model.GrandTest{{
		ID:   "a",
		Name: "<b>GT1</b>",
		Date: "2026-03-01",
		Mode: model.ModeNEETPG,
		Scores: map[string]model.SubjectScore{
			"anat": score.Subject("anat", 40, 10, model.ModeNEETPG),
		},
	}}
	v := NewDashboardView(dashboard.Build(tests, model.CategoryAll), "All", "")
	body := render(t, requestContext("/medrank", "tok123"), DashboardPage(v))

	for _, want := range []string{
		"<!doctype html>",
		`&lt;b&gt;GT1&lt;/b&gt;`,
		`href="/medrank/tests/a/edit"`,
		`action="/medrank/tests/a/delete"`,
		`href="/medrank/charts/anat.png"`,
		`href="/medrank/export.xlsx?category=ALL"`,
		`name="csrf_token" value="tok123"`,
		`href="/medrank/" class="active"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	if strings.Contains(body, "<b>GT1") {
		t.Error("test name rendered unescaped")
	}
	if strings.Contains(body, `id="no-tests"`) {
		t.Error("empty state shown with a test recorded")
	}
}

func TestDashboardPageAlert(t *testing.T) {
	v := NewDashboardView(dashboard.Build(nil, model.CategoryAll), "All", "No data to export.")
	body := render(t, requestContext("", "tok"), DashboardPage(v))
	for _, want := range []string{`role="alert">No data to export.</div>`, `id="no-tests"`, `href="/export.xlsx?category=ALL"`} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestFormPage(t *testing.T) {
	today := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name         string
		direct       bool
		wantReadonly bool
	}{
		{"counts", false, true},
		{"direct entry", true, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var f form.Form
			f.OpenCreate(0, today)
			if err := f.SetDirect(tc.direct); err != nil {
				t.Fatalf("SetDirect: %v", err)
			}
			v := NewFormView(&f, "/tests", []string{"name is required"})
			body := render(t, requestContext("", "tok"), FormPage(v))

			if got := strings.Contains(body, " readonly"); got != tc.wantReadonly {
				t.Errorf("readonly = %v, want %v", got, tc.wantReadonly)
			}
			if got := strings.Contains(body, `name="direct" checked`); got != tc.direct {
				t.Errorf("direct checked = %v, want %v", got, tc.direct)
			}
			for _, want := range []string{
				`action="/tests"`,
				`value="GT1"`,
				`value="2026-03-14"`,
				`<li>name is required</li>`,
				`<option value="NEET_PG" selected>`,
				`name="` + form.ObtainedField("anat") + `"`,
			} {
				if !strings.Contains(body, want) {
					t.Errorf("form missing %q", want)
				}
			}
		})
	}
}

func TestInsightsPage(t *testing.T) {
	tests := []struct {
		name    string
		view    InsightsView
		want    []string
		notWant []string
	}{
		{
			name:    "no tests",
			view:    InsightsView{},
			want:    []string{`id="need-test"`},
			notWant: []string{"/insights/analyze", `id="report"`},
		},
		{
			name:    "ready",
			view:    InsightsView{TestCount: 2},
			want:    []string{`action="/insights/analyze"`, `<button type="submit">`},
			notWant: []string{`id="need-test"`, " disabled"},
		},
		{
			name: "analyzing",
			view: InsightsView{TestCount: 2, Analyzing: true},
			want: []string{`<button type="submit" disabled>`},
		},
		{
			name: "report",
			view: InsightsView{TestCount: 1, Analysis: "Focus on <Anatomy>."},
			want: []string{`id="report">Focus on &lt;Anatomy&gt;.</div>`},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body := render(t, requestContext("", "tok"), InsightsPage(tc.view))
			for _, want := range tc.want {
				if !strings.Contains(body, want) {
					t.Errorf("insights missing %q", want)
				}
			}
			for _, nw := range tc.notWant {
				if strings.Contains(body, nw) {
					t.Errorf("insights should not contain %q", nw)
				}
			}
			if !strings.Contains(body, `href="/insights" class="active"`) {
				t.Error("insights tab not marked active")
			}
		})
	}
}

func TestPath(t *testing.T) {
	tests := []struct {
		basePath, p, want string
	}{
		{"", "/", "/"},
		{"", "insights", "/insights"},
		{"/medrank", "/", "/medrank/"},
		{"/medrank", "/tests/new", "/medrank/tests/new"},
	}
	for _, tc := range tests {
		ctx := model.ContextWithBasePath(context.Background(), tc.basePath)
		if got := Path(ctx, tc.p); got != tc.want {
			t.Errorf("Path(%q, %q) = %q, want %q", tc.basePath, tc.p, got, tc.want)
		}
	}
}

func TestMark(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{200, "200"},
		{2.5, "2.5"},
		{-0.25, "-0.25"},
		{0, "0"},
	}
	for _, tc := range tests {
		if got := mark(tc.in); got != tc.want {
			t.Errorf("mark(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
