package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/medrank/tracker/internal/model"
	"github.com/medrank/tracker/internal/score"
)

func TestAPIKeyFallback(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gem")
	t.Setenv("OPENAI_API_KEY", "oai")

	v := viper.New()
	if got := apiKey(v); got != "gem" {
		t.Errorf("expected GEMINI_API_KEY, got %q", got)
	}
	v.Set("llm-key", "flag")
	if got := apiKey(v); got != "flag" {
		t.Errorf("expected flag value to win, got %q", got)
	}
}

func TestWriteTestList(t *testing.T) {
	var buf bytes.Buffer
	if err := writeTestList(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No tests recorded.") {
		t.Errorf("unexpected empty output %q", buf.String())
	}

	buf.Reset()
	tests := []model.GrandTest{{
		ID:   "a",
		Name: "GT1",
		Date: "2026-03-01",
		Mode: model.ModeINICET,
		Scores: map[string]model.SubjectScore{
			"anat": score.SubjectFromMarks("anat", 0, 0, 30, 40),
			"phys": score.SubjectFromMarks("phys", 0, 0, 10, 60),
		},
	}}
	if err := writeTestList(&buf, tests); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"GT1", "2026-03-01", model.ModeINICET.Label(), "40%"} {
		if !strings.Contains(out, want) {
			t.Errorf("list missing %q:\n%s", want, out)
		}
	}
}

func TestRootCommands(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"serve", "export", "scoreboard", "list", "import", "analyze"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
	if root.Flags().Lookup("addr") == nil {
		t.Error("serve flags should be available on the root command")
	}
}
