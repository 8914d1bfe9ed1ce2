// Package prompts renders the performance analysis prompt.
package prompts

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/medrank/tracker/internal/model"
)

//go:embed analysis.txt
var analysisSource string

// maxNameRunes bounds the user-supplied test name placed in the prompt.
const maxNameRunes = 80

var controlRegex = regexp.MustCompile(`[\r\n\t]+`)

var (
	loadOnce sync.Once
	loadErr  error
	analysis *template.Template
)

// Line is one subject of the latest test.
type Line struct {
	Name       string
	Category   model.Category
	Percentage int
}

// AnalysisData holds template data for the analysis prompt.
type AnalysisData struct {
	TestName string
	Lines    []Line
}

func load() error {
	loadOnce.Do(func() {
		analysis, loadErr = template.New("analysis").Parse(analysisSource)
		if loadErr != nil {
			loadErr = fmt.Errorf("parse analysis prompt: %w", loadErr)
		}
	})
	return loadErr
}

// Data collects the prompt data for a test. Subjects follow catalog order and
// only recorded subjects are listed.
func Data(t model.GrandTest) AnalysisData {
	data := AnalysisData{TestName: sanitizeName(t.Name)}
	for _, s := range model.Subjects() {
		sc, ok := t.Scores[s.ID]
		if !ok {
			continue
		}
		data.Lines = append(data.Lines, Line{Name: s.Name, Category: s.Category, Percentage: sc.Percentage})
	}
	return data
}

// Build renders the analysis prompt for one test. The output depends only on
// the test, so equal tests always yield equal prompts.
func Build(t model.GrandTest) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	if analysis == nil {
		return "", errors.New("analysis prompt not loaded")
	}
	var buf bytes.Buffer
	if err := analysis.Execute(&buf, Data(t)); err != nil {
		return "", fmt.Errorf("render analysis prompt: %w", err)
	}
	return buf.String(), nil
}

func sanitizeName(name string) string {
	name = controlRegex.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	if name == "" {
		return "[unnamed test]"
	}
	if utf8.RuneCountInString(name) > maxNameRunes {
		name = string([]rune(name)[:maxNameRunes]) + "..."
	}
	return name
}
