package model

import (
	"fmt"
	"strings"
)

// Category is a fixed subject-importance tier.
type Category string

const (
	CategoryRankBuilding    Category = "RANK_BUILDING"
	CategoryRankMaintaining Category = "RANK_MAINTAINING"
	CategoryRankDeciding    Category = "RANK_DECIDING"
)

// CategoryAll is the dashboard filter value that shows every category.
const CategoryAll Category = "ALL"

var categoryOrder = []Category{CategoryRankBuilding, CategoryRankMaintaining, CategoryRankDeciding}

var categoryLabels = map[Category]string{
	CategoryRankBuilding:    "Rank Building",
	CategoryRankMaintaining: "Rank Maintaining",
	CategoryRankDeciding:    "Rank Deciding",
}

// Categories returns the categories in display order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// Label returns the display name of the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	if c == CategoryAll {
		return "All Categories"
	}
	return string(c)
}

// Short returns the label without the "RANK_" prefix (e.g. "BUILDING").
func (c Category) Short() string {
	return strings.TrimPrefix(string(c), "RANK_")
}

// ParseCategory parses a filter value. Empty input means CategoryAll.
func ParseCategory(s string) (Category, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == string(CategoryAll) {
		return CategoryAll, nil
	}
	c := Category(s)
	if _, ok := categoryLabels[c]; !ok {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Subject is one entry of the static subject catalog.
type Subject struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
}

var subjects = []Subject{
	{ID: "anat", Name: "Anatomy", Category: CategoryRankBuilding},
	{ID: "physio", Name: "Physiology", Category: CategoryRankBuilding},
	{ID: "biochem", Name: "Biochemistry", Category: CategoryRankBuilding},
	{ID: "patho", Name: "Pathology", Category: CategoryRankBuilding},
	{ID: "micro", Name: "Microbiology", Category: CategoryRankBuilding},
	{ID: "pharma", Name: "Pharmacology", Category: CategoryRankBuilding},
	{ID: "fmt", Name: "FMT", Category: CategoryRankBuilding},
	{ID: "paeds", Name: "Pediatrics", Category: CategoryRankBuilding},

	{ID: "med", Name: "Medicine", Category: CategoryRankMaintaining},
	{ID: "surg", Name: "Surgery", Category: CategoryRankMaintaining},
	{ID: "obg", Name: "OBG", Category: CategoryRankMaintaining},
	{ID: "psm", Name: "PSM", Category: CategoryRankMaintaining},

	{ID: "eye", Name: "Ophthalmology", Category: CategoryRankDeciding},
	{ID: "ent", Name: "ENT", Category: CategoryRankDeciding},
	{ID: "ortho", Name: "Orthopedics", Category: CategoryRankDeciding},
	{ID: "derma", Name: "Dermatology", Category: CategoryRankDeciding},
	{ID: "psych", Name: "Psychiatry", Category: CategoryRankDeciding},
	{ID: "radio", Name: "Radiology", Category: CategoryRankDeciding},
	{ID: "anaes", Name: "Anesthesia", Category: CategoryRankDeciding},
}

var subjectIndex = func() map[string]Subject {
	m := make(map[string]Subject, len(subjects))
	for _, s := range subjects {
		m[s.ID] = s
	}
	return m
}()

// Subjects returns the full catalog in display order.
func Subjects() []Subject {
	out := make([]Subject, len(subjects))
	copy(out, subjects)
	return out
}

// SubjectByID looks up a catalog subject.
func SubjectByID(id string) (Subject, bool) {
	s, ok := subjectIndex[id]
	return s, ok
}

// SubjectsInCategory returns the subjects of one category in catalog order.
// CategoryAll returns the whole catalog.
func SubjectsInCategory(c Category) []Subject {
	if c == CategoryAll {
		return Subjects()
	}
	var out []Subject
	for _, s := range subjects {
		if s.Category == c {
			out = append(out, s)
		}
	}
	return out
}

// VisibleCategories returns the categories shown for a filter.
func VisibleCategories(filter Category) []Category {
	if filter == CategoryAll || filter == "" {
		return Categories()
	}
	return []Category{filter}
}
