// Package tracker holds the application state and the controller that applies
// transitions to it and persists the result.
package tracker

import (
	"github.com/medrank/tracker/internal/model"
)

// State is the tracked test sequence in creation order.
type State struct {
	Tests []model.GrandTest
}

// Add returns a state with t appended.
func Add(s State, t model.GrandTest) State {
	out := make([]model.GrandTest, 0, len(s.Tests)+1)
	out = append(out, s.Tests...)
	out = append(out, t.Clone())
	return State{Tests: out}
}

// Update returns a state with the test matching id replaced by t.
// The state is returned unchanged when no test has that id.
func Update(s State, id string, t model.GrandTest) State {
	idx := s.index(id)
	if idx < 0 {
		return s
	}
	out := make([]model.GrandTest, len(s.Tests))
	copy(out, s.Tests)
	out[idx] = t.Clone()
	out[idx].ID = id
	return State{Tests: out}
}

// Remove returns a state without the test matching id.
func Remove(s State, id string) State {
	idx := s.index(id)
	if idx < 0 {
		return s
	}
	out := make([]model.GrandTest, 0, len(s.Tests)-1)
	out = append(out, s.Tests[:idx]...)
	out = append(out, s.Tests[idx+1:]...)
	return State{Tests: out}
}

// Find returns the test with the given id.
func (s State) Find(id string) (model.GrandTest, bool) {
	idx := s.index(id)
	if idx < 0 {
		return model.GrandTest{}, false
	}
	return s.Tests[idx], true
}

// Latest returns the most recently added test.
func (s State) Latest() (model.GrandTest, bool) {
	if len(s.Tests) == 0 {
		return model.GrandTest{}, false
	}
	return s.Tests[len(s.Tests)-1], true
}

func (s State) index(id string) int {
	for i, t := range s.Tests {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func cloneTests(tests []model.GrandTest) []model.GrandTest {
	if tests == nil {
		return nil
	}
	out := make([]model.GrandTest, len(tests))
	for i, t := range tests {
		out[i] = t.Clone()
	}
	return out
}
