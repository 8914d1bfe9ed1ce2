package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/medrank/tracker/internal/metrics"
	"github.com/medrank/tracker/internal/model"
	"github.com/medrank/tracker/internal/store"
)

var (
	ErrNotFound = errors.New("test not found")
	// ErrSuperseded is returned by Analyze when a newer request or a data change
	// replaced the request before its result arrived. The result is discarded.
	ErrSuperseded = errors.New("analysis superseded")
)

// Analyzer produces a performance summary for a test sequence. The returned
// text is always fit for display, including on error.
type Analyzer interface {
	Analyze(ctx context.Context, tests []model.GrandTest) (string, error)
}

// Controller owns the application state. Every transition is followed by a
// full write of the test sequence to the blob store.
type Controller struct {
	mu       sync.Mutex
	state    State
	blob     store.Blob
	analyzer Analyzer

	analysis  string
	analyzing bool
	gen       uint64
	cancel    context.CancelFunc
}

// New creates a controller with an empty state. Call Load to read persisted tests.
func New(blob store.Blob, analyzer Analyzer) *Controller {
	return &Controller{blob: blob, analyzer: analyzer}
}

// Load replaces the state with the persisted sequence. Malformed data is logged
// and the state starts empty; only read failures are returned.
func (c *Controller) Load(ctx context.Context) error {
	tests, err := store.LoadTests(ctx, c.blob)
	if errors.Is(err, store.ErrCorrupt) {
		slog.Error("failed to parse saved data, starting empty", "key", store.TestsKey, "error", err)
		tests, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("load tests: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = State{Tests: tests}
	slog.Info("loaded tests", "count", len(tests))
	return nil
}

// Tests returns a copy of the test sequence in creation order.
func (c *Controller) Tests() []model.GrandTest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneTests(c.state.Tests)
}

// Count returns the number of tests.
func (c *Controller) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.state.Tests)
}

// Test returns one test by id.
func (c *Controller) Test(id string) (model.GrandTest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.state.Find(id)
	if !ok {
		return model.GrandTest{}, ErrNotFound
	}
	return t.Clone(), nil
}

// Save replaces the test with the same id, or appends it when the id is new.
func (c *Controller) Save(ctx context.Context, t model.GrandTest) error {
	if t.ID == "" {
		return errors.New("test id is required")
	}
	action := "create"
	err := c.apply(ctx, func(s State) State {
		if _, ok := s.Find(t.ID); ok {
			action = "update"
			return Update(s, t.ID, t)
		}
		return Add(s, t)
	})
	if err != nil {
		return err
	}
	metrics.TestsSaved.WithLabelValues(action).Inc()
	slog.Info("saved test", "id", t.ID, "name", t.Name, "action", action)
	return nil
}

// Update replaces the test matching id. It returns ErrNotFound when there is none.
func (c *Controller) Update(ctx context.Context, id string, t model.GrandTest) error {
	c.mu.Lock()
	_, ok := c.state.Find(id)
	c.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	err := c.apply(ctx, func(s State) State { return Update(s, id, t) })
	if err != nil {
		return err
	}
	metrics.TestsSaved.WithLabelValues("update").Inc()
	slog.Info("updated test", "id", id, "name", t.Name)
	return nil
}

// Delete removes the test matching id. It returns ErrNotFound when there is none.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	_, ok := c.state.Find(id)
	c.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	err := c.apply(ctx, func(s State) State { return Remove(s, id) })
	if err != nil {
		return err
	}
	metrics.TestsDeleted.Inc()
	slog.Info("deleted test", "id", id)
	return nil
}

// Import merges tests into the sequence: a test whose id already exists
// replaces it in place, any other test is appended. Tests without an id are
// skipped. It returns the number of added and replaced tests.
func (c *Controller) Import(ctx context.Context, tests []model.GrandTest) (added, replaced int, err error) {
	err = c.apply(ctx, func(s State) State {
		for _, t := range tests {
			if t.ID == "" {
				continue
			}
			if _, ok := s.Find(t.ID); ok {
				s = Update(s, t.ID, t)
				replaced++
				continue
			}
			s = Add(s, t)
			added++
		}
		return s
	})
	if err != nil {
		return added, replaced, err
	}
	metrics.TestsSaved.WithLabelValues("import").Add(float64(added + replaced))
	slog.Info("imported tests", "added", added, "replaced", replaced)
	return added, replaced, nil
}

// apply runs a transition, drops any analysis of the old data and persists
// the new sequence. The state keeps the transition even if the write fails.
func (c *Controller) apply(ctx context.Context, transition func(State) State) error {
	c.mu.Lock()
	c.state = transition(c.state)
	c.discardAnalysisLocked()
	snapshot := cloneTests(c.state.Tests)
	// Writes stay ordered with transitions.
	err := store.SaveTests(ctx, c.blob, snapshot)
	c.mu.Unlock()

	if err != nil {
		metrics.PersistFailures.Inc()
		slog.Error("failed to persist tests", "count", len(snapshot), "error", err)
		return fmt.Errorf("persist tests: %w", err)
	}
	return nil
}

// Analysis returns the last applied summary and whether a request is in flight.
func (c *Controller) Analysis() (text string, analyzing bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.analysis, c.analyzing
}

// Analyze requests a summary of the current tests. Starting a new request
// cancels the previous one; a cancelled request's result is never applied.
func (c *Controller) Analyze(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.analyzing = true
	tests := cloneTests(c.state.Tests)
	c.mu.Unlock()
	defer cancel()

	text, err := c.analyzer.Analyze(reqCtx, tests)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		metrics.AnalysisRequests.WithLabelValues("superseded").Inc()
		slog.Debug("discarding stale analysis", "generation", gen, "current", c.gen)
		return "", ErrSuperseded
	}
	// The caller went away (e.g. the browser closed the request). A deadline is
	// a failed request instead, and its fallback text is applied below.
	if errors.Is(ctx.Err(), context.Canceled) {
		c.gen++
		c.cancel = nil
		c.analyzing = false
		return "", fmt.Errorf("%w: %w", ErrSuperseded, ctx.Err())
	}
	c.cancel = nil
	c.analyzing = false
	c.analysis = text
	return text, err
}

// CancelAnalysis abandons any in-flight request (e.g. on navigation).
func (c *Controller) CancelAnalysis() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
		c.gen++
	}
	c.analyzing = false
}

// ClearAnalysis drops the stored summary and abandons any in-flight request.
func (c *Controller) ClearAnalysis() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discardAnalysisLocked()
}

func (c *Controller) discardAnalysisLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	c.analyzing = false
	c.analysis = ""
}
