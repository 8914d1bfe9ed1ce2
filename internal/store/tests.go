package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/medrank/tracker/internal/model"
)

// TestsKey is the key holding the serialized test sequence.
const TestsKey = "medrank_tests_data"

// ErrCorrupt is returned when the persisted test sequence cannot be decoded.
var ErrCorrupt = errors.New("persisted test data is malformed")

// LoadTests reads the persisted test sequence. A missing key yields an empty
// sequence. Malformed data yields ErrCorrupt and no tests.
func LoadTests(ctx context.Context, b Blob) ([]model.GrandTest, error) {
	raw, ok, err := b.Get(ctx, TestsKey)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", TestsKey, err)
	}
	if !ok {
		return nil, nil
	}
	return DecodeTests([]byte(raw))
}

// DecodeTests parses a serialized test sequence in the persisted format.
// Malformed input yields ErrCorrupt.
func DecodeTests(data []byte) ([]model.GrandTest, error) {
	var tests []model.GrandTest
	if err := json.Unmarshal(data, &tests); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	for i := range tests {
		if tests[i].Scores == nil {
			tests[i].Scores = map[string]model.SubjectScore{}
		}
	}
	return tests, nil
}

// SaveTests writes the whole sequence. An empty sequence removes the key.
func SaveTests(ctx context.Context, b Blob, tests []model.GrandTest) error {
	if len(tests) == 0 {
		if err := b.Delete(ctx, TestsKey); err != nil {
			return fmt.Errorf("delete %s: %w", TestsKey, err)
		}
		return nil
	}
	data, err := json.Marshal(tests)
	if err != nil {
		return fmt.Errorf("marshal tests: %w", err)
	}
	if err := b.Set(ctx, TestsKey, string(data)); err != nil {
		return fmt.Errorf("write %s: %w", TestsKey, err)
	}
	return nil
}
