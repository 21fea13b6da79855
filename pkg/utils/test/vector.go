package testutils

import (
	"context"
	"fmt"
	"sort"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/vector"
)

// MockVectorDriver is a test vector driver
type MockVectorDriver struct {
	// Entries accumulates everything passed to Upsert, keyed by ID.
	Entries map[string]vector.Entry

	// Results is returned by Query, filtered by the tables argument.
	Results []vector.QueryResult

	// FailUpsert causes Upsert to return an error.
	FailUpsert bool

	// FailQuery causes Query to return an error.
	FailQuery bool
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Entries: make(map[string]vector.Entry),
	}
}

func (m *MockVectorDriver) Upsert(_ context.Context, entries []vector.Entry) error {
	if m.FailUpsert {
		return fmt.Errorf("mock upsert failure")
	}
	for _, entry := range entries {
		m.Entries[entry.ID] = entry
	}
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, _ []float32, topK int, tables []string) ([]vector.QueryResult, error) {
	if m.FailQuery {
		return nil, fmt.Errorf("mock query failure")
	}

	wanted := map[string]bool{}
	for _, t := range tables {
		wanted[t] = true
	}

	var results []vector.QueryResult
	for _, r := range m.Results {
		if len(wanted) > 0 && !wanted[r.Metadata["source_table"]] {
			continue
		}
		results = append(results, r)
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

func (m *MockVectorDriver) All(_ context.Context) ([]vector.Entry, error) {
	entries := make([]vector.Entry, 0, len(m.Entries))
	for _, entry := range m.Entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func (m *MockVectorDriver) IDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.Entries))
	for id := range m.Entries {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MockVectorDriver) Count(_ context.Context) (int, error) {
	return len(m.Entries), nil
}

func (m *MockVectorDriver) Delete(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(m.Entries, id)
	}
	return nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}

// Ensure MockVectorDriver implements vector.Driver
var _ vector.Driver = (*MockVectorDriver)(nil)
