package sheets

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/Veraticus/sheetsync/internal/service"
)

var (
	_ service.Spreadsheets = (*Client)(nil)
	_ service.Spreadsheets = (*MockClient)(nil)
)

// MockClient is an in-memory implementation of service.Spreadsheets for
// testing. It records every call in order.
type MockClient struct {
	// WriteFunc, when set, decides the result of the n-th WriteRange call (1-based).
	WriteFunc func(n int, a1Range string) error
	// ClearFunc, when set, decides the result of ClearRange.
	ClearFunc func(a1Range string) error
	// ReadValues is returned by ReadRange, keyed by range.
	ReadValues map[string][][]any
	Existing   []model.Tab
	Calls      []Call
	writes     int
	mu         sync.Mutex
}

// Call represents a single recorded call. Range holds the A1 range, tab
// title or sheet id the call was made with.
type Call struct {
	Op    string
	Range string
	Rows  [][]any
}

// NewMockClient creates a mock holding the given tabs.
func NewMockClient(tabs ...model.Tab) *MockClient {
	return &MockClient{Existing: tabs}
}

func (m *MockClient) record(c Call) {
	m.Calls = append(m.Calls, c)
}

// Tabs implements service.Spreadsheets.
func (m *MockClient) Tabs(_ context.Context, _ string) ([]model.Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Op: "tabs"})
	return append([]model.Tab(nil), m.Existing...), nil
}

// AddTabs implements service.Spreadsheets.
func (m *MockClient) AddTabs(_ context.Context, _ string, titles []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, title := range titles {
		m.record(Call{Op: "add", Range: title})
		m.Existing = append(m.Existing, model.Tab{Title: title, SheetID: int64(len(m.Existing) + 100)})
	}
	return nil
}

// DeleteTab implements service.Spreadsheets.
func (m *MockClient) DeleteTab(_ context.Context, _ string, sheetID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Op: "delete", Range: fmt.Sprint(sheetID)})
	return nil
}

// ReadRange implements service.Spreadsheets.
func (m *MockClient) ReadRange(_ context.Context, _ string, a1Range string) ([][]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Op: "read", Range: a1Range})
	return m.ReadValues[a1Range], nil
}

// ClearRange implements service.Spreadsheets.
func (m *MockClient) ClearRange(_ context.Context, _ string, a1Range string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Op: "clear", Range: a1Range})
	if m.ClearFunc != nil {
		return m.ClearFunc(a1Range)
	}
	return nil
}

// WriteRange implements service.Spreadsheets.
func (m *MockClient) WriteRange(_ context.Context, _ string, a1Range string, rows [][]any, _ model.ValueInputOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.record(Call{Op: "write", Range: a1Range, Rows: rows})
	if m.WriteFunc != nil {
		return m.WriteFunc(m.writes, a1Range)
	}
	return nil
}

// Ops returns "op range" strings for compact assertions.
func (m *MockClient) Ops() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Calls))
	for _, c := range m.Calls {
		out = append(out, c.Op+" "+c.Range)
	}
	return out
}

// CallsOf returns the recorded calls of one kind, in order.
func (m *MockClient) CallsOf(op string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Call
	for _, c := range m.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears all recorded calls.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.writes = 0
}
