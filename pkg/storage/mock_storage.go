package storage

import (
	"context"
	"sync"

	"github.com/ignatij/logreport/pkg/models"
)

// MockStore implements LogStore with in-memory records
type MockStore struct {
	mu         sync.Mutex
	records    []models.LogRecord
	fetchErr   error
	probe      string
	fetchCalls int
	lastLimit  int
}

func NewMockStore(records ...models.LogRecord) *MockStore {
	return &MockStore{records: records, probe: "Connected to Elasticsearch!"}
}

// FailWith makes every following FetchRecent return err.
func (m *MockStore) FailWith(err error) *MockStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchErr = err
	return m
}

// SetProbe sets the text returned by TestConnection.
func (m *MockStore) SetProbe(result string) *MockStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probe = result
	return m
}

func (m *MockStore) FetchRecent(ctx context.Context, limit int) ([]models.LogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCalls++
	m.lastLimit = limit
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	n := min(ClampLimit(limit), len(m.records))
	// Hand out a copy; callers sort in place.
	out := make([]models.LogRecord, n)
	copy(out, m.records[:n])
	return out, nil
}

func (m *MockStore) TestConnection(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.probe
}

// FetchCalls returns how many times FetchRecent was invoked.
func (m *MockStore) FetchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls
}

// LastLimit returns the limit passed to the latest FetchRecent.
func (m *MockStore) LastLimit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastLimit
}
