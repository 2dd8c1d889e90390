package testutil

import (
	"sync"
	"time"

	"github.com/vk/stepgrid/internal/catalog"
)

// ExecutionRecord holds the start and end times of a single step.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two records ran at the same time.
func (r ExecutionRecord) Overlaps(o ExecutionRecord) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// MockSleeperModule is a shared step library for concurrency tests. It
// records the execution time of every sleep step and the peak number of
// sleeps in flight.
type MockSleeperModule struct {
	sleepDuration time.Duration

	mu             sync.Mutex
	executionTimes map[string]ExecutionRecord
	inFlight       int
	peak           int
}

// NewMockSleeperModule creates a new sleeper module for testing.
func NewMockSleeperModule(sleep time.Duration) *MockSleeperModule {
	return &MockSleeperModule{
		sleepDuration:  sleep,
		executionTimes: make(map[string]ExecutionRecord),
	}
}

// RegisterSteps registers the sleep step. Its argument is the record id.
func (m *MockSleeperModule) RegisterSteps(r *catalog.Registrar) {
	r.Step(`^I sleep as "([^"]*)"$`, m.sleep)
}

func (m *MockSleeperModule) sleep(id string) {
	m.mu.Lock()
	m.inFlight++
	m.peak = max(m.peak, m.inFlight)
	m.mu.Unlock()

	start := time.Now()
	time.Sleep(m.sleepDuration)
	end := time.Now()

	m.mu.Lock()
	m.inFlight--
	m.executionTimes[id] = ExecutionRecord{Start: start, End: end}
	m.mu.Unlock()
}

// Record returns the execution record for id.
func (m *MockSleeperModule) Record(id string) (ExecutionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.executionTimes[id]
	return r, ok
}

// Peak returns the highest number of concurrent sleeps observed.
func (m *MockSleeperModule) Peak() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}
