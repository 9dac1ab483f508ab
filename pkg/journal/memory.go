package journal

import (
	"context"
	"fmt"
	"sync"

	"github.com/Protocol-Lattice/funeral-research/pkg/crew"
)

// Memory keeps runs in process memory.
type Memory struct {
	mu   sync.RWMutex
	runs map[string][]Entry
}

var _ Journal = (*Memory)(nil)

// NewMemory returns an empty in-memory journal.
func NewMemory() *Memory {
	return &Memory{runs: make(map[string][]Entry)}
}

func (m *Memory) Begin(_ context.Context, runID string) error {
	if err := requireRunID(runID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[runID]; ok {
		return fmt.Errorf("journal: run %s already started", runID)
	}
	m.runs[runID] = []Entry{}
	return nil
}

func (m *Memory) Append(_ context.Context, runID string, out crew.TaskOutput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	m.runs[runID] = append(entries, Entry{RunID: runID, Seq: len(entries), TaskOutput: out})
	return nil
}

func (m *Memory) Entries(_ context.Context, runID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries, ok := m.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	return append([]Entry(nil), entries...), nil
}

func (m *Memory) Close(context.Context) error { return nil }
