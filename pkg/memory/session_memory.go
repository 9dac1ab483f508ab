// Package memory keeps what each agent has seen and said during a run, so an
// agent with memory enabled can recall earlier turns in later tasks.
package memory

import (
	"strings"
	"sync"
	"time"
)

// Record is a single remembered turn.
type Record struct {
	SessionID string
	Role      string
	Content   string
	Metadata  map[string]string
	CreatedAt time.Time
}

// SessionMemory is a bounded short-term buffer per session.
type SessionMemory struct {
	mu            sync.RWMutex
	shortTerm     map[string][]Record
	shortTermSize int
	now           func() time.Time
}

// NewSessionMemory keeps at most shortTermSize records per session.
func NewSessionMemory(shortTermSize int) *SessionMemory {
	if shortTermSize <= 0 {
		shortTermSize = 8
	}
	return &SessionMemory{
		shortTerm:     make(map[string][]Record),
		shortTermSize: shortTermSize,
		now:           time.Now,
	}
}

// AddShortTerm appends a record, dropping the oldest once the buffer is full.
// Blank content is ignored.
func (sm *SessionMemory) AddShortTerm(sessionID, role, content string, metadata map[string]string) {
	if strings.TrimSpace(content) == "" {
		return
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()

	rec := Record{
		SessionID: sessionID,
		Role:      role,
		Content:   strings.TrimSpace(content),
		Metadata:  metadata,
		CreatedAt: sm.now().UTC(),
	}
	records := append(sm.shortTerm[sessionID], rec)
	if len(records) > sm.shortTermSize {
		records = records[len(records)-sm.shortTermSize:]
	}
	sm.shortTerm[sessionID] = records
}

// RetrieveContext returns up to limit of the most recent records, oldest first.
func (sm *SessionMemory) RetrieveContext(sessionID string, limit int) []Record {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	records := sm.shortTerm[sessionID]
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return append([]Record(nil), records...)
}
