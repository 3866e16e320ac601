package workflow

import (
	"errors"
	"sync"
	"time"

	"github.com/ronappleton/campaign-engine/internal/campaign"
)

var ErrNotFound = errors.New("not found")

// RunRecord is the persisted view of one campaign run. State is the full
// pipeline state; during execution it is a snapshot, after the run it is
// final.
type RunRecord struct {
	ID        string          `json:"id"`
	Status    campaign.Status `json:"status"`
	Brief     campaign.Brief  `json:"campaign_brief"`
	State     *campaign.State `json:"state,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Store interface {
	CreateRun(r RunRecord) RunRecord
	UpdateRun(r RunRecord)
	DeleteRun(id string)
	GetRun(id string) (RunRecord, error)
	ListRuns() []RunRecord
	AppendInteraction(runID string, in campaign.Interaction)
	ListInteractions(runID string) []campaign.Interaction
}

type MemoryStore struct {
	mu           sync.RWMutex
	runs         map[string]RunRecord
	interactions map[string][]campaign.Interaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:         map[string]RunRecord{},
		interactions: map[string][]campaign.Interaction{},
	}
}

func (s *MemoryStore) CreateRun(r RunRecord) RunRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = r
	return r
}

func (s *MemoryStore) UpdateRun(r RunRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.UpdatedAt = time.Now().UTC()
	s.runs[r.ID] = r
}

func (s *MemoryStore) DeleteRun(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, id)
	delete(s.interactions, id)
}

func (s *MemoryStore) GetRun(id string) (RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return RunRecord{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) ListRuns() []RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RunRecord, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	return out
}

func (s *MemoryStore) AppendInteraction(runID string, in campaign.Interaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions[runID] = append(s.interactions[runID], in)
}

func (s *MemoryStore) ListInteractions(runID string) []campaign.Interaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]campaign.Interaction(nil), s.interactions[runID]...)
}
