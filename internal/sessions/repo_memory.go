package sessions

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]Session
	results  map[string][]Result
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		sessions: make(map[string]Session),
		results:  make(map[string][]Result),
	}
}

// CreateSession stores the initial session record.
func (r *MemoryRepo) CreateSession(ctx context.Context, s Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return nil
}

// AppendResults stores a completed batch of results.
func (r *MemoryRepo) AppendResults(ctx context.Context, results []Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range results {
		r.results[res.SessionID] = append(r.results[res.SessionID], res)
	}
	return nil
}

// UpdateCounters writes running progress counters.
func (r *MemoryRepo) UpdateCounters(ctx context.Context, sessionID string, processed, correct, errorCount int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	s.ProcessedCount = processed
	s.CorrectCount = correct
	s.ErrorCount = errorCount
	r.sessions[sessionID] = s
	return nil
}

// FinalizeSession applies the terminal statistics.
func (r *MemoryRepo) FinalizeSession(ctx context.Context, sessionID string, final FinalStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	if s.Status.Terminal() {
		return nil
	}
	s.Status = final.Status
	s.ProcessedCount = final.Processed
	s.CorrectCount = final.Correct
	s.ErrorCount = final.Errors
	s.AccuracyPct = final.AccuracyPct
	s.TotalTimeSec = final.TotalTimeSec
	s.TotalCost = final.TotalCost
	s.TotalTokens = final.TotalTokens
	ended := final.EndedAt
	s.EndedAt = &ended
	r.sessions[sessionID] = s
	return nil
}

// GetSession returns a session by ID.
func (r *MemoryRepo) GetSession(ctx context.Context, sessionID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

// ListSessions returns sessions ordered by start time, newest first.
func (r *MemoryRepo) ListSessions(ctx context.Context, limit, offset int) ([]Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	all := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].StartedAt.After(all[j].StartedAt)
	})

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit >= 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// ListResults returns the stored results of a session in append order.
func (r *MemoryRepo) ListResults(ctx context.Context, sessionID string) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Result, len(r.results[sessionID]))
	copy(out, r.results[sessionID])
	return out, nil
}
