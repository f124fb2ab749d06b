package notices

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of NoticesRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Notice
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Notice)}
}

// Create stores a notice.
func (r *MemoryRepo) Create(ctx context.Context, n Notice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[n.ID] = n
	return nil
}

// GetByID returns a notice by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Notice, error) {
	if err := ctx.Err(); err != nil {
		return Notice{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.data[id]
	if !ok {
		return Notice{}, ErrNotFound
	}
	return n, nil
}

// GetByIDs returns the notices matching ids, preserving the input order.
func (r *MemoryRepo) GetByIDs(ctx context.Context, ids []string) ([]Notice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Notice, 0, len(ids))
	for _, id := range ids {
		if n, ok := r.data[id]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

// List returns notices ordered by creation time, newest first.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Notice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	all := make([]Notice, 0, len(r.data))
	for _, n := range r.data {
		all = append(all, n)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
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
