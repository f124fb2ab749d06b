package prompts

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of PromptsRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Prompt
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Prompt)}
}

// Create stores a prompt template.
func (r *MemoryRepo) Create(ctx context.Context, p Prompt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[p.ID] = p
	return nil
}

// GetByID returns a prompt by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Prompt, error) {
	if err := ctx.Err(); err != nil {
		return Prompt{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.data[id]
	if !ok {
		return Prompt{}, ErrNotFound
	}
	return p, nil
}

// List returns prompts ordered by creation time, newest first.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Prompt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	all := make([]Prompt, 0, len(r.data))
	for _, p := range r.data {
		all = append(all, p)
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
