package sessions

import "sync"

// Registry is the process-wide table of active sessions. It is the single
// source of truth for "is this run still wanted": the orchestrator reads
// the cancellation flag at batch boundaries, HTTP handlers write it.
//
// One mutex guards the whole table so a session is always either fully
// present or fully absent.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*registryEntry
}

type registryEntry struct {
	total     int
	processed int
	cancelled bool
}

// ProgressSnapshot is a point-in-time view of an active session, used for
// UI polling. Counters here are best-effort; persisted statistics are
// authoritative.
type ProgressSnapshot struct {
	Processed int
	Total     int
	Cancelled bool
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*registryEntry)}
}

// Register creates an entry for id. Registering an id twice overwrites the
// previous entry; ids are caller-generated and expected unique.
func (r *Registry) Register(id string, totalItems int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &registryEntry{total: totalItems}
}

// Cancel marks the session for cancellation. Returns false when the
// session is not registered, meaning it already finished or never started.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[id]
	if !ok {
		return false
	}
	entry.cancelled = true
	return true
}

// IsCancelled reports the cancellation flag. Unknown ids read as false so
// a finished session is never mistaken for still cancellable.
func (r *Registry) IsCancelled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[id]
	if !ok {
		return false
	}
	return entry.cancelled
}

// UpdateProgress records the processed count for polling.
func (r *Registry) UpdateProgress(id string, processed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.sessions[id]; ok {
		entry.processed = processed
	}
}

// Progress returns a snapshot of an active session.
func (r *Registry) Progress(id string) (ProgressSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[id]
	if !ok {
		return ProgressSnapshot{}, false
	}
	return ProgressSnapshot{
		Processed: entry.processed,
		Total:     entry.total,
		Cancelled: entry.cancelled,
	}, true
}

// Unregister removes the entry. Idempotent.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}
