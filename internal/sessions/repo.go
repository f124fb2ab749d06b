package sessions

import "context"

// Repo defines persistence for sessions and their per-item results. The
// orchestrator only writes during a run; reads serve the HTTP surface.
type Repo interface {
	CreateSession(ctx context.Context, s Session) error
	AppendResults(ctx context.Context, results []Result) error
	UpdateCounters(ctx context.Context, sessionID string, processed, correct, errorCount int) error
	FinalizeSession(ctx context.Context, sessionID string, final FinalStats) error
	GetSession(ctx context.Context, sessionID string) (Session, error)
	ListSessions(ctx context.Context, limit, offset int) ([]Session, error)
	ListResults(ctx context.Context, sessionID string) ([]Result, error)
}
