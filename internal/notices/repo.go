package notices

import "context"

// NoticesRepo defines persistence operations for notices.
type NoticesRepo interface {
	Create(ctx context.Context, n Notice) error
	GetByID(ctx context.Context, id string) (Notice, error)
	GetByIDs(ctx context.Context, ids []string) ([]Notice, error)
	List(ctx context.Context, limit, offset int) ([]Notice, error)
}
