package notices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements NoticesRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const noticeColumns = "id, context, manual_label, extra_info, created_at, updated_at"

// Create inserts a new notice.
func (r *PGRepo) Create(ctx context.Context, n Notice) error {
	const query = `
INSERT INTO notices (
    id,
    context,
    manual_label,
    extra_info,
    created_at
) VALUES ($1, $2, $3, $4, $5)`

	var manualLabel sql.NullString
	if n.ManualLabel != nil {
		manualLabel = sql.NullString{String: *n.ManualLabel, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		n.ID,
		n.Context,
		manualLabel,
		n.ExtraInfo,
		n.CreatedAt,
	)
	return err
}

// GetByID returns a notice by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Notice, error) {
	query := fmt.Sprintf(`SELECT %s FROM notices WHERE id = $1`, noticeColumns)

	row := r.DB.QueryRowContext(ctx, query, id)
	n, err := scanNotice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Notice{}, ErrNotFound
		}
		return Notice{}, err
	}
	return n, nil
}

// GetByIDs returns the notices matching ids, preserving the input order.
// IDs with no matching row are skipped; the caller decides whether a
// partial result is acceptable.
func (r *PGRepo) GetByIDs(ctx context.Context, ids []string) ([]Notice, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT %s FROM notices WHERE id IN (%s)`,
		noticeColumns, strings.Join(placeholders, ", "))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]Notice, len(ids))
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, err
		}
		byID[n.ID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Notice, 0, len(byID))
	for _, id := range ids {
		if n, ok := byID[id]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

// List returns notices ordered by creation time, newest first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Notice, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM notices
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`, noticeColumns)

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notice
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotice(row rowScanner) (Notice, error) {
	var n Notice
	var manualLabel sql.NullString
	var updatedAt sql.NullTime
	err := row.Scan(
		&n.ID,
		&n.Context,
		&manualLabel,
		&n.ExtraInfo,
		&n.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return Notice{}, err
	}
	if manualLabel.Valid {
		s := manualLabel.String
		n.ManualLabel = &s
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		n.UpdatedAt = &t
	}
	return n, nil
}
