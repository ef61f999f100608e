package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRecorder appends entries to the audit_log table
type PostgresRecorder struct {
	DB execer
}

func NewPostgresRecorder(db execer) *PostgresRecorder {
	return &PostgresRecorder{DB: db}
}

const insertEntry = `-- name: InsertAuditEntry
INSERT INTO audit_log (action, success, ip_address, user_id, reference_id, details)
VALUES ($1, $2, $3, $4, $5, $6)
`

func (r *PostgresRecorder) Record(ctx context.Context, e Entry) error {
	_, err := r.DB.Exec(ctx, insertEntry, e.Action, e.Success, e.IPAddress, e.UserID, e.ReferenceID, e.Details)
	if err != nil {
		return fmt.Errorf("audit db error: %w", err)
	}

	return nil
}
