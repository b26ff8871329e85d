package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/xavierca1/lead-inbox/internal/entity"
)

const uniqueViolation = "23505"

// Schema is applied by EnsureSchema. Receipts hold no contact data.
const Schema = `
CREATE TABLE IF NOT EXISTS submission_receipts (
	issue_number INTEGER PRIMARY KEY,
	issue_url    TEXT NOT NULL,
	site         TEXT NOT NULL,
	lead_type    TEXT NOT NULL,
	requested_at TIMESTAMPTZ NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type ReceiptRepository struct {
	DB *sql.DB
}

func NewReceiptRepository(db *sql.DB) *ReceiptRepository {
	return &ReceiptRepository{DB: db}
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create submission_receipts: %w", err)
	}
	return nil
}

// Record is insert-only. A second receipt for the same issue is ignored.
func (r *ReceiptRepository) Record(ctx context.Context, rc *entity.SubmissionReceipt) error {
	query := `
		INSERT INTO submission_receipts (issue_number, issue_url, site, lead_type, requested_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.DB.ExecContext(ctx, query,
		rc.IssueNumber,
		rc.IssueURL,
		rc.Site,
		string(rc.Type),
		rc.RequestedAt.UTC(),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil
		}
		return fmt.Errorf("insert receipt #%d: %w", rc.IssueNumber, err)
	}
	return nil
}
