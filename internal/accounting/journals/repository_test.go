package journals

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/meridian-erp/meridian/internal/accounting/shared"
)

// duplicateLinkTx fails every Exec with the unique-violation error pgx/v5
// surfaces when the source_links constraint fires.
type duplicateLinkTx struct {
	pgx.Tx
}

func (duplicateLinkTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "uq_source_links",
		Message:        "duplicate key value violates unique constraint \"uq_source_links\"",
	}
}

type brokenTx struct {
	pgx.Tx
}

func (brokenTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("connection reset")
}

func TestLinkSourceMapsDuplicateToSourceConflict(t *testing.T) {
	repo := &txRepository{tx: duplicateLinkTx{}}

	err := repo.LinkSource(context.Background(), 1, "PAYROLL.RUN", uuid.New(), 42)
	if !errors.Is(err, shared.ErrSourceConflict) {
		t.Fatalf("expected ErrSourceConflict for a duplicate source link, got %v", err)
	}
}

func TestLinkSourcePassesThroughOtherErrors(t *testing.T) {
	repo := &txRepository{tx: brokenTx{}}

	err := repo.LinkSource(context.Background(), 1, "PAYROLL.RUN", uuid.New(), 42)
	if err == nil || errors.Is(err, shared.ErrSourceConflict) {
		t.Fatalf("expected the raw error back, got %v", err)
	}
}
