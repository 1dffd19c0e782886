package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IntegrityMetrics counts detected ledger inconsistencies.
type IntegrityMetrics interface {
	ObserveIntegrityFailures(count int)
}

// IntegrityChecker verifies two ledger invariants: every posted entry
// balances, and every account's denormalized balance matches the signed sum
// of its posted lines.
type IntegrityChecker struct {
	db      *pgxpool.Pool
	logger  *slog.Logger
	metrics IntegrityMetrics
}

func NewIntegrityChecker(db *pgxpool.Pool, logger *slog.Logger, metrics IntegrityMetrics) *IntegrityChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntegrityChecker{db: db, logger: logger, metrics: metrics}
}

// Handle processes TaskGLIntegrity tasks.
func (c *IntegrityChecker) Handle(ctx context.Context, _ *asynq.Task) error {
	_, err := c.Run(ctx)
	return err
}

// Run executes the check and returns the number of violations found.
func (c *IntegrityChecker) Run(ctx context.Context) (int, error) {
	var unbalanced int
	err := c.db.QueryRow(ctx, `
SELECT COUNT(*) FROM (
  SELECT je.id
  FROM journal_entries je
  JOIN journal_lines jl ON jl.je_id = je.id
  WHERE je.status = 'POSTED'
  GROUP BY je.id
  HAVING round(SUM(jl.debit)::numeric, 2) <> round(SUM(jl.credit)::numeric, 2)
) x`).Scan(&unbalanced)
	if err != nil {
		return 0, err
	}

	var drifted int
	err = c.db.QueryRow(ctx, `
SELECT COUNT(*) FROM accounts a
WHERE round(a.balance::numeric, 2) <> round((
  SELECT COALESCE(SUM(
    CASE WHEN a.type IN ('ASSET','EXPENSE') THEN jl.debit - jl.credit
         ELSE jl.credit - jl.debit END), 0)
  FROM journal_lines jl
  JOIN journal_entries je ON je.id = jl.je_id
  WHERE jl.account_id = a.id AND je.status = 'POSTED'
)::numeric, 2)`).Scan(&drifted)
	if err != nil {
		return 0, err
	}

	total := unbalanced + drifted
	if c.metrics != nil {
		c.metrics.ObserveIntegrityFailures(total)
	}
	if total > 0 {
		c.logger.Error("ledger integrity violations detected",
			slog.Int("unbalanced_entries", unbalanced),
			slog.Int("drifted_accounts", drifted))
	} else {
		c.logger.Info("ledger integrity check clean")
	}
	return total, nil
}
