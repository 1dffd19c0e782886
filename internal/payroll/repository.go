package payroll

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort defines data access methods for payroll runs.
type RepositoryPort interface {
	Create(ctx context.Context, input RunInput) (*Run, error)
	Get(ctx context.Context, orgID, id int64) (*Run, error)
	List(ctx context.Context, orgID int64) ([]Run, error)
	UpdateStatus(ctx context.Context, orgID, id int64, from, to RunStatus) error
	ListCompletedUnposted(ctx context.Context, limit int) ([]Run, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryPort {
	return &repository{db: db}
}

const runColumns = `id, org_id, run_number, pay_date, total_gross_pay, total_deductions, total_net_pay, status, expense_account_id, tax_account_id, net_account_id, created_by, created_at, updated_at`

func scanRun(row pgx.Row) (*Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.OrgID, &r.RunNumber, &r.PayDate, &r.TotalGrossPay, &r.TotalDeductions, &r.TotalNetPay, &r.Status, &r.ExpenseAccountID, &r.TaxAccountID, &r.NetAccountID, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *repository) Create(ctx context.Context, input RunInput) (*Run, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO payroll_runs (org_id, run_number, pay_date, total_gross_pay, total_deductions, total_net_pay, status, expense_account_id, tax_account_id, net_account_id, created_by)
SELECT $1, 'RUN-' || lpad(seq.n::text, 6, '0'), $2, $3, $4, $5, 'DRAFT', $6, $7, $8, $9
FROM (SELECT nextval('payroll_runs_number_seq') AS n) seq
RETURNING `+runColumns,
		input.OrgID, input.PayDate, input.TotalGrossPay, input.TotalDeductions, input.TotalNetPay, input.ExpenseAccountID, input.TaxAccountID, input.NetAccountID, input.CreatedBy)
	return scanRun(row)
}

func (r *repository) Get(ctx context.Context, orgID, id int64) (*Run, error) {
	run, err := scanRun(r.db.QueryRow(ctx, `SELECT `+runColumns+` FROM payroll_runs WHERE org_id=$1 AND id=$2`, orgID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return run, nil
}

func (r *repository) List(ctx context.Context, orgID int64) ([]Run, error) {
	rows, err := r.db.Query(ctx, `SELECT `+runColumns+` FROM payroll_runs WHERE org_id=$1 ORDER BY id DESC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// UpdateStatus transitions the run only when it still holds the expected
// status, so concurrent posters cannot double-advance it.
func (r *repository) UpdateStatus(ctx context.Context, orgID, id int64, from, to RunStatus) error {
	cmd, err := r.db.Exec(ctx, `UPDATE payroll_runs SET status=$4, updated_at=NOW() WHERE org_id=$1 AND id=$2 AND status=$3`, orgID, id, from, to)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRunNotCompleted
	}
	return nil
}

// ListCompletedUnposted feeds the recovery sweep: runs that finished but
// never reached the ledger.
func (r *repository) ListCompletedUnposted(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `SELECT `+runColumns+` FROM payroll_runs WHERE status='COMPLETED' ORDER BY updated_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}
