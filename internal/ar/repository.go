package ar

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort defines data access for receivable documents.
type RepositoryPort interface {
	CreateReceipt(ctx context.Context, rec SalesReceipt) (*SalesReceipt, error)
	GetReceipt(ctx context.Context, orgID, id int64) (*SalesReceipt, error)
	ListReceipts(ctx context.Context, orgID int64) ([]SalesReceipt, error)
	UpdateReceiptStatus(ctx context.Context, orgID, id int64, from, to DocStatus) error

	CreatePayment(ctx context.Context, p Payment) (*Payment, error)
	GetPayment(ctx context.Context, orgID, id int64) (*Payment, error)
	UpdatePaymentStatus(ctx context.Context, orgID, id int64, from, to DocStatus) error

	CreateCreditNote(ctx context.Context, n CreditNote) (*CreditNote, error)
	GetCreditNote(ctx context.Context, orgID, id int64) (*CreditNote, error)
	UpdateCreditNoteStatus(ctx context.Context, orgID, id int64, from, to DocStatus) error

	ListOutstanding(ctx context.Context, orgID int64) ([]OutstandingReceipt, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryPort {
	return &repository{db: db}
}

const receiptColumns = `id, org_id, number, customer_id, doc_date, due_date, total, status, cash_account_id, revenue_account_id, created_by, created_at, updated_at`

func scanReceipt(row pgx.Row) (*SalesReceipt, error) {
	var rec SalesReceipt
	err := row.Scan(&rec.ID, &rec.OrgID, &rec.Number, &rec.CustomerID, &rec.Date, &rec.DueDate, &rec.Total, &rec.Status, &rec.CashAccountID, &rec.RevenueAccountID, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repository) CreateReceipt(ctx context.Context, rec SalesReceipt) (*SalesReceipt, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO sales_receipts (org_id, number, customer_id, doc_date, due_date, total, status, cash_account_id, revenue_account_id, created_by)
SELECT $1, 'SR-' || lpad(seq.n::text, 6, '0'), $2, $3, $4, $5, $6, $7, $8, $9
FROM (SELECT nextval('sales_receipts_number_seq') AS n) seq
RETURNING `+receiptColumns,
		rec.OrgID, rec.CustomerID, rec.Date, rec.DueDate, rec.Total, rec.Status, rec.CashAccountID, rec.RevenueAccountID, rec.CreatedBy)
	return scanReceipt(row)
}

func (r *repository) GetReceipt(ctx context.Context, orgID, id int64) (*SalesReceipt, error) {
	rec, err := scanReceipt(r.db.QueryRow(ctx, `SELECT `+receiptColumns+` FROM sales_receipts WHERE org_id=$1 AND id=$2`, orgID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReceiptNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (r *repository) ListReceipts(ctx context.Context, orgID int64) ([]SalesReceipt, error) {
	rows, err := r.db.Query(ctx, `SELECT `+receiptColumns+` FROM sales_receipts WHERE org_id=$1 ORDER BY id DESC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SalesReceipt
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *repository) UpdateReceiptStatus(ctx context.Context, orgID, id int64, from, to DocStatus) error {
	return r.updateStatus(ctx, "sales_receipts", ErrReceiptNotFound, orgID, id, from, to)
}

const paymentColumns = `id, org_id, number, receipt_id, customer_id, doc_date, amount, status, cash_account_id, receivable_account_id, created_by, created_at, updated_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.OrgID, &p.Number, &p.ReceiptID, &p.CustomerID, &p.Date, &p.Amount, &p.Status, &p.CashAccountID, &p.ReceivableAccountID, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) CreatePayment(ctx context.Context, p Payment) (*Payment, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO ar_payments (org_id, number, receipt_id, customer_id, doc_date, amount, status, cash_account_id, receivable_account_id, created_by)
SELECT $1, 'PAY-' || lpad(seq.n::text, 6, '0'), $2, $3, $4, $5, $6, $7, $8, $9
FROM (SELECT nextval('ar_payments_number_seq') AS n) seq
RETURNING `+paymentColumns,
		p.OrgID, p.ReceiptID, p.CustomerID, p.Date, p.Amount, p.Status, p.CashAccountID, p.ReceivableAccountID, p.CreatedBy)
	return scanPayment(row)
}

func (r *repository) GetPayment(ctx context.Context, orgID, id int64) (*Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM ar_payments WHERE org_id=$1 AND id=$2`, orgID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, orgID, id int64, from, to DocStatus) error {
	return r.updateStatus(ctx, "ar_payments", ErrPaymentNotFound, orgID, id, from, to)
}

const creditNoteColumns = `id, org_id, number, receipt_id, customer_id, doc_date, amount, reason, status, revenue_account_id, receivable_account_id, created_by, created_at, updated_at`

func scanCreditNote(row pgx.Row) (*CreditNote, error) {
	var n CreditNote
	err := row.Scan(&n.ID, &n.OrgID, &n.Number, &n.ReceiptID, &n.CustomerID, &n.Date, &n.Amount, &n.Reason, &n.Status, &n.RevenueAccountID, &n.ReceivableAccountID, &n.CreatedBy, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *repository) CreateCreditNote(ctx context.Context, n CreditNote) (*CreditNote, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO ar_credit_notes (org_id, number, receipt_id, customer_id, doc_date, amount, reason, status, revenue_account_id, receivable_account_id, created_by)
SELECT $1, 'CN-' || lpad(seq.n::text, 6, '0'), $2, $3, $4, $5, $6, $7, $8, $9, $10
FROM (SELECT nextval('ar_credit_notes_number_seq') AS n) seq
RETURNING `+creditNoteColumns,
		n.OrgID, n.ReceiptID, n.CustomerID, n.Date, n.Amount, n.Reason, n.Status, n.RevenueAccountID, n.ReceivableAccountID, n.CreatedBy)
	return scanCreditNote(row)
}

func (r *repository) GetCreditNote(ctx context.Context, orgID, id int64) (*CreditNote, error) {
	n, err := scanCreditNote(r.db.QueryRow(ctx, `SELECT `+creditNoteColumns+` FROM ar_credit_notes WHERE org_id=$1 AND id=$2`, orgID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCreditNoteNotFound
		}
		return nil, err
	}
	return n, nil
}

func (r *repository) UpdateCreditNoteStatus(ctx context.Context, orgID, id int64, from, to DocStatus) error {
	return r.updateStatus(ctx, "ar_credit_notes", ErrCreditNoteNotFound, orgID, id, from, to)
}

func (r *repository) updateStatus(ctx context.Context, table string, notFound error, orgID, id int64, from, to DocStatus) error {
	cmd, err := r.db.Exec(ctx, `UPDATE `+table+` SET status=$4, updated_at=NOW() WHERE org_id=$1 AND id=$2 AND status=$3`, orgID, id, from, to)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

// ListOutstanding returns non-void receipts with their unsettled balance:
// total minus posted payments and credit notes against the receipt.
func (r *repository) ListOutstanding(ctx context.Context, orgID int64) ([]OutstandingReceipt, error) {
	rows, err := r.db.Query(ctx, `
SELECT `+prefixColumns("sr", receiptColumns)+`,
       sr.total
       - COALESCE((SELECT SUM(p.amount) FROM ar_payments p WHERE p.receipt_id = sr.id AND p.status = 'POSTED'), 0)
       - COALESCE((SELECT SUM(cn.amount) FROM ar_credit_notes cn WHERE cn.receipt_id = sr.id AND cn.status = 'POSTED'), 0) AS outstanding
FROM sales_receipts sr
WHERE sr.org_id = $1 AND sr.status IN ('FINAL', 'POSTED')
ORDER BY sr.due_date ASC, sr.id ASC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OutstandingReceipt
	for rows.Next() {
		var o OutstandingReceipt
		rec := &o.Receipt
		if err := rows.Scan(&rec.ID, &rec.OrgID, &rec.Number, &rec.CustomerID, &rec.Date, &rec.DueDate, &rec.Total, &rec.Status, &rec.CashAccountID, &rec.RevenueAccountID, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedAt, &o.Outstanding); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
