package ledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads posted journal lines for aggregation.
type Repository interface {
	ListRows(ctx context.Context, q Query) ([]row, error)
	ListBalances(ctx context.Context, orgID int64, from, to *time.Time) ([]AccountBalance, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// ListRows returns posted lines in deterministic ledger order: transaction
// date first, ties broken by entry number then line id.
func (r *repository) ListRows(ctx context.Context, q Query) ([]row, error) {
	rows, err := r.db.Query(ctx, `SELECT je.id, je.entry_number, je.number, jl.id, je.date, je.source_module, jl.memo, a.id, a.code, a.name, jl.debit, jl.credit
FROM journal_lines jl
JOIN journal_entries je ON je.id = jl.je_id
JOIN accounts a ON a.id = jl.account_id
WHERE je.org_id = $1
  AND je.status = 'POSTED'
  AND ($2::bigint IS NULL OR jl.account_id = $2)
  AND ($3::date IS NULL OR je.date >= $3)
  AND ($4::date IS NULL OR je.date <= $4)
ORDER BY je.date ASC, je.number ASC, jl.id ASC`,
		q.OrgID, q.AccountID, q.From, q.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []row
	for rows.Next() {
		var l row
		if err := rows.Scan(&l.EntryID, &l.EntryNumber, &l.Number, &l.LineID, &l.Date, &l.SourceModule, &l.Memo, &l.AccountID, &l.AccountCode, &l.AccountName, &l.Debit, &l.Credit); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListBalances fetches every active account with its journal lines and
// buckets them into opening and in-range movement. Only lines of POSTED
// entries count; voided entries contribute nothing.
func (r *repository) ListBalances(ctx context.Context, orgID int64, from, to *time.Time) ([]AccountBalance, error) {
	rows, err := r.db.Query(ctx, `SELECT a.code, a.name, a.type, je.date, je.status, COALESCE(jl.debit, 0), COALESCE(jl.credit, 0)
FROM accounts a
LEFT JOIN journal_lines jl ON jl.account_id = a.id
LEFT JOIN journal_entries je ON je.id = jl.je_id
WHERE a.org_id = $1 AND a.is_active
ORDER BY a.code, je.date, jl.id`,
		orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var raw []balanceRow
	for rows.Next() {
		var b balanceRow
		if err := rows.Scan(&b.Code, &b.Name, &b.Type, &b.Date, &b.Status, &b.Debit, &b.Credit); err != nil {
			return nil, err
		}
		raw = append(raw, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bucketBalances(raw, from, to), nil
}

const statusPosted = "POSTED"

// balanceRow is one journal line joined with its entry, or a bare account
// row when the account has no lines.
type balanceRow struct {
	Code   string
	Name   string
	Type   string
	Date   *time.Time
	Status *string
	Debit  float64
	Credit float64
}

// bucketBalances folds line rows into per-account balances. Opening holds
// POSTED movement before the range start (when one is given); Debit/Credit
// hold POSTED movement inside the range. Every account appears in the
// output, active-but-idle ones with zeroes.
func bucketBalances(rows []balanceRow, from, to *time.Time) []AccountBalance {
	index := make(map[string]int)
	var out []AccountBalance
	for _, r := range rows {
		i, ok := index[r.Code]
		if !ok {
			i = len(out)
			index[r.Code] = i
			out = append(out, AccountBalance{Code: r.Code, Name: r.Name, Type: r.Type})
		}
		if r.Status == nil || *r.Status != statusPosted || r.Date == nil {
			continue
		}
		switch {
		case from != nil && r.Date.Before(*from):
			out[i].Opening += r.Debit - r.Credit
		case to != nil && r.Date.After(*to):
		default:
			out[i].Debit += r.Debit
			out[i].Credit += r.Credit
		}
	}
	return out
}
