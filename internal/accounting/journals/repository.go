package journals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian/internal/accounting/periods"
	"github.com/meridian-erp/meridian/internal/accounting/shared"
	"github.com/meridian-erp/meridian/internal/platform/db"
)

// Repository encapsulates DB operations for journals.
type Repository interface {
	List(ctx context.Context, orgID int64, limit, offset int) ([]JournalEntry, error)
	Count(ctx context.Context, orgID int64) (int, error)
	FindEntryNumberBySource(ctx context.Context, orgID int64, module string, ref uuid.UUID) (string, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a posting transaction.
type TxRepository interface {
	InsertJournalEntry(ctx context.Context, in PostingInput) (JournalEntry, error)
	InsertJournalLines(ctx context.Context, entryID int64, lines []PostingLineInput) error
	LinkSource(ctx context.Context, orgID int64, module string, ref uuid.UUID, entryID int64) error
	GetJournalWithLines(ctx context.Context, orgID, entryID int64) (JournalEntry, []JournalLine, error)
	UpdateJournalStatus(ctx context.Context, entryID int64, status JournalStatus) error
	ApplyBalanceDelta(ctx context.Context, accountID int64, debit, credit float64) error

	// Period operations needed within journal transactions.
	GetPeriodForUpdate(ctx context.Context, periodID int64) (periods.Period, error)
	GetNextOpenPeriodAfter(ctx context.Context, orgID int64, date time.Time) (periods.Period, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, org_id, number, entry_number, period_id, date, source_module, source_id, memo, total_debit, total_credit, posted_by, posted_at, status, created_at, updated_at`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.OrgID, &e.Number, &e.EntryNumber, &e.PeriodID, &e.Date, &e.SourceModule, &e.SourceID, &e.Memo, &e.TotalDebit, &e.TotalCredit, &e.PostedBy, &e.PostedAt, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *repository) List(ctx context.Context, orgID int64, limit, offset int) ([]JournalEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE org_id=$1 ORDER BY number DESC LIMIT $2 OFFSET $3`, orgID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) Count(ctx context.Context, orgID int64) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries WHERE org_id=$1`, orgID).Scan(&total)
	return total, err
}

// FindEntryNumberBySource returns the entry number already linked to a
// source document, or shared.ErrJournalNotFound when no link exists.
func (r *repository) FindEntryNumberBySource(ctx context.Context, orgID int64, module string, ref uuid.UUID) (string, error) {
	var entryNumber string
	err := r.db.QueryRow(ctx, `SELECT je.entry_number FROM source_links sl JOIN journal_entries je ON je.id = sl.je_id WHERE sl.org_id=$1 AND sl.module=$2 AND sl.ref_id=$3`, orgID, module, ref).Scan(&entryNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrJournalNotFound
		}
		return "", err
	}
	return entryNumber, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

// sourcePrefix derives the entry number prefix from the source module,
// e.g. "PAYROLL.RUN" -> "PAYROLL".
func sourcePrefix(module string) string {
	if idx := strings.Index(module, "."); idx > 0 {
		return module[:idx]
	}
	return module
}

// InsertJournalEntry persists a POSTED entry. The human entry number is
// derived from the same sequence as the numeric number, so it is unique
// without a timestamp collision window.
func (r *txRepository) InsertJournalEntry(ctx context.Context, in PostingInput) (JournalEntry, error) {
	debit, credit := in.Totals()
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (org_id, period_id, date, source_module, source_id, memo, total_debit, total_credit, posted_by, status, number, entry_number)
SELECT $1,$2,$3,$4,$5,$6,$7,$8,$9,'POSTED', seq.n, 'JE-' || $10 || '-' || lpad(seq.n::text, 6, '0')
FROM (SELECT nextval('journal_entries_number_seq') AS n) seq
RETURNING id, number, entry_number, posted_at, created_at, updated_at`,
		in.OrgID, in.PeriodID, in.Date, in.SourceModule, in.SourceID, in.Memo, toNumeric(debit), toNumeric(credit), nullInt(in.PostedBy), sourcePrefix(in.SourceModule))
	var entry JournalEntry
	entry.OrgID = in.OrgID
	entry.PeriodID = in.PeriodID
	entry.Date = in.Date
	entry.SourceModule = in.SourceModule
	entry.SourceID = in.SourceID
	entry.Memo = in.Memo
	entry.TotalDebit = debit
	entry.TotalCredit = credit
	entry.PostedBy = in.PostedBy
	entry.Status = JournalStatusPosted
	if err := row.Scan(&entry.ID, &entry.Number, &entry.EntryNumber, &entry.PostedAt, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertJournalLines(ctx context.Context, entryID int64, lines []PostingLineInput) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_lines (je_id, account_id, memo, debit, credit)
VALUES ($1,$2,$3,$4,$5)`, entryID, line.AccountID, line.Memo, toNumeric(line.Debit), toNumeric(line.Credit)); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) LinkSource(ctx context.Context, orgID int64, module string, ref uuid.UUID, entryID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO source_links (org_id, module, ref_id, je_id) VALUES ($1,$2,$3,$4)`, orgID, module, ref, entryID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrSourceConflict
		}
		return err
	}
	return nil
}

// ApplyBalanceDelta maintains the denormalized account balance. Debit-normal
// accounts grow with debits, credit-normal accounts with credits.
func (r *txRepository) ApplyBalanceDelta(ctx context.Context, accountID int64, debit, credit float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE accounts SET balance = balance + CASE WHEN type IN ('ASSET','EXPENSE') THEN $2::numeric - $3::numeric ELSE $3::numeric - $2::numeric END, updated_at=NOW() WHERE id=$1`,
		accountID, toNumeric(debit), toNumeric(credit))
	return err
}

func (r *txRepository) GetJournalWithLines(ctx context.Context, orgID, entryID int64) (JournalEntry, []JournalLine, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE org_id=$1 AND id=$2`, orgID, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, nil, shared.ErrJournalNotFound
		}
		return JournalEntry{}, nil, err
	}
	rows, err := r.tx.Query(ctx, `SELECT id, je_id, account_id, memo, debit, credit, created_at, updated_at
FROM journal_lines WHERE je_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return JournalEntry{}, nil, err
	}
	defer rows.Close()
	var lines []JournalLine
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.JournalID, &line.AccountID, &line.Memo, &line.Debit, &line.Credit, &line.CreatedAt, &line.UpdatedAt); err != nil {
			return JournalEntry{}, nil, err
		}
		lines = append(lines, line)
	}
	return entry, lines, rows.Err()
}

func (r *txRepository) UpdateJournalStatus(ctx context.Context, entryID int64, status JournalStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status=$2, updated_at=NOW() WHERE id=$1`, entryID, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrJournalNotFound
	}
	return nil
}

// GetPeriodForUpdate fetches the period with a row lock so concurrent
// postings serialise against period close.
func (r *txRepository) GetPeriodForUpdate(ctx context.Context, periodID int64) (periods.Period, error) {
	var p periods.Period
	err := r.tx.QueryRow(ctx, `SELECT id, org_id, code, start_date, end_date, status, closed_at, locked_by, created_at, updated_at
FROM periods WHERE id=$1 FOR UPDATE`, periodID).
		Scan(&p.ID, &p.OrgID, &p.Code, &p.StartDate, &p.EndDate, &p.Status, &p.ClosedAt, &p.LockedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.Period{}, shared.ErrInvalidPeriod
		}
		return periods.Period{}, err
	}
	return p, nil
}

func (r *txRepository) GetNextOpenPeriodAfter(ctx context.Context, orgID int64, date time.Time) (periods.Period, error) {
	var p periods.Period
	err := r.tx.QueryRow(ctx, `SELECT id, org_id, code, start_date, end_date, status, closed_at, locked_by, created_at, updated_at
FROM periods WHERE org_id=$1 AND status='OPEN' AND start_date >= $2 ORDER BY start_date ASC LIMIT 1`, orgID, date).
		Scan(&p.ID, &p.OrgID, &p.Code, &p.StartDate, &p.EndDate, &p.Status, &p.ClosedAt, &p.LockedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.Period{}, shared.ErrInvalidPeriod
		}
		return periods.Period{}, err
	}
	return p, nil
}

// Helpers
func nullInt(val int64) any {
	if val == 0 {
		return nil
	}
	return val
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
