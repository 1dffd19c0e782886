package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian/internal/accounting/shared"
)

// Repository encapsulates DB operations for the chart of accounts.
type Repository interface {
	List(ctx context.Context, orgID int64) ([]Account, error)
	Get(ctx context.Context, orgID, id int64) (Account, error)
	Create(ctx context.Context, account Account) (Account, error)
	Update(ctx context.Context, account Account) (Account, error)
	Deactivate(ctx context.Context, orgID, id int64) error
	ListCodesForType(ctx context.Context, orgID int64, t AccountType) ([]string, error)
	FindByName(ctx context.Context, orgID int64, name string) (Account, error)
	GetDefault(ctx context.Context, orgID int64, role Role) (int64, error)
	UpsertDefault(ctx context.Context, orgID int64, role Role, accountID int64) (int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, org_id, code, name, type, category, parent_id, level, is_parent, is_active, allow_manual_journal, balance, description, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.OrgID, &a.Code, &a.Name, &a.Type, &a.Category, &a.ParentID, &a.Level, &a.IsParent, &a.IsActive, &a.AllowManualJournal, &a.Balance, &a.Description, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) List(ctx context.Context, orgID int64) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE org_id=$1 AND is_active ORDER BY code`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) Get(ctx context.Context, orgID, id int64) (Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE org_id=$1 AND id=$2`, orgID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

// Create inserts a new account. The (org_id, code) unique index makes
// concurrent provisioning of the same code lose deterministically.
func (r *repository) Create(ctx context.Context, account Account) (Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounts (org_id, code, name, type, category, parent_id, level, is_parent, is_active, allow_manual_journal, balance, description)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,TRUE,$9,0,$10)
RETURNING `+accountColumns,
		account.OrgID, account.Code, account.Name, account.Type, account.Category, account.ParentID, account.Level, account.IsParent, account.AllowManualJournal, account.Description)
	created, err := scanAccount(row)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return Account{}, shared.ErrDuplicateCode
		}
		return Account{}, err
	}
	if account.ParentID != nil {
		if _, err := r.db.Exec(ctx, `UPDATE accounts SET is_parent=TRUE, updated_at=NOW() WHERE org_id=$1 AND id=$2`, account.OrgID, *account.ParentID); err != nil {
			return Account{}, err
		}
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, account Account) (Account, error) {
	row := r.db.QueryRow(ctx, `UPDATE accounts SET name=$3, category=$4, parent_id=$5, level=$6, allow_manual_journal=$7, description=$8, updated_at=NOW()
WHERE org_id=$1 AND id=$2
RETURNING `+accountColumns,
		account.OrgID, account.ID, account.Name, account.Category, account.ParentID, account.Level, account.AllowManualJournal, account.Description)
	updated, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return updated, nil
}

// Deactivate soft-deletes the account. Financial records are never erased.
func (r *repository) Deactivate(ctx context.Context, orgID, id int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET is_active=FALSE, updated_at=NOW() WHERE org_id=$1 AND id=$2`, orgID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (r *repository) ListCodesForType(ctx context.Context, orgID int64, t AccountType) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT code FROM accounts WHERE org_id=$1 AND type=$2`, orgID, t)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// FindByName matches case-insensitively within the organisation.
func (r *repository) FindByName(ctx context.Context, orgID int64, name string) (Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE org_id=$1 AND lower(name)=lower($2) AND is_active ORDER BY id LIMIT 1`, orgID, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) GetDefault(ctx context.Context, orgID int64, role Role) (int64, error) {
	var accountID int64
	err := r.db.QueryRow(ctx, `SELECT account_id FROM account_defaults WHERE org_id=$1 AND role=$2`, orgID, role).Scan(&accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrAccountNotFound
		}
		return 0, err
	}
	return accountID, nil
}

// UpsertDefault binds a role to an account unless another writer got there
// first, and returns the binding that won.
func (r *repository) UpsertDefault(ctx context.Context, orgID int64, role Role, accountID int64) (int64, error) {
	var winner int64
	err := r.db.QueryRow(ctx, `INSERT INTO account_defaults (org_id, role, account_id) VALUES ($1,$2,$3)
ON CONFLICT (org_id, role) DO NOTHING RETURNING account_id`, orgID, role, accountID).Scan(&winner)
	if err == nil {
		return winner, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	return r.GetDefault(ctx, orgID, role)
}
