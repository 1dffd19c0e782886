package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/meridian-erp/meridian/internal/accounting/shared"
)

// Resolver answers "which account does this semantic role use for this
// organisation". Resolution order: explicit override, organisation default,
// case-insensitive name match, auto-provisioned account. Provisioning never
// blocks a posting on administrative setup; a silently growing chart of
// accounts is the accepted trade-off.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the account id for the role. Override 0 means "no
// override". Any failure here is fatal to the posting attempt.
func (r *Resolver) Resolve(ctx context.Context, orgID int64, role Role, override int64) (int64, error) {
	if override != 0 {
		if _, err := r.repo.Get(ctx, orgID, override); err != nil {
			return 0, fmt.Errorf("resolve %s override: %w", role, err)
		}
		return override, nil
	}

	if id, err := r.repo.GetDefault(ctx, orgID, role); err == nil {
		return id, nil
	} else if !errors.Is(err, shared.ErrAccountNotFound) {
		return 0, err
	}

	spec, err := Spec(role)
	if err != nil {
		return 0, err
	}

	if acct, err := r.repo.FindByName(ctx, orgID, spec.DisplayName()); err == nil {
		return r.repo.UpsertDefault(ctx, orgID, role, acct.ID)
	} else if !errors.Is(err, shared.ErrAccountNotFound) {
		return 0, err
	}

	acct, err := r.provision(ctx, orgID, spec)
	if err != nil {
		return 0, fmt.Errorf("resolve %s: %w", role, err)
	}
	return r.repo.UpsertDefault(ctx, orgID, role, acct.ID)
}

// provision creates the role account with a generated code. On a code
// collision another writer provisioned concurrently, so fall back to the
// name lookup which must now succeed.
func (r *Resolver) provision(ctx context.Context, orgID int64, spec RoleSpec) (Account, error) {
	codes, err := r.repo.ListCodesForType(ctx, orgID, spec.Type)
	if err != nil {
		return Account{}, err
	}
	account := Account{
		OrgID:       orgID,
		Code:        NextCode(spec.Type, codes),
		Name:        spec.DisplayName(),
		Type:        spec.Type,
		Category:    spec.Category,
		Description: fmt.Sprintf("Auto-created for %s", spec.Role),
	}
	created, err := r.repo.Create(ctx, account)
	if err == nil {
		return created, nil
	}
	if errors.Is(err, shared.ErrDuplicateCode) {
		return r.repo.FindByName(ctx, orgID, spec.DisplayName())
	}
	return Account{}, err
}
