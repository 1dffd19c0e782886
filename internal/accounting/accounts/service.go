package accounts

import (
	"context"
	"errors"

	"github.com/meridian-erp/meridian/internal/accounting/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, orgID int64) ([]Account, error) {
	return s.repo.List(ctx, orgID)
}

func (s *Service) Get(ctx context.Context, orgID, id int64) (Account, error) {
	return s.repo.Get(ctx, orgID, id)
}

// Create validates required fields and stores hierarchy pointers. A child
// sits one level below its parent; the parent is flagged accordingly.
func (s *Service) Create(ctx context.Context, account Account) (Account, error) {
	if account.OrgID == 0 {
		return Account{}, errors.New("accounts: organisation required")
	}
	if account.Code == "" || account.Name == "" {
		return Account{}, errors.New("accounts: code and name required")
	}
	if !account.Type.Valid() {
		return Account{}, errors.New("accounts: invalid account type")
	}
	if account.ParentID != nil {
		parent, err := s.repo.Get(ctx, account.OrgID, *account.ParentID)
		if err != nil {
			return Account{}, err
		}
		if parent.Type != account.Type {
			return Account{}, errors.New("accounts: parent type must match child type")
		}
		account.Level = parent.Level + 1
	}
	return s.repo.Create(ctx, account)
}

func (s *Service) Update(ctx context.Context, account Account) (Account, error) {
	if account.ID == 0 {
		return Account{}, shared.ErrAccountNotFound
	}
	if account.Name == "" {
		return Account{}, errors.New("accounts: name required")
	}
	if account.ParentID != nil {
		parent, err := s.repo.Get(ctx, account.OrgID, *account.ParentID)
		if err != nil {
			return Account{}, err
		}
		account.Level = parent.Level + 1
	}
	return s.repo.Update(ctx, account)
}

func (s *Service) Deactivate(ctx context.Context, orgID, id int64) error {
	return s.repo.Deactivate(ctx, orgID, id)
}

// NextCode proposes the next free code for the type within the organisation.
func (s *Service) NextCode(ctx context.Context, orgID int64, t AccountType) (string, error) {
	if !t.Valid() {
		return "", errors.New("accounts: invalid account type")
	}
	codes, err := s.repo.ListCodesForType(ctx, orgID, t)
	if err != nil {
		return "", err
	}
	return NextCode(t, codes), nil
}
