// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"

	"github.com/pulapay/pulapay/internal/domain"
)

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	Create(ctx context.Context, owner, balance, currency string) (domain.Account, error)
	Get(ctx context.Context, id int64) (domain.Account, error)
	GetByOwner(ctx context.Context, owner string) (domain.Account, error)
}

// Service facilitates account service layer logic.
type Service struct {
	repo Repo
}

// New returns account service struct to manage account business logic.
func New(ar Repo) *Service {
	return &Service{repo: ar}
}

// Get returns the account for the given account ID.
func (s *Service) Get(ctx context.Context, id int64) (domain.Account, error) {
	return s.repo.Get(ctx, id)
}

// GetByOwner returns the account owned by the given user.
func (s *Service) GetByOwner(ctx context.Context, owner string) (domain.Account, error) {
	return s.repo.GetByOwner(ctx, owner)
}

// GetOrCreate returns the user's account, creating an empty one on the
// first balance query. A lost creation race falls back to the winner's row.
func (s *Service) GetOrCreate(ctx context.Context, owner, currency string) (domain.Account, error) {
	account, err := s.repo.GetByOwner(ctx, owner)
	if err == nil {
		return account, nil
	}

	if err != domain.ErrAccountNotFound {
		return account, err
	}

	account, err = s.repo.Create(ctx, owner, "0", currency)
	if err == domain.ErrAccountAlreadyExists {
		return s.repo.GetByOwner(ctx, owner)
	}

	return account, err
}
