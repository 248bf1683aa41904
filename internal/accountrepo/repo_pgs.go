// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"database/sql"

	"github.com/pulapay/pulapay/internal/domain"
	"github.com/pulapay/pulapay/pkg/dbpkg"
	"github.com/pulapay/pulapay/pkg/errorspkg"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates account repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns account RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const createQuery = `
INSERT INTO
    accounts (owner, balance, currency)
VALUES
    ($1, $2, $3)
RETURNING id, owner, balance, currency, version, deactivated, created_at, updated_at
`

// Create creates the account and then returns it.
func (r *RepoPGS) Create(ctx context.Context, owner, balance, currency string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery, owner, balance, currency)

	a, err := scanAccount(row)
	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "accounts_owner_fkey":
				return a, domain.ErrOwnerNotFound
			case "accounts_owner_key":
				return a, domain.ErrAccountAlreadyExists
			}
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const getQuery = `
SELECT
	id, owner, balance, currency, version, deactivated, created_at, updated_at
FROM accounts
WHERE id = $1
`

// Get returns the account with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getQuery, id)

	a, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const getByOwnerQuery = `
SELECT
	id, owner, balance, currency, version, deactivated, created_at, updated_at
FROM accounts
WHERE owner = $1
`

// GetByOwner returns the account owned by the given user.
func (r *RepoPGS) GetByOwner(ctx context.Context, owner string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getByOwnerQuery, owner)

	a, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const addBalanceQuery = `
UPDATE accounts
SET balance = balance + $1, version = version + 1, updated_at = now()
WHERE id = $2 AND version = $3 AND balance + $1 >= 0 AND NOT deactivated
RETURNING id, owner, balance, currency, version, deactivated, created_at, updated_at
`

// AddBalance applies a signed delta to the account conditionally on the
// version observed by the caller. Zero rows affected means the account is
// missing, deactivated, stale, or short of funds; the follow-up read
// disambiguates so the caller can decide whether to retry.
func (r *RepoPGS) AddBalance(ctx context.Context, amount string, id, version int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, addBalanceQuery, amount, id, version)

	a, err := scanAccount(row)
	if err == nil {
		return a, nil
	}

	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Constraint == "accounts_balance_check" {
			return a, domain.ErrInsufficientBalance
		}
	}

	if err != sql.ErrNoRows {
		l.Error().Err(err).Send()
		return a, errorspkg.ErrInternal
	}

	current, err := r.Get(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}

	switch {
	case current.Deactivated:
		return domain.Account{}, domain.ErrAccountDeactivated
	case current.Version != version:
		return domain.Account{}, domain.ErrVersionConflict
	default:
		return domain.Account{}, domain.ErrInsufficientBalance
	}
}

const deactivateQuery = `
UPDATE accounts
SET deactivated = true, updated_at = now()
WHERE id = $1
`

// Deactivate marks the account as deactivated. Accounts are never deleted.
func (r *RepoPGS) Deactivate(ctx context.Context, id int64) error {
	l := zerolog.Ctx(ctx)

	res, err := r.db.ExecContext(ctx, deactivateQuery, id)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	n, err := res.RowsAffected()
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	if n == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.Owner,
		&a.Balance,
		&a.Currency,
		&a.Version,
		&a.Deactivated,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	return a, err
}
