// Package walletrepo manages repository layer of Stellar wallets.
package walletrepo

import (
	"context"
	"database/sql"

	"github.com/pulapay/pulapay/internal/domain"
	"github.com/pulapay/pulapay/pkg/dbpkg"
	"github.com/pulapay/pulapay/pkg/errorspkg"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates Stellar wallet repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns wallet RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const createQuery = `
INSERT INTO
    stellar_wallets (owner, public_key, encrypted_seed, active)
VALUES
    ($1, $2, $3, true)
RETURNING id, owner, public_key, encrypted_seed, active, created_at
`

// Create stores a new active wallet. At most one active wallet per user is
// enforced by a partial unique index.
func (r *RepoPGS) Create(ctx context.Context, owner, publicKey, encryptedSeed string) (domain.StellarWallet, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery, owner, publicKey, encryptedSeed)

	var w domain.StellarWallet

	err := row.Scan(
		&w.ID,
		&w.Owner,
		&w.PublicKey,
		&w.EncryptedSeed,
		&w.Active,
		&w.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "stellar_wallets_owner_fkey":
				return w, domain.ErrOwnerNotFound
			case "stellar_wallets_owner_active_idx":
				return w, domain.ErrDuplicateRequest
			}
		}

		return w, errorspkg.ErrInternal
	}

	return w, nil
}

const getActiveQuery = `
SELECT
	id, owner, public_key, encrypted_seed, active, created_at
FROM stellar_wallets
WHERE owner = $1 AND active
`

// GetActive returns the user's active wallet.
func (r *RepoPGS) GetActive(ctx context.Context, owner string) (domain.StellarWallet, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getActiveQuery, owner)

	var w domain.StellarWallet

	err := row.Scan(
		&w.ID,
		&w.Owner,
		&w.PublicKey,
		&w.EncryptedSeed,
		&w.Active,
		&w.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return w, domain.ErrWalletNotFound
		}

		l.Error().Err(err).Send()

		return w, errorspkg.ErrInternal
	}

	return w, nil
}

const deactivateQuery = `
UPDATE stellar_wallets
SET active = false
WHERE owner = $1 AND active
`

// Deactivate retires the user's active wallet.
func (r *RepoPGS) Deactivate(ctx context.Context, owner string) error {
	l := zerolog.Ctx(ctx)

	res, err := r.db.ExecContext(ctx, deactivateQuery, owner)
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
		return domain.ErrWalletNotFound
	}

	return nil
}
