// Package idempotencyrepo manages repository layer of idempotency reservations.
package idempotencyrepo

import (
	"context"
	"database/sql"

	"github.com/pulapay/pulapay/internal/domain"
	"github.com/pulapay/pulapay/pkg/dbpkg"
	"github.com/pulapay/pulapay/pkg/errorspkg"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates idempotency repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns idempotency RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const getQuery = `
SELECT
	id, owner, key, COALESCE(transaction_id, 0), status, created_at
FROM idempotency_keys
WHERE owner = $1 AND key = $2
`

// Get returns the record for the given (owner, key) pair.
func (r *RepoPGS) Get(ctx context.Context, owner, key string) (domain.IdempotencyRecord, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getQuery, owner, key)

	var rec domain.IdempotencyRecord

	err := row.Scan(
		&rec.ID,
		&rec.Owner,
		&rec.Key,
		&rec.TransactionID,
		&rec.Status,
		&rec.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return rec, sql.ErrNoRows
		}

		l.Error().Err(err).Send()

		return rec, errorspkg.ErrInternal
	}

	return rec, nil
}

const reserveQuery = `
INSERT INTO
    idempotency_keys (owner, key, status)
VALUES
    ($1, $2, 'reserved')
RETURNING id, owner, key, COALESCE(transaction_id, 0), status, created_at
`

// Reserve claims the key for the current request. A unique violation means
// another request with the same key is in flight or already finished;
// the reservation rolls back together with the enclosing transaction.
func (r *RepoPGS) Reserve(ctx context.Context, owner, key string) (domain.IdempotencyRecord, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, reserveQuery, owner, key)

	var rec domain.IdempotencyRecord

	err := row.Scan(
		&rec.ID,
		&rec.Owner,
		&rec.Key,
		&rec.TransactionID,
		&rec.Status,
		&rec.CreatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Constraint == "idempotency_keys_owner_key_key" {
				return rec, domain.ErrDuplicateRequest
			}
		}

		l.Error().Err(err).Send()

		return rec, errorspkg.ErrInternal
	}

	return rec, nil
}

const completeQuery = `
UPDATE idempotency_keys
SET status = 'completed', transaction_id = $1
WHERE id = $2 AND status = 'reserved'
`

// Complete binds the reservation to the transaction it produced.
func (r *RepoPGS) Complete(ctx context.Context, id, transactionID int64) error {
	l := zerolog.Ctx(ctx)

	res, err := r.db.ExecContext(ctx, completeQuery, transactionID, id)
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
		return domain.ErrDuplicateRequest
	}

	return nil
}
