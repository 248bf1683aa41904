// Package transactionrepo manages repository layer of transactions.
package transactionrepo

import (
	"context"
	"database/sql"

	"github.com/pulapay/pulapay/internal/domain"
	"github.com/pulapay/pulapay/pkg/dbpkg"
	"github.com/pulapay/pulapay/pkg/errorspkg"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates transaction repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns transaction RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const createQuery = `
INSERT INTO
    transactions (owner, type, amount, counterparty, counterparty_name, description, rail, status, external_ref, idempotency_key)
VALUES
    ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, owner, type, amount, counterparty, counterparty_name, description, rail, status, external_ref, idempotency_key, created_at, updated_at
`

// Create appends one transaction row with the given signed amount and
// then returns it. Amount, type, and counterparty are immutable after this.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreatePaymentParams, signedAmount string) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	var externalRef sql.NullString
	if arg.ExternalRef != "" {
		externalRef = sql.NullString{String: arg.ExternalRef, Valid: true}
	}

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.Owner,
		arg.Type,
		signedAmount,
		arg.Counterparty,
		arg.CounterpartyName,
		arg.Description,
		arg.Rail,
		arg.Status,
		externalRef,
		arg.IdempotencyKey,
	)

	t, err := scanTransaction(row)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx, %+v)", arg)

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "transactions_owner_fkey":
				return t, domain.ErrOwnerNotFound
			case "transactions_type_check":
				return t, domain.ErrInvalidTransactionType
			case "transactions_rail_check":
				return t, domain.ErrInvalidRail
			}
		}

		return t, errorspkg.ErrInternal
	}

	return t, nil
}

const getQuery = `
SELECT
	id, owner, type, amount, counterparty, counterparty_name, description, rail, status, external_ref, idempotency_key, created_at, updated_at
FROM transactions
WHERE id = $1
`

// Get returns the transaction with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getQuery, id)

	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return t, domain.ErrTransactionNotFound
		}

		l.Error().Err(err).Send()

		return t, errorspkg.ErrInternal
	}

	return t, nil
}

const listQuery = `
SELECT
	id, owner, type, amount, counterparty, counterparty_name, description, rail, status, external_ref, idempotency_key, created_at, updated_at
FROM transactions
WHERE owner = $1
ORDER BY id DESC
LIMIT $2
`

// List returns the most recent transactions of the given owner.
func (r *RepoPGS) List(ctx context.Context, owner string, limit int32) ([]domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, owner, limit)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Transaction{}

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, t)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const updateStatusQuery = `
UPDATE transactions
SET status = $1, external_ref = COALESCE($2, external_ref), updated_at = now()
WHERE id = $3 AND status = 'pending'
RETURNING id, owner, type, amount, counterparty, counterparty_name, description, rail, status, external_ref, idempotency_key, created_at, updated_at
`

// UpdateStatus transitions a pending transaction to completed or failed,
// optionally recording the external ledger reference. It is the only
// mutation transactions support.
func (r *RepoPGS) UpdateStatus(ctx context.Context, id int64, status domain.TransactionStatus, externalRef string) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	var ref sql.NullString
	if externalRef != "" {
		ref = sql.NullString{String: externalRef, Valid: true}
	}

	row := r.db.QueryRowContext(ctx, updateStatusQuery, status, ref, id)

	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return t, domain.ErrTransactionNotFound
		}

		l.Error().Err(err).Send()

		return t, errorspkg.ErrInternal
	}

	return t, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var (
		t                domain.Transaction
		counterpartyName sql.NullString
		description      sql.NullString
		externalRef      sql.NullString
	)

	err := row.Scan(
		&t.ID,
		&t.Owner,
		&t.Type,
		&t.Amount,
		&t.Counterparty,
		&counterpartyName,
		&description,
		&t.Rail,
		&t.Status,
		&externalRef,
		&t.IdempotencyKey,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	t.CounterpartyName = counterpartyName.String
	t.Description = description.String
	t.ExternalRef = externalRef.String

	return t, err
}
