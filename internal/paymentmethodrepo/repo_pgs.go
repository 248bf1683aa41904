// Package paymentmethodrepo manages repository layer of stored payment methods.
package paymentmethodrepo

import (
	"context"
	"database/sql"

	"github.com/pulapay/pulapay/internal/domain"
	"github.com/pulapay/pulapay/pkg/dbpkg"
	"github.com/pulapay/pulapay/pkg/errorspkg"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates payment method repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns payment method RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const createQuery = `
INSERT INTO
    payment_methods (owner, method_type, name, details, is_default)
VALUES
    ($1, $2, $3, $4, $5)
RETURNING id, owner, method_type, name, details, is_default, created_at
`

// Create stores the payment method and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreatePaymentMethodParams) (domain.PaymentMethod, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.Owner,
		arg.MethodType,
		arg.Name,
		[]byte(arg.Details),
		arg.IsDefault,
	)

	var m domain.PaymentMethod

	err := row.Scan(
		&m.ID,
		&m.Owner,
		&m.MethodType,
		&m.Name,
		&m.Details,
		&m.IsDefault,
		&m.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "payment_methods_owner_fkey":
				return m, domain.ErrOwnerNotFound
			case "payment_methods_method_type_check":
				return m, domain.ErrInvalidPaymentMethodType
			}
		}

		return m, errorspkg.ErrInternal
	}

	return m, nil
}

const listQuery = `
SELECT
	id, owner, method_type, name, details, is_default, created_at
FROM payment_methods
WHERE owner = $1
ORDER BY is_default DESC, id
`

// List returns the user's payment methods, default first.
func (r *RepoPGS) List(ctx context.Context, owner string) ([]domain.PaymentMethod, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, owner)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.PaymentMethod{}

	for rows.Next() {
		var m domain.PaymentMethod
		if err := rows.Scan(&m.ID, &m.Owner, &m.MethodType, &m.Name, &m.Details, &m.IsDefault, &m.CreatedAt); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const getQuery = `
SELECT
	id, owner, method_type, name, details, is_default, created_at
FROM payment_methods
WHERE id = $1 AND owner = $2
`

// Get returns the payment method with the given id if the user owns it.
func (r *RepoPGS) Get(ctx context.Context, id int64, owner string) (domain.PaymentMethod, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getQuery, id, owner)

	var m domain.PaymentMethod

	err := row.Scan(&m.ID, &m.Owner, &m.MethodType, &m.Name, &m.Details, &m.IsDefault, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return m, domain.ErrPaymentMethodNotFound
		}

		l.Error().Err(err).Send()

		return m, errorspkg.ErrInternal
	}

	return m, nil
}
