// Package billproviderrepo manages repository layer of bill providers.
package billproviderrepo

import (
	"context"
	"database/sql"

	"github.com/pulapay/pulapay/internal/domain"
	"github.com/pulapay/pulapay/pkg/dbpkg"
	"github.com/pulapay/pulapay/pkg/errorspkg"

	"github.com/rs/zerolog"
)

// RepoPGS facilitates bill provider repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns bill provider RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const listQuery = `
SELECT
	id, name, category, COALESCE(account_format, ''), created_at
FROM bill_providers
ORDER BY name
`

// List returns all bill providers ordered by name.
func (r *RepoPGS) List(ctx context.Context) ([]domain.BillProvider, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.BillProvider{}

	for rows.Next() {
		var p domain.BillProvider
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.AccountFormat, &p.CreatedAt); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, p)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const getQuery = `
SELECT
	id, name, category, COALESCE(account_format, ''), created_at
FROM bill_providers
WHERE id = $1
`

// Get returns the bill provider with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.BillProvider, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getQuery, id)

	var p domain.BillProvider

	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.AccountFormat, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return p, domain.ErrBillProviderNotFound
		}

		l.Error().Err(err).Send()

		return p, errorspkg.ErrInternal
	}

	return p, nil
}
