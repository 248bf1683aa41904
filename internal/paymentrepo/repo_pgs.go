// Package paymentrepo manages the payment transaction unit.
//
// A payment is one database transaction: the idempotency reservation, the
// version-checked balance mutation, and the transaction record insert all
// commit or all roll back. No state exists where a balance changed but no
// transaction record does, or vice versa.
package paymentrepo

import (
	"context"
	"database/sql"

	"github.com/pulapay/pulapay/internal/accountrepo"
	"github.com/pulapay/pulapay/internal/domain"
	"github.com/pulapay/pulapay/internal/idempotencyrepo"
	"github.com/pulapay/pulapay/internal/transactionrepo"
	"github.com/pulapay/pulapay/pkg/errorspkg"

	"github.com/rs/zerolog"
)

// RepoPGS facilitates payment repository layer logic.
type RepoPGS struct {
	conn *sql.DB
}

// NewRepoPGS returns payment RepoPGS with a connection to start transactions.
func NewRepoPGS(conn *sql.DB) *RepoPGS {
	return &RepoPGS{
		conn: conn,
	}
}

// Pay applies a payment as a single atomic unit.
//
// The signed amount carries the direction: negative for send and
// bill_payment, positive for receive and load. A repeated request with the
// same (owner, idempotency key) returns the originally produced result and
// mutates nothing. A version conflict on the account surfaces as
// domain.ErrVersionConflict; the service layer retries with a fresh read.
func (r *RepoPGS) Pay(ctx context.Context, arg domain.CreatePaymentParams, signedAmount string) (domain.PaymentResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.PaymentResult

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			l.Error().Err(err).Send()
		}
	}()

	idempotencyRepo := idempotencyrepo.NewRepoPGS(tx)
	accountRepo := accountrepo.NewRepoPGS(tx)
	transactionRepo := transactionrepo.NewRepoPGS(tx)

	record, err := idempotencyRepo.Get(ctx, arg.Owner, arg.IdempotencyKey)

	switch {
	case err == nil && record.Status == domain.IdempotencyCompleted:
		return replay(ctx, record, accountRepo, transactionRepo)
	case err == nil:
		// A committed reservation without a result means the original
		// request is still in flight on another invocation.
		return result, domain.ErrDuplicateRequest
	case err != sql.ErrNoRows:
		return result, err
	}

	record, err = idempotencyRepo.Reserve(ctx, arg.Owner, arg.IdempotencyKey)
	if err != nil {
		return result, err
	}

	account, err := accountRepo.GetByOwner(ctx, arg.Owner)
	if err != nil {
		return result, err
	}

	if account.Deactivated {
		return result, domain.ErrAccountDeactivated
	}

	result.Account, err = accountRepo.AddBalance(ctx, signedAmount, account.ID, account.Version)
	if err != nil {
		return result, err
	}

	result.Transaction, err = transactionRepo.Create(ctx, arg, signedAmount)
	if err != nil {
		return result, err
	}

	if err := idempotencyRepo.Complete(ctx, record.ID, result.Transaction.ID); err != nil {
		return result, err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.PaymentResult{}, errorspkg.ErrInternal
	}

	return result, nil
}

// Compensate re-credits a previously deducted amount and fails the pending
// transaction in one unit. It is a corrective mutation with its own version
// check, not an undo of the original commit.
func (r *RepoPGS) Compensate(ctx context.Context, transactionID int64, owner, amount string) (domain.PaymentResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.PaymentResult

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			l.Error().Err(err).Send()
		}
	}()

	accountRepo := accountrepo.NewRepoPGS(tx)
	transactionRepo := transactionrepo.NewRepoPGS(tx)

	account, err := accountRepo.GetByOwner(ctx, owner)
	if err != nil {
		return result, err
	}

	result.Account, err = accountRepo.AddBalance(ctx, amount, account.ID, account.Version)
	if err != nil {
		return result, err
	}

	result.Transaction, err = transactionRepo.UpdateStatus(ctx, transactionID, domain.StatusFailed, "")
	if err != nil {
		return result, err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.PaymentResult{}, errorspkg.ErrInternal
	}

	return result, nil
}

func replay(
	ctx context.Context,
	record domain.IdempotencyRecord,
	accountRepo *accountrepo.RepoPGS,
	transactionRepo *transactionrepo.RepoPGS,
) (domain.PaymentResult, error) {
	var result domain.PaymentResult

	transaction, err := transactionRepo.Get(ctx, record.TransactionID)
	if err != nil {
		return result, err
	}

	account, err := accountRepo.GetByOwner(ctx, record.Owner)
	if err != nil {
		return result, err
	}

	result.Transaction = transaction
	result.Account = account
	result.Duplicate = true

	return result, nil
}
