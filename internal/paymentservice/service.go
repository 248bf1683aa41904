// Package paymentservice manages business logic layer of payments.
package paymentservice

import (
	"context"
	"database/sql"

	"github.com/pulapay/pulapay/internal/domain"
	"github.com/pulapay/pulapay/internal/settlement"
	"github.com/pulapay/pulapay/pkg/currencypkg"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// maxMutationRetries bounds the version-conflict retries before the
// mutation surfaces as contention.
const maxMutationRetries = 3

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// Repo provides the payment transaction unit needed by the service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package paymentservice
type Repo interface {
	Pay(ctx context.Context, arg domain.CreatePaymentParams, signedAmount string) (domain.PaymentResult, error)
	Compensate(ctx context.Context, transactionID int64, owner, amount string) (domain.PaymentResult, error)
}

// TransactionReader provides read access to recorded transactions.
type TransactionReader interface {
	List(ctx context.Context, owner string, limit int32) ([]domain.Transaction, error)
}

// AccountService provides the account operations needed by the payment service.
type AccountService interface {
	GetOrCreate(ctx context.Context, owner, currency string) (domain.Account, error)
}

// IdempotencyReader looks up a prior reservation for a (owner, key) pair.
type IdempotencyReader interface {
	Get(ctx context.Context, owner, key string) (domain.IdempotencyRecord, error)
}

// Service facilitates payment service layer logic.
type Service struct {
	repo         Repo
	transactions TransactionReader
	accounts     AccountService
	idempotency  IdempotencyReader
	authorizer   settlement.CardAuthorizer
}

// New returns payment service struct to manage payment business logic.
func New(pr Repo, tr TransactionReader, as AccountService, ir IdempotencyReader, ca settlement.CardAuthorizer) *Service {
	return &Service{
		repo:         pr,
		transactions: tr,
		accounts:     as,
		idempotency:  ir,
		authorizer:   ca,
	}
}

// validIntent checks the payment intent fields against the enumerations
// and the currency's minor unit. The balance check deliberately does not
// happen here: it belongs inside the atomic unit.
func validIntent(ctx context.Context, arg domain.CreatePaymentParams, currency string) error {
	l := zerolog.Ctx(ctx)

	if !domain.IsValidTransactionType(arg.Type) {
		return domain.ErrInvalidTransactionType
	}

	if !domain.IsValidRail(arg.Rail) {
		return domain.ErrInvalidRail
	}

	if arg.Counterparty == "" {
		return domain.ErrInvalidCounterparty
	}

	amount, err := decimal.NewFromString(arg.Amount)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.ErrInvalidAmount
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}

	if !currencypkg.IsRepresentable(amount, currency) {
		return domain.ErrInvalidAmount
	}

	return nil
}

// Pay validates the payment intent and applies it through the atomic unit,
// retrying version conflicts with a fresh read up to the retry bound.
//
// On success exactly one transaction exists and exactly one balance
// mutation happened; on failure neither does. A duplicate idempotency key
// returns the original result.
func (s *Service) Pay(ctx context.Context, arg domain.CreatePaymentParams) (domain.PaymentResult, error) {
	l := zerolog.Ctx(ctx)

	account, err := s.accounts.GetOrCreate(ctx, arg.Owner, currencypkg.BWP)
	if err != nil {
		return domain.PaymentResult{}, err
	}

	if err := validIntent(ctx, arg, account.Currency); err != nil {
		return domain.PaymentResult{}, err
	}

	if arg.Status == "" {
		arg.Status = domain.StatusCompleted
		if arg.Rail == domain.RailBlockchain {
			arg.Status = domain.StatusPending
		}
	}

	signedAmount := arg.Amount
	if arg.Type.Debits() {
		signedAmount = "-" + arg.Amount
	}

	for attempt := 0; attempt < maxMutationRetries; attempt++ {
		result, err := s.repo.Pay(ctx, arg, signedAmount)
		if err == domain.ErrVersionConflict {
			l.Info().Int("attempt", attempt+1).Msg("payment version conflict, retrying")
			continue
		}

		return result, err
	}

	return domain.PaymentResult{}, domain.ErrContention
}

// LoadFromCard authorizes a card charge through the settlement interface
// and credits the wallet with a load transaction carrying the settlement
// reference. A replayed key returns the recorded result without charging
// the card a second time.
func (s *Service) LoadFromCard(ctx context.Context, owner string, card settlement.Card, amount, description, idempotencyKey string) (domain.PaymentResult, error) {
	account, err := s.accounts.GetOrCreate(ctx, owner, currencypkg.BWP)
	if err != nil {
		return domain.PaymentResult{}, err
	}

	arg := domain.CreatePaymentParams{
		Owner:          owner,
		Type:           domain.TypeLoad,
		Amount:         amount,
		Counterparty:   maskCard(card.Number),
		Description:    description,
		Rail:           domain.RailCard,
		IdempotencyKey: idempotencyKey,
	}

	if err := validIntent(ctx, arg, account.Currency); err != nil {
		return domain.PaymentResult{}, err
	}

	// A known key means a prior attempt already charged the card, so the
	// replay must not touch the authorizer again. An in-flight reservation
	// surfaces as a conflict from the atomic unit.
	_, err = s.idempotency.Get(ctx, owner, idempotencyKey)
	switch err {
	case nil:
		return s.Pay(ctx, arg)
	case sql.ErrNoRows:
	default:
		return domain.PaymentResult{}, err
	}

	ref, err := s.authorizer.Authorize(ctx, card, amount, account.Currency)
	if err != nil {
		return domain.PaymentResult{}, err
	}

	arg.ExternalRef = ref

	return s.Pay(ctx, arg)
}

// Reverse re-credits a deducted pending payment after a terminal external
// rejection. It is a compensating mutation subject to the same retry bound.
func (s *Service) Reverse(ctx context.Context, transactionID int64, owner, amount string) (domain.PaymentResult, error) {
	l := zerolog.Ctx(ctx)

	for attempt := 0; attempt < maxMutationRetries; attempt++ {
		result, err := s.repo.Compensate(ctx, transactionID, owner, amount)
		if err == domain.ErrVersionConflict {
			l.Info().Int("attempt", attempt+1).Msg("compensation version conflict, retrying")
			continue
		}

		return result, err
	}

	return domain.PaymentResult{}, domain.ErrContention
}

// History returns the user's most recent transactions.
func (s *Service) History(ctx context.Context, owner string, limit int32) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	return s.transactions.List(ctx, owner, limit)
}

func maskCard(number string) string {
	if len(number) < 4 {
		return "card:****"
	}

	return "card:****" + number[len(number)-4:]
}
