// Package walletservice manages business logic layer of Stellar wallets.
package walletservice

import (
	"context"
	"time"

	"github.com/pulapay/pulapay/internal/domain"
	"github.com/pulapay/pulapay/pkg/errorspkg"
	"github.com/pulapay/pulapay/pkg/secretpkg"

	"github.com/rs/zerolog"
	"github.com/stellar/go/keypair"
)

// Repo provides data access layer interface needed by wallet service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package walletservice
type Repo interface {
	Create(ctx context.Context, owner, publicKey, encryptedSeed string) (domain.StellarWallet, error)
	GetActive(ctx context.Context, owner string) (domain.StellarWallet, error)
}

// Ledger provides the Stellar network operations needed by the wallet service.
type Ledger interface {
	CreateKeypair() (publicKey, seed string, err error)
	AccountBalances(ctx context.Context, accountID string) ([]domain.AssetBalance, error)
	SubmitPayment(ctx context.Context, seed, destination, amount string) (string, error)
}

// Payments provides the local ledger operations needed by the wallet service.
type Payments interface {
	Pay(ctx context.Context, arg domain.CreatePaymentParams) (domain.PaymentResult, error)
	Reverse(ctx context.Context, transactionID int64, owner, amount string) (domain.PaymentResult, error)
}

// TransactionUpdater settles pending transactions after external confirmation.
type TransactionUpdater interface {
	UpdateStatus(ctx context.Context, id int64, status domain.TransactionStatus, externalRef string) (domain.Transaction, error)
}

// Service facilitates wallet service layer logic.
type Service struct {
	repo          Repo
	ledger        Ledger
	payments      Payments
	transactions  TransactionUpdater
	cipher        *secretpkg.Cipher
	submitTimeout time.Duration
}

// New returns wallet service struct to manage wallet business logic.
func New(wr Repo, sl Ledger, ps Payments, tu TransactionUpdater, c *secretpkg.Cipher, submitTimeout time.Duration) *Service {
	return &Service{
		repo:          wr,
		ledger:        sl,
		payments:      ps,
		transactions:  tu,
		cipher:        c,
		submitTimeout: submitTimeout,
	}
}

// GetOrCreate returns the user's active wallet, generating a keypair on
// first use. The seed is encrypted before it is stored and is cleared from
// the returned value; only the public key ever reaches a client.
func (s *Service) GetOrCreate(ctx context.Context, owner string) (domain.StellarWallet, error) {
	l := zerolog.Ctx(ctx)

	wallet, err := s.repo.GetActive(ctx, owner)
	if err == nil {
		wallet.EncryptedSeed = ""
		return wallet, nil
	}

	if err != domain.ErrWalletNotFound {
		return domain.StellarWallet{}, err
	}

	publicKey, seed, err := s.ledger.CreateKeypair()
	if err != nil {
		return domain.StellarWallet{}, err
	}

	encryptedSeed, err := s.cipher.Encrypt(seed)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.StellarWallet{}, errorspkg.ErrInternal
	}

	wallet, err = s.repo.Create(ctx, owner, publicKey, encryptedSeed)
	if err == domain.ErrDuplicateRequest {
		// Lost the creation race; the winner's wallet is the active one.
		wallet, err = s.repo.GetActive(ctx, owner)
	}

	if err != nil {
		return domain.StellarWallet{}, err
	}

	l.Info().Str("public_key", wallet.PublicKey).Msg("stellar wallet created, fund externally to activate on ledger")

	wallet.EncryptedSeed = ""

	return wallet, nil
}

// Balances returns the asset balances of the user's Stellar account.
func (s *Service) Balances(ctx context.Context, owner string) ([]domain.AssetBalance, error) {
	wallet, err := s.repo.GetActive(ctx, owner)
	if err != nil {
		return nil, err
	}

	return s.ledger.AccountBalances(ctx, wallet.PublicKey)
}

// Transfer moves funds to a Stellar destination.
//
// The transfer walks Created -> Submitted -> Confirmed | Rejected. Created
// deducts the wallet balance and records a pending transaction in one
// atomic unit. Confirmed settles it with the ledger hash. Rejected reverses
// the deduction with a compensating mutation and fails the transaction. A
// submit that cannot reach the network leaves the transaction pending;
// failure is never inferred from a timeout alone.
func (s *Service) Transfer(ctx context.Context, owner, destination, amount, description, idempotencyKey string) (domain.PaymentResult, error) {
	l := zerolog.Ctx(ctx)

	if _, err := keypair.ParseAddress(destination); err != nil {
		return domain.PaymentResult{}, domain.ErrInvalidDestinationAddress
	}

	wallet, err := s.repo.GetActive(ctx, owner)
	if err != nil {
		return domain.PaymentResult{}, err
	}

	seed, err := s.cipher.Decrypt(wallet.EncryptedSeed)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.PaymentResult{}, errorspkg.ErrInternal
	}

	// Created: pending transaction plus deduction, atomically.
	result, err := s.payments.Pay(ctx, domain.CreatePaymentParams{
		Owner:          owner,
		Type:           domain.TypeSend,
		Amount:         amount,
		Counterparty:   destination,
		Description:    description,
		Rail:           domain.RailBlockchain,
		Status:         domain.StatusPending,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return result, err
	}

	if result.Duplicate {
		return result, nil
	}

	l.Info().
		Int64("transaction_id", result.Transaction.ID).
		Str("transfer_state", string(domain.TransferCreated)).
		Msg("blockchain transfer recorded")

	// Submitted.
	submitCtx, cancel := context.WithTimeout(ctx, s.submitTimeout)
	defer cancel()

	hash, err := s.ledger.SubmitPayment(submitCtx, seed, destination, amount)

	switch err {
	case nil:
		// Confirmed.
		result.Transaction, err = s.transactions.UpdateStatus(ctx, result.Transaction.ID, domain.StatusCompleted, hash)
		if err != nil {
			return result, err
		}

		return result, nil

	case domain.ErrInvalidDestinationAddress,
		domain.ErrInsufficientExternalBalance,
		domain.ErrExternalAccountNotFunded:
		// Rejected: terminal, user correctable. Re-credit and fail.
		reversed, rerr := s.payments.Reverse(ctx, result.Transaction.ID, owner, amount)
		if rerr != nil {
			l.Error().Err(rerr).Int64("transaction_id", result.Transaction.ID).Msg("compensation failed, transaction left pending")
			return result, rerr
		}

		return reversed, err

	default:
		// Network unavailable or timed out: the transfer may still be
		// applied by the ledger, so the local record stays pending for
		// out-of-band reconciliation.
		l.Warn().
			Err(err).
			Int64("transaction_id", result.Transaction.ID).
			Str("transfer_state", string(domain.TransferSubmitted)).
			Msg("stellar submit unresolved, transaction left pending")

		return result, nil
	}
}
