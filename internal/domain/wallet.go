package domain

import (
	"errors"
	"time"
)

var (
	// ErrWalletNotFound indicates that the user has no active Stellar wallet.
	ErrWalletNotFound = errors.New("stellar wallet not found")
	// ErrExternalNetworkUnavailable indicates that the Stellar network cannot be reached.
	ErrExternalNetworkUnavailable = errors.New("stellar network unavailable")
	// ErrInsufficientExternalBalance indicates insufficient balance on the Stellar account.
	ErrInsufficientExternalBalance = errors.New("insufficient stellar balance")
	// ErrInvalidDestinationAddress indicates a malformed or missing destination account.
	ErrInvalidDestinationAddress = errors.New("invalid destination address")
	// ErrExternalAccountNotFunded indicates that the Stellar account does not exist on the ledger yet.
	ErrExternalAccountNotFunded = errors.New("stellar account not funded")
)

// StellarWallet holds a user's Stellar account keys. The seed is stored
// encrypted and never crosses the server boundary.
type StellarWallet struct {
	ID            int64     `json:"id"`
	Owner         string    `json:"owner"`
	PublicKey     string    `json:"public_key"`
	EncryptedSeed string    `json:"-"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

// AssetBalance is one asset position on a Stellar account.
type AssetBalance struct {
	Asset   string `json:"asset"`
	Balance string `json:"balance"`
}

// ExternalTransferState enumerates the lifecycle of a Stellar transfer.
type ExternalTransferState string

// Constants for all external transfer states.
const (
	TransferCreated   ExternalTransferState = "created"
	TransferSubmitted ExternalTransferState = "submitted"
	TransferConfirmed ExternalTransferState = "confirmed"
	TransferRejected  ExternalTransferState = "rejected"
)

// TransferState derives the transfer lifecycle position from the recorded
// transaction status. A pending transaction has been submitted and awaits
// reconciliation; completed and failed are the terminal confirmations.
func TransferState(status TransactionStatus) ExternalTransferState {
	switch status {
	case StatusCompleted:
		return TransferConfirmed
	case StatusFailed:
		return TransferRejected
	default:
		return TransferSubmitted
	}
}
