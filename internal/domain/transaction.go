package domain

import (
	"errors"
	"time"
)

var (
	// ErrInvalidAmount indicates invalid amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidCounterparty indicates an invalid counterparty identifier.
	ErrInvalidCounterparty = errors.New("invalid counterparty")
	// ErrInvalidTransactionType indicates an unknown transaction type.
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	// ErrInvalidRail indicates an unknown payment rail.
	ErrInvalidRail = errors.New("invalid payment rail")
	// ErrTransactionNotFound indicates that the transaction is not found.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrDuplicateRequest indicates that the same idempotency key is already in flight.
	ErrDuplicateRequest = errors.New("duplicate request in flight")
)

// TransactionType enumerates the kinds of payments.
type TransactionType string

// Constants for all transaction types.
const (
	TypeSend        TransactionType = "send"
	TypeReceive     TransactionType = "receive"
	TypeBillPayment TransactionType = "bill_payment"
	TypeLoad        TransactionType = "load"
)

// IsValidTransactionType returns true if the type is one of the enumerated kinds.
func IsValidTransactionType(t TransactionType) bool {
	switch t {
	case TypeSend, TypeReceive, TypeBillPayment, TypeLoad:
		return true
	default:
		return false
	}
}

// Debits reports whether the transaction type deducts from the payer's account.
func (t TransactionType) Debits() bool {
	return t == TypeSend || t == TypeBillPayment
}

// PaymentRail enumerates the settlement channels.
type PaymentRail string

// Constants for all payment rails.
const (
	RailWallet     PaymentRail = "wallet"
	RailBank       PaymentRail = "bank"
	RailCard       PaymentRail = "card"
	RailBlockchain PaymentRail = "blockchain"
)

// IsValidRail returns true if the rail is one of the enumerated kinds.
func IsValidRail(r PaymentRail) bool {
	switch r {
	case RailWallet, RailBank, RailCard, RailBlockchain:
		return true
	default:
		return false
	}
}

// TransactionStatus enumerates the transaction lifecycle states.
type TransactionStatus string

// Constants for all transaction statuses.
const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// Transaction is an immutable payment record. After creation only Status
// and ExternalRef may transition (pending to completed or failed).
type Transaction struct {
	ID               int64             `json:"id"`
	Owner            string            `json:"owner"`
	Type             TransactionType   `json:"type"`
	Amount           string            `json:"amount"` // signed, negative for debits
	Counterparty     string            `json:"counterparty"`
	CounterpartyName string            `json:"counterparty_name,omitempty"`
	Description      string            `json:"description,omitempty"`
	Rail             PaymentRail       `json:"rail"`
	Status           TransactionStatus `json:"status"`
	ExternalRef      string            `json:"external_ref,omitempty"`
	IdempotencyKey   string            `json:"-"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// CreatePaymentParams is the input data for the payment transaction.
type CreatePaymentParams struct {
	Owner            string
	Type             TransactionType
	Amount           string // positive, direction derived from Type
	Counterparty     string
	CounterpartyName string
	Description      string
	Rail             PaymentRail
	Status           TransactionStatus
	ExternalRef      string
	IdempotencyKey   string
}

// PaymentResult is the result of the payment transaction.
type PaymentResult struct {
	Transaction Transaction `json:"transaction"`
	Account     Account     `json:"account"`
	// Duplicate reports that the result was replayed from a previous
	// request with the same idempotency key.
	Duplicate bool `json:"-"`
}
