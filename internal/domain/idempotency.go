package domain

import "time"

// IdempotencyStatus enumerates the states of an idempotency reservation.
type IdempotencyStatus string

// Constants for all idempotency statuses.
const (
	IdempotencyReserved  IdempotencyStatus = "reserved"
	IdempotencyCompleted IdempotencyStatus = "completed"
)

// IdempotencyRecord maps a client supplied key, scoped per user, to the
// transaction it produced. A (owner, key) pair resolves to exactly one
// transaction.
type IdempotencyRecord struct {
	ID            int64             `json:"id"`
	Owner         string            `json:"owner"`
	Key           string            `json:"key"`
	TransactionID int64             `json:"transaction_id,omitempty"`
	Status        IdempotencyStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
}
