package domain

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrPaymentMethodNotFound indicates that the payment method is not found.
	ErrPaymentMethodNotFound = errors.New("payment method not found")
	// ErrInvalidPaymentMethodType indicates an unknown payment method type.
	ErrInvalidPaymentMethodType = errors.New("invalid payment method type")
)

// PaymentMethod is a stored funding instrument (bank account or card).
// Details holds masked instrument data only, never full card numbers.
type PaymentMethod struct {
	ID         int64           `json:"id"`
	Owner      string          `json:"owner"`
	MethodType string          `json:"method_type"` // bank | card
	Name       string          `json:"name"`
	Details    json.RawMessage `json:"details"`
	IsDefault  bool            `json:"is_default"`
	CreatedAt  time.Time       `json:"created_at"`
}

// CreatePaymentMethodParams is the input data to store a payment method.
type CreatePaymentMethodParams struct {
	Owner      string
	MethodType string
	Name       string
	Details    json.RawMessage
	IsDefault  bool
}
