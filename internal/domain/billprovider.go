package domain

import (
	"errors"
	"time"
)

// ErrBillProviderNotFound indicates that the bill provider is not found.
var ErrBillProviderNotFound = errors.New("bill provider not found")

// BillProvider is a biller users can pay through the bill_payment flow.
type BillProvider struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	AccountFormat string    `json:"account_format,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
