// Package domain provides definitions of all entities.
package domain

import (
	"errors"
	"time"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountDeactivated indicates that the account is deactivated.
	ErrAccountDeactivated = errors.New("account deactivated")
	// ErrOwnerNotFound indicates that the owner for the account is not found.
	ErrOwnerNotFound = errors.New("owner not found")
	// ErrAccountAlreadyExists indicates that the owner already has an account.
	ErrAccountAlreadyExists = errors.New("account already exists")
	// ErrInsufficientBalance indicates that the account does not have sufficient balance.
	ErrInsufficientBalance = errors.New("insufficient funds")
	// ErrVersionConflict indicates that the account changed since it was read.
	ErrVersionConflict = errors.New("account version conflict")
	// ErrContention indicates that the balance mutation retries are exhausted.
	ErrContention = errors.New("account contention, try again")
)

// Account holds a user's wallet balance for a specific currency.
//
// Balance never goes negative and is mutated only through the
// conditional version-checked update.
type Account struct {
	ID          int64     `json:"id"`
	Owner       string    `json:"owner"`
	Balance     string    `json:"balance"`
	Currency    string    `json:"currency"`
	Version     int64     `json:"version"`
	Deactivated bool      `json:"deactivated"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
