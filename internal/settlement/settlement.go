// Package settlement abstracts the funds-in side of card loads.
//
// Loading a wallet from a card is an external settlement concern. The
// orchestrator only sees the CardAuthorizer contract; swapping the sandbox
// for a real acquirer changes wiring, not payment logic.
package settlement

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// ErrCardDeclined indicates that the card authorization was declined.
var ErrCardDeclined = errors.New("card declined")

// Card carries the instrument details for a single authorization.
// It is never persisted.
type Card struct {
	Number   string
	Holder   string
	ExpMonth int
	ExpYear  int
	CVC      string
}

// CardAuthorizer authorizes a card charge and returns a settlement reference.
type CardAuthorizer interface {
	Authorize(ctx context.Context, card Card, amount, currency string) (string, error)
}

// SandboxAuthorizer approves any structurally valid, unexpired card.
// It stands in for a real payment processor in non-production environments.
type SandboxAuthorizer struct{}

// NewSandboxAuthorizer returns a SandboxAuthorizer.
func NewSandboxAuthorizer() *SandboxAuthorizer {
	return &SandboxAuthorizer{}
}

// Authorize validates the card and returns a sandbox settlement reference.
func (a *SandboxAuthorizer) Authorize(ctx context.Context, card Card, amount, currency string) (string, error) {
	if !luhnValid(card.Number) {
		return "", ErrCardDeclined
	}

	now := time.Now()
	if card.ExpYear < now.Year() || (card.ExpYear == now.Year() && card.ExpMonth < int(now.Month())) {
		return "", ErrCardDeclined
	}

	if len(card.CVC) < 3 || len(card.CVC) > 4 {
		return "", ErrCardDeclined
	}

	ref := make([]byte, 12)
	if _, err := rand.Read(ref); err != nil {
		return "", err
	}

	return "sbx_" + hex.EncodeToString(ref), nil
}

func luhnValid(number string) bool {
	if len(number) < 12 || len(number) > 19 {
		return false
	}

	sum := 0
	double := false

	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}

		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}

		sum += d
		double = !double
	}

	return sum%10 == 0
}
