// Package stellarledger bridges payments to the Stellar network.
//
// It wraps the Horizon client behind a narrow interface: load account
// state, query balances, and submit a signed native payment. Key material
// enters as a seed string and never leaves this boundary unencrypted.
package stellarledger

import (
	"context"
	"net/http"
	"time"

	"github.com/pulapay/pulapay/internal/domain"
	"github.com/pulapay/pulapay/pkg/errorspkg"

	"github.com/rs/zerolog"
	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"
)

const (
	// submitTimeoutBounds is the transaction time bound handed to the
	// network; after it the ledger will not apply the transaction.
	submitTimeoutBounds = 180

	maxLookupAttempts = 3
	lookupBackoff     = 500 * time.Millisecond
)

// Client talks to a Horizon server on one Stellar network.
type Client struct {
	horizon           horizonclient.ClientInterface
	networkPassphrase string
}

// New returns a Client for the given Horizon URL and network passphrase.
// The submit timeout caps the whole HTTP exchange; on expiry the local
// transaction stays pending and reconciliation happens out of band.
func New(horizonURL, networkPassphrase string, submitTimeout time.Duration) *Client {
	return &Client{
		horizon: &horizonclient.Client{
			HorizonURL: horizonURL,
			HTTP:       &http.Client{Timeout: submitTimeout},
		},
		networkPassphrase: networkPassphrase,
	}
}

// NewWithHorizon returns a Client over a prebuilt Horizon client.
func NewWithHorizon(horizon horizonclient.ClientInterface, networkPassphrase string) *Client {
	return &Client{
		horizon:           horizon,
		networkPassphrase: networkPassphrase,
	}
}

// CreateKeypair generates a fresh Stellar keypair. The seed must be
// encrypted before it is stored and must never be serialized into any
// client-facing response.
func (c *Client) CreateKeypair() (publicKey, seed string, err error) {
	kp, err := keypair.Random()
	if err != nil {
		return "", "", errorspkg.ErrInternal
	}

	return kp.Address(), kp.Seed(), nil
}

// AccountBalances loads the asset balances of the given account,
// retrying transient network failures with backoff.
func (c *Client) AccountBalances(ctx context.Context, accountID string) ([]domain.AssetBalance, error) {
	l := zerolog.Ctx(ctx)

	if _, err := keypair.ParseAddress(accountID); err != nil {
		return nil, domain.ErrInvalidDestinationAddress
	}

	var lastErr error

	for attempt := 0; attempt < maxLookupAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, domain.ErrExternalNetworkUnavailable
			case <-time.After(lookupBackoff << (attempt - 1)):
			}
		}

		account, err := c.horizon.AccountDetail(horizonclient.AccountRequest{AccountID: accountID})
		if err == nil {
			balances := make([]domain.AssetBalance, 0, len(account.Balances))

			for _, b := range account.Balances {
				asset := b.Asset.Code
				if b.Asset.Type == "native" {
					asset = "XLM"
				}

				balances = append(balances, domain.AssetBalance{Asset: asset, Balance: b.Balance})
			}

			return balances, nil
		}

		if horizonclient.IsNotFoundError(err) {
			return nil, domain.ErrExternalAccountNotFunded
		}

		l.Warn().Err(err).Int("attempt", attempt+1).Msg("horizon account lookup failed")
		lastErr = err
	}

	l.Error().Err(lastErr).Send()

	return nil, domain.ErrExternalNetworkUnavailable
}

// SubmitPayment signs and submits a native-asset payment and returns the
// transaction hash. Submission is never retried here: a timed-out submit
// may still be applied by the network, so the caller keeps the local
// record pending until an out-of-band confirmation check resolves it.
func (c *Client) SubmitPayment(ctx context.Context, seed, destination, amount string) (string, error) {
	l := zerolog.Ctx(ctx)

	if _, err := keypair.ParseAddress(destination); err != nil {
		return "", domain.ErrInvalidDestinationAddress
	}

	source, err := keypair.ParseFull(seed)
	if err != nil {
		l.Error().Err(err).Msg("stored wallet seed is unparseable")
		return "", errorspkg.ErrInternal
	}

	sourceAccount, err := c.horizon.AccountDetail(horizonclient.AccountRequest{AccountID: source.Address()})
	if err != nil {
		return "", c.mapHorizonErr(ctx, err)
	}

	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &sourceAccount,
		IncrementSequenceNum: true,
		BaseFee:              txnbuild.MinBaseFee,
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimeout(submitTimeoutBounds),
		},
		Operations: []txnbuild.Operation{
			&txnbuild.Payment{
				Destination: destination,
				Amount:      amount,
				Asset:       txnbuild.NativeAsset{},
			},
		},
	})
	if err != nil {
		l.Error().Err(err).Send()
		return "", errorspkg.ErrInternal
	}

	tx, err = tx.Sign(c.networkPassphrase, source)
	if err != nil {
		l.Error().Err(err).Send()
		return "", errorspkg.ErrInternal
	}

	resp, err := c.horizon.SubmitTransaction(tx)
	if err != nil {
		return "", c.mapHorizonErr(ctx, err)
	}

	return resp.Hash, nil
}

// mapHorizonErr translates Horizon failures into the domain taxonomy so
// raw SDK error text never reaches a client.
func (c *Client) mapHorizonErr(ctx context.Context, err error) error {
	l := zerolog.Ctx(ctx)

	herr, ok := err.(*horizonclient.Error)
	if !ok {
		l.Warn().Err(err).Msg("horizon unreachable")
		return domain.ErrExternalNetworkUnavailable
	}

	if horizonclient.IsNotFoundError(err) {
		return domain.ErrExternalAccountNotFunded
	}

	codes, codesErr := herr.ResultCodes()
	if codesErr != nil {
		l.Error().Err(err).Send()
		return domain.ErrExternalNetworkUnavailable
	}

	if codes.TransactionCode == "tx_insufficient_balance" || codes.TransactionCode == "tx_insufficient_fee" {
		return domain.ErrInsufficientExternalBalance
	}

	for _, op := range codes.OperationCodes {
		switch op {
		case "op_underfunded":
			return domain.ErrInsufficientExternalBalance
		case "op_no_destination", "op_malformed":
			return domain.ErrInvalidDestinationAddress
		}
	}

	l.Error().Err(err).Str("tx_code", codes.TransactionCode).Send()

	return domain.ErrExternalNetworkUnavailable
}
