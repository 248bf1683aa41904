package stellarledger

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/protocols/horizon/base"
	"github.com/stellar/go/support/render/problem"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pulapay/pulapay/internal/domain"
)

func horizonError(txCode string, opCodes ...string) *horizonclient.Error {
	codes := map[string]interface{}{
		"transaction": txCode,
		"operations":  opCodes,
	}

	raw, _ := json.Marshal(codes)

	return &horizonclient.Error{
		Problem: problem.P{
			Type:   "https://stellar.org/horizon-errors/transaction_failed",
			Status: 400,
			Extras: map[string]interface{}{
				"result_codes": json.RawMessage(raw),
			},
		},
	}
}

func notFoundError() *horizonclient.Error {
	return &horizonclient.Error{
		Problem: problem.P{
			Type:   "https://stellar.org/horizon-errors/not_found",
			Status: 404,
		},
	}
}

func TestCreateKeypair(t *testing.T) {
	t.Parallel()

	client := NewWithHorizon(&horizonclient.MockClient{}, network.TestNetworkPassphrase)

	publicKey, seed, err := client.CreateKeypair()
	require.NoError(t, err)

	kp, err := keypair.ParseFull(seed)
	require.NoError(t, err)
	require.Equal(t, publicKey, kp.Address())
}

func TestAccountBalances(t *testing.T) {
	t.Parallel()

	kp := keypair.MustRandom()

	t.Run("OK", func(t *testing.T) {
		t.Parallel()

		horizon := &horizonclient.MockClient{}
		horizon.On("AccountDetail", horizonclient.AccountRequest{AccountID: kp.Address()}).
			Return(hProtocol.Account{
				AccountID: kp.Address(),
				Balances: []hProtocol.Balance{
					{Balance: "100.5000000", Asset: base.Asset{Type: "native"}},
				},
			}, nil)

		client := NewWithHorizon(horizon, network.TestNetworkPassphrase)

		balances, err := client.AccountBalances(context.Background(), kp.Address())
		require.NoError(t, err)
		require.Len(t, balances, 1)
		require.Equal(t, "XLM", balances[0].Asset)
		require.Equal(t, "100.5000000", balances[0].Balance)
	})

	t.Run("InvalidAddress", func(t *testing.T) {
		t.Parallel()

		client := NewWithHorizon(&horizonclient.MockClient{}, network.TestNetworkPassphrase)

		_, err := client.AccountBalances(context.Background(), "not-an-address")
		require.EqualError(t, err, domain.ErrInvalidDestinationAddress.Error())
	})

	t.Run("UnfundedAccount", func(t *testing.T) {
		t.Parallel()

		horizon := &horizonclient.MockClient{}
		horizon.On("AccountDetail", mock.Anything).
			Return(hProtocol.Account{}, notFoundError())

		client := NewWithHorizon(horizon, network.TestNetworkPassphrase)

		_, err := client.AccountBalances(context.Background(), kp.Address())
		require.EqualError(t, err, domain.ErrExternalAccountNotFunded.Error())
	})
}

func TestSubmitPayment(t *testing.T) {
	t.Parallel()

	source := keypair.MustRandom()
	destination := keypair.MustRandom()

	sourceDetail := hProtocol.Account{
		AccountID: source.Address(),
		Sequence:  1,
	}

	t.Run("OK", func(t *testing.T) {
		t.Parallel()

		horizon := &horizonclient.MockClient{}
		horizon.On("AccountDetail", horizonclient.AccountRequest{AccountID: source.Address()}).
			Return(sourceDetail, nil)
		horizon.On("SubmitTransaction", mock.Anything).
			Return(hProtocol.Transaction{Hash: "abc123"}, nil)

		client := NewWithHorizon(horizon, network.TestNetworkPassphrase)

		hash, err := client.SubmitPayment(context.Background(), source.Seed(), destination.Address(), "25.00")
		require.NoError(t, err)
		require.Equal(t, "abc123", hash)
	})

	t.Run("InvalidDestination", func(t *testing.T) {
		t.Parallel()

		client := NewWithHorizon(&horizonclient.MockClient{}, network.TestNetworkPassphrase)

		_, err := client.SubmitPayment(context.Background(), source.Seed(), "garbage", "25.00")
		require.EqualError(t, err, domain.ErrInvalidDestinationAddress.Error())
	})

	t.Run("UnparseableSeed", func(t *testing.T) {
		t.Parallel()

		client := NewWithHorizon(&horizonclient.MockClient{}, network.TestNetworkPassphrase)

		_, err := client.SubmitPayment(context.Background(), "garbage", destination.Address(), "25.00")
		require.Error(t, err)
	})

	t.Run("SourceNotFunded", func(t *testing.T) {
		t.Parallel()

		horizon := &horizonclient.MockClient{}
		horizon.On("AccountDetail", mock.Anything).
			Return(hProtocol.Account{}, notFoundError())

		client := NewWithHorizon(horizon, network.TestNetworkPassphrase)

		_, err := client.SubmitPayment(context.Background(), source.Seed(), destination.Address(), "25.00")
		require.EqualError(t, err, domain.ErrExternalAccountNotFunded.Error())
	})

	t.Run("InsufficientBalance", func(t *testing.T) {
		t.Parallel()

		horizon := &horizonclient.MockClient{}
		horizon.On("AccountDetail", mock.Anything).
			Return(sourceDetail, nil)
		horizon.On("SubmitTransaction", mock.Anything).
			Return(hProtocol.Transaction{}, horizonError("tx_failed", "op_underfunded"))

		client := NewWithHorizon(horizon, network.TestNetworkPassphrase)

		_, err := client.SubmitPayment(context.Background(), source.Seed(), destination.Address(), "25.00")
		require.EqualError(t, err, domain.ErrInsufficientExternalBalance.Error())
	})

	t.Run("NoDestinationAccount", func(t *testing.T) {
		t.Parallel()

		horizon := &horizonclient.MockClient{}
		horizon.On("AccountDetail", mock.Anything).
			Return(sourceDetail, nil)
		horizon.On("SubmitTransaction", mock.Anything).
			Return(hProtocol.Transaction{}, horizonError("tx_failed", "op_no_destination"))

		client := NewWithHorizon(horizon, network.TestNetworkPassphrase)

		_, err := client.SubmitPayment(context.Background(), source.Seed(), destination.Address(), "25.00")
		require.EqualError(t, err, domain.ErrInvalidDestinationAddress.Error())
	})

	t.Run("UnknownFailureIsUnavailable", func(t *testing.T) {
		t.Parallel()

		horizon := &horizonclient.MockClient{}
		horizon.On("AccountDetail", mock.Anything).
			Return(sourceDetail, nil)
		horizon.On("SubmitTransaction", mock.Anything).
			Return(hProtocol.Transaction{}, horizonError("tx_failed", "op_low_reserve"))

		client := NewWithHorizon(horizon, network.TestNetworkPassphrase)

		_, err := client.SubmitPayment(context.Background(), source.Seed(), destination.Address(), "25.00")
		require.EqualError(t, err, domain.ErrExternalNetworkUnavailable.Error())
	})
}
