package tx

import (
	"context"
	"math/big"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/transfer-relay/internal/api"
	"github/chapool/transfer-relay/internal/test"
	"github/chapool/transfer-relay/internal/transfer"
	"github/chapool/transfer-relay/internal/wallet"
)

func withRelay(t *testing.T, closure func(args transferArgs, node *test.RPCNode)) {
	t.Helper()

	test.WithTestServerAndNode(t, func(s *api.Server, node *test.RPCNode) {
		srv := httptest.NewServer(s.Echo)
		defer srv.Close()

		closure(transferArgs{
			relayURL: srv.URL,
			timeout:  5 * time.Second,
			to:       "0x7777777777777777777777777777777777777777",
			token:    "0x5555555555555555555555555555555555555555",
			amount:   "1.5",
		}, node)
	})
}

func TestRunTransfer(t *testing.T) {
	withRelay(t, func(args transferArgs, node *test.RPCNode) {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)

		err = runTransfer(context.Background(), args, wallet.NewLocalProvider(key, big.NewInt(4200)))
		require.NoError(t, err)

		// the local provider signs the transaction, the relay sends it raw
		assert.Equal(t, 1, node.Calls("eth_sendRawTransaction"))
		assert.Zero(t, node.Calls("eth_sendTransaction"))
	})
}

func TestRunTransferWrongChain(t *testing.T) {
	withRelay(t, func(args transferArgs, node *test.RPCNode) {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)

		err = runTransfer(context.Background(), args, wallet.NewLocalProvider(key, big.NewInt(1)))
		require.ErrorIs(t, err, transfer.ErrHashMismatch)
		assert.Zero(t, node.Calls("eth_sendRawTransaction"))
	})
}

func TestRunPrepare(t *testing.T) {
	withRelay(t, func(args transferArgs, _ *test.RPCNode) {
		require.NoError(t, runPrepare(context.Background(), args, "0x1111111111111111111111111111111111111111"))

		args.amount = "1.2.3"
		err := runPrepare(context.Background(), args, "0x1111111111111111111111111111111111111111")
		require.ErrorIs(t, err, transfer.ErrInvalidAmountFormat)
	})
}
