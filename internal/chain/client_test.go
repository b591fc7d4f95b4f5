package chain_test

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/transfer-relay/internal/chain"
	"github/chapool/transfer-relay/internal/test"
	"github/chapool/transfer-relay/internal/transfer"
)

var token = common.HexToAddress("0x2222222222222222222222222222222222222222")

func newClient(t *testing.T, urls ...string) *chain.Client {
	t.Helper()

	client, err := chain.NewClient(context.Background(), urls)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := chain.NewClient(context.Background(), nil)
	assert.Error(t, err)
}

func TestClientReads(t *testing.T) {
	node := test.NewRPCNode(t)
	client := newClient(t, node.URL())
	ctx := context.Background()

	n, err := client.BlockNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x10), n)

	id, err := client.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4200), id.Int64())

	progress, err := client.SyncProgress(ctx)
	require.NoError(t, err)
	assert.Nil(t, progress)

	nonce, err := client.PendingNonceAt(ctx, common.Address{})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), nonce)
}

func TestClientFeeData(t *testing.T) {
	node := test.NewRPCNode(t)
	client := newClient(t, node.URL())

	fees, err := client.FeeData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2*1000+100), fees.MaxFeePerGas.Int64())
	assert.Equal(t, int64(100), fees.MaxPriorityFeePerGas.Int64())
	assert.Nil(t, fees.GasPrice)

	node.BaseFee = nil

	fees, err = client.FeeData(context.Background())
	require.NoError(t, err)
	assert.Nil(t, fees.MaxFeePerGas)
	assert.Equal(t, int64(1500), fees.GasPrice.Int64())
}

func TestClientTokenInfo(t *testing.T) {
	node := test.NewRPCNode(t)
	client := newClient(t, node.URL())
	ctx := context.Background()

	info, err := client.TokenInfo(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "Test Token", info.Name)
	assert.Equal(t, "TST", info.Symbol)
	assert.Equal(t, uint8(6), info.Decimals)

	balance, err := client.TokenBalance(ctx, token, common.Address{})
	require.NoError(t, err)
	assert.Equal(t, int64(2500000), balance.Int64())
}

func TestClientTokenDecimalsRevert(t *testing.T) {
	node := test.NewRPCNode(t)
	node.Fail("eth_call", "execution reverted")
	client := newClient(t, node.URL())

	_, err := client.TokenDecimals(context.Background(), token)
	assert.Error(t, err)
}

func TestClientFailsOverOnTransportError(t *testing.T) {
	dead := test.NewRPCNode(t)
	dead.Server.Close()
	alive := test.NewRPCNode(t)

	client := newClient(t, dead.URL(), alive.URL())

	n, err := client.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0x10), n)
	assert.Equal(t, 1, alive.Calls("eth_blockNumber"))
}

func TestClientDoesNotFailOverOnNodeError(t *testing.T) {
	first := test.NewRPCNode(t)
	first.Fail("eth_blockNumber", "boom")
	second := test.NewRPCNode(t)

	client := newClient(t, first.URL(), second.URL())

	_, err := client.BlockNumber(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, second.Calls("eth_blockNumber"))
}

func TestClientRedactsEndpoint(t *testing.T) {
	dead := test.NewRPCNode(t)
	dead.Server.Close()

	client := newClient(t, dead.URL())

	_, err := client.BlockNumber(context.Background())
	require.Error(t, err)

	redacted := client.Redact(err)
	assert.NotContains(t, redacted, dead.Server.Listener.Addr().String())
}

func TestClientRedactsCredentialsAndPath(t *testing.T) {
	dead := test.NewRPCNode(t)
	dead.Server.Close()

	host := dead.Server.Listener.Addr().String()
	client := newClient(t, "http://relay:s3cr3t@"+host+"/v3/0123456789abcdef?apikey=fedcba9876543210")

	_, err := client.BlockNumber(context.Background())
	require.Error(t, err)

	redacted := client.Redact(err)
	assert.Contains(t, redacted, "<rpc>")
	for _, secret := range []string{host, "s3cr3t", "relay:", "0123456789abcdef", "fedcba9876543210", "/v3/"} {
		assert.NotContains(t, redacted, secret)
	}
}

func TestClientSendTransaction(t *testing.T) {
	node := test.NewRPCNode(t)
	client := newClient(t, node.URL())

	data, err := transfer.EncodeTransfer(common.HexToAddress("0x3333333333333333333333333333333333333333"), big.NewInt(1))
	require.NoError(t, err)

	tx := &transfer.Transaction{
		From:                 common.HexToAddress("0x1111111111111111111111111111111111111111"),
		To:                   token,
		Data:                 data,
		Gas:                  52000,
		Nonce:                5,
		MaxFeePerGas:         big.NewInt(2100),
		MaxPriorityFeePerGas: big.NewInt(100),
		ChainID:              big.NewInt(4200),
	}

	hash, err := client.SendTransaction(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0xabc0000000000000000000000000000000000000000000000000000000000001"), hash)

	sent := node.Sent()
	require.Len(t, sent, 1)

	var args map[string]string
	require.NoError(t, json.Unmarshal(sent[0], &args))
	assert.Equal(t, "0x834", args["maxFeePerGas"])
	assert.Equal(t, "0xcb20", args["gas"])
	assert.Equal(t, "0x5", args["nonce"])
	assert.Equal(t, "0x2", args["type"])
}

func TestClientSendRawTransaction(t *testing.T) {
	node := test.NewRPCNode(t)
	client := newClient(t, node.URL())

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	signed, err := types.SignNewTx(key, types.LatestSignerForChainID(big.NewInt(4200)), &types.DynamicFeeTx{
		ChainID:   big.NewInt(4200),
		Nonce:     1,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       21000,
		To:        &token,
		Value:     new(big.Int),
	})
	require.NoError(t, err)

	hash, err := client.SendRawTransaction(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, signed.Hash(), hash)
	assert.Equal(t, 1, node.Calls("eth_sendRawTransaction"))
}
