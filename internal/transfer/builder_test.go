package transfer_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/transfer-relay/internal/transfer"
)

type fakeChain struct {
	decimals    uint8
	decimalsErr error
	nonce       uint64
	nonceErr    error
	fees        *transfer.FeeData
	feesErr     error
	gas         uint64
	gasErr      error

	estimated ethereum.CallMsg
}

func (f *fakeChain) TokenDecimals(context.Context, common.Address) (uint8, error) {
	return f.decimals, f.decimalsErr
}

func (f *fakeChain) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return f.nonce, f.nonceErr
}

func (f *fakeChain) FeeData(context.Context) (*transfer.FeeData, error) {
	return f.fees, f.feesErr
}

func (f *fakeChain) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	f.estimated = msg
	return f.gas, f.gasErr
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		decimals: 6,
		nonce:    3,
		fees: &transfer.FeeData{
			MaxFeePerGas:         big.NewInt(2000),
			MaxPriorityFeePerGas: big.NewInt(100),
		},
		gas: 52000,
	}
}

func newTestBuilder(chain transfer.ChainReader) *transfer.Builder {
	return transfer.NewBuilder(chain, transfer.BuilderConfig{ChainID: big.NewInt(4200)})
}

func testRequest(amount string) transfer.TransferRequest {
	return transfer.TransferRequest{
		From:      testSender.Hex(),
		Recipient: testRecipient.Hex(),
		Token:     testToken.Hex(),
		Amount:    amount,
	}
}

func TestBuild(t *testing.T) {
	chain := newFakeChain()

	prepared, err := newTestBuilder(chain).Build(context.Background(), testRequest("3"))
	require.NoError(t, err)

	tx := prepared.Transaction
	assert.Equal(t, testSender, tx.From)
	assert.Equal(t, testToken, tx.To)
	assert.Equal(t, uint64(3), tx.Nonce)
	assert.Equal(t, uint64(52000), tx.Gas)
	assert.Equal(t, int64(2000), tx.MaxFeePerGas.Int64())
	assert.Equal(t, int64(100), tx.MaxPriorityFeePerGas.Int64())
	assert.Equal(t, int64(4200), tx.ChainID.Int64())
	assert.Equal(t, int64(3000000), prepared.BaseUnits.Int64())
	assert.Equal(t, uint8(6), prepared.Decimals)
	assert.Equal(t, "3", prepared.Amount)

	recipient, amount, err := transfer.DecodeTransfer(tx.Data)
	require.NoError(t, err)
	assert.Equal(t, testRecipient, recipient)
	assert.Equal(t, int64(3000000), amount.Int64())

	assert.Equal(t, transfer.Hash(tx), prepared.Hash)
	require.NoError(t, transfer.CheckBinding(tx, prepared.Hash, prepared.Message))

	require.NotNil(t, chain.estimated.To)
	assert.Equal(t, testToken, *chain.estimated.To)
	assert.Equal(t, testSender, chain.estimated.From)
}

func TestBuildFallsBackToDefaultDecimals(t *testing.T) {
	chain := newFakeChain()
	chain.decimalsErr = errors.New("execution reverted")

	prepared, err := newTestBuilder(chain).Build(context.Background(), testRequest("1.5"))
	require.NoError(t, err)

	assert.Equal(t, uint8(transfer.DefaultDecimals), prepared.Decimals)
	assert.Equal(t, "1500000000000000000", prepared.BaseUnits.String())
}

func TestBuildFallsBackToDefaultGas(t *testing.T) {
	chain := newFakeChain()
	chain.gasErr = errors.New("execution reverted")

	prepared, err := newTestBuilder(chain).Build(context.Background(), testRequest("1"))
	require.NoError(t, err)
	assert.Equal(t, transfer.DefaultGasLimit, prepared.Transaction.Gas)
}

func TestBuildLegacyFees(t *testing.T) {
	chain := newFakeChain()
	chain.fees = &transfer.FeeData{GasPrice: big.NewInt(7)}

	prepared, err := newTestBuilder(chain).Build(context.Background(), testRequest("1"))
	require.NoError(t, err)

	assert.False(t, prepared.Transaction.IsDynamicFee())
	assert.Equal(t, int64(7), prepared.Transaction.GasPrice.Int64())
}

func TestBuildTruncatesAmount(t *testing.T) {
	prepared, err := newTestBuilder(newFakeChain()).Build(context.Background(), testRequest("0.1234569"))
	require.NoError(t, err)

	assert.Equal(t, "0.123456", prepared.Amount)
	assert.Equal(t, int64(123456), prepared.BaseUnits.Int64())
	assert.Contains(t, prepared.Message, "Amount: 0.123456\n")
}

func TestBuildErrors(t *testing.T) {
	rpcDown := errors.New("connection refused")

	tests := []struct {
		name   string
		req    transfer.TransferRequest
		chain  func(c *fakeChain)
		expect error
	}{
		{"malformed amount", testRequest("1.2.3"), nil, transfer.ErrInvalidAmountFormat},
		{"negative amount", testRequest("-1"), nil, transfer.ErrInvalidAmountFormat},
		{"bad recipient", transfer.TransferRequest{From: testSender.Hex(), Recipient: "0xabc", Token: testToken.Hex(), Amount: "1"}, nil, transfer.ErrInvalidAddress},
		{"bad token", transfer.TransferRequest{From: testSender.Hex(), Recipient: testRecipient.Hex(), Token: "token", Amount: "1"}, nil, transfer.ErrInvalidAddress},
		{"bad sender", transfer.TransferRequest{From: "", Recipient: testRecipient.Hex(), Token: testToken.Hex(), Amount: "1"}, nil, transfer.ErrInvalidAddress},
		{"nonce unavailable", testRequest("1"), func(c *fakeChain) { c.nonceErr = rpcDown }, transfer.ErrRPCUnavailable},
		{"fees unavailable", testRequest("1"), func(c *fakeChain) { c.feesErr = rpcDown }, transfer.ErrRPCUnavailable},
		{"empty fees", testRequest("1"), func(c *fakeChain) { c.fees = &transfer.FeeData{} }, transfer.ErrRPCUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := newFakeChain()
			if tt.chain != nil {
				tt.chain(chain)
			}

			_, err := newTestBuilder(chain).Build(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.expect)
		})
	}
}
