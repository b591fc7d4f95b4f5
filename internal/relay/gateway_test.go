package relay_test

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/transfer-relay/internal/relay"
	"github/chapool/transfer-relay/internal/transfer"
)

var (
	testToken     = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testRecipient = common.HexToAddress("0x3333333333333333333333333333333333333333")
	testChainID   = big.NewInt(4200)
	sentHash      = common.HexToHash("0xabc0000000000000000000000000000000000000000000000000000000000001")
)

type fakeBroadcaster struct {
	sent    []*transfer.Transaction
	raw     []*types.Transaction
	sendErr error
}

func (f *fakeBroadcaster) SendTransaction(_ context.Context, tx *transfer.Transaction) (common.Hash, error) {
	if f.sendErr != nil {
		return common.Hash{}, f.sendErr
	}

	f.sent = append(f.sent, tx)
	return sentHash, nil
}

func (f *fakeBroadcaster) SendRawTransaction(_ context.Context, signed *types.Transaction) (common.Hash, error) {
	if f.sendErr != nil {
		return common.Hash{}, f.sendErr
	}

	f.raw = append(f.raw, signed)
	return signed.Hash(), nil
}

type fakeReadiness bool

func (f fakeReadiness) Ready(context.Context) bool {
	return bool(f)
}

type signedEnvelope struct {
	key      *ecdsa.PrivateKey
	tx       *transfer.Transaction
	envelope *relay.Envelope
}

func newSignedEnvelope(t *testing.T) *signedEnvelope {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	data, err := transfer.EncodeTransfer(testRecipient, big.NewInt(1_500_000))
	require.NoError(t, err)

	tx := &transfer.Transaction{
		From:                 crypto.PubkeyToAddress(key.PublicKey),
		To:                   testToken,
		Data:                 data,
		Gas:                  90000,
		Nonce:                3,
		MaxFeePerGas:         big.NewInt(3_000_000_000),
		MaxPriorityFeePerGas: big.NewInt(1_000_000_000),
		ChainID:              testChainID,
	}

	prepared, err := transfer.Prepare(tx, "1.5", 6)
	require.NoError(t, err)

	signature, err := transfer.SignMessage(prepared.Message, key)
	require.NoError(t, err)

	return &signedEnvelope{
		key: key,
		tx:  tx,
		envelope: &relay.Envelope{
			Transaction: tx.ToJSON(),
			Signature:   signature,
			TxHash:      prepared.Hash.Hex(),
			Message:     prepared.Message,
		},
	}
}

func (s *signedEnvelope) signRaw(t *testing.T, mutate func(*types.DynamicFeeTx)) string {
	t.Helper()

	inner := &types.DynamicFeeTx{
		ChainID:   s.tx.ChainID,
		Nonce:     s.tx.Nonce,
		GasTipCap: s.tx.MaxPriorityFeePerGas,
		GasFeeCap: s.tx.MaxFeePerGas,
		Gas:       s.tx.Gas,
		To:        &s.tx.To,
		Value:     new(big.Int),
		Data:      s.tx.Data,
	}
	if mutate != nil {
		mutate(inner)
	}

	signed, err := types.SignNewTx(s.key, types.LatestSignerForChainID(s.tx.ChainID), inner)
	require.NoError(t, err)

	b, err := signed.MarshalBinary()
	require.NoError(t, err)

	return hexutil.Encode(b)
}

type gatewayFixture struct {
	chain   *fakeBroadcaster
	replay  *relay.MemoryReplayGuard
	gateway *relay.Gateway
}

func newGateway(ready bool) *gatewayFixture {
	chain := &fakeBroadcaster{}
	replay := relay.NewMemoryReplayGuard(time2.NewMockClock(time.Unix(1_700_000_000, 0)), time.Hour)

	return &gatewayFixture{
		chain:   chain,
		replay:  replay,
		gateway: relay.NewGateway(chain, fakeReadiness(ready), replay, relay.GatewayConfig{ChainID: testChainID}),
	}
}

func TestProcessBroadcasts(t *testing.T) {
	f := newGateway(true)
	s := newSignedEnvelope(t)

	res, err := f.gateway.Process(context.Background(), s.envelope)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, sentHash.Hex(), res.TxHash)

	require.Len(t, f.chain.sent, 1)
	assert.Equal(t, transfer.Hash(s.tx), transfer.Hash(f.chain.sent[0]))
}

func TestProcessAcceptsChecksummedSender(t *testing.T) {
	f := newGateway(true)
	s := newSignedEnvelope(t)
	s.envelope.Transaction.From = s.tx.From.Hex()

	res, err := f.gateway.Process(context.Background(), s.envelope)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestProcessMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*relay.Envelope)
		field  string
	}{
		{"signature", func(e *relay.Envelope) { e.Signature = "" }, "signature"},
		{"txHash", func(e *relay.Envelope) { e.TxHash = " " }, "txHash"},
		{"message", func(e *relay.Envelope) { e.Message = "" }, "message"},
		{"to", func(e *relay.Envelope) { e.Transaction.To = "" }, "transaction.to"},
		{"nonce", func(e *relay.Envelope) { e.Transaction.Nonce = "" }, "transaction.nonce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGateway(true)
			s := newSignedEnvelope(t)
			tt.mutate(s.envelope)

			res, err := f.gateway.Process(context.Background(), s.envelope)
			require.ErrorIs(t, err, transfer.ErrMissingField)
			assert.False(t, res.Success)
			assert.Equal(t, transfer.KindMissingField, res.Kind)
			assert.Contains(t, res.Reason, tt.field)
			assert.Empty(t, f.chain.sent)
		})
	}
}

func TestProcessRejectsNilEnvelope(t *testing.T) {
	f := newGateway(true)

	res, err := f.gateway.Process(context.Background(), nil)
	require.ErrorIs(t, err, transfer.ErrMissingField)
	assert.False(t, res.Success)
}

func TestProcessRejectsInvalidAddress(t *testing.T) {
	f := newGateway(true)
	s := newSignedEnvelope(t)
	s.envelope.Transaction.To = "0x1234"

	_, err := f.gateway.Process(context.Background(), s.envelope)
	require.ErrorIs(t, err, transfer.ErrInvalidAddress)
}

func TestProcessRejectsForeignChain(t *testing.T) {
	f := newGateway(true)
	s := newSignedEnvelope(t)
	s.envelope.Transaction.ChainID = "1"

	_, err := f.gateway.Process(context.Background(), s.envelope)
	require.ErrorIs(t, err, transfer.ErrInvalidTransaction)
	assert.Empty(t, f.chain.sent)
}

func TestProcessTamperedRecipientIsHashMismatch(t *testing.T) {
	f := newGateway(true)
	s := newSignedEnvelope(t)

	data, err := transfer.EncodeTransfer(common.HexToAddress("0x4444444444444444444444444444444444444444"), big.NewInt(1_500_000))
	require.NoError(t, err)
	s.envelope.Transaction.Data = hexutil.Encode(data)

	_, err = f.gateway.Process(context.Background(), s.envelope)
	require.ErrorIs(t, err, transfer.ErrHashMismatch)
	assert.Empty(t, f.chain.sent)
}

func TestProcessTamperedTokenIsHashMismatch(t *testing.T) {
	f := newGateway(true)
	s := newSignedEnvelope(t)
	s.envelope.Transaction.To = "0x5555555555555555555555555555555555555555"

	_, err := f.gateway.Process(context.Background(), s.envelope)
	require.ErrorIs(t, err, transfer.ErrHashMismatch)
}

func TestProcessInconsistentAmountLineIsHashMismatch(t *testing.T) {
	f := newGateway(true)
	s := newSignedEnvelope(t)

	// the wallet shows a millionth of what the calldata transfers, signed correctly
	s.envelope.Message = strings.Replace(s.envelope.Message, "Amount: 1.5\n", "Amount: 0.0000015\n", 1)
	require.Contains(t, s.envelope.Message, "Amount: 0.0000015\n")

	var err error
	s.envelope.Signature, err = transfer.SignMessage(s.envelope.Message, s.key)
	require.NoError(t, err)

	res, err := f.gateway.Process(context.Background(), s.envelope)
	require.ErrorIs(t, err, transfer.ErrHashMismatch)
	assert.False(t, res.Success)
	assert.Empty(t, f.chain.sent)
}

func TestProcessHashMismatchBeforeSignature(t *testing.T) {
	f := newGateway(true)
	s := newSignedEnvelope(t)

	// both the hash and the signature are wrong, the hash is reported
	s.envelope.Transaction.Nonce = "4"
	s.envelope.Signature = "0x" + strings.Repeat("00", 65)

	_, err := f.gateway.Process(context.Background(), s.envelope)
	require.ErrorIs(t, err, transfer.ErrHashMismatch)
}

func TestProcessRejectsMessageForOtherTransaction(t *testing.T) {
	f := newGateway(true)
	s := newSignedEnvelope(t)
	other := newSignedEnvelope(t)

	s.envelope.Message = other.envelope.Message

	_, err := f.gateway.Process(context.Background(), s.envelope)
	require.ErrorIs(t, err, transfer.ErrHashMismatch)
}

func TestProcessWrongSignerIsSignatureInvalid(t *testing.T) {
	f := newGateway(true)
	s := newSignedEnvelope(t)

	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	s.envelope.Signature, err = transfer.SignMessage(s.envelope.Message, other)
	require.NoError(t, err)

	res, err := f.gateway.Process(context.Background(), s.envelope)
	require.ErrorIs(t, err, transfer.ErrSignatureInvalid)
	assert.Equal(t, transfer.KindSignatureInvalid, res.Kind)
	assert.Empty(t, f.chain.sent)
}

func TestProcessMalformedSignature(t *testing.T) {
	f := newGateway(true)
	s := newSignedEnvelope(t)
	s.envelope.Signature = "0xzz"

	_, err := f.gateway.Process(context.Background(), s.envelope)
	require.ErrorIs(t, err, transfer.ErrSignatureInvalid)
}

func TestProcessRejectsReplay(t *testing.T) {
	f := newGateway(true)
	s := newSignedEnvelope(t)

	_, err := f.gateway.Process(context.Background(), s.envelope)
	require.NoError(t, err)

	res, err := f.gateway.Process(context.Background(), s.envelope)
	require.ErrorIs(t, err, transfer.ErrReplayed)
	assert.Equal(t, transfer.KindReplayed, res.Kind)
	assert.Len(t, f.chain.sent, 1)
}

func TestProcessRPCUnavailable(t *testing.T) {
	f := newGateway(false)
	s := newSignedEnvelope(t)

	res, err := f.gateway.Process(context.Background(), s.envelope)
	require.ErrorIs(t, err, transfer.ErrRPCUnavailable)
	assert.Equal(t, transfer.KindRPCUnavailable, res.Kind)
	assert.Empty(t, f.chain.sent)

	// the reservation was released, a retry is not a replay
	ok, err := f.replay.Reserve(context.Background(), transfer.Hash(s.tx))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProcessBroadcastFailed(t *testing.T) {
	f := newGateway(true)
	f.chain.sendErr = errors.New("insufficient funds for gas * price + value")
	s := newSignedEnvelope(t)

	res, err := f.gateway.Process(context.Background(), s.envelope)
	require.ErrorIs(t, err, transfer.ErrBroadcastFailed)
	assert.Contains(t, res.Reason, "insufficient funds")

	f.chain.sendErr = nil

	res, err = f.gateway.Process(context.Background(), s.envelope)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestProcessRawTransaction(t *testing.T) {
	f := newGateway(true)
	s := newSignedEnvelope(t)
	s.envelope.RawTransaction = s.signRaw(t, nil)

	res, err := f.gateway.Process(context.Background(), s.envelope)
	require.NoError(t, err)
	assert.True(t, res.Success)

	require.Len(t, f.chain.raw, 1)
	assert.Empty(t, f.chain.sent)
	assert.Equal(t, f.chain.raw[0].Hash().Hex(), res.TxHash)
}

func TestProcessRawTransactionMismatch(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.DynamicFeeTx)
	}{
		{"nonce", func(tx *types.DynamicFeeTx) { tx.Nonce++ }},
		{"gas", func(tx *types.DynamicFeeTx) { tx.Gas = 21000 }},
		{"value", func(tx *types.DynamicFeeTx) { tx.Value = big.NewInt(1) }},
		{"fee", func(tx *types.DynamicFeeTx) {
			tx.GasFeeCap = big.NewInt(1)
			tx.GasTipCap = big.NewInt(1)
		}},
		{"to", func(tx *types.DynamicFeeTx) {
			to := common.HexToAddress("0x6666666666666666666666666666666666666666")
			tx.To = &to
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGateway(true)
			s := newSignedEnvelope(t)
			s.envelope.RawTransaction = s.signRaw(t, tt.mutate)

			_, err := f.gateway.Process(context.Background(), s.envelope)
			require.ErrorIs(t, err, transfer.ErrHashMismatch)
			assert.Empty(t, f.chain.raw)
		})
	}
}

func TestProcessRawTransactionWrongSigner(t *testing.T) {
	f := newGateway(true)
	s := newSignedEnvelope(t)

	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	s.key = other
	s.envelope.RawTransaction = s.signRaw(t, nil)

	_, err = f.gateway.Process(context.Background(), s.envelope)
	require.ErrorIs(t, err, transfer.ErrSignatureInvalid)
	assert.Empty(t, f.chain.raw)
}

func TestProcessRawTransactionGarbage(t *testing.T) {
	f := newGateway(true)
	s := newSignedEnvelope(t)
	s.envelope.RawTransaction = "0x02deadbeef"

	_, err := f.gateway.Process(context.Background(), s.envelope)
	require.ErrorIs(t, err, transfer.ErrInvalidTransaction)
}
