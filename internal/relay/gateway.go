package relay

import (
	"bytes"
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"github/chapool/transfer-relay/internal/transfer"
	"github/chapool/transfer-relay/internal/util"
)

// State of an envelope inside the gateway.
type State string

const (
	StateReceived          State = "received"
	StateValidated         State = "validated"
	StateHashVerified      State = "hash_verified"
	StateSignatureVerified State = "signature_verified"
	StateBroadcast         State = "broadcast"
	StateCompleted         State = "completed"
	StateRejected          State = "rejected"
)

// Broadcaster submits transactions to the chain.
type Broadcaster interface {
	SendTransaction(ctx context.Context, tx *transfer.Transaction) (common.Hash, error)
	SendRawTransaction(ctx context.Context, signed *types.Transaction) (common.Hash, error)
}

// Readiness gates broadcasts on RPC health.
type Readiness interface {
	Ready(ctx context.Context) bool
}

// ReplayGuard makes envelopes single-use. Reserve reports false when key was
// already reserved or broadcast.
type ReplayGuard interface {
	Reserve(ctx context.Context, key common.Hash) (bool, error)
	Release(ctx context.Context, key common.Hash) error
	Mark(ctx context.Context, key common.Hash, txHash common.Hash) error
}

type GatewayConfig struct {
	ChainID *big.Int
}

// Gateway validates signed envelopes and forwards them to the chain. It keeps
// no per-request state.
type Gateway struct {
	chain  Broadcaster
	ready  Readiness
	replay ReplayGuard
	config GatewayConfig
}

func NewGateway(chain Broadcaster, ready Readiness, replay ReplayGuard, config GatewayConfig) *Gateway {
	return &Gateway{
		chain:  chain,
		ready:  ready,
		replay: replay,
		config: config,
	}
}

// Process runs env through validation, binding and signature checks and
// broadcasts it. The returned result is never nil, err is the classified
// failure when result.Success is false.
func (g *Gateway) Process(ctx context.Context, env *Envelope) (*BroadcastResult, error) {
	log := util.LogFromContext(ctx).With().Str("component", "relay_gateway").Logger()
	log.Debug().Str("state", string(StateReceived)).Msg("Envelope received")

	txHash, err := g.process(ctx, &log, env)
	if err != nil {
		log.Info().
			Str("state", string(StateRejected)).
			Str("kind", string(transfer.KindOf(err))).
			Err(err).
			Msg("Envelope rejected")
		return failed(err), err
	}

	log.Info().
		Str("state", string(StateCompleted)).
		Str("tx_hash", txHash.Hex()).
		Msg("Envelope broadcast")

	return &BroadcastResult{Success: true, TxHash: txHash.Hex()}, nil
}

func (g *Gateway) process(ctx context.Context, log *zerolog.Logger, env *Envelope) (common.Hash, error) {
	if env == nil {
		return common.Hash{}, transfer.NewError(transfer.KindMissingField, "missing envelope")
	}

	if missing := env.MissingFields(); len(missing) > 0 {
		return common.Hash{}, transfer.NewError(transfer.KindMissingField, "missing %s", strings.Join(missing, ", "))
	}

	tx, err := env.Transaction.Parse()
	if err != nil {
		return common.Hash{}, err
	}

	if g.config.ChainID != nil && tx.ChainID.Cmp(g.config.ChainID) != 0 {
		return common.Hash{}, transfer.NewError(transfer.KindInvalidTransaction,
			"chain id %s is not served by this relay, expected %s", tx.ChainID, g.config.ChainID)
	}

	log.Debug().Str("state", string(StateValidated)).Msg("Envelope validated")

	claimed, err := transfer.ParseHash(env.TxHash)
	if err != nil {
		return common.Hash{}, err
	}

	hash := transfer.Hash(tx)
	if hash != claimed {
		return common.Hash{}, transfer.NewError(transfer.KindHashMismatch, "txHash does not match the transaction")
	}

	if err := transfer.CheckBinding(tx, hash, env.Message); err != nil {
		return common.Hash{}, err
	}

	log.Debug().Str("state", string(StateHashVerified)).Str("content_hash", hash.Hex()).Msg("Envelope hash verified")

	if !transfer.Verify(env.Message, env.Signature, env.Transaction.From) {
		return common.Hash{}, transfer.NewError(transfer.KindSignatureInvalid, "signature was not produced by %s", tx.From.Hex())
	}

	var signed *types.Transaction
	if env.RawTransaction != "" {
		if signed, err = matchRawTransaction(env.RawTransaction, tx); err != nil {
			return common.Hash{}, err
		}
	}

	log.Debug().Str("state", string(StateSignatureVerified)).Msg("Envelope signature verified")

	ok, err := g.replay.Reserve(ctx, hash)
	if err != nil {
		return common.Hash{}, transfer.WrapError(err, transfer.KindRPCUnavailable, "replay store unavailable")
	}

	if !ok {
		return common.Hash{}, transfer.NewError(transfer.KindReplayed, "transaction %s was already submitted", hash.Hex())
	}

	txHash, err := g.broadcast(ctx, log, tx, signed)
	if err != nil {
		if rerr := g.replay.Release(ctx, hash); rerr != nil {
			log.Warn().Err(rerr).Msg("Failed to release replay reservation")
		}

		return common.Hash{}, err
	}

	if err := g.replay.Mark(ctx, hash, txHash); err != nil {
		log.Warn().Err(err).Msg("Failed to mark envelope as broadcast")
	}

	return txHash, nil
}

func (g *Gateway) broadcast(ctx context.Context, log *zerolog.Logger, tx *transfer.Transaction, signed *types.Transaction) (common.Hash, error) {
	if !g.ready.Ready(ctx) {
		return common.Hash{}, transfer.NewError(transfer.KindRPCUnavailable, "RPC endpoint is not reachable")
	}

	log.Debug().Str("state", string(StateBroadcast)).Bool("raw", signed != nil).Msg("Broadcasting transaction")

	var (
		txHash common.Hash
		err    error
	)

	if signed != nil {
		txHash, err = g.chain.SendRawTransaction(ctx, signed)
	} else {
		txHash, err = g.chain.SendTransaction(ctx, tx)
	}

	if err != nil {
		return common.Hash{}, transfer.WrapError(err, transfer.KindBroadcastFailed, err.Error())
	}

	return txHash, nil
}

// matchRawTransaction decodes raw and requires it to be exactly tx, signed by
// tx.From.
func matchRawTransaction(raw string, tx *transfer.Transaction) (*types.Transaction, error) {
	b, err := hexutil.Decode(strings.TrimSpace(raw))
	if err != nil {
		return nil, transfer.WrapError(err, transfer.KindInvalidTransaction, "rawTransaction is not 0x-prefixed hex")
	}

	signed := new(types.Transaction)
	if err := signed.UnmarshalBinary(b); err != nil {
		return nil, transfer.WrapError(err, transfer.KindInvalidTransaction, "rawTransaction is not a valid transaction")
	}

	mismatch := func(field string) error {
		return transfer.NewError(transfer.KindHashMismatch, "rawTransaction %s differs from the signed transaction", field)
	}

	switch {
	case signed.ChainId().Cmp(tx.ChainID) != 0:
		return nil, mismatch("chainId")
	case signed.To() == nil || *signed.To() != tx.To:
		return nil, mismatch("to")
	case signed.Value().Sign() != 0:
		return nil, mismatch("value")
	case !bytes.Equal(signed.Data(), tx.Data):
		return nil, mismatch("data")
	case signed.Gas() != tx.Gas:
		return nil, mismatch("gasLimit")
	case signed.Nonce() != tx.Nonce:
		return nil, mismatch("nonce")
	}

	if tx.IsDynamicFee() {
		if signed.Type() != types.DynamicFeeTxType ||
			signed.GasFeeCap().Cmp(tx.MaxFeePerGas) != 0 ||
			signed.GasTipCap().Cmp(tx.MaxPriorityFeePerGas) != 0 {
			return nil, mismatch("fees")
		}
	} else if signed.Type() != types.LegacyTxType || signed.GasPrice().Cmp(tx.GasPrice) != 0 {
		return nil, mismatch("gasPrice")
	}

	sender, err := types.Sender(types.LatestSignerForChainID(tx.ChainID), signed)
	if err != nil {
		return nil, transfer.WrapError(err, transfer.KindSignatureInvalid, "rawTransaction signature is invalid")
	}

	if sender != tx.From {
		return nil, transfer.NewError(transfer.KindSignatureInvalid, "rawTransaction is signed by %s", sender.Hex())
	}

	return signed, nil
}
