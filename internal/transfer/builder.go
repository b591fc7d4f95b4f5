package transfer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github/chapool/transfer-relay/internal/util"
	"golang.org/x/sync/errgroup"
)

// DefaultGasLimit is used when eth_estimateGas fails for the transfer call.
const DefaultGasLimit uint64 = 90000

// FeeData holds the fee suggestion of the node. MaxFeePerGas is nil on chains
// without EIP-1559, GasPrice is then used.
type FeeData struct {
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	GasPrice             *big.Int
}

// ChainReader is the subset of the chain client the builder needs.
type ChainReader interface {
	TokenDecimals(ctx context.Context, token common.Address) (uint8, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	FeeData(ctx context.Context) (*FeeData, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

// TransferRequest is a user initiated token transfer.
type TransferRequest struct {
	From      string
	Recipient string
	Token     string
	Amount    string
}

// Prepared is everything a client needs to ask the wallet for a signature.
type Prepared struct {
	Transaction *Transaction
	Hash        common.Hash
	Message     string
	BaseUnits   *big.Int
	Decimals    uint8
	// Amount is the entered amount after truncation to Decimals.
	Amount string
}

type BuilderConfig struct {
	ChainID         *big.Int
	DefaultGasLimit uint64
	DefaultDecimals uint8
}

// Builder assembles unsigned transfer transactions.
type Builder struct {
	chain  ChainReader
	config BuilderConfig
}

func NewBuilder(chain ChainReader, config BuilderConfig) *Builder {
	if config.DefaultGasLimit == 0 {
		config.DefaultGasLimit = DefaultGasLimit
	}

	if config.DefaultDecimals == 0 {
		config.DefaultDecimals = DefaultDecimals
	}

	return &Builder{
		chain:  chain,
		config: config,
	}
}

// ChainID is the chain the builder prepares transactions for.
func (b *Builder) ChainID() *big.Int {
	return new(big.Int).Set(b.config.ChainID)
}

// Build validates req, reads chain state and returns the unsigned transaction
// together with its content hash and confirmation message.
func (b *Builder) Build(ctx context.Context, req TransferRequest) (*Prepared, error) {
	logger := util.LogFromContext(ctx).With().Str("component", "transaction_builder").Logger()

	from, err := ParseAddress("from", req.From)
	if err != nil {
		return nil, err
	}

	recipient, err := ParseAddress("recipient", req.Recipient)
	if err != nil {
		return nil, err
	}

	token, err := ParseAddress("token", req.Token)
	if err != nil {
		return nil, err
	}

	// validate the amount format before touching the network
	if _, _, err := splitDecimal(req.Amount); err != nil {
		return nil, err
	}

	decimals, err := b.chain.TokenDecimals(ctx, token)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("token", token.Hex()).
			Uint8("fallback_decimals", b.config.DefaultDecimals).
			Msg("Failed to read token decimals, using default")
		decimals = b.config.DefaultDecimals
	}

	baseUnits, err := ToBaseUnits(req.Amount, decimals)
	if err != nil {
		return nil, err
	}

	data, err := EncodeTransfer(recipient, baseUnits)
	if err != nil {
		return nil, err
	}

	var (
		nonce uint64
		fees  *FeeData
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := b.chain.PendingNonceAt(gctx, from)
		if err != nil {
			return WrapError(err, KindRPCUnavailable, "failed to read account nonce")
		}
		nonce = n
		return nil
	})
	g.Go(func() error {
		f, err := b.chain.FeeData(gctx)
		if err != nil {
			return WrapError(err, KindRPCUnavailable, "failed to read fee data")
		}
		fees = f
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	gas, err := b.chain.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &token, Data: data})
	if err != nil || gas == 0 {
		logger.Warn().
			Err(err).
			Uint64("fallback_gas_limit", b.config.DefaultGasLimit).
			Msg("Failed to estimate transfer gas, using default")
		gas = b.config.DefaultGasLimit
	}

	tx := &Transaction{
		From:    from,
		To:      token,
		Data:    data,
		Gas:     gas,
		Nonce:   nonce,
		ChainID: new(big.Int).Set(b.config.ChainID),
	}

	if fees != nil && fees.MaxFeePerGas != nil {
		tx.MaxFeePerGas = new(big.Int).Set(fees.MaxFeePerGas)
		tx.MaxPriorityFeePerGas = new(big.Int)
		if fees.MaxPriorityFeePerGas != nil {
			tx.MaxPriorityFeePerGas.Set(fees.MaxPriorityFeePerGas)
		}
	} else {
		if fees == nil || fees.GasPrice == nil {
			return nil, NewError(KindRPCUnavailable, "node returned no fee data")
		}
		tx.GasPrice = new(big.Int).Set(fees.GasPrice)
	}

	return Prepare(tx, FormatBaseUnits(baseUnits, decimals), decimals)
}

// Prepare hashes an already assembled transfer transaction and renders its
// confirmation message. amount is the human readable amount shown to the user.
func Prepare(tx *Transaction, amount string, decimals uint8) (*Prepared, error) {
	recipient, baseUnits, err := DecodeTransfer(tx.Data)
	if err != nil {
		return nil, err
	}

	hash := Hash(tx)
	message := RenderConfirmation(ConfirmationFields{
		Recipient: recipient,
		Amount:    amount,
		Decimals:  decimals,
		BaseUnits: baseUnits,
		Token:     tx.To,
		ChainID:   tx.ChainID,
	}, hash)

	return &Prepared{
		Transaction: tx,
		Hash:        hash,
		Message:     message,
		BaseUnits:   baseUnits,
		Decimals:    decimals,
		Amount:      amount,
	}, nil
}
