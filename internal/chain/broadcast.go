package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github/chapool/transfer-relay/internal/transfer"
)

// sendTxArgs mirrors the eth_sendTransaction parameter object.
type sendTxArgs struct {
	From                 common.Address  `json:"from"`
	To                   common.Address  `json:"to"`
	Gas                  hexutil.Uint64  `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	Value                *hexutil.Big    `json:"value"`
	Nonce                hexutil.Uint64  `json:"nonce"`
	Data                 hexutil.Bytes   `json:"input"`
	ChainID              *hexutil.Big    `json:"chainId"`
	Type                 *hexutil.Uint64 `json:"type,omitempty"`
}

// SendTransaction submits an unsigned transaction with eth_sendTransaction,
// the node signs it with its managed account for tx.From. No failover.
func (c *Client) SendTransaction(ctx context.Context, tx *transfer.Transaction) (common.Hash, error) {
	args := sendTxArgs{
		From:    tx.From,
		To:      tx.To,
		Gas:     hexutil.Uint64(tx.Gas),
		Value:   (*hexutil.Big)(new(big.Int)),
		Nonce:   hexutil.Uint64(tx.Nonce),
		Data:    tx.Data,
		ChainID: (*hexutil.Big)(tx.ChainID),
	}

	if tx.IsDynamicFee() {
		txType := hexutil.Uint64(types.DynamicFeeTxType)
		args.Type = &txType
		args.MaxFeePerGas = (*hexutil.Big)(tx.MaxFeePerGas)
		args.MaxPriorityFeePerGas = (*hexutil.Big)(tx.MaxPriorityFeePerGas)
	} else {
		args.GasPrice = (*hexutil.Big)(tx.GasPrice)
	}

	var hash common.Hash
	err := c.once(ctx, func(client *ethclient.Client) error {
		return client.Client().CallContext(ctx, &hash, "eth_sendTransaction", args)
	})
	if err != nil {
		return common.Hash{}, errors.Wrap(c.redact(err), "failed to send transaction")
	}

	return hash, nil
}

// SendRawTransaction submits a signed transaction with eth_sendRawTransaction.
// No failover.
func (c *Client) SendRawTransaction(ctx context.Context, signed *types.Transaction) (common.Hash, error) {
	err := c.once(ctx, func(client *ethclient.Client) error {
		return client.SendTransaction(ctx, signed)
	})
	if err != nil {
		return common.Hash{}, errors.Wrap(c.redact(err), "failed to send raw transaction")
	}

	return signed.Hash(), nil
}
