package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github/chapool/transfer-relay/internal/transfer"
)

// baseFeeMultiplier leaves room for the base fee to double before the
// transaction becomes unincludable.
const baseFeeMultiplier = 2

// BlockNumber returns the latest block height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var n uint64
	err := c.read(ctx, func(client *ethclient.Client) error {
		var err error
		n, err = client.BlockNumber(ctx)
		return err
	})
	if err != nil {
		return 0, errors.Wrap(c.redact(err), "failed to get latest block number")
	}

	return n, nil
}

// SyncProgress returns nil when the node is not syncing.
func (c *Client) SyncProgress(ctx context.Context) (*ethereum.SyncProgress, error) {
	var progress *ethereum.SyncProgress
	err := c.read(ctx, func(client *ethclient.Client) error {
		var err error
		progress, err = client.SyncProgress(ctx)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(c.redact(err), "failed to get sync progress")
	}

	return progress, nil
}

// ChainID returns the chain id reported by the node.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	err := c.read(ctx, func(client *ethclient.Client) error {
		var err error
		id, err = client.ChainID(ctx)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(c.redact(err), "failed to get chain ID")
	}

	return id, nil
}

// PendingNonceAt returns the pending nonce for account.
func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var nonce uint64
	err := c.read(ctx, func(client *ethclient.Client) error {
		var err error
		nonce, err = client.PendingNonceAt(ctx, account)
		return err
	})
	if err != nil {
		return 0, errors.Wrap(c.redact(err), "failed to get pending nonce")
	}

	return nonce, nil
}

// FeeData suggests EIP-1559 fees when the latest header carries a base fee and
// a legacy gas price otherwise.
func (c *Client) FeeData(ctx context.Context) (*transfer.FeeData, error) {
	fees := &transfer.FeeData{}

	err := c.read(ctx, func(client *ethclient.Client) error {
		header, err := client.HeaderByNumber(ctx, nil)
		if err != nil {
			return err
		}

		if header.BaseFee == nil {
			fees.GasPrice, err = client.SuggestGasPrice(ctx)
			return err
		}

		tip, err := client.SuggestGasTipCap(ctx)
		if err != nil {
			return err
		}

		fees.MaxPriorityFeePerGas = tip
		fees.MaxFeePerGas = new(big.Int).Add(
			new(big.Int).Mul(header.BaseFee, big.NewInt(baseFeeMultiplier)),
			tip,
		)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(c.redact(err), "failed to get fee data")
	}

	return fees, nil
}

// EstimateGas estimates the gas needed to execute msg.
func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	var gas uint64
	err := c.read(ctx, func(client *ethclient.Client) error {
		var err error
		gas, err = client.EstimateGas(ctx, msg)
		return err
	})
	if err != nil {
		return 0, errors.Wrap(c.redact(err), "failed to estimate gas")
	}

	return gas, nil
}

// CallContract executes a read-only call at the latest block.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	var out []byte
	err := c.read(ctx, func(client *ethclient.Client) error {
		var err error
		out, err = client.CallContract(ctx, msg, nil)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(c.redact(err), "failed to call contract")
	}

	return out, nil
}
