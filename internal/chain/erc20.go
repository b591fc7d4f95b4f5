package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/transfer-relay/internal/transfer"
)

// TokenInfo is the ERC20 metadata shown next to a balance.
type TokenInfo struct {
	Address  common.Address
	Name     string
	Symbol   string
	Decimals uint8
}

// TokenDecimals calls decimals() on token.
func (c *Client) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	var decimals uint8
	if err := c.callERC20(ctx, token, "decimals", &decimals); err != nil {
		return 0, err
	}

	return decimals, nil
}

// TokenSymbol calls symbol() on token.
func (c *Client) TokenSymbol(ctx context.Context, token common.Address) (string, error) {
	var symbol string
	if err := c.callERC20(ctx, token, "symbol", &symbol); err != nil {
		return "", err
	}

	return symbol, nil
}

// TokenName calls name() on token.
func (c *Client) TokenName(ctx context.Context, token common.Address) (string, error) {
	var name string
	if err := c.callERC20(ctx, token, "name", &name); err != nil {
		return "", err
	}

	return name, nil
}

// TokenBalance calls balanceOf(owner) on token.
func (c *Client) TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	balance := new(big.Int)
	if err := c.callERC20(ctx, token, "balanceOf", &balance, owner); err != nil {
		return nil, err
	}

	return balance, nil
}

// TokenInfo reads name, symbol and decimals. The first failing call aborts,
// callers decide how to degrade.
func (c *Client) TokenInfo(ctx context.Context, token common.Address) (*TokenInfo, error) {
	info := &TokenInfo{Address: token}

	var err error
	if info.Name, err = c.TokenName(ctx, token); err != nil {
		return nil, err
	}

	if info.Symbol, err = c.TokenSymbol(ctx, token); err != nil {
		return nil, err
	}

	if info.Decimals, err = c.TokenDecimals(ctx, token); err != nil {
		return nil, err
	}

	return info, nil
}

func (c *Client) callERC20(ctx context.Context, token common.Address, method string, out any, args ...any) error {
	data, err := transfer.ERC20ABI.Pack(method, args...)
	if err != nil {
		return errors.Wrapf(err, "failed to pack %s call", method)
	}

	res, err := c.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data})
	if err != nil {
		return errors.Wrapf(err, "failed to call %s", method)
	}

	if len(res) == 0 {
		return errors.Errorf("%s returned no data, is %s a token contract?", method, token.Hex())
	}

	if err := transfer.ERC20ABI.UnpackIntoInterface(out, method, res); err != nil {
		return errors.Wrapf(err, "failed to unpack %s result", method)
	}

	return nil
}
