package wallet

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github/chapool/transfer-relay/internal/transfer"
)

// LocalProvider signs with a private key held in process. Used by the CLI and
// tests in place of a browser wallet.
type LocalProvider struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
}

func NewLocalProvider(key *ecdsa.PrivateKey, chainID *big.Int) *LocalProvider {
	return &LocalProvider{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
	}
}

// ParsePrivateKey parses a hex private key with or without 0x prefix.
func ParsePrivateKey(s string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse private key")
	}

	return key, nil
}

// LoadKeystore decrypts a keystore v3 file.
func LoadKeystore(path string, password string) (*ecdsa.PrivateKey, error) {
	keyJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read keystore file")
	}

	key, err := keystore.DecryptKey(keyJSON, password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decrypt keystore")
	}

	return key.PrivateKey, nil
}

func (p *LocalProvider) Kind() Kind {
	return KindLocal
}

func (p *LocalProvider) Detect(context.Context) bool {
	return p.key != nil
}

func (p *LocalProvider) RequestAccounts(context.Context) ([]common.Address, error) {
	return []common.Address{p.address}, nil
}

func (p *LocalProvider) SignMessage(_ context.Context, account common.Address, message string) (string, error) {
	if account != p.address {
		return "", errors.Errorf("account %s is not managed by this key", account.Hex())
	}

	return transfer.SignMessage(message, p.key)
}

func (p *LocalProvider) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(p.chainID), nil
}

// SignTransaction signs tx and returns the 0x-prefixed binary encoding.
func (p *LocalProvider) SignTransaction(_ context.Context, tx *transfer.Transaction) (string, error) {
	if tx.From != p.address {
		return "", errors.New("from address does not match private key")
	}

	var inner types.TxData
	if tx.IsDynamicFee() {
		inner = &types.DynamicFeeTx{
			ChainID:   tx.ChainID,
			Nonce:     tx.Nonce,
			GasTipCap: tx.MaxPriorityFeePerGas,
			GasFeeCap: tx.MaxFeePerGas,
			Gas:       tx.Gas,
			To:        &tx.To,
			Value:     new(big.Int),
			Data:      tx.Data,
		}
	} else {
		inner = &types.LegacyTx{
			Nonce:    tx.Nonce,
			GasPrice: tx.GasPrice,
			Gas:      tx.Gas,
			To:       &tx.To,
			Value:    new(big.Int),
			Data:     tx.Data,
		}
	}

	signed, err := types.SignNewTx(p.key, types.LatestSignerForChainID(tx.ChainID), inner)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign transaction")
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal transaction")
	}

	return hexutil.Encode(raw), nil
}
