package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github/chapool/transfer-relay/internal/transfer"
)

// CodeUserRejected is the EIP-1193 error code for a request the user declined.
const CodeUserRejected = 4001

// ErrNotInstalled is returned by Connect when the wallet is not available.
var ErrNotInstalled = errors.New("wallet is not installed")

// Provider is the capability set every wallet kind implements.
type Provider interface {
	Kind() Kind
	Detect(ctx context.Context) bool
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	SignMessage(ctx context.Context, account common.Address, message string) (string, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// TransactionSigner is implemented by providers that can also sign the
// transaction itself, the relay then broadcasts it as is.
type TransactionSigner interface {
	SignTransaction(ctx context.Context, tx *transfer.Transaction) (string, error)
}

// ProviderError is an EIP-1193 provider error.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("wallet error %d: %s", e.Code, e.Message)
}

// EIP1193 is a browser wallet object as exposed on window, bridged into Go.
type EIP1193 interface {
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)
	IsMetaMask() bool
}

// Injector resolves the browser object a wallet kind injects.
type Injector interface {
	Lookup(kind Kind) (EIP1193, bool)
}

// injectedProvider talks to Binance, MetaMask and OKX through their EIP-1193
// objects.
type injectedProvider struct {
	kind     Kind
	injector Injector
}

// NewInjectedProvider returns the provider for a browser wallet kind.
func NewInjectedProvider(kind Kind, injector Injector) (Provider, error) {
	if !kind.IsInjected() {
		return nil, errors.Errorf("%s is not a browser wallet", kind)
	}

	return &injectedProvider{kind: kind, injector: injector}, nil
}

func (p *injectedProvider) Kind() Kind {
	return p.kind
}

func (p *injectedProvider) Detect(context.Context) bool {
	obj, ok := p.injector.Lookup(p.kind)
	if !ok || obj == nil {
		return false
	}

	// other wallets inject window.ethereum too
	if p.kind == KindMetaMask {
		return obj.IsMetaMask()
	}

	return true
}

func (p *injectedProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []string
	if err := p.request(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, err
	}

	out := make([]common.Address, 0, len(accounts))
	for _, a := range accounts {
		addr, err := transfer.ParseAddress("account", a)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}

	return out, nil
}

func (p *injectedProvider) SignMessage(ctx context.Context, account common.Address, message string) (string, error) {
	var signature string
	err := p.request(ctx, &signature, "personal_sign",
		hexutil.Encode([]byte(message)), strings.ToLower(account.Hex()))
	if err != nil {
		return "", err
	}

	return signature, nil
}

func (p *injectedProvider) ChainID(ctx context.Context) (*big.Int, error) {
	var id hexutil.Big
	if err := p.request(ctx, &id, "eth_chainId"); err != nil {
		return nil, err
	}

	return id.ToInt(), nil
}

func (p *injectedProvider) request(ctx context.Context, out any, method string, params ...any) error {
	obj, ok := p.injector.Lookup(p.kind)
	if !ok || obj == nil {
		return ErrNotInstalled
	}

	raw, err := obj.Request(ctx, method, params...)
	if err != nil {
		return classifyProviderError(err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "failed to decode %s result", method)
	}

	return nil
}

// classifyProviderError maps a user rejection to WalletRejected.
func classifyProviderError(err error) error {
	var perr *ProviderError
	if errors.As(err, &perr) && perr.Code == CodeUserRejected {
		return transfer.WrapError(err, transfer.KindWalletRejected, "the request was rejected in the wallet")
	}

	return err
}
