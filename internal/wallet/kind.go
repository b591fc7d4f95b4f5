package wallet

import (
	"strings"

	"github.com/pkg/errors"
)

// Kind is the closed set of supported wallets.
type Kind string

const (
	KindBinance  Kind = "binance"
	KindMetaMask Kind = "metamask"
	KindOKX      Kind = "okx"
	KindLocal    Kind = "local"
)

// Kinds lists every wallet kind in detection order.
func Kinds() []Kind {
	return []Kind{KindBinance, KindMetaMask, KindOKX, KindLocal}
}

// ParseKind accepts a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}

	return "", errors.Errorf("unsupported wallet %q", s)
}

// DisplayName is the name shown to users.
func (k Kind) DisplayName() string {
	switch k {
	case KindBinance:
		return "Binance Web3 Wallet"
	case KindMetaMask:
		return "MetaMask"
	case KindOKX:
		return "OKX Wallet"
	case KindLocal:
		return "Local key"
	default:
		return "Unknown wallet"
	}
}

// IsInjected reports whether the wallet lives in a browser and is reached
// through an Injector.
func (k Kind) IsInjected() bool {
	return k == KindBinance || k == KindMetaMask || k == KindOKX
}
