package transfer

import (
	"bytes"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// CanonicalBytes serializes tx into the canonical form the content hash is
// computed over: a compact JSON object whose keys appear in lexicographic order
// and whose values are all strings. Integers are base-10 without leading zeros,
// addresses and data are 0x-prefixed lowercase hex.
//
// EIP-1559 transactions carry maxFeePerGas and maxPriorityFeePerGas, legacy
// transactions carry gasPrice instead. The output is written field by field so
// it never depends on a marshaller's key ordering.
func CanonicalBytes(tx *Transaction) []byte {
	var buf bytes.Buffer

	fields := [][2]string{
		{"chainId", bigString(tx.ChainID)},
		{"data", hexutil.Encode(tx.Data)},
		{"from", lowerHex(tx.From)},
		{"gasLimit", new(big.Int).SetUint64(tx.Gas).String()},
	}

	if tx.IsDynamicFee() {
		fields = append(fields,
			[2]string{"maxFeePerGas", bigString(tx.MaxFeePerGas)},
			[2]string{"maxPriorityFeePerGas", bigString(tx.MaxPriorityFeePerGas)},
		)
	} else {
		fields = append(fields, [2]string{"gasPrice", bigString(tx.GasPrice)})
	}

	fields = append(fields,
		[2]string{"nonce", new(big.Int).SetUint64(tx.Nonce).String()},
		[2]string{"to", lowerHex(tx.To)},
	)

	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}

		// keys and values are restricted to [0-9a-zA-Z], no escaping needed
		buf.WriteByte('"')
		buf.WriteString(f[0])
		buf.WriteString(`":"`)
		buf.WriteString(f[1])
		buf.WriteByte('"')
	}
	buf.WriteByte('}')

	return buf.Bytes()
}

// Hash returns keccak256(CanonicalBytes(tx)).
func Hash(tx *Transaction) common.Hash {
	return crypto.Keccak256Hash(CanonicalBytes(tx))
}

// ParseHash parses a 0x-prefixed 32-byte hex digest.
func ParseHash(s string) (common.Hash, error) {
	s = strings.TrimSpace(s)

	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, NewError(KindHashMismatch, "txHash is not a 32-byte hex digest")
	}

	return common.BytesToHash(b), nil
}

func lowerHex(a common.Address) string {
	return strings.ToLower(a.Hex())
}
