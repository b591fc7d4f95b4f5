package transfer

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Transaction is an unsigned ERC20 transfer transaction. It is treated as
// immutable once hashed.
type Transaction struct {
	From  common.Address
	To    common.Address // token contract
	Data  []byte         // encoded transfer(address,uint256) call
	Gas   uint64
	Nonce uint64

	// EIP-1559 fees, both set or both nil.
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	// Legacy fee, set only when the dynamic fees are nil.
	GasPrice *big.Int

	ChainID *big.Int
}

// IsDynamicFee reports whether the transaction uses EIP-1559 fee fields.
func (tx *Transaction) IsDynamicFee() bool {
	return tx.MaxFeePerGas != nil
}

// TransactionJSON is the wire shape of an unsigned transaction. Every numeric
// field is a string, hex ("0x..") or decimal on input and decimal on output.
type TransactionJSON struct {
	From                 string `json:"from"`
	To                   string `json:"to"`
	Data                 string `json:"data"`
	GasLimit             string `json:"gasLimit,omitempty"`
	Gas                  string `json:"gas,omitempty"`
	MaxFeePerGas         string `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas,omitempty"`
	GasPrice             string `json:"gasPrice,omitempty"`
	Nonce                string `json:"nonce"`
	ChainID              string `json:"chainId"`
}

// ToJSON renders the wire form. Integers are written in decimal.
func (tx *Transaction) ToJSON() TransactionJSON {
	out := TransactionJSON{
		From:     strings.ToLower(tx.From.Hex()),
		To:       strings.ToLower(tx.To.Hex()),
		Data:     hexutil.Encode(tx.Data),
		GasLimit: new(big.Int).SetUint64(tx.Gas).String(),
		Nonce:    new(big.Int).SetUint64(tx.Nonce).String(),
		ChainID:  bigString(tx.ChainID),
	}

	if tx.IsDynamicFee() {
		out.MaxFeePerGas = bigString(tx.MaxFeePerGas)
		out.MaxPriorityFeePerGas = bigString(tx.MaxPriorityFeePerGas)
	} else {
		out.GasPrice = bigString(tx.GasPrice)
	}

	return out
}

// MissingFields lists the required wire fields that are empty.
func (j *TransactionJSON) MissingFields() []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	check("transaction.from", j.From)
	check("transaction.to", j.To)
	check("transaction.data", j.Data)
	check("transaction.gasLimit", firstNonEmpty(j.GasLimit, j.Gas))
	check("transaction.maxFeePerGas", firstNonEmpty(j.MaxFeePerGas, j.GasPrice))
	check("transaction.nonce", j.Nonce)
	check("transaction.chainId", j.ChainID)

	return missing
}

// Parse validates the wire form and returns the typed transaction.
func (j *TransactionJSON) Parse() (*Transaction, error) {
	if missing := j.MissingFields(); len(missing) > 0 {
		return nil, NewError(KindMissingField, "missing %s", strings.Join(missing, ", "))
	}

	from, err := ParseAddress("transaction.from", j.From)
	if err != nil {
		return nil, err
	}

	to, err := ParseAddress("transaction.to", j.To)
	if err != nil {
		return nil, err
	}

	data, err := hexutil.Decode(strings.TrimSpace(j.Data))
	if err != nil {
		return nil, WrapError(err, KindInvalidTransaction, "transaction.data is not 0x-prefixed hex")
	}

	if j.GasLimit != "" && j.Gas != "" && !sameQuantity(j.GasLimit, j.Gas) {
		return nil, NewError(KindInvalidTransaction, "transaction.gasLimit and transaction.gas disagree")
	}

	gas, err := parseUint64("transaction.gasLimit", firstNonEmpty(j.GasLimit, j.Gas))
	if err != nil {
		return nil, err
	}

	nonce, err := parseUint64("transaction.nonce", j.Nonce)
	if err != nil {
		return nil, err
	}

	chainID, err := ParseQuantity("transaction.chainId", j.ChainID)
	if err != nil {
		return nil, err
	}

	tx := &Transaction{
		From:    from,
		To:      to,
		Data:    data,
		Gas:     gas,
		Nonce:   nonce,
		ChainID: chainID,
	}

	switch {
	case j.MaxFeePerGas != "" && j.GasPrice != "":
		return nil, NewError(KindInvalidTransaction, "transaction has both maxFeePerGas and gasPrice")
	case j.MaxFeePerGas != "":
		if tx.MaxFeePerGas, err = ParseQuantity("transaction.maxFeePerGas", j.MaxFeePerGas); err != nil {
			return nil, err
		}

		tx.MaxPriorityFeePerGas = new(big.Int)
		if j.MaxPriorityFeePerGas != "" {
			if tx.MaxPriorityFeePerGas, err = ParseQuantity("transaction.maxPriorityFeePerGas", j.MaxPriorityFeePerGas); err != nil {
				return nil, err
			}
		}

		if tx.MaxPriorityFeePerGas.Cmp(tx.MaxFeePerGas) > 0 {
			return nil, NewError(KindInvalidTransaction, "maxPriorityFeePerGas exceeds maxFeePerGas")
		}
	default:
		if j.MaxPriorityFeePerGas != "" {
			return nil, NewError(KindInvalidTransaction, "maxPriorityFeePerGas requires maxFeePerGas")
		}

		if tx.GasPrice, err = ParseQuantity("transaction.gasPrice", j.GasPrice); err != nil {
			return nil, err
		}
	}

	return tx, nil
}

// ParseAddress validates a 20-byte hex address.
func ParseAddress(field, s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) || !has0xPrefix(s) {
		return common.Address{}, NewError(KindInvalidAddress, "%s is not a 20-byte hex address", field)
	}

	return common.HexToAddress(s), nil
}

// ParseQuantity parses a non-negative integer given as decimal or 0x-prefixed hex.
func ParseQuantity(field, s string) (*big.Int, error) {
	s = strings.TrimSpace(s)

	var (
		v  *big.Int
		ok bool
	)

	if has0xPrefix(s) && isHexDigits(s[2:]) {
		v, ok = new(big.Int).SetString(s[2:], 16)
	} else if isDigits(s) && s != "" {
		v, ok = new(big.Int).SetString(s, base10)
	}

	if !ok {
		return nil, NewError(KindInvalidTransaction, "%s is not a non-negative integer", field)
	}

	return v, nil
}

func parseUint64(field, s string) (uint64, error) {
	v, err := ParseQuantity(field, s)
	if err != nil {
		return 0, err
	}

	if !v.IsUint64() {
		return 0, NewError(KindInvalidTransaction, "%s overflows 64 bits", field)
	}

	return v.Uint64(), nil
}

func sameQuantity(a, b string) bool {
	x, errA := ParseQuantity("a", a)
	y, errB := ParseQuantity("b", b)

	return errA == nil && errB == nil && x.Cmp(y) == 0
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func isHexDigits(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') && !(c >= 'A' && c <= 'F') {
			return false
		}
	}

	return true
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}

	return v.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}

	return ""
}
