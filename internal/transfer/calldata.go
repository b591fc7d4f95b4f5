package transfer

import (
	"bytes"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

const erc20ABIJSON = `[
	{"type":"function","name":"transfer","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"decimals","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"symbol","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"name","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"string"}]}
]`

const uint256Bits = 256

// ERC20ABI covers the subset of the ERC20 interface used by the relay.
var ERC20ABI = mustParseABI(erc20ABIJSON)

// TransferSelector is the 4-byte selector of transfer(address,uint256), 0xa9059cbb.
var TransferSelector = ERC20ABI.Methods["transfer"].ID

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}

	return parsed
}

// EncodeTransfer returns selector || left-padded recipient || 32-byte big-endian amount.
func EncodeTransfer(recipient common.Address, amount *big.Int) ([]byte, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, NewError(KindInvalidAmountFormat, "amount must be non-negative")
	}

	if amount.BitLen() > uint256Bits {
		return nil, NewError(KindInvalidAmountFormat, "amount does not fit in uint256")
	}

	data, err := ERC20ABI.Pack("transfer", recipient, amount)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack transfer call")
	}

	return data, nil
}

// DecodeTransfer extracts recipient and amount from transfer calldata. The
// input must be exactly the canonical encoding EncodeTransfer produces.
func DecodeTransfer(data []byte) (common.Address, *big.Int, error) {
	const wordSize = 32

	if len(data) != len(TransferSelector)+2*wordSize || !bytes.Equal(data[:len(TransferSelector)], TransferSelector) {
		return common.Address{}, nil, NewError(KindInvalidTransaction, "data is not an ERC20 transfer call")
	}

	values, err := ERC20ABI.Methods["transfer"].Inputs.Unpack(data[len(TransferSelector):])
	if err != nil {
		return common.Address{}, nil, WrapError(err, KindInvalidTransaction, "data is not an ERC20 transfer call")
	}

	recipient, okAddr := values[0].(common.Address)
	amount, okAmount := values[1].(*big.Int)
	if !okAddr || !okAmount {
		return common.Address{}, nil, NewError(KindInvalidTransaction, "data is not an ERC20 transfer call")
	}

	// reject non-zero padding in the address word
	reencoded, err := EncodeTransfer(recipient, amount)
	if err != nil || !bytes.Equal(reencoded, data) {
		return common.Address{}, nil, NewError(KindInvalidTransaction, "transfer call is not canonically encoded")
	}

	return recipient, amount, nil
}
