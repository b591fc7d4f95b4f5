package transfer

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const (
	confirmationHeader = "Please sign the following transaction:"

	labelRecipient = "Recipient: "
	labelAmount    = "Amount: "
	labelDecimals  = "Decimals: "
	labelBaseUnits = "Base units: "
	labelToken     = "Token contract: "
	labelChainID   = "Chain ID: "
	labelHash      = "Transaction hash: "
)

// ConfirmationFields are the values a user must see before signing.
type ConfirmationFields struct {
	Recipient common.Address
	Amount    string // human readable, as entered after truncation
	Decimals  uint8
	BaseUnits *big.Int
	Token     common.Address
	ChainID   *big.Int
}

// RenderConfirmation formats the message the wallet is asked to sign. Every
// field lives on its own labelled line at a fixed position and the content
// hash closes the message, so two different transactions never render alike.
func RenderConfirmation(f ConfirmationFields, hash common.Hash) string {
	var b strings.Builder

	b.WriteString(confirmationHeader)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s%s\n", labelRecipient, f.Recipient.Hex())
	fmt.Fprintf(&b, "%s%s\n", labelAmount, f.Amount)
	fmt.Fprintf(&b, "%s%d\n", labelDecimals, f.Decimals)
	fmt.Fprintf(&b, "%s%s\n", labelBaseUnits, bigString(f.BaseUnits))
	fmt.Fprintf(&b, "%s%s\n", labelToken, f.Token.Hex())
	fmt.Fprintf(&b, "%s%s\n", labelChainID, bigString(f.ChainID))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s%s", labelHash, hash.Hex())

	return b.String()
}

// ParseConfirmation is the strict inverse of RenderConfirmation. Any deviation
// from the rendered layout is a HashMismatch, the message is not bound to a
// transaction the relay can recognise.
func ParseConfirmation(message string) (ConfirmationFields, common.Hash, error) {
	var fields ConfirmationFields

	fail := func(format string, args ...any) (ConfirmationFields, common.Hash, error) {
		return ConfirmationFields{}, common.Hash{}, NewError(KindHashMismatch, "confirmation message: "+format, args...)
	}

	lines := strings.Split(message, "\n")

	const expectedLines = 10
	if len(lines) != expectedLines || lines[0] != confirmationHeader || lines[1] != "" || lines[8] != "" {
		return fail("unexpected layout")
	}

	value := func(line, label string) (string, bool) {
		if !strings.HasPrefix(line, label) {
			return "", false
		}

		return strings.TrimPrefix(line, label), true
	}

	recipient, ok := value(lines[2], labelRecipient)
	if !ok || !common.IsHexAddress(recipient) {
		return fail("bad recipient line")
	}
	fields.Recipient = common.HexToAddress(recipient)

	if fields.Amount, ok = value(lines[3], labelAmount); !ok {
		return fail("bad amount line")
	}

	if _, _, err := splitDecimal(fields.Amount); err != nil {
		return fail("bad amount line")
	}

	decimals, ok := value(lines[4], labelDecimals)
	if !ok || !isDigits(decimals) || decimals == "" || len(decimals) > 2 {
		return fail("bad decimals line")
	}

	d, _ := strconv.Atoi(decimals)
	if d > MaxDecimals || strconv.Itoa(d) != decimals {
		return fail("bad decimals line")
	}
	fields.Decimals = uint8(d)

	baseUnits, ok := value(lines[5], labelBaseUnits)
	if !ok || !isDigits(baseUnits) || baseUnits == "" {
		return fail("bad base units line")
	}
	fields.BaseUnits, _ = new(big.Int).SetString(baseUnits, base10)

	token, ok := value(lines[6], labelToken)
	if !ok || !common.IsHexAddress(token) {
		return fail("bad token line")
	}
	fields.Token = common.HexToAddress(token)

	chainID, ok := value(lines[7], labelChainID)
	if !ok || !isDigits(chainID) || chainID == "" {
		return fail("bad chain id line")
	}
	fields.ChainID, _ = new(big.Int).SetString(chainID, base10)

	hashText, ok := value(lines[9], labelHash)
	if !ok {
		return fail("bad hash line")
	}

	hash, err := ParseHash(hashText)
	if err != nil {
		return fail("bad hash line")
	}

	return fields, hash, nil
}

// CheckBinding verifies that a parsed confirmation describes tx and hash.
func CheckBinding(tx *Transaction, hash common.Hash, message string) error {
	fields, messageHash, err := ParseConfirmation(message)
	if err != nil {
		return err
	}

	if messageHash != hash {
		return NewError(KindHashMismatch, "confirmation message embeds a different hash")
	}

	recipient, amount, err := DecodeTransfer(tx.Data)
	if err != nil {
		return err
	}

	if !amountMatches(fields) {
		return NewError(KindHashMismatch, "confirmation message shows an amount that differs from its base units")
	}

	switch {
	case fields.Recipient != recipient:
		return NewError(KindHashMismatch, "confirmation message shows a different recipient")
	case fields.BaseUnits.Cmp(amount) != 0:
		return NewError(KindHashMismatch, "confirmation message shows a different amount")
	case fields.Token != tx.To:
		return NewError(KindHashMismatch, "confirmation message shows a different token contract")
	case tx.ChainID == nil || fields.ChainID.Cmp(tx.ChainID) != 0:
		return NewError(KindHashMismatch, "confirmation message shows a different chain id")
	}

	return nil
}

// amountMatches reports whether the human readable amount denotes exactly the
// base units, with no fractional digits beyond the token precision.
func amountMatches(f ConfirmationFields) bool {
	_, frac, err := splitDecimal(f.Amount)
	if err != nil || len(frac) > int(f.Decimals) {
		return false
	}

	shown, err := ToBaseUnits(f.Amount, f.Decimals)
	if err != nil {
		return false
	}

	return shown.Cmp(f.BaseUnits) == 0
}
