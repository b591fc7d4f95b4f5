package transfer

import (
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

const (
	signatureLength = crypto.SignatureLength
	recoveryIDIndex = crypto.RecoveryIDOffset
	legacyVOffset   = 27
)

// Verify reports whether signature is an EIP-191 personal signature over
// message by the key behind claimedAddress. It fails closed: any malformed
// input yields false.
func Verify(message string, signature string, claimedAddress string) bool {
	claimed := strings.TrimSpace(claimedAddress)
	if !common.IsHexAddress(claimed) {
		return false
	}

	signer, err := RecoverSigner(message, signature)
	if err != nil {
		return false
	}

	// comparing parsed bytes makes the check case-insensitive
	return signer == common.HexToAddress(claimed)
}

// RecoverSigner derives the address that produced signature over message.
func RecoverSigner(message string, signature string) (common.Address, error) {
	sig, err := decodeSignature(signature)
	if err != nil {
		return common.Address{}, err
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(sig[recoveryIDIndex], r, s, true) {
		return common.Address{}, errors.New("signature values out of range")
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to recover public key")
	}

	return crypto.PubkeyToAddress(*pub), nil
}

// SignMessage produces an EIP-191 personal signature with v in {27, 28}, the
// format browser wallets return from personal_sign.
func SignMessage(message string, key *ecdsa.PrivateKey) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign message")
	}

	sig[recoveryIDIndex] += legacyVOffset

	return hexutil.Encode(sig), nil
}

// decodeSignature parses a 65-byte hex signature and maps v from {27, 28} to
// the recovery id {0, 1}. Zero based v values are rejected so that a
// signature has exactly one accepted encoding.
func decodeSignature(signature string) ([]byte, error) {
	sig, err := hexutil.Decode(strings.TrimSpace(signature))
	if err != nil {
		return nil, errors.Wrap(err, "signature is not 0x-prefixed hex")
	}

	if len(sig) != signatureLength {
		return nil, errors.Errorf("signature must be %d bytes, got %d", signatureLength, len(sig))
	}

	v := sig[recoveryIDIndex]
	if v != legacyVOffset && v != legacyVOffset+1 {
		return nil, errors.Errorf("invalid signature v %d, expected 27 or 28", v)
	}
	sig[recoveryIDIndex] = v - legacyVOffset

	return sig, nil
}
