package transfer_test

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/transfer-relay/internal/transfer"
)

const testMessage = "Please sign the following transaction:\n\nAmount: 1"

func TestVerify(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey)

	signature, err := transfer.SignMessage(testMessage, key)
	require.NoError(t, err)

	assert.True(t, transfer.Verify(testMessage, signature, address.Hex()))
	assert.True(t, transfer.Verify(testMessage, signature, strings.ToLower(address.Hex())))
	assert.True(t, transfer.Verify(testMessage, signature, "0x"+strings.ToUpper(address.Hex()[2:])))

	recovered, err := transfer.RecoverSigner(testMessage, signature)
	require.NoError(t, err)
	assert.Equal(t, address, recovered)
}

func TestVerifyRejectsZeroBasedRecoveryID(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	signature, err := transfer.SignMessage(testMessage, key)
	require.NoError(t, err)

	raw := hexutil.MustDecode(signature)
	raw[64] -= 27

	assert.False(t, transfer.Verify(testMessage, hexutil.Encode(raw), crypto.PubkeyToAddress(key.PublicKey).Hex()))
}

func TestVerifyWrongSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	signature, err := transfer.SignMessage(testMessage, key)
	require.NoError(t, err)

	assert.False(t, transfer.Verify(testMessage, signature, crypto.PubkeyToAddress(other.PublicKey).Hex()))
}

func TestVerifySingleByteMutations(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	signature, err := transfer.SignMessage(testMessage, key)
	require.NoError(t, err)
	raw := hexutil.MustDecode(signature)

	for i := range raw {
		mutated := append([]byte(nil), raw...)
		mutated[i] ^= 0x01
		assert.False(t, transfer.Verify(testMessage, hexutil.Encode(mutated), address), "signature byte %d", i)
	}

	for v := 0; v < 256; v++ {
		if byte(v) == raw[64] {
			continue
		}

		mutated := append([]byte(nil), raw...)
		mutated[64] = byte(v)
		assert.False(t, transfer.Verify(testMessage, hexutil.Encode(mutated), address), "v %d", v)
	}

	for i := 0; i < len(testMessage); i++ {
		mutated := []byte(testMessage)
		mutated[i] ^= 0x01
		assert.False(t, transfer.Verify(string(mutated), signature, address), "message byte %d", i)
	}
}

func TestVerifyFailsClosed(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	signature, err := transfer.SignMessage(testMessage, key)
	require.NoError(t, err)

	for name, sig := range map[string]string{
		"empty":       "",
		"not hex":     "signature",
		"no prefix":   signature[2:],
		"too short":   signature[:len(signature)-2],
		"too long":    signature + "00",
		"zeroes":      hexutil.Encode(make([]byte, 65)),
		"bad v":       signature[:len(signature)-2] + "05",
		"odd nibbles": signature + "0",
	} {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, transfer.Verify(testMessage, sig, address))
			})
		})
	}

	assert.False(t, transfer.Verify(testMessage, signature, ""))
	assert.False(t, transfer.Verify(testMessage, signature, "0x1234"))
}
