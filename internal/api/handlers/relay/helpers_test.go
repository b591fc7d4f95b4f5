package relay_test

import (
	"crypto/ecdsa"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"github/chapool/transfer-relay/internal/api"
	"github/chapool/transfer-relay/internal/relay"
	"github/chapool/transfer-relay/internal/test"
	"github/chapool/transfer-relay/internal/transfer"
	"github/chapool/transfer-relay/internal/types"
)

const (
	testToken     = "0x5555555555555555555555555555555555555555"
	testRecipient = "0x7777777777777777777777777777777777777777"
)

func newKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	return key
}

func prepare(t *testing.T, s *api.Server, key *ecdsa.PrivateKey, amount string) types.PrepareResponse {
	t.Helper()

	res := test.PerformRequest(t, s, http.MethodPost, "/prepare", types.PostPreparePayload{
		From:   crypto.PubkeyToAddress(key.PublicKey).Hex(),
		To:     testRecipient,
		Token:  testToken,
		Amount: amount,
	}, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var prepared types.PrepareResponse
	test.ParseResponseBody(t, res, &prepared)

	return prepared
}

// signedEnvelope prepares a transfer through the API and signs its
// confirmation message with key.
func signedEnvelope(t *testing.T, s *api.Server, key *ecdsa.PrivateKey) *relay.Envelope {
	t.Helper()

	prepared := prepare(t, s, key, "1.5")

	signature, err := transfer.SignMessage(prepared.Message, key)
	require.NoError(t, err)

	return &relay.Envelope{
		Transaction: prepared.Transaction,
		Signature:   signature,
		TxHash:      prepared.TxHash,
		Message:     prepared.Message,
	}
}
