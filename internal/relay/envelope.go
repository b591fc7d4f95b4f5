package relay

import (
	"strings"

	"github/chapool/transfer-relay/internal/transfer"
)

// Envelope is the body of a broadcast request.
type Envelope struct {
	Transaction transfer.TransactionJSON `json:"transaction"`
	Signature   string                   `json:"signature"`
	TxHash      string                   `json:"txHash"`
	Message     string                   `json:"message"`
	// RawTransaction optionally carries the same transaction signed by the
	// sender, it is sent with eth_sendRawTransaction instead of asking the node
	// to sign.
	RawTransaction string `json:"rawTransaction,omitempty"`
}

// MissingFields lists the required fields that are empty, transaction fields
// included.
func (e *Envelope) MissingFields() []string {
	missing := e.Transaction.MissingFields()

	if strings.TrimSpace(e.Signature) == "" {
		missing = append(missing, "signature")
	}

	if strings.TrimSpace(e.TxHash) == "" {
		missing = append(missing, "txHash")
	}

	if e.Message == "" {
		missing = append(missing, "message")
	}

	return missing
}

// BroadcastResult is the outcome of processing one envelope.
type BroadcastResult struct {
	Success bool
	TxHash  string
	Kind    transfer.ErrorKind
	Reason  string
}

func failed(err error) *BroadcastResult {
	return &BroadcastResult{
		Kind:   transfer.KindOf(err),
		Reason: transfer.ReasonOf(err),
	}
}
