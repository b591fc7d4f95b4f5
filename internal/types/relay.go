package types

import "github/chapool/transfer-relay/internal/transfer"

// CheckRPCResponse is returned by GET /check-rpc.
type CheckRPCResponse struct {
	Connected   bool   `json:"connected"`
	Error       string `json:"error,omitempty"`
	Synced      bool   `json:"synced"`
	BlockNumber uint64 `json:"blockNumber"`
	Message     string `json:"message,omitempty"`
}

// BroadcastResponse is returned by POST /broadcast. Error and Code are set
// when Success is false.
type BroadcastResponse struct {
	Success bool   `json:"success"`
	TxHash  string `json:"txHash,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// PostPreparePayload is the body of POST /prepare.
type PostPreparePayload struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

// PrepareResponse carries the unsigned transaction and the confirmation
// message the wallet has to sign.
type PrepareResponse struct {
	Transaction transfer.TransactionJSON `json:"transaction"`
	TxHash      string                   `json:"txHash"`
	Message     string                   `json:"message"`
	Amount      string                   `json:"amount"`
	BaseUnits   string                   `json:"baseUnits"`
	Decimals    uint8                    `json:"decimals"`
}

// TokenResponse is returned by GET /token/:address.
type TokenResponse struct {
	Address          string `json:"address"`
	Name             string `json:"name,omitempty"`
	Symbol           string `json:"symbol,omitempty"`
	Decimals         uint8  `json:"decimals"`
	Balance          string `json:"balance,omitempty"`
	FormattedBalance string `json:"formattedBalance,omitempty"`
}

// ErrorResponse is returned by the relay endpoints on failure.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}
