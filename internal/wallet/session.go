package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/transfer-relay/internal/relay"
	"github/chapool/transfer-relay/internal/transfer"
	"github/chapool/transfer-relay/internal/types"
	"github/chapool/transfer-relay/internal/util"
)

// Relay is the relay API a session talks to.
type Relay interface {
	CheckRPC(ctx context.Context) (*types.CheckRPCResponse, error)
	Prepare(ctx context.Context, payload types.PostPreparePayload) (*types.PrepareResponse, error)
	Broadcast(ctx context.Context, env *relay.Envelope) (*types.BroadcastResponse, error)
}

// Session is one connected wallet. It is passed explicitly, there is no
// package level wallet state.
type Session struct {
	Provider Provider
	Account  common.Address
	ChainID  *big.Int
	Relay    Relay
}

// Connect detects provider, requests its accounts and checks that it is on
// chainID.
func Connect(ctx context.Context, provider Provider, relayAPI Relay, chainID *big.Int) (*Session, error) {
	if !provider.Detect(ctx) {
		return nil, errors.Wrapf(ErrNotInstalled, "please install %s", provider.Kind().DisplayName())
	}

	accounts, err := provider.RequestAccounts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to request accounts")
	}

	if len(accounts) == 0 {
		return nil, transfer.NewError(transfer.KindWalletRejected, "the wallet returned no accounts")
	}

	walletChainID, err := provider.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get wallet chain id")
	}

	if chainID != nil && walletChainID.Cmp(chainID) != 0 {
		return nil, transfer.NewError(transfer.KindInvalidTransaction,
			"wallet is on chain %s, switch to chain %s", walletChainID, chainID)
	}

	util.LogFromContext(ctx).Info().
		Str("wallet", string(provider.Kind())).
		Str("account", accounts[0].Hex()).
		Msg("Wallet connected")

	return &Session{
		Provider: provider,
		Account:  accounts[0],
		ChainID:  walletChainID,
		Relay:    relayAPI,
	}, nil
}

// TransferResult is a successful transfer.
type TransferResult struct {
	TxHash   string
	Prepared *transfer.Prepared
}

// Transfer checks the relay's RPC, prepares the transaction, verifies the
// relay's answer, asks the wallet to sign and submits the envelope.
func (s *Session) Transfer(ctx context.Context, recipient, token, amount string) (*TransferResult, error) {
	log := util.LogFromContext(ctx).With().Str("component", "wallet_session").Logger()

	status, err := s.Relay.CheckRPC(ctx)
	if err != nil {
		return nil, err
	}

	if !status.Connected {
		return nil, transfer.NewError(transfer.KindRPCUnavailable, "relay cannot reach the chain: %s", status.Error)
	}

	res, err := s.Relay.Prepare(ctx, types.PostPreparePayload{
		From:   s.Account.Hex(),
		To:     recipient,
		Token:  token,
		Amount: amount,
	})
	if err != nil {
		return nil, err
	}

	prepared, err := s.verifyPrepared(res, recipient, token, amount)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("content_hash", prepared.Hash.Hex()).Msg("Requesting signature")

	signature, err := s.Provider.SignMessage(ctx, s.Account, prepared.Message)
	if err != nil {
		return nil, classifyProviderError(err)
	}

	env := &relay.Envelope{
		Transaction: res.Transaction,
		Signature:   signature,
		TxHash:      prepared.Hash.Hex(),
		Message:     prepared.Message,
	}

	if signer, ok := s.Provider.(TransactionSigner); ok {
		if env.RawTransaction, err = signer.SignTransaction(ctx, prepared.Transaction); err != nil {
			return nil, classifyProviderError(err)
		}
	}

	out, err := s.Relay.Broadcast(ctx, env)
	if err != nil {
		return nil, err
	}

	log.Info().Str("tx_hash", out.TxHash).Msg("Transfer broadcast")

	return &TransferResult{TxHash: out.TxHash, Prepared: prepared}, nil
}

// verifyPrepared recomputes what the relay prepared so the wallet only ever
// signs a message that matches the request.
func (s *Session) verifyPrepared(res *types.PrepareResponse, recipient, token, amount string) (*transfer.Prepared, error) {
	tx, err := res.Transaction.Parse()
	if err != nil {
		return nil, err
	}

	wantRecipient, err := transfer.ParseAddress("to", recipient)
	if err != nil {
		return nil, err
	}

	wantToken, err := transfer.ParseAddress("token", token)
	if err != nil {
		return nil, err
	}

	wantAmount, err := transfer.ToBaseUnits(amount, res.Decimals)
	if err != nil {
		return nil, err
	}

	wantDisplay, err := transfer.TruncateAmount(amount, res.Decimals)
	if err != nil {
		return nil, err
	}

	claimedHash, err := transfer.ParseHash(res.TxHash)
	if err != nil {
		return nil, err
	}

	prepared, err := transfer.Prepare(tx, res.Amount, res.Decimals)
	if err != nil {
		return nil, err
	}

	gotRecipient, gotAmount, err := transfer.DecodeTransfer(tx.Data)
	if err != nil {
		return nil, err
	}

	switch {
	case tx.From != s.Account:
		return nil, transfer.NewError(transfer.KindHashMismatch, "prepared transaction is from %s", tx.From.Hex())
	case tx.To != wantToken:
		return nil, transfer.NewError(transfer.KindHashMismatch, "prepared transaction targets token %s", tx.To.Hex())
	case gotRecipient != wantRecipient:
		return nil, transfer.NewError(transfer.KindHashMismatch, "prepared transaction pays %s", gotRecipient.Hex())
	case gotAmount.Cmp(wantAmount) != 0:
		return nil, transfer.NewError(transfer.KindHashMismatch, "prepared transaction transfers %s base units", gotAmount)
	case res.Amount != wantDisplay:
		return nil, transfer.NewError(transfer.KindHashMismatch, "prepared confirmation shows amount %q", res.Amount)
	case s.ChainID != nil && tx.ChainID.Cmp(s.ChainID) != 0:
		return nil, transfer.NewError(transfer.KindHashMismatch, "prepared transaction is for chain %s", tx.ChainID)
	case prepared.Hash != claimedHash || prepared.Message != res.Message:
		return nil, transfer.NewError(transfer.KindHashMismatch, "relay returned an inconsistent hash or message")
	}

	return prepared, nil
}
