package tx

import (
	"context"
	"fmt"
	"math/big"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/transfer-relay/internal/transfer"
	"github/chapool/transfer-relay/internal/wallet"
)

const defaultChainID int64 = 4200

func newTransfer() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Signs and broadcasts a transfer",
		Long: `Signs and broadcasts a transfer

Prepares the transfer through the relay, verifies the returned transaction,
signs the confirmation message and the transaction with the local key and
submits both for broadcast.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args, err := readTransferArgs(cmd)
			if err != nil {
				return err
			}

			chainID, err := cmd.Flags().GetInt64(chainIDFlag)
			if err != nil {
				return err
			}

			key, err := loadKey(cmd)
			if err != nil {
				return err
			}

			return runTransfer(cmd.Context(), args, wallet.NewLocalProvider(key, big.NewInt(chainID)))
		},
	}

	cmd.Flags().Int64(chainIDFlag, defaultChainID, "Chain id the key signs for")
	addKeyFlags(cmd)

	return cmd
}

// runTransfer prints the transaction hash on success. The relay's prepared
// transaction is checked against the provider's chain.
func runTransfer(ctx context.Context, args transferArgs, provider wallet.Provider) error {
	client := wallet.NewRelayClient(args.relayURL, args.timeout)

	session, err := wallet.Connect(ctx, provider, client, nil)
	if err != nil {
		return errors.Wrap(err, "failed to connect wallet")
	}

	res, err := session.Transfer(ctx, args.to, args.token, args.amount)
	if err != nil {
		return errors.Wrapf(err, "transfer failed (%s)", transfer.KindOf(err))
	}

	log.Info().
		Str("tx_hash", res.TxHash).
		Str("amount", res.Prepared.Amount).
		Str("content_hash", res.Prepared.Hash.Hex()).
		Msg("Transfer broadcast")

	fmt.Println(res.TxHash)

	return nil
}
