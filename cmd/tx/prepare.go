package tx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/transfer-relay/internal/transfer"
	"github/chapool/transfer-relay/internal/types"
	"github/chapool/transfer-relay/internal/wallet"
)

func newPrepare() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Prepares an unsigned transfer",
		Long: `Prepares an unsigned transfer

Asks the relay to build the transaction and prints it together with the
confirmation message a wallet has to sign. Nothing is signed or sent.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args, err := readTransferArgs(cmd)
			if err != nil {
				return err
			}

			from, err := cmd.Flags().GetString(fromFlag)
			if err != nil {
				return err
			}

			if from == "" {
				key, err := loadKey(cmd)
				if err != nil {
					return errors.Wrapf(err, "use --%s or a signing key", fromFlag)
				}
				from = crypto.PubkeyToAddress(key.PublicKey).Hex()
			}

			return runPrepare(cmd.Context(), args, from)
		},
	}

	cmd.Flags().String(fromFlag, "", "Sender address, derived from the signing key when empty")
	addKeyFlags(cmd)

	return cmd
}

func runPrepare(ctx context.Context, args transferArgs, from string) error {
	client := wallet.NewRelayClient(args.relayURL, args.timeout)

	res, err := client.Prepare(ctx, types.PostPreparePayload{
		From:   from,
		To:     args.to,
		Token:  args.token,
		Amount: args.amount,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to prepare transfer (%s)", transfer.KindOf(err))
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode prepared transfer")
	}

	fmt.Println(string(out))

	return nil
}
