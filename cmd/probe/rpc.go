package probe

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/transfer-relay/internal/api"
	"github/chapool/transfer-relay/internal/config"
	"github/chapool/transfer-relay/internal/util/command"
)

var errRPCUnreachable = errors.New("RPC endpoint is not reachable")

func newRPC() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rpc",
		Short: "Checks the configured RPC endpoint",
		Long: `Checks the configured RPC endpoint

Queries block number and sync state once and exits non-zero when the endpoint
is not reachable.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				return errors.Wrap(err, "failed to read verbose flag")
			}

			return runRPC(cmd.Context(), verbose)
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Show verbose output.")

	return cmd
}

func runRPC(ctx context.Context, verbose bool) error {
	cfg := config.DefaultServiceConfigFromEnv()

	return command.WithServer(ctx, cfg, func(ctx context.Context, s *api.Server) error {
		status := s.Probe.Check(ctx)

		if verbose {
			log.Info().
				Bool("connected", status.Connected).
				Bool("synced", status.Synced).
				Uint64("block_number", status.BlockNumber).
				Str("error", status.Error).
				Msg("RPC endpoint checked")
		}

		if !status.Connected {
			fmt.Printf("unreachable: %s\n", status.Error)
			return errRPCUnreachable
		}

		state := "synced"
		if !status.Synced {
			state = "syncing"
		}

		fmt.Printf("connected: block %d, %s\n", status.BlockNumber, state)

		return nil
	})
}
