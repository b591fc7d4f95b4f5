package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/transfer-relay/cmd/env"
	"github/chapool/transfer-relay/cmd/probe"
	"github/chapool/transfer-relay/cmd/server"
	"github/chapool/transfer-relay/cmd/tx"
	"github/chapool/transfer-relay/internal/config"
)

const envFileFlag = "env-file"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: config.GetFormattedBuildArgs(),
	Use:     "app",
	Short:   config.ModuleName,
	Long: fmt.Sprintf(`%v

Relays signed ERC20 transfers to an EVM node.
Requires configuration through ENV, a .env file is loaded if present.`, config.ModuleName),
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		path, err := cmd.Flags().GetString(envFileFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read env-file flag")
		}

		config.DotEnvTryLoad(path, os.Setenv)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	rootCmd.PersistentFlags().String(envFileFlag, ".env", "Path of the dotenv file loaded before reading the config")

	// attach the subcommands
	rootCmd.AddCommand(
		env.New(),
		probe.New(),
		server.New(),
		tx.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Failed to execute root command")
		os.Exit(1)
	}
}
