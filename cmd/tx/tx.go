package tx

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/transfer-relay/internal/util/command"
	"github/chapool/transfer-relay/internal/wallet"
	"golang.org/x/term"
)

const (
	relayFlag    = "relay"
	timeoutFlag  = "timeout"
	keyFlag      = "key"
	keystoreFlag = "keystore"
	chainIDFlag  = "chain-id"
	toFlag       = "to"
	tokenFlag    = "token"
	amountFlag   = "amount"
	fromFlag     = "from"

	privateKeyEnv       = "RELAY_PRIVATE_KEY"
	keystorePasswordEnv = "RELAY_KEYSTORE_PASSWORD"
)

func New() *cobra.Command {
	cmd := command.NewSubcommandGroup("tx",
		newPrepare(),
		newTransfer(),
	)

	cmd.PersistentFlags().String(relayFlag, "http://localhost:8080", "Base URL of the relay")
	cmd.PersistentFlags().Duration(timeoutFlag, wallet.DefaultRelayTimeout, "Timeout of each relay request")
	cmd.PersistentFlags().String(toFlag, "", "Recipient address")
	cmd.PersistentFlags().String(tokenFlag, "", "ERC20 token contract address")
	cmd.PersistentFlags().String(amountFlag, "", "Amount in token units, e.g. 1.5")

	return cmd
}

type transferArgs struct {
	relayURL string
	timeout  time.Duration
	to       string
	token    string
	amount   string
}

func readTransferArgs(cmd *cobra.Command) (transferArgs, error) {
	flags := cmd.Flags()

	var (
		args transferArgs
		err  error
	)

	if args.relayURL, err = flags.GetString(relayFlag); err != nil {
		return args, err
	}

	if args.timeout, err = flags.GetDuration(timeoutFlag); err != nil {
		return args, err
	}

	if args.to, err = flags.GetString(toFlag); err != nil {
		return args, err
	}

	if args.token, err = flags.GetString(tokenFlag); err != nil {
		return args, err
	}

	if args.amount, err = flags.GetString(amountFlag); err != nil {
		return args, err
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{toFlag, args.to},
		{tokenFlag, args.token},
		{amountFlag, args.amount},
	} {
		if f.value == "" {
			missing = append(missing, "--"+f.name)
		}
	}

	if len(missing) > 0 {
		return args, errors.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}

	return args, nil
}

// loadKey reads the signing key from --keystore, --key or RELAY_PRIVATE_KEY.
// Keystore passwords come from RELAY_KEYSTORE_PASSWORD or a terminal prompt.
func loadKey(cmd *cobra.Command) (*ecdsa.PrivateKey, error) {
	keystorePath, err := cmd.Flags().GetString(keystoreFlag)
	if err != nil {
		return nil, err
	}

	if keystorePath != "" {
		password, err := keystorePassword()
		if err != nil {
			return nil, err
		}

		return wallet.LoadKeystore(keystorePath, password)
	}

	hexKey, err := cmd.Flags().GetString(keyFlag)
	if err != nil {
		return nil, err
	}

	if hexKey == "" {
		hexKey = os.Getenv(privateKeyEnv)
	}

	if hexKey == "" {
		return nil, errors.Errorf("no signing key, use --%s, --%s or %s", keystoreFlag, keyFlag, privateKeyEnv)
	}

	return wallet.ParsePrivateKey(hexKey)
}

func keystorePassword() (string, error) {
	if password, ok := os.LookupEnv(keystorePasswordEnv); ok {
		return password, nil
	}

	fd := int(os.Stdin.Fd()) //nolint:gosec // stdin fd fits into int
	if !term.IsTerminal(fd) {
		return "", errors.Errorf("stdin is not a terminal, set %s", keystorePasswordEnv)
	}

	fmt.Fprint(os.Stderr, "Keystore password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "failed to read password")
	}

	return string(password), nil
}

func addKeyFlags(cmd *cobra.Command) {
	cmd.Flags().String(keyFlag, "", "Hex encoded private key, defaults to "+privateKeyEnv)
	cmd.Flags().String(keystoreFlag, "", "Path of an encrypted JSON keystore file")
}
