package config_test

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/transfer-relay/internal/config"
)

func TestPrintServiceEnv(t *testing.T) {
	config := config.DefaultServiceConfigFromEnv()
	_, err := json.MarshalIndent(config, "", "  ")

	if err != nil {
		t.Fatal(err)
	}
}

func TestDefaultServiceConfigRelayDefaults(t *testing.T) {
	cfg := config.DefaultServiceConfigFromEnv()

	assert.NotEmpty(t, cfg.Relay.RPCURLs)
	assert.Positive(t, cfg.Relay.ChainID)
	assert.Positive(t, cfg.Relay.RPCTimeout)
	assert.Positive(t, cfg.Relay.ProbeInterval)
	assert.Positive(t, cfg.Relay.DefaultGasLimit)
	assert.NotEmpty(t, cfg.Echo.ListenAddress)
}

func TestDotEnvLoad(t *testing.T) {
	path := t.TempDir() + "/.env"
	require.NoError(t, os.WriteFile(path, []byte("RELAY_CHAIN_ID=1\nRELAY_RPC_URLS=\"http://a,http://b\"\n"), 0o600))

	got := map[string]string{}
	err := config.DotEnvLoad(path, func(k, v string) error {
		got[k] = v
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "1", got["RELAY_CHAIN_ID"])
	assert.Equal(t, "http://a,http://b", got["RELAY_RPC_URLS"])
}

func TestDotEnvLoadMissingFile(t *testing.T) {
	err := config.DotEnvLoad(t.TempDir()+"/missing.env", func(string, string) error { return nil })
	require.Error(t, err)

	// must not panic
	config.DotEnvTryLoad(t.TempDir()+"/missing.env", func(string, string) error { return nil })
}
