// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

const router = "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"

func TestParseEnv(t *testing.T) {
	require := require.New(t)

	e, err := ParseEnv(map[string]string{
		RouterKey:      router,
		FeeReceiverKey: "0x0000000000000000000000000000000000000abc",
		DeployerKeyKey: "deadbeef",
	})
	require.NoError(err)
	require.Equal(router, e.Router)
	require.Equal("deadbeef", e.DeployerKey)
	require.Equal("http://127.0.0.1:8545", e.DevURL)

	addr, err := e.Address(RouterKey)
	require.NoError(err)
	require.Equal(common.HexToAddress(router), addr)
}

func TestParseEnvInvalidAddress(t *testing.T) {
	_, err := ParseEnv(map[string]string{
		RouterKey:  "not-an-address",
		FactoryKey: "0x1234",
	})
	require.ErrorIs(t, err, ErrInvalidAddress)
	require.Contains(t, err.Error(), RouterKey)
	require.Contains(t, err.Error(), FactoryKey)
}

func TestRequireAddresses(t *testing.T) {
	require := require.New(t)

	e, err := ParseEnv(map[string]string{
		RouterKey:      router,
		FeeReceiverKey: "0x0000000000000000000000000000000000000000",
	})
	require.NoError(err)

	require.NoError(e.RequireAddresses(RouterKey))

	err = e.RequireAddresses(RouterKey, FactoryKey, FeeReceiverKey)
	require.ErrorIs(err, ErrMissingVariable)
	require.ErrorIs(err, ErrInvalidAddress)
	require.Contains(err.Error(), FactoryKey)
	require.Contains(err.Error(), FeeReceiverKey)
}

func TestLoadEnvDotenv(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(os.WriteFile(path, []byte("ROUTER="+router+"\nFORNO_CELO_TESTNET=https://alfajores-forno.celo-testnet.org\n"), 0o600))

	t.Setenv(CeloTestnetURLKey, "http://override:8545")

	e, err := LoadEnv(path)
	require.NoError(err)
	require.Equal(router, e.Router)
	require.Equal("http://override:8545", e.CeloTestnetURL)
}

func TestLoadEnvMissingFile(t *testing.T) {
	e, err := LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.NotNil(t, e)
}

func TestResolveNetworks(t *testing.T) {
	require := require.New(t)

	e, err := ParseEnv(map[string]string{
		CeloTestnetURLKey: "https://alfajores-forno.celo-testnet.org",
		DeployerKeyKey:    "01",
		OwnerKeyKey:       "02",
	})
	require.NoError(err)

	nets := DefaultNetworks()
	alfajores, err := nets.Resolve(AlfajoresNetwork, e)
	require.NoError(err)
	require.Equal("https://alfajores-forno.celo-testnet.org", alfajores.RPCURL)
	require.Equal([]string{"01", "02"}, alfajores.Keys)
	require.Equal(uint64(8_000_000), alfajores.Gas)
	require.Equal(int64(500_000_000), alfajores.GasPriceWei().Int64())
	require.True(alfajores.Live)

	_, err = nets.Resolve(CeloMainnetNetwork, e)
	require.ErrorIs(err, ErrMissingURL)

	_, err = nets.Resolve("ropsten", e)
	require.ErrorIs(err, ErrUnknownNetwork)
}

func TestResolveLocalhostFallsBackToDevKeys(t *testing.T) {
	require := require.New(t)

	e, err := ParseEnv(map[string]string{})
	require.NoError(err)

	local, err := DefaultNetworks().Resolve(LocalhostNetwork, e)
	require.NoError(err)
	require.Equal("http://127.0.0.1:8545", local.RPCURL)
	require.Equal(DevKeys, local.Keys)
	require.Nil(local.GasPriceWei())
}

func TestResolveLiveNetworkWithoutKeys(t *testing.T) {
	e, err := ParseEnv(map[string]string{CeloMainnetURLKey: "https://forno.celo.org"})
	require.NoError(t, err)

	_, err = DefaultNetworks().Resolve(CeloMainnetNetwork, e)
	require.ErrorIs(t, err, ErrMissingKeys)
}

func TestLoadNetworksFile(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "networks.toml")
	require.NoError(os.WriteFile(path, []byte(`
[networks.baklava]
url = "https://baklava-forno.celo-testnet.org"
accounts = ["DEPLOYER_PRIVATE_KEY"]
live = true
gas_price = 1000000000

[networks.alfajores]
url_env = "FORNO_CELO_TESTNET"
accounts = ["DEPLOYER_PRIVATE_KEY"]
live = true
gas = 6000000
`), 0o600))

	nets, err := LoadNetworks(path)
	require.NoError(err)
	require.Equal([]string{"alfajores", "baklava", "celo_mainnet", "localhost"}, nets.Names())

	baklava := nets["baklava"]
	require.Equal("baklava", baklava.Name)
	require.Equal(uint64(1_000_000_000), baklava.GasPrice)
	require.Equal(uint64(6_000_000), nets[AlfajoresNetwork].Gas)
	require.Zero(nets[AlfajoresNetwork].GasPrice)
}

func TestParamsFromViper(t *testing.T) {
	require := require.New(t)

	v := viper.New()
	v.Set(NetworkKey, AlfajoresNetwork)
	v.Set(PauseKey, "1500ms")
	v.Set(LiquidVaultShareKey, 70)
	v.Set(BurnPercentageKey, 5)

	p, err := ParamsFromViper(v)
	require.NoError(err)
	require.Equal(AlfajoresNetwork, p.Network)
	require.Equal(1500*time.Millisecond, p.Pause)
	require.Equal(uint8(70), p.LiquidVaultShare)
	require.Equal(uint8(5), p.BurnPercentage)
}

func TestParamsFromViperRejectsPercentages(t *testing.T) {
	tests := []struct {
		name  string
		share interface{}
		burn  interface{}
	}{
		{name: "share above a byte", share: "300", burn: 10},
		{name: "burn wrapping to a valid byte", share: 60, burn: "266"},
		{name: "negative", share: -1, burn: 10},
		{name: "above 100", share: 101, burn: 0},
		{name: "sum above 100", share: 95, burn: 10},
		{name: "not a number", share: "sixty", burn: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(LiquidVaultShareKey, tt.share)
			v.Set(BurnPercentageKey, tt.burn)

			_, err := ParamsFromViper(v)
			require.ErrorIs(t, err, ErrInvalidPercentage)
		})
	}
}

func TestParamsFromViperAcceptsBounds(t *testing.T) {
	require := require.New(t)

	v := viper.New()
	v.Set(LiquidVaultShareKey, "100")
	v.Set(BurnPercentageKey, "0")
	p, err := ParamsFromViper(v)
	require.NoError(err)
	require.Equal(uint8(100), p.LiquidVaultShare)
	require.Zero(p.BurnPercentage)
}
