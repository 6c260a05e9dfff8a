// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package deployer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"github.com/degen-vc/infinity-contracts/config"
	"github.com/degen-vc/infinity-contracts/contracts"
)

var feeReceiver = common.HexToAddress("0x00000000000000000000000000000000000000fe")

// ammEnv deploys the AMM fakes and returns an environment pointing at them.
func ammEnv(t *testing.T, f *fixture) (*config.Env, common.Address) {
	t.Helper()
	weth, factory, amm, err := f.chain.AMM(context.Background(), f.deployer.DeployerAccount())
	require.NoError(t, err)

	env, err := config.ParseEnv(map[string]string{
		config.RouterKey:        amm.Hex(),
		config.FactoryKey:       factory.Hex(),
		config.FeeReceiverKey:   feeReceiver.Hex(),
		config.AlfajoresCeloKey: weth.Hex(),
	})
	require.NoError(t, err)
	return env, weth
}

func TestScriptNames(t *testing.T) {
	var names []string
	for _, s := range Scripts() {
		names = append(names, s.Name)
	}
	require.ElementsMatch(t, []string{
		CeloInfinityProtocolScript,
		CeloScript,
		InfinityScript,
		DualVaultsSpaceScript,
		LightningScript,
		OracleScript,
		PowerVaultScript,
	}, names)

	_, ok := ScriptByName("mainnet")
	require.False(t, ok)
}

func TestCeloScript(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)
	env, celoToken := ammEnv(t, f)

	require.NoError(t, RunScript(context.Background(), f.deployer, env, CeloScript, DefaultOptions()))

	summary := f.deployer.Summary()
	assert.Equal(CeloScript, summary.Script)
	assert.Equal([]string{
		contracts.FeeDistributorName,
		contracts.InfinityProtocolName,
		contracts.LiquidVaultName,
		contracts.PowerLiquidVaultName,
		contracts.PriceOracleName,
	}, summary.Names())

	token, _ := summary.Address(contracts.InfinityProtocolName)
	vault, _ := summary.Address(contracts.LiquidVaultName)
	distAddr, _ := summary.Address(contracts.FeeDistributorName)
	dist := f.chain.Distributors[distAddr]
	require.NotNil(t, dist)
	assert.True(dist.Initialized)
	assert.Equal(token, dist.Infinity)
	assert.Equal(contracts.Recipients{
		LiquidVault:      vault,
		SecondaryAddress: feeReceiver,
		LiquidVaultShare: 60,
		BurnPercentage:   10,
	}, dist.Recipients)

	token0, token1 := contracts.SortTokens(celoToken, token)
	pair := common.HexToAddress(summary.Values["pair"])
	assert.Contains(f.chain.Pairs, pair)
	assert.Equal(token0.Hex(), summary.Values["token0"])
	assert.Equal(token1.Hex(), summary.Values["token1"])
	assert.Equal("0", summary.Values["pairTotalSupply"])

	oracleAddr, _ := summary.Address(contracts.PriceOracleName)
	oracle := f.chain.Oracles[oracleAddr]
	require.NotNil(t, oracle)
	assert.Equal(pair, oracle.Pair)
	assert.Equal(celoToken, oracle.TokenA)
	assert.Equal(token, oracle.TokenB)
}

func TestCeloScriptFailsOnExistingPair(t *testing.T) {
	f := newFixture(t)
	env, _ := ammEnv(t, f)
	ctx := context.Background()

	require.NoError(t, RunScript(ctx, f.deployer, env, CeloScript, DefaultOptions()))

	// the script created the pair, so the factory refuses a second one
	token, _ := f.deployer.Summary().Address(contracts.InfinityProtocolName)
	factory, err := f.deployer.Binder().Factory(common.HexToAddress(env.Factory))
	require.NoError(t, err)
	_, err = factory.CreatePair(ctx, f.deployer.DeployerAccount(), common.HexToAddress(env.AlfajoresCelo), token)
	require.True(t, contracts.IsRevert(err, "UniswapV2: PAIR_EXISTS"), "got %v", err)
}

func TestInfinityScriptOptions(t *testing.T) {
	f := newFixture(t)
	env, _ := ammEnv(t, f)

	opts := Options{LiquidVaultShare: 70, BurnPercentage: 5}
	require.NoError(t, RunScript(context.Background(), f.deployer, env, InfinityScript, opts))

	distAddr, ok := f.deployer.Summary().Address(contracts.FeeDistributorName)
	require.True(t, ok)
	r := f.chain.Distributors[distAddr].Recipients
	require.Equal(t, uint8(70), r.LiquidVaultShare)
	require.Equal(t, uint8(5), r.BurnPercentage)
	_, ok = f.deployer.Summary().Address(contracts.PriceOracleName)
	require.False(t, ok)
}

func TestSimpleScripts(t *testing.T) {
	tests := []struct {
		script string
		env    map[string]string
		want   []string
	}{
		{
			script: CeloInfinityProtocolScript,
			env:    map[string]string{config.RouterKey: router.Hex()},
			want:   []string{contracts.FeeDistributorName, contracts.InfinityProtocolName, contracts.LiquidVaultName},
		},
		{
			script: DualVaultsSpaceScript,
			want:   []string{contracts.AcceleratorVaultSpaceName, contracts.HodlerVaultSpaceName},
		},
		{
			script: LightningScript,
			want:   []string{contracts.LightningProtocolName},
		},
		{
			script: PowerVaultScript,
			want:   []string{contracts.PowerLiquidVaultName},
		},
		{
			script: OracleScript,
			env: map[string]string{
				config.PairKey:   "0x0000000000000000000000000000000000000001",
				config.TokenAKey: "0x0000000000000000000000000000000000000002",
				config.TokenBKey: "0x0000000000000000000000000000000000000003",
			},
			want: []string{contracts.PriceOracleName},
		},
	}
	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			f := newFixture(t)
			vars := map[string]string{}
			for k, v := range tt.env {
				vars[k] = v
			}
			env, err := config.ParseEnv(vars)
			require.NoError(t, err)

			require.NoError(t, RunScript(context.Background(), f.deployer, env, tt.script, DefaultOptions()))
			require.Equal(t, tt.want, f.deployer.Summary().Names())

			for _, name := range tt.want {
				_, err := f.registry.Get(config.LocalhostNetwork, name)
				require.NoError(t, err, name)
			}
		})
	}
}

func TestScriptRequiresEnv(t *testing.T) {
	f := newFixture(t)
	env, err := config.ParseEnv(map[string]string{config.RouterKey: router.Hex()})
	require.NoError(t, err)

	err = RunScript(context.Background(), f.deployer, env, CeloScript, DefaultOptions())
	require.ErrorIs(t, err, config.ErrMissingVariable)
	require.Empty(t, f.deployer.Summary().Names())

	err = RunScript(context.Background(), f.deployer, env, "mainnet", DefaultOptions())
	require.ErrorIs(t, err, ErrUnknownScript)
}

func TestSummaryFile(t *testing.T) {
	f := newFixture(t)
	env, err := config.ParseEnv(map[string]string{config.RouterKey: router.Hex()})
	require.NoError(t, err)
	require.NoError(t, RunScript(context.Background(), f.deployer, env, CeloInfinityProtocolScript, DefaultOptions()))

	path := filepath.Join(t.TempDir(), "summary.yaml")
	require.NoError(t, f.deployer.Summary().WriteFile(path))

	b, err := f.deployer.Summary().YAML()
	require.NoError(t, err)
	var got struct {
		Network   string  `json:"network"`
		ChainID   uint64  `json:"chainId"`
		RunID     string  `json:"runId"`
		Script    string  `json:"script"`
		Contracts []Entry `json:"contracts"`
	}
	require.NoError(t, yaml.Unmarshal(b, &got))
	require.Equal(t, config.LocalhostNetwork, got.Network)
	require.Equal(t, uint64(1337), got.ChainID)
	require.Equal(t, f.deployer.RunID(), got.RunID)
	require.Equal(t, CeloInfinityProtocolScript, got.Script)
	require.Len(t, got.Contracts, 3)
	require.Equal(t, contracts.InfinityProtocolName, got.Contracts[0].Name)
}
