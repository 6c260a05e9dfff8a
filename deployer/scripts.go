// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package deployer

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/inconshreveable/log15"
	"golang.org/x/sync/errgroup"

	"github.com/degen-vc/infinity-contracts/config"
	"github.com/degen-vc/infinity-contracts/contracts"
)

const (
	CeloInfinityProtocolScript = "celo_infinityProtocol"
	CeloScript                 = "celo"
	InfinityScript             = "infinity"
	DualVaultsSpaceScript      = "dual_vaults_space"
	LightningScript            = "lightning"
	OracleScript               = "oracle"
	PowerVaultScript           = "power_vault"
)

var ErrUnknownScript = errors.New("unknown script")

// Options are the seed parameters of the scripts.
type Options struct {
	LiquidVaultShare uint8
	BurnPercentage   uint8
}

// DefaultOptions are the split the protocol launched with.
func DefaultOptions() Options {
	return Options{
		LiquidVaultShare: config.DefaultLiquidVaultShare,
		BurnPercentage:   config.DefaultBurnPercentage,
	}
}

// Script is an ordered deployment pipeline. The first failing step aborts
// it.
type Script struct {
	Name        string
	Description string
	// Requires lists the environment variables that must hold addresses.
	Requires []string
	Run      func(ctx context.Context, d *Deployer, env *config.Env, opts Options) error
}

// Scripts returns every deploy script.
func Scripts() []Script {
	return []Script{
		{
			Name:        CeloInfinityProtocolScript,
			Description: "runs the deploy tasks of the token, LiquidVault and FeeDistributor",
			Requires:    []string{config.RouterKey},
			Run:         celoInfinityProtocol,
		},
		{
			Name:        CeloScript,
			Description: "deploys and wires the protocol, its Ubeswap pair and the price oracle",
			Requires:    []string{config.RouterKey, config.FactoryKey, config.FeeReceiverKey, config.AlfajoresCeloKey},
			Run:         celo,
		},
		{
			Name:        InfinityScript,
			Description: "deploys the token, LiquidVault and a seeded FeeDistributor",
			Requires:    []string{config.RouterKey, config.FeeReceiverKey},
			Run:         infinity,
		},
		{
			Name:        DualVaultsSpaceScript,
			Description: "deploys AcceleratorVaultSpace and HodlerVaultSpace",
			Run: func(ctx context.Context, d *Deployer, _ *config.Env, _ Options) error {
				return deployAll(ctx, d, contracts.AcceleratorVaultSpaceName, contracts.HodlerVaultSpaceName)
			},
		},
		{
			Name:        LightningScript,
			Description: "deploys the LightningProtocol token",
			Run: func(ctx context.Context, d *Deployer, _ *config.Env, _ Options) error {
				return deployAll(ctx, d, contracts.LightningProtocolName)
			},
		},
		{
			Name:        OracleScript,
			Description: "deploys a PriceOracle for PAIR, TOKENA and TOKENB",
			Requires:    []string{config.PairKey, config.TokenAKey, config.TokenBKey},
			Run:         oracle,
		},
		{
			Name:        PowerVaultScript,
			Description: "deploys PowerLiquidVault",
			Run: func(ctx context.Context, d *Deployer, _ *config.Env, _ Options) error {
				return deployAll(ctx, d, contracts.PowerLiquidVaultName)
			},
		},
	}
}

// ScriptByName looks a script up.
func ScriptByName(name string) (Script, bool) {
	for _, s := range Scripts() {
		if s.Name == name {
			return s, true
		}
	}
	return Script{}, false
}

// RunScript checks the environment [name] needs and runs it.
func RunScript(ctx context.Context, d *Deployer, env *config.Env, name string, opts Options) error {
	s, ok := ScriptByName(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownScript, name)
	}
	if err := env.RequireAddresses(s.Requires...); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	d.summary.Script = name

	log.Info("running script", "script", name, "network", d.network, "run", d.runID)
	if err := s.Run(ctx, d, env, opts); err != nil {
		log.Error("script failed", "script", name, "err", err)
		return err
	}
	return nil
}

func deployAll(ctx context.Context, d *Deployer, names ...string) error {
	for _, name := range names {
		if _, err := d.Deploy(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func celoInfinityProtocol(ctx context.Context, d *Deployer, env *config.Env, _ Options) error {
	tasks := DefaultTasks()
	steps := []struct {
		task   string
		params map[string]string
	}{
		{DeployInfinityProtocolTask, map[string]string{RouterParam: env.Router}},
		{DeployLiquidVaultTask, nil},
		{DeployFeeDistributorTask, nil},
	}
	for _, s := range steps {
		if _, err := tasks.Run(ctx, d, s.task, s.params); err != nil {
			return err
		}
	}
	return nil
}

// core deploys the token, LiquidVault and FeeDistributor and seeds the
// distributor.
func core(ctx context.Context, d *Deployer, env *config.Env, opts Options) (common.Address, error) {
	router, err := env.Address(config.RouterKey)
	if err != nil {
		return common.Address{}, err
	}
	feeReceiver, err := env.Address(config.FeeReceiverKey)
	if err != nil {
		return common.Address{}, err
	}

	infinity, err := d.Deploy(ctx, contracts.InfinityProtocolName, router)
	if err != nil {
		return common.Address{}, err
	}
	if err := d.Pause(ctx, "Deploying LiquidVault"); err != nil {
		return common.Address{}, err
	}
	vault, err := d.Deploy(ctx, contracts.LiquidVaultName)
	if err != nil {
		return common.Address{}, err
	}
	dist, err := d.Deploy(ctx, contracts.FeeDistributorName)
	if err != nil {
		return common.Address{}, err
	}

	if err := d.Pause(ctx, "Seeding FeeDistributor"); err != nil {
		return common.Address{}, err
	}
	distributor := &contracts.FeeDistributor{Contract: dist}
	_, err = distributor.Seed(ctx, d.DeployerAccount(),
		infinity.Address,
		vault.Address,
		feeReceiver,
		opts.LiquidVaultShare,
		opts.BurnPercentage,
	)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to seed FeeDistributor: %w", err)
	}
	log.Info("FeeDistributor seeded")
	return infinity.Address, nil
}

func infinity(ctx context.Context, d *Deployer, env *config.Env, opts Options) error {
	_, err := core(ctx, d, env, opts)
	return err
}

func celo(ctx context.Context, d *Deployer, env *config.Env, opts Options) error {
	factoryAddr, err := env.Address(config.FactoryKey)
	if err != nil {
		return err
	}
	celoToken, err := env.Address(config.AlfajoresCeloKey)
	if err != nil {
		return err
	}

	token, err := core(ctx, d, env, opts)
	if err != nil {
		return err
	}

	factory, err := d.binder.Factory(factoryAddr)
	if err != nil {
		return err
	}
	log.Info("UbeswapFactory deployed at: " + factory.Address.Hex())

	if err := d.Pause(ctx, "Deploying Ubeswap Pair"); err != nil {
		return err
	}
	if _, err := factory.CreatePair(ctx, d.DeployerAccount(), celoToken, token); err != nil {
		return fmt.Errorf("failed to create pair: %w", err)
	}

	if err := d.Pause(ctx, "Fetching pairAddress"); err != nil {
		return err
	}
	pairAddr, err := factory.GetPair(ctx, celoToken, token)
	if err != nil {
		return err
	}

	if err := d.Pause(ctx, "Loading uniswapPair instance"); err != nil {
		return err
	}
	pair, err := d.binder.Pair(pairAddr)
	if err != nil {
		return err
	}
	log.Info("Ubeswap LP Token Pair deployed at: " + pairAddr.Hex())
	d.summary.Set("pair", pairAddr.Hex())

	if err := d.Pause(ctx, "Deploying PriceOracle"); err != nil {
		return err
	}
	if _, err := d.Deploy(ctx, contracts.PriceOracleName, pairAddr, celoToken, token); err != nil {
		return err
	}

	if err := d.Pause(ctx, "Deploying PowerVault"); err != nil {
		return err
	}
	if _, err := d.Deploy(ctx, contracts.PowerLiquidVaultName); err != nil {
		return err
	}

	if err := d.Pause(ctx, "Fetching Ubeswap Pair Tokens and LP Total Supply"); err != nil {
		return err
	}
	token0, token1, supply, err := pairReadout(ctx, pair)
	if err != nil {
		return err
	}
	log.Info("Token0 Infinity: " + token0.Hex())
	log.Info("Token1 CELO: " + token1.Hex())
	log.Info("Ubeswap LP Total Supply " + supply.String())
	d.summary.Set("token0", token0.Hex())
	d.summary.Set("token1", token1.Hex())
	d.summary.Set("pairTotalSupply", supply.String())

	return d.Pause(ctx, "Fetching Ubeswap Pair and Total Supply")
}

// pairReadout reads token0, token1 and the LP supply of [pair] concurrently.
func pairReadout(ctx context.Context, pair *contracts.Pair) (token0, token1 common.Address, supply *big.Int, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		token0, err = pair.Token0(gctx)
		return err
	})
	g.Go(func() (err error) {
		token1, err = pair.Token1(gctx)
		return err
	})
	g.Go(func() (err error) {
		supply, err = pair.TotalSupply(gctx)
		return err
	})
	err = g.Wait()
	return token0, token1, supply, err
}

func oracle(ctx context.Context, d *Deployer, env *config.Env, _ Options) error {
	var args []interface{}
	for _, key := range []string{config.PairKey, config.TokenAKey, config.TokenBKey} {
		addr, err := env.Address(key)
		if err != nil {
			return err
		}
		args = append(args, addr)
	}
	_, err := d.Deploy(ctx, contracts.PriceOracleName, args...)
	return err
}
