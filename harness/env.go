// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package harness

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	log "github.com/inconshreveable/log15"

	"github.com/degen-vc/infinity-contracts/chain"
	"github.com/degen-vc/infinity-contracts/config"
	"github.com/degen-vc/infinity-contracts/contracts"
	"github.com/degen-vc/infinity-contracts/deployer"
)

// Fixture values shared by the suites.
const (
	// SeedStakeDays is the lock period vaults are seeded with.
	SeedStakeDays     uint32 = 1
	SeedDonationShare uint8  = 10
	SeedPurchaseFee   uint8  = 30

	// LiquidityTokens whole tokens are paired with LiquidityETH ether when a
	// fixture adds liquidity.
	LiquidityTokens = 10_000
	LiquidityETH    = 10
	// VaultTokens whole tokens are sent to ETH vaults before purchases.
	VaultTokens = 20_000

	liquidityDeadline = 3600
	minSigners        = 3
)

var ErrTooFewSigners = errors.New("too few signers")

// Ether is [n] ether in wei.
func Ether(n int64) *big.Int { return Units(n, 18) }

// Env is what every check runs against: the deployer, the AMM and three
// signers.
type Env struct {
	Deployer *deployer.Deployer
	Binder   *contracts.Binder
	Dev      chain.Dev

	// Owner deploys everything; User and Other are unprivileged accounts.
	Owner *chain.Signer
	User  *chain.Signer
	Other *chain.Signer

	WETH    common.Address
	Factory *contracts.Factory
	Router  *contracts.Router

	Options deployer.Options
}

// Setup prepares the environment. The AMM configured under ROUTER is used
// when it has code on the chain, otherwise a fresh one is deployed.
func Setup(ctx context.Context, d *deployer.Deployer, dev chain.Dev, cfg *config.Env, opts deployer.Options) (*Env, error) {
	signers := d.Signers()
	if len(signers) < minSigners {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrTooFewSigners, len(signers), minSigners)
	}
	e := &Env{
		Deployer: d,
		Binder:   d.Binder(),
		Dev:      dev,
		Owner:    signers[0],
		User:     signers[1],
		Other:    signers[2],
		Options:  opts,
	}

	routerAddr, ok, err := e.configuredRouter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := e.bindAMM(ctx, routerAddr); err != nil {
			return nil, err
		}
		log.Info("using configured AMM", "router", routerAddr.Hex())
		return e, nil
	}
	if err := e.deployAMM(ctx); err != nil {
		return nil, err
	}
	log.Info("deployed AMM", "router", e.Router.Address.Hex(), "factory", e.Factory.Address.Hex(), "weth", e.WETH.Hex())
	return e, nil
}

func (e *Env) configuredRouter(ctx context.Context, cfg *config.Env) (common.Address, bool, error) {
	if cfg == nil || cfg.Get(config.RouterKey) == "" {
		return common.Address{}, false, nil
	}
	addr, err := cfg.Address(config.RouterKey)
	if err != nil {
		return common.Address{}, false, err
	}
	code, err := e.Binder.Backend().CodeAt(ctx, addr, nil)
	if err != nil {
		return common.Address{}, false, fmt.Errorf("failed to read code of %s: %w", addr.Hex(), err)
	}
	if len(code) == 0 {
		log.Warn("configured router has no code, deploying a new AMM", "router", addr.Hex())
		return common.Address{}, false, nil
	}
	return addr, true, nil
}

func (e *Env) bindAMM(ctx context.Context, routerAddr common.Address) error {
	var err error
	if e.Router, err = e.Binder.Router(routerAddr); err != nil {
		return err
	}
	if e.WETH, err = e.Router.WETH(ctx); err != nil {
		return fmt.Errorf("failed to read router WETH: %w", err)
	}
	factoryAddr, err := e.Router.Factory(ctx)
	if err != nil {
		return fmt.Errorf("failed to read router factory: %w", err)
	}
	e.Factory, err = e.Binder.Factory(factoryAddr)
	return err
}

func (e *Env) deployAMM(ctx context.Context) error {
	weth, err := e.Deployer.Deploy(ctx, contracts.WETH9Name)
	if err != nil {
		return err
	}
	factory, err := e.Deployer.Deploy(ctx, contracts.UniswapV2FactoryName, e.Owner.Address)
	if err != nil {
		return err
	}
	router, err := e.Deployer.Deploy(ctx, contracts.UniswapV2Router02Name, factory.Address, weth.Address)
	if err != nil {
		return err
	}
	e.WETH = weth.Address
	if e.Factory, err = e.Binder.Factory(factory.Address); err != nil {
		return err
	}
	e.Router, err = e.Binder.Router(router.Address)
	return err
}

// DeployToken deploys an InfinityProtocol token on the environment's router.
func (e *Env) DeployToken(ctx context.Context) (*contracts.Token, error) {
	c, err := e.Deployer.Deploy(ctx, contracts.InfinityProtocolName, e.Router.Address)
	if err != nil {
		return nil, err
	}
	return e.Binder.Token(c.Address)
}

func (e *Env) DeployDistributor(ctx context.Context) (*contracts.FeeDistributor, error) {
	c, err := e.Deployer.Deploy(ctx, contracts.FeeDistributorName)
	if err != nil {
		return nil, err
	}
	return e.Binder.FeeDistributor(c.Address)
}

func (e *Env) DeployMarketsRegistry(ctx context.Context) (*contracts.MarketsRegistry, error) {
	c, err := e.Deployer.Deploy(ctx, contracts.MarketsRegistryFakeName)
	if err != nil {
		return nil, err
	}
	return e.Binder.MarketsRegistry(c.Address)
}

// Balance is the ether balance of [addr] at the latest block.
func (e *Env) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	bal, err := e.Binder.Backend().BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance of %s: %w", addr.Hex(), err)
	}
	return bal, nil
}

// CreatePair creates the pair of [token] and WETH and binds it.
func (e *Env) CreatePair(ctx context.Context, token common.Address) (*contracts.Pair, error) {
	if _, err := e.Factory.CreatePair(ctx, e.Owner, e.WETH, token); err != nil {
		return nil, fmt.Errorf("failed to create pair: %w", err)
	}
	addr, err := e.Factory.GetPair(ctx, e.WETH, token)
	if err != nil {
		return nil, err
	}
	return e.Binder.Pair(addr)
}

// Deadline is [ahead] seconds past the latest block.
func (e *Env) Deadline(ctx context.Context, ahead uint64) (uint64, error) {
	head, err := e.Binder.Backend().HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to read the latest block: %w", err)
	}
	return head.Time + ahead, nil
}

// AddLiquidity approves [tokens] to the router and pairs them with [eth] wei.
// The LP goes to the owner.
func (e *Env) AddLiquidity(ctx context.Context, token *contracts.Token, tokens, eth *big.Int) (*types.Receipt, error) {
	if _, err := token.Approve(ctx, e.Owner, e.Router.Address, tokens); err != nil {
		return nil, fmt.Errorf("failed to approve router: %w", err)
	}
	deadline, err := e.Deadline(ctx, liquidityDeadline)
	if err != nil {
		return nil, err
	}
	receipt, err := e.Router.AddLiquidityETH(ctx, e.Owner, token.Address, tokens, new(big.Int), new(big.Int), e.Owner.Address, deadline, eth)
	if err != nil {
		return nil, fmt.Errorf("failed to add liquidity: %w", err)
	}
	return receipt, nil
}

// VaultFixture is a seeded vault with its token, distributor and pair.
type VaultFixture struct {
	Token       *contracts.Token
	Distributor *contracts.FeeDistributor
	Vault       *contracts.Vault
	Pair        *contracts.Pair
	// Registry is set for kinds seeded with a markets registry.
	Registry *contracts.MarketsRegistry
	Seed     contracts.SeedParams
	Decimals uint8
}

// SeededVault deploys a vault of [kind] the way the deploy scripts wire it:
// a fresh token and pair with liquidity, a distributor feeding the vault, and
// the vault seeded with the fixture values.
func (e *Env) SeededVault(ctx context.Context, kind contracts.Kind) (*VaultFixture, error) {
	fx := &VaultFixture{}
	var err error
	if fx.Token, err = e.DeployToken(ctx); err != nil {
		return nil, err
	}
	if fx.Decimals, err = fx.Token.Decimals(ctx); err != nil {
		return nil, err
	}
	if fx.Distributor, err = e.DeployDistributor(ctx); err != nil {
		return nil, err
	}
	vault, err := e.Deployer.Deploy(ctx, kind.Name)
	if err != nil {
		return nil, err
	}
	if fx.Vault, err = e.Binder.Vault(kind, vault.Address); err != nil {
		return nil, err
	}
	if fx.Pair, err = e.CreatePair(ctx, fx.Token.Address); err != nil {
		return nil, err
	}

	_, err = fx.Distributor.Seed(ctx, e.Owner,
		fx.Token.Address,
		vault.Address,
		e.Other.Address,
		e.Options.LiquidVaultShare,
		e.Options.BurnPercentage,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to seed %s: %w", contracts.FeeDistributorName, err)
	}

	if seeds(kind, contracts.SeedRegistry) {
		if fx.Registry, err = e.DeployMarketsRegistry(ctx); err != nil {
			return nil, err
		}
	}

	fx.Seed = contracts.SeedParams{
		StakeDurationDays: SeedStakeDays,
		Infinity:          fx.Token.Address,
		Pair:              fx.Pair.Address,
		Router:            e.Router.Address,
		FeeDistributor:    fx.Distributor.Address,
		Receiver:          e.Other.Address,
		DonationShare:     SeedDonationShare,
		PurchaseFee:       SeedPurchaseFee,
	}
	if fx.Registry != nil {
		fx.Seed.Registry = fx.Registry.Address
	}
	if _, err := fx.Vault.Seed(ctx, e.Owner, fx.Seed); err != nil {
		return nil, fmt.Errorf("failed to seed %s: %w", kind.Name, err)
	}

	tokens := Units(LiquidityTokens, fx.Decimals)
	if _, err := e.AddLiquidity(ctx, fx.Token, tokens, Ether(LiquidityETH)); err != nil {
		return nil, err
	}
	return fx, nil
}

// Fund sends [n] whole tokens from the owner to the vault.
func (fx *VaultFixture) Fund(ctx context.Context, e *Env, n int64) error {
	if _, err := fx.Token.Transfer(ctx, e.Owner, fx.Vault.Address, Units(n, fx.Decimals)); err != nil {
		return fmt.Errorf("failed to fund %s: %w", fx.Vault.Kind.Name, err)
	}
	return nil
}

// FundETH sends [wei] from the owner to the vault.
func (fx *VaultFixture) FundETH(ctx context.Context, e *Env, wei *big.Int) error {
	if _, err := fx.Vault.SendETH(ctx, e.Owner, wei); err != nil {
		return fmt.Errorf("failed to send ether to %s: %w", fx.Vault.Kind.Name, err)
	}
	return nil
}

// seeds reports whether the vault's seed takes [arg].
func seeds(kind contracts.Kind, arg contracts.SeedArg) bool {
	for _, a := range kind.Seed {
		if a == arg {
			return true
		}
	}
	return false
}
