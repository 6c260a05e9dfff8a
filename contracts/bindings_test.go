// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contracts_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/degen-vc/infinity-contracts/chain"
	"github.com/degen-vc/infinity-contracts/contracts"
	"github.com/degen-vc/infinity-contracts/contracts/contractstest"
)

var router = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")

type fixture struct {
	chain  *contractstest.Chain
	binder *contracts.Binder
	owner  *chain.Signer
	user   *chain.Signer
	other  *chain.Signer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := contractstest.New()
	signers, err := c.Signers(3)
	require.NoError(t, err)
	return &fixture{
		chain:  c,
		binder: contracts.NewBinder(contractstest.Store(t.TempDir()), c),
		owner:  signers[0],
		user:   signers[1],
		other:  signers[2],
	}
}

func (f *fixture) deploy(t *testing.T, name string, args ...interface{}) common.Address {
	t.Helper()
	addr, err := f.chain.Deploy(context.Background(), f.owner, name, args...)
	require.NoError(t, err)
	return addr
}

func (f *fixture) token(t *testing.T, routerAddr common.Address) *contracts.Token {
	t.Helper()
	token, err := f.binder.Token(f.deploy(t, contracts.InfinityProtocolName, routerAddr))
	require.NoError(t, err)
	return token
}

func TestTokenOwnership(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	token := f.token(t, router)

	owner, err := token.Owner(ctx)
	require.NoError(err)
	require.Equal(f.owner.Address, owner)

	r, err := token.Router(ctx)
	require.NoError(err)
	require.Equal(router, r)

	decimals, err := token.Decimals(ctx)
	require.NoError(err)
	require.Equal(uint8(contractstest.InfinityDecimals), decimals)

	supply, err := token.TotalSupply(ctx)
	require.NoError(err)
	require.Equal(contractstest.InfinitySupply, supply)

	_, err = token.TransferOwnership(ctx, f.user, f.user.Address)
	require.ErrorIs(err, chain.ErrTxFailed)
	require.True(contracts.IsRevert(err, contracts.OwnableRevert), err.Error())

	_, err = token.TransferOwnership(ctx, f.owner, f.user.Address)
	require.NoError(err)
	owner, err = token.Owner(ctx)
	require.NoError(err)
	require.Equal(f.user.Address, owner)
}

func TestTokenTransfers(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	token := f.token(t, router)

	amount := big.NewInt(1_000_000)
	receipt, err := token.Transfer(ctx, f.owner, f.user.Address, amount)
	require.NoError(err)

	transfers, err := token.ParseTransfers(receipt)
	require.NoError(err)
	require.Equal([]contracts.Transfer{{From: f.owner.Address, To: f.user.Address, Value: amount}}, transfers)

	bal, err := token.BalanceOf(ctx, f.user.Address)
	require.NoError(err)
	require.Equal(amount, bal)

	_, err = token.Approve(ctx, f.user, f.other.Address, big.NewInt(10))
	require.NoError(err)
	allowance, err := token.Allowance(ctx, f.user.Address, f.other.Address)
	require.NoError(err)
	require.Equal(big.NewInt(10), allowance)

	_, err = token.Burn(ctx, f.user, big.NewInt(400_000))
	require.NoError(err)
	supply, err := token.TotalSupply(ctx)
	require.NoError(err)
	require.Equal(new(big.Int).Sub(contractstest.InfinitySupply, big.NewInt(400_000)), supply)

	_, err = token.Transfer(ctx, f.user, f.other.Address, amount)
	reason, ok := contracts.RevertReason(err)
	require.True(ok)
	require.Equal("ERC20: transfer amount exceeds balance", reason)
}

func TestTokenOwnerSettings(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	token := f.token(t, router)

	_, err := token.SetFeeReceiver(ctx, f.owner, f.other.Address)
	require.NoError(err)
	_, err = token.SetFee(ctx, f.owner, big.NewInt(5))
	require.NoError(err)
	_, err = token.SetInitialFee(ctx, f.owner)
	require.NoError(err)
	_, err = token.SetMaxCycles(ctx, f.owner, big.NewInt(9))
	require.NoError(err)

	fake := f.chain.Tokens[token.Address]
	require.Equal(f.other.Address, fake.FeeReceiver)
	require.Equal(big.NewInt(5), fake.Fee)
	require.True(fake.InitialFee)
	require.Equal(big.NewInt(9), fake.MaxCycles)

	_, err = token.SetFee(ctx, f.user, big.NewInt(1))
	require.True(contracts.IsRevert(err, contracts.OwnableRevert))
}

func TestFeeDistributor(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	token := f.token(t, router)
	dist, err := f.binder.FeeDistributor(f.deploy(t, contracts.FeeDistributorName))
	require.NoError(err)

	infinity, err := dist.Infinity(ctx)
	require.NoError(err)
	require.Equal(common.Address{}, infinity)
	initialized, err := dist.Initialized(ctx)
	require.NoError(err)
	require.False(initialized)
	recipients, err := dist.Recipients(ctx)
	require.NoError(err)
	require.Equal(contracts.Recipients{}, recipients)

	vault := f.user.Address
	_, err = dist.Seed(ctx, f.user, token.Address, vault, f.other.Address, 60, 10)
	require.True(contracts.IsRevert(err, contracts.OwnableRevert))

	_, err = dist.Seed(ctx, f.owner, token.Address, vault, f.other.Address, 60, 10)
	require.NoError(err)
	recipients, err = dist.Recipients(ctx)
	require.NoError(err)
	require.Equal(contracts.Recipients{
		LiquidVault:      vault,
		SecondaryAddress: f.other.Address,
		LiquidVaultShare: 60,
		BurnPercentage:   10,
	}, recipients)

	amount := big.NewInt(1_000_000_000_000)
	_, err = token.Transfer(ctx, f.owner, dist.Address, amount)
	require.NoError(err)
	_, err = dist.DistributeFees(ctx, f.owner)
	require.NoError(err)

	vaultBal, err := token.BalanceOf(ctx, vault)
	require.NoError(err)
	require.Equal(big.NewInt(600_000_000_000), vaultBal)
	secondary, err := token.BalanceOf(ctx, f.other.Address)
	require.NoError(err)
	require.Equal(big.NewInt(300_000_000_000), secondary)
	left, err := token.BalanceOf(ctx, dist.Address)
	require.NoError(err)
	require.Zero(left.Sign())
}

type vaultFixture struct {
	*fixture
	token   *contracts.Token
	vault   *contracts.Vault
	pair    *contracts.Pair
	weth    common.Address
	router  common.Address
	factory *contracts.Factory
}

func newVaultFixture(t *testing.T, kind contracts.Kind) *vaultFixture {
	t.Helper()
	ctx := context.Background()
	f := newFixture(t)

	weth, factoryAddr, routerAddr, err := f.chain.AMM(ctx, f.owner)
	require.NoError(t, err)
	token := f.token(t, routerAddr)
	vault, err := f.binder.Vault(kind, f.deploy(t, kind.Name))
	require.NoError(t, err)

	factory, err := f.binder.Factory(factoryAddr)
	require.NoError(t, err)
	_, err = factory.CreatePair(ctx, f.owner, weth, token.Address)
	require.NoError(t, err)
	pairAddr, err := factory.GetPair(ctx, weth, token.Address)
	require.NoError(t, err)
	pair, err := f.binder.Pair(pairAddr)
	require.NoError(t, err)

	_, err = vault.Seed(ctx, f.owner, contracts.SeedParams{
		StakeDurationDays: 1,
		Infinity:          token.Address,
		Pair:              pairAddr,
		Router:            routerAddr,
		FeeDistributor:    f.other.Address,
		Receiver:          f.other.Address,
		DonationShare:     10,
		PurchaseFee:       30,
	})
	require.NoError(t, err)

	return &vaultFixture{
		fixture: f,
		token:   token,
		vault:   vault,
		pair:    pair,
		weth:    weth,
		router:  routerAddr,
		factory: factory,
	}
}

func TestVaultConfig(t *testing.T) {
	for _, kind := range contracts.Kinds() {
		kind := kind
		t.Run(kind.Name, func(t *testing.T) {
			require := require.New(t)
			ctx := context.Background()
			f := newVaultFixture(t, kind)

			cfg, err := f.vault.Config(ctx)
			require.NoError(err)
			require.Equal(f.token.Address, cfg.InfinityToken)
			require.Equal(f.pair.Address, cfg.TokenPair)
			require.Equal(f.router, cfg.UniswapRouter)
			require.Equal(f.other.Address, cfg.Receiver)
			require.Equal(f.weth, cfg.WETH)
			require.Equal(uint64(86400), cfg.StakeDuration.Uint64())
			require.Equal(uint8(30), cfg.PurchaseFee)

			_, err = f.vault.SetParameters(ctx, f.user, 8, 20, 20)
			require.True(contracts.IsRevert(err, contracts.OwnableRevert))
			_, err = f.vault.SetParameters(ctx, f.owner, 8, 20, 20)
			require.NoError(err)
			duration, err := f.vault.GetStakeDuration(ctx)
			require.NoError(err)
			require.Equal(uint64(691200), duration.Uint64())

			_, err = f.vault.SetReceiver(ctx, f.owner, f.user.Address)
			require.NoError(err)
			cfg, err = f.vault.Config(ctx)
			require.NoError(err)
			require.Equal(f.user.Address, cfg.Receiver)

			unlocked, err := f.vault.ForceUnlock(ctx)
			require.NoError(err)
			require.False(unlocked)
			_, err = f.vault.EnableLPForceUnlock(ctx, f.owner)
			require.NoError(err)
			duration, err = f.vault.GetStakeDuration(ctx)
			require.NoError(err)
			require.Zero(duration.Sign())

			_, err = f.vault.ClaimLP(ctx, f.user)
			require.True(contracts.IsRevert(err, kind.NothingToClaim()), err)

			_, err = f.vault.RegistryRecover(ctx, f.owner)
			if kind.HasRegistry {
				require.NoError(err)
			} else {
				require.ErrorIs(err, contracts.ErrUnsupported)
			}
		})
	}
}

func TestETHVaultPurchaseAndClaim(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newVaultFixture(t, contracts.LiquidVaultKind)
	kind := f.vault.Kind

	_, err := f.vault.PurchaseLP(ctx, f.user, nil)
	require.True(contracts.IsRevert(err, kind.ETHRequired()), err)

	value := big.NewInt(1_000_000_000)
	_, err = f.vault.PurchaseLP(ctx, f.user, value)
	require.True(contracts.IsRevert(err, kind.InsufficientInfinity()), err)

	_, err = f.token.Transfer(ctx, f.owner, f.vault.Address, big.NewInt(10_000_000_000))
	require.NoError(err)
	receiverBefore, err := f.chain.BalanceAt(ctx, f.other.Address, nil)
	require.NoError(err)
	receipt, err := f.vault.PurchaseLP(ctx, f.user, value)
	require.NoError(err)
	receiverAfter, err := f.chain.BalanceAt(ctx, f.other.Address, nil)
	require.NoError(err)
	require.Equal(big.NewInt(300_000_000), new(big.Int).Sub(receiverAfter, receiverBefore))
	wethHeld, err := f.chain.BalanceAt(ctx, f.weth, nil)
	require.NoError(err)
	require.Equal(big.NewInt(700_000_000), wethHeld)

	fees, err := f.vault.ParseFeeTransfer(receipt)
	require.NoError(err)
	require.Len(fees, 1)
	require.Equal("EthTransferred", fees[0].Event)
	require.Equal(f.user.Address, fees[0].From)
	require.Equal(big.NewInt(300_000_000), fees[0].PercentageAmount)

	queued, err := f.vault.ParseLPQueued(receipt)
	require.NoError(err)
	require.Len(queued, 1)
	require.Equal(f.user.Address, queued[0].Holder)
	require.Equal(big.NewInt(700_000_000), queued[0].Amount)

	length, err := f.vault.LockedLPLength(ctx, f.user.Address)
	require.NoError(err)
	require.Equal(uint64(1), length.Uint64())
	locked, err := f.vault.GetLockedLP(ctx, f.user.Address, 0)
	require.NoError(err)
	require.Equal(contracts.LockedLP{
		Holder:    f.user.Address,
		Amount:    big.NewInt(700_000_000),
		Timestamp: queued[0].Timestamp,
	}, locked)

	_, err = f.vault.ClaimLP(ctx, f.user)
	require.True(contracts.IsRevert(err, kind.LPStillLocked()), err)

	require.NoError(f.chain.IncreaseTime(ctx, 24*time.Hour))
	receipt, err = f.vault.ClaimLP(ctx, f.user)
	require.NoError(err)
	claimed, err := f.vault.ParseLPClaimed(receipt)
	require.NoError(err)
	require.Len(claimed, 1)
	require.Equal(big.NewInt(700_000_000), claimed[0].Amount)
	require.Equal(big.NewInt(70_000_000), claimed[0].ExitFee)
	require.True(claimed[0].Claimed)

	lp, err := f.pair.BalanceOf(ctx, f.user.Address)
	require.NoError(err)
	require.Equal(big.NewInt(630_000_000), lp)

	_, err = f.vault.ClaimLP(ctx, f.user)
	require.True(contracts.IsRevert(err, kind.NothingToClaim()), err)
}

func TestTokenVaultPurchase(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newVaultFixture(t, contracts.HodlerVaultSpaceKind)
	kind := f.vault.Kind
	amount := big.NewInt(1_000_000)

	_, err := f.token.Transfer(ctx, f.owner, f.user.Address, amount)
	require.NoError(err)

	_, err = f.vault.PurchaseLP(ctx, f.user, nil)
	require.True(contracts.IsRevert(err, kind.InfinityRequired()), err)
	_, err = f.vault.PurchaseLP(ctx, f.user, amount)
	require.True(contracts.IsRevert(err, kind.NotEnoughAllowance()), err)

	_, err = f.token.Approve(ctx, f.user, f.vault.Address, amount)
	require.NoError(err)
	_, err = f.vault.PurchaseLP(ctx, f.user, amount)
	require.True(contracts.IsRevert(err, kind.InsufficientETH()), err)

	_, err = f.vault.SendETH(ctx, f.owner, big.NewInt(10_000_000))
	require.NoError(err)
	receipt, err := f.vault.PurchaseLP(ctx, f.user, amount)
	require.NoError(err)
	vaultETH, err := f.chain.BalanceAt(ctx, f.vault.Address, nil)
	require.NoError(err)
	// an empty pair prices 1:1, so the net 700,000 tokens pair with as much wei
	require.Equal(big.NewInt(9_300_000), vaultETH)

	fees, err := f.vault.ParseFeeTransfer(receipt)
	require.NoError(err)
	require.Len(fees, 1)
	require.Equal("InfinityTransferred", fees[0].Event)
	require.Equal(big.NewInt(300_000), fees[0].PercentageAmount)

	receiverBal, err := f.token.BalanceOf(ctx, f.other.Address)
	require.NoError(err)
	require.Equal(big.NewInt(300_000), receiverBal)
}

func TestMarketsRegistryRecover(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newVaultFixture(t, contracts.MarketsHodlerVaultKind)

	registry, err := f.binder.MarketsRegistry(f.deploy(t, contracts.MarketsRegistryFakeName))
	require.NoError(err)
	_, err = f.vault.Seed(ctx, f.owner, contracts.SeedParams{
		StakeDurationDays: 1,
		Infinity:          f.token.Address,
		Registry:          registry.Address,
		Pair:              f.pair.Address,
		Router:            f.router,
		Receiver:          f.other.Address,
		PurchaseFee:       30,
	})
	require.NoError(err)

	w, err := f.binder.WETH(f.weth)
	require.NoError(err)
	_, err = w.Deposit(ctx, f.owner, big.NewInt(1_000_000_000_000_000))
	require.NoError(err)
	vaultETH := func() *big.Int {
		bal, err := f.chain.BalanceAt(ctx, f.vault.Address, nil)
		require.NoError(err)
		return bal
	}
	registryWETH := func() *big.Int {
		bal, err := w.BalanceOf(ctx, registry.Address)
		require.NoError(err)
		return bal
	}

	dust := big.NewInt(90_000_000_000_000)
	_, err = w.Transfer(ctx, f.owner, registry.Address, dust)
	require.NoError(err)
	_, err = f.vault.RegistryRecover(ctx, f.owner)
	require.NoError(err)
	require.Equal(dust, registryWETH())
	require.Zero(vaultETH().Sign())

	_, err = f.vault.RegistryRecover(ctx, f.user)
	require.True(contracts.IsRevert(err, contracts.OwnableRevert), err)

	// dust plus a top-up crosses the minimum
	_, err = w.Transfer(ctx, f.owner, registry.Address, big.NewInt(10_000_000_000_000))
	require.NoError(err)
	_, err = f.vault.RegistryRecover(ctx, f.owner)
	require.NoError(err)
	require.Zero(registryWETH().Sign())
	require.Equal(contracts.RegistryRecoverMin, vaultETH())

	_, err = registry.EnableSecondaryReceiver(ctx, f.owner, f.user.Address)
	require.NoError(err)
	secondary, err := registry.SecondaryReceiver(ctx)
	require.NoError(err)
	require.Equal(f.user.Address, secondary)
	_, err = w.Transfer(ctx, f.owner, registry.Address, contracts.RegistryRecoverMin)
	require.NoError(err)
	_, err = f.vault.RegistryRecover(ctx, f.owner)
	require.NoError(err)
	require.Zero(registryWETH().Sign())
	require.Equal(big.NewInt(180_000_000_000_000), vaultETH())
	kept, err := w.BalanceOf(ctx, f.user.Address)
	require.NoError(err)
	require.Equal(big.NewInt(20_000_000_000_000), kept)

	// a purchase recovers too
	_, err = w.Transfer(ctx, f.owner, registry.Address, contracts.RegistryRecoverMin)
	require.NoError(err)
	amount := big.NewInt(1_000_000)
	_, err = f.token.Approve(ctx, f.owner, f.vault.Address, amount)
	require.NoError(err)
	_, err = f.vault.PurchaseLP(ctx, f.owner, amount)
	require.NoError(err)
	require.Zero(registryWETH().Sign())
	want := new(big.Int).Add(big.NewInt(180_000_000_000_000), big.NewInt(80_000_000_000_000))
	require.Equal(want.Sub(want, big.NewInt(700_000)), vaultETH())
}

func TestPairAndLiquidity(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	ctx := context.Background()
	f := newVaultFixture(t, contracts.LiquidVaultKind)

	token0, err := f.pair.Token0(ctx)
	require.NoError(err)
	token1, err := f.pair.Token1(ctx)
	require.NoError(err)
	want0, want1 := contracts.SortTokens(f.weth, f.token.Address)
	assert.Equal(want0, token0)
	assert.Equal(want1, token1)

	supply, err := f.pair.TotalSupply(ctx)
	require.NoError(err)
	assert.Zero(supply.Sign())

	_, err = f.factory.CreatePair(ctx, f.owner, f.token.Address, f.weth)
	require.True(contracts.IsRevert(err, "UniswapV2: PAIR_EXISTS"), err)

	r, err := f.binder.Router(f.router)
	require.NoError(err)
	amount := big.NewInt(1_000_000_000_000)
	_, err = f.token.Approve(ctx, f.owner, f.router, amount)
	require.NoError(err)
	deadline := f.chain.Now() + 600
	receipt, err := r.AddLiquidityETH(ctx, f.owner, f.token.Address, amount, amount, amount, f.owner.Address, deadline, amount)
	require.NoError(err)

	mints, err := f.pair.ParseMint(receipt)
	require.NoError(err)
	require.Len(mints, 1)
	assert.Equal(f.router, mints[0].Sender)
	assert.Equal(amount, mints[0].Amount0)

	reserves, err := f.pair.GetReserves(ctx)
	require.NoError(err)
	assert.Equal(amount, reserves.Reserve0)
	assert.Equal(amount, reserves.Reserve1)

	lp, err := f.pair.BalanceOf(ctx, f.owner.Address)
	require.NoError(err)
	assert.Equal(new(big.Int).Sub(amount, contractstest.MinimumLiquidity), lp)

	w, err := f.binder.WETH(f.weth)
	require.NoError(err)
	_, err = w.Deposit(ctx, f.user, big.NewInt(5))
	require.NoError(err)
	bal, err := w.BalanceOf(ctx, f.user.Address)
	require.NoError(err)
	assert.Equal(big.NewInt(5), bal)
}
