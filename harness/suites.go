// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package harness

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/degen-vc/infinity-contracts/chain"
	"github.com/degen-vc/infinity-contracts/contracts"
)

// Suite names.
const (
	InfinitySuite       = "infinity"
	FeeDistributorSuite = "feeDistributor"
	VaultSuite          = "vault"
	UniswapSuite        = "uniswap"
)

// Suites returns every check, grouped by suite name.
func Suites() map[string][]Check {
	return map[string][]Check{
		InfinitySuite:       infinityChecks(),
		FeeDistributorSuite: feeDistributorChecks(),
		VaultSuite:          vaultChecks(contracts.Kinds()...),
		UniswapSuite:        uniswapChecks(),
	}
}

// SuiteNames returns the suite names, sorted.
func SuiteNames() []string {
	suites := Suites()
	names := make([]string, 0, len(suites))
	for name := range suites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select returns the checks of [names] in the order given, or of every suite
// when [names] is empty.
func Select(names ...string) ([]Check, error) {
	suites := Suites()
	if len(names) == 0 {
		names = SuiteNames()
	}
	var checks []Check
	for _, name := range names {
		suite, ok := suites[name]
		if !ok {
			return nil, fmt.Errorf("%w %q, have %v", ErrUnknownSuite, name, SuiteNames())
		}
		checks = append(checks, suite...)
	}
	return checks, nil
}

func infinityChecks() []Check {
	check := func(name string, run func(context.Context, *Env, *contracts.Token) error) Check {
		return Check{
			Suite: InfinitySuite,
			Name:  name,
			Run: func(ctx context.Context, e *Env) error {
				token, err := e.DeployToken(ctx)
				if err != nil {
					return err
				}
				return run(ctx, e, token)
			},
		}
	}
	return []Check{
		check("owner is the deployer", func(ctx context.Context, e *Env, token *contracts.Token) error {
			owner, err := token.Owner(ctx)
			if err != nil {
				return err
			}
			return equalAddress("owner", owner, e.Owner.Address)
		}),
		check("router is the constructor argument", func(ctx context.Context, e *Env, token *contracts.Token) error {
			router, err := token.Router(ctx)
			if err != nil {
				return err
			}
			return equalAddress("router", router, e.Router.Address)
		}),
		check("deployer holds the supply", func(ctx context.Context, e *Env, token *contracts.Token) error {
			supply, err := token.TotalSupply(ctx)
			if err != nil {
				return err
			}
			balance, err := token.BalanceOf(ctx, e.Owner.Address)
			if err != nil {
				return err
			}
			return equalBig("deployer balance", balance, supply)
		}),
		check("ownership transfers", func(ctx context.Context, e *Env, token *contracts.Token) error {
			_, err := token.TransferOwnership(ctx, e.User, e.Other.Address)
			if err := reverted("transferOwnership from non-owner", err, contracts.OwnableRevert); err != nil {
				return err
			}
			if _, err := token.TransferOwnership(ctx, e.Owner, e.User.Address); err != nil {
				return err
			}
			owner, err := token.Owner(ctx)
			if err != nil {
				return err
			}
			if err := equalAddress("new owner", owner, e.User.Address); err != nil {
				return err
			}
			_, err = token.SetFeeReceiver(ctx, e.Owner, e.Other.Address)
			return reverted("setFeeReceiver from previous owner", err, contracts.OwnableRevert)
		}),
	}
}

func feeDistributorChecks() []Check {
	check := func(name string, run func(context.Context, *Env, *contracts.Token, *contracts.FeeDistributor) error) Check {
		return Check{
			Suite: FeeDistributorSuite,
			Name:  name,
			Run: func(ctx context.Context, e *Env) error {
				token, err := e.DeployToken(ctx)
				if err != nil {
					return err
				}
				dist, err := e.DeployDistributor(ctx)
				if err != nil {
					return err
				}
				return run(ctx, e, token, dist)
			},
		}
	}
	seedAndRead := func(ctx context.Context, e *Env, token *contracts.Token, dist *contracts.FeeDistributor, want contracts.Recipients) error {
		_, err := dist.Seed(ctx, e.Owner, token.Address, want.LiquidVault, want.SecondaryAddress, want.LiquidVaultShare, want.BurnPercentage)
		if err != nil {
			return err
		}
		got, err := dist.Recipients(ctx)
		if err != nil {
			return err
		}
		return equal("recipients", got, want)
	}

	return []Check{
		check("unseeded distributor is empty", func(ctx context.Context, _ *Env, _ *contracts.Token, dist *contracts.FeeDistributor) error {
			infinity, err := dist.Infinity(ctx)
			if err != nil {
				return err
			}
			if err := equalAddress("infinity", infinity, common.Address{}); err != nil {
				return err
			}
			initialized, err := dist.Initialized(ctx)
			if err != nil {
				return err
			}
			if err := equal("initialized", initialized, false); err != nil {
				return err
			}
			recipients, err := dist.Recipients(ctx)
			if err != nil {
				return err
			}
			return equal("recipients", recipients, contracts.Recipients{})
		}),
		check("seed sets the recipients", func(ctx context.Context, e *Env, token *contracts.Token, dist *contracts.FeeDistributor) error {
			err := seedAndRead(ctx, e, token, dist, contracts.Recipients{
				LiquidVault:      e.User.Address,
				SecondaryAddress: e.Other.Address,
				LiquidVaultShare: e.Options.LiquidVaultShare,
				BurnPercentage:   e.Options.BurnPercentage,
			})
			if err != nil {
				return err
			}
			infinity, err := dist.Infinity(ctx)
			if err != nil {
				return err
			}
			if err := equalAddress("infinity", infinity, token.Address); err != nil {
				return err
			}
			initialized, err := dist.Initialized(ctx)
			if err != nil {
				return err
			}
			return equal("initialized", initialized, true)
		}),
		check("reseed overrides the recipients", func(ctx context.Context, e *Env, token *contracts.Token, dist *contracts.FeeDistributor) error {
			err := seedAndRead(ctx, e, token, dist, contracts.Recipients{
				LiquidVault:      e.User.Address,
				SecondaryAddress: e.Other.Address,
				LiquidVaultShare: e.Options.LiquidVaultShare,
				BurnPercentage:   e.Options.BurnPercentage,
			})
			if err != nil {
				return err
			}
			return seedAndRead(ctx, e, token, dist, contracts.Recipients{
				LiquidVault:      e.Other.Address,
				SecondaryAddress: e.User.Address,
				LiquidVaultShare: 50,
				BurnPercentage:   5,
			})
		}),
		check("ownership transfers", func(ctx context.Context, e *Env, token *contracts.Token, dist *contracts.FeeDistributor) error {
			owner, err := dist.Owner(ctx)
			if err != nil {
				return err
			}
			if err := equalAddress("owner", owner, e.Owner.Address); err != nil {
				return err
			}
			_, err = dist.TransferOwnership(ctx, e.User, e.Other.Address)
			if err := reverted("transferOwnership from non-owner", err, contracts.OwnableRevert); err != nil {
				return err
			}
			if _, err := dist.TransferOwnership(ctx, e.Owner, e.User.Address); err != nil {
				return err
			}
			if owner, err = dist.Owner(ctx); err != nil {
				return err
			}
			if err := equalAddress("new owner", owner, e.User.Address); err != nil {
				return err
			}
			_, err = dist.Seed(ctx, e.Owner, token.Address, e.User.Address, e.Other.Address, e.Options.LiquidVaultShare, e.Options.BurnPercentage)
			return reverted("seed from previous owner", err, contracts.OwnableRevert)
		}),
		check("seed is owner only", func(ctx context.Context, e *Env, token *contracts.Token, dist *contracts.FeeDistributor) error {
			_, err := dist.Seed(ctx, e.User, token.Address, e.User.Address, e.Other.Address, e.Options.LiquidVaultShare, e.Options.BurnPercentage)
			return reverted("seed from non-owner", err, contracts.OwnableRevert)
		}),
		check("distributeFees splits the balance", func(ctx context.Context, e *Env, token *contracts.Token, dist *contracts.FeeDistributor) error {
			share, burn := e.Options.LiquidVaultShare, e.Options.BurnPercentage
			vault, secondary := e.User.Address, e.Other.Address
			if _, err := dist.Seed(ctx, e.Owner, token.Address, vault, secondary, share, burn); err != nil {
				return err
			}
			if _, err := token.SetFeeReceiver(ctx, e.Owner, dist.Address); err != nil {
				return err
			}
			decimals, err := token.Decimals(ctx)
			if err != nil {
				return err
			}
			if _, err := token.Transfer(ctx, e.Owner, dist.Address, Units(LiquidityTokens, decimals)); err != nil {
				return err
			}

			held, err := token.BalanceOf(ctx, dist.Address)
			if err != nil {
				return err
			}
			vaultBefore, err := token.BalanceOf(ctx, vault)
			if err != nil {
				return err
			}
			secondaryBefore, err := token.BalanceOf(ctx, secondary)
			if err != nil {
				return err
			}
			if _, err := dist.DistributeFees(ctx, e.Owner); err != nil {
				return err
			}

			wantVault, _, wantSecondary := DistributionSplit(held, share, burn)
			if err := balanceDelta(ctx, token, "vault", vault, vaultBefore, wantVault); err != nil {
				return err
			}
			if err := balanceDelta(ctx, token, "secondary", secondary, secondaryBefore, wantSecondary); err != nil {
				return err
			}
			left, err := token.BalanceOf(ctx, dist.Address)
			if err != nil {
				return err
			}
			return equalBig("distributor balance", left, new(big.Int))
		}),
	}
}

func vaultChecks(kinds ...contracts.Kind) []Check {
	var checks []Check
	for _, kind := range kinds {
		checks = append(checks, kindChecks(kind)...)
	}
	return checks
}

func kindChecks(kind contracts.Kind) []Check {
	check := func(name string, run func(context.Context, *Env, *VaultFixture) error) Check {
		return Check{
			Suite: VaultSuite,
			Name:  kind.Name + ": " + name,
			Run: func(ctx context.Context, e *Env) error {
				fx, err := e.SeededVault(ctx, kind)
				if err != nil {
					return err
				}
				return run(ctx, e, fx)
			},
		}
	}
	onlyOwner := func(method string, call func(context.Context, *Env, *VaultFixture) error) Check {
		return check(method+" is owner only", func(ctx context.Context, e *Env, fx *VaultFixture) error {
			return reverted(method+" from non-owner", call(ctx, e, fx), contracts.OwnableRevert)
		})
	}

	checks := []Check{
		onlyOwner("seed", func(ctx context.Context, e *Env, fx *VaultFixture) error {
			_, err := fx.Vault.Seed(ctx, e.User, fx.Seed)
			return err
		}),
		onlyOwner("setParameters", func(ctx context.Context, e *Env, fx *VaultFixture) error {
			_, err := fx.Vault.SetParameters(ctx, e.User, 8, 20, 20)
			return err
		}),
		onlyOwner(kind.ReceiverSetter, func(ctx context.Context, e *Env, fx *VaultFixture) error {
			_, err := fx.Vault.SetReceiver(ctx, e.User, e.User.Address)
			return err
		}),
		onlyOwner("enableLPForceUnlock", func(ctx context.Context, e *Env, fx *VaultFixture) error {
			_, err := fx.Vault.EnableLPForceUnlock(ctx, e.User)
			return err
		}),
		check("config matches the seed", func(ctx context.Context, e *Env, fx *VaultFixture) error {
			cfg, err := fx.Vault.Config(ctx)
			if err != nil {
				return err
			}
			return checkConfig(kind, cfg, fx.Seed, e.WETH)
		}),
		check("setParameters updates the config", func(ctx context.Context, e *Env, fx *VaultFixture) error {
			if _, err := fx.Vault.SetParameters(ctx, e.Owner, 8, 20, 20); err != nil {
				return err
			}
			cfg, err := fx.Vault.Config(ctx)
			if err != nil {
				return err
			}
			want := fx.Seed
			want.StakeDurationDays, want.DonationShare, want.PurchaseFee = 8, 20, 20
			return checkConfig(kind, cfg, want, e.WETH)
		}),
		check("force unlock zeroes the stake duration", func(ctx context.Context, e *Env, fx *VaultFixture) error {
			d, err := fx.Vault.GetStakeDuration(ctx)
			if err != nil {
				return err
			}
			if err := equalBig("stake duration", d, new(big.Int).SetUint64(StakeDurationSeconds(SeedStakeDays))); err != nil {
				return err
			}
			if _, err := fx.Vault.EnableLPForceUnlock(ctx, e.Owner); err != nil {
				return err
			}
			unlocked, err := fx.Vault.ForceUnlock(ctx)
			if err != nil {
				return err
			}
			if err := equal("forceUnlock", unlocked, true); err != nil {
				return err
			}
			if d, err = fx.Vault.GetStakeDuration(ctx); err != nil {
				return err
			}
			return equalBig("stake duration", d, new(big.Int))
		}),
		check(kind.ReceiverSetter+" updates the receiver", func(ctx context.Context, e *Env, fx *VaultFixture) error {
			if _, err := fx.Vault.SetReceiver(ctx, e.Owner, e.User.Address); err != nil {
				return err
			}
			cfg, err := fx.Vault.Config(ctx)
			if err != nil {
				return err
			}
			return equalAddress(kind.ReceiverField, cfg.Receiver, e.User.Address)
		}),
		check("purchase without payment reverts", func(ctx context.Context, e *Env, fx *VaultFixture) error {
			_, err := fx.Vault.PurchaseLP(ctx, e.User, nil)
			want := kind.InfinityRequired()
			if kind.PaysInETH {
				want = kind.ETHRequired()
			}
			return reverted("purchaseLP", err, want)
		}),
		check("claim with nothing locked reverts", func(ctx context.Context, e *Env, fx *VaultFixture) error {
			_, err := fx.Vault.ClaimLP(ctx, e.User)
			return reverted("claimLP", err, kind.NothingToClaim())
		}),
	}

	checks = append(checks,
		check("purchased LP unlocks after the stake duration", func(ctx context.Context, e *Env, fx *VaultFixture) error {
			return purchaseAndClaim(ctx, e, fx)
		}),
		check("two holders claim their batches in order", func(ctx context.Context, e *Env, fx *VaultFixture) error {
			return claimBatches(ctx, e, fx)
		}),
	)

	if kind.PaysInETH {
		checks = append(checks,
			check("purchase from an empty vault reverts", func(ctx context.Context, e *Env, fx *VaultFixture) error {
				_, err := fx.Vault.PurchaseLP(ctx, e.User, Ether(1))
				return reverted("purchaseLP", err, kind.InsufficientInfinity())
			}),
			check("purchase above the vault's tokens reverts", func(ctx context.Context, e *Env, fx *VaultFixture) error {
				if err := fx.Fund(ctx, e, 200); err != nil {
					return err
				}
				_, err := fx.Vault.PurchaseLP(ctx, e.Owner, Ether(LiquidityETH))
				return reverted("purchaseLP", err, kind.InsufficientInfinity())
			}),
		)
	} else {
		checks = append(checks,
			check("purchase without allowance reverts", func(ctx context.Context, e *Env, fx *VaultFixture) error {
				_, err := fx.Vault.PurchaseLP(ctx, e.Owner, Units(1000, fx.Decimals))
				return reverted("purchaseLP", err, kind.NotEnoughAllowance())
			}),
			check("purchase without ETH in the vault reverts", func(ctx context.Context, e *Env, fx *VaultFixture) error {
				amount := Units(1000, fx.Decimals)
				if _, err := fx.Token.Approve(ctx, e.Owner, fx.Vault.Address, amount); err != nil {
					return err
				}
				_, err := fx.Vault.PurchaseLP(ctx, e.Owner, amount)
				return reverted("purchaseLP", err, kind.InsufficientETH())
			}),
		)
	}

	if seeds(kind, contracts.SeedFeeDistributor) {
		checks = append(checks, check("purchase drains the fee distributor", func(ctx context.Context, e *Env, fx *VaultFixture) error {
			return purchaseDrainsDistributor(ctx, e, fx)
		}))
	}

	if kind.HasRegistry {
		recovers := func(name string, amount *big.Int, secondary bool, want func(*big.Int) *big.Int) Check {
			return check(name, func(ctx context.Context, e *Env, fx *VaultFixture) error {
				if secondary {
					if _, err := fx.Registry.EnableSecondaryReceiver(ctx, e.Owner, e.User.Address); err != nil {
						return err
					}
				}
				return registryRecover(ctx, e, fx, amount, want(amount), false)
			})
		}
		dust := new(big.Int).Sub(contracts.RegistryRecoverMin, big.NewInt(10_000_000_000_000))
		checks = append(checks,
			recovers("registryRecover unwraps the registry's WETH", contracts.RegistryRecoverMin, false, func(held *big.Int) *big.Int {
				return held
			}),
			recovers("registryRecover ignores less than the minimum", dust, false, func(*big.Int) *big.Int {
				return new(big.Int)
			}),
			recovers("registryRecover leaves the secondary share", contracts.RegistryRecoverMin, true, func(held *big.Int) *big.Int {
				return Percent(held, 100-contracts.RegistrySecondaryShare)
			}),
			check("purchase recovers the registry's WETH", func(ctx context.Context, e *Env, fx *VaultFixture) error {
				return registryRecover(ctx, e, fx, contracts.RegistryRecoverMin, contracts.RegistryRecoverMin, true)
			}),
			check("purchase ignores less than the minimum in the registry", func(ctx context.Context, e *Env, fx *VaultFixture) error {
				return registryRecover(ctx, e, fx, dust, new(big.Int), true)
			}),
		)
	}
	return checks
}

func checkConfig(kind contracts.Kind, cfg contracts.VaultConfig, want contracts.SeedParams, weth common.Address) error {
	if err := equalAddress("infinityToken", cfg.InfinityToken, want.Infinity); err != nil {
		return err
	}
	if err := equalAddress("tokenPair", cfg.TokenPair, want.Pair); err != nil {
		return err
	}
	if err := equalAddress("uniswapRouter", cfg.UniswapRouter, want.Router); err != nil {
		return err
	}
	if err := equalAddress(kind.ReceiverField, cfg.Receiver, want.Receiver); err != nil {
		return err
	}
	if err := equalAddress("weth", cfg.WETH, weth); err != nil {
		return err
	}
	if seeds(kind, contracts.SeedFeeDistributor) {
		if err := equalAddress("feeDistributor", cfg.FeeDistributor, want.FeeDistributor); err != nil {
			return err
		}
	}
	if err := equalBig("stakeDuration", cfg.StakeDuration, new(big.Int).SetUint64(StakeDurationSeconds(want.StakeDurationDays))); err != nil {
		return err
	}
	if seeds(kind, contracts.SeedDonationShare) {
		if err := equal("donationShare", cfg.DonationShare, want.DonationShare); err != nil {
			return err
		}
	}
	return equal("purchaseFee", cfg.PurchaseFee, want.PurchaseFee)
}

// PurchaseTokens whole tokens are paid per purchase on token-paid vaults,
// which are sent TokenVaultETH ether per purchase to pair them with.
const (
	PurchaseTokens = 5_000
	TokenVaultETH  = 10
)

// purchaseAmount is what one purchase pays: one ether, or PurchaseTokens on
// token-paid vaults.
func (fx *VaultFixture) purchaseAmount() *big.Int {
	if fx.Vault.Kind.PaysInETH {
		return Ether(1)
	}
	return Units(PurchaseTokens, fx.Decimals)
}

// prepare funds the vault for [purchases] purchases.
func (fx *VaultFixture) prepare(ctx context.Context, e *Env, purchases int64) error {
	if fx.Vault.Kind.PaysInETH {
		return fx.Fund(ctx, e, VaultTokens)
	}
	return fx.FundETH(ctx, e, Ether(TokenVaultETH*purchases))
}

// allowPurchases gives [s] the tokens for one purchase and approves the
// vault. ETH vaults need neither.
func (fx *VaultFixture) allowPurchases(ctx context.Context, e *Env, s *chain.Signer) error {
	if fx.Vault.Kind.PaysInETH {
		return nil
	}
	if s != e.Owner {
		if _, err := fx.Token.Transfer(ctx, e.Owner, s.Address, fx.purchaseAmount()); err != nil {
			return err
		}
	}
	if _, err := fx.Token.Approve(ctx, s, fx.Vault.Address, math.MaxBig256); err != nil {
		return fmt.Errorf("failed to approve %s: %w", fx.Vault.Kind.Name, err)
	}
	return nil
}

// receiverBalance is what the purchase fee is paid in: ether on ETH vaults,
// tokens otherwise.
func (fx *VaultFixture) receiverBalance(ctx context.Context, e *Env, receiver common.Address) (*big.Int, error) {
	if fx.Vault.Kind.PaysInETH {
		return e.Balance(ctx, receiver)
	}
	return fx.Token.BalanceOf(ctx, receiver)
}

// pairedETH is the ether a token-paid vault adds next to [tokens] at the
// fixture's liquidity ratio.
func (fx *VaultFixture) pairedETH(tokens *big.Int) *big.Int {
	eth := new(big.Int).Mul(tokens, Ether(LiquidityETH))
	return eth.Div(eth, Units(LiquidityTokens, fx.Decimals))
}

// buy purchases LP as [s] and checks the fee event and the queued batch.
func buy(ctx context.Context, fx *VaultFixture, cfg contracts.VaultConfig, s *chain.Signer, paid *big.Int) (contracts.LPQueued, error) {
	receipt, err := fx.Vault.PurchaseLP(ctx, s, paid)
	if err != nil {
		return contracts.LPQueued{}, fmt.Errorf("purchaseLP: %w", err)
	}
	fees, err := fx.Vault.ParseFeeTransfer(receipt)
	if err != nil {
		return contracts.LPQueued{}, err
	}
	if err := equal("fee events", len(fees), 1); err != nil {
		return contracts.LPQueued{}, err
	}
	if err := equalBig("purchase fee", fees[0].PercentageAmount, Percent(paid, cfg.PurchaseFee)); err != nil {
		return contracts.LPQueued{}, err
	}
	queued, err := fx.Vault.ParseLPQueued(receipt)
	if err != nil {
		return contracts.LPQueued{}, err
	}
	if err := equal("LPQueued events", len(queued), 1); err != nil {
		return contracts.LPQueued{}, err
	}
	if err := equalAddress("LPQueued holder", queued[0].Holder, s.Address); err != nil {
		return contracts.LPQueued{}, err
	}
	return queued[0], nil
}

// claim releases the oldest batch of [s] and checks the exit fee and the LP
// paid out.
func claim(ctx context.Context, fx *VaultFixture, cfg contracts.VaultConfig, s *chain.Signer) (contracts.LPClaimed, error) {
	before, err := fx.Pair.BalanceOf(ctx, s.Address)
	if err != nil {
		return contracts.LPClaimed{}, err
	}
	receipt, err := fx.Vault.ClaimLP(ctx, s)
	if err != nil {
		return contracts.LPClaimed{}, fmt.Errorf("claimLP: %w", err)
	}
	claimed, err := fx.Vault.ParseLPClaimed(receipt)
	if err != nil {
		return contracts.LPClaimed{}, err
	}
	if err := equal("LPClaimed events", len(claimed), 1); err != nil {
		return contracts.LPClaimed{}, err
	}
	c := claimed[0]
	if err := equalAddress("LPClaimed holder", c.Holder, s.Address); err != nil {
		return contracts.LPClaimed{}, err
	}
	exitFee := ExitFee(c.Amount, cfg.DonationShare)
	if err := equalBig("exit fee", c.ExitFee, exitFee); err != nil {
		return contracts.LPClaimed{}, err
	}
	return c, balanceDelta(ctx, &fx.Pair.Token, "LP", s.Address, before, new(big.Int).Sub(c.Amount, exitFee))
}

// purchaseAndClaim buys LP once, checks the fee reached the receiver and that
// the batch stays locked for the stake duration, then claims it.
func purchaseAndClaim(ctx context.Context, e *Env, fx *VaultFixture) error {
	kind := fx.Vault.Kind
	if err := fx.prepare(ctx, e, 1); err != nil {
		return err
	}
	if err := fx.allowPurchases(ctx, e, e.User); err != nil {
		return err
	}
	cfg, err := fx.Vault.Config(ctx)
	if err != nil {
		return err
	}
	receiverBefore, err := fx.receiverBalance(ctx, e, cfg.Receiver)
	if err != nil {
		return err
	}
	vaultBefore, err := e.Balance(ctx, fx.Vault.Address)
	if err != nil {
		return err
	}

	paid := fx.purchaseAmount()
	batch, err := buy(ctx, fx, cfg, e.User, paid)
	if err != nil {
		return err
	}
	fee := Percent(paid, cfg.PurchaseFee)
	receiverAfter, err := fx.receiverBalance(ctx, e, cfg.Receiver)
	if err != nil {
		return err
	}
	if err := equalBig(kind.ReceiverField+" balance change", new(big.Int).Sub(receiverAfter, receiverBefore), fee); err != nil {
		return err
	}
	if !kind.PaysInETH {
		spent := fx.pairedETH(new(big.Int).Sub(paid, fee))
		if err := ethDelta(ctx, e, "vault", fx.Vault.Address, vaultBefore, spent.Neg(spent)); err != nil {
			return err
		}
	}

	length, err := fx.Vault.LockedLPLength(ctx, e.User.Address)
	if err != nil {
		return err
	}
	if err := equalBig("lockedLPLength", length, big.NewInt(1)); err != nil {
		return err
	}
	locked, err := fx.Vault.GetLockedLP(ctx, e.User.Address, 0)
	if err != nil {
		return err
	}
	if err := equalBig("locked amount", locked.Amount, batch.Amount); err != nil {
		return err
	}
	if err := equal("locked claimed", locked.Claimed, false); err != nil {
		return err
	}

	_, err = fx.Vault.ClaimLP(ctx, e.User)
	if err := reverted("early claimLP", err, kind.LPStillLocked()); err != nil {
		return err
	}

	unlock := new(big.Int).Add(batch.Timestamp, cfg.StakeDuration)
	if err := e.Dev.SetTime(ctx, unlock.Uint64()); err != nil {
		return err
	}
	_, err = claim(ctx, fx, cfg, e.User)
	return err
}

// claimBatches has the owner buy twice and the user once, then claims the
// owner's batches oldest first, one past the end, and the user's.
func claimBatches(ctx context.Context, e *Env, fx *VaultFixture) error {
	kind := fx.Vault.Kind
	if err := fx.prepare(ctx, e, 3); err != nil {
		return err
	}
	for _, s := range []*chain.Signer{e.Owner, e.User} {
		if err := fx.allowPurchases(ctx, e, s); err != nil {
			return err
		}
	}
	cfg, err := fx.Vault.Config(ctx)
	if err != nil {
		return err
	}

	paid := fx.purchaseAmount()
	var last contracts.LPQueued
	for _, s := range []*chain.Signer{e.Owner, e.Owner, e.User} {
		if last, err = buy(ctx, fx, cfg, s, paid); err != nil {
			return err
		}
	}
	for _, holder := range []struct {
		s    *chain.Signer
		want int64
	}{{e.Owner, 2}, {e.User, 1}} {
		length, err := fx.Vault.LockedLPLength(ctx, holder.s.Address)
		if err != nil {
			return err
		}
		if err := equalBig("lockedLPLength", length, big.NewInt(holder.want)); err != nil {
			return err
		}
	}
	var owned []contracts.LockedLP
	for i := uint64(0); i < 2; i++ {
		lp, err := fx.Vault.GetLockedLP(ctx, e.Owner.Address, i)
		if err != nil {
			return err
		}
		owned = append(owned, lp)
	}

	unlock := new(big.Int).Add(last.Timestamp, cfg.StakeDuration)
	if err := e.Dev.SetTime(ctx, unlock.Uint64()); err != nil {
		return err
	}
	for i, lp := range owned {
		c, err := claim(ctx, fx, cfg, e.Owner)
		if err != nil {
			return err
		}
		if err := equalBig(fmt.Sprintf("claimed amount of batch %d", i), c.Amount, lp.Amount); err != nil {
			return err
		}
	}
	_, err = fx.Vault.ClaimLP(ctx, e.Owner)
	if err := reverted("claimLP past the last batch", err, kind.NothingToClaim()); err != nil {
		return err
	}
	c, err := claim(ctx, fx, cfg, e.User)
	if err != nil {
		return err
	}
	return equalBig("claimed amount of the user batch", c.Amount, last.Amount)
}

// purchaseDrainsDistributor checks a purchase runs the vault's fee
// distributor: the secondary address gets its share and nothing is left.
func purchaseDrainsDistributor(ctx context.Context, e *Env, fx *VaultFixture) error {
	if err := fx.prepare(ctx, e, 1); err != nil {
		return err
	}
	if _, err := fx.Token.SetFeeReceiver(ctx, e.Owner, fx.Distributor.Address); err != nil {
		return err
	}
	held := Units(PurchaseTokens, fx.Decimals)
	if _, err := fx.Token.Transfer(ctx, e.Owner, fx.Distributor.Address, held); err != nil {
		return err
	}
	recipients, err := fx.Distributor.Recipients(ctx)
	if err != nil {
		return err
	}
	before, err := fx.Token.BalanceOf(ctx, recipients.SecondaryAddress)
	if err != nil {
		return err
	}
	cfg, err := fx.Vault.Config(ctx)
	if err != nil {
		return err
	}
	if _, err := buy(ctx, fx, cfg, e.User, fx.purchaseAmount()); err != nil {
		return err
	}

	_, _, wantSecondary := DistributionSplit(held, recipients.LiquidVaultShare, recipients.BurnPercentage)
	if err := balanceDelta(ctx, fx.Token, "secondary", recipients.SecondaryAddress, before, wantSecondary); err != nil {
		return err
	}
	left, err := fx.Token.BalanceOf(ctx, fx.Distributor.Address)
	if err != nil {
		return err
	}
	return equalBig("distributor balance", left, new(big.Int))
}

// registryRecover wraps [amount] ether into the registry and recovers it,
// through registryRecover or inside a purchase. The vault's ether must grow
// by [want], less what the purchase pairs.
func registryRecover(ctx context.Context, e *Env, fx *VaultFixture, amount, want *big.Int, viaPurchase bool) error {
	weth, err := e.Binder.WETH(e.WETH)
	if err != nil {
		return err
	}
	if _, err := weth.Deposit(ctx, e.Owner, amount); err != nil {
		return err
	}
	if _, err := weth.Transfer(ctx, e.Owner, fx.Registry.Address, amount); err != nil {
		return err
	}

	want = new(big.Int).Set(want)
	if viaPurchase {
		if err := fx.prepare(ctx, e, 1); err != nil {
			return err
		}
		if err := fx.allowPurchases(ctx, e, e.Owner); err != nil {
			return err
		}
	}
	vaultBefore, err := e.Balance(ctx, fx.Vault.Address)
	if err != nil {
		return err
	}
	if viaPurchase {
		cfg, err := fx.Vault.Config(ctx)
		if err != nil {
			return err
		}
		paid := fx.purchaseAmount()
		if _, err := buy(ctx, fx, cfg, e.Owner, paid); err != nil {
			return err
		}
		want.Sub(want, fx.pairedETH(new(big.Int).Sub(paid, Percent(paid, cfg.PurchaseFee))))
	} else if _, err := fx.Vault.RegistryRecover(ctx, e.Owner); err != nil {
		return err
	}

	if err := ethDelta(ctx, e, "vault", fx.Vault.Address, vaultBefore, want); err != nil {
		return err
	}
	vaultWETH, err := weth.BalanceOf(ctx, fx.Vault.Address)
	if err != nil {
		return err
	}
	if err := equalBig("vault WETH", vaultWETH, new(big.Int)); err != nil {
		return err
	}
	left, err := weth.BalanceOf(ctx, fx.Registry.Address)
	if err != nil {
		return err
	}
	wantLeft := new(big.Int)
	if amount.Cmp(contracts.RegistryRecoverMin) < 0 {
		wantLeft.Set(amount)
	}
	return equalBig("registry WETH", left, wantLeft)
}

func uniswapChecks() []Check {
	check := func(name string, run func(context.Context, *Env, *contracts.Token, *contracts.Pair) error) Check {
		return Check{
			Suite: UniswapSuite,
			Name:  name,
			Run: func(ctx context.Context, e *Env) error {
				token, err := e.DeployToken(ctx)
				if err != nil {
					return err
				}
				pair, err := e.CreatePair(ctx, token.Address)
				if err != nil {
					return err
				}
				return run(ctx, e, token, pair)
			},
		}
	}
	return []Check{
		check("pair tokens are sorted", func(ctx context.Context, e *Env, token *contracts.Token, pair *contracts.Pair) error {
			want0, want1 := contracts.SortTokens(token.Address, e.WETH)
			token0, err := pair.Token0(ctx)
			if err != nil {
				return err
			}
			if err := equalAddress("token0", token0, want0); err != nil {
				return err
			}
			token1, err := pair.Token1(ctx)
			if err != nil {
				return err
			}
			return equalAddress("token1", token1, want1)
		}),
		check("empty pair has no supply", func(ctx context.Context, _ *Env, _ *contracts.Token, pair *contracts.Pair) error {
			supply, err := pair.TotalSupply(ctx)
			if err != nil {
				return err
			}
			return equalBig("totalSupply", supply, new(big.Int))
		}),
		check("addLiquidityETH mints LP", func(ctx context.Context, e *Env, token *contracts.Token, pair *contracts.Pair) error {
			decimals, err := token.Decimals(ctx)
			if err != nil {
				return err
			}
			tokens, eth := Units(LiquidityTokens, decimals), Ether(LiquidityETH)
			receipt, err := e.AddLiquidity(ctx, token, tokens, eth)
			if err != nil {
				return err
			}
			want0, want1 := tokens, eth
			if token0, _ := contracts.SortTokens(token.Address, e.WETH); token0 != token.Address {
				want0, want1 = eth, tokens
			}
			mints, err := pair.ParseMint(receipt)
			if err != nil {
				return err
			}
			if err := equal("Mint events", len(mints), 1); err != nil {
				return err
			}
			if err := equalBig("Mint amount0", mints[0].Amount0, want0); err != nil {
				return err
			}
			if err := equalBig("Mint amount1", mints[0].Amount1, want1); err != nil {
				return err
			}

			supply, err := pair.TotalSupply(ctx)
			if err != nil {
				return err
			}
			if supply.Sign() <= 0 {
				return fmt.Errorf("%w: totalSupply is %v after adding liquidity", ErrExpectation, supply)
			}
			reserves, err := pair.GetReserves(ctx)
			if err != nil {
				return err
			}
			if err := equalBig("reserve0", reserves.Reserve0, want0); err != nil {
				return err
			}
			return equalBig("reserve1", reserves.Reserve1, want1)
		}),
	}
}

// ethDelta checks that the ether balance of [who] moved by [want] since
// [before].
func ethDelta(ctx context.Context, e *Env, what string, who common.Address, before, want *big.Int) error {
	after, err := e.Balance(ctx, who)
	if err != nil {
		return err
	}
	return equalBig(what+" ether change", new(big.Int).Sub(after, before), want)
}

// balanceDelta checks that the token balance of [who] grew by [want] since
// [before].
func balanceDelta(ctx context.Context, token *contracts.Token, what string, who common.Address, before, want *big.Int) error {
	after, err := token.BalanceOf(ctx, who)
	if err != nil {
		return err
	}
	return equalBig(what+" balance change", new(big.Int).Sub(after, before), want)
}
