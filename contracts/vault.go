// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contracts

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/degen-vc/infinity-contracts/chain"
)

var ErrUnsupported = errors.New("not supported by this vault")

// SeedArg is one positional argument of a vault's seed function.
type SeedArg int

const (
	SeedDuration SeedArg = iota
	SeedInfinity
	SeedRegistry
	SeedPair
	SeedRouter
	SeedFeeDistributor
	SeedReceiver
	SeedDonationShare
	SeedPurchaseFee
)

// Kind describes how one vault contract differs from the others.
type Kind struct {
	Name string
	// Seed lists the seed arguments in call order.
	Seed []SeedArg
	// ReceiverSetter updates the fee receiver; ReceiverField is its name in
	// config().
	ReceiverSetter string
	ReceiverField  string
	// PaysInETH vaults take msg.value in purchaseLP; the others take a
	// token amount.
	PaysInETH bool
	// HasRegistry vaults can pull WETH from the markets registry.
	HasRegistry bool
}

var (
	LiquidVaultKind = Kind{
		Name:           LiquidVaultName,
		Seed:           []SeedArg{SeedDuration, SeedInfinity, SeedPair, SeedRouter, SeedReceiver, SeedDonationShare, SeedPurchaseFee},
		ReceiverSetter: "setFeeReceiverAddress",
		ReceiverField:  "feeReceiver",
		PaysInETH:      true,
	}
	PowerLiquidVaultKind = Kind{
		Name:           PowerLiquidVaultName,
		Seed:           []SeedArg{SeedDuration, SeedInfinity, SeedPair, SeedRouter, SeedFeeDistributor, SeedReceiver, SeedDonationShare, SeedPurchaseFee},
		ReceiverSetter: "setFeeReceiverAddress",
		ReceiverField:  "feeReceiver",
		PaysInETH:      true,
	}
	AcceleratorVaultSpaceKind = Kind{
		Name:           AcceleratorVaultSpaceName,
		Seed:           []SeedArg{SeedDuration, SeedInfinity, SeedPair, SeedRouter, SeedFeeDistributor, SeedReceiver, SeedDonationShare, SeedPurchaseFee},
		ReceiverSetter: "setEthHodlerAddress",
		ReceiverField:  "ethHodler",
		PaysInETH:      true,
	}
	HodlerVaultSpaceKind = Kind{
		Name:           HodlerVaultSpaceName,
		Seed:           []SeedArg{SeedDuration, SeedInfinity, SeedPair, SeedRouter, SeedReceiver, SeedPurchaseFee},
		ReceiverSetter: "setFeeReceiver",
		ReceiverField:  "feeReceiver",
	}
	MarketsHodlerVaultKind = Kind{
		Name:           MarketsHodlerVaultName,
		Seed:           []SeedArg{SeedDuration, SeedInfinity, SeedRegistry, SeedPair, SeedRouter, SeedReceiver, SeedPurchaseFee},
		ReceiverSetter: "setFeeReceiver",
		ReceiverField:  "feeReceiver",
		HasRegistry:    true,
	}
)

// Kinds returns every vault kind.
func Kinds() []Kind {
	return []Kind{
		LiquidVaultKind,
		PowerLiquidVaultKind,
		AcceleratorVaultSpaceKind,
		HodlerVaultSpaceKind,
		MarketsHodlerVaultKind,
	}
}

// KindByName looks a vault kind up by contract name.
func KindByName(name string) (Kind, bool) {
	for _, k := range Kinds() {
		if k.Name == name {
			return k, true
		}
	}
	return Kind{}, false
}

// Revert strings of the vault, prefixed with its contract name.
func (k Kind) NothingToClaim() string { return k.Name + ": nothing to claim." }
func (k Kind) LPStillLocked() string  { return k.Name + ": LP still locked." }
func (k Kind) ETHRequired() string    { return k.Name + ": ETH required to mint INFINITY LP" }
func (k Kind) InfinityRequired() string {
	return k.Name + ": INFINITY required to mint LP"
}

func (k Kind) InsufficientInfinity() string {
	return k.Name + ": insufficient INFINITY tokens in " + k.Name
}

func (k Kind) InsufficientETH() string {
	return k.Name + ": insufficient ETH on " + k.Name
}

func (k Kind) NotEnoughAllowance() string {
	return k.Name + ": Not enough INFINITY tokens allowance"
}

// SeedParams holds every value any vault's seed may take. Kinds pick the
// ones they need.
type SeedParams struct {
	// StakeDurationDays is stored by the vault in seconds.
	StakeDurationDays uint32
	Infinity          common.Address
	Registry          common.Address
	Pair              common.Address
	Router            common.Address
	FeeDistributor    common.Address
	Receiver          common.Address
	DonationShare     uint8
	PurchaseFee       uint8
}

// SeedArgs lays [p] out in the order the kind's seed expects.
func (k Kind) SeedArgs(p SeedParams) []interface{} {
	args := make([]interface{}, 0, len(k.Seed))
	for _, a := range k.Seed {
		switch a {
		case SeedDuration:
			args = append(args, p.StakeDurationDays)
		case SeedInfinity:
			args = append(args, p.Infinity)
		case SeedRegistry:
			args = append(args, p.Registry)
		case SeedPair:
			args = append(args, p.Pair)
		case SeedRouter:
			args = append(args, p.Router)
		case SeedFeeDistributor:
			args = append(args, p.FeeDistributor)
		case SeedReceiver:
			args = append(args, p.Receiver)
		case SeedDonationShare:
			args = append(args, p.DonationShare)
		case SeedPurchaseFee:
			args = append(args, p.PurchaseFee)
		}
	}
	return args
}

// Vault is one of the LP vaults.
type Vault struct {
	*Contract
	Kind Kind
}

// VaultConfig is the vault's config() getter.
type VaultConfig struct {
	InfinityToken  common.Address
	TokenPair      common.Address
	UniswapRouter  common.Address
	FeeDistributor common.Address
	// Receiver is feeReceiver or ethHodler, depending on the kind.
	Receiver      common.Address
	WETH          common.Address
	StakeDuration *big.Int
	DonationShare uint8
	PurchaseFee   uint8
}

// LockedLP is one purchase batch.
type LockedLP struct {
	Holder    common.Address
	Amount    *big.Int
	Timestamp *big.Int
	Claimed   bool
}

func (v *Vault) Seed(ctx context.Context, s *chain.Signer, p SeedParams) (*types.Receipt, error) {
	return v.Transact(ctx, s, "seed", v.Kind.SeedArgs(p)...)
}

// SetParameters takes the stake duration in days.
func (v *Vault) SetParameters(ctx context.Context, s *chain.Signer, stakeDurationDays uint32, donationShare, purchaseFee uint8) (*types.Receipt, error) {
	return v.Transact(ctx, s, "setParameters", stakeDurationDays, donationShare, purchaseFee)
}

func (v *Vault) EnableLPForceUnlock(ctx context.Context, s *chain.Signer) (*types.Receipt, error) {
	return v.Transact(ctx, s, "enableLPForceUnlock")
}

func (v *Vault) ForceUnlock(ctx context.Context) (bool, error) {
	return v.callBool(ctx, "forceUnlock")
}

// GetStakeDuration is the lock period in seconds, 0 once force unlocked.
func (v *Vault) GetStakeDuration(ctx context.Context) (*big.Int, error) {
	return v.callUint(ctx, "getStakeDuration")
}

// Config reads config() by exact output name. Positional fallbacks are not
// tried.
func (v *Vault) Config(ctx context.Context) (VaultConfig, error) {
	vals, err := v.CallNamed(ctx, "config")
	if err != nil {
		return VaultConfig{}, err
	}

	var c VaultConfig
	if c.InfinityToken, err = vals.Address("infinityToken"); err != nil {
		return VaultConfig{}, err
	}
	if c.TokenPair, err = vals.Address("tokenPair"); err != nil {
		return VaultConfig{}, err
	}
	if c.UniswapRouter, err = vals.Address("uniswapRouter"); err != nil {
		return VaultConfig{}, err
	}
	if c.Receiver, err = vals.Address(v.Kind.ReceiverField); err != nil {
		return VaultConfig{}, err
	}
	if c.WETH, err = vals.Address("weth"); err != nil {
		return VaultConfig{}, err
	}
	if c.StakeDuration, err = vals.Uint("stakeDuration"); err != nil {
		return VaultConfig{}, err
	}
	if c.DonationShare, err = vals.Uint8("donationShare"); err != nil {
		return VaultConfig{}, err
	}
	if c.PurchaseFee, err = vals.Uint8("purchaseFee"); err != nil {
		return VaultConfig{}, err
	}
	if _, ok := vals["feeDistributor"]; ok {
		if c.FeeDistributor, err = vals.Address("feeDistributor"); err != nil {
			return VaultConfig{}, err
		}
	}
	return c, nil
}

// PurchaseLP buys LP with [amount]: wei for ETH vaults, tokens otherwise.
// A nil amount sends nothing.
func (v *Vault) PurchaseLP(ctx context.Context, s *chain.Signer, amount *big.Int) (*types.Receipt, error) {
	if v.Kind.PaysInETH {
		return v.TransactValue(ctx, s, amount, "purchaseLP")
	}
	if amount == nil {
		amount = new(big.Int)
	}
	return v.Transact(ctx, s, "purchaseLP", amount)
}

// ClaimLP releases the oldest unlocked batch of the sender.
func (v *Vault) ClaimLP(ctx context.Context, s *chain.Signer) (*types.Receipt, error) {
	return v.Transact(ctx, s, "claimLP")
}

func (v *Vault) LockedLPLength(ctx context.Context, holder common.Address) (*big.Int, error) {
	return v.callUint(ctx, "lockedLPLength", holder)
}

func (v *Vault) GetLockedLP(ctx context.Context, holder common.Address, position uint64) (LockedLP, error) {
	vals, err := v.CallNamed(ctx, "getLockedLP", holder, position)
	if err != nil {
		return LockedLP{}, err
	}
	var lp LockedLP
	if lp.Holder, err = vals.Address("0"); err != nil {
		return LockedLP{}, err
	}
	if lp.Amount, err = vals.Uint("1"); err != nil {
		return LockedLP{}, err
	}
	if lp.Timestamp, err = vals.Uint("2"); err != nil {
		return LockedLP{}, err
	}
	if lp.Claimed, err = vals.Bool("3"); err != nil {
		return LockedLP{}, err
	}
	return lp, nil
}

// SetReceiver calls the kind's fee receiver setter.
func (v *Vault) SetReceiver(ctx context.Context, s *chain.Signer, receiver common.Address) (*types.Receipt, error) {
	return v.Transact(ctx, s, v.Kind.ReceiverSetter, receiver)
}

// RegistryRecover pulls WETH from the markets registry.
func (v *Vault) RegistryRecover(ctx context.Context, s *chain.Signer) (*types.Receipt, error) {
	if !v.Kind.HasRegistry {
		return nil, fmt.Errorf("%s: registryRecover: %w", v.Kind.Name, ErrUnsupported)
	}
	return v.Transact(ctx, s, "registryRecover")
}
