// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contractstest

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/degen-vc/infinity-contracts/chain/chaintest"
	"github.com/degen-vc/infinity-contracts/contracts"
)

const day = 86400

// Vault is an LP vault fake. Purchases price INFINITY at the pair's reserves
// and lock the net paid amount as LP. Token-paid vaults pair purchases with
// the ether they hold.
type Vault struct {
	Address common.Address
	Kind    contracts.Kind
	Owner   common.Address

	Infinity       common.Address
	Registry       common.Address
	Pair           common.Address
	Router         common.Address
	FeeDistributor common.Address
	Receiver       common.Address
	// StakeDuration is in seconds.
	StakeDuration uint32
	DonationShare uint8
	PurchaseFee   uint8
	ForceUnlock   bool

	Locked map[common.Address][]contracts.LockedLP

	chain *Chain
	abi   abi.ABI
}

func (v *Vault) weth() common.Address {
	if r, ok := v.chain.Routers[v.Router]; ok {
		return r.WETH
	}
	return common.Address{}
}

// quote converts [amount] of ETH into INFINITY, or back when [toInfinity] is
// false, at the pair's reserves. An empty pair trades 1:1.
func (v *Vault) quote(amount *big.Int, toInfinity bool) *big.Int {
	pair, ok := v.chain.Pairs[v.Pair]
	if !ok || pair.Reserve0.Sign() == 0 || pair.Reserve1.Sign() == 0 {
		return new(big.Int).Set(amount)
	}
	reserveInfinity, reserveETH := pair.Reserve0, pair.Reserve1
	if pair.Token0 != v.Infinity {
		reserveInfinity, reserveETH = reserveETH, reserveInfinity
	}
	if toInfinity {
		q := new(big.Int).Mul(amount, reserveInfinity)
		return q.Div(q, reserveETH)
	}
	q := new(big.Int).Mul(amount, reserveETH)
	return q.Div(q, reserveInfinity)
}

func (v *Vault) seed(c *chaintest.Call) {
	for i, a := range v.Kind.Seed {
		switch a {
		case contracts.SeedDuration:
			v.StakeDuration = uint32Arg(c, i) * day
		case contracts.SeedInfinity:
			v.Infinity = addressArg(c, i)
		case contracts.SeedRegistry:
			v.Registry = addressArg(c, i)
		case contracts.SeedPair:
			v.Pair = addressArg(c, i)
		case contracts.SeedRouter:
			v.Router = addressArg(c, i)
		case contracts.SeedFeeDistributor:
			v.FeeDistributor = addressArg(c, i)
		case contracts.SeedReceiver:
			v.Receiver = addressArg(c, i)
		case contracts.SeedDonationShare:
			v.DonationShare = uint8Arg(c, i)
		case contracts.SeedPurchaseFee:
			v.PurchaseFee = uint8Arg(c, i)
		}
	}
}

func (v *Vault) config() []interface{} {
	vals := []interface{}{v.Infinity, v.Pair, v.Router}
	for _, a := range v.Kind.Seed {
		if a == contracts.SeedFeeDistributor {
			vals = append(vals, v.FeeDistributor)
		}
	}
	return append(vals, v.Receiver, v.weth(), v.StakeDuration, v.DonationShare, v.PurchaseFee)
}

func (v *Vault) purchase(c *chaintest.Call) ([]interface{}, error) {
	var (
		paid  *big.Int
		event string
	)
	if v.Kind.PaysInETH {
		paid = c.Value
		if paid.Sign() == 0 {
			return nil, chaintest.Revert(v.Kind.ETHRequired())
		}
		event = "EthTransferred"
	} else {
		paid = bigArg(c, 0)
		if paid.Sign() == 0 {
			return nil, chaintest.Revert(v.Kind.InfinityRequired())
		}
		event = "InfinityTransferred"
	}
	token, ok := v.chain.Tokens[v.Infinity]
	if !ok {
		return nil, chaintest.Revert(v.Kind.InsufficientInfinity())
	}
	if !v.Kind.PaysInETH && token.allowance(c.From, v.Address).Cmp(paid) < 0 {
		return nil, chaintest.Revert(v.Kind.NotEnoughAllowance())
	}
	fee := percent(paid, v.PurchaseFee)
	net := new(big.Int).Sub(paid, fee)

	var eth, tokens *big.Int
	if v.Kind.PaysInETH {
		eth, tokens = net, v.quote(net, true)
		if token.BalanceOf(v.Address).Cmp(tokens) < 0 {
			return nil, chaintest.Revert(v.Kind.InsufficientInfinity())
		}
	} else {
		eth, tokens = v.quote(net, false), paid
		if c.Balance(v.Address).Cmp(eth) < 0 {
			return nil, chaintest.Revert(v.Kind.InsufficientETH())
		}
	}
	if c.Static {
		return nil, nil
	}

	if v.Kind.PaysInETH {
		if err := c.Send(v.Address, v.Receiver, fee); err != nil {
			return nil, err
		}
		if err := token.move(c, v.Address, v.Pair, tokens); err != nil {
			return nil, err
		}
		if err := v.drainDistributor(c); err != nil {
			return nil, err
		}
	} else {
		if err := token.spend(c, c.From, v.Address, v.Address, paid); err != nil {
			return nil, err
		}
		if err := token.move(c, v.Address, v.Receiver, fee); err != nil {
			return nil, err
		}
	}
	if err := v.wrapToPair(c, eth); err != nil {
		return nil, err
	}
	if v.Kind.HasRegistry {
		if err := v.recover(c); err != nil {
			return nil, err
		}
	}
	if err := c.Emit(event, c.From, new(big.Int).Set(paid), fee); err != nil {
		return nil, err
	}

	if pair, ok := v.chain.Pairs[v.Pair]; ok {
		if err := pair.mint(c, v.Address, net); err != nil {
			return nil, err
		}
	}
	ts := new(big.Int).SetUint64(c.Time)
	v.Locked[c.From] = append(v.Locked[c.From], contracts.LockedLP{
		Holder:    c.From,
		Amount:    new(big.Int).Set(net),
		Timestamp: ts,
	})
	return nil, c.Emit("LPQueued", c.From, new(big.Int).Set(net), eth, tokens, ts)
}

// wrapToPair moves [eth] wei of the vault into WETH held by the pair.
func (v *Vault) wrapToPair(c *chaintest.Call, eth *big.Int) error {
	weth, ok := v.chain.WETHs[v.weth()]
	if !ok {
		return c.Send(v.Address, v.Pair, eth)
	}
	if err := c.Send(v.Address, weth.Address, eth); err != nil {
		return err
	}
	return weth.mint(c, v.Pair, eth)
}

// drainDistributor runs the fee distributor the vault was seeded with, if it
// holds anything.
func (v *Vault) drainDistributor(c *chaintest.Call) error {
	d, ok := v.chain.Distributors[v.FeeDistributor]
	if !ok || !d.Initialized {
		return nil
	}
	token, ok := v.chain.Tokens[d.Infinity]
	if !ok || token.BalanceOf(d.Address).Sign() == 0 {
		return nil
	}
	return d.distribute(c)
}

// recover unwraps the registry's WETH into the vault once it reaches
// RegistryRecoverMin. A registry with a secondary receiver hands it
// RegistrySecondaryShare of the WETH first.
func (v *Vault) recover(c *chaintest.Call) error {
	weth, ok := v.chain.WETHs[v.weth()]
	if !ok {
		return nil
	}
	held := weth.BalanceOf(v.Registry)
	if held.Cmp(contracts.RegistryRecoverMin) < 0 {
		return nil
	}
	if r, ok := v.chain.Registries[v.Registry]; ok && r.SecondaryReceiver != (common.Address{}) {
		kept := percent(held, contracts.RegistrySecondaryShare)
		if err := weth.move(c, v.Registry, r.SecondaryReceiver, kept); err != nil {
			return err
		}
		held.Sub(held, kept)
	}
	return weth.unwrap(c, v.Registry, v.Address, held)
}

func (v *Vault) claim(c *chaintest.Call) ([]interface{}, error) {
	batches := v.Locked[c.From]
	next := -1
	for i := range batches {
		if !batches[i].Claimed {
			next = i
			break
		}
	}
	if next < 0 {
		return nil, chaintest.Revert(v.Kind.NothingToClaim())
	}
	batch := batches[next]
	unlock := batch.Timestamp.Uint64() + uint64(v.StakeDuration)
	if !v.ForceUnlock && c.Time < unlock {
		return nil, chaintest.Revert(v.Kind.LPStillLocked())
	}
	if c.Static {
		return nil, nil
	}

	exitFee := percent(batch.Amount, v.DonationShare)
	if pair, ok := v.chain.Pairs[v.Pair]; ok {
		if err := pair.move(c, v.Address, c.From, new(big.Int).Sub(batch.Amount, exitFee)); err != nil {
			return nil, err
		}
	}
	batches[next].Claimed = true
	return nil, c.Emit("LPClaimed", c.From, new(big.Int).Set(batch.Amount), new(big.Int).SetUint64(c.Time), exitFee, true)
}

func (v *Vault) contract() *chaintest.Contract {
	m := ownable(&v.Owner)
	m["seed"] = onlyOwner(&v.Owner, func(c *chaintest.Call) ([]interface{}, error) {
		v.seed(c)
		return nil, nil
	})
	m["setParameters"] = onlyOwner(&v.Owner, func(c *chaintest.Call) ([]interface{}, error) {
		v.StakeDuration = uint32Arg(c, 0) * day
		v.DonationShare = uint8Arg(c, 1)
		v.PurchaseFee = uint8Arg(c, 2)
		return nil, nil
	})
	m["enableLPForceUnlock"] = onlyOwner(&v.Owner, func(*chaintest.Call) ([]interface{}, error) {
		v.ForceUnlock = true
		return nil, nil
	})
	m["forceUnlock"] = func(*chaintest.Call) ([]interface{}, error) { return out(v.ForceUnlock) }
	m["getStakeDuration"] = func(*chaintest.Call) ([]interface{}, error) {
		if v.ForceUnlock {
			return out(new(big.Int))
		}
		return out(new(big.Int).SetUint64(uint64(v.StakeDuration)))
	}
	m["config"] = func(*chaintest.Call) ([]interface{}, error) { return v.config(), nil }
	m["purchaseLP"] = v.purchase
	m["claimLP"] = v.claim
	m["lockedLPLength"] = func(c *chaintest.Call) ([]interface{}, error) {
		return out(big.NewInt(int64(len(v.Locked[addressArg(c, 0)]))))
	}
	m["getLockedLP"] = func(c *chaintest.Call) ([]interface{}, error) {
		batches := v.Locked[addressArg(c, 0)]
		pos := bigArg(c, 1)
		if !pos.IsUint64() || pos.Uint64() >= uint64(len(batches)) {
			return nil, chaintest.Revert("index out of range")
		}
		b := batches[pos.Uint64()]
		return out(b.Holder, new(big.Int).Set(b.Amount), new(big.Int).Set(b.Timestamp), b.Claimed)
	}
	m[v.Kind.ReceiverSetter] = onlyOwner(&v.Owner, func(c *chaintest.Call) ([]interface{}, error) {
		v.Receiver = addressArg(c, 0)
		return nil, nil
	})
	if v.Kind.HasRegistry {
		m["registryRecover"] = onlyOwner(&v.Owner, func(c *chaintest.Call) ([]interface{}, error) {
			return nil, v.recover(c)
		})
	}
	return &chaintest.Contract{ABI: v.abi, Methods: m}
}
