// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contractstest

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/degen-vc/infinity-contracts/chain/chaintest"
	"github.com/degen-vc/infinity-contracts/contracts"
)

const notInitialized = "FeeDistributor: not initialized"

// FeeDistributor is the fee splitter fake.
type FeeDistributor struct {
	Address     common.Address
	Owner       common.Address
	Infinity    common.Address
	Recipients  contracts.Recipients
	Initialized bool

	chain *Chain
	abi   abi.ABI
}

// distribute splits the distributor's whole token balance: the vault share
// to the liquid vault, the burn share burnt and the rest to the secondary
// address.
func (d *FeeDistributor) distribute(c *chaintest.Call) error {
	token, ok := d.chain.Tokens[d.Infinity]
	if !d.Initialized || !ok {
		return chaintest.Revert(notInitialized)
	}
	balance := token.BalanceOf(d.Address)
	vaultShare := percent(balance, d.Recipients.LiquidVaultShare)
	burn := percent(balance, d.Recipients.BurnPercentage)
	rest := balance.Sub(balance, vaultShare)
	rest.Sub(rest, burn)

	if err := token.move(c, d.Address, d.Recipients.LiquidVault, vaultShare); err != nil {
		return err
	}
	if err := token.burn(c, d.Address, burn); err != nil {
		return err
	}
	return token.move(c, d.Address, d.Recipients.SecondaryAddress, rest)
}

func (d *FeeDistributor) contract() *chaintest.Contract {
	m := ownable(&d.Owner)
	m["seed"] = onlyOwner(&d.Owner, func(c *chaintest.Call) ([]interface{}, error) {
		d.Infinity = addressArg(c, 0)
		d.Recipients = contracts.Recipients{
			LiquidVault:      addressArg(c, 1),
			SecondaryAddress: addressArg(c, 2),
			LiquidVaultShare: uint8Arg(c, 3),
			BurnPercentage:   uint8Arg(c, 4),
		}
		d.Initialized = true
		return nil, nil
	})
	m["recipients"] = func(*chaintest.Call) ([]interface{}, error) {
		r := d.Recipients
		return out(r.LiquidVault, r.SecondaryAddress, r.LiquidVaultShare, r.BurnPercentage)
	}
	m["infinity"] = func(*chaintest.Call) ([]interface{}, error) { return out(d.Infinity) }
	m["initialized"] = func(*chaintest.Call) ([]interface{}, error) { return out(d.Initialized) }
	m["distributeFees"] = func(c *chaintest.Call) ([]interface{}, error) {
		return nil, d.distribute(c)
	}
	return &chaintest.Contract{ABI: d.abi, Methods: m}
}
