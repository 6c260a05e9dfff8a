// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contracts

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/degen-vc/infinity-contracts/chain"
)

// FeeDistributor splits the token fees it holds between the liquid vault, a
// burn and a secondary address.
type FeeDistributor struct {
	*Contract
}

// Recipients is the seeded split.
type Recipients struct {
	LiquidVault      common.Address
	SecondaryAddress common.Address
	LiquidVaultShare uint8
	BurnPercentage   uint8
}

// Seed sets the token and the split. It can be called again to reseed.
func (d *FeeDistributor) Seed(
	ctx context.Context,
	s *chain.Signer,
	token common.Address,
	liquidVault common.Address,
	secondary common.Address,
	liquidVaultShare uint8,
	burnPercentage uint8,
) (*types.Receipt, error) {
	return d.Transact(ctx, s, "seed", token, liquidVault, secondary, liquidVaultShare, burnPercentage)
}

func (d *FeeDistributor) Recipients(ctx context.Context) (Recipients, error) {
	v, err := d.CallNamed(ctx, "recipients")
	if err != nil {
		return Recipients{}, err
	}
	var r Recipients
	if r.LiquidVault, err = v.Address(v.First("liquidVault", "0")); err != nil {
		return Recipients{}, err
	}
	if r.SecondaryAddress, err = v.Address(v.First("secondaryAddress", "1")); err != nil {
		return Recipients{}, err
	}
	if r.LiquidVaultShare, err = v.Uint8(v.First("liquidVaultShare", "2")); err != nil {
		return Recipients{}, err
	}
	if r.BurnPercentage, err = v.Uint8(v.First("burnPercentage", "3")); err != nil {
		return Recipients{}, err
	}
	return r, nil
}

// Infinity is the seeded token, zero before the first seed.
func (d *FeeDistributor) Infinity(ctx context.Context) (common.Address, error) {
	return d.callAddress(ctx, "infinity")
}

func (d *FeeDistributor) Initialized(ctx context.Context) (bool, error) {
	return d.callBool(ctx, "initialized")
}

// DistributeFees sends the current token balance out according to the split.
func (d *FeeDistributor) DistributeFees(ctx context.Context, s *chain.Signer) (*types.Receipt, error) {
	return d.Transact(ctx, s, "distributeFees")
}
