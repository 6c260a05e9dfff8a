// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/degen-vc/infinity-contracts/chain"
)

// RegistrySecondaryShare is the percentage of recovered WETH a registry with
// a secondary receiver keeps back.
const RegistrySecondaryShare = 20

// RegistryRecoverMin is the smallest registry WETH balance registryRecover
// moves, 0.0001 ether.
var RegistryRecoverMin = big.NewInt(100_000_000_000_000)

// MarketsRegistry is the registry MarketsHodlerVault tops its ETH up from.
type MarketsRegistry struct {
	*Contract
}

// EnableSecondaryReceiver makes the registry keep RegistrySecondaryShare of
// every recovery for [receiver].
func (r *MarketsRegistry) EnableSecondaryReceiver(ctx context.Context, s *chain.Signer, receiver common.Address) (*types.Receipt, error) {
	return r.Transact(ctx, s, "enableSecondaryReceiver", receiver)
}

func (r *MarketsRegistry) SecondaryReceiver(ctx context.Context) (common.Address, error) {
	return r.callAddress(ctx, "secondaryReceiver")
}
