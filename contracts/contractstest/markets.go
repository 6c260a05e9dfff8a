// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contractstest

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/degen-vc/infinity-contracts/chain/chaintest"
)

// MarketsRegistry is the MarketsRegistryFake. It only holds WETH; the vault
// pulls it out on registryRecover.
type MarketsRegistry struct {
	Address           common.Address
	SecondaryReceiver common.Address

	abi abi.ABI
}

func (r *MarketsRegistry) contract() *chaintest.Contract {
	return &chaintest.Contract{
		ABI: r.abi,
		Methods: map[string]chaintest.Method{
			"enableSecondaryReceiver": func(c *chaintest.Call) ([]interface{}, error) {
				if !c.Static {
					r.SecondaryReceiver = addressArg(c, 0)
				}
				return nil, nil
			},
			"secondaryReceiver": func(*chaintest.Call) ([]interface{}, error) {
				return out(r.SecondaryReceiver)
			},
		},
	}
}
