// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contractstest

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/degen-vc/infinity-contracts/chain/chaintest"
	"github.com/degen-vc/infinity-contracts/contracts"
)

var hundred = big.NewInt(100)

func out(vals ...interface{}) ([]interface{}, error) { return vals, nil }

func addressArg(c *chaintest.Call, i int) common.Address {
	a, _ := c.Args[i].(common.Address)
	return a
}

func bigArg(c *chaintest.Call, i int) *big.Int {
	if b, ok := c.Args[i].(*big.Int); ok {
		return b
	}
	return new(big.Int)
}

func uint8Arg(c *chaintest.Call, i int) uint8 {
	v, _ := c.Args[i].(uint8)
	return v
}

func uint32Arg(c *chaintest.Call, i int) uint32 {
	v, _ := c.Args[i].(uint32)
	return v
}

// percent is amount * pct / 100, rounded down like the contracts do.
func percent(amount *big.Int, pct uint8) *big.Int {
	p := new(big.Int).Mul(amount, big.NewInt(int64(pct)))
	return p.Div(p, hundred)
}

// onlyOwner guards [fn] with the Ownable check. Static calls stop after the
// check so replays of failed transactions report the same reason.
func onlyOwner(owner *common.Address, fn chaintest.Method) chaintest.Method {
	return func(c *chaintest.Call) ([]interface{}, error) {
		if c.From != *owner {
			return nil, chaintest.Revert(contracts.OwnableRevert)
		}
		if c.Static {
			return nil, nil
		}
		return fn(c)
	}
}

func ownable(owner *common.Address) map[string]chaintest.Method {
	return map[string]chaintest.Method{
		"owner": func(*chaintest.Call) ([]interface{}, error) { return out(*owner) },
		"transferOwnership": onlyOwner(owner, func(c *chaintest.Call) ([]interface{}, error) {
			next := addressArg(c, 0)
			if next == (common.Address{}) {
				return nil, chaintest.Revert("Ownable: new owner is the zero address")
			}
			prev := *owner
			*owner = next
			return nil, c.Emit("OwnershipTransferred", prev, next)
		}),
		"renounceOwnership": onlyOwner(owner, func(c *chaintest.Call) ([]interface{}, error) {
			prev := *owner
			*owner = common.Address{}
			return nil, c.Emit("OwnershipTransferred", prev, common.Address{})
		}),
	}
}
