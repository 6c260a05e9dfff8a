// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contractstest

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/degen-vc/infinity-contracts/chain/chaintest"
	"github.com/degen-vc/infinity-contracts/contracts"
)

// MinimumLiquidity is locked forever by the first mint of every pair.
var MinimumLiquidity = big.NewInt(1000)

// Factory is the UniswapV2Factory fake.
type Factory struct {
	Address     common.Address
	FeeToSetter common.Address
	Pairs       map[common.Address]map[common.Address]common.Address
	All         []common.Address

	chain *Chain
	abi   abi.ABI
}

// GetPair returns the pair of [a] and [b] in either order.
func (f *Factory) GetPair(a, b common.Address) common.Address {
	return f.Pairs[a][b]
}

func (f *Factory) createPair(c *chaintest.Call, tokenA, tokenB common.Address) (common.Address, error) {
	if tokenA == tokenB {
		return common.Address{}, chaintest.Revert("UniswapV2: IDENTICAL_ADDRESSES")
	}
	token0, token1 := contracts.SortTokens(tokenA, tokenB)
	if token0 == (common.Address{}) {
		return common.Address{}, chaintest.Revert("UniswapV2: ZERO_ADDRESS")
	}
	if f.GetPair(token0, token1) != (common.Address{}) {
		return common.Address{}, chaintest.Revert("UniswapV2: PAIR_EXISTS")
	}
	addr := crypto.CreateAddress(f.Address, uint64(len(f.All)))
	if c.Static {
		return addr, nil
	}

	parsed, _ := contracts.EmbeddedABI(contracts.UniswapV2PairName)
	p := &Pair{
		Token:    newToken(addr, parsed, "Uniswap V2", "UNI-V2", 18),
		Token0:   token0,
		Token1:   token1,
		Reserve0: new(big.Int),
		Reserve1: new(big.Int),
	}
	f.chain.Pairs[addr] = p
	f.chain.Tokens[addr] = p.Token
	c.Install(addr, p.contract())

	for _, pair := range [][2]common.Address{{token0, token1}, {token1, token0}} {
		if f.Pairs[pair[0]] == nil {
			f.Pairs[pair[0]] = make(map[common.Address]common.Address)
		}
		f.Pairs[pair[0]][pair[1]] = addr
	}
	f.All = append(f.All, addr)
	return addr, c.EmitAt(f.Address, f.abi, "PairCreated", token0, token1, addr, big.NewInt(int64(len(f.All))))
}

func (f *Factory) contract() *chaintest.Contract {
	return &chaintest.Contract{
		ABI: f.abi,
		Methods: map[string]chaintest.Method{
			"createPair": func(c *chaintest.Call) ([]interface{}, error) {
				addr, err := f.createPair(c, addressArg(c, 0), addressArg(c, 1))
				if err != nil {
					return nil, err
				}
				return out(addr)
			},
			"getPair": func(c *chaintest.Call) ([]interface{}, error) {
				return out(f.GetPair(addressArg(c, 0), addressArg(c, 1)))
			},
			"allPairsLength": func(*chaintest.Call) ([]interface{}, error) {
				return out(big.NewInt(int64(len(f.All))))
			},
		},
	}
}

// Pair is the UniswapV2Pair fake.
type Pair struct {
	*Token
	Token0             common.Address
	Token1             common.Address
	Reserve0           *big.Int
	Reserve1           *big.Int
	BlockTimestampLast uint32
}

func (p *Pair) contract() *chaintest.Contract {
	m := p.methods()
	m["token0"] = func(*chaintest.Call) ([]interface{}, error) { return out(p.Token0) }
	m["token1"] = func(*chaintest.Call) ([]interface{}, error) { return out(p.Token1) }
	m["getReserves"] = func(*chaintest.Call) ([]interface{}, error) {
		return out(new(big.Int).Set(p.Reserve0), new(big.Int).Set(p.Reserve1), p.BlockTimestampLast)
	}
	return &chaintest.Contract{ABI: p.abi, Methods: m}
}

// addLiquidity mints LP for amounts already sent to the pair.
func (p *Pair) addLiquidity(c *chaintest.Call, sender, to common.Address, amount0, amount1 *big.Int) (*big.Int, error) {
	var liquidity *big.Int
	if p.Supply.Sign() == 0 {
		liquidity = new(big.Int).Sqrt(new(big.Int).Mul(amount0, amount1))
		liquidity.Sub(liquidity, MinimumLiquidity)
		if liquidity.Sign() <= 0 {
			return nil, chaintest.Revert("UniswapV2: INSUFFICIENT_LIQUIDITY_MINTED")
		}
		if err := p.mint(c, common.Address{}, MinimumLiquidity); err != nil {
			return nil, err
		}
	} else {
		l0 := new(big.Int).Div(new(big.Int).Mul(amount0, p.Supply), p.Reserve0)
		l1 := new(big.Int).Div(new(big.Int).Mul(amount1, p.Supply), p.Reserve1)
		liquidity = l0
		if l1.Cmp(l0) < 0 {
			liquidity = l1
		}
	}
	if err := p.mint(c, to, liquidity); err != nil {
		return nil, err
	}
	p.Reserve0 = new(big.Int).Add(p.Reserve0, amount0)
	p.Reserve1 = new(big.Int).Add(p.Reserve1, amount1)
	p.BlockTimestampLast = uint32(c.Time)
	if err := c.EmitAt(p.Address, p.abi, "Sync", new(big.Int).Set(p.Reserve0), new(big.Int).Set(p.Reserve1)); err != nil {
		return nil, err
	}
	return liquidity, c.EmitAt(p.Address, p.abi, "Mint", sender, amount0, amount1)
}

// Router is the UniswapV2Router02 fake.
type Router struct {
	Address common.Address
	Factory common.Address
	WETH    common.Address

	chain *Chain
	abi   abi.ABI
}

func (r *Router) addLiquidityETH(c *chaintest.Call) ([]interface{}, error) {
	tokenAddr, amountToken, to, deadline := addressArg(c, 0), bigArg(c, 1), addressArg(c, 4), bigArg(c, 5)
	if deadline.Cmp(new(big.Int).SetUint64(c.Time)) < 0 {
		return nil, chaintest.Revert("UniswapV2Router: EXPIRED")
	}
	factory, ok := r.chain.Factories[r.Factory]
	token, tokenOK := r.chain.Tokens[tokenAddr]
	weth, wethOK := r.chain.WETHs[r.WETH]
	if !ok || !tokenOK || !wethOK {
		return nil, chaintest.Revert("UniswapV2Router: unknown contracts")
	}
	if token.allowance(c.From, r.Address).Cmp(amountToken) < 0 {
		return nil, chaintest.Revert("TransferHelper: TRANSFER_FROM_FAILED")
	}
	if c.Static {
		return out(amountToken, c.Value, new(big.Int))
	}

	pairAddr := factory.GetPair(tokenAddr, r.WETH)
	if pairAddr == (common.Address{}) {
		var err error
		if pairAddr, err = factory.createPair(c, tokenAddr, r.WETH); err != nil {
			return nil, err
		}
	}
	pair := r.chain.Pairs[pairAddr]

	if err := token.spend(c, c.From, r.Address, pairAddr, amountToken); err != nil {
		return nil, err
	}
	if err := c.Send(r.Address, weth.Address, c.Value); err != nil {
		return nil, err
	}
	if err := weth.mint(c, pairAddr, c.Value); err != nil {
		return nil, err
	}
	amount0, amount1 := amountToken, c.Value
	if pair.Token0 != tokenAddr {
		amount0, amount1 = c.Value, amountToken
	}
	liquidity, err := pair.addLiquidity(c, r.Address, to, amount0, amount1)
	if err != nil {
		return nil, err
	}
	return out(new(big.Int).Set(amountToken), new(big.Int).Set(c.Value), liquidity)
}

func (r *Router) contract() *chaintest.Contract {
	return &chaintest.Contract{
		ABI: r.abi,
		Methods: map[string]chaintest.Method{
			"factory":         func(*chaintest.Call) ([]interface{}, error) { return out(r.Factory) },
			"WETH":            func(*chaintest.Call) ([]interface{}, error) { return out(r.WETH) },
			"addLiquidityETH": r.addLiquidityETH,
		},
	}
}

// PriceOracle records its constructor arguments; the harness never calls it.
type PriceOracle struct {
	Address common.Address
	Pair    common.Address
	TokenA  common.Address
	TokenB  common.Address
}
