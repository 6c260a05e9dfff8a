// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contracts

import (
	"bytes"
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/degen-vc/infinity-contracts/chain"
)

// Factory is a UniswapV2 (or Ubeswap) factory.
type Factory struct {
	*Contract
}

func (f *Factory) CreatePair(ctx context.Context, s *chain.Signer, tokenA, tokenB common.Address) (*types.Receipt, error) {
	return f.Transact(ctx, s, "createPair", tokenA, tokenB)
}

// GetPair returns the zero address when no pair exists.
func (f *Factory) GetPair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	return f.callAddress(ctx, "getPair", tokenA, tokenB)
}

// Pair is a UniswapV2 pair, itself the LP token.
type Pair struct {
	Token
}

// Reserves is the result of getReserves().
type Reserves struct {
	Reserve0           *big.Int
	Reserve1           *big.Int
	BlockTimestampLast uint32
}

func (p *Pair) Token0(ctx context.Context) (common.Address, error) {
	return p.callAddress(ctx, "token0")
}

func (p *Pair) Token1(ctx context.Context) (common.Address, error) {
	return p.callAddress(ctx, "token1")
}

func (p *Pair) GetReserves(ctx context.Context) (Reserves, error) {
	vals, err := p.CallNamed(ctx, "getReserves")
	if err != nil {
		return Reserves{}, err
	}
	var r Reserves
	if r.Reserve0, err = vals.Uint(vals.First("_reserve0", "0")); err != nil {
		return Reserves{}, err
	}
	if r.Reserve1, err = vals.Uint(vals.First("_reserve1", "1")); err != nil {
		return Reserves{}, err
	}
	ts, err := vals.Uint(vals.First("_blockTimestampLast", "2"))
	if err != nil {
		return Reserves{}, err
	}
	r.BlockTimestampLast = uint32(ts.Uint64())
	return r, nil
}

// SortTokens orders two tokens the way UniswapV2 assigns token0 and token1.
func SortTokens(a, b common.Address) (common.Address, common.Address) {
	if bytes.Compare(a.Bytes(), b.Bytes()) < 0 {
		return a, b
	}
	return b, a
}

// Router is a UniswapV2Router02.
type Router struct {
	*Contract
}

func (r *Router) Factory(ctx context.Context) (common.Address, error) {
	return r.callAddress(ctx, "factory")
}

// WETH is the wrapped native token the router pairs with.
func (r *Router) WETH(ctx context.Context) (common.Address, error) {
	return r.callAddress(ctx, "WETH")
}

// AddLiquidityETH deposits [amountToken] of [token] with [value] wei. The
// token must be approved to the router first.
func (r *Router) AddLiquidityETH(
	ctx context.Context,
	s *chain.Signer,
	token common.Address,
	amountToken *big.Int,
	amountTokenMin *big.Int,
	amountETHMin *big.Int,
	to common.Address,
	deadline uint64,
	value *big.Int,
) (*types.Receipt, error) {
	return r.TransactValue(ctx, s, value, "addLiquidityETH", token, amountToken, amountTokenMin, amountETHMin, to, deadline)
}

// WETH is wrapped ether.
type WETH struct {
	Token
}

func (w *WETH) Deposit(ctx context.Context, s *chain.Signer, value *big.Int) (*types.Receipt, error) {
	return w.TransactValue(ctx, s, value, "deposit")
}
