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

// Token is an ERC20. The InfinityProtocol extensions (router, fee receiver,
// burn, fee cycles) are only present on that contract.
type Token struct {
	*Contract
}

func (t *Token) TokenName(ctx context.Context) (string, error) {
	out, err := t.Call(ctx, "name")
	if err != nil {
		return "", err
	}
	s, _ := out[0].(string)
	return s, nil
}

func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	out, err := t.Call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	return Values{"decimals": out[0]}.Uint8("decimals")
}

func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	return t.callUint(ctx, "totalSupply")
}

func (t *Token) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return t.callUint(ctx, "balanceOf", account)
}

func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return t.callUint(ctx, "allowance", owner, spender)
}

func (t *Token) Transfer(ctx context.Context, s *chain.Signer, to common.Address, amount *big.Int) (*types.Receipt, error) {
	return t.Transact(ctx, s, "transfer", to, amount)
}

func (t *Token) Approve(ctx context.Context, s *chain.Signer, spender common.Address, amount *big.Int) (*types.Receipt, error) {
	return t.Transact(ctx, s, "approve", spender, amount)
}

// Router is the AMM router the token was constructed with.
func (t *Token) Router(ctx context.Context) (common.Address, error) {
	return t.callAddress(ctx, "router")
}

// SetFeeReceiver points transfer fees at [receiver], usually the
// FeeDistributor.
func (t *Token) SetFeeReceiver(ctx context.Context, s *chain.Signer, receiver common.Address) (*types.Receipt, error) {
	return t.Transact(ctx, s, "setFeeReceiver", receiver)
}

func (t *Token) Burn(ctx context.Context, s *chain.Signer, amount *big.Int) (*types.Receipt, error) {
	return t.Transact(ctx, s, "burn", amount)
}

func (t *Token) SetFee(ctx context.Context, s *chain.Signer, fee *big.Int) (*types.Receipt, error) {
	return t.Transact(ctx, s, "setFee", fee)
}

func (t *Token) SetInitialFee(ctx context.Context, s *chain.Signer) (*types.Receipt, error) {
	return t.Transact(ctx, s, "setInitialFee")
}

func (t *Token) SetMaxCycles(ctx context.Context, s *chain.Signer, cycles *big.Int) (*types.Receipt, error) {
	return t.Transact(ctx, s, "setMaxCycles", cycles)
}
