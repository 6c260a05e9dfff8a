// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package contracts binds the Infinity Protocol contracts and the AMM they
// trade on.
package contracts

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	log "github.com/inconshreveable/log15"

	"github.com/degen-vc/infinity-contracts/artifacts"
	"github.com/degen-vc/infinity-contracts/chain"
)

// OwnableRevert is the revert string of every onlyOwner function.
const OwnableRevert = "Ownable: caller is not the owner"

var (
	ErrUnknownContract = errors.New("no abi for contract")
	ErrUnknownMethod   = errors.New("unknown method")
)

// Contract is a deployed contract with its ABI.
type Contract struct {
	Name    string
	Address common.Address
	ABI     abi.ABI

	backend chain.Backend
	bound   *bind.BoundContract
}

// NewContract binds [parsed] at [addr].
func NewContract(name string, addr common.Address, parsed abi.ABI, backend chain.Backend) *Contract {
	return &Contract{
		Name:    name,
		Address: addr,
		ABI:     parsed,
		backend: backend,
		bound:   bind.NewBoundContract(addr, parsed, backend, backend, backend),
	}
}

// Backend is the node the contract is bound to.
func (c *Contract) Backend() chain.Backend { return c.backend }

func (c *Contract) method(name string) (abi.Method, error) {
	m, ok := c.ABI.Methods[name]
	if !ok {
		return abi.Method{}, fmt.Errorf("%w %s.%s", ErrUnknownMethod, c.Name, name)
	}
	return m, nil
}

// Call runs a read-only method and returns its outputs in order.
func (c *Contract) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	return c.CallFrom(ctx, common.Address{}, method, args...)
}

// CallFrom is Call with msg.sender set to [from].
func (c *Contract) CallFrom(ctx context.Context, from common.Address, method string, args ...interface{}) ([]interface{}, error) {
	m, err := c.method(method)
	if err != nil {
		return nil, err
	}
	coerced, err := CoerceArgs(m.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", c.Name, method, err)
	}
	var out []interface{}
	if err := c.bound.Call(&bind.CallOpts{From: from, Context: ctx}, &out, method, coerced...); err != nil {
		return nil, fmt.Errorf("%s.%s: %w", c.Name, method, err)
	}
	return out, nil
}

// CallNamed runs a read-only method and returns its outputs by name. Tuple
// outputs are flattened so struct getters read like ethers results.
func (c *Contract) CallNamed(ctx context.Context, method string, args ...interface{}) (Values, error) {
	out, err := c.Call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return NamedValues(c.ABI.Methods[method].Outputs, out), nil
}

// Transact sends [method] from [s] and waits for it to be mined.
func (c *Contract) Transact(ctx context.Context, s *chain.Signer, method string, args ...interface{}) (*types.Receipt, error) {
	return c.TransactValue(ctx, s, nil, method, args...)
}

// TransactValue is Transact with [value] wei attached.
func (c *Contract) TransactValue(ctx context.Context, s *chain.Signer, value *big.Int, method string, args ...interface{}) (*types.Receipt, error) {
	m, err := c.method(method)
	if err != nil {
		return nil, err
	}
	coerced, err := CoerceArgs(m.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", c.Name, method, err)
	}
	opts, err := s.TransactOpts(ctx)
	if err != nil {
		return nil, err
	}
	opts.Value = value

	tx, err := c.bound.Transact(opts, method, coerced...)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", c.Name, method, err)
	}
	log.Debug("sent transaction", "contract", c.Name, "method", method, "tx", tx.Hash())

	receipt, err := chain.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return receipt, fmt.Errorf("%s.%s: %w", c.Name, method, err)
	}
	return receipt, nil
}

// SendETH sends [value] wei to the contract with empty calldata.
func (c *Contract) SendETH(ctx context.Context, s *chain.Signer, value *big.Int) (*types.Receipt, error) {
	opts, err := s.TransactOpts(ctx)
	if err != nil {
		return nil, err
	}
	opts.Value = value

	tx, err := c.bound.Transfer(opts)
	if err != nil {
		return nil, fmt.Errorf("%s: send: %w", c.Name, err)
	}
	log.Debug("sent ether", "contract", c.Name, "value", value, "tx", tx.Hash())

	receipt, err := chain.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return receipt, fmt.Errorf("%s: send: %w", c.Name, err)
	}
	return receipt, nil
}

func (c *Contract) callAddress(ctx context.Context, method string, args ...interface{}) (common.Address, error) {
	out, err := c.Call(ctx, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	return Values{"0": out[0]}.Address("0")
}

func (c *Contract) callUint(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	out, err := c.Call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return Values{"0": out[0]}.Uint("0")
}

func (c *Contract) callBool(ctx context.Context, method string, args ...interface{}) (bool, error) {
	out, err := c.Call(ctx, method, args...)
	if err != nil {
		return false, err
	}
	return Values{"0": out[0]}.Bool("0")
}

// Owner is the Ownable owner.
func (c *Contract) Owner(ctx context.Context) (common.Address, error) {
	return c.callAddress(ctx, "owner")
}

// TransferOwnership hands the contract to [newOwner].
func (c *Contract) TransferOwnership(ctx context.Context, s *chain.Signer, newOwner common.Address) (*types.Receipt, error) {
	return c.Transact(ctx, s, "transferOwnership", newOwner)
}

// Binder resolves ABIs and builds bindings on one backend. ABIs come from the
// artifact store when it has them, otherwise from the embedded fallbacks.
type Binder struct {
	store   *artifacts.Store
	backend chain.Backend
}

// NewBinder returns a Binder. [store] may be nil.
func NewBinder(store *artifacts.Store, backend chain.Backend) *Binder {
	return &Binder{store: store, backend: backend}
}

// Backend is the node bindings are created on.
func (b *Binder) Backend() chain.Backend { return b.backend }

// ABI returns the ABI of contract [name].
func (b *Binder) ABI(name string) (abi.ABI, error) {
	if b.store != nil {
		a, err := b.store.Get(name)
		switch {
		case err == nil:
			return a.ABI, nil
		case !errors.Is(err, artifacts.ErrArtifactNotFound):
			return abi.ABI{}, err
		}
	}
	if parsed, ok := EmbeddedABI(name); ok {
		return parsed, nil
	}
	return abi.ABI{}, fmt.Errorf("%w %s", ErrUnknownContract, name)
}

// Bind returns the generic binding of [name] at [addr].
func (b *Binder) Bind(name string, addr common.Address) (*Contract, error) {
	parsed, err := b.ABI(name)
	if err != nil {
		return nil, err
	}
	return NewContract(name, addr, parsed, b.backend), nil
}

func (b *Binder) Token(addr common.Address) (*Token, error) {
	c, err := b.Bind(InfinityProtocolName, addr)
	if err != nil {
		return nil, err
	}
	return &Token{Contract: c}, nil
}

func (b *Binder) FeeDistributor(addr common.Address) (*FeeDistributor, error) {
	c, err := b.Bind(FeeDistributorName, addr)
	if err != nil {
		return nil, err
	}
	return &FeeDistributor{Contract: c}, nil
}

func (b *Binder) Vault(kind Kind, addr common.Address) (*Vault, error) {
	c, err := b.Bind(kind.Name, addr)
	if err != nil {
		return nil, err
	}
	return &Vault{Contract: c, Kind: kind}, nil
}

func (b *Binder) Factory(addr common.Address) (*Factory, error) {
	c, err := b.Bind(UniswapV2FactoryName, addr)
	if err != nil {
		return nil, err
	}
	return &Factory{Contract: c}, nil
}

func (b *Binder) Pair(addr common.Address) (*Pair, error) {
	c, err := b.Bind(UniswapV2PairName, addr)
	if err != nil {
		return nil, err
	}
	return &Pair{Token: Token{Contract: c}}, nil
}

func (b *Binder) Router(addr common.Address) (*Router, error) {
	c, err := b.Bind(UniswapV2Router02Name, addr)
	if err != nil {
		return nil, err
	}
	return &Router{Contract: c}, nil
}

func (b *Binder) MarketsRegistry(addr common.Address) (*MarketsRegistry, error) {
	c, err := b.Bind(MarketsRegistryFakeName, addr)
	if err != nil {
		return nil, err
	}
	return &MarketsRegistry{Contract: c}, nil
}

func (b *Binder) WETH(addr common.Address) (*WETH, error) {
	c, err := b.Bind(WETH9Name, addr)
	if err != nil {
		return nil, err
	}
	return &WETH{Token: Token{Contract: c}}, nil
}
