// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package contractstest fakes the Infinity Protocol contracts and the AMM on
// a chaintest backend. Deployments go through real creation transactions,
// so deploy pipelines and bindings run unchanged against it.
package contractstest

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/degen-vc/infinity-contracts/artifacts"
	"github.com/degen-vc/infinity-contracts/chain"
	"github.com/degen-vc/infinity-contracts/chain/chaintest"
	"github.com/degen-vc/infinity-contracts/config"
	"github.com/degen-vc/infinity-contracts/contracts"
)

// ChainID of every fake chain.
const ChainID = 1337

// Deployable lists the contracts the fake chain can create.
var Deployable = []string{
	contracts.InfinityProtocolName,
	contracts.LightningProtocolName,
	contracts.FeeDistributorName,
	contracts.PriceOracleName,
	contracts.LiquidVaultName,
	contracts.PowerLiquidVaultName,
	contracts.AcceleratorVaultSpaceName,
	contracts.HodlerVaultSpaceName,
	contracts.MarketsHodlerVaultName,
	contracts.MarketsRegistryFakeName,
	contracts.UniswapV2FactoryName,
	contracts.UniswapV2Router02Name,
	contracts.WETH9Name,
}

// Chain is a fake node with every contract fake deployable on it. The maps
// hold the fakes by address; tests inspect and adjust them between
// transactions.
type Chain struct {
	*chaintest.Backend

	Tokens       map[common.Address]*Token
	WETHs        map[common.Address]*WETH
	Distributors map[common.Address]*FeeDistributor
	Vaults       map[common.Address]*Vault
	Factories    map[common.Address]*Factory
	Pairs        map[common.Address]*Pair
	Routers      map[common.Address]*Router
	Oracles      map[common.Address]*PriceOracle
	Registries   map[common.Address]*MarketsRegistry
}

// New returns a chain with every deploy handler registered.
func New() *Chain {
	c := &Chain{
		Backend:      chaintest.NewBackend(ChainID),
		Tokens:       make(map[common.Address]*Token),
		WETHs:        make(map[common.Address]*WETH),
		Distributors: make(map[common.Address]*FeeDistributor),
		Vaults:       make(map[common.Address]*Vault),
		Factories:    make(map[common.Address]*Factory),
		Pairs:        make(map[common.Address]*Pair),
		Routers:      make(map[common.Address]*Router),
		Oracles:      make(map[common.Address]*PriceOracle),
		Registries:   make(map[common.Address]*MarketsRegistry),
	}
	for _, name := range Deployable {
		parsed, _ := contracts.EmbeddedABI(name)
		c.OnDeploy(Code(name), parsed, c.factory(name, parsed))
	}
	return c
}

// Code is the creation code the fake chain recognises as [name].
func Code(name string) []byte {
	return append([]byte{0x60, 0x80, 0x60, 0x40}, crypto.Keccak256([]byte(name))[:12]...)
}

// Artifact is the artifact of [name] as the fake chain expects it.
func Artifact(name string) *artifacts.Artifact {
	parsed, ok := contracts.EmbeddedABI(name)
	if !ok {
		return nil
	}
	raw, _ := contracts.EmbeddedABIJSON(name)
	return &artifacts.Artifact{
		ContractName:     name,
		SourceName:       "contracts/" + name + ".sol",
		ABI:              parsed,
		RawABI:           json.RawMessage(raw),
		Bytecode:         Code(name),
		DeployedBytecode: []byte{0xfe},
	}
}

// Store returns an artifact store preloaded with every deployable contract.
func Store(dir string) *artifacts.Store {
	s := artifacts.NewStore(dir)
	for _, name := range Deployable {
		s.Add(name, Artifact(name))
	}
	return s
}

// WriteArtifacts writes Hardhat artifacts of every deployable contract to
// [dir]/contracts/<Name>.sol/<Name>.json.
func WriteArtifacts(dir string) error {
	for _, name := range Deployable {
		a, err := rawArtifact(name)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, "contracts", name+".sol", name+".json")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, a, 0o600); err != nil {
			return err
		}
	}
	return nil
}

func rawArtifact(name string) ([]byte, error) {
	raw, _ := contracts.EmbeddedABIJSON(name)
	return json.MarshalIndent(map[string]interface{}{
		"_format":          "hh-sol-artifact-1",
		"contractName":     name,
		"sourceName":       "contracts/" + name + ".sol",
		"abi":              json.RawMessage(raw),
		"bytecode":         hexutil.Encode(Code(name)),
		"deployedBytecode": "0xfe",
	}, "", "  ")
}

// Signers returns [n] signers with the dev keys, funded with 10,000 ether.
func (c *Chain) Signers(n int) ([]*chain.Signer, error) {
	if n > len(config.DevKeys) {
		return nil, fmt.Errorf("only %d dev keys", len(config.DevKeys))
	}
	signers, err := chain.SignersFromKeys(big.NewInt(ChainID), nil, 0, config.DevKeys[:n]...)
	if err != nil {
		return nil, err
	}
	ether := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	for _, s := range signers {
		c.SetBalance(s.Address, new(big.Int).Mul(big.NewInt(10_000), ether))
	}
	return signers, nil
}

// Deploy creates [name] from [s] without going through an artifact store.
func (c *Chain) Deploy(ctx context.Context, s *chain.Signer, name string, args ...interface{}) (common.Address, error) {
	parsed, ok := contracts.EmbeddedABI(name)
	if !ok {
		return common.Address{}, fmt.Errorf("%w %s", contracts.ErrUnknownContract, name)
	}
	coerced, err := contracts.CoerceArgs(parsed.Constructor.Inputs, args)
	if err != nil {
		return common.Address{}, err
	}
	opts, err := s.TransactOpts(ctx)
	if err != nil {
		return common.Address{}, err
	}
	addr, tx, _, err := bind.DeployContract(opts, parsed, Code(name), c, coerced...)
	if err != nil {
		return common.Address{}, err
	}
	if _, err := chain.WaitDeployed(ctx, c, tx); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

// AMM deploys WETH9, the factory and the router, as the test fixtures do.
func (c *Chain) AMM(ctx context.Context, s *chain.Signer) (weth, factory, router common.Address, err error) {
	if weth, err = c.Deploy(ctx, s, contracts.WETH9Name); err != nil {
		return
	}
	if factory, err = c.Deploy(ctx, s, contracts.UniswapV2FactoryName, s.Address); err != nil {
		return
	}
	router, err = c.Deploy(ctx, s, contracts.UniswapV2Router02Name, factory, weth)
	return
}

func (c *Chain) factory(name string, parsed abi.ABI) chaintest.Factory {
	return func(call *chaintest.Call) (*chaintest.Contract, error) {
		addr := call.To
		switch name {
		case contracts.InfinityProtocolName:
			t := newInfinity(addr, call.From, call.Args[0].(common.Address))
			c.Tokens[addr] = t
			return t.contract(), nil
		case contracts.LightningProtocolName:
			t := newToken(addr, parsed, "Lightning Protocol", "LIGHT", 18)
			t.Owner = call.From
			t.Mint(call.From, InfinitySupply)
			c.Tokens[addr] = t
			return t.contract(), nil
		case contracts.WETH9Name:
			w := &WETH{Token: newToken(addr, parsed, "Wrapped Ether", "WETH", 18)}
			c.Tokens[addr] = w.Token
			c.WETHs[addr] = w
			return w.contract(), nil
		case contracts.FeeDistributorName:
			d := &FeeDistributor{Address: addr, Owner: call.From, chain: c, abi: parsed}
			c.Distributors[addr] = d
			return d.contract(), nil
		case contracts.PriceOracleName:
			o := &PriceOracle{
				Address: addr,
				Pair:    call.Args[0].(common.Address),
				TokenA:  call.Args[1].(common.Address),
				TokenB:  call.Args[2].(common.Address),
			}
			c.Oracles[addr] = o
			return &chaintest.Contract{ABI: parsed}, nil
		case contracts.MarketsRegistryFakeName:
			r := &MarketsRegistry{Address: addr, abi: parsed}
			c.Registries[addr] = r
			return r.contract(), nil
		case contracts.UniswapV2FactoryName:
			f := &Factory{
				Address:     addr,
				FeeToSetter: call.Args[0].(common.Address),
				Pairs:       make(map[common.Address]map[common.Address]common.Address),
				chain:       c,
				abi:         parsed,
			}
			c.Factories[addr] = f
			return f.contract(), nil
		case contracts.UniswapV2Router02Name:
			r := &Router{
				Address: addr,
				Factory: call.Args[0].(common.Address),
				WETH:    call.Args[1].(common.Address),
				chain:   c,
				abi:     parsed,
			}
			c.Routers[addr] = r
			return r.contract(), nil
		}

		kind, ok := contracts.KindByName(name)
		if !ok {
			return nil, fmt.Errorf("no fake for %s", name)
		}
		v := &Vault{
			Address: addr,
			Kind:    kind,
			Owner:   call.From,
			Locked:  make(map[common.Address][]contracts.LockedLP),
			chain:   c,
			abi:     parsed,
		}
		c.Vaults[addr] = v
		return v.contract(), nil
	}
}
