// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/BurntSushi/toml"
)

const (
	AlfajoresNetwork   = "alfajores"
	CeloMainnetNetwork = "celo_mainnet"
	LocalhostNetwork   = "localhost"

	// Named accounts, as indexes into a network's account list.
	DeployerAccount   = 0
	TokenOwnerAccount = 1
)

var (
	ErrUnknownNetwork = errors.New("unknown network")
	ErrMissingURL     = errors.New("network has no RPC url")
	ErrMissingKeys    = errors.New("network has no accounts")
)

// DevKeys are the first accounts of the default Hardhat/Ganache dev mnemonic
// ("test test ... junk"). They are only used for non-live networks.
var DevKeys = []string{
	"ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
	"59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d",
	"5de4111afa1a4b94908f83103eb1f1706367c2e68ca870fc3fb9a804cdab365a",
	"7c852118294e51e653712a81e05800f419141751be58f605c371e15141b007a6",
	"47e179ec197488593b187f80a00eb0da91f1b9d0b13f8733639f19c30a34926a",
	"8b3a350cf5c34c9194ca85829a2df0ec3153be0318b5e2d3348e872092edffba",
	"92db14e403b83dfe3df233f83dfa3a0d7096f21ca9b0d6d6b8d88b2b4ec1564e",
}

// Network is a named chain the scripts can deploy to.
type Network struct {
	Name string `toml:"-"`
	// URL is used as is when set, otherwise the RPC url is read from URLEnv.
	URL    string `toml:"url"`
	URLEnv string `toml:"url_env"`
	// Accounts lists the environment variables holding private keys, in
	// named account order.
	Accounts []string `toml:"accounts"`
	Live     bool     `toml:"live"`
	// GasPrice in wei; zero lets the node suggest one.
	GasPrice uint64 `toml:"gas_price"`
	// Gas is a fixed gas limit; zero estimates every transaction.
	Gas uint64 `toml:"gas"`
}

// Resolved is a network with its url and keys read from the environment.
type Resolved struct {
	Network
	RPCURL string
	Keys   []string
}

// GasPriceWei returns nil when the node should suggest the price.
func (n Network) GasPriceWei() *big.Int {
	if n.GasPrice == 0 {
		return nil
	}
	return new(big.Int).SetUint64(n.GasPrice)
}

// Networks is the set of known networks keyed by name.
type Networks map[string]Network

// DefaultNetworks mirrors the networks the project was first deployed with.
func DefaultNetworks() Networks {
	accounts := []string{DeployerKeyKey, OwnerKeyKey}
	return Networks{
		AlfajoresNetwork: {
			Name:     AlfajoresNetwork,
			URLEnv:   CeloTestnetURLKey,
			Accounts: accounts,
			Live:     true,
			GasPrice: 500_000_000,
			Gas:      8_000_000,
		},
		CeloMainnetNetwork: {
			Name:     CeloMainnetNetwork,
			URLEnv:   CeloMainnetURLKey,
			Accounts: accounts,
			Live:     true,
		},
		LocalhostNetwork: {
			Name:     LocalhostNetwork,
			URLEnv:   DevURLKey,
			Accounts: accounts,
		},
	}
}

type networksFile struct {
	Networks map[string]Network `toml:"networks"`
}

// LoadNetworks returns the default networks overridden by the profiles in the
// TOML file at [path]. An empty path returns the defaults.
func LoadNetworks(path string) (Networks, error) {
	nets := DefaultNetworks()
	if path == "" {
		return nets, nil
	}

	var f networksFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("failed to decode networks file %s: %w", path, err)
	}
	for name, n := range f.Networks {
		n.Name = name
		nets[name] = n
	}
	return nets, nil
}

// Names returns the network names in sorted order.
func (n Networks) Names() []string {
	names := make([]string, 0, len(n))
	for name := range n {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve looks up [name] and reads its url and keys from [e].
func (n Networks) Resolve(name string, e *Env) (*Resolved, error) {
	net, ok := n[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownNetwork, name, n.Names())
	}

	url := net.URL
	if url == "" && net.URLEnv != "" {
		url = e.Get(net.URLEnv)
	}
	if url == "" {
		return nil, fmt.Errorf("%w: %s (set %s)", ErrMissingURL, name, net.URLEnv)
	}

	keys := make([]string, 0, len(net.Accounts))
	for _, key := range net.Accounts {
		if val := e.Get(key); val != "" {
			keys = append(keys, val)
		}
	}
	if len(keys) == 0 {
		if net.Live {
			return nil, fmt.Errorf("%w: %s (set %v)", ErrMissingKeys, name, net.Accounts)
		}
		keys = DevKeys
	}

	return &Resolved{
		Network: net,
		RPCURL:  url,
		Keys:    keys,
	}, nil
}
