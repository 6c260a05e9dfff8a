// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package deployer

import (
	"os"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"sigs.k8s.io/yaml"

	"github.com/degen-vc/infinity-contracts/registry"
)

// Summary is what a run produced: every deployment and the values the
// scripts read back.
type Summary struct {
	lock sync.Mutex

	Network   string            `json:"network"`
	ChainID   uint64            `json:"chainId"`
	RunID     string            `json:"runId"`
	Script    string            `json:"script,omitempty"`
	Contracts []Entry           `json:"contracts"`
	Values    map[string]string `json:"values,omitempty"`
}

// Entry is one deployed contract.
type Entry struct {
	Name            string `json:"name"`
	Address         string `json:"address"`
	TransactionHash string `json:"transactionHash"`
	Block           uint64 `json:"block"`
}

func NewSummary(network string, chainID uint64, runID string) *Summary {
	return &Summary{
		Network:   network,
		ChainID:   chainID,
		RunID:     runID,
		Contracts: []Entry{},
	}
}

// Add appends [d]. A contract deployed twice keeps both entries.
func (s *Summary) Add(d *registry.Deployment) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.Contracts = append(s.Contracts, Entry{
		Name:            d.Name,
		Address:         d.Address.Hex(),
		TransactionHash: d.TxHash.Hex(),
		Block:           d.Block,
	})
}

// Set records a value read during the run.
func (s *Summary) Set(key, value string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.Values == nil {
		s.Values = make(map[string]string)
	}
	s.Values[key] = value
}

// Address returns the last address [name] was deployed to.
func (s *Summary) Address(name string) (common.Address, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for i := len(s.Contracts) - 1; i >= 0; i-- {
		if s.Contracts[i].Name == name {
			return common.HexToAddress(s.Contracts[i].Address), true
		}
	}
	return common.Address{}, false
}

// Names returns the deployed contract names, sorted and deduplicated.
func (s *Summary) Names() []string {
	s.lock.Lock()
	defer s.lock.Unlock()

	seen := make(map[string]bool)
	var names []string
	for _, c := range s.Contracts {
		if !seen[c.Name] {
			seen[c.Name] = true
			names = append(names, c.Name)
		}
	}
	sort.Strings(names)
	return names
}

func (s *Summary) YAML() ([]byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return yaml.Marshal(s)
}

// WriteFile writes the YAML summary to [path].
func (s *Summary) WriteFile(path string) error {
	b, err := s.YAML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
