// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry records the contracts each run deployed, per network, and
// mirrors them to hardhat-deploy files on disk.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	log "github.com/inconshreveable/log15"
)

// Registry is the deployment records of a deployments directory. An empty
// directory keeps the records in memory only.
type Registry struct {
	dir string

	lock  sync.RWMutex
	state State
}

// Open loads the records under [dir].
func Open(dir string) (*Registry, error) {
	state, err := load(dir)
	if err != nil {
		return nil, err
	}
	return &Registry{dir: dir, state: state}, nil
}

func load(dir string) (State, error) {
	state := NewState(memdb.New())
	if dir != "" {
		deployments, chainIDs, err := Import(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to import %s: %w", dir, err)
		}
		errs := wrappers.Errs{}
		for _, d := range deployments {
			errs.Add(state.PutDeployment(d))
		}
		for network, id := range chainIDs {
			errs.Add(state.SetChainID(network, id))
		}
		if errs.Errored() {
			return nil, errs.Err
		}
	}
	if err := state.SetInitialized(); err != nil {
		return nil, err
	}
	return state, state.Commit()
}

// Dir is the deployments directory, empty for in-memory registries.
func (r *Registry) Dir() string { return r.dir }

// Record stores [d] and writes it out.
func (r *Registry) Record(d *Deployment) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := r.state.PutDeployment(d); err != nil {
		r.state.Abort()
		return err
	}
	if err := r.state.Commit(); err != nil {
		return err
	}
	if r.dir == "" {
		return nil
	}
	return Export(r.dir, d)
}

// SetChainID binds [network] to chain [id].
func (r *Registry) SetChainID(network string, id uint64) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := r.state.SetChainID(network, id); err != nil {
		r.state.Abort()
		return err
	}
	if err := r.state.Commit(); err != nil {
		return err
	}
	if r.dir == "" {
		return nil
	}
	return ExportChainID(r.dir, network, id)
}

// ChainID returns false when [network] has no recorded chain id.
func (r *Registry) ChainID(network string) (uint64, bool, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return r.state.ChainID(network)
}

// Get returns ErrDeploymentNotFound for unknown records.
func (r *Registry) Get(network, name string) (*Deployment, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return r.state.GetDeployment(network, name)
}

func (r *Registry) List(network string) ([]*Deployment, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return r.state.ListDeployments(network)
}

// Networks returns every network with a deployment or a chain id, sorted.
func (r *Registry) Networks() ([]string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	networks, err := r.state.Networks()
	if err != nil {
		return nil, err
	}
	ids, err := r.state.ChainIDs()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(networks))
	for _, n := range networks {
		seen[n] = true
	}
	for n := range ids {
		if !seen[n] {
			networks = append(networks, n)
		}
	}
	sort.Strings(networks)
	return networks, nil
}

// Reload replaces the records with what is on disk.
func (r *Registry) Reload() error {
	if r.dir == "" {
		return nil
	}
	state, err := load(r.dir)
	if err != nil {
		return err
	}

	r.lock.Lock()
	old := r.state
	r.state = state
	r.lock.Unlock()

	log.Debug("reloaded deployments", "dir", r.dir)
	return old.Close()
}

func (r *Registry) Close() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.state.Close()
}
