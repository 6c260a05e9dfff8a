// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/database"
)

const (
	deploymentCacheSize = 1024
)

var (
	ErrDeploymentNotFound = errors.New("deployment not found")

	errDeploymentWrongVersion = errors.New("wrong version")

	_ DeploymentState = &deploymentState{}
)

// DeploymentState stores deployment records keyed by network and name.
type DeploymentState interface {
	GetDeployment(network, name string) (*Deployment, error)
	PutDeployment(d *Deployment) error
	DeleteDeployment(network, name string) error
	// ListDeployments returns the records of [network] sorted by name.
	ListDeployments(network string) ([]*Deployment, error)
	Networks() ([]string, error)

	ClearCache()
}

type deploymentState struct {
	cache        cache.Cacher
	deploymentDB database.Database
}

func NewDeploymentState(db database.Database) DeploymentState {
	return &deploymentState{
		cache:        &cache.LRU{Size: deploymentCacheSize},
		deploymentDB: db,
	}
}

func (s *deploymentState) GetDeployment(network, name string) (*Deployment, error) {
	key := string(deploymentKey(network, name))
	if d, ok := s.cache.Get(key); ok {
		if d == nil {
			return nil, fmt.Errorf("%w: %s on %s", ErrDeploymentNotFound, name, network)
		}
		return d.(*Deployment), nil
	}

	b, err := s.deploymentDB.Get([]byte(key))
	if err == database.ErrNotFound {
		s.cache.Put(key, nil)
		return nil, fmt.Errorf("%w: %s on %s", ErrDeploymentNotFound, name, network)
	}
	if err != nil {
		return nil, err
	}
	d, err := parseDeployment(b)
	if err != nil {
		return nil, err
	}
	s.cache.Put(key, d)
	return d, nil
}

func (s *deploymentState) PutDeployment(d *Deployment) error {
	if err := d.Verify(); err != nil {
		return err
	}
	bytes, err := Codec.Marshal(CodecVersion, d)
	if err != nil {
		return err
	}

	key := deploymentKey(d.Network, d.Name)
	s.cache.Put(string(key), d)
	return s.deploymentDB.Put(key, bytes)
}

func (s *deploymentState) DeleteDeployment(network, name string) error {
	key := deploymentKey(network, name)
	s.cache.Put(string(key), nil)
	return s.deploymentDB.Delete(key)
}

func (s *deploymentState) ListDeployments(network string) ([]*Deployment, error) {
	it := s.deploymentDB.NewIteratorWithPrefix(networkPrefix(network))
	defer it.Release()

	var ds []*Deployment
	for it.Next() {
		d, err := parseDeployment(it.Value())
		if err != nil {
			return nil, err
		}
		ds = append(ds, d)
	}
	return ds, it.Error()
}

func (s *deploymentState) Networks() ([]string, error) {
	it := s.deploymentDB.NewIterator()
	defer it.Release()

	var networks []string
	for it.Next() {
		network, _, ok := splitKey(it.Key())
		if !ok {
			continue
		}
		if n := len(networks); n == 0 || networks[n-1] != network {
			networks = append(networks, network)
		}
	}
	return networks, it.Error()
}

func (s *deploymentState) ClearCache() {
	s.cache.Flush()
}

func parseDeployment(b []byte) (*Deployment, error) {
	d := &Deployment{}
	parsedVersion, err := Codec.Unmarshal(b, d)
	if err != nil {
		return nil, err
	}
	if parsedVersion != CodecVersion {
		return nil, errDeploymentWrongVersion
	}
	return d, nil
}
