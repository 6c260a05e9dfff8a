// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"errors"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	IsInitializedKey byte = iota
	ChainIDKey
)

var (
	isInitializedKey = []byte{IsInitializedKey}

	errBadChainID = errors.New("malformed chain id")

	_ SingletonState = (*singletonState)(nil)
)

// SingletonState holds the initialization status of the registry and the
// chain id each network was deployed on.
type SingletonState interface {
	IsInitialized() (bool, error)
	SetInitialized() error

	ChainID(network string) (uint64, bool, error)
	SetChainID(network string, id uint64) error
	ChainIDs() (map[string]uint64, error)
}

type singletonState struct {
	singletonDB database.Database
}

func NewSingletonState(db database.Database) SingletonState {
	return &singletonState{
		singletonDB: db,
	}
}

func (s *singletonState) IsInitialized() (bool, error) {
	return s.singletonDB.Has(isInitializedKey)
}

func (s *singletonState) SetInitialized() error {
	return s.singletonDB.Put(isInitializedKey, nil)
}

func chainIDKey(network string) []byte {
	return append([]byte{ChainIDKey}, network...)
}

// ChainID returns false when no chain id was recorded for [network].
func (s *singletonState) ChainID(network string) (uint64, bool, error) {
	b, err := s.singletonDB.Get(chainIDKey(network))
	switch {
	case err == database.ErrNotFound:
		return 0, false, nil
	case err != nil:
		return 0, false, err
	}
	id, err := unpackChainID(b)
	return id, err == nil, err
}

func (s *singletonState) SetChainID(network string, id uint64) error {
	p := wrappers.Packer{Bytes: make([]byte, wrappers.LongLen)}
	p.PackLong(id)
	return s.singletonDB.Put(chainIDKey(network), p.Bytes)
}

func (s *singletonState) ChainIDs() (map[string]uint64, error) {
	it := s.singletonDB.NewIteratorWithPrefix([]byte{ChainIDKey})
	defer it.Release()

	ids := make(map[string]uint64)
	for it.Next() {
		id, err := unpackChainID(it.Value())
		if err != nil {
			return nil, err
		}
		ids[string(it.Key()[1:])] = id
	}
	return ids, it.Error()
}

func unpackChainID(b []byte) (uint64, error) {
	if len(b) != wrappers.LongLen {
		return 0, errBadChainID
	}
	p := wrappers.Packer{Bytes: b}
	id := p.UnpackLong()
	if p.Errored() {
		return 0, p.Err
	}
	return id, nil
}
