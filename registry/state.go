// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
)

var (
	// These are prefixes for db keys.
	// It's important to set different prefixes for each separate database objects.
	singletonStatePrefix  = []byte("singleton")
	deploymentStatePrefix = []byte("deployments")

	_ State = &state{}
)

// State is a wrapper around SingletonState and DeploymentState.
// State also exposes a few methods needed for managing database commits and close.
type State interface {
	SingletonState
	DeploymentState

	Commit() error
	Abort()
	Close() error
}

type state struct {
	SingletonState
	DeploymentState

	baseDB *versiondb.Database
}

func NewState(db database.Database) State {
	// create a new baseDB
	baseDB := versiondb.New(db)

	// create a prefixed "singletonDB" from baseDB
	singletonDB := prefixdb.New(singletonStatePrefix, baseDB)
	// create a prefixed "deploymentDB" from baseDB
	deploymentDB := prefixdb.New(deploymentStatePrefix, baseDB)

	return &state{
		SingletonState:  NewSingletonState(singletonDB),
		DeploymentState: NewDeploymentState(deploymentDB),
		baseDB:          baseDB,
	}
}

// Commit commits pending operations to baseDB
func (s *state) Commit() error {
	return s.baseDB.Commit()
}

// Abort drops pending operations and the cached records
func (s *state) Abort() {
	s.baseDB.Abort()
	s.ClearCache()
}

// Close closes the underlying base database
func (s *state) Close() error {
	return s.baseDB.Close()
}
