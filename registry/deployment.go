// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	errBadNetwork = errors.New("invalid network name")
	errEmptyName  = errors.New("deployment has no name")
)

// Deployment records one contract deployed by a run.
type Deployment struct {
	Network   string         `serialize:"true" json:"network"`
	Name      string         `serialize:"true" json:"name"`
	Address   common.Address `serialize:"true" json:"address"`
	TxHash    common.Hash    `serialize:"true" json:"transactionHash"`
	Block     uint64         `serialize:"true" json:"blockNumber"`
	Deployer  common.Address `serialize:"true" json:"deployer"`
	Args      []string       `serialize:"true" json:"args"`
	RunID     string         `serialize:"true" json:"runId"`
	Timestamp int64          `serialize:"true" json:"timestamp"`
	// ABI is the raw JSON ABI the contract was deployed with.
	ABI []byte `serialize:"true" json:"-"`
}

// Verify checks the fields the record is keyed by.
func (d *Deployment) Verify() error {
	switch {
	case d.Network == "" || strings.Contains(d.Network, keySeparator):
		return fmt.Errorf("%w: %q", errBadNetwork, d.Network)
	case d.Name == "":
		return errEmptyName
	}
	return nil
}

const keySeparator = "/"

func deploymentKey(network, name string) []byte {
	return []byte(network + keySeparator + name)
}

func networkPrefix(network string) []byte {
	return []byte(network + keySeparator)
}

// splitKey splits a deployment key into network and name.
func splitKey(key []byte) (string, string, bool) {
	return strings.Cut(string(key), keySeparator)
}
