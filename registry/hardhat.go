// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ChainIDFile is the file hardhat-deploy stores a network's chain id in.
const ChainIDFile = ".chainId"

var errBadDeploymentFile = errors.New("malformed deployment file")

// deploymentFile is the hardhat-deploy layout of deployments/<network>/<Name>.json.
type deploymentFile struct {
	Address         common.Address    `json:"address"`
	ABI             json.RawMessage   `json:"abi"`
	TransactionHash common.Hash       `json:"transactionHash"`
	Receipt         *receiptFile      `json:"receipt,omitempty"`
	Args            []json.RawMessage `json:"args"`
	NumDeployments  int               `json:"numDeployments"`
	LinkedData      *linkedData       `json:"linkedData,omitempty"`
}

type receiptFile struct {
	From            common.Address `json:"from"`
	ContractAddress common.Address `json:"contractAddress"`
	TransactionHash common.Hash    `json:"transactionHash"`
	BlockNumber     uint64         `json:"blockNumber"`
}

type linkedData struct {
	RunID     string `json:"runId"`
	Timestamp int64  `json:"timestamp"`
}

// DeploymentPath is where the record of [name] on [network] lives under [dir].
func DeploymentPath(dir, network, name string) string {
	return filepath.Join(dir, network, name+".json")
}

// Export writes [d] to [dir]/<network>/<Name>.json. Redeploying to a new
// address bumps numDeployments.
func Export(dir string, d *Deployment) error {
	if err := d.Verify(); err != nil {
		return err
	}
	path := DeploymentPath(dir, d.Network, d.Name)

	num := 1
	if prev, err := readDeploymentFile(path); err == nil {
		num = prev.NumDeployments
		if prev.Address != d.Address {
			num++
		}
	}

	abi := json.RawMessage(d.ABI)
	if len(abi) == 0 {
		abi = json.RawMessage("[]")
	}
	args := make([]json.RawMessage, 0, len(d.Args))
	for _, a := range d.Args {
		b, err := json.Marshal(a)
		if err != nil {
			return err
		}
		args = append(args, b)
	}
	f := deploymentFile{
		Address:         d.Address,
		ABI:             abi,
		TransactionHash: d.TxHash,
		Receipt: &receiptFile{
			From:            d.Deployer,
			ContractAddress: d.Address,
			TransactionHash: d.TxHash,
			BlockNumber:     d.Block,
		},
		Args:           args,
		NumDeployments: num,
		LinkedData:     &linkedData{RunID: d.RunID, Timestamp: d.Timestamp},
	}
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// ExportChainID writes the .chainId file of [network].
func ExportChainID(dir, network string, id uint64) error {
	path := filepath.Join(dir, network, ChainIDFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.FormatUint(id, 10)), 0o644)
}

// Import reads every network directory under [dir]. A missing [dir] is an
// empty registry.
func Import(dir string) ([]*Deployment, map[string]uint64, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, map[string]uint64{}, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var (
		deployments []*Deployment
		chainIDs    = make(map[string]uint64)
	)
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		network := e.Name()
		ds, id, ok, err := importNetwork(filepath.Join(dir, network), network)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			chainIDs[network] = id
		}
		deployments = append(deployments, ds...)
	}
	return deployments, chainIDs, nil
}

func importNetwork(dir, network string) ([]*Deployment, uint64, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, false, err
	}

	var (
		ds    []*Deployment
		id    uint64
		hasID bool
	)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		switch {
		case e.Name() == ChainIDFile:
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, 0, false, err
			}
			id, err = strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64)
			if err != nil {
				return nil, 0, false, fmt.Errorf("%s: %w", path, err)
			}
			hasID = true
		case filepath.Ext(e.Name()) == ".json" && !strings.HasPrefix(e.Name(), "."):
			f, err := readDeploymentFile(path)
			if err != nil {
				return nil, 0, false, err
			}
			ds = append(ds, f.deployment(network, strings.TrimSuffix(e.Name(), ".json")))
		}
	}
	return ds, id, hasID, nil
}

func readDeploymentFile(path string) (*deploymentFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f := &deploymentFile{}
	if err := json.Unmarshal(b, f); err != nil {
		return nil, fmt.Errorf("%w %s: %v", errBadDeploymentFile, path, err)
	}
	return f, nil
}

func (f *deploymentFile) deployment(network, name string) *Deployment {
	d := &Deployment{
		Network: network,
		Name:    name,
		Address: f.Address,
		TxHash:  f.TransactionHash,
		ABI:     []byte(f.ABI),
	}
	if f.Receipt != nil {
		d.Block = f.Receipt.BlockNumber
		d.Deployer = f.Receipt.From
	}
	if f.LinkedData != nil {
		d.RunID = f.LinkedData.RunID
		d.Timestamp = f.LinkedData.Timestamp
	}
	for _, raw := range f.Args {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			d.Args = append(d.Args, s)
			continue
		}
		d.Args = append(d.Args, string(raw))
	}
	return d
}
