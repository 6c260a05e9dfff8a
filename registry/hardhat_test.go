// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportLayout(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	d := testDeployment("alfajores", "InfinityProtocol", 1)

	require.NoError(t, Export(dir, d))
	require.NoError(t, ExportChainID(dir, "alfajores", 44787))

	b, err := os.ReadFile(filepath.Join(dir, "alfajores", "InfinityProtocol.json"))
	require.NoError(t, err)
	var f map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &f))
	assert.Equal(d.Address.Hex(), f["address"])
	assert.Equal(d.TxHash.Hex(), f["transactionHash"])
	assert.Equal([]interface{}{"0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"}, f["args"])
	assert.Equal(float64(1), f["numDeployments"])
	receipt := f["receipt"].(map[string]interface{})
	assert.Equal(float64(11), receipt["blockNumber"])
	assert.Len(f["abi"], 1)

	id, err := os.ReadFile(filepath.Join(dir, "alfajores", ChainIDFile))
	require.NoError(t, err)
	assert.Equal("44787", string(id))
}

func TestExportCountsRedeployments(t *testing.T) {
	dir := t.TempDir()
	d := testDeployment("localhost", "LiquidVault", 1)
	require.NoError(t, Export(dir, d))
	require.NoError(t, Export(dir, d))

	f, err := readDeploymentFile(DeploymentPath(dir, "localhost", "LiquidVault"))
	require.NoError(t, err)
	require.Equal(t, 1, f.NumDeployments)

	d.Address = common.HexToAddress("0x01")
	require.NoError(t, Export(dir, d))
	f, err = readDeploymentFile(DeploymentPath(dir, "localhost", "LiquidVault"))
	require.NoError(t, err)
	require.Equal(t, 2, f.NumDeployments)
}

func TestImport(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	token := testDeployment("alfajores", "InfinityProtocol", 1)
	vault := testDeployment("localhost", "LiquidVault", 2)
	require.NoError(t, Export(dir, token))
	require.NoError(t, Export(dir, vault))
	require.NoError(t, ExportChainID(dir, "alfajores", 44787))

	// hardhat-deploy keeps compiler inputs next to the records
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "alfajores", "solcInputs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alfajores", "solcInputs", "abc.json"), []byte("{}"), 0o644))

	deployments, chainIDs, err := Import(dir)
	require.NoError(t, err)
	assert.Equal(map[string]uint64{"alfajores": 44787}, chainIDs)
	require.Len(t, deployments, 2)

	opts := []cmp.Option{cmpopts.EquateEmpty(), cmpopts.IgnoreFields(Deployment{}, "ABI")}
	if diff := cmp.Diff([]*Deployment{token, vault}, deployments, opts...); diff != "" {
		t.Fatalf("import mismatch (-want +got):\n%s", diff)
	}
	assert.JSONEq(string(token.ABI), string(deployments[0].ABI))
}

func TestImportHardhatDeployFile(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	raw := `{
  "address": "0x5FbDB2315678afecb367f032d93F642f64180aa3",
  "abi": [],
  "transactionHash": "0x9c8c6b3c0b9c4e3a4f2e7d5d1b0a2c3e4f5a6b7c8d9e0f1a2b3c4d5e6f7a8b9c",
  "receipt": {
    "from": "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
    "blockNumber": 3
  },
  "args": ["0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D", 60, true]
}`
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "celo_mainnet"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "celo_mainnet", "FeeDistributor.json"), []byte(raw), 0o644))

	deployments, chainIDs, err := Import(dir)
	require.NoError(t, err)
	assert.Empty(chainIDs)
	require.Len(t, deployments, 1)

	d := deployments[0]
	assert.Equal("celo_mainnet", d.Network)
	assert.Equal("FeeDistributor", d.Name)
	assert.Equal(common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"), d.Address)
	assert.Equal(uint64(3), d.Block)
	assert.Equal(common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), d.Deployer)
	assert.Equal([]string{"0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D", "60", "true"}, d.Args)
	assert.Empty(d.RunID)
}

func TestImportMissingDir(t *testing.T) {
	deployments, chainIDs, err := Import(filepath.Join(t.TempDir(), "deployments"))
	require.NoError(t, err)
	require.Empty(t, deployments)
	require.Empty(t, chainIDs)
}

func TestImportMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "localhost"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "localhost", "LiquidVault.json"), []byte("{"), 0o644))

	_, _, err := Import(dir)
	require.ErrorIs(t, err, errBadDeploymentFile)
}
