// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package artifacts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const ownableABI = `[{"inputs":[],"name":"owner","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"}]`

// returns 42 for every call
const constantCode = "0x600a600c600039600a6000f3602a60005260206000f3"

func writeArtifact(t *testing.T, path string, v interface{}) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestParseHardhatArtifact(t *testing.T) {
	require := require.New(t)

	data := []byte(`{
		"_format": "hh-sol-artifact-1",
		"contractName": "FeeDistributor",
		"sourceName": "contracts/FeeDistributor.sol",
		"abi": ` + ownableABI + `,
		"bytecode": "` + constantCode + `",
		"deployedBytecode": "0x602a60005260206000f3"
	}`)

	a, err := Parse(data)
	require.NoError(err)
	require.Equal("FeeDistributor", a.ContractName)
	require.Equal("contracts/FeeDistributor.sol", a.SourceName)
	require.Contains(a.ABI.Methods, "owner")
	require.Len(a.Bytecode, 22)
	require.Len(a.DeployedBytecode, 10)
}

func TestParseStringEncodedABI(t *testing.T) {
	require := require.New(t)

	abiString, err := json.Marshal(ownableABI)
	require.NoError(err)
	data := []byte(`{"contractName":"UniswapV2Factory","abi":` + string(abiString) + `,"bytecode":{"object":"602a"}}`)

	a, err := Parse(data)
	require.NoError(err)
	require.Contains(a.ABI.Methods, "owner")
	require.Equal([]byte{0x60, 0x2a}, a.Bytecode)
}

func TestParseRejectsUnlinkedLibraries(t *testing.T) {
	_, err := Parse([]byte(`{"contractName":"X","abi":[],"bytecode":"0x60__$abc$__60"}`))
	require.Error(t, err)
}

func TestStore(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	writeArtifact(t, filepath.Join(dir, "contracts", "LiquidVault.sol", "LiquidVault.json"), map[string]interface{}{
		"contractName": "LiquidVault",
		"abi":          json.RawMessage(ownableABI),
		"bytecode":     constantCode,
	})
	writeArtifact(t, filepath.Join(dir, "contracts", "LiquidVault.sol", "LiquidVault.dbg.json"), map[string]interface{}{
		"buildInfo": "../../build-info/x.json",
	})
	writeArtifact(t, filepath.Join(dir, "contracts", "IVault.sol", "IVault.json"), map[string]interface{}{
		"contractName": "IVault",
		"abi":          json.RawMessage(ownableABI),
		"bytecode":     "0x",
	})
	writeArtifact(t, filepath.Join(dir, "metadata", "UniswapV2Pair", "artifact.json"), map[string]interface{}{
		"abi": ownableABI,
	})

	s := NewStore(dir)
	vault, err := s.Deployable("LiquidVault")
	require.NoError(err)
	require.Equal("LiquidVault", vault.ContractName)

	again, err := s.Get("LiquidVault")
	require.NoError(err)
	require.Same(vault, again)

	_, err = s.Deployable("IVault")
	require.ErrorIs(err, ErrNoBytecode)

	pair, err := s.Get("UniswapV2Pair")
	require.NoError(err)
	require.Equal("UniswapV2Pair", pair.ContractName)

	_, err = s.Get("PriceOracle")
	require.ErrorIs(err, ErrArtifactNotFound)
}

func TestStoreMissingDirectory(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nope"))
	_, err := s.Get("InfinityProtocol")
	require.ErrorIs(t, err, ErrArtifactNotFound)
}
