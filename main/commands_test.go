// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/degen-vc/infinity-contracts/config"
	"github.com/degen-vc/infinity-contracts/deployer"
	"github.com/degen-vc/infinity-contracts/harness"
	"github.com/degen-vc/infinity-contracts/registry"
)

func TestParseTaskParams(t *testing.T) {
	require := require.New(t)

	params, err := parseTaskParams([]string{"--router=0x01", "name=a=b", "empty="})
	require.NoError(err)
	require.Equal(map[string]string{"router": "0x01", "name": "a=b", "empty": ""}, params)

	_, err = parseTaskParams([]string{"router"})
	require.ErrorIs(err, errBadTaskParam)
	_, err = parseTaskParams([]string{"=0x01"})
	require.ErrorIs(err, errBadTaskParam)
}

func TestWithDevKeys(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(config.DevKeys[:3], withDevKeys(nil, 3))
	// the dev key already configured is not repeated
	keys := withDevKeys([]string{"0x" + config.DevKeys[1]}, 3)
	assert.Equal([]string{"0x" + config.DevKeys[1], config.DevKeys[0], config.DevKeys[2]}, keys)
	// enough keys are left alone
	assert.Equal([]string{"a", "b"}, withDevKeys([]string{"a", "b"}, 1))
}

func TestPrintDeployments(t *testing.T) {
	require := require.New(t)

	list := []*registry.Deployment{
		{Name: "InfinityProtocol", Address: common.HexToAddress("0x01"), Block: 7},
		{Name: "FeeDistributor", Address: common.HexToAddress("0x02"), Block: 8},
	}

	var out bytes.Buffer
	require.NoError(printDeployments(&out, list, nil))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(lines, 3)
	require.True(strings.HasPrefix(lines[0], "NAME"))
	require.NotContains(lines[0], "CODE")
	require.Contains(lines[1], "InfinityProtocol")
	require.Contains(lines[1], common.HexToAddress("0x01").Hex())

	out.Reset()
	err := printDeployments(&out, list, []bool{true, false})
	require.ErrorIs(err, errMissingCode)
	require.Contains(out.String(), "CODE")
	require.Contains(out.String(), "missing")
}

func TestWriteSummary(t *testing.T) {
	require := require.New(t)

	summary := deployer.NewSummary(config.LocalhostNetwork, 1337, "run")
	summary.Add(&registry.Deployment{Name: "FeeDistributor", Address: common.HexToAddress("0x02")})

	var out bytes.Buffer
	require.NoError(writeSummary(&out, summary, ""))
	require.Contains(out.String(), "FeeDistributor")

	path := filepath.Join(t.TempDir(), "summary.yaml")
	out.Reset()
	require.NoError(writeSummary(&out, summary, path))
	require.Zero(out.Len())
	b, err := os.ReadFile(path)
	require.NoError(err)
	require.Contains(string(b), "FeeDistributor")
}

func TestPrintReport(t *testing.T) {
	report := &harness.Report{Results: []harness.Result{
		{Check: "vault/a"},
		{Check: "vault/b", Err: errors.New("boom")},
	}}

	var out bytes.Buffer
	printReport(&out, report)
	assert.Contains(t, out.String(), "PASS vault/a")
	assert.Contains(t, out.String(), "FAIL vault/b: boom")
	assert.Contains(t, out.String(), "1 passed, 1 failed")

	out.Reset()
	printReport(&out, nil)
	assert.Zero(t, out.Len())
}

func TestRootCommand(t *testing.T) {
	require := require.New(t)

	root, err := rootCommand()
	require.NoError(err)
	for _, name := range []string{"deploy", "task", "check", "deployments", "serve"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(err)
		require.Equal(name, cmd.Name())
	}
	require.NotNil(root.PersistentFlags().Lookup(config.NetworkKey))
}

func TestUnknownSuiteFailsBeforeConnecting(t *testing.T) {
	root, err := rootCommand()
	require.NoError(t, err)
	root.SetArgs([]string{"check", "--" + config.EnvFileKey, filepath.Join(t.TempDir(), "missing.env"), "nope"})
	root.SetOut(&bytes.Buffer{})
	require.ErrorIs(t, root.Execute(), harness.ErrUnknownSuite)
}

func TestEnvOverrideOutOfRangePercentage(t *testing.T) {
	t.Setenv(envPrefix+"_BURN_PERCENTAGE", "266")

	root, err := rootCommand()
	require.NoError(t, err)
	root.SetArgs([]string{"check", "--" + config.EnvFileKey, filepath.Join(t.TempDir(), "missing.env")})
	root.SetOut(&bytes.Buffer{})
	require.ErrorIs(t, root.Execute(), config.ErrInvalidPercentage)
}
