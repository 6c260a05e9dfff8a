// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package deployer

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/degen-vc/infinity-contracts/contracts"
)

func bigInt(n int64) *big.Int { return big.NewInt(n) }

func TestTaskRegistry(t *testing.T) {
	assert := assert.New(t)
	tasks := DefaultTasks()

	assert.Equal([]string{DeployFeeDistributorTask, DeployInfinityProtocolTask, DeployLiquidVaultTask}, tasks.Names())

	task, ok := tasks.Get(DeployInfinityProtocolTask)
	require.True(t, ok)
	assert.Equal([]Param{{Name: RouterParam, Description: "Ube/Pancake/Uniswap Router Address"}}, task.Params)

	err := tasks.Register(Task{Name: DeployLiquidVaultTask})
	assert.ErrorIs(err, ErrDuplicateTask)
}

func TestRunTask(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)
	ctx := context.Background()
	tasks := DefaultTasks()

	_, err := tasks.Run(ctx, f.deployer, "deploy_everything", nil)
	assert.ErrorIs(err, ErrUnknownTask)

	_, err = tasks.Run(ctx, f.deployer, DeployInfinityProtocolTask, map[string]string{})
	assert.ErrorIs(err, ErrMissingParam)

	addr, err := tasks.Run(ctx, f.deployer, DeployInfinityProtocolTask, map[string]string{RouterParam: router.Hex()})
	require.NoError(t, err)
	assert.Equal(router, f.chain.Tokens[addr].Router)

	addr, err = tasks.Run(ctx, f.deployer, DeployLiquidVaultTask, nil)
	require.NoError(t, err)
	assert.Contains(f.chain.Vaults, addr)

	addr, err = tasks.Run(ctx, f.deployer, DeployFeeDistributorTask, nil)
	require.NoError(t, err)
	assert.Contains(f.chain.Distributors, addr)
	assert.NotEqual(common.Address{}, addr)

	assert.Equal(
		[]string{contracts.FeeDistributorName, contracts.InfinityProtocolName, contracts.LiquidVaultName},
		f.deployer.Summary().Names(),
	)
}
