// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/degen-vc/infinity-contracts/registry"
)

func newTestServer(t *testing.T) (*httptest.Server, *registry.Deployment) {
	t.Helper()
	reg, err := registry.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })

	d := &registry.Deployment{
		Network: "alfajores",
		Name:    "FeeDistributor",
		Address: common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		TxHash:  common.HexToHash("0x01"),
		Block:   7,
		Args:    []string{},
		RunID:   "6b1c3a42-6c1e-4b8e-8f1b-7b2d0c9a1e11",
	}
	require.NoError(t, reg.Record(d))
	require.NoError(t, reg.SetChainID("alfajores", 44787))

	handler, err := registry.NewHandler(reg)
	require.NoError(t, err)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, d
}

func TestClient(t *testing.T) {
	assert := assert.New(t)
	server, want := newTestServer(t)
	cli := New(server.URL)
	ctx := context.Background()

	got, err := cli.GetDeployment(ctx, "alfajores", "FeeDistributor")
	require.NoError(t, err)
	assert.Equal(want.Address, got.Address)
	assert.Equal(want.RunID, got.RunID)
	assert.Equal(want.Block, got.Block)

	list, chainID, err := cli.ListDeployments(ctx, "alfajores")
	require.NoError(t, err)
	assert.Len(list, 1)
	assert.Equal(uint64(44787), chainID)

	networks, err := cli.Networks(ctx)
	require.NoError(t, err)
	assert.Equal([]string{"alfajores"}, networks)
}

func TestClientServerError(t *testing.T) {
	server, _ := newTestServer(t)
	cli := New(server.URL)

	_, err := cli.GetDeployment(context.Background(), "alfajores", "LiquidVault")
	require.Error(t, err)
	require.Contains(t, err.Error(), "deployment not found")
}

func TestClientBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	_, err := New(server.URL).Networks(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 410")
}

func TestClientCanceled(t *testing.T) {
	server, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(server.URL).Networks(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
