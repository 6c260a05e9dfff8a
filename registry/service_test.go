// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/rpc/v2/json2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, url, method string, args, reply interface{}) error {
	t.Helper()
	body, err := json2.EncodeClientRequest(method, args)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	return json2.DecodeClientResponse(resp.Body, reply)
}

func TestService(t *testing.T) {
	assert := assert.New(t)
	reg, err := Open("")
	require.NoError(t, err)
	defer reg.Close()

	token := testDeployment("alfajores", "InfinityProtocol", 1)
	require.NoError(t, reg.Record(token))
	require.NoError(t, reg.Record(testDeployment("alfajores", "LiquidVault", 2)))
	require.NoError(t, reg.SetChainID("alfajores", 44787))

	handler, err := NewHandler(reg)
	require.NoError(t, err)
	server := httptest.NewServer(handler)
	defer server.Close()

	var get GetDeploymentReply
	require.NoError(t, call(t, server.URL, "deployments.getDeployment",
		&GetDeploymentArgs{Network: "alfajores", Name: "InfinityProtocol"}, &get))
	require.NotNil(t, get.Deployment)
	assert.Equal(token.Address, get.Deployment.Address)
	assert.Equal(token.TxHash, get.Deployment.TxHash)
	assert.Equal(token.Block, get.Deployment.Block)
	assert.Equal(token.Args, get.Deployment.Args)

	var list ListDeploymentsReply
	require.NoError(t, call(t, server.URL, "deployments.listDeployments", &ListDeploymentsArgs{Network: "alfajores"}, &list))
	assert.Len(list.Deployments, 2)
	assert.Equal(uint64(44787), uint64(list.ChainID))

	require.NoError(t, call(t, server.URL, "deployments.listDeployments", &ListDeploymentsArgs{Network: "localhost"}, &list))
	assert.Empty(list.Deployments)

	var networks NetworksReply
	require.NoError(t, call(t, server.URL, "deployments.networks", struct{}{}, &networks))
	assert.Equal([]string{"alfajores"}, networks.Networks)

	err = call(t, server.URL, "deployments.getDeployment",
		&GetDeploymentArgs{Network: "alfajores", Name: "PowerLiquidVault"}, &get)
	require.Error(t, err)
	assert.Contains(err.Error(), ErrDeploymentNotFound.Error())
}
