// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package client talks to the deployments service started by "infinity serve".
package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/rpc/v2/json2"

	"github.com/degen-vc/infinity-contracts/registry"
)

// Client defines deployments service operations.
type Client interface {
	// GetDeployment fetches the record of [name] on [network]
	GetDeployment(ctx context.Context, network, name string) (*registry.Deployment, error)

	// ListDeployments fetches every record of [network] and its chain id
	ListDeployments(ctx context.Context, network string) ([]*registry.Deployment, uint64, error)

	// Networks fetches the networks with records
	Networks(ctx context.Context) ([]string, error)
}

// New creates a new client object.
func New(uri string) Client {
	return &client{uri: uri, http: http.DefaultClient}
}

type client struct {
	uri  string
	http *http.Client
}

func (cli *client) GetDeployment(ctx context.Context, network, name string) (*registry.Deployment, error) {
	resp := new(registry.GetDeploymentReply)
	err := cli.sendRequest(ctx,
		registry.Name+".getDeployment",
		&registry.GetDeploymentArgs{Network: network, Name: name},
		resp,
	)
	if err != nil {
		return nil, err
	}
	return resp.Deployment, nil
}

func (cli *client) ListDeployments(ctx context.Context, network string) ([]*registry.Deployment, uint64, error) {
	resp := new(registry.ListDeploymentsReply)
	err := cli.sendRequest(ctx,
		registry.Name+".listDeployments",
		&registry.ListDeploymentsArgs{Network: network},
		resp,
	)
	if err != nil {
		return nil, 0, err
	}
	return resp.Deployments, uint64(resp.ChainID), nil
}

func (cli *client) Networks(ctx context.Context) ([]string, error) {
	resp := new(registry.NetworksReply)
	if err := cli.sendRequest(ctx, registry.Name+".networks", struct{}{}, resp); err != nil {
		return nil, err
	}
	return resp.Networks, nil
}

func (cli *client) sendRequest(ctx context.Context, method string, params, reply interface{}) error {
	body, err := json2.EncodeClientRequest(method, params)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cli.uri, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := cli.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to issue %s: %w", method, err)
	}
	defer resp.Body.Close()

	if err := json2.DecodeClientResponse(resp.Body, reply); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: status %d: %w", method, resp.StatusCode, err)
		}
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}
