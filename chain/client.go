// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package chain talks to an EVM node over JSON-RPC.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	log "github.com/inconshreveable/log15"
)

var (
	ErrSnapshotRevert = errors.New("failed to revert to snapshot")

	_ Backend = (*Client)(nil)
	_ Dev     = (*Client)(nil)
)

// Backend is everything the deployer and the bindings need from a node.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend

	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Dev exposes the test-only methods of Hardhat and Ganache nodes.
type Dev interface {
	Snapshot(ctx context.Context) (string, error)
	Revert(ctx context.Context, id string) error
	SetTime(ctx context.Context, unix uint64) error
	IncreaseTime(ctx context.Context, d time.Duration) error
	Mine(ctx context.Context) error
}

// Client is a node client. It embeds ethclient for the standard API and keeps
// the raw rpc client for the evm_* dev methods.
type Client struct {
	*ethclient.Client

	rpc *rpc.Client
}

// Dial connects to the node at [url].
func Dial(ctx context.Context, url string) (*Client, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return NewClient(c), nil
}

// NewClient wraps an existing rpc client.
func NewClient(c *rpc.Client) *Client {
	return &Client{
		Client: ethclient.NewClient(c),
		rpc:    c,
	}
}

// Snapshot saves the chain state and returns the id to revert to.
func (c *Client) Snapshot(ctx context.Context) (string, error) {
	var id string
	if err := c.rpc.CallContext(ctx, &id, "evm_snapshot"); err != nil {
		return "", fmt.Errorf("evm_snapshot: %w", err)
	}
	log.Debug("took snapshot", "id", id)
	return id, nil
}

// Revert restores the state saved under [id]. Snapshots are single use.
func (c *Client) Revert(ctx context.Context, id string) error {
	var ok bool
	if err := c.rpc.CallContext(ctx, &ok, "evm_revert", id); err != nil {
		return fmt.Errorf("evm_revert: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w %s", ErrSnapshotRevert, id)
	}
	log.Debug("reverted to snapshot", "id", id)
	return nil
}

// SetTime mines a block with timestamp [unix].
func (c *Client) SetTime(ctx context.Context, unix uint64) error {
	if err := c.rpc.CallContext(ctx, nil, "evm_setNextBlockTimestamp", unix); err != nil {
		return fmt.Errorf("evm_setNextBlockTimestamp: %w", err)
	}
	return c.Mine(ctx)
}

// IncreaseTime moves the chain clock forward by [d] and mines a block.
func (c *Client) IncreaseTime(ctx context.Context, d time.Duration) error {
	if err := c.rpc.CallContext(ctx, nil, "evm_increaseTime", uint64(d/time.Second)); err != nil {
		return fmt.Errorf("evm_increaseTime: %w", err)
	}
	return c.Mine(ctx)
}

// Mine mines one block.
func (c *Client) Mine(ctx context.Context) error {
	if err := c.rpc.CallContext(ctx, nil, "evm_mine"); err != nil {
		return fmt.Errorf("evm_mine: %w", err)
	}
	return nil
}

// WaitReady polls eth_chainId until the node answers or [ctx] is done.
func WaitReady(ctx context.Context, url string, interval time.Duration) (*big.Int, error) {
	for {
		id, err := probe(ctx, url)
		if err == nil {
			return id, nil
		}
		log.Debug("node not ready", "url", url, "err", err)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("node at %s not ready: %w", url, err)
		case <-time.After(interval):
		}
	}
}

func probe(ctx context.Context, url string) (*big.Int, error) {
	c, err := Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.ChainID(ctx)
}
