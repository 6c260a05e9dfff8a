// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package devnet starts and stops the dev chains the end to end tests run
// against.
package devnet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/go-cmd/cmd"
	log "github.com/inconshreveable/log15"

	"github.com/degen-vc/infinity-contracts/chain"
)

const (
	DefaultReadyTimeout = time.Minute
	readyInterval       = 500 * time.Millisecond
)

var (
	ErrExited     = errors.New("dev chain exited")
	ErrNotStarted = errors.New("dev chain not started")

	_ DevChain = (*existingChain)(nil)
	_ DevChain = (*processChain)(nil)
)

// DevChain is a node the tests can start, reach and tear down.
type DevChain interface {
	Start(context.Context) error
	URL() string
	Teardown(context.Context) error
}

// existingChain is a node somebody else runs. Start only checks that it
// answers.
type existingChain struct {
	url string
}

func NewExisting(url string) *existingChain {
	return &existingChain{url: url}
}

func (e *existingChain) Start(ctx context.Context) error {
	id, err := chain.WaitReady(ctx, e.url, readyInterval)
	if err != nil {
		return err
	}
	log.Info("using existing dev chain", "url", e.url, "chainID", id)
	return nil
}

func (e *existingChain) URL() string                    { return e.url }
func (e *existingChain) Teardown(context.Context) error { return nil }

// ProcessConfig describes a node binary such as `npx hardhat node` or
// `ganache`.
type ProcessConfig struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
	URL     string   `json:"url"`
	// ReadyTimeout bounds the wait for the first eth_chainId answer.
	ReadyTimeout time.Duration `json:"readyTimeout"`
}

// processChain spawns the node and stops it on teardown.
type processChain struct {
	config ProcessConfig

	lock    sync.Mutex
	cmd     *cmd.Cmd
	chainID *big.Int
}

func NewProcess(config ProcessConfig) *processChain {
	if config.ReadyTimeout <= 0 {
		config.ReadyTimeout = DefaultReadyTimeout
	}
	return &processChain{config: config}
}

func (p *processChain) URL() string { return p.config.URL }

// ChainID is the id the node reported once ready.
func (p *processChain) ChainID() *big.Int {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.chainID == nil {
		return nil
	}
	return new(big.Int).Set(p.chainID)
}

func (p *processChain) Start(ctx context.Context) error {
	log.Info("starting dev chain", "command", p.config.Command, "args", strings.Join(p.config.Args, " "))

	c := cmd.NewCmdOptions(cmd.Options{Streaming: true}, p.config.Command, p.config.Args...)
	c.Start()
	go drain(p.config.Command, c.Stdout, c.Stderr)

	p.lock.Lock()
	p.cmd = c
	p.lock.Unlock()

	readyCtx, cancel := context.WithTimeout(ctx, p.config.ReadyTimeout)
	defer cancel()
	go func() {
		select {
		case <-c.Done():
			cancel()
		case <-readyCtx.Done():
		}
	}()

	id, err := chain.WaitReady(readyCtx, p.config.URL, readyInterval)
	if err != nil {
		if status := c.Status(); status.Complete || status.Error != nil {
			return fmt.Errorf("%w: exit code %d: %v", ErrExited, status.Exit, status.Error)
		}
		if stopErr := c.Stop(); stopErr != nil {
			log.Warn("failed to stop dev chain", "err", stopErr)
		}
		return err
	}

	p.lock.Lock()
	p.chainID = id
	p.lock.Unlock()
	log.Info("dev chain ready", "url", p.config.URL, "chainID", id, "pid", c.Status().PID)
	return nil
}

func (p *processChain) Teardown(ctx context.Context) error {
	p.lock.Lock()
	c := p.cmd
	p.lock.Unlock()
	if c == nil {
		return ErrNotStarted
	}

	log.Info("shutting down dev chain")
	if err := c.Stop(); err != nil {
		return err
	}
	select {
	case <-c.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	log.Info("dev chain stopped", "runtime", c.Status().Runtime)
	return nil
}

// drain forwards the node output to the debug log until the process exits.
func drain(name string, stdout, stderr <-chan string) {
	for stdout != nil || stderr != nil {
		select {
		case line, ok := <-stdout:
			if !ok {
				stdout = nil
				continue
			}
			log.Debug(line, "source", name)
		case line, ok := <-stderr:
			if !ok {
				stderr = nil
				continue
			}
			log.Debug(line, "source", name, "stream", "stderr")
		}
	}
}
