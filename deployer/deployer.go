// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package deployer deploys contracts from artifacts, records them in the
// registry and runs the named tasks and deploy scripts.
package deployer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	log "github.com/inconshreveable/log15"

	"github.com/degen-vc/infinity-contracts/artifacts"
	"github.com/degen-vc/infinity-contracts/chain"
	"github.com/degen-vc/infinity-contracts/config"
	"github.com/degen-vc/infinity-contracts/contracts"
	"github.com/degen-vc/infinity-contracts/registry"
)

var (
	ErrNoSigners      = errors.New("no accounts configured")
	ErrMissingAccount = errors.New("named account not configured")
)

// Config is what a Deployer needs to run against one network.
type Config struct {
	Network string
	Store   *artifacts.Store
	Backend chain.Backend
	// Signers are the named accounts in order: deployer, tokenOwner.
	Signers []*chain.Signer
	// Registry records every deployment; nil skips recording.
	Registry *registry.Registry
	// Pause is waited between the steps of a script.
	Pause time.Duration
}

// Deployer deploys contracts from the deployer account.
type Deployer struct {
	network  string
	store    *artifacts.Store
	backend  chain.Backend
	binder   *contracts.Binder
	signers  []*chain.Signer
	registry *registry.Registry
	pause    time.Duration
	runID    string
	chainID  *big.Int
	summary  *Summary
	log      log.Logger
}

// New reads the chain id of the network and binds it in the registry.
func New(ctx context.Context, cfg Config) (*Deployer, error) {
	if len(cfg.Signers) == 0 {
		return nil, ErrNoSigners
	}
	chainID, err := cfg.Backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain id: %w", err)
	}
	if cfg.Registry != nil {
		if err := cfg.Registry.SetChainID(cfg.Network, chainID.Uint64()); err != nil {
			return nil, err
		}
	}
	runID := uuid.New().String()
	return &Deployer{
		network:  cfg.Network,
		store:    cfg.Store,
		backend:  cfg.Backend,
		binder:   contracts.NewBinder(cfg.Store, cfg.Backend),
		signers:  cfg.Signers,
		registry: cfg.Registry,
		pause:    cfg.Pause,
		runID:    runID,
		chainID:  chainID,
		summary:  NewSummary(cfg.Network, chainID.Uint64(), runID),
		log:      log.New("network", cfg.Network),
	}, nil
}

func (d *Deployer) Network() string              { return d.network }
func (d *Deployer) RunID() string                { return d.runID }
func (d *Deployer) ChainID() *big.Int            { return new(big.Int).Set(d.chainID) }
func (d *Deployer) Binder() *contracts.Binder    { return d.binder }
func (d *Deployer) Backend() chain.Backend       { return d.backend }
func (d *Deployer) Summary() *Summary            { return d.summary }
func (d *Deployer) Registry() *registry.Registry { return d.registry }

// Account returns named account [i].
func (d *Deployer) Account(i int) (*chain.Signer, error) {
	if i < 0 || i >= len(d.signers) {
		return nil, fmt.Errorf("%w: account %d of %d", ErrMissingAccount, i, len(d.signers))
	}
	return d.signers[i], nil
}

// DeployerAccount sends every deployment.
func (d *Deployer) DeployerAccount() *chain.Signer { return d.signers[config.DeployerAccount] }

// Signers returns every named account.
func (d *Deployer) Signers() []*chain.Signer { return d.signers }

// Deploy creates contract [name] from its artifact with constructor [args]
// and records it.
func (d *Deployer) Deploy(ctx context.Context, name string, args ...interface{}) (*contracts.Contract, error) {
	a, err := d.store.Deployable(name)
	if err != nil {
		return nil, err
	}
	coerced, err := contracts.CoerceArgs(a.ABI.Constructor.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("%s constructor: %w", name, err)
	}

	from := d.DeployerAccount()
	opts, err := from.TransactOpts(ctx)
	if err != nil {
		return nil, err
	}
	addr, tx, _, err := bind.DeployContract(opts, a.ABI, a.Bytecode, d.backend, coerced...)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy %s: %w", name, err)
	}
	d.log.Debug("deployment sent", "contract", name, "tx", tx.Hash())
	receipt, err := chain.WaitDeployed(ctx, d.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy %s: %w", name, err)
	}
	d.log.Info(name+" deployed to: "+addr.Hex(), "tx", tx.Hash(), "block", receipt.BlockNumber)

	dep := &registry.Deployment{
		Network:   d.network,
		Name:      name,
		Address:   addr,
		TxHash:    tx.Hash(),
		Block:     receipt.BlockNumber.Uint64(),
		Deployer:  from.Address,
		Args:      FormatArgs(coerced),
		RunID:     d.runID,
		Timestamp: time.Now().Unix(),
		ABI:       a.RawABI,
	}
	if d.registry != nil {
		if err := d.registry.Record(dep); err != nil {
			return nil, fmt.Errorf("failed to record %s: %w", name, err)
		}
	}
	d.summary.Add(dep)
	return contracts.NewContract(name, addr, a.ABI, d.backend), nil
}

// At binds contract [name] already deployed at [addr].
func (d *Deployer) At(name string, addr common.Address) (*contracts.Contract, error) {
	return d.binder.Bind(name, addr)
}

// Pause waits the configured pause, then logs [message].
func (d *Deployer) Pause(ctx context.Context, message string) error {
	return Pause(ctx, message, d.pause)
}

// Pause waits [dur] unless [ctx] ends first, then logs [message]. A zero
// [dur] only logs.
func Pause(ctx context.Context, message string, dur time.Duration) error {
	if dur > 0 {
		t := time.NewTimer(dur)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	log.Info(message)
	return nil
}

// FormatArgs renders constructor arguments the way hardhat-deploy stores
// them.
func FormatArgs(args []interface{}) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		switch v := a.(type) {
		case common.Address:
			out = append(out, v.Hex())
		case *big.Int:
			out = append(out, v.String())
		case []byte:
			out = append(out, hexutil.Encode(v))
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}
