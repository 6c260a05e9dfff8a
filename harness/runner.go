// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package harness runs behavioural checks against deployed contracts. Every
// check runs in its own node snapshot, so checks never see each other's
// transactions.
package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/inconshreveable/log15"

	"github.com/degen-vc/infinity-contracts/chain"
)

// DefaultCheckTimeout bounds a single check.
const DefaultCheckTimeout = 2 * time.Minute

var (
	ErrSnapshotRevert = errors.New("failed to revert snapshot")
	ErrUnknownSuite   = errors.New("unknown suite")
)

// Check is one named assertion.
type Check struct {
	Suite string
	Name  string
	Run   func(ctx context.Context, env *Env) error
}

func (c Check) String() string { return c.Suite + "/" + c.Name }

// Result is the outcome of one check.
type Result struct {
	Check    string
	Err      error
	Duration time.Duration
}

func (r Result) Passed() bool { return r.Err == nil }

// Report collects the results of a run.
type Report struct {
	Results []Result
}

func (r *Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed() {
			n++
		}
	}
	return n
}

func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.Passed() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err joins the failures, nil when every check passed.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", res.Check, res.Err))
	}
	return errors.Join(errs...)
}

// Runner runs checks in snapshot isolation.
type Runner struct {
	dev     chain.Dev
	timeout time.Duration
}

// NewRunner returns a runner. A zero [timeout] uses DefaultCheckTimeout.
func NewRunner(dev chain.Dev, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	return &Runner{dev: dev, timeout: timeout}
}

// Run runs [checks] in order. It stops early only when a snapshot cannot be
// taken or reverted, returning the results so far.
func (r *Runner) Run(ctx context.Context, env *Env, checks []Check) (*Report, error) {
	report := &Report{}
	for _, check := range checks {
		res, err := r.run(ctx, env, check)
		if err != nil {
			return report, err
		}
		report.Results = append(report.Results, res)
		if res.Passed() {
			log.Info("check passed", "check", res.Check, "duration", res.Duration)
		} else {
			log.Error("check failed", "check", res.Check, "err", res.Err)
		}
	}
	log.Info("checks finished", "passed", report.Passed(), "failed", len(report.Failed()))
	return report, nil
}

func (r *Runner) run(ctx context.Context, env *Env, check Check) (Result, error) {
	id, err := r.dev.Snapshot(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to snapshot before %s: %w", check, err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, r.timeout)
	start := time.Now()
	err = r.safeRun(checkCtx, env, check)
	cancel()
	res := Result{
		Check:    check.String(),
		Err:      err,
		Duration: time.Since(start),
	}

	if err := r.dev.Revert(ctx, id); err != nil {
		return res, fmt.Errorf("%w %s after %s: %v", ErrSnapshotRevert, id, check, err)
	}
	return res, nil
}

// safeRun turns a panicking check into a failure.
func (r *Runner) safeRun(ctx context.Context, env *Env, check Check) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("check panicked: %v", p)
		}
	}()
	return check.Run(ctx, env)
}
