// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package deployer

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/degen-vc/infinity-contracts/contracts"
)

const (
	DeployInfinityProtocolTask = "deploy_infinityProtocol"
	DeployLiquidVaultTask      = "deploy_liquidVault"
	DeployFeeDistributorTask   = "deploy_feeDistributor"

	RouterParam = "router"
)

var (
	ErrUnknownTask   = errors.New("unknown task")
	ErrDuplicateTask = errors.New("task already registered")
	ErrMissingParam  = errors.New("missing task parameter")
)

// Param is a declared task parameter.
type Param struct {
	Name        string
	Description string
}

// TaskFunc runs a task and returns the address it deployed.
type TaskFunc func(ctx context.Context, d *Deployer, params map[string]string) (common.Address, error)

// Task is a named, parameterised deployment.
type Task struct {
	Name        string
	Description string
	Params      []Param
	Action      TaskFunc
}

// TaskRegistry holds tasks by name.
type TaskRegistry struct {
	tasks map[string]Task
}

func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{tasks: make(map[string]Task)}
}

// DefaultTasks returns the tasks the deploy scripts use.
func DefaultTasks() *TaskRegistry {
	r := NewTaskRegistry()
	for _, t := range []Task{
		{
			Name:        DeployInfinityProtocolTask,
			Description: "Deploys infinity protocol",
			Params:      []Param{{Name: RouterParam, Description: "Ube/Pancake/Uniswap Router Address"}},
			Action: func(ctx context.Context, d *Deployer, params map[string]string) (common.Address, error) {
				return deployAddress(ctx, d, contracts.InfinityProtocolName, params[RouterParam])
			},
		},
		{
			Name:        DeployLiquidVaultTask,
			Description: "Deploys LiquidVault, 1st Vault of Infinity Protocol",
			Action: func(ctx context.Context, d *Deployer, _ map[string]string) (common.Address, error) {
				return deployAddress(ctx, d, contracts.LiquidVaultName)
			},
		},
		{
			Name:        DeployFeeDistributorTask,
			Description: "Deploys FeeDistributor, In charge of Fee Distributions",
			Action: func(ctx context.Context, d *Deployer, _ map[string]string) (common.Address, error) {
				return deployAddress(ctx, d, contracts.FeeDistributorName)
			},
		},
	} {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

func deployAddress(ctx context.Context, d *Deployer, name string, args ...interface{}) (common.Address, error) {
	c, err := d.Deploy(ctx, name, args...)
	if err != nil {
		return common.Address{}, err
	}
	return c.Address, nil
}

func (r *TaskRegistry) Register(t Task) error {
	if _, ok := r.tasks[t.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, t.Name)
	}
	r.tasks[t.Name] = t
	return nil
}

func (r *TaskRegistry) Get(name string) (Task, bool) {
	t, ok := r.tasks[name]
	return t, ok
}

// Names returns the registered task names, sorted.
func (r *TaskRegistry) Names() []string {
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run runs task [name] after checking every declared parameter is set.
func (r *TaskRegistry) Run(ctx context.Context, d *Deployer, name string, params map[string]string) (common.Address, error) {
	t, ok := r.tasks[name]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	var missing []error
	for _, p := range t.Params {
		if params[p.Name] == "" {
			missing = append(missing, fmt.Errorf("%w: %s --%s", ErrMissingParam, name, p.Name))
		}
	}
	if err := errors.Join(missing...); err != nil {
		return common.Address{}, err
	}
	return t.Action(ctx, d, params)
}
