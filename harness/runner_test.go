// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package harness

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dev records snapshot traffic.
type dev struct {
	next      int
	open      []string
	reverted  []string
	revertErr error
}

func (d *dev) Snapshot(context.Context) (string, error) {
	d.next++
	id := fmt.Sprintf("0x%x", d.next)
	d.open = append(d.open, id)
	return id, nil
}

func (d *dev) Revert(_ context.Context, id string) error {
	if d.revertErr != nil {
		return d.revertErr
	}
	d.reverted = append(d.reverted, id)
	return nil
}

func (*dev) SetTime(context.Context, uint64) error             { return nil }
func (*dev) IncreaseTime(context.Context, time.Duration) error { return nil }
func (*dev) Mine(context.Context) error                        { return nil }

func staticCheck(name string, err error) Check {
	return Check{
		Suite: "test",
		Name:  name,
		Run:   func(context.Context, *Env) error { return err },
	}
}

func TestRunnerIsolatesChecks(t *testing.T) {
	assert := assert.New(t)
	d := &dev{}
	errBroken := errors.New("broken")

	report, err := NewRunner(d, 0).Run(context.Background(), nil, []Check{
		staticCheck("first", nil),
		staticCheck("second", errBroken),
		staticCheck("third", nil),
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	assert.Equal([]string{"0x1", "0x2", "0x3"}, d.reverted)

	assert.Equal(2, report.Passed())
	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal("test/second", failed[0].Check)
	assert.ErrorIs(report.Err(), errBroken)
	assert.Contains(report.Err().Error(), "test/second")
}

func TestRunnerAllPassed(t *testing.T) {
	report, err := NewRunner(&dev{}, 0).Run(context.Background(), nil, []Check{staticCheck("only", nil)})
	require.NoError(t, err)
	require.NoError(t, report.Err())
	require.Empty(t, report.Failed())
}

func TestRunnerAbortsOnRevertFailure(t *testing.T) {
	d := &dev{revertErr: errors.New("unknown snapshot")}

	report, err := NewRunner(d, 0).Run(context.Background(), nil, []Check{
		staticCheck("first", nil),
		staticCheck("second", nil),
	})
	require.ErrorIs(t, err, ErrSnapshotRevert)
	require.Contains(t, err.Error(), "test/first")
	require.Empty(t, report.Results)
	require.Len(t, d.open, 1)
}

func TestRunnerTimeout(t *testing.T) {
	slow := Check{
		Suite: "test",
		Name:  "slow",
		Run: func(ctx context.Context, _ *Env) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}

	report, err := NewRunner(&dev{}, 10*time.Millisecond).Run(context.Background(), nil, []Check{slow})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	require.ErrorIs(t, report.Results[0].Err, context.DeadlineExceeded)
}

func TestRunnerRecoversPanics(t *testing.T) {
	d := &dev{}
	panics := Check{
		Suite: "test",
		Name:  "panics",
		Run:   func(context.Context, *Env) error { panic("nil binding") },
	}

	report, err := NewRunner(d, 0).Run(context.Background(), nil, []Check{panics, staticCheck("after", nil)})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	require.ErrorContains(t, report.Results[0].Err, "nil binding")
	require.True(t, report.Results[1].Passed())
	require.Len(t, d.reverted, 2)
}
