// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package harness

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/degen-vc/infinity-contracts/contracts"
)

// SecondsPerDay converts the day counts vaults are configured with into the
// seconds they store.
const SecondsPerDay = 86400

var (
	ErrExpectation = errors.New("expectation failed")

	hundred = big.NewInt(100)
)

// Percent is [pct]% of [amount], rounded down.
func Percent(amount *big.Int, pct uint8) *big.Int {
	p := new(big.Int).Mul(amount, big.NewInt(int64(pct)))
	return p.Div(p, hundred)
}

// DistributionSplit is how a FeeDistributor seeded with [share] and [burn]
// splits [amount]: the vault and burn get their percentages and the
// secondary address the remainder.
func DistributionSplit(amount *big.Int, share, burn uint8) (vault, burned, secondary *big.Int) {
	vault = Percent(amount, share)
	burned = Percent(amount, burn)
	secondary = new(big.Int).Sub(amount, vault)
	secondary.Sub(secondary, burned)
	return vault, burned, secondary
}

func StakeDurationSeconds(days uint32) uint64 {
	return uint64(days) * SecondsPerDay
}

// ExitFee is the share of a claimed batch a vault keeps.
func ExitFee(amount *big.Int, donationShare uint8) *big.Int {
	return Percent(amount, donationShare)
}

// Units is [n] whole tokens of [decimals].
func Units(n int64, decimals uint8) *big.Int {
	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return unit.Mul(unit, big.NewInt(n))
}

func equalBig(what string, got, want *big.Int) error {
	if got == nil || want == nil || got.Cmp(want) != 0 {
		return fmt.Errorf("%w: %s: got %v, want %v", ErrExpectation, what, got, want)
	}
	return nil
}

func equalAddress(what string, got, want common.Address) error {
	if got != want {
		return fmt.Errorf("%w: %s: got %s, want %s", ErrExpectation, what, got.Hex(), want.Hex())
	}
	return nil
}

func equal[T comparable](what string, got, want T) error {
	if got != want {
		return fmt.Errorf("%w: %s: got %v, want %v", ErrExpectation, what, got, want)
	}
	return nil
}

// reverted checks that [err] is a revert with [reason].
func reverted(what string, err error, reason string) error {
	if err == nil {
		return fmt.Errorf("%w: %s: succeeded, want revert %q", ErrExpectation, what, reason)
	}
	if !contracts.IsRevert(err, reason) {
		return fmt.Errorf("%w: %s: want revert %q, got %v", ErrExpectation, what, reason, err)
	}
	return nil
}
