// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contracts

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Events decodes every [event] this contract emitted in [receipt], in log
// order.
func (c *Contract) Events(receipt *types.Receipt, event string) ([]Values, error) {
	ev, ok := c.ABI.Events[event]
	if !ok {
		return nil, fmt.Errorf("%s has no event %s", c.Name, event)
	}

	var decoded []Values
	for _, l := range receipt.Logs {
		if l.Address != c.Address || len(l.Topics) == 0 || l.Topics[0] != ev.ID {
			continue
		}
		fields := make(map[string]interface{})
		if err := c.bound.UnpackLogIntoMap(fields, event, *l); err != nil {
			return nil, fmt.Errorf("failed to decode %s.%s: %w", c.Name, event, err)
		}
		values := make(Values, 2*len(ev.Inputs))
		for i, input := range ev.Inputs {
			val, ok := fields[input.Name]
			if !ok {
				continue
			}
			values[strconv.Itoa(i)] = val
			if input.Name != "" {
				values[input.Name] = val
			}
		}
		decoded = append(decoded, values)
	}
	return decoded, nil
}

// HasEvent reports whether [receipt] carries at least one [event] of c.
func (c *Contract) HasEvent(receipt *types.Receipt, event string) (bool, error) {
	events, err := c.Events(receipt, event)
	return len(events) > 0, err
}

// Transfer is an ERC20 Transfer event.
type Transfer struct {
	From  common.Address
	To    common.Address
	Value *big.Int
}

// ParseTransfers returns the Transfer events of the token in [receipt].
func (t *Token) ParseTransfers(receipt *types.Receipt) ([]Transfer, error) {
	events, err := t.Events(receipt, "Transfer")
	if err != nil {
		return nil, err
	}
	transfers := make([]Transfer, 0, len(events))
	for _, v := range events {
		var tr Transfer
		if tr.From, err = v.Address(v.First("from", "0")); err != nil {
			return nil, err
		}
		if tr.To, err = v.Address(v.First("to", "1")); err != nil {
			return nil, err
		}
		if tr.Value, err = v.Uint(v.First("value", "2")); err != nil {
			return nil, err
		}
		transfers = append(transfers, tr)
	}
	return transfers, nil
}

// LPQueued is emitted when a purchase locks LP tokens.
type LPQueued struct {
	Holder         common.Address
	Amount         *big.Int
	Eth            *big.Int
	InfinityTokens *big.Int
	Timestamp      *big.Int
}

// LPClaimed is emitted when a locked batch is released.
type LPClaimed struct {
	Holder    common.Address
	Amount    *big.Int
	Timestamp *big.Int
	ExitFee   *big.Int
	Claimed   bool
}

// FeeTransfer is the purchase fee event: EthTransferred on ETH vaults,
// InfinityTransferred on token vaults.
type FeeTransfer struct {
	Event            string
	From             common.Address
	Amount           *big.Int
	PercentageAmount *big.Int
}

// ParseLPQueued returns the LPQueued events of the vault in [receipt].
func (v *Vault) ParseLPQueued(receipt *types.Receipt) ([]LPQueued, error) {
	events, err := v.Events(receipt, "LPQueued")
	if err != nil {
		return nil, err
	}
	out := make([]LPQueued, 0, len(events))
	for _, e := range events {
		var q LPQueued
		if q.Holder, err = e.Address(e.First("holder", "0")); err != nil {
			return nil, err
		}
		if q.Amount, err = e.Uint(e.First("amount", "1")); err != nil {
			return nil, err
		}
		if q.Timestamp, err = e.Uint(e.First("timestamp", "4")); err != nil {
			return nil, err
		}
		// optional in older vault builds
		q.Eth, _ = e.Uint(e.First("eth", "2"))
		q.InfinityTokens, _ = e.Uint(e.First("infinityTokens", "3"))
		out = append(out, q)
	}
	return out, nil
}

// ParseLPClaimed returns the LPClaimed events of the vault in [receipt].
func (v *Vault) ParseLPClaimed(receipt *types.Receipt) ([]LPClaimed, error) {
	events, err := v.Events(receipt, "LPClaimed")
	if err != nil {
		return nil, err
	}
	out := make([]LPClaimed, 0, len(events))
	for _, e := range events {
		var c LPClaimed
		if c.Holder, err = e.Address(e.First("holder", "0")); err != nil {
			return nil, err
		}
		if c.Amount, err = e.Uint(e.First("amount", "1")); err != nil {
			return nil, err
		}
		if c.Timestamp, err = e.Uint(e.First("timestamp", "2")); err != nil {
			return nil, err
		}
		if c.ExitFee, err = e.Uint(e.First("exitFee", "3")); err != nil {
			return nil, err
		}
		if c.Claimed, err = e.Bool(e.First("claimed", "4")); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// ParseFeeTransfer returns the purchase fee events in [receipt]: any event of
// the vault carrying a percentageAmount field.
func (v *Vault) ParseFeeTransfer(receipt *types.Receipt) ([]FeeTransfer, error) {
	var out []FeeTransfer
	for name, ev := range v.ABI.Events {
		hasPercentage := false
		for _, input := range ev.Inputs {
			if input.Name == "percentageAmount" {
				hasPercentage = true
				break
			}
		}
		if !hasPercentage {
			continue
		}
		events, err := v.Events(receipt, name)
		if err != nil {
			return nil, err
		}
		for _, e := range events {
			f := FeeTransfer{Event: name}
			if f.PercentageAmount, err = e.Uint("percentageAmount"); err != nil {
				return nil, err
			}
			f.From, _ = e.Address(e.First("from", "0"))
			f.Amount, _ = e.Uint(e.First("amount", "1"))
			out = append(out, f)
		}
	}
	return out, nil
}

// Mint is a UniswapV2Pair Mint event.
type Mint struct {
	Sender  common.Address
	Amount0 *big.Int
	Amount1 *big.Int
}

// ParseMint returns the Mint events of the pair in [receipt].
func (p *Pair) ParseMint(receipt *types.Receipt) ([]Mint, error) {
	events, err := p.Events(receipt, "Mint")
	if err != nil {
		return nil, err
	}
	out := make([]Mint, 0, len(events))
	for _, e := range events {
		var m Mint
		if m.Sender, err = e.Address(e.First("sender", "0")); err != nil {
			return nil, err
		}
		if m.Amount0, err = e.Uint(e.First("amount0", "1")); err != nil {
			return nil, err
		}
		if m.Amount1, err = e.Uint(e.First("amount1", "2")); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Swap is a UniswapV2Pair Swap event.
type Swap struct {
	Sender     common.Address
	Amount0In  *big.Int
	Amount1In  *big.Int
	Amount0Out *big.Int
	Amount1Out *big.Int
	To         common.Address
}

// ParseSwap returns the Swap events of the pair in [receipt].
func (p *Pair) ParseSwap(receipt *types.Receipt) ([]Swap, error) {
	events, err := p.Events(receipt, "Swap")
	if err != nil {
		return nil, err
	}
	out := make([]Swap, 0, len(events))
	for _, e := range events {
		var s Swap
		if s.Sender, err = e.Address(e.First("sender", "0")); err != nil {
			return nil, err
		}
		if s.Amount0In, err = e.Uint(e.First("amount0In", "1")); err != nil {
			return nil, err
		}
		if s.Amount1In, err = e.Uint(e.First("amount1In", "2")); err != nil {
			return nil, err
		}
		if s.Amount0Out, err = e.Uint(e.First("amount0Out", "3")); err != nil {
			return nil, err
		}
		if s.Amount1Out, err = e.Uint(e.First("amount1Out", "4")); err != nil {
			return nil, err
		}
		if s.To, err = e.Address(e.First("to", "5")); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
