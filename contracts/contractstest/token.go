// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contractstest

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/degen-vc/infinity-contracts/chain/chaintest"
	"github.com/degen-vc/infinity-contracts/contracts"
)

// InfinityDecimals and InfinitySupply match the deployed token: 100,000,000
// tokens with 8 decimals, minted to the deployer.
const InfinityDecimals = 8

var InfinitySupply = new(big.Int).Mul(big.NewInt(100_000_000), new(big.Int).Exp(big.NewInt(10), big.NewInt(InfinityDecimals), nil))

// Token is an ERC20 fake. It backs InfinityProtocol, LightningProtocol, WETH9
// and the pair's LP token.
type Token struct {
	Address  common.Address
	Name     string
	Symbol   string
	Decimals uint8
	Owner    common.Address

	// InfinityProtocol only.
	Router      common.Address
	FeeReceiver common.Address
	Fee         *big.Int
	MaxCycles   *big.Int
	InitialFee  bool

	Supply     *big.Int
	Balances   map[common.Address]*big.Int
	Allowances map[common.Address]map[common.Address]*big.Int

	abi abi.ABI
}

func newToken(addr common.Address, parsed abi.ABI, name, symbol string, decimals uint8) *Token {
	return &Token{
		Address:    addr,
		Name:       name,
		Symbol:     symbol,
		Decimals:   decimals,
		Fee:        new(big.Int),
		MaxCycles:  new(big.Int),
		Supply:     new(big.Int),
		Balances:   make(map[common.Address]*big.Int),
		Allowances: make(map[common.Address]map[common.Address]*big.Int),
		abi:        parsed,
	}
}

// BalanceOf is the fake's balance of [a].
func (t *Token) BalanceOf(a common.Address) *big.Int {
	if b, ok := t.Balances[a]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (t *Token) allowance(owner, spender common.Address) *big.Int {
	if a, ok := t.Allowances[owner][spender]; ok {
		return a
	}
	return new(big.Int)
}

func (t *Token) credit(a common.Address, amount *big.Int) {
	t.Balances[a] = new(big.Int).Add(t.BalanceOf(a), amount)
}

// Mint creates [amount] for [to] outside of any transaction.
func (t *Token) Mint(to common.Address, amount *big.Int) {
	t.credit(to, amount)
	t.Supply = new(big.Int).Add(t.Supply, amount)
}

func (t *Token) mint(c *chaintest.Call, to common.Address, amount *big.Int) error {
	if c.Static {
		return nil
	}
	t.Mint(to, amount)
	return c.EmitAt(t.Address, t.abi, "Transfer", common.Address{}, to, new(big.Int).Set(amount))
}

func (t *Token) move(c *chaintest.Call, from, to common.Address, amount *big.Int) error {
	if t.BalanceOf(from).Cmp(amount) < 0 {
		return chaintest.Revert("ERC20: transfer amount exceeds balance")
	}
	if c.Static {
		return nil
	}
	t.Balances[from] = new(big.Int).Sub(t.BalanceOf(from), amount)
	t.credit(to, amount)
	return c.EmitAt(t.Address, t.abi, "Transfer", from, to, new(big.Int).Set(amount))
}

func (t *Token) spend(c *chaintest.Call, owner, spender, to common.Address, amount *big.Int) error {
	allowed := t.allowance(owner, spender)
	if allowed.Cmp(amount) < 0 {
		return chaintest.Revert("ERC20: transfer amount exceeds allowance")
	}
	if t.BalanceOf(owner).Cmp(amount) < 0 {
		return chaintest.Revert("ERC20: transfer amount exceeds balance")
	}
	if c.Static {
		return nil
	}
	t.Allowances[owner][spender] = new(big.Int).Sub(allowed, amount)
	return t.move(c, owner, to, amount)
}

func (t *Token) burn(c *chaintest.Call, from common.Address, amount *big.Int) error {
	if t.BalanceOf(from).Cmp(amount) < 0 {
		return chaintest.Revert("ERC20: burn amount exceeds balance")
	}
	if c.Static {
		return nil
	}
	t.Balances[from] = new(big.Int).Sub(t.BalanceOf(from), amount)
	t.Supply = new(big.Int).Sub(t.Supply, amount)
	return c.EmitAt(t.Address, t.abi, "Transfer", from, common.Address{}, new(big.Int).Set(amount))
}

func (t *Token) methods() map[string]chaintest.Method {
	m := map[string]chaintest.Method{
		"name":     func(*chaintest.Call) ([]interface{}, error) { return out(t.Name) },
		"symbol":   func(*chaintest.Call) ([]interface{}, error) { return out(t.Symbol) },
		"decimals": func(*chaintest.Call) ([]interface{}, error) { return out(t.Decimals) },
		"totalSupply": func(*chaintest.Call) ([]interface{}, error) {
			return out(new(big.Int).Set(t.Supply))
		},
		"balanceOf": func(c *chaintest.Call) ([]interface{}, error) {
			return out(t.BalanceOf(addressArg(c, 0)))
		},
		"allowance": func(c *chaintest.Call) ([]interface{}, error) {
			return out(new(big.Int).Set(t.allowance(addressArg(c, 0), addressArg(c, 1))))
		},
		"transfer": func(c *chaintest.Call) ([]interface{}, error) {
			if err := t.move(c, c.From, addressArg(c, 0), bigArg(c, 1)); err != nil {
				return nil, err
			}
			return out(true)
		},
		"approve": func(c *chaintest.Call) ([]interface{}, error) {
			if c.Static {
				return out(true)
			}
			spender, amount := addressArg(c, 0), bigArg(c, 1)
			if t.Allowances[c.From] == nil {
				t.Allowances[c.From] = make(map[common.Address]*big.Int)
			}
			t.Allowances[c.From][spender] = amount
			if err := c.Emit("Approval", c.From, spender, new(big.Int).Set(amount)); err != nil {
				return nil, err
			}
			return out(true)
		},
		"transferFrom": func(c *chaintest.Call) ([]interface{}, error) {
			if err := t.spend(c, addressArg(c, 0), c.From, addressArg(c, 1), bigArg(c, 2)); err != nil {
				return nil, err
			}
			return out(true)
		},
	}
	if _, ok := t.abi.Methods["owner"]; ok {
		for name, fn := range ownable(&t.Owner) {
			m[name] = fn
		}
	}
	if _, ok := t.abi.Methods["router"]; ok {
		m["router"] = func(*chaintest.Call) ([]interface{}, error) { return out(t.Router) }
		m["setFeeReceiver"] = onlyOwner(&t.Owner, func(c *chaintest.Call) ([]interface{}, error) {
			t.FeeReceiver = addressArg(c, 0)
			return nil, nil
		})
		m["burn"] = func(c *chaintest.Call) ([]interface{}, error) {
			return nil, t.burn(c, c.From, bigArg(c, 0))
		}
		m["setFee"] = onlyOwner(&t.Owner, func(c *chaintest.Call) ([]interface{}, error) {
			t.Fee = bigArg(c, 0)
			return nil, nil
		})
		m["setInitialFee"] = onlyOwner(&t.Owner, func(*chaintest.Call) ([]interface{}, error) {
			t.InitialFee = true
			return nil, nil
		})
		m["setMaxCycles"] = onlyOwner(&t.Owner, func(c *chaintest.Call) ([]interface{}, error) {
			t.MaxCycles = bigArg(c, 0)
			return nil, nil
		})
	}
	return m
}

func (t *Token) contract() *chaintest.Contract {
	return &chaintest.Contract{ABI: t.abi, Methods: t.methods()}
}

// WETH is the wrapped ether fake.
type WETH struct {
	*Token
}

func (w *WETH) contract() *chaintest.Contract {
	m := w.methods()
	m["deposit"] = func(c *chaintest.Call) ([]interface{}, error) {
		return nil, w.mint(c, c.From, c.Value)
	}
	m["withdraw"] = func(c *chaintest.Call) ([]interface{}, error) {
		return nil, w.unwrap(c, c.From, c.From, bigArg(c, 0))
	}
	return &chaintest.Contract{ABI: w.abi, Methods: m}
}

// unwrap burns [amount] WETH of [holder] and pays the ether out to [to].
func (w *WETH) unwrap(c *chaintest.Call, holder, to common.Address, amount *big.Int) error {
	if err := w.burn(c, holder, amount); err != nil {
		return err
	}
	return c.Send(w.Address, to, amount)
}

func newInfinity(addr, owner, router common.Address) *Token {
	parsed, _ := contracts.EmbeddedABI(contracts.InfinityProtocolName)
	t := newToken(addr, parsed, "Infinity Protocol", "INFINITY", InfinityDecimals)
	t.Owner = owner
	t.Router = router
	t.Mint(owner, InfinitySupply)
	return t
}
