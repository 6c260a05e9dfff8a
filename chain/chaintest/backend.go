// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package chaintest provides an in-memory node for unit tests. Contracts are
// Go handlers keyed by ABI method name; the backend does the ABI encoding,
// nonces, receipts and logs, so bindings and deploy pipelines run unchanged.
package chaintest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/degen-vc/infinity-contracts/chain"
)

const (
	// GasLimit is returned by every estimate.
	GasLimit = 3_000_000

	// StartTime is the timestamp of block 0.
	StartTime = 1_600_000_000
)

var (
	ErrUnknownSnapshot  = errors.New("unknown snapshot")
	ErrNotImplemented   = errors.New("method not implemented")
	ErrNoDeployHandler  = errors.New("no deploy handler for bytecode")
	ErrBadNonce         = errors.New("bad nonce")
	errNoSubscriptions  = errors.New("log subscriptions are not supported")
	errorSelector       = crypto.Keccak256([]byte("Error(string)"))[:4]
	defaultGasPrice     = big.NewInt(1_000_000_000)
	deployedPlaceholder = []byte{0xfe}

	_ chain.Backend = (*Backend)(nil)
	_ chain.Dev     = (*Backend)(nil)
)

// Method implements one contract function.
type Method func(c *Call) ([]interface{}, error)

// Factory builds the contract created by a deployment. c.Args holds the
// decoded constructor arguments and c.To the new address.
type Factory func(c *Call) (*Contract, error)

// Contract is a deployed fake.
type Contract struct {
	ABI     abi.ABI
	Methods map[string]Method

	code []byte
}

// Call is a decoded invocation passed to a Method.
type Call struct {
	From   common.Address
	To     common.Address
	Value  *big.Int
	Method string
	Args   []interface{}
	// Static is set for eth_call.
	Static bool
	Time   uint64

	abi      abi.ABI
	logs     []*types.Log
	created  map[common.Address]*Contract
	balances map[common.Address]*big.Int
}

// Balance is the native balance of [addr] as the call sees it. The value of
// a transaction is already credited to the called contract.
func (c *Call) Balance(addr common.Address) *big.Int {
	if b, ok := c.balances[addr]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// Send moves [amount] wei from [from] to [to]. Static calls only check the
// balance. Failed transactions restore every balance.
func (c *Call) Send(from, to common.Address, amount *big.Int) error {
	if c.Balance(from).Cmp(amount) < 0 {
		return Revert("Address: insufficient balance")
	}
	if c.Static || amount.Sign() == 0 {
		return nil
	}
	c.balances[from] = new(big.Int).Sub(c.balances[from], amount)
	c.balances[to] = new(big.Int).Add(c.Balance(to), amount)
	return nil
}

// Emit appends an event log of the called contract to the transaction.
// Indexed arguments become topics, the rest is ABI encoded data.
func (c *Call) Emit(event string, args ...interface{}) error {
	return c.EmitAt(c.To, c.abi, event, args...)
}

// EmitAt appends a log on behalf of another contract, as when a router call
// makes the pair emit.
func (c *Call) EmitAt(addr common.Address, parsed abi.ABI, event string, args ...interface{}) error {
	ev, ok := parsed.Events[event]
	if !ok {
		return fmt.Errorf("unknown event %s", event)
	}
	if len(args) != len(ev.Inputs) {
		return fmt.Errorf("event %s takes %d arguments, got %d", event, len(ev.Inputs), len(args))
	}

	topics := []common.Hash{ev.ID}
	var data []interface{}
	for i, input := range ev.Inputs {
		if !input.Indexed {
			data = append(data, args[i])
			continue
		}
		t, err := abi.MakeTopics([]interface{}{args[i]})
		if err != nil {
			return err
		}
		topics = append(topics, t[0][0])
	}
	packed, err := ev.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		return err
	}
	c.logs = append(c.logs, &types.Log{
		Address: addr,
		Topics:  topics,
		Data:    packed,
	})
	return nil
}

// Install deploys [contract] at [addr] once the transaction succeeds.
func (c *Call) Install(addr common.Address, contract *Contract) {
	if c.created == nil {
		c.created = make(map[common.Address]*Contract)
	}
	c.created[addr] = contract
}

// RevertError mimics the error geth returns for a reverted call.
type RevertError struct {
	Reason string
}

// Revert fails the current call with [reason].
func Revert(reason string) error { return &RevertError{Reason: reason} }

func (e *RevertError) Error() string { return "execution reverted: " + e.Reason }

// ErrorData implements rpc.DataError.
func (e *RevertError) ErrorData() interface{} { return hexutil.Encode(RevertData(e.Reason)) }

// RevertData is the ABI encoding of Error([reason]).
func RevertData(reason string) []byte {
	stringType, _ := abi.NewType("string", "", nil)
	packed, _ := abi.Arguments{{Type: stringType}}.Pack(reason)
	return append(append([]byte{}, errorSelector...), packed...)
}

type deployable struct {
	code    []byte
	abi     abi.ABI
	factory Factory
}

// Backend is an in-memory chain.
type Backend struct {
	lock sync.Mutex

	chainID *big.Int
	signer  types.Signer

	block     uint64
	now       uint64
	nonces    map[common.Address]uint64
	balances  map[common.Address]*big.Int
	contracts map[common.Address]*Contract
	deploys   []deployable
	receipts  map[common.Hash]*types.Receipt
	logs      []types.Log

	snapshots []string
	nextID    uint64
	// RevertErr, when set, fails every Revert.
	RevertErr error
	Reverted  []string
}

// NewBackend returns an empty chain with id [chainID].
func NewBackend(chainID int64) *Backend {
	id := big.NewInt(chainID)
	return &Backend{
		chainID:   id,
		signer:    types.LatestSignerForChainID(id),
		now:       StartTime,
		nonces:    make(map[common.Address]uint64),
		balances:  make(map[common.Address]*big.Int),
		contracts: make(map[common.Address]*Contract),
		receipts:  make(map[common.Hash]*types.Receipt),
	}
}

// Install places [c] at [addr] without a transaction.
func (b *Backend) Install(addr common.Address, c *Contract) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if len(c.code) == 0 {
		c.code = deployedPlaceholder
	}
	b.contracts[addr] = c
}

// OnDeploy registers the factory run when a creation transaction starts with
// [code]. [parsed] decodes the constructor arguments.
func (b *Backend) OnDeploy(code []byte, parsed abi.ABI, f Factory) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.deploys = append(b.deploys, deployable{code: code, abi: parsed, factory: f})
}

// SetBalance sets the native balance of [addr].
func (b *Backend) SetBalance(addr common.Address, amount *big.Int) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.balances[addr] = new(big.Int).Set(amount)
}

// BlockNumber is the height of the last mined block.
func (b *Backend) BlockNumber() uint64 {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.block
}

// Now is the timestamp the next block gets.
func (b *Backend) Now() uint64 {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.now
}

func (b *Backend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.chainID), nil
}

func (b *Backend) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if bal, ok := b.balances[account]; ok {
		return new(big.Int).Set(bal), nil
	}
	return new(big.Int), nil
}

func (b *Backend) CodeAt(_ context.Context, contract common.Address, _ *big.Int) ([]byte, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if c, ok := b.contracts[contract]; ok {
		return c.code, nil
	}
	return nil, nil
}

func (b *Backend) PendingCodeAt(ctx context.Context, contract common.Address) ([]byte, error) {
	return b.CodeAt(ctx, contract, nil)
}

func (b *Backend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if msg.To == nil {
		return nil, errors.New("call without destination")
	}
	c, ok := b.contracts[*msg.To]
	if !ok {
		return nil, nil
	}
	out, _, err := b.invoke(c, msg.From, *msg.To, msg.Value, msg.Data, true)
	return out, err
}

func (b *Backend) HeaderByNumber(_ context.Context, number *big.Int) (*types.Header, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	n := new(big.Int).SetUint64(b.block)
	if number != nil && number.Cmp(n) < 0 {
		n = new(big.Int).Set(number)
	}
	// no BaseFee: bind builds legacy transactions
	return &types.Header{Number: n, Time: b.now}, nil
}

func (b *Backend) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.nonces[account], nil
}

func (b *Backend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return new(big.Int).Set(defaultGasPrice), nil
}

func (b *Backend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return new(big.Int).Set(defaultGasPrice), nil
}

// EstimateGas does not execute the call: failures surface as failed receipts.
func (b *Backend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return GasLimit, nil
}

func (b *Backend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	from, err := types.Sender(b.signer, tx)
	if err != nil {
		return err
	}
	if nonce := b.nonces[from]; tx.Nonce() != nonce {
		return fmt.Errorf("%w: have %d, want %d", ErrBadNonce, tx.Nonce(), nonce)
	}
	b.nonces[from]++
	b.block++
	b.now++

	receipt := &types.Receipt{
		Type:              tx.Type(),
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: GasLimit,
		GasUsed:           GasLimit,
		TxHash:            tx.Hash(),
		BlockNumber:       new(big.Int).SetUint64(b.block),
		BlockHash:         common.BigToHash(new(big.Int).SetUint64(b.block)),
	}

	var logs []*types.Log
	if tx.To() == nil {
		addr := crypto.CreateAddress(from, tx.Nonce())
		c, err := b.create(from, addr, tx.Value(), tx.Data())
		if err != nil {
			receipt.Status = types.ReceiptStatusFailed
		} else {
			b.contracts[addr] = c
			receipt.ContractAddress = addr
		}
	} else {
		to := *tx.To()
		if c, ok := b.contracts[to]; ok && len(tx.Data()) > 0 {
			_, emitted, err := b.invoke(c, from, to, tx.Value(), tx.Data(), false)
			if err != nil {
				receipt.Status = types.ReceiptStatusFailed
			}
			logs = emitted
		} else {
			// plain transfers always succeed
			b.credit(to, tx.Value())
		}
	}

	if receipt.Status == types.ReceiptStatusSuccessful {
		for i, l := range logs {
			l.TxHash = tx.Hash()
			l.BlockNumber = b.block
			l.BlockHash = receipt.BlockHash
			l.Index = uint(i)
			receipt.Logs = append(receipt.Logs, l)
			b.logs = append(b.logs, *l)
		}
	}
	b.receipts[tx.Hash()] = receipt
	return nil
}

func (b *Backend) TransactionReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	r, ok := b.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (b *Backend) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	var out []types.Log
	for _, l := range b.logs {
		if q.FromBlock != nil && l.BlockNumber < q.FromBlock.Uint64() {
			continue
		}
		if q.ToBlock != nil && l.BlockNumber > q.ToBlock.Uint64() {
			continue
		}
		if len(q.Addresses) > 0 && !containsAddress(q.Addresses, l.Address) {
			continue
		}
		if len(q.Topics) > 0 && len(q.Topics[0]) > 0 && !containsHash(q.Topics[0], l.Topics[0]) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (b *Backend) SubscribeFilterLogs(context.Context, ethereum.FilterQuery, chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errNoSubscriptions
}

func (b *Backend) Snapshot(context.Context) (string, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.nextID++
	id := hexutil.EncodeUint64(b.nextID)
	b.snapshots = append(b.snapshots, id)
	return id, nil
}

// Revert drops [id] and every later snapshot. Contract state held by the
// handlers is not rolled back.
func (b *Backend) Revert(_ context.Context, id string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.RevertErr != nil {
		return b.RevertErr
	}
	for i, s := range b.snapshots {
		if s == id {
			b.snapshots = b.snapshots[:i]
			b.Reverted = append(b.Reverted, id)
			return nil
		}
	}
	return fmt.Errorf("%w %s", ErrUnknownSnapshot, id)
}

func (b *Backend) SetTime(_ context.Context, unix uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.now = unix
	b.block++
	return nil
}

func (b *Backend) IncreaseTime(_ context.Context, d time.Duration) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.now += uint64(d / time.Second)
	b.block++
	return nil
}

func (b *Backend) Mine(context.Context) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.block++
	return nil
}

func (b *Backend) credit(addr common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() == 0 {
		return
	}
	bal, ok := b.balances[addr]
	if !ok {
		bal = new(big.Int)
	}
	b.balances[addr] = new(big.Int).Add(bal, amount)
}

func (b *Backend) copyBalances() map[common.Address]*big.Int {
	saved := make(map[common.Address]*big.Int, len(b.balances))
	for addr, bal := range b.balances {
		saved[addr] = new(big.Int).Set(bal)
	}
	return saved
}

func (b *Backend) create(from, addr common.Address, value *big.Int, data []byte) (*Contract, error) {
	for _, d := range b.deploys {
		if !bytes.HasPrefix(data, d.code) {
			continue
		}
		args, err := d.abi.Constructor.Inputs.Unpack(data[len(d.code):])
		if err != nil {
			return nil, err
		}
		c, err := d.factory(&Call{
			From:  from,
			To:    addr,
			Value: value,
			Args:  args,
			Time:  b.now,
			abi:   d.abi,
		})
		if err != nil {
			return nil, err
		}
		c.code = d.code
		return c, nil
	}
	return nil, ErrNoDeployHandler
}

func (b *Backend) invoke(c *Contract, from, to common.Address, value *big.Int, data []byte, static bool) ([]byte, []*types.Log, error) {
	if len(data) < 4 {
		return nil, nil, errors.New("calldata too short")
	}
	method, err := c.ABI.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, err
	}
	fn, ok := c.Methods[method.Name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotImplemented, method.Name)
	}
	if value == nil {
		value = new(big.Int)
	}

	var saved map[common.Address]*big.Int
	if !static {
		saved = b.copyBalances()
		b.credit(to, value)
	}
	call := &Call{
		From:     from,
		To:       to,
		Value:    value,
		Method:   method.Name,
		Args:     args,
		Static:   static,
		Time:     b.now,
		abi:      c.ABI,
		balances: b.balances,
	}
	packed, err := b.call(fn, call, *method)
	if err != nil {
		if !static {
			b.balances = saved
		}
		return nil, nil, err
	}
	if !static {
		for addr, created := range call.created {
			if len(created.code) == 0 {
				created.code = deployedPlaceholder
			}
			b.contracts[addr] = created
		}
	}
	return packed, call.logs, nil
}

func (b *Backend) call(fn Method, call *Call, method abi.Method) ([]byte, error) {
	out, err := fn(call)
	if err != nil {
		return nil, err
	}
	packed, err := method.Outputs.Pack(out...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s outputs: %w", method.Name, err)
	}
	return packed, nil
}

func containsAddress(list []common.Address, a common.Address) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}

func containsHash(list []common.Hash, h common.Hash) bool {
	for _, x := range list {
		if x == h {
			return true
		}
	}
	return false
}
