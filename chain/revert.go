// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	log "github.com/inconshreveable/log15"
)

var (
	ErrTxFailed          = errors.New("transaction failed")
	ErrNoCodeAfterDeploy = errors.New("no contract code after deployment")
)

// TxFailedError is returned for a mined transaction with status 0.
type TxFailedError struct {
	Hash    common.Hash
	Receipt *types.Receipt
	// Reason is the revert string, empty when the node could not replay it.
	Reason string
}

func (e *TxFailedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s", ErrTxFailed, e.Hash.Hex())
	}
	return fmt.Sprintf("%s: %s: %s", ErrTxFailed, e.Hash.Hex(), e.Reason)
}

func (e *TxFailedError) Unwrap() error { return ErrTxFailed }

// Node error messages carrying a revert string, in the formats of geth,
// Hardhat and Ganache.
var revertPatterns = []*regexp.Regexp{
	regexp.MustCompile(`reverted with reason string '(.*)'`),
	regexp.MustCompile(`execution reverted: (.*)`),
	regexp.MustCompile(`VM Exception while processing transaction: revert (.*)`),
}

// RevertReason extracts the revert string from [err]. It understands failed
// receipts, rpc errors carrying ABI encoded Error(string) data and the
// plain-text messages nodes return when the data was dropped on the way
// (bind formats some errors with %v).
func RevertReason(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var failed *TxFailedError
	if errors.As(err, &failed) && failed.Reason != "" {
		return failed.Reason, true
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if reason, ok := unpackRevertData(dataErr.ErrorData()); ok {
			return reason, true
		}
	}

	msg := err.Error()
	for _, re := range revertPatterns {
		if m := re.FindStringSubmatch(msg); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

// IsRevert reports whether [err] is a revert with exactly [reason].
func IsRevert(err error, reason string) bool {
	got, ok := RevertReason(err)
	return ok && got == reason
}

func unpackRevertData(data interface{}) (string, bool) {
	var encoded string
	switch d := data.(type) {
	case string:
		encoded = d
	case map[string]interface{}:
		// older Hardhat nodes nest the payload
		s, ok := d["data"].(string)
		if !ok {
			return "", false
		}
		encoded = s
	default:
		return "", false
	}
	raw, err := hexutil.Decode(encoded)
	if err != nil {
		return "", false
	}
	reason, err := abi.UnpackRevert(raw)
	if err != nil {
		return "", false
	}
	return reason, true
}

// WaitMined waits for [tx] and turns a failed receipt into a TxFailedError.
// The revert reason is recovered by replaying the transaction as a call on
// the parent block.
func WaitMined(ctx context.Context, b Backend, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, b, tx)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		return receipt, nil
	}

	failed := &TxFailedError{Hash: tx.Hash(), Receipt: receipt}
	failed.Reason = replay(ctx, b, tx, receipt)
	return receipt, failed
}

// WaitDeployed waits for a contract creation and checks code was stored.
func WaitDeployed(ctx context.Context, b Backend, tx *types.Transaction) (*types.Receipt, error) {
	if tx.To() != nil {
		return nil, errors.New("transaction is not a contract creation")
	}
	receipt, err := WaitMined(ctx, b, tx)
	if err != nil {
		return receipt, err
	}
	code, err := b.CodeAt(ctx, receipt.ContractAddress, nil)
	if err != nil {
		return receipt, err
	}
	if len(code) == 0 {
		return receipt, fmt.Errorf("%w at %s", ErrNoCodeAfterDeploy, receipt.ContractAddress.Hex())
	}
	return receipt, nil
}

func replay(ctx context.Context, b Backend, tx *types.Transaction, receipt *types.Receipt) string {
	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return ""
	}
	var block *big.Int
	if receipt.BlockNumber != nil && receipt.BlockNumber.Sign() > 0 {
		block = new(big.Int).Sub(receipt.BlockNumber, common.Big1)
	}
	_, callErr := b.CallContract(ctx, ethereum.CallMsg{
		From:     from,
		To:       tx.To(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
		Value:    tx.Value(),
		Data:     tx.Data(),
	}, block)
	reason, ok := RevertReason(callErr)
	if !ok {
		log.Debug("could not recover revert reason", "tx", tx.Hash(), "err", callErr)
	}
	return reason
}
