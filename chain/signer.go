// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer is an account the scripts send transactions from.
type Signer struct {
	Address common.Address

	key     *ecdsa.PrivateKey
	chainID *big.Int

	// GasPrice and GasLimit are copied into every TransactOpts. Zero values
	// leave pricing and estimation to the node.
	GasPrice *big.Int
	GasLimit uint64
}

// NewSigner parses a hex private key, with or without 0x prefix.
func NewSigner(hexKey string, chainID *big.Int) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &Signer{
		Address: crypto.PubkeyToAddress(key.PublicKey),
		key:     key,
		chainID: chainID,
	}, nil
}

// SignersFromKeys builds one signer per key, in order.
func SignersFromKeys(chainID *big.Int, gasPrice *big.Int, gasLimit uint64, keys ...string) ([]*Signer, error) {
	signers := make([]*Signer, 0, len(keys))
	for i, k := range keys {
		s, err := NewSigner(k, chainID)
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", i, err)
		}
		s.GasPrice = gasPrice
		s.GasLimit = gasLimit
		signers = append(signers, s)
	}
	return signers, nil
}

// ChainID is the chain the signer signs for.
func (s *Signer) ChainID() *big.Int { return s.chainID }

// TransactOpts returns fresh options bound to [ctx].
func (s *Signer) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, s.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	opts.GasLimit = s.GasLimit
	if s.GasPrice != nil {
		opts.GasPrice = new(big.Int).Set(s.GasPrice)
	}
	return opts, nil
}

// CallOpts returns read options that call from the signer's address.
func (s *Signer) CallOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{From: s.Address, Context: ctx}
}
