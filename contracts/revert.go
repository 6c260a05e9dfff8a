// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contracts

import "github.com/degen-vc/infinity-contracts/chain"

// RevertReason extracts the Error(string) reason of a failed call or
// transaction.
func RevertReason(err error) (string, bool) { return chain.RevertReason(err) }

// IsRevert reports whether [err] reverted with exactly [reason].
func IsRevert(err error, reason string) bool { return chain.IsRevert(err, reason) }
