// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"github.com/ava-labs/avalanchego/codec"
	"github.com/ava-labs/avalanchego/codec/linearcodec"
)

// CodecVersion prefixes every stored record.
const CodecVersion = 0

// Codec serializes deployment records.
var Codec = newCodec()

func newCodec() codec.Manager {
	c := linearcodec.NewDefault()
	if err := c.RegisterType(&Deployment{}); err != nil {
		panic(err)
	}
	m := codec.NewDefaultManager()
	if err := m.RegisterCodec(CodecVersion, c); err != nil {
		panic(err)
	}
	return m
}
