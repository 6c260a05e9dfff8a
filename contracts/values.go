// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contracts

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrArgCount     = errors.New("wrong number of arguments")
	ErrBadArgument  = errors.New("bad argument")
	ErrMissingValue = errors.New("missing value")
	ErrValueType    = errors.New("unexpected value type")

	bigIntType = reflect.TypeOf((*big.Int)(nil))
)

// CoerceArgs converts [args] to the Go types the ABI encoder expects for
// [inputs]. Integers of any Go type become the exact width the ABI declares,
// so callers don't care whether a parameter is uint8 or uint256. Addresses
// may be given as hex strings.
func CoerceArgs(inputs abi.Arguments, args []interface{}) ([]interface{}, error) {
	if len(inputs) != len(args) {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrArgCount, len(inputs), len(args))
	}
	out := make([]interface{}, len(args))
	for i, input := range inputs {
		v, err := coerce(input.Type, args[i])
		if err != nil {
			return nil, fmt.Errorf("%w %d (%s %s): %v", ErrBadArgument, i, input.Type.String(), input.Name, err)
		}
		out[i] = v
	}
	return out, nil
}

func coerce(t abi.Type, v interface{}) (interface{}, error) {
	switch t.T {
	case abi.UintTy, abi.IntTy:
		n, err := toBig(v)
		if err != nil {
			return nil, err
		}
		if err := checkRange(t, n); err != nil {
			return nil, err
		}
		target := t.GetType()
		if target == bigIntType {
			return n, nil
		}
		out := reflect.New(target).Elem()
		if t.T == abi.UintTy {
			out.SetUint(n.Uint64())
		} else {
			out.SetInt(n.Int64())
		}
		return out.Interface(), nil
	case abi.AddressTy:
		switch a := v.(type) {
		case common.Address:
			return a, nil
		case *common.Address:
			return *a, nil
		case string:
			if !common.IsHexAddress(a) {
				return nil, fmt.Errorf("%q is not an address", a)
			}
			return common.HexToAddress(a), nil
		}
		return nil, fmt.Errorf("%T is not an address", v)
	}
	return v, nil
}

func checkRange(t abi.Type, n *big.Int) error {
	if t.T == abi.UintTy {
		if n.Sign() < 0 || n.BitLen() > t.Size {
			return fmt.Errorf("%s out of range for uint%d", n, t.Size)
		}
		return nil
	}
	if n.BitLen() >= t.Size {
		return fmt.Errorf("%s out of range for int%d", n, t.Size)
	}
	return nil
}

func toBig(v interface{}) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, errors.New("nil *big.Int")
		}
		return new(big.Int).Set(n), nil
	case big.Int:
		return new(big.Int).Set(&n), nil
	case int:
		return big.NewInt(int64(n)), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case string:
		b, ok := new(big.Int).SetString(n, 0)
		if !ok {
			return nil, fmt.Errorf("%q is not a number", n)
		}
		return b, nil
	}
	return nil, fmt.Errorf("%T is not a number", v)
}

// Values are call outputs or event fields keyed by name. Every value is also
// reachable by its position ("0", "1", ...).
type Values map[string]interface{}

// NamedValues keys [out] by the names in [args].
func NamedValues(args abi.Arguments, out []interface{}) Values {
	values := make(Values, 2*len(out))
	for i, arg := range args {
		if i >= len(out) {
			break
		}
		values[strconv.Itoa(i)] = out[i]
		if arg.Name != "" {
			values[arg.Name] = out[i]
		}
		if arg.Type.T == abi.TupleTy {
			flattenTuple(values, arg.Type, out[i])
		}
	}
	return values
}

// flattenTuple copies the fields of a decoded tuple (an anonymous struct with
// camel cased field names) into [values] under their ABI names.
func flattenTuple(values Values, t abi.Type, v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return
	}
	for j, name := range t.TupleRawNames {
		f := rv.FieldByName(abi.ToCamelCase(name))
		if !f.IsValid() && j < rv.NumField() {
			f = rv.Field(j)
		}
		if f.IsValid() {
			values[name] = f.Interface()
		}
	}
}

func (v Values) get(key string) (interface{}, error) {
	val, ok := v[key]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrMissingValue, key)
	}
	return val, nil
}

// Address returns [key] as an address.
func (v Values) Address(key string) (common.Address, error) {
	val, err := v.get(key)
	if err != nil {
		return common.Address{}, err
	}
	a, ok := val.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %q is %T, not an address", ErrValueType, key, val)
	}
	return a, nil
}

// Uint returns [key] as a big integer, whatever width the ABI declared.
func (v Values) Uint(key string) (*big.Int, error) {
	val, err := v.get(key)
	if err != nil {
		return nil, err
	}
	if _, ok := val.(string); ok {
		return nil, fmt.Errorf("%w: %q is a string", ErrValueType, key)
	}
	n, err := toBig(val)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrValueType, key, err)
	}
	return n, nil
}

// Uint8 returns [key] as a uint8, failing if it does not fit.
func (v Values) Uint8(key string) (uint8, error) {
	n, err := v.Uint(key)
	if err != nil {
		return 0, err
	}
	if n.Sign() < 0 || n.BitLen() > 8 {
		return 0, fmt.Errorf("%w: %q = %s does not fit uint8", ErrValueType, key, n)
	}
	return uint8(n.Uint64()), nil
}

// Bool returns [key] as a bool.
func (v Values) Bool(key string) (bool, error) {
	val, err := v.get(key)
	if err != nil {
		return false, err
	}
	b, ok := val.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q is %T, not a bool", ErrValueType, key, val)
	}
	return b, nil
}

// First returns the first of [keys] present in [v]. Event fields are looked
// up by name, then by position, so ABIs with unnamed inputs still decode.
func (v Values) First(keys ...string) string {
	for _, k := range keys {
		if _, ok := v[k]; ok {
			return k
		}
	}
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}
