package xvm

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Balance is one entry of a Hash -> amount map.
type Balance struct {
	Asset  string
	Amount *uint256.Int
}

// IsBalanceMap reports whether m maps hashes to unsigned amounts.
func IsBalanceMap(m MapValue) bool {
	if m.KeyType != TypeHash {
		return false
	}
	switch m.ValueType {
	case TypeU64, TypeU128, TypeU256:
	default:
		return false
	}
	for _, e := range m.Entries {
		if _, ok := e.Key.(HashValue); !ok {
			return false
		}
		if _, ok := Amount(e.Value); !ok {
			return false
		}
	}
	return true
}

// Balances returns the entries of a balance map in wire order.
func Balances(m MapValue) ([]Balance, error) {
	if !IsBalanceMap(m) {
		return nil, fmt.Errorf("not a balance map: %s -> %s", m.KeyType, m.ValueType)
	}
	out := make([]Balance, len(m.Entries))
	for i, e := range m.Entries {
		amount, _ := Amount(e.Value)
		out[i] = Balance{Asset: string(e.Key.(HashValue)), Amount: amount}
	}
	return out, nil
}

// ReserveMap reads the router's per-pool storage value, an object of
// [version, map] whose map holds the two pool reserves.
func ReserveMap(v Value) ([]Balance, error) {
	obj, ok := v.(ObjectValue)
	if !ok {
		return nil, fmt.Errorf("reserve value is %s, want object", typeNameOf(v))
	}
	if len(obj.Fields) != 2 {
		return nil, fmt.Errorf("reserve object has %d fields, want 2", len(obj.Fields))
	}
	m, ok := obj.Fields[1].(MapValue)
	if !ok {
		return nil, fmt.Errorf("reserve field is %s, want map", typeNameOf(obj.Fields[1]))
	}
	return Balances(m)
}

// Amount converts an unsigned integer value to a uint256.
func Amount(v Value) (*uint256.Int, bool) {
	switch t := v.(type) {
	case U64Value:
		return uint256.NewInt(uint64(t)), true
	case U32Value:
		return uint256.NewInt(uint64(t)), true
	case U16Value:
		return uint256.NewInt(uint64(t)), true
	case U8Value:
		return uint256.NewInt(uint64(t)), true
	case BigUintValue:
		if t.Int == nil {
			return nil, false
		}
		return new(uint256.Int).Set(t.Int), true
	default:
		return nil, false
	}
}

func typeNameOf(v Value) string {
	if v == nil {
		return "nil"
	}
	return v.TypeName()
}
