// Package xvm decodes the typed value trees returned by the XELIS daemon for
// contract storage and encodes values back into contract parameters.
//
// The daemon nests values as {"type": T, "value": V}. The wrapper types
// default, opaque and primitive carry no meaning of their own and are
// flattened during decoding.
package xvm

import (
	"github.com/holiman/uint256"
)

// Type names used on the wire.
const (
	TypeBool      = "bool"
	TypeU8        = "u8"
	TypeU16       = "u16"
	TypeU32       = "u32"
	TypeU64       = "u64"
	TypeU128      = "u128"
	TypeU256      = "u256"
	TypeI32       = "i32"
	TypeI64       = "i64"
	TypeString    = "string"
	TypeHash      = "Hash"
	TypeAddress   = "Address"
	TypePublicKey = "PublicKey"
	TypeArray     = "array"
	TypeObject    = "object"
	TypeOption    = "option"
	TypeResult    = "result"
	TypeMap       = "map"

	typeDefault   = "default"
	typeOpaque    = "opaque"
	typePrimitive = "primitive"
)

// Value is a decoded contract value. The concrete types below are the only
// implementations.
type Value interface {
	TypeName() string
	isValue()
}

type BoolValue bool

type U8Value uint8

type U16Value uint16

type U32Value uint32

type U64Value uint64

type I32Value int32

type I64Value int64

// BigUintValue holds u128 and u256 values.
type BigUintValue struct {
	Type string
	Int  *uint256.Int
}

type StringValue string

type HashValue string

type AddressValue string

type PublicKeyValue string

// ArrayValue is a typed array, or a bare JSON array when Untyped is set.
type ArrayValue struct {
	Items   []Value
	Untyped bool
}

// ObjectValue is a positional struct; fields have no names on the wire.
type ObjectValue struct {
	Fields []Value
}

// OptionValue is None when Some is nil.
type OptionValue struct {
	Some Value
}

type ResultValue struct {
	Ok    bool
	Value Value
}

type MapEntry struct {
	Key   Value
	Value Value
}

// MapValue keeps entries in wire order. KeyType and ValueType are taken from
// the first entry, "unknown" for an empty map.
type MapValue struct {
	KeyType   string
	ValueType string
	Entries   []MapEntry
}

type RecordField struct {
	Name  string
	Value Value
}

// RecordValue is an untyped JSON object such as an RPC envelope.
type RecordValue struct {
	Fields []RecordField
}

// LiteralValue is an untyped JSON scalar or null, kept as decoded.
type LiteralValue struct {
	Raw any
}

// UnknownValue is a typed value whose type is not understood.
type UnknownValue struct {
	Type string
	Raw  any
}

func (BoolValue) TypeName() string      { return TypeBool }
func (U8Value) TypeName() string        { return TypeU8 }
func (U16Value) TypeName() string       { return TypeU16 }
func (U32Value) TypeName() string       { return TypeU32 }
func (U64Value) TypeName() string       { return TypeU64 }
func (I32Value) TypeName() string       { return TypeI32 }
func (I64Value) TypeName() string       { return TypeI64 }
func (v BigUintValue) TypeName() string { return v.Type }
func (StringValue) TypeName() string    { return TypeString }
func (HashValue) TypeName() string      { return TypeHash }
func (AddressValue) TypeName() string   { return TypeAddress }
func (PublicKeyValue) TypeName() string { return TypePublicKey }
func (ArrayValue) TypeName() string     { return TypeArray }
func (ObjectValue) TypeName() string    { return TypeObject }
func (OptionValue) TypeName() string    { return TypeOption }
func (ResultValue) TypeName() string    { return TypeResult }
func (MapValue) TypeName() string       { return TypeMap }
func (RecordValue) TypeName() string    { return "record" }
func (LiteralValue) TypeName() string   { return "literal" }
func (v UnknownValue) TypeName() string { return v.Type }

func (BoolValue) isValue()      {}
func (U8Value) isValue()        {}
func (U16Value) isValue()       {}
func (U32Value) isValue()       {}
func (U64Value) isValue()       {}
func (I32Value) isValue()       {}
func (I64Value) isValue()       {}
func (BigUintValue) isValue()   {}
func (StringValue) isValue()    {}
func (HashValue) isValue()      {}
func (AddressValue) isValue()   {}
func (PublicKeyValue) isValue() {}
func (ArrayValue) isValue()     {}
func (ObjectValue) isValue()    {}
func (OptionValue) isValue()    {}
func (ResultValue) isValue()    {}
func (MapValue) isValue()       {}
func (RecordValue) isValue()    {}
func (LiteralValue) isValue()   {}
func (UnknownValue) isValue()   {}

// Field returns the named field of a record.
func (r RecordValue) Field(name string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}
