package xvm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

const unknownType = "unknown"

// Metadata collects what a decode could not fully understand. Decoding never
// stops early; problems are recorded here instead.
type Metadata struct {
	UnknownTypes []string    `json:"unknownTypes,omitempty"`
	Errors       []PathError `json:"errors,omitempty"`
}

type PathError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (m Metadata) Empty() bool {
	return len(m.UnknownTypes) == 0 && len(m.Errors) == 0
}

// Parse decodes a JSON document into a Value. Only malformed JSON is an error.
func Parse(data []byte) (Value, Metadata, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, Metadata{}, fmt.Errorf("parse typed value: %w", err)
	}
	v, meta := Decode(raw)
	return v, meta, nil
}

// Decode converts an already unmarshaled JSON tree. Numbers should be
// json.Number or strings to keep 64-bit and wider integers exact.
func Decode(raw any, path ...string) (Value, Metadata) {
	d := &decoder{seen: make(map[string]bool)}
	v := d.value(raw, path)
	return v, d.meta
}

type decoder struct {
	meta Metadata
	seen map[string]bool
}

func (d *decoder) fail(path []string, format string, args ...any) {
	d.meta.Errors = append(d.meta.Errors, PathError{
		Path:    strings.Join(path, "."),
		Message: fmt.Sprintf(format, args...),
	})
}

func (d *decoder) unknown(typ string) {
	if d.seen[typ] {
		return
	}
	d.seen[typ] = true
	d.meta.UnknownTypes = append(d.meta.UnknownTypes, typ)
}

func (d *decoder) value(raw any, path []string) Value {
	switch v := raw.(type) {
	case nil:
		return LiteralValue{}
	case []any:
		return ArrayValue{Items: d.list(v, path), Untyped: true}
	case map[string]any:
		typ, inner, ok := typedNode(v)
		if !ok {
			return d.record(v, path)
		}
		return d.typed(typ, inner, v, path)
	default:
		return LiteralValue{Raw: v}
	}
}

func (d *decoder) typed(typ string, inner any, node map[string]any, path []string) Value {
	switch typ {
	case typeDefault, typeOpaque, typePrimitive:
		return d.value(inner, path)
	case TypeMap:
		return d.mapValue(inner, path)
	case TypeArray:
		items, ok := inner.([]any)
		if !ok {
			d.fail(path, "array value is %T, want list", inner)
			return LiteralValue{Raw: inner}
		}
		return ArrayValue{Items: d.list(items, path)}
	case TypeObject:
		fields, ok := inner.([]any)
		if !ok {
			d.fail(path, "object value is %T, want list", inner)
			return LiteralValue{Raw: inner}
		}
		return ObjectValue{Fields: d.list(fields, path)}
	case TypeOption:
		if inner == nil {
			return OptionValue{}
		}
		return OptionValue{Some: d.value(inner, path)}
	case TypeResult:
		res, ok := inner.(map[string]any)
		if !ok {
			d.fail(path, "result value is %T, want object", inner)
			return LiteralValue{Raw: inner}
		}
		okFlag, _ := res["ok"].(bool)
		return ResultValue{Ok: okFlag, Value: d.value(res["value"], path)}
	default:
		return d.scalar(node, path)
	}
}

func (d *decoder) list(items []any, path []string) []Value {
	out := make([]Value, len(items))
	for i, item := range items {
		out[i] = d.value(item, appendPath(path, fmt.Sprintf("[%d]", i)))
	}
	return out
}

func (d *decoder) record(obj map[string]any, path []string) Value {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]RecordField, len(keys))
	for i, k := range keys {
		fields[i] = RecordField{Name: k, Value: d.value(obj[k], appendPath(path, k))}
	}
	return RecordValue{Fields: fields}
}

func (d *decoder) mapValue(inner any, path []string) Value {
	out := MapValue{KeyType: unknownType, ValueType: unknownType}
	pairs, ok := inner.([]any)
	if !ok {
		d.fail(path, "map value is %T, want list of pairs", inner)
		return out
	}

	keyPath := appendPath(path, "key")
	valuePath := appendPath(path, "value")
	for i, p := range pairs {
		pair, ok := p.([]any)
		if !ok || len(pair) != 2 {
			d.fail(path, "map entry %d is not a [key, value] pair", i)
			continue
		}
		if len(out.Entries) == 0 {
			out.KeyType, _ = deepType(pair[0])
			out.ValueType, _ = deepType(pair[1])
		}
		out.Entries = append(out.Entries, MapEntry{
			Key:   d.scalar(pair[0], keyPath),
			Value: d.value(pair[1], valuePath),
		})
	}
	return out
}

// scalar unwraps every nested {type, value} layer and converts the innermost
// value according to the innermost type.
func (d *decoder) scalar(raw any, path []string) Value {
	typ, v := deepType(raw)
	if typ == "" {
		return LiteralValue{Raw: v}
	}
	out, err := convert(typ, v)
	if err != nil {
		d.fail(path, "%s: %v", typ, err)
		return LiteralValue{Raw: v}
	}
	if out == nil {
		d.unknown(typ)
		return UnknownValue{Type: typ, Raw: v}
	}
	return out
}

func typedNode(obj map[string]any) (string, any, bool) {
	typ, ok := obj["type"].(string)
	if !ok {
		return "", nil, false
	}
	inner, ok := obj["value"]
	if !ok {
		return "", nil, false
	}
	return typ, inner, true
}

func deepType(raw any) (string, any) {
	typ := ""
	cur := raw
	for {
		obj, ok := cur.(map[string]any)
		if !ok {
			return typ, cur
		}
		t, inner, ok := typedNode(obj)
		if !ok {
			return typ, cur
		}
		typ, cur = t, inner
	}
}

// convert returns a nil Value for types it does not know.
func convert(typ string, v any) (Value, error) {
	switch typ {
	case TypeBool:
		switch b := v.(type) {
		case bool:
			return BoolValue(b), nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return nil, err
			}
			return BoolValue(parsed), nil
		default:
			return nil, fmt.Errorf("unexpected %T", v)
		}
	case TypeU8, TypeU16, TypeU32, TypeU64:
		text, err := numberText(v)
		if err != nil {
			return nil, err
		}
		bits := map[string]int{TypeU8: 8, TypeU16: 16, TypeU32: 32, TypeU64: 64}[typ]
		n, err := strconv.ParseUint(text, 10, bits)
		if err != nil {
			return nil, err
		}
		switch typ {
		case TypeU8:
			return U8Value(n), nil
		case TypeU16:
			return U16Value(n), nil
		case TypeU32:
			return U32Value(n), nil
		default:
			return U64Value(n), nil
		}
	case TypeI32, TypeI64:
		text, err := numberText(v)
		if err != nil {
			return nil, err
		}
		if typ == TypeI32 {
			n, err := strconv.ParseInt(text, 10, 32)
			if err != nil {
				return nil, err
			}
			return I32Value(n), nil
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, err
		}
		return I64Value(n), nil
	case TypeU128, TypeU256:
		text, err := numberText(v)
		if err != nil {
			return nil, err
		}
		n, err := uint256.FromDecimal(text)
		if err != nil {
			return nil, err
		}
		if typ == TypeU128 && n.BitLen() > 128 {
			return nil, fmt.Errorf("%s overflows 128 bits", text)
		}
		return BigUintValue{Type: typ, Int: n}, nil
	case TypeString, TypeHash, TypeAddress, TypePublicKey:
		text, err := scalarText(v)
		if err != nil {
			return nil, err
		}
		switch typ {
		case TypeHash:
			return HashValue(text), nil
		case TypeAddress:
			return AddressValue(text), nil
		case TypePublicKey:
			return PublicKeyValue(text), nil
		default:
			return StringValue(text), nil
		}
	default:
		return nil, nil
	}
}

func numberText(v any) (string, error) {
	switch n := v.(type) {
	case json.Number:
		return n.String(), nil
	case string:
		return strings.TrimSpace(n), nil
	case float64:
		if n != math.Trunc(n) {
			return "", fmt.Errorf("non-integer %v", n)
		}
		return strconv.FormatFloat(n, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unexpected %T", v)
	}
}

func scalarText(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case json.Number:
		return s.String(), nil
	case bool:
		return strconv.FormatBool(s), nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unexpected %T", v)
	}
}

func appendPath(path []string, elem string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = elem
	return out
}
