package xvm

import (
	"encoding/json"
	"strconv"
)

// Decoder renders decoded values as plain JSON trees. With PreserveTypes each
// value outside a map keeps a {type, value} wrapper and maps become
// {type: "map", mapTypes: [key, value], value}; values nested in a map are
// always plain.
type Decoder struct {
	PreserveTypes bool
}

// Decode parses a JSON document and renders it.
func (dc Decoder) Decode(data []byte) (any, Metadata, error) {
	v, meta, err := Parse(data)
	if err != nil {
		return nil, meta, err
	}
	return dc.Render(v), meta, nil
}

func (dc Decoder) Render(v Value) any {
	return dc.render(v, false)
}

func (dc Decoder) render(v Value, inMap bool) any {
	wrap := func(typ string, value any) any {
		if dc.PreserveTypes && !inMap {
			return map[string]any{"type": typ, "value": value}
		}
		return value
	}

	switch t := v.(type) {
	case nil:
		return nil
	case LiteralValue:
		return t.Raw
	case RecordValue:
		out := make(map[string]any, len(t.Fields))
		for _, f := range t.Fields {
			out[f.Name] = dc.render(f.Value, inMap)
		}
		return out
	case ArrayValue:
		items := dc.renderList(t.Items, inMap)
		if t.Untyped {
			return items
		}
		return wrap(TypeArray, items)
	case ObjectValue:
		return wrap(TypeObject, dc.renderList(t.Fields, inMap))
	case OptionValue:
		if t.Some == nil {
			return wrap(TypeOption, nil)
		}
		return wrap(TypeOption, dc.render(t.Some, inMap))
	case ResultValue:
		return wrap(TypeResult, map[string]any{"ok": t.Ok, "value": dc.render(t.Value, inMap)})
	case MapValue:
		entries := make(map[string]any, len(t.Entries))
		for _, e := range t.Entries {
			entries[KeyString(e.Key)] = dc.render(e.Value, true)
		}
		if dc.PreserveTypes {
			return map[string]any{
				"type":     TypeMap,
				"mapTypes": []string{t.KeyType, t.ValueType},
				"value":    entries,
			}
		}
		return entries
	case UnknownValue:
		return wrap(t.Type, t.Raw)
	default:
		return wrap(v.TypeName(), scalarJSON(v))
	}
}

func (dc Decoder) renderList(items []Value, inMap bool) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = dc.render(item, inMap)
	}
	return out
}

// scalarJSON renders integers as json.Number so 64-bit and wider values keep
// every digit.
func scalarJSON(v Value) any {
	switch t := v.(type) {
	case BoolValue:
		return bool(t)
	case U8Value:
		return json.Number(strconv.FormatUint(uint64(t), 10))
	case U16Value:
		return json.Number(strconv.FormatUint(uint64(t), 10))
	case U32Value:
		return json.Number(strconv.FormatUint(uint64(t), 10))
	case U64Value:
		return json.Number(strconv.FormatUint(uint64(t), 10))
	case I32Value:
		return json.Number(strconv.FormatInt(int64(t), 10))
	case I64Value:
		return json.Number(strconv.FormatInt(int64(t), 10))
	case BigUintValue:
		if t.Int == nil {
			return json.Number("0")
		}
		return json.Number(t.Int.Dec())
	case StringValue:
		return string(t)
	case HashValue:
		return string(t)
	case AddressValue:
		return string(t)
	case PublicKeyValue:
		return string(t)
	default:
		return nil
	}
}

// KeyString is the object key used for a map key when rendering.
func KeyString(v Value) string {
	switch t := scalarJSON(v).(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	if lit, ok := v.(LiteralValue); ok {
		switch raw := lit.Raw.(type) {
		case string:
			return raw
		case json.Number:
			return raw.String()
		}
	}
	if unk, ok := v.(UnknownValue); ok {
		if s, ok := unk.Raw.(string); ok {
			return s
		}
	}
	return ""
}
