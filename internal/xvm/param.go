package xvm

// Param encodes v in the daemon's typed form, suitable as a contract storage
// key or an invocation parameter. Primitives are wrapped as default values and
// hashes, addresses and public keys as opaque values.
func Param(v Value) any {
	switch t := v.(type) {
	case nil:
		return nil
	case HashValue, AddressValue, PublicKeyValue:
		return typed(typeDefault, typed(typeOpaque, typed(t.TypeName(), scalarJSON(t))))
	case BoolValue, U8Value, U16Value, U32Value, U64Value, I32Value, I64Value, BigUintValue, StringValue:
		return typed(typeDefault, typed(t.TypeName(), scalarJSON(t)))
	case ArrayValue:
		return typed(TypeArray, paramList(t.Items))
	case ObjectValue:
		return typed(TypeObject, paramList(t.Fields))
	case OptionValue:
		return typed(TypeOption, Param(t.Some))
	case ResultValue:
		return typed(TypeResult, map[string]any{"ok": t.Ok, "value": Param(t.Value)})
	case MapValue:
		pairs := make([]any, len(t.Entries))
		for i, e := range t.Entries {
			pairs[i] = []any{Param(e.Key), Param(e.Value)}
		}
		return typed(TypeMap, pairs)
	case RecordValue:
		out := make(map[string]any, len(t.Fields))
		for _, f := range t.Fields {
			out[f.Name] = Param(f.Value)
		}
		return out
	case LiteralValue:
		return t.Raw
	case UnknownValue:
		return typed(t.Type, t.Raw)
	default:
		return nil
	}
}

// HashParam is Param(HashValue(hash)).
func HashParam(hash string) any {
	return Param(HashValue(hash))
}

// U64Param is Param(U64Value(n)).
func U64Param(n uint64) any {
	return Param(U64Value(n))
}

func typed(typ string, value any) map[string]any {
	return map[string]any{"type": typ, "value": value}
}

func paramList(items []Value) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = Param(item)
	}
	return out
}
