package ledger

import (
	"fmt"

	"github.com/stellar/go/xdr"
)

// scToNative converts the subset of ScVal shapes the registry contract
// returns into plain Go values: symbols/strings/addresses become strings,
// vecs become []any, maps with symbol or string keys become map[string]any.
func scToNative(v xdr.ScVal) (any, error) {
	switch v.Type {
	case xdr.ScValTypeScvVoid:
		return nil, nil

	case xdr.ScValTypeScvBool:
		if v.B == nil {
			return false, nil
		}
		return *v.B, nil

	case xdr.ScValTypeScvU32:
		if v.U32 == nil {
			return uint32(0), nil
		}
		return uint32(*v.U32), nil

	case xdr.ScValTypeScvI32:
		if v.I32 == nil {
			return int32(0), nil
		}
		return int32(*v.I32), nil

	case xdr.ScValTypeScvU64:
		if v.U64 == nil {
			return uint64(0), nil
		}
		return uint64(*v.U64), nil

	case xdr.ScValTypeScvI64:
		if v.I64 == nil {
			return int64(0), nil
		}
		return int64(*v.I64), nil

	case xdr.ScValTypeScvSymbol:
		if v.Sym == nil {
			return "", nil
		}
		return string(*v.Sym), nil

	case xdr.ScValTypeScvString:
		if v.Str == nil {
			return "", nil
		}
		return string(*v.Str), nil

	case xdr.ScValTypeScvAddress:
		if v.Address == nil {
			return "", nil
		}
		return v.Address.String()

	case xdr.ScValTypeScvVec:
		if v.Vec == nil || *v.Vec == nil {
			return []any(nil), nil
		}

		items := make([]any, 0, len(**v.Vec))
		for _, item := range **v.Vec {
			native, err := scToNative(item)
			if err != nil {
				return nil, err
			}
			items = append(items, native)
		}
		return items, nil

	case xdr.ScValTypeScvMap:
		if v.Map == nil || *v.Map == nil {
			return map[string]any(nil), nil
		}

		fields := make(map[string]any, len(**v.Map))
		for _, entry := range **v.Map {
			key, err := scToNative(entry.Key)
			if err != nil {
				return nil, err
			}

			name, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("unsupported map key type %s", entry.Key.Type)
			}

			value, err := scToNative(entry.Val)
			if err != nil {
				return nil, err
			}

			fields[name] = value
		}
		return fields, nil

	default:
		return nil, fmt.Errorf("unsupported scval type %s", v.Type)
	}
}
