package interp

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// FromGo converts decoded JSON or YAML data into interpreter values. json.Number
// literals with a fraction or exponent become floats, the rest ints. Map keys are
// inserted in sorted order.
func FromGo(v interface{}) (Value, error) {
	switch x := v.(type) {
	case nil:
		return None, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(x), nil
	case int64:
		return Int(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d exceeds 64 bits", x)
		}
		return Int(x), nil
	case float64:
		return Float(x), nil
	case json.Number:
		s := string(x)
		if !strings.ContainsAny(s, ".eE") {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("integer %s: %w", s, err)
			}
			return Int(n), nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("float %s: %w", s, err)
		}
		return Float(f), nil
	case string:
		return Str(x), nil
	case []interface{}:
		items := make([]Value, len(x))
		for i, it := range x {
			v, err := FromGo(it)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return NewList(items...), nil
	case map[string]interface{}:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := NewDict()
		for _, k := range keys {
			v, err := FromGo(x[k])
			if err != nil {
				return nil, err
			}
			_ = d.Set(Str(k), v)
		}
		return d, nil
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = v
		}
		return FromGo(m)
	}
	return nil, fmt.Errorf("unsupported input type %T", v)
}
