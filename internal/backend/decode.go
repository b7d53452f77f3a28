package backend

import (
	"bytes"
	"encoding/json"
)

// The backend wraps responses inconsistently: bare values, {"data": ...},
// or a resource-named key. These helpers peel one layer when present.

// unwrapObject returns the first object found under keys, or raw itself.
func unwrapObject(raw json.RawMessage, keys ...string) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return raw
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return raw
	}
	for _, key := range keys {
		if v, ok := fields[key]; ok {
			v = bytes.TrimSpace(v)
			if len(v) > 0 && v[0] == '{' {
				return v
			}
		}
	}
	return raw
}

// decodeList reads a list from a bare array or from the first array found
// under keys. Elements that do not decode are skipped and a malformed
// payload yields an empty list.
func decodeList[T any](raw json.RawMessage, keys ...string) []T {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []T{}
	}
	var items []json.RawMessage
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &items); err != nil {
			return []T{}
		}
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return []T{}
		}
		for _, key := range keys {
			v, ok := fields[key]
			if !ok {
				continue
			}
			v = bytes.TrimSpace(v)
			if len(v) > 0 && v[0] == '[' && json.Unmarshal(v, &items) == nil {
				break
			}
			items = nil
		}
	default:
		return []T{}
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
