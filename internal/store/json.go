package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorrupt reports a slot whose blob could not be decoded.
var ErrCorrupt = errors.New("corrupt slot")

// LoadJSON decodes the slot into v. found is false for an empty slot.
// Decode failures wrap ErrCorrupt.
func LoadJSON(kv KV, key string, v any) (found bool, err error) {
	data, ok, err := kv.Get(key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("decode %q: %w: %v", key, ErrCorrupt, err)
	}
	return true, nil
}

// SaveJSON overwrites the slot with the JSON encoding of v.
func SaveJSON(kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return kv.Set(key, data)
}
