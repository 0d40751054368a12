// Package identity derives the canonical string key of a run
// configuration. The key doubles as the result filename: it is a
// reversible flattened rendering of the config rather than a hash, so a
// stored result can be traced back to its parameters by reading the
// filename alone.
package identity

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jvdploeg/snncompare/internal/config"
)

// MaxKeyLength bounds the derived key. Keys are used verbatim as file
// path components, so overly long configs are rejected outright instead
// of being truncated.
const MaxKeyLength = 256

// KeyTooLongError reports a derived key exceeding MaxKeyLength.
type KeyTooLongError struct {
	Key    string
	Length int
}

func (e *KeyTooLongError) Error() string {
	return fmt.Sprintf("derived key is too long: %d characters (max %d): %s",
		e.Length, MaxKeyLength, e.Key)
}

// DeriveKey computes the canonical key for a run config. Volatile fields
// (unique ID, overwrite and export flags) are stripped first, the nested
// structure is flattened with underscore-composed keys, and the result is
// serialized as compact JSON with sorted keys. Two configs that differ
// only in volatile fields therefore derive the same key, and the key is
// stable under field reordering and re-parsing.
func DeriveKey(cfg *config.RunConfig) (string, error) {
	nested, err := asMap(cfg)
	if err != nil {
		return "", err
	}
	for _, field := range config.VolatileFields {
		delete(nested, field)
	}

	flat := Flatten(nested, "", "_")
	key, err := canonicalJSON(flat)
	if err != nil {
		return "", err
	}
	if len(key) > MaxKeyLength {
		return "", &KeyTooLongError{Key: key, Length: len(key)}
	}
	return key, nil
}

// Flatten converts a nested mapping into a single-level mapping by
// composing keys as parent_sep_child. Non-mapping values, including
// sequences, are kept intact as leaf values.
func Flatten(nested map[string]any, parentKey, sep string) map[string]any {
	flat := make(map[string]any, len(nested))
	for k, v := range nested {
		key := k
		if parentKey != "" {
			key = parentKey + sep + k
		}
		if child, ok := v.(map[string]any); ok {
			for ck, cv := range Flatten(child, key, sep) {
				flat[ck] = cv
			}
			continue
		}
		flat[key] = v
	}
	return flat
}

// asMap renders the run config as a nested map without mutating the
// caller's value.
func asMap(cfg *config.RunConfig) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("serialize run config: %w", err)
	}
	var nested map[string]any
	if err := json.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("reparse run config: %w", err)
	}
	return nested, nil
}

// canonicalJSON serializes a flat mapping with sorted keys and no
// whitespace. Quote characters are preserved so the key can be parsed
// back into a mapping during inspection.
func canonicalJSON(flat map[string]any) (string, error) {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := []byte{'{'}
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return "", fmt.Errorf("serialize key %q: %w", k, err)
		}
		value, err := json.Marshal(flat[k])
		if err != nil {
			return "", fmt.Errorf("serialize value of %q: %w", k, err)
		}
		buf = append(buf, name...)
		buf = append(buf, ':')
		buf = append(buf, value...)
	}
	buf = append(buf, '}')
	return string(buf), nil
}
