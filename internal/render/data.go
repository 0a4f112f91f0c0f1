package render

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrNotObject is returned by DecodeJSON when the input is not a JSON object.
var ErrNotObject = errors.New("render data must be a JSON object")

// Data is an ordered mapping from block names to values. Keys keep the order
// in which they were first set.
type Data struct {
	keys   []string
	values map[string]Value
}

// NewData creates an empty mapping
func NewData() *Data {
	return &Data{values: make(map[string]Value)}
}

// Set binds key to v. Re-setting a key keeps its original position.
func (d *Data) Set(key string, v Value) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

// Lookup returns the value bound to key, or Missing.
func (d *Data) Lookup(key string) Value {
	if d == nil {
		return Missing()
	}
	return d.values[key]
}

// Keys returns the keys in insertion order.
func (d *Data) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, len(d.keys))
	copy(keys, d.keys)
	return keys
}

// Len returns the number of keys.
func (d *Data) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// DecodeJSON builds render data from a JSON object, keeping document key
// order. Arrays become lists; array elements that are not strings are kept
// as their JSON text. Every other value becomes a scalar.
func DecodeJSON(raw []byte) (*Data, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("invalid json")
	}

	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, ErrNotObject
	}

	data := NewData()
	root.ForEach(func(key, value gjson.Result) bool {
		if !value.IsArray() {
			data.Set(key.String(), Scalar())
			return true
		}

		elems := value.Array()
		items := make([]string, 0, len(elems))
		for _, elem := range elems {
			if elem.Type == gjson.String {
				items = append(items, elem.Str)
			} else {
				items = append(items, elem.Raw)
			}
		}
		data.Set(key.String(), Value{kind: KindList, items: items})
		return true
	})

	return data, nil
}
