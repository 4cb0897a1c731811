package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// Object is a decoded JSON object that remembers the order its keys appeared
// in. Go maps do not, and the structural scan depends on it.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject builds an Object from alternating key/value arguments
func NewObject(kv ...any) *Object {
	o := &Object{values: make(map[string]any, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("envelope.NewObject: key at %d is %T, not string", i, kv[i]))
		}
		o.Set(key, kv[i+1])
	}
	return o
}

// Set assigns a value, appending the key if it is new
func (o *Object) Set(key string, value any) {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value stored under key
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the keys in source order
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of keys
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// MarshalJSON writes the object with its original key order
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(o.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Field looks a key up in either object representation
func Field(v any, key string) (any, bool) {
	switch obj := v.(type) {
	case *Object:
		return obj.Get(key)
	case map[string]any:
		val, ok := obj[key]
		return val, ok
	default:
		return nil, false
	}
}

// Keys lists an object's keys: source order for *Object, sorted for plain
// maps so the result is at least deterministic.
func Keys(v any) []string {
	switch obj := v.(type) {
	case *Object:
		return obj.Keys()
	case map[string]any:
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	default:
		return nil
	}
}

// IsObject reports whether v is a JSON object
func IsObject(v any) bool {
	switch obj := v.(type) {
	case *Object:
		return obj != nil
	case map[string]any:
		return obj != nil
	default:
		return false
	}
}

// Decode parses a JSON document. Objects become *Object, arrays []any and
// numbers json.Number, so neither key order nor numeric precision is lost.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("envelope: trailing data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := &Object{values: make(map[string]any)}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, fmt.Errorf("envelope: %w", err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("envelope: object key is %T", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("envelope: %w", err)
			}
			return obj, nil
		case '[':
			arr := []any{}
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("envelope: %w", err)
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("envelope: unexpected delimiter %q", t)
		}
	default:
		return tok, nil
	}
}
