package connector

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// External record value tree
// ---------------------------------------------------------------------------

// Kind is the tag of a Value node.
type Kind int

const (
	// KindNil is an absent or null value
	KindNil Kind = iota
	// KindString is a scalar; the webservice serializes every scalar as text
	KindString
	// KindList is an ordered sequence of values
	KindList
	// KindMap is a string-keyed mapping
	KindMap
)

// Value is a schema-less tree node representing an external record or a
// fragment of one. The remote schema version, not this system, controls its
// shape, so all access goes through checked accessors.
type Value struct {
	kind Kind
	str  string
	list []Value
	obj  map[string]Value
}

// Nil returns the absent value.
func Nil() Value { return Value{kind: KindNil} }

// String creates a scalar value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// List creates a sequence value.
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// Map creates a mapping value.
func Map(fields map[string]Value) Value { return Value{kind: KindMap, obj: fields} }

// FromAny converts a decoded JSON document (maps, slices, strings, numbers,
// booleans, nil) into a Value. Numbers and booleans are rendered as strings,
// matching the webservice's all-text scalar convention.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Nil()
	case string:
		return String(t)
	case bool:
		return String(strconv.FormatBool(t))
	case float64:
		// json.Decoder with UseNumber avoids this branch; keep it for
		// callers decoding without it.
		return String(strconv.FormatFloat(t, 'f', -1, 64))
	case json.Number:
		return String(t.String())
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromAny(item)
		}
		return Value{kind: KindList, list: items}
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, item := range t {
			fields[k] = FromAny(item)
		}
		return Value{kind: KindMap, obj: fields}
	default:
		return String(fmt.Sprintf("%v", t))
	}
}

// ParseJSON decodes a JSON document into a Value.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Nil(), fmt.Errorf("connector: decode record: %w", err)
	}
	return FromAny(raw), nil
}

// Kind returns the node's tag.
func (v Value) Kind() Kind { return v.kind }

// IsNil reports whether the value is absent.
func (v Value) IsNil() bool { return v.kind == KindNil }

// Str returns the scalar text. Non-scalars yield the empty string.
func (v Value) Str() string {
	if v.kind == KindString {
		return v.str
	}
	return ""
}

// Field returns the value under key. Missing keys and non-map nodes return
// the nil value; use GetString / GetDecimal when absence is an error.
func (v Value) Field(key string) Value {
	if v.kind != KindMap {
		return Nil()
	}
	child, ok := v.obj[key]
	if !ok {
		return Nil()
	}
	return child
}

// Has reports whether key is present on a map node.
func (v Value) Has(key string) bool {
	if v.kind != KindMap {
		return false
	}
	_, ok := v.obj[key]
	return ok
}

// GetString returns the scalar under key, or MissingFieldError when the key
// is absent or not a scalar.
func (v Value) GetString(key string) (string, error) {
	child := v.Field(key)
	if child.kind != KindString {
		return "", &MissingFieldError{Field: key}
	}
	return child.str, nil
}

// GetDecimal parses the scalar under key as an exact decimal.
func (v Value) GetDecimal(key string) (decimal.Decimal, error) {
	s, err := v.GetString(key)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("connector: field %s is not a number: %w", key, err)
	}
	return d, nil
}

// At walks a path of map keys and returns the reached value, or the nil
// value as soon as a segment is missing.
func (v Value) At(path ...string) Value {
	current := v
	for _, key := range path {
		current = current.Field(key)
	}
	return current
}

// AsList normalizes the node into a sequence. The webservice serializes a
// singleton child as a bare mapping rather than a one-element list; callers
// iterating children must treat both identically. Nil yields an empty list.
func (v Value) AsList() []Value {
	switch v.kind {
	case KindList:
		return v.list
	case KindNil:
		return nil
	default:
		return []Value{v}
	}
}

// Len returns the number of items (lists), fields (maps) or 0.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.obj)
	default:
		return 0
	}
}

// Keys returns the field names of a map node in unspecified order.
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	return keys
}
