package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind discriminates the variants of a property Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

// Value is a tagged representation of one loosely-typed property from the
// management API's free-form configuration payload. Analyzers read properties
// through these accessors instead of speculative type assertions.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	list []Value
	obj  map[string]Value
}

// Properties is the open-ended property bag of a resource. May be empty,
// never nil on a normalized resource.
type Properties map[string]Value

func Null() Value                   { return Value{kind: KindNull} }
func Str(s string) Value            { return Value{kind: KindString, str: s} }
func Num(n float64) Value           { return Value{kind: KindNumber, num: n} }
func Bool(b bool) Value             { return Value{kind: KindBool, b: b} }
func List(items ...Value) Value     { return Value{kind: KindList, list: items} }
func Map(m map[string]Value) Value  { return Value{kind: KindMap, obj: m} }

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether the value is absent or explicit null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string variant, or "" for any other kind.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsNumber returns the numeric variant.
func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// AsBool returns the boolean variant.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsList returns the list variant.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// AsMap returns the map variant.
func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.obj, true
}

// IsEmptyObject reports whether the value is an empty structural placeholder:
// null, "", an empty list, or a map with no entries.
func (v Value) IsEmptyObject() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == ""
	case KindList:
		return len(v.list) == 0
	case KindMap:
		return len(v.obj) == 0
	default:
		return false
	}
}

// Stringify renders any variant as a flat string, the way the dependency
// heuristic sees property values.
func (v Value) Stringify() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNull:
		return ""
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

// FromAny converts a decoded JSON value into a tagged Value.
func FromAny(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case string:
		return Str(x)
	case bool:
		return Bool(x)
	case float64:
		return Num(x)
	case int:
		return Num(float64(x))
	case int64:
		return Num(float64(x))
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return Str(x.String())
		}
		return Num(n)
	case []any:
		items := make([]Value, 0, len(x))
		for _, item := range x {
			items = append(items, FromAny(item))
		}
		return Value{kind: KindList, list: items}
	case map[string]any:
		obj := make(map[string]Value, len(x))
		for k, item := range x {
			obj[k] = FromAny(item)
		}
		return Value{kind: KindMap, obj: obj}
	default:
		return Str(fmt.Sprintf("%v", x))
	}
}

// UnmarshalJSON decodes arbitrary JSON into the tagged representation.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// MarshalJSON renders the tagged value back to plain JSON.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindMap:
		if v.obj == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.obj)
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.kind)
	}
}

// PropertiesFromAny builds a property bag from a decoded JSON object.
func PropertiesFromAny(raw map[string]any) Properties {
	props := make(Properties, len(raw))
	for k, item := range raw {
		props[k] = FromAny(item)
	}
	return props
}

// StringAt returns the string at key, or "" when absent or non-string.
func (p Properties) StringAt(key string) string {
	s, _ := p[key].AsString()
	return s
}

// NumberAt returns the number at key, or 0 when absent or non-numeric.
func (p Properties) NumberAt(key string) float64 {
	n, _ := p[key].AsNumber()
	return n
}

// BoolAt returns the boolean at key, or false when absent.
func (p Properties) BoolAt(key string) bool {
	b, _ := p[key].AsBool()
	return b
}

// EmptyAt reports whether key is absent or an empty structural placeholder.
func (p Properties) EmptyAt(key string) bool {
	v, ok := p[key]
	if !ok {
		return true
	}
	return v.IsEmptyObject()
}
