package securecookie

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"
	"unicode/utf8"
)

var (
	// ErrInvalidJSON is returned when a document cannot be parsed into a Value.
	ErrInvalidJSON = errors.New("invalid JSON document")
	// ErrUnsupportedNumber is returned for NaN and infinite floats, which JSON cannot carry.
	ErrUnsupportedNumber = errors.New("number is not representable in JSON")
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a JSON value. The zero Value is null.
//
// Objects keep their members in insertion order so that a payload decoded
// from a token serializes back to the same bytes.
type Value struct {
	kind    Kind
	boolean bool
	num     json.Number
	str     string
	elems   []Value
	members []Member
}

// Member is a single key/value pair of an object.
type Member struct {
	Key   string
	Value Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// Int wraps a signed integer.
func Int(i int64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatInt(i, 10))}
}

// Uint wraps an unsigned integer.
func Uint(u uint64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatUint(u, 10))}
}

// Float wraps a float. NaN and infinities are kept but fail on serialization.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{kind: KindNumber, num: json.Number(strconv.FormatFloat(f, 'g', -1, 64))}
	}
	b, _ := json.Marshal(f)
	return Value{kind: KindNumber, num: json.Number(b)}
}

// Number wraps a number literal. The literal must be valid JSON.
func Number(n json.Number) (Value, error) {
	if !validNumber(string(n)) {
		return Value{}, fmt.Errorf("%w: bad number literal %q", ErrInvalidJSON, string(n))
	}
	return Value{kind: KindNumber, num: n}, nil
}

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Array builds an array from the given elements. Array() is the empty array.
func Array(elems ...Value) Value {
	out := make([]Value, len(elems))
	copy(out, elems)
	return Value{kind: KindArray, elems: out}
}

// Object builds an object from the given members in order. Object() is the empty object.
// A repeated key replaces the earlier member's value in place.
func Object(members ...Member) Value {
	v := Value{kind: KindObject, members: make([]Member, 0, len(members))}
	for _, m := range members {
		v.members = setMember(v.members, m.Key, m.Value)
	}
	return v
}

// Field is shorthand for a Member literal.
func Field(key string, v Value) Member { return Member{Key: key, Value: v} }

func setMember(members []Member, key string, v Value) []Member {
	for i := range members {
		if members[i].Key == key {
			members[i].Value = v
			return members
		}
	}
	return append(members, Member{Key: key, Value: v})
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool reports the boolean and whether v is a bool.
func (v Value) AsBool() (bool, bool) {
	return v.boolean, v.kind == KindBool
}

// AsInt reports the number as int64. ok is false for non-numbers and for
// numbers with a fractional part or outside the int64 range.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	i, err := v.num.Int64()
	return i, err == nil
}

// AsFloat reports the number as float64.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := v.num.Float64()
	return f, err == nil
}

// AsNumber returns the exact number literal.
func (v Value) AsNumber() (json.Number, bool) {
	return v.num, v.kind == KindNumber
}

func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// Len returns the element count of an array, the member count of an object, and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.elems)
	case KindObject:
		return len(v.members)
	default:
		return 0
	}
}

// Index returns the i-th array element.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.elems) {
		return Value{}, false
	}
	return v.elems[i], true
}

// Get looks up an object member by key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Elements returns a copy of the array elements.
func (v Value) Elements() []Value {
	if v.kind != KindArray {
		return nil
	}
	return append([]Value(nil), v.elems...)
}

// Members returns a copy of the object members in order.
func (v Value) Members() []Member {
	if v.kind != KindObject {
		return nil
	}
	return append([]Member(nil), v.members...)
}

// Equal reports deep equality. Numbers compare by value, object members by
// key and position.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.boolean == o.boolean
	case KindNumber:
		return numbersEqual(v.num, o.num)
	case KindString:
		return v.str == o.str
	case KindArray:
		if len(v.elems) != len(o.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.members) != len(o.members) {
			return false
		}
		for i := range v.members {
			if v.members[i].Key != o.members[i].Key || !v.members[i].Value.Equal(o.members[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

func numbersEqual(a, b json.Number) bool {
	if a == b {
		return true
	}
	ai, aerr := a.Int64()
	bi, berr := b.Int64()
	if aerr == nil && berr == nil {
		return ai == bi
	}
	af, aerr := a.Float64()
	bf, berr := b.Float64()
	return aerr == nil && berr == nil && af == bf
}

// MarshalJSON implements json.Marshaler with the canonical encoding.
func (v Value) MarshalJSON() ([]byte, error) {
	return v.AppendJSON(nil)
}

// AppendJSON appends the canonical encoding of v to dst.
func (v Value) AppendJSON(dst []byte) ([]byte, error) {
	switch v.kind {
	case KindNull:
		return append(dst, "null"...), nil
	case KindBool:
		return strconv.AppendBool(dst, v.boolean), nil
	case KindNumber:
		if !validNumber(string(v.num)) {
			return dst, fmt.Errorf("%w: %s", ErrUnsupportedNumber, string(v.num))
		}
		return append(dst, v.num...), nil
	case KindString:
		return appendQuoted(dst, v.str), nil
	case KindArray:
		dst = append(dst, '[')
		for i, e := range v.elems {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			if dst, err = e.AppendJSON(dst); err != nil {
				return dst, err
			}
		}
		return append(dst, ']'), nil
	case KindObject:
		dst = append(dst, '{')
		for i, m := range v.members {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendQuoted(dst, m.Key)
			dst = append(dst, ':')
			var err error
			if dst, err = m.Value.AppendJSON(dst); err != nil {
				return dst, err
			}
		}
		return append(dst, '}'), nil
	}
	return dst, fmt.Errorf("unknown value kind %d", v.kind)
}

const hexDigits = "0123456789abcdef"

// appendQuoted writes s as a JSON string. Forward slashes and HTML
// characters are left as they are; invalid UTF-8 becomes U+FFFD.
func appendQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch {
			case c == '"' || c == '\\':
				dst = append(dst, '\\', c)
			case c == '\n':
				dst = append(dst, '\\', 'n')
			case c == '\r':
				dst = append(dst, '\\', 'r')
			case c == '\t':
				dst = append(dst, '\\', 't')
			case c < 0x20:
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
			default:
				dst = append(dst, c)
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			dst = append(dst, "\ufffd"...)
		} else {
			dst = append(dst, s[i:i+size]...)
		}
		i += size
	}
	return append(dst, '"')
}

func validNumber(s string) bool {
	if s == "" {
		return false
	}
	// json.Valid rejects NaN, Inf and any other non-literal.
	return json.Valid([]byte(s)) && (s[0] == '-' || (s[0] >= '0' && s[0] <= '9'))
}

// Parse decodes a single JSON document.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := parseValue(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("%w: trailing data", ErrInvalidJSON)
	}
	return v, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func parseValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Value{kind: KindNumber, num: t}, nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			elems := []Value{}
			for dec.More() {
				e, err := parseValue(dec)
				if err != nil {
					return Value{}, err
				}
				elems = append(elems, e)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
			}
			return Value{kind: KindArray, elems: elems}, nil
		case '{':
			members := []Member{}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Value{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
				}
				key, ok := kt.(string)
				if !ok {
					return Value{}, fmt.Errorf("%w: object key is %T", ErrInvalidJSON, kt)
				}
				mv, err := parseValue(dec)
				if err != nil {
					return Value{}, err
				}
				members = setMember(members, key, mv)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
			}
			return Value{kind: KindObject, members: members}, nil
		}
	}
	return Value{}, fmt.Errorf("%w: unexpected token %v", ErrInvalidJSON, tok)
}

// FromAny converts a Go value into a Value. Maps are emitted with sorted
// keys; structs and other types go through their JSON encoding, which keeps
// struct field order.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case *Value:
		if t == nil {
			return Null(), nil
		}
		return *t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Uint(uint64(t)), nil
	case uint8:
		return Uint(uint64(t)), nil
	case uint16:
		return Uint(uint64(t)), nil
	case uint32:
		return Uint(uint64(t)), nil
	case uint64:
		return Uint(t), nil
	case float32:
		return floatValue(float64(t))
	case float64:
		return floatValue(t)
	case json.Number:
		return Number(t)
	case []Value:
		return Array(t...), nil
	case []any:
		elems := make([]Value, 0, len(t))
		for _, e := range t {
			ev, err := FromAny(e)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, ev)
		}
		return Value{kind: KindArray, elems: elems}, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]Member, 0, len(keys))
		for _, k := range keys {
			mv, err := FromAny(t[k])
			if err != nil {
				return Value{}, err
			}
			members = append(members, Member{Key: k, Value: mv})
		}
		return Value{kind: KindObject, members: members}, nil
	}

	if rv := reflect.ValueOf(x); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return Null(), nil
	}
	raw, err := json.Marshal(x)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return Parse(raw)
}

func floatValue(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("%w: %v", ErrUnsupportedNumber, f)
	}
	return Float(f), nil
}

// MustFromAny is FromAny for literals known to be valid.
func MustFromAny(x any) Value {
	v, err := FromAny(x)
	if err != nil {
		panic(err)
	}
	return v
}

// Interface converts v to plain Go values: nil, bool, json.Number, string,
// []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.boolean
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindArray:
		out := make([]any, len(v.elems))
		for i, e := range v.elems {
			out[i] = e.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.members))
		for _, m := range v.members {
			out[m.Key] = m.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

// Decode stores v into dst using encoding/json rules.
func (v Value) Decode(dst any) error {
	raw, err := v.AppendJSON(nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// String returns the canonical JSON text, or an empty string if v holds an
// unserializable number.
func (v Value) String() string {
	b, err := v.AppendJSON(nil)
	if err != nil {
		return ""
	}
	return string(b)
}
