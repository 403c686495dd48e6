// Package value implements the result tree returned by the engine services:
// a tagged union of objects, arrays, strings, numbers, booleans and null,
// with type-checked accessors.
package value

import (
	"errors"
	"fmt"
)

// Kind identifies the variant held by a Value.
type Kind int

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
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is one node of a result tree.
type Value interface {
	Kind() Kind
}

var (
	// ErrUnexpectedKind is matched by every *TypeError.
	ErrUnexpectedKind = errors.New("unexpected value kind")
	// ErrKeyNotFound is returned when an object has no such key.
	ErrKeyNotFound = errors.New("key not found")
	// ErrIndexOutOfRange is returned when an array index is out of range.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// TypeError reports access to a value as the wrong variant.
type TypeError struct {
	Path string
	Want Kind
	Got  Kind
}

func (e *TypeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("want %s, got %s", e.Want, e.Got)
	}
	return fmt.Sprintf("%s: want %s, got %s", e.Path, e.Want, e.Got)
}

func (e *TypeError) Unwrap() error { return ErrUnexpectedKind }

// String is a text value.
type String string

// Number is a numeric value.
type Number float64

// Bool is a boolean value.
type Bool bool

// Null is the null value.
type Null struct{}

func (String) Kind() Kind { return KindString }
func (Number) Kind() Kind { return KindNumber }
func (Bool) Kind() Kind   { return KindBool }
func (Null) Kind() Kind   { return KindNull }

// Array is an ordered list of values.
type Array struct {
	Values []Value
}

// NewArray returns an array holding vs.
func NewArray(vs ...Value) *Array { return &Array{Values: vs} }

func (*Array) Kind() Kind { return KindArray }

// Append adds v to the end of the array.
func (a *Array) Append(v Value) *Array {
	a.Values = append(a.Values, v)
	return a
}

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.Values) }

// At returns element i.
func (a *Array) At(i int) (Value, error) {
	if i < 0 || i >= len(a.Values) {
		return nil, fmt.Errorf("[%d] of %d: %w", i, len(a.Values), ErrIndexOutOfRange)
	}
	return a.Values[i], nil
}

// Object maps keys to values and remembers insertion order.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{values: map[string]Value{}}
}

func (*Object) Kind() Kind { return KindObject }

// Set stores v under key. Replacing a key keeps its original position.
func (o *Object) Set(key string, v Value) *Object {
	if o.values == nil {
		o.values = map[string]Value{}
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
	return o
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of keys.
func (o *Object) Len() int { return len(o.keys) }

// AsObject returns v as an object.
func AsObject(v Value) (*Object, error) {
	o, ok := v.(*Object)
	if !ok || o == nil {
		return nil, &TypeError{Want: KindObject, Got: kindOf(v)}
	}
	return o, nil
}

// AsArray returns v as an array.
func AsArray(v Value) (*Array, error) {
	a, ok := v.(*Array)
	if !ok || a == nil {
		return nil, &TypeError{Want: KindArray, Got: kindOf(v)}
	}
	return a, nil
}

// AsString returns the text of a string value.
func AsString(v Value) (string, error) {
	s, ok := v.(String)
	if !ok {
		return "", &TypeError{Want: KindString, Got: kindOf(v)}
	}
	return string(s), nil
}

// AsNumber returns the number held by v.
func AsNumber(v Value) (float64, error) {
	n, ok := v.(Number)
	if !ok {
		return 0, &TypeError{Want: KindNumber, Got: kindOf(v)}
	}
	return float64(n), nil
}

// AsBool returns the boolean held by v.
func AsBool(v Value) (bool, error) {
	b, ok := v.(Bool)
	if !ok {
		return false, &TypeError{Want: KindBool, Got: kindOf(v)}
	}
	return bool(b), nil
}

// kindOf treats a nil interface or nil pointer as null.
func kindOf(v Value) Kind {
	switch x := v.(type) {
	case nil:
		return KindNull
	case *Object:
		if x == nil {
			return KindNull
		}
	case *Array:
		if x == nil {
			return KindNull
		}
	}
	return v.Kind()
}
