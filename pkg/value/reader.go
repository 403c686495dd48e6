package value

import (
	"errors"
	"fmt"
	"strconv"
)

// Cursor walks a result tree. The first failed step is remembered and
// returned by the terminal accessor, prefixed with the path walked so far.
//
//	d, err := value.Read(result).Key("routes").Index(0).Key("distance").AsNumber()
type Cursor struct {
	v    Value
	path string
	err  error
}

// Read starts a cursor at v.
func Read(v Value) Cursor {
	return Cursor{v: v}
}

// Path returns the path walked so far, such as routes[0].distance.
func (c Cursor) Path() string { return c.path }

// Key steps into the member key of an object.
func (c Cursor) Key(key string) Cursor {
	if c.err != nil {
		return c
	}
	path := key
	if c.path != "" {
		path = c.path + "." + key
	}
	o, err := AsObject(c.v)
	if err != nil {
		return c.fail(err)
	}
	v, ok := o.Get(key)
	if !ok {
		return Cursor{path: path, err: fmt.Errorf("%s: %w", path, ErrKeyNotFound)}
	}
	return Cursor{v: v, path: path}
}

// Index steps into element i of an array.
func (c Cursor) Index(i int) Cursor {
	if c.err != nil {
		return c
	}
	path := c.path + "[" + strconv.Itoa(i) + "]"
	a, err := AsArray(c.v)
	if err != nil {
		return c.fail(err)
	}
	if i < 0 || i >= a.Len() {
		return Cursor{path: path, err: fmt.Errorf("%s: %w", path, ErrIndexOutOfRange)}
	}
	return Cursor{v: a.Values[i], path: path}
}

func (c Cursor) fail(err error) Cursor {
	var te *TypeError
	if errors.As(err, &te) {
		te.Path = c.path
	}
	return Cursor{path: c.path, err: err}
}

// Value returns the value under the cursor.
func (c Cursor) Value() (Value, error) {
	return c.v, c.err
}

// AsObject returns the object under the cursor.
func (c Cursor) AsObject() (*Object, error) {
	if c.err != nil {
		return nil, c.err
	}
	o, err := AsObject(c.v)
	return o, c.fail(err).err
}

// AsArray returns the array under the cursor.
func (c Cursor) AsArray() (*Array, error) {
	if c.err != nil {
		return nil, c.err
	}
	a, err := AsArray(c.v)
	return a, c.fail(err).err
}

// AsString returns the string under the cursor.
func (c Cursor) AsString() (string, error) {
	if c.err != nil {
		return "", c.err
	}
	s, err := AsString(c.v)
	return s, c.fail(err).err
}

// AsNumber returns the number under the cursor.
func (c Cursor) AsNumber() (float64, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := AsNumber(c.v)
	return n, c.fail(err).err
}

// AsBool returns the boolean under the cursor.
func (c Cursor) AsBool() (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	b, err := AsBool(c.v)
	return b, c.fail(err).err
}

// Len returns the length of the array or object under the cursor.
func (c Cursor) Len() (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	switch x := c.v.(type) {
	case *Array:
		if x != nil {
			return x.Len(), nil
		}
	case *Object:
		if x != nil {
			return x.Len(), nil
		}
	}
	return 0, c.fail(&TypeError{Want: KindArray, Got: kindOf(c.v)}).err
}
