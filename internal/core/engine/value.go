package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind discriminates the client-facing value union.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindText
	KindVector
	KindEntity
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindVector:
		return "vector"
	case KindEntity:
		return "entity"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value is the representation of state handed across the engine/connection
// boundary. Server code produces values containing raw Entity references; the
// connection layer translates those to per-connection object IDs (KindObject)
// before anything reaches the wire.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	vec  mgl64.Vec3
	e    Entity
	obj  uint64
	arr  []Value
}

func Null() Value                 { return Value{} }
func Bool(b bool) Value           { return Value{kind: KindBool, b: b} }
func Int(i int64) Value           { return Value{kind: KindInt, i: i} }
func Float(f float64) Value       { return Value{kind: KindFloat, f: f} }
func Text(s string) Value         { return Value{kind: KindText, s: s} }
func Vector(v mgl64.Vec3) Value   { return Value{kind: KindVector, vec: v} }
func EntityRef(e Entity) Value    { return Value{kind: KindEntity, e: e} }
func ObjectRef(id uint64) Value   { return Value{kind: KindObject, obj: id} }
func Array(items ...Value) Value  { return Value{kind: KindArray, arr: items} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, fmt.Errorf("%w: expected bool, got %s", ErrInvalidValue, v.kind)
	}
	return v.b, nil
}

// AsInt accepts integral floats as well, since most wire formats do not
// distinguish the two.
func (v Value) AsInt() (int64, error) {
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindFloat:
		if v.f == float64(int64(v.f)) {
			return int64(v.f), nil
		}
	}
	return 0, fmt.Errorf("%w: expected int, got %s", ErrInvalidValue, v.kind)
}

func (v Value) AsFloat() (float64, error) {
	switch v.kind {
	case KindFloat:
		return v.f, nil
	case KindInt:
		return float64(v.i), nil
	}
	return 0, fmt.Errorf("%w: expected float, got %s", ErrInvalidValue, v.kind)
}

func (v Value) AsText() (string, error) {
	if v.kind != KindText {
		return "", fmt.Errorf("%w: expected text, got %s", ErrInvalidValue, v.kind)
	}
	return v.s, nil
}

func (v Value) AsVector() (mgl64.Vec3, error) {
	if v.kind != KindVector {
		return mgl64.Vec3{}, fmt.Errorf("%w: expected vector, got %s", ErrInvalidValue, v.kind)
	}
	return v.vec, nil
}

func (v Value) AsEntity() (Entity, error) {
	switch v.kind {
	case KindEntity:
		return v.e, nil
	case KindNull:
		return Entity{}, nil
	}
	return Entity{}, fmt.Errorf("%w: expected entity reference, got %s", ErrInvalidValue, v.kind)
}

func (v Value) AsObject() (uint64, error) {
	if v.kind != KindObject {
		return 0, fmt.Errorf("%w: expected object reference, got %s", ErrInvalidValue, v.kind)
	}
	return v.obj, nil
}

// Items returns the array elements, or nil for non-arrays.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Equal is deep, strict on kind, and the basis of redundancy suppression.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindText:
		return v.s == o.s
	case KindVector:
		return v.vec == o.vec
	case KindEntity:
		return v.e == o.e
	case KindObject:
		return v.obj == o.obj
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return strconv.Quote(v.s)
	case KindVector:
		return fmt.Sprintf("(%g, %g, %g)", v.vec.X(), v.vec.Y(), v.vec.Z())
	case KindEntity:
		return "entity " + v.e.String()
	case KindObject:
		return "object " + strconv.FormatUint(v.obj, 10)
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, item := range v.arr {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "unknown"
	}
}
