package seedcache

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind enumerates the closed set of primitive kinds a key element may hold.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
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
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// Elem is one element of a composite key: a tagged value over the closed
// Kind set. The zero value is the null element.
type Elem struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
}

func String(s string) Elem { return Elem{kind: KindString, s: s} }
func Int(i int64) Elem     { return Elem{kind: KindInt, i: i} }
func Float(f float64) Elem { return Elem{kind: KindFloat, f: f} }
func Bool(b bool) Elem     { return Elem{kind: KindBool, b: b} }
func Null() Elem           { return Elem{kind: KindNull} }

// Kind reports the element's kind.
func (e Elem) Kind() Kind { return e.kind }

// Key is an ordered composite key. Two keys are equivalent iff they have the
// same length and element-wise equal, same-kind values in the same order.
// A nil (or empty) Key means "no key": Serialize yields the NoKey sentinel
// and no lookup or fetch should occur.
type Key []Elem

// K builds a Key from elements.
func K(elems ...Elem) Key { return Key(elems) }

// KeyOf converts native Go primitives into a Key. Supported element types:
// string, bool, all int/uint variants, float32/float64, and nil (null).
// Anything else fails fast so unserializable keys never silently collide.
func KeyOf(vals ...any) (Key, error) {
	k := make(Key, 0, len(vals))
	for i, v := range vals {
		switch t := v.(type) {
		case nil:
			k = append(k, Null())
		case string:
			k = append(k, String(t))
		case bool:
			k = append(k, Bool(t))
		case int:
			k = append(k, Int(int64(t)))
		case int8:
			k = append(k, Int(int64(t)))
		case int16:
			k = append(k, Int(int64(t)))
		case int32:
			k = append(k, Int(int64(t)))
		case int64:
			k = append(k, Int(t))
		case uint:
			k = append(k, Int(int64(t)))
		case uint8:
			k = append(k, Int(int64(t)))
		case uint16:
			k = append(k, Int(int64(t)))
		case uint32:
			k = append(k, Int(int64(t)))
		case uint64:
			if t > math.MaxInt64 {
				return nil, &KeyError{Index: i, Err: fmt.Errorf("uint64 %d overflows int element", t)}
			}
			k = append(k, Int(int64(t)))
		case float32:
			k = append(k, Float(float64(t)))
		case float64:
			k = append(k, Float(t))
		case Elem:
			k = append(k, t)
		default:
			return nil, &KeyError{Index: i, Err: fmt.Errorf("unsupported element type %T", v)}
		}
	}
	return k, nil
}

// NoKey is the sentinel Serialize returns for a nil/empty key. It is not a
// valid lookup string; it signals that no fetch should occur.
const NoKey = ""

// Serialize canonicalizes a composite key into its lookup string.
//
// The encoding is JSON-array shaped: element order matters and element kind
// is preserved, so Int(1), Float(1) and String("1") all serialize
// differently. Equivalent keys always produce identical strings; the
// encoding is injective over well-formed keys.
//
// A nil or empty key returns (NoKey, nil). A key holding a non-finite float
// returns an error rather than degrading to a best-effort string.
func Serialize(k Key) (string, error) {
	if len(k) == 0 {
		return NoKey, nil
	}
	var b strings.Builder
	b.Grow(2 + len(k)*8)
	b.WriteByte('[')
	for i, e := range k {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := appendElem(&b, e); err != nil {
			return NoKey, &KeyError{Index: i, Err: err}
		}
	}
	b.WriteByte(']')
	return b.String(), nil
}

// MustSerialize is Serialize that panics on malformed keys. Handy for
// package-level keys in tests and examples; avoid in production paths.
func MustSerialize(k Key) string {
	s, err := Serialize(k)
	if err != nil {
		panic(err)
	}
	return s
}

func appendElem(b *strings.Builder, e Elem) error {
	switch e.kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		if e.b {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindInt:
		b.WriteString(strconv.FormatInt(e.i, 10))
	case KindFloat:
		if math.IsNaN(e.f) || math.IsInf(e.f, 0) {
			return fmt.Errorf("non-finite float %v", e.f)
		}
		s := strconv.FormatFloat(e.f, 'g', -1, 64)
		b.WriteString(s)
		// integral floats must not collide with ints
		if !strings.ContainsAny(s, ".eE") {
			b.WriteString(".0")
		}
	case KindString:
		b.WriteString(strconv.Quote(e.s))
	default:
		return fmt.Errorf("invalid element kind %d", e.kind)
	}
	return nil
}
