package risp

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/fnv"
	"iter"
	"math"
)

// Kind identifies the variant held by a Form.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindSymbol
	KindString
	KindKeyword
	KindList
	KindVector
	KindHashMap
	KindNative
	KindUserFn
	KindAtom
)

// NativeFn is a primitive implemented in Go. It receives its evaluated
// arguments packaged as a single List form.
type NativeFn func(args Form) (Form, error)

// UserFn is a closure created by fn*. Rest is empty when the function
// takes no rest parameter.
type UserFn struct {
	Params  []string
	Rest    string
	Body    Form
	Closure *Env
	IsMacro bool
}

// Atom is a shared mutable cell. Every Form holding the same *Atom
// observes the same value.
type Atom struct {
	Value Form
}

// Form is the single runtime representation of code and data.
type Form struct {
	Kind   Kind
	Bool   bool
	Int    int64
	Float  float64
	Str    string // Symbol name, String text or Keyword text
	Items  []Form // List and Vector contents
	Map    *HashMap
	Native NativeFn
	Fn     *UserFn
	Atom   *Atom
	Meta   *Form
}

func Nil() Form               { return Form{Kind: KindNil} }
func Bool(b bool) Form        { return Form{Kind: KindBool, Bool: b} }
func Int(n int64) Form        { return Form{Kind: KindInt, Int: n} }
func Float(f float64) Form    { return Form{Kind: KindFloat, Float: f} }
func Sym(name string) Form    { return Form{Kind: KindSymbol, Str: name} }
func Str(s string) Form       { return Form{Kind: KindString, Str: s} }
func Keyword(s string) Form   { return Form{Kind: KindKeyword, Str: s} }
func Native(fn NativeFn) Form { return Form{Kind: KindNative, Native: fn} }
func FromMap(m *HashMap) Form { return Form{Kind: KindHashMap, Map: m} }

func List(items ...Form) Form {
	if items == nil {
		items = []Form{}
	}
	return Form{Kind: KindList, Items: items}
}

func Vector(items ...Form) Form {
	if items == nil {
		items = []Form{}
	}
	return Form{Kind: KindVector, Items: items}
}

func NewUserFn(params []string, rest string, body Form, closure *Env) Form {
	return Form{Kind: KindUserFn, Fn: &UserFn{Params: params, Rest: rest, Body: body, Closure: closure}}
}

func NewAtom(v Form) Form {
	return Form{Kind: KindAtom, Atom: &Atom{Value: v}}
}

func (f Form) IsNil() bool        { return f.Kind == KindNil }
func (f Form) IsList() bool       { return f.Kind == KindList }
func (f Form) IsVector() bool     { return f.Kind == KindVector }
func (f Form) IsSequential() bool { return f.Kind == KindList || f.Kind == KindVector }
func (f Form) IsSymbol() bool     { return f.Kind == KindSymbol }
func (f Form) IsString() bool     { return f.Kind == KindString }
func (f Form) IsKeyword() bool    { return f.Kind == KindKeyword }
func (f Form) IsHashMap() bool    { return f.Kind == KindHashMap }
func (f Form) IsNumber() bool     { return f.Kind == KindInt || f.Kind == KindFloat }
func (f Form) IsAtom() bool       { return f.Kind == KindAtom }
func (f Form) IsEmptyList() bool  { return f.Kind == KindList && len(f.Items) == 0 }

func (f Form) IsSymbolNamed(name string) bool {
	return f.Kind == KindSymbol && f.Str == name
}

func (f Form) IsMacro() bool {
	return f.Kind == KindUserFn && f.Fn.IsMacro
}

// IsCallable reports whether f can be applied. Macros are not callable
// as ordinary functions.
func (f Form) IsCallable() bool {
	return f.Kind == KindNative || (f.Kind == KindUserFn && !f.Fn.IsMacro)
}

// Truthy returns false for nil and false, true for everything else.
func (f Form) Truthy() bool {
	switch f.Kind {
	case KindNil:
		return false
	case KindBool:
		return f.Bool
	default:
		return true
	}
}

// KindName returns the variant name used in error messages.
func (f Form) KindName() string {
	return f.Kind.String()
}

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "Nil"
	case KindBool:
		return "Boolean"
	case KindInt:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindSymbol:
		return "Symbol"
	case KindString:
		return "String"
	case KindKeyword:
		return "Keyword"
	case KindList:
		return "List"
	case KindVector:
		return "Vector"
	case KindHashMap:
		return "HashMap"
	case KindNative:
		return "NativeFn"
	case KindUserFn:
		return "UserFn"
	case KindAtom:
		return "Atom"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// WithMeta returns a copy of f carrying meta. Only collections and
// callables accept metadata.
func (f Form) WithMeta(meta Form) (Form, error) {
	switch f.Kind {
	case KindList, KindVector, KindHashMap, KindNative, KindUserFn:
		f.Meta = &meta
		return f, nil
	default:
		return Form{}, invalidArgf("cannot attach metadata to %s", f.KindName())
	}
}

// MetaOrNil returns the metadata attached to f, or nil.
func (f Form) MetaOrNil() Form {
	if f.Meta == nil {
		return Nil()
	}
	return *f.Meta
}

// Iter yields the elements of a List or Vector. The returned sequence
// can be ranged over more than once.
func (f Form) Iter() (iter.Seq2[int, Form], error) {
	switch f.Kind {
	case KindList, KindVector:
		items := f.Items
		return func(yield func(int, Form) bool) {
			for i, item := range items {
				if !yield(i, item) {
					return
				}
			}
		}, nil
	default:
		return nil, notIterable(f)
	}
}

// Equal compares forms structurally. Lists and Vectors with equal
// contents are equal to each other. Callables and atoms are never equal
// to anything, themselves included.
func Equal(a, b Form) bool {
	switch a.Kind {
	case KindNil:
		return b.Kind == KindNil
	case KindBool:
		return b.Kind == KindBool && a.Bool == b.Bool
	case KindInt:
		return b.Kind == KindInt && a.Int == b.Int
	case KindFloat:
		return b.Kind == KindFloat && a.Float == b.Float
	case KindSymbol, KindString, KindKeyword:
		return b.Kind == a.Kind && a.Str == b.Str
	case KindList, KindVector:
		if !b.IsSequential() || len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	case KindHashMap:
		if b.Kind != KindHashMap || a.Map.Len() != b.Map.Len() {
			return false
		}
		for k, v := range a.Map.All() {
			other, ok := b.Map.Get(k)
			if !ok || !Equal(v, other) {
				return false
			}
		}
		return true
	case KindNative, KindUserFn, KindAtom:
		return false
	default:
		return false
	}
}

// hash tags. Lists and Vectors share a tag because they compare equal.
const (
	hashNil byte = iota + 1
	hashBool
	hashInt
	hashFloat
	hashSymbol
	hashString
	hashKeyword
	hashSequence
	hashMap
	hashNative
	hashUserFn
	hashAtom
)

// Hash returns a hash consistent with Equal.
func (f Form) Hash() uint64 {
	h := fnv.New64a()
	f.writeHash(h)
	return h.Sum64()
}

func (f Form) writeHash(h hash.Hash64) {
	var buf [9]byte
	switch f.Kind {
	case KindNil:
		buf[0] = hashNil
		h.Write(buf[:1])
	case KindBool:
		buf[0] = hashBool
		if f.Bool {
			buf[1] = 1
		}
		h.Write(buf[:2])
	case KindInt:
		buf[0] = hashInt
		binary.BigEndian.PutUint64(buf[1:], uint64(f.Int))
		h.Write(buf[:])
	case KindFloat:
		buf[0] = hashFloat
		x := f.Float
		if x == 0 {
			x = 0 // -0.0 equals 0.0
		}
		binary.BigEndian.PutUint64(buf[1:], math.Float64bits(x))
		h.Write(buf[:])
	case KindSymbol, KindString, KindKeyword:
		switch f.Kind {
		case KindSymbol:
			buf[0] = hashSymbol
		case KindString:
			buf[0] = hashString
		default:
			buf[0] = hashKeyword
		}
		binary.BigEndian.PutUint64(buf[1:], uint64(len(f.Str)))
		h.Write(buf[:])
		h.Write([]byte(f.Str))
	case KindList, KindVector:
		buf[0] = hashSequence
		binary.BigEndian.PutUint64(buf[1:], uint64(len(f.Items)))
		h.Write(buf[:])
		for _, item := range f.Items {
			item.writeHash(h)
		}
	case KindHashMap:
		// Entry hashes are summed so iteration order does not matter.
		var sum uint64
		for k, v := range f.Map.All() {
			sum += k.Hash()*31 + v.Hash()
		}
		buf[0] = hashMap
		binary.BigEndian.PutUint64(buf[1:], sum)
		h.Write(buf[:])
	case KindNative:
		buf[0] = hashNative
		h.Write(buf[:1])
	case KindUserFn:
		buf[0] = hashUserFn
		h.Write(buf[:1])
	case KindAtom:
		buf[0] = hashAtom
		h.Write(buf[:1])
	}
}

// ToGo converts a Form into plain Go values suitable for JSON encoding.
// Keywords render as ":name"; map keys render as their display text.
func ToGo(f Form) (any, error) {
	switch f.Kind {
	case KindNil:
		return nil, nil
	case KindBool:
		return f.Bool, nil
	case KindInt:
		return f.Int, nil
	case KindFloat:
		return f.Float, nil
	case KindString:
		return f.Str, nil
	case KindSymbol:
		return f.Str, nil
	case KindKeyword:
		return ":" + f.Str, nil
	case KindList, KindVector:
		result := make([]any, len(f.Items))
		for i, item := range f.Items {
			v, err := ToGo(item)
			if err != nil {
				return nil, err
			}
			result[i] = v
		}
		return result, nil
	case KindHashMap:
		result := make(map[string]any, f.Map.Len())
		for k, v := range f.Map.All() {
			gv, err := ToGo(v)
			if err != nil {
				return nil, err
			}
			result[PrStr(k, false)] = gv
		}
		return result, nil
	case KindAtom:
		return ToGo(f.Atom.Value)
	default:
		return nil, fmt.Errorf("cannot convert %s to a plain value", f.KindName())
	}
}

// FromGo converts decoded JSON values into Forms. Strings beginning with
// ':' become keywords, mirroring ToGo.
func FromGo(v any) (Form, error) {
	switch x := v.(type) {
	case nil:
		return Nil(), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return Int(int64(x)), nil
		}
		return Float(x), nil
	case string:
		if len(x) > 1 && x[0] == ':' {
			return Keyword(x[1:]), nil
		}
		return Str(x), nil
	case []any:
		items := make([]Form, len(x))
		for i, e := range x {
			f, err := FromGo(e)
			if err != nil {
				return Form{}, err
			}
			items[i] = f
		}
		return List(items...), nil
	case map[string]any:
		m := NewHashMap()
		for k, e := range x {
			f, err := FromGo(e)
			if err != nil {
				return Form{}, err
			}
			key, _ := FromGo(k)
			m.Set(key, f)
		}
		return FromMap(m), nil
	default:
		return Form{}, fmt.Errorf("cannot convert %T to a form", v)
	}
}
