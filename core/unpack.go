package risp

import "math"

// Symbol is an Unpack target that accepts only symbols.
type Symbol string

// Callable is an Unpack target that accepts NativeFn and non-macro UserFn
// forms.
type Callable Form

// Unpack interprets args, a List or Vector, as a fixed-arity tuple and
// stores each element into the matching target pointer. Supported
// targets are *Form, *int64, *float64, *string, *bool, *Symbol,
// *Callable, **Atom, **HashMap, *[]Form, *[]Symbol and *[]int64.
//
// Integer targets accept floats, truncating them. Sequence targets
// accept nil as empty. *bool takes the truthiness of any form.
func Unpack(args Form, targets ...any) error {
	items, err := tupleItems(args)
	if err != nil {
		return err
	}
	if len(items) != len(targets) {
		return invalidArgf("expected %d args, got %d", len(targets), len(items))
	}
	return unpackItems(items, targets)
}

// UnpackRest is like Unpack but allows extra elements, which are stored
// in rest.
func UnpackRest(args Form, rest *[]Form, targets ...any) error {
	items, err := tupleItems(args)
	if err != nil {
		return err
	}
	if len(items) < len(targets) {
		return invalidArgf("expected at least %d args, got %d", len(targets), len(items))
	}
	if err := unpackItems(items[:len(targets)], targets); err != nil {
		return err
	}
	*rest = append([]Form{}, items[len(targets):]...)
	return nil
}

// As converts a single form into target using the Unpack rules.
func (f Form) As(target any) error {
	return unpackOne(f, target)
}

func tupleItems(args Form) ([]Form, error) {
	switch args.Kind {
	case KindList, KindVector:
		return args.Items, nil
	case KindNil:
		return nil, nil
	default:
		return nil, invalidArgf("expected argument list, got %s", args.KindName())
	}
}

func unpackItems(items []Form, targets []any) error {
	for i, t := range targets {
		if err := unpackOne(items[i], t); err != nil {
			if e, ok := err.(*Error); ok && e.Kind == ErrorInvalidArgument {
				return invalidArgf("arg %d: %s", i+1, e.Detail)
			}
			return err
		}
	}
	return nil
}

func unpackOne(f Form, target any) error {
	switch t := target.(type) {
	case *Form:
		*t = f
	case *int64:
		n, err := toInt(f)
		if err != nil {
			return err
		}
		*t = n
	case *float64:
		switch f.Kind {
		case KindInt:
			*t = float64(f.Int)
		case KindFloat:
			*t = f.Float
		default:
			return mismatch("number", f)
		}
	case *string:
		if f.Kind != KindString {
			return mismatch("String", f)
		}
		*t = f.Str
	case *bool:
		*t = f.Truthy()
	case *Symbol:
		if f.Kind != KindSymbol {
			return mismatch("Symbol", f)
		}
		*t = Symbol(f.Str)
	case *Callable:
		if !f.IsCallable() {
			return mismatch("function", f)
		}
		*t = Callable(f)
	case **Atom:
		if f.Kind != KindAtom {
			return mismatch("Atom", f)
		}
		*t = f.Atom
	case **HashMap:
		switch f.Kind {
		case KindHashMap:
			*t = f.Map
		case KindNil:
			*t = NewHashMap()
		default:
			return mismatch("HashMap", f)
		}
	case *[]Form:
		items, err := seqItems(f)
		if err != nil {
			return err
		}
		*t = items
	case *[]Symbol:
		items, err := seqItems(f)
		if err != nil {
			return err
		}
		syms := make([]Symbol, len(items))
		for i, item := range items {
			if err := unpackOne(item, &syms[i]); err != nil {
				return err
			}
		}
		*t = syms
	case *[]int64:
		items, err := seqItems(f)
		if err != nil {
			return err
		}
		ns := make([]int64, len(items))
		for i, item := range items {
			if err := unpackOne(item, &ns[i]); err != nil {
				return err
			}
		}
		*t = ns
	default:
		return invalidArgf("unsupported unpack target %T", target)
	}
	return nil
}

func toInt(f Form) (int64, error) {
	switch f.Kind {
	case KindInt:
		return f.Int, nil
	case KindFloat:
		if math.IsNaN(f.Float) || math.IsInf(f.Float, 0) {
			return 0, numberConversionf("cannot convert %v to an integer", f.Float)
		}
		return int64(f.Float), nil
	default:
		return 0, mismatch("Integer", f)
	}
}

func seqItems(f Form) ([]Form, error) {
	switch f.Kind {
	case KindList, KindVector:
		return f.Items, nil
	case KindNil:
		return []Form{}, nil
	default:
		return nil, mismatch("sequence", f)
	}
}

func mismatch(want string, got Form) error {
	return invalidArgf("expected %s, got %s", want, got.KindName())
}
