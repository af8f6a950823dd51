package risp

import (
	"io"
	"maps"
)

// Populate installs the primitive library and the prelude into env.
// prn and println write to out.
func Populate(env *Env, out io.Writer) error {
	for name, fn := range Builtins(out) {
		env.Set(name, Native(named(name, fn)))
	}
	env.Set("*host-language*", Str("go"))
	env.Set("*ARGV*", List())
	return loadPrelude(env)
}

// Builtins returns every primitive keyed by the name it is bound to.
func Builtins(out io.Writer) map[string]NativeFn {
	m := make(map[string]NativeFn)
	maps.Copy(m, numericBuiltins())
	maps.Copy(m, predicateBuiltins())
	maps.Copy(m, sequenceBuiltins())
	maps.Copy(m, mapBuiltins())
	maps.Copy(m, ioBuiltins(out))
	maps.Copy(m, atomBuiltins())
	maps.Copy(m, miscBuiltins())
	return m
}

// named labels argument errors raised by fn with the primitive's name.
func named(name string, fn NativeFn) NativeFn {
	return func(args Form) (Form, error) {
		v, err := fn(args)
		if err != nil {
			return Form{}, withOp(name, err)
		}
		return v, nil
	}
}

func numericBuiltins() map[string]NativeFn {
	return map[string]NativeFn{
		"+": arith(0,
			func(a, b int64) (int64, error) { return a + b, nil },
			func(a, b float64) (float64, error) { return a + b, nil }),
		"-": arith(0,
			func(a, b int64) (int64, error) { return a - b, nil },
			func(a, b float64) (float64, error) { return a - b, nil }),
		"*": arith(1,
			func(a, b int64) (int64, error) { return a * b, nil },
			func(a, b float64) (float64, error) { return a * b, nil }),
		"/": arith(1,
			func(a, b int64) (int64, error) {
				if b == 0 {
					return 0, invalidArgf("division by zero")
				}
				return a / b, nil
			},
			func(a, b float64) (float64, error) {
				if b == 0 {
					return 0, invalidArgf("division by zero")
				}
				return a / b, nil
			}),
		"<":  compare(func(c int) bool { return c < 0 }),
		"<=": compare(func(c int) bool { return c <= 0 }),
		">":  compare(func(c int) bool { return c > 0 }),
		">=": compare(func(c int) bool { return c >= 0 }),
		"=": func(args Form) (Form, error) {
			var a, b Form
			if err := Unpack(args, &a, &b); err != nil {
				return Form{}, err
			}
			return Bool(Equal(a, b)), nil
		},
	}
}

// arith folds its arguments left to right starting from the first one.
// Integers stay integers until a float is seen.
func arith(identity int64, intOp func(a, b int64) (int64, error), floatOp func(a, b float64) (float64, error)) NativeFn {
	return func(args Form) (Form, error) {
		if len(args.Items) == 0 {
			return Int(identity), nil
		}
		acc := args.Items[0]
		if !acc.IsNumber() {
			return Form{}, mismatch("number", acc)
		}
		for _, x := range args.Items[1:] {
			if !x.IsNumber() {
				return Form{}, mismatch("number", x)
			}
			if acc.Kind == KindInt && x.Kind == KindInt {
				n, err := intOp(acc.Int, x.Int)
				if err != nil {
					return Form{}, err
				}
				acc = Int(n)
				continue
			}
			f, err := floatOp(toFloat(acc), toFloat(x))
			if err != nil {
				return Form{}, err
			}
			acc = Float(f)
		}
		return acc, nil
	}
}

func toFloat(f Form) float64 {
	if f.Kind == KindInt {
		return float64(f.Int)
	}
	return f.Float
}

func compare(ok func(c int) bool) NativeFn {
	return func(args Form) (Form, error) {
		var a, b Form
		if err := Unpack(args, &a, &b); err != nil {
			return Form{}, err
		}
		if !a.IsNumber() {
			return Form{}, mismatch("number", a)
		}
		if !b.IsNumber() {
			return Form{}, mismatch("number", b)
		}
		var c int
		if a.Kind == KindInt && b.Kind == KindInt {
			c = cmp3(a.Int < b.Int, a.Int > b.Int)
		} else {
			fa, fb := toFloat(a), toFloat(b)
			c = cmp3(fa < fb, fa > fb)
		}
		return Bool(ok(c)), nil
	}
}

func cmp3(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	default:
		return 0
	}
}

func predicate(test func(Form) bool) NativeFn {
	return func(args Form) (Form, error) {
		var x Form
		if err := Unpack(args, &x); err != nil {
			return Form{}, err
		}
		return Bool(test(x)), nil
	}
}

func predicateBuiltins() map[string]NativeFn {
	return map[string]NativeFn{
		"nil?":        predicate(Form.IsNil),
		"true?":       predicate(func(f Form) bool { return f.Kind == KindBool && f.Bool }),
		"false?":      predicate(func(f Form) bool { return f.Kind == KindBool && !f.Bool }),
		"symbol?":     predicate(Form.IsSymbol),
		"keyword?":    predicate(Form.IsKeyword),
		"string?":     predicate(Form.IsString),
		"number?":     predicate(Form.IsNumber),
		"fn?":         predicate(Form.IsCallable),
		"macro?":      predicate(Form.IsMacro),
		"list?":       predicate(Form.IsList),
		"vector?":     predicate(Form.IsVector),
		"map?":        predicate(Form.IsHashMap),
		"sequential?": predicate(Form.IsSequential),
		"atom?":       predicate(Form.IsAtom),
		"empty?": func(args Form) (Form, error) {
			var x Form
			if err := Unpack(args, &x); err != nil {
				return Form{}, err
			}
			switch x.Kind {
			case KindNil:
				return Bool(true), nil
			case KindList, KindVector:
				return Bool(len(x.Items) == 0), nil
			case KindHashMap:
				return Bool(x.Map.Len() == 0), nil
			case KindString:
				return Bool(x.Str == ""), nil
			default:
				return Form{}, notIterable(x)
			}
		},
	}
}
