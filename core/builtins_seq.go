package risp

import "unicode/utf8"

func sequenceBuiltins() map[string]NativeFn {
	return map[string]NativeFn{
		"list": func(args Form) (Form, error) {
			return List(append([]Form{}, args.Items...)...), nil
		},
		"vector": func(args Form) (Form, error) {
			return Vector(append([]Form{}, args.Items...)...), nil
		},
		"vec": func(args Form) (Form, error) {
			var items []Form
			if err := Unpack(args, &items); err != nil {
				return Form{}, err
			}
			return Vector(append([]Form{}, items...)...), nil
		},
		"cons": func(args Form) (Form, error) {
			var x Form
			var items []Form
			if err := Unpack(args, &x, &items); err != nil {
				return Form{}, err
			}
			return List(append([]Form{x}, items...)...), nil
		},
		"concat": func(args Form) (Form, error) {
			result := []Form{}
			for _, arg := range args.Items {
				var items []Form
				if err := arg.As(&items); err != nil {
					return Form{}, err
				}
				result = append(result, items...)
			}
			return List(result...), nil
		},
		"count": func(args Form) (Form, error) {
			var x Form
			if err := Unpack(args, &x); err != nil {
				return Form{}, err
			}
			switch x.Kind {
			case KindNil:
				return Int(0), nil
			case KindList, KindVector:
				return Int(int64(len(x.Items))), nil
			case KindHashMap:
				return Int(int64(x.Map.Len())), nil
			case KindString:
				return Int(int64(utf8.RuneCountInString(x.Str))), nil
			default:
				return Form{}, notIterable(x)
			}
		},
		"first": func(args Form) (Form, error) {
			var items []Form
			if err := Unpack(args, &items); err != nil {
				return Form{}, err
			}
			if len(items) == 0 {
				return Nil(), nil
			}
			return items[0], nil
		},
		"rest": func(args Form) (Form, error) {
			var items []Form
			if err := Unpack(args, &items); err != nil {
				return Form{}, err
			}
			if len(items) == 0 {
				return List(), nil
			}
			return List(append([]Form{}, items[1:]...)...), nil
		},
		"nth": func(args Form) (Form, error) {
			var items []Form
			var idx int64
			if err := Unpack(args, &items, &idx); err != nil {
				return Form{}, err
			}
			if idx < 0 {
				return Form{}, numberConversionf("index %d is negative", idx)
			}
			if idx >= int64(len(items)) {
				return Form{}, invalidArgf("index %d out of range for length %d", idx, len(items))
			}
			return items[idx], nil
		},
		"conj": func(args Form) (Form, error) {
			var coll Form
			var xs []Form
			if err := UnpackRest(args, &xs, &coll); err != nil {
				return Form{}, err
			}
			switch coll.Kind {
			case KindList, KindNil:
				result := make([]Form, 0, len(coll.Items)+len(xs))
				for i := len(xs) - 1; i >= 0; i-- {
					result = append(result, xs[i])
				}
				return List(append(result, coll.Items...)...), nil
			case KindVector:
				result := append(append([]Form{}, coll.Items...), xs...)
				return Vector(result...), nil
			default:
				return Form{}, mismatch("sequence", coll)
			}
		},
		"seq": func(args Form) (Form, error) {
			var x Form
			if err := Unpack(args, &x); err != nil {
				return Form{}, err
			}
			switch x.Kind {
			case KindNil:
				return Nil(), nil
			case KindList, KindVector:
				if len(x.Items) == 0 {
					return Nil(), nil
				}
				return List(append([]Form{}, x.Items...)...), nil
			case KindString:
				if x.Str == "" {
					return Nil(), nil
				}
				chars := []Form{}
				for _, r := range x.Str {
					chars = append(chars, Str(string(r)))
				}
				return List(chars...), nil
			default:
				return Form{}, notIterable(x)
			}
		},
		"apply": func(args Form) (Form, error) {
			var fn Callable
			var rest []Form
			if err := UnpackRest(args, &rest, &fn); err != nil {
				return Form{}, err
			}
			if len(rest) == 0 {
				return Apply(Form(fn), nil)
			}
			var last []Form
			if err := rest[len(rest)-1].As(&last); err != nil {
				return Form{}, err
			}
			callArgs := append(append([]Form{}, rest[:len(rest)-1]...), last...)
			return Apply(Form(fn), callArgs)
		},
		"map": func(args Form) (Form, error) {
			var fn Callable
			var items []Form
			if err := Unpack(args, &fn, &items); err != nil {
				return Form{}, err
			}
			result := make([]Form, len(items))
			for i, item := range items {
				v, err := Apply(Form(fn), []Form{item})
				if err != nil {
					return Form{}, err
				}
				result[i] = v
			}
			return List(result...), nil
		},
	}
}

func mapBuiltins() map[string]NativeFn {
	return map[string]NativeFn{
		"hash-map": func(args Form) (Form, error) {
			return HashMapOf(args.Items...)
		},
		"assoc": func(args Form) (Form, error) {
			var m *HashMap
			var kvs []Form
			if err := UnpackRest(args, &kvs, &m); err != nil {
				return Form{}, err
			}
			if len(kvs)%2 != 0 {
				return Form{}, invalidArgf("odd number of key/value elements (%d)", len(kvs))
			}
			c := m.Clone()
			for i := 0; i < len(kvs); i += 2 {
				c.Set(kvs[i], kvs[i+1])
			}
			return FromMap(c), nil
		},
		"dissoc": func(args Form) (Form, error) {
			var m *HashMap
			var keys []Form
			if err := UnpackRest(args, &keys, &m); err != nil {
				return Form{}, err
			}
			return FromMap(m.Without(keys...)), nil
		},
		"get": func(args Form) (Form, error) {
			var m *HashMap
			var k Form
			if err := Unpack(args, &m, &k); err != nil {
				return Form{}, err
			}
			if v, ok := m.Get(k); ok {
				return v, nil
			}
			return Nil(), nil
		},
		"contains?": func(args Form) (Form, error) {
			var m *HashMap
			var k Form
			if err := Unpack(args, &m, &k); err != nil {
				return Form{}, err
			}
			return Bool(m.Contains(k)), nil
		},
		"keys": func(args Form) (Form, error) {
			var m *HashMap
			if err := Unpack(args, &m); err != nil {
				return Form{}, err
			}
			return List(m.Keys()...), nil
		},
		"vals": func(args Form) (Form, error) {
			var m *HashMap
			if err := Unpack(args, &m); err != nil {
				return Form{}, err
			}
			return List(m.Vals()...), nil
		},
	}
}
