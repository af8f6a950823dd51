package risp

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

func joinForms(items []Form, readably bool, sep string) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = PrStr(item, readably)
	}
	return strings.Join(parts, sep)
}

func ioBuiltins(out io.Writer) map[string]NativeFn {
	return map[string]NativeFn{
		"pr-str": func(args Form) (Form, error) {
			return Str(joinForms(args.Items, true, " ")), nil
		},
		"str": func(args Form) (Form, error) {
			return Str(joinForms(args.Items, false, "")), nil
		},
		"prn": func(args Form) (Form, error) {
			fmt.Fprintln(out, joinForms(args.Items, true, " "))
			return Nil(), nil
		},
		"println": func(args Form) (Form, error) {
			fmt.Fprintln(out, joinForms(args.Items, false, " "))
			return Nil(), nil
		},
		"read-string": func(args Form) (Form, error) {
			var s string
			if err := Unpack(args, &s); err != nil {
				return Form{}, err
			}
			return Read(s)
		},
		"slurp": func(args Form) (Form, error) {
			var path string
			if err := Unpack(args, &path); err != nil {
				return Form{}, err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return Form{}, invalidArgf("%v", err)
			}
			return Str(string(data)), nil
		},
	}
}

func atomBuiltins() map[string]NativeFn {
	return map[string]NativeFn{
		"atom": func(args Form) (Form, error) {
			var v Form
			if err := Unpack(args, &v); err != nil {
				return Form{}, err
			}
			return NewAtom(v), nil
		},
		"deref": func(args Form) (Form, error) {
			var a *Atom
			if err := Unpack(args, &a); err != nil {
				return Form{}, err
			}
			return a.Value, nil
		},
		"reset!": func(args Form) (Form, error) {
			var a *Atom
			var v Form
			if err := Unpack(args, &a, &v); err != nil {
				return Form{}, err
			}
			a.Value = v
			return v, nil
		},
		"swap!": func(args Form) (Form, error) {
			var a *Atom
			var fn Callable
			var extra []Form
			if err := UnpackRest(args, &extra, &a, &fn); err != nil {
				return Form{}, err
			}
			v, err := Apply(Form(fn), append([]Form{a.Value}, extra...))
			if err != nil {
				return Form{}, err
			}
			a.Value = v
			return v, nil
		},
	}
}

func miscBuiltins() map[string]NativeFn {
	return map[string]NativeFn{
		"throw": func(args Form) (Form, error) {
			var payload Form
			if err := Unpack(args, &payload); err != nil {
				return Form{}, err
			}
			return Form{}, UserError(payload)
		},
		"symbol": func(args Form) (Form, error) {
			var name string
			if err := Unpack(args, &name); err != nil {
				return Form{}, err
			}
			return Sym(name), nil
		},
		"keyword": func(args Form) (Form, error) {
			var x Form
			if err := Unpack(args, &x); err != nil {
				return Form{}, err
			}
			switch x.Kind {
			case KindKeyword:
				return x, nil
			case KindString:
				return Keyword(x.Str), nil
			default:
				return Form{}, mismatch("String", x)
			}
		},
		"meta": func(args Form) (Form, error) {
			var x Form
			if err := Unpack(args, &x); err != nil {
				return Form{}, err
			}
			return x.MetaOrNil(), nil
		},
		"with-meta": func(args Form) (Form, error) {
			var x, meta Form
			if err := Unpack(args, &x, &meta); err != nil {
				return Form{}, err
			}
			return x.WithMeta(meta)
		},
		"time-ms": func(args Form) (Form, error) {
			if err := Unpack(args); err != nil {
				return Form{}, err
			}
			return Int(time.Now().UnixMilli()), nil
		},
		"uuid": func(args Form) (Form, error) {
			if err := Unpack(args); err != nil {
				return Form{}, err
			}
			return Str(uuid.New().String()), nil
		},
	}
}
