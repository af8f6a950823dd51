package risp

// specialForm evaluates one special form. When tail is true the caller
// continues its loop with next in nextEnv; otherwise next is the result.
type specialForm func(list []Form, env *Env) (next Form, nextEnv *Env, tail bool, err error)

var specialForms map[string]specialForm

func init() {
	specialForms = map[string]specialForm{
		"def!":             evalDef,
		"defmacro!":        evalDefMacro,
		"let*":             evalLet,
		"do":               evalDo,
		"if":               evalIf,
		"fn*":              evalFn,
		"quote":            evalQuote,
		"quasiquote":       evalQuasiquote,
		"quasiquoteexpand": evalQuasiquoteExpand,
		"macroexpand":      evalMacroexpand,
		"eval":             evalEval,
	}
}

// Eval evaluates form in env. Tail positions of special forms and user
// function bodies are evaluated by looping, so tail recursion runs in
// constant Go stack.
func Eval(form Form, env *Env) (Form, error) {
	for {
		if form.Kind != KindList {
			return evalAST(form, env)
		}
		if len(form.Items) == 0 {
			return form, nil
		}

		expanded, changed, err := macroexpand(form, env)
		if err != nil {
			return Form{}, err
		}
		if changed {
			form = expanded
			continue
		}

		if head := form.Items[0]; head.Kind == KindSymbol {
			if sf, ok := specialForms[head.Str]; ok {
				next, nextEnv, tail, err := sf(form.Items, env)
				if err != nil {
					return Form{}, err
				}
				if !tail {
					return next, nil
				}
				form, env = next, nextEnv
				continue
			}
		}

		evaluated, err := evalAST(form, env)
		if err != nil {
			return Form{}, err
		}
		fn, args := evaluated.Items[0], evaluated.Items[1:]
		switch fn.Kind {
		case KindNative:
			return fn.Native(List(args...))
		case KindUserFn:
			if fn.Fn.IsMacro {
				return Form{}, invalidApplyf("cannot apply a macro")
			}
			callEnv, err := bindParams(fn.Fn, args)
			if err != nil {
				return Form{}, err
			}
			form, env = fn.Fn.Body, callEnv
		default:
			return Form{}, notCallable(fn)
		}
	}
}

// evalAST resolves symbols and evaluates the elements of collections,
// rebuilding a container of the same shape. Other forms evaluate to
// themselves.
func evalAST(form Form, env *Env) (Form, error) {
	switch form.Kind {
	case KindSymbol:
		return env.Get(form.Str)
	case KindList, KindVector:
		items := make([]Form, len(form.Items))
		for i, item := range form.Items {
			v, err := Eval(item, env)
			if err != nil {
				return Form{}, err
			}
			items[i] = v
		}
		if form.Kind == KindVector {
			return Vector(items...), nil
		}
		return List(items...), nil
	case KindHashMap:
		m := NewHashMap()
		for k, v := range form.Map.All() {
			ek, err := Eval(k, env)
			if err != nil {
				return Form{}, err
			}
			ev, err := Eval(v, env)
			if err != nil {
				return Form{}, err
			}
			m.Set(ek, ev)
		}
		return FromMap(m), nil
	default:
		return form, nil
	}
}

// Apply calls fn with already evaluated args. It is the calling
// convention used by primitives that call back into user code.
func Apply(fn Form, args []Form) (Form, error) {
	switch fn.Kind {
	case KindNative:
		return fn.Native(List(args...))
	case KindUserFn:
		if fn.Fn.IsMacro {
			return Form{}, invalidApplyf("cannot apply a macro")
		}
		callEnv, err := bindParams(fn.Fn, args)
		if err != nil {
			return Form{}, err
		}
		return Eval(fn.Fn.Body, callEnv)
	default:
		return Form{}, notCallable(fn)
	}
}

// bindParams creates the call environment for fn: a child of its
// closure with each parameter bound positionally. Extra arguments go to
// the rest parameter as a List, or are dropped when there is none.
func bindParams(fn *UserFn, args []Form) (*Env, error) {
	if len(args) < len(fn.Params) {
		return nil, invalidArgf("expected %d args, got %d", len(fn.Params), len(args))
	}
	env := NewEnv(fn.Closure)
	for i, p := range fn.Params {
		env.Set(p, args[i])
	}
	if fn.Rest != "" {
		env.Set(fn.Rest, List(append([]Form{}, args[len(fn.Params):]...)...))
	}
	return env, nil
}

// macroFor returns the macro bound to the head symbol of form, if any.
// A head that is unbound is simply not a macro.
func macroFor(form Form, env *Env) (*UserFn, bool) {
	if form.Kind != KindList || len(form.Items) == 0 || form.Items[0].Kind != KindSymbol {
		return nil, false
	}
	v, ok := env.Find(form.Items[0].Str)
	if !ok || !v.IsMacro() {
		return nil, false
	}
	return v.Fn, true
}

// macroexpand expands form until its head is no longer a macro.
func macroexpand(form Form, env *Env) (Form, bool, error) {
	changed := false
	for {
		m, ok := macroFor(form, env)
		if !ok {
			return form, changed, nil
		}
		callEnv, err := bindParams(m, form.Items[1:])
		if err != nil {
			return Form{}, false, withOp(form.Items[0].Str, err)
		}
		form, err = Eval(m.Body, callEnv)
		if err != nil {
			return Form{}, false, err
		}
		changed = true
	}
}

func evalDef(list []Form, env *Env) (Form, *Env, bool, error) {
	if len(list) != 3 || list[1].Kind != KindSymbol {
		return Form{}, nil, false, invalidArgf("def!: expected (def! symbol expr)")
	}
	v, err := Eval(list[2], env)
	if err != nil {
		return Form{}, nil, false, err
	}
	env.Set(list[1].Str, v)
	return v, nil, false, nil
}

func evalDefMacro(list []Form, env *Env) (Form, *Env, bool, error) {
	if len(list) != 3 || list[1].Kind != KindSymbol {
		return Form{}, nil, false, invalidArgf("defmacro!: expected (defmacro! symbol fn)")
	}
	v, err := Eval(list[2], env)
	if err != nil {
		return Form{}, nil, false, err
	}
	if v.Kind != KindUserFn {
		return Form{}, nil, false, invalidArgf("defmacro!: expected a function, got %s", v.KindName())
	}
	m := *v.Fn
	m.IsMacro = true
	macro := Form{Kind: KindUserFn, Fn: &m, Meta: v.Meta}
	env.Set(list[1].Str, macro)
	return macro, nil, false, nil
}

func evalLet(list []Form, env *Env) (Form, *Env, bool, error) {
	if len(list) != 3 {
		return Form{}, nil, false, invalidArgf("let*: expected (let* bindings body)")
	}
	bindings := list[1]
	if !bindings.IsSequential() {
		return Form{}, nil, false, invalidArgf("let*: bindings must be a list or vector, got %s", bindings.KindName())
	}
	if len(bindings.Items)%2 != 0 {
		return Form{}, nil, false, invalidArgf("let*: odd number of binding forms")
	}
	letEnv := NewEnv(env)
	for i := 0; i < len(bindings.Items); i += 2 {
		name := bindings.Items[i]
		if name.Kind != KindSymbol {
			return Form{}, nil, false, invalidArgf("let*: binding name must be a symbol, got %s", name.KindName())
		}
		v, err := Eval(bindings.Items[i+1], letEnv)
		if err != nil {
			return Form{}, nil, false, err
		}
		letEnv.Set(name.Str, v)
	}
	return list[2], letEnv, true, nil
}

func evalDo(list []Form, env *Env) (Form, *Env, bool, error) {
	if len(list) == 1 {
		return Nil(), nil, false, nil
	}
	for _, f := range list[1 : len(list)-1] {
		if _, err := Eval(f, env); err != nil {
			return Form{}, nil, false, err
		}
	}
	return list[len(list)-1], env, true, nil
}

func evalIf(list []Form, env *Env) (Form, *Env, bool, error) {
	if len(list) != 3 && len(list) != 4 {
		return Form{}, nil, false, invalidArgf("if: expected (if cond then [else]), got %d args", len(list)-1)
	}
	cond, err := Eval(list[1], env)
	if err != nil {
		return Form{}, nil, false, err
	}
	if cond.Truthy() {
		return list[2], env, true, nil
	}
	if len(list) == 4 {
		return list[3], env, true, nil
	}
	return Nil(), nil, false, nil
}

func evalFn(list []Form, env *Env) (Form, *Env, bool, error) {
	if len(list) != 3 {
		return Form{}, nil, false, invalidArgf("fn*: expected (fn* params body)")
	}
	params, rest, err := parseParams(list[1])
	if err != nil {
		return Form{}, nil, false, err
	}
	return NewUserFn(params, rest, list[2], NewEnv(env)), nil, false, nil
}

// parseParams splits a parameter list into fixed names and the optional
// rest name that follows '&'.
func parseParams(list Form) ([]string, string, error) {
	if !list.IsSequential() {
		return nil, "", invalidArgf("fn*: params must be a list or vector, got %s", list.KindName())
	}
	params := []string{}
	for i, p := range list.Items {
		if p.Kind != KindSymbol {
			return nil, "", invalidArgf("fn*: param names must be symbols, got %s", p.KindName())
		}
		if p.Str != "&" {
			params = append(params, p.Str)
			continue
		}
		if i != len(list.Items)-2 || list.Items[i+1].Kind != KindSymbol {
			return nil, "", invalidArgf("fn*: '&' must be followed by exactly one symbol")
		}
		return params, list.Items[i+1].Str, nil
	}
	return params, "", nil
}

func evalQuote(list []Form, env *Env) (Form, *Env, bool, error) {
	if len(list) != 2 {
		return Form{}, nil, false, invalidArgf("quote: expected 1 arg, got %d", len(list)-1)
	}
	return list[1], nil, false, nil
}

func evalQuasiquote(list []Form, env *Env) (Form, *Env, bool, error) {
	if len(list) != 2 {
		return Form{}, nil, false, invalidArgf("quasiquote: expected 1 arg, got %d", len(list)-1)
	}
	return quasiquote(list[1]), env, true, nil
}

func evalQuasiquoteExpand(list []Form, env *Env) (Form, *Env, bool, error) {
	if len(list) != 2 {
		return Form{}, nil, false, invalidArgf("quasiquoteexpand: expected 1 arg, got %d", len(list)-1)
	}
	return quasiquote(list[1]), nil, false, nil
}

func evalMacroexpand(list []Form, env *Env) (Form, *Env, bool, error) {
	if len(list) != 2 {
		return Form{}, nil, false, invalidArgf("macroexpand: expected 1 arg, got %d", len(list)-1)
	}
	expanded, _, err := macroexpand(list[1], env)
	if err != nil {
		return Form{}, nil, false, err
	}
	return expanded, nil, false, nil
}

// evalEval evaluates its argument in the current env, then continues
// with the result in the root env.
func evalEval(list []Form, env *Env) (Form, *Env, bool, error) {
	if len(list) != 2 {
		return Form{}, nil, false, invalidArgf("eval: expected 1 arg, got %d", len(list)-1)
	}
	v, err := Eval(list[1], env)
	if err != nil {
		return Form{}, nil, false, err
	}
	return v, env.Root(), true, nil
}
