package risp

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func newTestEnv(t *testing.T) *Env {
	t.Helper()
	env := NewRootEnv()
	if err := Populate(env, io.Discard); err != nil {
		t.Fatal(err)
	}
	return env
}

// evalAll evaluates every form in input and returns the last value.
func evalAll(env *Env, input string) (Form, error) {
	forms, err := ReadAll(input)
	if err != nil {
		return Form{}, err
	}
	result := Nil()
	for _, f := range forms {
		result, err = Eval(f, env)
		if err != nil {
			return Form{}, err
		}
	}
	return result, nil
}

func testEval(t *testing.T, input, expected string) {
	t.Helper()
	val, err := evalAll(newTestEnv(t), input)
	if err != nil {
		t.Fatalf("eval %q: %v", input, err)
	}
	if got := PrStr(val, true); got != expected {
		t.Fatalf("eval %q: expected %s, got %s", input, expected, got)
	}
}

func testEvalError(t *testing.T, input string, target error) *Error {
	t.Helper()
	_, err := evalAll(newTestEnv(t), input)
	if err == nil {
		t.Fatalf("expected error for %q", input)
	}
	if !errors.Is(err, target) {
		t.Fatalf("eval %q: expected %v, got %v", input, target, err)
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("eval %q: expected *Error, got %T", input, err)
	}
	return e
}

// --- Literals ---

func TestEvalLiterals(t *testing.T) {
	testEval(t, "42", "42")
	testEval(t, "3.14", "3.14")
	testEval(t, "true", "true")
	testEval(t, "false", "false")
	testEval(t, `"hello"`, `"hello"`)
	testEval(t, "nil", "nil")
	testEval(t, ":kw", ":kw")
	testEval(t, "()", "()")
}

func TestEvalCollections(t *testing.T) {
	testEval(t, "[1 (+ 1 1)]", "[1 2]")
	testEval(t, "{:a (+ 1 2)}", "{:a 3}")
	testEval(t, "(list 1 [2 (* 3 1)])", "(1 [2 3])")
}

// --- Arithmetic ---

func TestEvalArithmetic(t *testing.T) {
	testEval(t, "(+ 1 2)", "3")
	testEval(t, "(+)", "0")
	testEval(t, "(+ 1 2.5)", "3.5")
	testEval(t, "(- 10 3 2)", "5")
	testEval(t, "(* 2 3 4)", "24")
	testEval(t, "(/ 7 2)", "3")
	testEval(t, "(/ 7.0 2)", "3.5")
	testEval(t, "(< 1 2)", "true")
	testEval(t, "(>= 2 2)", "true")
	testEval(t, "(> 1 2.5)", "false")
	testEval(t, "(= [1 2] '(1 2))", "true")
}

func TestEvalDivideByZero(t *testing.T) {
	testEvalError(t, "(/ 1 0)", ErrInvalidArgument)
}

// --- If ---

func TestEvalIfTruthy(t *testing.T) {
	testEval(t, `(if true "yes" "no")`, `"yes"`)
	testEval(t, `(if false "yes" "no")`, `"no"`)
	testEval(t, `(if nil "yes" "no")`, `"no"`)
	testEval(t, `(if 0 "yes" "no")`, `"yes"`)
	testEval(t, `(if "" "yes" "no")`, `"yes"`)
	testEval(t, `(if () "yes" "no")`, `"yes"`)
	testEval(t, `(if false "yes")`, "nil")
}

func TestEvalIfArity(t *testing.T) {
	testEvalError(t, "(if)", ErrInvalidArgument)
	testEvalError(t, "(if 1 2 3 4)", ErrInvalidArgument)
}

// --- let*, do, def! ---

func TestEvalLetSequential(t *testing.T) {
	testEval(t, "(let* (x 1 y (+ x 1)) (list x y))", "(1 2)")
	testEval(t, "(let* [x 2 y (* x 3)] y)", "6")
}

func TestEvalLetErrors(t *testing.T) {
	testEvalError(t, "(let* (x) x)", ErrInvalidArgument)
	testEvalError(t, "(let* (1 2) 1)", ErrInvalidArgument)
	testEvalError(t, "(let* 5 1)", ErrInvalidArgument)
}

func TestEvalDo(t *testing.T) {
	testEval(t, "(do 1 2 3)", "3")
	testEval(t, "(do)", "nil")
	testEval(t, "(do (def! a 5) (+ a 1))", "6")
}

func TestEvalDef(t *testing.T) {
	testEval(t, "(def! x 10) (+ x 1)", "11")
	testEval(t, "(def! x 10)", "10")
}

func TestEvalDefFailureLeavesSymbolUnbound(t *testing.T) {
	env := newTestEnv(t)
	if _, err := evalAll(env, "(def! y (undefined-fn))"); !errors.Is(err, ErrUnknownSymbol) {
		t.Fatalf("expected unknown symbol, got %v", err)
	}
	if _, ok := env.Find("y"); ok {
		t.Fatal("y should not be bound after a failed def!")
	}
}

// --- fn* ---

func TestEvalFn(t *testing.T) {
	testEval(t, "((fn* (a b) (+ a b)) 1 2)", "3")
	testEval(t, "((fn* [a b] (list b a)) 1 2)", "(2 1)")
	testEval(t, "((fn* () 7))", "7")
	testEval(t, "(fn* (x) x)", "#<function>")
}

func TestEvalFnIdentity(t *testing.T) {
	for _, v := range []string{"1", `"s"`, "(1 2)", "[1 [2]]", "{:a 1}", ":k", "nil"} {
		testEval(t, fmt.Sprintf("((fn* (x) x) '%s)", v), v)
	}
}

func TestEvalFnRestParams(t *testing.T) {
	testEval(t, "((fn* (a & more) more) 1 2 3)", "(2 3)")
	testEval(t, "((fn* (a & more) more) 1)", "()")
	testEval(t, "((fn* (& all) all))", "()")
	testEval(t, "((fn* (a & more) (list? more)) 1 2)", "true")
}

func TestEvalFnExtraArgsDiscarded(t *testing.T) {
	testEval(t, "((fn* (a) a) 1 2 3)", "1")
}

func TestEvalFnTooFewArgs(t *testing.T) {
	testEvalError(t, "((fn* (a b) a) 1)", ErrInvalidArgument)
}

func TestEvalFnBadParams(t *testing.T) {
	testEvalError(t, "(fn* (a 1) a)", ErrInvalidArgument)
	testEvalError(t, "(fn* (a &) a)", ErrInvalidArgument)
	testEvalError(t, "(fn* (& a b) a)", ErrInvalidArgument)
	testEvalError(t, "(fn* x x)", ErrInvalidArgument)
}

func TestEvalClosureCapturesDefiningScope(t *testing.T) {
	testEval(t, `
		(def! make-adder (fn* (n) (fn* (x) (+ x n))))
		(def! add5 (make-adder 5))
		(add5 10)`, "15")
}

func TestEvalRecursion(t *testing.T) {
	testEval(t, `
		(def! fib (fn* (n) (if (< n 2) n (+ (fib (- n 1)) (fib (- n 2))))))
		(fib 15)`, "610")
}

func TestEvalTailCallsRunInConstantStack(t *testing.T) {
	if testing.Short() {
		t.Skip("long tail loop")
	}
	testEval(t, `
		(def! count-up (fn* (n acc) (if (= n 0) acc (count-up (- n 1) (+ acc 1)))))
		(count-up 1000000 0)`, "1000000")
}

func TestEvalTailCallsThroughLetAndDo(t *testing.T) {
	if testing.Short() {
		t.Skip("long tail loop")
	}
	testEval(t, `
		(def! spin (fn* (n) (let* (m (- n 1)) (do nil (if (> m 0) (spin m) :done)))))
		(spin 200000)`, ":done")
}

// --- quote & quasiquote ---

func TestEvalQuote(t *testing.T) {
	testEval(t, "(quote (1 2 (3 x)))", "(1 2 (3 x))")
	testEval(t, "'sym", "sym")
	testEval(t, "(= (quote (1 2 3)) (list 1 2 3))", "true")
	testEvalError(t, "(quote)", ErrInvalidArgument)
}

func TestEvalQuasiquote(t *testing.T) {
	testEval(t, "(def! a 8) `(1 ~a 3)", "(1 8 3)")
	testEval(t, `(def! b '(1 "b" "d")) `+"`(1 ~@b 3)", `(1 1 "b" "d" 3)`)
	testEval(t, "(def! a 8) `[1 ~a]", "[1 8]")
	testEval(t, "`()", "()")
	testEval(t, "`x", "x")
	testEval(t, "`{:a 1}", "{:a 1}")
	testEval(t, "`(1 (2 ~(+ 1 2)))", "(1 (2 3))")
	testEval(t, "(def! c '()) `(0 ~@c)", "(0)")
}

func TestEvalQuasiquoteExpand(t *testing.T) {
	testEval(t, "(quasiquoteexpand (1 ~a))", "(cons 1 (cons a ()))")
	testEval(t, "(quasiquoteexpand (~@xs 2))", "(concat xs (cons 2 ()))")
	testEval(t, "(quasiquoteexpand [x])", "(vec (cons (quote x) ()))")
	testEval(t, "(quasiquoteexpand ~y)", "y")
}

// --- Macros ---

func TestEvalUnlessMacro(t *testing.T) {
	env := newTestEnv(t)
	if _, err := evalAll(env, "(defmacro! unless (fn* (pred a b) `(if ~pred ~b ~a)))"); err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct {
		input    string
		expected string
	}{
		{"(unless false 7 8)", "7"},
		{"(unless true 7 8)", "8"},
		{"(macroexpand (unless 2 3 4))", "(if 2 4 3)"},
		{"unless", "#<macro>"},
		{"(macro? unless)", "true"},
		{"(fn? unless)", "false"},
	} {
		val, err := evalAll(env, tc.input)
		if err != nil {
			t.Fatalf("eval %q: %v", tc.input, err)
		}
		if got := PrStr(val, true); got != tc.expected {
			t.Fatalf("eval %q: expected %s, got %s", tc.input, tc.expected, got)
		}
	}
}

func TestEvalMacroexpandNonMacro(t *testing.T) {
	testEval(t, "(macroexpand (+ 1 2))", "(+ 1 2)")
	testEval(t, "(macroexpand (no-such-thing 1))", "(no-such-thing 1)")
}

func TestEvalMacroExpandsToMacro(t *testing.T) {
	testEval(t, `
		(defmacro! my-or (fn* (a b) `+"`(if ~a ~a ~b)"+`))
		(defmacro! either (fn* (a b) `+"`(my-or ~a ~b)"+`))
		(either nil 4)`, "4")
}

func TestEvalDefmacroRequiresFunction(t *testing.T) {
	testEvalError(t, "(defmacro! m 1)", ErrInvalidArgument)
}

func TestEvalDefmacroDoesNotChangeOriginalFn(t *testing.T) {
	testEval(t, "(def! f (fn* (x) x)) (defmacro! m f) (f 3)", "3")
}

func TestEvalMacroVariableCapture(t *testing.T) {
	// Macros are unhygienic: the expansion's tmp shadows the caller's.
	testEval(t, `
		(defmacro! pair-with-tmp (fn* (a b) `+"`(let* (tmp ~a) (list tmp ~b))"+`))
		(let* (tmp 5) (pair-with-tmp 1 tmp))`, "(1 1)")
}

func TestEvalCond(t *testing.T) {
	testEval(t, "(cond false 1 true 2)", "2")
	testEval(t, "(cond nil 1 false 2)", "nil")
	testEval(t, "(cond)", "nil")
	testEval(t, "(cond (= 1 1) :one :else :other)", ":one")
	testEvalError(t, "(cond true)", ErrUser)
}

func TestEvalNot(t *testing.T) {
	testEval(t, "(not nil)", "true")
	testEval(t, "(not 0)", "false")
}

// --- eval ---

func TestEvalEvalSpecialForm(t *testing.T) {
	testEval(t, "(eval (list + 1 2))", "3")
	testEval(t, "(eval '(* 2 3))", "6")
	testEval(t, "(def! x 10) (let* (x 1) (eval 'x))", "10")
	testEval(t, "(let* (form '(+ 1 1)) (eval form))", "2")
}

func TestEvalEvalUsesRootEnv(t *testing.T) {
	testEvalError(t, "(let* (y 1) (eval 'y))", ErrUnknownSymbol)
}

// --- Atoms ---

func TestEvalAtomAliasingThroughClosures(t *testing.T) {
	testEval(t, `
		(def! counter (let* (a (atom 0)) (fn* () (swap! a (fn* (x) (+ x 1))))))
		(counter)
		(counter)`, "2")
	testEval(t, `
		(def! a (atom 1))
		(def! f (fn* () (deref a)))
		(reset! a 5)
		(f)`, "5")
	testEval(t, "(def! a (atom 1)) (def! b a) (reset! b 9) @a", "9")
}

// --- Errors ---

func TestEvalUnknownSymbol(t *testing.T) {
	e := testEvalError(t, "undefined-var", ErrUnknownSymbol)
	if e.Name != "undefined-var" {
		t.Fatalf("expected name undefined-var, got %q", e.Name)
	}
	testEvalError(t, "(undefined-fn 1 2)", ErrUnknownSymbol)
}

func TestEvalMacroValueInCallPosition(t *testing.T) {
	env := newTestEnv(t)
	if _, err := evalAll(env, "(defmacro! m (fn* () 1))"); err != nil {
		t.Fatal(err)
	}
	_, err := evalAll(env, "((fn* () m))")
	if !errors.Is(err, ErrInvalidApply) {
		t.Fatalf("expected invalid apply, got %v", err)
	}
}

func TestEvalSignedZeroMapKeys(t *testing.T) {
	testEval(t, "(= -0.0 0.0)", "true")
	testEval(t, "(count {0.0 1 -0.0 2})", "1")
	testEval(t, "(get {0.0 :pos} -0.0)", ":pos")
}

func TestEvalNotCallable(t *testing.T) {
	testEvalError(t, "(1 2 3)", ErrNotCallable)
	testEvalError(t, `("f")`, ErrNotCallable)
}

func TestEvalThrow(t *testing.T) {
	e := testEvalError(t, `(throw {:msg "boom"})`, ErrUser)
	if got := PrStr(e.Value, true); got != `{:msg "boom"}` {
		t.Fatalf("unexpected payload %s", got)
	}
}

func TestEvalShadowing(t *testing.T) {
	env := newTestEnv(t)
	val, err := evalAll(env, "(def! x 1) (let* (x 2) x)")
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(val, Int(2)) {
		t.Fatalf("expected inner binding 2, got %s", val)
	}
	val, err = evalAll(env, "x")
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(val, Int(1)) {
		t.Fatalf("expected outer binding 1, got %s", val)
	}
}

func TestEvalLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.risp")
	src := "(def! sq (fn* (x) (* x x)))\n; comment\n(def! nine (sq 3))"
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	env := newTestEnv(t)
	val, err := evalAll(env, fmt.Sprintf("(load-file %q)", path))
	if err != nil {
		t.Fatal(err)
	}
	if !val.IsNil() {
		t.Fatalf("expected nil, got %s", val)
	}
	val, err = evalAll(env, "nine")
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(val, Int(9)) {
		t.Fatalf("expected 9, got %s", val)
	}
}

func TestApply(t *testing.T) {
	env := newTestEnv(t)
	fn, err := evalAll(env, "(fn* (a & r) (cons a r))")
	if err != nil {
		t.Fatal(err)
	}
	val, err := Apply(fn, []Form{Int(1), Int(2), Int(3)})
	if err != nil {
		t.Fatal(err)
	}
	if got := val.String(); got != "(1 2 3)" {
		t.Fatalf("expected (1 2 3), got %s", got)
	}
	if _, err := Apply(Int(1), nil); !errors.Is(err, ErrNotCallable) {
		t.Fatalf("expected not callable, got %v", err)
	}
}
