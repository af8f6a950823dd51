package risp

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
)

// Definition is a persisted top-level def! or defmacro! form.
type Definition struct {
	Name   string
	Source string
}

// DefinitionStore persists top-level definitions so a later session can
// replay them.
type DefinitionStore interface {
	Append(ctx context.Context, name, source string) error
	Definitions(ctx context.Context) ([]Definition, error)
	Delete(ctx context.Context, name string) error
	Clear(ctx context.Context) error
}

type Options struct {
	Out       io.Writer       // destination of prn and println, os.Stdout when nil
	Store     DefinitionStore // nil disables persistence
	MaxTraces int             // 1000 when zero
}

// Interpreter is a session: a populated root environment, the trace
// history of top-level evaluations and an optional definition store.
// It is not safe for concurrent use.
type Interpreter struct {
	env    *Env
	out    io.Writer
	store  DefinitionStore
	traces traceRing
	argv   []string
}

func NewInterpreter(ctx context.Context, opts Options) (*Interpreter, error) {
	in := &Interpreter{
		out:    opts.Out,
		store:  opts.Store,
		traces: traceRing{max: opts.MaxTraces},
	}
	if in.out == nil {
		in.out = os.Stdout
	}
	if in.traces.max <= 0 {
		in.traces.max = 1000
	}
	if err := in.reset(ctx); err != nil {
		return nil, err
	}
	return in, nil
}

// reset rebuilds the root environment and replays stored definitions.
func (in *Interpreter) reset(ctx context.Context) error {
	env := NewRootEnv()
	if err := Populate(env, in.out); err != nil {
		return fmt.Errorf("populate: %w", err)
	}
	env.Set("traces", Native(named("traces", in.builtinTraces)))
	in.env = env
	in.bindArgs()

	if in.store == nil {
		return nil
	}
	defs, err := in.store.Definitions(ctx)
	if err != nil {
		return fmt.Errorf("load definitions: %w", err)
	}
	for _, d := range defs {
		form, err := Read(d.Source)
		if err != nil {
			log.Printf("replay %s: %v", d.Name, err)
			continue
		}
		if _, err := Eval(form, env); err != nil {
			log.Printf("replay %s: %v", d.Name, err)
		}
	}
	return nil
}

func (in *Interpreter) Env() *Env {
	return in.env
}

// SetArgs binds *ARGV* to argv as a list of strings.
func (in *Interpreter) SetArgs(argv []string) {
	in.argv = append([]string{}, argv...)
	in.bindArgs()
}

func (in *Interpreter) bindArgs() {
	items := make([]Form, len(in.argv))
	for i, a := range in.argv {
		items[i] = Str(a)
	}
	in.env.Set("*ARGV*", List(items...))
}

// EvalString reads every top-level form in src and evaluates them in
// order, returning the last value. The first error stops evaluation.
func (in *Interpreter) EvalString(ctx context.Context, src string) (Form, error) {
	forms, err := ReadAll(src)
	if err != nil {
		return Form{}, err
	}
	result := Nil()
	for _, f := range forms {
		result, err = in.EvalForm(ctx, f)
		if err != nil {
			return Form{}, err
		}
	}
	return result, nil
}

// EvalFile evaluates the file at path as load-file does.
func (in *Interpreter) EvalFile(ctx context.Context, path string) (Form, error) {
	return in.EvalForm(ctx, List(Sym("load-file"), Str(path)))
}

// EvalForm evaluates one top-level form, records a trace for it and, when
// it is a successful def! or defmacro! after macro expansion, persists
// its source as written.
func (in *Interpreter) EvalForm(ctx context.Context, form Form) (Form, error) {
	trace := Trace{
		ID:        uuid.New().String(),
		Entry:     PrStr(form, true),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	// Expanding first lets a macro call that expands to def! be persisted.
	expanded, _, err := macroexpand(form, in.env)
	var result Form
	if err == nil {
		result, err = Eval(expanded, in.env)
	}
	if err != nil {
		trace.Error = err.Error()
		in.traces.append(trace)
		return Form{}, err
	}
	trace.Result = result
	in.traces.append(trace)

	if name, ok := definitionName(expanded); ok && in.store != nil {
		if err := in.store.Append(ctx, name, trace.Entry); err != nil {
			return Form{}, fmt.Errorf("persist %s: %w", name, err)
		}
	}
	return result, nil
}

// definitionName reports the symbol bound by a top-level def! or
// defmacro! form.
func definitionName(form Form) (string, bool) {
	if form.Kind != KindList || len(form.Items) < 2 {
		return "", false
	}
	head, name := form.Items[0], form.Items[1]
	if !head.IsSymbolNamed("def!") && !head.IsSymbolNamed("defmacro!") {
		return "", false
	}
	if name.Kind != KindSymbol {
		return "", false
	}
	return name.Str, true
}

// Traces returns up to n of the most recent traces, oldest first. n < 0
// returns all of them.
func (in *Interpreter) Traces(n int) []Trace {
	return in.traces.last(n)
}

func (in *Interpreter) builtinTraces(args Form) (Form, error) {
	n := int64(-1)
	switch len(args.Items) {
	case 0:
	case 1:
		if err := Unpack(args, &n); err != nil {
			return Form{}, err
		}
	default:
		return Form{}, invalidArgf("expected 0 or 1 args, got %d", len(args.Items))
	}
	traces := in.traces.last(int(n))
	items := make([]Form, len(traces))
	for i := range traces {
		items[i] = traces[i].ToForm()
	}
	return List(items...), nil
}

// Definitions lists the persisted definitions in replay order.
func (in *Interpreter) Definitions(ctx context.Context) ([]Definition, error) {
	if in.store == nil {
		return nil, nil
	}
	return in.store.Definitions(ctx)
}

// Forget removes every stored definition of name and rebuilds the session
// from what remains.
func (in *Interpreter) Forget(ctx context.Context, name string) error {
	if in.store == nil {
		return fmt.Errorf("forget %s: no definition store", name)
	}
	if err := in.store.Delete(ctx, name); err != nil {
		return fmt.Errorf("forget %s: %w", name, err)
	}
	return in.reset(ctx)
}

// Clear drops all definitions, traces and stored state.
func (in *Interpreter) Clear(ctx context.Context) error {
	if in.store != nil {
		if err := in.store.Clear(ctx); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
	}
	in.traces.traces = nil
	return in.reset(ctx)
}
