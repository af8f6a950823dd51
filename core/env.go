package risp

import "sort"

// Env is one lexical scope. Set writes only to the receiver; lookups
// walk outward through parents.
type Env struct {
	bindings map[string]Form
	parent   *Env
}

func NewRootEnv() *Env {
	return &Env{bindings: make(map[string]Form)}
}

func NewEnv(parent *Env) *Env {
	return &Env{bindings: make(map[string]Form), parent: parent}
}

func (e *Env) Set(name string, value Form) {
	e.bindings[name] = value
}

// Find returns the nearest binding of name.
func (e *Env) Find(name string) (Form, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.bindings[name]; ok {
			return v, true
		}
	}
	return Form{}, false
}

func (e *Env) Get(name string) (Form, error) {
	if v, ok := e.Find(name); ok {
		return v, nil
	}
	return Form{}, unknownSymbol(name)
}

func (e *Env) Root() *Env {
	env := e
	for env.parent != nil {
		env = env.parent
	}
	return env
}

func (e *Env) Parent() *Env {
	return e.parent
}

// Names returns the names bound directly in this scope, sorted.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.bindings))
	for name := range e.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
