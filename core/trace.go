package risp

// Trace captures one top-level evaluation: the source of the entry form,
// its result or error, and when it ran.
type Trace struct {
	ID        string // random UUID
	Entry     string // printed source of the top-level form
	Result    Form   // final value, nil on error
	Error     string // non-empty on error
	Timestamp string // RFC 3339
}

// ToForm converts a Trace to a map for the traces builtin.
func (t *Trace) ToForm() Form {
	m := NewHashMap()
	m.Set(Keyword("id"), Str(t.ID))
	m.Set(Keyword("entry"), Str(t.Entry))
	m.Set(Keyword("timestamp"), Str(t.Timestamp))
	if t.Error != "" {
		m.Set(Keyword("result"), Nil())
		m.Set(Keyword("error"), Str(t.Error))
	} else {
		m.Set(Keyword("result"), t.Result)
		m.Set(Keyword("error"), Nil())
	}
	return FromMap(m)
}

// traceRing keeps the most recent traces up to a cap.
type traceRing struct {
	traces []Trace
	max    int
}

func (r *traceRing) append(t Trace) {
	r.traces = append(r.traces, t)
	if len(r.traces) > r.max {
		excess := len(r.traces) - r.max
		r.traces = r.traces[excess:]
	}
}

// last returns up to n of the most recent traces, oldest first. n < 0
// returns all of them.
func (r *traceRing) last(n int) []Trace {
	if n < 0 || n > len(r.traces) {
		n = len(r.traces)
	}
	out := make([]Trace, n)
	copy(out, r.traces[len(r.traces)-n:])
	return out
}
