package risp

import "iter"

// HashMap maps Forms to Forms with unique keys under Equal. Entries keep
// insertion order. A HashMap reachable from a Form is never mutated;
// operations that change contents work on a Clone.
type HashMap struct {
	keys  []Form
	vals  []Form
	index map[uint64][]int
}

func NewHashMap() *HashMap {
	return &HashMap{index: make(map[uint64][]int)}
}

// HashMapOf builds a map from alternating keys and values.
func HashMapOf(kvs ...Form) (Form, error) {
	if len(kvs)%2 != 0 {
		return Form{}, invalidArgf("hash-map: odd number of key/value elements (%d)", len(kvs))
	}
	m := NewHashMap()
	for i := 0; i < len(kvs); i += 2 {
		m.Set(kvs[i], kvs[i+1])
	}
	return FromMap(m), nil
}

func (m *HashMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

func (m *HashMap) find(k Form) int {
	if m == nil {
		return -1
	}
	for _, i := range m.index[k.Hash()] {
		if Equal(m.keys[i], k) {
			return i
		}
	}
	return -1
}

func (m *HashMap) Get(k Form) (Form, bool) {
	if i := m.find(k); i >= 0 {
		return m.vals[i], true
	}
	return Form{}, false
}

func (m *HashMap) Contains(k Form) bool {
	return m.find(k) >= 0
}

// Set inserts or replaces the value for k in place.
func (m *HashMap) Set(k, v Form) {
	if i := m.find(k); i >= 0 {
		m.vals[i] = v
		return
	}
	h := k.Hash()
	m.index[h] = append(m.index[h], len(m.keys))
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
}

func (m *HashMap) Clone() *HashMap {
	c := NewHashMap()
	for k, v := range m.All() {
		c.Set(k, v)
	}
	return c
}

// Without returns a copy of m with the given keys removed.
func (m *HashMap) Without(keys ...Form) *HashMap {
	c := NewHashMap()
	for k, v := range m.All() {
		drop := false
		for _, d := range keys {
			if Equal(k, d) {
				drop = true
				break
			}
		}
		if !drop {
			c.Set(k, v)
		}
	}
	return c
}

// All yields entries in insertion order.
func (m *HashMap) All() iter.Seq2[Form, Form] {
	return func(yield func(Form, Form) bool) {
		if m == nil {
			return
		}
		for i := range m.keys {
			if !yield(m.keys[i], m.vals[i]) {
				return
			}
		}
	}
}

func (m *HashMap) Keys() []Form {
	if m == nil {
		return []Form{}
	}
	return append([]Form{}, m.keys...)
}

func (m *HashMap) Vals() []Form {
	if m == nil {
		return []Form{}
	}
	return append([]Form{}, m.vals...)
}
