package signal

import (
	"slices"
)

// Const drives a fixed value.
type Const[T comparable] struct {
	Out   *Wire[T]
	value T
}

// NewConst creates a constant driver.
func NewConst[T comparable](name string, value T) *Const[T] {
	return &Const[T]{Out: NewWire[T](name), value: value}
}

func (c *Const[T]) Name() string    { return c.Out.Name() }
func (c *Const[T]) Inputs() []Port  { return nil }
func (c *Const[T]) Outputs() []Port { return []Port{c.Out} }

func (c *Const[T]) Evaluate() error {
	c.Out.Set(c.value)
	return nil
}

// Mux2 is a two-way selector driven by a boolean decision.
type Mux2[T comparable] struct {
	name   string
	Select *Wire[bool]
	False  *Wire[T] // Routed when Select is false.
	True   *Wire[T] // Routed when Select is true.
	Out    *Wire[T]
}

// NewMux2 creates a two-way selector. The output wire has the mux's name.
func NewMux2[T comparable](name string, sel *Wire[bool], onFalse, onTrue *Wire[T]) *Mux2[T] {
	return &Mux2[T]{
		name:   name,
		Select: sel,
		False:  onFalse,
		True:   onTrue,
		Out:    NewWire[T](name),
	}
}

func (m *Mux2[T]) Name() string    { return m.name }
func (m *Mux2[T]) Inputs() []Port  { return []Port{m.Select, m.False, m.True} }
func (m *Mux2[T]) Outputs() []Port { return []Port{m.Out} }

func (m *Mux2[T]) Evaluate() error {
	if m.Select.Get() {
		m.Out.Set(m.True.Get())
	} else {
		m.Out.Set(m.False.Get())
	}
	return nil
}

// Case is one input of a Select.
type Case[K comparable, T comparable] struct {
	Key  K
	Wire *Wire[T]
}

// Select routes the input whose key matches the selector wire.
// A selector value without a case is an error.
type Select[K comparable, T comparable] struct {
	name  string
	Key   *Wire[K]
	Cases []Case[K, T]
	Out   *Wire[T]
}

// NewSelect creates a keyed selector. The output wire has the select's name.
func NewSelect[K comparable, T comparable](name string, key *Wire[K], cases ...Case[K, T]) *Select[K, T] {
	return &Select[K, T]{
		name:  name,
		Key:   key,
		Cases: cases,
		Out:   NewWire[T](name),
	}
}

func (s *Select[K, T]) Name() string { return s.name }

func (s *Select[K, T]) Inputs() (ports []Port) {
	ports = append(ports, s.Key)
	for _, c := range s.Cases {
		ports = append(ports, c.Wire)
	}
	return
}

func (s *Select[K, T]) Outputs() []Port { return []Port{s.Out} }

func (s *Select[K, T]) Evaluate() (err error) {
	key := s.Key.Get()
	n := slices.IndexFunc(s.Cases, func(c Case[K, T]) bool { return c.Key == key })
	if n < 0 {
		err = ErrSelect
		return
	}
	s.Out.Set(s.Cases[n].Wire.Get())
	return
}

// And is a boolean AND gate.
type And struct {
	In  []*Wire[bool]
	Out *Wire[bool]
}

// NewAnd creates an AND gate. The output wire has the gate's name.
func NewAnd(name string, in ...*Wire[bool]) *And {
	return &And{In: in, Out: NewWire[bool](name)}
}

func (g *And) Name() string    { return g.Out.Name() }
func (g *And) Inputs() []Port  { return boolPorts(g.In) }
func (g *And) Outputs() []Port { return []Port{g.Out} }

func (g *And) Evaluate() error {
	value := len(g.In) > 0
	for _, in := range g.In {
		value = value && in.Get()
	}
	g.Out.Set(value)
	return nil
}

// Or is a boolean OR gate.
type Or struct {
	In  []*Wire[bool]
	Out *Wire[bool]
}

// NewOr creates an OR gate. The output wire has the gate's name.
func NewOr(name string, in ...*Wire[bool]) *Or {
	return &Or{In: in, Out: NewWire[bool](name)}
}

func (g *Or) Name() string    { return g.Out.Name() }
func (g *Or) Inputs() []Port  { return boolPorts(g.In) }
func (g *Or) Outputs() []Port { return []Port{g.Out} }

func (g *Or) Evaluate() error {
	value := false
	for _, in := range g.In {
		value = value || in.Get()
	}
	g.Out.Set(value)
	return nil
}

func boolPorts(wires []*Wire[bool]) (ports []Port) {
	for _, w := range wires {
		ports = append(ports, w)
	}
	return
}

// Adder is a 32-bit wrapping adder.
type Adder struct {
	A, B *Wire[uint32]
	Out  *Wire[uint32]
}

// NewAdder creates an adder. The output wire has the adder's name.
func NewAdder(name string, a, b *Wire[uint32]) *Adder {
	return &Adder{A: a, B: b, Out: NewWire[uint32](name)}
}

func (a *Adder) Name() string    { return a.Out.Name() }
func (a *Adder) Inputs() []Port  { return []Port{a.A, a.B} }
func (a *Adder) Outputs() []Port { return []Port{a.Out} }

func (a *Adder) Evaluate() error {
	a.Out.Set(a.A.Get() + a.B.Get())
	return nil
}
