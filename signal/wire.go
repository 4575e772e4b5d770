package signal

// Port is the untyped view of a Wire used for ordering.
type Port interface {
	Name() string
	changes() uint64
}

// Wire is a typed signal. Setting a wire to a different value counts as a
// change for fixpoint detection.
type Wire[T comparable] struct {
	name  string
	value T
	count uint64
}

var _ Port = (*Wire[bool])(nil)

// NewWire creates a wire holding the zero value of T.
func NewWire[T comparable](name string) *Wire[T] {
	return &Wire[T]{name: name}
}

// Name of the wire.
func (w *Wire[T]) Name() string {
	return w.name
}

// Get returns the current value.
func (w *Wire[T]) Get() T {
	return w.value
}

// Set drives a new value onto the wire.
func (w *Wire[T]) Set(value T) {
	if w.value != value {
		w.value = value
		w.count++
	}
}

func (w *Wire[T]) changes() uint64 {
	return w.count
}

// Node is a combinational component.
type Node interface {
	// Name identifies the node in errors and traces.
	Name() string
	// Inputs are the wires read by Evaluate.
	Inputs() []Port
	// Outputs are the wires driven by Evaluate.
	Outputs() []Port
	// Evaluate drives the outputs from the inputs.
	Evaluate() error
}

// Clocked is a node with state that is latched on the clock edge.
type Clocked interface {
	Node
	// Clock latches the next state from the sampled wires.
	Clock()
	// Reset returns to the initial state.
	Reset()
}
