// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package signal

import (
	"errors"
	"iter"
	"slices"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_LIMIT = 16 // Default maximum evaluation passes per Propagate.
)

// Graph is a network of nodes connected by wires.
type Graph struct {
	Verbose bool               // If set, logs each propagation.
	Limit   int                // Maximum passes before ErrNoFixpoint. Zero is DEFAULT_LIMIT.
	Log     logrus.FieldLogger // Logger for verbose output. Nil is the standard logger.

	nodes   []Node
	order   []Node
	clocked []Clocked
	ports   []Port
}

// Add nodes to the graph. The graph is re-ordered on the next Propagate.
func (g *Graph) Add(nodes ...Node) {
	g.nodes = append(g.nodes, nodes...)
	g.order = nil
}

func (g *Graph) log() logrus.FieldLogger {
	if g.Log == nil {
		return logrus.StandardLogger()
	}
	return g.Log
}

// Build checks the connections and computes the evaluation order.
func (g *Graph) Build() (err error) {
	g.order = nil
	g.clocked = nil
	g.ports = nil

	driver := make(map[Port]int, len(g.nodes))
	for n, node := range g.nodes {
		for _, out := range node.Outputs() {
			if _, ok := driver[out]; ok {
				err = &ErrNode{Node: node.Name(), Err: errors.Join(ErrMultipleDrivers, ErrPort(out.Name()))}
				return
			}
			driver[out] = n
			g.ports = append(g.ports, out)
		}
		if clocked, ok := node.(Clocked); ok {
			g.clocked = append(g.clocked, clocked)
		}
	}

	indegree := make([]int, len(g.nodes))
	succ := make([][]int, len(g.nodes))
	for n, node := range g.nodes {
		for _, in := range node.Inputs() {
			src, ok := driver[in]
			if !ok {
				err = &ErrNode{Node: node.Name(), Err: errors.Join(ErrUndriven, ErrPort(in.Name()))}
				return
			}
			succ[src] = append(succ[src], n)
			indegree[n]++
		}
	}

	// Kahn's algorithm; ready nodes are taken in FIFO order.
	var ready []int
	for n := range g.nodes {
		if indegree[n] == 0 {
			ready = append(ready, n)
		}
	}

	order := make([]Node, 0, len(g.nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, g.nodes[n])
		for _, next := range succ[n] {
			indegree[next]--
			if indegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(order) != len(g.nodes) {
		for n, node := range g.nodes {
			if indegree[n] > 0 {
				err = &ErrNode{Node: node.Name(), Err: ErrCycle}
				return
			}
		}
	}

	g.order = order

	if g.Verbose {
		g.log().WithField("nodes", len(order)).Debug("signal: graph built")
	}

	return
}

// Nodes returns the nodes in evaluation order.
func (g *Graph) Nodes() iter.Seq[Node] {
	return slices.Values(g.order)
}

func (g *Graph) changes() (total uint64) {
	for _, port := range g.ports {
		total += port.changes()
	}
	return
}

// Propagate evaluates the network until no wire changes.
func (g *Graph) Propagate() (err error) {
	if g.order == nil {
		err = g.Build()
		if err != nil {
			return
		}
	}

	limit := g.Limit
	if limit <= 0 {
		limit = DEFAULT_LIMIT
	}

	for pass := range limit {
		before := g.changes()
		for _, node := range g.order {
			err = node.Evaluate()
			if err != nil {
				err = &ErrNode{Node: node.Name(), Err: err}
				return
			}
		}
		if g.changes() == before {
			if g.Verbose {
				g.log().WithField("passes", pass+1).Debug("signal: fixpoint")
			}
			return
		}
	}

	err = ErrNoFixpoint
	return
}

// Clock latches every clocked node.
func (g *Graph) Clock() {
	for _, node := range g.clocked {
		node.Clock()
	}
}

// Reset every clocked node.
func (g *Graph) Reset() {
	for _, node := range g.clocked {
		node.Reset()
	}
}
