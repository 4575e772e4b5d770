// Package signal is a small combinational/clocked network evaluator.
//
// Components are Nodes that read typed input Wires and drive typed output
// Wires. A Graph orders its nodes so that every wire is driven before it
// is read, evaluates them until no wire changes (the fixpoint), and then
// lets the Clocked nodes latch their next state on Clock.
//
// A Clocked node lists only its combinational dependencies in Inputs.
// Wires that it samples on the clock edge are not ordering edges, which is
// what breaks the loop through registers.
package signal
