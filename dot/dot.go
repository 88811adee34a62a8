// Package dot renders a sim.Builder's graph as Graphviz DOT, for visual
// debugging of a netlist before or after compilation. It is presentation
// only: nothing here participates in simulation.
package dot

import (
	"fmt"
	"io"

	"github.com/circuitkit/logicsim"
)

// Write renders g as a DOT digraph to w: one node per component (labeled
// with its kind and name, if any), one node per wire (labeled with its id,
// width and name, if any), and an edge
// for every port connection. If states is non-nil, each wire's current
// resolved value is appended to its label.
func Write(w io.Writer, g *sim.Builder, states *sim.Simulator) error {
	bw := &errWriter{w: w}

	fmt.Fprintln(bw, "digraph logicsim {")
	fmt.Fprintln(bw, "\trankdir=LR;")
	fmt.Fprintln(bw, "\tnode [shape=box, fontname=\"monospace\"];")

	wireCount := g.WireCount()
	for i := 0; i < wireCount; i++ {
		id := sim.WireID(i)
		width, err := g.WireWidth(id)
		if err != nil {
			return err
		}
		label := fmt.Sprintf("w%d [%d]", i, width)
		if name, _ := g.WireName(id); name != "" {
			label = fmt.Sprintf("%s\\n%s", name, label)
		}
		if states != nil {
			label = fmt.Sprintf("%s\\n%s", label, states.WireState(id).String())
		}
		fmt.Fprintf(bw, "\tw%d [shape=ellipse, label=%q];\n", i, label)
	}

	compCount := g.ComponentCount()
	for i := 0; i < compCount; i++ {
		id := sim.ComponentID(i)
		kind, ins, outs, err := g.ComponentPorts(id)
		if err != nil {
			return err
		}
		label := kind.String()
		if name, _ := g.ComponentName(id); name != "" {
			label = fmt.Sprintf("%s\\n%s", name, label)
		}
		fmt.Fprintf(bw, "\tc%d [label=%q];\n", i, label)
		for pi, in := range ins {
			fmt.Fprintf(bw, "\tw%d -> c%d [label=\"in%d\"];\n", in, i, pi)
		}
		for pi, out := range outs {
			fmt.Fprintf(bw, "\tc%d -> w%d [label=\"out%d\"];\n", i, out, pi)
		}
	}

	fmt.Fprintln(bw, "}")
	return bw.err
}

// errWriter lets Write use fmt.Fprint* freely and check a single error at
// the end, the way the teacher's own textual encoders accumulate errors.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
