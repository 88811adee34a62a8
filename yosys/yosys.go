// Package yosys imports a subset of Yosys's JSON netlist format
// (`write_json` after `synth ... -flatten`) directly into a sim.Builder.
// Yosys bit-blasts every net to a per-bit integer id; this importer mirrors
// that by allocating one 1-bit wire per net id and stitching multi-bit
// cell ports together with sim.Builder's MERGE/SLICE components.
package yosys

import (
	"io"

	"github.com/segmentio/encoding/json"

	"github.com/circuitkit/logicsim"
	"github.com/circuitkit/logicsim/simerr"
)

type portJSON struct {
	Direction string        `json:"direction"`
	Bits      []interface{} `json:"bits"`
}

type cellJSON struct {
	Type           string                   `json:"type"`
	PortDirections map[string]string        `json:"port_directions"`
	Connections    map[string][]interface{} `json:"connections"`
}

type moduleJSON struct {
	Ports map[string]portJSON `json:"ports"`
	Cells map[string]cellJSON `json:"cells"`
}

type netlistJSON struct {
	Modules map[string]moduleJSON `json:"modules"`
}

// Netlist is the result of a successful Import: the populated Builder and
// the name of the Yosys module it was built from.
type Netlist struct {
	Builder *sim.Builder
	Module  string
}

// PortList names the top-level module's input and output wires, each
// merged (if wider than one bit) into a single composite wire in bit-0-low
// order, matching Yosys's own bit numbering.
type PortList struct {
	Inputs  map[string]sim.WireID
	Outputs map[string]sim.WireID
}

type builder struct {
	b    *sim.Builder
	nets map[int]sim.WireID
	// constants shares one driven 1-bit wire per Yosys constant symbol
	// ('0','1','x','z'), since any number of readers may fan out from one.
	constants map[byte]sim.WireID
}

func newBuilder() *builder {
	return &builder{
		b:         sim.NewBuilder(),
		nets:      make(map[int]sim.WireID),
		constants: make(map[byte]sim.WireID),
	}
}

func (bd *builder) constantWire(sym byte) (sim.WireID, error) {
	if w, ok := bd.constants[sym]; ok {
		return w, nil
	}
	w, err := bd.b.AddWire(1)
	if err != nil {
		return sim.InvalidWireID, err
	}
	var state sim.LogicState
	var err2 error
	switch sym {
	case '0':
		state, err2 = sim.FromString("0")
	case '1':
		state, err2 = sim.FromString("1")
	case 'x', 'X':
		state, err2 = sim.FromString("X")
	default:
		state, err2 = sim.FromString("Z")
	}
	if err2 != nil {
		return sim.InvalidWireID, err2
	}
	if err := bd.b.SetWireDrive(w, state); err != nil {
		return sim.InvalidWireID, err
	}
	bd.constants[sym] = w
	return w, nil
}

// bitWire returns the 1-bit wire for one element of a Yosys "bits" array:
// either a net id (float64, decoded from a JSON number) or a constant
// symbol string ("0","1","x","z").
func (bd *builder) bitWire(bit interface{}) (sim.WireID, error) {
	switch v := bit.(type) {
	case float64:
		id := int(v)
		if w, ok := bd.nets[id]; ok {
			return w, nil
		}
		w, err := bd.b.AddWire(1)
		if err != nil {
			return sim.InvalidWireID, err
		}
		bd.nets[id] = w
		return w, nil
	case string:
		if len(v) != 1 {
			return sim.InvalidWireID, simerr.Newf(simerr.MalformedFormat, "unrecognized bit constant %q", v)
		}
		return bd.constantWire(v[0])
	default:
		return sim.InvalidWireID, simerr.Newf(simerr.MalformedFormat, "unrecognized bit entry %v", bit)
	}
}

// busWires resolves every element of a "bits" array to its 1-bit wire, in
// Yosys's low-bit-first order.
func (bd *builder) busWires(bits []interface{}) ([]sim.WireID, error) {
	out := make([]sim.WireID, len(bits))
	for i, bit := range bits {
		w, err := bd.bitWire(bit)
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

// mergeIn builds (if width > 1) a single composite input wire out of a
// bus's individual 1-bit wires, low bit first, for feeding into a
// multi-bit component. Width-1 buses are returned as-is.
func (bd *builder) mergeIn(bits []sim.WireID) (sim.WireID, error) {
	if len(bits) == 1 {
		return bits[0], nil
	}
	out, err := bd.b.AddWire(uint8(len(bits)))
	if err != nil {
		return sim.InvalidWireID, err
	}
	if _, err := bd.b.AddMerge(bits, out); err != nil {
		return sim.InvalidWireID, err
	}
	return out, nil
}

// spliceOut drives a multi-bit component's output into the bus's
// already-allocated individual 1-bit net wires via SLICE, since Yosys
// numbers every output bit as its own net id. Width-1 buses are wired
// directly to the returned wire.
func (bd *builder) spliceOut(composite sim.WireID, bits []sim.WireID) error {
	if len(bits) == 1 {
		return nil // caller wired the component output directly to bits[0]
	}
	for i, w := range bits {
		if _, err := bd.b.AddSlice(composite, uint8(i), w); err != nil {
			return err
		}
	}
	return nil
}

// newComposite allocates a fresh wire to serve as a multi-bit component's
// output, or returns the bus's single wire directly for width 1 (so the
// component drives the real net id wire with no extra SLICE indirection).
func (bd *builder) newComposite(bits []sim.WireID) (sim.WireID, error) {
	if len(bits) == 1 {
		return bits[0], nil
	}
	return bd.b.AddWire(uint8(len(bits)))
}

// Import reads a Yosys JSON netlist from r and builds an equivalent
// sim.Builder graph. The file must contain exactly one module.
func Import(r io.Reader) (*Netlist, PortList, error) {
	var nl netlistJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&nl); err != nil {
		return nil, PortList{}, simerr.Wrap(err, simerr.MalformedFormat, "decoding yosys JSON")
	}
	if len(nl.Modules) != 1 {
		return nil, PortList{}, simerr.Newf(simerr.Unsupported, "expected exactly one module, found %d", len(nl.Modules))
	}
	var modName string
	var mod moduleJSON
	for name, m := range nl.Modules {
		modName, mod = name, m
	}

	bd := newBuilder()

	for cellName, cell := range mod.Cells {
		if err := bd.addCell(cellName, cell); err != nil {
			return nil, PortList{}, err
		}
	}

	ports := PortList{Inputs: make(map[string]sim.WireID), Outputs: make(map[string]sim.WireID)}
	for name, port := range mod.Ports {
		bits, err := bd.busWires(port.Bits)
		if err != nil {
			return nil, PortList{}, err
		}
		switch port.Direction {
		case "input":
			// The individual net-id wires are otherwise undriven; expose a
			// single composite wire the caller drives, and fan it out to
			// the per-bit wires the internal cells actually read.
			composite, err := bd.newComposite(bits)
			if err != nil {
				return nil, PortList{}, err
			}
			if err := bd.spliceOut(composite, bits); err != nil {
				return nil, PortList{}, err
			}
			ports.Inputs[name] = composite
		case "output":
			// The per-bit wires are already driven by internal cells;
			// MERGE them into one composite for the caller to read.
			w, err := bd.mergeIn(bits)
			if err != nil {
				return nil, PortList{}, err
			}
			ports.Outputs[name] = w
		default:
			return nil, PortList{}, simerr.Newf(simerr.Unsupported, "port %q has unknown direction %q", name, port.Direction)
		}
	}

	return &Netlist{Builder: bd.b, Module: modName}, ports, nil
}

func (bd *builder) addCell(name string, cell cellJSON) error {
	get := func(port string) ([]sim.WireID, bool, error) {
		bits, ok := cell.Connections[port]
		if !ok {
			return nil, false, nil
		}
		w, err := bd.busWires(bits)
		return w, true, err
	}

	switch cell.Type {
	case "$not", "$and", "$or", "$xor", "$xnor":
		aBits, _, err := get("A")
		if err != nil {
			return err
		}
		yBits, _, err := get("Y")
		if err != nil {
			return err
		}
		aWire, err := bd.mergeIn(aBits)
		if err != nil {
			return err
		}
		out, err := bd.newComposite(yBits)
		if err != nil {
			return err
		}
		if cell.Type == "$not" {
			if _, err := bd.b.AddNot(aWire, out); err != nil {
				return err
			}
			return bd.spliceOut(out, yBits)
		}
		bBits, _, err := get("B")
		if err != nil {
			return err
		}
		bWire, err := bd.mergeIn(bBits)
		if err != nil {
			return err
		}
		var addErr error
		switch cell.Type {
		case "$and":
			_, addErr = bd.b.AddAnd([]sim.WireID{aWire, bWire}, out)
		case "$or":
			_, addErr = bd.b.AddOr([]sim.WireID{aWire, bWire}, out)
		case "$xor":
			_, addErr = bd.b.AddXor([]sim.WireID{aWire, bWire}, out)
		case "$xnor":
			_, addErr = bd.b.AddXnor([]sim.WireID{aWire, bWire}, out)
		}
		if addErr != nil {
			return addErr
		}
		return bd.spliceOut(out, yBits)

	case "$reduce_and", "$reduce_or", "$reduce_xor":
		aBits, _, err := get("A")
		if err != nil {
			return err
		}
		yBits, _, err := get("Y")
		if err != nil {
			return err
		}
		aWire, err := bd.mergeIn(aBits)
		if err != nil {
			return err
		}
		out := yBits[0]
		switch cell.Type {
		case "$reduce_and":
			_, err = bd.b.AddReduceAnd(aWire, out)
		case "$reduce_or":
			_, err = bd.b.AddReduceOr(aWire, out)
		case "$reduce_xor":
			_, err = bd.b.AddReduceXor(aWire, out)
		}
		return err

	case "$add", "$sub", "$mul":
		aBits, _, err := get("A")
		if err != nil {
			return err
		}
		bBits, _, err := get("B")
		if err != nil {
			return err
		}
		yBits, _, err := get("Y")
		if err != nil {
			return err
		}
		width := len(yBits)
		aWire, err := bd.resizeTo(aBits, width)
		if err != nil {
			return err
		}
		bWire, err := bd.resizeTo(bBits, width)
		if err != nil {
			return err
		}
		out, err := bd.newComposite(yBits)
		if err != nil {
			return err
		}
		switch cell.Type {
		case "$add":
			_, err = bd.b.AddAdd(aWire, bWire, out)
		case "$sub":
			_, err = bd.b.AddSub(aWire, bWire, out)
		case "$mul":
			_, err = bd.b.AddMul(aWire, bWire, out)
		}
		if err != nil {
			return err
		}
		return bd.spliceOut(out, yBits)

	case "$eq", "$ne", "$lt", "$le", "$gt", "$ge":
		aBits, _, err := get("A")
		if err != nil {
			return err
		}
		bBits, _, err := get("B")
		if err != nil {
			return err
		}
		yBits, _, err := get("Y")
		if err != nil {
			return err
		}
		width := max(len(aBits), len(bBits))
		aWire, err := bd.resizeTo(aBits, width)
		if err != nil {
			return err
		}
		bWire, err := bd.resizeTo(bBits, width)
		if err != nil {
			return err
		}
		out := yBits[0]
		switch cell.Type {
		case "$eq":
			_, err = bd.b.AddCmpEq(aWire, bWire, out)
		case "$ne":
			_, err = bd.b.AddCmpNe(aWire, bWire, out)
		case "$lt":
			_, err = bd.b.AddCmpLtU(aWire, bWire, out)
		case "$le":
			_, err = bd.b.AddCmpLeU(aWire, bWire, out)
		case "$gt":
			_, err = bd.b.AddCmpGtU(aWire, bWire, out)
		case "$ge":
			_, err = bd.b.AddCmpGeU(aWire, bWire, out)
		}
		return err

	case "$mux":
		aBits, _, err := get("A")
		if err != nil {
			return err
		}
		bBits, _, err := get("B")
		if err != nil {
			return err
		}
		sBits, _, err := get("S")
		if err != nil {
			return err
		}
		yBits, _, err := get("Y")
		if err != nil {
			return err
		}
		aWire, err := bd.mergeIn(aBits)
		if err != nil {
			return err
		}
		bWire, err := bd.mergeIn(bBits)
		if err != nil {
			return err
		}
		out, err := bd.newComposite(yBits)
		if err != nil {
			return err
		}
		if _, err := bd.b.AddMux([]sim.WireID{aWire, bWire}, sBits[0], out); err != nil {
			return err
		}
		return bd.spliceOut(out, yBits)

	case "$dff", "$dffe":
		dBits, _, err := get("D")
		if err != nil {
			return err
		}
		qBits, _, err := get("Q")
		if err != nil {
			return err
		}
		clkBits, _, err := get("CLK")
		if err != nil {
			return err
		}
		dWire, err := bd.mergeIn(dBits)
		if err != nil {
			return err
		}
		out, err := bd.newComposite(qBits)
		if err != nil {
			return err
		}
		var enWire sim.WireID
		if cell.Type == "$dffe" {
			enBits, ok, err := get("EN")
			if err != nil {
				return err
			}
			if !ok {
				return simerr.New(simerr.MalformedFormat, "$dffe cell missing EN port")
			}
			enWire = enBits[0]
		} else {
			enWire, err = bd.constantWire('1')
			if err != nil {
				return err
			}
		}
		id, err := bd.b.AddRegister(dWire, out, enWire, clkBits[0], sim.RisingEdge)
		if err != nil {
			return err
		}
		if err := bd.b.SetRegisterInitial(id, sim.AllUndefined(uint8(len(qBits)))); err != nil {
			return err
		}
		return bd.spliceOut(out, qBits)

	default:
		return simerr.Newf(simerr.Unsupported, "cell %q has unsupported type %s", name, cell.Type)
	}
}

// resizeTo merges bits into a single wire, zero-extending it to width bits
// if it's narrower (Yosys emits actual A_SIGNED/B_SIGNED parameters this
// importer does not read, so all resizes are unsigned zero-extension).
func (bd *builder) resizeTo(bits []sim.WireID, width int) (sim.WireID, error) {
	merged, err := bd.mergeIn(bits)
	if err != nil {
		return sim.InvalidWireID, err
	}
	if len(bits) == width {
		return merged, nil
	}
	out, err := bd.b.AddWire(uint8(width))
	if err != nil {
		return sim.InvalidWireID, err
	}
	if _, err := bd.b.AddZeroExtend(merged, out); err != nil {
		return sim.InvalidWireID, err
	}
	return out, nil
}

