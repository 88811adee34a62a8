package sim

import (
	"math/bits"
	"unicode/utf8"

	"github.com/circuitkit/logicsim/simerr"
)

// WireID is a dense, monotonically-assigned wire identifier. The value
// InvalidWireID is reserved and never returned by a successful operation.
type WireID uint32

// ComponentID is a dense, monotonically-assigned component identifier. The
// value InvalidComponentID is reserved and never returned by a successful
// operation.
type ComponentID uint32

// InvalidWireID and InvalidComponentID are the reserved "no such id" values.
const (
	InvalidWireID      WireID      = 0xFFFFFFFF
	InvalidComponentID ComponentID = 0xFFFFFFFF
)

// maxEntities bounds the number of wires or components a single graph may
// contain, keeping InvalidWireID/InvalidComponentID unambiguous.
const maxEntities = 0xFFFFFFFE

// maxAddrWidth bounds RAM/ROM address width so that 1<<addrWidth cells is a
// tractable allocation. Real designs rarely need more than a few million
// memory cells simulated directly; anything larger should be modeled with a
// behavioral stand-in outside the core.
const maxAddrWidth = 24

type driverRef struct {
	comp ComponentID
	port uint8
}

type wireRec struct {
	width     uint8
	name      string
	baseDrive LogicState
	drivers   []driverRef
}

// Builder is the mutable graph under construction. It allocates wire and
// component IDs, validates each component's ports against its kind's
// arity/width rule at add-time, and freezes the result into a Simulator
// with Build. A Builder that fails to Build remains valid for retry.
type Builder struct {
	wires []wireRec
	comps []component

	regInit    map[ComponentID]LogicState
	ramCells   map[ComponentID][]LogicState
	romCells   map[ComponentID][]LogicState

	// Workers controls the settling loop's parallelism in simulators built
	// from this Builder. Zero means runtime.GOMAXPROCS(-1).
	Workers int

	built bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		regInit:  make(map[ComponentID]LogicState),
		ramCells: make(map[ComponentID][]LogicState),
		romCells: make(map[ComponentID][]LogicState),
	}
}

func (b *Builder) checkNotBuilt() error {
	if b.built {
		return simerr.New(simerr.InvalidOperation, "builder has already been consumed by Build")
	}
	return nil
}

func (b *Builder) wire(id WireID) (*wireRec, error) {
	if int64(id) < 0 || int(id) >= len(b.wires) {
		return nil, simerr.Newf(simerr.InvalidWireId, "no such wire id %d", id)
	}
	return &b.wires[id], nil
}

func (b *Builder) component(id ComponentID) (*component, error) {
	if int64(id) < 0 || int(id) >= len(b.comps) {
		return nil, simerr.Newf(simerr.InvalidComponentId, "no such component id %d", id)
	}
	return &b.comps[id], nil
}

// AddWire allocates a new wire of the given bit width, with its base drive
// initialized to all-high-Z. width must be in [1,255].
func (b *Builder) AddWire(width uint8) (WireID, error) {
	if err := b.checkNotBuilt(); err != nil {
		return InvalidWireID, err
	}
	if width < 1 || width > MaxWidth {
		return InvalidWireID, simerr.Newf(simerr.ArgumentOutOfRange, "wire width %d out of range [1,255]", width)
	}
	if len(b.wires) >= maxEntities {
		return InvalidWireID, simerr.New(simerr.ResourceLimitReached, "maximum wire count reached")
	}
	b.wires = append(b.wires, wireRec{width: width, baseDrive: HighZState(width)})
	return WireID(len(b.wires) - 1), nil
}

// WireWidth returns the bit width of wire id.
func (b *Builder) WireWidth(id WireID) (uint8, error) {
	w, err := b.wire(id)
	if err != nil {
		return 0, err
	}
	return w.width, nil
}

// SetWireDrive replaces wire id's base drive. state must have the wire's
// width.
func (b *Builder) SetWireDrive(id WireID, state LogicState) error {
	if err := b.checkNotBuilt(); err != nil {
		return err
	}
	w, err := b.wire(id)
	if err != nil {
		return err
	}
	if state.Width() != w.width {
		return simerr.Newf(simerr.WireWidthMismatch, "drive width %d does not match wire width %d", state.Width(), w.width)
	}
	w.baseDrive = state
	return nil
}

func checkUTF8(name string) error {
	if !utf8.ValidString(name) {
		return simerr.New(simerr.Utf8Encoding, "name is not valid UTF-8")
	}
	return nil
}

// SetWireName sets (or, given "", clears) wire id's human-readable name.
// Names are purely observational and never affect simulation semantics.
func (b *Builder) SetWireName(id WireID, name string) error {
	if err := checkUTF8(name); err != nil {
		return err
	}
	w, err := b.wire(id)
	if err != nil {
		return err
	}
	w.name = name
	return nil
}

// WireName returns wire id's name, or "" if unset.
func (b *Builder) WireName(id WireID) (string, error) {
	w, err := b.wire(id)
	if err != nil {
		return "", err
	}
	return w.name, nil
}

// SetComponentName sets (or, given "", clears) component id's name.
func (b *Builder) SetComponentName(id ComponentID, name string) error {
	if err := checkUTF8(name); err != nil {
		return err
	}
	c, err := b.component(id)
	if err != nil {
		return err
	}
	c.name = name
	return nil
}

// ComponentName returns component id's name, or "" if unset.
func (b *Builder) ComponentName(id ComponentID) (string, error) {
	c, err := b.component(id)
	if err != nil {
		return "", err
	}
	return c.name, nil
}

// WireCount returns the number of wires allocated so far.
func (b *Builder) WireCount() int { return len(b.wires) }

// ComponentCount returns the number of components added so far.
func (b *Builder) ComponentCount() int { return len(b.comps) }

// ComponentPorts returns component id's kind and port wire lists, for
// introspection tools (e.g. package dot) that need to walk the graph
// without a compiled Simulator.
func (b *Builder) ComponentPorts(id ComponentID) (kind Kind, ins, outs []WireID, err error) {
	c, err := b.component(id)
	if err != nil {
		return 0, nil, nil, err
	}
	return c.kind, c.ins, c.outs, nil
}

// --- shared port validation -------------------------------------------------

func (b *Builder) widthOf(id WireID) (uint8, error) {
	w, err := b.wire(id)
	if err != nil {
		return 0, err
	}
	return w.width, nil
}

func (b *Builder) sameWidth(ids ...WireID) (uint8, error) {
	if len(ids) == 0 {
		return 0, simerr.New(simerr.TooFewInputs, "no wires given")
	}
	width, err := b.widthOf(ids[0])
	if err != nil {
		return 0, err
	}
	for _, id := range ids[1:] {
		w, err := b.widthOf(id)
		if err != nil {
			return 0, err
		}
		if w != width {
			return 0, simerr.Newf(simerr.WireWidthMismatch, "wire %d has width %d, expected %d", id, w, width)
		}
	}
	return width, nil
}

// registerOutput records that comp's output port index drives wire out,
// after checking that outWidth matches the wire's declared width.
func (b *Builder) registerOutput(out WireID, outWidth uint8, comp ComponentID, port uint8) error {
	w, err := b.wire(out)
	if err != nil {
		return err
	}
	if w.width != outWidth {
		return simerr.Newf(simerr.WireWidthMismatch, "output wire %d has width %d, expected %d", out, w.width, outWidth)
	}
	w.drivers = append(w.drivers, driverRef{comp: comp, port: port})
	return nil
}

func (b *Builder) nextComponentID() (ComponentID, error) {
	if len(b.comps) >= maxEntities {
		return InvalidComponentID, simerr.New(simerr.ResourceLimitReached, "maximum component count reached")
	}
	return ComponentID(len(b.comps)), nil
}

// commit appends c and wires up its outputs, given the widths each output
// wire is expected to have (parallel to outs). On any error, nothing is
// mutated: the component is not appended and no wire records its drive.
func (b *Builder) commit(c component, outWidths []uint8) (ComponentID, error) {
	id, err := b.nextComponentID()
	if err != nil {
		return InvalidComponentID, err
	}
	if len(outWidths) != len(c.outs) {
		panic("sim: internal error: outWidths length mismatch")
	}
	for _, w := range c.ins {
		if _, err := b.wire(w); err != nil {
			return InvalidComponentID, err
		}
	}
	for i, out := range c.outs {
		w, err := b.wire(out)
		if err != nil {
			return InvalidComponentID, err
		}
		if w.width != outWidths[i] {
			return InvalidComponentID, simerr.Newf(simerr.WireWidthMismatch, "output wire %d has width %d, expected %d", out, w.width, outWidths[i])
		}
	}
	// All ports validated; commit for real.
	for i, out := range c.outs {
		if err := b.registerOutput(out, outWidths[i], id, uint8(i)); err != nil {
			return InvalidComponentID, err
		}
	}
	b.comps = append(b.comps, c)
	return id, nil
}

func newComp(kind Kind, ins, outs []WireID) component {
	return component{kind: kind, ins: ins, outs: outs, stateIndex: -1}
}

// --- N-ary bitwise gates -----------------------------------------------------

func (b *Builder) addNary(kind Kind, ins []WireID, out WireID) (ComponentID, error) {
	if len(ins) < 2 {
		return InvalidComponentID, simerr.Newf(simerr.TooFewInputs, "%s requires at least 2 inputs", kind)
	}
	width, err := b.sameWidth(ins...)
	if err != nil {
		return InvalidComponentID, err
	}
	c := newComp(kind, ins, []WireID{out})
	c.width = width
	return b.commit(c, []uint8{width})
}

// AddAnd adds a k>=2 input, one output AND gate. All ports share a width.
func (b *Builder) AddAnd(ins []WireID, out WireID) (ComponentID, error) { return b.addNary(KindAnd, ins, out) }

// AddOr adds a k>=2 input, one output OR gate.
func (b *Builder) AddOr(ins []WireID, out WireID) (ComponentID, error) { return b.addNary(KindOr, ins, out) }

// AddXor adds a k>=2 input, one output XOR gate.
func (b *Builder) AddXor(ins []WireID, out WireID) (ComponentID, error) { return b.addNary(KindXor, ins, out) }

// AddNand adds a k>=2 input, one output NAND gate.
func (b *Builder) AddNand(ins []WireID, out WireID) (ComponentID, error) { return b.addNary(KindNand, ins, out) }

// AddNor adds a k>=2 input, one output NOR gate.
func (b *Builder) AddNor(ins []WireID, out WireID) (ComponentID, error) { return b.addNary(KindNor, ins, out) }

// AddXnor adds a k>=2 input, one output XNOR gate.
func (b *Builder) AddXnor(ins []WireID, out WireID) (ComponentID, error) { return b.addNary(KindXnor, ins, out) }

// AddNot adds a one-input, one-output NOT gate. in and out must share a width.
func (b *Builder) AddNot(in, out WireID) (ComponentID, error) {
	width, err := b.sameWidth(in, out)
	if err != nil {
		return InvalidComponentID, err
	}
	c := newComp(KindNot, []WireID{in}, []WireID{out})
	c.width = width
	return b.commit(c, []uint8{width})
}

// --- horizontal reduce -------------------------------------------------------

func (b *Builder) addReduce(kind Kind, in, out WireID) (ComponentID, error) {
	inWidth, err := b.widthOf(in)
	if err != nil {
		return InvalidComponentID, err
	}
	outWidth, err := b.widthOf(out)
	if err != nil {
		return InvalidComponentID, err
	}
	if outWidth != 1 {
		return InvalidComponentID, simerr.Newf(simerr.WireWidthMismatch, "%s output must be 1 bit, got %d", kind, outWidth)
	}
	c := newComp(kind, []WireID{in}, []WireID{out})
	c.width = inWidth
	return b.commit(c, []uint8{1})
}

// AddReduceAnd adds a horizontal-AND: one input of any width, one 1-bit output.
func (b *Builder) AddReduceAnd(in, out WireID) (ComponentID, error) { return b.addReduce(KindReduceAnd, in, out) }

// AddReduceOr adds a horizontal-OR.
func (b *Builder) AddReduceOr(in, out WireID) (ComponentID, error) { return b.addReduce(KindReduceOr, in, out) }

// AddReduceXor adds a horizontal-XOR.
func (b *Builder) AddReduceXor(in, out WireID) (ComponentID, error) { return b.addReduce(KindReduceXor, in, out) }

// AddReduceNand adds a horizontal-NAND.
func (b *Builder) AddReduceNand(in, out WireID) (ComponentID, error) { return b.addReduce(KindReduceNand, in, out) }

// AddReduceNor adds a horizontal-NOR.
func (b *Builder) AddReduceNor(in, out WireID) (ComponentID, error) { return b.addReduce(KindReduceNor, in, out) }

// AddReduceXnor adds a horizontal-XNOR.
func (b *Builder) AddReduceXnor(in, out WireID) (ComponentID, error) { return b.addReduce(KindReduceXnor, in, out) }

// --- arithmetic --------------------------------------------------------------

func (b *Builder) addBinaryArith(kind Kind, a, bIn, out WireID) (ComponentID, error) {
	width, err := b.sameWidth(a, bIn, out)
	if err != nil {
		return InvalidComponentID, err
	}
	c := newComp(kind, []WireID{a, bIn}, []WireID{out})
	c.width = width
	return b.commit(c, []uint8{width})
}

// AddAdd adds a two-operand adder that wraps modulo 2^width; A, B and the
// output share a width.
func (b *Builder) AddAdd(a, bIn, out WireID) (ComponentID, error) { return b.addBinaryArith(KindAdd, a, bIn, out) }

// AddSub adds a two-operand subtractor that wraps modulo 2^width.
func (b *Builder) AddSub(a, bIn, out WireID) (ComponentID, error) { return b.addBinaryArith(KindSub, a, bIn, out) }

// AddMul adds a two-operand multiplier; the output is the low `width` bits
// of the full product.
func (b *Builder) AddMul(a, bIn, out WireID) (ComponentID, error) { return b.addBinaryArith(KindMul, a, bIn, out) }

// AddNeg adds a two's-complement negator; in and out share a width.
func (b *Builder) AddNeg(in, out WireID) (ComponentID, error) {
	width, err := b.sameWidth(in, out)
	if err != nil {
		return InvalidComponentID, err
	}
	c := newComp(KindNeg, []WireID{in}, []WireID{out})
	c.width = width
	return b.commit(c, []uint8{width})
}

// --- shifts -------------------------------------------------------------

func (b *Builder) addShift(kind Kind, a, amount, out WireID) (ComponentID, error) {
	width, err := b.sameWidth(a, out)
	if err != nil {
		return InvalidComponentID, err
	}
	amtWidth, err := b.widthOf(amount)
	if err != nil {
		return InvalidComponentID, err
	}
	want := shiftAmountWidth(width)
	if amtWidth != want {
		return InvalidComponentID, simerr.Newf(simerr.WireWidthIncompatible, "%s shift amount must be %d bits for a %d-bit operand, got %d", kind, want, width, amtWidth)
	}
	c := newComp(kind, []WireID{a, amount}, []WireID{out})
	c.width = width
	return b.commit(c, []uint8{width})
}

// AddShl adds a logical-left shift. Shift amounts >= width produce zero.
func (b *Builder) AddShl(a, amount, out WireID) (ComponentID, error) { return b.addShift(KindShl, a, amount, out) }

// AddLshr adds a logical-right shift. Shift amounts >= width produce zero.
func (b *Builder) AddLshr(a, amount, out WireID) (ComponentID, error) { return b.addShift(KindLshr, a, amount, out) }

// AddAshr adds an arithmetic-right shift. Shift amounts >= width produce a
// sign-replicated result.
func (b *Builder) AddAshr(a, amount, out WireID) (ComponentID, error) { return b.addShift(KindAshr, a, amount, out) }

// --- compares -----------------------------------------------------------

func (b *Builder) addCompare(kind Kind, a, bIn, out WireID) (ComponentID, error) {
	if _, err := b.sameWidth(a, bIn); err != nil {
		return InvalidComponentID, err
	}
	outWidth, err := b.widthOf(out)
	if err != nil {
		return InvalidComponentID, err
	}
	if outWidth != 1 {
		return InvalidComponentID, simerr.Newf(simerr.WireWidthMismatch, "%s output must be 1 bit, got %d", kind, outWidth)
	}
	c := newComp(kind, []WireID{a, bIn}, []WireID{out})
	return b.commit(c, []uint8{1})
}

func (b *Builder) AddCmpEq(a, bIn, out WireID) (ComponentID, error)  { return b.addCompare(KindCmpEq, a, bIn, out) }
func (b *Builder) AddCmpNe(a, bIn, out WireID) (ComponentID, error)  { return b.addCompare(KindCmpNe, a, bIn, out) }
func (b *Builder) AddCmpLtU(a, bIn, out WireID) (ComponentID, error) { return b.addCompare(KindCmpLtU, a, bIn, out) }
func (b *Builder) AddCmpGtU(a, bIn, out WireID) (ComponentID, error) { return b.addCompare(KindCmpGtU, a, bIn, out) }
func (b *Builder) AddCmpLeU(a, bIn, out WireID) (ComponentID, error) { return b.addCompare(KindCmpLeU, a, bIn, out) }
func (b *Builder) AddCmpGeU(a, bIn, out WireID) (ComponentID, error) { return b.addCompare(KindCmpGeU, a, bIn, out) }
func (b *Builder) AddCmpLtS(a, bIn, out WireID) (ComponentID, error) { return b.addCompare(KindCmpLtS, a, bIn, out) }
func (b *Builder) AddCmpGtS(a, bIn, out WireID) (ComponentID, error) { return b.addCompare(KindCmpGtS, a, bIn, out) }
func (b *Builder) AddCmpLeS(a, bIn, out WireID) (ComponentID, error) { return b.addCompare(KindCmpLeS, a, bIn, out) }
func (b *Builder) AddCmpGeS(a, bIn, out WireID) (ComponentID, error) { return b.addCompare(KindCmpGeS, a, bIn, out) }

// --- extend / slice / merge / priority ----------------------------------

func (b *Builder) addExtend(kind Kind, in, out WireID) (ComponentID, error) {
	inWidth, err := b.widthOf(in)
	if err != nil {
		return InvalidComponentID, err
	}
	outWidth, err := b.widthOf(out)
	if err != nil {
		return InvalidComponentID, err
	}
	if inWidth >= outWidth {
		return InvalidComponentID, simerr.Newf(simerr.WireWidthIncompatible, "%s requires input width (%d) < output width (%d)", kind, inWidth, outWidth)
	}
	c := newComp(kind, []WireID{in}, []WireID{out})
	c.width = inWidth
	return b.commit(c, []uint8{outWidth})
}

// AddZeroExtend adds a zero-extension; input.width must be < output.width.
func (b *Builder) AddZeroExtend(in, out WireID) (ComponentID, error) { return b.addExtend(KindZeroExtend, in, out) }

// AddSignExtend adds a sign-extension; input.width must be < output.width.
func (b *Builder) AddSignExtend(in, out WireID) (ComponentID, error) { return b.addExtend(KindSignExtend, in, out) }

// AddSlice adds a bit slice: offset+output.width must not exceed input.width.
func (b *Builder) AddSlice(in WireID, offset uint8, out WireID) (ComponentID, error) {
	inWidth, err := b.widthOf(in)
	if err != nil {
		return InvalidComponentID, err
	}
	outWidth, err := b.widthOf(out)
	if err != nil {
		return InvalidComponentID, err
	}
	if int(offset)+int(outWidth) > int(inWidth) {
		return InvalidComponentID, simerr.Newf(simerr.OffsetOutOfRange, "slice [%d,%d) exceeds input width %d", offset, int(offset)+int(outWidth), inWidth)
	}
	c := newComp(KindSlice, []WireID{in}, []WireID{out})
	c.offset = offset
	c.width = outWidth
	return b.commit(c, []uint8{outWidth})
}

// AddMerge adds a k>=2 input concatenation; input 0 occupies the low bits
// of an output whose width is the sum of the input widths.
func (b *Builder) AddMerge(ins []WireID, out WireID) (ComponentID, error) {
	if len(ins) < 2 {
		return InvalidComponentID, simerr.New(simerr.TooFewInputs, "MERGE requires at least 2 inputs")
	}
	var total int
	for _, in := range ins {
		w, err := b.widthOf(in)
		if err != nil {
			return InvalidComponentID, err
		}
		total += int(w)
		if total > MaxWidth {
			return InvalidComponentID, simerr.Newf(simerr.ArgumentOutOfRange, "merged width %d exceeds %d", total, MaxWidth)
		}
	}
	outWidth, err := b.widthOf(out)
	if err != nil {
		return InvalidComponentID, err
	}
	if int(outWidth) != total {
		return InvalidComponentID, simerr.Newf(simerr.WireWidthMismatch, "MERGE output width must be %d, got %d", total, outWidth)
	}
	c := newComp(KindMerge, append([]WireID(nil), ins...), []WireID{out})
	c.width = outWidth
	return b.commit(c, []uint8{outWidth})
}

// AddPriority adds a priority decoder: k 1-bit inputs (input 0 is
// highest priority), one output of width ceil(log2(k+1)) holding the
// 1-based index of the highest-priority asserted input, or 0 if none.
func (b *Builder) AddPriority(ins []WireID, out WireID) (ComponentID, error) {
	if len(ins) < 1 {
		return InvalidComponentID, simerr.New(simerr.TooFewInputs, "PRIORITY requires at least 1 input")
	}
	for _, in := range ins {
		w, err := b.widthOf(in)
		if err != nil {
			return InvalidComponentID, err
		}
		if w != 1 {
			return InvalidComponentID, simerr.Newf(simerr.WireWidthMismatch, "PRIORITY inputs must be 1 bit, wire %d has width %d", in, w)
		}
	}
	wantOut := uint8(bits.Len(uint(len(ins))))
	outWidth, err := b.widthOf(out)
	if err != nil {
		return InvalidComponentID, err
	}
	if outWidth != wantOut {
		return InvalidComponentID, simerr.Newf(simerr.WireWidthMismatch, "PRIORITY output must be %d bits for %d inputs, got %d", wantOut, len(ins), outWidth)
	}
	c := newComp(KindPriority, append([]WireID(nil), ins...), []WireID{out})
	c.width = outWidth
	return b.commit(c, []uint8{outWidth})
}

// --- buffer / mux / adder -------------------------------------------------

// AddBuffer adds a tri-state buffer: data.width == out.width, enable is 1
// bit. When enable is not exactly logic-1 the output drives high-Z.
func (b *Builder) AddBuffer(data, enable, out WireID) (ComponentID, error) {
	width, err := b.sameWidth(data, out)
	if err != nil {
		return InvalidComponentID, err
	}
	enWidth, err := b.widthOf(enable)
	if err != nil {
		return InvalidComponentID, err
	}
	if enWidth != 1 {
		return InvalidComponentID, simerr.Newf(simerr.WireWidthMismatch, "BUFFER enable must be 1 bit, got %d", enWidth)
	}
	c := newComp(KindBuffer, []WireID{data, enable}, []WireID{out})
	c.width = width
	return b.commit(c, []uint8{width})
}

// AddMux adds a 2^s-to-1 multiplexer. len(data) must be a power of two;
// sel's width must equal log2(len(data)).
func (b *Builder) AddMux(data []WireID, sel WireID, out WireID) (ComponentID, error) {
	n := len(data)
	if n < 2 || n&(n-1) != 0 {
		return InvalidComponentID, simerr.Newf(simerr.InvalidInputCount, "MUX requires a power-of-two number of data inputs >= 2, got %d", n)
	}
	width, err := b.sameWidth(append(append([]WireID(nil), data...), out)...)
	if err != nil {
		return InvalidComponentID, err
	}
	selWidth, err := b.widthOf(sel)
	if err != nil {
		return InvalidComponentID, err
	}
	want := uint8(bits.Len(uint(n - 1)))
	if selWidth != want {
		return InvalidComponentID, simerr.Newf(simerr.WireWidthMismatch, "MUX select must be %d bits for %d data inputs, got %d", want, n, selWidth)
	}
	ins := append(append([]WireID(nil), data...), sel)
	c := newComp(KindMux, ins, []WireID{out})
	c.width = width
	return b.commit(c, []uint8{width})
}

// AddAdder adds a full adder with explicit carry-in/carry-out. A, B and
// sum share a width; carry-in and carry-out are 1 bit.
func (b *Builder) AddAdder(a, bIn, cin, sum, cout WireID) (ComponentID, error) {
	width, err := b.sameWidth(a, bIn, sum)
	if err != nil {
		return InvalidComponentID, err
	}
	cinWidth, err := b.widthOf(cin)
	if err != nil {
		return InvalidComponentID, err
	}
	if cinWidth != 1 {
		return InvalidComponentID, simerr.Newf(simerr.WireWidthMismatch, "ADDER carry-in must be 1 bit, got %d", cinWidth)
	}
	c := newComp(KindAdder, []WireID{a, bIn, cin}, []WireID{sum, cout})
	c.width = width
	return b.commit(c, []uint8{width, 1})
}

// --- clocked components ---------------------------------------------------

// AddRegister adds a clocked register. data-in and data-out share a width;
// enable and clock are 1 bit. The register's initial content must be set
// with SetRegisterInitial before Build.
func (b *Builder) AddRegister(datain, dataout, enable, clock WireID, pol Polarity) (ComponentID, error) {
	width, err := b.sameWidth(datain, dataout)
	if err != nil {
		return InvalidComponentID, err
	}
	for _, w := range []WireID{enable, clock} {
		ww, err := b.widthOf(w)
		if err != nil {
			return InvalidComponentID, err
		}
		if ww != 1 {
			return InvalidComponentID, simerr.Newf(simerr.WireWidthMismatch, "REGISTER enable/clock must be 1 bit, got %d", ww)
		}
	}
	c := newComp(KindRegister, []WireID{datain, enable, clock}, []WireID{dataout})
	c.width = width
	c.dataW = width
	c.pol = pol
	return b.commit(c, []uint8{width})
}

// SetRegisterInitial sets component id's internal contents prior to the
// first settle. state must have the register's data width.
func (b *Builder) SetRegisterInitial(id ComponentID, state LogicState) error {
	c, err := b.component(id)
	if err != nil {
		return err
	}
	if c.kind != KindRegister {
		return simerr.Newf(simerr.InvalidComponentType, "component %d is not a REGISTER", id)
	}
	if state.Width() != c.dataW {
		return simerr.Newf(simerr.WireWidthMismatch, "initial state width %d does not match register width %d", state.Width(), c.dataW)
	}
	b.regInit[id] = state
	return nil
}

func addrCellCount(addrWidth uint8) (int, error) {
	if addrWidth > maxAddrWidth {
		return 0, simerr.Newf(simerr.ResourceLimitReached, "address width %d exceeds maximum of %d", addrWidth, maxAddrWidth)
	}
	return 1 << addrWidth, nil
}

// AddRAM adds a clocked read/write memory. write-address and read-address
// share a width (bounding the memory to 2^width cells); data-in and
// data-out share a width; write-enable and clock are 1 bit.
func (b *Builder) AddRAM(waddr, din, raddr, dout, we, clock WireID, pol Polarity) (ComponentID, error) {
	addrW, err := b.sameWidth(waddr, raddr)
	if err != nil {
		return InvalidComponentID, err
	}
	dataW, err := b.sameWidth(din, dout)
	if err != nil {
		return InvalidComponentID, err
	}
	for _, w := range []WireID{we, clock} {
		ww, err := b.widthOf(w)
		if err != nil {
			return InvalidComponentID, err
		}
		if ww != 1 {
			return InvalidComponentID, simerr.Newf(simerr.WireWidthMismatch, "RAM write-enable/clock must be 1 bit, got %d", ww)
		}
	}
	if _, err := addrCellCount(addrW); err != nil {
		return InvalidComponentID, err
	}
	c := newComp(KindRAM, []WireID{waddr, din, raddr, we, clock}, []WireID{dout})
	c.addrW = addrW
	c.dataW = dataW
	c.pol = pol
	return b.commit(c, []uint8{dataW})
}

// SetRAMCell presets one RAM cell before Build. Cells not explicitly set
// default to all-undefined (X), matching un-initialized hardware memory.
func (b *Builder) SetRAMCell(id ComponentID, addr uint32, state LogicState) error {
	c, err := b.component(id)
	if err != nil {
		return err
	}
	if c.kind != KindRAM {
		return simerr.Newf(simerr.InvalidComponentType, "component %d is not a RAM", id)
	}
	if state.Width() != c.dataW {
		return simerr.Newf(simerr.WireWidthMismatch, "cell width %d does not match RAM data width %d", state.Width(), c.dataW)
	}
	n, _ := addrCellCount(c.addrW)
	if int(addr) >= n {
		return simerr.Newf(simerr.OffsetOutOfRange, "address %d out of range [0,%d)", addr, n)
	}
	cells := b.ramCells[id]
	if cells == nil {
		cells = make([]LogicState, n)
		for i := range cells {
			cells[i] = AllUndefined(c.dataW)
		}
	}
	cells[addr] = state
	b.ramCells[id] = cells
	return nil
}

// AddROM adds a read-only memory. addr and dout determine the cell count
// (2^addr.width) and cell width. Every cell must be set with SetROMCell (or
// SetROMContents) before Build.
func (b *Builder) AddROM(addr, dout WireID) (ComponentID, error) {
	addrW, err := b.widthOf(addr)
	if err != nil {
		return InvalidComponentID, err
	}
	dataW, err := b.widthOf(dout)
	if err != nil {
		return InvalidComponentID, err
	}
	if _, err := addrCellCount(addrW); err != nil {
		return InvalidComponentID, err
	}
	c := newComp(KindROM, []WireID{addr}, []WireID{dout})
	c.addrW = addrW
	c.dataW = dataW
	return b.commit(c, []uint8{dataW})
}

// SetROMCell presets one ROM cell before Build.
func (b *Builder) SetROMCell(id ComponentID, addr uint32, state LogicState) error {
	c, err := b.component(id)
	if err != nil {
		return err
	}
	if c.kind != KindROM {
		return simerr.Newf(simerr.InvalidComponentType, "component %d is not a ROM", id)
	}
	if state.Width() != c.dataW {
		return simerr.Newf(simerr.WireWidthMismatch, "cell width %d does not match ROM data width %d", state.Width(), c.dataW)
	}
	n, _ := addrCellCount(c.addrW)
	if int(addr) >= n {
		return simerr.Newf(simerr.OffsetOutOfRange, "address %d out of range [0,%d)", addr, n)
	}
	cells := b.romCells[id]
	if cells == nil {
		cells = make([]LogicState, n)
		for i := range cells {
			cells[i] = AllUndefined(c.dataW)
		}
	}
	cells[addr] = state
	b.romCells[id] = cells
	return nil
}

// SetROMContents replaces a ROM's entire contents in one call. len(cells)
// must equal 2^addr.width and every element must have the ROM's data width.
func (b *Builder) SetROMContents(id ComponentID, cells []LogicState) error {
	c, err := b.component(id)
	if err != nil {
		return err
	}
	if c.kind != KindROM {
		return simerr.Newf(simerr.InvalidComponentType, "component %d is not a ROM", id)
	}
	n, _ := addrCellCount(c.addrW)
	if len(cells) != n {
		return simerr.Newf(simerr.InvalidArgument, "expected %d cells, got %d", n, len(cells))
	}
	for i, s := range cells {
		if s.Width() != c.dataW {
			return simerr.Newf(simerr.WireWidthMismatch, "cell %d width %d does not match ROM data width %d", i, s.Width(), c.dataW)
		}
	}
	b.romCells[id] = append([]LogicState(nil), cells...)
	return nil
}
