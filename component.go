package sim

// Kind identifies a component's transfer function and port shape. The
// complete list is fixed; see the per-kind arity/width rules enforced by
// Builder's Add* methods.
type Kind uint8

const (
	KindAnd Kind = iota
	KindOr
	KindXor
	KindNand
	KindNor
	KindXnor
	KindNot

	KindReduceAnd
	KindReduceOr
	KindReduceXor
	KindReduceNand
	KindReduceNor
	KindReduceXnor

	KindAdd
	KindSub
	KindMul
	KindNeg

	KindShl
	KindLshr
	KindAshr

	KindCmpEq
	KindCmpNe
	KindCmpLtU
	KindCmpGtU
	KindCmpLeU
	KindCmpGeU
	KindCmpLtS
	KindCmpGtS
	KindCmpLeS
	KindCmpGeS

	KindZeroExtend
	KindSignExtend
	KindSlice
	KindMerge
	KindPriority
	KindBuffer
	KindMux
	KindAdder

	KindRegister
	KindRAM
	KindROM
)

var kindNames = [...]string{
	KindAnd: "AND", KindOr: "OR", KindXor: "XOR", KindNand: "NAND", KindNor: "NOR", KindXnor: "XNOR", KindNot: "NOT",
	KindReduceAnd: "RAND", KindReduceOr: "ROR", KindReduceXor: "RXOR", KindReduceNand: "RNAND", KindReduceNor: "RNOR", KindReduceXnor: "RXNOR",
	KindAdd: "ADD", KindSub: "SUB", KindMul: "MUL", KindNeg: "NEG",
	KindShl: "SHL", KindLshr: "LSHR", KindAshr: "ASHR",
	KindCmpEq: "EQ", KindCmpNe: "NE", KindCmpLtU: "LTU", KindCmpGtU: "GTU", KindCmpLeU: "LEU", KindCmpGeU: "GEU",
	KindCmpLtS: "LTS", KindCmpGtS: "GTS", KindCmpLeS: "LES", KindCmpGeS: "GES",
	KindZeroExtend: "ZEXT", KindSignExtend: "SEXT", KindSlice: "SLICE", KindMerge: "MERGE",
	KindPriority: "PRIORITY", KindBuffer: "BUFFER", KindMux: "MUX", KindAdder: "ADDER",
	KindRegister: "REGISTER", KindRAM: "RAM", KindROM: "ROM",
}

// String returns the component kind's mnemonic name, e.g. "NAND".
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// Polarity is the clock edge a Register or RAM reacts to.
type Polarity uint8

const (
	// RisingEdge triggers on a clock transition from Logic0 to Logic1.
	RisingEdge Polarity = iota
	// FallingEdge triggers on a clock transition from Logic1 to Logic0.
	FallingEdge
)

// component is the immutable, frozen record for one graph node. Builder
// accumulates these; Build() copies them verbatim into the compiled graph.
type component struct {
	kind Kind
	name string

	// Port wire IDs, ordered per kind:
	//
	//	nary bitwise / reduce:  ins = inputs,               outs = [out]
	//	NOT:                    ins = [in],                 outs = [out]
	//	ADD/SUB/MUL:            ins = [a,b],                outs = [out]
	//	NEG:                    ins = [a],                  outs = [out]
	//	shifts:                 ins = [a,b],                outs = [out]
	//	compares:               ins = [a,b],                outs = [out]
	//	extend:                 ins = [in],                 outs = [out]
	//	slice:                  ins = [in],                 outs = [out]
	//	merge:                  ins = [in0..ink],            outs = [out]
	//	priority:               ins = [in0..ink],            outs = [out]
	//	buffer:                 ins = [data,enable],         outs = [out]
	//	mux:                    ins = [data0..dataN-1, sel], outs = [out]
	//	adder:                  ins = [a,b,cin],             outs = [sum,cout]
	//	register:               ins = [datain,enable,clock], outs = [out]
	//	ram:                    ins = [waddr,din,raddr,we,clock], outs = [dout]
	//	rom:                    ins = [addr],                outs = [dout]
	ins  []WireID
	outs []WireID

	width   uint8 // primary width, meaning depends on kind (see per-kind doc)
	offset  uint8 // slice: bit offset into the input
	pol     Polarity
	dataW   uint8 // register/ram: data width; ram/rom: also used for cell width
	addrW   uint8 // ram/rom: address width

	// stateIndex indexes into Simulator.regState / ramCells / romCells for
	// stateful kinds; -1 for stateless kinds.
	stateIndex int
}

func (c *component) numDataInputs() int {
	switch c.kind {
	case KindMerge, KindPriority:
		return len(c.ins)
	case KindMux:
		return len(c.ins) - 1
	default:
		return len(c.ins)
	}
}
