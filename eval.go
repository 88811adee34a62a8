package sim

import "math/bits"

// evalComponent computes c's outputs from its current input values. It is a
// pure function: for REGISTER/RAM/ROM it reads Simulator's stored internal
// state but never writes it. State mutation on a clock edge is the
// scheduler's job, applied between settling passes.
func evalComponent(c *component, sim *Simulator, inputs []LogicState) []LogicState {
	switch c.kind {
	case KindAnd:
		return []LogicState{foldBitwise(inputs, andBit)}
	case KindOr:
		return []LogicState{foldBitwise(inputs, orBit)}
	case KindXor:
		return []LogicState{foldBitwise(inputs, xorBit)}
	case KindNand:
		return []LogicState{invertEach(foldBitwise(inputs, andBit))}
	case KindNor:
		return []LogicState{invertEach(foldBitwise(inputs, orBit))}
	case KindXnor:
		return []LogicState{invertEach(foldBitwise(inputs, xorBit))}
	case KindNot:
		return []LogicState{invertEach(inputs[0])}

	case KindReduceAnd:
		return []LogicState{reduceBits(inputs[0], andBit, Logic1)}
	case KindReduceOr:
		return []LogicState{reduceBits(inputs[0], orBit, Logic0)}
	case KindReduceXor:
		return []LogicState{reduceBits(inputs[0], xorBit, Logic0)}
	case KindReduceNand:
		return []LogicState{invertEach(reduceBits(inputs[0], andBit, Logic1))}
	case KindReduceNor:
		return []LogicState{invertEach(reduceBits(inputs[0], orBit, Logic0))}
	case KindReduceXnor:
		return []LogicState{invertEach(reduceBits(inputs[0], xorBit, Logic0))}

	case KindAdd:
		return []LogicState{arith2(inputs[0], inputs[1], addWords)}
	case KindSub:
		return []LogicState{arith2(inputs[0], inputs[1], subWords)}
	case KindMul:
		return []LogicState{arith2(inputs[0], inputs[1], mulWords)}
	case KindNeg:
		return []LogicState{arith1(inputs[0], negWords)}

	case KindShl:
		return []LogicState{evalShift(inputs[0], inputs[1], shiftLeft)}
	case KindLshr:
		return []LogicState{evalShift(inputs[0], inputs[1], shiftRightLogical)}
	case KindAshr:
		return []LogicState{evalShift(inputs[0], inputs[1], shiftRightArithmetic)}

	case KindCmpEq:
		return []LogicState{cmpUnsigned(inputs[0], inputs[1], func(o int) bool { return o == 0 })}
	case KindCmpNe:
		return []LogicState{cmpUnsigned(inputs[0], inputs[1], func(o int) bool { return o != 0 })}
	case KindCmpLtU:
		return []LogicState{cmpUnsigned(inputs[0], inputs[1], func(o int) bool { return o < 0 })}
	case KindCmpGtU:
		return []LogicState{cmpUnsigned(inputs[0], inputs[1], func(o int) bool { return o > 0 })}
	case KindCmpLeU:
		return []LogicState{cmpUnsigned(inputs[0], inputs[1], func(o int) bool { return o <= 0 })}
	case KindCmpGeU:
		return []LogicState{cmpUnsigned(inputs[0], inputs[1], func(o int) bool { return o >= 0 })}
	case KindCmpLtS:
		return []LogicState{cmpSigned(inputs[0], inputs[1], func(o int) bool { return o < 0 })}
	case KindCmpGtS:
		return []LogicState{cmpSigned(inputs[0], inputs[1], func(o int) bool { return o > 0 })}
	case KindCmpLeS:
		return []LogicState{cmpSigned(inputs[0], inputs[1], func(o int) bool { return o <= 0 })}
	case KindCmpGeS:
		return []LogicState{cmpSigned(inputs[0], inputs[1], func(o int) bool { return o >= 0 })}

	case KindZeroExtend:
		return []LogicState{zeroExtend(inputs[0], c.outs, sim)}
	case KindSignExtend:
		return []LogicState{signExtend(inputs[0], c.outs, sim)}
	case KindSlice:
		return []LogicState{sliceBits(inputs[0], c.offset, c.width)}
	case KindMerge:
		return []LogicState{mergeBits(inputs, c.width)}
	case KindPriority:
		return []LogicState{priorityDecode(inputs, c.width)}
	case KindBuffer:
		return []LogicState{evalBuffer(inputs[0], inputs[1])}
	case KindMux:
		return []LogicState{evalMux(inputs, c.width)}
	case KindAdder:
		sum, cout := evalAdder(inputs[0], inputs[1], inputs[2])
		return []LogicState{sum, cout}

	case KindRegister:
		return []LogicState{sim.regState[c.stateIndex]}
	case KindRAM:
		return []LogicState{evalRAMRead(inputs[2], sim.ramCells[c.stateIndex], c.dataW)}
	case KindROM:
		return []LogicState{evalRAMRead(inputs[0], sim.romCells[c.stateIndex], c.dataW)}
	}
	panic("sim: unhandled component kind in evalComponent")
}

// --- bitwise -----------------------------------------------------------

type bitOp func(a, b BitState) BitState

func andBit(a, b BitState) BitState {
	av, ap := a.valuePlane()
	bv, bp := b.valuePlane()
	if ap && bp {
		return bitState(av && bv, true)
	}
	if (ap && av == false) || (bp && bv == false) {
		return Logic0
	}
	return Undefined
}

func orBit(a, b BitState) BitState {
	av, ap := a.valuePlane()
	bv, bp := b.valuePlane()
	if ap && bp {
		return bitState(av || bv, true)
	}
	if (ap && av) || (bp && bv) {
		return Logic1
	}
	return Undefined
}

func xorBit(a, b BitState) BitState {
	av, ap := a.valuePlane()
	bv, bp := b.valuePlane()
	if ap && bp {
		return bitState(av != bv, true)
	}
	return Undefined
}

func foldBitwise(ins []LogicState, op bitOp) LogicState {
	width := ins[0].Width()
	acc := ins[0]
	for _, in := range ins[1:] {
		next := LogicState{width: width}
		for i := 0; i < int(width); i++ {
			next.setBit(i, op(acc.Bit(i), in.Bit(i)))
		}
		acc = next
	}
	return acc
}

func reduceBits(in LogicState, op bitOp, identity BitState) LogicState {
	acc := identity
	for i := 0; i < int(in.Width()); i++ {
		acc = op(acc, in.Bit(i))
	}
	out := LogicState{width: 1}
	out.setBit(0, acc)
	return out
}

func invertEach(in LogicState) LogicState {
	out := LogicState{width: in.Width()}
	for i := 0; i < int(in.Width()); i++ {
		v, p := in.Bit(i).valuePlane()
		if p {
			out.setBit(i, bitState(!v, true))
		} else {
			out.setBit(i, Undefined)
		}
	}
	return out
}

// --- arithmetic (all-or-nothing X propagation) --------------------------

func arith2(a, b LogicState, f func(a, b []uint64, n int) []uint64) LogicState {
	width := a.Width()
	if !a.fullyDefined() || !b.fullyDefined() {
		return AllUndefined(width)
	}
	n := wordCount(width)
	aw, _ := a.BigWords()
	bw, _ := b.BigWords()
	res, _ := FromWords(f(aw, bw, n), width)
	return res
}

func arith1(a LogicState, f func(a []uint64, n int) []uint64) LogicState {
	width := a.Width()
	if !a.fullyDefined() {
		return AllUndefined(width)
	}
	n := wordCount(width)
	aw, _ := a.BigWords()
	res, _ := FromWords(f(aw, n), width)
	return res
}

func addWords(a, b []uint64, n int) []uint64 {
	res := make([]uint64, n)
	var carry uint64
	for i := 0; i < n; i++ {
		s, c := bits.Add64(a[i], b[i], carry)
		res[i] = s
		carry = c
	}
	return res
}

func subWords(a, b []uint64, n int) []uint64 {
	res := make([]uint64, n)
	var borrow uint64
	for i := 0; i < n; i++ {
		d, br := bits.Sub64(a[i], b[i], borrow)
		res[i] = d
		borrow = br
	}
	return res
}

func negWords(a []uint64, n int) []uint64 {
	inv := make([]uint64, n)
	for i := range a {
		inv[i] = ^a[i]
	}
	one := make([]uint64, n)
	one[0] = 1
	return addWords(inv, one, n)
}

func mulWords(a, b []uint64, n int) []uint64 {
	res := make([]uint64, n)
	for i := 0; i < n; i++ {
		if a[i] == 0 {
			continue
		}
		var carry uint64
		for j := 0; j < n-i; j++ {
			hi, lo := bits.Mul64(a[i], b[j])
			s1, c1 := bits.Add64(lo, res[i+j], 0)
			s2, c2 := bits.Add64(s1, carry, 0)
			res[i+j] = s2
			carry = hi + c1 + c2
		}
	}
	return res
}

// --- shifts --------------------------------------------------------------

func evalShift(a, amount LogicState, f func(a LogicState, n int) LogicState) LogicState {
	width := a.Width()
	n32, err := amount.Uint32()
	if err != nil {
		return AllUndefined(width)
	}
	return f(a, int(n32))
}

func shiftLeft(a LogicState, n int) LogicState {
	width := int(a.Width())
	out := LogicState{width: a.Width()}
	for i := width - 1; i >= 0; i-- {
		src := i - n
		if src >= 0 {
			out.setBit(i, a.Bit(src))
		} else {
			out.setBit(i, Logic0)
		}
	}
	return out
}

func shiftRightLogical(a LogicState, n int) LogicState {
	width := int(a.Width())
	out := LogicState{width: a.Width()}
	for i := 0; i < width; i++ {
		src := i + n
		if src < width {
			out.setBit(i, a.Bit(src))
		} else {
			out.setBit(i, Logic0)
		}
	}
	return out
}

func shiftRightArithmetic(a LogicState, n int) LogicState {
	width := int(a.Width())
	sign := a.Bit(width - 1)
	out := LogicState{width: a.Width()}
	for i := 0; i < width; i++ {
		src := i + n
		if src < width {
			out.setBit(i, a.Bit(src))
		} else {
			out.setBit(i, sign)
		}
	}
	return out
}

// --- compares --------------------------------------------------------------

func boolBit(v bool) LogicState {
	out := LogicState{width: 1}
	if v {
		out.setBit(0, Logic1)
	} else {
		out.setBit(0, Logic0)
	}
	return out
}

func cmpWordsUnsigned(a, b []uint64) int {
	for i := len(a) - 1; i >= 0; i-- {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func cmpUnsigned(a, b LogicState, pred func(int) bool) LogicState {
	if !a.fullyDefined() || !b.fullyDefined() {
		return AllUndefined(1)
	}
	aw, _ := a.BigWords()
	bw, _ := b.BigWords()
	return boolBit(pred(cmpWordsUnsigned(aw, bw)))
}

func flipTopBit(words []uint64, width uint8) []uint64 {
	out := append([]uint64(nil), words...)
	bit := int(width) - 1
	word, b := bit/wordBits, uint(bit%wordBits)
	out[word] ^= 1 << b
	return out
}

func cmpSigned(a, b LogicState, pred func(int) bool) LogicState {
	if !a.fullyDefined() || !b.fullyDefined() {
		return AllUndefined(1)
	}
	aw, _ := a.BigWords()
	bw, _ := b.BigWords()
	aw = flipTopBit(aw, a.Width())
	bw = flipTopBit(bw, b.Width())
	return boolBit(pred(cmpWordsUnsigned(aw, bw)))
}

// --- extend / slice / merge / priority / buffer / mux ---------------------

func zeroExtend(a LogicState, outs []WireID, sim *Simulator) LogicState {
	outWidth := extendOutWidth(a, outs, sim)
	out := LogicState{width: outWidth}
	for i := 0; i < int(a.Width()); i++ {
		out.setBit(i, a.Bit(i))
	}
	for i := int(a.Width()); i < int(outWidth); i++ {
		out.setBit(i, Logic0)
	}
	return out
}

func signExtend(a LogicState, outs []WireID, sim *Simulator) LogicState {
	outWidth := extendOutWidth(a, outs, sim)
	sign := a.Bit(int(a.Width()) - 1)
	out := LogicState{width: outWidth}
	for i := 0; i < int(a.Width()); i++ {
		out.setBit(i, a.Bit(i))
	}
	for i := int(a.Width()); i < int(outWidth); i++ {
		out.setBit(i, sign)
	}
	return out
}

// extendOutWidth resolves the destination width for an extend component
// from the compiled graph's wire table, since the component's own `width`
// field records its (narrower) input width.
func extendOutWidth(a LogicState, outs []WireID, sim *Simulator) uint8 {
	if sim != nil && len(outs) == 1 {
		return sim.WireWidth(outs[0])
	}
	return a.Width()
}

func sliceBits(a LogicState, offset, outWidth uint8) LogicState {
	out := LogicState{width: outWidth}
	for i := 0; i < int(outWidth); i++ {
		out.setBit(i, a.Bit(int(offset)+i))
	}
	return out
}

func mergeBits(ins []LogicState, outWidth uint8) LogicState {
	out := LogicState{width: outWidth}
	pos := 0
	for _, in := range ins {
		for i := 0; i < int(in.Width()); i++ {
			out.setBit(pos+i, in.Bit(i))
		}
		pos += int(in.Width())
	}
	return out
}

func priorityDecode(ins []LogicState, outWidth uint8) LogicState {
	for i, in := range ins {
		switch in.Bit(0) {
		case Logic1:
			return FromUint64(uint64(i+1), outWidth)
		case Logic0:
			continue
		default:
			return AllUndefined(outWidth)
		}
	}
	return FromUint64(0, outWidth)
}

func evalBuffer(data, enable LogicState) LogicState {
	if enable.Bit(0) == Logic1 {
		return data
	}
	return HighZState(data.Width())
}

func evalMux(ins []LogicState, width uint8) LogicState {
	n := len(ins) - 1
	sel := ins[n]
	idx, err := sel.Uint32()
	if err != nil || int(idx) >= n {
		return AllUndefined(width)
	}
	return ins[idx]
}

func evalAdder(a, b, cin LogicState) (sum, cout LogicState) {
	width := a.Width()
	if !a.fullyDefined() || !b.fullyDefined() || !cin.fullyDefined() {
		return AllUndefined(width), AllUndefined(1)
	}
	n := wordCount(width)
	aw, _ := a.BigWords()
	bw, _ := b.BigWords()
	var carryIn uint64
	if cin.Bit(0) == Logic1 {
		carryIn = 1
	}
	res := make([]uint64, n)
	carry := carryIn
	for i := 0; i < n; i++ {
		s, c := bits.Add64(aw[i], bw[i], carry)
		res[i] = s
		carry = c
	}
	sumState, _ := FromWords(res, width)
	// carry-out is the carry past the value's declared bit width, which does
	// not generally coincide with bits.Add64's word-level carry chain when
	// width is not a multiple of 64: ripple it separately, bit-serially.
	carryOut := computeBitCarry(aw, bw, carryIn, width)
	return sumState, boolBit(carryOut != 0)
}

// computeBitCarry ripples a bit-serial carry to determine the carry out of
// the most significant bit of a width-bit addition. evalAdder calls it for
// every width, because bits.Add64's word-level carry chain only aligns with
// the logical bit width when width is a multiple of 64.
func computeBitCarry(a, b []uint64, carryIn uint64, width uint8) uint64 {
	carry := carryIn
	for i := 0; i < int(width); i++ {
		word, bit := i/wordBits, uint(i%wordBits)
		ai := (a[word] >> bit) & 1
		bi := (b[word] >> bit) & 1
		carry = (ai & bi) | (ai & carry) | (bi & carry)
	}
	return carry
}

func evalRAMRead(addr LogicState, cells []LogicState, dataW uint8) LogicState {
	idx, err := addr.Uint32()
	if err != nil || int(idx) >= len(cells) {
		return AllUndefined(dataW)
	}
	return cells[idx]
}
