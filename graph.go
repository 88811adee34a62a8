package sim

import (
	"github.com/circuitkit/logicsim/simerr"
)

// Simulator is the immutable, flat compiled form of a Builder's graph. Its
// arrays are indexed directly by WireID/ComponentID, and its fan-out index
// lets the settling loop find, for any wire whose resolved value just
// changed, exactly the components that must be re-evaluated.
type Simulator struct {
	wireWidth []uint8
	wireName  []string
	wireDrive []LogicState // base (undriven) drive per wire
	wireDrivers [][]driverRef

	comps    []component
	compName []string

	// fanout[w] lists the components that read wire w as an input.
	fanout [][]ComponentID

	regState []LogicState
	ramCells [][]LogicState
	romCells [][]LogicState

	// clockLevel records, per clocked component (Register/RAM), the clock
	// wire's level as of the last edge check. It starts Undefined so the
	// very first settle can never be mistaken for an edge.
	clockLevel []BitState

	// resolved is the current settled value of every wire, and driverCache
	// the last value driven by each of wireDrivers' entries (same shape).
	// Both are simulation runtime state, mutated by Settle/Step.
	resolved    []LogicState
	driverCache [][]LogicState

	workers int
}

// NumWires returns the number of wires in the compiled graph.
func (s *Simulator) NumWires() int { return len(s.wireWidth) }

// NumComponents returns the number of components in the compiled graph.
func (s *Simulator) NumComponents() int { return len(s.comps) }

// WireWidth returns the bit width of wire id.
func (s *Simulator) WireWidth(id WireID) uint8 { return s.wireWidth[id] }

// WireName returns wire id's name, or "" if unset.
func (s *Simulator) WireName(id WireID) string { return s.wireName[id] }

// ComponentName returns component id's name, or "" if unset.
func (s *Simulator) ComponentName(id ComponentID) string { return s.compName[id] }

// ComponentKind returns component id's kind.
func (s *Simulator) ComponentKind(id ComponentID) Kind { return s.comps[id].kind }

// Build freezes b into an immutable Simulator. It fails with
// simerr.InvalidOperation if a Register was added without
// SetRegisterInitial, or a ROM cell was never set.
func (b *Builder) Build() (*Simulator, error) {
	if err := b.checkNotBuilt(); err != nil {
		return nil, err
	}

	s := &Simulator{
		wireWidth:   make([]uint8, len(b.wires)),
		wireName:    make([]string, len(b.wires)),
		wireDrive:   make([]LogicState, len(b.wires)),
		wireDrivers: make([][]driverRef, len(b.wires)),
		fanout:      make([][]ComponentID, len(b.wires)),
		comps:       make([]component, len(b.comps)),
		compName:    make([]string, len(b.comps)),
		workers:     b.Workers,
	}

	for i, w := range b.wires {
		s.wireWidth[i] = w.width
		s.wireName[i] = w.name
		s.wireDrive[i] = w.baseDrive
		if len(w.drivers) > 0 {
			s.wireDrivers[i] = append([]driverRef(nil), w.drivers...)
		}
	}

	for i, c := range b.comps {
		cc := c
		cc.ins = append([]WireID(nil), c.ins...)
		cc.outs = append([]WireID(nil), c.outs...)
		s.compName[i] = c.name

		switch c.kind {
		case KindRegister:
			init, ok := b.regInit[ComponentID(i)]
			if !ok {
				return nil, simerr.Newf(simerr.InvalidOperation, "register %d (%s) has no initial state", i, c.name)
			}
			cc.stateIndex = len(s.regState)
			s.regState = append(s.regState, init)
		case KindRAM:
			cells := b.ramCells[ComponentID(i)]
			n, _ := addrCellCount(c.addrW)
			if cells == nil {
				cells = make([]LogicState, n)
				for j := range cells {
					cells[j] = AllUndefined(c.dataW)
				}
			}
			cc.stateIndex = len(s.ramCells)
			s.ramCells = append(s.ramCells, cells)
		case KindROM:
			cells := b.romCells[ComponentID(i)]
			n, _ := addrCellCount(c.addrW)
			if len(cells) != n {
				return nil, simerr.Newf(simerr.InvalidOperation, "ROM %d (%s) has %d of %d cells set", i, c.name, len(cells), n)
			}
			cc.stateIndex = len(s.romCells)
			s.romCells = append(s.romCells, cells)
		}
		s.comps[i] = cc

		for _, in := range c.ins {
			s.fanout[in] = append(s.fanout[in], ComponentID(i))
		}
	}

	s.clockLevel = make([]BitState, len(s.comps))
	for i, c := range s.comps {
		if c.kind == KindRegister || c.kind == KindRAM {
			s.clockLevel[i] = Undefined
		}
	}

	s.resolved = make([]LogicState, len(s.wireWidth))
	s.driverCache = make([][]LogicState, len(s.wireWidth))
	for w, width := range s.wireWidth {
		s.resolved[w] = s.wireDrive[w]
		if n := len(s.wireDrivers[w]); n > 0 {
			cache := make([]LogicState, n)
			for i := range cache {
				cache[i] = HighZState(width)
			}
			s.driverCache[w] = cache
		}
	}

	b.built = true
	return s, nil
}

// Reset sets every wire's resolved value back to its current base drive,
// clears every cached driver output to high-Z, and returns every clocked
// component's recorded clock level to Undefined. It does not restore
// register contents or RAM cells to their Build-time values, and base
// drives replaced with Drive keep their new values.
func (s *Simulator) Reset() {
	for w, width := range s.wireWidth {
		s.resolved[w] = s.wireDrive[w]
		for i := range s.driverCache[w] {
			s.driverCache[w][i] = HighZState(width)
		}
	}
	for i := range s.clockLevel {
		if s.comps[i].kind == KindRegister || s.comps[i].kind == KindRAM {
			s.clockLevel[i] = Undefined
		}
	}
}

// WireState returns wire id's current settled value.
func (s *Simulator) WireState(id WireID) LogicState { return s.resolved[id] }

// Drive replaces wire id's base drive without requiring a rebuild, for
// driving top-level inputs between settle passes. It takes effect on the
// next Settle/Step call.
func (s *Simulator) Drive(id WireID, state LogicState) error {
	if state.Width() != s.wireWidth[id] {
		return simerr.Newf(simerr.WireWidthMismatch, "drive width %d does not match wire %d width %d", state.Width(), id, s.wireWidth[id])
	}
	s.wireDrive[id] = state
	return nil
}
