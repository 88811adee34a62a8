package sim

import (
	"runtime"
	"sync"

	"github.com/circuitkit/logicsim/simerr"
	"github.com/sirupsen/logrus"
)

// defaultMaxSteps bounds the settling loop against oscillating (unstable)
// networks, e.g. an odd-length combinational feedback loop that can never
// reach a fixpoint.
const defaultMaxSteps = 10000

// SettleResult reports the outcome of one settling pass.
type SettleResult struct {
	// Steps is the number of wavefronts processed before the network
	// reached a fixpoint.
	Steps int
	// Conflicts lists, in ascending order, every wire on which two or more
	// non-high-Z drivers disagreed at any point during the pass.
	Conflicts []WireID
}

type computeJob struct {
	id ComponentID
}

type computeResult struct {
	id      ComponentID
	outputs []LogicState
}

func (s *Simulator) workerCount() int {
	if s.workers > 0 {
		return s.workers
	}
	if n := runtime.GOMAXPROCS(-1); n > 0 {
		return n
	}
	return 1
}

// Settle runs the event-driven settling loop to a combinational fixpoint,
// without processing clock edges. It returns simerr.ResourceLimitReached
// if the network has not settled within maxSteps wavefronts (<=0 uses
// defaultMaxSteps).
func (s *Simulator) Settle(maxSteps int) (SettleResult, error) {
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}
	log := logrus.WithField("component", "scheduler")

	conflictSet := make(map[WireID]struct{})

	pending := make(map[ComponentID]struct{}, len(s.comps))
	// Seed every component whose inputs might not yet reflect the current
	// base drives: on a cold Simulator (or after Reset) that is all of
	// them; Step and callers of Drive rely on this to re-propagate.
	for i := range s.comps {
		pending[ComponentID(i)] = struct{}{}
	}
	// Wires with no drivers still need their base drive reflected once.
	for w := range s.wireWidth {
		s.resolved[w] = s.combineDrivers(WireID(w))
	}

	workers := s.workerCount()
	steps := 0
	for len(pending) > 0 {
		steps++
		if steps > maxSteps {
			log.WithFields(logrus.Fields{"steps": steps, "pending": len(pending)}).
				Error("settling loop exceeded step budget")
			return SettleResult{Steps: steps - 1, Conflicts: sortedWires(conflictSet)},
				simerr.Newf(simerr.ResourceLimitReached, "network did not settle within %d steps", maxSteps)
		}

		batch := make([]ComponentID, 0, len(pending))
		for id := range pending {
			batch = append(batch, id)
		}
		pending = make(map[ComponentID]struct{})

		results := s.computeBatch(batch, workers)

		next := make(map[ComponentID]struct{})
		for _, r := range results {
			c := &s.comps[r.id]
			for pi, out := range c.outs {
				changed, conflict := s.mergeDriver(out, c.driverIndexFor(r.id, pi, s), r.outputs[pi])
				if conflict {
					conflictSet[out] = struct{}{}
				}
				if changed {
					for _, dep := range s.fanout[out] {
						next[dep] = struct{}{}
					}
				}
			}
		}
		pending = next
	}

	log.WithFields(logrus.Fields{"steps": steps, "conflicts": len(conflictSet)}).Debug("settled")
	return SettleResult{Steps: steps, Conflicts: sortedWires(conflictSet)}, nil
}

// combineDrivers recomputes a wire's merged value from its base drive and
// every driver's cached last output.
func (s *Simulator) combineDrivers(w WireID) LogicState {
	result := s.wireDrive[w]
	for _, d := range s.driverCache[w] {
		result, _ = Merge(result, d)
	}
	return result
}

// driverIndexFor finds out's position among its own driver list for component
// id's output port pi. It is O(drivers) but driver lists are short (in
// practice almost always length 1).
func (c *component) driverIndexFor(id ComponentID, pi int, s *Simulator) int {
	out := c.outs[pi]
	for i, d := range s.wireDrivers[out] {
		if d.comp == id && int(d.port) == pi {
			return i
		}
	}
	panic("sim: internal error: driver not registered on its own output wire")
}

// mergeDriver updates wire w's driverCache slot at driverIdx to newVal,
// recomputes the wire's merged value, and reports whether that merged
// value changed and/or is in conflict.
func (s *Simulator) mergeDriver(w WireID, driverIdx int, newVal LogicState) (changed, conflict bool) {
	s.driverCache[w][driverIdx] = newVal
	result := s.wireDrive[w]
	for _, d := range s.driverCache[w] {
		var c bool
		result, c = Merge(result, d)
		conflict = conflict || c
	}
	changed = !result.Equal(s.resolved[w])
	s.resolved[w] = result
	return changed, conflict
}

func (s *Simulator) computeBatch(batch []ComponentID, workers int) []computeResult {
	if len(batch) == 0 {
		return nil
	}
	if workers <= 1 || len(batch) == 1 {
		out := make([]computeResult, len(batch))
		for i, id := range batch {
			out[i] = computeResult{id: id, outputs: s.evalOne(id)}
		}
		return out
	}

	jobs := make(chan computeJob, len(batch))
	results := make(chan computeResult, len(batch))
	var wg sync.WaitGroup

	if workers > len(batch) {
		workers = len(batch)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- computeResult{id: j.id, outputs: s.evalOne(j.id)}
			}
		}()
	}
	for _, id := range batch {
		jobs <- computeJob{id: id}
	}
	close(jobs)
	go func() { wg.Wait(); close(results) }()

	out := make([]computeResult, 0, len(batch))
	for r := range results {
		out = append(out, r)
	}
	return out
}

func (s *Simulator) evalOne(id ComponentID) []LogicState {
	c := &s.comps[id]
	inputs := make([]LogicState, len(c.ins))
	for i, w := range c.ins {
		inputs[i] = s.resolved[w]
	}
	return evalComponent(c, s, inputs)
}

func sortedWires(set map[WireID]struct{}) []WireID {
	if len(set) == 0 {
		return nil
	}
	out := make([]WireID, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// Step runs one full simulation cycle: it settles the network
// combinationally, then repeatedly checks every Register/RAM's clock input
// for a triggering edge since the last check, commits the resulting state
// changes atomically, and re-settles so the commits' effects propagate. It
// keeps looping this detect/commit/settle cycle until a pass commits
// nothing, so a clock derived from another register's output (a
// clock-divider or ripple-counter chain) has its cascaded edge caught
// within this single Step call rather than lagging by one full cycle. The
// loop is itself bounded by maxSteps passes (<=0 uses defaultMaxSteps), the
// same budget Settle uses against a network that can never quiesce.
func (s *Simulator) Step(maxSteps int) (SettleResult, error) {
	res, err := s.Settle(maxSteps)
	if err != nil {
		return res, err
	}

	limit := maxSteps
	if limit <= 0 {
		limit = defaultMaxSteps
	}

	type pendingCommit struct {
		id      ComponentID
		regNext LogicState
		ramAddr uint32
		ramVal  LogicState
		ramHit  bool
	}

	totalSteps := res.Steps
	conflicts := res.Conflicts

	for pass := 0; ; pass++ {
		if pass >= limit {
			return SettleResult{Steps: totalSteps, Conflicts: conflicts},
				simerr.Newf(simerr.ResourceLimitReached, "clock-edge commit loop did not quiesce within %d passes", limit)
		}

		var commits []pendingCommit
		committed := false

		for i := range s.comps {
			c := &s.comps[i]
			if c.kind != KindRegister && c.kind != KindRAM {
				continue
			}
			clockWire := c.ins[len(c.ins)-1]
			level := s.resolved[clockWire].Bit(0)
			prev := s.clockLevel[i]
			edge := (c.pol == RisingEdge && prev == Logic0 && level == Logic1) ||
				(c.pol == FallingEdge && prev == Logic1 && level == Logic0)
			s.clockLevel[i] = level

			if !edge {
				continue
			}

			switch c.kind {
			case KindRegister:
				datain, enable := s.resolved[c.ins[0]], s.resolved[c.ins[1]]
				switch enable.Bit(0) {
				case Logic1:
					commits = append(commits, pendingCommit{id: ComponentID(i), regNext: datain})
					committed = true
				case Logic0:
					// hold: no commit needed
				default:
					// X/Z enable at the clock edge: state becomes unknown.
					commits = append(commits, pendingCommit{id: ComponentID(i), regNext: AllUndefined(c.dataW)})
					committed = true
				}
			case KindRAM:
				we := s.resolved[c.ins[3]]
				switch we.Bit(0) {
				case Logic1:
					waddr := s.resolved[c.ins[0]]
					din := s.resolved[c.ins[1]]
					idx, err := waddr.Uint32()
					if err != nil {
						// Undefined or high-Z write address: the write's target
						// is unknowable, so every cell becomes undefined.
						cells := s.ramCells[c.stateIndex]
						for j := range cells {
							cells[j] = AllUndefined(c.dataW)
						}
						committed = true
						continue
					}
					commits = append(commits, pendingCommit{id: ComponentID(i), ramAddr: idx, ramVal: din, ramHit: true})
					committed = true
				case Logic0:
					// no write
				default:
					// X/Z write-enable at the clock edge: the write's target is
					// unknowable, so every cell becomes undefined.
					cells := s.ramCells[c.stateIndex]
					for j := range cells {
						cells[j] = AllUndefined(c.dataW)
					}
					committed = true
				}
			}
		}

		if !committed {
			break
		}

		for _, cm := range commits {
			c := &s.comps[cm.id]
			switch c.kind {
			case KindRegister:
				s.regState[c.stateIndex] = cm.regNext
			case KindRAM:
				s.ramCells[c.stateIndex][cm.ramAddr] = cm.ramVal
			}
		}

		after, err := s.Settle(maxSteps)
		totalSteps += after.Steps
		conflicts = mergeWireLists(conflicts, after.Conflicts)
		if err != nil {
			return SettleResult{Steps: totalSteps, Conflicts: conflicts}, err
		}
	}

	return SettleResult{Steps: totalSteps, Conflicts: conflicts}, nil
}

func mergeWireLists(a, b []WireID) []WireID {
	set := make(map[WireID]struct{}, len(a)+len(b))
	for _, w := range a {
		set[w] = struct{}{}
	}
	for _, w := range b {
		set[w] = struct{}{}
	}
	return sortedWires(set)
}
