// Package vcd writes Value Change Dump traces of a running sim.Simulator,
// for inspection in waveform viewers such as GTKWave.
package vcd

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/circuitkit/logicsim"
)

// Recorder traces a Simulator's named wires to a VCD stream. Each Recorder
// run is tagged with a session id so distinct traces of the same circuit
// (e.g. across retries) never look like the same GTKWave session.
type Recorder struct {
	sim   *sim.Simulator
	w     io.Writer
	ids   map[sim.WireID]string
	wires []sim.WireID
	last  []sim.LogicState

	session uuid.UUID
	started bool
	err     error
}

const idAlphabetSize = 126 - 33 + 1 // printable ASCII '!'..'~'

func vcdIdentifier(n int) string {
	if n == 0 {
		return "!"
	}
	var buf []byte
	for n > 0 {
		buf = append(buf, byte(33+n%idAlphabetSize))
		n /= idAlphabetSize
	}
	// reverse
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// NewRecorder creates a Recorder for every named wire in s, and writes the
// VCD header (timescale, scope, and $var declarations) to w immediately.
// timescaleNs is the number of nanoseconds one simulated time unit
// represents; zero defaults to 1.
func NewRecorder(w io.Writer, s *sim.Simulator, timescaleNs uint) (*Recorder, error) {
	if timescaleNs == 0 {
		timescaleNs = 1
	}
	r := &Recorder{
		sim:     s,
		w:       w,
		ids:     make(map[sim.WireID]string),
		session: uuid.New(),
	}

	for i := 0; i < s.NumWires(); i++ {
		id := sim.WireID(i)
		if s.WireName(id) == "" {
			continue
		}
		r.ids[id] = vcdIdentifier(len(r.wires))
		r.wires = append(r.wires, id)
	}
	r.last = make([]sim.LogicState, len(r.wires))

	r.printf("$comment session %s $end\n", r.session)
	r.printf("$timescale %d ns $end\n", timescaleNs)
	r.printf("$scope module top $end\n")
	for _, id := range r.wires {
		r.printf("$var wire %d %s %s $end\n", s.WireWidth(id), r.ids[id], s.WireName(id))
	}
	r.printf("$upscope $end\n")
	r.printf("$enddefinitions $end\n")

	return r, r.err
}

func (r *Recorder) printf(format string, args ...interface{}) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, args...)
}

// Trace emits a time-stamped change record. The first call always emits a
// full $dumpvars of every named wire's current value; every later call
// emits only the wires whose resolved value changed since the previous
// Trace call, which is standard VCD practice for keeping traces small.
func (r *Recorder) Trace(timeNs uint64) error {
	if r.err != nil {
		return r.err
	}
	r.printf("#%d\n", timeNs)

	if !r.started {
		r.started = true
		r.printf("$dumpvars\n")
		for i, id := range r.wires {
			v := r.sim.WireState(id)
			r.last[i] = v
			r.writeValue(id, v)
		}
		r.printf("$end\n")
		return r.err
	}

	for i, id := range r.wires {
		v := r.sim.WireState(id)
		if v.Equal(r.last[i]) {
			continue
		}
		r.last[i] = v
		r.writeValue(id, v)
	}
	return r.err
}

func (r *Recorder) writeValue(id sim.WireID, v sim.LogicState) {
	if v.Width() == 1 {
		r.printf("%s%s\n", v.String(), r.ids[id])
		return
	}
	r.printf("b%s %s\n", v.String(), r.ids[id])
}
