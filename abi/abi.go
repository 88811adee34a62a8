// Package abi documents the stable, C-callable shape of the simulation
// engine's foreign-function boundary. It defines no cgo and links against
// no C code: it exists so a future FFI wrapper has one fixed place to bind
// to, with types and codes that never change shape across releases.
package abi

// Code mirrors simerr.Code as the negative integer an FFI caller receives
// in place of a Go error. Its members and values are numerically identical
// to simerr.Code and must be kept in lockstep with it.
type Code int32

const (
	CodeOK                    Code = 0
	CodeNullPointer           Code = -1
	CodePointerMisaligned     Code = -2
	CodeInvalidArgument       Code = -3
	CodeArgumentOutOfRange    Code = -4
	CodeUtf8Encoding          Code = -5
	CodeWireWidthMismatch     Code = -6
	CodeWireWidthIncompatible Code = -7
	CodeOffsetOutOfRange      Code = -8
	CodeTooFewInputs          Code = -9
	CodeInvalidInputCount     Code = -10
	CodeInvalidComponentType  Code = -11
	CodeInvalidWireId         Code = -12
	CodeInvalidComponentId    Code = -13
	CodeResourceLimitReached  Code = -14
	CodeInvalidOperation      Code = -15
	CodeMalformedFormat       Code = -16
	CodeUnsupported           Code = -17
	CodeConflict              Code = -18
	CodeIo                    Code = -19
)

// WireHandle and ComponentHandle are the FFI-facing analogues of
// sim.WireID/sim.ComponentID: plain uint32 arena indices, with
// InvalidWireHandle/InvalidComponentHandle as their reserved sentinels.
type WireHandle uint32
type ComponentHandle uint32

const (
	InvalidWireHandle      WireHandle      = 0xFFFFFFFF
	InvalidComponentHandle ComponentHandle = 0xFFFFFFFF
)

// BuilderHandle and SimulatorHandle are opaque references a non-Go caller
// holds to a live *sim.Builder / *sim.Simulator. A real FFI layer would
// implement these as indices into a package-level handle table (never as
// raw pointers passed across the boundary), so that an invalid or
// use-after-free handle is a checkable Code rather than a crash.
type BuilderHandle uint64
type SimulatorHandle uint64

// PortList describes one component's port layout for a caller that only
// has WireHandles and needs to know which is which — the FFI equivalent of
// reading component.go's per-kind ins/outs convention.
type PortList struct {
	Inputs  []WireHandle
	Outputs []WireHandle
}

// SimulationErrors collects every conflict discovered by a settle pass, in
// the shape an FFI caller can copy out of a returned buffer without
// walking a Go slice of structs.
type SimulationErrors struct {
	ConflictWires []WireHandle
	Code          Code
}
