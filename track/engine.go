// Package track implements the three polymorphic track-engine variants
// (Note, Curve, MidiCv) and the in-place Slot that holds whichever one a
// track is currently running. Grounded on the teacher's sequencer/drum.go
// step/pattern looping (Note), sequencer/metropolix.go's stage/accumulator
// model simplified for a single continuous output (Curve), and
// sequencer/pianoroll.go's scheduled note-event queue (MidiCv).
package track

import (
	"stepsequencer/cvio"
	"stepsequencer/midiio"
	"stepsequencer/model"
)

// Engine is the capability set every track-engine variant implements:
// mode, setMute, setFill, setPattern, setSwing, reset, tick, update,
// receiveMidi, idleOutput, idleGateOutput, gateOutput, idleCvOutput,
// cvOutput, clearIdleOutput, plus SetLinkedEngine for the linked track.
type Engine interface {
	Mode() model.TrackMode

	SetMute(mute bool)
	SetFill(fill bool)
	SetPattern(pattern int)
	SetSwing(swing int)

	// SetLinkedEngine installs the borrowed reference to a lower-indexed
	// track's engine (spec.md §3/§4.7's "linked track"), or nil if this
	// track has none. Called only at construction (engine init and
	// mode-change reconstruction), never mid-lifetime.
	SetLinkedEngine(linked Engine)

	Reset()
	Tick(tick uint32)
	Update(dt float32)
	ReceiveMidi(port int, channel uint8, msg midiio.Message)

	// IdleOutput reports whether this engine currently has a preview
	// value to show while transport is stopped.
	IdleOutput() bool
	IdleGateOutput(i int) bool
	GateOutput(i int) bool
	IdleCvOutput(i int) float32
	CvOutput(i int) float32
	ClearIdleOutput()
}

// Outputs bundles the hardware-facing gate and CV sinks. No variant
// writes through it: the engine reads each variant's GateOutput/CvOutput
// and drives the hardware itself.
type Outputs struct {
	Gates *cvio.GateBank
	Cv    *cvio.CvOutput
}
