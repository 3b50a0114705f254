// Package routing declares the MIDI-routing collaborator the engine
// broadcasts every received message to before/alongside its own track
// engines. Routing configuration and CC/note-to-parameter mapping are out
// of scope for this module (spec.md names it only as an external
// collaborator); this package is the seam plus a pass-through reference
// implementation, grounded on the teacher's midi/event.go dispatch
// pattern of handing a decoded event to one interested party at a time.
package routing

import "stepsequencer/midiio"

// Engine receives every incoming MIDI message alongside the engine's own
// track engines, the way the teacher's event dispatcher fans one decoded
// message out to multiple interested handlers, and is given one Advance
// call per update cycle carrying that cycle's freshly sampled CV input
// volts (one entry per ADC channel, in channel order) so it can mutate
// model parameters it has been configured to drive.
type Engine interface {
	ReceiveMidi(port int, channel uint8, msg midiio.Message)
	Advance(cvInputs []float32)
}

// NoOp is a routing Engine that observes messages without acting on
// them; it is the default collaborator when no routing configuration has
// been wired up.
type NoOp struct{}

func (NoOp) ReceiveMidi(port int, channel uint8, msg midiio.Message) {}
func (NoOp) Advance(cvInputs []float32)                              {}
