package track

import (
	"stepsequencer/midiio"
	"stepsequencer/model"
)

// Slot is one of TrackCount preallocated storage cells. All three engine
// variants live inline as value fields; a one-word mode discriminator
// selects which is "live" (addressed by every Engine method). Reconfigure
// is the only place the discriminator changes, and it resets the
// newly-selected variant so a mode switch never leaves stale step/stage
// state behind (spec.md §8's "Slot" and §4.7's reconstruct-in-place rule).
type Slot struct {
	mode model.TrackMode

	note   NoteEngine
	curve  CurveEngine
	midicv MidiCvEngine
}

// NewSlot returns a Slot running the Note variant.
func NewSlot() *Slot {
	s := &Slot{mode: model.TrackModeNote}
	s.active().Reset()
	return s
}

func (s *Slot) active() Engine {
	switch s.mode {
	case model.TrackModeCurve:
		return &s.curve
	case model.TrackModeMidiCv:
		return &s.midicv
	default:
		return &s.note
	}
}

// Reconfigure switches the live variant, resetting it and installing its
// linked-track engine reference (or nil), when mode differs from the
// slot's current mode. A no-op reconfigure (same mode) leaves running
// state and the existing linked reference untouched, matching the
// construct-once-per-mode-change lifecycle spec.md §4.7 describes.
func (s *Slot) Reconfigure(mode model.TrackMode, linked Engine) {
	if s.mode == mode {
		return
	}
	s.mode = mode
	e := s.active()
	e.Reset()
	e.SetLinkedEngine(linked)
}

func (s *Slot) Mode() model.TrackMode { return s.mode }

// SetLinkedEngine forwards to the live variant. A Slot is itself a valid
// linked-engine reference (the lifecycle wires e.slots[linkTrack] in
// directly), so linking always resolves through whichever variant is
// currently live in the target slot rather than a stale snapshot.
func (s *Slot) SetLinkedEngine(linked Engine) { s.active().SetLinkedEngine(linked) }

func (s *Slot) SetMute(mute bool)       { s.active().SetMute(mute) }
func (s *Slot) SetFill(fill bool)       { s.active().SetFill(fill) }
func (s *Slot) SetPattern(pattern int)  { s.active().SetPattern(pattern) }
func (s *Slot) SetSwing(swing int)      { s.active().SetSwing(swing) }
func (s *Slot) Reset()                  { s.active().Reset() }
func (s *Slot) Tick(tick uint32)        { s.active().Tick(tick) }
func (s *Slot) Update(dt float32)       { s.active().Update(dt) }
func (s *Slot) ReceiveMidi(port int, channel uint8, msg midiio.Message) {
	s.active().ReceiveMidi(port, channel, msg)
}
func (s *Slot) IdleOutput() bool             { return s.active().IdleOutput() }
func (s *Slot) IdleGateOutput(i int) bool    { return s.active().IdleGateOutput(i) }
func (s *Slot) GateOutput(i int) bool        { return s.active().GateOutput(i) }
func (s *Slot) IdleCvOutput(i int) float32   { return s.active().IdleCvOutput(i) }
func (s *Slot) CvOutput(i int) float32       { return s.active().CvOutput(i) }
func (s *Slot) ClearIdleOutput()             { s.active().ClearIdleOutput() }
