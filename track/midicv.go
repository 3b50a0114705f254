package track

import (
	"stepsequencer/midiio"
	"stepsequencer/model"
)

// MidiCvEngine converts incoming MIDI note messages on one channel into a
// monophonic gate+1V/octave CV pair (last-note-priority), grounded on the
// teacher's sequencer/pianoroll.go note-event handling, simplified from a
// scheduled multi-voice pianoroll down to the single live-input voice a
// CV/gate jack can express.
type MidiCvEngine struct {
	mute bool
	fill bool

	pattern int
	swing   int

	channel uint8
	note    uint8
	gateOn  bool

	// linked is the lower-indexed track's engine this track links to, or
	// nil. When set, an incoming note-on only gates if the linked
	// engine's own gate output is currently high too, the same "linked
	// track as trigger condition" idiom NoteEngine applies to its grid.
	linked Engine
}

func (m *MidiCvEngine) SetLinkedEngine(linked Engine) { m.linked = linked }

func (m *MidiCvEngine) Mode() model.TrackMode { return model.TrackModeMidiCv }

func (m *MidiCvEngine) SetMute(mute bool) {
	m.mute = mute
	if mute {
		m.gateOn = false
	}
}
func (m *MidiCvEngine) SetFill(fill bool)      { m.fill = fill }
func (m *MidiCvEngine) SetPattern(pattern int) { m.pattern = pattern }
func (m *MidiCvEngine) SetSwing(swing int)     { m.swing = swing }

// SetMidiChannel selects which incoming channel this engine listens to.
// Not part of the Engine capability set; set once at track configuration.
func (m *MidiCvEngine) SetMidiChannel(ch uint8) { m.channel = ch }

func (m *MidiCvEngine) Reset() {
	m.note = 0
	m.gateOn = false
}

// Tick is a no-op: this variant is event-driven, not grid-driven.
func (m *MidiCvEngine) Tick(tick uint32) {}

// Update is a no-op: gate/CV change only on receiveMidi.
func (m *MidiCvEngine) Update(dt float32) {}

// ReceiveMidi handles note-on/note-off for this engine's configured
// channel; a note-on with velocity 0 is treated as a note-off, per the
// standard MIDI convention.
func (m *MidiCvEngine) ReceiveMidi(port int, channel uint8, msg midiio.Message) {
	if m.mute || channel != m.channel {
		return
	}
	b := msg.Bytes()
	if len(b) < 3 {
		return
	}
	switch b[0] & 0xF0 {
	case 0x90:
		if b[2] == 0 {
			if b[1] == m.note {
				m.gateOn = false
			}
			return
		}
		m.note = b[1]
		m.gateOn = m.linked == nil || m.linked.GateOutput(0)
	case 0x80:
		if b[1] == m.note {
			m.gateOn = false
		}
	}
}

func (m *MidiCvEngine) IdleOutput() bool          { return !m.mute }
func (m *MidiCvEngine) IdleGateOutput(i int) bool { return false }
func (m *MidiCvEngine) GateOutput(i int) bool     { return m.gateOn }
func (m *MidiCvEngine) IdleCvOutput(i int) float32 {
	return (float32(m.note) - 60) / 12
}
func (m *MidiCvEngine) CvOutput(i int) float32 {
	return (float32(m.note) - 60) / 12
}
func (m *MidiCvEngine) ClearIdleOutput() {}
