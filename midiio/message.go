// Package midiio implements the serial-MIDI/USB-MIDI transport pair: a
// byte-addressable message view, a Port wrapping a gitlab.com/gomidi/midi/v2
// input/output pair with send/receive queues, and the byte-level receive
// filter that diverts real-time clock bytes before they reach the message
// queue (spec.md §4.4).
package midiio

import gomidi "gitlab.com/gomidi/midi/v2"

// Message is a byte-addressable view over one MIDI message, grounded on
// the teacher's midi.Event/gomidi.Message split: we keep the raw bytes
// (what gomidi already hands back from a port) and decode channel() on
// demand rather than duplicating gomidi's own struct.
type Message struct {
	raw gomidi.Message
}

// NewMessage wraps a raw gomidi message.
func NewMessage(raw gomidi.Message) Message { return Message{raw: raw} }

// NewRealtimeMessage wraps a single real-time status byte (clock, start,
// stop, continue, song-position) that arrived outside the message-level
// queue.
func NewRealtimeMessage(b byte) Message { return Message{raw: gomidi.Message{b}} }

// Bytes returns the raw message bytes.
func (m Message) Bytes() []byte { return []byte(m.raw) }

// Channel returns the message's MIDI channel (0-15), decoded from the
// status byte's low nibble. For messages with no meaningful channel
// (system/real-time bytes) this still returns that nibble; per spec.md §9
// the engine broadcasts regardless of whether it is meaningful.
func (m Message) Channel() uint8 {
	b := m.raw
	if len(b) == 0 {
		return 0
	}
	return uint8(b[0]) & 0x0F
}

// IsClockMessage reports whether b is one of the four single-byte MIDI
// real-time transport status bytes (clock 0xF8, start 0xFA, continue
// 0xFB, stop 0xFC). Song-position is multi-byte and is not matched.
func IsClockMessage(b byte) bool {
	switch b {
	case 0xF8, 0xFA, 0xFB, 0xFC:
		return true
	default:
		return false
	}
}
