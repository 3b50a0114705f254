package midiio

import (
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestRecvFilterDivertsClockBytesBeforeQueue(t *testing.T) {
	p := NewPort("test")
	var diverted []byte
	p.SetRecvFilter(func(b byte) bool {
		if IsClockMessage(b) {
			diverted = append(diverted, b)
			return true
		}
		return false
	})

	p.handleIncoming(gomidi.Message{0xF8})
	p.handleIncoming(gomidi.Message{0x90, 0x3c, 0x7f})
	p.handleIncoming(gomidi.Message{0xFA})
	p.handleIncoming(gomidi.Message{0x80, 0x3c, 0x00})
	p.handleIncoming(gomidi.Message{0xFB})
	p.handleIncoming(gomidi.Message{0xFC})

	if len(diverted) != 4 {
		t.Fatalf("expected 4 clock bytes diverted, got %d: %v", len(diverted), diverted)
	}

	var queued []Message
	for {
		m, ok := p.Recv()
		if !ok {
			break
		}
		queued = append(queued, m)
	}
	if len(queued) != 2 {
		t.Fatalf("expected 2 non-clock messages queued, got %d", len(queued))
	}
	if queued[0].Bytes()[0] != 0x90 || queued[1].Bytes()[0] != 0x80 {
		t.Fatalf("queued messages out of order or wrong: %#v", queued)
	}
}

func TestRecvFilterPassesEverythingWhenUnset(t *testing.T) {
	p := NewPort("test")
	p.handleIncoming(gomidi.Message{0xF8})

	if _, ok := p.Recv(); !ok {
		t.Fatal("with no filter installed, even a clock byte should reach the queue")
	}
}

func TestIsClockMessage(t *testing.T) {
	clockBytes := []byte{0xF8, 0xFA, 0xFB, 0xFC}
	for _, b := range clockBytes {
		if !IsClockMessage(b) {
			t.Errorf("expected 0x%X to be a clock message", b)
		}
	}
	nonClock := []byte{0x90, 0x80, 0xB0, 0xF0}
	for _, b := range nonClock {
		if IsClockMessage(b) {
			t.Errorf("expected 0x%X to not be a clock message", b)
		}
	}
}
