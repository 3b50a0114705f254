package track

import (
	"testing"

	"stepsequencer/midiio"
	"stepsequencer/model"
)

func TestSlotStartsInNoteMode(t *testing.T) {
	s := NewSlot()
	if s.Mode() != s.active().Mode() {
		t.Fatalf("slot mode %v disagrees with active engine mode %v", s.Mode(), s.active().Mode())
	}
	if _, ok := s.active().(*NoteEngine); !ok {
		t.Fatalf("new slot should default to NoteEngine, got %T", s.active())
	}
}

func TestSlotReconfigureSwitchesAndResetsActiveEngine(t *testing.T) {
	s := NewSlot()
	s.note.SetStep(0, 0, true, 0.5)
	s.Tick(0) // moves note engine's gateRemain away from its zero state

	s.Reconfigure(model.TrackModeCurve, nil)
	if _, ok := s.active().(*CurveEngine); !ok {
		t.Fatalf("after reconfigure to curve, active should be *CurveEngine, got %T", s.active())
	}
	if s.curve.curStage != 0 || s.curve.phase != 0 {
		t.Fatalf("curve engine should start reset: curStage=%d phase=%f", s.curve.curStage, s.curve.phase)
	}
}

func TestSlotOnlyOneEngineLiveAtATime(t *testing.T) {
	s := NewSlot()
	s.note.SetStep(0, 0, true, 0.25)
	s.Tick(0)
	s.Tick(1)
	noteStepAfterFirstTicks := s.note.curStep

	s.Reconfigure(model.TrackModeCurve, nil)
	// Ticks delivered after reconfigure must reach only the curve engine;
	// the dormant note engine's step position must not move.
	s.Tick(2)
	s.Tick(3)

	if s.note.curStep != noteStepAfterFirstTicks {
		t.Fatalf("dormant note engine advanced: got curStep=%d, want unchanged %d", s.note.curStep, noteStepAfterFirstTicks)
	}
}

// gateStub is a minimal Engine whose only behavior a linked track cares
// about is its gate output.
type gateStub struct {
	gate bool
}

func (g *gateStub) Mode() model.TrackMode                  { return model.TrackModeNote }
func (g *gateStub) SetMute(bool)                           {}
func (g *gateStub) SetFill(bool)                           {}
func (g *gateStub) SetPattern(int)                         {}
func (g *gateStub) SetSwing(int)                           {}
func (g *gateStub) SetLinkedEngine(Engine)                 {}
func (g *gateStub) Reset()                                 {}
func (g *gateStub) Tick(uint32)                             {}
func (g *gateStub) Update(float32)                          {}
func (g *gateStub) ReceiveMidi(int, uint8, midiio.Message) {}
func (g *gateStub) IdleOutput() bool                       { return true }
func (g *gateStub) IdleGateOutput(int) bool                { return g.gate }
func (g *gateStub) GateOutput(int) bool                    { return g.gate }
func (g *gateStub) IdleCvOutput(int) float32               { return 0 }
func (g *gateStub) CvOutput(int) float32                   { return 0 }
func (g *gateStub) ClearIdleOutput()                       {}

func TestNoteEngineGatesOnLinkedEngineOutput(t *testing.T) {
	var n NoteEngine
	n.SetStep(0, 0, true, 0.5)
	link := &gateStub{gate: false}
	n.SetLinkedEngine(link)

	n.Tick(0)
	if n.GateOutput(0) {
		t.Fatal("step should not gate while linked engine's gate is low")
	}

	n.Reset()
	link.gate = true
	n.Tick(0)
	if !n.GateOutput(0) {
		t.Fatal("step should gate once linked engine's gate goes high")
	}
}
