package track

import (
	"stepsequencer/clock"
	"stepsequencer/midiio"
	"stepsequencer/model"
)

// StepsPerPattern is the note engine's fixed grid resolution.
const StepsPerPattern = 16

// PatternCount is the number of patterns a note engine stores, matching
// model.Song's per-track pattern indices.
const PatternCount = 16

const ticksPerStep = clock.PPQN / 4 // one 16th note

type noteStep struct {
	gate bool
	cv   float32
}

// NoteEngine is the gate/CV step sequencer variant: a fixed grid of steps
// per pattern, advanced one tick at a time, grounded on the teacher's
// sequencer/drum.go step/pattern/masterLength looping (simplified to a
// single gate+pitch lane per track instead of per-drum-voice rows).
type NoteEngine struct {
	mute bool
	fill bool

	pattern int
	swing   int

	patterns [PatternCount][StepsPerPattern]noteStep

	curStep    int
	gateRemain int

	// linked is the lower-indexed track's engine this track links to, or
	// nil. When set, a step only gates if the linked engine's own gate
	// output is currently high too — the step-sequencer "linked track"
	// idiom of using one track as a trigger condition for another.
	linked Engine
}

func (n *NoteEngine) SetLinkedEngine(linked Engine) { n.linked = linked }

func (n *NoteEngine) Mode() model.TrackMode { return model.TrackModeNote }

func (n *NoteEngine) SetMute(mute bool) { n.mute = mute }
func (n *NoteEngine) SetFill(fill bool) { n.fill = fill }
func (n *NoteEngine) SetPattern(pattern int) {
	if pattern < 0 || pattern >= PatternCount {
		return
	}
	n.pattern = pattern
}
func (n *NoteEngine) SetSwing(swing int) { n.swing = swing }

func (n *NoteEngine) Reset() {
	n.curStep = 0
	n.gateRemain = 0
}

// Tick advances the step grid. Odd steps are delayed by swing/200 of a
// step's length (swing 100 delays by half a step), the same "delay
// every other step" model the teacher's pattern player uses.
func (n *NoteEngine) Tick(tick uint32) {
	stepIndex := int((tick / ticksPerStep)) % StepsPerPattern
	posInStep := tick % ticksPerStep

	swingOffset := uint32(0)
	if stepIndex%2 == 1 {
		swingOffset = uint32(n.swing) * ticksPerStep / 200
	}

	if posInStep == swingOffset {
		n.curStep = stepIndex
		if !n.mute && (n.linked == nil || n.linked.GateOutput(0)) {
			st := n.patterns[n.pattern][stepIndex]
			if st.gate {
				n.gateRemain = int(ticksPerStep) / 2
			}
		}
	}

	if n.gateRemain > 0 {
		n.gateRemain--
	}
}

// Update is a no-op: the note engine has no continuous state between
// ticks.
func (n *NoteEngine) Update(dt float32) {}

// ReceiveMidi is a no-op: the note engine is driven by its own pattern
// grid, not external MIDI (that's MidiCvEngine's role).
func (n *NoteEngine) ReceiveMidi(port int, channel uint8, msg midiio.Message) {}

func (n *NoteEngine) IdleOutput() bool { return !n.mute }

func (n *NoteEngine) IdleGateOutput(i int) bool {
	return n.patterns[n.pattern][n.curStep].gate
}

func (n *NoteEngine) GateOutput(i int) bool { return n.gateRemain > 0 }

func (n *NoteEngine) IdleCvOutput(i int) float32 {
	return n.patterns[n.pattern][n.curStep].cv
}

func (n *NoteEngine) CvOutput(i int) float32 {
	return n.patterns[n.pattern][n.curStep].cv
}

func (n *NoteEngine) ClearIdleOutput() {}

// SetStep writes one step of one pattern. Not part of the Engine
// capability set; this is how the model/editor side would populate a
// note engine's grid (out of scope here, so exposed directly for tests
// and the simulator).
func (n *NoteEngine) SetStep(pattern, step int, gate bool, cv float32) {
	n.patterns[pattern][step] = noteStep{gate: gate, cv: cv}
}
