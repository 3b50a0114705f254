package track

import (
	"stepsequencer/midiio"
	"stepsequencer/model"
)

// StagesPerPattern is the curve engine's fixed stage count per pattern.
const StagesPerPattern = 16

type curveStage struct {
	target float32
}

// CurveEngine is the continuous-CV variant: a fixed run of stages per
// pattern, each holding a target value the output slews toward over the
// stage's duration. Grounded on the teacher's sequencer/metropolix.go
// stage/accumulator model, simplified from per-stage gate+ratchet+skip
// behavior down to a single slewed CV lane (the part that actually needs
// a continuous update(dt), unlike NoteEngine's tick-only grid).
type CurveEngine struct {
	mute bool
	fill bool

	pattern int
	swing   int

	stages [PatternCount][StagesPerPattern]curveStage

	curStage int
	start    float32
	value    float32
	phase    float32

	// linked is the lower-indexed track's engine this track links to, or
	// nil. Stored (and enforced to be lower-indexed) at construction like
	// every variant's link reference; the curve engine has no gate of its
	// own to condition on a linked engine's gate the way NoteEngine does,
	// so it does not yet consult linked for anything.
	linked Engine
}

func (c *CurveEngine) SetLinkedEngine(linked Engine) { c.linked = linked }

func (c *CurveEngine) Mode() model.TrackMode { return model.TrackModeCurve }

func (c *CurveEngine) SetMute(mute bool) { c.mute = mute }
func (c *CurveEngine) SetFill(fill bool) { c.fill = fill }
func (c *CurveEngine) SetPattern(pattern int) {
	if pattern < 0 || pattern >= PatternCount {
		return
	}
	c.pattern = pattern
}
func (c *CurveEngine) SetSwing(swing int) { c.swing = swing }

func (c *CurveEngine) Reset() {
	c.curStage = 0
	c.phase = 0
	c.start = c.value
}

// Tick advances to the next stage on each step boundary (reusing
// NoteEngine's 16th-note grid resolution) and latches the slew start
// point.
func (c *CurveEngine) Tick(tick uint32) {
	stepIndex := int(tick/ticksPerStep) % StagesPerPattern
	if uint32(tick%ticksPerStep) == 0 && stepIndex != c.curStage {
		c.curStage = stepIndex
		c.start = c.value
		c.phase = 0
	}
}

// Update slews value linearly from the stage's start toward its target,
// advancing the slew phase by dt and completing it once the accumulated
// dt reaches 1 (one second, as the engine passes dt in seconds). The slew
// time is not scaled to the stage's duration or to tempo.
func (c *CurveEngine) Update(dt float32) {
	if c.mute {
		return
	}
	c.phase += dt
	if c.phase > 1 {
		c.phase = 1
	}
	target := c.stages[c.pattern][c.curStage].target
	c.value = c.start + (target-c.start)*c.phase
}

// ReceiveMidi is a no-op: the curve engine is driven by its own stage
// table, not external MIDI.
func (c *CurveEngine) ReceiveMidi(port int, channel uint8, msg midiio.Message) {}

func (c *CurveEngine) IdleOutput() bool          { return !c.mute }
func (c *CurveEngine) IdleGateOutput(i int) bool { return false }
func (c *CurveEngine) GateOutput(i int) bool     { return false }
func (c *CurveEngine) IdleCvOutput(i int) float32 {
	return c.stages[c.pattern][c.curStage].target
}
func (c *CurveEngine) CvOutput(i int) float32 { return c.value }
func (c *CurveEngine) ClearIdleOutput()       {}

// SetStage writes one stage's target value for one pattern.
func (c *CurveEngine) SetStage(pattern, stage int, target float32) {
	c.stages[pattern][stage] = curveStage{target: target}
}
