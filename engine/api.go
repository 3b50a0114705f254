package engine

import (
	"sync/atomic"

	"stepsequencer/midiio"
)

// IsLocked is safe to poll from any goroutine; Update is the sole writer
// of the underlying flag.
func (e *Engine) IsLocked() bool { return atomic.LoadInt32(&e.locked) == 1 }

// Running reports whether transport is currently running, following
// Start/Stop/Continue/Reset events (distinct from the Clock's own
// running flag).
func (e *Engine) Running() bool { return e.running }

// Tick returns the most recently consumed PPQN tick count.
func (e *Engine) Tick() uint32 { return e.tick }

// ClockStart/Stop/Continue/Reset forward master transport control to the
// owned Clock.
func (e *Engine) ClockStart()    { e.clk.MasterStart() }
func (e *Engine) ClockStop()     { e.clk.MasterStop() }
func (e *Engine) ClockContinue() { e.clk.MasterContinue() }
func (e *Engine) ClockReset()    { e.clk.MasterReset() }

// TapTempoReset clears tap-tempo history.
func (e *Engine) TapTempoReset() { e.tap.Reset() }

// TapTempoTap feeds a tap event at the current wall-clock time into the
// tap estimator and, once enough taps have accumulated, writes the
// resulting BPM into the project.
func (e *Engine) TapTempoTap() {
	bpm := e.tap.Tap(e.now())
	if bpm > 0 {
		e.model.Project().SetBpm(bpm)
	}
}

// NudgeTempoSetDirection sets the nudge direction input (-1, 0, or +1);
// Update integrates it into a strength applied atop the project BPM.
func (e *Engine) NudgeTempoSetDirection(direction int) { e.nudge.SetDirection(direction) }

// NudgeTempoStrength returns the current nudge strength in [-1, 1].
func (e *Engine) NudgeTempoStrength() float32 { return e.nudge.Strength() }

// SyncMeasureFraction returns the fractional position within the current
// measure, in [0, 1), for UI use.
func (e *Engine) SyncMeasureFraction() float32 {
	m := e.measureTicks()
	if m == 0 {
		return 0
	}
	return float32(e.tick%m) / float32(m)
}

// SendMidi dispatches message to the selected port, returning whether the
// transport accepted it. Callers decide whether and how to retry.
func (e *Engine) SendMidi(port Port, message midiio.Message) bool {
	p := e.midi[port]
	if p == nil {
		return false
	}
	return p.Send(message)
}

// ShowMessage surfaces a purely informational, non-control-flow message
// to the optional host handler.
func (e *Engine) ShowMessage(text string, durationMs int) {
	if e.messageHandler != nil {
		e.messageHandler(text, durationMs)
	}
}

func (e *Engine) SetMessageHandler(h func(text string, durationMs int)) { e.messageHandler = h }

func (e *Engine) SetMidiReceiveHandler(h func(port Port, channel uint8, msg midiio.Message)) {
	e.midiReceiveHandler = h
}

func (e *Engine) SetUsbMidiConnectHandler(h func(vendorID, productID uint16)) {
	e.usbConnectHandler = h
}

func (e *Engine) SetUsbMidiDisconnectHandler(h func()) { e.usbDisconnectHandler = h }

// Gate/CV output override accessors (spec §4.9). While a kind is
// overridden, updateTrackOutputs skips that kind's normal write path and
// applyOutputOverrides replaces it wholesale at the end of the cycle.
func (e *Engine) GateOutputOverride() bool          { return e.gateOutputOverride }
func (e *Engine) SetGateOutputOverride(on bool)     { e.gateOutputOverride = on }
func (e *Engine) GateOutputOverrideValue() uint32   { return e.gateOutputOverrideValue }
func (e *Engine) SetGateOutputOverrideValue(v uint32) {
	e.gateOutputOverrideValue = v
}

func (e *Engine) CvOutputOverride() bool      { return e.cvOutputOverride }
func (e *Engine) SetCvOutputOverride(on bool) { e.cvOutputOverride = on }
func (e *Engine) CvOutputOverrideValue(i int) float32 {
	return e.cvOutputOverrideValues[i]
}
func (e *Engine) SetCvOutputOverrideValue(i int, v float32) {
	e.cvOutputOverrideValues[i] = v
}
