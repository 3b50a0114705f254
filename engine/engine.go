// Package engine implements the realtime coordinator: the update loop,
// play-state arbitration, clock integration, track-engine lifecycle, and
// the lock protocol that lets a non-realtime actor pause it safely.
// Grounded on the teacher's sequencer.Manager as the single owning
// coordinator that wires a clock, per-track state, and MIDI I/O together
// behind one Update-style entry point.
package engine

import (
	"sync/atomic"
	"time"

	"stepsequencer/clock"
	"stepsequencer/cvio"
	"stepsequencer/debug"
	"stepsequencer/midiio"
	"stepsequencer/model"
	"stepsequencer/routing"
	"stepsequencer/tempo"
	"stepsequencer/track"
)

// Port identifies which MIDI transport a message is sent/received on.
type Port int

const (
	PortMidi Port = iota
	PortUsbMidi
	portCount
)

// Short aliases for the external-clock GPIO pair's input modes.
const (
	clockInputReset     = model.ClockInputReset
	clockInputRun       = model.ClockInputRun
	clockInputStartStop = model.ClockInputStartStop
)

// InitContext bundles every collaborator the engine is constructed with.
// Nil Adc/Dac/Dio/Midi/UsbMidi/Routing fields fall back to no-op
// implementations so the engine is usable in a host that hasn't wired
// every peripheral yet.
type InitContext struct {
	Model   model.Model
	Clock   *clock.Clock
	Adc     cvio.Adc
	Dac     cvio.Dac
	Dio     cvio.Dio
	Midi    *midiio.Port
	UsbMidi *midiio.Port
	Routing routing.Engine

	// Now returns the current wall-clock time; overridable so tests and
	// the simulator can drive dt deterministically instead of reading the
	// real clock.
	Now func() time.Time
}

// Engine is the realtime coordinator. It is constructed once per process
// and owns every collaborator passed to New for its lifetime.
type Engine struct {
	model   model.Model
	clk     *clock.Clock
	dio     cvio.Dio
	cvIn    *cvio.CvInput
	cvOut   *cvio.CvOutput
	gates   *cvio.GateBank
	midi    [portCount]*midiio.Port
	routing routing.Engine
	now     func() time.Time

	slots [model.TrackCount]*track.Slot

	tick           uint32
	lastSystemTime time.Time
	running        bool

	locked        int32
	requestLock   int32
	requestUnlock int32

	gateOutputOverride      bool
	gateOutputOverrideValue uint32
	cvOutputOverride        bool
	cvOutputOverrideValues  [model.TrackCount]float32

	nudge *tempo.Nudge
	tap   *tempo.Tap

	messageHandler       func(text string, durationMs int)
	usbConnectHandler    func(vendorID, productID uint16)
	usbDisconnectHandler func()
	midiReceiveHandler   func(port Port, channel uint8, msg midiio.Message)

	trackGateIndex [model.TrackCount]int
	trackCvIndex   [model.TrackCount]int

	cvInputValues [model.TrackCount]float32

	resetHeld bool // level-tracking for the external clock/reset GPIO pair
}

// New constructs and initialises the engine (spec's init()): brings up
// CV I/O and the Clock listener, installs MIDI receive filters that divert
// real-time bytes into the Clock, constructs the initial track engines,
// pushes the current pattern per track, resets every track engine, and
// samples the wall-clock baseline. After New returns, the engine is
// unlocked and not running.
func New(ctx InitContext) *Engine {
	e := &Engine{
		model:   ctx.Model,
		clk:     ctx.Clock,
		dio:     ctx.Dio,
		routing: ctx.Routing,
		now:     ctx.Now,
		nudge:   tempo.NewNudge(),
		tap:     tempo.NewTap(),
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.routing == nil {
		e.routing = routing.NoOp{}
	}

	calib := &ctx.Model.Settings().Calibration
	if ctx.Adc != nil {
		e.cvIn = cvio.NewCvInput(ctx.Adc, calib)
	}
	if ctx.Dac != nil {
		e.cvOut = cvio.NewCvOutput(ctx.Dac, calib)
	}
	if ctx.Dio != nil {
		e.gates = cvio.NewGateBank(ctx.Dio)
	}

	e.midi[PortMidi] = ctx.Midi
	e.midi[PortUsbMidi] = ctx.UsbMidi

	e.clk.SetListener(e)
	e.initClock()
	e.installMidiFilters()

	if e.dio != nil {
		e.dio.SetClockInputHandler(e.onExternalClockEdge)
		e.dio.SetResetInputHandler(e.onExternalResetEdge)
	}

	for i := range e.slots {
		e.slots[i] = track.NewSlot()
	}
	e.updateTrackSetups()
	ps := e.model.Project().PlayState()
	for i, s := range e.slots {
		s.SetLinkedEngine(e.linkedEngine(i))
		s.SetPattern(ps.TrackState(i).Pattern())
	}
	e.resetTrackEngines()

	e.lastSystemTime = e.now()
	return e
}

func (e *Engine) installMidiFilters() {
	clockSource := map[Port]clock.Source{
		PortMidi:    clock.SourceMidi,
		PortUsbMidi: clock.SourceUsbMidi,
	}
	for port, p := range e.midi {
		if p == nil {
			continue
		}
		source := clockSource[Port(port)]
		p.SetRecvFilter(func(b byte) bool {
			if !midiio.IsClockMessage(b) {
				return false
			}
			e.clk.SlaveHandleMidi(source, b)
			return true
		})
	}
	if e.midi[PortUsbMidi] != nil {
		e.midi[PortUsbMidi].SetConnectHandler(func(vendorID, productID uint16) {
			if e.usbConnectHandler != nil {
				e.usbConnectHandler(vendorID, productID)
			}
		})
		e.midi[PortUsbMidi].SetDisconnectHandler(func() {
			if e.usbDisconnectHandler != nil {
				e.usbDisconnectHandler()
			}
		})
	}
}

// Update is the single realtime entry point, invoked by the host at high
// frequency. See spec §4.2 for the thirteen-step contract this method
// implements in order.
func (e *Engine) Update() {
	now := e.now()
	dt := now.Sub(e.lastSystemTime).Seconds()
	e.lastSystemTime = now

	if atomic.CompareAndSwapInt32(&e.requestLock, 1, 0) {
		e.clk.MasterStop()
		atomic.StoreInt32(&e.locked, 1)
		debug.Log("engine", "locked")
	}
	if atomic.CompareAndSwapInt32(&e.requestUnlock, 1, 0) {
		atomic.StoreInt32(&e.locked, 0)
		debug.Log("engine", "unlocked")
	}

	if atomic.LoadInt32(&e.locked) == 1 {
		for {
			if _, ok := e.clk.CheckTick(); !ok {
				break
			}
		}
		for _, p := range e.midi {
			if p == nil {
				continue
			}
			for {
				if _, ok := p.Recv(); !ok {
					break
				}
			}
		}
		e.applyOutputOverrides()
		e.flushCvOutput()
		return
	}

	for {
		ev := e.clk.CheckEvent()
		if ev == clock.EventNone {
			break
		}
		switch ev {
		case clock.EventStart:
			e.running = true
			e.resetTrackEngines()
		case clock.EventContinue:
			e.running = true
		case clock.EventStop:
			e.running = false
		case clock.EventReset:
			e.running = false
			e.resetTrackEngines()
		}
	}

	e.receiveMidi()

	e.nudge.Update(float32(dt))
	e.clk.SetMasterBpm(e.model.Project().Bpm() + e.nudge.Strength()*10.0)
	e.clk.Advance(dt)

	if e.model.Project().ClockSetup().IsDirty() {
		e.updateClockSetup()
	}

	e.updateTrackSetups()

	e.updatePlayState(false)

	e.sampleCvInputs()
	e.routing.Advance(e.cvInputValues[:])

	tickedAny := false
	for {
		t, ok := e.clk.CheckTick()
		if !ok {
			break
		}
		e.tick = t
		e.updatePlayState(true)
		for _, s := range e.slots {
			s.Tick(e.tick)
		}
		tickedAny = true
	}
	if tickedAny {
		e.updateTrackOutputs()
	}

	for _, s := range e.slots {
		s.Update(float32(dt))
	}
	if !tickedAny {
		e.updateTrackOutputs()
	}

	e.applyOutputOverrides()
	e.flushCvOutput()
}

// sampleCvInputs refreshes cvInputValues from the ADC so routing.Advance
// observes this cycle's CV inputs (spec §4.2 step 10). With no ADC wired,
// the values stay at their last-sampled level (zero, initially).
func (e *Engine) sampleCvInputs() {
	if e.cvIn == nil {
		return
	}
	for i := 0; i < model.TrackCount; i++ {
		e.cvInputValues[i] = e.cvIn.Volts(i)
	}
}

func (e *Engine) flushCvOutput() {
	// DAC values are written directly as each track output is drawn in
	// updateTrackOutputs/applyOutputOverrides; flush exists as the single
	// named step §4.2.13 calls for, kept as a seam for a buffered DAC
	// driver that needs an explicit commit.
}
