package engine

import (
	"stepsequencer/clock"
	"stepsequencer/debug"
	"stepsequencer/midiio"
	"stepsequencer/model"
	"stepsequencer/track"
)

// updateTrackSetups recreates any track engine whose mode has drifted
// from its model (spec §4.7) and propagates swing to every slot every
// cycle regardless of whether a reconstruction happened. Tracks are
// walked in index order so a link target's slot is always already
// current by the time its dependent track is (re)constructed (spec.md
// §3: "ordering by index is sufficient").
func (e *Engine) updateTrackSetups() {
	proj := e.model.Project()
	ps := proj.PlayState()

	for i := 0; i < model.TrackCount; i++ {
		t := proj.Track(i)
		desired := t.TrackMode()
		slot := e.slots[i]
		if desired != model.TrackModeLast && slot.Mode() != desired {
			slot.Reconfigure(desired, e.linkedEngine(i))
			ts := ps.TrackState(i)
			slot.SetMute(ts.Mute())
			slot.SetFill(ts.Fill())
			slot.SetPattern(ts.Pattern())
		}
		slot.SetSwing(proj.Swing())
	}
}

// linkedEngine resolves track i's link target to the slot it names, or
// nil if the track has no link (linkTrack() == -1) or its link target is
// not strictly lower-indexed. spec.md §3 requires link targets to be
// lower-indexed and treats any other value as a model bug the engine must
// never trust ("missing linked track... any other invalid index is the
// model's responsibility to never produce") — here the engine still
// enforces it defensively so testable property 1 (linkTrack(i) < i or
// == -1) holds from the engine's own perspective regardless.
func (e *Engine) linkedEngine(i int) track.Engine {
	link := e.model.Project().Track(i).LinkTrack()
	if link < 0 || link >= i {
		return nil
	}
	return e.slots[link]
}

func (e *Engine) resetTrackEngines() {
	for _, s := range e.slots {
		s.Reset()
	}
}

// subIndices assigns each physical output its draw index within its
// source track, counting separately per source and walking outputs in
// increasing physical-index order. Two outputs sharing a source track
// therefore always receive strictly increasing sub-indices in the order
// their physical indices appear (spec §4.3, testable property 6).
func subIndices(sources [model.TrackCount]int) [model.TrackCount]int {
	var counts [model.TrackCount]int
	var subs [model.TrackCount]int
	for i, src := range sources {
		subs[i] = counts[src]
		counts[src]++
	}
	return subs
}

// updateTrackOutputs draws each physical output's gate/CV value from its
// configured source track, using subIndices so two outputs sharing a
// source track draw consecutive sub-indices in physical-index order.
func (e *Engine) updateTrackOutputs() {
	proj := e.model.Project()
	selected := proj.SelectedTrackIndex()

	for i := 0; i < model.TrackCount; i++ {
		if i != selected {
			e.slots[i].ClearIdleOutput()
		}
	}

	idle := e.clk.IsIdle()
	gateTracks := proj.GateOutputTracks()
	cvTracks := proj.CvOutputTracks()

	if !e.gateOutputOverride && e.gates != nil {
		e.trackGateIndex = subIndices(gateTracks)
		for i := 0; i < model.TrackCount; i++ {
			src := gateTracks[i]
			slot := e.slots[src]
			sub := e.trackGateIndex[i]

			var on bool
			if idle && slot.IdleOutput() {
				on = slot.IdleGateOutput(sub)
			} else {
				on = slot.GateOutput(sub)
			}
			e.gates.Set(i, on)
		}
	}

	if !e.cvOutputOverride && e.cvOut != nil {
		e.trackCvIndex = subIndices(cvTracks)
		for i := 0; i < model.TrackCount; i++ {
			src := cvTracks[i]
			slot := e.slots[src]
			sub := e.trackCvIndex[i]

			var v float32
			if idle && slot.IdleOutput() {
				v = slot.IdleCvOutput(sub)
			} else {
				v = slot.CvOutput(sub)
			}
			e.cvOut.SetVolts(i, v)
		}
	}
}

func (e *Engine) applyOutputOverrides() {
	if e.gateOutputOverride && e.gates != nil {
		for i := 0; i < model.TrackCount; i++ {
			on := e.gateOutputOverrideValue&(1<<uint(i)) != 0
			e.gates.Set(i, on)
		}
	}
	if e.cvOutputOverride && e.cvOut != nil {
		for i := 0; i < model.TrackCount; i++ {
			e.cvOut.SetVolts(i, e.cvOutputOverrideValues[i])
		}
	}
}

func (e *Engine) measureTicks() uint32 {
	sm := e.model.Project().SyncMeasure()
	return uint32(sm) * clock.PPQN * 4
}

// updatePlayState is the play-state arbitration pass described in spec
// §4.8, invoked both pre-tick (ticked=false) and once per consumed tick
// (ticked=true).
func (e *Engine) updatePlayState(ticked bool) {
	proj := e.model.Project()
	ps := proj.PlayState()
	song := ps.SongState()
	songModel := proj.Song()

	m := e.measureTicks()
	handleSynced := e.tick%m == 0 || e.tick%m == m-1
	switchToNextSlot := ticked && e.tick%m == m-1
	handleLatched := ps.ExecuteLatchedRequests()

	muteMask := model.ImmediateMuteRequest
	patternMask := model.ImmediatePatternRequest
	playMask := model.ImmediatePlayRequest
	stopMask := model.ImmediateStopRequest
	if handleSynced {
		muteMask |= model.SyncedMuteRequest
		patternMask |= model.SyncedPatternRequest
		playMask |= model.SyncedPlayRequest
		stopMask |= model.SyncedStopRequest
	}
	if handleLatched {
		muteMask |= model.LatchedMuteRequest
		patternMask |= model.LatchedPatternRequest
		playMask |= model.LatchedPlayRequest
		stopMask |= model.LatchedStopRequest
	}

	changedPatterns := false
	changedMutes := false
	for i := 0; i < model.TrackCount; i++ {
		ts := ps.TrackState(i)
		if ts.HasRequests(muteMask) {
			if ts.Mute() != ts.RequestedMute() {
				changedMutes = true
			}
			ts.SetMute(ts.RequestedMute())
		}
		if ts.HasRequests(patternMask) {
			if ts.Pattern() != ts.RequestedPattern() {
				changedPatterns = true
			}
			ts.SetPattern(ts.RequestedPattern())
		}
	}

	slotSwitched := false
	if song.HasRequests(playMask) {
		requested := song.RequestedSlot()
		if requested >= 0 && requested < songModel.SlotCount() {
			song.SetCurrentSlot(requested)
			e.applySlotPatterns(requested)
			song.SetCurrentRepeat(0)
			song.SetPlaying(true)
			switchToNextSlot = false
			slotSwitched = true
		}
	}
	if changedPatterns || song.HasRequests(stopMask) {
		song.SetPlaying(false)
	}

	ps.ClearImmediateRequests()
	if handleSynced {
		ps.ClearSyncedRequests()
	}
	if handleLatched {
		ps.ClearLatchedRequests()
	}

	appliedOrSwitched := changedPatterns || changedMutes || slotSwitched

	if song.Playing() && switchToNextSlot {
		song.SetCurrentRepeat(song.CurrentRepeat() + 1)
		slot := songModel.Slot(song.CurrentSlot())
		if song.CurrentRepeat() >= slot.Repeats() {
			next := song.CurrentSlot() + 1
			if next >= songModel.SlotCount() {
				next = 0
			}
			song.SetCurrentSlot(next)
			song.SetCurrentRepeat(0)
			e.applySlotPatterns(next)
			e.resetTrackEngines()
		}
		appliedOrSwitched = true
	}

	if appliedOrSwitched {
		for i := 0; i < model.TrackCount; i++ {
			ts := ps.TrackState(i)
			e.slots[i].SetMute(ts.Mute())
			e.slots[i].SetFill(ts.Fill())
			e.slots[i].SetPattern(ts.Pattern())
		}
	}
}

func (e *Engine) applySlotPatterns(slotIndex int) {
	proj := e.model.Project()
	slot := proj.Song().Slot(slotIndex)
	ps := proj.PlayState()
	for i := 0; i < model.TrackCount; i++ {
		ps.TrackState(i).SetPattern(slot.Pattern(i))
	}
}

// applyClockSetup pushes the model's clock configuration into the Clock
// and, if a Dio is wired, synchronizes slave running state to the
// current reset-input level so re-entering a mode without an edge
// transition still produces a coherent state.
func (e *Engine) applyClockSetup() {
	cs := e.model.Project().ClockSetup()
	debug.Log("clock", "applying clock setup: mode=%v clockInputMode=%v", cs.Mode(), cs.ClockInputMode())

	switch cs.Mode() {
	case model.ClockModeMaster:
		e.clk.SetMode(clock.ModeMaster)
	case model.ClockModeSlave:
		e.clk.SetMode(clock.ModeSlave)
	default:
		e.clk.SetMode(clock.ModeAuto)
	}

	e.clk.SlaveConfigure(clock.SourceExternal, cs.ClockInputDivisor(), true)
	e.clk.SlaveConfigure(clock.SourceMidi, clock.PPQN/clock.MidiPPQN, cs.MidiRx())
	e.clk.SlaveConfigure(clock.SourceUsbMidi, clock.PPQN/clock.MidiPPQN, cs.UsbRx())
	e.clk.OutputConfigure(cs.ClockOutputDivisor(), cs.ClockOutputPulse())

	if e.dio == nil {
		return
	}
	level := e.dio.ResetInput()
	e.resetHeld = level
	running := e.clk.IsRunning()
	switch cs.ClockInputMode() {
	case clockInputReset:
		if level && running {
			e.clk.SlaveReset(clock.SourceExternal)
		} else if !level && !running {
			e.clk.SlaveStart(clock.SourceExternal)
		}
	case clockInputRun:
		if level && !running {
			e.clk.SlaveContinue(clock.SourceExternal)
		} else if !level && running {
			e.clk.SlaveStop(clock.SourceExternal)
		}
	case clockInputStartStop:
		if level && !running {
			e.clk.SlaveStart(clock.SourceExternal)
		} else if !level && running {
			e.clk.SlaveReset(clock.SourceExternal)
		}
	}
}

func (e *Engine) initClock() {
	e.applyClockSetup()
	e.model.Project().ClockSetup().ClearDirty()
}

func (e *Engine) updateClockSetup() {
	e.applyClockSetup()
	e.model.Project().ClockSetup().ClearDirty()
}

// onExternalClockEdge is the ISR-context handler for the external clock
// GPIO; it must be bounded and non-blocking (spec §5). In Reset mode, a
// clock pulse arriving while the transport is stopped and the reset line
// has been released auto-starts the slave before the tick is consumed,
// matching spec scenario S4.
func (e *Engine) onExternalClockEdge() {
	if !e.dio.ClockInput() {
		return
	}
	if e.model.Project().ClockSetup().ClockInputMode() == clockInputReset &&
		!e.clk.IsRunning() && !e.dio.ResetInput() {
		e.clk.SlaveStart(clock.SourceExternal)
	}
	e.clk.SlaveTick(clock.SourceExternal)
}

// onExternalResetEdge is the ISR-context handler for the external reset
// GPIO, implementing the clockInputMode truth table in spec §4.5.
func (e *Engine) onExternalResetEdge() {
	level := e.dio.ResetInput()
	rising := level && !e.resetHeld
	falling := !level && e.resetHeld
	e.resetHeld = level

	switch e.model.Project().ClockSetup().ClockInputMode() {
	case clockInputReset:
		switch {
		case rising:
			e.clk.SlaveReset(clock.SourceExternal)
		case falling:
			if !e.clk.IsRunning() {
				e.clk.SlaveStart(clock.SourceExternal)
			}
		}
	case clockInputRun:
		switch {
		case rising:
			e.clk.SlaveContinue(clock.SourceExternal)
		case falling:
			e.clk.SlaveStop(clock.SourceExternal)
		}
	case clockInputStartStop:
		switch {
		case rising:
			e.clk.SlaveStart(clock.SourceExternal)
		case falling:
			e.clk.SlaveStop(clock.SourceExternal)
			e.clk.SlaveReset(clock.SourceExternal)
		}
	}
}

// OnClockOutput implements clock.Listener: it mirrors the Clock's pulse
// state onto the hardware clock/reset pins.
func (e *Engine) OnClockOutput(state clock.OutputState) {
	if e.dio == nil {
		return
	}
	e.dio.SetClockOutput(state.Clock)
	switch e.model.Project().ClockSetup().ClockOutputMode() {
	case model.ClockOutputReset:
		e.dio.SetResetOutput(state.Reset)
	case model.ClockOutputRun:
		e.dio.SetResetOutput(state.Run)
	}
}

// OnClockMidi implements clock.Listener: it forwards a Clock-emitted
// MIDI real-time byte to whichever transports have tx enabled.
func (e *Engine) OnClockMidi(data byte) {
	cs := e.model.Project().ClockSetup()
	if cs.MidiTx() && e.midi[PortMidi] != nil {
		e.midi[PortMidi].Send(midiio.NewRealtimeMessage(data))
	}
	if cs.UsbTx() && e.midi[PortUsbMidi] != nil {
		e.midi[PortUsbMidi].Send(midiio.NewRealtimeMessage(data))
	}
}

// receiveMidi drains both transports (serial MIDI first, USB second, per
// spec §5's ordering guarantee) and broadcasts each message to routing,
// the optional host handler, and every track engine.
func (e *Engine) receiveMidi() {
	for port := Port(0); port < portCount; port++ {
		p := e.midi[port]
		if p == nil {
			continue
		}
		for {
			msg, ok := p.Recv()
			if !ok {
				break
			}
			channel := msg.Channel()
			e.routing.ReceiveMidi(int(port), channel, msg)
			if e.midiReceiveHandler != nil {
				e.midiReceiveHandler(port, channel, msg)
			}
			for _, s := range e.slots {
				s.ReceiveMidi(int(port), channel, msg)
			}
		}
	}
}
