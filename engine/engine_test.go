//go:build simulator

// Lock/Unlock below rely on the simulator build's self-pumping behavior
// (lock_simulator.go) so a single-threaded test can exercise them without
// a second goroutine driving Update.
package engine

import (
	"testing"
	"time"

	"stepsequencer/clock"
	"stepsequencer/model"
)

type fakeAdc struct{}

func (fakeAdc) Channel(ch int) float32 { return 0 }

type fakeDac struct {
	values [model.TrackCount]float32
}

func (f *fakeDac) SetChannel(ch int, v float32) { f.values[ch] = v }

type fakeDio struct {
	gates                     [model.TrackCount]bool
	clockInputHandler         func()
	resetInputHandler         func()
	clockOutput, resetOutput  bool
	resetInputLevel           bool
	clockInputLevel           bool
}

func (f *fakeDio) GateOutput(ch int) bool        { return f.gates[ch] }
func (f *fakeDio) SetGateOutput(ch int, on bool) { f.gates[ch] = on }
func (f *fakeDio) ClockInput() bool              { return f.clockInputLevel }
func (f *fakeDio) SetClockInputHandler(h func()) { f.clockInputHandler = h }
func (f *fakeDio) ResetInput() bool              { return f.resetInputLevel }
func (f *fakeDio) SetResetInputHandler(h func()) { f.resetInputHandler = h }
func (f *fakeDio) SetClockOutput(on bool)        { f.clockOutput = on }
func (f *fakeDio) SetResetOutput(on bool)        { f.resetOutput = on }

// fakeClock hands out wall-clock timestamps that advance by a fixed step
// each call, so Engine.Update's dt is deterministic and reproduces a
// chosen tick rate without a real timer.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (f *fakeClock) now() time.Time {
	f.t = f.t.Add(f.step)
	return f.t
}

func newTestEngine(t *testing.T, bpm float32) (*Engine, *fakeDac, *fakeDio, *fakeClock) {
	t.Helper()
	dac := &fakeDac{}
	dio := &fakeDio{}
	fc := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), step: time.Second / time.Duration(bpm/60*clock.PPQN)}

	m := model.NewRefModel()
	m.Project().SetBpm(bpm)
	m.Project().ClockSetup().SetMode(model.ClockModeMaster)

	e := New(InitContext{
		Model: m,
		Clock: clock.New(),
		Adc:   fakeAdc{},
		Dac:   dac,
		Dio:   dio,
		Now:   fc.now,
	})
	return e, dac, dio, fc
}

func TestNewEngineStartsUnlockedAndNotRunning(t *testing.T) {
	e, _, _, _ := newTestEngine(t, 120)
	if e.IsLocked() {
		t.Fatal("new engine should start unlocked")
	}
	if e.Running() {
		t.Fatal("new engine should start not running")
	}
}

// S1 — start and advance roughly one measure.
func TestClockStartAdvancesTickAndRunning(t *testing.T) {
	e, _, _, _ := newTestEngine(t, 120)
	e.ClockStart()

	const measureTicks = 768 // PPQN(192) * 4 at syncMeasure=1
	for i := 0; i < measureTicks; i++ {
		e.Update()
	}

	if !e.Running() {
		t.Fatal("expected running after ClockStart and draining Start event")
	}
	if e.Tick() < measureTicks-8 || e.Tick() > measureTicks+8 {
		t.Fatalf("expected tick near %d after one measure of updates, got %d", measureTicks, e.Tick())
	}

	frac := e.SyncMeasureFraction()
	if frac < 0 || frac >= 1 {
		t.Fatalf("syncMeasureFraction must be in [0,1), got %v", frac)
	}
}

// S3 — immediate mute requested while locked must not be arbitrated
// until unlock.
func TestImmediateMuteDoesNotApplyWhileLocked(t *testing.T) {
	e, _, _, _ := newTestEngine(t, 120)
	e.ClockStart()
	e.Update()

	ts := e.model.Project().PlayState().TrackState(0)
	ts.RequestMute(true, model.ImmediateMuteRequest)

	e.Lock()
	if !e.IsLocked() {
		t.Fatal("expected engine to be locked after Lock()")
	}

	for i := 0; i < 1000; i++ {
		e.Update()
	}
	if !ts.HasRequests(model.ImmediateMuteRequest) {
		t.Fatal("a pending immediate request must survive while locked")
	}
	if ts.Mute() {
		t.Fatal("mute must not be applied while locked")
	}
	if !e.slots[0].IdleOutput() {
		t.Fatal("track engine must not be muted while locked")
	}

	e.Unlock()
	if e.IsLocked() {
		t.Fatal("expected engine to be unlocked after Unlock()")
	}
	e.Update()

	if ts.HasRequests(model.ImmediateMuteRequest) {
		t.Fatal("immediate mute request should be cleared on the first unlocked cycle")
	}
	if !ts.Mute() {
		t.Fatal("expected mute to be applied on the first unlocked cycle")
	}
	if e.slots[0].IdleOutput() {
		t.Fatal("expected track engine itself (not just model state) to be muted on the first unlocked cycle")
	}
}

// S4 — external clock reset-mode GPIO edges drive the expected Clock
// slave calls.
func TestExternalClockResetModeStartsOnFallingEdge(t *testing.T) {
	e, _, dio, _ := newTestEngine(t, 120)
	e.model.Project().ClockSetup().SetMode(model.ClockModeAuto) // Master mode ignores slave calls
	e.model.Project().ClockSetup().SetClockInputMode(model.ClockInputReset)
	e.Update() // picks up the dirty clock-setup change

	dio.resetInputLevel = false
	e.onExternalResetEdge() // establish a low baseline (no edge yet)

	dio.resetInputLevel = true
	e.onExternalResetEdge() // rising: slaveReset

	dio.resetInputLevel = false
	e.onExternalResetEdge() // falling while not running: slaveStart

	if e.clk.IsIdle() {
		t.Fatal("expected clock to be running after reset-mode falling edge")
	}
}

// S4 — a clock pulse on the clock GPIO in Reset mode, with the transport
// stopped and the reset line released, auto-starts the slave before the
// pulse itself is consumed as a tick.
func TestExternalClockEdgeAutoStartsInResetMode(t *testing.T) {
	e, _, dio, _ := newTestEngine(t, 120)
	e.model.Project().ClockSetup().SetMode(model.ClockModeAuto)
	e.model.Project().ClockSetup().SetClockInputMode(model.ClockInputReset)
	// Reset is held while the setup is applied, so applyClockSetup leaves
	// the slave stopped; the line is then released without an edge.
	dio.resetInputLevel = true
	e.Update() // picks up the dirty clock-setup change

	dio.resetInputLevel = false
	dio.clockInputLevel = true

	if !e.clk.IsIdle() {
		t.Fatal("expected clock to start out stopped")
	}

	e.onExternalClockEdge()

	if e.clk.IsIdle() {
		t.Fatal("expected a clock pulse in Reset mode to auto-start the slave")
	}

	tick, ok := e.clk.CheckTick()
	if !ok {
		t.Fatal("expected the triggering pulse to also be consumed as a tick")
	}
	if tick != 1 {
		t.Fatalf("expected the first tick after auto-start to be 1, got %d", tick)
	}
}

// S6 — CV output override precedence over track-sourced values.
func TestCvOutputOverridePrecedence(t *testing.T) {
	e, dac, _, _ := newTestEngine(t, 120)
	e.SetCvOutputOverride(true)
	for i := 0; i < model.TrackCount; i++ {
		e.SetCvOutputOverrideValue(i, float32(i)+1)
	}

	e.Update()

	for i := 0; i < model.TrackCount; i++ {
		want := float32(i) + 1
		if dac.values[i] != want {
			t.Fatalf("channel %d: got %v, want override value %v", i, dac.values[i], want)
		}
	}
}

// Round-trip: lock then unlock leaves locked == false and touches no
// pattern/song state.
func TestLockUnlockRoundTripIsIdempotent(t *testing.T) {
	e, _, _, _ := newTestEngine(t, 120)
	pattern := e.model.Project().PlayState().TrackState(0).Pattern()

	e.Lock()
	e.Unlock()

	if e.IsLocked() {
		t.Fatal("expected unlocked after lock/unlock round trip")
	}
	if e.model.Project().PlayState().TrackState(0).Pattern() != pattern {
		t.Fatal("lock/unlock round trip must not alter track pattern state")
	}
}

func TestSongSlotWrapsAfterRepeats(t *testing.T) {
	e, _, _, _ := newTestEngine(t, 120)
	proj := e.model.Project()
	proj.Song().SetSlotCount(2)
	proj.Song().Slot(0).SetRepeats(1)
	proj.Song().Slot(1).SetRepeats(1)
	proj.PlayState().SongState().SetPlaying(true)

	e.ClockStart()

	const measureTicks = 768
	wantAtBoundary := []int{1, 0, 1} // slot 0's single repeat is consumed crossing boundary 0
	for boundary := 0; boundary < 3; boundary++ {
		for i := 0; i < measureTicks; i++ {
			e.Update()
		}
		got := proj.PlayState().SongState().CurrentSlot()
		if got != wantAtBoundary[boundary] {
			t.Fatalf("boundary %d: expected song slot %d, got %d", boundary, wantAtBoundary[boundary], got)
		}
	}
}

// S2 — a synced pattern change requested mid-measure is held until the
// measure boundary: the model state of both tracks takes the new pattern
// at tick 767 and never before, the request is cleared, and both slots
// are still live Note engines.
func TestSyncedPatternChangeAppliesAtMeasureBoundary(t *testing.T) {
	e, _, _, _ := newTestEngine(t, 120)
	e.ClockStart()

	const measureTicks = 768
	for i := 0; i < 100; i++ {
		e.Update()
	}

	ts0 := e.model.Project().PlayState().TrackState(0)
	ts1 := e.model.Project().PlayState().TrackState(1)
	ts0.RequestPattern(3, model.SyncedPatternRequest)
	ts1.RequestPattern(3, model.SyncedPatternRequest)

	for e.Tick() < measureTicks-1 {
		e.Update()
		if e.Tick() < measureTicks-1 && (ts0.Pattern() == 3 || ts1.Pattern() == 3) {
			t.Fatalf("synced pattern request applied early, at tick %d", e.Tick())
		}
	}

	if e.Tick() != measureTicks-1 {
		t.Fatalf("expected loop to stop exactly at tick %d, got %d", measureTicks-1, e.Tick())
	}
	if ts0.Pattern() != 3 || ts1.Pattern() != 3 {
		t.Fatalf("expected synced pattern request applied at tick %d: pattern0=%d pattern1=%d", measureTicks-1, ts0.Pattern(), ts1.Pattern())
	}
	if ts0.HasRequests(model.SyncedPatternRequest) || ts1.HasRequests(model.SyncedPatternRequest) {
		t.Fatal("synced pattern request should be cleared once applied")
	}
	if e.slots[0].Mode() != model.TrackModeNote || e.slots[1].Mode() != model.TrackModeNote {
		t.Fatal("expected both track engines to still be live Note engines")
	}
}

// Testable property 6: when two physical outputs share a source track,
// the sub-index drawn for the lower physical index is strictly less than
// the sub-index drawn for the higher one.
func TestSubIndexOrderingWhenOutputsShareASourceTrack(t *testing.T) {
	var sources [model.TrackCount]int
	for i := range sources {
		sources[i] = i
	}
	sources[2] = 0
	sources[5] = 0

	subs := subIndices(sources)
	if subs[2] >= subs[5] {
		t.Fatalf("expected output 2's sub-index (%d) to be strictly less than output 5's (%d)", subs[2], subs[5])
	}
	// Output 0 also sources track 0 and draws sub-index 0 first.
	if subs[2] != 1 || subs[5] != 2 {
		t.Fatalf("expected sub-indices 1 and 2 for outputs 2 and 5, got %d and %d", subs[2], subs[5])
	}
}
