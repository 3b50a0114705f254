// Package model defines the interfaces the engine borrows from the
// project/configuration store. The store itself (persistence, calibration
// tables, song authoring) is out of scope for this module; only the shapes
// the engine reads and writes live here, plus a reference in-memory
// implementation used by the simulator and the test suite.
package model

// TrackCount is CONFIG_TRACK_COUNT: the number of fixed track slots.
const TrackCount = 8

// TrackMode selects which track engine variant a track runs.
type TrackMode int

const (
	TrackModeNote TrackMode = iota
	TrackModeCurve
	TrackModeMidiCv
	TrackModeLast // sentinel: "no change" everywhere it's checked
)

// ClockMode mirrors Clock.Mode at the project level.
type ClockMode int

const (
	ClockModeAuto ClockMode = iota
	ClockModeMaster
	ClockModeSlave
	ClockModeLast
)

// ClockInputMode selects how the external reset/clock GPIO pair behaves.
type ClockInputMode int

const (
	ClockInputReset ClockInputMode = iota
	ClockInputRun
	ClockInputStartStop
	ClockInputLast
)

// ClockOutputMode selects what the reset output pin mirrors.
type ClockOutputMode int

const (
	ClockOutputReset ClockOutputMode = iota
	ClockOutputRun
	ClockOutputLast // "leaves the pin alone"
)

// Request bitmasks for TrackState mute/pattern and SongState play/stop.
// Three latencies per category: Immediate, Synced, Latched.
const (
	ImmediateMuteRequest = 1 << iota
	SyncedMuteRequest
	LatchedMuteRequest
	ImmediatePatternRequest
	SyncedPatternRequest
	LatchedPatternRequest
)

const (
	ImmediatePlayRequest = 1 << iota
	SyncedPlayRequest
	LatchedPlayRequest
	ImmediateStopRequest
	SyncedStopRequest
	LatchedStopRequest
)

// Model is the root collaborator the engine is constructed with.
type Model interface {
	Project() *Project
	Settings() *Settings
}

// Settings holds host-wide settings outside the project (calibration,
// output routing defaults). The calibration table is consumed by cvio;
// Settings only exposes what the engine needs a handle to.
type Settings struct {
	Calibration Calibration
}

// Calibration is the per-channel CV calibration table; cvio.CvOutput
// consumes it. Kept here (not in cvio) because it is project-store data,
// not hardware state.
type Calibration struct {
	Offset [TrackCount]float32
	Scale  [TrackCount]float32
}

// DefaultCalibration returns an identity calibration (no offset, unity
// scale) for every channel.
func DefaultCalibration() Calibration {
	var c Calibration
	for i := range c.Scale {
		c.Scale[i] = 1
	}
	return c
}

// Project is the per-song configuration the engine drives playback from.
type Project struct {
	bpm         float32
	syncMeasure int
	swing       int

	selectedTrackIndex int
	tracks             [TrackCount]*Track

	gateOutputTracks [TrackCount]int
	cvOutputTracks   [TrackCount]int

	playState  PlayState
	song       Song
	clockSetup ClockSetup
}

// NewProject returns a project with sane defaults: 120 BPM, one-measure
// sync, no swing, every output sourced from its own index, all tracks in
// Note mode.
func NewProject() *Project {
	p := &Project{
		bpm:         120,
		syncMeasure: 1,
	}
	for i := 0; i < TrackCount; i++ {
		p.tracks[i] = NewTrack()
		p.gateOutputTracks[i] = i
		p.cvOutputTracks[i] = i
	}
	p.clockSetup.dirty = true
	return p
}

func (p *Project) Bpm() float32        { return p.bpm }
func (p *Project) SetBpm(bpm float32)  { p.bpm = bpm }
func (p *Project) SyncMeasure() int    { return p.syncMeasure }
func (p *Project) SetSyncMeasure(n int) {
	if n < 1 {
		n = 1
	}
	p.syncMeasure = n
}
func (p *Project) Swing() int         { return p.swing }
func (p *Project) SetSwing(s int)     { p.swing = s }

func (p *Project) SelectedTrackIndex() int       { return p.selectedTrackIndex }
func (p *Project) SetSelectedTrackIndex(i int)   { p.selectedTrackIndex = i }

func (p *Project) Track(i int) *Track { return p.tracks[i] }

func (p *Project) GateOutputTracks() [TrackCount]int { return p.gateOutputTracks }
func (p *Project) CvOutputTracks() [TrackCount]int   { return p.cvOutputTracks }
func (p *Project) SetGateOutputTrack(output, source int) {
	p.gateOutputTracks[output] = source
}
func (p *Project) SetCvOutputTrack(output, source int) {
	p.cvOutputTracks[output] = source
}

func (p *Project) PlayState() *PlayState   { return &p.playState }
func (p *Project) Song() *Song             { return &p.song }
func (p *Project) ClockSetup() *ClockSetup { return &p.clockSetup }

// Track is a single track's static configuration (mode, link target).
type Track struct {
	mode      TrackMode
	linkTrack int
}

// NewTrack returns a track in Note mode with no link target.
func NewTrack() *Track {
	return &Track{linkTrack: -1}
}

func (t *Track) TrackMode() TrackMode     { return t.mode }
func (t *Track) SetTrackMode(m TrackMode) { t.mode = m }
func (t *Track) LinkTrack() int           { return t.linkTrack }
func (t *Track) SetLinkTrack(i int)       { t.linkTrack = i }

// ClockSetup is the project's clock configuration, read by the engine
// whenever its dirty flag is set (spec.md §4.5).
type ClockSetup struct {
	dirty bool

	mode            ClockMode
	clockInputMode  ClockInputMode
	clockOutputMode ClockOutputMode

	clockInputDivisor  int
	clockOutputDivisor int
	clockOutputPulse   int

	midiRx, usbRx bool
	midiTx, usbTx bool
}

func (c *ClockSetup) IsDirty() bool { return c.dirty }
func (c *ClockSetup) ClearDirty()   { c.dirty = false }
func (c *ClockSetup) markDirty()    { c.dirty = true }

func (c *ClockSetup) Mode() ClockMode           { return c.mode }
func (c *ClockSetup) SetMode(m ClockMode)       { c.mode = m; c.markDirty() }
func (c *ClockSetup) ClockInputMode() ClockInputMode { return c.clockInputMode }
func (c *ClockSetup) SetClockInputMode(m ClockInputMode) {
	c.clockInputMode = m
	c.markDirty()
}
func (c *ClockSetup) ClockOutputMode() ClockOutputMode { return c.clockOutputMode }
func (c *ClockSetup) SetClockOutputMode(m ClockOutputMode) {
	c.clockOutputMode = m
	c.markDirty()
}
func (c *ClockSetup) ClockInputDivisor() int { return c.clockInputDivisor }
func (c *ClockSetup) SetClockInputDivisor(d int) {
	c.clockInputDivisor = d
	c.markDirty()
}
func (c *ClockSetup) ClockOutputDivisor() int { return c.clockOutputDivisor }
func (c *ClockSetup) ClockOutputPulse() int   { return c.clockOutputPulse }
func (c *ClockSetup) SetClockOutput(divisor, pulse int) {
	c.clockOutputDivisor = divisor
	c.clockOutputPulse = pulse
	c.markDirty()
}
func (c *ClockSetup) MidiRx() bool { return c.midiRx }
func (c *ClockSetup) UsbRx() bool  { return c.usbRx }
func (c *ClockSetup) MidiTx() bool { return c.midiTx }
func (c *ClockSetup) UsbTx() bool  { return c.usbTx }
func (c *ClockSetup) SetMidiRxTx(rx, tx bool) {
	c.midiRx, c.midiTx = rx, tx
	c.markDirty()
}
func (c *ClockSetup) SetUsbRxTx(rx, tx bool) {
	c.usbRx, c.usbTx = rx, tx
	c.markDirty()
}
