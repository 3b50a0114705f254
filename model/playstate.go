package model

// PlayState holds the per-track and song request flags the engine
// arbitrates each cycle (spec.md §3, §4.8).
type PlayState struct {
	tracks  [TrackCount]TrackState
	song    SongState
	latched bool // executeLatchedRequests, a transient flag set by UI latch-release
}

func (p *PlayState) TrackState(i int) *TrackState { return &p.tracks[i] }
func (p *PlayState) SongState() *SongState         { return &p.song }

// ExecuteLatchedRequests reports the transient "latch released" signal;
// ClearLatchedRequests consumes it.
func (p *PlayState) ExecuteLatchedRequests() bool {
	return p.latched
}

// RequestLatchedExecute is called by the UI on latch release.
func (p *PlayState) RequestLatchedExecute() {
	p.latched = true
}

func (p *PlayState) HasImmediateRequests() bool {
	for i := range p.tracks {
		if p.tracks[i].requests&(ImmediateMuteRequest|ImmediatePatternRequest) != 0 {
			return true
		}
	}
	return p.song.requests&(ImmediatePlayRequest|ImmediateStopRequest) != 0
}

func (p *PlayState) HasSyncedRequests() bool {
	for i := range p.tracks {
		if p.tracks[i].requests&(SyncedMuteRequest|SyncedPatternRequest) != 0 {
			return true
		}
	}
	return p.song.requests&(SyncedPlayRequest|SyncedStopRequest) != 0
}

// ClearImmediateRequests, ClearSyncedRequests and ClearLatchedRequests clear
// the corresponding request-kind bits across every track and the song
// state; engine.Engine calls these on every arbitration pass (once before
// the tick loop and once per consumed tick).
func (p *PlayState) ClearImmediateRequests() {
	for i := range p.tracks {
		p.tracks[i].requests &^= ImmediateMuteRequest | ImmediatePatternRequest
	}
	p.song.requests &^= ImmediatePlayRequest | ImmediateStopRequest
}

func (p *PlayState) ClearSyncedRequests() {
	for i := range p.tracks {
		p.tracks[i].requests &^= SyncedMuteRequest | SyncedPatternRequest
	}
	p.song.requests &^= SyncedPlayRequest | SyncedStopRequest
}

func (p *PlayState) ClearLatchedRequests() {
	for i := range p.tracks {
		p.tracks[i].requests &^= LatchedMuteRequest | LatchedPatternRequest
	}
	p.song.requests &^= LatchedPlayRequest | LatchedStopRequest
	p.latched = false
}

// TrackState is one track's mute/pattern play state plus pending requests.
type TrackState struct {
	mute    bool
	fill    bool
	pattern int

	requestedMute    bool
	requestedPattern int
	requests         int
}

func (t *TrackState) Mute() bool    { return t.mute }
func (t *TrackState) SetMute(m bool) { t.mute = m }
func (t *TrackState) Fill() bool    { return t.fill }
func (t *TrackState) SetFill(f bool) { t.fill = f }
func (t *TrackState) Pattern() int  { return t.pattern }
func (t *TrackState) SetPattern(p int) { t.pattern = p }

func (t *TrackState) RequestedMute() bool    { return t.requestedMute }
func (t *TrackState) RequestedPattern() int  { return t.requestedPattern }

// HasRequests reports whether any bit in mask is set on this track's
// pending requests.
func (t *TrackState) HasRequests(mask int) bool { return t.requests&mask != 0 }

// ClearRequests clears the bits in mask.
func (t *TrackState) ClearRequests(mask int) { t.requests &^= mask }

// RequestMute sets the requested mute value and raises the given request
// kind (one of Immediate/Synced/LatchedMuteRequest).
func (t *TrackState) RequestMute(mute bool, kind int) {
	t.requestedMute = mute
	t.requests |= kind
}

// RequestPattern sets the requested pattern and raises the given request
// kind (one of Immediate/Synced/LatchedPatternRequest).
func (t *TrackState) RequestPattern(pattern int, kind int) {
	t.requestedPattern = pattern
	t.requests |= kind
}

// SongState is the song arrangement's play position and pending requests.
type SongState struct {
	currentSlot   int
	currentRepeat int
	requestedSlot int
	playing       bool
	requests      int
}

func (s *SongState) CurrentSlot() int        { return s.currentSlot }
func (s *SongState) SetCurrentSlot(i int)    { s.currentSlot = i }
func (s *SongState) CurrentRepeat() int      { return s.currentRepeat }
func (s *SongState) SetCurrentRepeat(n int)  { s.currentRepeat = n }
func (s *SongState) RequestedSlot() int      { return s.requestedSlot }
func (s *SongState) Playing() bool           { return s.playing }
func (s *SongState) SetPlaying(p bool)       { s.playing = p }

func (s *SongState) HasRequests(mask int) bool { return s.requests&mask != 0 }
func (s *SongState) ClearRequests(mask int)    { s.requests &^= mask }

// RequestPlay requests a Play transition to slot, raising the given
// request kind (one of Immediate/Synced/LatchedPlayRequest).
func (s *SongState) RequestPlay(slot int, kind int) {
	s.requestedSlot = slot
	s.requests |= kind
}

// RequestStop raises the given request kind
// (one of Immediate/Synced/LatchedStopRequest).
func (s *SongState) RequestStop(kind int) {
	s.requests |= kind
}
