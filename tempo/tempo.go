// Package tempo implements the two small tempo-assist collaborators the
// engine owns: a tap-tempo BPM estimator and a nudge-tempo strength
// integrator. Grounded on the teacher's tap-timing idiom in
// sequencer/manager.go (moving-average interval smoothing) adapted to a
// standalone, engine-agnostic collaborator.
package tempo

import "time"

const (
	maxTapIntervals = 4
	minBpm          = 20
	maxBpm          = 300
	tapTimeout       = 2 * time.Second
)

// Tap estimates a BPM from a sequence of Tap() calls spaced roughly a
// beat apart, averaging over a short rolling window the same way the
// teacher's tap-tempo button handler smooths jitter between consecutive
// presses.
type Tap struct {
	lastTap    time.Time
	intervals  [maxTapIntervals]time.Duration
	count      int
	bpm        float32
}

// NewTap returns a Tap with no tap history.
func NewTap() *Tap { return &Tap{} }

// Reset clears tap history; the next Tap starts a fresh estimate.
func (t *Tap) Reset() {
	t.lastTap = time.Time{}
	t.count = 0
}

// Tap records a tap at now and returns the updated BPM estimate (0 if not
// enough history yet). A gap longer than tapTimeout since the previous
// tap restarts the estimate instead of averaging across it.
func (t *Tap) Tap(now time.Time) float32 {
	if t.lastTap.IsZero() || now.Sub(t.lastTap) > tapTimeout {
		t.lastTap = now
		t.count = 0
		return 0
	}

	interval := now.Sub(t.lastTap)
	t.lastTap = now

	copy(t.intervals[1:], t.intervals[:maxTapIntervals-1])
	t.intervals[0] = interval
	if t.count < maxTapIntervals {
		t.count++
	}

	var sum time.Duration
	for i := 0; i < t.count; i++ {
		sum += t.intervals[i]
	}
	avg := sum / time.Duration(t.count)
	if avg <= 0 {
		return t.bpm
	}

	bpm := float32(60.0 / avg.Seconds())
	if bpm < minBpm {
		bpm = minBpm
	}
	if bpm > maxBpm {
		bpm = maxBpm
	}
	t.bpm = bpm
	return t.bpm
}

// Bpm returns the most recent estimate (0 before the second tap).
func (t *Tap) Bpm() float32 { return t.bpm }

const nudgeRate = 2.0 // strength units per second, both attack and decay

// Nudge integrates a direction input (-1, 0, +1) into a bounded strength
// value in [-1, 1]: it ramps toward the commanded direction and, when the
// direction returns to 0, decays back toward 0 at the same rate, rather
// than holding or snapping. This resolves the "does direction persist or
// auto-decay" question left open upstream in favor of auto-decay, since
// the engine has no other path to release a nudge once direction returns
// to 0.
type Nudge struct {
	direction int
	strength  float32
}

// NewNudge returns a Nudge at rest.
func NewNudge() *Nudge { return &Nudge{} }

// SetDirection sets the commanded direction; any non-zero value is
// clamped to ±1.
func (n *Nudge) SetDirection(d int) {
	switch {
	case d > 0:
		n.direction = 1
	case d < 0:
		n.direction = -1
	default:
		n.direction = 0
	}
}

// Update integrates strength toward direction (or toward 0 if direction
// is 0) by nudgeRate*dt, clamped to [-1, 1].
func (n *Nudge) Update(dt float32) {
	target := float32(n.direction)
	step := nudgeRate * dt
	if n.strength < target {
		n.strength += step
		if n.strength > target {
			n.strength = target
		}
	} else if n.strength > target {
		n.strength -= step
		if n.strength < target {
			n.strength = target
		}
	}
}

// Strength returns the current nudge strength in [-1, 1].
func (n *Nudge) Strength() float32 { return n.strength }
