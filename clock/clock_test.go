package clock

import "testing"

// Testable property 10: the SPSC tick queue must tolerate a burst of N
// slave ticks followed by N CheckTick drains within the same cycle without
// losing a tick, as long as N stays within queueCapacity.
func TestTickQueueToleratesBurstWithinCapacity(t *testing.T) {
	c := New()
	c.SetMode(ModeSlave)
	c.SlaveConfigure(SourceExternal, 1, true)
	c.SlaveStart(SourceExternal)
	c.CheckEvent() // drain the Start event, not under test here

	const burst = queueCapacity
	for i := 0; i < burst; i++ {
		c.SlaveTick(SourceExternal)
	}

	for i := 0; i < burst; i++ {
		tick, ok := c.CheckTick()
		if !ok {
			t.Fatalf("expected tick %d/%d to be present, queue drained early", i+1, burst)
		}
		if tick != uint32(i+1) {
			t.Fatalf("expected tick value %d, got %d", i+1, tick)
		}
	}

	if _, ok := c.CheckTick(); ok {
		t.Fatal("expected queue to be empty after draining exactly the burst size")
	}
}

// A burst strictly larger than capacity is allowed to drop the excess
// ticks that arrive once the queue is full (the non-blocking default-drop
// fallback), but must never
// block or panic, and CheckTick must still report a strictly increasing
// tick sequence for whatever it does retain.
func TestTickQueueDropsExcessWithoutBlocking(t *testing.T) {
	c := New()
	c.SetMode(ModeSlave)
	c.SlaveConfigure(SourceExternal, 1, true)
	c.SlaveStart(SourceExternal)
	c.CheckEvent()

	const burst = queueCapacity * 2
	for i := 0; i < burst; i++ {
		c.SlaveTick(SourceExternal)
	}

	var last uint32
	count := 0
	for {
		tick, ok := c.CheckTick()
		if !ok {
			break
		}
		if tick <= last && count > 0 {
			t.Fatalf("tick sequence not strictly increasing: %d after %d", tick, last)
		}
		last = tick
		count++
	}

	if count == 0 {
		t.Fatal("expected at least some ticks to survive an oversized burst")
	}
	if count > queueCapacity {
		t.Fatalf("queue must never hold more than its capacity, got %d", count)
	}
}

func TestSlaveTickHonorsDivisor(t *testing.T) {
	c := New()
	c.SetMode(ModeSlave)
	c.SlaveConfigure(SourceExternal, 4, true)
	c.SlaveStart(SourceExternal)
	c.CheckEvent()

	c.SlaveTick(SourceExternal)

	count := 0
	for {
		if _, ok := c.CheckTick(); !ok {
			break
		}
		count++
	}
	if count != 4 {
		t.Fatalf("expected one slave edge at divisor 4 to produce 4 internal ticks, got %d", count)
	}
}

func TestSlaveTickIgnoredWhenNotRunning(t *testing.T) {
	c := New()
	c.SetMode(ModeSlave)
	c.SlaveConfigure(SourceExternal, 1, true)

	c.SlaveTick(SourceExternal)

	if _, ok := c.CheckTick(); ok {
		t.Fatal("expected no ticks before the slave has been started")
	}
}
