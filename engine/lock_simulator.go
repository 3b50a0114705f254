//go:build simulator

package engine

import "sync/atomic"

// Lock and Unlock additionally pump Update themselves on a simulator
// build: there is no separate realtime thread to observe the request, so
// the busy-wait would deadlock a single-threaded host otherwise (spec
// §9's "simulator branch").
func (e *Engine) Lock() {
	atomic.StoreInt32(&e.requestLock, 1)
	for atomic.LoadInt32(&e.locked) == 0 {
		e.Update()
	}
}

func (e *Engine) Unlock() {
	atomic.StoreInt32(&e.requestUnlock, 1)
	for atomic.LoadInt32(&e.locked) == 1 {
		e.Update()
	}
}
