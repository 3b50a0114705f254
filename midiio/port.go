package midiio

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"stepsequencer/debug"
)

const recvQueueCapacity = 256

// RecvFilter intercepts a single byte before it would be queued for
// message-level delivery. Returning true means the filter consumed the
// byte (it was a MIDI real-time status byte routed to the clock) and it
// must not be queued; returning false means the byte should be queued
// normally. This mirrors the teacher's midi.setRecvFilter/usbMidi pattern
// generalized from gomidi's own receive callback.
type RecvFilter func(data byte) bool

// Port is one half of the serial-MIDI/USB-MIDI transport pair: a named
// gomidi input/output pair with a bounded receive queue and a byte-level
// receive filter, grounded on the teacher's midi.DeviceManager port
// scanning (midi/manager.go) and sequencer.Manager.getSender's lazy
// SendTo usage.
type Port struct {
	name string

	mu       sync.Mutex
	sendFn   func(gomidi.Message) error
	stopRecv func()

	recvQueue chan Message
	filter    RecvFilter

	connectHandler    func(vendorID, productID uint16)
	disconnectHandler func()
}

// NewPort returns an unopened port for the given logical name (matched
// against gomidi.GetOutPorts()/GetInPorts() port names on Open).
func NewPort(name string) *Port {
	return &Port{
		name:      name,
		recvQueue: make(chan Message, recvQueueCapacity),
	}
}

// Open looks up and opens the named output port for sending and, if an
// input port of the same name exists, starts listening on it. Either half
// may be absent (a send-only or receive-only transport) without error.
func (p *Port) Open() error {
	for _, out := range gomidi.GetOutPorts() {
		if out.String() == p.name {
			send, err := gomidi.SendTo(out)
			if err != nil {
				debug.Log("midiio", "open output %q failed: %v", p.name, err)
				return fmt.Errorf("midiio: open output %q: %w", p.name, err)
			}
			p.mu.Lock()
			p.sendFn = send
			p.mu.Unlock()
			break
		}
	}

	for _, in := range gomidi.GetInPorts() {
		if in.String() == p.name {
			if err := p.listen(in); err != nil {
				debug.Log("midiio", "open input %q failed: %v", p.name, err)
				return fmt.Errorf("midiio: open input %q: %w", p.name, err)
			}
			break
		}
	}

	return nil
}

func (p *Port) listen(in drivers.In) error {
	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, _ int32) {
		p.handleIncoming(msg)
	})
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.stopRecv = stop
	p.mu.Unlock()
	return nil
}

// handleIncoming applies the receive filter to a message arriving off the
// wire and, unless the filter consumed it, enqueues it for Recv. Factored
// out of the gomidi.ListenTo callback so the filter/queue interaction can
// be exercised directly without a real input port.
func (p *Port) handleIncoming(msg gomidi.Message) {
	raw := []byte(msg)
	if len(raw) == 1 {
		p.mu.Lock()
		filter := p.filter
		p.mu.Unlock()
		if filter != nil && filter(raw[0]) {
			return
		}
	}
	select {
	case p.recvQueue <- NewMessage(msg):
	default:
		debug.Log("midiio", "port %q recv queue full, dropping message", p.name)
	}
}

// Close stops listening and releases the underlying ports.
func (p *Port) Close() {
	p.mu.Lock()
	stop := p.stopRecv
	p.stopRecv = nil
	p.sendFn = nil
	p.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// SetRecvFilter installs the byte-level filter diverting clock bytes away
// from the message queue.
func (p *Port) SetRecvFilter(f RecvFilter) {
	p.mu.Lock()
	p.filter = f
	p.mu.Unlock()
}

// SetConnectHandler installs the USB-MIDI connect callback. The engine
// installs it only on the USB-MIDI port.
func (p *Port) SetConnectHandler(h func(vendorID, productID uint16)) {
	p.mu.Lock()
	p.connectHandler = h
	p.mu.Unlock()
}

// SetDisconnectHandler installs the USB-MIDI disconnect callback.
func (p *Port) SetDisconnectHandler(h func()) {
	p.mu.Lock()
	p.disconnectHandler = h
	p.mu.Unlock()
}

// NotifyConnect invokes the connect handler, if any; a hot-plug scanner
// calls it when this USB port's device appears.
func (p *Port) NotifyConnect(vendorID, productID uint16) {
	p.mu.Lock()
	h := p.connectHandler
	p.mu.Unlock()
	if h != nil {
		h(vendorID, productID)
	}
}

// NotifyDisconnect invokes the disconnect handler, if any.
func (p *Port) NotifyDisconnect() {
	p.mu.Lock()
	h := p.disconnectHandler
	p.mu.Unlock()
	if h != nil {
		h()
	}
}

// Send transmits message, reporting success the way spec.md's sendMidi
// does: a boolean, no retry.
func (p *Port) Send(message Message) bool {
	p.mu.Lock()
	send := p.sendFn
	p.mu.Unlock()
	if send == nil {
		return false
	}
	return send(gomidi.Message(message.Bytes())) == nil
}

// Recv drains one pending received message, if any.
func (p *Port) Recv() (Message, bool) {
	select {
	case m := <-p.recvQueue:
		return m, true
	default:
		return Message{}, false
	}
}
