package bus

import "time"

// SimBus is an in-process channel-backed Bus for the demo binary and for
// engine/command-adapter tests, in place of a real transceiver. One SimBus
// represents one side of the wire; NewSimBusPair also returns the peer
// endpoint a test driver uses to play the role of the external controller.
type SimBus struct {
	inbound  chan Frame
	outbound chan Frame
}

// NewSimBusPair returns two connected endpoints: one for the command
// adapter under test, one for a test driver acting as the controller.
func NewSimBusPair() (module *SimBus, controller *SimBus) {
	aToB := make(chan Frame, 32)
	bToA := make(chan Frame, 32)
	module = &SimBus{inbound: aToB, outbound: bToA}
	controller = &SimBus{inbound: bToA, outbound: aToB}
	return module, controller
}

func (b *SimBus) Recv(timeout time.Duration) (Frame, bool) {
	select {
	case f := <-b.inbound:
		return f, true
	case <-time.After(timeout):
		return Frame{}, false
	}
}

func (b *SimBus) Send(f Frame) error {
	b.outbound <- f
	return nil
}
