package nectar

import "errors"

var (
	// ErrNoMatchingRule means neither profile has a rule for the other's kind.
	ErrNoMatchingRule = errors.New("nectar: no matching transfer rule")
	// ErrStaleReference means the peer's owner has been destroyed.
	ErrStaleReference = errors.New("nectar: peer profile is detached")
)

// Flow is one established relationship between two profiles. It records
// exactly which reference counts it incremented so that Release undoes
// those and nothing else.
type Flow struct {
	self, peer *Profile

	recv    Receiver
	hasRecv bool
	send    Sender
	hasSend bool

	selfReceivers, selfSenders int
	peerReceivers, peerSenders int
	released                   bool
}

// Establish matches self's rules against peer's kind and starts the
// resulting flow.
//
// A receiver rule on self increments self's receivers, sets self increasing
// when AffectsSelf, and when AffectsPeer increments peer's senders and sets
// peer decreasing at Rate*PeerRateMultiplier. A sender rule on self increments
// peer's receivers, sets peer increasing, and when AffectsSelf increments
// self's senders and sets self decreasing. Both rules may apply.
//
// A nil peer yields a nil flow and no error.
func Establish(self, peer *Profile) (*Flow, error) {
	if self == nil || peer == nil {
		return nil, nil
	}
	if peer.detached {
		return nil, ErrStaleReference
	}

	f := &Flow{self: self, peer: peer}

	if r, ok := self.FindReceiver(peer.Kind()); ok {
		f.recv, f.hasRecv = r, true
		self.AdjustReceivers(1)
		f.selfReceivers++
		if r.AffectsSelf {
			self.flow(StateIncreasing, r.Rate)
		}
		if r.AffectsPeer {
			peer.AdjustSenders(1)
			f.peerSenders++
			peer.flow(StateDecreasing, r.Rate*r.PeerRateMultiplier)
		}
	}

	if s, ok := self.FindSender(peer.Kind()); ok {
		f.send, f.hasSend = s, true
		peer.AdjustReceivers(1)
		f.peerReceivers++
		peer.flow(StateIncreasing, s.Rate)
		if s.AffectsSelf {
			self.AdjustSenders(1)
			f.selfSenders++
			self.flow(StateDecreasing, s.Rate)
		}
	}

	if !f.hasRecv && !f.hasSend {
		return nil, ErrNoMatchingRule
	}
	return f, nil
}

// Release undoes every count this flow incremented. The peer side is
// skipped when the peer has been detached. Safe to call more than once.
func (f *Flow) Release() {
	if f == nil || f.released {
		return
	}
	f.released = true
	f.releaseSelf()
	if !f.peer.detached {
		f.releasePeer()
	}
	f.peerReceivers, f.peerSenders = 0, 0
}

// Forfeit undoes only the self side and abandons the peer side.
func (f *Flow) Forfeit() {
	if f == nil || f.released {
		return
	}
	f.released = true
	f.releaseSelf()
	f.peerReceivers, f.peerSenders = 0, 0
}

func (f *Flow) releaseSelf() {
	for ; f.selfReceivers > 0; f.selfReceivers-- {
		f.self.AdjustReceivers(-1)
	}
	for ; f.selfSenders > 0; f.selfSenders-- {
		f.self.AdjustSenders(-1)
	}
}

func (f *Flow) releasePeer() {
	for ; f.peerReceivers > 0; f.peerReceivers-- {
		f.peer.AdjustReceivers(-1)
	}
	for ; f.peerSenders > 0; f.peerSenders-- {
		f.peer.AdjustSenders(-1)
	}
}

func (f *Flow) Self() *Profile             { return f.self }
func (f *Flow) Peer() *Profile             { return f.peer }
func (f *Flow) Released() bool             { return f.released }
func (f *Flow) Receiver() (Receiver, bool) { return f.recv, f.hasRecv }
func (f *Flow) Sender() (Sender, bool)     { return f.send, f.hasSend }

// SelfIncreasing reports whether the flow fills self.
func (f *Flow) SelfIncreasing() bool { return f.hasRecv && f.recv.AffectsSelf }

// SelfDecreasing reports whether the flow empties self.
func (f *Flow) SelfDecreasing() bool { return f.hasSend && f.send.AffectsSelf }

// PeerDecreasing reports whether the flow drains the peer.
func (f *Flow) PeerDecreasing() bool { return f.hasRecv && f.recv.AffectsPeer }
