package descartes

import (
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"

	"github.com/rony4d/descartes-rollups/inter"
)

// CreatedEvent describes a deployment. It is produced once, by New.
type CreatedEvent struct {
	Input            common.Address
	Output           common.Address
	ValidatorManager common.Address
	Dispute          common.Address
	InputDuration    inter.Timestamp
	ChallengePeriod  inter.Timestamp
}

// ClaimEvent is sent for every accepted claim. Epoch is the number of
// finalized epochs, i.e. the epoch the claim is about.
type ClaimEvent struct {
	Epoch    idx.Epoch
	Claimant common.Address
	Hash     common.Hash
}

type PhaseChangeEvent struct {
	Phase inter.Phase
}

type FinalizeEpochEvent struct {
	Epoch idx.Epoch
	Hash  common.Hash
}

type ResolveDisputeEvent struct {
	ClaimantA common.Address
	ClaimantB common.Address
	Winning   common.Hash
}

// feeds fan notifications out to subscribers.
type feeds struct {
	claim          event.Feed
	phaseChange    event.Feed
	finalizeEpoch  event.Feed
	resolveDispute event.Feed

	scope event.SubscriptionScope
}

func (f *feeds) send(ev interface{}) {
	switch e := ev.(type) {
	case ClaimEvent:
		f.claim.Send(e)
	case PhaseChangeEvent:
		f.phaseChange.Send(e)
	case FinalizeEpochEvent:
		f.finalizeEpoch.Send(e)
	case ResolveDisputeEvent:
		f.resolveDispute.Send(e)
	}
}

// SubscribeClaim delivers accepted claims.
func (d *Descartes) SubscribeClaim(ch chan<- ClaimEvent) event.Subscription {
	return d.feeds.scope.Track(d.feeds.claim.Subscribe(ch))
}

// SubscribePhaseChange delivers committed phase transitions.
func (d *Descartes) SubscribePhaseChange(ch chan<- PhaseChangeEvent) event.Subscription {
	return d.feeds.scope.Track(d.feeds.phaseChange.Subscribe(ch))
}

// SubscribeFinalizeEpoch delivers finalized epochs.
func (d *Descartes) SubscribeFinalizeEpoch(ch chan<- FinalizeEpochEvent) event.Subscription {
	return d.feeds.scope.Track(d.feeds.finalizeEpoch.Subscribe(ch))
}

// SubscribeResolveDispute delivers applied arbitration results.
func (d *Descartes) SubscribeResolveDispute(ch chan<- ResolveDisputeEvent) event.Subscription {
	return d.feeds.scope.Track(d.feeds.resolveDispute.Subscribe(ch))
}
