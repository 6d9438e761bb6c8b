package launcher

import (
	"github.com/ethereum/go-ethereum/event"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/descartes-rollups/descartes"
)

// watcher collects the coordinator's notifications.
type watcher struct {
	claims   chan descartes.ClaimEvent
	phases   chan descartes.PhaseChangeEvent
	finals   chan descartes.FinalizeEpochEvent
	resolves chan descartes.ResolveDisputeEvent
	subs     []event.Subscription
}

func newWatcher(d *descartes.Descartes) *watcher {
	w := &watcher{
		claims:   make(chan descartes.ClaimEvent, 64),
		phases:   make(chan descartes.PhaseChangeEvent, 64),
		finals:   make(chan descartes.FinalizeEpochEvent, 64),
		resolves: make(chan descartes.ResolveDisputeEvent, 64),
	}
	w.subs = []event.Subscription{
		d.SubscribeClaim(w.claims),
		d.SubscribePhaseChange(w.phases),
		d.SubscribeFinalizeEpoch(w.finals),
		d.SubscribeResolveDispute(w.resolves),
	}
	return w
}

// loop hands every notification to handle until quit is closed.
func (w *watcher) loop(quit <-chan struct{}, handle func(interface{})) {
	for {
		select {
		case ev := <-w.claims:
			handle(ev)
		case ev := <-w.phases:
			handle(ev)
		case ev := <-w.finals:
			handle(ev)
		case ev := <-w.resolves:
			handle(ev)
		case <-quit:
			return
		}
	}
}

// drain hands over what is buffered without waiting, one kind after another.
func (w *watcher) drain(handle func(interface{})) {
	drainChan(w.claims, handle)
	drainChan(w.resolves, handle)
	drainChan(w.phases, handle)
	drainChan(w.finals, handle)
}

func drainChan[T any](ch chan T, handle func(interface{})) {
	for {
		select {
		case v := <-ch:
			handle(v)
		default:
			return
		}
	}
}

func (w *watcher) close() {
	for _, s := range w.subs {
		s.Unsubscribe()
	}
}

func logNotification(log logrus.FieldLogger, ev interface{}) {
	switch e := ev.(type) {
	case descartes.ClaimEvent:
		log.WithFields(logrus.Fields{"epoch": e.Epoch, "claimant": e.Claimant.Hex(), "hash": e.Hash.Hex()}).Info("Claim")
	case descartes.PhaseChangeEvent:
		log.WithField("phase", e.Phase).Info("PhaseChange")
	case descartes.FinalizeEpochEvent:
		log.WithFields(logrus.Fields{"epoch": e.Epoch, "hash": e.Hash.Hex()}).Info("FinalizeEpoch")
	case descartes.ResolveDisputeEvent:
		log.WithFields(logrus.Fields{
			"claimantA": e.ClaimantA.Hex(),
			"claimantB": e.ClaimantB.Hex(),
			"winning":   e.Winning.Hex(),
		}).Info("ResolveDispute")
	}
}
