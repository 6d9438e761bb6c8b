package dispute

import (
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/descartes-rollups/inter"
)

// Applier receives arbitration results. *validatormgr.Manager implements it.
type Applier interface {
	OnDisputeEnd(claimantA, claimantB common.Address, winning common.Hash) (inter.Outcome, error)
}

// Resolution is one applied arbitration result.
type Resolution struct {
	Dispute inter.Dispute
	Winning common.Hash
	Winner  common.Address
	Loser   common.Address
}

// Result is where a run of the resolver stopped.
type Result struct {
	// Outcome is the last outcome, never Conflict unless Open is set.
	Outcome     inter.Outcome
	Resolutions []Resolution
	// Open is the dispute the arbiter deferred, if any.
	Open *inter.Dispute
}

// Resolver drives conflicts to a non-conflicting outcome.
type Resolver struct {
	arbiter Arbiter
	log     logrus.FieldLogger
}

func NewResolver(arbiter Arbiter, log logrus.FieldLogger) *Resolver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{arbiter: arbiter, log: log}
}

// Run arbitrates out and every conflict that follows from it. Each applied
// resolution removes one validator, so the loop ends after at most as many
// steps as there are validators.
func (r *Resolver) Run(mgr Applier, epoch idx.Epoch, out inter.Outcome) (Result, error) {
	var res Result
	work := []inter.Outcome{out}
	for len(work) > 0 {
		cur := work[0]
		work = work[1:]
		res.Outcome = cur
		if cur.Result != inter.Conflict {
			continue
		}

		d := inter.DisputeFromOutcome(epoch, cur)
		log := r.log.WithFields(logrus.Fields{
			"epoch":     epoch,
			"claimantA": d.Pair[0].Claimant.Hex(),
			"claimantB": d.Pair[1].Claimant.Hex(),
		})
		winning, decided := r.arbiter.InitiateDispute(d)
		if !decided {
			log.Info("Dispute deferred")
			res.Open = &d
			return res, nil
		}
		log.WithField("winning", winning.Hex()).Debug("Dispute decided inline")

		resolution, next, err := r.apply(mgr, d, winning)
		if err != nil {
			return Result{}, err
		}
		res.Resolutions = append(res.Resolutions, resolution)
		work = append(work, next)
	}
	return res, nil
}

// Resume applies an externally delivered result for d, then continues as Run.
func (r *Resolver) Resume(mgr Applier, d inter.Dispute, winning common.Hash) (Result, error) {
	resolution, next, err := r.apply(mgr, d, winning)
	if err != nil {
		return Result{}, err
	}
	res, err := r.Run(mgr, d.Epoch, next)
	if err != nil {
		return Result{}, err
	}
	res.Resolutions = append([]Resolution{resolution}, res.Resolutions...)
	return res, nil
}

// Closed tells a tracking arbiter that d no longer needs a decision.
func (r *Resolver) Closed(d inter.Dispute) {
	if t, ok := r.arbiter.(Tracker); ok {
		t.DisputeClosed(d)
	}
}

func (r *Resolver) apply(mgr Applier, d inter.Dispute, winning common.Hash) (Resolution, inter.Outcome, error) {
	loser, ok := d.Loser(winning)
	if !ok {
		return Resolution{}, inter.Outcome{}, inter.ErrUnknownDispute
	}
	next, err := mgr.OnDisputeEnd(d.Pair[0].Claimant, d.Pair[1].Claimant, winning)
	if err != nil {
		return Resolution{}, inter.Outcome{}, err
	}
	winner := d.Pair[0].Claimant
	if winner == loser {
		winner = d.Pair[1].Claimant
	}
	return Resolution{Dispute: d, Winning: winning, Winner: winner, Loser: loser}, next, nil
}
