package launcher

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rony4d/descartes-rollups/descartes"
	"github.com/rony4d/descartes-rollups/inter"
	"github.com/rony4d/descartes-rollups/rollup/genesis"
)

// keeper pokes the coordinator on a timer: it closes due input windows on
// behalf of the input collaborator and finalizes epochs whose challenge
// period is over.
type keeper struct {
	d        *descartes.Descartes
	gen      genesis.Genesis
	interval time.Duration
	log      logrus.FieldLogger
}

func (k *keeper) loop(quit <-chan struct{}) {
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			k.tick()
		case <-quit:
			return
		}
	}
}

func (k *keeper) tick() {
	if changed, err := k.d.NotifyInput(k.gen.Input); err != nil {
		k.log.WithError(err).Warn("Failed to close input window")
	} else if changed {
		k.log.WithField("epoch", k.d.CurrentEpoch()).Info("Input window closed")
	}

	err := k.d.FinalizeEpoch()
	var perr *inter.Error
	switch {
	case err == nil:
		k.log.WithField("epoch", k.d.CurrentEpoch()).Info("Epoch finalized by keeper")
	case errors.As(err, &perr) && perr.Retryable():
		k.log.WithError(err).Trace("Nothing to finalize")
	default:
		k.log.WithError(err).Error("Failed to finalize epoch")
	}
}
