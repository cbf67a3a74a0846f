package service

import (
	"context"
	"time"

	"github.com/oif-solver/solver-svc/internal/data"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// monitorPass runs one monitoring cycle: fill every pending order, then
// finalize filled orders once the finalization delay has elapsed. Per-order
// failures are recorded on the order and do not stop the pass.
func (s *service) monitorPass(ctx context.Context) error {
	s.probeConnectivity(ctx)

	pending, err := s.orders.ByStatus(data.StatusPending)
	if err != nil {
		return errors.Wrap(err, "failed to select pending orders")
	}

	pause := s.cfg.Monitoring().OrderPause
	for _, o := range pending {
		if _, err = s.lifecycle.ProcessPending(ctx, o.ID); err != nil {
			s.log.WithError(err).WithField("order_id", o.ID).Warn("order fill failed")
		}
		if !sleep(ctx, pause) {
			return nil
		}
	}

	filled, err := s.orders.ByStatus(data.StatusFilled)
	if err != nil {
		return errors.Wrap(err, "failed to select filled orders")
	}
	if len(filled) == 0 {
		return nil
	}

	solverCfg := s.cfg.Solver()
	if !solverCfg.AutoFinalize {
		s.log.WithField("count", len(filled)).Debug("filled orders awaiting manual finalization")
		return nil
	}

	for _, o := range filled {
		if time.Since(o.UpdatedAt) < solverCfg.FinalizationDelay {
			continue
		}
		if _, err = s.lifecycle.Finalize(ctx, o.ID); err != nil {
			s.log.WithError(err).WithField("order_id", o.ID).Warn("order finalization failed")
		}
		if !sleep(ctx, pause) {
			return nil
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
