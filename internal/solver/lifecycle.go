package solver

import (
	"context"
	"time"

	"github.com/oif-solver/solver-svc/internal/data"
	"github.com/oif-solver/solver-svc/internal/encoding"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

var (
	ErrAlreadyFinalizing = errors.New("order finalization is already in progress")
	ErrNotClaimable      = errors.New("order is not claimable")
)

// Lifecycle drives orders through the queue state machine. Every status
// change goes through the store's Transition, so concurrent passes and HTTP
// triggers never double-submit the same order.
type Lifecycle struct {
	log      *logan.Entry
	orders   data.Orders
	fill     *FillOrchestrator
	finalize *FinalizationOrchestrator
}

func NewLifecycle(log *logan.Entry, orders data.Orders, fill *FillOrchestrator, finalize *FinalizationOrchestrator) *Lifecycle {
	return &Lifecycle{
		log:      log.WithField("component", "lifecycle"),
		orders:   orders,
		fill:     fill,
		finalize: finalize,
	}
}

// ProcessPending claims a pending order and fills it on the destination
// chain. Orders that fail precondition checks are marked failed without
// touching the network.
func (l *Lifecycle) ProcessPending(ctx context.Context, id string) (*data.Order, error) {
	claimed, err := l.orders.Transition(id, func(o *data.Order) error {
		if o.Status != data.StatusPending {
			return errors.From(ErrNotClaimable, logan.F{"status": o.Status})
		}
		o.Status = data.StatusProcessing
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err = ValidateFillPreconditions(*claimed, time.Now()); err != nil {
		l.failOrder(id, err)
		return nil, errors.Wrap(err, "order rejected before submission")
	}
	req, err := FillRequestFromOrder(*claimed)
	if err != nil {
		l.failOrder(id, err)
		return nil, errors.Wrap(err, "order rejected before submission")
	}

	resp, err := l.fill.ExecuteFill(ctx, req)
	if err != nil {
		l.failOrder(id, err)
		return nil, err
	}

	txHash := resp.TxHash
	if txHash == "" {
		txHash = resp.TrackingID
	}
	filled, err := l.orders.Transition(id, func(o *data.Order) error {
		o.Status = data.StatusFilled
		o.FillTxHash = &txHash
		return nil
	})
	return filled, errors.Wrap(err, "failed to mark order filled")
}

// Finalize claims a filled order and settles it on the origin chain. A
// second concurrent trigger gets ErrAlreadyFinalizing instead of a second
// submission.
func (l *Lifecycle) Finalize(ctx context.Context, id string) (*data.Order, error) {
	var filledAt time.Time
	claimed, err := l.orders.Transition(id, func(o *data.Order) error {
		if o.Status == data.StatusFinalizing {
			return ErrAlreadyFinalizing
		}
		if err := ValidateFinalizationPreconditions(*o, time.Now()); err != nil {
			return err
		}
		filledAt = o.UpdatedAt
		o.Status = data.StatusFinalizing
		return nil
	})
	if err != nil {
		return nil, err
	}

	fillTimestamp := encoding.ClampUint32(uint64(filledAt.Unix()))
	resp, err := l.finalize.ExecuteFinalization(ctx, *claimed, fillTimestamp)
	if err != nil {
		l.failOrder(id, err)
		return nil, err
	}

	txHash := resp.TxHash
	if txHash == "" {
		txHash = resp.TrackingID
	}
	final, err := l.orders.Transition(id, func(o *data.Order) error {
		o.Status = data.StatusFinalized
		o.FinalizeTxHash = &txHash
		return nil
	})
	return final, errors.Wrap(err, "failed to mark order finalized")
}

func (l *Lifecycle) failOrder(id string, cause error) {
	msg := cause.Error()
	_, err := l.orders.Transition(id, func(o *data.Order) error {
		if !o.Status.CanTransition(data.StatusFailed) {
			return errors.From(ErrNotClaimable, logan.F{"status": o.Status})
		}
		o.Status = data.StatusFailed
		o.ErrorMessage = &msg
		return nil
	})
	if err != nil {
		l.log.WithError(err).WithField("order_id", id).Error("failed to mark order failed")
	}
}
