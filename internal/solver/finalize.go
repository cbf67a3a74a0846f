package solver

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/oif-solver/solver-svc/internal/data"
	"github.com/oif-solver/solver-svc/internal/encoding"
	"github.com/oif-solver/solver-svc/internal/execution"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// FinalizationOrchestrator encodes and submits SettlerCompact.finalise calls
// on the origin chain.
type FinalizationOrchestrator struct {
	log     *logan.Entry
	encoder encoding.CallDataEncoder
	engine  execution.Engine
	settler common.Address
	gas     execution.GasParams
}

func NewFinalizationOrchestrator(log *logan.Entry, encoder encoding.CallDataEncoder, engine execution.Engine, settler common.Address, gas execution.GasParams) *FinalizationOrchestrator {
	return &FinalizationOrchestrator{
		log:     log.WithField("orchestrator", "finalization"),
		encoder: encoder,
		engine:  engine,
		settler: settler,
		gas:     gas,
	}
}

// ValidateFinalizationPreconditions rejects orders that are not settleable:
// not yet filled, missing the fill attestation, or already expired.
func ValidateFinalizationPreconditions(o data.Order, now time.Time) error {
	if o.Status != data.StatusFilled {
		return errors.From(ErrNotFilled, logan.F{"status": o.Status})
	}
	if o.FillTxHash == nil || *o.FillTxHash == "" {
		return ErrNoFillAttestation
	}
	if o.Order.Expires <= uint64(now.Unix()) {
		return errors.From(ErrOrderExpired, logan.F{"expires": o.Order.Expires})
	}
	return nil
}

func (o *FinalizationOrchestrator) encode(order data.Order, fillTimestamp uint32) ([]byte, error) {
	params, err := encoding.FinaliseParamsFromOrder(order, o.engine.WalletAddress(), fillTimestamp)
	if err != nil {
		return nil, errors.Wrap(err, "order is not finalizable")
	}
	callData, err := o.encoder.EncodeFinaliseCall(params)
	return callData, errors.Wrap(err, "failed to encode finalise call")
}

// ExecuteFinalization settles a filled order on the origin chain. The fill
// attestation timestamp is when the output leg was delivered.
func (o *FinalizationOrchestrator) ExecuteFinalization(ctx context.Context, order data.Order, fillTimestamp uint32) (execution.Response, error) {
	callData, err := o.encode(order, fillTimestamp)
	if err != nil {
		return execution.Response{}, err
	}

	log := o.log.WithFields(logan.F{"order_id": order.ID, "call_data_len": len(callData)})
	log.Info("submitting finalization")

	resp, err := o.engine.SendTransaction(ctx, execution.ChainOrigin, o.settler, callData, o.gas, execution.Context{
		Priority:   execution.PriorityCritical,
		TrackingID: order.ID,
	})
	if err != nil {
		return execution.Response{}, errors.Wrap(err, "finalization submission failed")
	}

	log.WithFields(logan.F{"tx_hash": resp.TxHash, "async": resp.Async}).Info("finalization submitted")
	return resp, nil
}

// EstimateGas shares ExecuteFinalization's encoding path.
func (o *FinalizationOrchestrator) EstimateGas(ctx context.Context, order data.Order, fillTimestamp uint32) (uint64, error) {
	callData, err := o.encode(order, fillTimestamp)
	if err != nil {
		return 0, err
	}
	return o.engine.EstimateGas(ctx, execution.ChainOrigin, o.settler, callData)
}
