// Package solver turns queued orders into chain submissions: the fill
// orchestrator delivers the output leg on the destination chain, the
// finalization orchestrator settles the order on the origin chain.
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

var (
	ErrFillDeadlinePassed = errors.New("fill deadline has passed")
	ErrNotFilled          = errors.New("order is not in filled state")
	ErrOrderExpired       = errors.New("order has expired")
	ErrNoFillAttestation  = errors.New("order has no fill transaction hash")
)

// FillOrchestrator encodes and submits CoinFiller.fill calls on the
// destination chain.
type FillOrchestrator struct {
	log         *logan.Entry
	encoder     encoding.CallDataEncoder
	engine      execution.Engine
	coinFiller  common.Address
	destChainID uint64
	gas         execution.GasParams
}

func NewFillOrchestrator(log *logan.Entry, encoder encoding.CallDataEncoder, engine execution.Engine, coinFiller common.Address, destChainID uint64, gas execution.GasParams) *FillOrchestrator {
	return &FillOrchestrator{
		log:         log.WithField("orchestrator", "fill"),
		encoder:     encoder,
		engine:      engine,
		coinFiller:  coinFiller,
		destChainID: destChainID,
		gas:         gas,
	}
}

// FillRequestFromOrder builds a fill request for the order's first output
// leg; orders carry exactly one destination leg.
func FillRequestFromOrder(o data.Order) (encoding.FillRequest, error) {
	if len(o.Order.Outputs) == 0 {
		return encoding.FillRequest{}, encoding.ErrNoOutputs
	}
	out := o.Order.Outputs[0]

	remoteOracle, err := encoding.AddressFromHex(out.RemoteOracle)
	if err != nil {
		return encoding.FillRequest{}, errors.Wrap(err, "invalid remoteOracle")
	}
	token, err := encoding.AddressFromHex(out.Token)
	if err != nil {
		return encoding.FillRequest{}, errors.Wrap(err, "invalid token")
	}
	recipient, err := encoding.AddressFromHex(out.Recipient)
	if err != nil {
		return encoding.FillRequest{}, errors.Wrap(err, "invalid recipient")
	}

	return encoding.FillRequest{
		OrderID:      o.ID,
		FillDeadline: encoding.ClampUint32(o.Order.FillDeadline),
		RemoteOracle: remoteOracle,
		Token:        token,
		Amount:       out.Amount,
		Recipient:    recipient,
	}, nil
}

// ValidateFillPreconditions rejects orders that cannot be filled without
// touching the network: past deadline, missing legs, unparsable amounts.
func ValidateFillPreconditions(o data.Order, now time.Time) error {
	if len(o.Order.Inputs) == 0 {
		return encoding.ErrNoInputs
	}
	if len(o.Order.Outputs) == 0 {
		return encoding.ErrNoOutputs
	}
	if o.Order.FillDeadline <= uint64(now.Unix()) {
		return errors.From(ErrFillDeadlinePassed, logan.F{"fill_deadline": o.Order.FillDeadline})
	}
	for _, in := range o.Order.Inputs {
		if _, err := encoding.ParseAmount(in.Amount); err != nil {
			return errors.Wrap(err, "invalid input amount")
		}
	}
	for _, out := range o.Order.Outputs {
		if _, err := encoding.ParseAmount(out.Amount); err != nil {
			return errors.Wrap(err, "invalid output amount")
		}
	}
	return nil
}

func (o *FillOrchestrator) encode(req encoding.FillRequest) ([]byte, error) {
	callData, err := o.encoder.EncodeCompleteFillCall(req, o.coinFiller, o.destChainID, o.engine.WalletAddress())
	return callData, errors.Wrap(err, "failed to encode fill call")
}

// ExecuteFill submits the fill on the destination chain and returns the
// confirmed transaction hash, or the tracking id of an async submission.
func (o *FillOrchestrator) ExecuteFill(ctx context.Context, req encoding.FillRequest) (execution.Response, error) {
	callData, err := o.encode(req)
	if err != nil {
		return execution.Response{}, err
	}

	log := o.log.WithFields(logan.F{"order_id": req.OrderID, "call_data_len": len(callData)})
	log.Info("submitting fill")

	resp, err := o.engine.SendTransaction(ctx, execution.ChainDestination, o.coinFiller, callData, o.gas, execution.Context{
		Priority:   execution.PriorityHigh,
		TrackingID: req.OrderID,
	})
	if err != nil {
		return execution.Response{}, errors.Wrap(err, "fill submission failed")
	}

	log.WithFields(logan.F{"tx_hash": resp.TxHash, "async": resp.Async}).Info("fill submitted")
	return resp, nil
}

// EstimateGas shares ExecuteFill's encoding path so the estimate always
// covers the exact bytes that would be submitted.
func (o *FillOrchestrator) EstimateGas(ctx context.Context, req encoding.FillRequest) (uint64, error) {
	callData, err := o.encode(req)
	if err != nil {
		return 0, err
	}
	return o.engine.EstimateGas(ctx, execution.ChainDestination, o.coinFiller, callData)
}
