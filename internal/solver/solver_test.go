package solver

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/oif-solver/solver-svc/internal/abidef"
	"github.com/oif-solver/solver-svc/internal/data"
	"github.com/oif-solver/solver-svc/internal/encoding"
	"github.com/oif-solver/solver-svc/internal/execution"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const testSolverAddr = "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"

type fakeEngine struct {
	wallet    common.Address
	sendErr   error
	estimate  uint64
	lastRole  execution.ChainRole
	lastTo    common.Address
	lastData  []byte
	lastGas   execution.GasParams
	lastCtx   execution.Context
	sendCalls int
}

func (f *fakeEngine) SendTransaction(_ context.Context, role execution.ChainRole, to common.Address, callData []byte, gas execution.GasParams, execCtx execution.Context) (execution.Response, error) {
	f.sendCalls++
	f.lastRole, f.lastTo, f.lastData, f.lastGas, f.lastCtx = role, to, callData, gas, execCtx
	if f.sendErr != nil {
		return execution.Response{}, f.sendErr
	}
	return execution.Response{TxHash: "0xconfirmed"}, nil
}

func (f *fakeEngine) StaticCall(context.Context, execution.ChainRole, common.Address, []byte) ([]byte, error) {
	return nil, execution.ErrUnsupported
}

func (f *fakeEngine) EstimateGas(_ context.Context, role execution.ChainRole, to common.Address, callData []byte) (uint64, error) {
	f.lastRole, f.lastTo, f.lastData = role, to, callData
	return f.estimate, nil
}

func (f *fakeEngine) CheckAsyncStatus(context.Context, string) (execution.AsyncStatus, error) {
	return "", execution.ErrUnsupported
}

func (f *fakeEngine) TransactionHash(context.Context, string) (string, error) {
	return "", execution.ErrUnsupported
}

func (f *fakeEngine) WalletAddress() common.Address          { return f.wallet }
func (f *fakeEngine) TransportType() execution.TransportType { return execution.TransportDirect }

func testLog() *logan.Entry {
	return logan.New().Level(logan.FatalLevel)
}

func filledOrder() data.Order {
	hash := "0xfill"
	return data.Order{
		ID: "order-1",
		Order: data.StandardOrder{
			User:          "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266",
			Nonce:         781,
			OriginChainID: 31337,
			Expires:       4294967295,
			FillDeadline:  4294967295,
			LocalOracle:   "0x0165878a594ca255338adfa4d48449f69242eb8f",
			Inputs: []data.Input{{
				TokenID: "232173931049414487598928205764542517475099722052565410375093941968804628563",
				Amount:  "100000000000000000000",
			}},
			Outputs: []data.MandateOutput{{
				RemoteOracle: "0xe7f1725e7734ce288f8367e1bb143e90bb3f0512",
				RemoteFiller: "0x5fbdb2315678afecb367f032d93f642f64180aa3",
				ChainID:      31338,
				Token:        "0x9fe46736679d2d9a65f0992f2272de9f3c7fa6e0",
				Amount:       "99000000000000000000",
				Recipient:    "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266",
			}},
		},
		Signature:  "0xb99e3849171a57335dc3e25bdffb48b778d9d43851a54ff0606af6095f653acb084513b1458f9c36674e0b529b8f4af5882f73324165bd3df91a0e29948f2bf01c",
		Status:     data.StatusFilled,
		FillTxHash: &hash,
	}
}

func newFillOrchestrator(engine *fakeEngine) *FillOrchestrator {
	return NewFillOrchestrator(
		testLog(),
		encoding.NewNative(),
		engine,
		common.HexToAddress("0x5fbdb2315678afecb367f032d93f642f64180aa3"),
		31338,
		execution.GasParams{GasLimit: 360000},
	)
}

func newFinalizationOrchestrator(engine *fakeEngine) *FinalizationOrchestrator {
	return NewFinalizationOrchestrator(
		testLog(),
		encoding.NewNative(),
		engine,
		common.HexToAddress("0x0165878a594ca255338adfa4d48449f69242eb8f"),
		execution.GasParams{GasLimit: 650000},
	)
}

func TestFillRequestFromOrder(t *testing.T) {
	req, err := FillRequestFromOrder(filledOrder())
	require.NoError(t, err)
	assert.Equal(t, "order-1", req.OrderID)
	assert.Equal(t, uint32(4294967295), req.FillDeadline)
	assert.Equal(t, common.HexToAddress("0x9fe46736679d2d9a65f0992f2272de9f3c7fa6e0"), req.Token)
	assert.Equal(t, "99000000000000000000", req.Amount)

	bad := filledOrder()
	bad.Order.Outputs = nil
	_, err = FillRequestFromOrder(bad)
	assert.Equal(t, encoding.ErrNoOutputs, errors.Cause(err))
}

func TestExecuteFillDispatchesOnDestination(t *testing.T) {
	engine := &fakeEngine{wallet: common.HexToAddress(testSolverAddr)}
	o := newFillOrchestrator(engine)

	req, err := FillRequestFromOrder(filledOrder())
	require.NoError(t, err)

	resp, err := o.ExecuteFill(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "0xconfirmed", resp.TxHash)

	assert.Equal(t, execution.ChainDestination, engine.lastRole)
	assert.Equal(t, common.HexToAddress("0x5fbdb2315678afecb367f032d93f642f64180aa3"), engine.lastTo)
	assert.Equal(t, abidef.FillSelector[:], engine.lastData[:4])
	assert.Equal(t, 452, len(engine.lastData))
	assert.Equal(t, uint64(360000), engine.lastGas.GasLimit)
	assert.Equal(t, execution.PriorityHigh, engine.lastCtx.Priority)
}

func TestFillEstimateSharesEncoding(t *testing.T) {
	engine := &fakeEngine{wallet: common.HexToAddress(testSolverAddr), estimate: 123456}
	o := newFillOrchestrator(engine)

	req, err := FillRequestFromOrder(filledOrder())
	require.NoError(t, err)

	gas, err := o.EstimateGas(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, uint64(123456), gas)
	estimated := append([]byte(nil), engine.lastData...)

	_, err = o.ExecuteFill(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, estimated, engine.lastData)
}

func TestValidateFillPreconditions(t *testing.T) {
	now := time.Now()

	assert.NoError(t, ValidateFillPreconditions(filledOrder(), now))

	expired := filledOrder()
	expired.Order.FillDeadline = uint64(now.Add(-time.Hour).Unix())
	err := ValidateFillPreconditions(expired, now)
	assert.Equal(t, ErrFillDeadlinePassed, errors.Cause(err))

	noInputs := filledOrder()
	noInputs.Order.Inputs = nil
	assert.Equal(t, encoding.ErrNoInputs, errors.Cause(ValidateFillPreconditions(noInputs, now)))

	noOutputs := filledOrder()
	noOutputs.Order.Outputs = nil
	assert.Equal(t, encoding.ErrNoOutputs, errors.Cause(ValidateFillPreconditions(noOutputs, now)))

	badAmount := filledOrder()
	badAmount.Order.Outputs[0].Amount = "lots"
	assert.Equal(t, encoding.ErrBadAmount, errors.Cause(ValidateFillPreconditions(badAmount, now)))
}

func TestExecuteFinalizationDispatchesOnOrigin(t *testing.T) {
	engine := &fakeEngine{wallet: common.HexToAddress(testSolverAddr)}
	o := newFinalizationOrchestrator(engine)

	resp, err := o.ExecuteFinalization(context.Background(), filledOrder(), 1752062605)
	require.NoError(t, err)
	assert.Equal(t, "0xconfirmed", resp.TxHash)

	assert.Equal(t, execution.ChainOrigin, engine.lastRole)
	assert.Equal(t, common.HexToAddress("0x0165878a594ca255338adfa4d48449f69242eb8f"), engine.lastTo)
	assert.Equal(t, abidef.FinaliseSelector[:], engine.lastData[:4])
	assert.Equal(t, 1348, len(engine.lastData))
	assert.Equal(t, uint64(650000), engine.lastGas.GasLimit)
	assert.Equal(t, execution.PriorityCritical, engine.lastCtx.Priority)
}

func TestFinalizationRejectsBadSignature(t *testing.T) {
	engine := &fakeEngine{wallet: common.HexToAddress(testSolverAddr)}
	o := newFinalizationOrchestrator(engine)

	bad := filledOrder()
	bad.Signature = "0xdeadbeef"
	_, err := o.ExecuteFinalization(context.Background(), bad, 1752062605)
	assert.Equal(t, encoding.ErrBadSignatureLength, errors.Cause(err))
	assert.Zero(t, engine.sendCalls)
}

func TestFinalizationEstimateSharesEncoding(t *testing.T) {
	engine := &fakeEngine{wallet: common.HexToAddress(testSolverAddr), estimate: 654321}
	o := newFinalizationOrchestrator(engine)

	gas, err := o.EstimateGas(context.Background(), filledOrder(), 1752062605)
	require.NoError(t, err)
	assert.Equal(t, uint64(654321), gas)
	estimated := append([]byte(nil), engine.lastData...)

	_, err = o.ExecuteFinalization(context.Background(), filledOrder(), 1752062605)
	require.NoError(t, err)
	assert.Equal(t, estimated, engine.lastData)
}

func TestValidateFinalizationPreconditions(t *testing.T) {
	now := time.Now()

	assert.NoError(t, ValidateFinalizationPreconditions(filledOrder(), now))

	pending := filledOrder()
	pending.Status = data.StatusPending
	assert.Equal(t, ErrNotFilled, errors.Cause(ValidateFinalizationPreconditions(pending, now)))

	noHash := filledOrder()
	noHash.FillTxHash = nil
	assert.Equal(t, ErrNoFillAttestation, errors.Cause(ValidateFinalizationPreconditions(noHash, now)))

	expired := filledOrder()
	expired.Order.Expires = uint64(now.Add(-time.Minute).Unix())
	assert.Equal(t, ErrOrderExpired, errors.Cause(ValidateFinalizationPreconditions(expired, now)))
}
