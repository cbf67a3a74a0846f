package execution

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type stubEngine struct {
	transport TransportType
}

func (s *stubEngine) SendTransaction(context.Context, ChainRole, common.Address, []byte, GasParams, Context) (Response, error) {
	return Response{}, nil
}
func (s *stubEngine) StaticCall(context.Context, ChainRole, common.Address, []byte) ([]byte, error) {
	return nil, ErrUnsupported
}
func (s *stubEngine) EstimateGas(context.Context, ChainRole, common.Address, []byte) (uint64, error) {
	return 0, ErrUnsupported
}
func (s *stubEngine) CheckAsyncStatus(context.Context, string) (AsyncStatus, error) {
	return "", ErrUnsupported
}
func (s *stubEngine) TransactionHash(context.Context, string) (string, error) {
	return "", ErrUnsupported
}
func (s *stubEngine) WalletAddress() common.Address { return common.Address{} }
func (s *stubEngine) TransportType() TransportType  { return s.transport }

func testLog() *logan.Entry {
	return logan.New().Level(logan.FatalLevel)
}

func TestFactoryAvailability(t *testing.T) {
	f := NewFactory(testLog())
	assert.Empty(t, f.Available())
	assert.False(t, f.IsAvailable(TransportDirect))

	f.Register(TransportDirect, func() (Engine, error) {
		return &stubEngine{transport: TransportDirect}, nil
	})
	assert.True(t, f.IsAvailable(TransportDirect))
	assert.False(t, f.IsAvailable(TransportRelayer))
	assert.Equal(t, []TransportType{TransportDirect}, f.Available())

	_, err := f.Create(TransportRelayer)
	assert.Equal(t, ErrNoTransport, errors.Cause(err))
}

func TestFactoryRecommendations(t *testing.T) {
	f := NewFactory(testLog())
	f.Register(TransportDirect, func() (Engine, error) {
		return &stubEngine{transport: TransportDirect}, nil
	})
	f.Register(TransportRelayer, func() (Engine, error) {
		return &stubEngine{transport: TransportRelayer}, nil
	})

	assert.Equal(t, TransportDirect, f.Recommend(UseCaseLatencyCritical))
	assert.Equal(t, TransportDirect, f.Recommend(UseCaseDevelopment))
	assert.Equal(t, TransportRelayer, f.Recommend(UseCaseCrossChain))
	assert.Equal(t, TransportRelayer, f.Recommend(UseCaseGasOptimized))
	assert.Equal(t, TransportRelayer, f.Recommend(UseCaseProduction))
}

func TestFactoryRecommendFallsBackToAvailable(t *testing.T) {
	f := NewFactory(testLog())
	f.Register(TransportDirect, func() (Engine, error) {
		return &stubEngine{transport: TransportDirect}, nil
	})

	// relayer is preferred for production but not configured
	assert.Equal(t, TransportDirect, f.Recommend(UseCaseProduction))
}

func TestCreateWithFallback(t *testing.T) {
	f := NewFactory(testLog())
	f.Register(TransportRelayer, func() (Engine, error) {
		return nil, errors.New("relayer is down")
	})
	f.Register(TransportDirect, func() (Engine, error) {
		return &stubEngine{transport: TransportDirect}, nil
	})

	engine, err := f.CreateWithFallback(TransportRelayer)
	require.NoError(t, err)
	assert.Equal(t, TransportDirect, engine.TransportType())
}

func TestCreateWithFallbackAllFail(t *testing.T) {
	f := NewFactory(testLog())
	f.Register(TransportRelayer, func() (Engine, error) {
		return nil, errors.New("relayer is down")
	})
	f.Register(TransportDirect, func() (Engine, error) {
		return nil, errors.New("rpc is down")
	})

	_, err := f.CreateWithFallback(TransportRelayer)
	assert.Error(t, err)
}

func TestCreateForUseCase(t *testing.T) {
	f := NewFactory(testLog())
	f.Register(TransportDirect, func() (Engine, error) {
		return &stubEngine{transport: TransportDirect}, nil
	})

	engine, err := f.CreateForUseCase(UseCaseLatencyCritical)
	require.NoError(t, err)
	assert.Equal(t, TransportDirect, engine.TransportType())

	_, err = NewFactory(testLog()).CreateForUseCase(UseCaseProduction)
	assert.Error(t, err)
}
