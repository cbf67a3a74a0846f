// Package execution submits prepared call data to chains through
// interchangeable transports: a direct RPC engine that signs locally, and a
// relayer engine that delegates signing and broadcast to an external relayer
// API.
package execution

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

var (
	// ErrReverted means the transaction was mined and failed on-chain; it is
	// never returned for transport problems.
	ErrReverted = errors.New("transaction reverted on-chain")
	// ErrTimeout means the confirmation wait ran out; the transaction may
	// still land later since broadcast transactions are never cancelled.
	ErrTimeout = errors.New("timed out waiting for transaction confirmation")
	// ErrUnsupported marks operations a transport cannot perform.
	ErrUnsupported = errors.New("operation is not supported by this transport")

	ErrUnknownChainRole = errors.New("unknown chain role")
	ErrUnknownTracking  = errors.New("unknown tracking id")
)

// ChainRole selects the chain of an operation. Transports resolve endpoints
// by role, never by raw chain id.
type ChainRole string

const (
	ChainOrigin      ChainRole = "origin"
	ChainDestination ChainRole = "destination"
)

type TransportType string

const (
	TransportDirect  TransportType = "direct"
	TransportRelayer TransportType = "relayer"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// GasParams pins the gas settings of a submission. Zero values mean the
// transport picks its own.
type GasParams struct {
	GasLimit uint64
	GasPrice *big.Int
}

// Context carries per-submission execution hints.
type Context struct {
	Priority   Priority
	Timeout    time.Duration
	TrackingID string
	Tags       map[string]string
}

// Response is the result of a submission: either a confirmed transaction
// hash, or a tracking id of an asynchronous relayer submission.
type Response struct {
	TxHash     string
	Async      bool
	TrackingID string
}

// AsyncStatus is the lifecycle of a relayer-tracked submission.
type AsyncStatus string

const (
	AsyncQueued     AsyncStatus = "queued"
	AsyncProcessing AsyncStatus = "processing"
	AsyncSubmitted  AsyncStatus = "submitted"
	AsyncConfirmed  AsyncStatus = "confirmed"
	AsyncFailed     AsyncStatus = "failed"
)

func (s AsyncStatus) Terminal() bool {
	return s == AsyncConfirmed || s == AsyncFailed
}

// Engine is one execution transport. Implementations must keep revert,
// timeout and transport failures distinguishable through ErrReverted and
// ErrTimeout.
type Engine interface {
	// SendTransaction submits call data on the chain the role resolves to.
	// Cancelling ctx stops waiting for a result, not the transaction itself.
	SendTransaction(ctx context.Context, role ChainRole, to common.Address, callData []byte, gas GasParams, execCtx Context) (Response, error)
	StaticCall(ctx context.Context, role ChainRole, to common.Address, callData []byte) ([]byte, error)
	EstimateGas(ctx context.Context, role ChainRole, to common.Address, callData []byte) (uint64, error)
	CheckAsyncStatus(ctx context.Context, trackingID string) (AsyncStatus, error)
	TransactionHash(ctx context.Context, trackingID string) (string, error)
	WalletAddress() common.Address
	TransportType() TransportType
}
