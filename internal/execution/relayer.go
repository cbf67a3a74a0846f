package execution

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	jsonapi "gitlab.com/distributed_lab/json-api-connector"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const relayerPollPeriod = 5 * time.Second

// relayTxRequest is the relayer submission body.
type relayTxRequest struct {
	To        string `json:"to"`
	Data      string `json:"data"`
	GasLimit  uint64 `json:"gas_limit"`
	GasPrice  string `json:"gas_price,omitempty"`
	Speed     string `json:"speed,omitempty"`
	Value     string `json:"value"`
	IsPrivate bool   `json:"is_private"`
}

type relayTxResponse struct {
	TransactionID string  `json:"transaction_id"`
	Hash          *string `json:"hash"`
	Status        string  `json:"status"`
	BlockNumber   *uint64 `json:"block_number"`
	GasUsed       *uint64 `json:"gas_used"`
	Error         *string `json:"error"`
}

type trackedTx struct {
	remoteID  string
	relayerID string
	status    AsyncStatus
	hash      string
	errMsg    string
}

// RelayerEngine delegates signing and broadcast to an external relayer API.
// Gas introspection is not available through the relayer, so StaticCall and
// EstimateGas return ErrUnsupported.
type RelayerEngine struct {
	log      *logan.Entry
	client   *jsonapi.Connector
	relayers map[ChainRole]string
	wallet   common.Address
	useAsync bool
	timeout  time.Duration

	mu      sync.Mutex
	tracked map[string]trackedTx
}

// NewRelayer wires a relayer transport. relayers maps each chain role to the
// relayer id serving that chain; wallet is the relayer-managed signer.
func NewRelayer(log *logan.Entry, client *jsonapi.Connector, relayers map[ChainRole]string, wallet common.Address, useAsync bool, timeout time.Duration) *RelayerEngine {
	return &RelayerEngine{
		log:      log.WithField("transport", TransportRelayer),
		client:   client,
		relayers: relayers,
		wallet:   wallet,
		useAsync: useAsync,
		timeout:  timeout,
		tracked:  make(map[string]trackedTx),
	}
}

func (e *RelayerEngine) TransportType() TransportType {
	return TransportRelayer
}

func (e *RelayerEngine) WalletAddress() common.Address {
	return e.wallet
}

func (e *RelayerEngine) relayer(role ChainRole) (string, error) {
	id, ok := e.relayers[role]
	if !ok {
		return "", errors.From(ErrUnknownChainRole, logan.F{"role": role})
	}
	return id, nil
}

// priorityToSpeed maps execution priorities onto relayer speed classes.
func priorityToSpeed(p Priority) string {
	switch p {
	case PriorityCritical:
		return "fastest"
	case PriorityHigh:
		return "fast"
	case PriorityLow:
		return "safest"
	default:
		return "average"
	}
}

// mapRelayerStatus folds remote status strings onto the AsyncStatus machine.
func mapRelayerStatus(remote string) AsyncStatus {
	switch strings.ToLower(remote) {
	case "pending", "queued":
		return AsyncQueued
	case "processing", "sent":
		return AsyncProcessing
	case "submitted":
		return AsyncSubmitted
	case "mined", "confirmed":
		return AsyncConfirmed
	case "failed", "error", "canceled":
		return AsyncFailed
	default:
		return AsyncQueued
	}
}

func (e *RelayerEngine) SendTransaction(ctx context.Context, role ChainRole, to common.Address, callData []byte, gas GasParams, execCtx Context) (Response, error) {
	relayerID, err := e.relayer(role)
	if err != nil {
		return Response{}, err
	}

	body := relayTxRequest{
		To:        strings.ToLower(to.Hex()),
		Data:      hexutil.Encode(callData),
		GasLimit:  gas.GasLimit,
		Speed:     priorityToSpeed(execCtx.Priority),
		Value:     "0",
		IsPrivate: false,
	}
	if gas.GasPrice != nil {
		body.GasPrice = gas.GasPrice.String()
	}

	log := e.log.WithFields(logan.F{"chain_role": role, "relayer_id": relayerID, "to": body.To})
	log.Info("submitting transaction to relayer")

	var resp relayTxResponse
	u, _ := url.Parse("relayers/" + relayerID + "/transactions")
	if err = e.client.PostJSON(u, body, ctx, &resp); err != nil {
		return Response{}, errors.Wrap(err, "failed to submit transaction to relayer")
	}

	trackingID := execCtx.TrackingID
	if trackingID == "" {
		trackingID = uuid.New().String()
	}
	e.record(trackingID, trackedTx{
		remoteID:  resp.TransactionID,
		relayerID: relayerID,
		status:    mapRelayerStatus(resp.Status),
		hash:      deref(resp.Hash),
	})

	if e.useAsync {
		log.WithField("tracking_id", trackingID).Info("relayer accepted transaction, tracking asynchronously")
		return Response{Async: true, TrackingID: trackingID}, nil
	}

	hash, err := e.waitConfirmed(ctx, trackingID, execCtx.Timeout)
	if err != nil {
		return Response{}, err
	}
	return Response{TxHash: hash, TrackingID: trackingID}, nil
}

func (e *RelayerEngine) waitConfirmed(ctx context.Context, trackingID string, timeout time.Duration) (string, error) {
	if timeout == 0 {
		timeout = e.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	t := time.NewTicker(relayerPollPeriod)
	defer t.Stop()

	for {
		status, err := e.CheckAsyncStatus(ctx, trackingID)
		if err != nil {
			return "", err
		}
		switch status {
		case AsyncConfirmed:
			tx, _ := e.lookup(trackingID)
			return tx.hash, nil
		case AsyncFailed:
			tx, _ := e.lookup(trackingID)
			return "", errors.From(ErrReverted, logan.F{"relayer_error": tx.errMsg})
		}

		select {
		case <-ctx.Done():
			return "", errors.From(ErrTimeout, logan.F{"tracking_id": trackingID})
		case <-t.C:
		}
	}
}

// CheckAsyncStatus refreshes the submission state from the relayer. Terminal
// states are served from the local cache without a network round trip.
func (e *RelayerEngine) CheckAsyncStatus(ctx context.Context, trackingID string) (AsyncStatus, error) {
	tx, ok := e.lookup(trackingID)
	if !ok {
		return "", errors.From(ErrUnknownTracking, logan.F{"tracking_id": trackingID})
	}
	if tx.status.Terminal() {
		return tx.status, nil
	}

	var resp relayTxResponse
	u, _ := url.Parse("relayers/" + tx.relayerID + "/transactions/" + tx.remoteID)
	if err := e.client.Get(u, &resp); err != nil {
		return "", errors.Wrap(err, "failed to get transaction status from relayer")
	}

	tx.status = mapRelayerStatus(resp.Status)
	if resp.Hash != nil {
		tx.hash = *resp.Hash
	}
	if resp.Error != nil {
		tx.errMsg = *resp.Error
	}
	e.record(trackingID, tx)
	return tx.status, nil
}

func (e *RelayerEngine) TransactionHash(ctx context.Context, trackingID string) (string, error) {
	if _, err := e.CheckAsyncStatus(ctx, trackingID); err != nil {
		return "", err
	}
	tx, _ := e.lookup(trackingID)
	return tx.hash, nil
}

// StaticCall is unavailable: the relayer API exposes no read path.
func (e *RelayerEngine) StaticCall(context.Context, ChainRole, common.Address, []byte) ([]byte, error) {
	return nil, ErrUnsupported
}

func (e *RelayerEngine) EstimateGas(context.Context, ChainRole, common.Address, []byte) (uint64, error) {
	return 0, ErrUnsupported
}

func (e *RelayerEngine) record(trackingID string, tx trackedTx) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracked[trackingID] = tx
}

func (e *RelayerEngine) lookup(trackingID string) (trackedTx, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tx, ok := e.tracked[trackingID]
	return tx, ok
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
