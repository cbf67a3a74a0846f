package data

import (
	"encoding/json"
	"time"

	"gitlab.com/distributed_lab/logan/v3/errors"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrOrderExists   = errors.New("order already exists")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusFilled     Status = "filled"
	StatusFinalizing Status = "finalizing"
	StatusFinalized  Status = "finalized"
	StatusFailed     Status = "failed"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusFilled, StatusFailed},
	StatusFilled:     {StatusFinalizing, StatusFailed},
	StatusFinalizing: {StatusFinalized, StatusFailed},
	StatusFinalized:  {},
	StatusFailed:     {},
}

func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Input is a (tokenId, amount) pair; both are decimal strings and
// serialize as a two-element JSON array.
type Input struct {
	TokenID string
	Amount  string
}

func (i Input) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{i.TokenID, i.Amount})
}

func (i *Input) UnmarshalJSON(b []byte) error {
	var pair [2]string
	if err := json.Unmarshal(b, &pair); err != nil {
		return errors.Wrap(err, "input must be a [tokenId, amount] pair")
	}
	i.TokenID, i.Amount = pair[0], pair[1]
	return nil
}

// MandateOutput describes one leg to be delivered on the destination chain.
// Address-like fields hold 0x-hex of either 20 or 32 bytes; 20-byte values
// are left-padded to bytes32 on the wire.
type MandateOutput struct {
	RemoteOracle       string `json:"remoteOracle"`
	RemoteFiller       string `json:"remoteFiller"`
	ChainID            uint64 `json:"chainId"`
	Token              string `json:"token"`
	Amount             string `json:"amount"`
	Recipient          string `json:"recipient"`
	RemoteCall         string `json:"remoteCall,omitempty"`
	FulfillmentContext string `json:"fulfillmentContext,omitempty"`
}

type StandardOrder struct {
	User          string          `json:"user"`
	Nonce         uint64          `json:"nonce"`
	OriginChainID uint64          `json:"originChainId"`
	Expires       uint64          `json:"expires"`
	FillDeadline  uint64          `json:"fillDeadline"`
	LocalOracle   string          `json:"localOracle"`
	Inputs        []Input         `json:"inputs"`
	Outputs       []MandateOutput `json:"outputs"`
}

// Order wraps a signed StandardOrder with its queue lifecycle state.
type Order struct {
	ID             string        `json:"id"`
	Order          StandardOrder `json:"order"`
	Signature      string        `json:"signature"`
	Status         Status        `json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
	FillTxHash     *string       `json:"fillTxHash,omitempty"`
	FinalizeTxHash *string       `json:"finalizeTxHash,omitempty"`
	ErrorMessage   *string       `json:"errorMessage,omitempty"`
}

// QueueStats aggregates order counts by lifecycle state; finalizing orders
// count as processing.
type QueueStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Filled     int `json:"filled"`
	Finalized  int `json:"finalized"`
	Failed     int `json:"failed"`
}

type Orders interface {
	Insert(o Order) error
	Get(id string) (*Order, error)
	// Transition applies fn to the stored order under the store lock, so a
	// status check and the subsequent write form one critical section. An
	// error from fn aborts the update and is returned as is.
	Transition(id string, fn func(o *Order) error) (*Order, error)
	ByStatus(statuses ...Status) ([]Order, error)
	All() ([]Order, error)
	Stats() (QueueStats, error)
}
