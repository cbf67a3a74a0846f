// Package encoding produces the byte-exact call data for SettlerCompact
// finalise and CoinFiller fill submissions. Two interchangeable encoders are
// provided: a native one built on go-ethereum's ABI packer and a
// cross-validation one that shells out to foundry's cast.
package encoding

import (
	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

var (
	// ErrEncoderUnavailable means the encoder's backing tooling is missing,
	// not that the input is bad.
	ErrEncoderUnavailable = errors.New("encoder is not available")
	// ErrUnsupported means this encoder does not implement the operation.
	ErrUnsupported = errors.New("operation is not supported by this encoder")

	ErrBadSignatureLength = errors.New("signature must be exactly 65 bytes")
	ErrBadAmount          = errors.New("amount must be an unsigned 256-bit decimal")
	ErrNoInputs           = errors.New("order has no inputs")
	ErrNoOutputs          = errors.New("order has no outputs")
)

// FillRequest carries the minimal data the solver needs to fill one output
// leg on the destination chain.
type FillRequest struct {
	OrderID      string
	FillDeadline uint32
	RemoteOracle common.Address
	Token        common.Address
	Amount       string
	Recipient    common.Address
}

// MandateOutputParams is the wire form of one output leg. Byte-slice fields
// are never nil: an absent payload encodes as zero-length bytes.
type MandateOutputParams struct {
	RemoteOracle       [32]byte
	RemoteFiller       [32]byte
	ChainID            uint64
	Token              [32]byte
	Amount             string
	Recipient          [32]byte
	RemoteCall         []byte
	FulfillmentContext []byte
}

// StandardOrderParams is the wire form of the signed order tuple.
type StandardOrderParams struct {
	User          common.Address
	Nonce         uint64
	OriginChainID uint64
	Expires       uint32
	FillDeadline  uint32
	LocalOracle   common.Address
	Inputs        [][2]string // (tokenId, amount) decimal pairs
	Outputs       []MandateOutputParams
}

// FinaliseParams is everything the finalise call takes. SponsorSig and
// AllocatorSig are ABI-encoded together as a (bytes,bytes) blob and passed
// through the single signatures parameter.
type FinaliseParams struct {
	Order        StandardOrderParams
	SponsorSig   []byte
	AllocatorSig []byte
	Timestamps   []uint32
	Solvers      [][32]byte
	Destination  [32]byte
	Calls        []byte
}

// CallDataEncoder renders finalise and fill call data. Implementations must
// be deterministic and byte-compatible with each other.
type CallDataEncoder interface {
	EncodeFinaliseCall(params FinaliseParams) ([]byte, error)
	EncodeFillCall(req FillRequest) ([]byte, error)
	// EncodeCompleteFillCall produces submission-ready fill call data with
	// the filler contract, destination chain and proposed solver resolved.
	EncodeCompleteFillCall(req FillRequest, coinFiller common.Address, destChainID uint64, solver common.Address) ([]byte, error)
	FinaliseSelector() [4]byte
	FillSelector() [4]byte
	Description() string
}
