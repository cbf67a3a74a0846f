package encoding

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/oif-solver/solver-svc/internal/abidef"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// orderTuple and outputTuple mirror the ABI component names; the packer
// matches struct fields by capitalized component name.
type outputTuple struct {
	RemoteOracle       [32]byte
	RemoteFiller       [32]byte
	ChainId            *big.Int
	Token              [32]byte
	Amount             *big.Int
	Recipient          [32]byte
	RemoteCall         []byte
	FulfillmentContext []byte
}

type orderTuple struct {
	User          common.Address
	Nonce         *big.Int
	OriginChainId *big.Int
	Expires       uint32
	FillDeadline  uint32
	LocalOracle   common.Address
	Inputs        [][2]*big.Int
	Outputs       []outputTuple
}

var outputComponents = []abi.ArgumentMarshaling{
	{Name: "remoteOracle", Type: "bytes32"},
	{Name: "remoteFiller", Type: "bytes32"},
	{Name: "chainId", Type: "uint256"},
	{Name: "token", Type: "bytes32"},
	{Name: "amount", Type: "uint256"},
	{Name: "recipient", Type: "bytes32"},
	{Name: "remoteCall", Type: "bytes"},
	{Name: "fulfillmentContext", Type: "bytes"},
}

var (
	orderType = mustNewType("tuple", []abi.ArgumentMarshaling{
		{Name: "user", Type: "address"},
		{Name: "nonce", Type: "uint256"},
		{Name: "originChainId", Type: "uint256"},
		{Name: "expires", Type: "uint32"},
		{Name: "fillDeadline", Type: "uint32"},
		{Name: "localOracle", Type: "address"},
		{Name: "inputs", Type: "uint256[2][]"},
		{Name: "outputs", Type: "tuple[]", Components: outputComponents},
	})
	outputType     = mustNewType("tuple", outputComponents)
	bytesType      = mustNewType("bytes", nil)
	bytes32Type    = mustNewType("bytes32", nil)
	bytes32ArrType = mustNewType("bytes32[]", nil)
	uint32Type     = mustNewType("uint32", nil)
	uint32ArrType  = mustNewType("uint32[]", nil)

	finaliseArgs = abi.Arguments{
		{Type: orderType},
		{Type: bytesType},
		{Type: uint32ArrType},
		{Type: bytes32ArrType},
		{Type: bytes32Type},
		{Type: bytesType},
	}
	fillArgs = abi.Arguments{
		{Type: uint32Type},
		{Type: bytes32Type},
		{Type: outputType},
		{Type: bytes32Type},
	}
	signaturePairArgs = abi.Arguments{
		{Type: bytesType},
		{Type: bytesType},
	}
)

func mustNewType(t string, components []abi.ArgumentMarshaling) abi.Type {
	typ, err := abi.NewType(t, "", components)
	if err != nil {
		panic(errors.Wrap(err, "failed to construct ABI type "+t))
	}
	return typ
}

// NativeEncoder packs call data in-process with go-ethereum's ABI encoder.
// It is the production default.
type NativeEncoder struct{}

func NewNative() *NativeEncoder {
	return &NativeEncoder{}
}

func (e *NativeEncoder) Description() string {
	return "native: in-process go-ethereum ABI packing"
}

func (e *NativeEncoder) FinaliseSelector() [4]byte {
	return abidef.FinaliseSelector
}

func (e *NativeEncoder) FillSelector() [4]byte {
	return abidef.FillSelector
}

// EncodeSignaturesBlob ABI-encodes (sponsorSig, allocatorSig) as a
// (bytes,bytes) pair; the blob travels through finalise's single signatures
// parameter.
func EncodeSignaturesBlob(sponsorSig, allocatorSig []byte) ([]byte, error) {
	if sponsorSig == nil {
		sponsorSig = []byte{}
	}
	if allocatorSig == nil {
		allocatorSig = []byte{}
	}
	blob, err := signaturePairArgs.Pack(sponsorSig, allocatorSig)
	return blob, errors.Wrap(err, "failed to pack signatures pair")
}

func (e *NativeEncoder) EncodeFinaliseCall(p FinaliseParams) ([]byte, error) {
	order, err := paramsToOrderTuple(p.Order)
	if err != nil {
		return nil, err
	}
	signatures, err := EncodeSignaturesBlob(p.SponsorSig, p.AllocatorSig)
	if err != nil {
		return nil, err
	}

	timestamps := p.Timestamps
	if timestamps == nil {
		timestamps = []uint32{}
	}
	solvers := p.Solvers
	if solvers == nil {
		solvers = [][32]byte{}
	}
	calls := p.Calls
	if calls == nil {
		calls = []byte{}
	}

	packed, err := finaliseArgs.Pack(order, signatures, timestamps, solvers, p.Destination, calls)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack finalise arguments")
	}
	return withSelector(abidef.FinaliseSelector, packed), nil
}

func (e *NativeEncoder) EncodeFillCall(req FillRequest) ([]byte, error) {
	// filler, chain id and solver are unresolved here; the orchestrator uses
	// EncodeCompleteFillCall for submission-ready call data
	return e.encodeFill(req, [32]byte{}, 0, [32]byte{})
}

func (e *NativeEncoder) EncodeCompleteFillCall(req FillRequest, coinFiller common.Address, destChainID uint64, solver common.Address) ([]byte, error) {
	return e.encodeFill(req, AddressToBytes32(coinFiller), destChainID, AddressToBytes32(solver))
}

func (e *NativeEncoder) encodeFill(req FillRequest, remoteFiller [32]byte, chainID uint64, proposedSolver [32]byte) ([]byte, error) {
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	output := outputTuple{
		RemoteOracle:       AddressToBytes32(req.RemoteOracle),
		RemoteFiller:       remoteFiller,
		ChainId:            new(big.Int).SetUint64(chainID),
		Token:              AddressToBytes32(req.Token),
		Amount:             amount,
		Recipient:          AddressToBytes32(req.Recipient),
		RemoteCall:         []byte{},
		FulfillmentContext: []byte{},
	}

	packed, err := fillArgs.Pack(req.FillDeadline, OrderIDToBytes32(req.OrderID), output, proposedSolver)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack fill arguments")
	}
	return withSelector(abidef.FillSelector, packed), nil
}

func paramsToOrderTuple(p StandardOrderParams) (orderTuple, error) {
	inputs := make([][2]*big.Int, 0, len(p.Inputs))
	for _, pair := range p.Inputs {
		tokenID, err := ParseAmount(pair[0])
		if err != nil {
			return orderTuple{}, errors.Wrap(err, "invalid input tokenId")
		}
		amount, err := ParseAmount(pair[1])
		if err != nil {
			return orderTuple{}, errors.Wrap(err, "invalid input amount")
		}
		inputs = append(inputs, [2]*big.Int{tokenID, amount})
	}

	outputs := make([]outputTuple, 0, len(p.Outputs))
	for _, o := range p.Outputs {
		amount, err := ParseAmount(o.Amount)
		if err != nil {
			return orderTuple{}, errors.Wrap(err, "invalid output amount")
		}
		remoteCall := o.RemoteCall
		if remoteCall == nil {
			remoteCall = []byte{}
		}
		fulfillmentContext := o.FulfillmentContext
		if fulfillmentContext == nil {
			fulfillmentContext = []byte{}
		}
		outputs = append(outputs, outputTuple{
			RemoteOracle:       o.RemoteOracle,
			RemoteFiller:       o.RemoteFiller,
			ChainId:            new(big.Int).SetUint64(o.ChainID),
			Token:              o.Token,
			Amount:             amount,
			Recipient:          o.Recipient,
			RemoteCall:         remoteCall,
			FulfillmentContext: fulfillmentContext,
		})
	}

	return orderTuple{
		User:          p.User,
		Nonce:         new(big.Int).SetUint64(p.Nonce),
		OriginChainId: new(big.Int).SetUint64(p.OriginChainID),
		Expires:       p.Expires,
		FillDeadline:  p.FillDeadline,
		LocalOracle:   p.LocalOracle,
		Inputs:        inputs,
		Outputs:       outputs,
	}, nil
}

func withSelector(selector [4]byte, packed []byte) []byte {
	out := make([]byte, 0, 4+len(packed))
	out = append(out, selector[:]...)
	return append(out, packed...)
}
