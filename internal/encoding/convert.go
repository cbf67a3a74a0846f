package encoding

import (
	"encoding/hex"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/oif-solver/solver-svc/internal/data"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// AddressToBytes32 left-pads a 20-byte address into a bytes32 word.
func AddressToBytes32(a common.Address) [32]byte {
	var b [32]byte
	copy(b[12:], a.Bytes())
	return b
}

// HexToBytes32 accepts 0x-hex of up to 32 bytes and left-pads it. Address
// fields of incoming orders arrive as either 20- or 32-byte hex.
func HexToBytes32(s string) ([32]byte, error) {
	var b [32]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return b, errors.Wrap(err, "invalid hex value")
	}
	if len(raw) > 32 {
		return b, errors.Errorf("value of %d bytes does not fit bytes32", len(raw))
	}
	copy(b[32-len(raw):], raw)
	return b, nil
}

// AddressFromHex extracts the 20-byte address from 0x-hex of either an
// address or a left-padded bytes32 word.
func AddressFromHex(s string) (common.Address, error) {
	b, err := HexToBytes32(s)
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(b[12:]), nil
}

// ParseAmount parses a decimal string into an unsigned 256-bit integer.
// Unparsable or negative values are hard errors, never silently zero.
func ParseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.From(ErrBadAmount, map[string]interface{}{"amount": s})
	}
	if v.Sign() < 0 || v.BitLen() > 256 {
		return nil, errors.From(ErrBadAmount, map[string]interface{}{"amount": s})
	}
	return v, nil
}

// ClampUint32 narrows a u64 timestamp to the uint32 wire type, saturating at
// the maximum rather than wrapping.
func ClampUint32(v uint64) uint32 {
	if v > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

// DecodeSignature decodes a 0x-hex signature and requires exactly 65 bytes.
func DecodeSignature(s string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "signature is not valid hex")
	}
	if len(raw) != 65 {
		return nil, errors.From(ErrBadSignatureLength, map[string]interface{}{"len": len(raw)})
	}
	return raw, nil
}

// OrderIDToBytes32 resolves an order id to the on-chain bytes32 identifier:
// 0x-hex ids are decoded and left-padded, anything else is keccak256-hashed.
func OrderIDToBytes32(id string) [32]byte {
	if strings.HasPrefix(id, "0x") {
		if b, err := HexToBytes32(id); err == nil {
			return b
		}
	}
	var b [32]byte
	copy(b[:], crypto.Keccak256([]byte(id)))
	return b
}

func outputToParams(o data.MandateOutput) (MandateOutputParams, error) {
	var p MandateOutputParams
	var err error

	if p.RemoteOracle, err = HexToBytes32(o.RemoteOracle); err != nil {
		return p, errors.Wrap(err, "invalid remoteOracle")
	}
	if p.RemoteFiller, err = HexToBytes32(o.RemoteFiller); err != nil {
		return p, errors.Wrap(err, "invalid remoteFiller")
	}
	if p.Token, err = HexToBytes32(o.Token); err != nil {
		return p, errors.Wrap(err, "invalid token")
	}
	if p.Recipient, err = HexToBytes32(o.Recipient); err != nil {
		return p, errors.Wrap(err, "invalid recipient")
	}
	if _, err = ParseAmount(o.Amount); err != nil {
		return p, err
	}
	p.ChainID = o.ChainID
	p.Amount = o.Amount

	if p.RemoteCall, err = decodeOptionalBytes(o.RemoteCall); err != nil {
		return p, errors.Wrap(err, "invalid remoteCall")
	}
	if p.FulfillmentContext, err = decodeOptionalBytes(o.FulfillmentContext); err != nil {
		return p, errors.Wrap(err, "invalid fulfillmentContext")
	}
	return p, nil
}

// decodeOptionalBytes always returns a non-nil slice so absent payloads
// encode as zero-length bytes.
func decodeOptionalBytes(s string) ([]byte, error) {
	if s == "" || s == "0x" {
		return []byte{}, nil
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid hex payload")
	}
	return raw, nil
}

// OrderToParams converts a stored StandardOrder into wire params, validating
// every field that reaches the ABI boundary.
func OrderToParams(o data.StandardOrder) (StandardOrderParams, error) {
	var p StandardOrderParams

	if len(o.Inputs) == 0 {
		return p, ErrNoInputs
	}
	if len(o.Outputs) == 0 {
		return p, ErrNoOutputs
	}
	if !common.IsHexAddress(o.User) {
		return p, errors.Errorf("invalid user address %q", o.User)
	}
	if !common.IsHexAddress(o.LocalOracle) {
		return p, errors.Errorf("invalid localOracle address %q", o.LocalOracle)
	}

	p.User = common.HexToAddress(o.User)
	p.Nonce = o.Nonce
	p.OriginChainID = o.OriginChainID
	// the wire type is uint32, values past 2106 saturate
	p.Expires = ClampUint32(o.Expires)
	p.FillDeadline = ClampUint32(o.FillDeadline)
	p.LocalOracle = common.HexToAddress(o.LocalOracle)

	p.Inputs = make([][2]string, 0, len(o.Inputs))
	for _, in := range o.Inputs {
		if _, err := ParseAmount(in.TokenID); err != nil {
			return p, errors.Wrap(err, "invalid input tokenId")
		}
		if _, err := ParseAmount(in.Amount); err != nil {
			return p, errors.Wrap(err, "invalid input amount")
		}
		p.Inputs = append(p.Inputs, [2]string{in.TokenID, in.Amount})
	}

	p.Outputs = make([]MandateOutputParams, 0, len(o.Outputs))
	for i, out := range o.Outputs {
		op, err := outputToParams(out)
		if err != nil {
			return p, errors.Wrap(err, "invalid output", map[string]interface{}{"index": i})
		}
		p.Outputs = append(p.Outputs, op)
	}
	return p, nil
}

// FinaliseParamsFromOrder assembles the finalise parameters of a filled
// order: the solver acts as both attesting solver and destination, and the
// fill attestation timestamp is the single timestamps entry.
func FinaliseParamsFromOrder(o data.Order, solver common.Address, fillTimestamp uint32) (FinaliseParams, error) {
	var p FinaliseParams

	orderParams, err := OrderToParams(o.Order)
	if err != nil {
		return p, err
	}
	sig, err := DecodeSignature(o.Signature)
	if err != nil {
		return p, err
	}

	solverWord := AddressToBytes32(solver)
	return FinaliseParams{
		Order:        orderParams,
		SponsorSig:   sig,
		AllocatorSig: []byte{},
		Timestamps:   []uint32{fillTimestamp},
		Solvers:      [][32]byte{solverWord},
		Destination:  solverWord,
		Calls:        []byte{},
	}, nil
}
