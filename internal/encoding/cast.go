package encoding

import (
	"encoding/hex"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/oif-solver/solver-svc/internal/abidef"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// CastEncoder renders finalise call data by shelling out to foundry's cast.
// It exists to cross-check the native encoder byte for byte; production
// traffic goes through NativeEncoder.
type CastEncoder struct {
	binary string
}

func NewCast() *CastEncoder {
	return &CastEncoder{binary: "cast"}
}

func (e *CastEncoder) Description() string {
	return "cast: foundry subprocess ABI encoding"
}

func (e *CastEncoder) FinaliseSelector() [4]byte {
	return abidef.FinaliseSelector
}

func (e *CastEncoder) FillSelector() [4]byte {
	return abidef.FillSelector
}

// Available reports whether the cast binary can be executed.
func (e *CastEncoder) Available() bool {
	return exec.Command(e.binary, "--version").Run() == nil
}

func (e *CastEncoder) EncodeFinaliseCall(p FinaliseParams) ([]byte, error) {
	if !e.Available() {
		return nil, ErrEncoderUnavailable
	}

	orderArg, err := formatOrderArg(p.Order)
	if err != nil {
		return nil, err
	}

	// pre-encode the signatures pair; the finalise signature carries it as
	// one opaque bytes parameter
	blob, err := EncodeSignaturesBlob(p.SponsorSig, p.AllocatorSig)
	if err != nil {
		return nil, err
	}

	timestamps := make([]string, 0, len(p.Timestamps))
	for _, t := range p.Timestamps {
		timestamps = append(timestamps, fmt.Sprintf("%d", t))
	}
	solvers := make([]string, 0, len(p.Solvers))
	for _, s := range p.Solvers {
		solvers = append(solvers, bytes32Hex(s))
	}

	packed, err := e.abiEncode(
		abidef.FinaliseSignature,
		orderArg,
		bytesHex(blob),
		"["+strings.Join(timestamps, ",")+"]",
		"["+strings.Join(solvers, ",")+"]",
		bytes32Hex(p.Destination),
		bytesHex(p.Calls),
	)
	if err != nil {
		return nil, err
	}
	return withSelector(abidef.FinaliseSelector, packed), nil
}

// EncodeFillCall is intentionally unimplemented: fill call data is produced
// in-process and the cast path only cross-checks finalise.
func (e *CastEncoder) EncodeFillCall(FillRequest) ([]byte, error) {
	return nil, ErrUnsupported
}

func (e *CastEncoder) EncodeCompleteFillCall(FillRequest, common.Address, uint64, common.Address) ([]byte, error) {
	return nil, ErrUnsupported
}

func (e *CastEncoder) abiEncode(signature string, args ...string) ([]byte, error) {
	cmdArgs := append([]string{"abi-encode", signature}, args...)
	out, err := exec.Command(e.binary, cmdArgs...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, errors.Errorf("cast abi-encode failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, ErrEncoderUnavailable
	}

	encoded := strings.TrimPrefix(strings.TrimSpace(string(out)), "0x")
	raw, err := hex.DecodeString(encoded)
	return raw, errors.Wrap(err, "cast produced invalid hex")
}

func formatOrderArg(p StandardOrderParams) (string, error) {
	inputs := make([]string, 0, len(p.Inputs))
	for _, pair := range p.Inputs {
		tokenID, err := ParseAmount(pair[0])
		if err != nil {
			return "", errors.Wrap(err, "invalid input tokenId")
		}
		amount, err := ParseAmount(pair[1])
		if err != nil {
			return "", errors.Wrap(err, "invalid input amount")
		}
		inputs = append(inputs, fmt.Sprintf("[%s,%s]", tokenID, amount))
	}

	outputs := make([]string, 0, len(p.Outputs))
	for _, o := range p.Outputs {
		amount, err := ParseAmount(o.Amount)
		if err != nil {
			return "", errors.Wrap(err, "invalid output amount")
		}
		outputs = append(outputs, fmt.Sprintf("(%s,%s,%d,%s,%s,%s,%s,%s)",
			bytes32Hex(o.RemoteOracle),
			bytes32Hex(o.RemoteFiller),
			o.ChainID,
			bytes32Hex(o.Token),
			amount,
			bytes32Hex(o.Recipient),
			bytesHex(o.RemoteCall),
			bytesHex(o.FulfillmentContext),
		))
	}

	return fmt.Sprintf("(%s,%d,%d,%d,%d,%s,[%s],[%s])",
		strings.ToLower(p.User.Hex()),
		p.Nonce,
		p.OriginChainID,
		p.Expires,
		p.FillDeadline,
		strings.ToLower(p.LocalOracle.Hex()),
		strings.Join(inputs, ","),
		strings.Join(outputs, ","),
	), nil
}

func bytes32Hex(b [32]byte) string {
	return "0x" + hex.EncodeToString(b[:])
}

func bytesHex(b []byte) string {
	if len(b) == 0 {
		return "0x"
	}
	return "0x" + hex.EncodeToString(b)
}
