package requests

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/oif-solver/solver-svc/internal/data"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

var (
	// 65-byte ECDSA signature as 0x-hex.
	signatureRx = regexp.MustCompile(`^0x[0-9a-fA-F]{130}$`)
	// 20-byte address or 32-byte word as 0x-hex.
	addressRx = regexp.MustCompile(`^0x([0-9a-fA-F]{40}|[0-9a-fA-F]{64})$`)
	amountRx  = regexp.MustCompile(`^[0-9]+$`)
)

type SubmitOrder struct {
	// ID is optional; a deterministic id is derived from the order when
	// absent.
	ID        string             `json:"id"`
	Order     data.StandardOrder `json:"order"`
	Signature string             `json:"signature"`
}

func NewSubmitOrder(r *http.Request) (SubmitOrder, error) {
	var req SubmitOrder
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, validation.Errors{"/": errors.Wrap(err, "failed to decode body")}
	}
	return req, req.validate()
}

func (r SubmitOrder) validate() error {
	o := r.Order
	errs := validation.Errors{
		"signature":           validation.Validate(r.Signature, validation.Required, validation.Match(signatureRx)),
		"order/user":          validation.Validate(o.User, validation.Required, validation.Match(addressRx)),
		"order/localOracle":   validation.Validate(o.LocalOracle, validation.Required, validation.Match(addressRx)),
		"order/originChainId": validation.Validate(o.OriginChainID, validation.Required),
		"order/expires":       validation.Validate(o.Expires, validation.Required),
		"order/fillDeadline":  validation.Validate(o.FillDeadline, validation.Required),
		"order/inputs":        validation.Validate(o.Inputs, validation.Required),
		"order/outputs":       validation.Validate(o.Outputs, validation.Required),
	}
	for i, in := range o.Inputs {
		errs[inputField(i, "amount")] = validation.Validate(in.Amount, validation.Required, validation.Match(amountRx))
		errs[inputField(i, "tokenId")] = validation.Validate(in.TokenID, validation.Required, validation.Match(amountRx))
	}
	for i, out := range o.Outputs {
		errs[outputField(i, "remoteOracle")] = validation.Validate(out.RemoteOracle, validation.Required, validation.Match(addressRx))
		errs[outputField(i, "remoteFiller")] = validation.Validate(out.RemoteFiller, validation.Required, validation.Match(addressRx))
		errs[outputField(i, "token")] = validation.Validate(out.Token, validation.Required, validation.Match(addressRx))
		errs[outputField(i, "recipient")] = validation.Validate(out.Recipient, validation.Required, validation.Match(addressRx))
		errs[outputField(i, "amount")] = validation.Validate(out.Amount, validation.Required, validation.Match(amountRx))
		errs[outputField(i, "chainId")] = validation.Validate(out.ChainID, validation.Required)
	}
	return errs.Filter()
}

func inputField(i int, name string) string {
	return "order/inputs/" + strconv.Itoa(i) + "/" + name
}

func outputField(i int, name string) string {
	return "order/outputs/" + strconv.Itoa(i) + "/" + name
}
