package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/oif-solver/solver-svc/internal/data"
	"github.com/oif-solver/solver-svc/internal/service/requests"
	"gitlab.com/distributed_lab/ape"
	"gitlab.com/distributed_lab/ape/problems"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

func SubmitOrder(w http.ResponseWriter, r *http.Request) {
	req, err := requests.NewSubmitOrder(r)
	if err != nil {
		ape.RenderErr(w, problems.BadRequest(err)...)
		return
	}

	now := time.Now().UTC()
	order := data.Order{
		ID:        req.ID,
		Order:     req.Order,
		Signature: req.Signature,
		Status:    data.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if order.ID == "" {
		order.ID = deriveOrderID(req.Order)
	}

	if err = Orders(r).Insert(order); err != nil {
		if errors.Cause(err) == data.ErrOrderExists {
			ape.RenderErr(w, problems.Conflict())
			return
		}
		Log(r).WithError(err).Error("failed to insert order")
		ape.RenderErr(w, problems.InternalError())
		return
	}

	Log(r).WithField("order_id", order.ID).Info("order accepted")
	w.WriteHeader(http.StatusCreated)
	ape.Render(w, order)
}

// deriveOrderID gives client-id-less submissions a deterministic identity,
// so resubmitting the same order is a conflict rather than a duplicate.
func deriveOrderID(o data.StandardOrder) string {
	seed := fmt.Sprintf("%s:%d:%d", strings.ToLower(o.User), o.OriginChainID, o.Nonce)
	return hexutil.Encode(crypto.Keccak256([]byte(seed)))
}
