package handlers

import (
	"net/http"

	"github.com/oif-solver/solver-svc/internal/data"
	"github.com/oif-solver/solver-svc/internal/service/requests"
	"github.com/oif-solver/solver-svc/internal/solver"
	"gitlab.com/distributed_lab/ape"
	"gitlab.com/distributed_lab/ape/problems"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

func FinalizeOrder(w http.ResponseWriter, r *http.Request) {
	id, err := requests.NewOrderID(r)
	if err != nil {
		ape.RenderErr(w, problems.BadRequest(err)...)
		return
	}

	order, err := Finalizer(r).Finalize(r.Context(), id)
	if err != nil {
		switch errors.Cause(err) {
		case data.ErrOrderNotFound:
			ape.RenderErr(w, problems.NotFound())
		case solver.ErrAlreadyFinalizing, solver.ErrNotFilled,
			solver.ErrOrderExpired, solver.ErrNoFillAttestation:
			ape.RenderErr(w, problems.Conflict())
		default:
			Log(r).WithError(err).WithField("order_id", id).Error("finalization failed")
			ape.RenderErr(w, problems.InternalError())
		}
		return
	}

	ape.Render(w, order)
}
