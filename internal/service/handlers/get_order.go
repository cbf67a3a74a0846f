package handlers

import (
	"net/http"

	"github.com/oif-solver/solver-svc/internal/data"
	"github.com/oif-solver/solver-svc/internal/service/requests"
	"gitlab.com/distributed_lab/ape"
	"gitlab.com/distributed_lab/ape/problems"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

func GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := requests.NewOrderID(r)
	if err != nil {
		ape.RenderErr(w, problems.BadRequest(err)...)
		return
	}

	order, err := Orders(r).Get(id)
	if err != nil {
		if errors.Cause(err) == data.ErrOrderNotFound {
			ape.RenderErr(w, problems.NotFound())
			return
		}
		Log(r).WithError(err).Error("failed to get order")
		ape.RenderErr(w, problems.InternalError())
		return
	}

	ape.Render(w, order)
}
