package handlers

import (
	"net/http"

	"github.com/oif-solver/solver-svc/internal/data"
	"github.com/oif-solver/solver-svc/internal/service/requests"
	"gitlab.com/distributed_lab/ape"
	"gitlab.com/distributed_lab/ape/problems"
)

type ordersResponse struct {
	Orders []data.Order `json:"orders"`
}

func ListOrders(w http.ResponseWriter, r *http.Request) {
	req, err := requests.NewListOrders(r)
	if err != nil {
		ape.RenderErr(w, problems.BadRequest(err)...)
		return
	}

	var orders []data.Order
	if req.Status != nil {
		orders, err = Orders(r).ByStatus(*req.Status)
	} else {
		orders, err = Orders(r).All()
	}
	if err != nil {
		Log(r).WithError(err).Error("failed to list orders")
		ape.RenderErr(w, problems.InternalError())
		return
	}

	if orders == nil {
		orders = []data.Order{}
	}
	ape.Render(w, ordersResponse{Orders: orders})
}
