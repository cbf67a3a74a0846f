package requests

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/oif-solver/solver-svc/internal/data"
)

type ListOrders struct {
	Status *data.Status
}

func NewListOrders(r *http.Request) (ListOrders, error) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return ListOrders{}, nil
	}

	err := validation.Errors{
		"status": validation.Validate(raw, validation.In(
			string(data.StatusPending),
			string(data.StatusProcessing),
			string(data.StatusFilled),
			string(data.StatusFinalizing),
			string(data.StatusFinalized),
			string(data.StatusFailed),
		)),
	}.Filter()
	if err != nil {
		return ListOrders{}, err
	}

	status := data.Status(raw)
	return ListOrders{Status: &status}, nil
}
