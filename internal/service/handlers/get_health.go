package handlers

import (
	"net/http"

	"github.com/oif-solver/solver-svc/internal/data"
	"gitlab.com/distributed_lab/ape"
	"gitlab.com/distributed_lab/ape/problems"
)

type healthResponse struct {
	Status    string            `json:"status"`
	Transport string            `json:"transport"`
	Wallet    string            `json:"wallet"`
	Chains    map[string]uint64 `json:"chains,omitempty"`
	Queue     data.QueueStats   `json:"queue"`
}

func GetHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := Orders(r).Stats()
	if err != nil {
		Log(r).WithError(err).Error("failed to collect queue stats")
		ape.RenderErr(w, problems.InternalError())
		return
	}

	info := Health(r)
	ape.Render(w, healthResponse{
		Status:    "ok",
		Transport: info.Transport,
		Wallet:    info.Wallet,
		Chains:    ChainHeights(r),
		Queue:     stats,
	})
}
