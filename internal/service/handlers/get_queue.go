package handlers

import (
	"net/http"

	"gitlab.com/distributed_lab/ape"
	"gitlab.com/distributed_lab/ape/problems"
)

func GetQueue(w http.ResponseWriter, r *http.Request) {
	stats, err := Orders(r).Stats()
	if err != nil {
		Log(r).WithError(err).Error("failed to collect queue stats")
		ape.RenderErr(w, problems.InternalError())
		return
	}

	ape.Render(w, stats)
}
