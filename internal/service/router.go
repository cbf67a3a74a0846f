package service

import (
	"github.com/go-chi/chi"
	"github.com/oif-solver/solver-svc/internal/service/handlers"
	"gitlab.com/distributed_lab/ape"
)

func (s *service) router() chi.Router {
	r := chi.NewRouter()

	r.Use(
		ape.RecoverMiddleware(s.log),
		ape.LoganMiddleware(s.log),
		ape.CtxMiddleware(
			handlers.CtxLog(s.log),
			handlers.CtxOrders(s.orders),
			handlers.CtxFinalizer(s.lifecycle),
			handlers.CtxHealth(handlers.HealthInfo{
				Transport: string(s.engine.TransportType()),
				Wallet:    s.engine.WalletAddress().Hex(),
			}),
			handlers.CtxChainHeights(s.chainHeights),
		),
	)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.GetHealth)
		r.Get("/queue", handlers.GetQueue)
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", handlers.SubmitOrder)
			r.Get("/", handlers.ListOrders)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handlers.GetOrder)
				r.Post("/finalize", handlers.FinalizeOrder)
			})
		})
	})

	return r
}
