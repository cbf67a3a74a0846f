package handlers

import (
	"context"
	"net/http"

	"github.com/oif-solver/solver-svc/internal/data"
	"gitlab.com/distributed_lab/logan/v3"
)

// OrderFinalizer triggers settlement of a filled order on the origin chain.
type OrderFinalizer interface {
	Finalize(ctx context.Context, id string) (*data.Order, error)
}

// HealthInfo is static service identity reported by the health endpoint.
type HealthInfo struct {
	Transport string `json:"transport"`
	Wallet    string `json:"wallet"`
}

type ctxKey int

const (
	logCtxKey ctxKey = iota
	ordersCtxKey
	finalizerCtxKey
	healthCtxKey
	chainHeightsCtxKey
)

func CtxLog(entry *logan.Entry) func(context.Context) context.Context {
	return func(ctx context.Context) context.Context {
		return context.WithValue(ctx, logCtxKey, entry)
	}
}

func Log(r *http.Request) *logan.Entry {
	return r.Context().Value(logCtxKey).(*logan.Entry)
}

func CtxOrders(q data.Orders) func(context.Context) context.Context {
	return func(ctx context.Context) context.Context {
		return context.WithValue(ctx, ordersCtxKey, q)
	}
}

func Orders(r *http.Request) data.Orders {
	return r.Context().Value(ordersCtxKey).(data.Orders)
}

func CtxFinalizer(f OrderFinalizer) func(context.Context) context.Context {
	return func(ctx context.Context) context.Context {
		return context.WithValue(ctx, finalizerCtxKey, f)
	}
}

func Finalizer(r *http.Request) OrderFinalizer {
	return r.Context().Value(finalizerCtxKey).(OrderFinalizer)
}

func CtxHealth(h HealthInfo) func(context.Context) context.Context {
	return func(ctx context.Context) context.Context {
		return context.WithValue(ctx, healthCtxKey, h)
	}
}

func Health(r *http.Request) HealthInfo {
	return r.Context().Value(healthCtxKey).(HealthInfo)
}

// CtxChainHeights passes the latest chain connectivity snapshot provider.
func CtxChainHeights(f func() map[string]uint64) func(context.Context) context.Context {
	return func(ctx context.Context) context.Context {
		return context.WithValue(ctx, chainHeightsCtxKey, f)
	}
}

func ChainHeights(r *http.Request) map[string]uint64 {
	f, ok := r.Context().Value(chainHeightsCtxKey).(func() map[string]uint64)
	if !ok {
		return nil
	}
	return f()
}
