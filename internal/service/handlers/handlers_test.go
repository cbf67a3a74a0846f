package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/oif-solver/solver-svc/internal/data"
	"github.com/oif-solver/solver-svc/internal/data/mem"
	"github.com/oif-solver/solver-svc/internal/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/distributed_lab/ape"
	"gitlab.com/distributed_lab/logan/v3"
)

type stubFinalizer struct {
	err   error
	calls int
}

func (s *stubFinalizer) Finalize(_ context.Context, id string) (*data.Order, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	hash := "0xfinal"
	return &data.Order{ID: id, Status: data.StatusFinalized, FinalizeTxHash: &hash}, nil
}

func testRouter(orders data.Orders, fin OrderFinalizer) chi.Router {
	r := chi.NewRouter()
	r.Use(ape.CtxMiddleware(
		CtxLog(logan.New().Level(logan.FatalLevel)),
		CtxOrders(orders),
		CtxFinalizer(fin),
		CtxHealth(HealthInfo{Transport: "direct", Wallet: "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"}),
	))
	r.Post("/orders", SubmitOrder)
	r.Get("/orders", ListOrders)
	r.Get("/orders/{id}", GetOrder)
	r.Post("/orders/{id}/finalize", FinalizeOrder)
	r.Get("/queue", GetQueue)
	r.Get("/health", GetHealth)
	return r
}

const submitBody = `{
	"order": {
		"user": "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266",
		"nonce": 781,
		"originChainId": 31337,
		"expires": 4294967295,
		"fillDeadline": 4294967295,
		"localOracle": "0x0165878a594ca255338adfa4d48449f69242eb8f",
		"inputs": [["1234", "100000000000000000000"]],
		"outputs": [{
			"remoteOracle": "0xe7f1725e7734ce288f8367e1bb143e90bb3f0512",
			"remoteFiller": "0x5fbdb2315678afecb367f032d93f642f64180aa3",
			"chainId": 31338,
			"token": "0x9fe46736679d2d9a65f0992f2272de9f3c7fa6e0",
			"amount": "99000000000000000000",
			"recipient": "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"
		}]
	},
	"signature": "0xb99e3849171a57335dc3e25bdffb48b778d9d43851a54ff0606af6095f653acb084513b1458f9c36674e0b529b8f4af5882f73324165bd3df91a0e29948f2bf01c"
}`

func TestSubmitOrderLifecycle(t *testing.T) {
	orders := mem.NewOrders()
	router := testRouter(orders, &stubFinalizer{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/orders", strings.NewReader(submitBody)))
	require.Equal(t, http.StatusCreated, w.Code)

	var created data.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, data.StatusPending, created.Status)

	// resubmission of the same order is a conflict
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/orders", strings.NewReader(submitBody)))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/orders/"+created.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var fetched data.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
}

func TestSubmitOrderRejectsInvalidBody(t *testing.T) {
	router := testRouter(mem.NewOrders(), &stubFinalizer{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/orders", strings.NewReader(`{"signature":"0xbad"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetOrderNotFound(t *testing.T) {
	router := testRouter(mem.NewOrders(), &stubFinalizer{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/orders/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListOrdersFiltersByStatus(t *testing.T) {
	orders := mem.NewOrders()
	now := time.Now().UTC()
	require.NoError(t, orders.Insert(data.Order{ID: "a", Status: data.StatusPending, CreatedAt: now}))
	require.NoError(t, orders.Insert(data.Order{ID: "b", Status: data.StatusFilled, CreatedAt: now.Add(time.Second)}))
	router := testRouter(orders, &stubFinalizer{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/orders?status=filled", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp ordersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, "b", resp.Orders[0].ID)
}

func TestFinalizeOrderStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"ok", nil, http.StatusOK},
		{"not found", data.ErrOrderNotFound, http.StatusNotFound},
		{"already finalizing", solver.ErrAlreadyFinalizing, http.StatusConflict},
		{"not filled", solver.ErrNotFilled, http.StatusConflict},
		{"expired", solver.ErrOrderExpired, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := testRouter(mem.NewOrders(), &stubFinalizer{err: tc.err})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("POST", "/orders/order-1/finalize", nil))
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestQueueAndHealth(t *testing.T) {
	orders := mem.NewOrders()
	require.NoError(t, orders.Insert(data.Order{ID: "a", Status: data.StatusPending}))
	require.NoError(t, orders.Insert(data.Order{ID: "b", Status: data.StatusFinalizing}))
	router := testRouter(orders, &stubFinalizer{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/queue", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats data.QueueStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Processing)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var health healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "direct", health.Transport)
}
