package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"checkout/internal/admission"
	"checkout/internal/app"
	"checkout/internal/domain"
	"checkout/internal/gateway"
	"checkout/internal/handler"
	"checkout/internal/service"
)

type testServer struct {
	router *gin.Engine
	repo   *MockOrderRepository
	gw     *MockGateway
	locks  *MockLockStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := NewMockOrderRepository()
	gw := NewMockGateway()
	locks := NewMockLockStore()
	cache := NewMockOrderCache()

	queue := admission.NewQueue(repo, admission.NewCounter(0), "ORDER-PREFIX-", 16)
	t.Cleanup(queue.Close)

	orderService := service.NewOrderService(repo, queue, cache, nil, "")
	paymentService := service.NewPaymentService(repo, gw, cache, nil, "", fastRetry)

	router := app.NewRouter(app.RouterDeps{
		OrderHandler: handler.NewOrderHandler(orderService, paymentService, locks, time.Minute),
	})

	return &testServer{router: router, repo: repo, gw: gw, locks: locks}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func (s *testServer) createOrder(t *testing.T) string {
	t.Helper()
	rec, body := s.do(t, http.MethodPost, "/v1/orders", map[string]any{
		"user_id":  7,
		"amount":   "250.00",
		"customer": map[string]any{"firstName": "Nour", "lastName": "Hassan", "email": "nour@example.com"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := body["order"].(map[string]any)
	return order["id"].(string)
}

func TestHTTP_FullCheckoutFlow(t *testing.T) {
	s := newTestServer(t)

	id := s.createOrder(t)

	s.gw.Script("CreateSession", successSession("S1"))
	rec, body := s.do(t, http.MethodPost, "/v1/orders/"+id+"/session", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, true, body["ok"])
	require.Equal(t, "S1", body["order"].(map[string]any)["session_id"])

	rec, body = s.do(t, http.MethodPost, "/v1/orders/"+id+"/card", map[string]any{
		"number": "5123450000000008", "expiry_month": "01", "expiry_year": "39", "security_code": "100",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, true, body["ok"])

	rec, _ = s.do(t, http.MethodPost, "/v1/orders/"+id+"/authentication", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	s.gw.Script("AuthenticatePayer", busy(), withThreeDS(gateway.ResultPending, "3DS-1"))
	rec, body = s.do(t, http.MethodPost, "/v1/orders/"+id+"/authentication/payer", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "3DS-1", body["order"].(map[string]any)["txn_id"])

	approved := &gateway.Response{Result: gateway.ResultSuccess, Response: &gateway.Acquirer{AcquirerCode: "00", AcquirerMessage: "Approved"}}
	s.gw.Script("Pay", approved)
	rec, body = s.do(t, http.MethodPost, "/v1/orders/"+id+"/pay", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, true, body["ok"])

	order := body["order"].(map[string]any)
	require.Equal(t, "completed", order["status"])
	require.Equal(t, "00", order["payment_response_code"])
	require.Equal(t, "SUCCESS", body["gateway"].(map[string]any)["result"])

	require.False(t, s.locks.IsLocked(id), "lock must be released after each step")

	rec, _ = s.do(t, http.MethodPost, "/v1/orders/"+id+"/pay", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestHTTP_ErrorMapping(t *testing.T) {
	t.Run("unknown order", func(t *testing.T) {
		s := newTestServer(t)
		rec, _ := s.do(t, http.MethodGet, "/v1/orders/missing", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid amount", func(t *testing.T) {
		s := newTestServer(t)
		rec, _ := s.do(t, http.MethodPost, "/v1/orders", map[string]any{
			"amount":   "0",
			"customer": map[string]any{"firstName": "A", "lastName": "B"},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("locked order", func(t *testing.T) {
		s := newTestServer(t)
		id := s.createOrder(t)
		s.locks.ForceAcquireFailure = true

		rec, _ := s.do(t, http.MethodPost, "/v1/orders/"+id+"/session", nil)
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Empty(t, s.gw.Calls(""))
	})

	t.Run("step before session", func(t *testing.T) {
		s := newTestServer(t)
		id := s.createOrder(t)

		rec, _ := s.do(t, http.MethodPost, "/v1/orders/"+id+"/pay", nil)
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("gateway unreachable", func(t *testing.T) {
		s := newTestServer(t)
		id := s.createOrder(t)
		s.gw.Fail("CreateSession", gateway.ErrTransport)

		rec, _ := s.do(t, http.MethodPost, "/v1/orders/"+id+"/session", nil)
		require.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("gateway busy", func(t *testing.T) {
		s := newTestServer(t)
		id := s.createOrder(t)
		s.gw.Script("CreateSession", successSession("S1"))
		rec, _ := s.do(t, http.MethodPost, "/v1/orders/"+id+"/session", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		s.gw.Script("AuthenticatePayer", busy())
		rec, _ = s.do(t, http.MethodPost, "/v1/orders/"+id+"/authentication/payer", nil)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.Equal(t, domain.OrderStatusFailed, s.repo.GetOrder(id).Status)
	})
}

func TestHTTP_SessionResumeAfterBindingFailure(t *testing.T) {
	s := newTestServer(t)
	id := s.createOrder(t)

	s.gw.Script("CreateSession", successSession("S1"))
	s.gw.Fail("UpdateSessionOrder", gateway.ErrTransport)
	rec, _ := s.do(t, http.MethodPost, "/v1/orders/"+id+"/session", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.False(t, s.locks.IsLocked(id))

	s.gw.Fail("UpdateSessionOrder", nil)
	rec, body := s.do(t, http.MethodPost, "/v1/orders/"+id+"/session", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, true, body["ok"])
	require.Equal(t, "S1", body["order"].(map[string]any)["session_id"])
	require.Len(t, s.gw.Calls("CreateSession"), 1)
	require.Len(t, s.gw.Calls("UpdateSessionOrder"), 2)
}

func TestHTTP_GetOrderByDisplayID(t *testing.T) {
	s := newTestServer(t)
	id := s.createOrder(t)

	rec, body := s.do(t, http.MethodGet, "/v1/display-orders/ORDER-PREFIX-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, id, body["id"])
	require.Equal(t, float64(1), body["order_number"])

	rec, _ = s.do(t, http.MethodGet, "/v1/display-orders/ORDER-PREFIX-99", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
