package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"checkout/internal/config"
	"checkout/internal/domain"
)

type capturedRequest struct {
	Method string
	Path   string
	User   string
	Pass   string
	Body   map[string]any
}

func newTestClient(t *testing.T, status int, reply string) (*HTTPClient, *capturedRequest) {
	t.Helper()

	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Method = r.Method
		captured.Path = r.URL.Path
		captured.User, captured.Pass, _ = r.BasicAuth()
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &captured.Body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)

	client := NewHTTPClient(config.GatewayConfig{
		BaseURL:             srv.URL + "/merchant/",
		Merchant:            "TESTMERCHANT",
		Username:            "merchant.TESTMERCHANT",
		Password:            "secret",
		RedirectURL:         "https://shop.example/3ds/return",
		Timeout:             2 * time.Second,
		AuthenticationLimit: 25,
		ChallengeWindowSize: "FULL_SCREEN",
	})
	return client, captured
}

func TestHTTPClient_CreateSession(t *testing.T) {
	client, captured := newTestClient(t, http.StatusCreated, `{"result":"SUCCESS","session":{"id":"SESSION0001","updateStatus":"NO_UPDATE"}}`)

	resp, err := client.CreateSession(context.Background())
	require.NoError(t, err)

	require.Equal(t, http.MethodPost, captured.Method)
	require.Equal(t, "/merchant/TESTMERCHANT/session", captured.Path)
	require.Equal(t, "merchant.TESTMERCHANT", captured.User)
	require.Equal(t, "secret", captured.Pass)
	require.Equal(t, float64(25), captured.Body["session"].(map[string]any)["authenticationLimit"])

	require.True(t, resp.Succeeded())
	require.Equal(t, "SESSION0001", resp.SessionID())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.JSONEq(t, `{"result":"SUCCESS","session":{"id":"SESSION0001","updateStatus":"NO_UPDATE"}}`, string(resp.Raw))
}

func TestHTTPClient_UpdateSessionOrder(t *testing.T) {
	client, captured := newTestClient(t, http.StatusOK, `{"session":{"id":"S1","updateStatus":"SUCCESS"}}`)

	_, err := client.UpdateSessionOrder(context.Background(), UpdateSessionOrderRequest{
		SessionID: "S1",
		OrderID:   "ORDER-PREFIX-7",
		Currency:  "EGP",
		Amount:    decimal.RequireFromString("150.5"),
	})
	require.NoError(t, err)

	require.Equal(t, http.MethodPut, captured.Method)
	require.Equal(t, "/merchant/TESTMERCHANT/session/S1", captured.Path)
	require.Equal(t, "UPDATE_SESSION", captured.Body["apiOperation"])
	order := captured.Body["order"].(map[string]any)
	require.Equal(t, "ORDER-PREFIX-7", order["id"])
	require.Equal(t, "EGP", order["currency"])
	require.Equal(t, 150.5, order["amount"])
}

func TestHTTPClient_AuthenticatePayer(t *testing.T) {
	client, captured := newTestClient(t, http.StatusOK, `{"result":"PENDING","authentication":{"3ds":{"transactionId":"3DS-TXN-1"}}}`)

	resp, err := client.AuthenticatePayer(context.Background(), AuthenticatePayerRequest{
		SessionID:     "S1",
		OrderID:       "ORDER-PREFIX-7",
		TransactionID: "N3SB-TXN7-ABCDEFGHIJ",
		Currency:      "EGP",
		Amount:        decimal.NewFromInt(100),
		Customer:      domain.Customer{FirstName: "Mona", LastName: "Adel", Email: "mona@example.com"},
		Device:        domain.DefaultDevice("10.0.0.1"),
	})
	require.NoError(t, err)

	require.Equal(t, "/merchant/TESTMERCHANT/order/ORDER-PREFIX-7/transaction/N3SB-TXN7-ABCDEFGHIJ", captured.Path)
	require.Equal(t, "AUTHENTICATE_PAYER", captured.Body["apiOperation"])
	require.Equal(t, "https://shop.example/3ds/return", captured.Body["authentication"].(map[string]any)["redirectResponseUrl"])

	device := captured.Body["device"].(map[string]any)
	require.Equal(t, "10.0.0.1", device["ipAddress"])
	require.Equal(t, "FULL_SCREEN", device["browserDetails"].(map[string]any)["3DSecureChallengeWindowSize"])

	require.Equal(t, "3DS-TXN-1", resp.ThreeDSTransactionID())
}

func TestHTTPClient_Pay(t *testing.T) {
	client, captured := newTestClient(t, http.StatusOK, `{"result":"SUCCESS","response":{"acquirerCode":"00","acquirerMessage":"Approved","gatewayCode":"APPROVED"}}`)

	resp, err := client.Pay(context.Background(), PayRequest{
		SessionID:                   "S1",
		OrderID:                     "ORDER-PREFIX-7",
		TransactionID:               "N3SB-TXN7-PAYLEG0001",
		AuthenticationTransactionID: "N3SB-TXN7-AUTHLEG001",
		Currency:                    "EGP",
		Amount:                      decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	require.Equal(t, "/merchant/TESTMERCHANT/order/ORDER-PREFIX-7/transaction/N3SB-TXN7-PAYLEG0001", captured.Path)
	require.Equal(t, "PAY", captured.Body["apiOperation"])
	require.Equal(t, "N3SB-TXN7-AUTHLEG001", captured.Body["authentication"].(map[string]any)["transactionId"])
	require.Equal(t, "CARD", captured.Body["sourceOfFunds"].(map[string]any)["type"])

	require.Equal(t, "00", resp.AcquirerCode())
	require.Equal(t, "Approved", resp.AcquirerMessage())
}

func TestHTTPClient_ErrorBodyIsAResponse(t *testing.T) {
	client, _ := newTestClient(t, http.StatusServiceUnavailable, `{"result":"ERROR","error":{"cause":"SERVER_BUSY","explanation":"try again"}}`)

	resp, err := client.AuthenticatePayer(context.Background(), AuthenticatePayerRequest{SessionID: "S1", OrderID: "O", TransactionID: "T"})
	require.NoError(t, err)
	require.True(t, resp.IsError())
	require.True(t, resp.Busy())
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHTTPClient_NonJSONBody(t *testing.T) {
	client, _ := newTestClient(t, http.StatusBadGateway, `<html>bad gateway</html>`)

	_, err := client.CreateSession(context.Background())
	require.ErrorIs(t, err, ErrDecode)
}

func TestHTTPClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	client := NewHTTPClient(config.GatewayConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

	_, err := client.CreateSession(context.Background())
	require.ErrorIs(t, err, ErrTransport)
}

func TestResponse_Accessors(t *testing.T) {
	var nilResp *Response
	require.False(t, nilResp.Succeeded())
	require.False(t, nilResp.Busy())
	require.Empty(t, nilResp.ThreeDSTransactionID())
	require.Empty(t, nilResp.AcquirerCode())

	resp := &Response{Result: ResultFailure, Error: &Error{Cause: "INVALID_REQUEST"}}
	require.False(t, resp.Succeeded())
	require.False(t, resp.IsError())
	require.False(t, resp.Busy())
	require.Empty(t, resp.SessionID())
}
