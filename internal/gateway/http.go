package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/shopspring/decimal"

	"checkout/internal/config"
)

const maxResponseBytes = 1 << 20

// HTTPClient is the JSON-over-HTTP implementation of Client.
type HTTPClient struct {
	baseURL             string
	username            string
	password            string
	redirectURL         string
	authenticationLimit int
	challengeWindowSize string
	timeout             time.Duration
	http                *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a gateway client. Outbound requests are recorded as
// New Relic external segments when the request context carries a transaction.
func NewHTTPClient(cfg config.GatewayConfig) *HTTPClient {
	return &HTTPClient{
		baseURL:             cfg.BaseURL + cfg.Merchant,
		username:            cfg.Username,
		password:            cfg.Password,
		redirectURL:         cfg.RedirectURL,
		authenticationLimit: cfg.AuthenticationLimit,
		challengeWindowSize: cfg.ChallengeWindowSize,
		timeout:             cfg.Timeout,
		http: &http.Client{
			Transport: newrelic.NewRoundTripper(http.DefaultTransport),
		},
	}
}

// CreateSession opens a hosted session.
func (c *HTTPClient) CreateSession(ctx context.Context) (*Response, error) {
	body := map[string]any{
		"session": map[string]any{"authenticationLimit": c.authenticationLimit},
	}
	return c.do(ctx, http.MethodPost, "/session", body)
}

// UpdateSessionOrder binds order id, currency and amount to the session.
func (c *HTTPClient) UpdateSessionOrder(ctx context.Context, req UpdateSessionOrderRequest) (*Response, error) {
	body := map[string]any{
		"apiOperation": "UPDATE_SESSION",
		"order": map[string]any{
			"id":       req.OrderID,
			"currency": req.Currency,
			"amount":   amount(req.Amount),
		},
	}
	return c.do(ctx, http.MethodPut, "/session/"+url.PathEscape(req.SessionID), body)
}

// UpdateSessionCard binds card data to the session.
func (c *HTTPClient) UpdateSessionCard(ctx context.Context, req UpdateSessionCardRequest) (*Response, error) {
	body := map[string]any{
		"apiOperation": "UPDATE_SESSION",
		"sourceOfFunds": map[string]any{
			"provided": map[string]any{
				"card": map[string]any{
					"number": req.Card.Number,
					"expiry": map[string]any{
						"month": req.Card.ExpiryMonth,
						"year":  req.Card.ExpiryYear,
					},
					"securityCode": req.Card.SecurityCode,
				},
			},
		},
	}
	return c.do(ctx, http.MethodPut, "/session/"+url.PathEscape(req.SessionID), body)
}

// InitiateAuthentication starts 3-D Secure for the authentication leg.
func (c *HTTPClient) InitiateAuthentication(ctx context.Context, req InitiateAuthenticationRequest) (*Response, error) {
	body := map[string]any{
		"apiOperation": "INITIATE_AUTHENTICATION",
		"session":      map[string]any{"id": req.SessionID},
		"order":        map[string]any{"currency": req.Currency},
		"authentication": map[string]any{
			"acceptVersions": "3DS1,3DS2",
			"channel":        "PAYER_BROWSER",
			"purpose":        "PAYMENT_TRANSACTION",
		},
	}
	return c.do(ctx, http.MethodPut, transactionPath(req.OrderID, req.TransactionID), body)
}

// AuthenticatePayer submits payer and device context for the authentication leg.
func (c *HTTPClient) AuthenticatePayer(ctx context.Context, req AuthenticatePayerRequest) (*Response, error) {
	browser := req.Device.BrowserDetails
	body := map[string]any{
		"apiOperation": "AUTHENTICATE_PAYER",
		"order": map[string]any{
			"currency": req.Currency,
			"amount":   amount(req.Amount),
		},
		"session":        map[string]any{"id": req.SessionID},
		"authentication": map[string]any{"redirectResponseUrl": c.redirectURL},
		"customer": map[string]any{
			"firstName": req.Customer.FirstName,
			"lastName":  req.Customer.LastName,
		},
		"device": map[string]any{
			"browserDetails": map[string]any{
				"javaEnabled":                 browser.JavaEnabled,
				"language":                    browser.Language,
				"screenHeight":                browser.ScreenHeight,
				"screenWidth":                 browser.ScreenWidth,
				"timeZone":                    browser.TimeZone,
				"colorDepth":                  browser.ColorDepth,
				"acceptHeaders":               browser.AcceptHeaders,
				"3DSecureChallengeWindowSize": c.challengeWindowSize,
			},
			"browser":   req.Device.Browser,
			"ipAddress": req.Device.IPAddress,
		},
	}
	return c.do(ctx, http.MethodPut, transactionPath(req.OrderID, req.TransactionID), body)
}

// Pay captures the payment on the payment leg.
func (c *HTTPClient) Pay(ctx context.Context, req PayRequest) (*Response, error) {
	body := map[string]any{
		"apiOperation": "PAY",
		"order": map[string]any{
			"currency": req.Currency,
			"amount":   amount(req.Amount),
		},
		"session":        map[string]any{"id": req.SessionID},
		"sourceOfFunds":  map[string]any{"type": "CARD"},
		"authentication": map[string]any{"transactionId": req.AuthenticationTransactionID},
	}
	return c.do(ctx, http.MethodPut, transactionPath(req.OrderID, req.TransactionID), body)
}

// do sends one request and decodes the reply. Non-2xx replies with a JSON
// body are returned as responses; the caller interprets result and error.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s %s: %w", method, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("layer=gateway method=%s path=%s elapsed=%s err=%v", method, path, time.Since(start), err)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s %s: %v", ErrTransport, method, path, err)
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Printf("layer=gateway method=%s path=%s status=%d err=%v", method, path, resp.StatusCode, err)
		return nil, fmt.Errorf("%w: %s %s status %d: %v", ErrDecode, method, path, resp.StatusCode, err)
	}
	out.StatusCode = resp.StatusCode
	out.Raw = raw

	log.Printf("layer=gateway method=%s path=%s status=%d result=%s elapsed=%s", method, path, resp.StatusCode, out.Result, time.Since(start))
	return &out, nil
}

func transactionPath(orderID, transactionID string) string {
	return "/order/" + url.PathEscape(orderID) + "/transaction/" + url.PathEscape(transactionID)
}

// amount renders a decimal as a bare JSON number with two fraction digits.
func amount(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
