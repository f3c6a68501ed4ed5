package gateway

import "encoding/json"

// Result values observed on gateway responses. Endpoints do not agree on
// which of these means success, so callers test for the one they need.
const (
	ResultSuccess = "SUCCESS"
	ResultFailure = "FAILURE"
	ResultPending = "PENDING"
	ResultError   = "ERROR"
)

// CauseServerBusy is the transient error cause the gateway returns when it
// wants the request repeated.
const CauseServerBusy = "SERVER_BUSY"

// Response is the subset of a gateway response the checkout flow reads.
// Raw always holds the full body for diagnostics.
type Response struct {
	Result         string          `json:"result,omitempty"`
	Merchant       string          `json:"merchant,omitempty"`
	Error          *Error          `json:"error,omitempty"`
	Session        *Session        `json:"session,omitempty"`
	Order          *Order          `json:"order,omitempty"`
	Authentication *Authentication `json:"authentication,omitempty"`
	Response       *Acquirer       `json:"response,omitempty"`
	Transaction    *Transaction    `json:"transaction,omitempty"`

	StatusCode int             `json:"-"`
	Raw        json.RawMessage `json:"-"`
}

// Error is the gateway's structured error object.
type Error struct {
	Cause          string `json:"cause,omitempty"`
	Explanation    string `json:"explanation,omitempty"`
	Field          string `json:"field,omitempty"`
	ValidationType string `json:"validationType,omitempty"`
}

// Session is the hosted session block.
type Session struct {
	ID                  string `json:"id,omitempty"`
	UpdateStatus        string `json:"updateStatus,omitempty"`
	Version             string `json:"version,omitempty"`
	AuthenticationLimit int    `json:"authenticationLimit,omitempty"`
}

// Order is the gateway's view of the order.
type Order struct {
	ID                   string      `json:"id,omitempty"`
	Currency             string      `json:"currency,omitempty"`
	Amount               json.Number `json:"amount,omitempty"`
	Status               string      `json:"status,omitempty"`
	AuthenticationStatus string      `json:"authenticationStatus,omitempty"`
}

// Authentication carries the 3-D Secure results.
type Authentication struct {
	ThreeDS          *ThreeDS `json:"3ds,omitempty"`
	PayerInteraction string   `json:"payerInteraction,omitempty"`
	RedirectHTML     string   `json:"redirectHtml,omitempty"`
	Version          string   `json:"version,omitempty"`
	TransactionID    string   `json:"transactionId,omitempty"`
}

// ThreeDS is the authentication["3ds"] block.
type ThreeDS struct {
	AcsEci              string `json:"acsEci,omitempty"`
	AuthenticationToken string `json:"authenticationToken,omitempty"`
	TransactionID       string `json:"transactionId,omitempty"`
}

// Acquirer is the response block with gateway and acquirer codes.
type Acquirer struct {
	AcquirerCode          string `json:"acquirerCode,omitempty"`
	AcquirerMessage       string `json:"acquirerMessage,omitempty"`
	GatewayCode           string `json:"gatewayCode,omitempty"`
	GatewayRecommendation string `json:"gatewayRecommendation,omitempty"`
}

// Transaction is the gateway's transaction block.
type Transaction struct {
	ID                   string      `json:"id,omitempty"`
	Type                 string      `json:"type,omitempty"`
	Amount               json.Number `json:"amount,omitempty"`
	Currency             string      `json:"currency,omitempty"`
	AuthenticationStatus string      `json:"authenticationStatus,omitempty"`
}

// Succeeded reports result == SUCCESS.
func (r *Response) Succeeded() bool {
	return r != nil && r.Result == ResultSuccess
}

// IsError reports result == ERROR.
func (r *Response) IsError() bool {
	return r != nil && r.Result == ResultError
}

// Busy reports whether the gateway asked for the request to be repeated.
func (r *Response) Busy() bool {
	return r != nil && r.Error != nil && r.Error.Cause == CauseServerBusy
}

// SessionID returns session.id, or "" when absent.
func (r *Response) SessionID() string {
	if r == nil || r.Session == nil {
		return ""
	}
	return r.Session.ID
}

// ThreeDSTransactionID returns authentication["3ds"].transactionId, or "".
func (r *Response) ThreeDSTransactionID() string {
	if r == nil || r.Authentication == nil || r.Authentication.ThreeDS == nil {
		return ""
	}
	return r.Authentication.ThreeDS.TransactionID
}

// AcquirerCode returns response.acquirerCode, or "".
func (r *Response) AcquirerCode() string {
	if r == nil || r.Response == nil {
		return ""
	}
	return r.Response.AcquirerCode
}

// AcquirerMessage returns response.acquirerMessage, or "".
func (r *Response) AcquirerMessage() string {
	if r == nil || r.Response == nil {
		return ""
	}
	return r.Response.AcquirerMessage
}
