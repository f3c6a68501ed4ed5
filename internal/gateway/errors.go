package gateway

import "errors"

var (
	// ErrTransport is returned when the gateway could not be reached or the
	// exchange was cut short.
	ErrTransport = errors.New("gateway transport error")

	// ErrDecode is returned when the gateway answered with a body that is not JSON.
	ErrDecode = errors.New("gateway response not decodable")
)
