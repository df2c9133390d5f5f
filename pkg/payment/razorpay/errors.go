package razorpay

import "errors"

var (
	// ErrInvalidRequest is returned when the request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidSignature is returned when the checkout signature does not
	// match the expected HMAC
	ErrInvalidSignature = errors.New("invalid payment signature")

	// ErrPaymentNotCaptured is returned when the fetched payment is not in
	// the captured state
	ErrPaymentNotCaptured = errors.New("payment not captured")

	// ErrNetworkError is returned when there's a network communication error
	ErrNetworkError = errors.New("network error")

	// ErrUnauthorized is returned when the API key is invalid
	ErrUnauthorized = errors.New("unauthorized: invalid API key")

	// ErrNotFound is returned when the order or payment does not exist
	ErrNotFound = errors.New("order or payment not found")

	// ErrGatewayError is returned for any other gateway failure
	ErrGatewayError = errors.New("payment gateway error")
)
