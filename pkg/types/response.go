package types

// SuccessEnvelope wraps every successful JSON response body. Clients always
// unwrap the data key regardless of endpoint.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the wire shape of a failure. Code is a stable machine-readable
// identifier, Message is safe to show to an end user.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every failed JSON response body. Errors are always
// delivered on a non-2xx status.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
