package domain

import "errors"

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// TransportError represents a network or auth failure on the streaming
// or REST path. Streaming transport errors are retriable (the client
// reconnects); REST transport errors propagate to the calling operation.
type TransportError struct {
	Op        string // operation that failed (e.g. "connect", "read", "place-order")
	Err       error
	Retriable bool
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) IsRetriable() bool {
	return e.Retriable
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a retriable transport error
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err, Retriable: true}
}

// NewFatalTransportError creates a non-retriable transport error
func NewFatalTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err, Retriable: false}
}

// ConfigError represents a configuration error (never retriable, fatal
// to Connect)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// SubmissionError is returned when the venue rejects an order at
// submission time. No reconciliation entry exists and no preliminary
// order is published for such an order.
type SubmissionError struct {
	Symbol string
	Err    error
}

func (e *SubmissionError) Error() string {
	return "order submission rejected [" + e.Symbol + "]: " + e.Err.Error()
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

var (
	// ErrNotConnected is returned when an operation needs a transport that
	// has not been established yet.
	ErrNotConnected = errors.New("not connected")

	// ErrUnknownOrder is reported when a cancel references a local id with
	// no reconciliation entry. The operation is a no-op.
	ErrUnknownOrder = errors.New("unknown order")

	// ErrUnknownProduct is returned when reference data carries a product
	// code outside the mapping table. Reference-data ingestion is a strict
	// boundary; market pushes degrade to UNKNOWN instead.
	ErrUnknownProduct = errors.New("unknown product code")

	// ErrQueryInFlight is returned when a historical query is started
	// while another one holds the adapter's request token.
	ErrQueryInFlight = errors.New("historical query already in flight")

	// ErrSymbolFormat is returned when a composite symbol cannot be parsed.
	ErrSymbolFormat = errors.New("invalid symbol format")
)
