package ai

import "fmt"

// ErrorKind classifies why a call against the AI endpoint failed.
type ErrorKind string

const (
	KindInvalidRequest ErrorKind = "invalid_request"
	KindAuth           ErrorKind = "authentication"
	// KindMissingKey means credential resolution failed before any call
	// left the process; no vendor was involved.
	KindMissingKey ErrorKind = "missing_api_key"
	KindRateLimit      ErrorKind = "rate_limit"
	KindServer         ErrorKind = "server"
	KindTimeout        ErrorKind = "timeout"
	KindConnRefused    ErrorKind = "connection_refused"
	KindDNS            ErrorKind = "dns"
	KindNetwork        ErrorKind = "network"
	KindUnknown        ErrorKind = "unknown"
)

// Failure carries the classification plus the original message, so the
// last error after retry exhaustion surfaces verbatim.
type Failure struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (f *Failure) Error() string {
	if f.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", f.Kind, f.Status, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Transient reports whether a retry may help: connection timeouts,
// refused connections, DNS failures and server-side errors only.
func (f *Failure) Transient() bool {
	switch f.Kind {
	case KindTimeout, KindConnRefused, KindDNS, KindServer:
		return true
	default:
		return false
	}
}

// Result is the one shape handlers see. Exactly one of Data / Raw-only
// holds the payload; callers never re-inspect the vendor envelope.
type Result struct {
	// Data is the parsed JSON payload when the content parsed (possibly
	// after repair). Nil when the answer is plain text.
	Data any `json:"data,omitempty"`
	// Raw is the original text content as returned by the vendor.
	Raw string `json:"raw,omitempty"`
	// Incomplete marks output that was truncated by the token limit and
	// needed repair, or could not be repaired at all.
	Incomplete bool `json:"incomplete,omitempty"`
}

// Payload is what goes into the response envelope: parsed JSON when
// available, the raw text otherwise.
func (r Result) Payload() any {
	if r.Data != nil {
		return r.Data
	}
	return r.Raw
}
