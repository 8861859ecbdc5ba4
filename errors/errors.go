// Package errors provides the error taxonomy for the FairGate submission
// pipeline. Every fatal condition a request can hit maps to a Kind, and each
// Kind maps to the HTTP status class the gateway surfaces to the caller.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a gateway error for HTTP status mapping and logging.
type Kind int

const (
	// KindParse indicates the submitted graph document is not well-formed.
	KindParse Kind = iota
	// KindIdentityNotFound indicates no usable identifier URI was found in
	// the document.
	KindIdentityNotFound
	// KindConfiguration indicates required credentials or endpoints are
	// missing from the process configuration.
	KindConfiguration
	// KindUpstreamAuth indicates the registry auth call failed or returned
	// no token.
	KindUpstreamAuth
	// KindStoreAccess indicates an unexpected response while reading the
	// versioned store.
	KindStoreAccess
	// KindStoreWrite indicates the versioned store rejected a write.
	KindStoreWrite
	// KindRegistrySubmission indicates the registry rejected the record.
	KindRegistrySubmission
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse_error"
	case KindIdentityNotFound:
		return "identity_not_found"
	case KindConfiguration:
		return "configuration_missing"
	case KindUpstreamAuth:
		return "upstream_auth_error"
	case KindStoreAccess:
		return "store_access_error"
	case KindStoreWrite:
		return "store_write_error"
	case KindRegistrySubmission:
		return "registry_submission_error"
	default:
		return "unknown"
	}
}

// HTTPStatus returns the status code the gateway responds with for this Kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindParse, KindIdentityNotFound:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified gateway error. UpstreamBody carries the raw response
// body of a failed upstream call when one is available.
type Error struct {
	Kind         Kind
	Detail       string
	UpstreamBody string
	Err          error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Detail
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.UpstreamBody != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, msg, e.UpstreamBody)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewParse wraps a graph parsing failure.
func NewParse(err error) error {
	return &Error{Kind: KindParse, Detail: "document is not well-formed", Err: err}
}

// NewIdentityNotFound reports that no identifier could be derived.
func NewIdentityNotFound(detail string) error {
	return &Error{Kind: KindIdentityNotFound, Detail: detail}
}

// NewConfiguration reports missing required configuration.
func NewConfiguration(detail string) error {
	return &Error{Kind: KindConfiguration, Detail: detail}
}

// NewUpstreamAuth wraps a failed or tokenless auth response.
func NewUpstreamAuth(detail string, err error) error {
	return &Error{Kind: KindUpstreamAuth, Detail: detail, Err: err}
}

// NewStoreAccess reports an unexpected store read response.
func NewStoreAccess(detail, upstreamBody string) error {
	return &Error{Kind: KindStoreAccess, Detail: detail, UpstreamBody: upstreamBody}
}

// NewStoreWrite reports a rejected store write.
func NewStoreWrite(detail, upstreamBody string) error {
	return &Error{Kind: KindStoreWrite, Detail: detail, UpstreamBody: upstreamBody}
}

// NewRegistrySubmission reports a rejected registry submission.
func NewRegistrySubmission(detail, upstreamBody string) error {
	return &Error{Kind: KindRegistrySubmission, Detail: detail, UpstreamBody: upstreamBody}
}

// As extracts a classified gateway error from err's chain.
func As(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// IsKind reports whether err's chain contains a gateway error of the given Kind.
func IsKind(err error, k Kind) bool {
	if ge, ok := As(err); ok {
		return ge.Kind == k
	}
	return false
}

// HTTPStatus returns the status code for err. Unclassified errors map to 500.
func HTTPStatus(err error) int {
	if ge, ok := As(err); ok {
		return ge.Kind.HTTPStatus()
	}
	return http.StatusInternalServerError
}
