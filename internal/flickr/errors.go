package flickr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrBadRequest is returned for arguments the API would reject.
	ErrBadRequest = errors.New("flickr: bad request")
	// ErrInvalidResponse is returned when an "ok" reply carries no photos.
	ErrInvalidResponse = errors.New("flickr: invalid response")
	// ErrNoAPIKey is returned by New without an API key.
	ErrNoAPIKey = errors.New("flickr: api key is required")
)

// TransportError wraps a failure to complete the HTTP exchange.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "flickr: transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// DecodingError wraps a malformed response body.
type DecodingError struct {
	Err error
}

func (e *DecodingError) Error() string { return "flickr: decoding: " + e.Err.Error() }
func (e *DecodingError) Unwrap() error { return e.Err }

// HTTPError is returned for a status outside 200-299.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("flickr: http %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// BlockedError is returned when an edge protection layer or throttle
// answered instead of the API.
type BlockedError struct {
	Source     string
	StatusCode int
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("flickr: blocked by %s (http %d)", e.Source, e.StatusCode)
}

// ServiceErrorKind classifies API error codes.
type ServiceErrorKind string

const (
	KindTooManyTags         ServiceErrorKind = "too_many_tags"
	KindUnknownUser         ServiceErrorKind = "unknown_user"
	KindParameterlessSearch ServiceErrorKind = "parameterless_search_disabled"
	KindNoPermissionForPool ServiceErrorKind = "no_permission_for_pool"
	KindSearchUnavailable   ServiceErrorKind = "search_unavailable"
	KindNoValidMachineTags  ServiceErrorKind = "no_valid_machine_tags"
	KindExceededMachineTags ServiceErrorKind = "exceeded_machine_tags"
	KindContactsOnly        ServiceErrorKind = "contacts_only"
	KindIllogicalArguments  ServiceErrorKind = "illogical_arguments"
	KindInvalidAPIKey       ServiceErrorKind = "invalid_api_key"
	KindServiceUnavailable  ServiceErrorKind = "service_unavailable"
	KindWriteFailed         ServiceErrorKind = "write_failed"
	KindFormatNotFound      ServiceErrorKind = "format_not_found"
	KindMethodNotFound      ServiceErrorKind = "method_not_found"
	KindInvalidSOAPEnvelope ServiceErrorKind = "invalid_soap_envelope"
	KindInvalidXMLRPC       ServiceErrorKind = "invalid_xmlrpc"
	KindBadURLFound         ServiceErrorKind = "bad_url_found"
	KindUnknown             ServiceErrorKind = "unknown"
)

// Documented error codes of flickr.photos.search.
var serviceKinds = map[int]ServiceErrorKind{
	1:   KindTooManyTags,
	2:   KindUnknownUser,
	3:   KindParameterlessSearch,
	4:   KindNoPermissionForPool,
	5:   KindUnknownUser,
	10:  KindSearchUnavailable,
	11:  KindNoValidMachineTags,
	12:  KindExceededMachineTags,
	17:  KindContactsOnly,
	18:  KindIllogicalArguments,
	100: KindInvalidAPIKey,
	105: KindServiceUnavailable,
	106: KindWriteFailed,
	111: KindFormatNotFound,
	112: KindMethodNotFound,
	114: KindInvalidSOAPEnvelope,
	115: KindInvalidXMLRPC,
	116: KindBadURLFound,
}

// ServiceError is an API-level failure reported with stat "fail".
type ServiceError struct {
	Code    int
	Message string
}

// Kind maps Code onto a ServiceErrorKind.
func (e *ServiceError) Kind() ServiceErrorKind {
	if k, ok := serviceKinds[e.Code]; ok {
		return k
	}
	return KindUnknown
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("flickr: %s (code %d)", e.Kind(), e.Code)
	}
	return fmt.Sprintf("flickr: %s (code %d): %s", e.Kind(), e.Code, e.Message)
}

// Retryable reports whether the failure is likely transient.
func (e *ServiceError) Retryable() bool {
	switch e.Kind() {
	case KindSearchUnavailable, KindServiceUnavailable:
		return true
	default:
		return false
	}
}
