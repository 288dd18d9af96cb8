package gameapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/playperu/sketchclient/internal/wire"
)

// ErrNotFound matches any HTTPError with status 404.
var ErrNotFound = errors.New("not found")

// TransportError is a network-level failure: the request never produced an
// HTTP response. It is the only error class worth retrying blindly.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError carries any response with status >= 400. The backend has no
// structured error schema, so Body is the raw text.
type HTTPError struct {
	Op     string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.Status, strings.TrimSpace(e.Body))
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

type ParseError = wire.ParseError

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	return 0
}

// IsAlreadyInSession matches the backend's free-text rejection of a second
// join. There is no error code for it.
func IsAlreadyInSession(err error) bool {
	var he *HTTPError
	if !errors.As(err, &he) {
		return false
	}
	return strings.Contains(strings.ToLower(he.Body), "already in session")
}
