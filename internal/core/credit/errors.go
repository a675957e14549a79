package credit

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a failed lookup.
type ErrorKind string

const (
	KindNotFound   ErrorKind = "not_found"
	KindBadRequest ErrorKind = "bad_request"
	KindServer     ErrorKind = "server"
	KindNetwork    ErrorKind = "network"
	KindTimeout    ErrorKind = "timeout"
	KindCanceled   ErrorKind = "canceled"
)

// QueryError is returned by QueryService implementations.
// Status holds the HTTP status when one was received, 0 otherwise.
type QueryError struct {
	Kind          ErrorKind
	Status        int
	CorrelationID string
	Err           error
}

func (e *QueryError) Error() string {
	msg := string(e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return "credit query " + msg
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// KindForStatus maps a non-2xx HTTP status to an error kind.
func KindForStatus(status int) ErrorKind {
	switch status {
	case 400:
		return KindBadRequest
	case 404:
		return KindNotFound
	case 500:
		return KindServer
	default:
		return KindNetwork
	}
}

// KindOf extracts the kind of err. Context errors that escaped a
// QueryService without being wrapped are classified too.
func KindOf(err error) ErrorKind {
	var qe *QueryError
	switch {
	case errors.As(err, &qe):
		return qe.Kind
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	default:
		return KindNetwork
	}
}

// StatusOf returns the HTTP status carried by err, if any.
func StatusOf(err error) int {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Status
	}
	return 0
}

// ErrNotFound is returned by repositories when no credit matches.
var ErrNotFound = errors.New("credit not found")
