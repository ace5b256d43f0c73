package breakdown

import (
	"context"
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation Kind = "validation_error"
	KindUpstream   Kind = "upstream_error"
	KindMalformed  Kind = "malformed_response"
	KindRender     Kind = "render_error"
	KindInternal   Kind = "internal_error"
)

// ValidationError rejects input before any external call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// UpstreamError is a network or provider failure calling the model.
type UpstreamError struct {
	Model string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream call to %s failed: %v", e.Model, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// MalformedResponseError means the provider answered, but not with a usable
// JSON object.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed model response: %s: %v", e.Reason, e.Err)
	}
	return "malformed model response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// KindOf classifies err. Errors from other packages can opt in by
// implementing ErrorKind() string.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var (
		ve *ValidationError
		ue *UpstreamError
		me *MalformedResponseError
		ek interface{ ErrorKind() string }
	)
	switch {
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &me):
		return KindMalformed
	case errors.As(err, &ue):
		return KindUpstream
	case errors.As(err, &ek):
		return Kind(ek.ErrorKind())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindUpstream
	default:
		return KindInternal
	}
}
