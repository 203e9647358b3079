package shopify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/reviewbridge/reviewbridge-api/pkg/circuitbreaker"
)

// UserError is one entry of a mutation's userErrors list
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

// codeStaleObject is returned by metafieldsSet when compareDigest no longer matches
const codeStaleObject = "STALE_OBJECT"

// RemoteValidationError means Shopify accepted the request but rejected it on
// business rules (userErrors, or top-level GraphQL errors other than throttling).
type RemoteValidationError struct {
	Operation string
	Errors    []UserError
}

func (e *RemoteValidationError) Error() string {
	return fmt.Sprintf("shopify %s rejected: %s", e.Operation, e.Messages())
}

// Messages joins the user-facing messages
func (e *RemoteValidationError) Messages() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ue := range e.Errors {
		msgs = append(msgs, ue.Message)
	}
	return strings.Join(msgs, ", ")
}

// HasCode reports whether any user error carries code
func (e *RemoteValidationError) HasCode(code string) bool {
	for _, ue := range e.Errors {
		if ue.Code == code {
			return true
		}
	}
	return false
}

// RemoteTransportError is a network fault, a non-2xx response, throttling or
// an open circuit breaker. It is the only class worth retrying.
type RemoteTransportError struct {
	Operation  string
	StatusCode int
	Throttled  bool
	Err        error
}

func (e *RemoteTransportError) Error() string {
	switch {
	case e.Throttled:
		return fmt.Sprintf("shopify %s throttled", e.Operation)
	case e.StatusCode != 0:
		return fmt.Sprintf("shopify %s returned status %d: %v", e.Operation, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("shopify %s transport failure: %v", e.Operation, e.Err)
	}
}

func (e *RemoteTransportError) Unwrap() error {
	return e.Err
}

// UploadPhase names a step of the media pipeline
type UploadPhase string

const (
	PhaseDecode   UploadPhase = "decode"
	PhaseStage    UploadPhase = "stage"
	PhaseUpload   UploadPhase = "upload"
	PhaseRegister UploadPhase = "register"
)

// MediaUploadError aborts one media upload; the phase that failed is kept
type MediaUploadError struct {
	Phase UploadPhase
	Err   error
}

func (e *MediaUploadError) Error() string {
	return fmt.Sprintf("media upload failed at %s: %v", e.Phase, e.Err)
}

func (e *MediaUploadError) Unwrap() error {
	return e.Err
}

// IsRemoteValidation reports whether err is a business-rule rejection
func IsRemoteValidation(err error) bool {
	var rv *RemoteValidationError
	return errors.As(err, &rv)
}

// IsTransport reports whether err is a transport-level failure
func IsTransport(err error) bool {
	var te *RemoteTransportError
	return errors.As(err, &te)
}

// IsStaleObject reports whether a metafield write lost a compare-and-swap race
func IsStaleObject(err error) bool {
	var rv *RemoteValidationError
	return errors.As(err, &rv) && rv.HasCode(codeStaleObject)
}

// retryable accepts transport failures only, including a single attempt
// running past its own deadline. Cancellation and an open breaker end the
// attempt loop immediately.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var te *RemoteTransportError
	if !errors.As(err, &te) {
		return false
	}
	return !circuitbreaker.IsRejection(te.Err)
}

func userErrorsToErr(operation string, ues []UserError) error {
	if len(ues) == 0 {
		return nil
	}
	return &RemoteValidationError{Operation: operation, Errors: ues}
}
