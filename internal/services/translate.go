package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/emusicvibe/internal/shared"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
)

// HTTPError is a non-2xx answer from the Gemini REST endpoint.
type HTTPError struct {
	StatusCode int    // HTTP status code
	Status     string // google.rpc status, e.g. "NOT_FOUND"
	Message    string
	Reason     string // ErrorInfo reason, e.g. "API_KEY_INVALID"
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Status != "" {
		return fmt.Sprintf("gemini: %d %s: %s", e.StatusCode, e.Status, msg)
	}
	return fmt.Sprintf("gemini: %d: %s", e.StatusCode, msg)
}

// translateError maps a transport or API failure from op to one of the shared sentinels.
//
// Structured details (HTTP status, gRPC code, ErrorInfo reason) are consulted first. Message
// matching is the last resort for errors that carry nothing structured.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, shared.ErrTimeout, err)
	}
	if errors.Is(err, shared.ErrCredentialInvalid) || errors.Is(err, shared.ErrMissingCredentials) ||
		errors.Is(err, shared.ErrMalformedResponse) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Errorf("%s: %w: %w", op, classify(err), err)
}

func classify(err error) error {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if isKeyReason(httpErr.Reason) || isKeyMessage(httpErr.Message) {
			return shared.ErrCredentialInvalid
		}
		if kind := fromHTTPStatus(httpErr.StatusCode); kind != nil {
			return kind
		}
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if isKeyReason(apiErr.Reason()) {
			return shared.ErrCredentialInvalid
		}
		if kind := fromHTTPStatus(apiErr.HTTPCode()); kind != nil {
			return kind
		}
		if st := apiErr.GRPCStatus(); st != nil {
			if kind := fromGRPCCode(st.Code()); kind != nil {
				return kind
			}
		}
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		if kind := fromHTTPStatus(gErr.Code); kind != nil {
			return kind
		}
	}

	return fromMessage(err.Error())
}

func fromHTTPStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden, code == http.StatusNotFound:
		return shared.ErrCredentialInvalid
	case code == http.StatusTooManyRequests:
		return shared.ErrQuotaExceeded
	case code >= 500:
		return shared.ErrServiceUnavailable
	case code >= 400:
		return shared.ErrAPIRequest
	}
	return nil
}

func fromGRPCCode(code codes.Code) error {
	switch code {
	case codes.Unauthenticated, codes.PermissionDenied, codes.NotFound:
		return shared.ErrCredentialInvalid
	case codes.ResourceExhausted:
		return shared.ErrQuotaExceeded
	case codes.Unavailable, codes.Internal:
		return shared.ErrServiceUnavailable
	case codes.OK, codes.Unknown:
		return nil
	}
	return shared.ErrAPIRequest
}

func isKeyReason(reason string) bool {
	switch reason {
	case "API_KEY_INVALID", "API_KEY_SERVICE_BLOCKED", "API_KEY_HTTP_REFERRER_BLOCKED":
		return true
	}
	return false
}

func isKeyMessage(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "api key not valid")
}

func fromMessage(msg string) error {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "entity was not found"),
		strings.Contains(m, "not found"),
		isKeyMessage(m),
		strings.Contains(m, "permission denied"):
		return shared.ErrCredentialInvalid
	case strings.Contains(m, "quota"), strings.Contains(m, "resource exhausted"), strings.Contains(m, "rate limit"):
		return shared.ErrQuotaExceeded
	}
	return shared.ErrAPIRequest
}
