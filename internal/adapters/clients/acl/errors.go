package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/account-gateway/internal/adapters/clients"
	"github.com/jsamuelsen/account-gateway/internal/domain"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// ErrorResponse is a Graph-style error body:
//
//	{"error": {"message": "...", "type": "OAuthException", "code": 190, "fbtrace_id": "..."}}
//
// A flat {"message": "..."} body is accepted too.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	Message string      `json:"message,omitempty"`
}

// ErrorDetail is the nested error object.
type ErrorDetail struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	Subcode   int    `json:"error_subcode,omitempty"`
	FBTraceID string `json:"fbtrace_id,omitempty"`
}

// GetMessage returns the nested message, falling back to the flat one.
func (e *ErrorResponse) GetMessage() string {
	if e.Error.Message != "" {
		return e.Error.Message
	}

	return e.Message
}

// ParseErrorResponse decodes an error body. It returns nil when the body is
// empty or carries no message.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&errResp); err != nil {
		return nil
	}

	if errResp.GetMessage() == "" {
		return nil
	}

	return &errResp
}

// MapHTTPError translates a failed provider call into a domain error.
// provider is the display name used in client-facing messages; service names
// the downstream in UnavailableError.
func MapHTTPError(resp *http.Response, clientErr error, service, provider string) error {
	if clientErr != nil {
		return mapClientError(clientErr, service)
	}

	if resp == nil {
		return domain.NewUnavailableError(service, "no response received")
	}

	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	return mapStatusCode(resp.StatusCode, ParseErrorResponse(resp.Body), service, provider)
}

func mapClientError(err error, service string) error {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(service, "circuit breaker open")
	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return fmt.Errorf("%w: %w", domain.NewUnavailableError(service, "max retries exceeded"), err)
	default:
		return fmt.Errorf("%w: %w", domain.NewUnavailableError(service, "request failed"), err)
	}
}

func mapStatusCode(status int, errResp *ErrorResponse, service, provider string) error {
	detail := http.StatusText(status)
	if errResp != nil {
		detail = errResp.GetMessage()
		if errResp.Error.Type != "" {
			detail = fmt.Sprintf("%s (%s %d)", detail, errResp.Error.Type, errResp.Error.Code)
		}
	}

	switch {
	case status == http.StatusTooManyRequests:
		return domain.NewUnavailableError(service, "rate limit exceeded")
	case status >= http.StatusInternalServerError:
		return domain.NewUnavailableError(service, fmt.Sprintf("HTTP %d: %s", status, detail))
	default:
		return fmt.Errorf("%w: HTTP %d: %s", domain.NewInvalidThirdPartyTokenError(provider), status, detail)
	}
}
