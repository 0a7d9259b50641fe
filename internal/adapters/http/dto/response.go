package dto

import (
	"encoding/json"
	"maps"
	"net/http"
)

// Envelope keys owned by the builder. Extra fields never overwrite them.
const (
	keyStatusCode = "status_code"
	keyError      = "error"
	keyStatus     = "status"
	keyMessage    = "message"
	keyParams     = "params"
	keyPath       = "path"
)

// BinaryPlaceholder replaces every non-string parameter value in diagnostics.
const BinaryPlaceholder = "(binary)"

// Diagnostics is a sanitised snapshot of the request attached to error
// envelopes in diagnostic mode.
type Diagnostics struct {
	Params map[string]string
	Path   string
}

// ErrorResponse is the error envelope:
//
//	{"status_code": 40001, "error": {"message": "...", ...}, ...}
type ErrorResponse struct {
	StatusCode  StatusCode
	HTTPStatus  int
	Message     string
	ErrorFields map[string]any
	TopFields   map[string]any
	Diagnostics *Diagnostics
}

// ErrorOption customises an ErrorResponse.
type ErrorOption func(*ErrorResponse)

// WithHTTPStatus overrides the default 400 status.
func WithHTTPStatus(status int) ErrorOption {
	return func(r *ErrorResponse) {
		if status > 0 {
			r.HTTPStatus = status
		}
	}
}

// WithErrorFields merges fields into the nested error object.
func WithErrorFields(fields map[string]any) ErrorOption {
	return func(r *ErrorResponse) {
		if len(fields) == 0 {
			return
		}

		if r.ErrorFields == nil {
			r.ErrorFields = make(map[string]any, len(fields))
		}

		maps.Copy(r.ErrorFields, fields)
	}
}

// WithTopFields merges fields into the top level of the envelope.
func WithTopFields(fields map[string]any) ErrorOption {
	return func(r *ErrorResponse) {
		if len(fields) == 0 {
			return
		}

		if r.TopFields == nil {
			r.TopFields = make(map[string]any, len(fields))
		}

		maps.Copy(r.TopFields, fields)
	}
}

// WithDiagnostics attaches a request snapshot. A nil snapshot is ignored.
func WithDiagnostics(d *Diagnostics) ErrorOption {
	return func(r *ErrorResponse) {
		r.Diagnostics = d
	}
}

// BuildError creates an error envelope. It has no side effects.
func BuildError(code StatusCode, message string, opts ...ErrorOption) *ErrorResponse {
	r := &ErrorResponse{
		StatusCode: code,
		HTTPStatus: http.StatusBadRequest,
		Message:    message,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Body returns the envelope as a JSON-ready map.
func (r *ErrorResponse) Body() map[string]any {
	errObj := make(map[string]any, len(r.ErrorFields)+2)
	maps.Copy(errObj, r.ErrorFields)
	errObj[keyMessage] = r.Message

	if r.Diagnostics != nil {
		params := make(map[string]any, len(r.Diagnostics.Params)+1)
		for k, v := range r.Diagnostics.Params {
			params[k] = v
		}

		params[keyPath] = r.Diagnostics.Path
		errObj[keyParams] = params
	}

	body := make(map[string]any, len(r.TopFields)+2)
	maps.Copy(body, r.TopFields)
	body[keyStatusCode] = int(r.StatusCode)
	body[keyError] = errObj

	return body
}

// MarshalJSON implements json.Marshaler.
func (r *ErrorResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Body())
}

// SuccessResponse is the success envelope:
//
//	{"status_code": 0, "status": "success", ...}
type SuccessResponse struct {
	Status string
	Extra  map[string]any
}

// BuildSuccess creates a success envelope. An empty message becomes "success".
func BuildSuccess(message string, extra map[string]any) *SuccessResponse {
	if message == "" {
		message = CodeSuccess.Message()
	}

	return &SuccessResponse{Status: message, Extra: extra}
}

// HTTPStatus is always 200.
func (r *SuccessResponse) HTTPStatus() int {
	return http.StatusOK
}

// Body returns the envelope as a JSON-ready map.
func (r *SuccessResponse) Body() map[string]any {
	body := make(map[string]any, len(r.Extra)+2)
	maps.Copy(body, r.Extra)
	body[keyStatusCode] = int(CodeSuccess)
	body[keyStatus] = r.Status

	return body
}

// MarshalJSON implements json.Marshaler.
func (r *SuccessResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Body())
}
