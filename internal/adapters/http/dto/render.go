package dto

import (
	"github.com/gin-gonic/gin"
)

// DefaultDiagnosticsParam is the request parameter that turns on diagnostics.
const DefaultDiagnosticsParam = "dev"

// RendererConfig controls diagnostic mode.
type RendererConfig struct {
	// DiagnosticsEnabled allows diagnostics at all. Production disables it.
	DiagnosticsEnabled bool

	// DiagnosticsParam is the flag parameter; its presence, with any value,
	// requests diagnostics.
	DiagnosticsParam string
}

// Renderer writes envelopes to gin. It is the only part of this package with
// side effects.
type Renderer struct {
	enabled bool
	param   string
}

// NewRenderer creates a Renderer.
func NewRenderer(cfg RendererConfig) *Renderer {
	param := cfg.DiagnosticsParam
	if param == "" {
		param = DefaultDiagnosticsParam
	}

	return &Renderer{enabled: cfg.DiagnosticsEnabled, param: param}
}

// DiagnosticsRequested reports whether the error envelope should carry a
// request snapshot.
func (r *Renderer) DiagnosticsRequested(c *gin.Context) bool {
	return r.enabled && ReadParams(c).Present(r.param)
}

// Error writes an error envelope and aborts the handler chain.
func (r *Renderer) Error(c *gin.Context, resp *ErrorResponse) {
	if resp.Diagnostics == nil && r.DiagnosticsRequested(c) {
		resp.Diagnostics = Snapshot(c)
	}

	c.AbortWithStatusJSON(resp.HTTPStatus, resp)
}

// Success writes a success envelope.
func (r *Renderer) Success(c *gin.Context, message string, extra map[string]any) {
	resp := BuildSuccess(message, extra)
	c.JSON(resp.HTTPStatus(), resp)
}

// RequireParams checks that every name is present and non-blank. When some
// are missing it writes the EMPTY_PARAMS envelope, records ErrHandled and
// returns a Handled outcome; the caller must return immediately.
func (r *Renderer) RequireParams(c *gin.Context, names ...string) Outcome[Params] {
	params := ReadParams(c)

	missing := params.Missing(names...)
	if len(missing) == 0 {
		return Continue(params)
	}

	r.Error(c, BuildError(CodeEmptyParams, CodeEmptyParams.Message(),
		WithHTTPStatus(CodeEmptyParams.HTTPStatus()),
		WithErrorFields(map[string]any{"missingParameters": missing}),
	))

	_ = c.Error(ErrHandled)

	return Handled[Params]()
}
