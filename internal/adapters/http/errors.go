package http

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/account-gateway/internal/adapters/http/dto"
	"github.com/jsamuelsen/account-gateway/internal/adapters/oauth"
	"github.com/jsamuelsen/account-gateway/internal/domain"
	"github.com/jsamuelsen/account-gateway/internal/platform/logging"
	"github.com/jsamuelsen/account-gateway/internal/platform/telemetry"
)

// Classification is the wire-level result of mapping one error.
type Classification struct {
	// Rule is the name of the rule that matched.
	Rule string

	Code    dto.StatusCode
	Message string

	// HTTPStatus of 0 means the code's default, after per-group overrides.
	HTTPStatus  int
	ErrorFields map[string]any

	// Suppress means the response was already written; emit nothing.
	Suppress bool
}

// Rule maps one error variant. Rules are tried in order; the first match wins.
type Rule struct {
	Name     string
	Match    func(error) bool
	Classify func(error) Classification
}

// Fallback answers errors no rule matched.
type Fallback func(c *gin.Context, err error)

// ClassifierConfig configures a Classifier.
type ClassifierConfig struct {
	Renderer *dto.Renderer

	// Rules defaults to DefaultRules().
	Rules []Rule

	// Fallback defaults to the INTERNAL envelope.
	Fallback Fallback

	// StatusOverrides replaces a code's default HTTP status for this group of
	// routes, e.g. 40402 answered with 401 on endpoints behind a bearer token.
	StatusOverrides map[dto.StatusCode]int

	Logger *slog.Logger

	// Registerer receives the error response counter. Nil disables metrics.
	Registerer prometheus.Registerer
}

// Classifier turns errors recorded on a gin context into response envelopes.
type Classifier struct {
	rules     []Rule
	fallback  Fallback
	overrides map[dto.StatusCode]int
	render    *dto.Renderer
	logger    *slog.Logger
	responses *prometheus.CounterVec
}

// NewClassifier creates a Classifier.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	cl := &Classifier{
		rules:     cfg.Rules,
		overrides: cfg.StatusOverrides,
		render:    cfg.Renderer,
		logger:    cfg.Logger,
		fallback:  cfg.Fallback,
	}

	if cl.rules == nil {
		cl.rules = DefaultRules()
	}

	if cl.render == nil {
		cl.render = dto.NewRenderer(dto.RendererConfig{})
	}

	if cl.logger == nil {
		cl.logger = slog.Default()
	}

	if cl.fallback == nil {
		cl.fallback = cl.internalError
	}

	if cfg.Registerer != nil {
		cl.responses = registerErrorCounter(cfg.Registerer)
	}

	return cl
}

// Middleware runs the handler chain, then answers the last recorded error.
// Handlers and middleware report failures with c.Error(err) and return.
func (cl *Classifier) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		for _, ge := range c.Errors {
			if errors.Is(ge.Err, dto.ErrHandled) {
				return
			}
		}

		cl.Respond(c, c.Errors.Last().Err)
	}
}

// Respond writes the envelope for err. It writes at most one response.
func (cl *Classifier) Respond(c *gin.Context, err error) {
	if err == nil {
		return
	}

	cls, matched := cl.Classify(err)
	if matched && cls.Suppress {
		return
	}

	ctx := c.Request.Context()
	logger := logging.FromContext(ctx)

	if c.Writer.Written() {
		logger.WarnContext(ctx, "response already written, dropping error", slog.String("error", err.Error()))
		return
	}

	if !matched {
		cl.count("unclassified", dto.FamilyUnknown)
		telemetry.AnnotateResponse(ctx, int(dto.CodeInternal), "fallback")
		cl.fallback(c, err)

		return
	}

	status := cls.HTTPStatus
	if override, ok := cl.overrides[cls.Code]; ok {
		status = override
	}

	if status == 0 {
		status = cls.Code.HTTPStatus()
	}

	logger.DebugContext(ctx, "request rejected",
		slog.Int("status_code", int(cls.Code)),
		slog.Int("http_status", status),
		slog.String("error", err.Error()),
	)

	cl.count(cls.Code.String(), dto.FamilyOf(cls.Code))
	telemetry.AnnotateResponse(ctx, int(cls.Code), cls.Rule)
	cl.render.Error(c, dto.BuildError(cls.Code, cls.Message,
		dto.WithHTTPStatus(status),
		dto.WithErrorFields(cls.ErrorFields),
	))
}

// Classify applies the rules to err. A rule that panics sends the error to
// the fallback.
func (cl *Classifier) Classify(err error) (cls Classification, matched bool) {
	current := ""

	defer func() {
		if r := recover(); r != nil {
			cl.logger.Error("error classification rule panicked",
				slog.String("rule", current),
				slog.Any("panic", r),
			)

			cls, matched = Classification{}, false
		}
	}()

	for _, rule := range cl.rules {
		current = rule.Name
		if rule.Match(err) {
			cls = rule.Classify(err)
			cls.Rule = rule.Name

			return cls, true
		}
	}

	return Classification{}, false
}

// internalError is the default fallback. Unknown errors get a generic
// message to avoid leaking internals.
func (cl *Classifier) internalError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	logging.FromContext(ctx).ErrorContext(ctx, "internal error",
		slog.String("error", err.Error()),
		slog.String("trace_id", telemetry.TraceID(ctx)),
	)

	cl.render.Error(c, dto.BuildError(dto.CodeInternal, dto.CodeInternal.Message(),
		dto.WithHTTPStatus(dto.CodeInternal.HTTPStatus()),
	))
}

func (cl *Classifier) count(code string, family dto.Family) {
	if cl.responses == nil {
		return
	}

	cl.responses.WithLabelValues(code, string(family)).Inc()
}

func registerErrorCounter(reg prometheus.Registerer) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "account_gateway_error_responses_total",
		Help: "Error responses emitted, by application code and family.",
	}, []string{"code", "family"})

	if err := reg.Register(counter); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}

		return nil
	}

	return counter
}

// DefaultRules is the classification table. Order matters: specific
// variants come before the sentinels they unwrap to.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "handled_already",
			Match:    func(err error) bool { return errors.Is(err, dto.ErrHandled) },
			Classify: func(error) Classification { return Classification{Suppress: true} },
		},
		{
			Name:     "record_not_found",
			Match:    matchAs[*domain.NotFoundError],
			Classify: classifyNotFound,
		},
		{
			Name:  "missing_parameters",
			Match: matchAs[*domain.MissingParametersError],
			Classify: func(err error) Classification {
				missing := asErr[*domain.MissingParametersError](err)

				return Classification{
					Code:        dto.CodeEmptyParams,
					Message:     dto.CodeEmptyParams.Message(),
					ErrorFields: map[string]any{"missingParameters": missing.Names},
				}
			},
		},
		{
			Name: "duplicate_linked_record",
			Match: func(err error) bool {
				var dup *domain.DuplicateRecordError
				return errors.As(err, &dup) && dup.Linked()
			},
			Classify: func(err error) Classification {
				dup := asErr[*domain.DuplicateRecordError](err)

				msg := dto.CodeDuplicateLinkedRecord.Message()
				if dup.Provider != "" {
					msg = dup.Provider + " account has been linked before"
				}

				return Classification{Code: dto.CodeDuplicateLinkedRecord, Message: msg}
			},
		},
		{
			Name:  "duplicate_record",
			Match: matchAs[*domain.DuplicateRecordError],
			Classify: func(error) Classification {
				return Classification{Code: dto.CodeDuplicateRecord, Message: dto.CodeDuplicateRecord.Message()}
			},
		},
		{
			Name:  "validation_failed",
			Match: matchAs[*domain.ValidationError],
			Classify: func(err error) Classification {
				verr := asErr[*domain.ValidationError](err)

				return Classification{
					Code:        dto.CodeUnprocessableEntity,
					Message:     dto.CodeUnprocessableEntity.Message(),
					ErrorFields: map[string]any{"fullMessages": verr.FullMessages()},
				}
			},
		},
		{
			Name:  "invalid_third_party_token",
			Match: matchAs[*domain.InvalidThirdPartyTokenError],
			Classify: func(err error) Classification {
				invalid := asErr[*domain.InvalidThirdPartyTokenError](err)

				msg := dto.CodeInvalidThirdPartyToken.Message()
				if invalid.Provider != "" {
					msg = fmt.Sprintf("Invalid %s token", invalid.Provider)
				}

				return Classification{Code: dto.CodeInvalidThirdPartyToken, Message: msg}
			},
		},
		sentinelRule("invalid_password", domain.ErrInvalidPassword, dto.CodeInvalidPassword),
		sentinelRule("user_not_verified", domain.ErrUserNotVerified, dto.CodeUnverified),
		sentinelRule("access_token_expired", oauth.ErrTokenExpired, dto.CodeExpiredToken),
		sentinelRule("invalid_access_token", oauth.ErrInvalidToken, dto.CodeInvalidAccessToken),
		sentinelRule("bad_request", dto.ErrBinding, dto.CodeBadRequest),
	}
}

func classifyNotFound(err error) Classification {
	nf := asErr[*domain.NotFoundError](err)

	code := dto.CodeRecordNotFound
	switch nf.By {
	case domain.LookupByEmail:
		code = dto.CodeRecordNotFoundByEmail
	case domain.LookupByID:
		code = dto.CodeRecordNotFoundByID
	}

	entity := nf.Entity
	if entity == "" {
		entity = "Record"
	}

	return Classification{Code: code, Message: entity + " record is not found"}
}

func sentinelRule(name string, sentinel error, code dto.StatusCode) Rule {
	return Rule{
		Name:  name,
		Match: func(err error) bool { return errors.Is(err, sentinel) },
		Classify: func(error) Classification {
			return Classification{Code: code, Message: code.Message()}
		},
	}
}

func matchAs[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

func asErr[T error](err error) T {
	var target T
	_ = errors.As(err, &target)

	return target
}
