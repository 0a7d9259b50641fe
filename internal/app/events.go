package app

import (
	"context"
	"log/slog"
	"time"

	appctx "github.com/jsamuelsen/account-gateway/internal/app/context"
	"github.com/jsamuelsen/account-gateway/internal/domain"
	"github.com/jsamuelsen/account-gateway/internal/platform/logging"
	"github.com/jsamuelsen/account-gateway/internal/ports"
)

// Account event types.
const (
	EventAccountRegistered      = "account.registered"
	EventAccountProvisioned     = "account.provisioned"
	EventAccountLinked          = "account.linked"
	EventAccountUpdated         = "account.updated"
	EventPasswordResetRequested = "account.password_reset_requested"
)

// AccountEvent is published after an account changes.
type AccountEvent struct {
	Type       string
	AccountID  string
	Email      string
	Provider   string
	OccurredAt time.Time
}

// EventType implements ports.Event.
func (e AccountEvent) EventType() string {
	return e.Type
}

// Payload implements ports.Event.
func (e AccountEvent) Payload() any {
	payload := map[string]any{
		"account_id":  e.AccountID,
		"email":       e.Email,
		"occurred_at": e.OccurredAt.UTC().Format(time.RFC3339),
	}

	if e.Provider != "" {
		payload["provider"] = e.Provider
	}

	return payload
}

func newAccountEvent(eventType string, account *domain.Account, provider string) AccountEvent {
	return AccountEvent{
		Type:       eventType,
		AccountID:  account.ID,
		Email:      account.Email,
		Provider:   provider,
		OccurredAt: time.Now().UTC(),
	}
}

// publishAction publishes one event when the request commits.
type publishAction struct {
	publisher ports.EventPublisher
	event     ports.Event
}

func (a *publishAction) Execute(ctx context.Context) error {
	return a.publisher.Publish(ctx, a.event)
}

// Rollback is a no-op: a published event cannot be recalled.
func (a *publishAction) Rollback(context.Context) error {
	return nil
}

func (a *publishAction) Description() string {
	return "publish " + a.event.EventType()
}

// emit stages event on the request context so it is only published once the
// request succeeds. Outside a request it is published immediately. Failures
// are logged; an event never fails the operation that produced it.
func emit(ctx context.Context, publisher ports.EventPublisher, event ports.Event) {
	if publisher == nil {
		return
	}

	action := &publishAction{publisher: publisher, event: event}

	if rc := appctx.FromContext(ctx); rc != nil {
		if err := rc.AddAction(action); err == nil {
			return
		}
	}

	if err := action.Execute(ctx); err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "event not published",
			slog.String("event", event.EventType()),
			slog.String("error", err.Error()),
		)
	}
}
