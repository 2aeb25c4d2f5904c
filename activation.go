package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// ActivationWorkflow drives the pending to active account lifecycle and the
// notifications tied to it. Pending is the initial state, Active is terminal:
// the transition runs exactly once and never reverts.
type ActivationWorkflow struct {
	store        RecordStore
	cfg          Config
	notifier     Notifier
	activitySink ActivitySink
	logger       Logger
	now          func() time.Time
}

// WorkflowOption customizes workflow construction.
type WorkflowOption func(*ActivationWorkflow)

// WithWorkflowClock injects a custom clock (useful for tests).
func WithWorkflowClock(clock func() time.Time) WorkflowOption {
	return func(w *ActivationWorkflow) {
		if clock != nil {
			w.now = clock
		}
	}
}

// WithWorkflowNotifier sets the notification sender.
func WithWorkflowNotifier(n Notifier) WorkflowOption {
	return func(w *ActivationWorkflow) {
		w.notifier = normalizeNotifier(n)
	}
}

// WithWorkflowActivitySink sets the ActivitySink used to publish lifecycle events.
func WithWorkflowActivitySink(sink ActivitySink) WorkflowOption {
	return func(w *ActivationWorkflow) {
		w.activitySink = normalizeActivitySink(sink)
	}
}

// WithWorkflowLogger overrides the logger used for dispatch failures.
func WithWorkflowLogger(logger Logger) WorkflowOption {
	return func(w *ActivationWorkflow) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewActivationWorkflow returns a workflow over the given store and config.
func NewActivationWorkflow(store RecordStore, cfg Config, opts ...WorkflowOption) *ActivationWorkflow {
	w := &ActivationWorkflow{
		store:        store,
		cfg:          cfg,
		notifier:     noopNotifier{},
		activitySink: noopActivitySink{},
		logger:       defLogger{},
		now:          time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}

	return w
}

// OnCreate arms a new pending account: it stores a fresh activation code and
// dispatches the signup notification. When activation is disabled the hook
// does nothing at all: no code, no notification. It runs once, at creation;
// later field updates on the account never re-trigger it, and an account
// that already reached the active state is never demoted back to pending.
// An account already holding a code keeps it; the hook never re-arms.
func (w *ActivationWorkflow) OnCreate(ctx context.Context, account *Account) {
	if account == nil || account.Activated || account.ActivationCode != "" {
		return
	}
	if !w.cfg.GetRequireActivation() {
		return
	}

	account.Activated = false
	account.ActivationCode = uuid.New().String()

	w.notify(ctx, NotificationSignup, w.cfg.GetSignupSubject(), account)
}

// Activate transitions a pending account to active: sets the flag and the
// activation timestamp, clears the code, persists, and dispatches the
// activation notification. The in-memory instance is marked recently
// activated. Calling Activate on an already-active account leaves the state
// untouched and does not re-send the notification.
func (w *ActivationWorkflow) Activate(ctx context.Context, account *Account) error {
	if account == nil {
		return goerrors.New("cannot activate a nil account", goerrors.CategoryBadInput)
	}

	if account.Activated {
		return nil
	}

	code := account.ActivationCode
	now := w.now()
	account.Activated = true
	account.ActivatedAt = &now
	account.ActivationCode = ""

	if err := w.store.Save(ctx, account); err != nil {
		// leave the record re-activatable
		account.Activated = false
		account.ActivatedAt = nil
		account.ActivationCode = code
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist account activation")
	}

	account.recentlyActivated = true

	w.notify(ctx, NotificationActivation, w.cfg.GetActivationSubject(), account)
	w.emit(ctx, account)

	return nil
}

// IsActivated reports whether the account reached the active state.
func (w *ActivationWorkflow) IsActivated(account *Account) bool {
	return account != nil && account.IsActivated()
}

// IsRecentlyActivated reports whether this account instance performed the
// activation within the current process.
func (w *ActivationWorkflow) IsRecentlyActivated(account *Account) bool {
	return account != nil && account.RecentlyActivated()
}

func (w *ActivationWorkflow) notify(ctx context.Context, kind NotificationKind, subject string, account *Account) {
	mail := MailParams{
		From:    w.cfg.GetMailFrom(),
		To:      account.Email,
		Subject: subject,
	}

	if err := w.notifier.Dispatch(ctx, kind, mail, account); err != nil {
		w.logger.Error("failed to dispatch notification", "kind", string(kind), "error", err)
	}
}

func (w *ActivationWorkflow) emit(ctx context.Context, account *Account) {
	event := ActivityEvent{
		EventType: ActivityEventAccountActivated,
		Actor:     ActorRef{ID: account.ID.String(), Type: "account"},
		AccountID: account.ID.String(),
		Metadata:  map[string]any{"login": account.Login},
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = w.now()
	}

	if err := w.activitySink.Record(ctx, event); err != nil {
		w.logger.Error("activity sink record error: %v", err)
	}
}
