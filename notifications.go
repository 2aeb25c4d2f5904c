package accounts

import "context"

// NotificationKind identifies the account notification being dispatched.
type NotificationKind string

const (
	// NotificationSignup asks a pending account holder to activate
	NotificationSignup NotificationKind = "signup"
	// NotificationActivation confirms a completed activation
	NotificationActivation NotificationKind = "activation"
)

// MailParams carries the envelope for a notification.
type MailParams struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, kind NotificationKind, mail MailParams, account *Account) error

// Dispatch implements Notifier.
func (f NotifierFunc) Dispatch(ctx context.Context, kind NotificationKind, mail MailParams, account *Account) error {
	if f == nil {
		return nil
	}
	return f(ctx, kind, mail, account)
}

type noopNotifier struct{}

func (noopNotifier) Dispatch(context.Context, NotificationKind, MailParams, *Account) error {
	return nil
}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// LogNotifier writes notifications to the logger instead of delivering them.
// Development fallback until a real mailer is wired in.
type LogNotifier struct {
	Logger Logger
}

// Dispatch implements Notifier.
func (n LogNotifier) Dispatch(_ context.Context, kind NotificationKind, mail MailParams, _ *Account) error {
	logger := n.Logger
	if logger == nil {
		logger = defLogger{}
	}
	logger.Info("notification %s to=%s subject=%q", string(kind), mail.To, mail.Subject)
	return nil
}
