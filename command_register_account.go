package accounts

import (
	"context"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterAccountMessage struct {
	Login                string `json:"login"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	UseHashid            bool
	OnResponse           func(account *Account)
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

// RegisterAccountHandler creates accounts inside a single transaction.
type RegisterAccountHandler struct {
	repo     RepositoryManager
	cfg      Config
	notifier Notifier
}

// NewRegisterAccountHandler will create a new RegisterAccountHandler
func NewRegisterAccountHandler(repo RepositoryManager, cfg Config, notifier Notifier) *RegisterAccountHandler {
	return &RegisterAccountHandler{
		repo:     repo,
		cfg:      cfg,
		notifier: normalizeNotifier(notifier),
	}
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	account := &Account{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		store := h.repo.Accounts().WithTx(tx)
		registrar := NewRegistrar(store, h.cfg).WithNotifier(h.notifier)

		account.Email = event.Email
		account.Password = event.Password
		account.PasswordConfirmation = event.PasswordConfirmation
		if event.Login != "" {
			account.SetLogin(event.Login)
		}
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				account.ID = id
			}
		}

		if err := registrar.Register(ctx, account); err != nil {
			// field errors flow to the caller untouched
			var verrs validation.Errors
			if errors.As(err, &verrs) {
				return err
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}

		return nil
	})

	if err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			return verrs
		}

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "account registration transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(account)
	}

	return nil
}
