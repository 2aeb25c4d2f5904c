package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ActivateAccountMessage struct {
	Code       string `json:"code" doc:"Activation code delivered in the signup notification."`
	OnResponse func(a *ActivateAccountResponse)
}

func (e ActivateAccountMessage) Type() string { return "account.activate" }

type ActivateAccountResponse struct {
	Found     bool     `json:"found" doc:"Has an account holding the code been found?"`
	Activated bool     `json:"activated" doc:"Is the account active after the call?"`
	Account   *Account `json:"account,omitempty"`
}

// ActivateAccountHandler consumes activation codes: it resolves the pending
// account holding the code and runs the pending to active transition.
type ActivateAccountHandler struct {
	repo     RepositoryManager
	cfg      Config
	notifier Notifier
}

// NewActivateAccountHandler will create a new ActivateAccountHandler
func NewActivateAccountHandler(repo RepositoryManager, cfg Config, notifier Notifier) *ActivateAccountHandler {
	return &ActivateAccountHandler{
		repo:     repo,
		cfg:      cfg,
		notifier: normalizeNotifier(notifier),
	}
}

func (h *ActivateAccountHandler) Execute(ctx context.Context, event ActivateAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account activation")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ActivateAccountHandler) execute(ctx context.Context, event ActivateAccountMessage) error {
	resp := &ActivateAccountResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Code == "" {
		return goerrors.New("missing activation code", goerrors.CategoryBadInput)
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		store := h.repo.Accounts().WithTx(tx)

		account, err := store.FindByActivationCode(ctx, event.Code)
		if err != nil {
			// an unknown code is part of the expected flow, not an application error
			if goerrors.IsNotFound(err) {
				resp.Found = false
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for activation")
		}

		resp.Found = true

		workflow := NewActivationWorkflow(store, h.cfg, WithWorkflowNotifier(h.notifier))
		if err := workflow.Activate(ctx, account); err != nil {
			return err
		}

		resp.Activated = account.IsActivated()
		resp.Account = account

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to execute account activation")
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
