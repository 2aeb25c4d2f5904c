package accounts

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// Registrar runs the account creation flow: allocate a login, validate,
// encrypt the password under a fresh salt, arm the activation workflow, and
// persist. Uniqueness is checked up front as a fast path; the record store's
// own constraint remains the authoritative guard, and a conflict on save
// surfaces as the same field-scoped validation error a pre-check produces.
type Registrar struct {
	store     RecordStore
	cfg       Config
	cipher    *PasswordCipher
	allocator *LoginAllocator
	workflow  *ActivationWorkflow
	logger    Logger
}

// NewRegistrar will create a new Registrar over the given store.
func NewRegistrar(store RecordStore, cfg Config) *Registrar {
	return &Registrar{
		store:     store,
		cfg:       cfg,
		cipher:    NewPasswordCipher(cfg.GetPasswordSecret()),
		allocator: NewLoginAllocator(store),
		workflow:  NewActivationWorkflow(store, cfg),
		logger:    defLogger{},
	}
}

func (r *Registrar) WithLogger(logger Logger) *Registrar {
	if logger != nil {
		r.logger = logger
		r.allocator = r.allocator.WithLogger(logger)
	}
	return r
}

// WithNotifier routes workflow notifications through n.
func (r *Registrar) WithNotifier(n Notifier) *Registrar {
	r.workflow = NewActivationWorkflow(r.store, r.cfg,
		WithWorkflowNotifier(n),
		WithWorkflowLogger(r.logger),
	)
	return r
}

// WithWorkflow overrides the activation workflow.
func (r *Registrar) WithWorkflow(workflow *ActivationWorkflow) *Registrar {
	if workflow != nil {
		r.workflow = workflow
	}
	return r
}

// Workflow returns the ActivationWorkflow instance used by this Registrar
func (r *Registrar) Workflow() *ActivationWorkflow {
	return r.workflow
}

// Register creates the account. An empty Login is derived from the email
// local part; an explicit one is lower-cased and reserved verbatim. The
// plaintext credentials are dropped from the instance once the record is
// persisted.
func (r *Registrar) Register(ctx context.Context, account *Account) error {
	if account == nil {
		return goerrors.New("cannot register a nil account", goerrors.CategoryBadInput)
	}

	var login string
	var err error

	if account.Login != "" {
		login, err = r.allocator.Claim(ctx, account.Login)
	} else {
		login, err = r.allocator.Allocate(ctx, account.Email)
	}
	if err != nil {
		return err
	}
	account.Login = login

	if err := account.Validate(); err != nil {
		return err
	}

	if err := r.encrypt(account); err != nil {
		return err
	}

	r.workflow.OnCreate(ctx, account)

	if err := r.store.Save(ctx, account); err != nil {
		return err
	}

	account.ClearCredentials()

	return nil
}

// encrypt derives the salt once and hashes the staged plaintext under it.
func (r *Registrar) encrypt(account *Account) error {
	if account.Salt == "" {
		salt, err := r.cipher.GenerateSalt()
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate salt")
		}
		account.Salt = salt
	}

	hash, err := r.cipher.Hash(account.Password, account.Salt)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	account.PasswordHash = hash

	return nil
}
