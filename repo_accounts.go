package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Accounts is the Bun backed record store. It satisfies the core RecordStore
// contract plus the repository surface callers need for administration.
type Accounts interface {
	repository.Repository[*Account]
	RecordStore

	WithTx(tx bun.IDB) Accounts
	FindByActivationCode(ctx context.Context, code string) (*Account, error)
}

type accountsRepo struct {
	repository.Repository[*Account]
	db   *bun.DB
	conn bun.IDB
}

var (
	_ Accounts    = (*accountsRepo)(nil)
	_ RecordStore = (*accountsRepo)(nil)
)

// NewAccountsRepository returns the Bun implementation of the record store.
func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accountsRepo{
		Repository: repo,
		db:         db,
		conn:       db,
	}
}

// WithTx returns a store view bound to the given transaction.
func (a *accountsRepo) WithTx(tx bun.IDB) Accounts {
	clone := *a
	clone.conn = tx
	return &clone
}

func (a *accountsRepo) FindByLogin(ctx context.Context, login string) (*Account, error) {
	return a.findByColumn(ctx, "login", login, true)
}

func (a *accountsRepo) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return a.findByColumn(ctx, "email", email, true)
}

// FindByToken resolves a remember token. Rows whose expiry has passed are
// treated as absent at the query level.
func (a *accountsRepo) FindByToken(ctx context.Context, token string) (*Account, error) {
	record := &Account{}

	err := a.conn.NewSelect().
		Model(record).
		Where("?TableAlias.remember_token = ?", token).
		Where("?TableAlias.remember_token_expires_at > CURRENT_TIMESTAMP").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
				"column": "remember_token",
			})
		}
		return nil, err
	}

	return record, nil
}

func (a *accountsRepo) FindByActivationCode(ctx context.Context, code string) (*Account, error) {
	if code == "" {
		return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
			"column": "activation_code",
		})
	}
	return a.findByColumn(ctx, "activation_code", code, false)
}

// Save inserts new records and updates existing ones. A uniqueness violation
// from the database comes back as the same field-scoped validation error the
// pre-insert check produces.
func (a *accountsRepo) Save(ctx context.Context, account *Account) error {
	if account == nil {
		return ErrNilAccount
	}

	insert := account.IsNew()
	if insert {
		account.ID = uuid.New()
	} else {
		// callers may preset IDs (e.g. hashid derived); only update rows
		// that actually exist
		count, err := a.conn.NewSelect().
			Model((*Account)(nil)).
			Where("?TableAlias.id = ?", account.ID).
			Count(ctx)
		if err != nil {
			return err
		}
		insert = count == 0
	}

	if insert {
		created, err := a.Repository.CreateTx(ctx, a.conn, account)
		if err != nil {
			return mapConstraintError(err)
		}
		*account = *created
		return nil
	}

	_, err := a.Repository.UpdateTx(ctx, a.conn, account, repository.UpdateByID(account.ID.String()))
	if err != nil {
		return mapConstraintError(err)
	}

	return nil
}

// IsUnique reports whether no account holds value in the given column,
// compared case-insensitively.
func (a *accountsRepo) IsUnique(ctx context.Context, field, value string) (bool, error) {
	column, err := accountColumn(field)
	if err != nil {
		return false, err
	}

	count, err := a.conn.NewSelect().
		Model((*Account)(nil)).
		Where(fmt.Sprintf("LOWER(?TableAlias.%s) = LOWER(?)", column), value).
		Count(ctx)

	if err != nil {
		return false, err
	}

	return count == 0, nil
}

func (a *accountsRepo) findByColumn(ctx context.Context, column, value string, fold bool) (*Account, error) {
	record := &Account{}

	q := a.conn.NewSelect().Model(record)
	if fold {
		q = q.Where(fmt.Sprintf("LOWER(?TableAlias.%s) = LOWER(?)", column), value)
	} else {
		q = q.Where(fmt.Sprintf("?TableAlias.%s = ?", column), value)
	}

	if err := q.Limit(1).Scan(ctx); err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
				"column": column,
				"value":  value,
			})
		}
		return nil, err
	}

	return record, nil
}

// accountColumn whitelists the columns uniqueness checks may reference.
func accountColumn(field string) (string, error) {
	switch field {
	case "login", "email", "remember_token", "activation_code":
		return field, nil
	default:
		return "", fmt.Errorf("unknown account column %q", field)
	}
}

func mapConstraintError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") &&
		!strings.Contains(msg, "duplicate key value") &&
		!strings.Contains(msg, "Duplicate entry") {
		return err
	}

	field := "login"
	if strings.Contains(msg, "email") {
		field = "email"
	}

	return FieldError(field, "has already been taken")
}
