// Package accounts provides the account-authentication core: credential
// verification, salted password hashing, persistent remember-me tokens, and
// the signup/activation lifecycle.
//
// Collaborators:
//   - RecordStore is the persistence contract. The package ships a Bun backed
//     implementation (NewAccountsRepository) but the core only ever talks to
//     the interface, so any store that can find accounts by login, email, or
//     token can back it.
//   - Notifier delivers signup and activation notifications. Dispatch is
//     best-effort: failures are logged and never fail the account transaction.
//   - SessionStore is the web session/cookie layer. RouterSession adapts it to
//     go-router request contexts; servers with their own session handling can
//     implement the four methods directly.
//
// Account lifecycle:
//   - Registrar runs the creation flow: LoginAllocator derives a unique handle
//     from the email local part, PasswordCipher encrypts the password under a
//     per-account salt and the process-wide secret, and ActivationWorkflow
//     arms the pending account with an activation code before the record is
//     persisted.
//   - ActivationWorkflow owns the pending to active transition. Activation is
//     monotonic, sends its notification exactly once, and marks the in-memory
//     instance as recently activated; that flag is never persisted.
//
// Authentication:
//   - Auther answers "is (identifier, secret) valid?" and "is (token) valid?".
//     Unknown identifier, wrong password, and inactive account all collapse to
//     ErrNotAuthenticated so callers cannot probe which condition occurred.
package accounts
