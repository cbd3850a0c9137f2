package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"optix/models"
)

var (
	ErrEmailInvalid    = errors.New("email is invalid")
	ErrEmailInUse      = errors.New("email already registered")
	ErrPasswordTooWeak = errors.New("password does not meet requirements")
	ErrAccountNotFound = errors.New("account not found")
	ErrPasswordInvalid = errors.New("invalid password")
	ErrAccountDisabled = errors.New("account disabled")
	ErrIdentityInvalid = errors.New("external identity is incomplete")
)

// Service persists identity accounts in SQLite.
type Service struct {
	db                *sql.DB
	cost              int
	minPasswordLength int
	now               func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithBcryptCost overrides the hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// WithMinPasswordLength overrides the minimum accepted password length.
func WithMinPasswordLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minPasswordLength = n
		}
	}
}

func NewService(db *sql.DB, opts ...Option) *Service {
	s := &Service{
		db:                db,
		cost:              bcrypt.DefaultCost,
		minPasswordLength: 6,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormaliseEmail trims, lower-cases and validates an address.
func NormaliseEmail(raw string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return "", ErrEmailInvalid
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", ErrEmailInvalid
	}
	return trimmed, nil
}

// ValidatePassword enforces the minimum length.
func (s *Service) ValidatePassword(password string) error {
	if len(password) < s.minPasswordLength {
		return ErrPasswordTooWeak
	}
	return nil
}

// Create registers a new account.
func (s *Service) Create(ctx context.Context, email, password, displayName string) (models.Account, error) {
	email, err := NormaliseEmail(email)
	if err != nil {
		return models.Account{}, err
	}
	if err := s.ValidatePassword(password); err != nil {
		return models.Account{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}

	account := models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(displayName),
		CreatedAt:    s.now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, password_hash, display_name, avatar_url, email_verified, disabled, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, 0, ?)`,
		account.ID, account.Email, account.PasswordHash, account.DisplayName, account.AvatarURL,
		account.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return models.Account{}, ErrEmailInUse
		}
		return models.Account{}, fmt.Errorf("insert account: %w", err)
	}

	return account, nil
}

// Authenticate verifies credentials and returns the account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (models.Account, error) {
	email, err := NormaliseEmail(email)
	if err != nil {
		return models.Account{}, err
	}

	account, err := s.queryOne(ctx, `WHERE email = ?`, email)
	if err != nil {
		return models.Account{}, err
	}
	if account.Disabled {
		return models.Account{}, ErrAccountDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return models.Account{}, ErrPasswordInvalid
	}
	return account, nil
}

// Get returns the account with id.
func (s *Service) Get(ctx context.Context, id string) (models.Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Account{}, ErrAccountNotFound
	}
	return s.queryOne(ctx, `WHERE id = ?`, id)
}

// UpdateProfile sets the display name and avatar.
func (s *Service) UpdateProfile(ctx context.Context, id, displayName, avatarURL string) (models.Account, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET display_name = ?, avatar_url = ? WHERE id = ?`,
		strings.TrimSpace(displayName), strings.TrimSpace(avatarURL), id,
	)
	if err != nil {
		return models.Account{}, fmt.Errorf("update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Account{}, ErrAccountNotFound
	}
	return s.Get(ctx, id)
}

// LinkExternal returns the account bound to a federated identity. An unbound
// identity is attached to the account holding the same email, or to a new
// password-less account. created reports whether an account was inserted.
func (s *Service) LinkExternal(ctx context.Context, identity models.ExternalIdentity) (account models.Account, created bool, err error) {
	provider := strings.ToLower(strings.TrimSpace(identity.Provider))
	subject := strings.TrimSpace(identity.Subject)
	if provider == "" || subject == "" {
		return models.Account{}, false, ErrIdentityInvalid
	}

	var accountID string
	err = s.db.QueryRowContext(ctx,
		`SELECT account_id FROM account_identities WHERE provider = ? AND subject = ?`,
		provider, subject,
	).Scan(&accountID)
	switch {
	case err == nil:
		account, err = s.Get(ctx, accountID)
		if err != nil {
			return models.Account{}, false, err
		}
		if account.Disabled {
			return models.Account{}, false, ErrAccountDisabled
		}
		return account, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return models.Account{}, false, fmt.Errorf("query identity: %w", err)
	}

	email := placeholderEmail(provider, subject)
	if strings.TrimSpace(identity.Email) != "" {
		if email, err = NormaliseEmail(identity.Email); err != nil {
			return models.Account{}, false, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Account{}, false, fmt.Errorf("begin link: %w", err)
	}
	defer tx.Rollback()

	account, err = s.queryOneTx(ctx, tx, `WHERE email = ?`, email)
	switch {
	case errors.Is(err, ErrAccountNotFound):
		account = models.Account{
			ID:            uuid.NewString(),
			Email:         email,
			DisplayName:   strings.TrimSpace(identity.DisplayName),
			AvatarURL:     strings.TrimSpace(identity.AvatarURL),
			EmailVerified: strings.TrimSpace(identity.Email) != "",
			CreatedAt:     s.now().UTC(),
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO accounts (id, email, password_hash, display_name, avatar_url, email_verified, disabled, created_at)
			 VALUES (?, ?, '', ?, ?, ?, 0, ?)`,
			account.ID, account.Email, account.DisplayName, account.AvatarURL, account.EmailVerified,
			account.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return models.Account{}, false, fmt.Errorf("insert account: %w", err)
		}
		created = true
	case err != nil:
		return models.Account{}, false, err
	case account.Disabled:
		return models.Account{}, false, ErrAccountDisabled
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO account_identities (provider, subject, account_id, created_at) VALUES (?, ?, ?, ?)`,
		provider, subject, account.ID, s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return models.Account{}, false, fmt.Errorf("insert identity: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Account{}, false, fmt.Errorf("commit link: %w", err)
	}
	return account, created, nil
}

// placeholderEmail stands in for providers that do not share an address. The
// .invalid TLD never resolves.
func placeholderEmail(provider, subject string) string {
	return strings.ToLower(provider+"-"+subject) + "@users.optix.invalid"
}

// SetDisabled enables or disables sign-in for the account.
func (s *Service) SetDisabled(ctx context.Context, id string, disabled bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE accounts SET disabled = ? WHERE id = ?`, disabled, id)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Service) queryOne(ctx context.Context, where string, arg any) (models.Account, error) {
	return s.queryOneTx(ctx, s.db, where, arg)
}

func (s *Service) queryOneTx(ctx context.Context, q queryer, where string, arg any) (models.Account, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, email, password_hash, display_name, avatar_url, email_verified, disabled, created_at
		 FROM accounts `+where, arg)

	var (
		account   models.Account
		createdAt string
	)
	err := row.Scan(&account.ID, &account.Email, &account.PasswordHash, &account.DisplayName,
		&account.AvatarURL, &account.EmailVerified, &account.Disabled, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("query account: %w", err)
	}

	if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		account.CreatedAt = parsed
	}
	return account, nil
}
