// Package auth owns the identity provider and the process-wide mirror of the
// signed-in user.
package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/time/rate"

	"optix/internal/notify"
	"optix/models"
)

// Listener receives the signed-in user, or nil when signed out.
type Listener func(user *models.AuthUser)

// Notifier is the auth-state channel of an identity provider.
type Notifier interface {
	Subscribe(fn Listener) (unsubscribe func())
}

// Provider is the identity provider used by the HTTP surface.
type Provider interface {
	Notifier
	SignIn(ctx context.Context, email, password string) (models.AuthUser, error)
	SignUp(ctx context.Context, email, password, displayName string) (models.AuthUser, error)
	SignOut(ctx context.Context) error
	UpdateProfile(ctx context.Context, displayName, avatarURL string) (models.AuthUser, error)
}

// AccountStore is the credential backend of LocalProvider.
type AccountStore interface {
	Create(ctx context.Context, email, password, displayName string) (models.Account, error)
	Authenticate(ctx context.Context, email, password string) (models.Account, error)
	Get(ctx context.Context, id string) (models.Account, error)
	UpdateProfile(ctx context.Context, id, displayName, avatarURL string) (models.Account, error)
	LinkExternal(ctx context.Context, identity models.ExternalIdentity) (models.Account, bool, error)
}

// ProfileWriter creates the remote profile document on sign-up.
type ProfileWriter interface {
	Create(ctx context.Context, userID string, profile models.Profile) error
}

// Config wires a LocalProvider.
type Config struct {
	Accounts            AccountStore
	Profiles            ProfileWriter
	Fs                  afero.Fs
	StorageDir          string
	SessionSecret       string
	SessionTTL          time.Duration
	ProfileWriteTimeout time.Duration
	SignInRate          rate.Limit
	SignInBurst         int
	Now                 func() time.Time
}

const defaultProfileWriteTimeout = 5 * time.Second

var _ Provider = (*LocalProvider)(nil)

// LocalProvider authenticates against the local account store and keeps the
// session on the device so a restart restores the signed-in user.
type LocalProvider struct {
	accounts            AccountStore
	profiles            ProfileWriter
	sessions            *sessionStore
	profileWriteTimeout time.Duration
	now                 func() time.Time

	limitMu  sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu      sync.RWMutex
	current *models.AuthUser

	publishMu sync.Mutex
	announced bool
	delivered *models.AuthUser
	listeners notify.Hub[*models.AuthUser]
}

func NewLocalProvider(cfg Config) (*LocalProvider, error) {
	if cfg.Accounts == nil {
		return nil, errors.New("auth: account store is required")
	}
	if strings.TrimSpace(cfg.SessionSecret) == "" {
		return nil, errors.New("auth: session secret is required")
	}
	if strings.TrimSpace(cfg.StorageDir) == "" {
		return nil, errors.New("auth: storage directory is required")
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ProfileWriteTimeout <= 0 {
		cfg.ProfileWriteTimeout = defaultProfileWriteTimeout
	}
	if cfg.SignInRate == 0 {
		cfg.SignInRate = rate.Every(12 * time.Second)
	}
	if cfg.SignInBurst <= 0 {
		cfg.SignInBurst = 5
	}

	sessions, err := newSessionStore(cfg.Fs, cfg.StorageDir, []byte(cfg.SessionSecret), cfg.SessionTTL, cfg.Now)
	if err != nil {
		return nil, err
	}

	return &LocalProvider{
		accounts:            cfg.Accounts,
		profiles:            cfg.Profiles,
		sessions:            sessions,
		profileWriteTimeout: cfg.ProfileWriteTimeout,
		now:                 cfg.Now,
		limiters:            make(map[string]*rate.Limiter),
		rate:                cfg.SignInRate,
		burst:               cfg.SignInBurst,
	}, nil
}

// Start restores any persisted session and emits the first notification.
func (p *LocalProvider) Start(ctx context.Context) {
	var user *models.AuthUser

	userID, err := p.sessions.restore()
	switch {
	case errors.Is(err, errNoSession):
	case err != nil:
		log.Printf("[auth] discarding persisted session: %v", err)
		_ = p.sessions.clear()
	default:
		account, err := p.accounts.Get(ctx, userID)
		if err != nil || account.Disabled {
			log.Printf("[auth] session user %s no longer valid", userID)
			_ = p.sessions.clear()
			break
		}
		restored := account.AuthUser()
		user = &restored
		log.Printf("[auth] restored session for %s", userID)
	}

	p.mu.Lock()
	p.setLocked(user)
}

// Current returns the signed-in user, or nil.
func (p *LocalProvider) Current() *models.AuthUser {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneUser(p.current)
}

// Subscribe registers fn for auth-state changes. Once the provider has
// started, fn immediately receives the current user. Listeners run on the
// notifying goroutine and must not call back into the provider.
func (p *LocalProvider) Subscribe(fn Listener) (unsubscribe func()) {
	p.publishMu.Lock()
	defer p.publishMu.Unlock()

	unsubscribe = p.listeners.Subscribe(fn)
	if p.announced {
		fn(cloneUser(p.delivered))
	}
	return unsubscribe
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (models.AuthUser, error) {
	if !p.allow(email) {
		return models.AuthUser{}, ErrTooManyRequests
	}

	account, err := p.accounts.Authenticate(ctx, email, password)
	if err != nil {
		return models.AuthUser{}, translate(err)
	}
	if err := p.sessions.issue(account.ID); err != nil {
		return models.AuthUser{}, err
	}

	user := account.AuthUser()
	log.Printf("[auth] signed in %s", account.ID)
	p.publish(&user)
	return user, nil
}

// SignUp creates the account, writes its profile document and signs the new
// user in. A slow or failing profile write never fails sign-up.
func (p *LocalProvider) SignUp(ctx context.Context, email, password, displayName string) (models.AuthUser, error) {
	account, err := p.accounts.Create(ctx, email, password, displayName)
	if err != nil {
		return models.AuthUser{}, translate(err)
	}

	p.createProfile(ctx, account)

	if err := p.sessions.issue(account.ID); err != nil {
		return models.AuthUser{}, err
	}

	user := account.AuthUser()
	log.Printf("[auth] signed up %s", account.ID)
	p.publish(&user)
	return user, nil
}

// SignInExternal signs in the account bound to a federated identity,
// creating the account and its profile document on first use. Repeating the
// sign-in for the already signed-in user does not notify listeners again.
func (p *LocalProvider) SignInExternal(ctx context.Context, identity models.ExternalIdentity) (models.AuthUser, error) {
	account, created, err := p.accounts.LinkExternal(ctx, identity)
	if err != nil {
		return models.AuthUser{}, translate(err)
	}

	if created {
		p.createProfile(ctx, account)
	}

	user := account.AuthUser()
	if current := p.Current(); current != nil && current.UserID == user.UserID {
		return user, nil
	}

	if err := p.sessions.issue(account.ID); err != nil {
		return models.AuthUser{}, err
	}

	log.Printf("[auth] signed in %s via %s", account.ID, identity.Provider)
	p.publish(&user)
	return user, nil
}

// SignOut clears the session. Signing out while anonymous is a no-op.
func (p *LocalProvider) SignOut(ctx context.Context) error {
	if err := p.sessions.clear(); err != nil {
		return err
	}

	p.mu.RLock()
	signedIn := p.current != nil
	p.mu.RUnlock()
	if !signedIn {
		return nil
	}

	log.Printf("[auth] signed out")
	p.publish(nil)
	return nil
}

// UpdateProfile changes the signed-in user's display name and avatar and
// notifies listeners with the updated identity.
func (p *LocalProvider) UpdateProfile(ctx context.Context, displayName, avatarURL string) (models.AuthUser, error) {
	p.mu.RLock()
	current := cloneUser(p.current)
	p.mu.RUnlock()
	if current == nil {
		return models.AuthUser{}, ErrSignedOut
	}

	account, err := p.accounts.UpdateProfile(ctx, current.UserID, displayName, avatarURL)
	if err != nil {
		return models.AuthUser{}, translate(err)
	}

	user := account.AuthUser()
	log.Printf("[auth] updated profile for %s", account.ID)
	p.publish(&user)
	return user, nil
}

func (p *LocalProvider) createProfile(ctx context.Context, account models.Account) {
	if p.profiles == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.profileWriteTimeout)
	defer cancel()

	profile := models.Profile{
		UserID:      account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		CreatedAt:   p.now().UTC().Format(time.RFC3339Nano),
		Watchlist:   []models.WatchlistItem{},
	}

	done := make(chan error, 1)
	go func() {
		done <- p.profiles.Create(ctx, account.ID, profile)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Printf("[auth] failed to create profile for %s: %v", account.ID, err)
		}
	case <-ctx.Done():
		log.Printf("[auth] profile creation for %s timed out after %s", account.ID, p.profileWriteTimeout)
	}
}

func (p *LocalProvider) allow(email string) bool {
	key := strings.ToLower(strings.TrimSpace(email))

	p.limitMu.Lock()
	defer p.limitMu.Unlock()

	limiter, ok := p.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(p.rate, p.burst)
		p.limiters[key] = limiter
	}
	return limiter.AllowN(p.now(), 1)
}

func (p *LocalProvider) publish(user *models.AuthUser) {
	p.mu.Lock()
	p.setLocked(user)
}

// setLocked replaces the current user and notifies listeners. publishMu is
// taken before the write lock is released so listeners see changes in order.
func (p *LocalProvider) setLocked(user *models.AuthUser) {
	p.current = cloneUser(user)

	p.publishMu.Lock()
	p.mu.Unlock()
	defer p.publishMu.Unlock()

	p.announced = true
	p.delivered = cloneUser(user)
	p.listeners.Publish(cloneUser(user))
}

func cloneUser(user *models.AuthUser) *models.AuthUser {
	if user == nil {
		return nil
	}
	out := *user
	out.Email = cloneString(user.Email)
	out.DisplayName = cloneString(user.DisplayName)
	out.AvatarURL = cloneString(user.AvatarURL)
	return &out
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}
