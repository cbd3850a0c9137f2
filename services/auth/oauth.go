package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	pkgzauth "github.com/go-pkgz/auth/v2"
	"github.com/go-pkgz/auth/v2/avatar"
	"github.com/go-pkgz/auth/v2/logger"
	"github.com/go-pkgz/auth/v2/token"

	"optix/models"
)

// ExternalSigner completes a federated sign-in.
type ExternalSigner interface {
	SignInExternal(ctx context.Context, identity models.ExternalIdentity) (models.AuthUser, error)
}

var _ ExternalSigner = (*LocalProvider)(nil)

const defaultExternalSignInTimeout = 10 * time.Second

// OAuthConfig enables the federated sign-in routes.
type OAuthConfig struct {
	PublicURL          string
	Secret             string
	GoogleClientID     string
	GoogleClientSecret string
	SignInTimeout      time.Duration
}

// Enabled reports whether any provider has client credentials.
func (c OAuthConfig) Enabled() bool {
	return strings.TrimSpace(c.GoogleClientID) != "" && strings.TrimSpace(c.GoogleClientSecret) != ""
}

// OAuth serves /auth/{provider}/login, /auth/{provider}/callback and
// /auth/logout. A completed callback signs the user in on the local provider,
// so listeners see it like any other sign-in.
type OAuth struct {
	service *pkgzauth.Service
}

func NewOAuth(cfg OAuthConfig, signer ExternalSigner) (*OAuth, error) {
	if signer == nil {
		return nil, errors.New("auth: external signer is required")
	}
	if !cfg.Enabled() {
		return nil, errors.New("auth: no oauth provider configured")
	}
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("auth: session secret is required")
	}
	if strings.TrimSpace(cfg.PublicURL) == "" {
		return nil, errors.New("auth: public url is required for oauth callbacks")
	}
	if cfg.SignInTimeout <= 0 {
		cfg.SignInTimeout = defaultExternalSignInTimeout
	}

	service := pkgzauth.NewService(pkgzauth.Opts{
		SecretReader: token.SecretFunc(func(string) (string, error) {
			return cfg.Secret, nil
		}),
		ClaimsUpd:      ClaimsUpdater(signer, cfg.SignInTimeout),
		TokenDuration:  5 * time.Minute,
		CookieDuration: 24 * time.Hour,
		Issuer:         "optix",
		URL:            strings.TrimRight(cfg.PublicURL, "/"),
		AvatarStore:    avatar.NewNoOp(),
		DisableXSRF:    true,
		Logger:         logger.Std,
	})
	service.AddProvider("google", cfg.GoogleClientID, cfg.GoogleClientSecret)

	return &OAuth{service: service}, nil
}

// Handler returns the login and callback routes.
func (o *OAuth) Handler() http.Handler {
	authHandler, _ := o.service.Handlers()
	return authHandler
}

// ClaimsUpdater signs the claimed user in through signer whenever a login
// mints user claims. Handshake claims carry no user and pass through.
func ClaimsUpdater(signer ExternalSigner, timeout time.Duration) token.ClaimsUpdFunc {
	if timeout <= 0 {
		timeout = defaultExternalSignInTimeout
	}
	return func(claims token.Claims) token.Claims {
		if claims.User == nil {
			return claims
		}
		identity, ok := identityFromClaims(*claims.User)
		if !ok {
			log.Printf("[auth] ignoring federated user with unrecognised id %q", claims.User.ID)
			return claims
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := signer.SignInExternal(ctx, identity); err != nil {
			log.Printf("[auth] federated sign-in via %s failed: %v", identity.Provider, err)
		}
		return claims
	}
}

// identityFromClaims splits ids of the form "<provider>_<hash>".
func identityFromClaims(u token.User) (models.ExternalIdentity, bool) {
	provider, rest, ok := strings.Cut(u.ID, "_")
	if !ok || provider == "" || rest == "" {
		return models.ExternalIdentity{}, false
	}
	return models.ExternalIdentity{
		Provider:    provider,
		Subject:     u.ID,
		Email:       u.Email,
		DisplayName: u.Name,
		AvatarURL:   u.Picture,
	}, true
}
