package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-pkgz/auth/v2/token"

	"optix/models"
	"optix/services/auth"
)

func TestClaimsUpdaterSignsInFederatedUser(t *testing.T) {
	h := newHarness(t)
	p := h.provider(t)
	p.Start(context.Background())

	var log userLog
	p.Subscribe(log.record)

	update := auth.ClaimsUpdater(p, time.Second)
	claims := token.Claims{User: &token.User{
		ID:      "google_0f3a9c",
		Name:    "Marla Singer",
		Email:   "marla@example.com",
		Picture: "https://example.com/marla.png",
	}}

	out := update.Update(claims)
	if out.User == nil || out.User.ID != "google_0f3a9c" {
		t.Fatalf("claims must pass through unchanged, got %+v", out.User)
	}

	current := p.Current()
	if current == nil || current.Email == nil || *current.Email != "marla@example.com" {
		t.Fatalf("expected marla to be signed in, got %+v", current)
	}
	if !current.EmailVerified {
		t.Fatal("provider-asserted email should be marked verified")
	}
	if _, ok := h.profiles.get(current.UserID); !ok {
		t.Fatal("expected a profile document for the new account")
	}

	update.Update(claims)
	if got := log.snapshot(); len(got) != 2 {
		t.Fatalf("expected initial state plus one sign-in, got %d notifications", len(got))
	}
}

func TestClaimsUpdaterIgnoresHandshakeAndUnknownIDs(t *testing.T) {
	h := newHarness(t)
	p := h.provider(t)
	p.Start(context.Background())

	update := auth.ClaimsUpdater(p, time.Second)
	update.Update(token.Claims{})
	update.Update(token.Claims{User: &token.User{ID: "nounderscore", Email: "x@example.com"}})

	if current := p.Current(); current != nil {
		t.Fatalf("expected no sign-in, got %+v", current)
	}
}

func TestSignInExternalLinksExistingAccount(t *testing.T) {
	h := newHarness(t)
	p := h.provider(t)
	p.Start(context.Background())

	signedUp, err := p.SignUp(context.Background(), "tyler@example.com", "soap-factory", "Tyler")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if err := p.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out: %v", err)
	}

	user, err := p.SignInExternal(context.Background(), models.ExternalIdentity{
		Provider: "google",
		Subject:  "google_77",
		Email:    "Tyler@Example.com",
	})
	if err != nil {
		t.Fatalf("external sign in: %v", err)
	}
	if user.UserID != signedUp.UserID {
		t.Fatalf("expected the existing account %s, got %s", signedUp.UserID, user.UserID)
	}
	if current := p.Current(); current == nil || current.UserID != signedUp.UserID {
		t.Fatalf("expected provider to report the linked user, got %+v", current)
	}

	if _, err := p.SignInExternal(context.Background(), models.ExternalIdentity{Provider: "google"}); !errors.Is(err, auth.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestNewOAuthRequiresCredentials(t *testing.T) {
	h := newHarness(t)
	p := h.provider(t)

	if _, err := auth.NewOAuth(auth.OAuthConfig{Secret: "s", PublicURL: "http://localhost:7788"}, p); err == nil {
		t.Fatal("expected an error without client credentials")
	}
	if _, err := auth.NewOAuth(auth.OAuthConfig{GoogleClientID: "id", GoogleClientSecret: "secret", PublicURL: "http://localhost:7788"}, p); err == nil {
		t.Fatal("expected an error without a signing secret")
	}
}

func TestOAuthLoginRedirectsToGoogle(t *testing.T) {
	h := newHarness(t)
	p := h.provider(t)

	oauth, err := auth.NewOAuth(auth.OAuthConfig{
		PublicURL:          "http://localhost:7788",
		Secret:             "test-secret-with-enough-entropy",
		GoogleClientID:     "client-id",
		GoogleClientSecret: "client-secret",
	}, p)
	if err != nil {
		t.Fatalf("new oauth: %v", err)
	}

	rec := httptest.NewRecorder()
	oauth.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google/login?site=optix", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "accounts.google.com") || !strings.Contains(loc, "client_id=client-id") {
		t.Fatalf("unexpected redirect %q", loc)
	}
}
