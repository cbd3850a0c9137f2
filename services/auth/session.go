package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/afero"
)

// SessionKey names the persisted session record on the local storage medium.
const SessionKey = "optix-session"

var errNoSession = errors.New("no persisted session")

// sessionStore keeps the signed session token for the device.
type sessionStore struct {
	fs     afero.Fs
	path   string
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newSessionStore(fs afero.Fs, dir string, secret []byte, ttl time.Duration, now func() time.Time) (*sessionStore, error) {
	if exists, _ := afero.DirExists(fs, dir); !exists {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
	}
	return &sessionStore{
		fs:     fs,
		path:   filepath.Join(dir, SessionKey),
		secret: secret,
		ttl:    ttl,
		now:    now,
	}, nil
}

// issue signs a token for userID and writes it to disk.
func (s *sessionStore) issue(userID string) error {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:  userID,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, []byte(signed), 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// restore returns the user id of a valid persisted session.
func (s *sessionStore) restore() (string, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", errNoSession
	}
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return "", errNoSession
	}

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidCredential
	}
	return claims.Subject, nil
}

func (s *sessionStore) clear() error {
	if err := s.fs.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
