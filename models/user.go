package models

import "time"

// AuthUser is the identity projection mirrored from the identity provider.
type AuthUser struct {
	UserID        string  `json:"userId"`
	Email         *string `json:"email"`
	DisplayName   *string `json:"displayName"`
	AvatarURL     *string `json:"avatarUrl"`
	EmailVerified bool    `json:"emailVerified"`
}

// Account is the identity provider's stored record behind an AuthUser.
type Account struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	DisplayName   string    `json:"displayName,omitempty"`
	AvatarURL     string    `json:"avatarUrl,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	Disabled      bool      `json:"disabled"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AuthUser projects the account onto the mirrored identity shape.
func (a Account) AuthUser() AuthUser {
	return AuthUser{
		UserID:        a.ID,
		Email:         optionalString(a.Email),
		DisplayName:   optionalString(a.DisplayName),
		AvatarURL:     optionalString(a.AvatarURL),
		EmailVerified: a.EmailVerified,
	}
}

// ExternalIdentity is a user asserted by a federated sign-in provider.
// Subject is unique within Provider; Email may be empty.
type ExternalIdentity struct {
	Provider    string `json:"provider"`
	Subject     string `json:"subject"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Profile is the remote per-user document holding the synced watchlist.
type Profile struct {
	UserID      string          `json:"-"`
	Email       string          `json:"email"`
	DisplayName string          `json:"displayName"`
	CreatedAt   string          `json:"createdAt"`
	Watchlist   []WatchlistItem `json:"watchlist"`
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
