package auth

import (
	"errors"

	"optix/services/accounts"
)

var (
	ErrEmailInUse          = errors.New("auth: email already in use")
	ErrInvalidEmail        = errors.New("auth: invalid email")
	ErrWeakPassword        = errors.New("auth: weak password")
	ErrUserDisabled        = errors.New("auth: user disabled")
	ErrUserNotFound        = errors.New("auth: user not found")
	ErrWrongPassword       = errors.New("auth: wrong password")
	ErrInvalidCredential   = errors.New("auth: invalid credential")
	ErrTooManyRequests     = errors.New("auth: too many requests")
	ErrOperationNotAllowed = errors.New("auth: operation not allowed")
	ErrSignedOut           = errors.New("auth: no user signed in")
)

// Message maps a provider error onto the text shown to the user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmailInUse):
		return "This email is already registered. Please sign in instead."
	case errors.Is(err, ErrInvalidEmail):
		return "Please enter a valid email address."
	case errors.Is(err, ErrWeakPassword):
		return "Password should be at least 6 characters long."
	case errors.Is(err, ErrUserDisabled):
		return "This account has been disabled."
	case errors.Is(err, ErrUserNotFound):
		return "No account found with this email. Please sign up first."
	case errors.Is(err, ErrWrongPassword):
		return "Incorrect password. Please try again."
	case errors.Is(err, ErrInvalidCredential):
		return "Invalid email or password. Please check your credentials."
	case errors.Is(err, ErrTooManyRequests):
		return "Too many failed attempts. Please try again later."
	case errors.Is(err, ErrOperationNotAllowed):
		return "This sign-in method is not enabled."
	case errors.Is(err, ErrSignedOut):
		return "Please sign in first."
	default:
		return "Authentication failed. Please try again."
	}
}

// translate converts account store errors into provider errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, accounts.ErrEmailInUse):
		return ErrEmailInUse
	case errors.Is(err, accounts.ErrEmailInvalid):
		return ErrInvalidEmail
	case errors.Is(err, accounts.ErrPasswordTooWeak):
		return ErrWeakPassword
	case errors.Is(err, accounts.ErrAccountDisabled):
		return ErrUserDisabled
	case errors.Is(err, accounts.ErrAccountNotFound):
		return ErrUserNotFound
	case errors.Is(err, accounts.ErrPasswordInvalid):
		return ErrWrongPassword
	case errors.Is(err, accounts.ErrIdentityInvalid):
		return ErrInvalidCredential
	default:
		return err
	}
}
