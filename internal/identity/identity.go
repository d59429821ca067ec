// Package identity is the identity-provider port used by the auth adapter
// and the seeder: admin user management plus password sign-in.
package identity

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

var (
	ErrEmailNotConfirmed  = errors.New("Email not confirmed")
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	ErrUserExists         = errors.New("A user with this email address has already been registered")
	ErrUserNotFound       = errors.New("User not found")
)

type User struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	UserMetadata     map[string]any `json:"user_metadata"`
	CreatedAt        *time.Time     `json:"created_at,omitempty"`
}

// Meta returns a string metadata value, "" when absent or not a string.
func (u User) Meta(key string) string {
	if s, ok := u.UserMetadata[key].(string); ok {
		return s
	}
	return ""
}

type CreateUserParams struct {
	Email        string
	Password     string
	EmailConfirm bool
	UserMetadata map[string]any
}

type UserAttributes struct {
	EmailConfirm bool
}

type Session struct {
	AccessToken string
	User        User
}

type Provider interface {
	CreateUser(ctx context.Context, p CreateUserParams) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id string, attrs UserAttributes) (User, error)
	SignInWithPassword(ctx context.Context, email, password string) (Session, error)
}

var notConfirmedRe = regexp.MustCompile(`(?i)email not confirmed`)

// IsEmailNotConfirmed reports whether a sign-in failed only because the
// account's email has not been confirmed yet.
func IsEmailNotConfirmed(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrEmailNotConfirmed) || notConfirmedRe.MatchString(err.Error())
}

var fold = cases.Fold()

// NormalizeEmail trims and case-folds an address for comparison.
func NormalizeEmail(email string) string {
	return fold.String(strings.TrimSpace(email))
}

func FindByEmail(users []User, email string) (User, bool) {
	want := NormalizeEmail(email)
	for _, u := range users {
		if NormalizeEmail(u.Email) == want {
			return u, true
		}
	}
	return User{}, false
}
