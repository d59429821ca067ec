package supabase

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mind-engage/eduverse/internal/identity"
)

var _ identity.Provider = (*Client)(nil)

type createUserBody struct {
	Email        string         `json:"email"`
	Password     string         `json:"password"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

func (c *Client) CreateUser(ctx context.Context, p identity.CreateUserParams) (identity.User, error) {
	var u identity.User
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/admin/users",
		body: createUserBody{
			Email:        p.Email,
			Password:     p.Password,
			EmailConfirm: p.EmailConfirm,
			UserMetadata: p.UserMetadata,
		},
	}, &u)
	return u, err
}

// ListUsers returns the first page of users, which is all the seeder and
// the login confirm-retry need.
func (c *Client) ListUsers(ctx context.Context) ([]identity.User, error) {
	var out struct {
		Users []identity.User `json:"users"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/v1/admin/users"}, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, attrs identity.UserAttributes) (identity.User, error) {
	body := map[string]any{}
	if attrs.EmailConfirm {
		body["email_confirm"] = true
	}
	var u identity.User
	err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/auth/v1/admin/users/" + url.PathEscape(id),
		body:   body,
	}, &u)
	return u, err
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (identity.Session, error) {
	var out struct {
		AccessToken string        `json:"access_token"`
		User        identity.User `json:"user"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": email, "password": password},
	}, &out)
	if err != nil {
		return identity.Session{}, err
	}
	return identity.Session{AccessToken: out.AccessToken, User: out.User}, nil
}
