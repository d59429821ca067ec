// Package account implements signup, login and profile on top of an
// identity provider and the profiles table.
package account

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mind-engage/eduverse/internal/apperr"
	authmw "github.com/mind-engage/eduverse/internal/auth/middleware"
	"github.com/mind-engage/eduverse/internal/identity"
	"github.com/mind-engage/eduverse/internal/rbac"
	"github.com/mind-engage/eduverse/internal/tables"
)

const profilesTable = "profiles"

type Service struct {
	idp        identity.Provider
	store      tables.Store
	sessions   *authmw.AuthService
	log        zerolog.Logger
	retryDelay time.Duration
}

func NewService(idp identity.Provider, store tables.Store, sessions *authmw.AuthService, log zerolog.Logger, retryDelay time.Duration) *Service {
	return &Service{
		idp:        idp,
		store:      store,
		sessions:   sessions,
		log:        log.With().Str("component", "account").Logger(),
		retryDelay: retryDelay,
	}
}

type SignupInput struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// User is the public view of an account: the session claims minus the
// registered JWT fields.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
}

type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// SignupResult is the provider's user record with the requested role merged in.
type SignupResult struct {
	identity.User
	Role string `json:"role"`
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (SignupResult, error) {
	if in.Email == "" || in.Password == "" {
		return SignupResult{}, apperr.InvalidInput("Email and password required")
	}
	if in.Role == "" {
		in.Role = rbac.RoleStudent
	}

	u, err := s.idp.CreateUser(ctx, identity.CreateUserParams{
		Email:        in.Email,
		Password:     in.Password,
		EmailConfirm: true,
		UserMetadata: map[string]any{"name": in.Name, "role": in.Role},
	})
	if err != nil {
		return SignupResult{}, apperr.Upstream(http.StatusBadRequest, err)
	}

	profile := tables.Row{"id": u.ID, "email": in.Email, "name": in.Name, "role": in.Role}
	if _, err := s.store.Upsert(ctx, profilesTable, profile, "id"); err != nil {
		s.log.Warn().Err(err).Str("user_id", u.ID).Msg("profile upsert failed, retrying once")
		if err := s.sleep(ctx); err != nil {
			return SignupResult{}, err
		}
		if _, err := s.store.Upsert(ctx, profilesTable, profile, "id"); err != nil {
			s.log.Error().Err(err).Str("user_id", u.ID).Msg("profile upsert retry failed")
		}
	}
	s.log.Info().Str("user_id", u.ID).Str("role", in.Role).Msg("account created")
	return SignupResult{User: u, Role: in.Role}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	sess, err := s.idp.SignInWithPassword(ctx, email, password)
	if identity.IsEmailNotConfirmed(err) {
		sess, err = s.confirmAndRetry(ctx, email, password, err)
	}
	if err != nil {
		e := apperr.Unauthorized(err.Error())
		e.Err = err
		return LoginResult{}, e
	}

	u := sess.User
	profile, err := s.readProfile(ctx, u.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", u.ID).Msg("profile read failed")
	}
	role := firstNonEmpty(profile.String("role"), u.Meta("role"), rbac.RoleStudent)
	name := firstNonEmpty(u.Meta("name"), profile.String("name"))

	tok, err := s.sessions.IssueJWT(u.ID, u.Email, name, role)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: tok, User: User{ID: u.ID, Email: u.Email, Name: name, Role: role}}, nil
}

// confirmAndRetry force-confirms the account and signs in again, once. When
// the account cannot be found the original error stands.
func (s *Service) confirmAndRetry(ctx context.Context, email, password string, orig error) (identity.Session, error) {
	users, err := s.idp.ListUsers(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("list users for confirm failed")
		return identity.Session{}, orig
	}
	u, ok := identity.FindByEmail(users, email)
	if !ok {
		return identity.Session{}, orig
	}
	if _, err := s.idp.UpdateUser(ctx, u.ID, identity.UserAttributes{EmailConfirm: true}); err != nil {
		s.log.Warn().Err(err).Str("user_id", u.ID).Msg("force confirm failed")
	}
	return s.idp.SignInWithPassword(ctx, email, password)
}

// Profile overlays the stored role and name onto the caller's claims.
func (s *Service) Profile(ctx context.Context, c *authmw.Claims) (User, error) {
	if c == nil {
		return User{}, apperr.Unauthorized("Unauthorized")
	}
	profile, err := s.readProfile(ctx, c.ID)
	if err != nil {
		s.log.Debug().Err(err).Str("user_id", c.ID).Msg("profile read failed")
	}
	return User{
		ID:    c.ID,
		Email: c.Email,
		Name:  firstNonEmpty(c.Name, profile.String("name")),
		Role:  firstNonEmpty(profile.String("role"), c.Role, rbac.RoleStudent),
	}, nil
}

func (s *Service) readProfile(ctx context.Context, id string) (tables.Row, error) {
	row, err := tables.SelectOne(ctx, s.store, profilesTable, tables.Query{
		Columns: []string{"role", "name"},
		Filters: []tables.Filter{tables.Eq("id", id)},
	})
	if errors.Is(err, tables.ErrNoRows) {
		return tables.Row{}, nil
	}
	if err != nil {
		return tables.Row{}, err
	}
	return row, nil
}

func (s *Service) sleep(ctx context.Context) error {
	if s.retryDelay <= 0 {
		return nil
	}
	t := time.NewTimer(s.retryDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
