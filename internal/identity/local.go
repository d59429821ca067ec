package identity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/eduverse/internal/tables"
)

const usersTable = "auth_users"

// Local keeps accounts in the auth_users table. Offline mode only.
type Local struct {
	store tables.Store
	cost  int
	now   func() time.Time
}

type LocalOption func(*Local)

func WithBcryptCost(n int) LocalOption { return func(l *Local) { l.cost = n } }
func WithClock(now func() time.Time) LocalOption {
	return func(l *Local) { l.now = now }
}

func NewLocal(store tables.Store, opts ...LocalOption) *Local {
	l := &Local{store: store, cost: bcrypt.DefaultCost, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Local) CreateUser(ctx context.Context, p CreateUserParams) (User, error) {
	email := NormalizeEmail(p.Email)
	if email == "" || p.Password == "" {
		return User{}, errors.New("email and password are required")
	}
	_, err := tables.SelectOne(ctx, l.store, usersTable, tables.Query{
		Columns: []string{"id"},
		Filters: []tables.Filter{tables.Eq("email", email)},
	})
	switch {
	case err == nil:
		return User{}, ErrUserExists
	case !errors.Is(err, tables.ErrNoRows):
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), l.cost)
	if err != nil {
		return User{}, err
	}
	meta := p.UserMetadata
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return User{}, err
	}

	now := l.now().UTC()
	row := tables.Row{
		"id":            uuid.NewString(),
		"email":         email,
		"password_hash": string(hash),
		"user_metadata": string(metaJSON),
		"created_at":    now.Format(time.RFC3339Nano),
	}
	if p.EmailConfirm {
		row["email_confirmed_at"] = now.Format(time.RFC3339Nano)
	}
	created, err := l.store.Insert(ctx, usersTable, row)
	if err != nil {
		return User{}, err
	}
	if len(created) == 0 {
		return User{}, errors.New("user insert returned no row")
	}
	return toUser(created[0]), nil
}

func (l *Local) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := l.store.Select(ctx, usersTable, tables.Query{
		Columns: []string{"id", "email", "email_confirmed_at", "user_metadata", "created_at"},
		Order:   &tables.Order{Column: "created_at"},
	})
	if err != nil {
		return nil, err
	}
	out := make([]User, 0, len(rows))
	for _, r := range rows {
		out = append(out, toUser(r))
	}
	return out, nil
}

func (l *Local) UpdateUser(ctx context.Context, id string, attrs UserAttributes) (User, error) {
	patch := tables.Row{}
	if attrs.EmailConfirm {
		patch["email_confirmed_at"] = l.now().UTC().Format(time.RFC3339Nano)
	}
	if len(patch) == 0 {
		row, err := tables.SelectOne(ctx, l.store, usersTable, tables.Query{Filters: []tables.Filter{tables.Eq("id", id)}})
		if errors.Is(err, tables.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		if err != nil {
			return User{}, err
		}
		return toUser(row), nil
	}
	rows, err := l.store.Update(ctx, usersTable, patch, tables.Eq("id", id))
	if err != nil {
		return User{}, err
	}
	if len(rows) == 0 {
		return User{}, ErrUserNotFound
	}
	return toUser(rows[0]), nil
}

func (l *Local) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	row, err := tables.SelectOne(ctx, l.store, usersTable, tables.Query{
		Filters: []tables.Filter{tables.Eq("email", NormalizeEmail(email))},
	})
	if errors.Is(err, tables.ErrNoRows) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(row.String("password_hash")), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}
	u := toUser(row)
	if u.EmailConfirmedAt == nil {
		return Session{}, ErrEmailNotConfirmed
	}
	return Session{User: u}, nil
}

func toUser(r tables.Row) User {
	u := User{
		ID:               r.String("id"),
		Email:            r.String("email"),
		EmailConfirmedAt: parseTime(r.String("email_confirmed_at")),
		CreatedAt:        parseTime(r.String("created_at")),
		UserMetadata:     map[string]any{},
	}
	if raw := r.String("user_metadata"); raw != "" {
		_ = json.Unmarshal([]byte(raw), &u.UserMetadata)
	}
	return u
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
