package account

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mind-engage/eduverse/internal/apperr"
	authmw "github.com/mind-engage/eduverse/internal/auth/middleware"
	"github.com/mind-engage/eduverse/internal/identity"
	"github.com/mind-engage/eduverse/internal/tables"
)

type fakeIDP struct {
	users     []identity.User
	confirmed map[string]bool
	password  string

	signIns, lists, updates int
	createErr               error
	// afterConfirm fails sign-ins of confirmed users
	afterConfirm error
}

func (f *fakeIDP) CreateUser(_ context.Context, p identity.CreateUserParams) (identity.User, error) {
	if f.createErr != nil {
		return identity.User{}, f.createErr
	}
	u := identity.User{ID: "u-new", Email: p.Email, UserMetadata: p.UserMetadata}
	f.users = append(f.users, u)
	return u, nil
}

func (f *fakeIDP) ListUsers(context.Context) ([]identity.User, error) {
	f.lists++
	return f.users, nil
}

func (f *fakeIDP) UpdateUser(_ context.Context, id string, a identity.UserAttributes) (identity.User, error) {
	f.updates++
	if a.EmailConfirm {
		f.confirmed[id] = true
	}
	return identity.User{ID: id}, nil
}

func (f *fakeIDP) SignInWithPassword(_ context.Context, email, password string) (identity.Session, error) {
	f.signIns++
	u, ok := identity.FindByEmail(f.users, email)
	if !ok || password != f.password {
		return identity.Session{}, identity.ErrInvalidCredentials
	}
	if !f.confirmed[u.ID] {
		return identity.Session{}, errors.New("Email not confirmed")
	}
	if f.afterConfirm != nil {
		return identity.Session{}, f.afterConfirm
	}
	return identity.Session{AccessToken: "provider", User: u}, nil
}

// fakeProfiles serves the profiles table; other Store methods are unused.
type fakeProfiles struct {
	tables.Store
	rows      map[string]tables.Row
	failFirst int
	upserts   int
}

func (f *fakeProfiles) Upsert(_ context.Context, _ string, row tables.Row, _ ...string) (tables.Row, error) {
	f.upserts++
	if f.upserts <= f.failFirst {
		return nil, errors.New("profiles: relation not ready")
	}
	f.rows[row.String("id")] = row
	return row, nil
}

func (f *fakeProfiles) Select(_ context.Context, _ string, q tables.Query) ([]tables.Row, error) {
	if r, ok := f.rows[q.Filters[0].Value.(string)]; ok {
		return []tables.Row{r}, nil
	}
	return nil, nil
}

func newService(idp identity.Provider, store tables.Store) *Service {
	return NewService(idp, store, authmw.NewAuthService("test", time.Hour), zerolog.Nop(), time.Millisecond)
}

func TestSignupValidatesAndDefaultsRole(t *testing.T) {
	idp := &fakeIDP{confirmed: map[string]bool{}}
	store := &fakeProfiles{rows: map[string]tables.Row{}}
	s := newService(idp, store)

	_, err := s.Signup(context.Background(), SignupInput{Email: "a@b.c"})
	if apperr.KindOf(err) != apperr.KindInvalidInput || apperr.MessageOf(err) != "Email and password required" {
		t.Fatalf("want invalid input, got %v", err)
	}

	res, err := s.Signup(context.Background(), SignupInput{Email: "a@b.c", Password: "pw", Name: "Ada"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if res.Role != "student" || res.ID != "u-new" {
		t.Errorf("result = %+v", res)
	}
	if store.rows["u-new"].String("role") != "student" {
		t.Errorf("profile = %v", store.rows["u-new"])
	}
}

func TestSignupRetriesProfileExactlyOnce(t *testing.T) {
	cases := []struct {
		name      string
		failFirst int
		stored    bool
	}{
		{"first attempt succeeds", 0, true},
		{"retry succeeds", 1, true},
		{"retry fails too", 5, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeProfiles{rows: map[string]tables.Row{}, failFirst: tc.failFirst}
			s := newService(&fakeIDP{confirmed: map[string]bool{}}, store)
			if _, err := s.Signup(context.Background(), SignupInput{Email: "a@b.c", Password: "pw", Role: "instructor"}); err != nil {
				t.Fatalf("signup should not fail on profile errors: %v", err)
			}
			want := 1
			if tc.failFirst > 0 {
				want = 2
			}
			if store.upserts != want {
				t.Errorf("upserts = %d, want %d", store.upserts, want)
			}
			if _, ok := store.rows["u-new"]; ok != tc.stored {
				t.Errorf("stored = %v, want %v", ok, tc.stored)
			}
		})
	}
}

func TestSignupProviderErrorIsVerbatim(t *testing.T) {
	idp := &fakeIDP{createErr: errors.New("A user with this email address has already been registered")}
	s := newService(idp, &fakeProfiles{rows: map[string]tables.Row{}})
	_, err := s.Signup(context.Background(), SignupInput{Email: "a@b.c", Password: "pw"})
	if apperr.StatusOf(err) != http.StatusBadRequest || apperr.MessageOf(err) != idp.createErr.Error() {
		t.Fatalf("got %d %q", apperr.StatusOf(err), apperr.MessageOf(err))
	}
}

func TestLoginConfirmsOnceAndRetries(t *testing.T) {
	idp := &fakeIDP{
		users:     []identity.User{{ID: "u1", Email: "ada@example.com", UserMetadata: map[string]any{"name": "Ada", "role": "student"}}},
		confirmed: map[string]bool{},
		password:  "pw",
	}
	store := &fakeProfiles{rows: map[string]tables.Row{"u1": {"id": "u1", "role": "instructor", "name": "Prof"}}}
	s := newService(idp, store)

	res, err := s.Login(context.Background(), "Ada@Example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if idp.signIns != 2 || idp.lists != 1 || idp.updates != 1 {
		t.Errorf("signIns=%d lists=%d updates=%d", idp.signIns, idp.lists, idp.updates)
	}
	// profile role wins over metadata; metadata name wins over profile name
	if res.User.Role != "instructor" || res.User.Name != "Ada" {
		t.Errorf("user = %+v", res.User)
	}
	c, err := authmw.NewAuthService("test", time.Hour).Parse(res.Token)
	if err != nil || c.Role != "instructor" || c.ID != "u1" {
		t.Fatalf("token claims = %+v, %v", c, err)
	}
}

func TestLoginSurfacesRetryErrorVerbatim(t *testing.T) {
	idp := &fakeIDP{
		users:        []identity.User{{ID: "u1", Email: "ada@example.com"}},
		confirmed:    map[string]bool{},
		password:     "pw",
		afterConfirm: errors.New("Database error granting user"),
	}
	s := newService(idp, &fakeProfiles{rows: map[string]tables.Row{}})

	_, err := s.Login(context.Background(), "ada@example.com", "pw")
	if apperr.StatusOf(err) != http.StatusUnauthorized || apperr.MessageOf(err) != "Database error granting user" {
		t.Fatalf("got %d %q", apperr.StatusOf(err), apperr.MessageOf(err))
	}
	if idp.signIns != 2 || idp.lists != 1 || idp.updates != 1 {
		t.Errorf("signIns=%d lists=%d updates=%d", idp.signIns, idp.lists, idp.updates)
	}
}

func TestLoginWrongPasswordSkipsConfirm(t *testing.T) {
	idp := &fakeIDP{
		users:     []identity.User{{ID: "u1", Email: "ada@example.com"}},
		confirmed: map[string]bool{},
		password:  "pw",
	}
	s := newService(idp, &fakeProfiles{rows: map[string]tables.Row{}})

	_, err := s.Login(context.Background(), "ada@example.com", "wrong")
	if apperr.StatusOf(err) != http.StatusUnauthorized || apperr.MessageOf(err) != "Invalid login credentials" {
		t.Fatalf("got %d %q", apperr.StatusOf(err), apperr.MessageOf(err))
	}
	if idp.signIns != 1 || idp.updates != 0 {
		t.Errorf("bad password should not trigger confirm: signIns=%d updates=%d", idp.signIns, idp.updates)
	}
}

func TestLoginDefaultsRoleToStudent(t *testing.T) {
	idp := &fakeIDP{
		users:     []identity.User{{ID: "u2", Email: "bo@example.com"}},
		confirmed: map[string]bool{"u2": true},
		password:  "pw",
	}
	s := newService(idp, &fakeProfiles{rows: map[string]tables.Row{}})
	res, err := s.Login(context.Background(), "bo@example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.User.Role != "student" || idp.signIns != 1 {
		t.Errorf("role=%q signIns=%d", res.User.Role, idp.signIns)
	}
}

func TestProfileOverlaysStoredRole(t *testing.T) {
	store := &fakeProfiles{rows: map[string]tables.Row{"u1": {"id": "u1", "role": "admin", "name": "Stored"}}}
	s := newService(&fakeIDP{}, store)

	u, err := s.Profile(context.Background(), &authmw.Claims{ID: "u1", Email: "a@b.c", Role: "student"})
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if u.Role != "admin" || u.Name != "Stored" {
		t.Errorf("user = %+v", u)
	}

	u, _ = s.Profile(context.Background(), &authmw.Claims{ID: "ghost", Name: "Claim"})
	if u.Role != "student" || u.Name != "Claim" {
		t.Errorf("fallback user = %+v", u)
	}
}
