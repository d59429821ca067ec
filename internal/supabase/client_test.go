package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mind-engage/eduverse/internal/identity"
	"github.com/mind-engage/eduverse/internal/tables"
)

const testKey = "service-key"

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != testKey || r.Header.Get("Authorization") != "Bearer "+testKey {
			t.Errorf("%s %s: missing service credentials", r.Method, r.URL.Path)
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", testKey, 5*time.Second)
}

func TestSelectBuildsPostgRESTQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/lessons" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("course_id") != "eq.7" || q.Get("order") != "position.asc" || q.Get("select") != "*" || q.Get("limit") != "2" {
			t.Errorf("query = %v", q)
		}
		_, _ = io.WriteString(w, `[{"id":1,"position":1,"title":"Intro"}]`)
	})

	rows, err := c.Select(context.Background(), "lessons", tables.Query{
		Filters: []tables.Filter{tables.Eq("course_id", 7)},
		Order:   &tables.Order{Column: "position"},
		Limit:   2,
	})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %v", rows)
	}
	if n, ok := rows[0]["id"].(json.Number); !ok || n.String() != "1" {
		t.Errorf("id decoded as %T %v", rows[0]["id"], rows[0]["id"])
	}
}

func TestUpsertSendsMergePreference(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.URL.Query().Get("on_conflict"); got != "user_id,course_id" {
			t.Errorf("on_conflict = %q", got)
		}
		if p := r.Header.Get("Prefer"); !strings.Contains(p, "resolution=merge-duplicates") || !strings.Contains(p, "return=representation") {
			t.Errorf("Prefer = %q", p)
		}
		var body []map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body) != 1 {
			t.Errorf("body = %v (%v)", body, err)
		}
		_, _ = io.WriteString(w, `[{"user_id":"u1","course_id":"c1","completed_percent":40}]`)
	})

	row, err := c.Upsert(context.Background(), "progress",
		tables.Row{"user_id": "u1", "course_id": "c1", "completed_percent": 40},
		"user_id", "course_id")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if row.String("completed_percent") != "40" {
		t.Errorf("row = %v", row)
	}
}

func TestDeleteRequiresFilter(t *testing.T) {
	c := NewClient("http://unused", testKey, time.Second)
	if err := c.Delete(context.Background(), "courses"); !errors.Is(err, tables.ErrNoFilter) {
		t.Fatalf("want ErrNoFilter, got %v", err)
	}
	if _, err := c.Update(context.Background(), "courses", tables.Row{"bad col": 1}, tables.Eq("id", 1)); !errors.Is(err, tables.ErrInvalidColumn) {
		t.Fatalf("want ErrInvalidColumn, got %v", err)
	}
}

func TestPostgRESTErrorKeepsMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":"23502","message":"null value in column \"title\" violates not-null constraint","details":null,"hint":null}`)
	})
	_, err := c.Insert(context.Background(), "courses", tables.Row{"description": "x"})
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("want *Error, got %T %v", err, err)
	}
	if se.Status != http.StatusBadRequest || se.Code != "23502" {
		t.Errorf("error = %+v", se)
	}
	if !strings.HasPrefix(se.Error(), "null value in column") {
		t.Errorf("message = %q", se.Error())
	}
}

func TestSignInEmailNotConfirmed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("url = %s", r.URL)
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":400,"error_code":"email_not_confirmed","msg":"Email not confirmed"}`)
	})
	_, err := c.SignInWithPassword(context.Background(), "a@b.c", "pw")
	if !errors.Is(err, identity.ErrEmailNotConfirmed) {
		t.Fatalf("want ErrEmailNotConfirmed, got %v", err)
	}
	if err.Error() != "Email not confirmed" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestSignInAndAdminUsers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/auth/v1/token":
			_, _ = io.WriteString(w, `{"access_token":"at","user":{"id":"u1","email":"a@b.c","email_confirmed_at":"2024-05-01T10:00:00.123456Z","user_metadata":{"name":"Ada","role":"instructor"}}}`)
		case r.Method == http.MethodGet && r.URL.Path == "/auth/v1/admin/users":
			_, _ = io.WriteString(w, `{"users":[{"id":"u1","email":"a@b.c","user_metadata":{}}],"aud":"authenticated"}`)
		case r.Method == http.MethodPut && r.URL.Path == "/auth/v1/admin/users/u1":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["email_confirm"] != true {
				t.Errorf("update body = %v", body)
			}
			_, _ = io.WriteString(w, `{"id":"u1","email":"a@b.c"}`)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	sess, err := c.SignInWithPassword(ctx, "a@b.c", "pw")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if sess.AccessToken != "at" || sess.User.Meta("role") != "instructor" || sess.User.EmailConfirmedAt == nil {
		t.Errorf("session = %+v", sess)
	}

	users, err := c.ListUsers(ctx)
	if err != nil || len(users) != 1 {
		t.Fatalf("list users = %v, %v", users, err)
	}
	if _, err := c.UpdateUser(ctx, "u1", identity.UserAttributes{EmailConfirm: true}); err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestSignedURLPrefixesStorageRoot(t *testing.T) {
	var base string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/storage/v1/object/sign/videos/videos/1/lesson-1.mp4" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]int
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["expiresIn"] != 3600 {
			t.Errorf("expiresIn = %v", body)
		}
		_, _ = io.WriteString(w, `{"signedURL":"/object/sign/videos/videos/1/lesson-1.mp4?token=abc"}`)
	})
	base = c.baseURL

	got, err := c.SignedURL(context.Background(), "videos", "videos/1/lesson-1.mp4", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	want := base + "/storage/v1/object/sign/videos/videos/1/lesson-1.mp4?token=abc"
	if got != want {
		t.Errorf("url = %q, want %q", got, want)
	}
}
