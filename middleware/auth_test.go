package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jottdapp/backend/auth"
	"github.com/jottdapp/backend/models"
)

type fakeUserStore struct {
	users map[string]models.User
}

func (s fakeUserStore) Get(ctx context.Context, username string) (models.User, bool, error) {
	user, ok := s.users[username]
	return user, ok, nil
}

func newResolver() (*auth.Resolver, *auth.Codec) {
	codec := auth.NewCodec([]byte("test-secret"))
	store := fakeUserStore{users: map[string]models.User{
		"alice": {Password: "hash", Stores: map[string]string{}},
	}}
	return auth.NewResolver(codec, store), codec
}

func sessionCookie(token string) *http.Cookie {
	return &http.Cookie{Name: SessionCookie, Value: token}
}

func echoUser(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil {
			t.Error("no user in request context")
			http.Error(w, "no user", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(user.Username))
	})
}

func TestRequireAuth(t *testing.T) {
	resolver, codec := newResolver()

	t.Run("Valid session cookie", func(t *testing.T) {
		handler := RequireAuth(resolver)(echoUser(t))

		token, err := codec.Issue("alice", time.Hour)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		req, _ := http.NewRequest("GET", "/api/store/list", nil)
		req.AddCookie(sessionCookie(token))
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if status := rr.Code; status != http.StatusOK {
			t.Errorf("Handler returned wrong status code: got %v want %v", status, http.StatusOK)
		}
		if body := rr.Body.String(); body != "alice" {
			t.Errorf("context user: got %q want %q", body, "alice")
		}
	})

	unauthorized := func(t *testing.T, rr *httptest.ResponseRecorder) {
		t.Helper()
		if status := rr.Code; status != http.StatusForbidden {
			t.Errorf("Handler returned wrong status code: got %v want %v", status, http.StatusForbidden)
		}
		var body map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshaling body: %v", err)
		}
		if body["detail"] != "unauthorized" {
			t.Errorf("detail: got %q want %q", body["detail"], "unauthorized")
		}
	}

	t.Run("Missing cookie", func(t *testing.T) {
		handler := RequireAuth(resolver)(echoUser(t))

		req, _ := http.NewRequest("GET", "/api/store/list", nil)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)
		unauthorized(t, rr)
	})

	t.Run("Malformed token", func(t *testing.T) {
		handler := RequireAuth(resolver)(echoUser(t))

		req, _ := http.NewRequest("GET", "/api/store/list", nil)
		req.AddCookie(sessionCookie("garbage"))
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)
		unauthorized(t, rr)
	})

	t.Run("Expired token", func(t *testing.T) {
		handler := RequireAuth(resolver)(echoUser(t))

		token, err := codec.Issue("alice", -time.Hour)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		req, _ := http.NewRequest("GET", "/api/store/list", nil)
		req.AddCookie(sessionCookie(token))
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)
		unauthorized(t, rr)
	})

	t.Run("Token for unknown user", func(t *testing.T) {
		handler := RequireAuth(resolver)(echoUser(t))

		token, err := codec.Issue("ghost", time.Hour)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		req, _ := http.NewRequest("GET", "/api/store/list", nil)
		req.AddCookie(sessionCookie(token))
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)
		unauthorized(t, rr)
	})
}
