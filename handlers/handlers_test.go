package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jottdapp/backend/auth"
	"github.com/jottdapp/backend/config"
	"github.com/jottdapp/backend/kv"
	appmw "github.com/jottdapp/backend/middleware"
	"github.com/jottdapp/backend/models"
)

func newTestHandler(t *testing.T) (*Handler, *kv.Inmem, *kv.Inmem) {
	t.Helper()
	users := kv.NewInmem()
	stores := kv.NewInmem()
	codec := auth.NewCodec([]byte("test-secret"))
	resolver := auth.NewResolver(codec, NewUserStore(users))
	session := config.Session{SignupTTL: 720 * time.Hour, LoginTTL: 24 * time.Hour}
	h := New(users, stores, codec, resolver, session, zerolog.Nop())
	return h, users, stores
}

// asUser attaches a resolved user the way RequireAuth would.
func asUser(req *http.Request, username string) *http.Request {
	return req.WithContext(appmw.WithUser(req.Context(), &auth.User{Username: username}))
}

func postJSON(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request body: %v", err)
	}
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func detailOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshaling body %q: %v", rr.Body.String(), err)
	}
	return body["detail"]
}

func signupUser(t *testing.T, h *Handler, username, password string) {
	t.Helper()
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.Signup).ServeHTTP(rr, postJSON(t, "/api/auth/signup", credentials{Username: username, Password: password}))
	if rr.Code != http.StatusOK {
		t.Fatalf("signup %s: status %d body %s", username, rr.Code, rr.Body.String())
	}
}

func createStore(t *testing.T, h *Handler, username, shortcut, view string) string {
	t.Helper()
	req := asUser(postJSON(t, "/api/store/new", newStoreRequest{View: view, Shortcut: shortcut}), username)
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.NewStore).ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("new store for %s: status %d body %s", username, rr.Code, rr.Body.String())
	}
	var id string
	if err := json.Unmarshal(rr.Body.Bytes(), &id); err != nil {
		t.Fatalf("unmarshaling store id: %v", err)
	}
	return id
}

// addMember injects a member directly into the stored document.
func addMember(t *testing.T, stores *kv.Inmem, storeID, username string, perm models.Permission) {
	t.Helper()
	err := stores.Update(context.Background(), storeID, map[string]any{
		"members." + username: models.Member{Permissions: perm},
	})
	if err != nil {
		t.Fatalf("adding member %s: %v", username, err)
	}
}

// setShortcut records the store under the user's shortcut mapping.
func setShortcut(t *testing.T, users *kv.Inmem, username, shortcut, storeID string) {
	t.Helper()
	err := users.Update(context.Background(), username, map[string]any{
		"stores." + shortcut: storeID,
	})
	if err != nil {
		t.Fatalf("setting shortcut %s for %s: %v", shortcut, username, err)
	}
}

func getUserDoc(t *testing.T, users *kv.Inmem, username string) models.User {
	t.Helper()
	var doc models.User
	if err := users.Get(context.Background(), username, &doc); err != nil {
		t.Fatalf("getting user %s: %v", username, err)
	}
	return doc
}
