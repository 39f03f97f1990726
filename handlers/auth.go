package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/jottdapp/backend/apperr"
	"github.com/jottdapp/backend/auth"
	"github.com/jottdapp/backend/kv"
	appmw "github.com/jottdapp/backend/middleware"
	"github.com/jottdapp/backend/models"
)

var (
	ErrDuplicateUsername = apperr.New("Username already in use.", apperr.BadRequest())
	ErrInvalidUsername   = apperr.New("Invalid username.", apperr.BadRequest())
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup creates the user and, like login, hands back a session.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !h.decode(w, r, &req) {
		return
	}
	// The username keys member entries in store documents, so it must be a
	// valid field name there.
	if !validFieldKey(req.Username) {
		h.writeError(w, ErrInvalidUsername)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Atomic create; a racing signup with the same username loses here.
	user := models.User{Password: hash, Stores: map[string]string{}}
	err = h.users.Put(r.Context(), req.Username, user)
	if errors.Is(err, kv.ErrExists) {
		h.writeError(w, ErrDuplicateUsername)
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.setSession(w, req.Username, h.session.SignupTTL); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Login checks credentials and hands back a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.resolver.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.setSession(w, user.Username, h.session.LoginTTL); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) setSession(w http.ResponseWriter, username string, ttl time.Duration) error {
	token, err := h.tokens.Issue(username, ttl)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:   appmw.SessionCookie,
		Value:  token,
		Path:   "/",
		MaxAge: int(ttl / time.Second),
	})
	return nil
}
