package handlers

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jottdapp/backend/apperr"
	"github.com/jottdapp/backend/auth"
	"github.com/jottdapp/backend/config"
	"github.com/jottdapp/backend/kv"
	"github.com/jottdapp/backend/models"
)

var errInvalidBody = apperr.New("Invalid request body.", apperr.BadRequest())

// Handler carries the collaborators every route needs. Constructed once in
// main; there is no package-level state.
type Handler struct {
	users    kv.Bucket
	stores   kv.Bucket
	tokens   *auth.Codec
	resolver *auth.Resolver
	session  config.Session
	log      zerolog.Logger
}

func New(users, stores kv.Bucket, tokens *auth.Codec, resolver *auth.Resolver, session config.Session, log zerolog.Logger) *Handler {
	return &Handler{
		users:    users,
		stores:   stores,
		tokens:   tokens,
		resolver: resolver,
		session:  session,
		log:      log,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps expected failures to their status and detail; anything else
// is a storage or internal fault, logged and surfaced as a 500.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		h.writeJSON(w, appErr.Code(), map[string]string{"detail": appErr.Message()})
		return
	}
	h.log.Error().Err(err).Msg("internal error")
	h.writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "internal server error"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		h.writeError(w, errInvalidBody)
		return false
	}
	return true
}

// validFieldKey reports whether a user-chosen name may key a document field.
// Field paths split on ".", so a dot inside a name would nest the document
// instead of addressing a single entry.
func validFieldKey(s string) bool {
	return s != "" && !strings.Contains(s, ".")
}

// newID generates the opaque 32-char hex identifier used for stores and notes.
func newID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// kvUsers adapts the users bucket to the resolver's lookup interface.
type kvUsers struct {
	bucket kv.Bucket
}

func NewUserStore(bucket kv.Bucket) auth.UserStore {
	return kvUsers{bucket: bucket}
}

func (s kvUsers) Get(ctx context.Context, username string) (models.User, bool, error) {
	var user models.User
	err := s.bucket.Get(ctx, username, &user)
	if errors.Is(err, kv.ErrNotFound) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, err
	}
	return user, true, nil
}
