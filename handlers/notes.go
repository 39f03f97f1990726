package handlers

import (
	"net/http"

	"github.com/jottdapp/backend/apperr"
	"github.com/jottdapp/backend/authz"
	appmw "github.com/jottdapp/backend/middleware"
	"github.com/jottdapp/backend/models"
)

var ErrNoteNotFound = apperr.New("Note does not exist.", apperr.BadRequest())

// ListNotes returns the store's notes keyed by id. Any member may list.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	user := appmw.UserFromContext(r.Context())
	storeID := r.URL.Query().Get("store_uuid")

	store, err := h.getStore(r.Context(), storeID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := authz.RequireMember(store, user.Username); err != nil {
		h.writeError(w, err)
		return
	}

	items := store.Items
	if items == nil {
		items = map[string]models.Note{}
	}
	h.writeJSON(w, http.StatusOK, items)
}

type newNoteRequest struct {
	StoreUUID string         `json:"store_uuid"`
	Note      map[string]any `json:"note"`
}

// NewNote adds a note to the store and returns its generated id. Requires
// write or owner permission.
func (h *Handler) NewNote(w http.ResponseWriter, r *http.Request) {
	user := appmw.UserFromContext(r.Context())
	var req newNoteRequest
	if !h.decode(w, r, &req) {
		return
	}

	store, err := h.getStore(r.Context(), req.StoreUUID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := authz.RequireWrite(store, user.Username); err != nil {
		h.writeError(w, err)
		return
	}

	id := newID()
	note := models.Note{ID: id, Note: req.Note}
	err = h.stores.Update(r.Context(), req.StoreUUID, map[string]any{"items." + id: note})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, id)
}

type editNoteRequest struct {
	StoreUUID string         `json:"store_uuid"`
	NoteUUID  string         `json:"note_uuid"`
	Note      map[string]any `json:"note"`
}

// EditNote replaces a note's payload. Requires write or owner permission.
func (h *Handler) EditNote(w http.ResponseWriter, r *http.Request) {
	user := appmw.UserFromContext(r.Context())
	var req editNoteRequest
	if !h.decode(w, r, &req) {
		return
	}

	store, err := h.getStore(r.Context(), req.StoreUUID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := authz.RequireWrite(store, user.Username); err != nil {
		h.writeError(w, err)
		return
	}
	if _, ok := store.Items[req.NoteUUID]; !ok {
		h.writeError(w, ErrNoteNotFound)
		return
	}

	note := models.Note{ID: req.NoteUUID, Note: req.Note}
	err = h.stores.Update(r.Context(), req.StoreUUID, map[string]any{"items." + req.NoteUUID: note})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
