package handlers

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/jottdapp/backend/apperr"
	"github.com/jottdapp/backend/authz"
	"github.com/jottdapp/backend/kv"
	appmw "github.com/jottdapp/backend/middleware"
	"github.com/jottdapp/backend/models"
)

var (
	ErrStoreNotFound     = apperr.New("Store does not exist.", apperr.BadRequest())
	ErrDuplicateShortcut = apperr.New("Store with this shortcut already exists.", apperr.BadRequest())
	ErrShortcutNotFound  = apperr.New("User does not have this store.", apperr.BadRequest())
	ErrInvalidShortcut   = apperr.New("Invalid store shortcut.", apperr.BadRequest())
)

// getUser fetches the caller's own document. A missing document for a
// resolved user is storage inconsistency and surfaces as a fault.
func (h *Handler) getUser(ctx context.Context, username string) (models.User, error) {
	var user models.User
	if err := h.users.Get(ctx, username, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (h *Handler) getStore(ctx context.Context, id string) (models.Store, error) {
	var store models.Store
	err := h.stores.Get(ctx, id, &store)
	if errors.Is(err, kv.ErrNotFound) {
		return models.Store{}, ErrStoreNotFound
	}
	if err != nil {
		return models.Store{}, err
	}
	return store, nil
}

type storeInfo struct {
	UUID string `json:"uuid"`
	View string `json:"view"`
}

// ListStores returns every store the user belongs to, keyed by shortcut.
func (h *Handler) ListStores(w http.ResponseWriter, r *http.Request) {
	user := appmw.UserFromContext(r.Context())

	doc, err := h.getUser(r.Context(), user.Username)
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := map[string]storeInfo{}
	for shortcut, id := range doc.Stores {
		var store models.Store
		if err := h.stores.Get(r.Context(), id, &store); err != nil {
			h.writeError(w, err)
			return
		}
		out[shortcut] = storeInfo{UUID: id, View: store.View}
	}
	h.writeJSON(w, http.StatusOK, out)
}

type newStoreRequest struct {
	View     string `json:"view"`
	Shortcut string `json:"shortcut"`
}

// NewStore creates a store with the caller as sole owner and returns its id.
func (h *Handler) NewStore(w http.ResponseWriter, r *http.Request) {
	user := appmw.UserFromContext(r.Context())
	var req newStoreRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !validFieldKey(req.Shortcut) {
		h.writeError(w, ErrInvalidShortcut)
		return
	}

	doc, err := h.getUser(r.Context(), user.Username)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if _, ok := doc.Stores[req.Shortcut]; ok {
		h.writeError(w, ErrDuplicateShortcut)
		return
	}

	id := newID()
	err = h.users.Update(r.Context(), user.Username, map[string]any{
		"stores." + req.Shortcut: id,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	store := models.Store{
		View:  req.View,
		Items: map[string]models.Note{},
		Members: map[string]models.Member{
			user.Username: {Permissions: models.PermissionOwner},
		},
	}
	if err := h.stores.Put(r.Context(), id, store); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, id)
}

type editShortcutRequest struct {
	StoreUUID string `json:"store_uuid"`
	Shortcut  string `json:"shortcut"`
}

// EditShortcut renames the caller's shortcut for a store. The old entry is
// trimmed and the new one set in a single atomic update.
func (h *Handler) EditShortcut(w http.ResponseWriter, r *http.Request) {
	user := appmw.UserFromContext(r.Context())
	var req editShortcutRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !validFieldKey(req.Shortcut) {
		h.writeError(w, ErrInvalidShortcut)
		return
	}

	doc, err := h.getUser(r.Context(), user.Username)
	if err != nil {
		h.writeError(w, err)
		return
	}

	existing, found := "", false
	for shortcut, id := range doc.Stores {
		if id == req.StoreUUID {
			existing, found = shortcut, true
			break
		}
	}
	if !found {
		h.writeError(w, ErrShortcutNotFound)
		return
	}

	fields := map[string]any{"stores." + req.Shortcut: req.StoreUUID}
	if existing != req.Shortcut {
		fields["stores."+existing] = kv.Trim()
	}
	if err := h.users.Update(r.Context(), user.Username, fields); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type deleteStoreRequest struct {
	StoreUUID    string `json:"store_uuid"`
	DeleteForAll bool   `json:"delete_for_all"`
}

// DeleteStore removes the caller from the store, or, for an owner with
// delete_for_all, removes every member. The store document itself goes away
// with its last member.
func (h *Handler) DeleteStore(w http.ResponseWriter, r *http.Request) {
	user := appmw.UserFromContext(r.Context())
	var req deleteStoreRequest
	if !h.decode(w, r, &req) {
		return
	}

	store, err := h.getStore(r.Context(), req.StoreUUID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := authz.RequireMember(store, user.Username); err != nil {
		h.writeError(w, err)
		return
	}

	if req.DeleteForAll {
		if err := authz.RequireOwner(store, user.Username); err != nil {
			h.writeError(w, err)
			return
		}

		// Snapshot the member set; removeMember mutates it.
		members := make([]string, 0, len(store.Members))
		for username := range store.Members {
			members = append(members, username)
		}
		sort.Strings(members)
		for _, username := range members {
			if err := h.removeMember(r.Context(), &store, req.StoreUUID, username); err != nil {
				h.writeError(w, err)
				return
			}
		}
	} else {
		if err := h.removeMember(r.Context(), &store, req.StoreUUID, user.Username); err != nil {
			h.writeError(w, err)
			return
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// removeMember takes the member out of the store, deletes the store when the
// member set empties, and trims the member's own shortcut entry. Removing a
// username that is not a member is a no-op.
func (h *Handler) removeMember(ctx context.Context, store *models.Store, storeID, username string) error {
	if _, ok := store.Members[username]; !ok {
		return nil
	}
	delete(store.Members, username)

	if err := h.stores.Update(ctx, storeID, map[string]any{"members." + username: kv.Trim()}); err != nil {
		return err
	}
	if len(store.Members) == 0 {
		if err := h.stores.Delete(ctx, storeID); err != nil {
			return err
		}
	}

	doc, err := h.getUser(ctx, username)
	if err != nil {
		return err
	}
	for shortcut, id := range doc.Stores {
		if id == storeID {
			if err := h.users.Update(ctx, username, map[string]any{"stores." + shortcut: kv.Trim()}); err != nil {
				return err
			}
			break
		}
	}
	return nil
}
