// Package authz gates access to shared stores. The checks are pure predicates
// over already-fetched store state; fetching and mutating stay with the
// caller, so every route composes fetch, gate, mutate.
package authz

import (
	"github.com/jottdapp/backend/apperr"
	"github.com/jottdapp/backend/models"
)

var (
	ErrNoAccess      = apperr.New("User does not have access to this store.", apperr.BadRequest())
	ErrNoWriteAccess = apperr.New("User does not have write access to this store.", apperr.BadRequest())
	ErrNotOwner      = apperr.New("Only store owner can delete for all store members.", apperr.BadRequest())
)

// RequireMember fails with ErrNoAccess unless username is a member.
func RequireMember(store models.Store, username string) error {
	if _, ok := store.Members[username]; !ok {
		return ErrNoAccess
	}
	return nil
}

// RequireWrite fails with ErrNoWriteAccess unless username is a member with
// write or owner permission.
func RequireWrite(store models.Store, username string) error {
	member, ok := store.Members[username]
	if !ok || member.Permissions == models.PermissionRead {
		return ErrNoWriteAccess
	}
	return nil
}

// RequireOwner fails with ErrNotOwner unless username is a member with owner
// permission.
func RequireOwner(store models.Store, username string) error {
	member, ok := store.Members[username]
	if !ok || member.Permissions != models.PermissionOwner {
		return ErrNotOwner
	}
	return nil
}
