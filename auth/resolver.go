package auth

import (
	"context"

	"github.com/jottdapp/backend/apperr"
	"github.com/jottdapp/backend/models"
)

var (
	ErrUnknownUsername = apperr.New("Unkown username.", apperr.BadRequest())
	ErrWrongPassword   = apperr.New("Wrong password.", apperr.BadRequest())
)

// UserStore is the user-lookup collaborator. The bool reports whether the
// user exists; errors are storage faults only.
type UserStore interface {
	Get(ctx context.Context, username string) (models.User, bool, error)
}

// User is a claimed identity. The existence check is memoized on the value,
// so a request that consults it several times hits the store once. The cache
// lives and dies with the request; it is never shared.
type User struct {
	Username string

	store  UserStore
	cached bool
	exists bool
}

func (u *User) Exists(ctx context.Context) (bool, error) {
	if u.cached {
		return u.exists, nil
	}
	_, ok, err := u.store.Get(ctx, u.Username)
	if err != nil {
		return false, err
	}
	u.exists, u.cached = ok, true
	return ok, nil
}

// Resolver turns session tokens and credentials into verified users.
type Resolver struct {
	codec *Codec
	users UserStore
}

func NewResolver(codec *Codec, users UserStore) *Resolver {
	return &Resolver{codec: codec, users: users}
}

// ResolveOptional resolves a raw session token into a verified, existing
// user. A missing, malformed or expired token, a token without a subject, or
// one naming an unknown user all resolve to nil.
func (r *Resolver) ResolveOptional(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}
	claims, ok := r.codec.DecodeUnexpired(token)
	// Signup never issues an empty username, so an empty subject can only
	// come from a foreign token.
	if !ok || claims.Username == "" {
		return nil, nil
	}
	user := &User{Username: claims.Username, store: r.users}
	exists, err := user.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return user, nil
}

// Authenticate checks a username/password pair for the login flow. Fails with
// ErrUnknownUsername or ErrWrongPassword.
func (r *Resolver) Authenticate(ctx context.Context, username, password string) (*User, error) {
	entry, ok, err := r.users.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnknownUsername
	}
	if !CheckPassword(password, entry.Password) {
		return nil, ErrWrongPassword
	}
	return &User{Username: username, store: r.users, cached: true, exists: true}, nil
}
