package sec

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"connectrpc.com/authn"

	"github.com/stolasapp/taskapi/internal/storage"
	"github.com/stolasapp/taskapi/internal/storage/db"
)

// dummyHash is compared against when the user does not exist, so unknown
// usernames take as long to reject as wrong passwords.
var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := HashPassword("not a real password")
	return hash
})

// Authenticate resolves the logged in user from req. If the credentials are
// missing or invalid, an unauthenticated ConnectRPC error is returned; the
// cases are indistinguishable to the caller. Any other error is a storage
// failure.
func Authenticate(ctx context.Context, req *http.Request, store storage.Users) (user db.User, err error) {
	username, password, ok := req.BasicAuth()
	if !ok {
		return user, authn.Errorf("invalid authorization header")
	}
	user, err = store.GetUserByName(ctx, username)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		_ = ComparePassword(password, dummyHash())
		return db.User{}, authn.Errorf("invalid username or password")
	case err != nil:
		return db.User{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if err = ComparePassword(password, user.PasswordHash); err != nil {
		return db.User{}, authn.Errorf("invalid username or password")
	}
	return user, nil
}

// GetAuthenticatedUser returns the user information for the authenticated user.
// Returns a zero-value User if the context has no authenticated user or if
// the stored value is not a User (should only happen if middleware is misconfigured).
func GetAuthenticatedUser(ctx context.Context) db.User {
	if user, ok := authn.GetInfo(ctx).(db.User); ok {
		return user
	}
	return db.User{}
}

// SetAuthenticatedUser sets the user information for an authenticated user.
// The app's auth middleware injects this information; this function is also
// provided as a convenience for testing.
func SetAuthenticatedUser(ctx context.Context, user db.User) context.Context {
	return authn.SetInfo(ctx, user)
}
