package auth

import "context"

type contextKey struct{}

// AuthContext is the resolved identity for a request. Middleware populates it
// once; workflows take it as an explicit argument instead of looking the
// session up themselves.
type AuthContext struct {
	UserID    int64
	Email     string
	Role      string
	SessionID int64
}

// IsAdmin reports whether the request identity holds the admin role.
func (ac AuthContext) IsAdmin() bool {
	return ac.Role == "admin"
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.IsAdmin()
}
