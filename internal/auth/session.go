package auth

import (
	"context"
	"strings"

	"Inventario/internal/history"
)

type ctxKey int

const actorKey ctxKey = iota

// WithActor attaches an authenticated username to ctx.
func WithActor(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, actorKey, username)
}

func ActorFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(actorKey).(string)
	return v, ok && strings.TrimSpace(v) != ""
}

// Session resolves who is acting: a token holder first, then the persisted
// session user, then history.SystemActor.
type Session struct {
	Users *Users
}

func (s *Session) CurrentActor(ctx context.Context) string {
	if a, ok := ActorFromContext(ctx); ok {
		return a
	}
	if s.Users != nil {
		if u := s.Users.CurrentUser(ctx); u != "" {
			return u
		}
	}
	return history.SystemActor
}
