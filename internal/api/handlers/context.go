package handlers

import (
	"context"
	"net/http"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
)

type userIDKey struct{}

func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext - 0, если запрос анонимный
func UserIDFromContext(ctx context.Context) int {
	id, _ := ctx.Value(userIDKey{}).(int)
	return id
}

// requireUser - id пользователя или ответ 401
func requireUser(w http.ResponseWriter, r *http.Request) (int, bool) {
	id := UserIDFromContext(r.Context())
	if id == 0 {
		WriteError(w, r, entity.ErrInvalidToken)
		return 0, false
	}
	return id, true
}
