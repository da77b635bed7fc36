package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/social-be/internal/http/respond"
	"github.com/hongminglow/social-be/internal/models"
	"github.com/hongminglow/social-be/internal/storage"
)

type profileKey struct{}

// resolveProfile loads the {userId} route parameter into the request context.
func (h *UserHandler) resolveProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "userId")
		user, err := h.store.FindByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				respond.Error(w, http.StatusBadRequest, msgUserNotFound)
				return
			}
			h.log.Warn(r.Context(), "resolve profile failed", "user_id", id, "error", err)
			respond.Error(w, http.StatusBadRequest, msgCannotRead)
			return
		}
		next.ServeHTTP(w, r.WithContext(withProfile(r.Context(), user)))
	})
}

func withProfile(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, profileKey{}, user)
}

func profileFrom(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(profileKey{}).(models.User)
	return user, ok
}

// mustProfile panics when called outside a resolveProfile chain.
func mustProfile(r *http.Request) models.User {
	user, ok := profileFrom(r.Context())
	if !ok {
		panic("handlers: profile not resolved for " + r.URL.Path)
	}
	return user
}
