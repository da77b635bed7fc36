package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hongminglow/social-be/internal/http/respond"
	"github.com/hongminglow/social-be/internal/models/dto"
)

// Following and followers are two separate writes. The follow and unfollow
// chains run the requester's side first; if the second write fails the
// requester's list keeps the change and the target's does not.

type followKey struct{}

func (h *UserHandler) decodeFollow(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req dto.FollowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, http.StatusBadRequest, msgInvalidJSON)
			return
		}
		ctx := context.WithValue(r.Context(), followKey{}, req)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func followFrom(r *http.Request) dto.FollowRequest {
	req, _ := r.Context().Value(followKey{}).(dto.FollowRequest)
	return req
}

func (h *UserHandler) addFollowing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := followFrom(r)
		if err := h.store.AddFollowing(r.Context(), req.UserID, req.FollowID); err != nil {
			h.fail(w, r, "add following", err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *UserHandler) handleAddFollower(w http.ResponseWriter, r *http.Request) {
	req := followFrom(r)
	target, err := h.store.AddFollower(r.Context(), req.FollowID, req.UserID)
	if err != nil {
		h.fail(w, r, "add follower", err)
		return
	}
	respond.JSON(w, http.StatusOK, target.Redacted())
}

func (h *UserHandler) removeFollowing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := followFrom(r)
		if err := h.store.RemoveFollowing(r.Context(), req.UserID, req.UnfollowID); err != nil {
			h.fail(w, r, "remove following", err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *UserHandler) handleRemoveFollower(w http.ResponseWriter, r *http.Request) {
	req := followFrom(r)
	target, err := h.store.RemoveFollower(r.Context(), req.UnfollowID, req.UserID)
	if err != nil {
		h.fail(w, r, "remove follower", err)
		return
	}
	respond.JSON(w, http.StatusOK, target.Redacted())
}
