package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/social-be/internal/auth"
	"github.com/hongminglow/social-be/internal/http/respond"
	"github.com/hongminglow/social-be/internal/logging"
	"github.com/hongminglow/social-be/internal/models"
	"github.com/hongminglow/social-be/internal/models/dto"
	"github.com/hongminglow/social-be/internal/storage"
)

const (
	msgSignedUp      = "Successfully signed up!"
	msgInvalidJSON   = "invalid JSON payload"
	msgUserNotFound  = "User not found"
	msgCannotRead    = "Could not retrieve user"
	msgPhotoNotSaved = "Photo could not be uploaded"
)

// ErrorTranslator maps store failures to messages safe to return to clients.
type ErrorTranslator interface {
	Message(err error) string
}

// UserHandler owns the profile, photo and follow-graph endpoints.
type UserHandler struct {
	store         storage.UserStore
	errors        ErrorTranslator
	log           logging.Logger
	maxPhotoBytes int64
	now           func() time.Time
}

// NewUserHandler constructs the handler.
func NewUserHandler(store storage.UserStore, translator ErrorTranslator, logger logging.Logger, maxPhotoBytes int64) *UserHandler {
	return &UserHandler{
		store:         store,
		errors:        translator,
		log:           logger.With("component", "users"),
		maxPhotoBytes: maxPhotoBytes,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Register attaches the user routes to the router.
func (h *UserHandler) Register(r chi.Router) {
	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/defaultphoto", h.handleDefaultPhoto)

		r.With(h.decodeFollow, h.addFollowing).Post("/follow", h.handleAddFollower)
		r.With(h.decodeFollow, h.removeFollowing).Post("/unfollow", h.handleRemoveFollower)

		r.With(h.resolveProfile, h.photo).Get("/photo/{userId}", h.handleDefaultPhoto)
		r.With(h.resolveProfile).Get("/findpeople/{userId}", h.handleFindPeople)

		r.Route("/{userId}", func(r chi.Router) {
			r.Use(h.resolveProfile)
			r.Get("/", h.handleRead)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleRemove)
		})
	})
}

func (h *UserHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	if err := models.ValidatePassword(req.Password); err != nil {
		h.fail(w, r, "create user", err)
		return
	}
	hashed, salt, err := auth.HashPassword(req.Password)
	if err != nil {
		h.fail(w, r, "hash password", err)
		return
	}

	now := h.now()
	user := models.User{
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.TrimSpace(req.Email),
		About:          strings.TrimSpace(req.About),
		HashedPassword: hashed,
		Salt:           salt,
		Created:        now,
		Updated:        now,
	}
	created, err := h.store.CreateUser(r.Context(), user)
	if err != nil {
		h.fail(w, r, "create user", err)
		return
	}

	h.log.Info(r.Context(), "user signed up", "user_id", created.ID)
	respond.Message(w, http.StatusOK, msgSignedUp)
}

func (h *UserHandler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, "list users", err)
		return
	}
	if users == nil {
		users = []models.UserSummary{}
	}
	respond.JSON(w, http.StatusOK, users)
}

func (h *UserHandler) handleRead(w http.ResponseWriter, r *http.Request) {
	profile := mustProfile(r)
	respond.JSON(w, http.StatusOK, profile.Redacted())
}

func (h *UserHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseProfileForm(w, r)
	if err != nil {
		h.log.Warn(r.Context(), "parse profile form failed", "error", err)
		respond.Error(w, http.StatusBadRequest, msgPhotoNotSaved)
		return
	}

	user := mustProfile(r)
	if err := form.apply(&user); err != nil {
		h.fail(w, r, "update user", err)
		return
	}
	user.Updated = h.now()

	saved, err := h.store.UpdateUser(r.Context(), user)
	if err != nil {
		h.fail(w, r, "update user", err)
		return
	}
	respond.JSON(w, http.StatusOK, saved.Redacted())
}

func (h *UserHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	profile := mustProfile(r)
	if err := h.store.DeleteUser(r.Context(), profile.ID); err != nil {
		h.fail(w, r, "delete user", err)
		return
	}
	h.log.Info(r.Context(), "user deleted", "user_id", profile.ID)
	respond.JSON(w, http.StatusOK, profile.Redacted())
}

func (h *UserHandler) handleFindPeople(w http.ResponseWriter, r *http.Request) {
	profile := mustProfile(r)
	exclude := append(profile.FollowingIDs(), profile.ID)

	people, err := h.store.FindPeople(r.Context(), exclude)
	if err != nil {
		h.fail(w, r, "find people", err)
		return
	}
	if people == nil {
		people = []models.Person{}
	}
	respond.JSON(w, http.StatusOK, people)
}

// fail logs err and answers 400 with the translated message.
func (h *UserHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr),
		errors.Is(err, storage.ErrAlreadyExists),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrInvalidID):
		h.log.Warn(r.Context(), op+" rejected", "error", err)
	default:
		h.log.Error(r.Context(), op+" failed", "error", err)
	}
	respond.Error(w, http.StatusBadRequest, h.errors.Message(err))
}
