package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/social-be/internal/auth"
	"github.com/hongminglow/social-be/internal/logging"
	"github.com/hongminglow/social-be/internal/models"
	"github.com/hongminglow/social-be/internal/storage"
	"github.com/hongminglow/social-be/internal/storage/memory"
)

type testEnv struct {
	store  *memory.Store
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewUserStore()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	NewUserHandler(store, storage.Translator{}, logger, 1<<20).Register(r)
	return &testEnv{store: store, router: r}
}

func (e *testEnv) seed(t *testing.T, name string) models.User {
	t.Helper()
	hashed, salt, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	now := time.Now().UTC()
	u, err := e.store.CreateUser(context.Background(), models.User{
		Name:           name,
		Email:          strings.ToLower(name) + "@x.com",
		HashedPassword: hashed,
		Salt:           salt,
		Created:        now,
		Updated:        now,
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return e.do(t, method, path, bytes.NewReader(body), "application/json")
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func assertNoCredentials(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	body := rec.Body.String()
	assert.NotContains(t, body, "hashed_password")
	assert.NotContains(t, body, "salt")
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, want, decodeMap(t, rec)["error"])
}

func TestCreate_SignupAndDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	payload := map[string]string{"name": "Ann", "email": "ann@x.com", "password": "pw1234"}

	rec := env.doJSON(t, http.MethodPost, "/api/users", payload)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Successfully signed up!"}`, rec.Body.String())

	rec = env.doJSON(t, http.MethodPost, "/api/users", payload)
	assertError(t, rec, "Email already exists")
}

func TestCreate_ValidationMessages(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		payload map[string]string
		want    string
	}{
		{map[string]string{"name": "Ann", "email": "ann@x.com"}, "Password is required"},
		{map[string]string{"name": "Ann", "email": "ann@x.com", "password": "pw"}, "Password must be at least 6 characters."},
		{map[string]string{"email": "ann@x.com", "password": "pw1234"}, "Name is required"},
		{map[string]string{"name": "Ann", "email": "ann", "password": "pw1234"}, "Please fill a valid email address"},
	}
	for _, tc := range tests {
		rec := env.doJSON(t, http.MethodPost, "/api/users", tc.payload)
		assertError(t, rec, tc.want)
	}

	rec := env.do(t, http.MethodPost, "/api/users", strings.NewReader("{"), "application/json")
	assertError(t, rec, "invalid JSON payload")
}

func TestList_ProjectsSummaryFields(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "Ann")
	env.seed(t, "Bob")

	rec := env.do(t, http.MethodGet, "/api/users", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var users []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 2)
	for _, u := range users {
		keys := make([]string, 0, len(u))
		for k := range u {
			keys = append(keys, k)
		}
		assert.ElementsMatch(t, []string{"name", "email", "updated", "created"}, keys)
	}
}

func TestList_EmptyIsArray(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/users", nil, "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestResolveProfile_Errors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/users/"+uuid.NewString(), nil, "")
	assertError(t, rec, "User not found")

	rec = env.do(t, http.MethodGet, "/api/users/not-an-id", nil, "")
	assertError(t, rec, "Could not retrieve user")
}

func TestRead_StripsCredentials(t *testing.T) {
	env := newTestEnv(t)
	ann := env.seed(t, "Ann")

	rec := env.do(t, http.MethodGet, "/api/users/"+ann.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assertNoCredentials(t, rec)

	body := decodeMap(t, rec)
	assert.Equal(t, ann.ID, body["_id"])
	assert.Equal(t, "Ann", body["name"])
	assert.Equal(t, []any{}, body["following"])
	assert.Equal(t, []any{}, body["followers"])
}

func multipartBody(t *testing.T, fields map[string]string, photo []byte, photoType string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if photo != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="photo"; filename="me.png"`)
		h.Set("Content-Type", photoType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUpdate_MergesAllowedFieldsAndPhoto(t *testing.T) {
	env := newTestEnv(t)
	ann := env.seed(t, "Ann")
	photo := []byte("\x89PNG fake image bytes")

	body, contentType := multipartBody(t, map[string]string{
		"name":            "Annie",
		"about":           "hi there",
		"hashed_password": "overwritten",
		"_id":             uuid.NewString(),
	}, photo, "image/png")

	rec := env.do(t, http.MethodPut, "/api/users/"+ann.ID, body, contentType)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertNoCredentials(t, rec)

	out := decodeMap(t, rec)
	assert.Equal(t, ann.ID, out["_id"])
	assert.Equal(t, "Annie", out["name"])
	assert.Equal(t, "hi there", out["about"])

	stored, err := env.store.FindByID(context.Background(), ann.ID)
	require.NoError(t, err)
	assert.Equal(t, ann.HashedPassword, stored.HashedPassword)
	assert.Equal(t, photo, stored.Photo.Data)
	assert.Equal(t, "image/png", stored.Photo.ContentType)
	assert.True(t, !stored.Updated.Before(ann.Updated))

	rec = env.do(t, http.MethodGet, "/api/users/photo/"+ann.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, photo, rec.Body.Bytes())
}

func TestUpdate_PasswordIsRehashed(t *testing.T) {
	env := newTestEnv(t)
	ann := env.seed(t, "Ann")

	form := strings.NewReader("password=newsecret")
	rec := env.do(t, http.MethodPut, "/api/users/"+ann.ID, form, "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := env.store.FindByID(context.Background(), ann.ID)
	require.NoError(t, err)
	assert.NotEqual(t, ann.Salt, stored.Salt)
	assert.Equal(t, auth.Encrypt("newsecret", stored.Salt), stored.HashedPassword)

	rec = env.do(t, http.MethodPut, "/api/users/"+ann.ID, strings.NewReader("password=abc"), "application/x-www-form-urlencoded")
	assertError(t, rec, "Password must be at least 6 characters.")
}

func TestUpdate_MalformedFormLeavesProfileUntouched(t *testing.T) {
	env := newTestEnv(t)
	ann := env.seed(t, "Ann")

	rec := env.do(t, http.MethodPut, "/api/users/"+ann.ID, strings.NewReader("name=Eve"), "multipart/form-data")
	assertError(t, rec, "Photo could not be uploaded")

	stored, err := env.store.FindByID(context.Background(), ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", stored.Name)
	assert.Equal(t, ann.Updated, stored.Updated)
}

func TestUpdate_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ann := env.seed(t, "Ann")
	env.seed(t, "Bob")

	rec := env.do(t, http.MethodPut, "/api/users/"+ann.ID, strings.NewReader("email=bob@x.com"), "application/x-www-form-urlencoded")
	assertError(t, rec, "Email already exists")
}

func TestUpdate_JSONBody(t *testing.T) {
	env := newTestEnv(t)
	ann := env.seed(t, "Ann")

	rec := env.doJSON(t, http.MethodPut, "/api/users/"+ann.ID, map[string]string{
		"name":            "Eve",
		"hashed_password": "overwritten",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertNoCredentials(t, rec)
	assert.Equal(t, "Eve", decodeMap(t, rec)["name"])

	stored, err := env.store.FindByID(context.Background(), ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "Eve", stored.Name)
	assert.Equal(t, ann.Email, stored.Email)
	assert.Equal(t, ann.HashedPassword, stored.HashedPassword)

	rec = env.do(t, http.MethodPut, "/api/users/"+ann.ID, strings.NewReader(`{"name":`), "application/json")
	assertError(t, rec, "Photo could not be uploaded")

	stored, err = env.store.FindByID(context.Background(), ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "Eve", stored.Name)
}

func TestPhoto_FallsBackToDefault(t *testing.T) {
	env := newTestEnv(t)
	ann := env.seed(t, "Ann")

	rec := env.do(t, http.MethodGet, "/api/users/photo/"+ann.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, defaultPhoto, rec.Body.Bytes())

	rec = env.do(t, http.MethodGet, "/api/users/defaultphoto", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultPhoto, rec.Body.Bytes())
}

func refIDs(t *testing.T, v any) []string {
	t.Helper()
	list, ok := v.([]any)
	require.True(t, ok, "expected array, got %T", v)
	ids := make([]string, 0, len(list))
	for _, item := range list {
		ref := item.(map[string]any)
		ids = append(ids, ref["_id"].(string))
	}
	return ids
}

func TestFollowAndUnfollow(t *testing.T) {
	env := newTestEnv(t)
	ann := env.seed(t, "Ann")
	bob := env.seed(t, "Bob")

	rec := env.doJSON(t, http.MethodPost, "/api/users/follow", map[string]string{"userId": ann.ID, "followId": bob.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertNoCredentials(t, rec)

	target := decodeMap(t, rec)
	assert.Equal(t, bob.ID, target["_id"])
	assert.Equal(t, []string{ann.ID}, refIDs(t, target["followers"]))
	assert.Empty(t, refIDs(t, target["following"]))

	rec = env.do(t, http.MethodGet, "/api/users/"+ann.ID, nil, "")
	assert.Equal(t, []string{bob.ID}, refIDs(t, decodeMap(t, rec)["following"]))

	rec = env.doJSON(t, http.MethodPost, "/api/users/unfollow", map[string]string{"userId": ann.ID, "unfollowId": bob.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, refIDs(t, decodeMap(t, rec)["followers"]))

	rec = env.do(t, http.MethodGet, "/api/users/"+ann.ID, nil, "")
	assert.Empty(t, refIDs(t, decodeMap(t, rec)["following"]))
}

func TestFollow_FirstPhaseOnlyIsOneSided(t *testing.T) {
	env := newTestEnv(t)
	ann := env.seed(t, "Ann")
	bob := env.seed(t, "Bob")

	require.NoError(t, env.store.AddFollowing(context.Background(), ann.ID, bob.ID))

	rec := env.do(t, http.MethodGet, "/api/users/"+ann.ID, nil, "")
	assert.Equal(t, []string{bob.ID}, refIDs(t, decodeMap(t, rec)["following"]))

	rec = env.do(t, http.MethodGet, "/api/users/"+bob.ID, nil, "")
	assert.Empty(t, refIDs(t, decodeMap(t, rec)["followers"]))
}

func TestFollow_Errors(t *testing.T) {
	env := newTestEnv(t)
	ann := env.seed(t, "Ann")

	rec := env.do(t, http.MethodPost, "/api/users/follow", strings.NewReader("nope"), "application/json")
	assertError(t, rec, "invalid JSON payload")

	rec = env.doJSON(t, http.MethodPost, "/api/users/follow", map[string]string{"userId": uuid.NewString(), "followId": ann.ID})
	assertError(t, rec, "User not found")

	// the requester side is written before the unknown target fails
	missing := uuid.NewString()
	rec = env.doJSON(t, http.MethodPost, "/api/users/follow", map[string]string{"userId": ann.ID, "followId": missing})
	assertError(t, rec, "User not found")

	rec = env.doJSON(t, http.MethodPost, "/api/users/unfollow", map[string]string{"userId": ann.ID, "unfollowId": "bad"})
	assertError(t, rec, "Invalid user id")
}

func TestFindPeople_ExcludesSelfAndFollowing(t *testing.T) {
	env := newTestEnv(t)
	ann := env.seed(t, "Ann")
	bob := env.seed(t, "Bob")
	cat := env.seed(t, "Cat")

	rec := env.doJSON(t, http.MethodPost, "/api/users/follow", map[string]string{"userId": ann.ID, "followId": bob.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/users/findpeople/"+ann.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var people []models.Person
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &people))
	assert.Equal(t, []models.Person{{ID: cat.ID, Name: "Cat"}}, people)
}

func TestRemove_ThenResolveFails(t *testing.T) {
	env := newTestEnv(t)
	ann := env.seed(t, "Ann")

	rec := env.do(t, http.MethodDelete, "/api/users/"+ann.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assertNoCredentials(t, rec)
	assert.Equal(t, ann.ID, decodeMap(t, rec)["_id"])

	rec = env.do(t, http.MethodGet, "/api/users/"+ann.ID, nil, "")
	assertError(t, rec, "User not found")
}

func TestResolvedProfileIsNotLeakedWithoutMiddleware(t *testing.T) {
	_, ok := profileFrom(context.Background())
	assert.False(t, ok)

	ctx := withProfile(context.Background(), models.User{ID: "x"})
	got, ok := profileFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "x", got.ID)
}

func ExampleUserHandler_Register() {
	r := chi.NewRouter()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	NewUserHandler(memory.NewUserStore(), storage.Translator{}, logger, 1<<20).Register(r)

	body := strings.NewReader(`{"name":"Ann","email":"ann@x.com","password":"pw1234"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/users", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	fmt.Println(rec.Code, strings.TrimSpace(rec.Body.String()))
	// Output: 200 {"message":"Successfully signed up!"}
}
