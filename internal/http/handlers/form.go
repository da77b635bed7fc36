package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/hongminglow/social-be/internal/auth"
	"github.com/hongminglow/social-be/internal/models"
	"github.com/hongminglow/social-be/internal/models/dto"
)

const photoField = "photo"

// profileForm holds the parsed update body. Only name, email, about and
// password are ever copied onto the profile.
type profileForm struct {
	values url.Values
	photo  *models.Photo
}

func (h *UserHandler) parseProfileForm(w http.ResponseWriter, r *http.Request) (profileForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxPhotoBytes)

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err == nil && mediaType == "application/json" {
		return parseProfileJSON(r.Body)
	}
	if err == nil && mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(h.maxPhotoBytes); err != nil {
			return profileForm{}, fmt.Errorf("parse multipart form: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return profileForm{}, fmt.Errorf("parse form: %w", err)
	}

	form := profileForm{values: r.PostForm}
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File[photoField]; len(files) > 0 {
			photo, err := readPhoto(files[0])
			if err != nil {
				return profileForm{}, err
			}
			form.photo = &photo
		}
	}
	return form, nil
}

// parseProfileJSON reads a JSON update body into the same field set as a form.
// JSON bodies cannot carry a photo.
func parseProfileJSON(body io.Reader) (profileForm, error) {
	var req dto.ProfileUpdateRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return profileForm{}, fmt.Errorf("decode profile json: %w", err)
	}

	values := url.Values{}
	for name, v := range map[string]*string{
		"name":     req.Name,
		"email":    req.Email,
		"about":    req.About,
		"password": req.Password,
	} {
		if v != nil {
			values.Set(name, *v)
		}
	}
	return profileForm{values: values}, nil
}

func (f profileForm) field(name string) (string, bool) {
	if _, ok := f.values[name]; !ok {
		return "", false
	}
	return strings.TrimSpace(f.values.Get(name)), true
}

func (f profileForm) apply(u *models.User) error {
	if v, ok := f.field("name"); ok {
		u.Name = v
	}
	if v, ok := f.field("email"); ok {
		u.Email = v
	}
	if v, ok := f.field("about"); ok {
		u.About = v
	}
	if password, ok := f.field("password"); ok && password != "" {
		if err := models.ValidatePassword(password); err != nil {
			return err
		}
		hashed, salt, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		u.HashedPassword, u.Salt = hashed, salt
	}
	if f.photo != nil {
		u.Photo = *f.photo
	}
	return nil
}

func readPhoto(fh *multipart.FileHeader) (models.Photo, error) {
	file, err := fh.Open()
	if err != nil {
		return models.Photo{}, fmt.Errorf("open photo: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return models.Photo{}, fmt.Errorf("read photo: %w", err)
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return models.Photo{Data: data, ContentType: contentType}, nil
}
