package handlers

import (
	_ "embed"
	"net/http"
)

//go:embed assets/profile-pic.png
var defaultPhoto []byte

const defaultPhotoType = "image/png"

func (h *UserHandler) handleDefaultPhoto(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", defaultPhotoType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(defaultPhoto)
}

// photo serves the uploaded photo, or falls through when there is none.
func (h *UserHandler) photo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profile := mustProfile(r)
		if !profile.Photo.HasData() {
			next.ServeHTTP(w, r)
			return
		}
		contentType := profile.Photo.ContentType
		if contentType == "" {
			contentType = http.DetectContentType(profile.Photo.Data)
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(profile.Photo.Data)
	})
}
