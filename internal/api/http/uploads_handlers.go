package http

import (
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/quizbank/internal/storage"
)

// GET /quizzes/{quizID}/uploads  -> keys of every file imported into the quiz
func ListUploadsHandler(bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys, err := bs.List(path.Join("uploads", chi.URLParam(r, "quizID")))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if keys == nil {
			keys = []string{}
		}
		respondJSON(w, http.StatusOK, map[string]any{"data": keys})
	}
}

// GET /uploads/*  -> the raw bytes of a kept upload
func GetUploadHandler(bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(path.Join("uploads", key))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
	}
}
