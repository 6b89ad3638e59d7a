package http

import (
	"bytes"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/quizbank/internal/bank"
	"github.com/mind-engage/quizbank/internal/qti/export"
	"github.com/mind-engage/quizbank/internal/question"
)

// GET /quizzes/{quizID}/export?format=qti
func ExportQTIHandler(store bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "quizID")
		format := strings.ToLower(r.URL.Query().Get("format"))
		if format == "" {
			format = "qti"
		}
		if format != "qti" {
			http.Error(w, "unsupported format: "+format, http.StatusBadRequest)
			return
		}

		quiz, err := store.GetQuiz(r.Context(), id)
		if err != nil {
			storeError(w, err)
			return
		}
		ws, err := store.ListQuestions(r.Context(), id)
		if err != nil {
			storeError(w, err)
			return
		}
		pkg, err := export.BuildPackage(quiz.Title, question.DecodeAll(ws))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": id + ".zip"}))
		http.ServeContent(w, r, id+".zip", time.Now(), bytes.NewReader(pkg))
	}
}
