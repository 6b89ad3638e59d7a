package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/quizbank/internal/bank"
	"github.com/mind-engage/quizbank/internal/question"
	syncx "github.com/mind-engage/quizbank/internal/sync"
)

// EventSink receives audit events; a nil sink drops them.
type EventSink interface {
	Record(ctx context.Context, typ, key string, data any) error
}

func record(ctx context.Context, ev EventSink, typ, key string, data any) {
	if ev == nil {
		return
	}
	if err := ev.Record(ctx, typ, key, data); err != nil {
		log.Printf("event %s %s: %v", typ, key, err)
	}
}

// storeError maps store sentinels onto HTTP statuses.
func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bank.ErrQuizNotFound):
		http.Error(w, "quiz not found", http.StatusNotFound)
	case errors.Is(err, bank.ErrQuestionNotFound):
		http.Error(w, "question not found", http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// POST /quizzes  { "id": "...", "title": "..." }
func CreateQuizHandler(store bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q bank.Quiz
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(q); err != nil {
			http.Error(w, validationMessage(err), http.StatusBadRequest)
			return
		}
		if err := store.PutQuiz(r.Context(), q); err != nil {
			storeError(w, err)
			return
		}
		saved, err := store.GetQuiz(r.Context(), q.ID)
		if err != nil {
			storeError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, saved)
	}
}

// GET /quizzes
func ListQuizzesHandler(store bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := store.ListQuizzes(r.Context())
		if err != nil {
			storeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"data": qs})
	}
}

// GET /quizzes/{quizID}/questions
func ListQuestionsHandler(store bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := store.ListQuestions(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			storeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, question.Envelope{Data: ws})
	}
}

// PUT /quizzes/{quizID}/questions  { "data": [Wire] }
// Records carrying _id are updated, the rest created; the whole batch is
// checked before anything is written.
func SaveQuestionsHandler(store bank.Store, ev EventSink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID := chi.URLParam(r, "quizID")
		var env question.Envelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		for i, wq := range env.Data {
			if err := validate.Struct(wq); err != nil {
				http.Error(w, fmt.Sprintf("data[%d]: %s", i, validationMessage(err)), http.StatusBadRequest)
				return
			}
		}
		saved, err := store.SaveQuestions(r.Context(), quizID, env.Data)
		if err != nil {
			storeError(w, err)
			return
		}
		record(r.Context(), ev, syncx.QuestionsSaved, quizID, map[string]int{"count": len(saved)})
		respondJSON(w, http.StatusOK, question.Envelope{Data: saved})
	}
}

// DELETE /quizzes/{quizID}/questions/{questionID}
func DeleteQuestionHandler(store bank.Store, ev EventSink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID, id := chi.URLParam(r, "quizID"), chi.URLParam(r, "questionID")
		if err := store.DeleteQuestion(r.Context(), quizID, id); err != nil {
			storeError(w, err)
			return
		}
		record(r.Context(), ev, syncx.QuestionDeleted, quizID, map[string]string{"id": id})
		w.WriteHeader(http.StatusNoContent)
	}
}
