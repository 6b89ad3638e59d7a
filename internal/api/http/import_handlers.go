package http

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/quizbank/internal/bank"
	"github.com/mind-engage/quizbank/internal/identity"
	"github.com/mind-engage/quizbank/internal/qti"
	"github.com/mind-engage/quizbank/internal/qti/parser"
	"github.com/mind-engage/quizbank/internal/question"
	"github.com/mind-engage/quizbank/internal/sheet"
	"github.com/mind-engage/quizbank/internal/storage"
	syncx "github.com/mind-engage/quizbank/internal/sync"
)

type ImportDeps struct {
	Store          bank.Store
	Blobs          storage.BlobStore
	Events         EventSink
	Matcher        *identity.Matcher
	MaxUploadBytes int64
}

func (d ImportDeps) maxBytes() int64 {
	if d.MaxUploadBytes <= 0 {
		return 10 << 20
	}
	return d.MaxUploadBytes
}

// keep stores the upload under uploads/<quiz>/<kind>/ and returns its key.
func (d ImportDeps) keep(quizID, kind string, up upload) (string, error) {
	if d.Blobs == nil {
		return "", nil
	}
	return d.Blobs.Put(storage.UploadKey(quizID, kind, up.Name, time.Now()), bytes.NewReader(up.Data))
}

// POST /quizzes/{quizID}/questions/import (multipart: file=.csv|.xlsx|.zip)
// Spreadsheets go through the quiz-bank schema; any blocking error returns
// 422 with the report and nothing is created. A .zip is read as a QTI
// package.
func ImportQuestionsHandler(d ImportDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID := chi.URLParam(r, "quizID")
		if _, err := d.Store.GetQuiz(r.Context(), quizID); err != nil {
			storeError(w, err)
			return
		}
		up, code, err := readUpload(w, r, d.maxBytes())
		if err != nil {
			http.Error(w, err.Error(), code)
			return
		}
		isZip := strings.EqualFold(filepath.Ext(up.Name), ".zip")
		if !isZip && !sheet.Supported(up.Name) {
			unsupported(w, up.Name)
			return
		}
		key, err := d.keep(quizID, "questions", up)
		if err != nil {
			http.Error(w, "store upload: "+err.Error(), http.StatusInternalServerError)
			return
		}

		if isZip {
			importQTI(w, r, d, quizID, key, up)
			return
		}

		t, err := sheet.Read(up.Name, bytes.NewReader(up.Data))
		if err != nil {
			http.Error(w, "read sheet: "+err.Error(), http.StatusBadRequest)
			return
		}
		rep := sheet.ValidateQuiz(t)
		if !rep.OK() {
			respondJSON(w, http.StatusUnprocessableEntity, map[string]any{"report": rep, "upload": key})
			return
		}
		created, err := d.Store.CreateQuestions(r.Context(), quizID, sheet.QuizWires(rep.Accepted))
		if err != nil {
			storeError(w, err)
			return
		}
		record(r.Context(), d.Events, syncx.QuestionsImported, quizID,
			map[string]any{"created": len(created), "upload": key})
		respondJSON(w, http.StatusOK, map[string]any{
			"created": len(created),
			"data":    created,
			"report":  rep,
			"upload":  key,
		})
	}
}

// unsupported answers 415 before anything is kept.
func unsupported(w http.ResponseWriter, name string) {
	http.Error(w, fmt.Sprintf("%v: %q", sheet.ErrUnsupportedFormat, filepath.Ext(name)), http.StatusUnsupportedMediaType)
}

func importQTI(w http.ResponseWriter, r *http.Request, d ImportDeps, quizID, key string, up upload) {
	pkg, err := parser.ReadPackage(bytes.NewReader(up.Data), int64(len(up.Data)))
	if err != nil {
		http.Error(w, "qti: "+err.Error(), http.StatusBadRequest)
		return
	}
	qs, skipped := qti.ToQuestions(pkg.Items)
	if len(qs) == 0 {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{"skipped": skipped, "upload": key})
		return
	}
	created, err := d.Store.CreateQuestions(r.Context(), quizID, question.EncodeAll(qs))
	if err != nil {
		storeError(w, err)
		return
	}
	record(r.Context(), d.Events, syncx.QuestionsImported, quizID,
		map[string]any{"created": len(created), "skipped": len(skipped), "upload": key})
	respondJSON(w, http.StatusOK, map[string]any{
		"created": len(created),
		"data":    created,
		"skipped": skipped,
		"upload":  key,
	})
}

// POST /quizzes/{quizID}/roster/import (multipart: file=.csv|.xlsx)
// Every filled row must resolve to a known user; on success the matched
// users are assigned to the quiz.
func ImportRosterHandler(d ImportDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID := chi.URLParam(r, "quizID")
		if _, err := d.Store.GetQuiz(r.Context(), quizID); err != nil {
			storeError(w, err)
			return
		}
		up, code, err := readUpload(w, r, d.maxBytes())
		if err != nil {
			http.Error(w, err.Error(), code)
			return
		}
		if !sheet.Supported(up.Name) {
			unsupported(w, up.Name)
			return
		}
		key, err := d.keep(quizID, "roster", up)
		if err != nil {
			http.Error(w, "store upload: "+err.Error(), http.StatusInternalServerError)
			return
		}
		t, err := sheet.Read(up.Name, bytes.NewReader(up.Data))
		if err != nil {
			http.Error(w, "read sheet: "+err.Error(), http.StatusBadRequest)
			return
		}

		users, err := d.Store.KnownUsers(r.Context())
		if err != nil {
			storeError(w, err)
			return
		}
		rep := sheet.ValidateRoster(t, d.Matcher, users)
		if !rep.OK() {
			respondJSON(w, http.StatusUnprocessableEntity, map[string]any{"report": rep, "upload": key})
			return
		}
		ids := sheet.UserIDs(rep.Accepted)
		added, err := d.Store.AssignUsers(r.Context(), quizID, ids)
		if err != nil {
			storeError(w, err)
			return
		}
		record(r.Context(), d.Events, syncx.RosterImported, quizID,
			map[string]any{"matched": len(ids), "assigned": added, "upload": key})
		respondJSON(w, http.StatusOK, map[string]any{
			"matched":  len(ids),
			"assigned": added,
			"report":   rep,
			"upload":   key,
		})
	}
}
