package http

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/quizbank/internal/rbac"
)

type Deps struct {
	ImportDeps
	DB   *sql.DB   // users table; user routes are skipped when nil
	Feed EventFeed // optional
}

// Mount registers the question-bank API on r. r must already carry the
// auth middleware that puts a role in the request context.
func Mount(r chi.Router, d Deps) {
	r.Route("/quizzes", func(qr chi.Router) {
		qr.With(rbac.Require(rbac.PermQuizView)).Get("/", ListQuizzesHandler(d.Store))
		qr.With(rbac.Require(rbac.PermQuizCreate)).Post("/", CreateQuizHandler(d.Store))

		qr.Route("/{quizID}", func(q chi.Router) {
			q.With(rbac.Require(rbac.PermQuizView)).
				Get("/questions", ListQuestionsHandler(d.Store))
			q.With(rbac.Require(rbac.PermQuizEdit)).
				Put("/questions", SaveQuestionsHandler(d.Store, d.Events))
			q.With(rbac.Require(rbac.PermQuizEdit)).
				Delete("/questions/{questionID}", DeleteQuestionHandler(d.Store, d.Events))
			q.With(rbac.Require(rbac.PermQuizImport)).
				Post("/questions/import", ImportQuestionsHandler(d.ImportDeps))
			q.With(rbac.Require(rbac.PermRosterImport)).
				Post("/roster/import", ImportRosterHandler(d.ImportDeps))
			q.With(rbac.Require(rbac.PermQuizExport)).
				Get("/export", ExportQTIHandler(d.Store))
			if d.Blobs != nil {
				q.With(rbac.RequireAny(rbac.PermQuizImport, rbac.PermRosterImport)).
					Get("/uploads", ListUploadsHandler(d.Blobs))
			}
		})
	})
	if d.Blobs != nil {
		r.With(rbac.RequireAny(rbac.PermQuizImport, rbac.PermRosterImport)).
			Get("/uploads/*", GetUploadHandler(d.Blobs))
	}

	if d.DB != nil {
		r.With(rbac.Require(rbac.PermUsersUpsert)).
			Post("/users/bulk", BulkUpsertUsersHandler(d.DB, d.Matcher, d.maxBytes()))
		r.With(rbac.Require(rbac.PermUsersList)).
			Get("/users", ListUsersHandler(d.DB))
		r.With(rbac.Require(rbac.PermUsersUpsert)).
			Put("/users/{userID}/identity", UpdateUserIdentityHandler(d.DB, d.Matcher))
		r.With(rbac.Require(rbac.PermChangePassword)).
			Post("/users/change-password", ChangePasswordHandler(d.DB))
	}
	if d.Feed != nil {
		r.With(rbac.Require(rbac.PermEventsRead)).Get("/events", ListEventsHandler(d.Feed))
	}
}
