package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/mind-engage/quizbank/internal/auth/middleware"
	"github.com/mind-engage/quizbank/internal/identity"
)

type changePasswordReq struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// POST /users/change-password
func ChangePasswordHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req changePasswordReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, validationMessage(err), http.StatusBadRequest)
			return
		}

		var storedHash string
		err := db.QueryRowContext(r.Context(), `SELECT password_hash FROM users WHERE id=$1`, userID).Scan(&storedHash)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.OldPassword)) != nil {
			http.Error(w, "incorrect old password", http.StatusForbidden)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if _, err := db.ExecContext(r.Context(), `UPDATE users SET password_hash=$1 WHERE id=$2`, string(hash), userID); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type updateIdentityReq struct {
	Email *string  `json:"email"`
	Codes []string `json:"codes" validate:"omitempty,dive,required,max=64"`
}

// PUT /users/{userID}/identity  { "email": "...", "codes": [...] }
// Replaces what roster imports match the user by. A null email keeps the
// stored hash, an empty one clears it; a null codes list keeps the codes.
func UpdateUserIdentityHandler(db *sql.DB, m *identity.Matcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		var req updateIdentityReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, validationMessage(err), http.StatusBadRequest)
			return
		}
		if req.Email != nil {
			if e := strings.TrimSpace(*req.Email); e != "" {
				if err := validate.Var(e, "email"); err != nil {
					http.Error(w, "invalid email", http.StatusBadRequest)
					return
				}
			}
		}

		var emailHash, codesJSON string
		err := db.QueryRowContext(r.Context(), `SELECT email_hash, codes_json FROM users WHERE id=$1`, userID).
			Scan(&emailHash, &codesJSON)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if req.Email != nil {
			emailHash = ""
			if strings.TrimSpace(*req.Email) != "" {
				emailHash = m.HashEmail(*req.Email)
			}
		}
		if req.Codes != nil {
			b, _ := json.Marshal(req.Codes)
			codesJSON = string(b)
		}
		if _, err := db.ExecContext(r.Context(),
			`UPDATE users SET email_hash=$1, codes_json=$2 WHERE id=$3`, emailHash, codesJSON, userID); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
