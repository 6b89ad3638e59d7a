package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/quizbank/internal/identity"
	"github.com/mind-engage/quizbank/internal/sheet"
)

var errPasswordRequired = errors.New("password required for new user")

type userRow struct {
	ID       string   `json:"id" validate:"required,max=64"`
	Username string   `json:"username" validate:"required,max=120"`
	Role     string   `json:"role" validate:"omitempty,oneof=student teacher admin"`
	Password string   `json:"password,omitempty"` // plaintext optional (LAN-only)
	Email    string   `json:"email,omitempty" validate:"omitempty,email"`
	Codes    []string `json:"codes,omitempty" validate:"dive,max=64"`
}

// POST /users/bulk  JSON array, or multipart file=.csv|.xlsx|.json
// Emails are never stored; only their salted hash is kept for roster matching.
func BulkUpsertUsersHandler(db *sql.DB, m *identity.Matcher, maxUpload int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []userRow
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			up, code, err := readUpload(w, r, maxUpload)
			if err != nil {
				http.Error(w, err.Error(), code)
				return
			}
			if b := bytes.TrimSpace(up.Data); len(b) > 0 && (b[0] == '[' || b[0] == '{') {
				if err := json.Unmarshal(b, &rows); err != nil {
					http.Error(w, "bad json", http.StatusBadRequest)
					return
				}
			} else {
				t, err := sheet.Read(up.Name, bytes.NewReader(up.Data))
				if err != nil {
					http.Error(w, "bad sheet: "+err.Error(), http.StatusBadRequest)
					return
				}
				if rows, err = usersFromTable(t); err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
			}
		} else {
			if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
				http.Error(w, "expected JSON array or multipart file", http.StatusBadRequest)
				return
			}
		}
		if len(rows) == 0 {
			respondJSON(w, http.StatusOK, map[string]any{"inserted": 0, "updated": 0})
			return
		}
		for i := range rows {
			rows[i].Role = strings.ToLower(strings.TrimSpace(rows[i].Role))
			rows[i].Email = strings.TrimSpace(rows[i].Email)
			if err := validate.Struct(rows[i]); err != nil {
				http.Error(w, fmt.Sprintf("row %d: %s", i+1, validationMessage(err)), http.StatusBadRequest)
				return
			}
		}

		ins, upd, err := upsertUsers(r.Context(), db, m, rows)
		if errors.Is(err, errPasswordRequired) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"inserted": ins, "updated": upd})
	}
}

// GET /users?role=student
func ListUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		var rows *sql.Rows
		var err error
		if role == "" {
			rows, err = db.QueryContext(r.Context(), `SELECT id,username,role,codes_json,email_hash FROM users ORDER BY username`)
		} else {
			rows, err = db.QueryContext(r.Context(), `SELECT id,username,role,codes_json,email_hash FROM users WHERE role=$1 ORDER BY username`, role)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rows.Close()
		type listed struct {
			ID       string   `json:"id"`
			Username string   `json:"username"`
			Role     string   `json:"role"`
			Codes    []string `json:"codes"`
			HasEmail bool     `json:"has_email"`
		}
		out := []listed{}
		for rows.Next() {
			var u listed
			var codes, hash string
			if err := rows.Scan(&u.ID, &u.Username, &u.Role, &codes, &hash); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			_ = json.Unmarshal([]byte(codes), &u.Codes)
			if u.Codes == nil {
				u.Codes = []string{}
			}
			u.HasEmail = hash != ""
			out = append(out, u)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// usersFromTable reads id, username, role, password, email and codes
// columns (case-insensitive). Codes are separated by ';'.
func usersFromTable(t sheet.Table) ([]userRow, error) {
	cols := map[string]string{}
	for _, h := range t.Header {
		cols[strings.ToLower(h)] = h
	}
	for _, k := range []string{"id", "username"} {
		if _, ok := cols[k]; !ok {
			return nil, errors.New("missing column: " + k)
		}
	}
	get := func(row map[string]string, k string) string {
		if h, ok := cols[k]; ok {
			return strings.TrimSpace(row[h])
		}
		return ""
	}
	rows := make([]userRow, 0, len(t.Rows))
	for _, rec := range t.Rows {
		u := userRow{
			ID:       get(rec, "id"),
			Username: get(rec, "username"),
			Role:     get(rec, "role"),
			Password: get(rec, "password"),
			Email:    get(rec, "email"),
		}
		for _, c := range strings.Split(get(rec, "codes"), ";") {
			if c = strings.TrimSpace(c); c != "" {
				u.Codes = append(u.Codes, c)
			}
		}
		rows = append(rows, u)
	}
	return rows, nil
}

func upsertUsers(ctx context.Context, db *sql.DB, m *identity.Matcher, rows []userRow) (inserted, updated int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	now := time.Now().Unix()
	for _, r := range rows {
		if r.Role == "" {
			r.Role = "student"
		}
		var phash string
		if r.Password != "" {
			b, e := bcrypt.GenerateFromPassword([]byte(r.Password), bcrypt.DefaultCost)
			if e != nil {
				return inserted, updated, e
			}
			phash = string(b)
		}
		var emailHash string
		if strings.TrimSpace(r.Email) != "" {
			emailHash = m.HashEmail(r.Email)
		}
		codes := r.Codes
		if codes == nil {
			codes = []string{}
		}
		codesJSON, e := json.Marshal(codes)
		if e != nil {
			return inserted, updated, e
		}

		var exists bool
		if err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id=$1`, r.ID).Scan(new(int)); err == nil {
			exists = true
		} else if !errors.Is(err, sql.ErrNoRows) {
			return inserted, updated, err
		}
		if exists {
			// an omitted password or email leaves the stored value alone
			_, err = tx.ExecContext(ctx, `UPDATE users SET username=$1, role=$2, codes_json=$3,
				password_hash=CASE WHEN $4='' THEN password_hash ELSE $4 END,
				email_hash=CASE WHEN $5='' THEN email_hash ELSE $5 END
				WHERE id=$6`,
				r.Username, r.Role, string(codesJSON), phash, emailHash, r.ID)
			if err != nil {
				return inserted, updated, err
			}
			updated++
		} else {
			if phash == "" {
				err = fmt.Errorf("%w: %s", errPasswordRequired, r.Username)
				return inserted, updated, err
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO users (id, username, password_hash, role, email_hash, codes_json, created_at)
				 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				r.ID, r.Username, phash, r.Role, emailHash, string(codesJSON), now)
			if err != nil {
				return inserted, updated, err
			}
			inserted++
		}
	}
	return
}
