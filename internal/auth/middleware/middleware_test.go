package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/quizbank/internal/rbac"
)

func fakeAccounts(t *testing.T) AccountLookup {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return func(_ context.Context, username string) (Account, error) {
		if username != "ada" {
			return Account{}, ErrNoAccount
		}
		return Account{ID: "u-ada", Username: "ada", PasswordHash: string(hash), Role: "teacher"}, nil
	}
}

func TestLoginAndMiddleware(t *testing.T) {
	a := NewAuthService("test-secret")
	login := LoginHandler(a, fakeAccounts(t))

	for _, body := range []string{
		`{"username":"ada","password":"wrong"}`,
		`{"username":"bob","password":"s3cret"}`,
	} {
		rec := httptest.NewRecorder()
		login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: got %d", body, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	login(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username":" ada ","password":"s3cret"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	var out map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&out)

	var sub, role string
	var p Principal
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub = SubjectFromContext(r.Context())
		role = rbac.RoleFromContext(r.Context())
		p = PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+out["access_token"])
	h.ServeHTTP(httptest.NewRecorder(), req)
	if sub != "u-ada" || role != "teacher" || p != (Principal{Subject: "u-ada", Role: "teacher"}) {
		t.Fatalf("context: sub=%q role=%q principal=%+v", sub, role, p)
	}

	bad := httptest.NewRequest(http.MethodGet, "/", nil)
	other, _ := NewAuthService("other-secret").IssueJWT("u-ada", "admin")
	bad.Header.Set("Authorization", "Bearer "+other)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, bad)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("foreign token accepted: %d", rec.Code)
	}
}
