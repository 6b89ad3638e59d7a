package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mind-engage/quizbank/internal/editor"
	"github.com/mind-engage/quizbank/internal/question"
)

// StatusError is a non-2xx answer from the server. Body holds the raw
// response, which for rejected imports is the validation report.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.Op, e.Status, strings.TrimSpace(e.Body))
}

type Client struct {
	http  *http.Client
	base  string
	token string
}

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

func New(cfg Config) *Client {
	h := &http.Client{Timeout: cfg.Timeout}
	if cfg.Timeout <= 0 {
		h.Timeout = 30 * time.Second
	}
	return &Client{http: h, base: strings.TrimRight(cfg.BaseURL, "/"), token: cfg.Token}
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", "application/json", bytes.NewReader(body), &out); err != nil {
		return err
	}
	c.token = out.AccessToken
	return nil
}

// Quiz returns the questions API of one quiz; it satisfies editor.API.
func (c *Client) Quiz(quizID string) *QuizAPI {
	return &QuizAPI{c: c, quizID: quizID}
}

// ImportResult is the server's answer to an accepted import.
type ImportResult struct {
	Created  int             `json:"created"`
	Matched  int             `json:"matched"`
	Assigned int             `json:"assigned"`
	Upload   string          `json:"upload"`
	Report   json.RawMessage `json:"report,omitempty"`
}

func (c *Client) ImportQuestions(ctx context.Context, quizID, filename string, r io.Reader) (ImportResult, error) {
	return c.upload(ctx, "import questions", "/quizzes/"+url.PathEscape(quizID)+"/questions/import", filename, r)
}

func (c *Client) ImportRoster(ctx context.Context, quizID, filename string, r io.Reader) (ImportResult, error) {
	return c.upload(ctx, "import roster", "/quizzes/"+url.PathEscape(quizID)+"/roster/import", filename, r)
}

func (c *Client) upload(ctx context.Context, op, path, filename string, r io.Reader) (ImportResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return ImportResult{}, err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return ImportResult{}, err
	}
	if err := mw.Close(); err != nil {
		return ImportResult{}, err
	}
	var out ImportResult
	err = c.do(ctx, op, http.MethodPost, path, mw.FormDataContentType(), &buf, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
		return &StatusError{Op: op, Status: res.StatusCode, Body: string(b)}
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

type QuizAPI struct {
	c      *Client
	quizID string
}

func (q *QuizAPI) path() string { return "/quizzes/" + url.PathEscape(q.quizID) + "/questions" }

func (q *QuizAPI) Fetch(ctx context.Context) ([]question.Wire, error) {
	var env question.Envelope
	if err := q.c.do(ctx, "fetch questions", http.MethodGet, q.path(), "", nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (q *QuizAPI) Save(ctx context.Context, qs []question.Wire) ([]question.Wire, error) {
	body, err := json.Marshal(question.Envelope{Data: qs})
	if err != nil {
		return nil, err
	}
	var env question.Envelope
	if err := q.c.do(ctx, "save questions", http.MethodPut, q.path(), "application/json", bytes.NewReader(body), &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// Delete removes one question. A 404 also matches editor.ErrQuestionGone.
func (q *QuizAPI) Delete(ctx context.Context, id string) error {
	err := q.c.do(ctx, "delete question", http.MethodDelete, q.path()+"/"+url.PathEscape(id), "", nil, nil)
	var se *StatusError
	if errors.As(err, &se) && se.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %w", editor.ErrQuestionGone, err)
	}
	return err
}
