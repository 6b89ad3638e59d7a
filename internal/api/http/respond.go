package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// validationMessage flattens validator errors into one line per field.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

type upload struct {
	Name string
	Data []byte
}

// readUpload pulls the multipart "file" field into memory, bounded by max.
// Callers get a ready-made status code with the error.
func readUpload(w http.ResponseWriter, r *http.Request, max int64) (upload, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, max)
	if err := r.ParseMultipartForm(max); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return upload{}, http.StatusRequestEntityTooLarge, errors.New("file too large")
		}
		return upload{}, http.StatusBadRequest, errors.New("multipart form required")
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return upload{}, http.StatusBadRequest, errors.New("file required")
	}
	defer f.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, f); err != nil {
		return upload{}, http.StatusBadRequest, fmt.Errorf("read upload: %w", err)
	}
	if buf.Len() == 0 {
		return upload{}, http.StatusBadRequest, errors.New("empty file")
	}
	return upload{Name: hdr.Filename, Data: buf.Bytes()}, 0, nil
}
