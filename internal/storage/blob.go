package storage

import (
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BlobStore keeps the raw bytes of every uploaded spreadsheet or package
// so an import can be audited or replayed later.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	List(prefix string) ([]string, error)
}

// UploadKey builds the key an upload is filed under:
// uploads/<quizID>/<kind>/<unix>-<uuid>-<name>.
func UploadKey(quizID, kind, filename string, now time.Time) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	return path.Join("uploads", cleanSegment(quizID), cleanSegment(kind),
		fmt.Sprintf("%d-%s-%s", now.Unix(), uuid.NewString(), cleanSegment(name)))
}

func cleanSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, s)
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}
