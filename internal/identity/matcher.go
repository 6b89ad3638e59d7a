package identity

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// User is the view of a known user needed for matching. Raw emails are never
// part of it; only the salted hash the backend exposes.
type User struct {
	ID        string   `json:"id"`
	EmailHash string   `json:"email_hash"`
	Codes     []string `json:"codes,omitempty"`
}

// Matcher resolves spreadsheet tokens (email or short code) to user ids.
type Matcher struct {
	salt []byte
}

func NewMatcher(salt string) *Matcher { return &Matcher{salt: []byte(salt)} }

// NormalizeEmail trims and lower-cases an address before hashing.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashEmail returns hex(blake2b-256 keyed with the salt) of the normalized email.
func (m *Matcher) HashEmail(email string) string {
	key := m.salt
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	h, err := blake2b.New256(key)
	if err != nil {
		// only reachable with an oversized key, which is folded above
		panic(err)
	}
	h.Write([]byte(NormalizeEmail(email)))
	return hex.EncodeToString(h.Sum(nil))
}

// IsEmail reports whether a token should be matched by email hash.
func IsEmail(token string) bool { return strings.Contains(token, "@") }

// Resolve finds the user a token refers to. The first matching user wins.
func (m *Matcher) Resolve(token string, users []User) (string, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	if IsEmail(token) {
		h := m.HashEmail(token)
		for _, u := range users {
			if u.EmailHash != "" && strings.EqualFold(u.EmailHash, h) {
				return u.ID, true
			}
		}
		return "", false
	}
	for _, u := range users {
		for _, c := range u.Codes {
			if strings.EqualFold(strings.TrimSpace(c), token) {
				return u.ID, true
			}
		}
	}
	return "", false
}

type Match struct {
	Token  string
	UserID string
	Found  bool
}

// MatchAll resolves every token against the same user list.
func (m *Matcher) MatchAll(tokens []string, users []User) []Match {
	out := make([]Match, 0, len(tokens))
	for _, t := range tokens {
		id, ok := m.Resolve(t, users)
		out = append(out, Match{Token: t, UserID: id, Found: ok})
	}
	return out
}
