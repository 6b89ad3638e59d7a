package editor

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/mind-engage/quizbank/internal/question"
)

// ErrQuestionGone is what API.Delete returns, possibly wrapped, for an id
// the backend does not hold. Save counts such a delete as done.
var ErrQuestionGone = errors.New("question no longer exists")

// API is the backend the session loads from and saves to.
type API interface {
	Fetch(ctx context.Context) ([]question.Wire, error)
	// Save persists the batch and returns the stored records in request order.
	Save(ctx context.Context, qs []question.Wire) ([]question.Wire, error)
	Delete(ctx context.Context, id string) error
}

// ValidationError names the first question that blocks a save. Position is
// 0 when the section itself is at fault.
type ValidationError struct {
	SectionID    string
	SectionTitle string
	Position     int // 1-based within the section
	QuestionKey  string
	Reason       string
}

func (e *ValidationError) Error() string {
	if e.Position == 0 {
		return fmt.Sprintf("%s: %s", e.SectionTitle, e.Reason)
	}
	return fmt.Sprintf("%s, question %d: %s", e.SectionTitle, e.Position, e.Reason)
}

// Validate checks every question in every section and stops at the first
// problem, in section order then question order. Empty sections are never
// sent, so their titles are not checked.
func Validate(sections []Section) error {
	for _, sec := range sections {
		if len(sec.Questions) == 0 {
			continue
		}
		if n := utf8.RuneCountInString(sec.Title); n > question.MaxSectionLen {
			return &ValidationError{
				SectionID:    sec.ID,
				SectionTitle: sec.Title,
				Reason:       fmt.Sprintf("section title must be at most %d characters (got %d)", question.MaxSectionLen, n),
			}
		}
		for i, q := range sec.Questions {
			if reason := checkQuestion(q); reason != "" {
				return &ValidationError{
					SectionID:    sec.ID,
					SectionTitle: sec.Title,
					Position:     i + 1,
					QuestionKey:  q.Key(),
					Reason:       reason,
				}
			}
		}
	}
	return nil
}

func checkQuestion(q question.Question) string {
	if question.IsBlank(q.Text) {
		return "question text is required"
	}
	filled := 0
	for _, o := range q.Options {
		if !question.IsBlank(o) {
			filled++
		}
	}
	if filled == 0 {
		return "at least one option is required"
	}
	if filled != len(q.Options) {
		return "options must not be empty"
	}
	for i, o := range q.Options {
		if question.IsNullToken(o) {
			return fmt.Sprintf("option %d cannot be the text %q", i+1, o)
		}
	}
	switch q.Type {
	case question.MultipleCorrect:
		if len(q.CorrectIndices) == 0 {
			return "select at least one correct option"
		}
		for _, i := range q.CorrectIndices {
			if i < 0 || i >= len(q.Options) {
				return "correct option is out of range"
			}
		}
	default:
		if q.CorrectIndex == nil {
			return "select the correct option"
		}
		if *q.CorrectIndex < 0 || *q.CorrectIndex >= len(q.Options) {
			return "correct option is out of range"
		}
	}
	if q.ExplanationEnabled && question.IsBlank(q.Explanation) {
		return "explanation is enabled but empty"
	}
	if utf8.RuneCountInString(q.Text) > question.MaxTextLen {
		return fmt.Sprintf("question text must be at most %d characters", question.MaxTextLen)
	}
	if q.ExplanationEnabled && utf8.RuneCountInString(q.Explanation) > question.MaxExplanationLen {
		return fmt.Sprintf("explanation must be at most %d characters", question.MaxExplanationLen)
	}
	return ""
}

// BuildPayload validates and encodes every question, stamping each record
// with its section title.
func BuildPayload(sections []Section) ([]question.Wire, error) {
	if err := Validate(sections); err != nil {
		return nil, err
	}
	var out []question.Wire
	for _, sec := range sections {
		for _, q := range sec.Questions {
			w := question.Encode(q)
			w.Section = sec.Title
			out = append(out, w)
		}
	}
	return out, nil
}

// Load replaces the session content with the server's questions.
func (s *Session) Load(ctx context.Context, api API) error {
	ws, err := api.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch questions: %w", err)
	}
	s.Reload(ws, s.Selection)
	return nil
}

// Save validates, sends the whole batch, then reloads from the server while
// keeping the current selection when it still exists. Nothing is sent when
// validation fails.
func (s *Session) Save(ctx context.Context, api API) error {
	payload, err := BuildPayload(s.Sections)
	if err != nil {
		return err
	}
	// each id leaves the queue once the backend no longer has it
	for len(s.pendingDeletes) > 0 {
		id := s.pendingDeletes[0]
		if err := api.Delete(ctx, id); err != nil && !errors.Is(err, ErrQuestionGone) {
			return fmt.Errorf("delete question %s: %w", id, err)
		}
		s.pendingDeletes = s.pendingDeletes[1:]
	}
	s.pendingDeletes = nil

	saved, err := api.Save(ctx, payload)
	if err != nil {
		return fmt.Errorf("save questions: %w", err)
	}

	// a freshly created question only gets its server id now
	prev := s.Selection
	if pos := s.payloadPosition(prev.QuestionID); pos >= 0 && pos < len(saved) && saved[pos].ID != "" {
		prev.QuestionID = saved[pos].ID
	}

	ws, err := api.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch questions: %w", err)
	}
	s.Reload(ws, prev)
	return nil
}

func (s *Session) payloadPosition(key string) int {
	n := 0
	for _, sec := range s.Sections {
		for _, q := range sec.Questions {
			if key != "" && q.Key() == key {
				return n
			}
			n++
		}
	}
	return -1
}
