package editor

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/mind-engage/quizbank/internal/question"
)

var (
	ErrUnknownSection  = errors.New("section not found")
	ErrUnknownQuestion = errors.New("question not found")
	ErrNoSelection     = errors.New("no question selected")
	ErrOptionIndex     = errors.New("option index out of range")
	ErrMarks           = errors.New("marks must be at least 1")
)

// Section groups questions on the client. Its ID is local to the session;
// only the title travels to the server, as each question's section label.
type Section struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Questions []question.Question `json:"questions"`
}

// Selection is a lookup key into the tree, not a pointer. It is re-derived
// after every reload.
type Selection struct {
	SectionID  string `json:"section_id,omitempty"`
	QuestionID string `json:"question_id,omitempty"`
}

func (s Selection) IsZero() bool { return s.SectionID == "" && s.QuestionID == "" }

// Session owns the authoring state. All mutation goes through its methods.
type Session struct {
	Sections  []Section
	Selection Selection

	// server ids of removed questions, deleted on the next Save
	pendingDeletes []string
	newID          func() string
}

func NewSession() *Session {
	return &Session{newID: uuid.NewString}
}

func (s *Session) id() string {
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s.newID()
}

// sectionTitle returns "Section A", "Section B", ..., "Section Z", "Section AA", ...
func sectionTitle(n int) string {
	var b []byte
	for n >= 0 {
		b = append([]byte{byte('A' + n%26)}, b...)
		n = n/26 - 1
	}
	return "Section " + string(b)
}

// AddSection appends an empty section. The title comes from the current
// section count, so renaming sections never changes the next title.
func (s *Session) AddSection() Section {
	sec := Section{ID: s.id(), Title: sectionTitle(len(s.Sections)), Questions: []question.Question{}}
	s.Sections = append(s.Sections, sec)
	return sec
}

// NewQuestion is the default a freshly added question starts from.
func NewQuestion(localID string) question.Question {
	return question.Question{
		LocalID:    localID,
		Type:       question.SingleCorrect,
		Difficulty: question.Easy,
		Marks:      1,
		Options:    []string{"", ""},
	}
}

// AddQuestion appends a default question to the section and selects it.
func (s *Session) AddQuestion(sectionID string) (string, error) {
	si := s.sectionIndex(sectionID)
	if si < 0 {
		return "", ErrUnknownSection
	}
	q := NewQuestion(s.id())
	s.Sections[si].Questions = append(s.Sections[si].Questions, q)
	s.Selection = Selection{SectionID: sectionID, QuestionID: q.Key()}
	return q.Key(), nil
}

func (s *Session) Select(sectionID, questionKey string) error {
	si := s.sectionIndex(sectionID)
	if si < 0 {
		return ErrUnknownSection
	}
	if questionIndex(s.Sections[si].Questions, questionKey) < 0 {
		return ErrUnknownQuestion
	}
	s.Selection = Selection{SectionID: sectionID, QuestionID: questionKey}
	return nil
}

// Selected returns a copy of the selected question.
func (s *Session) Selected() (question.Question, bool) {
	q, err := s.selected()
	if err != nil {
		return question.Question{}, false
	}
	return *q, true
}

func (s *Session) RenameSection(sectionID, title string) error {
	si := s.sectionIndex(sectionID)
	if si < 0 {
		return ErrUnknownSection
	}
	s.Sections[si].Title = strings.TrimSpace(title)
	return nil
}

// RemoveSection drops a section with all its questions.
func (s *Session) RemoveSection(sectionID string) error {
	si := s.sectionIndex(sectionID)
	if si < 0 {
		return ErrUnknownSection
	}
	for _, q := range s.Sections[si].Questions {
		s.queueDelete(q)
	}
	s.Sections = append(s.Sections[:si], s.Sections[si+1:]...)
	s.Selection = reconcile(s.Sections, s.Selection)
	return nil
}

func (s *Session) RemoveQuestion(key string) error {
	si, qi := s.locate(key)
	if qi < 0 {
		return ErrUnknownQuestion
	}
	qs := s.Sections[si].Questions
	s.queueDelete(qs[qi])
	s.Sections[si].Questions = append(qs[:qi], qs[qi+1:]...)
	s.Selection = reconcile(s.Sections, s.Selection)
	return nil
}

func (s *Session) queueDelete(q question.Question) {
	if q.ID != "" {
		s.pendingDeletes = append(s.pendingDeletes, q.ID)
	}
}

// PendingDeletes lists saved questions removed since the last reload.
func (s *Session) PendingDeletes() []string {
	return append([]string(nil), s.pendingDeletes...)
}

// SetQuestionType switches between single and multiple correct while keeping
// the chosen answer. The field of the inactive type is cleared.
func (s *Session) SetQuestionType(key string, t question.Type) error {
	si, qi := s.locate(key)
	if qi < 0 {
		return ErrUnknownQuestion
	}
	q := &s.Sections[si].Questions[qi]
	if q.Type == t {
		return nil
	}
	switch t {
	case question.MultipleCorrect:
		q.CorrectIndices = []int{}
		if q.CorrectIndex != nil {
			q.CorrectIndices = []int{*q.CorrectIndex}
		}
		q.CorrectIndex = nil
	default:
		t = question.SingleCorrect
		q.CorrectIndex = nil
		if len(q.CorrectIndices) > 0 {
			q.CorrectIndex = question.IntPtr(q.CorrectIndices[0])
		}
		q.CorrectIndices = nil
	}
	q.Type = t
	return nil
}

// ToggleOption marks option i on the selected question: radio semantics for
// single correct, checkbox semantics for multiple correct.
func (s *Session) ToggleOption(i int) error {
	q, err := s.selected()
	if err != nil {
		return err
	}
	if i < 0 || i >= len(q.Options) {
		return ErrOptionIndex
	}
	if q.Type != question.MultipleCorrect {
		q.CorrectIndex = question.IntPtr(i)
		return nil
	}
	for n, c := range q.CorrectIndices {
		if c == i {
			q.CorrectIndices = append(q.CorrectIndices[:n], q.CorrectIndices[n+1:]...)
			return nil
		}
	}
	q.CorrectIndices = insertSorted(q.CorrectIndices, i)
	return nil
}

// AddOption appends a blank option; it does nothing at the cap.
func (s *Session) AddOption() error {
	q, err := s.selected()
	if err != nil {
		return err
	}
	if len(q.Options) >= question.MaxOptions {
		return nil
	}
	q.Options = append(q.Options, "")
	return nil
}

// RemoveOption removes option i and renumbers the stored answer in the same
// step: indices above i shift down, an index equal to i is cleared.
// It does nothing when the question is already at the minimum option count.
func (s *Session) RemoveOption(i int) error {
	q, err := s.selected()
	if err != nil {
		return err
	}
	if i < 0 || i >= len(q.Options) {
		return ErrOptionIndex
	}
	if len(q.Options) <= question.MinOptions {
		return nil
	}
	q.Options = append(q.Options[:i], q.Options[i+1:]...)

	if q.Type == question.MultipleCorrect {
		kept := make([]int, 0, len(q.CorrectIndices))
		for _, c := range q.CorrectIndices {
			switch {
			case c == i:
			case c > i:
				kept = append(kept, c-1)
			default:
				kept = append(kept, c)
			}
		}
		q.CorrectIndices = kept
		return nil
	}
	if q.CorrectIndex != nil {
		switch c := *q.CorrectIndex; {
		case c == i:
			q.CorrectIndex = nil
		case c > i:
			q.CorrectIndex = question.IntPtr(c - 1)
		}
	}
	return nil
}

func (s *Session) SetOption(i int, text string) error {
	q, err := s.selected()
	if err != nil {
		return err
	}
	if i < 0 || i >= len(q.Options) {
		return ErrOptionIndex
	}
	q.Options[i] = text
	return nil
}

func (s *Session) SetText(text string) error {
	return s.edit(func(q *question.Question) error { q.Text = text; return nil })
}

func (s *Session) SetDifficulty(d question.Difficulty) error {
	return s.edit(func(q *question.Question) error { q.Difficulty = d; return nil })
}

func (s *Session) SetMarks(n int) error {
	return s.edit(func(q *question.Question) error {
		if n < 1 {
			return ErrMarks
		}
		q.Marks = n
		return nil
	})
}

// SetExplanationEnabled leaves the explanation text untouched either way.
func (s *Session) SetExplanationEnabled(on bool) error {
	return s.edit(func(q *question.Question) error { q.ExplanationEnabled = on; return nil })
}

func (s *Session) SetExplanation(text string) error {
	return s.edit(func(q *question.Question) error { q.Explanation = text; return nil })
}

func (s *Session) edit(fn func(q *question.Question) error) error {
	q, err := s.selected()
	if err != nil {
		return err
	}
	return fn(q)
}

func (s *Session) selected() (*question.Question, error) {
	if s.Selection.IsZero() {
		return nil, ErrNoSelection
	}
	si := s.sectionIndex(s.Selection.SectionID)
	if si < 0 {
		return nil, ErrNoSelection
	}
	qi := questionIndex(s.Sections[si].Questions, s.Selection.QuestionID)
	if qi < 0 {
		return nil, ErrNoSelection
	}
	return &s.Sections[si].Questions[qi], nil
}

func (s *Session) sectionIndex(id string) int {
	for i := range s.Sections {
		if s.Sections[i].ID == id {
			return i
		}
	}
	return -1
}

// locate finds a question by key anywhere in the tree.
func (s *Session) locate(key string) (int, int) {
	for si := range s.Sections {
		if qi := questionIndex(s.Sections[si].Questions, key); qi >= 0 {
			return si, qi
		}
	}
	return -1, -1
}

func questionIndex(qs []question.Question, key string) int {
	if key == "" {
		return -1
	}
	for i := range qs {
		if qs[i].Key() == key {
			return i
		}
	}
	return -1
}

func insertSorted(xs []int, v int) []int {
	at := len(xs)
	for n, x := range xs {
		if x > v {
			at = n
			break
		}
	}
	xs = append(xs, 0)
	copy(xs[at+1:], xs[at:])
	xs[at] = v
	return xs
}
