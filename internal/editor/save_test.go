package editor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/mind-engage/quizbank/internal/question"
)

/* ---------------- in-memory backend satisfying API ---------------- */

type fakeAPI struct {
	rows     []question.Wire
	seq      int
	saves    int
	deleted  []string
	fetchErr error
	failOnce map[string]bool // ids whose next Delete fails
}

func (f *fakeAPI) Fetch(_ context.Context) ([]question.Wire, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]question.Wire(nil), f.rows...), nil
}

func (f *fakeAPI) Save(_ context.Context, qs []question.Wire) ([]question.Wire, error) {
	f.saves++
	out := make([]question.Wire, 0, len(qs))
	for _, w := range qs {
		if w.ID == "" {
			f.seq++
			w.ID = fmt.Sprintf("srv-%d", f.seq)
			f.rows = append(f.rows, w)
		} else {
			for i := range f.rows {
				if f.rows[i].ID == w.ID {
					f.rows[i] = w
				}
			}
		}
		out = append(out, w)
	}
	return out, nil
}

func (f *fakeAPI) Delete(_ context.Context, id string) error {
	if f.failOnce[id] {
		delete(f.failOnce, id)
		return errors.New("connection reset")
	}
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return fmt.Errorf("404 %s: %w", id, ErrQuestionGone)
}

func wire(id, section string) question.Wire {
	one := "1"
	return question.Wire{ID: id, Question: "Q " + id, Option1: "a", Option2: "b", CorrectAnswer: &one, Difficulty: 1, Marks: 1, Section: section}
}

func validQuestion() question.Question {
	return question.Question{
		Text: "Valid?", Type: question.SingleCorrect, Difficulty: question.Easy, Marks: 1,
		Options: []string{"yes", "no"}, CorrectIndex: question.IntPtr(0),
	}
}

func TestReloadKeepsSelectionWhenPresent(t *testing.T) {
	s := newTestSession()
	s.Reload([]question.Wire{wire("q1", "Section A"), wire("q2", "Section A"), wire("q3", "Section B")}, Selection{})
	b := s.Sections[1]
	prev := Selection{SectionID: b.ID, QuestionID: "q3"}

	s.Reload([]question.Wire{wire("q1", "Section A"), wire("q2", "Section A"), wire("q3", "Section B")}, prev)
	if s.Selection != prev {
		t.Fatalf("selection lost: %+v want %+v", s.Selection, prev)
	}
	if s.Sections[1].ID != b.ID {
		t.Fatalf("section id must survive reload by title")
	}
}

func TestReloadFallsBackWhenSectionDeleted(t *testing.T) {
	s := newTestSession()
	s.Reload([]question.Wire{wire("q1", "A"), wire("q2", "A"), wire("q3", "B")}, Selection{})
	a, b := s.Sections[0], s.Sections[1]

	s.Reload([]question.Wire{wire("q1", "A"), wire("q2", "A")}, Selection{SectionID: b.ID, QuestionID: "q3"})
	if s.Selection != (Selection{SectionID: a.ID, QuestionID: "q1"}) {
		t.Fatalf("expected fallback to {A,q1}, got %+v", s.Selection)
	}
}

func TestReloadFallsBackWhenQuestionMoved(t *testing.T) {
	s := newTestSession()
	s.Reload([]question.Wire{wire("q1", "A"), wire("q2", "B")}, Selection{})
	a := s.Sections[0]
	s.Reload([]question.Wire{wire("q1", "B"), wire("q2", "B")}, Selection{SectionID: a.ID, QuestionID: "q1"})
	if s.Selection.QuestionID != "q1" || s.Selection.SectionID != s.Sections[0].ID || s.Sections[0].Title != "B" {
		t.Fatalf("unexpected selection %+v in %+v", s.Selection, s.Sections)
	}
}

func TestReloadEmpty(t *testing.T) {
	s := newTestSession()
	s.Reload(nil, Selection{SectionID: "x", QuestionID: "y"})
	if !s.Selection.IsZero() || len(s.Sections) != 0 {
		t.Fatalf("expected empty state, got %+v", s)
	}
}

func TestReloadUnlabelledQuestionsGoToFirstSection(t *testing.T) {
	s := newTestSession()
	s.Reload([]question.Wire{wire("q1", "")}, Selection{})
	if len(s.Sections) != 1 || s.Sections[0].Title != "Section A" {
		t.Fatalf("sections: %+v", s.Sections)
	}
}

func TestValidateOrder(t *testing.T) {
	blankText := validQuestion()
	blankText.Text = "  "
	noOptions := validQuestion()
	noOptions.Options = []string{" ", ""}
	blankOption := validQuestion()
	blankOption.Options = []string{"a", ""}
	noSingle := validQuestion()
	noSingle.CorrectIndex = nil
	noMulti := validQuestion()
	noMulti.Type, noMulti.CorrectIndex, noMulti.CorrectIndices = question.MultipleCorrect, nil, []int{}
	noExplanation := validQuestion()
	noExplanation.ExplanationEnabled = true

	tests := []struct {
		name string
		q    question.Question
		want string
	}{
		{"text", blankText, "question text is required"},
		{"no options", noOptions, "at least one option is required"},
		{"blank option", blankOption, "options must not be empty"},
		{"single", noSingle, "select the correct option"},
		{"multi", noMulti, "select at least one correct option"},
		{"explanation", noExplanation, "explanation is enabled but empty"},
	}
	for _, tt := range tests {
		sections := []Section{{ID: "s", Title: "Section A", Questions: []question.Question{validQuestion(), tt.q}}}
		err := Validate(sections)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: expected ValidationError, got %v", tt.name, err)
		}
		if ve.Reason != tt.want || ve.Position != 2 {
			t.Errorf("%s: got %q at %d", tt.name, ve.Reason, ve.Position)
		}
	}
}

func TestValidateStopsAtFirstSection(t *testing.T) {
	bad := validQuestion()
	bad.Text = ""
	sections := []Section{
		{ID: "a", Title: "Section A", Questions: []question.Question{validQuestion(), bad}},
		{ID: "b", Title: "Section B", Questions: []question.Question{bad}},
	}
	var ve *ValidationError
	if err := Validate(sections); !errors.As(err, &ve) || ve.SectionID != "a" {
		t.Fatalf("expected first violation in section a, got %v", err)
	}
}

func TestSaveBlockedByValidation(t *testing.T) {
	api := &fakeAPI{}
	s := newTestSession()
	sec := s.AddSection()
	_, _ = s.AddQuestion(sec.ID)
	if err := s.Save(context.Background(), api); err == nil {
		t.Fatal("expected validation error")
	}
	if api.saves != 0 {
		t.Fatalf("no network call may happen on validation failure")
	}
}

func TestSaveRoundTripKeepsFocusOnNewQuestion(t *testing.T) {
	api := &fakeAPI{rows: []question.Wire{wire("srv-a", "Section A")}}
	api.seq = 100
	s := newTestSession()
	if err := s.Load(context.Background(), api); err != nil {
		t.Fatal(err)
	}
	secID := s.Sections[0].ID

	key, _ := s.AddQuestion(secID)
	_ = s.SetText("New one")
	_ = s.SetOption(0, "x")
	_ = s.SetOption(1, "y")
	_ = s.ToggleOption(1)
	if s.Selection.QuestionID != key {
		t.Fatal("new question not selected")
	}

	if err := s.Save(context.Background(), api); err != nil {
		t.Fatalf("save: %v", err)
	}
	if api.saves != 1 || len(api.rows) != 2 {
		t.Fatalf("backend state: saves=%d rows=%d", api.saves, len(api.rows))
	}
	if s.Selection != (Selection{SectionID: secID, QuestionID: "srv-101"}) {
		t.Fatalf("focus lost after save: %+v", s.Selection)
	}
	q, _ := s.Selected()
	if q.Text != "New one" || *q.CorrectIndex != 1 || api.rows[1].Section != "Section A" {
		t.Fatalf("saved question: %+v / %+v", q, api.rows[1])
	}
}

func TestSaveSendsPendingDeletes(t *testing.T) {
	api := &fakeAPI{rows: []question.Wire{wire("q1", "A"), wire("q2", "A")}}
	s := newTestSession()
	_ = s.Load(context.Background(), api)
	_ = s.RemoveQuestion("q2")
	if err := s.Save(context.Background(), api); err != nil {
		t.Fatal(err)
	}
	if len(api.deleted) != 1 || api.deleted[0] != "q2" || len(s.PendingDeletes()) != 0 {
		t.Fatalf("deletes: %v pending %v", api.deleted, s.PendingDeletes())
	}
	if len(s.Sections) != 1 || len(s.Sections[0].Questions) != 1 {
		t.Fatalf("reloaded tree: %+v", s.Sections)
	}
}

func TestLoadFetchError(t *testing.T) {
	api := &fakeAPI{fetchErr: errors.New("boom")}
	if err := newTestSession().Load(context.Background(), api); err == nil {
		t.Fatal("expected error")
	}
}

func TestBuildPayloadStampsSection(t *testing.T) {
	sections := []Section{{ID: "s", Title: "Intro", Questions: []question.Question{validQuestion()}}}
	ws, err := BuildPayload(sections)
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 1 || ws[0].Section != "Intro" || *ws[0].CorrectAnswer != "1" {
		t.Fatalf("payload: %+v", ws)
	}
}

func TestSaveRetriesOnlyUnfinishedDeletes(t *testing.T) {
	api := &fakeAPI{
		rows:     []question.Wire{wire("q1", "A"), wire("q2", "A"), wire("q3", "A")},
		failOnce: map[string]bool{"q2": true},
	}
	s := newTestSession()
	ctx := context.Background()
	_ = s.Load(ctx, api)
	_ = s.RemoveQuestion("q1")
	_ = s.RemoveQuestion("q2")

	if err := s.Save(ctx, api); err == nil {
		t.Fatal("expected the failed delete to surface")
	}
	if !reflect.DeepEqual(s.PendingDeletes(), []string{"q2"}) {
		t.Fatalf("pending after failure: %v", s.PendingDeletes())
	}
	if err := s.Save(ctx, api); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if !reflect.DeepEqual(api.deleted, []string{"q1", "q2"}) || len(s.PendingDeletes()) != 0 {
		t.Fatalf("deleted %v pending %v", api.deleted, s.PendingDeletes())
	}
	if err := s.Save(ctx, api); err != nil {
		t.Fatalf("third save: %v", err)
	}
	if len(api.rows) != 1 || api.rows[0].ID != "q3" {
		t.Fatalf("backend rows: %+v", api.rows)
	}
}

func TestSaveTreatsMissingQuestionAsDeleted(t *testing.T) {
	api := &fakeAPI{rows: []question.Wire{wire("q1", "A"), wire("q2", "A")}}
	s := newTestSession()
	ctx := context.Background()
	_ = s.Load(ctx, api)
	_ = s.RemoveQuestion("q2")

	// another editor removed it first
	api.rows = api.rows[:1]
	if err := s.Save(ctx, api); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(s.PendingDeletes()) != 0 || api.saves != 1 {
		t.Fatalf("pending %v saves %d", s.PendingDeletes(), api.saves)
	}
}

func TestLoadKeepsQueuedDeleteOfExistingQuestion(t *testing.T) {
	api := &fakeAPI{
		rows:     []question.Wire{wire("q1", "A"), wire("q2", "A")},
		failOnce: map[string]bool{"q2": true},
	}
	s := newTestSession()
	ctx := context.Background()
	_ = s.Load(ctx, api)
	_ = s.RemoveQuestion("q2")
	_ = s.Save(ctx, api)

	if err := s.Load(ctx, api); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(s.PendingDeletes(), []string{"q2"}) {
		t.Fatalf("pending after reload: %v", s.PendingDeletes())
	}
	if qs := s.Sections[0].Questions; len(qs) != 1 || qs[0].ID != "q1" {
		t.Fatalf("queued question must stay hidden: %+v", qs)
	}
}

func TestValidateSectionTitleLength(t *testing.T) {
	sections := []Section{
		{ID: "empty", Title: "A title far too long but unused"},
		{ID: "s", Title: "Algebra Basics", Questions: []question.Question{validQuestion()}},
	}
	_, err := BuildPayload(sections)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.SectionID != "s" || ve.Position != 0 {
		t.Fatalf("expected section error, got %v", err)
	}
	sections[1].Title = "Algebra"
	if _, err := BuildPayload(sections); err != nil {
		t.Fatalf("short title: %v", err)
	}
}

func TestValidateRejectsNullOption(t *testing.T) {
	q := validQuestion()
	q.Options = []string{"0", " null ", "empty"}
	q.CorrectIndex = question.IntPtr(2)
	err := Validate([]Section{{ID: "s", Title: "A", Questions: []question.Question{q}}})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Position != 1 {
		t.Fatalf("expected NULL option to be rejected, got %v", err)
	}
}
