package question

import (
	"reflect"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestDecodeDropsBlankAndNullOptions(t *testing.T) {
	w := Wire{
		ID:            "q1",
		Question:      "Pick one",
		Option1:       "Alpha",
		Option2:       "  ",
		Option3:       "null",
		Option4:       "Beta",
		Option5:       "NULL",
		Option6:       "",
		CorrectAnswer: strPtr("2"),
		Difficulty:    2,
		Marks:         3,
	}
	q := Decode(w)
	if !reflect.DeepEqual(q.Options, []string{"Alpha", "Beta"}) {
		t.Fatalf("options: got %q", q.Options)
	}
	if q.Type != SingleCorrect || q.CorrectIndex == nil || *q.CorrectIndex != 1 {
		t.Fatalf("expected single correct index 1, got %+v", q)
	}
	if q.CorrectIndices != nil {
		t.Fatalf("inactive field must be nil, got %v", q.CorrectIndices)
	}
	if q.Difficulty != Medium || q.Marks != 3 {
		t.Fatalf("difficulty/marks: %s %d", q.Difficulty, q.Marks)
	}
	if q.ExplanationEnabled {
		t.Fatalf("explanation should be disabled for empty wire explanation")
	}
}

func TestDecodeMultiDiscardsOutOfRange(t *testing.T) {
	w := Wire{
		Option1:       "a",
		Option2:       "b",
		Option3:       "c",
		CorrectAnswer: strPtr("3, 1,7,x,0"),
	}
	q := Decode(w)
	if q.Type != MultipleCorrect {
		t.Fatalf("expected multiple correct, got %s", q.Type)
	}
	if !reflect.DeepEqual(q.CorrectIndices, []int{0, 2}) {
		t.Fatalf("indices: got %v", q.CorrectIndices)
	}
	if q.CorrectIndex != nil {
		t.Fatalf("inactive field must be nil")
	}
}

func TestDecodeSingleUnparseable(t *testing.T) {
	for _, raw := range []*string{nil, strPtr(""), strPtr("abc"), strPtr("9")} {
		q := Decode(Wire{Option1: "a", Option2: "b", CorrectAnswer: raw})
		if q.Type != SingleCorrect || q.CorrectIndex != nil {
			t.Fatalf("raw %v: expected unset single answer, got %+v", raw, q)
		}
	}
}

func TestDifficultyTable(t *testing.T) {
	cases := map[int]Difficulty{1: Easy, 2: Medium, 3: Hard, 0: Easy, 9: Easy}
	for code, want := range cases {
		if got := DifficultyFromCode(code); got != want {
			t.Errorf("code %d: got %s want %s", code, got, want)
		}
	}
	for _, d := range []Difficulty{Easy, Medium, Hard} {
		if DifficultyFromCode(DifficultyCode(d)) != d {
			t.Errorf("inverse mismatch for %s", d)
		}
	}
}

func TestEncodeFiltersBlanksBeforeIndexing(t *testing.T) {
	q := Question{
		Text:         "Q",
		Type:         SingleCorrect,
		Difficulty:   Hard,
		Marks:        1,
		Options:      []string{"A", "", "B"},
		CorrectIndex: IntPtr(2),
	}
	w := Encode(q)
	if w.Option1 != "A" || w.Option2 != "B" || w.Option3 != "" {
		t.Fatalf("options not filtered: %+v", w)
	}
	if w.CorrectAnswer == nil || *w.CorrectAnswer != "2" {
		t.Fatalf("correct_answer: got %v", w.CorrectAnswer)
	}
	if w.Difficulty != 3 {
		t.Fatalf("difficulty code: got %d", w.Difficulty)
	}
}

func TestEncodeMultiSortsAndPacks(t *testing.T) {
	q := Question{
		Type:           MultipleCorrect,
		Options:        []string{"a", "b", "c", "d"},
		CorrectIndices: []int{3, 0},
	}
	w := Encode(q)
	if w.CorrectAnswer == nil || *w.CorrectAnswer != "1,4" {
		t.Fatalf("got %v", w.CorrectAnswer)
	}

	q.CorrectIndices = []int{1}
	w = Encode(q)
	if *w.CorrectAnswer != "2," {
		t.Fatalf("single-element multi should keep a trailing comma, got %q", *w.CorrectAnswer)
	}
	if back := Decode(w); back.Type != MultipleCorrect || !reflect.DeepEqual(back.CorrectIndices, []int{1}) {
		t.Fatalf("decoded back: %+v", back)
	}
}

func TestEncodeSingleUnsetIsNull(t *testing.T) {
	w := Encode(Question{Type: SingleCorrect, Options: []string{"a", "b"}})
	if w.CorrectAnswer != nil {
		t.Fatalf("expected null correct_answer, got %q", *w.CorrectAnswer)
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []Question{
		{
			ID: "q-1", Text: "Capital of France?", Type: SingleCorrect, Difficulty: Easy, Marks: 1,
			Options: []string{"Paris", "Rome", "Berlin"}, CorrectIndex: IntPtr(0),
		},
		{
			ID: "q-2", Text: "Primes", Type: MultipleCorrect, Difficulty: Medium, Marks: 2,
			Options: []string{"2", "3", "4", "5", "6", "7"}, CorrectIndices: []int{0, 1, 3, 5},
			ExplanationEnabled: true, Explanation: "4 and 6 are even",
		},
		{
			Text: "Unanswered", Type: SingleCorrect, Difficulty: Hard, Marks: 5,
			Options: []string{"x", "y"},
		},
	}
	for _, q := range cases {
		got := Decode(Encode(q))
		if !reflect.DeepEqual(got, q) {
			t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, q)
		}
	}
}

func TestNullTokenWouldNotSurviveRoundTrip(t *testing.T) {
	for s, want := range map[string]bool{"NULL": true, " null ": true, "Null": true, "nullable": false, "": false} {
		if IsNullToken(s) != want {
			t.Errorf("IsNullToken(%q) = %v", s, !want)
		}
	}
	q := Question{
		Text: "Which?", Type: SingleCorrect, Difficulty: Easy, Marks: 1,
		Options: []string{"0", "NULL", "empty"}, CorrectIndex: IntPtr(2),
	}
	// the tombstone is why editors and imports refuse it
	if got := Decode(Encode(q)); reflect.DeepEqual(got.Options, q.Options) {
		t.Fatalf("NULL option unexpectedly survived: %+v", got.Options)
	}
}
