package sheet

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/mind-engage/quizbank/internal/question"
)

const (
	ColSno           = "Sno"
	ColQuestion      = "Question"
	ColCorrectAnswer = "Correct Answer"
	ColDifficulty    = "Difficulty Level"
	ColSection       = "Section"
	ColExplanation   = "Answer Explanation"

	MaxSectionLen     = question.MaxSectionLen
	MaxQuestionLen    = question.MaxTextLen
	MaxExplanationLen = question.MaxExplanationLen
)

// OptionColumn returns the header of the n-th (1-based) option column.
func OptionColumn(n int) string { return fmt.Sprintf("Option %d", n) }

// QuizHeaders is the header row a question-bank spreadsheet must carry.
var QuizHeaders = func() []string {
	h := []string{ColSno, ColQuestion}
	for i := 1; i <= question.MaxOptions; i++ {
		h = append(h, OptionColumn(i))
	}
	return append(h, ColCorrectAnswer, ColDifficulty, ColSection, ColExplanation)
}()

type QuizRow struct {
	Row               int                         `json:"row"`
	Sno               string                      `json:"sno"`
	Question          string                      `json:"question"`
	Options           [question.MaxOptions]string `json:"options"`
	CorrectAnswer     string                      `json:"correct_answer"`
	DifficultyLevel   string                      `json:"difficulty_level"`
	Section           string                      `json:"section"`
	AnswerExplanation string                      `json:"answer_explanation"`
	Errors            []string                    `json:"errors,omitempty"`
}

func quizRowFrom(i int, m map[string]string) QuizRow {
	r := QuizRow{
		Row:               i + 1,
		Sno:               cell(m, ColSno),
		Question:          cell(m, ColQuestion),
		CorrectAnswer:     cell(m, ColCorrectAnswer),
		DifficultyLevel:   cell(m, ColDifficulty),
		Section:           cell(m, ColSection),
		AnswerExplanation: cell(m, ColExplanation),
	}
	for n := range r.Options {
		r.Options[n] = cell(m, OptionColumn(n+1))
	}
	return r
}

// check collects every violation on the row; it never stops early.
func (r *QuizRow) check() {
	if r.Question == "" {
		r.Errors = append(r.Errors, "Question is required")
	}
	if n := utf8.RuneCountInString(r.Question); n > MaxQuestionLen {
		r.Errors = append(r.Errors, fmt.Sprintf("Question must be at most %d characters (got %d)", MaxQuestionLen, n))
	}

	if _, ok := inRange(r.DifficultyLevel, 1, 3); !ok {
		r.Errors = append(r.Errors, fmt.Sprintf("Difficulty Level must be 1, 2 or 3 (got %q)", r.DifficultyLevel))
	}

	filled := 0
	for i, o := range r.Options {
		if o == "" {
			continue
		}
		if question.IsNullToken(o) {
			r.Errors = append(r.Errors, fmt.Sprintf("%s must not be the placeholder %q", OptionColumn(i+1), o))
			continue
		}
		filled++
	}
	if filled < question.MinOptions {
		r.Errors = append(r.Errors, fmt.Sprintf("at least %d options are required", question.MinOptions))
	}

	if n, ok := inRange(r.CorrectAnswer, 1, question.MaxOptions); !ok {
		r.Errors = append(r.Errors, fmt.Sprintf("Correct Answer must be a number from 1 to %d (got %q)", question.MaxOptions, r.CorrectAnswer))
	} else if r.Options[n-1] == "" {
		r.Errors = append(r.Errors, fmt.Sprintf("Correct Answer points at an empty %s", OptionColumn(n)))
	}

	if n := utf8.RuneCountInString(r.Section); n > MaxSectionLen {
		r.Errors = append(r.Errors, fmt.Sprintf("Section must be at most %d characters (got %d)", MaxSectionLen, n))
	}
	if n := utf8.RuneCountInString(r.AnswerExplanation); n > MaxExplanationLen {
		r.Errors = append(r.Errors, fmt.Sprintf("Answer Explanation must be at most %d characters (got %d)", MaxExplanationLen, n))
	}
}

// Wire converts an accepted row into a create payload. Empty option cells
// are compacted away and the correct answer renumbered to match.
func (r QuizRow) Wire() question.Wire {
	d, _ := inRange(r.DifficultyLevel, 1, 3)
	q := question.Question{
		Text:               r.Question,
		Type:               question.SingleCorrect,
		Difficulty:         question.DifficultyFromCode(d),
		Marks:              1,
		Options:            r.Options[:],
		ExplanationEnabled: r.AnswerExplanation != "",
		Explanation:        r.AnswerExplanation,
	}
	if n, ok := inRange(r.CorrectAnswer, 1, question.MaxOptions); ok {
		q.CorrectIndex = question.IntPtr(n - 1)
	}
	w := question.Encode(q)
	w.Section = r.Section
	return w
}

// ValidateQuiz runs the question-bank schema over a table.
func ValidateQuiz(t Table) Report[QuizRow] {
	var rep Report[QuizRow]
	if rep.MissingHeaders = missingHeaders(t.Header, QuizHeaders, false); len(rep.MissingHeaders) > 0 {
		return rep
	}

	rows := make([]QuizRow, 0, len(t.Rows))
	for i, m := range t.Rows {
		r := quizRowFrom(i, m)
		r.check()
		if len(r.Errors) > 0 {
			rep.RowErrors = append(rep.RowErrors, RowError{Row: r.Row, Sno: r.Sno, Messages: r.Errors})
		}
		rows = append(rows, r)
	}
	if rep.OK() {
		rep.Accepted = rows
	}
	return rep
}

// QuizWires converts accepted rows to bulk-create payloads.
func QuizWires(rows []QuizRow) []question.Wire {
	out := make([]question.Wire, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Wire())
	}
	return out
}

func inRange(s string, lo, hi int) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, false
	}
	return n, true
}
