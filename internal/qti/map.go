package qti

import (
	"fmt"
	"math"
	"sort"

	"github.com/mind-engage/quizbank/internal/question"
	"github.com/mind-engage/quizbank/internal/qti/parser"
)

// Skipped names an item that could not become a bank question.
type Skipped struct {
	ItemID string `json:"item_id"`
	Reason string `json:"reason"`
}

// ToQuestions maps parsed choice items onto bank questions. Choice
// identifiers become option positions; items with other interactions, or
// with more choices than a question can hold, are reported as skipped.
func ToQuestions(items []parser.ParsedItem) ([]question.Question, []Skipped) {
	out := make([]question.Question, 0, len(items))
	var skipped []Skipped
	for _, it := range items {
		q, err := toQuestion(it)
		if err != nil {
			skipped = append(skipped, Skipped{ItemID: it.ID, Reason: err.Error()})
			continue
		}
		out = append(out, q)
	}
	return out, skipped
}

func toQuestion(it parser.ParsedItem) (question.Question, error) {
	if it.Kind == parser.InteractionOther {
		return question.Question{}, fmt.Errorf("unsupported interaction")
	}
	if len(it.Choices) < question.MinOptions || len(it.Choices) > question.MaxOptions {
		return question.Question{}, fmt.Errorf("%d choices, want %d to %d",
			len(it.Choices), question.MinOptions, question.MaxOptions)
	}

	pos := make(map[string]int, len(it.Choices))
	opts := make([]string, 0, len(it.Choices))
	for i, c := range it.Choices {
		pos[c.ID] = i
		opts = append(opts, c.Label)
	}
	var idx []int
	seen := map[int]bool{}
	for _, v := range it.AnswerKey {
		if i, ok := pos[v]; ok && !seen[i] {
			seen[i] = true
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)

	q := question.Question{
		Text:               it.Prompt,
		Difficulty:         question.DifficultyFromCode(it.Difficulty),
		Marks:              int(math.Max(1, math.Round(it.Points))),
		Options:            opts,
		ExplanationEnabled: it.Explanation != "",
		Explanation:        it.Explanation,
	}
	if it.Kind == parser.InteractionChoiceMulti {
		q.Type = question.MultipleCorrect
		q.CorrectIndices = append([]int{}, idx...)
	} else {
		q.Type = question.SingleCorrect
		if len(idx) > 0 {
			q.CorrectIndex = question.IntPtr(idx[0])
		}
	}
	return q, nil
}
