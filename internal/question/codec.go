package question

import (
	"sort"
	"strconv"
	"strings"
)

// tombstone used by sparse backend rows in place of an empty option.
const nullToken = "NULL"

var difficultyByCode = map[int]Difficulty{
	1: Easy,
	2: Medium,
	3: Hard,
}

var codeByDifficulty = map[Difficulty]int{
	Easy:   1,
	Medium: 2,
	Hard:   3,
}

// DifficultyFromCode maps the numeric backend code to a label. Unknown codes are Easy.
func DifficultyFromCode(code int) Difficulty {
	if d, ok := difficultyByCode[code]; ok {
		return d
	}
	return Easy
}

// DifficultyCode is the inverse of DifficultyFromCode.
func DifficultyCode(d Difficulty) int {
	if c, ok := codeByDifficulty[d]; ok {
		return c
	}
	return 1
}

// Decode converts a backend record into the normalized model.
func Decode(w Wire) Question {
	q := Question{
		ID:                 w.ID,
		Text:               w.Question,
		Difficulty:         DifficultyFromCode(w.Difficulty),
		Marks:              w.Marks,
		Explanation:        w.AnswerExplanation,
		ExplanationEnabled: w.AnswerExplanation != "",
	}
	if q.Marks < 1 {
		q.Marks = 1
	}

	for _, o := range w.Options() {
		if IsBlank(o) || IsNullToken(o) {
			continue
		}
		q.Options = append(q.Options, o)
	}
	if q.Options == nil {
		q.Options = []string{}
	}

	raw := ""
	if w.CorrectAnswer != nil {
		raw = *w.CorrectAnswer
	}
	if strings.Contains(raw, ",") {
		q.Type = MultipleCorrect
		q.CorrectIndices = parseIndices(raw, len(q.Options))
	} else {
		q.Type = SingleCorrect
		if i, ok := parseIndex(raw); ok && i < len(q.Options) {
			q.CorrectIndex = IntPtr(i)
		}
	}
	return q
}

// Encode converts the model back to a backend record. Blank options are
// dropped first and the answer indices are translated to the filtered list.
func Encode(q Question) Wire {
	w := Wire{
		ID:         q.ID,
		Question:   q.Text,
		Difficulty: DifficultyCode(q.Difficulty),
		Marks:      q.Marks,
	}
	if q.ExplanationEnabled {
		w.AnswerExplanation = q.Explanation
	}

	kept := make([]string, 0, len(q.Options))
	remap := make(map[int]int, len(q.Options))
	for i, o := range q.Options {
		if IsBlank(o) {
			continue
		}
		remap[i] = len(kept)
		kept = append(kept, o)
	}
	w.SetOptions(kept)

	switch q.Type {
	case MultipleCorrect:
		idx := make([]int, 0, len(q.CorrectIndices))
		for _, i := range q.CorrectIndices {
			if j, ok := remap[i]; ok {
				idx = append(idx, j)
			}
		}
		s := packIndices(idx)
		w.CorrectAnswer = &s
	default:
		if q.CorrectIndex != nil {
			if j, ok := remap[*q.CorrectIndex]; ok {
				s := strconv.Itoa(j + 1)
				w.CorrectAnswer = &s
			}
		}
	}
	return w
}

func DecodeAll(ws []Wire) []Question {
	out := make([]Question, 0, len(ws))
	for _, w := range ws {
		out = append(out, Decode(w))
	}
	return out
}

func EncodeAll(qs []Question) []Wire {
	out := make([]Wire, 0, len(qs))
	for _, q := range qs {
		out = append(out, Encode(q))
	}
	return out
}

// packIndices joins sorted 1-based indices with commas. A list shorter than
// two still carries a trailing comma so it decodes as multi-select.
func packIndices(idx []int) string {
	idx = sortedUnique(idx)
	parts := make([]string, 0, len(idx))
	for _, i := range idx {
		parts = append(parts, strconv.Itoa(i+1))
	}
	s := strings.Join(parts, ",")
	if len(parts) < 2 {
		s += ","
	}
	return s
}

func parseIndices(raw string, n int) []int {
	out := []int{}
	for _, tok := range strings.Split(raw, ",") {
		i, ok := parseIndex(tok)
		if !ok || i >= n {
			continue
		}
		out = append(out, i)
	}
	return sortedUnique(out)
}

// parseIndex turns a 1-based token into a zero-based index.
func parseIndex(tok string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(tok))
	if err != nil || v < 1 {
		return 0, false
	}
	return v - 1, true
}

func sortedUnique(in []int) []int {
	out := make([]int, 0, len(in))
	seen := make(map[int]bool, len(in))
	for _, i := range in {
		if seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// IsBlank reports whether an option or text is empty after trimming.
func IsBlank(s string) bool { return strings.TrimSpace(s) == "" }

// IsNullToken reports whether s is the NULL tombstone Decode drops. Such a
// value cannot be stored as option text.
func IsNullToken(s string) bool { return strings.EqualFold(strings.TrimSpace(s), nullToken) }
