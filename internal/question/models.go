package question

// MaxOptions is the hard cap on options per question; the wire record has
// exactly this many positional option fields.
const (
	MaxOptions = 6
	MinOptions = 2
)

// Length limits in runes, shared by spreadsheet import and the editor.
const (
	MaxSectionLen     = 10
	MaxTextLen        = 500
	MaxExplanationLen = 500
)

type Type string

const (
	SingleCorrect   Type = "single_correct"
	MultipleCorrect Type = "multiple_correct"
)

type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// Question is the normalized in-memory model used by the editor.
// Only one of CorrectIndex / CorrectIndices is meaningful, picked by Type;
// the other one is always nil.
type Question struct {
	ID      string `json:"id,omitempty"`
	LocalID string `json:"-"` // client-only key for questions the server has not seen yet

	Text       string     `json:"text"`
	Type       Type       `json:"type"`
	Difficulty Difficulty `json:"difficulty"`
	Marks      int        `json:"marks"`

	Options        []string `json:"options"`
	CorrectIndex   *int     `json:"correct_index,omitempty"`
	CorrectIndices []int    `json:"correct_indices,omitempty"`

	ExplanationEnabled bool   `json:"explanation_enabled"`
	Explanation        string `json:"explanation,omitempty"`
}

// Key identifies the question inside an editing session.
func (q Question) Key() string {
	if q.ID != "" {
		return q.ID
	}
	return q.LocalID
}

// HasCorrect reports whether the active answer field holds index i.
func (q Question) HasCorrect(i int) bool {
	if q.Type == MultipleCorrect {
		for _, c := range q.CorrectIndices {
			if c == i {
				return true
			}
		}
		return false
	}
	return q.CorrectIndex != nil && *q.CorrectIndex == i
}

// Wire is the backend record. Field names (including the "diffculty" typo)
// are kept as the backend stores them.
type Wire struct {
	ID                string  `json:"_id,omitempty"`
	Question          string  `json:"question" validate:"required"`
	Option1           string  `json:"option1"`
	Option2           string  `json:"option2"`
	Option3           string  `json:"option3"`
	Option4           string  `json:"option4"`
	Option5           string  `json:"option5"`
	Option6           string  `json:"option6"`
	CorrectAnswer     *string `json:"correct_answer"`
	Difficulty        int     `json:"diffculty" validate:"omitempty,oneof=1 2 3"`
	Marks             int     `json:"marks" validate:"gte=0"`
	AnswerExplanation string  `json:"answer_explanation"`
	Section           string  `json:"section,omitempty" validate:"max=10"`
}

// Options returns the six positional option fields in order.
func (w Wire) Options() [MaxOptions]string {
	return [MaxOptions]string{w.Option1, w.Option2, w.Option3, w.Option4, w.Option5, w.Option6}
}

// SetOptions fills the positional fields from opts; missing entries are blank.
func (w *Wire) SetOptions(opts []string) {
	var o [MaxOptions]string
	copy(o[:], opts)
	w.Option1, w.Option2, w.Option3 = o[0], o[1], o[2]
	w.Option4, w.Option5, w.Option6 = o[3], o[4], o[5]
}

// Envelope is the { "data": [...] } body used by fetch and save.
type Envelope struct {
	Data []Wire `json:"data"`
}

// IntPtr is a small helper for building CorrectIndex values.
func IntPtr(i int) *int { return &i }
