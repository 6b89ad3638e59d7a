package parser

import (
	"encoding/xml"
	"strconv"
	"strings"
)

type assessmentItem struct {
	XMLName      xml.Name             `xml:"assessmentItem"`
	Identifier   string               `xml:"identifier,attr"`
	Title        string               `xml:"title,attr"`
	Body         itemBody             `xml:"itemBody"`
	ResponseDecl responseDeclaration  `xml:"responseDeclaration"`
	Outcomes     []outcomeDeclaration `xml:"outcomeDeclaration"`
	Feedback     []modalFeedback      `xml:"modalFeedback"`
}
type itemBody struct {
	RawXML string `xml:",innerxml"`
}
type responseDeclaration struct {
	Identifier  string `xml:"identifier,attr"`
	Cardinality string `xml:"cardinality,attr"` // single|multiple
	Correct     struct {
		Values []string `xml:"value"`
	} `xml:"correctResponse"`
}
type outcomeDeclaration struct {
	Identifier string `xml:"identifier,attr"`
	BaseType   string `xml:"baseType,attr"`
	Default    struct {
		Value string `xml:"value"`
	} `xml:"defaultValue"`
}
type modalFeedback struct {
	Identifier string `xml:"identifier,attr"`
	Inner      string `xml:",innerxml"`
}

type InteractionType string

const (
	InteractionChoiceSingle InteractionType = "choice_single"
	InteractionChoiceMulti  InteractionType = "choice_multi"
	InteractionOther        InteractionType = "other"
)

type ParsedItem struct {
	ID          string
	Title       string
	Prompt      string
	Kind        InteractionType
	Choices     []Choice
	AnswerKey   []string // correct choice identifiers
	Points      float64
	Difficulty  int // 0 when the package does not say
	Explanation string
}

type Choice struct {
	ID    string
	Label string
}

// ParseItem reads one assessmentItem document. Only choice interactions
// are understood; anything else comes back as InteractionOther.
func ParseItem(b []byte) (ParsedItem, error) {
	var it assessmentItem
	if err := xml.Unmarshal(b, &it); err != nil {
		return ParsedItem{}, err
	}

	pi := ParsedItem{
		ID:     it.Identifier,
		Title:  it.Title,
		Prompt: extractPrompt(it.Body.RawXML),
		Points: 1,
	}
	for _, o := range it.Outcomes {
		if strings.EqualFold(o.Identifier, "MAXSCORE") {
			if v, err := strconv.ParseFloat(strings.TrimSpace(o.Default.Value), 64); err == nil && v > 0 {
				pi.Points = v
			}
		}
		if strings.EqualFold(o.Identifier, "DIFFICULTY") {
			pi.Difficulty, _ = strconv.Atoi(strings.TrimSpace(o.Default.Value))
		}
	}
	for _, f := range it.Feedback {
		if strings.EqualFold(f.Identifier, "EXPLANATION") {
			pi.Explanation = stripTags(f.Inner)
		}
	}

	if strings.Contains(strings.ToLower(it.Body.RawXML), "<choiceinteraction") {
		if it.ResponseDecl.Cardinality == "multiple" {
			pi.Kind = InteractionChoiceMulti
		} else {
			pi.Kind = InteractionChoiceSingle
		}
		pi.Choices = extractChoices(it.Body.RawXML)
		pi.AnswerKey = it.ResponseDecl.Correct.Values
	} else {
		pi.Kind = InteractionOther
	}
	return pi, nil
}

// extractPrompt keeps the body text that precedes the interaction.
func extractPrompt(inner string) string {
	l := strings.ToLower(inner)
	if idx := strings.Index(l, "<choiceinteraction"); idx >= 0 {
		inner = inner[:idx]
	}
	return strings.TrimSpace(stripTags(inner))
}

func extractChoices(inner string) []Choice {
	out := []Choice{}
	dec := xml.NewDecoder(strings.NewReader(inner))
	for {
		t, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := t.(xml.StartElement)
		if !ok || !strings.EqualFold(se.Name.Local, "simpleChoice") {
			continue
		}
		var id string
		for _, a := range se.Attr {
			if strings.EqualFold(a.Name.Local, "identifier") {
				id = a.Value
				break
			}
		}
		var text struct {
			Inner string `xml:",innerxml"`
		}
		if err := dec.DecodeElement(&text, &se); err == nil {
			out = append(out, Choice{ID: id, Label: strings.TrimSpace(stripTags(text.Inner))})
		}
	}
	return out
}

// stripTags drops markup and unescapes entities, leaving plain text.
func stripTags(s string) string {
	dec := xml.NewDecoder(strings.NewReader("<x>" + s + "</x>"))
	dec.Strict = false
	var b strings.Builder
	for {
		t, err := dec.Token()
		if err != nil {
			break
		}
		if cd, ok := t.(xml.CharData); ok {
			b.Write(cd)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
