package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/mind-engage/quizbank/internal/question"
)

// BuildPackage writes a QTI 2.1 content package: one assessmentItem per
// question plus an imsmanifest.xml listing them in bank order. Questions
// without an id get a positional identifier.
func BuildPackage(title string, qs []question.Question) ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	mf := imsManifest{
		Xmlns:     "http://www.imsglobal.org/xsd/imscp_v1p1",
		Title:     title,
		Resources: []imsResource{},
	}
	for i, q := range qs {
		id := itemID(q, i)
		itemName := fmt.Sprintf("items/%s.xml", id)
		mf.Resources = append(mf.Resources, imsResource{
			Identifier: id,
			Type:       "imsqti_item_xmlv2p1",
			Href:       itemName,
			Files:      []imsFile{{Href: itemName}},
		})
		w, err := zw.Create(itemName)
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(w, buildItemXML(id, q)); err != nil {
			return nil, err
		}
	}

	mfw, err := zw.Create("imsmanifest.xml")
	if err != nil {
		return nil, err
	}
	b, err := xml.MarshalIndent(mf, "", "  ")
	if err != nil {
		return nil, err
	}
	if _, err := mfw.Write([]byte(xml.Header)); err != nil {
		return nil, err
	}
	if _, err := mfw.Write(b); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type imsManifest struct {
	XMLName   xml.Name      `xml:"manifest"`
	Xmlns     string        `xml:"xmlns,attr,omitempty"`
	Title     string        `xml:"metadata>title,omitempty"`
	Resources []imsResource `xml:"resources>resource"`
}
type imsResource struct {
	Identifier string    `xml:"identifier,attr"`
	Type       string    `xml:"type,attr"`
	Href       string    `xml:"href,attr"`
	Files      []imsFile `xml:"file"`
}
type imsFile struct {
	Href string `xml:"href,attr"`
}

func itemID(q question.Question, pos int) string {
	if q.ID != "" {
		return safeID(q.ID)
	}
	return fmt.Sprintf("item-%d", pos+1)
}

// safeID keeps identifiers usable as both XML ids and zip entry names.
func safeID(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, s)
}

func buildItemXML(id string, q question.Question) string {
	card, maxChoices := "single", 1
	var correct []int
	if q.Type == question.MultipleCorrect {
		card, maxChoices = "multiple", 0
		correct = q.CorrectIndices
	} else if q.CorrectIndex != nil {
		correct = []int{*q.CorrectIndex}
	}

	var values strings.Builder
	for _, i := range correct {
		fmt.Fprintf(&values, "<value>%s</value>", choiceID(i))
	}
	var choices strings.Builder
	for i, o := range q.Options {
		fmt.Fprintf(&choices, "\n      <simpleChoice identifier=\"%s\">%s</simpleChoice>", choiceID(i), esc(o))
	}
	var feedback string
	if q.ExplanationEnabled && q.Explanation != "" {
		feedback = fmt.Sprintf("\n  <modalFeedback outcomeIdentifier=\"FEEDBACK\" identifier=\"EXPLANATION\" showHide=\"show\">%s</modalFeedback>",
			esc(q.Explanation))
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<assessmentItem identifier="%s" title="%s" adaptive="false" timeDependent="false" xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1">
  <responseDeclaration identifier="RESPONSE" cardinality="%s" baseType="identifier">
    <correctResponse>%s</correctResponse>
  </responseDeclaration>
  <outcomeDeclaration identifier="MAXSCORE" cardinality="single" baseType="float">
    <defaultValue><value>%d</value></defaultValue>
  </outcomeDeclaration>
  <outcomeDeclaration identifier="DIFFICULTY" cardinality="single" baseType="integer">
    <defaultValue><value>%d</value></defaultValue>
  </outcomeDeclaration>
  <itemBody>
    <p>%s</p>
    <choiceInteraction responseIdentifier="RESPONSE" shuffle="false" maxChoices="%d">%s
    </choiceInteraction>
  </itemBody>%s
</assessmentItem>`,
		id, esc(q.Text), card, values.String(), q.Marks, question.DifficultyCode(q.Difficulty),
		esc(q.Text), maxChoices, choices.String(), feedback,
	)
}

// choiceID is the positional identifier for option i: A, B, C ...
func choiceID(i int) string { return string(rune('A' + i)) }

func esc(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
