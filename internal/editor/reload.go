package editor

import (
	"strings"

	"github.com/mind-engage/quizbank/internal/question"
)

// Reload rebuilds the tree from a fresh server fetch and then tries to keep
// prev selected. Questions are grouped by their section label in order of
// first appearance; a section whose title survived keeps its previous id.
// Questions still queued for deletion stay hidden and stay queued; queued ids
// the server no longer has are dropped.
func (s *Session) Reload(ws []question.Wire, prev Selection) {
	queued := make(map[string]bool, len(s.pendingDeletes))
	for _, id := range s.pendingDeletes {
		queued[id] = true
	}
	present := map[string]bool{}

	idByTitle := make(map[string]string, len(s.Sections))
	for _, sec := range s.Sections {
		if _, ok := idByTitle[sec.Title]; !ok {
			idByTitle[sec.Title] = sec.ID
		}
	}

	var sections []Section
	pos := map[string]int{}
	for _, w := range ws {
		if w.ID != "" && queued[w.ID] {
			present[w.ID] = true
			continue
		}
		title := strings.TrimSpace(w.Section)
		if title == "" {
			title = sectionTitle(0)
		}
		i, ok := pos[title]
		if !ok {
			id := idByTitle[title]
			if id == "" {
				id = s.id()
			}
			sections = append(sections, Section{ID: id, Title: title})
			i = len(sections) - 1
			pos[title] = i
		}
		q := question.Decode(w)
		if q.ID == "" {
			q.LocalID = s.id()
		}
		sections[i].Questions = append(sections[i].Questions, q)
	}

	s.Sections = sections
	var still []string
	for _, id := range s.pendingDeletes {
		if present[id] {
			still = append(still, id)
		}
	}
	s.pendingDeletes = still
	s.Selection = reconcile(sections, prev)
}

// reconcile keeps prev when both its section and question still exist,
// otherwise picks the first question of the first non-empty section.
func reconcile(sections []Section, prev Selection) Selection {
	for _, sec := range sections {
		if sec.ID != prev.SectionID {
			continue
		}
		if questionIndex(sec.Questions, prev.QuestionID) >= 0 {
			return prev
		}
		break
	}
	for _, sec := range sections {
		if len(sec.Questions) > 0 {
			return Selection{SectionID: sec.ID, QuestionID: sec.Questions[0].Key()}
		}
	}
	return Selection{}
}
