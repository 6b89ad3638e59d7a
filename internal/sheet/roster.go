package sheet

import (
	"fmt"

	"github.com/mind-engage/quizbank/internal/identity"
)

const (
	ColRosterSno      = "sno"
	ColRosterIdentity = "empid/email"
)

// RosterHeaders are matched case-insensitively.
var RosterHeaders = []string{ColRosterSno, ColRosterIdentity}

type RosterRow struct {
	Row           int    `json:"row"`
	Sno           string `json:"sno"`
	Identity      string `json:"identity"`
	MatchedUserID string `json:"matched_user_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

// ValidateRoster runs the user-roster schema. Rows with both cells blank
// are placeholders and are skipped; filled rows are resolved with m.
func ValidateRoster(t Table, m *identity.Matcher, users []identity.User) Report[RosterRow] {
	var rep Report[RosterRow]
	if rep.MissingHeaders = missingHeaders(t.Header, RosterHeaders, true); len(rep.MissingHeaders) > 0 {
		return rep
	}
	snoCol := column(t.Header, ColRosterSno, true)
	idCol := column(t.Header, ColRosterIdentity, true)

	var rows []RosterRow
	for i, raw := range t.Rows {
		r := RosterRow{Row: i + 1, Sno: cell(raw, snoCol), Identity: cell(raw, idCol)}
		switch {
		case r.Sno == "" && r.Identity == "":
			continue
		case r.Sno == "" || r.Identity == "":
			r.Error = "Sno and EmpId/Email must both be filled or both be empty"
		default:
			if id, ok := m.Resolve(r.Identity, users); ok {
				r.MatchedUserID = id
			} else {
				r.Error = fmt.Sprintf("no user found for %q", r.Identity)
			}
		}
		if r.Error != "" {
			rep.RowErrors = append(rep.RowErrors, RowError{Row: r.Row, Sno: r.Sno, Messages: []string{r.Error}})
		}
		rows = append(rows, r)
	}

	rep.Duplicates = duplicateValues(t.Rows, idCol)
	if rep.OK() {
		rep.Accepted = rows
	}
	return rep
}

// UserIDs returns the matched ids of accepted rows in sheet order.
func UserIDs(rows []RosterRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.MatchedUserID != "" {
			out = append(out, r.MatchedUserID)
		}
	}
	return out
}
