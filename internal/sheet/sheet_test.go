package sheet

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/mind-engage/quizbank/internal/identity"
)

const quizCSV = "\xEF\xBB\xBFSno,Question,Option 1,Option 2,Option 3,Option 4,Option 5,Option 6,Correct Answer,Difficulty Level,Section,Answer Explanation\n" +
	"1,What is 2+2?,3,,4,,,,3,1,Maths,Because\n" +
	"2,Largest planet?,Mars,Jupiter,,,,,2,3,Science,\n" +
	",,,,,,,,,,,\n"

func TestReadCSVStripsBOMAndBlankRows(t *testing.T) {
	tbl, err := Read("bank.csv", strings.NewReader(quizCSV))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if tbl.Header[0] != "Sno" {
		t.Fatalf("BOM not stripped: %q", tbl.Header[0])
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 data rows, got %d", len(tbl.Rows))
	}
}

func TestReadUnsupportedExtension(t *testing.T) {
	if _, err := Read("bank.pdf", strings.NewReader("")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat for .pdf, got %v", err)
	}
	for name, want := range map[string]bool{"a.CSV": true, "a.xlsx": true, "a.pdf": false, "noext": false} {
		if Supported(name) != want {
			t.Errorf("Supported(%q) = %v", name, !want)
		}
	}
}

func TestValidateQuizAccepts(t *testing.T) {
	tbl, _ := ReadCSV(strings.NewReader(quizCSV))
	rep := ValidateQuiz(tbl)
	if !rep.OK() {
		t.Fatalf("unexpected report: %+v", rep)
	}
	wires := QuizWires(rep.Accepted)
	if len(wires) != 2 {
		t.Fatalf("expected 2 wires, got %d", len(wires))
	}
	w := wires[0]
	if w.Option1 != "3" || w.Option2 != "4" || w.Option3 != "" {
		t.Fatalf("options not compacted: %+v", w)
	}
	if w.CorrectAnswer == nil || *w.CorrectAnswer != "2" {
		t.Fatalf("correct answer not renumbered: %v", w.CorrectAnswer)
	}
	if w.Section != "Maths" || w.Difficulty != 1 || w.AnswerExplanation != "Because" {
		t.Fatalf("unexpected wire: %+v", w)
	}
	if wires[1].Difficulty != 3 {
		t.Fatalf("difficulty: %d", wires[1].Difficulty)
	}
}

func TestValidateQuizHeaderGate(t *testing.T) {
	hdr := []string{}
	for _, h := range QuizHeaders {
		if h != ColCorrectAnswer {
			hdr = append(hdr, h)
		}
	}
	// row content is invalid on purpose; only the header error must surface
	tbl := Table{Header: hdr, Rows: []map[string]string{{"Difficulty Level": "9"}}}
	rep := ValidateQuiz(tbl)
	if !reflect.DeepEqual(rep.MissingHeaders, []string{ColCorrectAnswer}) {
		t.Fatalf("missing headers: %v", rep.MissingHeaders)
	}
	if len(rep.RowErrors) != 0 || rep.Accepted != nil {
		t.Fatalf("no row validation may run after a header failure: %+v", rep)
	}
}

func TestValidateQuizAccumulatesRowErrors(t *testing.T) {
	long := strings.Repeat("x", MaxQuestionLen+1)
	tbl := Table{
		Header: QuizHeaders,
		Rows: []map[string]string{
			{"Sno": "1", "Question": long, "Option 1": "a", "Option 2": "b", "Correct Answer": "7",
				"Difficulty Level": "4", "Section": "Way too long section", "Answer Explanation": ""},
			{"Sno": "2", "Question": "ok", "Option 1": "a", "Option 2": "b", "Correct Answer": "1",
				"Difficulty Level": "2", "Section": "S"},
		},
	}
	rep := ValidateQuiz(tbl)
	if rep.OK() || rep.Accepted != nil {
		t.Fatalf("expected rejection: %+v", rep)
	}
	if len(rep.RowErrors) != 1 {
		t.Fatalf("expected one failing row, got %+v", rep.RowErrors)
	}
	re := rep.RowErrors[0]
	if re.Row != 1 || re.Sno != "1" || len(re.Messages) != 4 {
		t.Fatalf("expected 4 accumulated messages on row 1, got %+v", re)
	}
}

func TestValidateQuizCorrectAnswerOnEmptyOption(t *testing.T) {
	tbl := Table{
		Header: QuizHeaders,
		Rows: []map[string]string{
			{"Sno": "1", "Question": "q", "Option 1": "a", "Option 2": "b", "Correct Answer": "5", "Difficulty Level": "1"},
		},
	}
	rep := ValidateQuiz(tbl)
	if len(rep.RowErrors) != 1 || !strings.Contains(rep.RowErrors[0].Messages[0], "Option 5") {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestValidateQuizRejectsNullOption(t *testing.T) {
	tbl := Table{
		Header: QuizHeaders,
		Rows: []map[string]string{
			{"Sno": "1", "Question": "q", "Option 1": "0", "Option 2": "NULL", "Option 3": "empty", "Correct Answer": "3", "Difficulty Level": "1"},
		},
	}
	rep := ValidateQuiz(tbl)
	if rep.OK() || len(rep.RowErrors) != 1 || !strings.Contains(rep.RowErrors[0].Messages[0], "Option 2") {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func rosterFixture() (*identity.Matcher, []identity.User) {
	m := identity.NewMatcher("salt")
	users := []identity.User{
		{ID: "u-a", EmailHash: m.HashEmail("a@x.com")},
		{ID: "u-b", EmailHash: m.HashEmail("b@x.com")},
		{ID: "u-c", Codes: []string{"E100"}},
	}
	return m, users
}

func TestValidateRosterDuplicatesRejectBatch(t *testing.T) {
	m, users := rosterFixture()
	tbl := Table{
		Header: []string{"Sno", "EmpId/Email"},
		Rows: []map[string]string{
			{"Sno": "1", "EmpId/Email": "a@x.com"},
			{"Sno": "2", "EmpId/Email": " A@X.COM "},
			{"Sno": "3", "EmpId/Email": "b@x.com"},
		},
	}
	rep := ValidateRoster(tbl, m, users)
	if !reflect.DeepEqual(rep.Duplicates, []string{"a@x.com"}) {
		t.Fatalf("duplicates: %v", rep.Duplicates)
	}
	if rep.OK() || rep.Accepted != nil {
		t.Fatalf("whole batch must be rejected")
	}
	if len(rep.RowErrors) != 0 {
		t.Fatalf("duplicates are a batch error, not row errors: %+v", rep.RowErrors)
	}
}

func TestValidateRosterRows(t *testing.T) {
	m, users := rosterFixture()
	tbl := Table{
		Header: []string{"SNO", "empId/EMAIL"},
		Rows: []map[string]string{
			{"SNO": "1", "empId/EMAIL": "e100"},
			{"SNO": "", "empId/EMAIL": ""},
			{"SNO": "3", "empId/EMAIL": ""},
			{"SNO": "4", "empId/EMAIL": "zed@x.com"},
		},
	}
	rep := ValidateRoster(tbl, m, users)
	if len(rep.MissingHeaders) != 0 {
		t.Fatalf("headers must match case-insensitively: %v", rep.MissingHeaders)
	}
	if len(rep.RowErrors) != 2 || rep.RowErrors[0].Row != 3 || rep.RowErrors[1].Row != 4 {
		t.Fatalf("row errors: %+v", rep.RowErrors)
	}
	if !strings.Contains(rep.RowErrors[1].Messages[0], "zed@x.com") {
		t.Fatalf("error must name the unresolved value: %v", rep.RowErrors[1].Messages)
	}

	tbl.Rows = tbl.Rows[:2]
	rep = ValidateRoster(tbl, m, users)
	if !rep.OK() || len(rep.Accepted) != 1 || rep.Accepted[0].MatchedUserID != "u-c" {
		t.Fatalf("expected one accepted row for u-c: %+v", rep)
	}
	if ids := UserIDs(rep.Accepted); !reflect.DeepEqual(ids, []string{"u-c"}) {
		t.Fatalf("user ids: %v", ids)
	}
}

func TestValidateRosterMissingHeader(t *testing.T) {
	m, users := rosterFixture()
	rep := ValidateRoster(Table{Header: []string{"sno", "email"}}, m, users)
	if !reflect.DeepEqual(rep.MissingHeaders, []string{ColRosterIdentity}) {
		t.Fatalf("missing: %v", rep.MissingHeaders)
	}
}
