package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/mind-engage/quizbank/internal/client"
	"github.com/mind-engage/quizbank/internal/identity"
	"github.com/mind-engage/quizbank/internal/sheet"
)

func saltFlag(cmd *cobra.Command, salt *string) {
	def := os.Getenv("EMAIL_HASH_SALT")
	if def == "" {
		def = "quizbank-dev-salt"
	}
	cmd.Flags().StringVar(salt, "salt", def, "Salt for the email hash (must match the server)")
}

func newValidateCmd() *cobra.Command {
	var usersFile, salt string
	cmd := &cobra.Command{
		Use:   "validate {quiz|roster} FILE",
		Short: "Check a spreadsheet offline and print the report as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := readTable(args[1])
			if err != nil {
				return err
			}
			switch args[0] {
			case "quiz":
				rep := sheet.ValidateQuiz(t)
				return printReport(cmd.OutOrStdout(), rep, rep.OK())
			case "roster":
				if usersFile == "" {
					return withCode(exitUsage, errors.New("roster validation needs --users"))
				}
				m := identity.NewMatcher(salt)
				users, err := readUsers(usersFile, m)
				if err != nil {
					return err
				}
				rep := sheet.ValidateRoster(t, m, users)
				return printReport(cmd.OutOrStdout(), rep, rep.OK())
			default:
				return withCode(exitUsage, fmt.Errorf("unknown schema %q (want quiz or roster)", args[0]))
			}
		},
	}
	cmd.Flags().StringVar(&usersFile, "users", "", "Users sheet with id, email and codes columns (roster only)")
	saltFlag(cmd, &salt)
	return cmd
}

func newTemplateCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "template {quiz|roster}",
		Short: "Write an empty spreadsheet with the expected header row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var header []string
			switch args[0] {
			case "quiz":
				header = sheet.QuizHeaders
			case "roster":
				header = []string{"Sno", "EmpId/Email"}
			default:
				return withCode(exitUsage, fmt.Errorf("unknown schema %q (want quiz or roster)", args[0]))
			}
			if out == "" || out == "-" {
				w := csv.NewWriter(cmd.OutOrStdout())
				if err := w.Write(header); err != nil {
					return err
				}
				w.Flush()
				return w.Error()
			}
			return writeTemplate(out, header)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "-", "Output file (.csv or .xlsx); - for stdout")
	return cmd
}

func newHashEmailCmd() *cobra.Command {
	var salt string
	cmd := &cobra.Command{
		Use:   "hash-email EMAIL...",
		Short: "Print the salted hash the server stores for each email",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := identity.NewMatcher(salt)
			for _, e := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", identity.NormalizeEmail(e), m.HashEmail(e))
			}
			return nil
		},
	}
	saltFlag(cmd, &salt)
	return cmd
}

func newPushCmd() *cobra.Command {
	var server, token, user, password string
	cmd := &cobra.Command{
		Use:   "push {questions|roster} QUIZ_ID FILE",
		Short: "Upload a spreadsheet to the server's import endpoint",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c := client.New(client.Config{BaseURL: server, Token: token})
			if token == "" {
				if user == "" {
					return withCode(exitUsage, errors.New("need --token or --user"))
				}
				if err := c.Login(ctx, user, password); err != nil {
					return err
				}
			}
			f, err := os.Open(args[2])
			if err != nil {
				return err
			}
			defer f.Close()

			var res client.ImportResult
			switch args[0] {
			case "questions":
				res, err = c.ImportQuestions(ctx, args[1], filepath.Base(args[2]), f)
			case "roster":
				res, err = c.ImportRoster(ctx, args[1], filepath.Base(args[2]), f)
			default:
				return withCode(exitUsage, fmt.Errorf("unknown kind %q (want questions or roster)", args[0]))
			}
			var se *client.StatusError
			if errors.As(err, &se) && se.Status == 422 {
				fmt.Fprintln(cmd.OutOrStdout(), se.Body)
				return withCode(exitRejected, errors.New("import rejected"))
			}
			if err != nil {
				return err
			}
			b, _ := json.MarshalIndent(res, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", envOr("QUIZBANK_URL", "http://localhost:8080"), "Server base URL")
	cmd.Flags().StringVar(&token, "token", os.Getenv("QUIZBANK_TOKEN"), "Bearer token")
	cmd.Flags().StringVar(&user, "user", "", "Username for local login")
	cmd.Flags().StringVar(&password, "password", os.Getenv("QUIZBANK_PASSWORD"), "Password for local login")
	return cmd
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func readTable(path string) (sheet.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return sheet.Table{}, err
	}
	defer f.Close()
	t, err := sheet.Read(path, f)
	if errors.Is(err, sheet.ErrUnsupportedFormat) {
		return t, withCode(exitUsage, err)
	}
	return t, err
}

// readUsers loads id, email and codes (';'-separated) columns and hashes
// emails the way the server does.
func readUsers(path string, m *identity.Matcher) ([]identity.User, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	cols := map[string]string{}
	for _, h := range t.Header {
		cols[strings.ToLower(h)] = h
	}
	if _, ok := cols["id"]; !ok {
		return nil, withCode(exitUsage, errors.New("users sheet: missing column: id"))
	}
	users := make([]identity.User, 0, len(t.Rows))
	for _, row := range t.Rows {
		u := identity.User{ID: strings.TrimSpace(row[cols["id"]])}
		if h, ok := cols["email"]; ok && strings.TrimSpace(row[h]) != "" {
			u.EmailHash = m.HashEmail(row[h])
		}
		if h, ok := cols["codes"]; ok {
			for _, c := range strings.Split(row[h], ";") {
				if c = strings.TrimSpace(c); c != "" {
					u.Codes = append(u.Codes, c)
				}
			}
		}
		users = append(users, u)
	}
	return users, nil
}

func printReport(w io.Writer, rep any, ok bool) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(b))
	if !ok {
		return withCode(exitRejected, errors.New("spreadsheet rejected"))
	}
	return nil
}

func writeTemplate(path string, header []string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			_ = f.Close()
			return err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	case ".xlsx":
		x := excelize.NewFile()
		defer x.Close()
		row := make([]any, len(header))
		for i, h := range header {
			row[i] = h
		}
		sheetName := x.GetSheetName(0)
		if err := x.SetSheetRow(sheetName, "A1", &row); err != nil {
			return err
		}
		return x.SaveAs(path)
	default:
		return withCode(exitUsage, fmt.Errorf("%w: %q", sheet.ErrUnsupportedFormat, filepath.Ext(path)))
	}
}
