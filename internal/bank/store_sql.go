package bank

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/quizbank/internal/identity"
	"github.com/mind-engage/quizbank/internal/question"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const questionCols = `id,section,question,option1,option2,option3,option4,option5,option6,
	correct_answer,diffculty,marks,answer_explanation`

func (s *SQLStore) PutQuiz(ctx context.Context, q Quiz) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO quizzes (id,title,created_at) VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title`,
		q.ID, q.Title, time.Now().Unix())
	return err
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	var q Quiz
	err := s.db.QueryRowContext(ctx, `SELECT id,title,created_at FROM quizzes WHERE id=$1`, id).
		Scan(&q.ID, &q.Title, &q.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Quiz{}, ErrQuizNotFound
	}
	return q, err
}

func (s *SQLStore) ListQuizzes(ctx context.Context) ([]Quiz, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,title,created_at FROM quizzes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Quiz{}
	for rows.Next() {
		var q Quiz
		if err := rows.Scan(&q.ID, &q.Title, &q.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListQuestions(ctx context.Context, quizID string) ([]question.Wire, error) {
	if _, err := s.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionCols+` FROM questions WHERE quiz_id=$1 ORDER BY position, created_at, id`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []question.Wire{}
	for rows.Next() {
		var w question.Wire
		var correct sql.NullString
		if err := rows.Scan(&w.ID, &w.Section, &w.Question,
			&w.Option1, &w.Option2, &w.Option3, &w.Option4, &w.Option5, &w.Option6,
			&correct, &w.Difficulty, &w.Marks, &w.AnswerExplanation); err != nil {
			return nil, err
		}
		if correct.Valid {
			w.CorrectAnswer = &correct.String
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveQuestions(ctx context.Context, quizID string, qs []question.Wire) (saved []question.Wire, err error) {
	if _, err := s.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	now := time.Now().Unix()
	saved = make([]question.Wire, 0, len(qs))
	for pos, w := range qs {
		if w.ID == "" {
			w.ID = uuid.NewString()
			if err = insertQuestion(ctx, tx, quizID, pos, w, now); err != nil {
				return nil, err
			}
		} else {
			var res sql.Result
			res, err = tx.ExecContext(ctx, `UPDATE questions SET position=$1, section=$2, question=$3,
				option1=$4, option2=$5, option3=$6, option4=$7, option5=$8, option6=$9,
				correct_answer=$10, diffculty=$11, marks=$12, answer_explanation=$13, updated_at=$14
				WHERE id=$15 AND quiz_id=$16`,
				pos, w.Section, w.Question, w.Option1, w.Option2, w.Option3, w.Option4, w.Option5, w.Option6,
				nullable(w.CorrectAnswer), w.Difficulty, w.Marks, w.AnswerExplanation, now, w.ID, quizID)
			if err != nil {
				return nil, err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				err = ErrQuestionNotFound
				return nil, err
			}
		}
		saved = append(saved, w)
	}
	return saved, nil
}

func (s *SQLStore) CreateQuestions(ctx context.Context, quizID string, qs []question.Wire) (created []question.Wire, err error) {
	if _, err := s.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var start int
	if err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position)+1, 0) FROM questions WHERE quiz_id=$1`, quizID).Scan(&start); err != nil {
		return nil, err
	}
	now := time.Now().Unix()
	created = make([]question.Wire, 0, len(qs))
	for i, w := range qs {
		w.ID = uuid.NewString()
		if err = insertQuestion(ctx, tx, quizID, start+i, w, now); err != nil {
			return nil, err
		}
		created = append(created, w)
	}
	return created, nil
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, quizID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1 AND quiz_id=$2`, id, quizID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (s *SQLStore) KnownUsers(ctx context.Context) ([]identity.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,email_hash,codes_json FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []identity.User
	for rows.Next() {
		var u identity.User
		var codes string
		if err := rows.Scan(&u.ID, &u.EmailHash, &codes); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(codes), &u.Codes); err != nil {
			u.Codes = nil
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLStore) AssignUsers(ctx context.Context, quizID string, userIDs []string) (added int, err error) {
	if _, err := s.GetQuiz(ctx, quizID); err != nil {
		return 0, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	now := time.Now().Unix()
	for _, uid := range userIDs {
		var res sql.Result
		res, err = tx.ExecContext(ctx, `INSERT INTO quiz_assignments (quiz_id,user_id,assigned_at) VALUES ($1,$2,$3)
			ON CONFLICT (quiz_id,user_id) DO NOTHING`, quizID, uid, now)
		if err != nil {
			return 0, err
		}
		n, _ := res.RowsAffected()
		added += int(n)
	}
	return added, nil
}

func insertQuestion(ctx context.Context, tx *sql.Tx, quizID string, pos int, w question.Wire, now int64) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO questions (id,quiz_id,position,section,question,
		option1,option2,option3,option4,option5,option6,correct_answer,diffculty,marks,answer_explanation,
		created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		w.ID, quizID, pos, w.Section, w.Question,
		w.Option1, w.Option2, w.Option3, w.Option4, w.Option5, w.Option6,
		nullable(w.CorrectAnswer), w.Difficulty, w.Marks, w.AnswerExplanation, now, now)
	return err
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
