package bank

import (
	"context"
	"errors"

	"github.com/mind-engage/quizbank/internal/identity"
	"github.com/mind-engage/quizbank/internal/question"
)

var (
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuestionNotFound = errors.New("question not found")
)

type Quiz struct {
	ID        string `json:"id" validate:"required,max=64"`
	Title     string `json:"title" validate:"required,max=200"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

type Store interface {
	PutQuiz(ctx context.Context, q Quiz) error
	GetQuiz(ctx context.Context, id string) (Quiz, error)
	ListQuizzes(ctx context.Context) ([]Quiz, error)

	// ListQuestions returns a quiz's questions in display order.
	ListQuestions(ctx context.Context, quizID string) ([]question.Wire, error)
	// SaveQuestions upserts a batch in one transaction: records with an id
	// are updated, the rest are created. The batch order becomes the display
	// order. Returns the stored records in request order.
	SaveQuestions(ctx context.Context, quizID string, qs []question.Wire) ([]question.Wire, error)
	// CreateQuestions appends new records after the existing ones, ignoring
	// any id the caller sent.
	CreateQuestions(ctx context.Context, quizID string, qs []question.Wire) ([]question.Wire, error)
	DeleteQuestion(ctx context.Context, quizID, id string) error

	KnownUsers(ctx context.Context) ([]identity.User, error)
	AssignUsers(ctx context.Context, quizID string, userIDs []string) (int, error)
}
