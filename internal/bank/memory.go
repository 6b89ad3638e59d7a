package bank

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/quizbank/internal/identity"
	"github.com/mind-engage/quizbank/internal/question"
)

// MemoryStore keeps everything in maps; used by tests and the offline CLI.
type MemoryStore struct {
	mu          sync.RWMutex
	quizzes     map[string]Quiz
	questions   map[string][]question.Wire // quizID -> ordered
	users       []identity.User
	assignments map[string]map[string]bool
}

func NewInMemoryStore(users ...identity.User) *MemoryStore {
	return &MemoryStore{
		quizzes:     map[string]Quiz{},
		questions:   map[string][]question.Wire{},
		users:       users,
		assignments: map[string]map[string]bool{},
	}
}

func (m *MemoryStore) PutQuiz(_ context.Context, q Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.CreatedAt == 0 {
		q.CreatedAt = time.Now().Unix()
	}
	m.quizzes[q.ID] = q
	return nil
}

func (m *MemoryStore) GetQuiz(_ context.Context, id string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, ErrQuizNotFound
	}
	return q, nil
}

func (m *MemoryStore) ListQuizzes(_ context.Context) ([]Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Quiz, 0, len(m.quizzes))
	for _, q := range m.quizzes {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) ListQuestions(_ context.Context, quizID string) ([]question.Wire, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.quizzes[quizID]; !ok {
		return nil, ErrQuizNotFound
	}
	return append([]question.Wire{}, m.questions[quizID]...), nil
}

func (m *MemoryStore) SaveQuestions(_ context.Context, quizID string, qs []question.Wire) ([]question.Wire, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[quizID]; !ok {
		return nil, ErrQuizNotFound
	}
	current := m.questions[quizID]
	pos := make(map[string]int, len(current))
	for i, w := range current {
		pos[w.ID] = i
	}

	saved := make([]question.Wire, 0, len(qs))
	touched := map[string]bool{}
	for _, w := range qs {
		if w.ID == "" {
			w.ID = uuid.NewString()
		} else if _, ok := pos[w.ID]; !ok {
			return nil, ErrQuestionNotFound
		}
		touched[w.ID] = true
		saved = append(saved, w)
	}
	// batch order first, then whatever the batch did not mention
	next := append([]question.Wire{}, saved...)
	for _, w := range current {
		if !touched[w.ID] {
			next = append(next, w)
		}
	}
	m.questions[quizID] = next
	return saved, nil
}

func (m *MemoryStore) CreateQuestions(_ context.Context, quizID string, qs []question.Wire) ([]question.Wire, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[quizID]; !ok {
		return nil, ErrQuizNotFound
	}
	out := make([]question.Wire, 0, len(qs))
	for _, w := range qs {
		w.ID = uuid.NewString()
		out = append(out, w)
	}
	m.questions[quizID] = append(m.questions[quizID], out...)
	return out, nil
}

func (m *MemoryStore) DeleteQuestion(_ context.Context, quizID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	qs := m.questions[quizID]
	for i, w := range qs {
		if w.ID == id {
			m.questions[quizID] = append(qs[:i], qs[i+1:]...)
			return nil
		}
	}
	return ErrQuestionNotFound
}

func (m *MemoryStore) KnownUsers(_ context.Context) ([]identity.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]identity.User{}, m.users...), nil
}

func (m *MemoryStore) AssignUsers(_ context.Context, quizID string, userIDs []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[quizID]; !ok {
		return 0, ErrQuizNotFound
	}
	set := m.assignments[quizID]
	if set == nil {
		set = map[string]bool{}
		m.assignments[quizID] = set
	}
	n := 0
	for _, id := range userIDs {
		if !set[id] {
			set[id] = true
			n++
		}
	}
	return n, nil
}
