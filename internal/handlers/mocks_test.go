package handlers

import (
	"context"
	"sync"

	"github.com/chepyr/task-api/internal/auth"
	"github.com/chepyr/task-api/internal/db"
	"github.com/chepyr/task-api/internal/models"
)

type MockUserRepository struct {
	users     map[string]models.User
	nextID    int64
	createErr error
	getErr    error
	mutex     sync.Mutex
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]models.User)}
}

func (m *MockUserRepository) Create(ctx context.Context, username, passwordHash string) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.createErr != nil {
		return 0, m.createErr
	}
	if _, exists := m.users[username]; exists {
		return 0, db.ErrUsernameTaken
	}
	m.nextID++
	m.users[username] = models.User{ID: m.nextID, Username: username, PasswordHash: passwordHash}
	return m.nextID, nil
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (models.User, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.getErr != nil {
		return models.User{}, m.getErr
	}
	return m.users[username], nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.getErr != nil {
		return models.User{}, m.getErr
	}
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return models.User{}, nil
}

func SetupMockUser(username, password string) *MockUserRepository {
	repo := NewMockUserRepository()
	hash, _ := auth.HashPassword(password)
	repo.nextID = 1
	repo.users[username] = models.User{ID: 1, Username: username, PasswordHash: hash}
	return repo
}

// failingTaskRepository returns err from every call.
type failingTaskRepository struct {
	err error
}

func (f failingTaskRepository) Create(context.Context, *models.Task) (int64, error) {
	return 0, f.err
}

func (f failingTaskRepository) ListByUserID(context.Context, int64) ([]models.Task, error) {
	return nil, f.err
}

func (f failingTaskRepository) GetByID(context.Context, int64) (models.Task, error) {
	return models.Task{}, f.err
}

func (f failingTaskRepository) Update(context.Context, *models.Task) error {
	return f.err
}

func (f failingTaskRepository) Delete(context.Context, int64, int64) error {
	return f.err
}
