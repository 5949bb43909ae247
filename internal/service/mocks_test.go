package service

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/hnhnc176/empathy-auth-service/internal/domain"
	"github.com/hnhnc176/empathy-auth-service/internal/repository"
)

// mockUserRepo is an in-memory UserRepository. It stores records by value
// so mutations only persist through Update, like the real store.
type mockUserRepo struct {
	mu          sync.Mutex
	users       map[uuid.UUID]domain.User
	updateCalls int
	clearCalls  int

	getByEmailErr error
	updateErr     error
}

func newMockUserRepo(users ...*domain.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[uuid.UUID]domain.User)}
	for _, u := range users {
		m.users[u.ID] = *u
	}
	return m
}

func (m *mockUserRepo) get(id uuid.UUID) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	return &u
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailErr != nil {
		return nil, m.getByEmailErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			copied := u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == strings.ToLower(username) {
			copied := u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.SessionToken != nil && *u.SessionToken == token {
			copied := u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			copied := u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	m.users[user.ID] = *user
	m.updateCalls++
	return nil
}

func (m *mockUserRepo) ClearSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.SessionToken = nil
	u.SessionExpiresAt = nil
	u.IsOTPVerified = false
	m.users[id] = u
	m.clearCalls++
	return nil
}

func (m *mockUserRepo) IncrementLoginAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	u.LoginAttempts++
	m.users[id] = u
	return u.LoginAttempts, nil
}

func (m *mockUserRepo) IncrementOTPAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	u.OTPAttempts++
	m.users[id] = u
	return u.OTPAttempts, nil
}

// mockDispatcher records sent emails and can be forced to fail
type mockDispatcher struct {
	mu      sync.Mutex
	sendErr error

	verificationSent    int
	otpSent             []string
	resetOTPSent        []string
	passwordChangedSent int
	welcomeSent         int
}

func (m *mockDispatcher) SendVerificationEmail(ctx context.Context, to, username, token, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.verificationSent++
	return nil
}

func (m *mockDispatcher) SendOTP(ctx context.Context, to, username, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.otpSent = append(m.otpSent, code)
	return nil
}

func (m *mockDispatcher) SendPasswordResetOTP(ctx context.Context, to, username, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.resetOTPSent = append(m.resetOTPSent, code)
	return nil
}

func (m *mockDispatcher) SendPasswordChangedEmail(ctx context.Context, to, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.passwordChangedSent++
	return nil
}

func (m *mockDispatcher) SendWelcomeEmail(ctx context.Context, to, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.welcomeSent++
	return nil
}

// mockPreferences records default-settings initializations
type mockPreferences struct {
	mu        sync.Mutex
	createErr error
	created   []uuid.UUID
}

func (m *mockPreferences) CreateDefaultSettings(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, userID)
	return nil
}
