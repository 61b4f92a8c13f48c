package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/marketplace-api/internal/auth"
	"github.com/flicky/marketplace-api/internal/dto"
	"github.com/flicky/marketplace-api/internal/model"
	"github.com/flicky/marketplace-api/internal/repository"
)

type mockUserRepo struct {
	users  map[string]*model.User
	byID   map[int64]*model.User
	nextID int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User), byID: make(map[int64]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.Email]; ok {
		return repository.ErrDuplicate
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	m.users[user.Email] = user
	m.byID[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return m.users[email], nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, user *model.User) error {
	if other, ok := m.users[user.Email]; ok && other.ID != user.ID {
		return repository.ErrDuplicate
	}
	old, ok := m.byID[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	delete(m.users, old.Email)
	m.users[user.Email] = user
	m.byID[user.ID] = user
	return nil
}

func (m *mockUserRepo) add(user *model.User) {
	m.users[user.Email] = user
	m.byID[user.ID] = user
}

func newTestTokens() *auth.TokenManager {
	return auth.NewTokenManager("test-secret", nil, time.Hour)
}

func TestAuthService_Signup(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, newTestTokens())

	user, err := svc.Signup(context.Background(), dto.SignupRequest{
		Name: "Ada", Email: "ada@example.com", Password: "password123", Role: model.RoleShopkeeper,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, model.RoleShopkeeper, user.Role)
	assert.NotEqual(t, "password123", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
}

func TestAuthService_Signup_Duplicate(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, newTestTokens())
	repo.add(&model.User{ID: 1, Email: "ada@example.com"})

	_, err := svc.Signup(context.Background(), dto.SignupRequest{
		Name: "Ada", Email: "ada@example.com", Password: "password123", Role: model.RoleCustomer,
	})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestAuthService_Signup_InvalidRole(t *testing.T) {
	svc := NewAuthService(newMockUserRepo(), newTestTokens())

	_, err := svc.Signup(context.Background(), dto.SignupRequest{
		Name: "Ada", Email: "ada@example.com", Password: "password123", Role: "admin",
	})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestAuthService_Login(t *testing.T) {
	repo := newMockUserRepo()
	tokens := newTestTokens()
	svc := NewAuthService(repo, tokens)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	repo.add(&model.User{
		ID: 7, Name: "Ada", Email: "ada@example.com", Password: string(hashed),
		Address: "1 Main St", Role: model.RoleCustomer,
	})

	resp, err := svc.Login(context.Background(), dto.LoginRequest{
		Email: "ada@example.com", Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Login successful", resp.Message)
	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, "1 Main St", resp.Address)

	claims, err := tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.ID)
	assert.Equal(t, model.RoleCustomer, claims.Role)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc := NewAuthService(newMockUserRepo(), newTestTokens())

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email: "nobody@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, ErrUnknownEmail)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, newTestTokens())

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	repo.add(&model.User{ID: 1, Email: "ada@example.com", Password: string(hashed), Role: model.RoleCustomer})

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email: "ada@example.com", Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidPassword)
}
