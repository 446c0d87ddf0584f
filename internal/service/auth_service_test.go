package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/studyhall/planner-api/internal/models"
	appErrors "github.com/studyhall/planner-api/pkg/errors"
)

type authRepoStub struct {
	users   map[string]*models.User
	tokens  map[string]*models.RefreshToken
	revoked []string
}

func newAuthRepoStub(users ...*models.User) *authRepoStub {
	stub := &authRepoStub{
		users:  make(map[string]*models.User),
		tokens: make(map[string]*models.RefreshToken),
	}
	for _, user := range users {
		stub.users[user.ID] = user
	}
	return stub
}

func (s *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (s *authRepoStub) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	for id, token := range s.tokens {
		if token.UserID == userID {
			token.Revoked = true
			s.revoked = append(s.revoked, id)
		}
	}
	return nil
}

func (s *authRepoStub) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	s.tokens[token.Token] = token
	return nil
}

func (s *authRepoStub) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if stored, ok := s.tokens[token]; ok {
		return stored, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range s.tokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
			s.revoked = append(s.revoked, id)
			return nil
		}
	}
	return sql.ErrNoRows
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "planner-api-test",
	}
}

func testUser(t *testing.T) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        "student@example.com",
		PasswordHash: string(hash),
		FullName:     "Student One",
		Role:         models.RoleStudent,
		Active:       true,
	}
}

func TestAuthServiceLogin(t *testing.T) {
	repo := newAuthRepoStub(testUser(t))
	service := NewAuthService(repo, nil, nil, testAuthConfig())

	res, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "student@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "user-1", res.User.ID)

	claims, err := service.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newAuthRepoStub(testUser(t))
	service := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "student@example.com",
		Password: "nope",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	user := testUser(t)
	user.Active = false
	service := NewAuthService(newAuthRepoStub(user), nil, nil, testAuthConfig())

	_, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "student@example.com",
		Password: "password123",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newAuthRepoStub(testUser(t))
	service := NewAuthService(repo, nil, nil, testAuthConfig())

	login, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "student@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	refreshed, err := service.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The used token is revoked and cannot be replayed.
	_, err = service.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
}

func TestAuthServiceLogout(t *testing.T) {
	repo := newAuthRepoStub(testUser(t))
	service := NewAuthService(repo, nil, nil, testAuthConfig())

	login, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "student@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	require.Error(t, service.Logout(context.Background(), login.RefreshToken, "someone-else"))
	require.NoError(t, service.Logout(context.Background(), login.RefreshToken, "user-1"))
	assert.NotEmpty(t, repo.revoked)
}
