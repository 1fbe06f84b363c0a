package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"reviewhub/internal/config"
	"reviewhub/internal/domain"
	"reviewhub/internal/service"
	"reviewhub/mocks"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:             "test-secret-key-for-unit-tests",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 168 * time.Hour,
		Issuer:             "reviewhub-test",
	}
}

func hashPassword(password string) string {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(hash)
}

func activeUser(password string) *domain.User {
	return &domain.User{
		ID:           uuid.New(),
		Email:        "user@test.com",
		PasswordHash: hashPassword(password),
		FullName:     "Test User",
		IsActive:     true,
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	svc := service.NewAuthService(userRepo, new(mocks.MockEmailSender), testJWTConfig())

	user := activeUser("password123")
	userRepo.On("GetByEmail", mock.Anything, "user@test.com").Return(user, nil)

	result, err := svc.Login(context.Background(), service.LoginInput{
		Email:    "user@test.com",
		Password: "password123",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.True(t, result.ExpiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "user@test.com", claims.Email)

	userRepo.AssertExpectations(t)
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	svc := service.NewAuthService(userRepo, new(mocks.MockEmailSender), testJWTConfig())

	userRepo.On("GetByEmail", mock.Anything, "user@test.com").Return(activeUser("password123"), nil)

	result, err := svc.Login(context.Background(), service.LoginInput{Email: "user@test.com", Password: "wrong-password"})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	svc := service.NewAuthService(userRepo, new(mocks.MockEmailSender), testJWTConfig())

	userRepo.On("GetByEmail", mock.Anything, "nobody@test.com").Return(nil, domain.ErrNotFound)

	_, err := svc.Login(context.Background(), service.LoginInput{Email: "nobody@test.com", Password: "password123"})

	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_Login_InactiveUser(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	svc := service.NewAuthService(userRepo, new(mocks.MockEmailSender), testJWTConfig())

	user := activeUser("password123")
	user.IsActive = false
	userRepo.On("GetByEmail", mock.Anything, "user@test.com").Return(user, nil)

	_, err := svc.Login(context.Background(), service.LoginInput{Email: "user@test.com", Password: "password123"})

	assert.ErrorIs(t, err, domain.ErrUserInactive)
}

func TestAuthService_Register_WelcomeEmailFailureIgnored(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	emailSender := new(mocks.MockEmailSender)
	svc := service.NewAuthService(userRepo, emailSender, testJWTConfig())

	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "new@test.com" && u.FullName == "New User" && u.PasswordHash != "password123"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.User).ID = uuid.New()
	}).Return(nil)
	emailSender.On("SendWelcomeEmail", mock.Anything, "new@test.com", "New User").Return(errors.New("smtp down"))

	user, tokens, err := svc.Register(context.Background(), service.RegisterInput{
		Email:    "  New@Test.com ",
		Password: "password123",
		FullName: " New User ",
	})

	require.NoError(t, err)
	assert.Equal(t, "new@test.com", user.Email)
	assert.NotEmpty(t, tokens.AccessToken)
	emailSender.AssertExpectations(t)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	emailSender := new(mocks.MockEmailSender)
	svc := service.NewAuthService(userRepo, emailSender, testJWTConfig())

	userRepo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrDuplicateEmail)

	_, _, err := svc.Register(context.Background(), service.RegisterInput{
		Email: "dup@test.com", Password: "password123", FullName: "Dup",
	})

	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	emailSender.AssertNotCalled(t, "SendWelcomeEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_RefreshToken(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	svc := service.NewAuthService(userRepo, new(mocks.MockEmailSender), testJWTConfig())

	user := activeUser("password123")
	userRepo.On("GetByEmail", mock.Anything, "user@test.com").Return(user, nil)
	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	first, err := svc.Login(context.Background(), service.LoginInput{Email: "user@test.com", Password: "password123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestAuthService_TokenAudiencesAreNotInterchangeable(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	svc := service.NewAuthService(userRepo, new(mocks.MockEmailSender), testJWTConfig())

	userRepo.On("GetByEmail", mock.Anything, "user@test.com").Return(activeUser("password123"), nil)
	tokens, err := svc.Login(context.Background(), service.LoginInput{Email: "user@test.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(tokens.RefreshToken)
	assert.Error(t, err)

	_, err = svc.RefreshToken(context.Background(), tokens.AccessToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthService_ValidateToken_WrongSecret(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	svc := service.NewAuthService(userRepo, new(mocks.MockEmailSender), testJWTConfig())
	userRepo.On("GetByEmail", mock.Anything, "user@test.com").Return(activeUser("password123"), nil)
	tokens, err := svc.Login(context.Background(), service.LoginInput{Email: "user@test.com", Password: "password123"})
	require.NoError(t, err)

	other := testJWTConfig()
	other.Secret = "a-different-secret"
	_, err = service.NewAuthService(userRepo, new(mocks.MockEmailSender), other).ValidateToken(tokens.AccessToken)

	assert.Error(t, err)
}
