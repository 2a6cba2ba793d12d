package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/tradesense/tradesense-api/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

func setupTestService(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)

	err = db.AutoMigrate(&types.User{})
	assert.NoError(t, err)

	return NewService(db, testSecret)
}

func TestRegisterAndLogin(t *testing.T) {
	service := setupTestService(t)

	result, err := service.Register(RegisterRequest{
		Email:    "Trader@Example.COM",
		Password: "secret-pass",
		FullName: "  Test Trader  ",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)

	// Email and name are normalized on the way in
	assert.Equal(t, "trader@example.com", result.User.Email)
	assert.Equal(t, "Test Trader", result.User.FullName)
	assert.Equal(t, RoleUser, result.User.Role)
	assert.Contains(t, result.User.UserID, "USR_")

	// Login works case-insensitively on the email
	login, err := service.Login(LoginRequest{
		Email:    "TRADER@example.com",
		Password: "secret-pass",
	})
	assert.NoError(t, err)
	assert.Equal(t, result.User.UserID, login.User.UserID)
}

func TestRegisterValidation(t *testing.T) {
	service := setupTestService(t)

	_, err := service.Register(RegisterRequest{Email: "not-an-email", Password: "secret-pass"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = service.Register(RegisterRequest{Email: "a@b.com", Password: "short"})
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service := setupTestService(t)

	_, err := service.Register(RegisterRequest{Email: "a@b.com", Password: "secret-pass"})
	assert.NoError(t, err)

	_, err = service.Register(RegisterRequest{Email: "A@B.com", Password: "other-pass-1"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	service := setupTestService(t)

	_, err := service.Register(RegisterRequest{Email: "a@b.com", Password: "secret-pass"})
	assert.NoError(t, err)

	_, err = service.Login(LoginRequest{Email: "a@b.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Login(LoginRequest{Email: "nobody@b.com", Password: "secret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokenClaims(t *testing.T) {
	service := setupTestService(t)

	result, err := service.Register(RegisterRequest{Email: "a@b.com", Password: "secret-pass"})
	assert.NoError(t, err)

	parse := func(raw string) jwt.MapClaims {
		token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
			return []byte(testSecret), nil
		})
		assert.NoError(t, err)
		assert.True(t, token.Valid)
		return token.Claims.(jwt.MapClaims)
	}

	access := parse(result.AccessToken)
	assert.Equal(t, "access", access["token_type"])
	assert.Equal(t, result.User.UserID, access["user_id"])
	assert.Equal(t, RoleUser, access["role"])

	refresh := parse(result.RefreshToken)
	assert.Equal(t, "refresh", refresh["token_type"])
}

func TestUpdateProfile(t *testing.T) {
	service := setupTestService(t)

	result, err := service.Register(RegisterRequest{Email: "a@b.com", Password: "secret-pass"})
	assert.NoError(t, err)

	newName := "Renamed Trader"
	newPassword := "rotated-pass"
	user, err := service.UpdateProfile(result.User.UserID, UpdateProfileRequest{
		FullName: &newName,
		Password: &newPassword,
	})
	assert.NoError(t, err)
	assert.Equal(t, newName, user.FullName)

	// Old password no longer works, new one does
	_, err = service.Login(LoginRequest{Email: "a@b.com", Password: "secret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = service.Login(LoginRequest{Email: "a@b.com", Password: newPassword})
	assert.NoError(t, err)
}

func TestRefreshAccessToken(t *testing.T) {
	service := setupTestService(t)

	result, err := service.Register(RegisterRequest{Email: "a@b.com", Password: "secret-pass"})
	assert.NoError(t, err)

	token, err := service.RefreshAccessToken(result.User.UserID)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = service.RefreshAccessToken("USR_missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
