package auth_test

import (
	"testing"
	"time"

	"vaultboard/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var testSecret = []byte("test-secret-key")

func TestGenerateAndParseToken(t *testing.T) {
	// Генерируем токен
	userID := auth.AdminUserID().String()
	token, err := auth.GenerateToken(userID, testSecret, 24*time.Hour)

	// Проверяем, что токен создан без ошибок
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	// Парсим токен
	parsedUserID, err := auth.ParseToken(token, testSecret)

	// Проверяем, что токен был успешно проверен и из него извлечен правильный ID пользователя
	assert.NoError(t, err)
	assert.Equal(t, userID, parsedUserID)
}

func TestParseToken_InvalidToken(t *testing.T) {
	// Пытаемся парсить неверный токен
	_, err := auth.ParseToken("invalid-token", testSecret)

	// Проверяем, что возникла ошибка
	assert.Error(t, err)
	assert.Equal(t, "invalid token", err.Error())
}

func TestParseToken_ExpiredToken(t *testing.T) {
	// Создаем токен с истекшим сроком действия
	token, err := auth.GenerateToken("test-user-id", testSecret, -1*time.Hour)
	assert.NoError(t, err)

	// Пытаемся парсить истекший токен
	_, err = auth.ParseToken(token, testSecret)

	// Проверяем, что возникла ошибка
	assert.Error(t, err)
	assert.Equal(t, "invalid token", err.Error())
}

func TestParseToken_WrongSecret(t *testing.T) {
	// Токен подписан другим секретом
	token, err := auth.GenerateToken("test-user-id", []byte("another-secret"), time.Hour)
	assert.NoError(t, err)

	_, err = auth.ParseToken(token, testSecret)

	assert.Error(t, err)
	assert.Equal(t, "invalid token", err.Error())
}

func TestParseToken_MissingClaims(t *testing.T) {
	// Создаем токен без ID пользователя
	claims := jwt.MapClaims{
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenWithoutUserID, _ := token.SignedString(testSecret)

	// Пытаемся парсить токен
	_, err := auth.ParseToken(tokenWithoutUserID, testSecret)

	// Проверяем, что возникла ошибка
	assert.Error(t, err)
	assert.Equal(t, "invalid claims", err.Error())
}

func TestAdminUserID_IsStable(t *testing.T) {
	assert.Equal(t, auth.AdminUserID(), auth.AdminUserID())
	assert.NotEqual(t, uuid.Nil, auth.AdminUserID())
}
