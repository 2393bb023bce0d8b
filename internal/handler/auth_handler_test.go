package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vaultboard/internal/auth"
	"vaultboard/internal/handler"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthTest(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	r := gin.Default()

	authHandler, err := handler.NewAuthHandler("password123", []byte("test-secret"), time.Hour)
	require.NoError(t, err)

	r.POST("/api/auth/login", authHandler.Login)
	return r
}

func TestLogin_Success(t *testing.T) {
	// Arrange
	router := setupAuthTest(t)

	reqBody := handler.LoginRequest{Password: "password123"}
	jsonBody, _ := json.Marshal(reqBody)
	req, _ := http.NewRequest("POST", "/api/auth/login", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)

	var response handler.AuthResponse
	err := json.Unmarshal(resp.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.NotEmpty(t, response.Token)

	// Проверяем, что токен выписан на админский ID
	userID, err := auth.ParseToken(response.Token, []byte("test-secret"))
	assert.NoError(t, err)
	assert.Equal(t, auth.AdminUserID().String(), userID)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	// Arrange
	router := setupAuthTest(t)

	// Создаем тестовый запрос с неверным паролем
	reqBody := handler.LoginRequest{Password: "wrong_password"}
	jsonBody, _ := json.Marshal(reqBody)
	req, _ := http.NewRequest("POST", "/api/auth/login", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	var response map[string]string
	err := json.Unmarshal(resp.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "Invalid credentials", response["error"])
}

func TestLogin_MissingPassword(t *testing.T) {
	// Arrange
	router := setupAuthTest(t)

	req, _ := http.NewRequest("POST", "/api/auth/login", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
