package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/autopub/publish-gin/internal/api"
	"github.com/autopub/publish-gin/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// signToken 用指定密钥签发一个测试 token
func signToken(t *testing.T, secret, userID, issuer string, expiresIn time.Duration) string {
	t.Helper()
	claims := &api.TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func setupAuthRouter(validator *api.TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(api.AuthMiddleware(validator))
	r.GET("/protected", func(c *gin.Context) {
		api.Success(c, gin.H{"user_id": c.GetString("user_id")})
	})
	return r
}

func testValidator() *api.TokenValidator {
	return api.NewTokenValidator(&config.AuthConfig{Secret: testSecret, Issuer: "publish-gin"})
}

// TestAuthMiddleware_ValidToken 测试合法 token 放行并注入用户标识
func TestAuthMiddleware_ValidToken(t *testing.T) {
	r := setupAuthRouter(testValidator())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "user-1", "publish-gin", time.Hour))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
}

// TestAuthMiddleware_MissingHeader 测试缺失认证头 401
func TestAuthMiddleware_MissingHeader(t *testing.T) {
	r := setupAuthRouter(testValidator())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestAuthMiddleware_MalformedHeader 测试非 Bearer 认证头 401
func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	r := setupAuthRouter(testValidator())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestAuthMiddleware_WrongSecret 测试错误密钥签名的 token 401
func TestAuthMiddleware_WrongSecret(t *testing.T) {
	r := setupAuthRouter(testValidator())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", "user-1", "publish-gin", time.Hour))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestAuthMiddleware_ExpiredToken 测试过期 token 401
func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	r := setupAuthRouter(testValidator())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "user-1", "publish-gin", -time.Hour))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestAuthMiddleware_WrongIssuer 测试签发方不匹配 401
func TestAuthMiddleware_WrongIssuer(t *testing.T) {
	r := setupAuthRouter(testValidator())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "user-1", "someone-else", time.Hour))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestAuthMiddleware_DisabledWithoutValidator 测试 validator 为空时认证关闭
func TestAuthMiddleware_DisabledWithoutValidator(t *testing.T) {
	r := setupAuthRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
