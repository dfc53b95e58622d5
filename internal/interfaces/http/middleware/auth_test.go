package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"z-llm-chat-api/pkg/utils"
)

func newAuthRouter(jwtManager *utils.JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuth(jwtManager))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, UserIDFromContext(c))
	})
	return r
}

func TestJWTAuth_ValidToken(t *testing.T) {
	m := utils.NewJWTManager("secret", "test")
	token, err := m.GenerateToken("user-42", "user", "access", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	r := newAuthRouter(m)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "user-42" {
		t.Errorf("user id = %q, want user-42", w.Body.String())
	}
}

func TestJWTAuth_MissingToken(t *testing.T) {
	r := newAuthRouter(utils.NewJWTManager("secret", "test"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestJWTAuth_WrongSecret(t *testing.T) {
	other := utils.NewJWTManager("other-secret", "test")
	token, _ := other.GenerateToken("user-42", "user", "access", time.Hour)

	r := newAuthRouter(utils.NewJWTManager("secret", "test"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	m := utils.NewJWTManager("secret", "test")
	token, _ := m.GenerateToken("user-42", "user", "access", -time.Minute)

	r := newAuthRouter(m)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
