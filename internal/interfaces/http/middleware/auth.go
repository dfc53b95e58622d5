package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"z-llm-chat-api/internal/interfaces/http/dto"
	apperrors "z-llm-chat-api/pkg/errors"
	"z-llm-chat-api/pkg/logger"
	"z-llm-chat-api/pkg/utils"
)

const (
	// ContextUserIDKey gin 上下文中的用户 ID 键
	ContextUserIDKey = "user_id"
	// ContextUserRoleKey gin 上下文中的用户角色键
	ContextUserRoleKey = "user_role"
)

// JWTAuth 校验 Bearer Token，将用户信息写入上下文
func JWTAuth(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			dto.AbortWithError(c, apperrors.ErrTokenMissing)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			dto.AbortWithError(c, apperrors.ErrTokenInvalid)
			return
		}

		claims, err := jwtManager.ParseToken(parts[1])
		if err != nil {
			if err == utils.ErrExpiredToken {
				dto.AbortWithError(c, apperrors.ErrTokenExpired)
				return
			}
			dto.AbortWithError(c, apperrors.ErrTokenInvalid)
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUserRoleKey, claims.Role)

		ctx := logger.WithContext(c.Request.Context(), logger.UserIDKey, claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// UserIDFromContext 读取当前请求的用户 ID
func UserIDFromContext(c *gin.Context) string {
	if v, ok := c.Get(ContextUserIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
