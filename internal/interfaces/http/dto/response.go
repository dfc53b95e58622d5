// Package dto 定义 HTTP 接口的请求与响应结构
package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "z-llm-chat-api/pkg/errors"
)

// Response 统一响应结构
type Response struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Success 返回成功响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    string(apperrors.CodeSuccess),
		Message: "ok",
		Data:    data,
	})
}

// Error 返回错误响应
func Error(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	c.JSON(appErr.HTTPStatus, Response{
		Code:    string(appErr.Code),
		Message: appErr.Message,
	})
}

// AbortWithError 返回错误响应并终止后续处理
func AbortWithError(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	c.AbortWithStatusJSON(appErr.HTTPStatus, Response{
		Code:    string(appErr.Code),
		Message: appErr.Message,
	})
}
