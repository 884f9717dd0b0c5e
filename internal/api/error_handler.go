package api

import (
	"errors"
	"net/http"

	"github.com/autopub/publish-gin/internal/engine"
	"github.com/gin-gonic/gin"
)

// APIError API 错误
type APIError struct {
	Code    int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrorHandlerMiddleware 错误处理中间件
// 把处理器通过 c.Error 上报的错误统一转换为响应:
// APIError 按自带状态码返回,发布引擎错误按分类映射状态码
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var apiErr *APIError
		if errors.As(err, &apiErr) {
			Error(c, apiErr.Code, apiErr.Message, apiErr.Detail)
			return
		}

		var pubErr *engine.PublishError
		if errors.As(err, &pubErr) {
			Error(c, statusForErrorKind(pubErr.Kind), "publish failed", pubErr.Error())
			return
		}

		Error(c, http.StatusInternalServerError, "internal server error", err.Error())
	}
}

// statusForErrorKind 发布错误分类到 HTTP 状态码的映射
func statusForErrorKind(kind engine.ErrorKind) int {
	switch kind {
	case engine.ErrorKindUnsupportedPlatform:
		return http.StatusBadRequest
	case engine.ErrorKindSessionInvalid:
		return http.StatusUnprocessableEntity
	case engine.ErrorKindTimeout:
		return http.StatusGatewayTimeout
	case engine.ErrorKindCancelled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WrapError 包装错误
func WrapError(err error, code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Detail:  err.Error(),
	}
}
