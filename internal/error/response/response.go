package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	Logger "github.com/SnailyCAD/snaily-cadv4-sub004/pkg/logger"
)

// Response 定义统一的响应格式
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Key     string      `json:"key,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    code.ErrSuccess,
		Message: code.GetMessage(code.ErrSuccess),
		Data:    data,
	})
}

// Fail 失败响应
func Fail(c *gin.Context, errorCode int, data interface{}) {
	FailWithMessage(c, errorCode, code.GetMessage(errorCode), data)
}

// FailWithMessage 失败响应（自定义消息）
func FailWithMessage(c *gin.Context, errorCode int, message string, data interface{}) {
	c.JSON(code.GetStatus(errorCode), Response{
		Code:    errorCode,
		Message: message,
		Key:     code.GetKey(errorCode),
		Data:    data,
	})
}

// Error writes err as a structured failure. Anything that is not a
// *code.Error is logged and reported as unknown.
func Error(c *gin.Context, err error) {
	WithData(c, err, nil)
}

// WithData is Error with a payload, used for partial successes
func WithData(c *gin.Context, err error, data interface{}) {
	e := code.From(err)
	if code.GetStatus(e.Code) >= http.StatusInternalServerError {
		Logger.WithError(err).Errorf("%s %s failed", c.Request.Method, c.FullPath())
	}
	FailWithMessage(c, e.Code, e.Message, data)
}

// ParamError 参数错误响应
func ParamError(c *gin.Context, message string) {
	FailWithMessage(c, code.ErrValidation, message, nil)
}

// Forbidden 权限不足
func Forbidden(c *gin.Context) {
	Fail(c, code.ErrForbidden, nil)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context) {
	Fail(c, code.ErrTokenInvalid, nil)
}
