package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/app/middleware"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/response"
)

// ErrorResponse 表示错误响应
type ErrorResponse struct {
	Code    int         `json:"code" example:"10101"`
	Message string      `json:"message" example:"Unit not found"`
	Key     string      `json:"key" example:"unitNotFound"`
	Data    interface{} `json:"data"`
}

// IDsRequest carries a list of ids, used for flags and unit combining
type IDsRequest struct {
	IDs []string `json:"ids" example:"clx0a1b2c3"`
}

// bindJSON binds the body and writes a bind failure when it does not parse
func bindJSON(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		response.FailWithMessage(ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return false
	}
	return true
}

// currentUserID returns the authenticated user id, nil on public routes
func currentUserID(ctx *gin.Context) *string {
	user := middleware.CurrentUser(ctx)
	if user == nil {
		return nil
	}
	id := user.ID
	return &id
}

// queryBool reads a boolean query flag, "true" and "1" count as set
func queryBool(ctx *gin.Context, key string) bool {
	v := ctx.Query(key)
	return v == "true" || v == "1"
}
