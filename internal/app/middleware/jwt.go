package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	perm "github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/permissions"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/response"
)

// context keys set by Authentication
const (
	ContextUser   = "user"
	ContextUserID = "userID"
	ContextRank   = "rank"
)

var authService services.InterfaceAuthService

// InitAuthMiddleware 初始化认证中间件
func InitAuthMiddleware(auth services.InterfaceAuthService) {
	authService = auth
}

// extractToken 从授权头中提取token
func extractToken(authHeader string) string {
	// 检查并移除 "Bearer " 前缀
	if len(authHeader) > 7 && strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	return authHeader
}

// Authentication validates the bearer token and loads the user into the context
func Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		// 用户可能已被删除
		user, err := authService.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextUserID, user.ID)
		c.Set(ContextRank, string(user.Rank))
		c.Next()
	}
}

// RequirePermissions aborts with 403 unless the user holds one of required.
// It runs before any handler binds the body.
func RequirePermissions(required ...perm.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !perm.HasPermission(CurrentUser(c), required...) {
			response.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
