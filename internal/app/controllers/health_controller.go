package controllers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/app/middleware"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services/container"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/response"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/socket"
)

// HealthController 健康检查控制器
type HealthController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewHealthController 创建健康检查控制器实例
func NewHealthController(ctx *gin.Context, container *container.ServiceContainer) *HealthController {
	return &HealthController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleHealthFunc 返回一个处理健康检查请求的Gin处理函数
func HandleHealthFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewHealthController(ctx, container)

		switch method {
		case "ping":
			controller.Ping()
		case "status":
			controller.Status()
		case "cacheStats":
			controller.CacheStats()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// 1. Ping 健康检查端点
// @Summary      Ping
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /ping [get]
func (c *HealthController) Ping() {
	response.Success(c.Ctx, gin.H{
		"status":  "healthy",
		"message": "pong",
	})
}

// 2. Status 检查数据库和Redis连接
// @Summary      Service status
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Router       /health/status [get]
func (c *HealthController) Status() {
	ctx, cancel := context.WithTimeout(c.Ctx.Request.Context(), 3*time.Second)
	defer cancel()

	status := gin.H{"database": "up", "redis": "disabled"}

	db := c.Container.GetService("db").(*gorm.DB)
	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "数据库连接异常: "+err.Error(), status)
		return
	}

	if client, _ := c.Container.GetService("redis").(*redis.Client); client != nil {
		status["redis"] = "up"
		if err := client.Ping(ctx).Err(); err != nil {
			status["redis"] = "down"
		}
	}
	if hub, _ := c.Container.GetService("hub").(*socket.Hub); hub != nil {
		status["socket_clients"] = hub.ClientCount()
	}

	response.Success(c.Ctx, status)
}

// 3. CacheStats 获取响应缓存统计
// @Summary      Cache statistics
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health/cache-stats [get]
func (c *HealthController) CacheStats() {
	response.Success(c.Ctx, middleware.CacheStats())
}
