package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services/container"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/response"
)

// DispatchController 处理调度面板
type DispatchController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewDispatchController 创建一个新的调度控制器
func NewDispatchController(ctx *gin.Context, container *container.ServiceContainer) *DispatchController {
	return &DispatchController{
		Ctx:       ctx,
		Container: container,
	}
}

// DispatchStateRequest 表示调度员在线状态请求
type DispatchStateRequest struct {
	Value bool `json:"value" example:"true"`
}

// HandleDispatchFunc 返回一个处理调度请求的Gin处理函数
func HandleDispatchFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewDispatchController(ctx, container)

		switch method {
		case "getDispatchData":
			controller.GetDispatchData()
		case "setDispatchState":
			controller.SetDispatchState()
		case "heartbeat":
			controller.Heartbeat()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

func (c *DispatchController) service() services.InterfaceDispatchService {
	return c.Container.GetService("dispatch").(services.InterfaceDispatchService)
}

// 1. GetDispatchData 获取调度面板数据, 不活跃单位先被设为下线
// @Summary      Dispatch board
// @Tags         Dispatch
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  services.DispatchData
// @Router       /dispatch [get]
func (c *DispatchController) GetDispatchData() {
	data, err := c.service().GetDispatchData(c.Ctx.Request.Context())
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, data)
}

// 2. SetDispatchState 调度员上线或下线
// @Summary      Set dispatcher state
// @Tags         Dispatch
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body DispatchStateRequest true "State"
// @Success      200  {array}   models.ActiveDispatchers
// @Failure      403  {object}  ErrorResponse
// @Router       /dispatch/dispatchers-state [post]
func (c *DispatchController) SetDispatchState() {
	var req DispatchStateRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	dispatchers, err := c.service().SetDispatchState(c.Ctx.Request.Context(), *currentUserID(c.Ctx), req.Value)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, dispatchers)
}

// 3. Heartbeat 刷新调度员在线时间
// @Summary      Dispatcher heartbeat
// @Tags         Dispatch
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /dispatch/heartbeat [post]
func (c *DispatchController) Heartbeat() {
	if err := c.service().Heartbeat(c.Ctx.Request.Context(), *currentUserID(c.Ctx)); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, true)
}
