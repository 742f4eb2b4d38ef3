package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services/container"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/response"
)

// InterfaceCallController 定义911呼叫控制器接口
type InterfaceCallController interface {
	GetCalls()
	GetCall()
	CreateCall()
	UpdateCall()
	AssignUnit()
	UnassignUnit()
	EndCall()
	DeleteCall()
}

// CallController 处理911呼叫
type CallController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewCallController 创建一个新的911呼叫控制器
func NewCallController(ctx *gin.Context, container *container.ServiceContainer) *CallController {
	return &CallController{
		Ctx:       ctx,
		Container: container,
	}
}

// AssignRequest 表示分配单位请求
type AssignRequest struct {
	UnitID string `json:"unit" binding:"required" example:"clx0unit"`
}

// HandleCallFunc 返回一个处理911呼叫请求的Gin处理函数
func HandleCallFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewCallController(ctx, container)

		switch method {
		case "getCalls":
			controller.GetCalls()
		case "getCall":
			controller.GetCall()
		case "createCall":
			controller.CreateCall()
		case "updateCall":
			controller.UpdateCall()
		case "assignUnit":
			controller.AssignUnit()
		case "unassignUnit":
			controller.UnassignUnit()
		case "endCall":
			controller.EndCall()
		case "deleteCall":
			controller.DeleteCall()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

func (c *CallController) service() services.InterfaceCallService {
	return c.Container.GetService("call").(services.InterfaceCallService)
}

// 1. GetCalls 获取911呼叫列表, 列表前先结束不活跃的呼叫
// @Summary      List 911 calls
// @Tags         Calls
// @Produce      json
// @Security     BearerAuth
// @Param        includeEnded query bool false "Include ended calls"
// @Success      200  {array}   models.Call911
// @Router       /911-calls [get]
func (c *CallController) GetCalls() {
	calls, err := c.service().ListCalls(c.Ctx.Request.Context(), queryBool(c.Ctx, "includeEnded"))
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, calls)
}

// 2. GetCall 获取911呼叫详情
// @Summary      Get 911 call
// @Tags         Calls
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Call ID"
// @Success      200  {object}  models.Call911
// @Failure      404  {object}  ErrorResponse
// @Router       /911-calls/{id} [get]
func (c *CallController) GetCall() {
	call, err := c.service().GetCall(c.Ctx.Request.Context(), c.Ctx.Param("id"))
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, call)
}

// 3. CreateCall 创建911呼叫
// @Summary      Create 911 call
// @Tags         Calls
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body services.CallInput true "Call"
// @Success      200  {object}  models.Call911
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /911-calls [post]
func (c *CallController) CreateCall() {
	var req services.CallInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	call, err := c.service().CreateCall(c.Ctx.Request.Context(), currentUserID(c.Ctx), req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, call)
}

// 4. UpdateCall 更新911呼叫, assignedUnits 为完整的单位列表
// @Summary      Update 911 call
// @Description  assignedUnits is the complete desired set; units no longer listed are released
// @Tags         Calls
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Call ID"
// @Param        request body services.CallInput true "Call"
// @Success      200  {object}  models.Call911
// @Failure      404  {object}  ErrorResponse
// @Router       /911-calls/{id} [put]
func (c *CallController) UpdateCall() {
	var req services.CallInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	call, err := c.service().UpdateCall(c.Ctx.Request.Context(), c.Ctx.Param("id"), req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, call)
}

// 5. AssignUnit 分配单位
// @Summary      Assign unit to call
// @Tags         Calls
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Call ID"
// @Param        request body AssignRequest true "Unit"
// @Success      200  {object}  models.Call911
// @Failure      409  {object}  ErrorResponse
// @Router       /911-calls/{id}/assign [post]
func (c *CallController) AssignUnit() {
	var req AssignRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	call, err := c.service().AssignUnit(c.Ctx.Request.Context(), c.Ctx.Param("id"), req.UnitID)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, call)
}

// 6. UnassignUnit 取消分配单位
// @Summary      Unassign unit from call
// @Tags         Calls
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Call ID"
// @Param        request body AssignRequest true "Unit"
// @Success      200  {object}  models.Call911
// @Failure      404  {object}  ErrorResponse
// @Router       /911-calls/{id}/unassign [post]
func (c *CallController) UnassignUnit() {
	var req AssignRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	call, err := c.service().UnassignUnit(c.Ctx.Request.Context(), c.Ctx.Param("id"), req.UnitID)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, call)
}

// 7. EndCall 结束911呼叫
// @Summary      End 911 call
// @Tags         Calls
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Call ID"
// @Success      200  {object}  models.Call911
// @Failure      409  {object}  ErrorResponse
// @Router       /911-calls/{id}/end [post]
func (c *CallController) EndCall() {
	call, err := c.service().EndCall(c.Ctx.Request.Context(), c.Ctx.Param("id"))
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, call)
}

// 8. DeleteCall 删除911呼叫
// @Summary      Delete 911 call
// @Tags         Calls
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Call ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /911-calls/{id} [delete]
func (c *CallController) DeleteCall() {
	if err := c.service().DeleteCall(c.Ctx.Request.Context(), c.Ctx.Param("id")); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, true)
}
