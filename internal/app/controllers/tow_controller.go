package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services/container"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/response"
)

// InterfaceTowController 定义拖车和出租车控制器接口
type InterfaceTowController interface {
	GetCalls()
	CreateCall()
	UpdateCall()
	AssignCitizen()
	EndCall()
}

// TowController 处理拖车和出租车呼叫, Kind 决定使用哪张表
type TowController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
	Kind      services.CallKind
}

// NewTowController 创建一个新的拖车控制器
func NewTowController(ctx *gin.Context, container *container.ServiceContainer, kind services.CallKind) *TowController {
	return &TowController{
		Ctx:       ctx,
		Container: container,
		Kind:      kind,
	}
}

// AssignCitizenRequest 表示分配司机请求
type AssignCitizenRequest struct {
	CitizenID string `json:"citizen" binding:"required" example:"clx0citizen"`
}

// HandleTowFunc 返回一个处理拖车或出租车请求的Gin处理函数
func HandleTowFunc(container *container.ServiceContainer, kind services.CallKind, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewTowController(ctx, container, kind)

		switch method {
		case "getCalls":
			controller.GetCalls()
		case "createCall":
			controller.CreateCall()
		case "updateCall":
			controller.UpdateCall()
		case "assignCitizen":
			controller.AssignCitizen()
		case "endCall":
			controller.EndCall()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

func (c *TowController) service() services.InterfaceTowService {
	return c.Container.GetService("tow").(services.InterfaceTowService)
}

// 1. GetCalls 获取呼叫列表
// @Summary      List tow or taxi calls
// @Tags         Tow
// @Produce      json
// @Security     BearerAuth
// @Param        includeEnded query bool false "Include ended calls"
// @Success      200  {array}   models.TowCall
// @Router       /tow [get]
// @Router       /taxi [get]
func (c *TowController) GetCalls() {
	calls, err := c.service().ListCalls(c.Ctx.Request.Context(), c.Kind, queryBool(c.Ctx, "includeEnded"))
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, calls)
}

// 2. CreateCall 创建呼叫
// @Summary      Create tow or taxi call
// @Tags         Tow
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body services.TowCallInput true "Call"
// @Success      200  {object}  models.TowCall
// @Failure      403  {object}  ErrorResponse
// @Router       /tow [post]
// @Router       /taxi [post]
func (c *TowController) CreateCall() {
	var req services.TowCallInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	call, err := c.service().CreateCall(c.Ctx.Request.Context(), c.Kind, currentUserID(c.Ctx), req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, call)
}

// 3. UpdateCall 更新呼叫
// @Summary      Update tow or taxi call
// @Tags         Tow
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Call ID"
// @Param        request body services.TowCallInput true "Call"
// @Success      200  {object}  models.TowCall
// @Failure      404  {object}  ErrorResponse
// @Router       /tow/{id} [put]
// @Router       /taxi/{id} [put]
func (c *TowController) UpdateCall() {
	var req services.TowCallInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	call, err := c.service().UpdateCall(c.Ctx.Request.Context(), c.Kind, c.Ctx.Param("id"), req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, call)
}

// 4. AssignCitizen 分配司机
// @Summary      Assign driver
// @Tags         Tow
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Call ID"
// @Param        request body AssignCitizenRequest true "Driver"
// @Success      200  {object}  models.TowCall
// @Failure      404  {object}  ErrorResponse
// @Router       /tow/{id}/assign [post]
// @Router       /taxi/{id}/assign [post]
func (c *TowController) AssignCitizen() {
	var req AssignCitizenRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	call, err := c.service().AssignCitizen(c.Ctx.Request.Context(), c.Kind, c.Ctx.Param("id"), req.CitizenID)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, call)
}

// 5. EndCall 结束呼叫
// @Summary      End tow or taxi call
// @Tags         Tow
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Call ID"
// @Success      200  {object}  models.TowCall
// @Failure      409  {object}  ErrorResponse
// @Router       /tow/{id}/end [post]
// @Router       /taxi/{id}/end [post]
func (c *TowController) EndCall() {
	call, err := c.service().EndCall(c.Ctx.Request.Context(), c.Kind, c.Ctx.Param("id"))
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, call)
}
