package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services/container"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/response"
)

// InterfaceWarrantController 定义通缉令控制器接口
type InterfaceWarrantController interface {
	GetWarrants()
	GetWarrant()
	CreateWarrant()
	UpdateWarrant()
	ReviewWarrant()
	DeleteWarrant()
}

// WarrantController 处理通缉令
type WarrantController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewWarrantController 创建一个新的通缉令控制器
func NewWarrantController(ctx *gin.Context, container *container.ServiceContainer) *WarrantController {
	return &WarrantController{
		Ctx:       ctx,
		Container: container,
	}
}

// ReviewRequest 表示审批请求
type ReviewRequest struct {
	Accept bool `json:"accept" example:"true"`
}

// HandleWarrantFunc 返回一个处理通缉令请求的Gin处理函数
func HandleWarrantFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewWarrantController(ctx, container)

		switch method {
		case "getWarrants":
			controller.GetWarrants()
		case "getWarrant":
			controller.GetWarrant()
		case "createWarrant":
			controller.CreateWarrant()
		case "updateWarrant":
			controller.UpdateWarrant()
		case "reviewWarrant":
			controller.ReviewWarrant()
		case "deleteWarrant":
			controller.DeleteWarrant()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

func (c *WarrantController) service() services.InterfaceWarrantService {
	return c.Container.GetService("warrant").(services.InterfaceWarrantService)
}

// respond writes the warrant. A pending approval is a 202 carrying the
// stored warrant, other errors carry nothing.
func (c *WarrantController) respond(warrant interface{}, err error) {
	if err != nil {
		if code.Is(err, code.ErrWarrantApprovalRequired) {
			response.WithData(c.Ctx, err, warrant)
			return
		}
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, warrant)
}

// 1. GetWarrants 获取通缉令列表
// @Summary      List warrants
// @Tags         Warrants
// @Produce      json
// @Security     BearerAuth
// @Param        active query bool false "Only active warrants"
// @Success      200  {array}   models.Warrant
// @Router       /warrants [get]
func (c *WarrantController) GetWarrants() {
	warrants, err := c.service().ListWarrants(c.Ctx.Request.Context(), queryBool(c.Ctx, "active"))
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, warrants)
}

// 2. GetWarrant 获取通缉令详情
// @Summary      Get warrant
// @Tags         Warrants
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Warrant ID"
// @Success      200  {object}  models.Warrant
// @Failure      404  {object}  ErrorResponse
// @Router       /warrants/{id} [get]
func (c *WarrantController) GetWarrant() {
	warrant, err := c.service().GetWarrant(c.Ctx.Request.Context(), c.Ctx.Param("id"))
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, warrant)
}

// 3. CreateWarrant 创建通缉令
// @Summary      Create warrant
// @Description  With status approval enabled an ACTIVE warrant is stored INACTIVE and PENDING, and the response is 202
// @Tags         Warrants
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body services.WarrantInput true "Warrant"
// @Success      200  {object}  models.Warrant
// @Success      202  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /warrants [post]
func (c *WarrantController) CreateWarrant() {
	var req services.WarrantInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	warrant, err := c.service().CreateWarrant(c.Ctx.Request.Context(), req)
	c.respond(warrant, err)
}

// 4. UpdateWarrant 更新通缉令
// @Summary      Update warrant
// @Tags         Warrants
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Warrant ID"
// @Param        request body services.WarrantInput true "Warrant"
// @Success      200  {object}  models.Warrant
// @Success      202  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /warrants/{id} [put]
func (c *WarrantController) UpdateWarrant() {
	var req services.WarrantInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	warrant, err := c.service().UpdateWarrant(c.Ctx.Request.Context(), c.Ctx.Param("id"), req)
	c.respond(warrant, err)
}

// 5. ReviewWarrant 审批通缉令
// @Summary      Review warrant
// @Tags         Warrants
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Warrant ID"
// @Param        request body ReviewRequest true "Decision"
// @Success      200  {object}  models.Warrant
// @Failure      409  {object}  ErrorResponse
// @Router       /warrants/{id}/review [post]
func (c *WarrantController) ReviewWarrant() {
	var req ReviewRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	warrant, err := c.service().ReviewWarrant(c.Ctx.Request.Context(), c.Ctx.Param("id"), req.Accept)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, warrant)
}

// 6. DeleteWarrant 删除通缉令
// @Summary      Delete warrant
// @Tags         Warrants
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Warrant ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /warrants/{id} [delete]
func (c *WarrantController) DeleteWarrant() {
	if err := c.service().DeleteWarrant(c.Ctx.Request.Context(), c.Ctx.Param("id")); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, true)
}
