package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/app/middleware"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services/container"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/response"
)

// InterfaceUnitController 定义单位控制器接口
type InterfaceUnitController interface {
	CreateOfficer()
	CreateDeputy()
	GetUnit()
	SetStatus()
	CombineUnits()
	UncombineUnit()
}

// UnitController 处理警员和EMS/FD单位
type UnitController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewUnitController 创建一个新的单位控制器
func NewUnitController(ctx *gin.Context, container *container.ServiceContainer) *UnitController {
	return &UnitController{
		Ctx:       ctx,
		Container: container,
	}
}

// StatusRequest 表示状态更新请求
type StatusRequest struct {
	StatusID string `json:"status" binding:"required" example:"clx0status"`
}

// CombineRequest 表示合并单位请求
type CombineRequest struct {
	Kind     models.UnitKind `json:"kind" binding:"required" example:"officer"`
	IDs      []string        `json:"ids" binding:"required"`
	Callsign string          `json:"callsign" example:"1A-10"`
}

// HandleUnitFunc 返回一个处理单位请求的Gin处理函数
func HandleUnitFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewUnitController(ctx, container)

		switch method {
		case "createOfficer":
			controller.CreateOfficer()
		case "createDeputy":
			controller.CreateDeputy()
		case "getUnit":
			controller.GetUnit()
		case "setStatus":
			controller.SetStatus()
		case "combineUnits":
			controller.CombineUnits()
		case "uncombineUnit":
			controller.UncombineUnit()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

func (c *UnitController) service() services.InterfaceUnitService {
	return c.Container.GetService("unit").(services.InterfaceUnitService)
}

// 1. CreateOfficer 为当前用户创建警员
// @Summary      Create officer
// @Tags         Unit
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body services.CreateUnitInput true "Officer"
// @Success      200  {object}  models.Officer
// @Failure      400  {object}  ErrorResponse
// @Router       /leo [post]
func (c *UnitController) CreateOfficer() {
	var req services.CreateUnitInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	officer, err := c.service().CreateOfficer(c.Ctx.Request.Context(), *currentUserID(c.Ctx), req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, officer)
}

// 2. CreateDeputy 为当前用户创建EMS/FD单位
// @Summary      Create EMS/FD deputy
// @Tags         Unit
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body services.CreateUnitInput true "Deputy"
// @Success      200  {object}  models.EmsFdDeputy
// @Failure      400  {object}  ErrorResponse
// @Router       /ems-fd [post]
func (c *UnitController) CreateDeputy() {
	var req services.CreateUnitInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	deputy, err := c.service().CreateDeputy(c.Ctx.Request.Context(), *currentUserID(c.Ctx), req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, deputy)
}

// 3. GetUnit 获取任意类型的单位
// @Summary      Get unit
// @Tags         Unit
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Unit ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /units/{id} [get]
func (c *UnitController) GetUnit() {
	unit, err := c.service().GetUnit(c.Ctx.Request.Context(), c.Ctx.Param("id"))
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, unit)
}

// 4. SetStatus 设置单位状态码
// @Summary      Set unit status
// @Description  Applies the status code's action: on duty, off duty, plain status or panic button
// @Tags         Unit
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Unit ID"
// @Param        request body StatusRequest true "Status code"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /units/{id}/status [put]
func (c *UnitController) SetStatus() {
	var req StatusRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	unit, err := c.service().SetUnitStatus(c.Ctx.Request.Context(), middleware.CurrentUser(c.Ctx), c.Ctx.Param("id"), req.StatusID)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, unit)
}

// 5. CombineUnits 合并单位
// @Summary      Combine units
// @Tags         Unit
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CombineRequest true "Members"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /units/combine [post]
func (c *UnitController) CombineUnits() {
	var req CombineRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	unit, err := c.service().CombineUnits(c.Ctx.Request.Context(), req.Kind, req.IDs, req.Callsign)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, unit)
}

// 6. UncombineUnit 拆分合并单位, 单位类型由ID查出
// @Summary      Uncombine unit
// @Tags         Unit
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Combined unit ID"
// @Success      200  {array}   map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /units/{id}/uncombine [post]
func (c *UnitController) UncombineUnit() {
	ctx := c.Ctx.Request.Context()
	ref, err := c.service().FindUnit(ctx, nil, c.Ctx.Param("id"))
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}

	members, err := c.service().UncombineUnit(ctx, ref.Kind, ref.ID)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, members)
}
