package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services/container"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/response"
)

// InterfaceIncidentController 定义事件控制器接口
type InterfaceIncidentController interface {
	GetIncidents()
	GetIncident()
	CreateIncident()
	UpdateIncident()
	AssignUnit()
	UnassignUnit()
	EndIncident()
	DeleteIncident()
}

// IncidentController 处理LEO事件
type IncidentController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewIncidentController 创建一个新的事件控制器
func NewIncidentController(ctx *gin.Context, container *container.ServiceContainer) *IncidentController {
	return &IncidentController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleIncidentFunc 返回一个处理事件请求的Gin处理函数
func HandleIncidentFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewIncidentController(ctx, container)

		switch method {
		case "getIncidents":
			controller.GetIncidents()
		case "getIncident":
			controller.GetIncident()
		case "createIncident":
			controller.CreateIncident()
		case "updateIncident":
			controller.UpdateIncident()
		case "assignUnit":
			controller.AssignUnit()
		case "unassignUnit":
			controller.UnassignUnit()
		case "endIncident":
			controller.EndIncident()
		case "deleteIncident":
			controller.DeleteIncident()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

func (c *IncidentController) service() services.InterfaceIncidentService {
	return c.Container.GetService("incident").(services.InterfaceIncidentService)
}

// 1. GetIncidents 获取事件列表
// @Summary      List incidents
// @Tags         Incidents
// @Produce      json
// @Security     BearerAuth
// @Param        active query bool false "Only active incidents"
// @Success      200  {array}   models.LeoIncident
// @Router       /incidents [get]
func (c *IncidentController) GetIncidents() {
	incidents, err := c.service().ListIncidents(c.Ctx.Request.Context(), queryBool(c.Ctx, "active"))
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, incidents)
}

// 2. GetIncident 获取事件详情
// @Summary      Get incident
// @Tags         Incidents
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Incident ID"
// @Success      200  {object}  models.LeoIncident
// @Failure      404  {object}  ErrorResponse
// @Router       /incidents/{id} [get]
func (c *IncidentController) GetIncident() {
	incident, err := c.service().GetIncident(c.Ctx.Request.Context(), c.Ctx.Param("id"))
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, incident)
}

// 3. CreateIncident 创建事件, 分配的单位指向新事件
// @Summary      Create incident
// @Tags         Incidents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body services.IncidentInput true "Incident"
// @Success      200  {object}  models.LeoIncident
// @Failure      404  {object}  ErrorResponse
// @Router       /incidents [post]
func (c *IncidentController) CreateIncident() {
	var req services.IncidentInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	incident, err := c.service().CreateIncident(c.Ctx.Request.Context(), currentUserID(c.Ctx), req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, incident)
}

// 4. UpdateIncident 更新事件
// @Summary      Update incident
// @Tags         Incidents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Incident ID"
// @Param        request body services.IncidentInput true "Incident"
// @Success      200  {object}  models.LeoIncident
// @Failure      404  {object}  ErrorResponse
// @Router       /incidents/{id} [put]
func (c *IncidentController) UpdateIncident() {
	var req services.IncidentInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	incident, err := c.service().UpdateIncident(c.Ctx.Request.Context(), c.Ctx.Param("id"), req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, incident)
}

// 5. AssignUnit 将单位加入事件
// @Summary      Assign unit to incident
// @Tags         Incidents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Incident ID"
// @Param        request body AssignRequest true "Unit"
// @Success      200  {object}  models.LeoIncident
// @Failure      409  {object}  ErrorResponse
// @Router       /incidents/{id}/assign [post]
func (c *IncidentController) AssignUnit() {
	var req AssignRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	incident, err := c.service().AssignUnit(c.Ctx.Request.Context(), c.Ctx.Param("id"), req.UnitID)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, incident)
}

// 6. UnassignUnit 将单位移出事件
// @Summary      Unassign unit from incident
// @Tags         Incidents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Incident ID"
// @Param        request body AssignRequest true "Unit"
// @Success      200  {object}  models.LeoIncident
// @Failure      404  {object}  ErrorResponse
// @Router       /incidents/{id}/unassign [post]
func (c *IncidentController) UnassignUnit() {
	var req AssignRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	incident, err := c.service().UnassignUnit(c.Ctx.Request.Context(), c.Ctx.Param("id"), req.UnitID)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, incident)
}

// 7. EndIncident 结束事件
// @Summary      End incident
// @Tags         Incidents
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Incident ID"
// @Success      200  {object}  models.LeoIncident
// @Failure      404  {object}  ErrorResponse
// @Router       /incidents/{id}/end [post]
func (c *IncidentController) EndIncident() {
	incident, err := c.service().EndIncident(c.Ctx.Request.Context(), c.Ctx.Param("id"))
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, incident)
}

// 8. DeleteIncident 删除事件
// @Summary      Delete incident
// @Tags         Incidents
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Incident ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /incidents/{id} [delete]
func (c *IncidentController) DeleteIncident() {
	if err := c.service().DeleteIncident(c.Ctx.Request.Context(), c.Ctx.Param("id")); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, true)
}
