package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services/container"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/response"
)

// InterfaceAdminController 定义管理控制器接口
type InterfaceAdminController interface {
	GetValues()
	CreateValue()
	UpdateValue()
	DeleteValue()
	GetStatuses()
	CreateStatus()
	UpdateStatus()
	DeleteStatus()
	GetSettings()
	UpdateSettings()
	SetFeature()
	SetUserPermissions()
}

// AdminController 处理值、状态码、CAD设置和用户权限
type AdminController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAdminController 创建一个新的管理控制器
func NewAdminController(ctx *gin.Context, container *container.ServiceContainer) *AdminController {
	return &AdminController{
		Ctx:       ctx,
		Container: container,
	}
}

// FeatureRequest 表示功能开关请求
type FeatureRequest struct {
	Enabled bool `json:"enabled" example:"true"`
}

// PermissionsRequest 表示用户权限请求
type PermissionsRequest struct {
	Permissions []string `json:"permissions" example:"Leo"`
}

// HandleAdminFunc 返回一个处理管理请求的Gin处理函数
func HandleAdminFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAdminController(ctx, container)

		switch method {
		case "getValues":
			controller.GetValues()
		case "createValue":
			controller.CreateValue()
		case "updateValue":
			controller.UpdateValue()
		case "deleteValue":
			controller.DeleteValue()
		case "getStatuses":
			controller.GetStatuses()
		case "createStatus":
			controller.CreateStatus()
		case "updateStatus":
			controller.UpdateStatus()
		case "deleteStatus":
			controller.DeleteStatus()
		case "getSettings":
			controller.GetSettings()
		case "updateSettings":
			controller.UpdateSettings()
		case "setFeature":
			controller.SetFeature()
		case "setUserPermissions":
			controller.SetUserPermissions()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

func (c *AdminController) values() services.InterfaceValueService {
	return c.Container.GetService("value").(services.InterfaceValueService)
}

func (c *AdminController) settings() services.InterfaceCadSettingsService {
	return c.Container.GetService("settings").(services.InterfaceCadSettingsService)
}

// 1. GetValues 获取指定类型的值列表
// @Summary      List values
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        type path string true "Value type" Enums(FLAG, VEHICLE_FLAG, DEPARTMENT, PENAL_CODE)
// @Success      200  {array}   models.Value
// @Failure      400  {object}  ErrorResponse
// @Router       /admin/values/{type} [get]
func (c *AdminController) GetValues() {
	values, err := c.values().ListValues(c.Ctx.Request.Context(), models.ValueType(c.Ctx.Param("type")))
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, values)
}

// 2. CreateValue 创建值
// @Summary      Create value
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        type path string true "Value type"
// @Param        request body services.ValueInput true "Value"
// @Success      200  {object}  models.Value
// @Failure      400  {object}  ErrorResponse
// @Router       /admin/values/{type} [post]
func (c *AdminController) CreateValue() {
	var req services.ValueInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	value, err := c.values().CreateValue(c.Ctx.Request.Context(), models.ValueType(c.Ctx.Param("type")), req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, value)
}

// 3. UpdateValue 更新值
// @Summary      Update value
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        type path string true "Value type"
// @Param        id path string true "Value ID"
// @Param        request body services.ValueInput true "Value"
// @Success      200  {object}  models.Value
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/values/{type}/{id} [put]
func (c *AdminController) UpdateValue() {
	var req services.ValueInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	value, err := c.values().UpdateValue(c.Ctx.Request.Context(), models.ValueType(c.Ctx.Param("type")), c.Ctx.Param("id"), req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, value)
}

// 4. DeleteValue 删除值
// @Summary      Delete value
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        type path string true "Value type"
// @Param        id path string true "Value ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/values/{type}/{id} [delete]
func (c *AdminController) DeleteValue() {
	if err := c.values().DeleteValue(c.Ctx.Request.Context(), models.ValueType(c.Ctx.Param("type")), c.Ctx.Param("id")); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, true)
}

// 5. GetStatuses 获取状态码列表
// @Summary      List status codes
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.StatusValue
// @Router       /admin/statuses [get]
func (c *AdminController) GetStatuses() {
	statuses, err := c.values().ListStatusValues(c.Ctx.Request.Context())
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, statuses)
}

// 6. CreateStatus 创建状态码
// @Summary      Create status code
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body services.StatusValueInput true "Status code"
// @Success      200  {object}  models.StatusValue
// @Failure      400  {object}  ErrorResponse
// @Router       /admin/statuses [post]
func (c *AdminController) CreateStatus() {
	var req services.StatusValueInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	status, err := c.values().CreateStatusValue(c.Ctx.Request.Context(), req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, status)
}

// 7. UpdateStatus 更新状态码
// @Summary      Update status code
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Status ID"
// @Param        request body services.StatusValueInput true "Status code"
// @Success      200  {object}  models.StatusValue
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/statuses/{id} [put]
func (c *AdminController) UpdateStatus() {
	var req services.StatusValueInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	status, err := c.values().UpdateStatusValue(c.Ctx.Request.Context(), c.Ctx.Param("id"), req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, status)
}

// 8. DeleteStatus 删除状态码
// @Summary      Delete status code
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Status ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/statuses/{id} [delete]
func (c *AdminController) DeleteStatus() {
	if err := c.values().DeleteStatusValue(c.Ctx.Request.Context(), c.Ctx.Param("id")); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, true)
}

// 9. GetSettings 获取CAD设置
// @Summary      CAD settings
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  services.CadSettings
// @Router       /admin/settings [get]
func (c *AdminController) GetSettings() {
	settings, err := c.settings().GetSettings(c.Ctx.Request.Context())
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, settings)
}

// 10. UpdateSettings 更新不活跃超时设置
// @Summary      Update CAD settings
// @Description  Omitted timeouts are cleared and disable the matching filter
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body services.UpdateSettingsInput true "Timeouts in minutes"
// @Success      200  {object}  services.CadSettings
// @Failure      400  {object}  ErrorResponse
// @Router       /admin/settings [put]
func (c *AdminController) UpdateSettings() {
	var req services.UpdateSettingsInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	settings, err := c.settings().UpdateSettings(c.Ctx.Request.Context(), req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, settings)
}

// 11. SetFeature 开关CAD功能
// @Summary      Toggle feature
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        feature path string true "Feature" Enums(WARRANT_STATUS_APPROVAL, ACTIVE_DISPATCHERS, ACTIVE_INCIDENTS, CALLS_911, TOW, TAXI)
// @Param        request body FeatureRequest true "State"
// @Success      200  {object}  services.CadSettings
// @Failure      400  {object}  ErrorResponse
// @Router       /admin/features/{feature} [put]
func (c *AdminController) SetFeature() {
	var req FeatureRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	settings, err := c.settings().SetFeature(c.Ctx.Request.Context(), models.Feature(c.Ctx.Param("feature")), req.Enabled)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, settings)
}

// 12. SetUserPermissions 替换用户权限
// @Summary      Set user permissions
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Param        request body PermissionsRequest true "Permissions"
// @Success      200  {object}  models.User
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/users/{id}/permissions [put]
func (c *AdminController) SetUserPermissions() {
	var req PermissionsRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	authService := c.Container.GetService("auth").(services.InterfaceAuthService)
	user, err := authService.SetPermissions(c.Ctx.Request.Context(), c.Ctx.Param("id"), req.Permissions)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, user)
}
