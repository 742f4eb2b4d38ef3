package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services/container"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/response"
)

// InterfaceCitizenController 定义公民控制器接口
type InterfaceCitizenController interface {
	GetCitizens()
	GetCitizen()
	CreateCitizen()
	UpdateCitizen()
	DeleteCitizen()
	UpdateCitizenFlags()
	RegisterVehicle()
	DeleteVehicle()
	UpdateVehicleFlags()
	RegisterWeapon()
	DeleteWeapon()
}

// CitizenController 处理公民、车辆和武器
type CitizenController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewCitizenController 创建一个新的公民控制器
func NewCitizenController(ctx *gin.Context, container *container.ServiceContainer) *CitizenController {
	return &CitizenController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleCitizenFunc 返回一个处理公民请求的Gin处理函数
func HandleCitizenFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewCitizenController(ctx, container)

		switch method {
		case "getCitizens":
			controller.GetCitizens()
		case "getCitizen":
			controller.GetCitizen()
		case "createCitizen":
			controller.CreateCitizen()
		case "updateCitizen":
			controller.UpdateCitizen()
		case "deleteCitizen":
			controller.DeleteCitizen()
		case "updateCitizenFlags":
			controller.UpdateCitizenFlags()
		case "registerVehicle":
			controller.RegisterVehicle()
		case "deleteVehicle":
			controller.DeleteVehicle()
		case "updateVehicleFlags":
			controller.UpdateVehicleFlags()
		case "registerWeapon":
			controller.RegisterWeapon()
		case "deleteWeapon":
			controller.DeleteWeapon()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

func (c *CitizenController) service() services.InterfaceCitizenService {
	return c.Container.GetService("citizen").(services.InterfaceCitizenService)
}

// 1. GetCitizens 获取公民列表, mine=true 时只返回当前用户的公民
// @Summary      List citizens
// @Tags         Citizen
// @Produce      json
// @Security     BearerAuth
// @Param        mine query bool false "Only the caller's citizens"
// @Success      200  {array}   models.Citizen
// @Router       /citizens [get]
func (c *CitizenController) GetCitizens() {
	var owner *string
	if queryBool(c.Ctx, "mine") {
		owner = currentUserID(c.Ctx)
	}

	citizens, err := c.service().ListCitizens(c.Ctx.Request.Context(), owner)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, citizens)
}

// 2. GetCitizen 获取公民详情
// @Summary      Get citizen
// @Tags         Citizen
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Citizen ID"
// @Success      200  {object}  models.Citizen
// @Failure      404  {object}  ErrorResponse
// @Router       /citizens/{id} [get]
func (c *CitizenController) GetCitizen() {
	citizen, err := c.service().GetCitizen(c.Ctx.Request.Context(), c.Ctx.Param("id"))
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, citizen)
}

// 3. CreateCitizen 创建公民
// @Summary      Create citizen
// @Tags         Citizen
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body services.CitizenInput true "Citizen"
// @Success      200  {object}  models.Citizen
// @Failure      400  {object}  ErrorResponse
// @Router       /citizens [post]
func (c *CitizenController) CreateCitizen() {
	var req services.CitizenInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	citizen, err := c.service().CreateCitizen(c.Ctx.Request.Context(), currentUserID(c.Ctx), req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, citizen)
}

// 4. UpdateCitizen 更新公民
// @Summary      Update citizen
// @Tags         Citizen
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Citizen ID"
// @Param        request body services.CitizenInput true "Citizen"
// @Success      200  {object}  models.Citizen
// @Failure      404  {object}  ErrorResponse
// @Router       /citizens/{id} [put]
func (c *CitizenController) UpdateCitizen() {
	var req services.CitizenInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	citizen, err := c.service().UpdateCitizen(c.Ctx.Request.Context(), c.Ctx.Param("id"), req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, citizen)
}

// 5. DeleteCitizen 删除公民及其车辆、武器、记录和通缉令
// @Summary      Delete citizen
// @Tags         Citizen
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Citizen ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /citizens/{id} [delete]
func (c *CitizenController) DeleteCitizen() {
	if err := c.service().DeleteCitizen(c.Ctx.Request.Context(), c.Ctx.Param("id")); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, true)
}

// 6. UpdateCitizenFlags 替换公民标记
// @Summary      Replace citizen flags
// @Tags         Citizen
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Citizen ID"
// @Param        request body IDsRequest true "Flag value ids"
// @Success      200  {object}  models.Citizen
// @Failure      400  {object}  ErrorResponse
// @Router       /citizens/{id}/flags [put]
func (c *CitizenController) UpdateCitizenFlags() {
	var req IDsRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	citizen, err := c.service().UpdateCitizenFlags(c.Ctx.Request.Context(), c.Ctx.Param("id"), req.IDs)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, citizen)
}

// 7. RegisterVehicle 登记车辆
// @Summary      Register vehicle
// @Tags         Citizen
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body services.VehicleInput true "Vehicle"
// @Success      200  {object}  models.RegisteredVehicle
// @Failure      409  {object}  ErrorResponse
// @Router       /vehicles [post]
func (c *CitizenController) RegisterVehicle() {
	var req services.VehicleInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	vehicle, err := c.service().RegisterVehicle(c.Ctx.Request.Context(), req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, vehicle)
}

// 8. DeleteVehicle 删除车辆
// @Summary      Delete vehicle
// @Tags         Citizen
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Vehicle ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /vehicles/{id} [delete]
func (c *CitizenController) DeleteVehicle() {
	if err := c.service().DeleteVehicle(c.Ctx.Request.Context(), c.Ctx.Param("id")); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, true)
}

// 9. UpdateVehicleFlags 替换车辆标记
// @Summary      Replace vehicle flags
// @Tags         Citizen
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Vehicle ID"
// @Param        request body IDsRequest true "Vehicle flag value ids"
// @Success      200  {object}  models.RegisteredVehicle
// @Failure      400  {object}  ErrorResponse
// @Router       /vehicles/{id}/flags [put]
func (c *CitizenController) UpdateVehicleFlags() {
	var req IDsRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	vehicle, err := c.service().UpdateVehicleFlags(c.Ctx.Request.Context(), c.Ctx.Param("id"), req.IDs)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, vehicle)
}

// 10. RegisterWeapon 登记武器
// @Summary      Register weapon
// @Tags         Citizen
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body services.WeaponInput true "Weapon"
// @Success      200  {object}  models.Weapon
// @Failure      409  {object}  ErrorResponse
// @Router       /weapons [post]
func (c *CitizenController) RegisterWeapon() {
	var req services.WeaponInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	weapon, err := c.service().RegisterWeapon(c.Ctx.Request.Context(), req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, weapon)
}

// 11. DeleteWeapon 删除武器
// @Summary      Delete weapon
// @Tags         Citizen
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Weapon ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /weapons/{id} [delete]
func (c *CitizenController) DeleteWeapon() {
	if err := c.service().DeleteWeapon(c.Ctx.Request.Context(), c.Ctx.Param("id")); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, true)
}
