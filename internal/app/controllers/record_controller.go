package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services/container"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/response"
)

// RecordController 处理公民记录(罚单、逮捕报告、书面警告)
type RecordController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewRecordController 创建一个新的记录控制器
func NewRecordController(ctx *gin.Context, container *container.ServiceContainer) *RecordController {
	return &RecordController{
		Ctx:       ctx,
		Container: container,
	}
}

// RecordRequest 表示记录请求, officerId 为开具记录的警员
type RecordRequest struct {
	services.RecordInput
	OfficerID *string `json:"officerId" example:"clx0officer"`
}

// HandleRecordFunc 返回一个处理记录请求的Gin处理函数
func HandleRecordFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewRecordController(ctx, container)

		switch method {
		case "createRecord":
			controller.UpsertRecord("")
		case "updateRecord":
			controller.UpsertRecord(ctx.Param("id"))
		case "deleteRecord":
			controller.DeleteRecord()
		case "getCitizenRecords":
			controller.GetCitizenRecords()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

func (c *RecordController) service() services.InterfaceRecordService {
	return c.Container.GetService("record").(services.InterfaceRecordService)
}

// 1. UpsertRecord 创建或更新记录, 违规条目整体替换
// @Summary      Create or update record
// @Tags         Records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string false "Record ID (update only)"
// @Param        request body RecordRequest true "Record"
// @Success      200  {object}  models.Record
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /records [post]
// @Router       /records/{id} [put]
func (c *RecordController) UpsertRecord(id string) {
	var req RecordRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	record, err := c.service().UpsertRecord(c.Ctx.Request.Context(), id, req.OfficerID, req.RecordInput)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, record)
}

// 2. GetCitizenRecords 获取公民的所有记录
// @Summary      Citizen records
// @Tags         Records
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Citizen ID"
// @Success      200  {array}   models.Record
// @Failure      404  {object}  ErrorResponse
// @Router       /citizens/{id}/records [get]
func (c *RecordController) GetCitizenRecords() {
	records, err := c.service().GetCitizenRecords(c.Ctx.Request.Context(), c.Ctx.Param("id"))
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, records)
}

// 3. DeleteRecord 删除记录
// @Summary      Delete record
// @Tags         Records
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Record ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /records/{id} [delete]
func (c *RecordController) DeleteRecord() {
	if err := c.service().DeleteRecord(c.Ctx.Request.Context(), c.Ctx.Param("id")); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, true)
}
