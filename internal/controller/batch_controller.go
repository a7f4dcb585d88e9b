package controller

import (
	"exam_admin_backend/internal/service"
	"exam_admin_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type BatchController struct {
	BatchService *service.BatchService
}

func NewBatchController(batchService *service.BatchService) *BatchController {
	return &BatchController{BatchService: batchService}
}

// Create godoc
// @Summary 创建批次
// @Tags 批次管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.BatchInput true "批次信息"
// @Success 201 {object} util.Response{data=model.Batch}
// @Failure 400 {object} util.Response
// @Router /api/admin/batches [post]
func (c *BatchController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req service.BatchInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	batch, err := c.BatchService.Create(req, claims.UserID)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, batch)
}

// List godoc
// @Summary 批次列表
// @Tags 批次管理
// @Produce  json
// @Security BearerAuth
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(20)
// @Param   onlyActive query bool false "仅启用批次"
// @Success 200 {object} util.Response{data=object}
// @Router /api/admin/batches [get]
func (c *BatchController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	onlyActive := ctx.Query("onlyActive") == "true"

	batches, total, err := c.BatchService.List(page, limit, onlyActive)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": batches, "total": total})
}

// Get godoc
// @Summary 批次详情
// @Tags 批次管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "批次ID"
// @Success 200 {object} util.Response{data=service.BatchDetail}
// @Failure 404 {object} util.Response
// @Router /api/admin/batches/{id} [get]
func (c *BatchController) Get(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	detail, err := c.BatchService.GetDetail(uint(id))
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, detail)
}

// UpdateBatchRequest 更新批次
type UpdateBatchRequest struct {
	service.BatchInput
	IsActive *bool `json:"isActive"`
}

// Update godoc
// @Summary 更新批次
// @Tags 批次管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "批次ID"
// @Param   body body UpdateBatchRequest true "更新字段"
// @Success 200 {object} util.Response{data=model.Batch}
// @Failure 404 {object} util.Response
// @Router /api/admin/batches/{id} [put]
func (c *BatchController) Update(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	var req UpdateBatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	batch, err := c.BatchService.Update(uint(id), req.BatchInput, req.IsActive, claims.UserID)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, batch)
}

// Delete godoc
// @Summary 删除批次
// @Description 批次下仍有考生时拒绝删除
// @Tags 批次管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "批次ID"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/admin/batches/{id} [delete]
func (c *BatchController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	if err := c.BatchService.Delete(uint(id), claims.UserID); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, nil)
}
