package controller

import (
	"errors"
	"exam_admin_backend/internal/service"
	"exam_admin_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// CreateCandidate godoc
// @Summary 建档考生
// @Description 管理员创建考生账号并可直接挂入批次
// @Tags 考生管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.CreateCandidateInput true "考生信息"
// @Success 201 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response "邮箱已被注册"
// @Router /api/admin/candidates [post]
func (c *UserController) CreateCandidate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req service.CreateCandidateInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.UserService.CreateCandidate(req, claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrEmailRegistered) {
			util.Conflict(ctx, "该邮箱已被注册")
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Created(ctx, user)
}

// ListCandidates godoc
// @Summary 考生列表
// @Tags 考生管理
// @Produce  json
// @Security BearerAuth
// @Param   batchId query int false "按批次过滤"
// @Param   search query string false "姓名/邮箱/证件号检索"
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(20)
// @Success 200 {object} util.Response{data=object}
// @Router /api/admin/candidates [get]
func (c *UserController) ListCandidates(ctx *gin.Context) {
	batchID, _ := strconv.Atoi(ctx.Query("batchId"))
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	users, total, err := c.UserService.ListCandidates(uint(batchID), ctx.Query("search"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": users, "total": total})
}

// GetCandidate godoc
// @Summary 考生详情
// @Tags 考生管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "考生ID"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 404 {object} util.Response
// @Router /api/admin/candidates/{id} [get]
func (c *UserController) GetCandidate(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	user, err := c.UserService.GetUser(uint(id))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// UpdateCandidate godoc
// @Summary 更新考生
// @Tags 考生管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "考生ID"
// @Param   body body service.UpdateCandidateInput true "更新字段"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 404 {object} util.Response
// @Router /api/admin/candidates/{id} [put]
func (c *UserController) UpdateCandidate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	var req service.UpdateCandidateInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.UserService.UpdateCandidate(uint(id), req, claims.UserID)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// DeleteCandidate godoc
// @Summary 删除考生
// @Tags 考生管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "考生ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/candidates/{id} [delete]
func (c *UserController) DeleteCandidate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	if err := c.UserService.DeleteUser(uint(id), claims.UserID); err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ResetPasswordRequest 重置密码
type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// ResetPassword godoc
// @Summary 重置考生密码
// @Tags 考生管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "考生ID"
// @Param   body body ResetPasswordRequest true "新密码"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/candidates/{id}/password [put]
func (c *UserController) ResetPassword(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	var req ResetPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.UserService.ResetPassword(uint(id), req.NewPassword, claims.UserID); err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
