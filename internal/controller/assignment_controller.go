package controller

import (
	"errors"
	"exam_admin_backend/internal/service"
	"exam_admin_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AssignmentController struct {
	AssignmentService *service.AssignmentService
}

func NewAssignmentController(assignmentService *service.AssignmentService) *AssignmentController {
	return &AssignmentController{AssignmentService: assignmentService}
}

// Assign godoc
// @Summary 排考
// @Description 授予考生时间窗口内的考试资格，生效窗口不允许重叠
// @Tags 排考管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.AssignInput true "排考信息"
// @Success 201 {object} util.Response{data=model.ExamAssignment}
// @Failure 409 {object} util.Response "窗口重叠"
// @Router /api/admin/assignments [post]
func (c *AssignmentController) Assign(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req service.AssignInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	assignment, err := c.AssignmentService.Assign(req, claims)
	if err != nil {
		if util.IsNotFound(err) || util.IsConflict(err) || errors.Is(err, util.ErrPermissionDenied) {
			util.DomainError(ctx, err)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Created(ctx, assignment)
}

// UnassignRequest 撤销排考
type UnassignRequest struct {
	Reason string `json:"reason"`
}

// Unassign godoc
// @Summary 撤销排考
// @Description 考生已留有考次时拒绝撤销
// @Tags 排考管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "排考ID"
// @Param   body body UnassignRequest false "撤销原因"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "考生已开考"
// @Router /api/admin/assignments/{id} [delete]
func (c *AssignmentController) Unassign(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	var req UnassignRequest
	_ = ctx.ShouldBindJSON(&req)

	if err := c.AssignmentService.Unassign(uint(id), req.Reason, claims); err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListByExam godoc
// @Summary 考试排考列表
// @Tags 排考管理
// @Produce  json
// @Security BearerAuth
// @Param   examId path int true "考试ID"
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(20)
// @Success 200 {object} util.Response{data=object}
// @Router /api/admin/exams/{examId}/assignments [get]
func (c *AssignmentController) ListByExam(ctx *gin.Context) {
	examID, err := strconv.Atoi(ctx.Param("examId"))
	if err != nil {
		util.BadRequest(ctx, "invalid exam id")
		return
	}
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	assignments, total, err := c.AssignmentService.ListByExam(uint(examID), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": assignments, "total": total})
}

// ListByCandidate godoc
// @Summary 考生排考列表
// @Tags 排考管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "考生ID"
// @Success 200 {object} util.Response{data=[]model.ExamAssignment}
// @Router /api/admin/candidates/{id}/assignments [get]
func (c *AssignmentController) ListByCandidate(ctx *gin.Context) {
	candidateID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	assignments, err := c.AssignmentService.ListByCandidate(uint(candidateID))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, assignments)
}

// AllowNewAttemptRequest 豁免请求
type AllowNewAttemptRequest struct {
	CandidateID uint   `json:"candidateId" binding:"required"`
	ExamID      uint   `json:"examId" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
}

// AllowNewAttempt godoc
// @Summary 发放豁免
// @Description 允许次数用尽的考生再考一次，豁免在下次开考时消费
// @Tags 排考管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body AllowNewAttemptRequest true "豁免信息"
// @Success 201 {object} util.Response{data=model.AttemptOverride}
// @Failure 404 {object} util.Response
// @Router /api/admin/overrides [post]
func (c *AssignmentController) AllowNewAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req AllowNewAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	override, err := c.AssignmentService.AllowNewAttempt(req.CandidateID, req.ExamID, req.Reason, claims)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Created(ctx, override)
}
