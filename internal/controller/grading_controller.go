package controller

import (
	"exam_admin_backend/internal/model"
	"exam_admin_backend/internal/service"
	"exam_admin_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type GradingController struct {
	GradingService *service.GradingService
}

func NewGradingController(gradingService *service.GradingService) *GradingController {
	return &GradingController{GradingService: gradingService}
}

// Initiate godoc
// @Summary 发起阅卷
// @Description 对已终结的考次手工发起阅卷，正常情况下交卷时自动发起
// @Tags 阅卷
// @Produce  json
// @Security BearerAuth
// @Param   attemptId path int true "考次ID"
// @Success 201 {object} util.Response{data=model.GradingSession}
// @Failure 409 {object} util.Response "会话已存在或考次未终结"
// @Router /api/grading/attempts/{attemptId}/sessions [post]
func (c *GradingController) Initiate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	attemptID, err := strconv.Atoi(ctx.Param("attemptId"))
	if err != nil {
		util.BadRequest(ctx, "invalid attempt id")
		return
	}

	session, err := c.GradingService.Initiate(uint(attemptID), claims)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Created(ctx, session)
}

// ListSessions godoc
// @Summary 阅卷会话列表
// @Tags 阅卷
// @Produce  json
// @Security BearerAuth
// @Param   examId query int false "按考试过滤"
// @Param   status query string false "按状态过滤"
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(20)
// @Success 200 {object} util.Response{data=object}
// @Router /api/grading/sessions [get]
func (c *GradingController) ListSessions(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	examID, _ := strconv.Atoi(ctx.Query("examId"))
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	sessions, total, err := c.GradingService.ListSessions(
		uint(examID), model.GradingStatus(ctx.Query("status")), page, limit, claims)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": sessions, "total": total})
}

// GetSession godoc
// @Summary 会话明细
// @Description 含逐题判分与重判流水
// @Tags 阅卷
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "会话ID"
// @Success 200 {object} util.Response{data=service.SessionDetail}
// @Failure 404 {object} util.Response
// @Router /api/grading/sessions/{id} [get]
func (c *GradingController) GetSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	detail, err := c.GradingService.GetSessionDetail(uint(id), claims)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// SubmitGrade godoc
// @Summary 人工判分
// @Description 全部题目判完后会话自动完成并结算总分
// @Tags 阅卷
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "会话ID"
// @Param   body body service.ManualGradeInput true "判分内容"
// @Success 200 {object} util.Response{data=model.GradingSession}
// @Failure 422 {object} util.Response "分数超出范围"
// @Router /api/grading/sessions/{id}/grades [post]
func (c *GradingController) SubmitGrade(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	var req service.ManualGradeInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.GradingService.SubmitManualGrade(uint(id), req, claims)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// BulkGradeRequest 批量判分请求
type BulkGradeRequest struct {
	Items []service.ManualGradeInput `json:"items" binding:"required,min=1"`
}

// BulkSubmitGrades godoc
// @Summary 批量判分
// @Description 单题失败不中断整批，返回逐项结果
// @Tags 阅卷
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "会话ID"
// @Param   body body BulkGradeRequest true "判分列表"
// @Success 200 {object} util.Response{data=object}
// @Router /api/grading/sessions/{id}/grades/bulk [post]
func (c *GradingController) BulkSubmitGrades(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	var req BulkGradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	results, session, err := c.GradingService.BulkSubmitManualGrades(uint(id), req.Items, claims)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"results": results, "session": session})
}

// Complete godoc
// @Summary 定稿
// @Description 显式完成阅卷；仍有未判题目时返回 422
// @Tags 阅卷
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "会话ID"
// @Success 200 {object} util.Response{data=model.GradingSession}
// @Failure 422 {object} util.Response "仍有未判题目"
// @Router /api/grading/sessions/{id}/complete [post]
func (c *GradingController) Complete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	session, err := c.GradingService.CompleteGrading(uint(id), claims)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// Regrade godoc
// @Summary 重判
// @Description 已完成的会话仍可重判，旧分新分写入重判流水与审计
// @Tags 阅卷
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "会话ID"
// @Param   body body service.RegradeInput true "重判内容与原因"
// @Success 200 {object} util.Response{data=model.GradingSession}
// @Failure 422 {object} util.Response "分数超出范围"
// @Router /api/grading/sessions/{id}/regrade [post]
func (c *GradingController) Regrade(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	var req service.RegradeInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.GradingService.Regrade(uint(id), req, claims)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// SuggestGrade godoc
// @Summary AI 判分建议
// @Description 对主观题作答生成建议分与理由，仅供参考，不自动落分
// @Tags 阅卷
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "会话ID"
// @Param   questionId path int true "题目ID"
// @Success 200 {object} util.Response{data=service.GradeSuggestion}
// @Failure 404 {object} util.Response
// @Router /api/grading/sessions/{id}/questions/{questionId}/suggest [get]
func (c *GradingController) SuggestGrade(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}
	questionID, err := strconv.Atoi(ctx.Param("questionId"))
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	suggestion, err := c.GradingService.SuggestGrade(uint(id), uint(questionID), claims)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, suggestion)
}
