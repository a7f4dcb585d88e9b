package controller

import (
	"encoding/json"
	"exam_admin_backend/internal/service"
	"exam_admin_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

// AttemptController 考生端考次操作。
// 所有操作都校验考次归属，考生只能操作自己的考次。
type AttemptController struct {
	AttemptService    *service.AttemptService
	AssignmentService *service.AssignmentService
	QuestionService   *service.QuestionService
	GradingService    *service.GradingService
}

func NewAttemptController(
	attemptService *service.AttemptService,
	assignmentService *service.AssignmentService,
	questionService *service.QuestionService,
	gradingService *service.GradingService,
) *AttemptController {
	return &AttemptController{
		AttemptService:    attemptService,
		AssignmentService: assignmentService,
		QuestionService:   questionService,
		GradingService:    gradingService,
	}
}

// MyAssignments godoc
// @Summary 我的排考
// @Tags 考生考试
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.ExamAssignment}
// @Router /api/exam/assignments [get]
func (c *AttemptController) MyAssignments(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	assignments, err := c.AssignmentService.ListByCandidate(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, assignments)
}

// Eligibility godoc
// @Summary 资格预检
// @Description 开考前查询是否具备开考条件，与开考校验口径一致
// @Tags 考生考试
// @Produce  json
// @Security BearerAuth
// @Param   examId path int true "考试ID"
// @Success 200 {object} util.Response{data=service.Eligibility}
// @Failure 404 {object} util.Response
// @Router /api/exam/exams/{examId}/eligibility [get]
func (c *AttemptController) Eligibility(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	examID, err := strconv.Atoi(ctx.Param("examId"))
	if err != nil {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	eligibility, err := c.AssignmentService.CheckEligibility(claims.UserID, uint(examID))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, eligibility)
}

// StartRequest 开考请求
type StartRequest struct {
	ExamID     uint   `json:"examId" binding:"required"`
	AccessCode string `json:"accessCode"`
}

// Start godoc
// @Summary 开考
// @Description 校验发布状态、准考码、排考窗口与剩余次数后创建考次；
// @Description 已有进行中或暂停的考次时直接返回该考次
// @Tags 考生考试
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body StartRequest true "考试与准考码"
// @Success 200 {object} util.Response{data=service.AttemptSummary}
// @Failure 403 {object} util.Response "无资格、次数用尽或准考码错误"
// @Failure 404 {object} util.Response
// @Router /api/exam/attempts [post]
func (c *AttemptController) Start(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req StartRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	summary, err := c.AttemptService.Start(claims.UserID, req.ExamID, req.AccessCode)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// Paper godoc
// @Summary 取卷
// @Description 考生视图的题目列表，不含答案与解析
// @Tags 考生考试
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "考次ID"
// @Success 200 {object} util.Response{data=[]service.CandidateQuestion}
// @Failure 403 {object} util.Response
// @Router /api/exam/attempts/{id}/paper [get]
func (c *AttemptController) Paper(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	summary, err := c.AttemptService.GetSummary(uint(id), claims)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	questions, err := c.QuestionService.ListForCandidate(summary.ExamID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// GetSummary godoc
// @Summary 考次状态
// @Description 返回状态与实时剩余秒数
// @Tags 考生考试
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "考次ID"
// @Success 200 {object} util.Response{data=service.AttemptSummary}
// @Failure 404 {object} util.Response
// @Router /api/exam/attempts/{id} [get]
func (c *AttemptController) GetSummary(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	summary, err := c.AttemptService.GetSummary(uint(id), claims)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// Heartbeat godoc
// @Summary 心跳
// @Description 上报在线状态并取回剩余秒数，剩余时间以服务端为准
// @Tags 考生考试
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "考次ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 409 {object} util.Response "考次已终结"
// @Router /api/exam/attempts/{id}/heartbeat [post]
func (c *AttemptController) Heartbeat(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	remaining, err := c.AttemptService.Heartbeat(uint(id), claims.UserID)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"remainingSeconds": remaining})
}

// SaveAnswerRequest 作答保存
type SaveAnswerRequest struct {
	QuestionID uint            `json:"questionId" binding:"required"`
	Payload    json.RawMessage `json:"payload"`
	AnswerText string          `json:"answerText"`
	IsFlagged  bool            `json:"isFlagged"`
}

// SaveAnswer godoc
// @Summary 保存作答
// @Description 按 (考次, 题目) 幂等覆盖；仅 in_progress 状态可保存
// @Tags 考生考试
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "考次ID"
// @Param   body body SaveAnswerRequest true "作答内容"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "考次不在作答状态"
// @Router /api/exam/attempts/{id}/answers [put]
func (c *AttemptController) SaveAnswer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	var req SaveAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AttemptService.SaveAnswer(uint(id), claims.UserID, req.QuestionID, req.Payload, req.AnswerText, req.IsFlagged); err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Pause godoc
// @Summary 暂停考次
// @Description 暂停时钟停止消耗，已消耗时间落库
// @Tags 考生考试
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "考次ID"
// @Success 200 {object} util.Response{data=service.AttemptSummary}
// @Failure 409 {object} util.Response
// @Router /api/exam/attempts/{id}/pause [post]
func (c *AttemptController) Pause(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	summary, err := c.AttemptService.Pause(uint(id), claims.UserID)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// Resume godoc
// @Summary 恢复考次
// @Description 剩余时间已耗尽时恢复失败并判为超时
// @Tags 考生考试
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "考次ID"
// @Success 200 {object} util.Response{data=service.AttemptSummary}
// @Failure 409 {object} util.Response
// @Router /api/exam/attempts/{id}/resume [post]
func (c *AttemptController) Resume(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	summary, err := c.AttemptService.Resume(uint(id), claims.UserID)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// Submit godoc
// @Summary 交卷
// @Description 交卷后考次终结并自动发起阅卷
// @Tags 考生考试
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "考次ID"
// @Success 200 {object} util.Response{data=service.AttemptSummary}
// @Failure 409 {object} util.Response
// @Router /api/exam/attempts/{id}/submit [post]
func (c *AttemptController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	summary, err := c.AttemptService.Submit(uint(id), claims.UserID)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// Result godoc
// @Summary 成绩查询
// @Description 查询本人考次的阅卷结果，阅卷完成前总分为空
// @Tags 考生考试
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "考次ID"
// @Success 200 {object} util.Response{data=model.GradingSession}
// @Failure 404 {object} util.Response
// @Router /api/exam/attempts/{id}/result [get]
func (c *AttemptController) Result(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	session, err := c.GradingService.GetResultForCandidate(uint(id), claims.UserID)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, session)
}
