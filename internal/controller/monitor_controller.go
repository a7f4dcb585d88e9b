package controller

import (
	"exam_admin_backend/internal/model"
	"exam_admin_backend/internal/repository"
	"exam_admin_backend/internal/service"
	"exam_admin_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

// MonitorController 监考台：管理员对进行中考次的干预与审计查询
type MonitorController struct {
	AttemptService *service.AttemptService
	AuditRepo      *repository.AuditRepository
	Policy         *service.Policy
}

func NewMonitorController(attemptService *service.AttemptService, auditRepo *repository.AuditRepository, policy *service.Policy) *MonitorController {
	return &MonitorController{
		AttemptService: attemptService,
		AuditRepo:      auditRepo,
		Policy:         policy,
	}
}

// ListAttempts godoc
// @Summary 考次列表
// @Tags 监考台
// @Produce  json
// @Security BearerAuth
// @Param   examId query int false "按考试过滤"
// @Param   candidateId query int false "按考生过滤"
// @Param   status query string false "按状态过滤"
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(20)
// @Success 200 {object} util.Response{data=object}
// @Router /api/admin/attempts [get]
func (c *MonitorController) ListAttempts(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	examID, _ := strconv.Atoi(ctx.Query("examId"))
	candidateID, _ := strconv.Atoi(ctx.Query("candidateId"))
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	attempts, total, err := c.AttemptService.ListAttempts(repository.AttemptFilters{
		ExamID:      uint(examID),
		CandidateID: uint(candidateID),
		Status:      model.AttemptStatus(ctx.Query("status")),
		Page:        page,
		Limit:       limit,
	}, claims)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": attempts, "total": total})
}

// GetAttempt godoc
// @Summary 考次明细
// @Description 含作答记录，供监考与复核
// @Tags 监考台
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "考次ID"
// @Success 200 {object} util.Response{data=service.AttemptDetail}
// @Failure 404 {object} util.Response
// @Router /api/admin/attempts/{id} [get]
func (c *MonitorController) GetAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	detail, err := c.AttemptService.GetDetail(uint(id), claims)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// InterventionRequest 管理员干预通用请求体
type InterventionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ForceEnd godoc
// @Summary 强制收卷
// @Description 考次转 force_submitted 并发起阅卷，操作写审计
// @Tags 监考台
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "考次ID"
// @Param   body body InterventionRequest true "操作原因"
// @Success 200 {object} util.Response{data=service.AttemptSummary}
// @Failure 409 {object} util.Response "考次已终结"
// @Router /api/admin/attempts/{id}/force-end [post]
func (c *MonitorController) ForceEnd(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	var req InterventionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	summary, err := c.AttemptService.ForceEnd(uint(id), claims, req.Reason)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// Resume godoc
// @Summary 代为恢复
// @Description 管理员将暂停的考次恢复计时，操作写审计
// @Tags 监考台
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "考次ID"
// @Param   body body InterventionRequest true "操作原因"
// @Success 200 {object} util.Response{data=service.AttemptSummary}
// @Failure 409 {object} util.Response
// @Router /api/admin/attempts/{id}/resume [post]
func (c *MonitorController) Resume(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	var req InterventionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	summary, err := c.AttemptService.AdminResume(uint(id), claims, req.Reason)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// AddTimeRequest 加时请求
type AddTimeRequest struct {
	ExtraMinutes int    `json:"extraMinutes" binding:"required,min=1,max=120"`
	Reason       string `json:"reason" binding:"required"`
}

// AddTime godoc
// @Summary 加时
// @Description 为考次追加时长，原子累加，返回最新剩余秒数
// @Tags 监考台
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "考次ID"
// @Param   body body AddTimeRequest true "加时分钟数与原因"
// @Success 200 {object} util.Response{data=object}
// @Failure 409 {object} util.Response "考次已终结"
// @Router /api/admin/attempts/{id}/add-time [post]
func (c *MonitorController) AddTime(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	var req AddTimeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	remaining, err := c.AttemptService.AddTime(uint(id), claims, req.ExtraMinutes, req.Reason)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"remainingSeconds": remaining})
}

// Cancel godoc
// @Summary 作废考次
// @Description 作废的考次不占用次数、不发起阅卷
// @Tags 监考台
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "考次ID"
// @Param   body body InterventionRequest true "操作原因"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/admin/attempts/{id}/cancel [post]
func (c *MonitorController) Cancel(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	var req InterventionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AttemptService.Cancel(uint(id), claims, req.Reason); err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListAuditLogs godoc
// @Summary 审计日志
// @Tags 监考台
// @Produce  json
// @Security BearerAuth
// @Param   actionType query string false "按操作类型过滤"
// @Param   actorId query int false "按操作人过滤"
// @Param   candidateId query int false "按考生过滤"
// @Param   examId query int false "按考试过滤"
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(20)
// @Success 200 {object} util.Response{data=object}
// @Failure 403 {object} util.Response
// @Router /api/admin/audit-logs [get]
func (c *MonitorController) ListAuditLogs(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if !c.Policy.CanViewAudit(claims.Role) {
		util.Forbidden(ctx)
		return
	}

	actorID, _ := strconv.Atoi(ctx.Query("actorId"))
	candidateID, _ := strconv.Atoi(ctx.Query("candidateId"))
	examID, _ := strconv.Atoi(ctx.Query("examId"))
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	logs, total, err := c.AuditRepo.List(repository.AuditFilters{
		ActionType:  model.AdminActionType(ctx.Query("actionType")),
		ActorID:     uint(actorID),
		CandidateID: uint(candidateID),
		ExamID:      uint(examID),
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": logs, "total": total})
}
