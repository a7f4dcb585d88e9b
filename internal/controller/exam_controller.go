package controller

import (
	"exam_admin_backend/internal/service"
	"exam_admin_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	ExamService *service.ExamService
}

func NewExamController(examService *service.ExamService) *ExamController {
	return &ExamController{ExamService: examService}
}

// Create godoc
// @Summary 创建考试
// @Tags 考试管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.ExamInput true "考试配置"
// @Success 201 {object} util.Response{data=model.Exam}
// @Failure 400 {object} util.Response
// @Router /api/admin/exams [post]
func (c *ExamController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req service.ExamInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	exam, err := c.ExamService.Create(req, claims.UserID)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, exam)
}

// List godoc
// @Summary 考试列表
// @Tags 考试管理
// @Produce  json
// @Security BearerAuth
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(20)
// @Param   publishedOnly query bool false "仅已发布"
// @Param   search query string false "标题检索"
// @Success 200 {object} util.Response{data=object}
// @Router /api/admin/exams [get]
func (c *ExamController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	publishedOnly := ctx.Query("publishedOnly") == "true"

	exams, total, err := c.ExamService.List(page, limit, publishedOnly, ctx.Query("search"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": exams, "total": total})
}

// Get godoc
// @Summary 考试详情
// @Tags 考试管理
// @Produce  json
// @Security BearerAuth
// @Param   examId path int true "考试ID"
// @Success 200 {object} util.Response{data=model.Exam}
// @Failure 404 {object} util.Response
// @Router /api/admin/exams/{examId} [get]
func (c *ExamController) Get(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("examId"))
	if err != nil {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	exam, err := c.ExamService.Get(uint(id))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, exam)
}

// Update godoc
// @Summary 更新考试
// @Description 已发布的考试不能修改时长与次数
// @Tags 考试管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   examId path int true "考试ID"
// @Param   body body service.ExamInput true "考试配置"
// @Success 200 {object} util.Response{data=model.Exam}
// @Failure 400 {object} util.Response
// @Router /api/admin/exams/{examId} [put]
func (c *ExamController) Update(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("examId"))
	if err != nil {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	var req service.ExamInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	exam, err := c.ExamService.Update(uint(id), req, claims.UserID)
	if err != nil {
		if util.IsNotFound(err) {
			util.DomainError(ctx, err)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, exam)
}

// Publish godoc
// @Summary 发布考试
// @Description 发布后考生可在排考窗口内开考
// @Tags 考试管理
// @Produce  json
// @Security BearerAuth
// @Param   examId path int true "考试ID"
// @Success 200 {object} util.Response{data=model.Exam}
// @Failure 400 {object} util.Response "考试没有题目"
// @Router /api/admin/exams/{examId}/publish [post]
func (c *ExamController) Publish(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("examId"))
	if err != nil {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	exam, err := c.ExamService.Publish(uint(id), claims.UserID)
	if err != nil {
		if util.IsNotFound(err) {
			util.DomainError(ctx, err)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, exam)
}

// Unpublish godoc
// @Summary 下线考试
// @Tags 考试管理
// @Produce  json
// @Security BearerAuth
// @Param   examId path int true "考试ID"
// @Success 200 {object} util.Response{data=model.Exam}
// @Router /api/admin/exams/{examId}/unpublish [post]
func (c *ExamController) Unpublish(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("examId"))
	if err != nil {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	exam, err := c.ExamService.Unpublish(uint(id), claims.UserID)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, exam)
}

// Delete godoc
// @Summary 删除考试
// @Tags 考试管理
// @Produce  json
// @Security BearerAuth
// @Param   examId path int true "考试ID"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "已发布的考试不能删除"
// @Router /api/admin/exams/{examId} [delete]
func (c *ExamController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("examId"))
	if err != nil {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	if err := c.ExamService.Delete(uint(id), claims.UserID); err != nil {
		if util.IsNotFound(err) {
			util.DomainError(ctx, err)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, nil)
}
