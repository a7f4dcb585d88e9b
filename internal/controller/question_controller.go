package controller

import (
	"exam_admin_backend/internal/service"
	"exam_admin_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

// Create godoc
// @Summary 添加题目
// @Tags 题库管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   examId path int true "考试ID"
// @Param   body body service.QuestionInput true "题目内容"
// @Success 201 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response
// @Router /api/admin/exams/{examId}/questions [post]
func (c *QuestionController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	examID, err := strconv.Atoi(ctx.Param("examId"))
	if err != nil {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	var req service.QuestionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.QuestionService.Create(uint(examID), req, claims.UserID)
	if err != nil {
		if util.IsNotFound(err) {
			util.DomainError(ctx, err)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Created(ctx, q)
}

// List godoc
// @Summary 题目列表（管理端，含答案）
// @Tags 题库管理
// @Produce  json
// @Security BearerAuth
// @Param   examId path int true "考试ID"
// @Success 200 {object} util.Response{data=[]model.Question}
// @Router /api/admin/exams/{examId}/questions [get]
func (c *QuestionController) List(ctx *gin.Context) {
	examID, err := strconv.Atoi(ctx.Param("examId"))
	if err != nil {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	questions, err := c.QuestionService.ListForAdmin(uint(examID))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// Update godoc
// @Summary 更新题目
// @Tags 题库管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "题目ID"
// @Param   body body service.QuestionInput true "题目内容"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 404 {object} util.Response
// @Router /api/admin/questions/{id} [put]
func (c *QuestionController) Update(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	var req service.QuestionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.QuestionService.Update(uint(id), req, claims.UserID)
	if err != nil {
		if util.IsNotFound(err) {
			util.DomainError(ctx, err)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, q)
}

// Delete godoc
// @Summary 删除题目
// @Description 已发布考试的题目不能删除
// @Tags 题库管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "题目ID"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/admin/questions/{id} [delete]
func (c *QuestionController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	if err := c.QuestionService.Delete(uint(id), claims.UserID); err != nil {
		if util.IsNotFound(err) {
			util.DomainError(ctx, err)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, nil)
}
