package controller

import (
	"errors"
	"exam_admin_backend/internal/service"
	"exam_admin_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type MediaController struct {
	MediaService *service.MediaService
}

func NewMediaController(mediaService *service.MediaService) *MediaController {
	return &MediaController{MediaService: mediaService}
}

// Upload godoc
// @Summary 上传媒体文件
// @Description 支持图片、视频、音频与 PDF；视频异步生成缩略图
// @Tags 媒体
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param   file formData file true "文件"
// @Param   purpose formData string false "用途标记，如 candidate_photo / exam_instruction"
// @Success 201 {object} util.Response{data=model.MediaFile}
// @Failure 400 {object} util.Response "不支持的文件类型"
// @Router /api/media [post]
func (c *MediaController) Upload(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	media, err := c.MediaService.Upload(ctx.Request.Context(), fileHeader, ctx.PostForm("purpose"), claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUnsupportedMediaType) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, media)
}

// Get godoc
// @Summary 媒体文件详情
// @Tags 媒体
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "文件ID"
// @Success 200 {object} util.Response{data=model.MediaFile}
// @Failure 404 {object} util.Response
// @Router /api/media/{id} [get]
func (c *MediaController) Get(ctx *gin.Context) {
	media, err := c.MediaService.Get(ctx.Param("id"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, media)
}

// List godoc
// @Summary 媒体文件列表
// @Tags 媒体
// @Produce  json
// @Security BearerAuth
// @Param   purpose query string false "按用途过滤"
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(20)
// @Success 200 {object} util.Response{data=object}
// @Router /api/media [get]
func (c *MediaController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	files, total, err := c.MediaService.List(ctx.Query("purpose"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": files, "total": total})
}

// Delete godoc
// @Summary 删除媒体文件
// @Description 仅管理员或上传者本人可删除
// @Tags 媒体
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "文件ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/media/{id} [delete]
func (c *MediaController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	if err := c.MediaService.Delete(ctx.Request.Context(), ctx.Param("id"), claims); err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
