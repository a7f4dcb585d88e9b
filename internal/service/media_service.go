package service

import (
	"context"
	"exam_admin_backend/internal/config"
	"exam_admin_backend/internal/model"
	"exam_admin_backend/internal/util"
	"exam_admin_backend/pkg/logger"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MediaService 媒体文件上传与管理（考生照片、考试说明视频等）。
// 视频在上传后异步抽帧生成缩略图。
type MediaService struct {
	DB      *gorm.DB
	Storage *StorageService
	Cfg     *config.Config
}

func NewMediaService(db *gorm.DB, storage *StorageService, cfg *config.Config) *MediaService {
	return &MediaService{DB: db, Storage: storage, Cfg: cfg}
}

var allowedMediaTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"video/mp4":       true,
	"video/webm":      true,
	"audio/mpeg":      true,
	"application/pdf": true,
}

// Upload 保存上传文件并登记媒体记录
func (s *MediaService) Upload(ctx context.Context, fileHeader *multipart.FileHeader, purpose string, uploaderID uint) (*model.MediaFile, error) {
	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedMediaTypes[contentType] {
		return nil, util.ErrUnsupportedMediaType
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	ext := filepath.Ext(fileHeader.Filename)
	objectName := fmt.Sprintf("%s/%s%s", time.Now().Format("2006/01"), uuid.New().String(), ext)

	url, err := s.Storage.Upload(ctx, objectName, src, fileHeader.Size, contentType)
	if err != nil {
		return nil, err
	}

	media := &model.MediaFile{
		FileName:    fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
		URL:         url,
		Purpose:     purpose,
		UploadedBy:  uploaderID,
	}
	if err := s.DB.Create(media).Error; err != nil {
		return nil, err
	}

	if strings.HasPrefix(contentType, "video/") {
		go s.generateThumbnail(media, fileHeader)
	}

	return media, nil
}

// generateThumbnail 落到临时文件抓帧，失败只记日志不影响主流程
func (s *MediaService) generateThumbnail(media *model.MediaFile, fileHeader *multipart.FileHeader) {
	src, err := fileHeader.Open()
	if err != nil {
		logger.Log.Warn("thumbnail source open failed", zap.String("mediaId", media.ID), zap.Error(err))
		return
	}
	defer src.Close()

	tmpVideo, err := os.CreateTemp("", "media-*"+filepath.Ext(media.FileName))
	if err != nil {
		logger.Log.Warn("thumbnail temp file failed", zap.String("mediaId", media.ID), zap.Error(err))
		return
	}
	defer os.Remove(tmpVideo.Name())

	if _, err := tmpVideo.ReadFrom(src); err != nil {
		tmpVideo.Close()
		logger.Log.Warn("thumbnail video copy failed", zap.String("mediaId", media.ID), zap.Error(err))
		return
	}
	tmpVideo.Close()

	thumbPath := strings.TrimSuffix(tmpVideo.Name(), filepath.Ext(tmpVideo.Name())) + "_thumb.jpg"
	defer os.Remove(thumbPath)

	if err := util.GenerateThumbnail(tmpVideo.Name(), thumbPath, "00:00:01"); err != nil {
		logger.Log.Warn("thumbnail generation failed", zap.String("mediaId", media.ID), zap.Error(err))
		return
	}

	objectName := fmt.Sprintf("thumbnails/%s.jpg", media.ID)
	url, err := s.Storage.UploadFile(context.Background(), objectName, thumbPath, "image/jpeg")
	if err != nil {
		logger.Log.Warn("thumbnail upload failed", zap.String("mediaId", media.ID), zap.Error(err))
		return
	}

	if err := s.DB.Model(media).Update("thumbnail_url", url).Error; err != nil {
		logger.Log.Warn("thumbnail record update failed", zap.String("mediaId", media.ID), zap.Error(err))
	}
}

func (s *MediaService) Get(id string) (*model.MediaFile, error) {
	var media model.MediaFile
	if err := s.DB.First(&media, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrMediaNotFound
		}
		return nil, err
	}
	return &media, nil
}

func (s *MediaService) List(purpose string, page, limit int) ([]model.MediaFile, int64, error) {
	var files []model.MediaFile
	var total int64

	query := s.DB.Model(&model.MediaFile{})
	if purpose != "" {
		query = query.Where("purpose = ?", purpose)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&files).Error
	return files, total, err
}

// Delete 删除媒体记录与底层对象
func (s *MediaService) Delete(ctx context.Context, id string, actor *util.Claims) error {
	media, err := s.Get(id)
	if err != nil {
		return err
	}
	if actor.Role != model.SuperDev && actor.Role != model.Admin && media.UploadedBy != actor.UserID {
		return util.ErrPermissionDenied
	}

	if err := s.DB.Delete(media).Error; err != nil {
		return err
	}

	// 对象删除失败不回滚记录删除，留给人工清理
	objectName := strings.TrimPrefix(media.URL, s.Storage.GetURL(""))
	if err := s.Storage.Delete(ctx, objectName); err != nil {
		logger.Log.Warn("storage object delete failed", zap.String("mediaId", media.ID), zap.Error(err))
	}
	return nil
}
