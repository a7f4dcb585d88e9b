package repository

import (
	"exam_admin_backend/internal/model"

	"gorm.io/gorm"
)

type GradingRepository struct {
	DB *gorm.DB
}

func NewGradingRepository(db *gorm.DB) *GradingRepository {
	return &GradingRepository{DB: db}
}

func (r *GradingRepository) CreateSession(s *model.GradingSession) error {
	return r.DB.Create(s).Error
}

func (r *GradingRepository) FindSessionByID(id uint) (*model.GradingSession, error) {
	var s model.GradingSession
	if err := r.DB.First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GradingRepository) FindSessionByAttemptID(attemptID uint) (*model.GradingSession, error) {
	var s model.GradingSession
	if err := r.DB.Where("attempt_id = ?", attemptID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// CompareAndSwapSession 带版本号的条件更新，镜像考次表的乐观锁写法。
// 版本不匹配时返回 false，由调用方重读重试或放弃本轮。
func (r *GradingRepository) CompareAndSwapSession(id uint, version int64, updates map[string]interface{}) (bool, error) {
	updates["version"] = version + 1
	res := r.DB.Model(&model.GradingSession{}).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GradingRepository) ListPendingSessions(limit int) ([]model.GradingSession, error) {
	var sessions []model.GradingSession
	err := r.DB.Where("status = ?", model.GradingPending).
		Order("id ASC").Limit(limit).Find(&sessions).Error
	return sessions, err
}

func (r *GradingRepository) ListSessions(examID uint, status model.GradingStatus, page, limit int) ([]model.GradingSession, int64, error) {
	var sessions []model.GradingSession
	var total int64

	query := r.DB.Model(&model.GradingSession{})
	if examID != 0 {
		query = query.Where("exam_id = ?", examID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&sessions).Error
	return sessions, total, err
}

// UpsertGradedAnswer 按 (session, question) 幂等写入。已存在时只更新可变字段，
// 判分快照保持首次写入值不动。
func (r *GradingRepository) UpsertGradedAnswer(ga *model.GradedAnswer) error {
	var existing model.GradedAnswer
	err := r.DB.Where("session_id = ? AND question_id = ?", ga.SessionID, ga.QuestionID).
		First(&existing).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}
	if existing.ID == 0 {
		return r.DB.Create(ga).Error
	}
	existing.Score = ga.Score
	existing.IsCorrect = ga.IsCorrect
	existing.IsManuallyGraded = ga.IsManuallyGraded
	existing.GraderComment = ga.GraderComment
	return r.DB.Save(&existing).Error
}

func (r *GradingRepository) FindGradedAnswer(sessionID, questionID uint) (*model.GradedAnswer, error) {
	var ga model.GradedAnswer
	err := r.DB.Where("session_id = ? AND question_id = ?", sessionID, questionID).
		First(&ga).Error
	if err != nil {
		return nil, err
	}
	return &ga, nil
}

func (r *GradingRepository) GetGradedAnswers(sessionID uint) ([]model.GradedAnswer, error) {
	var answers []model.GradedAnswer
	err := r.DB.Where("session_id = ?", sessionID).
		Order("question_id ASC").Find(&answers).Error
	return answers, err
}

func (r *GradingRepository) CreateRegradeLog(l *model.RegradeLog) error {
	return r.DB.Create(l).Error
}

func (r *GradingRepository) ListRegradeLogs(sessionID uint) ([]model.RegradeLog, error) {
	var logs []model.RegradeLog
	err := r.DB.Where("session_id = ?", sessionID).
		Order("id ASC").Find(&logs).Error
	return logs, err
}
