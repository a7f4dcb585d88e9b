package repository

import (
	"exam_admin_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(a *model.ExamAttempt) error {
	return r.DB.Create(a).Error
}

func (r *AttemptRepository) FindByID(id uint) (*model.ExamAttempt, error) {
	var a model.ExamAttempt
	if err := r.DB.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindActive 同一考生同一考试至多一条非终态记录（应用层不变量）
func (r *AttemptRepository) FindActive(candidateID, examID uint) (*model.ExamAttempt, error) {
	var a model.ExamAttempt
	err := r.DB.Where(
		"candidate_id = ? AND exam_id = ? AND status IN ?",
		candidateID, examID,
		[]model.AttemptStatus{model.AttemptInProgress, model.AttemptPaused},
	).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CountUsed 已占用的考试次数，取消的不计
func (r *AttemptRepository) CountUsed(candidateID, examID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ExamAttempt{}).Where(
		"candidate_id = ? AND exam_id = ? AND status <> ?",
		candidateID, examID, model.AttemptCancelled,
	).Count(&count).Error
	return count, err
}

// CompareAndSwap 带版本号的条件更新。版本不匹配（并发修改）时返回 false，
// 由调用方重读重试。updates 不应包含 version，此处统一自增。
func (r *AttemptRepository) CompareAndSwap(id uint, version int64, updates map[string]interface{}) (bool, error) {
	updates["version"] = version + 1
	res := r.DB.Model(&model.ExamAttempt{}).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AddExtraTime 单条 SQL 自增，两个管理员并发加时不会互相覆盖。
// 只对非终态记录生效，返回是否命中。
func (r *AttemptRepository) AddExtraTime(id uint, seconds int64) (bool, error) {
	res := r.DB.Model(&model.ExamAttempt{}).
		Where("id = ? AND status IN ?", id,
			[]model.AttemptStatus{model.AttemptNotStarted, model.AttemptInProgress, model.AttemptPaused}).
		UpdateColumn("extra_time_seconds", gorm.Expr("extra_time_seconds + ?", seconds))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *AttemptRepository) TouchActivity(id uint, now time.Time) error {
	return r.DB.Model(&model.ExamAttempt{}).Where("id = ?", id).
		UpdateColumn("last_activity_at", now).Error
}

// ListNonTerminal 巡检对象：所有进行中或暂停中的记录
func (r *AttemptRepository) ListNonTerminal() ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	err := r.DB.Where("status IN ?",
		[]model.AttemptStatus{model.AttemptInProgress, model.AttemptPaused}).
		Find(&attempts).Error
	return attempts, err
}

type AttemptFilters struct {
	ExamID      uint
	CandidateID uint
	Status      model.AttemptStatus
	Page        int
	Limit       int
}

func (r *AttemptRepository) List(f AttemptFilters) ([]model.ExamAttempt, int64, error) {
	var attempts []model.ExamAttempt
	var total int64

	query := r.DB.Model(&model.ExamAttempt{})
	if f.ExamID != 0 {
		query = query.Where("exam_id = ?", f.ExamID)
	}
	if f.CandidateID != 0 {
		query = query.Where("candidate_id = ?", f.CandidateID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}

	err := query.Order("id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&attempts).Error
	return attempts, total, err
}

func (r *AttemptRepository) ListByCandidate(candidateID uint) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	err := r.DB.Where("candidate_id = ?", candidateID).
		Order("id DESC").Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) UpsertAnswer(ans *model.AttemptAnswer) error {
	var existing model.AttemptAnswer
	err := r.DB.Where("attempt_id = ? AND question_id = ?", ans.AttemptID, ans.QuestionID).
		First(&existing).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}
	if existing.ID == 0 {
		return r.DB.Create(ans).Error
	}
	existing.Payload = ans.Payload
	existing.AnswerText = ans.AnswerText
	existing.IsFlagged = ans.IsFlagged
	return r.DB.Save(&existing).Error
}

func (r *AttemptRepository) GetAnswers(attemptID uint) ([]model.AttemptAnswer, error) {
	var answers []model.AttemptAnswer
	err := r.DB.Where("attempt_id = ?", attemptID).Find(&answers).Error
	return answers, err
}
