package repository

import (
	"exam_admin_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type AssignmentRepository struct {
	DB *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{DB: db}
}

func (r *AssignmentRepository) Create(a *model.ExamAssignment) error {
	return r.DB.Create(a).Error
}

func (r *AssignmentRepository) FindByID(id uint) (*model.ExamAssignment, error) {
	var a model.ExamAssignment
	if err := r.DB.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindCovering 返回当前时刻生效的排考窗口
func (r *AssignmentRepository) FindCovering(candidateID, examID uint, now time.Time) (*model.ExamAssignment, error) {
	var a model.ExamAssignment
	err := r.DB.Where(
		"candidate_id = ? AND exam_id = ? AND is_active = ? AND schedule_from <= ? AND schedule_to >= ?",
		candidateID, examID, true, now, now,
	).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// HasOverlapping 同一考生同一考试是否已有与 [from, to] 重叠的生效窗口
func (r *AssignmentRepository) HasOverlapping(candidateID, examID uint, from, to time.Time) (bool, error) {
	var count int64
	err := r.DB.Model(&model.ExamAssignment{}).Where(
		"candidate_id = ? AND exam_id = ? AND is_active = ? AND schedule_from <= ? AND schedule_to >= ?",
		candidateID, examID, true, to, from,
	).Count(&count).Error
	return count > 0, err
}

func (r *AssignmentRepository) Deactivate(id, byUserID uint) error {
	return r.DB.Model(&model.ExamAssignment{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_by": byUserID,
		}).Error
}

func (r *AssignmentRepository) ListByCandidate(candidateID uint) ([]model.ExamAssignment, error) {
	var list []model.ExamAssignment
	err := r.DB.Where("candidate_id = ?", candidateID).
		Order("schedule_from DESC").Find(&list).Error
	return list, err
}

func (r *AssignmentRepository) ListByExam(examID uint, page, limit int) ([]model.ExamAssignment, int64, error) {
	var list []model.ExamAssignment
	var total int64

	query := r.DB.Model(&model.ExamAssignment{}).Where("exam_id = ?", examID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&list).Error
	return list, total, err
}

func (r *AssignmentRepository) CreateOverride(o *model.AttemptOverride) error {
	return r.DB.Create(o).Error
}

// FindUnconsumedOverride 最早一条未消费的豁免
func (r *AssignmentRepository) FindUnconsumedOverride(candidateID, examID uint) (*model.AttemptOverride, error) {
	var o model.AttemptOverride
	err := r.DB.Where(
		"candidate_id = ? AND exam_id = ? AND consumed_by_attempt_id IS NULL",
		candidateID, examID,
	).Order("id ASC").First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ConsumeOverride 条件更新保证同一豁免不会被两次 Start 同时消费
func (r *AssignmentRepository) ConsumeOverride(overrideID, attemptID uint) (bool, error) {
	res := r.DB.Model(&model.AttemptOverride{}).
		Where("id = ? AND consumed_by_attempt_id IS NULL", overrideID).
		UpdateColumn("consumed_by_attempt_id", attemptID)
	return res.RowsAffected > 0, res.Error
}
