package repository

import (
	"exam_admin_backend/internal/model"

	"gorm.io/gorm"
)

// AuditRepository 审计流水仅支持追加与查询
type AuditRepository struct {
	DB *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{DB: db}
}

func (r *AuditRepository) Create(l *model.AdminOperationLog) error {
	return r.DB.Create(l).Error
}

type AuditFilters struct {
	ActionType  model.AdminActionType
	ActorID     uint
	CandidateID uint
	ExamID      uint
	Page        int
	Limit       int
}

func (r *AuditRepository) List(f AuditFilters) ([]model.AdminOperationLog, int64, error) {
	var logs []model.AdminOperationLog
	var total int64

	query := r.DB.Model(&model.AdminOperationLog{})
	if f.ActionType != "" {
		query = query.Where("action_type = ?", f.ActionType)
	}
	if f.ActorID != 0 {
		query = query.Where("actor_id = ?", f.ActorID)
	}
	if f.CandidateID != 0 {
		query = query.Where("candidate_id = ?", f.CandidateID)
	}
	if f.ExamID != 0 {
		query = query.Where("exam_id = ?", f.ExamID)
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
		Find(&logs).Error
	return logs, total, err
}
