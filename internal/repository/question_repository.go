package repository

import (
	"exam_admin_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *QuestionRepository) Update(q *model.Question) error {
	return r.DB.Save(q).Error
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	if err := r.DB.First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuestionRepository) ListByExam(examID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.Where("exam_id = ?", examID).Order("seq ASC, id ASC").Find(&questions).Error
	return questions, err
}

func (r *QuestionRepository) CountByExam(examID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Question{}).Where("exam_id = ?", examID).Count(&count).Error
	return count, err
}

func (r *QuestionRepository) Delete(id, deletedBy uint) error {
	if err := r.DB.Model(&model.Question{}).Where("id = ?", id).
		UpdateColumn("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return r.DB.Delete(&model.Question{}, id).Error
}
