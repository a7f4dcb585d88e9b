package repository

import (
	"exam_admin_backend/internal/model"

	"gorm.io/gorm"
)

type ExamRepository struct {
	DB *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: db}
}

func (r *ExamRepository) Create(exam *model.Exam) error {
	return r.DB.Create(exam).Error
}

func (r *ExamRepository) Update(exam *model.Exam) error {
	return r.DB.Save(exam).Error
}

func (r *ExamRepository) FindByID(id uint) (*model.Exam, error) {
	var e model.Exam
	if err := r.DB.First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ExamRepository) List(page, limit int, publishedOnly bool, search string) ([]model.Exam, int64, error) {
	var exams []model.Exam
	var total int64

	query := r.DB.Model(&model.Exam{})
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	if search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&exams).Error
	return exams, total, err
}

func (r *ExamRepository) Delete(id, deletedBy uint) error {
	if err := r.DB.Model(&model.Exam{}).Where("id = ?", id).
		UpdateColumn("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return r.DB.Delete(&model.Exam{}, id).Error
}
