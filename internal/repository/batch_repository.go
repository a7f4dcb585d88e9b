package repository

import (
	"exam_admin_backend/internal/model"

	"gorm.io/gorm"
)

type BatchRepository struct {
	DB *gorm.DB
}

func NewBatchRepository(db *gorm.DB) *BatchRepository {
	return &BatchRepository{DB: db}
}

func (r *BatchRepository) Create(batch *model.Batch) error {
	return r.DB.Create(batch).Error
}

func (r *BatchRepository) Update(batch *model.Batch) error {
	return r.DB.Save(batch).Error
}

func (r *BatchRepository) FindByID(id uint) (*model.Batch, error) {
	var b model.Batch
	if err := r.DB.First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BatchRepository) FindByCode(code string) (*model.Batch, error) {
	var b model.Batch
	if err := r.DB.Where("code = ?", code).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BatchRepository) List(page, limit int, onlyActive bool) ([]model.Batch, int64, error) {
	var batches []model.Batch
	var total int64

	query := r.DB.Model(&model.Batch{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&batches).Error
	return batches, total, err
}

func (r *BatchRepository) CountCandidates(batchID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).
		Where("batch_id = ? AND role = ?", batchID, model.Candidate).
		Count(&count).Error
	return count, err
}

func (r *BatchRepository) Delete(id, deletedBy uint) error {
	if err := r.DB.Model(&model.Batch{}).Where("id = ?", id).
		UpdateColumn("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return r.DB.Delete(&model.Batch{}, id).Error
}
