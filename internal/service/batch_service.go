package service

import (
	"errors"
	"exam_admin_backend/internal/model"
	"exam_admin_backend/internal/repository"
	"time"

	"gorm.io/gorm"
)

type BatchService struct {
	BatchRepo *repository.BatchRepository
}

func NewBatchService(batchRepo *repository.BatchRepository) *BatchService {
	return &BatchService{BatchRepo: batchRepo}
}

type BatchInput struct {
	Name        string     `json:"name" binding:"required"`
	Code        string     `json:"code" binding:"required"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

func (s *BatchService) Create(in BatchInput, createdBy uint) (*model.Batch, error) {
	if _, err := s.BatchRepo.FindByCode(in.Code); err == nil {
		return nil, errors.New("批次编码已存在")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	batch := &model.Batch{
		Name:        in.Name,
		Code:        in.Code,
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		IsActive:    true,
	}
	batch.CreatedBy = createdBy
	if err := s.BatchRepo.Create(batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *BatchService) Get(id uint) (*model.Batch, error) {
	batch, err := s.BatchRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("batch not found")
		}
		return nil, err
	}
	return batch, nil
}

// BatchDetail 批次及在册考生数
type BatchDetail struct {
	*model.Batch
	CandidateCount int64 `json:"candidateCount"`
}

func (s *BatchService) GetDetail(id uint) (*BatchDetail, error) {
	batch, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	count, err := s.BatchRepo.CountCandidates(id)
	if err != nil {
		return nil, err
	}
	return &BatchDetail{Batch: batch, CandidateCount: count}, nil
}

func (s *BatchService) List(page, limit int, onlyActive bool) ([]model.Batch, int64, error) {
	return s.BatchRepo.List(page, limit, onlyActive)
}

func (s *BatchService) Update(id uint, in BatchInput, isActive *bool, updatedBy uint) (*model.Batch, error) {
	batch, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if in.Code != "" && in.Code != batch.Code {
		if _, err := s.BatchRepo.FindByCode(in.Code); err == nil {
			return nil, errors.New("批次编码已存在")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		batch.Code = in.Code
	}
	if in.Name != "" {
		batch.Name = in.Name
	}
	if in.Description != "" {
		batch.Description = in.Description
	}
	if in.StartDate != nil {
		batch.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		batch.EndDate = in.EndDate
	}
	if isActive != nil {
		batch.IsActive = *isActive
	}
	batch.UpdatedBy = updatedBy

	if err := s.BatchRepo.Update(batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *BatchService) Delete(id, deletedBy uint) error {
	count, err := s.BatchRepo.CountCandidates(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("批次下仍有考生，无法删除")
	}
	return s.BatchRepo.Delete(id, deletedBy)
}
