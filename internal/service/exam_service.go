package service

import (
	"errors"
	"exam_admin_backend/internal/model"
	"exam_admin_backend/internal/repository"
	"exam_admin_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type ExamService struct {
	ExamRepo     *repository.ExamRepository
	QuestionRepo *repository.QuestionRepository
}

func NewExamService(examRepo *repository.ExamRepository, questionRepo *repository.QuestionRepository) *ExamService {
	return &ExamService{ExamRepo: examRepo, QuestionRepo: questionRepo}
}

type ExamInput struct {
	Title               string  `json:"title" binding:"required"`
	Description         string  `json:"description"`
	BaseDurationSeconds int64   `json:"baseDurationSeconds" binding:"required,min=60"`
	MaxAttempts         int     `json:"maxAttempts" binding:"required,min=1"`
	PassingScore        float64 `json:"passingScore"`
	AccessCode          string  `json:"accessCode"`
	InstructionMediaURL string  `json:"instructionMediaUrl"`
}

func (s *ExamService) Create(in ExamInput, createdBy uint) (*model.Exam, error) {
	exam := &model.Exam{
		Title:               in.Title,
		Description:         in.Description,
		BaseDurationSeconds: in.BaseDurationSeconds,
		MaxAttempts:         in.MaxAttempts,
		PassingScore:        in.PassingScore,
		AccessCode:          in.AccessCode,
		InstructionMediaURL: in.InstructionMediaURL,
	}
	exam.CreatedBy = createdBy
	if err := s.ExamRepo.Create(exam); err != nil {
		return nil, err
	}
	return exam, nil
}

func (s *ExamService) Get(id uint) (*model.Exam, error) {
	exam, err := s.ExamRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}
	return exam, nil
}

func (s *ExamService) List(page, limit int, publishedOnly bool, search string) ([]model.Exam, int64, error) {
	return s.ExamRepo.List(page, limit, publishedOnly, search)
}

// Update 已发布考试的时长与次数不可再改，避免影响进行中的考次
func (s *ExamService) Update(id uint, in ExamInput, updatedBy uint) (*model.Exam, error) {
	exam, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if exam.IsPublished &&
		(in.BaseDurationSeconds != exam.BaseDurationSeconds || in.MaxAttempts != exam.MaxAttempts) {
		return nil, errors.New("已发布的考试不能修改时长与次数")
	}

	exam.Title = in.Title
	exam.Description = in.Description
	exam.BaseDurationSeconds = in.BaseDurationSeconds
	exam.MaxAttempts = in.MaxAttempts
	exam.PassingScore = in.PassingScore
	if in.AccessCode != "" {
		exam.AccessCode = in.AccessCode
	}
	if in.InstructionMediaURL != "" {
		exam.InstructionMediaURL = in.InstructionMediaURL
	}
	exam.UpdatedBy = updatedBy

	if err := s.ExamRepo.Update(exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// Publish 发布前必须至少有一道题
func (s *ExamService) Publish(id, updatedBy uint) (*model.Exam, error) {
	exam, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if exam.IsPublished {
		return exam, nil
	}

	count, err := s.QuestionRepo.CountByExam(id)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, errors.New("考试没有题目，无法发布")
	}

	now := time.Now()
	exam.IsPublished = true
	exam.PublishedAt = &now
	exam.UpdatedBy = updatedBy
	if err := s.ExamRepo.Update(exam); err != nil {
		return nil, err
	}
	return exam, nil
}

func (s *ExamService) Unpublish(id, updatedBy uint) (*model.Exam, error) {
	exam, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	exam.IsPublished = false
	exam.UpdatedBy = updatedBy
	if err := s.ExamRepo.Update(exam); err != nil {
		return nil, err
	}
	return exam, nil
}

func (s *ExamService) Delete(id, deletedBy uint) error {
	exam, err := s.Get(id)
	if err != nil {
		return err
	}
	if exam.IsPublished {
		return errors.New("已发布的考试不能删除，请先下线")
	}
	return s.ExamRepo.Delete(id, deletedBy)
}
