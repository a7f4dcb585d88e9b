package service

import (
	"encoding/json"
	"errors"
	"exam_admin_backend/internal/model"
	"exam_admin_backend/internal/repository"
	"exam_admin_backend/internal/util"

	"gorm.io/gorm"
)

type QuestionService struct {
	QuestionRepo *repository.QuestionRepository
	ExamRepo     *repository.ExamRepository
}

func NewQuestionService(questionRepo *repository.QuestionRepository, examRepo *repository.ExamRepository) *QuestionService {
	return &QuestionService{QuestionRepo: questionRepo, ExamRepo: examRepo}
}

type QuestionInput struct {
	Type        model.QuestionType `json:"type" binding:"required"`
	Content     string             `json:"content" binding:"required"`
	Options     json.RawMessage    `json:"options"`
	CorrectKeys json.RawMessage    `json:"correctKeys"`
	Points      float64            `json:"points" binding:"required,gt=0"`
	Seq         int                `json:"seq"`
	Explanation string             `json:"explanation"`
}

func (s *QuestionService) validate(in QuestionInput) error {
	if in.Type.IsObjective() && len(in.CorrectKeys) == 0 {
		return errors.New("客观题必须配置正确答案")
	}
	if (in.Type == model.SingleChoice || in.Type == model.MultiChoice) && len(in.Options) == 0 {
		return errors.New("选择题必须配置选项")
	}
	return nil
}

func (s *QuestionService) Create(examID uint, in QuestionInput, createdBy uint) (*model.Question, error) {
	if _, err := s.ExamRepo.FindByID(examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}
	if err := s.validate(in); err != nil {
		return nil, err
	}

	q := &model.Question{
		ExamID:      examID,
		Type:        in.Type,
		Content:     in.Content,
		Options:     in.Options,
		CorrectKeys: in.CorrectKeys,
		Points:      in.Points,
		Seq:         in.Seq,
		Explanation: in.Explanation,
	}
	q.CreatedBy = createdBy
	if err := s.QuestionRepo.Create(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) Get(id uint) (*model.Question, error) {
	q, err := s.QuestionRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

// ListForAdmin 管理端列表，含答案与解析
func (s *QuestionService) ListForAdmin(examID uint) ([]model.Question, error) {
	return s.QuestionRepo.ListByExam(examID)
}

// CandidateQuestion 考生视图，剥离答案与解析
type CandidateQuestion struct {
	ID      uint               `json:"id"`
	Type    model.QuestionType `json:"type"`
	Content string             `json:"content"`
	Options json.RawMessage    `json:"options,omitempty"`
	Points  float64            `json:"points"`
	Seq     int                `json:"seq"`
}

// ListForCandidate 考生取卷：永不下发 CorrectKeys 与 Explanation
func (s *QuestionService) ListForCandidate(examID uint) ([]CandidateQuestion, error) {
	questions, err := s.QuestionRepo.ListByExam(examID)
	if err != nil {
		return nil, err
	}
	out := make([]CandidateQuestion, 0, len(questions))
	for _, q := range questions {
		out = append(out, CandidateQuestion{
			ID:      q.ID,
			Type:    q.Type,
			Content: q.Content,
			Options: q.Options,
			Points:  q.Points,
			Seq:     q.Seq,
		})
	}
	return out, nil
}

func (s *QuestionService) Update(id uint, in QuestionInput, updatedBy uint) (*model.Question, error) {
	q, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(in); err != nil {
		return nil, err
	}

	q.Type = in.Type
	q.Content = in.Content
	q.Options = in.Options
	q.CorrectKeys = in.CorrectKeys
	q.Points = in.Points
	q.Seq = in.Seq
	q.Explanation = in.Explanation
	q.UpdatedBy = updatedBy

	if err := s.QuestionRepo.Update(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) Delete(id, deletedBy uint) error {
	q, err := s.Get(id)
	if err != nil {
		return err
	}
	exam, err := s.ExamRepo.FindByID(q.ExamID)
	if err == nil && exam.IsPublished {
		return errors.New("已发布考试的题目不能删除")
	}
	return s.QuestionRepo.Delete(id, deletedBy)
}
