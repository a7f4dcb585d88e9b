package service

import (
	"errors"
	"exam_admin_backend/internal/model"
	"exam_admin_backend/internal/repository"
	"exam_admin_backend/internal/util"
	"exam_admin_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AssignmentService 排考与豁免管理。
// 同一考生同一考试的生效窗口不允许重叠，新窗口创建前先做重叠校验。
type AssignmentService struct {
	Assignments *repository.AssignmentRepository
	Attempts    *repository.AttemptRepository
	Users       *repository.UserRepository
	Exams       *repository.ExamRepository
	Audit       *repository.AuditRepository
	Policy      *Policy
}

func NewAssignmentService(
	assignments *repository.AssignmentRepository,
	attempts *repository.AttemptRepository,
	users *repository.UserRepository,
	exams *repository.ExamRepository,
	audit *repository.AuditRepository,
	policy *Policy,
) *AssignmentService {
	return &AssignmentService{
		Assignments: assignments,
		Attempts:    attempts,
		Users:       users,
		Exams:       exams,
		Audit:       audit,
		Policy:      policy,
	}
}

type AssignInput struct {
	CandidateID  uint      `json:"candidateId" binding:"required"`
	ExamID       uint      `json:"examId" binding:"required"`
	ScheduleFrom time.Time `json:"scheduleFrom" binding:"required"`
	ScheduleTo   time.Time `json:"scheduleTo" binding:"required"`
}

// Assign 创建排考窗口
func (s *AssignmentService) Assign(in AssignInput, actor *util.Claims) (*model.ExamAssignment, error) {
	if !s.Policy.CanAssign(actor.Role) {
		return nil, util.ErrPermissionDenied
	}
	if !in.ScheduleTo.After(in.ScheduleFrom) {
		return nil, errors.New("窗口结束时间必须晚于开始时间")
	}

	candidate, err := s.Users.FindByID(in.CandidateID)
	if err != nil || candidate.Role != model.Candidate {
		return nil, util.ErrUserNotFound
	}
	if _, err := s.Exams.FindByID(in.ExamID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}

	overlap, err := s.Assignments.HasOverlapping(in.CandidateID, in.ExamID, in.ScheduleFrom, in.ScheduleTo)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, util.ErrAssignmentOverlap
	}

	assignment := &model.ExamAssignment{
		CandidateID:  in.CandidateID,
		ExamID:       in.ExamID,
		ScheduleFrom: in.ScheduleFrom,
		ScheduleTo:   in.ScheduleTo,
		IsActive:     true,
		AssignedBy:   actor.UserID,
	}
	assignment.CreatedBy = actor.UserID
	if err := s.Assignments.Create(assignment); err != nil {
		return nil, err
	}

	s.audit(model.ActionAssign, actor.UserID, in.CandidateID, in.ExamID, nil, "")
	return assignment, nil
}

// Unassign 撤销排考窗口。考生已在该考试留有考次时拒绝撤销。
func (s *AssignmentService) Unassign(assignmentID uint, reason string, actor *util.Claims) error {
	if !s.Policy.CanAssign(actor.Role) {
		return util.ErrPermissionDenied
	}

	assignment, err := s.Assignments.FindByID(assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrAssignmentNotFound
		}
		return err
	}
	if !assignment.IsActive {
		return util.ErrAssignmentNotFound
	}

	used, err := s.Attempts.CountUsed(assignment.CandidateID, assignment.ExamID)
	if err != nil {
		return err
	}
	active, err := s.Attempts.FindActive(assignment.CandidateID, assignment.ExamID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if used > 0 || active != nil {
		return util.ErrAttemptStarted
	}

	if err := s.Assignments.Deactivate(assignmentID, actor.UserID); err != nil {
		return err
	}

	s.audit(model.ActionUnassign, actor.UserID, assignment.CandidateID, assignment.ExamID, nil, reason)
	return nil
}

// AllowNewAttempt 发放一次豁免：次数用尽的考生可再考一次
func (s *AssignmentService) AllowNewAttempt(candidateID, examID uint, reason string, actor *util.Claims) (*model.AttemptOverride, error) {
	if !s.Policy.CanAssign(actor.Role) {
		return nil, util.ErrPermissionDenied
	}
	if reason == "" {
		return nil, errors.New("豁免必须填写原因")
	}

	candidate, err := s.Users.FindByID(candidateID)
	if err != nil || candidate.Role != model.Candidate {
		return nil, util.ErrUserNotFound
	}
	if _, err := s.Exams.FindByID(examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}

	override := &model.AttemptOverride{
		CandidateID: candidateID,
		ExamID:      examID,
		GrantedBy:   actor.UserID,
		Reason:      reason,
	}
	override.CreatedBy = actor.UserID
	if err := s.Assignments.CreateOverride(override); err != nil {
		return nil, err
	}

	s.audit(model.ActionAllowNewAttempt, actor.UserID, candidateID, examID, nil, reason)
	return override, nil
}

func (s *AssignmentService) ListByCandidate(candidateID uint) ([]model.ExamAssignment, error) {
	return s.Assignments.ListByCandidate(candidateID)
}

func (s *AssignmentService) ListByExam(examID uint, page, limit int) ([]model.ExamAssignment, int64, error) {
	return s.Assignments.ListByExam(examID, page, limit)
}

// Eligibility 考生对一场考试的可考资格
type Eligibility struct {
	Eligible     bool       `json:"eligible"`
	Reason       string     `json:"reason,omitempty"`
	WindowFrom   *time.Time `json:"windowFrom,omitempty"`
	WindowTo     *time.Time `json:"windowTo,omitempty"`
	AttemptsUsed int64      `json:"attemptsUsed"`
	MaxAttempts  int        `json:"maxAttempts"`
	HasOverride  bool       `json:"hasOverride"`
}

// CheckEligibility 取卷前的资格预检，与 Start 的校验口径一致
func (s *AssignmentService) CheckEligibility(candidateID, examID uint) (*Eligibility, error) {
	exam, err := s.Exams.FindByID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}

	out := &Eligibility{MaxAttempts: exam.MaxAttempts}

	if !exam.IsPublished {
		out.Reason = "exam not published"
		return out, nil
	}

	assignment, err := s.Assignments.FindCovering(candidateID, examID, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			out.Reason = "no active assignment window"
			return out, nil
		}
		return nil, err
	}
	out.WindowFrom = &assignment.ScheduleFrom
	out.WindowTo = &assignment.ScheduleTo

	used, err := s.Attempts.CountUsed(candidateID, examID)
	if err != nil {
		return nil, err
	}
	out.AttemptsUsed = used

	if used >= int64(exam.MaxAttempts) {
		if _, err := s.Assignments.FindUnconsumedOverride(candidateID, examID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				out.Reason = "max attempts exhausted"
				return out, nil
			}
			return nil, err
		}
		out.HasOverride = true
	}

	out.Eligible = true
	return out, nil
}

func (s *AssignmentService) audit(action model.AdminActionType, actorID, candidateID, examID uint, attemptID *uint, reason string) {
	if err := s.Audit.Create(&model.AdminOperationLog{
		ActionType:  action,
		ActorID:     actorID,
		CandidateID: candidateID,
		ExamID:      examID,
		AttemptID:   attemptID,
		Reason:      reason,
	}); err != nil {
		logger.Log.Error("audit write failed", zap.String("action", string(action)), zap.Error(err))
	}
}
