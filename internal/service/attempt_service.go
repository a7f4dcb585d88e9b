package service

import (
	"context"
	"encoding/json"
	"errors"
	"exam_admin_backend/internal/config"
	"exam_admin_backend/internal/model"
	"exam_admin_backend/internal/repository"
	"exam_admin_backend/internal/util"
	"exam_admin_backend/pkg/logger"
	"exam_admin_backend/pkg/monitoring"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AttemptService 考试作答会话的状态机。
// 所有状态迁移都经过 transition：重读当前行、核对迁移表、带版本号条件更新，
// 版本不匹配时重读重试，保证单行串行化。
type AttemptService struct {
	Attempts    *repository.AttemptRepository
	Assignments *repository.AssignmentRepository
	Exams       *repository.ExamRepository
	Questions   *repository.QuestionRepository
	Audit       *repository.AuditRepository
	Grading     *GradingService
	Policy      *Policy
	Cfg         *config.Config
	Redis       *redis.Client
}

func NewAttemptService(
	attempts *repository.AttemptRepository,
	assignments *repository.AssignmentRepository,
	exams *repository.ExamRepository,
	questions *repository.QuestionRepository,
	audit *repository.AuditRepository,
	grading *GradingService,
	policy *Policy,
	cfg *config.Config,
	rdb *redis.Client,
) *AttemptService {
	return &AttemptService{
		Attempts:    attempts,
		Assignments: assignments,
		Exams:       exams,
		Questions:   questions,
		Audit:       audit,
		Grading:     grading,
		Policy:      policy,
		Cfg:         cfg,
		Redis:       rdb,
	}
}

// AttemptSummary 面向考生与监考端的会话视图
type AttemptSummary struct {
	ID               uint                `json:"id"`
	CandidateID      uint                `json:"candidateId"`
	ExamID           uint                `json:"examId"`
	Status           model.AttemptStatus `json:"status"`
	StartedAt        *time.Time          `json:"startedAt,omitempty"`
	LastActivityAt   *time.Time          `json:"lastActivityAt,omitempty"`
	SubmittedAt      *time.Time          `json:"submittedAt,omitempty"`
	RemainingSeconds int64               `json:"remainingSeconds"`
	ExtraTimeSeconds int64               `json:"extraTimeSeconds"`
	ResumeCount      int                 `json:"resumeCount"`
	TotalQuestions   int64               `json:"totalQuestions"`
	Answered         int                 `json:"answered"`
}

func (s *AttemptService) buildSummary(a *model.ExamAttempt, now time.Time) (*AttemptSummary, error) {
	total, err := s.Questions.CountByExam(a.ExamID)
	if err != nil {
		return nil, err
	}
	answers, err := s.Attempts.GetAnswers(a.ID)
	if err != nil {
		return nil, err
	}
	answered := 0
	for _, ans := range answers {
		if len(ans.Payload) > 0 || ans.AnswerText != "" {
			answered++
		}
	}
	return &AttemptSummary{
		ID:               a.ID,
		CandidateID:      a.CandidateID,
		ExamID:           a.ExamID,
		Status:           a.Status,
		StartedAt:        a.StartedAt,
		LastActivityAt:   a.LastActivityAt,
		SubmittedAt:      a.SubmittedAt,
		RemainingSeconds: RemainingSeconds(a, now),
		ExtraTimeSeconds: a.ExtraTimeSeconds,
		ResumeCount:      a.ResumeCount,
		TotalQuestions:   total,
		Answered:         answered,
	}, nil
}

// Start 开考。无生效排考窗口、准考码错误、次数用尽且无豁免时拒绝；
// 已有非终态会话时直接返回该会话而不是新建。
func (s *AttemptService) Start(candidateID, examID uint, accessCode string) (*AttemptSummary, error) {
	exam, err := s.Exams.FindByID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}
	if !exam.IsPublished {
		return nil, util.ErrExamNotPublished
	}
	if exam.AccessCode != "" && accessCode != exam.AccessCode {
		return nil, util.ErrWrongAccessCode
	}

	now := time.Now()
	if _, err := s.Assignments.FindCovering(candidateID, examID, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNoActiveWindow
		}
		return nil, err
	}

	if existing, err := s.Attempts.FindActive(candidateID, examID); err == nil {
		return s.buildSummary(existing, now)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	used, err := s.Attempts.CountUsed(candidateID, examID)
	if err != nil {
		return nil, err
	}

	var override *model.AttemptOverride
	if used >= int64(exam.MaxAttempts) {
		override, err = s.Assignments.FindUnconsumedOverride(candidateID, examID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrAttemptsExhausted
			}
			return nil, err
		}
	}

	attempt := &model.ExamAttempt{
		CandidateID:         candidateID,
		ExamID:              examID,
		Status:              model.AttemptInProgress,
		StartedAt:           &now,
		LastActivityAt:      &now,
		LastResumedAt:       &now,
		BaseDurationSeconds: exam.BaseDurationSeconds,
	}
	if err := s.Attempts.Create(attempt); err != nil {
		return nil, err
	}

	if override != nil {
		ok, err := s.Assignments.ConsumeOverride(override.ID, attempt.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			// 豁免被并发消费，回收这次开考
			_, _ = s.Attempts.CompareAndSwap(attempt.ID, attempt.Version, map[string]interface{}{
				"status": model.AttemptCancelled,
			})
			return nil, util.ErrAttemptsExhausted
		}
	}

	return s.buildSummary(attempt, now)
}

// transition 乐观锁迁移循环。mutate 基于当前行产出更新集，
// 返回领域错误时立即终止。
func (s *AttemptService) transition(attemptID uint, mutate func(a *model.ExamAttempt) (map[string]interface{}, error)) (*model.ExamAttempt, error) {
	retries := s.Cfg.Exam.TransitionRetries
	for i := 0; i < retries; i++ {
		a, err := s.Attempts.FindByID(attemptID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrAttemptNotFound
			}
			return nil, err
		}

		updates, err := mutate(a)
		if err != nil {
			return nil, err
		}

		ok, err := s.Attempts.CompareAndSwap(a.ID, a.Version, updates)
		if err != nil {
			return nil, err
		}
		if ok {
			return s.Attempts.FindByID(attemptID)
		}
	}
	return nil, util.ErrConcurrentConflict
}

func (s *AttemptService) requireOwner(a *model.ExamAttempt, candidateID uint) error {
	if a.CandidateID != candidateID {
		return util.ErrPermissionDenied
	}
	return nil
}

// Heartbeat 更新活跃时间，不改变状态。返回剩余秒数供前端倒计时校准。
func (s *AttemptService) Heartbeat(attemptID, candidateID uint) (int64, error) {
	a, err := s.Attempts.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, util.ErrAttemptNotFound
		}
		return 0, err
	}
	if err := s.requireOwner(a, candidateID); err != nil {
		return 0, err
	}
	if a.Status.IsTerminal() {
		return 0, util.ErrAttemptTerminal
	}

	now := time.Now()
	if err := s.Attempts.TouchActivity(a.ID, now); err != nil {
		return 0, err
	}

	if s.Redis != nil {
		key := fmt.Sprintf("attempt:online:%d", a.ID)
		grace := time.Duration(s.Cfg.Exam.ActivityGraceSeconds) * time.Second
		s.Redis.Set(context.Background(), key, now.Unix(), grace)
	}

	return RemainingSeconds(a, now), nil
}

// SaveAnswer 作答写入，按题幂等覆盖。计时耗尽时顺手过期并拒绝写入。
func (s *AttemptService) SaveAnswer(attemptID, candidateID, questionID uint, payload json.RawMessage, answerText string, isFlagged bool) error {
	a, err := s.Attempts.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrAttemptNotFound
		}
		return err
	}
	if err := s.requireOwner(a, candidateID); err != nil {
		return err
	}
	if a.Status != model.AttemptInProgress {
		return util.ErrIllegalTransition
	}

	now := time.Now()
	if RemainingSeconds(a, now) <= 0 {
		_, _ = s.expireOne(a.ID)
		return util.ErrAttemptTerminal
	}

	q, err := s.Questions.FindByID(questionID)
	if err != nil || q.ExamID != a.ExamID {
		return util.ErrQuestionNotFound
	}

	if err := s.Attempts.UpsertAnswer(&model.AttemptAnswer{
		AttemptID:  attemptID,
		QuestionID: questionID,
		Payload:    payload,
		AnswerText: answerText,
		IsFlagged:  isFlagged,
	}); err != nil {
		return err
	}

	return s.Attempts.TouchActivity(a.ID, now)
}

// Pause 暂停计时：把进行中的区间结算进 ConsumedSeconds
func (s *AttemptService) Pause(attemptID, candidateID uint) (*AttemptSummary, error) {
	now := time.Now()
	a, err := s.transition(attemptID, func(a *model.ExamAttempt) (map[string]interface{}, error) {
		if err := s.requireOwner(a, candidateID); err != nil {
			return nil, err
		}
		if !CanTransition(a.Status, model.AttemptPaused) {
			if a.Status.IsTerminal() {
				return nil, util.ErrAttemptTerminal
			}
			return nil, util.ErrIllegalTransition
		}
		return map[string]interface{}{
			"status":           model.AttemptPaused,
			"consumed_seconds": ConsumedSecondsAt(a, now),
			"last_resumed_at":  nil,
			"last_activity_at": now,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.buildSummary(a, now)
}

// Resume 恢复作答，仅暂停态合法。剩余时间已耗尽时直接过期。
// candidateID 为 0 表示管理员代操作（已通过 Policy 校验）。
func (s *AttemptService) Resume(attemptID, candidateID uint) (*AttemptSummary, error) {
	now := time.Now()
	a, err := s.transition(attemptID, func(a *model.ExamAttempt) (map[string]interface{}, error) {
		if candidateID != 0 {
			if err := s.requireOwner(a, candidateID); err != nil {
				return nil, err
			}
		}
		if a.Status != model.AttemptPaused {
			if a.Status.IsTerminal() {
				return nil, util.ErrAttemptTerminal
			}
			return nil, util.ErrIllegalTransition
		}
		if RemainingSeconds(a, now) <= 0 {
			return map[string]interface{}{
				"status": model.AttemptExpired,
			}, nil
		}
		return map[string]interface{}{
			"status":           model.AttemptInProgress,
			"last_resumed_at":  now,
			"last_activity_at": now,
			"resume_count":     a.ResumeCount + 1,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	if a.Status == model.AttemptExpired {
		s.initiateGrading(a.ID)
		return nil, util.ErrAttemptTerminal
	}
	return s.buildSummary(a, now)
}

// AdminResume 管理员恢复某考生的暂停会话，记审计流水
func (s *AttemptService) AdminResume(attemptID uint, actor *util.Claims, reason string) (*AttemptSummary, error) {
	if !s.Policy.CanManageAttempts(actor.Role) {
		return nil, util.ErrPermissionDenied
	}
	before, err := s.Attempts.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}

	summary, err := s.Resume(attemptID, 0)
	if err != nil {
		return nil, err
	}

	s.audit(model.ActionResume, actor.UserID, before, string(summary.Status), reason)
	return summary, nil
}

// Submit 交卷：冻结已消耗时长并触发阅卷
func (s *AttemptService) Submit(attemptID, candidateID uint) (*AttemptSummary, error) {
	now := time.Now()
	a, err := s.transition(attemptID, func(a *model.ExamAttempt) (map[string]interface{}, error) {
		if err := s.requireOwner(a, candidateID); err != nil {
			return nil, err
		}
		if !CanTransition(a.Status, model.AttemptSubmitted) {
			if a.Status.IsTerminal() {
				return nil, util.ErrAttemptTerminal
			}
			return nil, util.ErrIllegalTransition
		}
		return map[string]interface{}{
			"status":           model.AttemptSubmitted,
			"consumed_seconds": ConsumedSecondsAt(a, now),
			"last_resumed_at":  nil,
			"submitted_at":     now,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.initiateGrading(a.ID)
	return s.buildSummary(a, now)
}

// ForceEnd 管理员强制收卷，走与交卷相同的阅卷侧效
func (s *AttemptService) ForceEnd(attemptID uint, actor *util.Claims, reason string) (*AttemptSummary, error) {
	if !s.Policy.CanManageAttempts(actor.Role) {
		return nil, util.ErrPermissionDenied
	}

	now := time.Now()
	var before model.AttemptStatus
	a, err := s.transition(attemptID, func(a *model.ExamAttempt) (map[string]interface{}, error) {
		before = a.Status
		if !CanTransition(a.Status, model.AttemptForceSubmitted) {
			if a.Status.IsTerminal() {
				return nil, util.ErrAttemptTerminal
			}
			return nil, util.ErrIllegalTransition
		}
		return map[string]interface{}{
			"status":           model.AttemptForceSubmitted,
			"consumed_seconds": ConsumedSecondsAt(a, now),
			"last_resumed_at":  nil,
			"submitted_at":     now,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.auditWithStatus(model.ActionForceEnd, actor.UserID, a, string(before), string(a.Status), reason)
	s.initiateGrading(a.ID)
	return s.buildSummary(a, now)
}

// AddTime 加时。单条 SQL 自增保证并发加时都生效；不改变状态。
func (s *AttemptService) AddTime(attemptID uint, actor *util.Claims, extraMinutes int, reason string) (int64, error) {
	if !s.Policy.CanManageAttempts(actor.Role) {
		return 0, util.ErrPermissionDenied
	}
	ok, err := s.Attempts.AddExtraTime(attemptID, int64(extraMinutes)*60)
	if err != nil {
		return 0, err
	}
	if !ok {
		if _, err := s.Attempts.FindByID(attemptID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, util.ErrAttemptNotFound
			}
			return 0, err
		}
		return 0, util.ErrAttemptTerminal
	}

	a, err := s.Attempts.FindByID(attemptID)
	if err != nil {
		return 0, err
	}

	s.audit(model.ActionAddTime, actor.UserID, a, string(a.Status), reason)
	return RemainingSeconds(a, time.Now()), nil
}

// Cancel 作废会话，不触发阅卷，不占用考试次数
func (s *AttemptService) Cancel(attemptID uint, actor *util.Claims, reason string) error {
	if !s.Policy.CanManageAttempts(actor.Role) {
		return util.ErrPermissionDenied
	}

	var before model.AttemptStatus
	a, err := s.transition(attemptID, func(a *model.ExamAttempt) (map[string]interface{}, error) {
		before = a.Status
		if a.Status.IsTerminal() {
			return nil, util.ErrAttemptTerminal
		}
		return map[string]interface{}{
			"status": model.AttemptCancelled,
		}, nil
	})
	if err != nil {
		return err
	}

	s.auditWithStatus(model.ActionCancel, actor.UserID, a, string(before), string(a.Status), reason)
	return nil
}

// expireOne 单条过期迁移，版本不匹配时放弃（由下一轮巡检或竞争方处理）。
// 过期同样触发阅卷：考生已作答的部分照常判分。
func (s *AttemptService) expireOne(attemptID uint) (bool, error) {
	a, err := s.Attempts.FindByID(attemptID)
	if err != nil {
		return false, err
	}
	if a.Status.IsTerminal() {
		return false, nil
	}
	now := time.Now()
	if RemainingSeconds(a, now) > 0 && !IsStale(a, now, time.Duration(s.Cfg.Exam.ActivityGraceSeconds)*time.Second) {
		return false, nil
	}
	ok, err := s.Attempts.CompareAndSwap(a.ID, a.Version, map[string]interface{}{
		"status":           model.AttemptExpired,
		"consumed_seconds": ConsumedSecondsAt(a, now),
		"last_resumed_at":  nil,
	})
	if ok {
		s.initiateGrading(a.ID)
	}
	return ok, err
}

// ExpireOverdue 过期巡检。redis SETNX 保证同一周期单飞；
// 已终态的记录天然跳过，重复执行幂等。
func (s *AttemptService) ExpireOverdue() error {
	if s.Redis != nil {
		interval := time.Duration(s.Cfg.Exam.SweepIntervalSeconds) * time.Second
		ok, err := s.Redis.SetNX(context.Background(), "sweep:attempt_expire", time.Now().Unix(), interval).Result()
		if err != nil {
			logger.Log.Warn("sweep lock unavailable, proceeding without it", zap.Error(err))
		} else if !ok {
			return nil
		}
	}

	start := time.Now()
	defer func() {
		monitoring.SweepDuration.WithLabelValues("attempt_expire").Observe(time.Since(start).Seconds())
	}()

	attempts, err := s.Attempts.ListNonTerminal()
	if err != nil {
		return err
	}

	grace := time.Duration(s.Cfg.Exam.ActivityGraceSeconds) * time.Second
	now := time.Now()
	expired := 0
	for i := range attempts {
		a := &attempts[i]
		if !ShouldExpire(a, now, grace) {
			continue
		}
		ok, err := s.expireOne(a.ID)
		if err != nil {
			logger.Log.Error("expire attempt failed", zap.Uint("attemptId", a.ID), zap.Error(err))
			continue
		}
		if ok {
			expired++
			monitoring.AttemptsExpired.Inc()
		}
	}

	if expired > 0 {
		logger.Log.Info("expiry sweep finished", zap.Int("expired", expired), zap.Int("scanned", len(attempts)))
	}
	return nil
}

// GetSummary 考生看自己的会话，监考角色看任意会话
func (s *AttemptService) GetSummary(attemptID uint, actor *util.Claims) (*AttemptSummary, error) {
	a, err := s.Attempts.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if a.CandidateID != actor.UserID && !s.Policy.CanGrade(actor.Role) {
		return nil, util.ErrPermissionDenied
	}
	return s.buildSummary(a, time.Now())
}

// AttemptDetail 监考端明细：会话 + 作答记录
type AttemptDetail struct {
	Summary *AttemptSummary       `json:"summary"`
	Answers []model.AttemptAnswer `json:"answers"`
}

func (s *AttemptService) GetDetail(attemptID uint, actor *util.Claims) (*AttemptDetail, error) {
	summary, err := s.GetSummary(attemptID, actor)
	if err != nil {
		return nil, err
	}
	answers, err := s.Attempts.GetAnswers(attemptID)
	if err != nil {
		return nil, err
	}
	return &AttemptDetail{Summary: summary, Answers: answers}, nil
}

// ListAttempts 监考列表
func (s *AttemptService) ListAttempts(f repository.AttemptFilters, actor *util.Claims) ([]AttemptSummary, int64, error) {
	if !s.Policy.CanGrade(actor.Role) {
		return nil, 0, util.ErrPermissionDenied
	}
	attempts, total, err := s.Attempts.List(f)
	if err != nil {
		return nil, 0, err
	}
	now := time.Now()
	summaries := make([]AttemptSummary, 0, len(attempts))
	for i := range attempts {
		sum, err := s.buildSummary(&attempts[i], now)
		if err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, *sum)
	}
	return summaries, total, nil
}

func (s *AttemptService) initiateGrading(attemptID uint) {
	if s.Grading == nil {
		return
	}
	if _, err := s.Grading.Initiate(attemptID, nil); err != nil && !errors.Is(err, util.ErrSessionExists) {
		// 同步阅卷失败留给 ProcessPendingSessions 兜底
		logger.Log.Warn("grading initiation failed", zap.Uint("attemptId", attemptID), zap.Error(err))
	}
}

func (s *AttemptService) audit(action model.AdminActionType, actorID uint, a *model.ExamAttempt, statusAfter, reason string) {
	s.auditWithStatus(action, actorID, a, string(a.Status), statusAfter, reason)
}

func (s *AttemptService) auditWithStatus(action model.AdminActionType, actorID uint, a *model.ExamAttempt, before, after, reason string) {
	attemptID := a.ID
	entry := &model.AdminOperationLog{
		ActionType:   action,
		ActorID:      actorID,
		CandidateID:  a.CandidateID,
		ExamID:       a.ExamID,
		AttemptID:    &attemptID,
		StatusBefore: before,
		StatusAfter:  after,
		Reason:       reason,
	}
	if err := s.Audit.Create(entry); err != nil {
		logger.Log.Error("audit write failed", zap.String("action", string(action)), zap.Error(err))
	}
}
