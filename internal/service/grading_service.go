package service

import (
	"context"
	"errors"
	"exam_admin_backend/internal/config"
	"exam_admin_backend/internal/model"
	"exam_admin_backend/internal/repository"
	"exam_admin_backend/internal/util"
	"exam_admin_backend/pkg/logger"
	"exam_admin_backend/pkg/monitoring"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GradingService 阅卷会话状态机：
// pending → {auto_graded | manual_pending} → completed，completed 不回退。
// 会话按 attempt 唯一，判分记录按 (session, question) 幂等覆盖，重跑不产生重复行；
// 会话行的写回与考次表一样走版本号条件更新。
type GradingService struct {
	Grading   *repository.GradingRepository
	Attempts  *repository.AttemptRepository
	Questions *repository.QuestionRepository
	Exams     *repository.ExamRepository
	Audit     *repository.AuditRepository
	AI        *AIService
	Policy    *Policy
	Cfg       *config.Config
	Redis     *redis.Client
}

func NewGradingService(
	grading *repository.GradingRepository,
	attempts *repository.AttemptRepository,
	questions *repository.QuestionRepository,
	exams *repository.ExamRepository,
	audit *repository.AuditRepository,
	ai *AIService,
	policy *Policy,
	cfg *config.Config,
	rdb *redis.Client,
) *GradingService {
	return &GradingService{
		Grading:   grading,
		Attempts:  attempts,
		Questions: questions,
		Exams:     exams,
		Audit:     audit,
		AI:        ai,
		Policy:    policy,
		Cfg:       cfg,
		Redis:     rdb,
	}
}

// Initiate 创建阅卷会话并立即对客观题机判。actor 为空表示系统侧效
// （交卷 / 强制收卷 / 超时过期自动触发）。
// 已存在会话时返回 Conflict；机判失败时会话停留在 pending，由兜底巡检重跑。
func (s *GradingService) Initiate(attemptID uint, actor *util.Claims) (*model.GradingSession, error) {
	var actorID uint
	if actor != nil {
		if !s.Policy.CanGrade(actor.Role) {
			return nil, util.ErrPermissionDenied
		}
		actorID = actor.UserID
	}

	attempt, err := s.Attempts.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}

	if !GradingEligible(attempt.Status) {
		return nil, util.ErrAttemptNotFinal
	}

	if _, err := s.Grading.FindSessionByAttemptID(attemptID); err == nil {
		return nil, util.ErrSessionExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	session := &model.GradingSession{
		AttemptID: attemptID,
		ExamID:    attempt.ExamID,
		Status:    model.GradingPending,
	}
	session.CreatedBy = actorID
	if err := s.Grading.CreateSession(session); err != nil {
		return nil, err
	}

	if err := s.autoGrade(session); err != nil {
		logger.Log.Warn("auto grading failed, session left pending",
			zap.Uint("sessionId", session.ID), zap.Error(err))
		return session, nil
	}
	return session, nil
}

// autoGrade 对客观题精确匹配判分并写入作答快照，主观题留待人工。
// 幂等：重复执行只覆盖既有判分行。
func (s *GradingService) autoGrade(session *model.GradingSession) error {
	questions, err := s.Questions.ListByExam(session.ExamID)
	if err != nil {
		return err
	}
	answers, err := s.Attempts.GetAnswers(session.AttemptID)
	if err != nil {
		return err
	}

	answerByQ := make(map[uint]*model.AttemptAnswer, len(answers))
	for i := range answers {
		answerByQ[answers[i].QuestionID] = &answers[i]
	}

	for i := range questions {
		q := &questions[i]
		if !q.Type.IsObjective() {
			continue
		}

		ga := &model.GradedAnswer{
			SessionID:  session.ID,
			QuestionID: q.ID,
		}
		if ans := answerByQ[q.ID]; ans != nil {
			ga.SelectedSnapshot = ans.Payload
			ga.AnswerTextSnapshot = ans.AnswerText
			result := AutoScore(q, ans.Payload)
			ga.Score = result.Score
			ga.IsCorrect = result.IsCorrect
		}
		if err := s.Grading.UpsertGradedAnswer(ga); err != nil {
			return err
		}
	}

	// 机判状态与部分总分一并写回：
	// 含主观题的会话进入 manual_pending，总分先反映已机判部分
	updated, err := s.transition(session.ID, func(cur *model.GradingSession) (map[string]interface{}, error) {
		status := StatusAfterAutoGrade(questions)
		if cur.Status == model.GradingCompleted {
			// 巡检重跑撞上已定稿的会话，状态不回退
			status = cur.Status
		}
		return s.settleUpdates(cur, status, 0)
	})
	if err != nil {
		return err
	}
	*session = *updated

	monitoring.GradingSessionsProcessed.WithLabelValues(string(session.Status)).Inc()
	return nil
}

// transition 会话行的乐观锁迁移循环，写法同考次表。
// mutate 基于当前行产出更新集，返回领域错误时立即终止。
func (s *GradingService) transition(sessionID uint, mutate func(cur *model.GradingSession) (map[string]interface{}, error)) (*model.GradingSession, error) {
	retries := s.Cfg.Exam.TransitionRetries
	for i := 0; i < retries; i++ {
		session, err := s.findSession(sessionID)
		if err != nil {
			return nil, err
		}
		updates, err := mutate(session)
		if err != nil {
			return nil, err
		}
		ok, err := s.Grading.CompareAndSwapSession(session.ID, session.Version, updates)
		if err != nil {
			return nil, err
		}
		if ok {
			return s.findSession(sessionID)
		}
	}
	return nil, util.ErrConcurrentConflict
}

// settleUpdates 以 status 为目标状态重算总分，产出会话行的更新集。
// 状态迁入 completed 时落定稿时间与定稿人。
func (s *GradingService) settleUpdates(cur *model.GradingSession, status model.GradingStatus, actorID uint) (map[string]interface{}, error) {
	graded, err := s.Grading.GetGradedAnswers(cur.ID)
	if err != nil {
		return nil, err
	}
	exam, err := s.Exams.FindByID(cur.ExamID)
	if err != nil {
		return nil, err
	}

	next := *cur
	next.Status = status
	SettleTotals(&next, graded, exam.PassingScore)

	updates := map[string]interface{}{
		"status":      next.Status,
		"total_score": next.TotalScore,
		"is_passed":   next.IsPassed,
	}
	if status == model.GradingCompleted && cur.Status != model.GradingCompleted {
		updates["graded_at"] = time.Now()
		if actorID != 0 {
			updates["graded_by"] = actorID
		}
	}
	return updates, nil
}

// ManualGradeInput 单题人工判分
type ManualGradeInput struct {
	QuestionID uint    `json:"questionId" binding:"required"`
	Score      float64 `json:"score"`
	Comment    string  `json:"comment"`
}

// SubmitManualGrade 人工判分。分数超出 [0, 题目满分] 拒绝；
// 已定稿的会话拒绝改分（改分走重判）；全部题目判完后会话完成并结算总分。
func (s *GradingService) SubmitManualGrade(sessionID uint, in ManualGradeInput, actor *util.Claims) (*model.GradingSession, error) {
	if !s.Policy.CanGrade(actor.Role) {
		return nil, util.ErrPermissionDenied
	}

	session, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}
	if !CanAcceptManualGrade(session.Status) {
		return nil, util.ErrSessionCompleted
	}

	if err := s.gradeOne(session, in, actor.UserID); err != nil {
		return nil, err
	}

	return s.settle(sessionID, actor.UserID)
}

func (s *GradingService) gradeOne(session *model.GradingSession, in ManualGradeInput, actorID uint) error {
	q, err := s.Questions.FindByID(in.QuestionID)
	if err != nil || q.ExamID != session.ExamID {
		return util.ErrQuestionNotFound
	}
	if !ValidScore(in.Score, q.Points) {
		return util.ErrScoreOutOfRange
	}

	ga := &model.GradedAnswer{
		SessionID:        session.ID,
		QuestionID:       in.QuestionID,
		Score:            in.Score,
		IsManuallyGraded: true,
		GraderComment:    in.Comment,
	}
	correct := in.Score >= q.Points
	ga.IsCorrect = &correct

	// 首次判分时落作答快照
	if _, err := s.Grading.FindGradedAnswer(session.ID, in.QuestionID); errors.Is(err, gorm.ErrRecordNotFound) {
		answers, err := s.Attempts.GetAnswers(session.AttemptID)
		if err != nil {
			return err
		}
		for i := range answers {
			if answers[i].QuestionID == in.QuestionID {
				ga.SelectedSnapshot = answers[i].Payload
				ga.AnswerTextSnapshot = answers[i].AnswerText
				break
			}
		}
	} else if err != nil {
		return err
	}

	return s.Grading.UpsertGradedAnswer(ga)
}

// settle 重算会话状态与总分并条件写回。已完成的会话不回退状态。
func (s *GradingService) settle(sessionID uint, actorID uint) (*model.GradingSession, error) {
	return s.transition(sessionID, func(cur *model.GradingSession) (map[string]interface{}, error) {
		status := cur.Status
		if status != model.GradingCompleted {
			questions, err := s.Questions.ListByExam(cur.ExamID)
			if err != nil {
				return nil, err
			}
			graded, err := s.Grading.GetGradedAnswers(cur.ID)
			if err != nil {
				return nil, err
			}
			gradedSet := make(map[uint]bool, len(graded))
			for _, g := range graded {
				gradedSet[g.QuestionID] = true
			}
			status = StatusAfterManualGrade(questions, gradedSet)
		}
		return s.settleUpdates(cur, status, actorID)
	})
}

// BulkGradeResult 批量判分的逐项结果，部分失败不中断整批
type BulkGradeResult struct {
	QuestionID uint   `json:"questionId"`
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
}

func (s *GradingService) BulkSubmitManualGrades(sessionID uint, items []ManualGradeInput, actor *util.Claims) ([]BulkGradeResult, *model.GradingSession, error) {
	if !s.Policy.CanGrade(actor.Role) {
		return nil, nil, util.ErrPermissionDenied
	}

	session, err := s.findSession(sessionID)
	if err != nil {
		return nil, nil, err
	}
	if !CanAcceptManualGrade(session.Status) {
		return nil, nil, util.ErrSessionCompleted
	}

	results := make([]BulkGradeResult, 0, len(items))
	for _, in := range items {
		r := BulkGradeResult{QuestionID: in.QuestionID, Success: true}
		if err := s.gradeOne(session, in, actor.UserID); err != nil {
			r.Success = false
			r.Message = err.Error()
		}
		results = append(results, r)
	}

	session, err = s.settle(sessionID, actor.UserID)
	if err != nil {
		return nil, nil, err
	}
	return results, session, nil
}

// CompleteGrading 显式定稿。仍有未判题目时返回 Incomplete。
func (s *GradingService) CompleteGrading(sessionID uint, actor *util.Claims) (*model.GradingSession, error) {
	if !s.Policy.CanGrade(actor.Role) {
		return nil, util.ErrPermissionDenied
	}

	return s.transition(sessionID, func(cur *model.GradingSession) (map[string]interface{}, error) {
		questions, err := s.Questions.ListByExam(cur.ExamID)
		if err != nil {
			return nil, err
		}
		graded, err := s.Grading.GetGradedAnswers(cur.ID)
		if err != nil {
			return nil, err
		}
		gradedSet := make(map[uint]bool, len(graded))
		for _, g := range graded {
			gradedSet[g.QuestionID] = true
		}
		if !AllGraded(questions, gradedSet) {
			return nil, util.ErrGradingIncomplete
		}
		return s.settleUpdates(cur, model.GradingCompleted, actor.UserID)
	})
}

// RegradeInput 重判请求
type RegradeInput struct {
	QuestionID uint    `json:"questionId" binding:"required"`
	NewScore   float64 `json:"newScore"`
	Comment    string  `json:"comment"`
	Reason     string  `json:"reason" binding:"required"`
}

// Regrade 重判：完成后仍可执行，旧分新分写入重判流水与审计，
// 状态不从 completed 回退。
func (s *GradingService) Regrade(sessionID uint, in RegradeInput, actor *util.Claims) (*model.GradingSession, error) {
	if !s.Policy.CanGrade(actor.Role) {
		return nil, util.ErrPermissionDenied
	}

	session, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}

	q, err := s.Questions.FindByID(in.QuestionID)
	if err != nil || q.ExamID != session.ExamID {
		return nil, util.ErrQuestionNotFound
	}
	if !ValidScore(in.NewScore, q.Points) {
		return nil, util.ErrScoreOutOfRange
	}

	existing, err := s.Grading.FindGradedAnswer(session.ID, in.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}

	if err := s.Grading.CreateRegradeLog(&model.RegradeLog{
		SessionID:  session.ID,
		QuestionID: in.QuestionID,
		OldScore:   existing.Score,
		NewScore:   in.NewScore,
		Reason:     in.Reason,
		ActorID:    actor.UserID,
	}); err != nil {
		return nil, err
	}

	existing.Score = in.NewScore
	existing.IsManuallyGraded = true
	if in.Comment != "" {
		existing.GraderComment = in.Comment
	}
	correct := in.NewScore >= q.Points
	existing.IsCorrect = &correct
	if err := s.Grading.UpsertGradedAnswer(existing); err != nil {
		return nil, err
	}

	// 只重算总分，状态保持原样（completed 不回退）
	session, err = s.transition(session.ID, func(cur *model.GradingSession) (map[string]interface{}, error) {
		return s.settleUpdates(cur, cur.Status, 0)
	})
	if err != nil {
		return nil, err
	}

	attempt, err := s.Attempts.FindByID(session.AttemptID)
	if err == nil {
		attemptID := attempt.ID
		if err := s.Audit.Create(&model.AdminOperationLog{
			ActionType:   model.ActionRegrade,
			ActorID:      actor.UserID,
			CandidateID:  attempt.CandidateID,
			ExamID:       session.ExamID,
			AttemptID:    &attemptID,
			StatusBefore: string(session.Status),
			StatusAfter:  string(session.Status),
			Reason:       in.Reason,
		}); err != nil {
			logger.Log.Error("audit write failed", zap.String("action", "regrade"), zap.Error(err))
		}
	}

	return session, nil
}

// ProcessPendingSessions 兜底巡检：重跑同步机判失败的会话。
// redis SETNX 单飞，判分行按 (session, question) 幂等。
func (s *GradingService) ProcessPendingSessions() error {
	if s.Redis != nil {
		interval := time.Duration(s.Cfg.Exam.SweepIntervalSeconds) * time.Second
		ok, err := s.Redis.SetNX(context.Background(), "sweep:grading_pending", time.Now().Unix(), interval).Result()
		if err != nil {
			logger.Log.Warn("sweep lock unavailable, proceeding without it", zap.Error(err))
		} else if !ok {
			return nil
		}
	}

	start := time.Now()
	defer func() {
		monitoring.SweepDuration.WithLabelValues("grading_pending").Observe(time.Since(start).Seconds())
	}()

	sessions, err := s.Grading.ListPendingSessions(100)
	if err != nil {
		return err
	}

	for i := range sessions {
		if err := s.autoGrade(&sessions[i]); err != nil {
			logger.Log.Error("pending session auto grade failed",
				zap.Uint("sessionId", sessions[i].ID), zap.Error(err))
		}
	}
	return nil
}

// SessionDetail 阅卷端会话明细
type SessionDetail struct {
	Session     *model.GradingSession `json:"session"`
	Answers     []model.GradedAnswer  `json:"answers"`
	RegradeLogs []model.RegradeLog    `json:"regradeLogs"`
}

func (s *GradingService) GetSessionDetail(sessionID uint, actor *util.Claims) (*SessionDetail, error) {
	if !s.Policy.CanGrade(actor.Role) {
		return nil, util.ErrPermissionDenied
	}
	session, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}
	answers, err := s.Grading.GetGradedAnswers(sessionID)
	if err != nil {
		return nil, err
	}
	logs, err := s.Grading.ListRegradeLogs(sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionDetail{Session: session, Answers: answers, RegradeLogs: logs}, nil
}

func (s *GradingService) ListSessions(examID uint, status model.GradingStatus, page, limit int, actor *util.Claims) ([]model.GradingSession, int64, error) {
	if !s.Policy.CanGrade(actor.Role) {
		return nil, 0, util.ErrPermissionDenied
	}
	return s.Grading.ListSessions(examID, status, page, limit)
}

// GetResultForCandidate 考生查询本人成绩。阅卷未定稿时总分只是
// 已判部分的累计，是否及格要等会话完成后才有值
func (s *GradingService) GetResultForCandidate(attemptID, candidateID uint) (*model.GradingSession, error) {
	attempt, err := s.Attempts.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.CandidateID != candidateID {
		return nil, util.ErrPermissionDenied
	}
	session, err := s.Grading.FindSessionByAttemptID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// SuggestGrade AI 辅助判分建议，仅供阅卷人参考，永不自动落分
func (s *GradingService) SuggestGrade(sessionID, questionID uint, actor *util.Claims) (*GradeSuggestion, error) {
	if !s.Policy.CanGrade(actor.Role) {
		return nil, util.ErrPermissionDenied
	}
	session, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}
	q, err := s.Questions.FindByID(questionID)
	if err != nil || q.ExamID != session.ExamID {
		return nil, util.ErrQuestionNotFound
	}

	answerText := ""
	answers, err := s.Attempts.GetAnswers(session.AttemptID)
	if err != nil {
		return nil, err
	}
	for _, a := range answers {
		if a.QuestionID == questionID {
			answerText = a.AnswerText
			break
		}
	}

	return s.AI.SuggestGrade(q, answerText)
}

func (s *GradingService) findSession(sessionID uint) (*model.GradingSession, error) {
	session, err := s.Grading.FindSessionByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}
