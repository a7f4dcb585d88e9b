package model

import (
	"encoding/json"
	"time"
)

type AttemptStatus string

const (
	AttemptNotStarted     AttemptStatus = "not_started"
	AttemptInProgress     AttemptStatus = "in_progress"
	AttemptPaused         AttemptStatus = "paused"
	AttemptSubmitted      AttemptStatus = "submitted"
	AttemptExpired        AttemptStatus = "expired"
	AttemptCancelled      AttemptStatus = "cancelled"
	AttemptForceSubmitted AttemptStatus = "force_submitted"
)

// IsTerminal 终态不再接受任何变更
func (s AttemptStatus) IsTerminal() bool {
	switch s {
	case AttemptSubmitted, AttemptExpired, AttemptCancelled, AttemptForceSubmitted:
		return true
	}
	return false
}

// ExamAttempt 一次考试作答会话。
// 计时模型：ConsumedSeconds 累计已结算的答题秒数，进行中的区间从 LastResumedAt 起算；
// 剩余时间 = BaseDurationSeconds + ExtraTimeSeconds - 已消耗，下限为 0。
// Version 为乐观锁令牌，所有状态迁移都走条件更新。
// swagger:model ExamAttempt
type ExamAttempt struct {
	BaseModel

	CandidateID         uint          `gorm:"index:idx_attempt_candidate_exam;not null" json:"candidateId"`
	ExamID              uint          `gorm:"index:idx_attempt_candidate_exam;not null" json:"examId"`
	Status              AttemptStatus `gorm:"size:20;index;not null;default:not_started" json:"status"`
	StartedAt           *time.Time    `json:"startedAt,omitempty"`
	LastActivityAt      *time.Time    `gorm:"index" json:"lastActivityAt,omitempty"`
	LastResumedAt       *time.Time    `json:"lastResumedAt,omitempty"`
	SubmittedAt         *time.Time    `json:"submittedAt,omitempty"`
	BaseDurationSeconds int64         `gorm:"not null" json:"baseDurationSeconds"`
	ExtraTimeSeconds    int64         `gorm:"not null;default:0" json:"extraTimeSeconds"`
	ConsumedSeconds     int64         `gorm:"not null;default:0" json:"consumedSeconds"`
	ResumeCount         int           `gorm:"not null;default:0" json:"resumeCount"`
	Version             int64         `gorm:"not null;default:0" json:"-"`
}

func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

// AttemptAnswer 考生作答记录，按 (attempt, question) 幂等覆盖
// swagger:model AttemptAnswer
type AttemptAnswer struct {
	BaseModel

	AttemptID  uint            `gorm:"uniqueIndex:idx_attempt_answer;not null" json:"attemptId"`
	QuestionID uint            `gorm:"uniqueIndex:idx_attempt_answer;not null" json:"questionId"`
	Payload    json.RawMessage `gorm:"type:json" json:"payload"`
	AnswerText string          `gorm:"type:text" json:"answerText"`
	IsFlagged  bool            `gorm:"default:false" json:"isFlagged"`
}

func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}
