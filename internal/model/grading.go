package model

import (
	"encoding/json"
	"time"
)

type GradingStatus string

const (
	GradingPending       GradingStatus = "pending"
	GradingAutoGraded    GradingStatus = "auto_graded"
	GradingManualPending GradingStatus = "manual_pending"
	GradingCompleted     GradingStatus = "completed"
)

// GradingSession 一次提交对应唯一一个阅卷会话。
// Version 为乐观锁令牌，状态与总分的写回都走条件更新，
// 并发阅卷与兜底巡检不会互相覆盖。
// swagger:model GradingSession
type GradingSession struct {
	BaseModel

	AttemptID  uint          `gorm:"uniqueIndex;not null" json:"attemptId"`
	ExamID     uint          `gorm:"index;not null" json:"examId"`
	Status     GradingStatus `gorm:"size:20;index;not null;default:pending" json:"status"`
	TotalScore *float64      `json:"totalScore,omitempty"`
	IsPassed   *bool         `json:"isPassed,omitempty"`
	GradedBy   *uint         `json:"gradedBy,omitempty"`
	GradedAt   *time.Time    `json:"gradedAt,omitempty"`
	Version    int64         `gorm:"not null;default:0" json:"-"`
}

func (GradingSession) TableName() string {
	return "grading_sessions"
}

// GradedAnswer 单题判分结果。
// SelectedSnapshot / AnswerTextSnapshot 为判分时刻的作答快照，创建后不再更新；
// 可变字段仅 Score / IsCorrect / IsManuallyGraded / GraderComment，且只能经重判操作修改。
// swagger:model GradedAnswer
type GradedAnswer struct {
	BaseModel

	SessionID          uint            `gorm:"uniqueIndex:idx_session_question;not null" json:"sessionId"`
	QuestionID         uint            `gorm:"uniqueIndex:idx_session_question;not null" json:"questionId"`
	Score              float64         `gorm:"not null;default:0" json:"score"`
	IsCorrect          *bool           `json:"isCorrect,omitempty"`
	IsManuallyGraded   bool            `gorm:"default:false" json:"isManuallyGraded"`
	GraderComment      string          `gorm:"type:text" json:"graderComment"`
	SelectedSnapshot   json.RawMessage `gorm:"type:json" json:"selectedSnapshot,omitempty"`
	AnswerTextSnapshot string          `gorm:"type:text" json:"answerTextSnapshot,omitempty"`
}

func (GradedAnswer) TableName() string {
	return "graded_answers"
}

// RegradeLog 重判流水，只增不改
// swagger:model RegradeLog
type RegradeLog struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID  uint      `gorm:"index;not null" json:"sessionId"`
	QuestionID uint      `gorm:"not null" json:"questionId"`
	OldScore   float64   `json:"oldScore"`
	NewScore   float64   `json:"newScore"`
	Reason     string    `gorm:"size:500" json:"reason"`
	ActorID    uint      `gorm:"index;not null" json:"actorId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (RegradeLog) TableName() string {
	return "regrade_logs"
}
