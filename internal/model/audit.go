package model

import "time"

type AdminActionType string

const (
	ActionForceEnd        AdminActionType = "force_end"
	ActionResume          AdminActionType = "resume"
	ActionAddTime         AdminActionType = "add_time"
	ActionCancel          AdminActionType = "cancel"
	ActionAllowNewAttempt AdminActionType = "allow_new_attempt"
	ActionRegrade         AdminActionType = "regrade"
	ActionAssign          AdminActionType = "assign"
	ActionUnassign        AdminActionType = "unassign"
)

// AdminOperationLog 特权操作审计流水，只追加，永不更新或删除
// swagger:model AdminOperationLog
type AdminOperationLog struct {
	ID           uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	ActionType   AdminActionType `gorm:"size:30;index;not null" json:"actionType"`
	ActorID      uint            `gorm:"index;not null" json:"actorId"`
	CandidateID  uint            `gorm:"index" json:"candidateId"`
	ExamID       uint            `gorm:"index" json:"examId"`
	AttemptID    *uint           `gorm:"index" json:"attemptId,omitempty"`
	StatusBefore string          `gorm:"size:20" json:"statusBefore"`
	StatusAfter  string          `gorm:"size:20" json:"statusAfter"`
	Reason       string          `gorm:"size:500" json:"reason"`
	CreatedAt    time.Time       `gorm:"index" json:"createdAt"`
}

func (AdminOperationLog) TableName() string {
	return "admin_operation_logs"
}
