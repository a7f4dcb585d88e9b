package model

import "time"

// ExamAssignment 排考记录：授予考生在一个时间窗口内参加某场考试的资格。
// 同一考生同一考试允许存在多条记录（不同窗口），但同一时刻至多一个生效窗口，
// 该约束在应用层校验而非数据库唯一索引。
// swagger:model ExamAssignment
type ExamAssignment struct {
	BaseModel

	CandidateID  uint      `gorm:"index:idx_assignment_candidate_exam;not null" json:"candidateId"`
	ExamID       uint      `gorm:"index:idx_assignment_candidate_exam;not null" json:"examId"`
	ScheduleFrom time.Time `gorm:"not null" json:"scheduleFrom"`
	ScheduleTo   time.Time `gorm:"not null" json:"scheduleTo"`
	IsActive     bool      `gorm:"default:true;index" json:"isActive"`
	AssignedBy   uint      `json:"assignedBy"`
}

func (ExamAssignment) TableName() string {
	return "exam_assignments"
}

// Covers 判断窗口当前是否生效
func (a *ExamAssignment) Covers(now time.Time) bool {
	return a.IsActive && !now.Before(a.ScheduleFrom) && !now.After(a.ScheduleTo)
}

// AttemptOverride 管理员豁免记录：允许在次数用尽后再考一次。
// Start 在次数校验不通过时消费最早一条未消费的豁免。
// swagger:model AttemptOverride
type AttemptOverride struct {
	BaseModel

	CandidateID         uint   `gorm:"index:idx_override_candidate_exam;not null" json:"candidateId"`
	ExamID              uint   `gorm:"index:idx_override_candidate_exam;not null" json:"examId"`
	GrantedBy           uint   `gorm:"not null" json:"grantedBy"`
	Reason              string `gorm:"size:500" json:"reason"`
	ConsumedByAttemptID *uint  `gorm:"index" json:"consumedByAttemptId,omitempty"`
}

func (AttemptOverride) TableName() string {
	return "attempt_overrides"
}
