package model

import "time"

// Exam 考试配置：时长、最大可考次数、及格线、准考码
// swagger:model Exam
type Exam struct {
	BaseModel

	Title               string     `gorm:"size:200;not null" json:"title"`
	Description         string     `gorm:"type:text" json:"description"`
	BaseDurationSeconds int64      `gorm:"not null;default:5400" json:"baseDurationSeconds"`
	MaxAttempts         int        `gorm:"not null;default:1" json:"maxAttempts"`
	PassingScore        float64    `gorm:"not null;default:60" json:"passingScore"`
	AccessCode          string     `gorm:"size:50" json:"-"`
	IsPublished         bool       `gorm:"default:false;index" json:"isPublished"`
	PublishedAt         *time.Time `json:"publishedAt,omitempty"`
	InstructionMediaURL string     `gorm:"size:500" json:"instructionMediaUrl"`
}

func (Exam) TableName() string {
	return "exams"
}
