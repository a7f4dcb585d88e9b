package model

import "encoding/json"

type QuestionType string

const (
	SingleChoice QuestionType = "single_choice"
	MultiChoice  QuestionType = "multi_choice"
	TrueFalse    QuestionType = "true_false"
	ShortAnswer  QuestionType = "short_answer"
	Essay        QuestionType = "essay"
)

// IsObjective 客观题可机器判分，主观题进入人工阅卷
func (t QuestionType) IsObjective() bool {
	switch t {
	case SingleChoice, MultiChoice, TrueFalse:
		return true
	}
	return false
}

// swagger:model Question
type Question struct {
	BaseModel

	ExamID      uint            `gorm:"index;not null" json:"examId"`
	Type        QuestionType    `gorm:"size:20;not null" json:"type"`
	Content     string          `gorm:"type:text;not null" json:"content"`
	Options     json.RawMessage `gorm:"type:json" json:"options,omitempty"`
	CorrectKeys json.RawMessage `gorm:"type:json" json:"-"`
	Points      float64         `gorm:"not null;default:1" json:"points"`
	Seq         int             `gorm:"index" json:"seq"`
	Explanation string          `gorm:"type:text" json:"-"`
}

func (Question) TableName() string {
	return "questions"
}
