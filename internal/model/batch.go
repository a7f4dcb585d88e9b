package model

import "time"

// Batch 考生批次，考生通过批次统一排期
// swagger:model Batch
type Batch struct {
	BaseModel

	Name        string     `gorm:"size:100;not null" json:"name"`
	Code        string     `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Description string     `gorm:"type:text" json:"description"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	IsActive    bool       `gorm:"default:true" json:"isActive"`
}

func (Batch) TableName() string {
	return "batches"
}
