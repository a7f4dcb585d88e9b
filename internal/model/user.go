package model

import "time"

type UserRole string

const (
	SuperDev   UserRole = "superdev"
	Admin      UserRole = "admin"
	Instructor UserRole = "instructor"
	Candidate  UserRole = "candidate"
)

// swagger:model User
type User struct {
	BaseModel

	Name      string     `gorm:"size:100;not null" json:"name"`
	Email     string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string     `gorm:"size:255;not null" json:"-"`
	Role      UserRole   `gorm:"size:20;index;default:candidate" json:"role"`
	BatchID   *uint      `gorm:"index" json:"batchId,omitempty"`
	IDNumber  string     `gorm:"size:50;index" json:"idNumber"`
	Phone     string     `gorm:"size:30" json:"phone"`
	PhotoURL  string     `gorm:"size:500" json:"photoUrl"`
	IsActive  bool       `gorm:"default:true" json:"isActive"`
	LastSeen  *time.Time `json:"lastSeen,omitempty"`

	Batch *Batch `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
}

func (User) TableName() string {
	return "users"
}
