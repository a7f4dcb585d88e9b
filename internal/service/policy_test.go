package service

import (
	"exam_admin_backend/internal/model"
	"testing"
)

func TestPolicy(t *testing.T) {
	p := NewPolicy()

	tests := []struct {
		role      model.UserRole
		manage    bool
		grade     bool
		assign    bool
		viewAudit bool
	}{
		{model.SuperDev, true, true, true, true},
		{model.Admin, true, true, true, true},
		{model.Instructor, false, true, false, false},
		{model.Candidate, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := p.CanManageAttempts(tt.role); got != tt.manage {
				t.Errorf("CanManageAttempts = %v, want %v", got, tt.manage)
			}
			if got := p.CanGrade(tt.role); got != tt.grade {
				t.Errorf("CanGrade = %v, want %v", got, tt.grade)
			}
			if got := p.CanAssign(tt.role); got != tt.assign {
				t.Errorf("CanAssign = %v, want %v", got, tt.assign)
			}
			if got := p.CanViewAudit(tt.role); got != tt.viewAudit {
				t.Errorf("CanViewAudit = %v, want %v", got, tt.viewAudit)
			}
		})
	}
}
