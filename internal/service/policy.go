package service

import "exam_admin_backend/internal/model"

// Policy 特权操作的统一准入判断，角色分支集中在这里而不散落在各业务方法里
type Policy struct{}

func NewPolicy() *Policy {
	return &Policy{}
}

// CanManageAttempts 强制收卷、加时、取消、恢复
func (p *Policy) CanManageAttempts(role model.UserRole) bool {
	return role == model.SuperDev || role == model.Admin
}

// CanGrade 人工判分与重判
func (p *Policy) CanGrade(role model.UserRole) bool {
	return role == model.SuperDev || role == model.Admin || role == model.Instructor
}

// CanAssign 排考与豁免
func (p *Policy) CanAssign(role model.UserRole) bool {
	return role == model.SuperDev || role == model.Admin
}

// CanViewAudit 审计流水查询
func (p *Policy) CanViewAudit(role model.UserRole) bool {
	return role == model.SuperDev || role == model.Admin
}
