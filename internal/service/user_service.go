package service

import (
	"errors"
	"exam_admin_backend/internal/model"
	"exam_admin_backend/internal/repository"
	"exam_admin_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService 管理端的考生与账号管理
type UserService struct {
	UserRepo  *repository.UserRepository
	BatchRepo *repository.BatchRepository
}

func NewUserService(userRepo *repository.UserRepository, batchRepo *repository.BatchRepository) *UserService {
	return &UserService{UserRepo: userRepo, BatchRepo: batchRepo}
}

// CreateCandidateInput 管理员建档考生
type CreateCandidateInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	IDNumber string `json:"idNumber"`
	Phone    string `json:"phone"`
	BatchID  *uint  `json:"batchId"`
}

func (s *UserService) CreateCandidate(in CreateCandidateInput, createdBy uint) (*model.User, error) {
	if _, err := s.UserRepo.FindByEmail(in.Email); err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if in.BatchID != nil {
		if _, err := s.BatchRepo.FindByID(*in.BatchID); err != nil {
			return nil, errors.New("batch not found")
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hashed),
		Role:     model.Candidate,
		IDNumber: in.IDNumber,
		Phone:    in.Phone,
		BatchID:  in.BatchID,
		IsActive: true,
	}
	user.CreatedBy = createdBy
	if err := s.UserRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) ListCandidates(batchID uint, search string, page, limit int) ([]model.User, int64, error) {
	return s.UserRepo.ListCandidates(batchID, search, page, limit)
}

// UpdateCandidateInput 可更新字段，零值跳过
type UpdateCandidateInput struct {
	Name     string `json:"name"`
	IDNumber string `json:"idNumber"`
	Phone    string `json:"phone"`
	PhotoURL string `json:"photoUrl"`
	BatchID  *uint  `json:"batchId"`
	IsActive *bool  `json:"isActive"`
}

func (s *UserService) UpdateCandidate(id uint, in UpdateCandidateInput, updatedBy uint) (*model.User, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		user.Name = in.Name
	}
	if in.IDNumber != "" {
		user.IDNumber = in.IDNumber
	}
	if in.Phone != "" {
		user.Phone = in.Phone
	}
	if in.PhotoURL != "" {
		user.PhotoURL = in.PhotoURL
	}
	if in.BatchID != nil {
		if _, err := s.BatchRepo.FindByID(*in.BatchID); err != nil {
			return nil, errors.New("batch not found")
		}
		user.BatchID = in.BatchID
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	user.UpdatedBy = updatedBy

	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) DeleteUser(id, deletedBy uint) error {
	user, err := s.GetUser(id)
	if err != nil {
		return err
	}
	if user.Role == model.SuperDev {
		return util.ErrPermissionDenied
	}
	return s.UserRepo.Delete(id, deletedBy)
}

func (s *UserService) ResetPassword(id uint, newPassword string, updatedBy uint) error {
	user, err := s.GetUser(id)
	if err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashed)
	user.UpdatedBy = updatedBy
	return s.UserRepo.Update(user)
}
