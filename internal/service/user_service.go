package service

import (
	"corp_learn_backend/internal/model"
	"corp_learn_backend/internal/repository"
	"corp_learn_backend/internal/util"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService 处理用户资料与管理端用户操作
type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{
		UserRepo: userRepo,
	}
}

func (s *UserService) GetUsers(page, limit int, filter repository.UserListFilter) ([]model.User, int64, error) {
	return s.UserRepo.List(page, limit, filter)
}

func (s *UserService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ProfileUpdate 用户可自行修改的字段
type ProfileUpdate struct {
	Name       string
	Department string
	Position   string
	AvatarURL  string
}

func (s *UserService) UpdateProfile(userID uint, update ProfileUpdate) (*model.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if update.Name != "" {
		user.Name = update.Name
	}
	if update.Department != "" {
		user.Department = update.Department
	}
	if update.Position != "" {
		user.Position = update.Position
	}
	if update.AvatarURL != "" {
		user.AvatarURL = update.AvatarURL
	}

	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return errors.New("invalid credentials")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashedPassword)
	return s.UserRepo.Update(user)
}

// SetRole 管理员修改用户角色
func (s *UserService) SetRole(userID uint, role model.UserRole) error {
	switch role {
	case model.Student, model.Instructor, model.Admin:
	default:
		return errors.New("unknown role")
	}

	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	user.Role = role
	return s.UserRepo.Update(user)
}

// DisableUser 禁用/启用用户
func (s *UserService) DisableUser(userID uint, disable bool) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	user.Disabled = disable
	return s.UserRepo.Update(user)
}
