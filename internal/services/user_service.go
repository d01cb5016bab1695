package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"go-task-manager/internal/models"
	"go-task-manager/internal/repositories"
)

const (
	minNameLength     = 2
	maxNameLength     = 100
	minPasswordLength = 6
	// bcrypt が扱える上限
	maxPasswordBytes = 72
)

// UserStore はユーザーの永続化層です。repositories.UserRepository が実装します。
type UserStore interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, u *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, newHash string) error
	Delete(ctx context.Context, id int64) error
	FindAll(ctx context.Context) ([]*models.User, error)
	SearchByName(ctx context.Context, name string) ([]*models.User, error)
	Count(ctx context.Context) (int64, error)
}

// UserService はユーザー関連のビジネスロジックを扱います。
type UserService struct {
	userRepo UserStore
	validate *validator.Validate
}

// NewUserService は新しいUserServiceを作成します。
func NewUserService(userRepo UserStore) *UserService {
	return &UserService{userRepo: userRepo, validate: validator.New()}
}

// RegisterUser はユーザーを登録します。
func (s *UserService) RegisterUser(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	name, email, err := s.validateProfile(req.Name, req.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	if req.Password != req.ConfirmPassword {
		return nil, validationErrorf("passwords do not match")
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, validationErrorf("email already in use")
	}

	hashedPassword, err := repositories.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	createdUser, err := s.userRepo.Create(ctx, &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
	})
	if err != nil {
		// 同時登録で一意制約に引っかかった場合
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, validationErrorf("email already in use")
		}
		return nil, err
	}
	return createdUser, nil
}

// AuthenticateUser はユーザーを認証し、成功したらユーザーを返します。
func (s *UserService) AuthenticateUser(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	foundUser, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := repositories.VerifyPassword(foundUser.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return foundUser, nil
}

// GetUser はIDでユーザーを取得します。
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// ListUsers はすべてのユーザーを取得します。
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.userRepo.FindAll(ctx)
}

// SearchUsers は名前の部分一致でユーザーを検索します。
func (s *UserService) SearchUsers(ctx context.Context, name string) ([]*models.User, error) {
	return s.userRepo.SearchByName(ctx, name)
}

// CountUsers は登録ユーザー数を返します。
func (s *UserService) CountUsers(ctx context.Context) (int64, error) {
	return s.userRepo.Count(ctx)
}

// UpdateUser はユーザーの名前とメールアドレスを更新します。本人以外は変更できません。
func (s *UserService) UpdateUser(ctx context.Context, actorID, id int64, req models.UserUpdateRequest) (*models.User, error) {
	name, email, err := s.validateProfile(req.Name, req.Email)
	if err != nil {
		return nil, err
	}
	existing, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorID != id {
		return nil, ErrAccessDenied
	}

	if email != existing.Email {
		exists, err := s.userRepo.ExistsByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, validationErrorf("email already in use")
		}
	}

	existing.Name = name
	existing.Email = email
	updated, err := s.userRepo.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, validationErrorf("email already in use")
		}
		return nil, err
	}
	return updated, nil
}

// UpdatePassword はパスワードを変更します。本人以外は変更できません。
func (s *UserService) UpdatePassword(ctx context.Context, actorID, id int64, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if _, err := s.userRepo.FindByID(ctx, id); err != nil {
		return err
	}
	if actorID != id {
		return ErrAccessDenied
	}

	hashedPassword, err := repositories.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, id, hashedPassword)
}

// DeleteUser はユーザーを削除します。タスクも一緒に削除されます。
func (s *UserService) DeleteUser(ctx context.Context, actorID, id int64) error {
	if _, err := s.userRepo.FindByID(ctx, id); err != nil {
		return err
	}
	if actorID != id {
		return ErrAccessDenied
	}
	return s.userRepo.Delete(ctx, id)
}

func (s *UserService) validateProfile(name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < minNameLength || n > maxNameLength {
		return "", "", validationErrorf("name must be between %d and %d characters", minNameLength, maxNameLength)
	}
	email = strings.TrimSpace(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return "", "", validationErrorf("email must be a valid email address")
	}
	return name, email, nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return validationErrorf("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return validationErrorf("password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}
