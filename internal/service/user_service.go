package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"lab-maintenance-backend/internal/access"
	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"
	"lab-maintenance-backend/internal/repository"
	"lab-maintenance-backend/pkg/utils"

	"gorm.io/gorm"
)

type UserService struct {
	db          *gorm.DB
	userRepo    *repository.UserRepository
	userLabRepo *repository.UserLabRepository
	labRepo     *repository.LabRepository
	auditRepo   *repository.AuditRepository
}

func NewUserService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	userLabRepo *repository.UserLabRepository,
	labRepo *repository.LabRepository,
	auditRepo *repository.AuditRepository,
) *UserService {
	return &UserService{
		db:          db,
		userRepo:    userRepo,
		userLabRepo: userLabRepo,
		labRepo:     labRepo,
		auditRepo:   auditRepo,
	}
}

const minPasswordLength = 6

// NewUser is the input of an account registration
type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     string
	Year     string
}

// UserPatch holds the fields an administrator may change; nil means unchanged
type UserPatch struct {
	Name     *string
	Email    *string
	Password *string
	Role     *string
	Year     *string
}

// ProfileUpdate is a self-service change of the caller's own account
type ProfileUpdate struct {
	Name            *string
	Year            *string
	ProfileImage    *string
	CurrentPassword string
	NewPassword     string
}

// RegisterUser creates an account of a role the caller may manage
func (s *UserService) RegisterUser(ctx context.Context, actor access.Actor, in NewUser) (*models.User, error) {
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	if err := actor.RequireManage(role); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" {
		return nil, apperr.Validation("name and email are required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLength)
	}

	taken, err := s.userRepo.EmailTaken(ctx, email, 0)
	if err != nil {
		return nil, apperr.Internal(err, "failed to check email")
	}
	if taken {
		return nil, apperr.DuplicateName("email %s is already registered", email)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err, "failed to hash password")
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Year:         strings.TrimSpace(in.Year),
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, apperr.Internal(err, "failed to create user")
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "user_registration", fmt.Sprintf("User %s registered with role %s", user.Email, user.Role))

	return user, nil
}

// ListUsers returns the accounts of the roles the caller manages
func (s *UserService) ListUsers(ctx context.Context, actor access.Actor) ([]models.User, error) {
	if err := actor.Require(access.ManageUsers); err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListUsers(ctx, actor.ManageableRoles()...)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list users")
	}
	return users, nil
}

func (s *UserService) loadManaged(ctx context.Context, actor access.Actor, id uint) (*models.User, error) {
	if err := actor.Require(access.ManageUsers); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindUserByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "failed to load user")
	}
	if err := actor.RequireManage(user.Role); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser edits an account; changing the password or role signs the user out everywhere
func (s *UserService) UpdateUser(ctx context.Context, actor access.Actor, id uint, patch UserPatch) (*models.User, error) {
	user, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	revoke := false
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		user.Name = name
	}
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if email == "" {
			return nil, apperr.Validation("email cannot be empty")
		}
		taken, err := s.userRepo.EmailTaken(ctx, email, user.ID)
		if err != nil {
			return nil, apperr.Internal(err, "failed to check email")
		}
		if taken {
			return nil, apperr.DuplicateName("email %s is already registered", email)
		}
		user.Email = email
	}
	if patch.Role != nil {
		role, err := models.ParseRole(*patch.Role)
		if err != nil {
			return nil, apperr.Validation("%v", err)
		}
		if err := actor.RequireManage(role); err != nil {
			return nil, err
		}
		if role != user.Role {
			revoke = true
		}
		user.Role = role
	}
	if patch.Year != nil {
		user.Year = strings.TrimSpace(*patch.Year)
	}
	if patch.Password != nil && *patch.Password != "" {
		if len(*patch.Password) < minPasswordLength {
			return nil, apperr.Validation("password must be at least %d characters", minPasswordLength)
		}
		hash, err := utils.HashPassword(*patch.Password)
		if err != nil {
			return nil, apperr.Internal(err, "failed to hash password")
		}
		user.PasswordHash = hash
		revoke = true
	}

	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return nil, apperr.Internal(err, "failed to update user")
	}
	if revoke {
		if err := s.userRepo.RevokeUserRefreshTokens(ctx, user.ID); err != nil {
			log.Printf("Warning: failed to revoke refresh tokens of user %d: %v", user.ID, err)
		}
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "user_update", fmt.Sprintf("Updated user %s (ID: %d)", user.Email, user.ID))

	return user, nil
}

// DeleteUser removes an account; callers cannot delete themselves
func (s *UserService) DeleteUser(ctx context.Context, actor access.Actor, id uint) error {
	if id == actor.UserID {
		return apperr.Forbidden("you cannot delete your own account")
	}
	user, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.delete(ctx, actor, user)
}

// DeleteUserByEmail removes the account registered under email
func (s *UserService) DeleteUserByEmail(ctx context.Context, actor access.Actor, email string) error {
	if err := actor.Require(access.ManageUsers); err != nil {
		return err
	}
	user, err := s.userRepo.FindUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return storeError(err, "failed to load user")
	}
	if user.ID == actor.UserID {
		return apperr.Forbidden("you cannot delete your own account")
	}
	if err := actor.RequireManage(user.Role); err != nil {
		return err
	}
	return s.delete(ctx, actor, user)
}

func (s *UserService) delete(ctx context.Context, actor access.Actor, user *models.User) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewUserLabRepo(tx).RemoveUser(ctx, user.ID); err != nil {
			return err
		}
		return s.userRepo.WithTx(tx).DeleteUser(ctx, user.ID)
	})
	if err != nil {
		return apperr.Internal(err, "failed to delete user")
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "user_delete", fmt.Sprintf("Deleted user %s (ID: %d)", user.Email, user.ID))
	return nil
}

// UpdateProfile lets any user edit their own account; a password change needs the current one
func (s *UserService) UpdateProfile(ctx context.Context, actor access.Actor, in ProfileUpdate) (*models.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, storeError(err, "failed to load user")
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		user.Name = name
	}
	if in.Year != nil {
		user.Year = strings.TrimSpace(*in.Year)
	}
	if in.ProfileImage != nil {
		user.ProfileImage = strings.TrimSpace(*in.ProfileImage)
	}
	if in.NewPassword != "" {
		if !utils.ComparePassword(user.PasswordHash, in.CurrentPassword) {
			return nil, apperr.Validation("current password is incorrect")
		}
		if len(in.NewPassword) < minPasswordLength {
			return nil, apperr.Validation("password must be at least %d characters", minPasswordLength)
		}
		hash, err := utils.HashPassword(in.NewPassword)
		if err != nil {
			return nil, apperr.Internal(err, "failed to hash password")
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return nil, apperr.Internal(err, "failed to update profile")
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "profile_update", fmt.Sprintf("User %s updated their profile", user.Email))
	return user, nil
}

// AssignLab scopes a technician to a laboratory
func (s *UserService) AssignLab(ctx context.Context, actor access.Actor, userID, labID uint) error {
	user, err := s.loadManaged(ctx, actor, userID)
	if err != nil {
		return err
	}
	if user.Role != models.RoleTechnician {
		return apperr.Validation("only technicians are scoped to laboratories")
	}
	if _, err := s.labRepo.GetLabByID(ctx, labID); err != nil {
		return storeError(err, "failed to load laboratory")
	}
	if err := s.userLabRepo.AssignUserToLab(ctx, userID, labID); err != nil {
		return apperr.Internal(err, "failed to assign laboratory")
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "user_lab_assign", fmt.Sprintf("User %d assigned to laboratory %d", userID, labID))
	return nil
}

// UnassignLab removes a technician's laboratory assignment
func (s *UserService) UnassignLab(ctx context.Context, actor access.Actor, userID, labID uint) error {
	if _, err := s.loadManaged(ctx, actor, userID); err != nil {
		return err
	}
	if err := s.userLabRepo.RemoveUserFromLab(ctx, userID, labID); err != nil {
		return apperr.Internal(err, "failed to remove laboratory assignment")
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "user_lab_remove", fmt.Sprintf("User %d removed from laboratory %d", userID, labID))
	return nil
}

// UserLabs lists the laboratories a user is scoped to; empty means unscoped
func (s *UserService) UserLabs(ctx context.Context, actor access.Actor, userID uint) ([]uint, error) {
	if actor.UserID != userID {
		if _, err := s.loadManaged(ctx, actor, userID); err != nil {
			return nil, err
		}
	}
	ids, err := s.userLabRepo.GetUserLabs(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list laboratory assignments")
	}
	return ids, nil
}
