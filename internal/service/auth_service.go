package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"lab-maintenance-backend/internal/access"
	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"
	"lab-maintenance-backend/internal/repository"
	"lab-maintenance-backend/internal/session"
	"lab-maintenance-backend/pkg/utils"
)

type AuthService struct {
	userRepo  *repository.UserRepository
	auditRepo *repository.AuditRepository
	revoker   session.Revoker
}

func NewAuthService(userRepo *repository.UserRepository, auditRepo *repository.AuditRepository, revoker session.Revoker) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		auditRepo: auditRepo,
		revoker:   revoker,
	}
}

// LoginResponse represents the response structure for login
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"-"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID                    uint        `json:"id"`
	Name                  string      `json:"name"`
	Email                 string      `json:"email"`
	Role                  models.Role `json:"role"`
	Year                  string      `json:"year,omitempty"`
	Profile               string      `json:"profile,omitempty"`
	NeedsCredentialUpdate bool        `json:"needs_credential_update"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:                    u.ID,
		Name:                  u.Name,
		Email:                 u.Email,
		Role:                  u.Role,
		Year:                  u.Year,
		Profile:               u.ProfileImage,
		NeedsCredentialUpdate: u.NeedsCredentialUpdate,
	}
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Unauthorized("invalid credentials")
		}
		return nil, apperr.Internal(err, "failed to load user")
	}

	if !utils.ComparePassword(user.PasswordHash, password) {
		return nil, apperr.Unauthorized("invalid credentials")
	}

	response, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &user.ID, "user_login", fmt.Sprintf("User %s logged in", user.Email))

	return response, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*LoginResponse, error) {
	issued, err := utils.GenerateAccessToken(utils.TokenSubject{
		UserID:                user.ID,
		Role:                  string(user.Role),
		Name:                  user.Name,
		Email:                 user.Email,
		NeedsCredentialUpdate: user.NeedsCredentialUpdate,
	})
	if err != nil {
		return nil, apperr.Internal(err, "failed to generate access token")
	}

	refreshToken, err := utils.GenerateRefreshToken()
	if err != nil {
		return nil, apperr.Internal(err, "failed to generate refresh token")
	}

	// Hash and store refresh token
	refreshTokenModel := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: utils.HashRefreshToken(refreshToken),
		ExpiresAt: time.Now().Add(utils.GetRefreshTokenExpiry()),
	}
	if err := s.userRepo.CreateRefreshToken(ctx, refreshTokenModel); err != nil {
		return nil, apperr.Internal(err, "failed to store refresh token")
	}

	return &LoginResponse{
		AccessToken:  issued.Token,
		RefreshToken: refreshToken,
		ExpiresAt:    issued.ExpiresAt,
		User:         NewUserResponse(user),
	}, nil
}

// RefreshAccessToken generates a new access token from a refresh token
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	token, err := s.userRepo.FindRefreshTokenByHash(ctx, utils.HashRefreshToken(refreshToken))
	if err != nil {
		return nil, storeError(err, "failed to load refresh token")
	}

	if time.Now().After(token.ExpiresAt) {
		return nil, apperr.Unauthorized("refresh token expired")
	}

	issued, err := utils.GenerateAccessToken(utils.TokenSubject{
		UserID:                token.User.ID,
		Role:                  string(token.User.Role),
		Name:                  token.User.Name,
		Email:                 token.User.Email,
		NeedsCredentialUpdate: token.User.NeedsCredentialUpdate,
	})
	if err != nil {
		return nil, apperr.Internal(err, "failed to generate access token")
	}

	return &LoginResponse{
		AccessToken: issued.Token,
		ExpiresAt:   issued.ExpiresAt,
		User:        NewUserResponse(&token.User),
	}, nil
}

// Authenticate turns a bearer token into a live session
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*session.Session, error) {
	claims, err := utils.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, apperr.Unauthorized("invalid or expired token")
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperr.Upstream(err, "failed to verify session")
	}
	if revoked {
		return nil, apperr.Unauthorized("session has been logged out")
	}

	return &session.Session{
		Actor: access.Actor{
			UserID: claims.UserID,
			Role:   models.Role(claims.Role),
			Name:   claims.Name,
			Email:  claims.Email,
		},
		TokenID:               claims.ID,
		ExpiresAt:             claims.ExpiresAt.Time,
		NeedsCredentialUpdate: claims.NeedsCredentialUpdate,
	}, nil
}

// Logout revokes the access token for the rest of its life and the refresh token
func (s *AuthService) Logout(ctx context.Context, sess *session.Session, refreshToken string) error {
	if sess != nil {
		if err := s.revoker.Revoke(ctx, sess.TokenID, sess.Remaining()); err != nil {
			return apperr.Upstream(err, "failed to revoke session")
		}
		_ = s.auditRepo.CreateAuditLog(ctx, &sess.Actor.UserID, "user_logout", fmt.Sprintf("User %s logged out", sess.Actor.Email))
	}

	if refreshToken != "" {
		if err := s.userRepo.RevokeRefreshTokenByHash(ctx, utils.HashRefreshToken(refreshToken)); err != nil {
			return apperr.Internal(err, "failed to revoke refresh token")
		}
	}
	return nil
}

// CurrentUser loads the account behind a session
func (s *AuthService) CurrentUser(ctx context.Context, actor access.Actor) (*UserResponse, error) {
	user, err := s.userRepo.FindUserByID(ctx, actor.UserID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Unauthorized("account no longer exists")
		}
		return nil, apperr.Internal(err, "failed to load user")
	}
	resp := NewUserResponse(user)
	return &resp, nil
}

// CredentialState tells the client whether the default admin must rotate credentials
type CredentialState struct {
	NeedsUpdate    bool `json:"needs_update"`
	IsDefaultAdmin bool `json:"is_default_admin"`
}

// CheckDefaultCredentials reports the credential rotation state of the caller
func (s *AuthService) CheckDefaultCredentials(ctx context.Context, actor access.Actor) (*CredentialState, error) {
	user, err := s.userRepo.FindUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, storeError(err, "failed to load user")
	}
	return &CredentialState{
		NeedsUpdate:    user.NeedsCredentialUpdate,
		IsDefaultAdmin: user.IsDefaultAdmin,
	}, nil
}

// CredentialUpdate carries the replacement credentials of the default admin
type CredentialUpdate struct {
	Name     string
	Email    string
	Password string
}

func (u *CredentialUpdate) validate() error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	switch {
	case u.Name == "" || u.Email == "" || u.Password == "":
		return apperr.Validation("name, email and password are required")
	case strings.EqualFold(u.Name, models.DefaultAdminName):
		return apperr.Validation("choose a name other than %q", models.DefaultAdminName)
	case strings.EqualFold(u.Email, models.DefaultAdminEmail):
		return apperr.Validation("choose an email other than %s", models.DefaultAdminEmail)
	case u.Password == models.DefaultAdminPassword:
		return apperr.Validation("choose a password other than the default")
	case len(u.Password) < 6:
		return apperr.Validation("password must be at least 6 characters")
	}
	return nil
}

// UpdateDefaultAdmin replaces the placeholder credentials of the seeded admin,
// ends the current session and returns fresh tokens without the rotation flag
func (s *AuthService) UpdateDefaultAdmin(ctx context.Context, sess *session.Session, in CredentialUpdate) (*LoginResponse, error) {
	user, err := s.userRepo.FindUserByID(ctx, sess.Actor.UserID)
	if err != nil {
		return nil, storeError(err, "failed to load user")
	}
	if !user.IsDefaultAdmin && !user.NeedsCredentialUpdate {
		return nil, apperr.Forbidden("only the default administrator can use this operation")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	taken, err := s.userRepo.EmailTaken(ctx, in.Email, user.ID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to check email")
	}
	if taken {
		return nil, apperr.DuplicateName("email %s is already registered", in.Email)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err, "failed to hash password")
	}

	user.Name = in.Name
	user.Email = in.Email
	user.PasswordHash = hash
	user.NeedsCredentialUpdate = false
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return nil, apperr.Internal(err, "failed to update credentials")
	}

	if err := s.userRepo.RevokeUserRefreshTokens(ctx, user.ID); err != nil {
		log.Printf("Warning: failed to revoke refresh tokens of user %d: %v", user.ID, err)
	}
	if err := s.revoker.Revoke(ctx, sess.TokenID, sess.Remaining()); err != nil {
		log.Printf("Warning: failed to revoke session %s: %v", sess.TokenID, err)
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &user.ID, "default_admin_update", fmt.Sprintf("Default admin credentials rotated to %s", user.Email))

	return s.issueTokens(ctx, user)
}

// EnsureDefaultAdmin seeds the default admin when no admin account exists.
// Without a configured password a random one is generated and logged once.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context, initialPassword string) (*models.User, error) {
	exists, err := s.userRepo.AdminExists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for admin: %w", err)
	}
	if exists {
		return nil, nil
	}

	password := initialPassword
	generated := password == ""
	if generated {
		password = utils.GenerateRandomPassword()
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.User{
		Name:                  models.DefaultAdminName,
		Email:                 models.DefaultAdminEmail,
		PasswordHash:          hash,
		Role:                  models.RoleAdmin,
		IsDefaultAdmin:        true,
		NeedsCredentialUpdate: true,
	}
	if err := s.userRepo.CreateUser(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to create default admin: %w", err)
	}

	if generated {
		log.Printf("Default admin created: %s / %s (change these credentials on first login)", admin.Email, password)
	} else {
		log.Printf("Default admin created: %s (change these credentials on first login)", admin.Email)
	}
	_ = s.auditRepo.CreateAuditLog(ctx, &admin.ID, "default_admin_seed", "Default admin account created")

	return admin, nil
}
