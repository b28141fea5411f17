package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prtsw/caseflow_backend/internal/apperrors"
	"github.com/prtsw/caseflow_backend/internal/core/domain"
	portsrepo "github.com/prtsw/caseflow_backend/internal/core/ports/repositories"
	portssvc "github.com/prtsw/caseflow_backend/internal/core/ports/services"
	"github.com/prtsw/caseflow_backend/internal/dto"
	"github.com/prtsw/caseflow_backend/internal/utils"
)

const (
	defaultUserListLimit = 20
	maxUserListLimit     = 100
)

// userService implements the UserSvcFacade interface
type userService struct {
	BaseService
	userRepo  portsrepo.UserRepositoryFacade
	auditRepo portsrepo.AuditAppender
}

// NewUserService creates a new UserService.
func NewUserService(userRepo portsrepo.UserRepositoryFacade, auditRepo portsrepo.AuditAppender) portssvc.UserSvcFacade {
	return &userService{
		userRepo:  userRepo,
		auditRepo: auditRepo,
	}
}

// Ensure userService implements the portssvc.UserSvcFacade interface
var _ portssvc.UserSvcFacade = (*userService)(nil)

// appendUserAudit records a user-management mutation. The mutation has
// already committed, so an append failure is logged, not surfaced.
func (s *userService) appendUserAudit(ctx context.Context, userID string, action domain.AuditAction, performedBy string, now time.Time, details map[string]any) {
	entry := domain.AuditLogEntry{
		AuditID:     uuid.NewString(),
		EntityType:  domain.AuditEntityUser,
		EntityID:    userID,
		Action:      action,
		PerformedBy: performedBy,
		PerformedAt: now,
		Details:     details,
	}
	if err := s.auditRepo.AppendAudit(ctx, entry); err != nil {
		s.LogError(ctx, err, "Failed to append user audit entry",
			slog.String("user_id", userID),
			slog.String("action", string(action)))
	}
}

// initialRole picks the role for a newly registered user. The very first
// account becomes ADMIN so the system can be bootstrapped without seed data;
// everyone after that starts as REQUESTER.
func (s *userService) initialRole(ctx context.Context) (domain.UserRole, error) {
	count, err := s.userRepo.CountUsers(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to count users: %w", err)
	}
	if count == 0 {
		return domain.RoleAdmin, nil
	}
	return domain.RoleRequester, nil
}

// CreateUser registers a new local user with a bcrypt-hashed password.
func (s *userService) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*domain.User, error) {
	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		s.LogError(ctx, err, "Failed to hash password")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role, err := s.initialRole(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to determine role for new user")
		return nil, err
	}

	now := time.Now()
	newUserID := uuid.NewString()
	user := domain.User{
		UserID:       newUserID,
		Username:     req.Username,
		Name:         req.Name,
		PasswordHash: passwordHash,
		Role:         role,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     newUserID, // self registration
			LastUpdatedAt: now,
			LastUpdatedBy: newUserID,
		},
	}

	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			s.LogError(ctx, err, "Failed to save new user",
				slog.String("username", req.Username))
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.LogInfo(ctx, "User registered",
		slog.String("user_id", user.UserID),
		slog.String("role", user.Role.String()))
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (s *userService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find user by ID",
				slog.String("user_id", userID))
		}
		return nil, fmt.Errorf("failed to find user %s: %w", userID, err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *userService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find user by username",
				slog.String("username", username))
		}
		return nil, fmt.Errorf("failed to find user %s: %w", username, err)
	}
	return user, nil
}

// ListUsers retrieves a paginated list of users.
func (s *userService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 {
		limit = defaultUserListLimit
	}
	if limit > maxUserListLimit {
		limit = maxUserListLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.userRepo.FindUsers(ctx, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list users")
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// requireAdmin resolves the requesting user and checks they hold ADMIN.
func (s *userService) requireAdmin(ctx context.Context, requestingUserID string) (*domain.User, error) {
	requester, err := s.GetUserByID(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}
	if requester.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("user %s is not an admin: %w", requestingUserID, apperrors.ErrForbidden)
	}
	return requester, nil
}

// UpdateUser edits a user's profile. Users may edit themselves; editing
// anyone else requires ADMIN.
func (s *userService) UpdateUser(ctx context.Context, userID string, req dto.UpdateUserRequest, requestingUserID string) (*domain.User, error) {
	if requestingUserID != userID {
		if _, err := s.requireAdmin(ctx, requestingUserID); err != nil {
			return nil, err
		}
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated := false
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("name cannot be emptied: %w", apperrors.ErrValidation)
		}
		user.Name = *req.Name
		updated = true
	}
	if !updated {
		return user, nil
	}

	now := time.Now()
	user.LastUpdatedAt = now
	user.LastUpdatedBy = requestingUserID

	if err := s.userRepo.UpdateUser(ctx, *user); err != nil {
		s.LogError(ctx, err, "Failed to update user",
			slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to update user %s: %w", userID, err)
	}
	return user, nil
}

// UpdateUserRole changes a user's workflow role. ADMIN only.
func (s *userService) UpdateUserRole(ctx context.Context, userID string, role domain.UserRole, requestingUserID string) (*domain.User, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("unknown role %q: %w", role, apperrors.ErrValidation)
	}
	if _, err := s.requireAdmin(ctx, requestingUserID); err != nil {
		return nil, err
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}

	now := time.Now()
	oldRole := user.Role
	if err := s.userRepo.UpdateUserRole(ctx, userID, role, requestingUserID, now); err != nil {
		s.LogError(ctx, err, "Failed to update user role",
			slog.String("user_id", userID),
			slog.String("role", role.String()))
		return nil, fmt.Errorf("failed to update role for user %s: %w", userID, err)
	}

	s.appendUserAudit(ctx, userID, domain.AuditUserRoleChanged, requestingUserID, now, map[string]any{
		"old_role": oldRole.String(),
		"new_role": role.String(),
	})

	s.LogInfo(ctx, "User role changed",
		slog.String("user_id", userID),
		slog.String("old_role", oldRole.String()),
		slog.String("new_role", role.String()))

	user.Role = role
	user.LastUpdatedAt = now
	user.LastUpdatedBy = requestingUserID
	return user, nil
}

// UpdateRefreshToken stores the hash and expiry of a newly issued refresh token.
func (s *userService) UpdateRefreshToken(ctx context.Context, userID string, refreshTokenHash string, refreshTokenExpiryTime time.Time) error {
	if err := s.userRepo.UpdateRefreshToken(ctx, userID, refreshTokenHash, refreshTokenExpiryTime); err != nil {
		s.LogError(ctx, err, "Failed to update refresh token",
			slog.String("user_id", userID))
		return fmt.Errorf("failed to update refresh token for user %s: %w", userID, err)
	}
	return nil
}

// ClearRefreshToken removes any stored refresh token for the user.
func (s *userService) ClearRefreshToken(ctx context.Context, userID string) error {
	if err := s.userRepo.ClearRefreshToken(ctx, userID); err != nil {
		s.LogError(ctx, err, "Failed to clear refresh token",
			slog.String("user_id", userID))
		return fmt.Errorf("failed to clear refresh token for user %s: %w", userID, err)
	}
	return nil
}

// DisableUser soft-disables a user so they can no longer authenticate.
// Disabling is ADMIN only and never self-inflicted; disabling an already
// disabled user is a no-op.
func (s *userService) DisableUser(ctx context.Context, userID string, requestingUserID string) error {
	if userID == requestingUserID {
		return fmt.Errorf("users cannot disable themselves: %w", apperrors.ErrValidation)
	}
	if _, err := s.requireAdmin(ctx, requestingUserID); err != nil {
		return err
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsDisabled() {
		return nil
	}

	now := time.Now()
	if err := s.userRepo.MarkUserDisabled(ctx, userID, now, requestingUserID); err != nil {
		s.LogError(ctx, err, "Failed to disable user",
			slog.String("user_id", userID))
		return fmt.Errorf("failed to disable user %s: %w", userID, err)
	}

	s.appendUserAudit(ctx, userID, domain.AuditUserDisabled, requestingUserID, now, nil)

	s.LogInfo(ctx, "User disabled",
		slog.String("user_id", userID),
		slog.String("disabled_by", requestingUserID))
	return nil
}

// AuthenticateUser verifies a username/password pair. All failure modes
// collapse into ErrUnauthorized so callers cannot probe for valid usernames.
func (s *userService) AuthenticateUser(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to look up user during authentication",
				slog.String("username", username))
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
		return nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrUnauthorized)
	}
	if user.IsDisabled() {
		s.LogWarn(ctx, "Disabled user attempted to authenticate",
			slog.String("user_id", user.UserID))
		return nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrUnauthorized)
	}
	if user.PasswordHash == "" || !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrUnauthorized)
	}
	return user, nil
}

// FindOrCreateUserByGoogleID resolves a Google-authenticated user. First
// sign-in provisions an account with no local password; the Google subject
// is the lookup key on every visit after that.
func (s *userService) FindOrCreateUserByGoogleID(ctx context.Context, info *domain.GoogleUserInfo) (*domain.User, error) {
	if info == nil || info.ID == "" {
		return nil, fmt.Errorf("google user info is missing the subject: %w", apperrors.ErrValidation)
	}

	user, err := s.userRepo.FindUserByGoogleID(ctx, info.ID)
	if err == nil {
		if user.IsDisabled() {
			s.LogWarn(ctx, "Disabled user attempted Google sign-in",
				slog.String("user_id", user.UserID))
			return nil, fmt.Errorf("account disabled: %w", apperrors.ErrUnauthorized)
		}
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "Failed to look up user by Google ID")
		return nil, fmt.Errorf("failed to look up google user: %w", err)
	}

	if info.Email == "" {
		return nil, fmt.Errorf("google user info is missing the email: %w", apperrors.ErrValidation)
	}

	role, err := s.initialRole(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to determine role for google user")
		return nil, err
	}

	name := info.Name
	if name == "" {
		name = info.Email
	}

	now := time.Now()
	newUserID := uuid.NewString()
	newUser := domain.User{
		UserID:   newUserID,
		Username: info.Email,
		Name:     name,
		GoogleID: info.ID,
		Role:     role,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     newUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: newUserID,
		},
	}

	if err := s.userRepo.SaveUser(ctx, newUser); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// A local account already holds this username; no silent linking.
			return nil, fmt.Errorf("an account with username %s already exists: %w", newUser.Username, apperrors.ErrConflict)
		}
		s.LogError(ctx, err, "Failed to provision google user",
			slog.String("username", newUser.Username))
		return nil, fmt.Errorf("failed to provision google user: %w", err)
	}

	s.LogInfo(ctx, "User provisioned via Google sign-in",
		slog.String("user_id", newUser.UserID),
		slog.String("role", newUser.Role.String()))
	return &newUser, nil
}
