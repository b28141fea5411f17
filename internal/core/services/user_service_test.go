package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/prtsw/caseflow_backend/internal/apperrors"
	"github.com/prtsw/caseflow_backend/internal/core/domain"
	portsrepo "github.com/prtsw/caseflow_backend/internal/core/ports/repositories"
	portssvc "github.com/prtsw/caseflow_backend/internal/core/ports/services"
	"github.com/prtsw/caseflow_backend/internal/core/services"
	"github.com/prtsw/caseflow_backend/internal/dto"
	"github.com/prtsw/caseflow_backend/internal/utils"
)

// --- Mock UserRepository ---
type MockUserRepository struct {
	mock.Mock
}

// Ensure MockUserRepository implements portsrepo.UserRepositoryFacade
var _ portsrepo.UserRepositoryFacade = (*MockUserRepository)(nil)

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	args := m.Called(ctx, googleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUsers(ctx context.Context, limit int, offset int) ([]domain.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) CountUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateUserRole(ctx context.Context, userID string, role domain.UserRole, updatedBy string, now time.Time) error {
	args := m.Called(ctx, userID, role, updatedBy, now)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateRefreshToken(ctx context.Context, userID string, refreshTokenHash string, refreshTokenExpiryTime time.Time) error {
	args := m.Called(ctx, userID, refreshTokenHash, refreshTokenExpiryTime)
	return args.Error(0)
}

func (m *MockUserRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserRepository) MarkUserDisabled(ctx context.Context, userID string, disabledAt time.Time, disabledBy string) error {
	args := m.Called(ctx, userID, disabledAt, disabledBy)
	return args.Error(0)
}

// --- Test Suite Setup ---
type UserServiceTestSuite struct {
	suite.Suite
	mockUserRepo  *MockUserRepository
	mockAuditRepo *MockAuditRepository
	service       portssvc.UserSvcFacade
	admin         domain.User
	requester     domain.User
}

func (suite *UserServiceTestSuite) SetupTest() {
	suite.mockUserRepo = new(MockUserRepository)
	suite.mockAuditRepo = new(MockAuditRepository)
	suite.service = services.NewUserService(suite.mockUserRepo, suite.mockAuditRepo)

	now := time.Now()
	suite.admin = domain.User{
		UserID:   uuid.NewString(),
		Username: "admin",
		Name:     "Admin",
		Role:     domain.RoleAdmin,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}
	suite.requester = domain.User{
		UserID:   uuid.NewString(),
		Username: "requester",
		Name:     "Requester",
		Role:     domain.RoleRequester,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}
}

// --- CreateUser ---

func (suite *UserServiceTestSuite) TestCreateUser_FirstUserBecomesAdmin() {
	ctx := context.Background()
	req := dto.CreateUserRequest{
		Username: "founder",
		Name:     "First User",
		Password: "a-strong-password",
	}

	suite.mockUserRepo.On("CountUsers", ctx).Return(int64(0), nil).Once()
	suite.mockUserRepo.On("SaveUser", ctx, mock.MatchedBy(func(u domain.User) bool {
		return u.Username == "founder" &&
			u.Role == domain.RoleAdmin &&
			u.PasswordHash != "" &&
			u.PasswordHash != req.Password
	})).Return(nil).Once()

	created, err := suite.service.CreateUser(ctx, req)

	suite.Require().NoError(err)
	suite.Equal(domain.RoleAdmin, created.Role)
	suite.True(utils.CheckPasswordHash(req.Password, created.PasswordHash))
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestCreateUser_SubsequentUserIsRequester() {
	ctx := context.Background()
	req := dto.CreateUserRequest{
		Username: "newhire",
		Name:     "New Hire",
		Password: "a-strong-password",
	}

	suite.mockUserRepo.On("CountUsers", ctx).Return(int64(3), nil).Once()
	suite.mockUserRepo.On("SaveUser", ctx, mock.MatchedBy(func(u domain.User) bool {
		return u.Role == domain.RoleRequester
	})).Return(nil).Once()

	created, err := suite.service.CreateUser(ctx, req)

	suite.Require().NoError(err)
	suite.Equal(domain.RoleRequester, created.Role)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestCreateUser_DuplicateUsername() {
	ctx := context.Background()
	req := dto.CreateUserRequest{
		Username: "requester",
		Name:     "Impostor",
		Password: "a-strong-password",
	}

	suite.mockUserRepo.On("CountUsers", ctx).Return(int64(2), nil).Once()
	suite.mockUserRepo.On("SaveUser", ctx, mock.AnythingOfType("domain.User")).Return(apperrors.ErrDuplicate).Once()

	_, err := suite.service.CreateUser(ctx, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

// --- Reads ---

func (suite *UserServiceTestSuite) TestGetUserByID_Success() {
	ctx := context.Background()

	suite.mockUserRepo.On("FindUserByID", ctx, suite.requester.UserID).Return(&suite.requester, nil).Once()

	found, err := suite.service.GetUserByID(ctx, suite.requester.UserID)

	suite.Require().NoError(err)
	suite.Equal(suite.requester.Username, found.Username)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestGetUserByID_NotFound() {
	ctx := context.Background()
	unknownID := uuid.NewString()

	suite.mockUserRepo.On("FindUserByID", ctx, unknownID).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.GetUserByID(ctx, unknownID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *UserServiceTestSuite) TestListUsers_ClampsLimit() {
	ctx := context.Background()

	suite.mockUserRepo.On("FindUsers", ctx, 100, 0).Return([]domain.User{suite.admin}, nil).Once()

	users, err := suite.service.ListUsers(ctx, 500, -3)

	suite.Require().NoError(err)
	suite.Len(users, 1)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestListUsers_NilBecomesEmpty() {
	ctx := context.Background()

	suite.mockUserRepo.On("FindUsers", ctx, 20, 0).Return(nil, nil).Once()

	users, err := suite.service.ListUsers(ctx, 0, 0)

	suite.Require().NoError(err)
	suite.NotNil(users)
	suite.Empty(users)
}

// --- UpdateUser ---

func (suite *UserServiceTestSuite) TestUpdateUser_SelfEdit() {
	ctx := context.Background()
	target := suite.requester
	newName := "Renamed Requester"
	req := dto.UpdateUserRequest{Name: &newName}

	suite.mockUserRepo.On("FindUserByID", ctx, target.UserID).Return(&target, nil).Once()
	suite.mockUserRepo.On("UpdateUser", ctx, mock.MatchedBy(func(u domain.User) bool {
		return u.UserID == target.UserID && u.Name == newName
	})).Return(nil).Once()

	updated, err := suite.service.UpdateUser(ctx, target.UserID, req, target.UserID)

	suite.Require().NoError(err)
	suite.Equal(newName, updated.Name)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestUpdateUser_NonAdminEditingOther() {
	ctx := context.Background()
	newName := "Sneaky Rename"
	req := dto.UpdateUserRequest{Name: &newName}

	suite.mockUserRepo.On("FindUserByID", ctx, suite.requester.UserID).Return(&suite.requester, nil).Once()

	_, err := suite.service.UpdateUser(ctx, suite.admin.UserID, req, suite.requester.UserID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "UpdateUser", mock.Anything, mock.Anything)
}

// --- UpdateUserRole ---

func (suite *UserServiceTestSuite) TestUpdateUserRole_Success() {
	ctx := context.Background()
	target := suite.requester

	suite.mockUserRepo.On("FindUserByID", ctx, suite.admin.UserID).Return(&suite.admin, nil).Once()
	suite.mockUserRepo.On("FindUserByID", ctx, target.UserID).Return(&target, nil).Once()
	suite.mockUserRepo.On("UpdateUserRole", ctx, target.UserID, domain.RoleApprover, suite.admin.UserID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockAuditRepo.On("AppendAudit", ctx, mock.MatchedBy(func(e domain.AuditLogEntry) bool {
		return e.EntityType == domain.AuditEntityUser &&
			e.Action == domain.AuditUserRoleChanged &&
			e.Details["old_role"] == "REQUESTER" &&
			e.Details["new_role"] == "APPROVER"
	})).Return(nil).Once()

	updated, err := suite.service.UpdateUserRole(ctx, target.UserID, domain.RoleApprover, suite.admin.UserID)

	suite.Require().NoError(err)
	suite.Equal(domain.RoleApprover, updated.Role)
	suite.mockUserRepo.AssertExpectations(suite.T())
	suite.mockAuditRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestUpdateUserRole_SameRoleNoOp() {
	ctx := context.Background()
	target := suite.requester

	suite.mockUserRepo.On("FindUserByID", ctx, suite.admin.UserID).Return(&suite.admin, nil).Once()
	suite.mockUserRepo.On("FindUserByID", ctx, target.UserID).Return(&target, nil).Once()

	updated, err := suite.service.UpdateUserRole(ctx, target.UserID, domain.RoleRequester, suite.admin.UserID)

	suite.Require().NoError(err)
	suite.Equal(domain.RoleRequester, updated.Role)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "UpdateUserRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockAuditRepo.AssertNotCalled(suite.T(), "AppendAudit", mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestUpdateUserRole_NonAdminForbidden() {
	ctx := context.Background()

	suite.mockUserRepo.On("FindUserByID", ctx, suite.requester.UserID).Return(&suite.requester, nil).Once()

	_, err := suite.service.UpdateUserRole(ctx, suite.admin.UserID, domain.RoleViewer, suite.requester.UserID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "UpdateUserRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestUpdateUserRole_InvalidRole() {
	ctx := context.Background()

	_, err := suite.service.UpdateUserRole(ctx, suite.requester.UserID, domain.UserRole("SUPERUSER"), suite.admin.UserID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "FindUserByID", mock.Anything, mock.Anything)
}

// --- DisableUser ---

func (suite *UserServiceTestSuite) TestDisableUser_Success() {
	ctx := context.Background()
	target := suite.requester

	suite.mockUserRepo.On("FindUserByID", ctx, suite.admin.UserID).Return(&suite.admin, nil).Once()
	suite.mockUserRepo.On("FindUserByID", ctx, target.UserID).Return(&target, nil).Once()
	suite.mockUserRepo.On("MarkUserDisabled", ctx, target.UserID, mock.AnythingOfType("time.Time"), suite.admin.UserID).Return(nil).Once()
	suite.mockAuditRepo.On("AppendAudit", ctx, mock.MatchedBy(func(e domain.AuditLogEntry) bool {
		return e.Action == domain.AuditUserDisabled && e.EntityID == target.UserID
	})).Return(nil).Once()

	err := suite.service.DisableUser(ctx, target.UserID, suite.admin.UserID)

	suite.Require().NoError(err)
	suite.mockUserRepo.AssertExpectations(suite.T())
	suite.mockAuditRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestDisableUser_SelfNotAllowed() {
	ctx := context.Background()

	err := suite.service.DisableUser(ctx, suite.admin.UserID, suite.admin.UserID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "MarkUserDisabled", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestDisableUser_AlreadyDisabled() {
	ctx := context.Background()
	disabledAt := time.Now().Add(-time.Hour)
	target := suite.requester
	target.DisabledAt = &disabledAt

	suite.mockUserRepo.On("FindUserByID", ctx, suite.admin.UserID).Return(&suite.admin, nil).Once()
	suite.mockUserRepo.On("FindUserByID", ctx, target.UserID).Return(&target, nil).Once()

	err := suite.service.DisableUser(ctx, target.UserID, suite.admin.UserID)

	suite.Require().NoError(err)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "MarkUserDisabled", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockAuditRepo.AssertNotCalled(suite.T(), "AppendAudit", mock.Anything, mock.Anything)
}

// --- AuthenticateUser ---

func (suite *UserServiceTestSuite) TestAuthenticateUser_Success() {
	ctx := context.Background()
	password := "correct-horse-battery"
	hash, err := utils.HashPassword(password)
	suite.Require().NoError(err)
	user := suite.requester
	user.PasswordHash = hash

	suite.mockUserRepo.On("FindUserByUsername", ctx, user.Username).Return(&user, nil).Once()

	authenticated, err := suite.service.AuthenticateUser(ctx, user.Username, password)

	suite.Require().NoError(err)
	suite.Equal(user.UserID, authenticated.UserID)
}

func (suite *UserServiceTestSuite) TestAuthenticateUser_WrongPassword() {
	ctx := context.Background()
	hash, err := utils.HashPassword("the-real-password")
	suite.Require().NoError(err)
	user := suite.requester
	user.PasswordHash = hash

	suite.mockUserRepo.On("FindUserByUsername", ctx, user.Username).Return(&user, nil).Once()

	_, err = suite.service.AuthenticateUser(ctx, user.Username, "a-wrong-guess")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

func (suite *UserServiceTestSuite) TestAuthenticateUser_UnknownUsername() {
	ctx := context.Background()

	suite.mockUserRepo.On("FindUserByUsername", ctx, "nobody").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.AuthenticateUser(ctx, "nobody", "whatever")

	// Unknown usernames and bad passwords are indistinguishable to the caller.
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
	suite.NotErrorIs(err, apperrors.ErrNotFound)
}

func (suite *UserServiceTestSuite) TestAuthenticateUser_DisabledUser() {
	ctx := context.Background()
	password := "correct-horse-battery"
	hash, err := utils.HashPassword(password)
	suite.Require().NoError(err)
	disabledAt := time.Now().Add(-time.Hour)
	user := suite.requester
	user.PasswordHash = hash
	user.DisabledAt = &disabledAt

	suite.mockUserRepo.On("FindUserByUsername", ctx, user.Username).Return(&user, nil).Once()

	_, err = suite.service.AuthenticateUser(ctx, user.Username, password)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

func (suite *UserServiceTestSuite) TestAuthenticateUser_OAuthOnlyUser() {
	ctx := context.Background()
	user := suite.requester
	user.PasswordHash = ""
	user.GoogleID = "google-sub-123"

	suite.mockUserRepo.On("FindUserByUsername", ctx, user.Username).Return(&user, nil).Once()

	_, err := suite.service.AuthenticateUser(ctx, user.Username, "anything")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

// --- FindOrCreateUserByGoogleID ---

func (suite *UserServiceTestSuite) TestFindOrCreateUserByGoogleID_ExistingUser() {
	ctx := context.Background()
	user := suite.requester
	user.GoogleID = "google-sub-456"
	info := &domain.GoogleUserInfo{ID: user.GoogleID, Email: user.Username}

	suite.mockUserRepo.On("FindUserByGoogleID", ctx, user.GoogleID).Return(&user, nil).Once()

	found, err := suite.service.FindOrCreateUserByGoogleID(ctx, info)

	suite.Require().NoError(err)
	suite.Equal(user.UserID, found.UserID)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "SaveUser", mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestFindOrCreateUserByGoogleID_ProvisionsNew() {
	ctx := context.Background()
	info := &domain.GoogleUserInfo{
		ID:    "google-sub-789",
		Email: "newcomer@example.com",
		Name:  "New Comer",
	}

	suite.mockUserRepo.On("FindUserByGoogleID", ctx, info.ID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockUserRepo.On("CountUsers", ctx).Return(int64(5), nil).Once()
	suite.mockUserRepo.On("SaveUser", ctx, mock.MatchedBy(func(u domain.User) bool {
		return u.Username == info.Email &&
			u.GoogleID == info.ID &&
			u.Role == domain.RoleRequester &&
			u.PasswordHash == ""
	})).Return(nil).Once()

	created, err := suite.service.FindOrCreateUserByGoogleID(ctx, info)

	suite.Require().NoError(err)
	suite.Equal(info.Email, created.Username)
	suite.Equal(info.ID, created.GoogleID)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestFindOrCreateUserByGoogleID_UsernameTaken() {
	ctx := context.Background()
	info := &domain.GoogleUserInfo{
		ID:    "google-sub-790",
		Email: "requester",
	}

	suite.mockUserRepo.On("FindUserByGoogleID", ctx, info.ID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockUserRepo.On("CountUsers", ctx).Return(int64(5), nil).Once()
	suite.mockUserRepo.On("SaveUser", ctx, mock.AnythingOfType("domain.User")).Return(apperrors.ErrDuplicate).Once()

	_, err := suite.service.FindOrCreateUserByGoogleID(ctx, info)

	// No silent linking onto the existing local account.
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *UserServiceTestSuite) TestFindOrCreateUserByGoogleID_DisabledUser() {
	ctx := context.Background()
	disabledAt := time.Now().Add(-time.Hour)
	user := suite.requester
	user.GoogleID = "google-sub-791"
	user.DisabledAt = &disabledAt

	suite.mockUserRepo.On("FindUserByGoogleID", ctx, user.GoogleID).Return(&user, nil).Once()

	_, err := suite.service.FindOrCreateUserByGoogleID(ctx, &domain.GoogleUserInfo{ID: user.GoogleID, Email: user.Username})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

func (suite *UserServiceTestSuite) TestFindOrCreateUserByGoogleID_MissingSubject() {
	ctx := context.Background()

	_, err := suite.service.FindOrCreateUserByGoogleID(ctx, &domain.GoogleUserInfo{Email: "x@example.com"})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "FindUserByGoogleID", mock.Anything, mock.Anything)
}

// --- Refresh token passthrough ---

func (suite *UserServiceTestSuite) TestUpdateRefreshToken_RepoError() {
	ctx := context.Background()
	repoErr := assert.AnError
	expiry := time.Now().Add(24 * time.Hour)

	suite.mockUserRepo.On("UpdateRefreshToken", ctx, suite.requester.UserID, "somehash", expiry).Return(repoErr).Once()

	err := suite.service.UpdateRefreshToken(ctx, suite.requester.UserID, "somehash", expiry)

	suite.Require().Error(err)
	suite.Contains(err.Error(), repoErr.Error())
}

// --- Run Test Suite ---
func TestUserService(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
