package services_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
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
)

// --- Mock APITokenRepository ---
type MockAPITokenRepository struct {
	mock.Mock
}

var _ portsrepo.APITokenRepository = (*MockAPITokenRepository)(nil)

func (m *MockAPITokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAPITokenRepository) FindByID(ctx context.Context, id string) (*domain.APIToken, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIToken), args.Error(1)
}

func (m *MockAPITokenRepository) FindByUserID(ctx context.Context, userID string) ([]domain.APIToken, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.APIToken), args.Error(1)
}

func (m *MockAPITokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.APIToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIToken), args.Error(1)
}

func (m *MockAPITokenRepository) Update(ctx context.Context, token *domain.APIToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAPITokenRepository) Revoke(ctx context.Context, id string, revokedAt time.Time) error {
	args := m.Called(ctx, id, revokedAt)
	return args.Error(0)
}

func (m *MockAPITokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock UserService (as consumed by the token service) ---
type MockUserService struct {
	mock.Mock
}

var _ portssvc.UserSvcFacade = (*MockUserService)(nil)

func (m *MockUserService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserService) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, userID string, req dto.UpdateUserRequest, requestingUserID string) (*domain.User, error) {
	args := m.Called(ctx, userID, req, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) UpdateUserRole(ctx context.Context, userID string, role domain.UserRole, requestingUserID string) (*domain.User, error) {
	args := m.Called(ctx, userID, role, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) UpdateRefreshToken(ctx context.Context, userID string, refreshTokenHash string, refreshTokenExpiryTime time.Time) error {
	args := m.Called(ctx, userID, refreshTokenHash, refreshTokenExpiryTime)
	return args.Error(0)
}

func (m *MockUserService) ClearRefreshToken(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserService) DisableUser(ctx context.Context, userID string, requestingUserID string) error {
	args := m.Called(ctx, userID, requestingUserID)
	return args.Error(0)
}

func (m *MockUserService) AuthenticateUser(ctx context.Context, username, password string) (*domain.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) FindOrCreateUserByGoogleID(ctx context.Context, info *domain.GoogleUserInfo) (*domain.User, error) {
	args := m.Called(ctx, info)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// sha256Hex mirrors how stored token hashes are derived, so tests can pin the
// lookup key from the outside.
func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// --- Test Suite Setup ---
type APITokenServiceTestSuite struct {
	suite.Suite
	mockTokenRepo *MockAPITokenRepository
	mockUserSvc   *MockUserService
	service       portssvc.APITokenSvc
	user          domain.User
}

func (suite *APITokenServiceTestSuite) SetupTest() {
	suite.mockTokenRepo = new(MockAPITokenRepository)
	suite.mockUserSvc = new(MockUserService)
	suite.service = services.NewAPITokenService(suite.mockTokenRepo, suite.mockUserSvc)

	suite.user = domain.User{
		UserID:   uuid.NewString(),
		Username: "renderer",
		Name:     "Document Renderer",
		Role:     domain.RoleIssuer,
	}
}

// --- CreateToken ---

func (suite *APITokenServiceTestSuite) TestCreateToken_Success() {
	ctx := context.Background()
	var stored *domain.APIToken

	suite.mockTokenRepo.On("Create", ctx, mock.AnythingOfType("*domain.APIToken")).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*domain.APIToken)
	}).Return(nil).Once()

	plaintext, token, err := suite.service.CreateToken(ctx, suite.user.UserID, "renderer-callback", nil)

	suite.Require().NoError(err)
	suite.True(strings.HasPrefix(plaintext, "cfb_"))
	suite.Require().NotNil(stored)
	suite.Equal(sha256Hex(plaintext), stored.TokenHash)
	suite.NotEqual(plaintext, stored.TokenHash)
	suite.Nil(token.ExpiresAt)
	suite.Equal(suite.user.UserID, token.UserID)
	suite.mockTokenRepo.AssertExpectations(suite.T())
}

func (suite *APITokenServiceTestSuite) TestCreateToken_WithExpiry() {
	ctx := context.Background()
	expiresIn := 24 * time.Hour

	suite.mockTokenRepo.On("Create", ctx, mock.AnythingOfType("*domain.APIToken")).Return(nil).Once()

	_, token, err := suite.service.CreateToken(ctx, suite.user.UserID, "short lived", &expiresIn)

	suite.Require().NoError(err)
	suite.Require().NotNil(token.ExpiresAt)
	suite.WithinDuration(time.Now().Add(expiresIn), *token.ExpiresAt, time.Minute)
}

func (suite *APITokenServiceTestSuite) TestCreateToken_MissingName() {
	ctx := context.Background()

	_, _, err := suite.service.CreateToken(ctx, suite.user.UserID, "", nil)

	suite.Require().Error(err)
	suite.mockTokenRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

// --- ListTokens ---

func (suite *APITokenServiceTestSuite) TestListTokens_NilBecomesEmpty() {
	ctx := context.Background()

	suite.mockTokenRepo.On("FindByUserID", ctx, suite.user.UserID).Return(nil, nil).Once()

	tokens, err := suite.service.ListTokens(ctx, suite.user.UserID)

	suite.Require().NoError(err)
	suite.NotNil(tokens)
	suite.Empty(tokens)
}

// --- RevokeToken ---

func (suite *APITokenServiceTestSuite) TestRevokeToken_Success() {
	ctx := context.Background()
	token := &domain.APIToken{
		ID:     uuid.NewString(),
		UserID: suite.user.UserID,
		Name:   "old token",
	}

	suite.mockTokenRepo.On("FindByID", ctx, token.ID).Return(token, nil).Once()
	suite.mockTokenRepo.On("Revoke", ctx, token.ID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.RevokeToken(ctx, suite.user.UserID, token.ID)

	suite.Require().NoError(err)
	suite.mockTokenRepo.AssertExpectations(suite.T())
}

func (suite *APITokenServiceTestSuite) TestRevokeToken_OtherUsersToken() {
	ctx := context.Background()
	token := &domain.APIToken{
		ID:     uuid.NewString(),
		UserID: uuid.NewString(), // someone else's
		Name:   "not yours",
	}

	suite.mockTokenRepo.On("FindByID", ctx, token.ID).Return(token, nil).Once()

	err := suite.service.RevokeToken(ctx, suite.user.UserID, token.ID)

	// Reads as not-found so token IDs cannot be probed across users.
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockTokenRepo.AssertNotCalled(suite.T(), "Revoke", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *APITokenServiceTestSuite) TestRevokeToken_AlreadyRevoked() {
	ctx := context.Background()
	revokedAt := time.Now().Add(-time.Hour)
	token := &domain.APIToken{
		ID:        uuid.NewString(),
		UserID:    suite.user.UserID,
		RevokedAt: &revokedAt,
	}

	suite.mockTokenRepo.On("FindByID", ctx, token.ID).Return(token, nil).Once()

	err := suite.service.RevokeToken(ctx, suite.user.UserID, token.ID)

	suite.Require().NoError(err)
	suite.mockTokenRepo.AssertNotCalled(suite.T(), "Revoke", mock.Anything, mock.Anything, mock.Anything)
}

// --- ValidateToken ---

func (suite *APITokenServiceTestSuite) TestValidateToken_Success() {
	ctx := context.Background()
	plaintext := "cfb_fixed-test-token"
	token := &domain.APIToken{
		ID:        uuid.NewString(),
		UserID:    suite.user.UserID,
		Name:      "renderer-callback",
		TokenHash: sha256Hex(plaintext),
	}

	// The lookup key must be the deterministic digest of the presented token.
	suite.mockTokenRepo.On("FindByTokenHash", ctx, sha256Hex(plaintext)).Return(token, nil).Once()
	suite.mockTokenRepo.On("Update", ctx, mock.MatchedBy(func(t *domain.APIToken) bool {
		return t.ID == token.ID && t.LastUsedAt != nil
	})).Return(nil).Once()
	suite.mockUserSvc.On("GetUserByID", ctx, suite.user.UserID).Return(&suite.user, nil).Once()

	user, err := suite.service.ValidateToken(ctx, plaintext)

	suite.Require().NoError(err)
	suite.Equal(suite.user.UserID, user.UserID)
	suite.mockTokenRepo.AssertExpectations(suite.T())
	suite.mockUserSvc.AssertExpectations(suite.T())
}

func (suite *APITokenServiceTestSuite) TestValidateToken_UnknownToken() {
	ctx := context.Background()

	suite.mockTokenRepo.On("FindByTokenHash", ctx, mock.AnythingOfType("string")).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.ValidateToken(ctx, "cfb_never-issued")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

func (suite *APITokenServiceTestSuite) TestValidateToken_Revoked() {
	ctx := context.Background()
	revokedAt := time.Now().Add(-time.Minute)
	token := &domain.APIToken{
		ID:        uuid.NewString(),
		UserID:    suite.user.UserID,
		RevokedAt: &revokedAt,
	}

	suite.mockTokenRepo.On("FindByTokenHash", ctx, mock.AnythingOfType("string")).Return(token, nil).Once()

	_, err := suite.service.ValidateToken(ctx, "cfb_revoked-token")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
	suite.mockUserSvc.AssertNotCalled(suite.T(), "GetUserByID", mock.Anything, mock.Anything)
}

func (suite *APITokenServiceTestSuite) TestValidateToken_Expired() {
	ctx := context.Background()
	expiredAt := time.Now().Add(-time.Minute)
	token := &domain.APIToken{
		ID:        uuid.NewString(),
		UserID:    suite.user.UserID,
		ExpiresAt: &expiredAt,
	}

	suite.mockTokenRepo.On("FindByTokenHash", ctx, mock.AnythingOfType("string")).Return(token, nil).Once()

	_, err := suite.service.ValidateToken(ctx, "cfb_expired-token")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

func (suite *APITokenServiceTestSuite) TestValidateToken_DisabledIssuer() {
	ctx := context.Background()
	disabledAt := time.Now().Add(-time.Hour)
	disabledUser := suite.user
	disabledUser.DisabledAt = &disabledAt
	token := &domain.APIToken{
		ID:     uuid.NewString(),
		UserID: disabledUser.UserID,
	}

	suite.mockTokenRepo.On("FindByTokenHash", ctx, mock.AnythingOfType("string")).Return(token, nil).Once()
	suite.mockTokenRepo.On("Update", ctx, mock.AnythingOfType("*domain.APIToken")).Return(nil).Once()
	suite.mockUserSvc.On("GetUserByID", ctx, disabledUser.UserID).Return(&disabledUser, nil).Once()

	_, err := suite.service.ValidateToken(ctx, "cfb_orphaned-token")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

func (suite *APITokenServiceTestSuite) TestValidateToken_LastUsedUpdateBestEffort() {
	ctx := context.Background()
	token := &domain.APIToken{
		ID:     uuid.NewString(),
		UserID: suite.user.UserID,
	}

	suite.mockTokenRepo.On("FindByTokenHash", ctx, mock.AnythingOfType("string")).Return(token, nil).Once()
	suite.mockTokenRepo.On("Update", ctx, mock.AnythingOfType("*domain.APIToken")).Return(assert.AnError).Once()
	suite.mockUserSvc.On("GetUserByID", ctx, suite.user.UserID).Return(&suite.user, nil).Once()

	user, err := suite.service.ValidateToken(ctx, "cfb_still-valid")

	// A failed last-used write never blocks validation.
	suite.Require().NoError(err)
	suite.Equal(suite.user.UserID, user.UserID)
}

// --- Run Test Suite ---
func TestAPITokenService(t *testing.T) {
	suite.Run(t, new(APITokenServiceTestSuite))
}
