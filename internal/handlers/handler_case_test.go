package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prtsw/caseflow_backend/internal/apperrors"
	"github.com/prtsw/caseflow_backend/internal/core/domain"
	portssvc "github.com/prtsw/caseflow_backend/internal/core/ports/services"
	"github.com/prtsw/caseflow_backend/internal/dto"
	"github.com/prtsw/caseflow_backend/internal/handlers"
	"github.com/prtsw/caseflow_backend/internal/middleware"
	"github.com/prtsw/caseflow_backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock CaseService ---
type MockCaseService struct {
	mock.Mock
}

func (m *MockCaseService) GetCaseByID(ctx context.Context, caseID string, actor domain.Actor) (*domain.Case, error) {
	args := m.Called(ctx, caseID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Case), args.Error(1)
}
func (m *MockCaseService) GetCaseDetail(ctx context.Context, caseID string, actor domain.Actor) (*dto.CaseDetailResponse, error) {
	args := m.Called(ctx, caseID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CaseDetailResponse), args.Error(1)
}
func (m *MockCaseService) ListCases(ctx context.Context, actor domain.Actor, params dto.ListCasesParams) (*dto.ListCasesResponse, error) {
	args := m.Called(ctx, actor, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListCasesResponse), args.Error(1)
}
func (m *MockCaseService) GetCaseAudit(ctx context.Context, caseID string, actor domain.Actor) ([]domain.AuditLogEntry, error) {
	args := m.Called(ctx, caseID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditLogEntry), args.Error(1)
}
func (m *MockCaseService) CreateCase(ctx context.Context, req dto.CreateCaseRequest, actor domain.Actor) (*domain.Case, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Case), args.Error(1)
}
func (m *MockCaseService) UpdateCase(ctx context.Context, caseID string, req dto.UpdateCaseRequest, actor domain.Actor) (*domain.Case, error) {
	args := m.Called(ctx, caseID, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Case), args.Error(1)
}
func (m *MockCaseService) SubmitCase(ctx context.Context, caseID string, actor domain.Actor) (*domain.Case, error) {
	args := m.Called(ctx, caseID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Case), args.Error(1)
}
func (m *MockCaseService) ApproveCase(ctx context.Context, caseID string, actor domain.Actor) (*domain.Case, *domain.Document, error) {
	args := m.Called(ctx, caseID, actor)
	var c *domain.Case
	var d *domain.Document
	if args.Get(0) != nil {
		c = args.Get(0).(*domain.Case)
	}
	if args.Get(1) != nil {
		d = args.Get(1).(*domain.Document)
	}
	return c, d, args.Error(2)
}
func (m *MockCaseService) RejectCase(ctx context.Context, caseID string, reason string, actor domain.Actor) (*domain.Case, error) {
	args := m.Called(ctx, caseID, reason, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Case), args.Error(1)
}
func (m *MockCaseService) IssueCR(ctx context.Context, caseID string, amount *decimal.Decimal, actor domain.Actor) (*domain.Case, *domain.Document, error) {
	args := m.Called(ctx, caseID, amount, actor)
	var c *domain.Case
	var d *domain.Document
	if args.Get(0) != nil {
		c = args.Get(0).(*domain.Case)
	}
	if args.Get(1) != nil {
		d = args.Get(1).(*domain.Document)
	}
	return c, d, args.Error(2)
}
func (m *MockCaseService) DisburseCase(ctx context.Context, caseID string, amount decimal.Decimal, referenceNo string, actor domain.Actor) (*domain.Case, *domain.Payment, error) {
	args := m.Called(ctx, caseID, amount, referenceNo, actor)
	var c *domain.Case
	var p *domain.Payment
	if args.Get(0) != nil {
		c = args.Get(0).(*domain.Case)
	}
	if args.Get(1) != nil {
		p = args.Get(1).(*domain.Payment)
	}
	return c, p, args.Error(2)
}
func (m *MockCaseService) SubmitSettlement(ctx context.Context, caseID string, actor domain.Actor) (*domain.Case, error) {
	args := m.Called(ctx, caseID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Case), args.Error(1)
}
func (m *MockCaseService) IssueDB(ctx context.Context, caseID string, amount decimal.Decimal, actor domain.Actor) (*domain.Case, *domain.Document, error) {
	args := m.Called(ctx, caseID, amount, actor)
	var c *domain.Case
	var d *domain.Document
	if args.Get(0) != nil {
		c = args.Get(0).(*domain.Case)
	}
	if args.Get(1) != nil {
		d = args.Get(1).(*domain.Document)
	}
	return c, d, args.Error(2)
}
func (m *MockCaseService) CloseCase(ctx context.Context, caseID string, actor domain.Actor) (*domain.Case, error) {
	args := m.Called(ctx, caseID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Case), args.Error(1)
}
func (m *MockCaseService) CancelCase(ctx context.Context, caseID string, reason string, actor domain.Actor) (*domain.Case, error) {
	args := m.Called(ctx, caseID, reason, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Case), args.Error(1)
}
func (m *MockCaseService) AddAttachment(ctx context.Context, caseID string, req dto.AddAttachmentRequest, actor domain.Actor) (*domain.Attachment, error) {
	args := m.Called(ctx, caseID, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attachment), args.Error(1)
}
func (m *MockCaseService) RecordSettlementPayment(ctx context.Context, caseID string, req dto.RecordSettlementPaymentRequest, actor domain.Actor) (*domain.Payment, error) {
	args := m.Called(ctx, caseID, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.CaseSvcFacade = (*MockCaseService)(nil)

// --- Test Suite ---
type CaseHandlerTestSuite struct {
	suite.Suite
	router          *gin.Engine
	mockCaseService *MockCaseService
	jwtSecret       string
}

// generateTestToken creates a signed JWT carrying the given identity.
func (suite *CaseHandlerTestSuite) generateTestToken(userID string, role domain.UserRole) string {
	token, err := utils.GenerateJWT(userID, role.String(), suite.jwtSecret, time.Hour, "cfb-test")
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return token
}

func (suite *CaseHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockCaseService = new(MockCaseService)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterCaseRoutes(v1, suite.mockCaseService)
}

// doJSON performs a request with an optional body and bearer token.
func (suite *CaseHandlerTestSuite) doJSON(method, url string, body any, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Test Cases ---

func (suite *CaseHandlerTestSuite) TestCreateCase_Success() {
	requesterID := uuid.NewString()
	categoryID := uuid.NewString()

	reqBody := dto.CreateCaseRequest{
		CategoryID:      categoryID,
		FundingType:     "OPERATING",
		RequestedAmount: decimal.NewFromInt(1200),
		Purpose:         "Team offsite venue deposit",
	}

	expectedCase := &domain.Case{
		CaseID:          uuid.NewString(),
		CaseNumber:      "CAS-250825-9F21AC",
		CategoryID:      categoryID,
		AccountCode:     "6200",
		RequesterID:     requesterID,
		FundingType:     domain.FundingOperating,
		RequestedAmount: decimal.NewFromInt(1200),
		Purpose:         reqBody.Purpose,
		Status:          domain.StatusDraft,
	}

	suite.mockCaseService.On("CreateCase",
		mock.Anything,
		mock.MatchedBy(func(r dto.CreateCaseRequest) bool {
			return r.CategoryID == categoryID && r.RequestedAmount.Equal(decimal.NewFromInt(1200))
		}),
		domain.Actor{UserID: requesterID, Role: domain.RoleRequester},
	).Return(expectedCase, nil).Once()

	token := suite.generateTestToken(requesterID, domain.RoleRequester)
	w := suite.doJSON(http.MethodPost, "/api/v1/cases", reqBody, token)

	suite.Equal(http.StatusCreated, w.Code)

	var resp dto.CaseResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(expectedCase.CaseID, resp.CaseID)
	suite.Equal("DRAFT", resp.Status)
	suite.Equal("6200", resp.AccountCode)

	suite.mockCaseService.AssertExpectations(suite.T())
}

func (suite *CaseHandlerTestSuite) TestCreateCase_MissingToken() {
	reqBody := dto.CreateCaseRequest{
		CategoryID:      uuid.NewString(),
		FundingType:     "OPERATING",
		RequestedAmount: decimal.NewFromInt(50),
		Purpose:         "Stationery",
	}

	w := suite.doJSON(http.MethodPost, "/api/v1/cases", reqBody, "")

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockCaseService.AssertNotCalled(suite.T(), "CreateCase")
}

func (suite *CaseHandlerTestSuite) TestCreateCase_InvalidFundingType() {
	token := suite.generateTestToken(uuid.NewString(), domain.RoleRequester)
	body := map[string]any{
		"categoryID":      uuid.NewString(),
		"fundingType":     "PETTY_CASH",
		"requestedAmount": "100",
		"purpose":         "Snacks",
	}

	w := suite.doJSON(http.MethodPost, "/api/v1/cases", body, token)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockCaseService.AssertNotCalled(suite.T(), "CreateCase")
}

func (suite *CaseHandlerTestSuite) TestApproveCase_ReturnsDocument() {
	approverID := uuid.NewString()
	caseID := uuid.NewString()

	approvedCase := &domain.Case{
		CaseID:          caseID,
		CaseNumber:      "CAS-250825-0B44D1",
		Status:          domain.StatusPSApproved,
		RequestedAmount: decimal.NewFromInt(900),
	}
	psDoc := &domain.Document{
		DocumentID: uuid.NewString(),
		CaseID:     caseID,
		DocType:    domain.DocTypePS,
		DocNumber:  "PS-2508-0001",
		Amount:     decimal.NewFromInt(900),
	}

	suite.mockCaseService.On("ApproveCase",
		mock.Anything,
		caseID,
		domain.Actor{UserID: approverID, Role: domain.RoleApprover},
	).Return(approvedCase, psDoc, nil).Once()

	token := suite.generateTestToken(approverID, domain.RoleApprover)
	w := suite.doJSON(http.MethodPost, "/api/v1/cases/"+caseID+"/approve", nil, token)

	suite.Equal(http.StatusOK, w.Code)

	var resp dto.TransitionResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("PS_APPROVED", resp.Case.Status)
	suite.Require().NotNil(resp.Document)
	suite.Equal("PS-2508-0001", resp.Document.DocNumber)
	suite.Nil(resp.Payment)

	suite.mockCaseService.AssertExpectations(suite.T())
}

func (suite *CaseHandlerTestSuite) TestSubmitCase_InvalidTransition() {
	requesterID := uuid.NewString()
	caseID := uuid.NewString()

	suite.mockCaseService.On("SubmitCase", mock.Anything, caseID, mock.Anything).
		Return(nil, fmt.Errorf("cannot submit case in status PAID: %w", apperrors.ErrInvalidTransition)).Once()

	token := suite.generateTestToken(requesterID, domain.RoleRequester)
	w := suite.doJSON(http.MethodPost, "/api/v1/cases/"+caseID+"/submit", nil, token)

	suite.Equal(http.StatusConflict, w.Code)
	suite.Contains(w.Body.String(), "cannot submit case in status PAID")

	suite.mockCaseService.AssertExpectations(suite.T())
}

func (suite *CaseHandlerTestSuite) TestApproveCase_ForbiddenRole() {
	caseID := uuid.NewString()

	suite.mockCaseService.On("ApproveCase", mock.Anything, caseID, mock.Anything).
		Return(nil, nil, fmt.Errorf("role REQUESTER may not approve: %w", apperrors.ErrForbidden)).Once()

	token := suite.generateTestToken(uuid.NewString(), domain.RoleRequester)
	w := suite.doJSON(http.MethodPost, "/api/v1/cases/"+caseID+"/approve", nil, token)

	suite.Equal(http.StatusForbidden, w.Code)
	suite.mockCaseService.AssertExpectations(suite.T())
}

func (suite *CaseHandlerTestSuite) TestGetCaseDetail_NotFound() {
	caseID := uuid.NewString()

	suite.mockCaseService.On("GetCaseDetail", mock.Anything, caseID, mock.Anything).
		Return(nil, fmt.Errorf("case %s: %w", caseID, apperrors.ErrNotFound)).Once()

	token := suite.generateTestToken(uuid.NewString(), domain.RoleViewer)
	w := suite.doJSON(http.MethodGet, "/api/v1/cases/"+caseID, nil, token)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.mockCaseService.AssertExpectations(suite.T())
}

func (suite *CaseHandlerTestSuite) TestDisburseCase_Busy() {
	caseID := uuid.NewString()
	body := dto.DisburseRequest{Amount: decimal.NewFromInt(900), ReferenceNo: "TRF-20250825-17"}

	suite.mockCaseService.On("DisburseCase",
		mock.Anything, caseID, mock.Anything, "TRF-20250825-17", mock.Anything,
	).Return(nil, nil, fmt.Errorf("case %s: %w", caseID, apperrors.ErrBusy)).Once()

	token := suite.generateTestToken(uuid.NewString(), domain.RoleDisburser)
	w := suite.doJSON(http.MethodPost, "/api/v1/cases/"+caseID+"/disburse", body, token)

	suite.Equal(http.StatusServiceUnavailable, w.Code)
	suite.mockCaseService.AssertExpectations(suite.T())
}

func (suite *CaseHandlerTestSuite) TestListCases_PassesStatusFilter() {
	viewerID := uuid.NewString()
	status := "SUBMITTED"

	expected := &dto.ListCasesResponse{
		Cases: []dto.CaseResponse{
			{CaseID: uuid.NewString(), CaseNumber: "CAS-250825-A1B2C3", Status: status},
		},
	}

	suite.mockCaseService.On("ListCases",
		mock.Anything,
		domain.Actor{UserID: viewerID, Role: domain.RoleViewer},
		mock.MatchedBy(func(p dto.ListCasesParams) bool {
			return p.Status != nil && *p.Status == status && p.Limit == 20
		}),
	).Return(expected, nil).Once()

	token := suite.generateTestToken(viewerID, domain.RoleViewer)
	w := suite.doJSON(http.MethodGet, "/api/v1/cases?status=SUBMITTED", nil, token)

	suite.Equal(http.StatusOK, w.Code)

	var resp dto.ListCasesResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Cases, 1)
	suite.Equal("CAS-250825-A1B2C3", resp.Cases[0].CaseNumber)

	suite.mockCaseService.AssertExpectations(suite.T())
}

func (suite *CaseHandlerTestSuite) TestRecordSettlementPayment_Created() {
	disburserID := uuid.NewString()
	caseID := uuid.NewString()
	body := dto.RecordSettlementPaymentRequest{Amount: decimal.NewFromInt(150)}

	refund := &domain.Payment{
		PaymentID:   uuid.NewString(),
		CaseID:      caseID,
		PaymentType: domain.PaymentRefund,
		Amount:      decimal.NewFromInt(150),
	}

	suite.mockCaseService.On("RecordSettlementPayment",
		mock.Anything, caseID, mock.Anything,
		domain.Actor{UserID: disburserID, Role: domain.RoleDisburser},
	).Return(refund, nil).Once()

	token := suite.generateTestToken(disburserID, domain.RoleDisburser)
	w := suite.doJSON(http.MethodPost, "/api/v1/cases/"+caseID+"/settlement-payments", body, token)

	suite.Equal(http.StatusCreated, w.Code)

	var resp dto.PaymentResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("REFUND", resp.PaymentType)

	suite.mockCaseService.AssertExpectations(suite.T())
}

// --- Run Test Suite ---
func TestCaseHandler(t *testing.T) {
	suite.Run(t, new(CaseHandlerTestSuite))
}
