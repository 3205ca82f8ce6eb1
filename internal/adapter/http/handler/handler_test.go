package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"yield-wallet/internal/adapter/http/dto"
	"yield-wallet/internal/adapter/http/middleware"
	"yield-wallet/internal/core/domain"
	"yield-wallet/internal/core/ports"
	"yield-wallet/internal/core/ports/mocks"
	"yield-wallet/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func jsonRequest(method, target string, body any) *http.Request {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// authedContext builds a test context with an authenticated owner, the way
// JWTAuth leaves it after validating a token.
func authedContext(w *httptest.ResponseRecorder, ownerID uuid.UUID, req *http.Request) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(middleware.CtxUserID, ownerID)
	return c
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "expected data envelope, got %s", w.Body.String())
	return data
}

// --- Auth Handler Tests ---

func TestRegister_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	userID := uuid.New()
	walletID := uuid.New()
	mockAuth.EXPECT().Register(gomock.Any(), "alice@example.com", "password123").Return(&ports.RegisterResult{
		User:       &domain.User{ID: userID, Email: "alice@example.com"},
		WalletID:   walletID,
		CardNumber: "4111111111111111",
		CardLast4:  "1111",
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})

	h.Register(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, userID.String(), data["user_id"])
	assert.Equal(t, walletID.String(), data["wallet_id"])
	assert.Equal(t, "4111111111111111", data["card_number"])
	assert.Equal(t, "1111", data["card_last4"])
}

func TestRegister_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewAuthHandler(mocks.NewMockAuthService(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
		Email:    "not-an-email",
		Password: "short",
	})

	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, apperror.ErrEmailExists())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
		Email:    "taken@example.com",
		Password: "password123",
	})

	h.Register(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "AUTH_003", resp["error_code"])
}

func TestLogin_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	expiry := time.Now().Add(time.Hour)
	mockAuth.EXPECT().Login(gomock.Any(), "alice@example.com", "password123").
		Return("token-abc", expiry, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})

	h.Login(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "token-abc", data["token"])
	assert.Equal(t, float64(expiry.Unix()), data["expiry"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", time.Time{}, apperror.ErrUnauthorized())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})

	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Wallet Handler Tests ---

func TestWalletGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	ownerID := uuid.New()
	walletID := uuid.New()
	mockWallet.EXPECT().Snapshot(gomock.Any(), ownerID).Return(&ports.WalletSnapshot{
		WalletID:       walletID,
		Balance:        100,
		Shares:         50,
		ExchangeRate:   1.1,
		StakedValue:    55,
		TotalAvailable: 155,
		Currency:       "USD",
	}, nil)

	w := httptest.NewRecorder()
	c := authedContext(w, ownerID, jsonRequest(http.MethodGet, "/api/v1/wallet", nil))

	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, walletID.String(), data["wallet_id"])
	assert.Equal(t, 155.0, data["total_available"])
}

func TestWalletGet_Unauthenticated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewWalletHandler(mocks.NewMockWalletService(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodGet, "/api/v1/wallet", nil)

	h.Get(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTopup_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	ownerID := uuid.New()
	mockWallet.EXPECT().Topup(gomock.Any(), ownerID, 250.0, "USD").Return(&ports.CreditResult{
		Entry:        &domain.LedgerEntry{ID: uuid.New(), Amount: 250, Kind: domain.LedgerKindTopup},
		Staked:       true,
		SharesIssued: 200,
		Wallet:       &ports.WalletSnapshot{WalletID: uuid.New(), Shares: 200},
	}, nil)

	w := httptest.NewRecorder()
	c := authedContext(w, ownerID, jsonRequest(http.MethodPost, "/api/v1/wallet/topup", dto.TopupRequest{
		Amount:   250,
		Currency: "USD",
	}))

	h.Topup(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, true, data["staked"])
	assert.Equal(t, 200.0, data["shares_issued"])
}

func TestTopup_RejectsNonPositiveAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewWalletHandler(mocks.NewMockWalletService(ctrl))

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), jsonRequest(http.MethodPost, "/api/v1/wallet/topup", map[string]any{
		"amount": -5,
	}))

	h.Topup(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTopup_RejectsBadCurrency(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewWalletHandler(mocks.NewMockWalletService(ctrl))

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), jsonRequest(http.MethodPost, "/api/v1/wallet/topup", map[string]any{
		"amount":   100,
		"currency": "usd",
	}))

	h.Topup(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetAutoStake_RequiresExplicitFlag(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewWalletHandler(mocks.NewMockWalletService(ctrl))

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), jsonRequest(http.MethodPut, "/api/v1/wallet/autostake", map[string]any{}))

	h.SetAutoStake(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetAutoStake_Disable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	ownerID := uuid.New()
	mockWallet.EXPECT().SetAutoStake(gomock.Any(), ownerID, false).
		Return(&domain.WalletAccount{OwnerID: ownerID, AutoStakeEnabled: false}, nil)

	w := httptest.NewRecorder()
	c := authedContext(w, ownerID, jsonRequest(http.MethodPut, "/api/v1/wallet/autostake", map[string]any{
		"enabled": false,
	}))

	h.SetAutoStake(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, false, data["auto_stake_enabled"])
}

func TestLedger_PassesLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	ownerID := uuid.New()
	mockWallet.EXPECT().Ledger(gomock.Any(), ownerID, 25).Return([]domain.LedgerEntry{
		{ID: uuid.New(), Kind: domain.LedgerKindTopup, Amount: 100},
		{ID: uuid.New(), Kind: domain.LedgerKindPurchase, Amount: -40},
	}, nil)

	w := httptest.NewRecorder()
	c := authedContext(w, ownerID, httptest.NewRequest(http.MethodGet, "/api/v1/wallet/ledger?limit=25", nil))

	h.Ledger(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, 2.0, data["count"])
}

// --- POS Handler Tests ---

func TestAuthorize_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPurchase := mocks.NewMockPurchaseService(ctrl)
	h := NewPOSHandler(mockPurchase)

	ownerID := uuid.New()
	merchantID := uuid.New()
	mockPurchase.EXPECT().Authorize(gomock.Any(), ports.AuthorizeRequest{
		OwnerID:    ownerID,
		CardNumber: "4111111111111111",
		MerchantID: merchantID,
		Amount:     49.99,
		Currency:   "USD",
	}).Return(&ports.AuthorizeResult{
		AuthorizationID: "AUTH-1",
		CaptureStatus:   "CAPTURED",
		SettlementAmt:   49.99,
		Wallet:          &ports.WalletSnapshot{},
	}, nil)

	w := httptest.NewRecorder()
	c := authedContext(w, ownerID, jsonRequest(http.MethodPost, "/api/v1/pos/authorize", dto.AuthorizeRequest{
		CardNumber: "4111111111111111",
		MerchantID: merchantID.String(),
		Amount:     49.99,
		Currency:   "USD",
	}))

	h.Authorize(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "AUTH-1", data["authorization_id"])
	assert.Equal(t, "CAPTURED", data["capture_status"])
}

func TestAuthorize_RejectsMalformedCard(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewPOSHandler(mocks.NewMockPurchaseService(ctrl))

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), jsonRequest(http.MethodPost, "/api/v1/pos/authorize", map[string]any{
		"card_number": "4111",
		"merchant_id": uuid.New().String(),
		"amount":      10,
	}))

	h.Authorize(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthorize_InsufficientFundsDetail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPurchase := mocks.NewMockPurchaseService(ctrl)
	h := NewPOSHandler(mockPurchase)

	mockPurchase.EXPECT().Authorize(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrInsufficientFunds(10, 5, 100))

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), jsonRequest(http.MethodPost, "/api/v1/pos/authorize", dto.AuthorizeRequest{
		CardNumber: "4111111111111111",
		MerchantID: uuid.New().String(),
		Amount:     100,
	}))

	h.Authorize(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "FUND_001", resp["error_code"])
	detail := resp["detail"].(map[string]interface{})
	assert.Equal(t, 10.0, detail["balance"])
	assert.Equal(t, 5.0, detail["staked_amount"])
	assert.Equal(t, 100.0, detail["required"])
}

func TestRefund_FullAmountOmitted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPurchase := mocks.NewMockPurchaseService(ctrl)
	h := NewPOSHandler(mockPurchase)

	ownerID := uuid.New()
	txID := uuid.New()
	mockPurchase.EXPECT().Refund(gomock.Any(), ports.RefundRequest{
		OwnerID:       ownerID,
		TransactionID: txID,
		Amount:        nil,
	}).Return(&ports.RefundResult{Amount: 100}, nil)

	w := httptest.NewRecorder()
	c := authedContext(w, ownerID, jsonRequest(http.MethodPost, "/api/v1/pos/refund", dto.RefundRequest{
		TransactionID: txID.String(),
	}))

	h.Refund(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, 100.0, data["amount"])
}

func TestRefund_InvalidTransactionID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewPOSHandler(mocks.NewMockPurchaseService(ctrl))

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), jsonRequest(http.MethodPost, "/api/v1/pos/refund", map[string]any{
		"transaction_id": "not-a-uuid",
	}))

	h.Refund(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Mission Handler Tests ---

func TestEnroll_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockMission := mocks.NewMockMissionService(ctrl)
	h := NewMissionHandler(mockMission)

	ownerID := uuid.New()
	missionID := uuid.New()
	mockMission.EXPECT().Enroll(gomock.Any(), ownerID, missionID).
		Return(&domain.UserMissionProgress{OwnerID: ownerID, MissionID: missionID}, nil)

	w := httptest.NewRecorder()
	c := authedContext(w, ownerID, jsonRequest(http.MethodPost, "/api/v1/missions/enroll", dto.EnrollRequest{
		MissionID: missionID.String(),
	}))

	h.Enroll(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, missionID.String(), data["mission_id"])
}

func TestEnroll_UnknownMission(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockMission := mocks.NewMockMissionService(ctrl)
	h := NewMissionHandler(mockMission)

	mockMission.EXPECT().Enroll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrNotFound("mission"))

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), jsonRequest(http.MethodPost, "/api/v1/missions/enroll", dto.EnrollRequest{
		MissionID: uuid.New().String(),
	}))

	h.Enroll(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMissionList_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockMission := mocks.NewMockMissionService(ctrl)
	h := NewMissionHandler(mockMission)

	ownerID := uuid.New()
	mockMission.EXPECT().ListEnrollments(gomock.Any(), ownerID).Return([]ports.EnrollmentView{
		{Mission: &domain.Mission{ID: uuid.New(), Name: "Spend $100"}, Progress: &domain.UserMissionProgress{}},
	}, nil)

	w := httptest.NewRecorder()
	c := authedContext(w, ownerID, httptest.NewRequest(http.MethodGet, "/api/v1/missions", nil))

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, 1.0, data["count"])
}

// --- Yield Handler Tests ---

func TestPoolStats_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockYield := mocks.NewMockYieldService(ctrl)
	h := NewYieldHandler(mockYield)

	mockYield.EXPECT().PoolStats(gomock.Any()).Return(&ports.PoolStats{
		APRRate:      0.05,
		ExchangeRate: 1.02,
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/yield/pool", nil)

	h.Stats(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, 0.05, data["apr_rate"])
	assert.Equal(t, 1.02, data["exchange_rate"])
}

func TestAccrue_EmptyBodyUsesNow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockYield := mocks.NewMockYieldService(ctrl)
	h := NewYieldHandler(mockYield)

	before := time.Now().UTC()
	mockYield.EXPECT().Accrue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, now time.Time) (*ports.AccrualResult, error) {
			assert.False(t, now.Before(before))
			return &ports.AccrualResult{ExchangeRate: 1.01, AccruedAt: now}, nil
		})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/yield/accrue", nil)

	h.Accrue(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAccrue_PinnedTimestamp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockYield := mocks.NewMockYieldService(ctrl)
	h := NewYieldHandler(mockYield)

	pinned := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mockYield.EXPECT().Accrue(gomock.Any(), pinned).
		Return(&ports.AccrualResult{ExchangeRate: 1.05, AccruedAt: pinned}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/api/v1/yield/accrue", dto.AccrueRequest{Now: &pinned})

	h.Accrue(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetAPR_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockYield := mocks.NewMockYieldService(ctrl)
	h := NewYieldHandler(mockYield)

	gomock.InOrder(
		mockYield.EXPECT().SetAPR(gomock.Any(), 0.08).Return(nil),
		mockYield.EXPECT().PoolStats(gomock.Any()).Return(&ports.PoolStats{APRRate: 0.08}, nil),
	)

	apr := 0.08
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPut, "/api/v1/yield/apr", dto.SetAPRRequest{APR: &apr})

	h.SetAPR(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, 0.08, data["apr_rate"])
}

func TestSetAPR_RejectsOutOfRange(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewYieldHandler(mocks.NewMockYieldService(ctrl))

	apr := 1.5
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPut, "/api/v1/yield/apr", dto.SetAPRRequest{APR: &apr})

	h.SetAPR(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Router-level Tests ---

func routerForTest(t *testing.T, ctrl *gomock.Controller) (*gin.Engine, *mocks.MockTokenService, *mocks.MockWalletService) {
	t.Helper()
	tokenSvc := mocks.NewMockTokenService(ctrl)
	walletSvc := mocks.NewMockWalletService(ctrl)
	router := SetupRouter(RouterDeps{
		AuthSvc:     mocks.NewMockAuthService(ctrl),
		WalletSvc:   walletSvc,
		PurchaseSvc: mocks.NewMockPurchaseService(ctrl),
		MissionSvc:  mocks.NewMockMissionService(ctrl),
		YieldSvc:    mocks.NewMockYieldService(ctrl),
		TokenSvc:    tokenSvc,
	})
	return router, tokenSvc, walletSvc
}

func TestRouter_ProtectedRouteRequiresToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, _, _ := routerForTest(t, ctrl)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_ValidTokenReachesHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, tokenSvc, walletSvc := routerForTest(t, ctrl)

	ownerID := uuid.New()
	tokenSvc.EXPECT().Validate("good-token").Return(&ports.TokenClaims{UserID: ownerID}, nil)
	walletSvc.EXPECT().Snapshot(gomock.Any(), ownerID).Return(&ports.WalletSnapshot{WalletID: uuid.New()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_InvalidTokenRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, tokenSvc, _ := routerForTest(t, ctrl)

	tokenSvc.EXPECT().Validate("bad-token").Return(nil, errors.New("token is malformed"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	req.Header.Set("Authorization", "Bearer bad-token")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_HealthEndpoint(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, _, _ := routerForTest(t, ctrl)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}
