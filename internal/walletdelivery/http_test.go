package walletdelivery

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pulapay/pulapay/internal/domain"
	"github.com/pulapay/pulapay/internal/middleware"
	"github.com/pulapay/pulapay/pkg/randompkg"
	"github.com/pulapay/pulapay/pkg/tokenpkg"
)

func newTestServer(t *testing.T, service Service, tokenMaker tokenpkg.Maker) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	handler := NewHandler(service)

	server := gin.New()
	server.Use(middleware.AuthMiddleware(tokenMaker))
	server.POST("/wallets", handler.Create)
	server.GET("/wallets/balance", handler.Balances)
	server.POST("/wallets/payments", handler.Transfer)

	return server
}

func TestCreateWalletAPI(t *testing.T) {
	testUsername := randompkg.Owner()

	tokenMaker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := NewMockService(ctrl)
	service.EXPECT().GetOrCreate(gomock.Any(), gomock.Eq(testUsername)).
		Times(1).
		Return(domain.StellarWallet{
			ID:        1,
			Owner:     testUsername,
			PublicKey: "GAIH3ULLFQ4DGSECF2AR555KZ4KNDGEKN4AFI4SU2M7B43MGK3QJZNSR",
			Active:    true,
		}, nil)

	server := newTestServer(t, service, tokenMaker)

	request, err := http.NewRequest(http.MethodPost, "/wallets", nil)
	require.NoError(t, err)
	middleware.AddAuthorization(t, request, tokenMaker, middleware.AuthTypeBearer, testUsername, time.Minute)

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "public_key")
	require.NotContains(t, recorder.Body.String(), "encrypted_seed")
}

func TestWalletBalancesAPI(t *testing.T) {
	testUsername := randompkg.Owner()

	tokenMaker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
	require.NoError(t, err)

	testCases := []struct {
		name       string
		buildStubs func(service *MockService)
		wantCode   int
	}{
		{
			name: "OK",
			buildStubs: func(service *MockService) {
				service.EXPECT().Balances(gomock.Any(), gomock.Eq(testUsername)).
					Times(1).
					Return([]domain.AssetBalance{{Asset: "XLM", Balance: "42.0000000"}}, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name: "NoWallet",
			buildStubs: func(service *MockService) {
				service.EXPECT().Balances(gomock.Any(), gomock.Eq(testUsername)).
					Times(1).
					Return(nil, domain.ErrWalletNotFound)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "NotFundedYet",
			buildStubs: func(service *MockService) {
				service.EXPECT().Balances(gomock.Any(), gomock.Eq(testUsername)).
					Times(1).
					Return(nil, domain.ErrExternalAccountNotFunded)
			},
			wantCode: http.StatusConflict,
		},
		{
			name: "NetworkUnavailable",
			buildStubs: func(service *MockService) {
				service.EXPECT().Balances(gomock.Any(), gomock.Eq(testUsername)).
					Times(1).
					Return(nil, domain.ErrExternalNetworkUnavailable)
			},
			wantCode: http.StatusServiceUnavailable,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := NewMockService(ctrl)
			tc.buildStubs(service)

			server := newTestServer(t, service, tokenMaker)

			request, err := http.NewRequest(http.MethodGet, "/wallets/balance", nil)
			require.NoError(t, err)
			middleware.AddAuthorization(t, request, tokenMaker, middleware.AuthTypeBearer, testUsername, time.Minute)

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, request)

			require.Equal(t, tc.wantCode, recorder.Code)
		})
	}
}

func TestTransferAPI(t *testing.T) {
	testUsername := randompkg.Owner()
	testKey := randompkg.IdempotencyKey()
	destination := "GAIH3ULLFQ4DGSECF2AR555KZ4KNDGEKN4AFI4SU2M7B43MGK3QJZNSR"

	tokenMaker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
	require.NoError(t, err)

	okBody := gin.H{
		"destination": destination,
		"amount":      "25.50",
	}

	testCases := []struct {
		name           string
		requestBody    gin.H
		idempotencyKey string
		buildStubs     func(service *MockService)
		wantCode       int
		wantState      domain.ExternalTransferState
	}{
		{
			name:           "OK",
			requestBody:    okBody,
			idempotencyKey: testKey,
			buildStubs: func(service *MockService) {
				service.EXPECT().Transfer(gomock.Any(), gomock.Eq(testUsername), gomock.Eq(destination), gomock.Eq("25.50"), gomock.Any(), gomock.Eq(testKey)).
					Times(1).
					Return(domain.PaymentResult{
						Transaction: domain.Transaction{
							ID:     1,
							Status: domain.StatusCompleted,
						},
					}, nil)
			},
			wantCode:  http.StatusOK,
			wantState: domain.TransferConfirmed,
		},
		{
			name:           "UnresolvedSubmitReportsSubmitted",
			requestBody:    okBody,
			idempotencyKey: testKey,
			buildStubs: func(service *MockService) {
				service.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.PaymentResult{
						Transaction: domain.Transaction{
							ID:     1,
							Status: domain.StatusPending,
						},
					}, nil)
			},
			wantCode:  http.StatusOK,
			wantState: domain.TransferSubmitted,
		},
		{
			name:           "MissingIdempotencyKey",
			requestBody:    okBody,
			idempotencyKey: "",
			buildStubs: func(service *MockService) {
				service.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name:           "MissingDestination",
			requestBody:    gin.H{"amount": "25.50"},
			idempotencyKey: testKey,
			buildStubs: func(service *MockService) {
				service.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name:           "InvalidDestination",
			requestBody:    gin.H{"destination": "nope", "amount": "25.50"},
			idempotencyKey: testKey,
			buildStubs: func(service *MockService) {
				service.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.PaymentResult{}, domain.ErrInvalidDestinationAddress)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name:           "InsufficientExternalBalance",
			requestBody:    okBody,
			idempotencyKey: testKey,
			buildStubs: func(service *MockService) {
				service.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.PaymentResult{}, domain.ErrInsufficientExternalBalance)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name:           "NoWallet",
			requestBody:    okBody,
			idempotencyKey: testKey,
			buildStubs: func(service *MockService) {
				service.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.PaymentResult{}, domain.ErrWalletNotFound)
			},
			wantCode: http.StatusNotFound,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := NewMockService(ctrl)
			tc.buildStubs(service)

			server := newTestServer(t, service, tokenMaker)

			body, err := json.Marshal(tc.requestBody)
			require.NoError(t, err)

			request, err := http.NewRequest(http.MethodPost, "/wallets/payments", bytes.NewReader(body))
			require.NoError(t, err)

			if tc.idempotencyKey != "" {
				request.Header.Set(idempotencyKeyHeader, tc.idempotencyKey)
			}

			middleware.AddAuthorization(t, request, tokenMaker, middleware.AuthTypeBearer, testUsername, time.Minute)

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, request)

			require.Equal(t, tc.wantCode, recorder.Code)

			if tc.wantState != "" {
				require.Contains(t, recorder.Body.String(), `"state":"`+string(tc.wantState)+`"`)
			}
		})
	}
}
