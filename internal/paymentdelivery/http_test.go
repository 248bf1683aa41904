package paymentdelivery

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
	"github.com/pulapay/pulapay/pkg/errorspkg"
	"github.com/pulapay/pulapay/pkg/randompkg"
	"github.com/pulapay/pulapay/pkg/tokenpkg"
)

func newTestServer(t *testing.T, service Service, tokenMaker tokenpkg.Maker) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	handler := NewHandler(service)

	server := gin.New()
	server.Use(middleware.AuthMiddleware(tokenMaker))
	server.POST("/payments", handler.Create)
	server.POST("/payments/load", handler.Load)
	server.GET("/transactions", handler.List)

	return server
}

func TestCreatePaymentAPI(t *testing.T) {
	testUsername := randompkg.Owner()
	testKey := randompkg.IdempotencyKey()

	tokenMaker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
	require.NoError(t, err)

	okBody := gin.H{
		"type":         "send",
		"amount":       "30.00",
		"counterparty": "+26771234567",
		"rail":         "wallet",
	}

	okResult := domain.PaymentResult{
		Transaction: domain.Transaction{
			ID:           1,
			Owner:        testUsername,
			Type:         domain.TypeSend,
			Amount:       "-30.00",
			Counterparty: "+26771234567",
			Rail:         domain.RailWallet,
			Status:       domain.StatusCompleted,
		},
		Account: domain.Account{
			ID:      1,
			Owner:   testUsername,
			Balance: "70.00",
		},
	}

	testCases := []struct {
		name           string
		requestBody    gin.H
		idempotencyKey string
		setupAuth      func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker)
		buildStubs     func(service *MockService)
		checkResponse  func(recorder *httptest.ResponseRecorder)
	}{
		{
			name:           "OK",
			requestBody:    okBody,
			idempotencyKey: testKey,
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
				middleware.AddAuthorization(t, request, tokenMaker, middleware.AuthTypeBearer, testUsername, time.Minute)
			},
			buildStubs: func(service *MockService) {
				arg := domain.CreatePaymentParams{
					Owner:          testUsername,
					Type:           domain.TypeSend,
					Amount:         "30.00",
					Counterparty:   "+26771234567",
					Rail:           domain.RailWallet,
					IdempotencyKey: testKey,
				}

				service.EXPECT().Pay(gomock.Any(), gomock.Eq(arg)).
					Times(1).
					Return(okResult, nil)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusOK, recorder.Code)

				var got response
				require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
				require.Equal(t, okResult.Transaction.Amount, got.Data.Payment.Transaction.Amount)
				require.Equal(t, "70.00", got.Data.Payment.Account.Balance)
			},
		},
		{
			name:           "NoAuthorization",
			requestBody:    okBody,
			idempotencyKey: testKey,
			setupAuth:      func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {},
			buildStubs: func(service *MockService) {
				service.EXPECT().Pay(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusUnauthorized, recorder.Code)
			},
		},
		{
			name:           "MissingIdempotencyKey",
			requestBody:    okBody,
			idempotencyKey: "",
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
				middleware.AddAuthorization(t, request, tokenMaker, middleware.AuthTypeBearer, testUsername, time.Minute)
			},
			buildStubs: func(service *MockService) {
				service.EXPECT().Pay(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
			},
		},
		{
			name: "InvalidType",
			requestBody: gin.H{
				"type":         "refund",
				"amount":       "30.00",
				"counterparty": "+26771234567",
				"rail":         "wallet",
			},
			idempotencyKey: testKey,
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
				middleware.AddAuthorization(t, request, tokenMaker, middleware.AuthTypeBearer, testUsername, time.Minute)
			},
			buildStubs: func(service *MockService) {
				service.EXPECT().Pay(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
			},
		},
		{
			name: "BlockchainRailRejectedHere",
			requestBody: gin.H{
				"type":         "send",
				"amount":       "30.00",
				"counterparty": "GDEST",
				"rail":         "blockchain",
			},
			idempotencyKey: testKey,
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
				middleware.AddAuthorization(t, request, tokenMaker, middleware.AuthTypeBearer, testUsername, time.Minute)
			},
			buildStubs: func(service *MockService) {
				service.EXPECT().Pay(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
			},
		},
		{
			name:           "InsufficientBalance",
			requestBody:    okBody,
			idempotencyKey: testKey,
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
				middleware.AddAuthorization(t, request, tokenMaker, middleware.AuthTypeBearer, testUsername, time.Minute)
			},
			buildStubs: func(service *MockService) {
				service.EXPECT().Pay(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.PaymentResult{}, domain.ErrInsufficientBalance)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
			},
		},
		{
			name:           "DuplicateInFlight",
			requestBody:    okBody,
			idempotencyKey: testKey,
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
				middleware.AddAuthorization(t, request, tokenMaker, middleware.AuthTypeBearer, testUsername, time.Minute)
			},
			buildStubs: func(service *MockService) {
				service.EXPECT().Pay(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.PaymentResult{}, domain.ErrDuplicateRequest)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusConflict, recorder.Code)
			},
		},
		{
			name:           "Contention",
			requestBody:    okBody,
			idempotencyKey: testKey,
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
				middleware.AddAuthorization(t, request, tokenMaker, middleware.AuthTypeBearer, testUsername, time.Minute)
			},
			buildStubs: func(service *MockService) {
				service.EXPECT().Pay(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.PaymentResult{}, domain.ErrContention)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusConflict, recorder.Code)
			},
		},
		{
			name:           "DeactivatedAccount",
			requestBody:    okBody,
			idempotencyKey: testKey,
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
				middleware.AddAuthorization(t, request, tokenMaker, middleware.AuthTypeBearer, testUsername, time.Minute)
			},
			buildStubs: func(service *MockService) {
				service.EXPECT().Pay(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.PaymentResult{}, domain.ErrAccountDeactivated)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusForbidden, recorder.Code)
			},
		},
		{
			name:           "InternalError",
			requestBody:    okBody,
			idempotencyKey: testKey,
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
				middleware.AddAuthorization(t, request, tokenMaker, middleware.AuthTypeBearer, testUsername, time.Minute)
			},
			buildStubs: func(service *MockService) {
				service.EXPECT().Pay(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.PaymentResult{}, errorspkg.ErrInternal)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusInternalServerError, recorder.Code)
			},
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

			request, err := http.NewRequest(http.MethodPost, "/payments", bytes.NewReader(body))
			require.NoError(t, err)

			if tc.idempotencyKey != "" {
				request.Header.Set(idempotencyKeyHeader, tc.idempotencyKey)
			}

			tc.setupAuth(t, request, tokenMaker)

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, request)

			tc.checkResponse(recorder)
		})
	}
}

func TestListTransactionsAPI(t *testing.T) {
	testUsername := randompkg.Owner()

	tokenMaker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
	require.NoError(t, err)

	transactions := []domain.Transaction{
		{ID: 2, Owner: testUsername, Type: domain.TypeReceive, Amount: "50.00", Status: domain.StatusCompleted},
		{ID: 1, Owner: testUsername, Type: domain.TypeSend, Amount: "-30.00", Status: domain.StatusCompleted},
	}

	testCases := []struct {
		name          string
		url           string
		setupAuth     func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker)
		buildStubs    func(service *MockService)
		checkResponse func(recorder *httptest.ResponseRecorder)
	}{
		{
			name: "OK",
			url:  "/transactions",
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
				middleware.AddAuthorization(t, request, tokenMaker, middleware.AuthTypeBearer, testUsername, time.Minute)
			},
			buildStubs: func(service *MockService) {
				service.EXPECT().History(gomock.Any(), gomock.Eq(testUsername), gomock.Eq(int32(0))).
					Times(1).
					Return(transactions, nil)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusOK, recorder.Code)

				var got responseTransactions
				require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
				require.Len(t, got.Data.Transactions, 2)
			},
		},
		{
			name: "WithLimit",
			url:  "/transactions?limit=1",
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
				middleware.AddAuthorization(t, request, tokenMaker, middleware.AuthTypeBearer, testUsername, time.Minute)
			},
			buildStubs: func(service *MockService) {
				service.EXPECT().History(gomock.Any(), gomock.Eq(testUsername), gomock.Eq(int32(1))).
					Times(1).
					Return(transactions[:1], nil)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusOK, recorder.Code)
			},
		},
		{
			name: "LimitsAboveCapRejected",
			url:  "/transactions?limit=1000",
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {
				middleware.AddAuthorization(t, request, tokenMaker, middleware.AuthTypeBearer, testUsername, time.Minute)
			},
			buildStubs: func(service *MockService) {
				service.EXPECT().History(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
			},
		},
		{
			name:      "NoAuthorization",
			url:       "/transactions",
			setupAuth: func(t *testing.T, request *http.Request, tokenMaker tokenpkg.Maker) {},
			buildStubs: func(service *MockService) {
				service.EXPECT().History(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusUnauthorized, recorder.Code)
			},
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

			request, err := http.NewRequest(http.MethodGet, tc.url, nil)
			require.NoError(t, err)

			tc.setupAuth(t, request, tokenMaker)

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, request)

			tc.checkResponse(recorder)
		})
	}
}

func TestLoadAPI(t *testing.T) {
	testUsername := randompkg.Owner()
	testKey := randompkg.IdempotencyKey()

	tokenMaker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
	require.NoError(t, err)

	okBody := gin.H{
		"amount":      "200.00",
		"card_number": "4242424242424242",
		"card_holder": "Test Holder",
		"exp_month":   12,
		"exp_year":    2030,
		"cvc":         "123",
	}

	t.Run("OK", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		service := NewMockService(ctrl)
		service.EXPECT().LoadFromCard(gomock.Any(), gomock.Eq(testUsername), gomock.Any(), gomock.Eq("200.00"), gomock.Any(), gomock.Eq(testKey)).
			Times(1).
			Return(domain.PaymentResult{
				Transaction: domain.Transaction{Type: domain.TypeLoad, Amount: "200.00", Status: domain.StatusCompleted},
			}, nil)

		server := newTestServer(t, service, tokenMaker)

		body, err := json.Marshal(okBody)
		require.NoError(t, err)

		request, err := http.NewRequest(http.MethodPost, "/payments/load", bytes.NewReader(body))
		require.NoError(t, err)
		request.Header.Set(idempotencyKeyHeader, testKey)
		middleware.AddAuthorization(t, request, tokenMaker, middleware.AuthTypeBearer, testUsername, time.Minute)

		recorder := httptest.NewRecorder()
		server.ServeHTTP(recorder, request)

		require.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("MissingCardNumber", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		service := NewMockService(ctrl)
		service.EXPECT().LoadFromCard(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		server := newTestServer(t, service, tokenMaker)

		body, err := json.Marshal(gin.H{"amount": "200.00"})
		require.NoError(t, err)

		request, err := http.NewRequest(http.MethodPost, "/payments/load", bytes.NewReader(body))
		require.NoError(t, err)
		request.Header.Set(idempotencyKeyHeader, testKey)
		middleware.AddAuthorization(t, request, tokenMaker, middleware.AuthTypeBearer, testUsername, time.Minute)

		recorder := httptest.NewRecorder()
		server.ServeHTTP(recorder, request)

		require.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}
