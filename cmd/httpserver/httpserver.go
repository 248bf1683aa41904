// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pulapay/pulapay/internal/accountdelivery"
	"github.com/pulapay/pulapay/internal/accountrepo"
	"github.com/pulapay/pulapay/internal/accountservice"
	"github.com/pulapay/pulapay/internal/billproviderdelivery"
	"github.com/pulapay/pulapay/internal/billproviderrepo"
	"github.com/pulapay/pulapay/internal/idempotencyrepo"
	"github.com/pulapay/pulapay/internal/middleware"
	"github.com/pulapay/pulapay/internal/paymentdelivery"
	"github.com/pulapay/pulapay/internal/paymentmethoddelivery"
	"github.com/pulapay/pulapay/internal/paymentmethodrepo"
	"github.com/pulapay/pulapay/internal/paymentrepo"
	"github.com/pulapay/pulapay/internal/paymentservice"
	"github.com/pulapay/pulapay/internal/sessiondelivery"
	"github.com/pulapay/pulapay/internal/sessionrepo"
	"github.com/pulapay/pulapay/internal/sessionservice"
	"github.com/pulapay/pulapay/internal/settlement"
	"github.com/pulapay/pulapay/internal/stellarledger"
	"github.com/pulapay/pulapay/internal/transactionrepo"
	"github.com/pulapay/pulapay/internal/userdelivery"
	"github.com/pulapay/pulapay/internal/userrepo"
	"github.com/pulapay/pulapay/internal/userservice"
	"github.com/pulapay/pulapay/internal/walletdelivery"
	"github.com/pulapay/pulapay/internal/walletrepo"
	"github.com/pulapay/pulapay/internal/walletservice"
	"github.com/pulapay/pulapay/pkg/configpkg"
	"github.com/pulapay/pulapay/pkg/currencypkg"
	"github.com/pulapay/pulapay/pkg/secretpkg"
	"github.com/pulapay/pulapay/pkg/tokenpkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB     *sql.DB
	Engine *gin.Engine
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	userRepo := userrepo.NewRepoPGS(conn)
	accountRepo := accountrepo.NewRepoPGS(conn)
	transactionRepo := transactionrepo.NewRepoPGS(conn)
	paymentRepo := paymentrepo.NewRepoPGS(conn)
	idempotencyRepo := idempotencyrepo.NewRepoPGS(conn)
	sessionRepo := sessionrepo.NewRepoPGS(conn)
	walletRepo := walletrepo.NewRepoPGS(conn)
	billProviderRepo := billproviderrepo.NewRepoPGS(conn)
	paymentMethodRepo := paymentmethodrepo.NewRepoPGS(conn)

	tokenMaker, err := tokenpkg.NewPasetoMaker(config.TokenSymmetricKey)
	if err != nil {
		return nil, errors.New("cannot create token maker")
	}

	walletCipher, err := secretpkg.NewCipher(config.WalletEncryptionKey)
	if err != nil {
		return nil, errors.New("cannot create wallet cipher")
	}

	ledger := stellarledger.New(config.HorizonURL, config.StellarNetworkPassphrase, config.StellarSubmitTimeout)

	userService := userservice.New(userRepo)
	accountService := accountservice.New(accountRepo)
	paymentService := paymentservice.New(paymentRepo, transactionRepo, accountService, idempotencyRepo, settlement.NewSandboxAuthorizer())
	walletService := walletservice.New(walletRepo, ledger, paymentService, transactionRepo, walletCipher, config.StellarSubmitTimeout)
	sessionService, err := sessionservice.New(sessionRepo, config, tokenMaker)

	if err != nil {
		return nil, errors.New("cannot initialize session service")
	}

	userHandler := userdelivery.NewHandler(userService, sessionService)
	accountHandler := accountdelivery.NewHandler(accountService)
	paymentHandler := paymentdelivery.NewHandler(paymentService)
	walletHandler := walletdelivery.NewHandler(walletService)
	sessionHandler := sessiondelivery.NewHandler(sessionService)
	billProviderHandler := billproviderdelivery.NewHandler(billProviderRepo)
	paymentMethodHandler := paymentmethoddelivery.NewHandler(paymentMethodRepo)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.Metrics())
	engine.Use(gin.Recovery())

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	engine.POST("/users", userHandler.Register)
	engine.POST("/users/login", userHandler.Login)
	engine.POST("/sessions", sessionHandler.Renew)

	authRoutes := engine.Group("/").Use(middleware.AuthMiddleware(sessionService.TokenMaker))

	authRoutes.GET("/accounts/balance", accountHandler.Get)

	authRoutes.POST("/payments", paymentHandler.Create)
	authRoutes.POST("/payments/load", paymentHandler.Load)
	authRoutes.GET("/transactions", paymentHandler.List)

	authRoutes.POST("/wallets", walletHandler.Create)
	authRoutes.GET("/wallets/balance", walletHandler.Balances)
	authRoutes.POST("/wallets/payments", walletHandler.Transfer)

	authRoutes.GET("/bill-providers", billProviderHandler.List)
	authRoutes.GET("/bill-providers/:id", billProviderHandler.Get)

	authRoutes.POST("/payment-methods", paymentMethodHandler.Create)
	authRoutes.GET("/payment-methods", paymentMethodHandler.List)
	authRoutes.GET("/payment-methods/:id", paymentMethodHandler.Get)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation("currency", currencypkg.ValidCurrency)
		if err != nil {
			return nil, errors.New("cannot register currency validator")
		}
	}

	server := &Server{
		DB:     conn,
		Engine: engine,
		Config: config,
	}

	return server, nil
}
