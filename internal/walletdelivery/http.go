// Package walletdelivery manages delivery layer of blockchain wallets.
package walletdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/pulapay/pulapay/internal/domain"
	"github.com/pulapay/pulapay/internal/middleware"
	"github.com/pulapay/pulapay/pkg/errorspkg"
	"github.com/pulapay/pulapay/pkg/tokenpkg"
	"github.com/pulapay/pulapay/pkg/web"
)

const idempotencyKeyHeader = "Idempotency-Key"

// Service provides service layer interface needed by wallet delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package walletdelivery
type Service interface {
	GetOrCreate(ctx context.Context, owner string) (domain.StellarWallet, error)
	Balances(ctx context.Context, owner string) ([]domain.AssetBalance, error)
	Transfer(ctx context.Context, owner, destination, amount, description, idempotencyKey string) (domain.PaymentResult, error)
}

// Handler facilitates wallet delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns wallet handler.
func NewHandler(ws Service) *Handler {
	return &Handler{
		service: ws,
	}
}

type walletData struct {
	Wallet domain.StellarWallet `json:"wallet"`
}

type walletResponse struct {
	Data walletData `json:"data,omitempty"`
}

// Create handles http request to provision the caller's blockchain wallet.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	wallet, err := h.service.GetOrCreate(ctx, authPayload.Username)
	if err != nil {
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, walletResponse{Data: walletData{wallet}})
}

type balancesData struct {
	Balances []domain.AssetBalance `json:"balances"`
}

type balancesResponse struct {
	Data balancesData `json:"data,omitempty"`
}

// Balances handles http request to return the caller's on-network balances.
func (h *Handler) Balances(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	balances, err := h.service.Balances(ctx, authPayload.Username)
	if err != nil {
		switch err {
		case domain.ErrWalletNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))
		case domain.ErrExternalAccountNotFunded:
			gctx.JSON(http.StatusConflict, web.Error(err))
		case domain.ErrExternalNetworkUnavailable:
			gctx.JSON(http.StatusServiceUnavailable, web.Error(err))
		default:
			gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		}

		return
	}

	gctx.JSON(http.StatusOK, balancesResponse{Data: balancesData{balances}})
}

type transferRequest struct {
	Destination string `json:"destination" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description"`
}

type transferData struct {
	Payment domain.PaymentResult         `json:"payment"`
	State   domain.ExternalTransferState `json:"state"`
}

type transferResponse struct {
	Data transferData `json:"data,omitempty"`
}

// Transfer handles http request to send funds to an external blockchain
// address.
func (h *Handler) Transfer(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req transferRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		var (
			ve     validator.ValidationErrors
			errMsg string
		)

		if errors.As(err, &ve) {
			field := ve[0]
			errMsg = field.Field() + web.GetErrorMsg(field)
		}

		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: errMsg})

		return
	}

	idempotencyKey := gctx.GetHeader(idempotencyKeyHeader)
	if idempotencyKey == "" {
		gctx.JSON(http.StatusBadRequest, web.Error(errors.New("Idempotency-Key header is required")))

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	result, err := h.service.Transfer(ctx, authPayload.Username, req.Destination, req.Amount, req.Description, idempotencyKey)
	if err != nil {
		switch err {
		case
			domain.ErrInvalidAmount,
			domain.ErrInvalidDestinationAddress,
			domain.ErrInsufficientBalance,
			domain.ErrInsufficientExternalBalance:
			gctx.JSON(http.StatusBadRequest, web.Error(err))
		case domain.ErrWalletNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))
		case domain.ErrDuplicateRequest, domain.ErrContention:
			gctx.JSON(http.StatusConflict, web.Error(err))
		default:
			gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		}

		middleware.PaymentsTotal.WithLabelValues(string(domain.TypeSend), "failed").Inc()

		return
	}

	middleware.PaymentsTotal.WithLabelValues(string(domain.TypeSend), string(result.Transaction.Status)).Inc()

	gctx.JSON(http.StatusOK, transferResponse{Data: transferData{
		Payment: result,
		State:   domain.TransferState(result.Transaction.Status),
	}})
}
