// Package paymentdelivery manages delivery layer of payments.
package paymentdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/pulapay/pulapay/internal/domain"
	"github.com/pulapay/pulapay/internal/middleware"
	"github.com/pulapay/pulapay/internal/settlement"
	"github.com/pulapay/pulapay/pkg/errorspkg"
	"github.com/pulapay/pulapay/pkg/tokenpkg"
	"github.com/pulapay/pulapay/pkg/web"
)

// idempotencyKeyHeader carries the client supplied idempotency key.
const idempotencyKeyHeader = "Idempotency-Key"

// Service provides service layer interface needed by payment delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package paymentdelivery
type Service interface {
	Pay(ctx context.Context, arg domain.CreatePaymentParams) (domain.PaymentResult, error)
	LoadFromCard(ctx context.Context, owner string, card settlement.Card, amount, description, idempotencyKey string) (domain.PaymentResult, error)
	History(ctx context.Context, owner string, limit int32) ([]domain.Transaction, error)
}

// Handler facilitates payment delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns payment handler.
func NewHandler(ps Service) *Handler {
	return &Handler{
		service: ps,
	}
}

type data struct {
	Payment domain.PaymentResult `json:"payment"`
}

type response struct {
	Data data `json:"data,omitempty"`
}

type createRequest struct {
	Type             string `json:"type" binding:"required,oneof=send receive bill_payment"`
	Amount           string `json:"amount" binding:"required"`
	Counterparty     string `json:"counterparty" binding:"required"`
	CounterpartyName string `json:"counterparty_name"`
	Description      string `json:"description"`
	Rail             string `json:"rail" binding:"required,oneof=wallet bank card"`
}

// Create handles http request to process a payment intent.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req createRequest
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

	arg := domain.CreatePaymentParams{
		Owner:            authPayload.Username,
		Type:             domain.TransactionType(req.Type),
		Amount:           req.Amount,
		Counterparty:     req.Counterparty,
		CounterpartyName: req.CounterpartyName,
		Description:      req.Description,
		Rail:             domain.PaymentRail(req.Rail),
		IdempotencyKey:   idempotencyKey,
	}

	result, err := h.service.Pay(ctx, arg)
	if err != nil {
		handleServiceError(gctx, err)
		middleware.PaymentsTotal.WithLabelValues(req.Type, "failed").Inc()

		return
	}

	middleware.PaymentsTotal.WithLabelValues(req.Type, string(result.Transaction.Status)).Inc()

	gctx.JSON(http.StatusOK, response{Data: data{result}})
}

type loadRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description"`
	CardNumber  string `json:"card_number" binding:"required,min=12,max=19"`
	CardHolder  string `json:"card_holder" binding:"required"`
	ExpMonth    int    `json:"exp_month" binding:"required,min=1,max=12"`
	ExpYear     int    `json:"exp_year" binding:"required,min=2000"`
	CVC         string `json:"cvc" binding:"required,min=3,max=4"`
}

// Load handles http request to load funds from a card.
func (h *Handler) Load(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req loadRequest
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

	card := settlement.Card{
		Number:   req.CardNumber,
		Holder:   req.CardHolder,
		ExpMonth: req.ExpMonth,
		ExpYear:  req.ExpYear,
		CVC:      req.CVC,
	}

	result, err := h.service.LoadFromCard(ctx, authPayload.Username, card, req.Amount, req.Description, idempotencyKey)
	if err != nil {
		if err == settlement.ErrCardDeclined {
			gctx.JSON(http.StatusPaymentRequired, web.Error(err))
			return
		}

		handleServiceError(gctx, err)

		return
	}

	middleware.PaymentsTotal.WithLabelValues(string(domain.TypeLoad), string(result.Transaction.Status)).Inc()

	gctx.JSON(http.StatusOK, response{Data: data{result}})
}

type listRequest struct {
	Limit int32 `form:"limit" binding:"omitempty,min=1,max=100"`
}

type dataTransactions struct {
	Transactions []domain.Transaction `json:"transactions"`
}

type responseTransactions struct {
	Data dataTransactions `json:"data,omitempty"`
}

// List handles http request to list the caller's transaction history.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	transactions, err := h.service.History(ctx, authPayload.Username, req.Limit)
	if err != nil {
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, responseTransactions{Data: dataTransactions{transactions}})
}

func handleServiceError(gctx *gin.Context, err error) {
	switch err {
	case
		domain.ErrInvalidAmount,
		domain.ErrInvalidCounterparty,
		domain.ErrInvalidTransactionType,
		domain.ErrInvalidRail,
		domain.ErrInsufficientBalance:
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	case domain.ErrAccountNotFound:
		gctx.JSON(http.StatusNotFound, web.Error(err))

		return
	case domain.ErrAccountDeactivated:
		gctx.JSON(http.StatusForbidden, web.Error(err))

		return
	case domain.ErrDuplicateRequest, domain.ErrContention:
		gctx.JSON(http.StatusConflict, web.Error(err))

		return
	}

	gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
}
