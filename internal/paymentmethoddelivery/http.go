// Package paymentmethoddelivery manages delivery layer of payment methods.
package paymentmethoddelivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/pulapay/pulapay/internal/domain"
	"github.com/pulapay/pulapay/internal/middleware"
	"github.com/pulapay/pulapay/pkg/errorspkg"
	"github.com/pulapay/pulapay/pkg/tokenpkg"
	"github.com/pulapay/pulapay/pkg/web"
)

// Repo provides data access layer interface needed by payment method delivery
// layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package paymentmethoddelivery
type Repo interface {
	Create(ctx context.Context, arg domain.CreatePaymentMethodParams) (domain.PaymentMethod, error)
	List(ctx context.Context, owner string) ([]domain.PaymentMethod, error)
	Get(ctx context.Context, id int64, owner string) (domain.PaymentMethod, error)
}

// Handler facilitates payment method delivery layer logic.
type Handler struct {
	repo Repo
}

// NewHandler returns payment method handler.
func NewHandler(r Repo) *Handler {
	return &Handler{
		repo: r,
	}
}

type createRequest struct {
	MethodType string          `json:"method_type" binding:"required,oneof=bank card"`
	Name       string          `json:"name" binding:"required"`
	Details    json.RawMessage `json:"details"`
	IsDefault  bool            `json:"is_default"`
}

type data struct {
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
}

type response struct {
	Data data `json:"data,omitempty"`
}

// Create handles http request to store a funding instrument.
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

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	arg := domain.CreatePaymentMethodParams{
		Owner:      authPayload.Username,
		MethodType: req.MethodType,
		Name:       req.Name,
		Details:    req.Details,
		IsDefault:  req.IsDefault,
	}

	method, err := h.repo.Create(ctx, arg)
	if err != nil {
		switch err {
		case domain.ErrOwnerNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))
		case domain.ErrInvalidPaymentMethodType:
			gctx.JSON(http.StatusBadRequest, web.Error(err))
		default:
			gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		}

		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{method}})
}

type listData struct {
	PaymentMethods []domain.PaymentMethod `json:"payment_methods"`
}

type listResponse struct {
	Data listData `json:"data,omitempty"`
}

// List handles http request to list the caller's stored funding instruments.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	methods, err := h.repo.List(ctx, authPayload.Username)
	if err != nil {
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, listResponse{Data: listData{methods}})
}

// Get handles http request to return one stored funding instrument.
// Lookups are scoped to the caller so one user cannot read another's
// instruments.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	id, err := strconv.ParseInt(gctx.Param("id"), 10, 64)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(domain.ErrPaymentMethodNotFound))

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	method, err := h.repo.Get(ctx, id, authPayload.Username)
	if err != nil {
		switch err {
		case domain.ErrPaymentMethodNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))
		default:
			gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		}

		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{method}})
}
