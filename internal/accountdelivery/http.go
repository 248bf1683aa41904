// Package accountdelivery manages delivery layer of accounts.
package accountdelivery

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pulapay/pulapay/internal/domain"
	"github.com/pulapay/pulapay/internal/middleware"
	"github.com/pulapay/pulapay/pkg/currencypkg"
	"github.com/pulapay/pulapay/pkg/errorspkg"
	"github.com/pulapay/pulapay/pkg/tokenpkg"
	"github.com/pulapay/pulapay/pkg/web"
)

// Service provides service layer interface needed by account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type Service interface {
	GetOrCreate(ctx context.Context, owner, currency string) (domain.Account, error)
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns account handler.
func NewHandler(as Service) *Handler {
	return &Handler{
		service: as,
	}
}

type data struct {
	Account domain.Account `json:"account"`
}

type response struct {
	Data data `json:"data,omitempty"`
}

// Get handles http request to return the caller's account, creating it on
// first access.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	account, err := h.service.GetOrCreate(ctx, authPayload.Username, currencypkg.BWP)
	if err != nil {
		switch err {
		case domain.ErrOwnerNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))
		case domain.ErrAccountDeactivated:
			gctx.JSON(http.StatusForbidden, web.Error(err))
		default:
			gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		}

		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{account}})
}
