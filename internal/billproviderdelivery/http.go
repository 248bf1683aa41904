// Package billproviderdelivery manages delivery layer of bill providers.
package billproviderdelivery

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pulapay/pulapay/internal/domain"
	"github.com/pulapay/pulapay/pkg/errorspkg"
	"github.com/pulapay/pulapay/pkg/web"
)

// Repo provides data access layer interface needed by bill provider delivery
// layer. Bill providers are reference data, no service layer in between.
//
//go:generate mockgen -source http.go -destination http_mock.go -package billproviderdelivery
type Repo interface {
	List(ctx context.Context) ([]domain.BillProvider, error)
	Get(ctx context.Context, id int64) (domain.BillProvider, error)
}

// Handler facilitates bill provider delivery layer logic.
type Handler struct {
	repo Repo
}

// NewHandler returns bill provider handler.
func NewHandler(r Repo) *Handler {
	return &Handler{
		repo: r,
	}
}

type listData struct {
	Providers []domain.BillProvider `json:"providers"`
}

type listResponse struct {
	Data listData `json:"data,omitempty"`
}

// List handles http request to list available bill providers.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	providers, err := h.repo.List(ctx)
	if err != nil {
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, listResponse{Data: listData{providers}})
}

type getData struct {
	Provider domain.BillProvider `json:"provider"`
}

type getResponse struct {
	Data getData `json:"data,omitempty"`
}

// Get handles http request to fetch one bill provider by id.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	id, err := strconv.ParseInt(gctx.Param("id"), 10, 64)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	provider, err := h.repo.Get(ctx, id)
	if err != nil {
		if err == domain.ErrBillProviderNotFound {
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, getResponse{Data: getData{provider}})
}
