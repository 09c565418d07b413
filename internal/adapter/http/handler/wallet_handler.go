package handler

import (
	"rwa-signing-gateway/internal/adapter/http/dto"
	"rwa-signing-gateway/internal/core/domain"
	"rwa-signing-gateway/internal/core/ports"
	"rwa-signing-gateway/pkg/apperror"
	"rwa-signing-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet registry endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// Get handles GET /api/v1/wallets/:id.
func (h *WalletHandler) Get(c *gin.Context) {
	id, ok := walletID(c)
	if !ok {
		return
	}
	wallet, err := h.walletSvc.GetWallet(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, wallet)
}

// List handles GET /api/v1/wallets.
func (h *WalletHandler) List(c *gin.Context) {
	var q dto.WalletListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	params := q.ToParams()
	wallets, total, err := h.walletSvc.ListWallets(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, pageSize := pagination(params.Page, params.PageSize)
	response.OK(c, dto.NewListResponse(wallets, total, page, pageSize))
}

// Suspend handles POST /api/v1/wallets/:id/suspend.
func (h *WalletHandler) Suspend(c *gin.Context) {
	h.changeStatus(c, domain.WalletStatusSuspended)
}

// Archive handles POST /api/v1/wallets/:id/archive.
func (h *WalletHandler) Archive(c *gin.Context) {
	h.changeStatus(c, domain.WalletStatusArchived)
}

// Reactivate handles POST /api/v1/wallets/:id/reactivate.
func (h *WalletHandler) Reactivate(c *gin.Context) {
	h.changeStatus(c, domain.WalletStatusActive)
}

func (h *WalletHandler) changeStatus(c *gin.Context, to domain.WalletStatus) {
	id, ok := walletID(c)
	if !ok {
		return
	}
	wallet, err := h.walletSvc.ChangeStatus(c.Request.Context(), id, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, wallet)
}

func walletID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return uuid.Nil, false
	}
	return id, true
}

// pagination mirrors the defaults the services apply.
func pagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
