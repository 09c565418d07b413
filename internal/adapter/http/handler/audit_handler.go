package handler

import (
	"rwa-signing-gateway/internal/adapter/http/dto"
	"rwa-signing-gateway/internal/core/ports"
	"rwa-signing-gateway/pkg/apperror"
	"rwa-signing-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuditHandler serves the signing audit trail.
type AuditHandler struct {
	auditSvc ports.SigningAuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditSvc ports.SigningAuditService) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

// ListSigning handles GET /api/v1/audit/signing.
func (h *AuditHandler) ListSigning(c *gin.Context) {
	var q dto.AuditListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	params := q.ToParams()
	entries, total, err := h.auditSvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, pageSize := pagination(params.Page, params.PageSize)
	response.OK(c, dto.NewListResponse(entries, total, page, pageSize))
}
