package handler

import (
	"rwa-signing-gateway/internal/adapter/http/dto"
	"rwa-signing-gateway/internal/adapter/http/middleware"
	"rwa-signing-gateway/internal/core/domain"
	"rwa-signing-gateway/internal/core/ports"
	"rwa-signing-gateway/pkg/apperror"
	"rwa-signing-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// PolicyHandler handles signing policy administration.
type PolicyHandler struct {
	policySvc ports.PolicyService
	resolver  ports.PolicyResolver
}

// NewPolicyHandler creates a new PolicyHandler.
func NewPolicyHandler(policySvc ports.PolicyService, resolver ports.PolicyResolver) *PolicyHandler {
	return &PolicyHandler{policySvc: policySvc, resolver: resolver}
}

// List handles GET /api/v1/policies.
func (h *PolicyHandler) List(c *gin.Context) {
	var q dto.PolicyListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	policies, err := h.policySvc.List(c.Request.Context(), q.ToParams())
	if err != nil {
		response.Error(c, err)
		return
	}
	if policies == nil {
		policies = []domain.SigningPolicy{}
	}
	response.OK(c, policies)
}

// Resolve handles GET /api/v1/policies/resolve, answering with the policy the
// gateway would apply to the triple, or null.
func (h *PolicyHandler) Resolve(c *gin.Context) {
	var q dto.ResolvePolicyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	policy, err := h.resolver.Resolve(c.Request.Context(), q.Role, domain.Network(q.Network), q.TxType)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ResolvePolicyResponse{Policy: policy})
}

// Get handles GET /api/v1/policies/:id.
func (h *PolicyHandler) Get(c *gin.Context) {
	policy, err := h.policySvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, policy)
}

// Create handles POST /api/v1/policies.
func (h *PolicyHandler) Create(c *gin.Context) {
	var req dto.PolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	dto.SanitizeStruct(&req)

	policy, err := h.policySvc.Create(c.Request.Context(), req.ToPolicy())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Set(middleware.CtxResourceID, policy.ID)
	response.Created(c, policy)
}

// Update handles PUT /api/v1/policies/:id.
func (h *PolicyHandler) Update(c *gin.Context) {
	var req dto.PolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	dto.SanitizeStruct(&req)

	policy := req.ToPolicy()
	policy.ID = c.Param("id")
	updated, err := h.policySvc.Update(c.Request.Context(), policy, req.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, updated)
}

// Deactivate handles DELETE /api/v1/policies/:id. Policies are never removed.
func (h *PolicyHandler) Deactivate(c *gin.Context) {
	id := c.Param("id")
	if err := h.policySvc.Deactivate(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"id": id, "isActive": false})
}
