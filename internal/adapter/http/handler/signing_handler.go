package handler

import (
	"errors"
	"net/http"

	"rwa-signing-gateway/internal/adapter/http/dto"
	"rwa-signing-gateway/internal/adapter/http/middleware"
	"rwa-signing-gateway/internal/batch"
	"rwa-signing-gateway/internal/core/ports"
	"rwa-signing-gateway/pkg/apperror"
	"rwa-signing-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SigningHandler serves the signing RPC and server-side batch signing.
type SigningHandler struct {
	gateway  ports.SigningGateway
	wallets  ports.WalletLookup
	policies ports.PolicyResolver
	log      zerolog.Logger
}

// NewSigningHandler creates a new SigningHandler.
func NewSigningHandler(gateway ports.SigningGateway, wallets ports.WalletLookup, policies ports.PolicyResolver, log zerolog.Logger) *SigningHandler {
	return &SigningHandler{gateway: gateway, wallets: wallets, policies: policies, log: log}
}

// SignTransaction handles POST /api/v1/sign-transaction.
// The gateway authenticates the bearer token itself so that every guard
// decision, authentication included, is made in one place.
func (h *SigningHandler) SignTransaction(c *gin.Context) {
	token := middleware.BearerToken(c)
	if token == "" {
		response.Error(c, apperror.ErrUnauthorized("Missing bearer token"))
		return
	}

	var req dto.SignTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	signingReq, err := req.ToSigningRequest()
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	res, err := h.gateway.Sign(c.Request.Context(), token, signingReq)
	if err != nil {
		auditID := ""
		if res != nil {
			auditID = res.AuditLogID
		}
		response.ErrorWithAudit(c, err, auditID)
		return
	}

	c.JSON(http.StatusOK, ports.SigningResponse{
		Success:       true,
		SignedTxBlob:  res.SignedTxBlob,
		TxHash:        res.TxHash,
		AuditLogID:    res.AuditLogID,
		PolicyApplied: res.PolicyApplied,
		ReplayOf:      res.ReplayOf,
	})
}

// SignBatch handles POST /api/v1/batches/sign. Each transaction goes through
// the gateway with the caller's own token, so it is guarded and audited like
// a single signing request.
func (h *SigningHandler) SignBatch(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized("Missing bearer token"))
		return
	}

	var req dto.BatchSignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	b, err := req.ToBatch()
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	signer := batch.NewGatewaySigner(h.gateway, c.GetString(middleware.CtxBearerToken))
	session, err := batch.NewSession(b, h.wallets, h.policies, signer, identity, h.log)
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	report, err := session.Run(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewBatchSignResponse(report))
}

// bindError maps a binding failure to 413 when the body limit was hit, 400 otherwise.
func bindError(err error) *apperror.AppError {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperror.ErrPayloadTooLarge()
	}
	return apperror.Validation(err.Error())
}
