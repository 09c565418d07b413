package batch

import (
	"context"
	"errors"

	"rwa-signing-gateway/internal/core/ports"
	"rwa-signing-gateway/pkg/apperror"
)

// GatewaySigner signs through an in-process gateway on behalf of one bearer token.
type GatewaySigner struct {
	gateway ports.SigningGateway
	token   string
}

// NewGatewaySigner creates a signer bound to the caller's token.
func NewGatewaySigner(gateway ports.SigningGateway, bearerToken string) *GatewaySigner {
	return &GatewaySigner{gateway: gateway, token: bearerToken}
}

// SignTransaction turns gateway rejections into unsuccessful responses.
// Only errors that carry no error code are returned as Go errors.
func (s *GatewaySigner) SignTransaction(ctx context.Context, req ports.SigningRequest) (*ports.SigningResponse, error) {
	res, err := s.gateway.Sign(ctx, s.token, req)
	if err != nil {
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			return nil, err
		}
		resp := &ports.SigningResponse{Error: appErr.Message, ErrorCode: appErr.Code}
		if res != nil {
			resp.AuditLogID = res.AuditLogID
		}
		return resp, nil
	}
	return &ports.SigningResponse{
		Success:       true,
		SignedTxBlob:  res.SignedTxBlob,
		TxHash:        res.TxHash,
		AuditLogID:    res.AuditLogID,
		PolicyApplied: res.PolicyApplied,
		ReplayOf:      res.ReplayOf,
	}, nil
}
