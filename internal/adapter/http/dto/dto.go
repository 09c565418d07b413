package dto

import (
	"encoding/json"
	"fmt"

	"rwa-signing-gateway/internal/batch"
	"rwa-signing-gateway/internal/core/domain"
	"rwa-signing-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SignTransactionRequest is the body of the signing RPC.
type SignTransactionRequest struct {
	WalletID        string           `json:"walletId" binding:"required,uuid"`
	TxType          string           `json:"txType" binding:"required"`
	UnsignedTxBlob  string           `json:"unsignedTxBlob" binding:"required"`
	UnsignedTxHash  string           `json:"unsignedTxHash" binding:"required"`
	RequestedBy     string           `json:"requestedBy,omitempty"`
	RequestedByName string           `json:"requestedByName,omitempty"`
	RequestedByRole string           `json:"requestedByRole,omitempty"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	Currency        string           `json:"currency,omitempty" binding:"max=40"`
	Destination     string           `json:"destination,omitempty" binding:"max=64"`
	DestinationName string           `json:"destinationName,omitempty" binding:"max=200"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
}

// ToSigningRequest converts the wire body into the gateway's request.
func (r SignTransactionRequest) ToSigningRequest() (ports.SigningRequest, error) {
	walletID, err := uuid.Parse(r.WalletID)
	if err != nil {
		return ports.SigningRequest{}, fmt.Errorf("walletId: %w", err)
	}
	return ports.SigningRequest{
		WalletID:        walletID,
		TxType:          r.TxType,
		UnsignedTxBlob:  r.UnsignedTxBlob,
		UnsignedTxHash:  r.UnsignedTxHash,
		RequestedBy:     r.RequestedBy,
		RequestedByName: r.RequestedByName,
		RequestedByRole: r.RequestedByRole,
		Amount:          r.Amount,
		Currency:        r.Currency,
		Destination:     r.Destination,
		DestinationName: r.DestinationName,
		Metadata:        r.Metadata,
	}, nil
}

// NewSignTransactionRequest is the client-side inverse of ToSigningRequest.
func NewSignTransactionRequest(req ports.SigningRequest) SignTransactionRequest {
	return SignTransactionRequest{
		WalletID:        req.WalletID.String(),
		TxType:          req.TxType,
		UnsignedTxBlob:  req.UnsignedTxBlob,
		UnsignedTxHash:  req.UnsignedTxHash,
		RequestedBy:     req.RequestedBy,
		RequestedByName: req.RequestedByName,
		RequestedByRole: req.RequestedByRole,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Destination:     req.Destination,
		DestinationName: req.DestinationName,
		Metadata:        req.Metadata,
	}
}

// BatchTransactionInput is one transaction of a batch request.
type BatchTransactionInput struct {
	TxType string          `json:"txType" binding:"required,tx_type"`
	Params json.RawMessage `json:"params" binding:"required"`
}

// BatchSignRequest asks the server to orchestrate a whole batch.
type BatchSignRequest struct {
	WalletID     string                  `json:"walletId" binding:"required,uuid"`
	Mode         string                  `json:"mode" binding:"required,batch_mode"`
	Transactions []BatchTransactionInput `json:"transactions" binding:"required,min=1,max=8,dive"`
}

// ToBatch decodes every transaction's params into its typed struct.
func (r BatchSignRequest) ToBatch() (*domain.Batch, error) {
	walletID, err := uuid.Parse(r.WalletID)
	if err != nil {
		return nil, fmt.Errorf("walletId: %w", err)
	}
	b, err := domain.NewBatch(walletID, domain.BatchAtomicityMode(r.Mode))
	if err != nil {
		return nil, err
	}
	for i, in := range r.Transactions {
		params, err := domain.DecodeTxParams(domain.TxType(in.TxType), in.Params)
		if err != nil {
			return nil, fmt.Errorf("transactions[%d]: %w", i, err)
		}
		if _, err := b.Add(params); err != nil {
			return nil, fmt.Errorf("transactions[%d]: %w", i, err)
		}
	}
	return b, nil
}

// BatchSignResponse is the outcome of a server-side batch run.
// Error summarizes why a batch ended in ERROR.
type BatchSignResponse struct {
	*batch.Report
	Error string `json:"error,omitempty"`
}

// NewBatchSignResponse derives the error summary from the report.
func NewBatchSignResponse(r *batch.Report) BatchSignResponse {
	resp := BatchSignResponse{Report: r}
	if r.State != batch.StateError {
		return resp
	}
	switch {
	case r.Failure != nil && r.Failure.Response != nil:
		resp.Error = fmt.Sprintf("transaction %d failed: %s (%s)", r.Failure.Order, r.Failure.Response.Error, r.Failure.Response.ErrorCode)
	case len(r.ValidationErrors) > 0:
		resp.Error = fmt.Sprintf("batch failed validation: %s", r.ValidationErrors[0].Message)
	default:
		resp.Error = "batch signing was interrupted"
	}
	return resp
}

// WalletListQuery filters the wallet listing.
type WalletListQuery struct {
	Status   string `form:"status" binding:"omitempty,wallet_status"`
	Network  string `form:"network" binding:"omitempty,network"`
	Role     string `form:"role" binding:"omitempty,safe_id"`
	Page     int    `form:"page" binding:"omitempty,gte=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,gte=1,lte=100"`
}

// ToParams converts the query into repository parameters.
func (q WalletListQuery) ToParams() ports.WalletListParams {
	p := ports.WalletListParams{Role: q.Role, Page: q.Page, PageSize: q.PageSize}
	if q.Status != "" {
		s := domain.WalletStatus(q.Status)
		p.Status = &s
	}
	if q.Network != "" {
		n := domain.Network(q.Network)
		p.Network = &n
	}
	return p
}

// PolicyRequest is the body for creating or replacing a policy.
type PolicyRequest struct {
	Name               string           `json:"name" binding:"required,max=100"`
	WalletRole         string           `json:"walletRole" binding:"required,policy_key"`
	Network            string           `json:"network" binding:"required,network"`
	TxType             string           `json:"txType" binding:"required,policy_key"`
	MaxAmountXrp       *decimal.Decimal `json:"maxAmountXrp"`
	RequiresMultiSign  bool             `json:"requiresMultiSign"`
	MinSigners         int              `json:"minSigners" binding:"gte=0,lte=32"`
	RateLimitPerMinute int              `json:"rateLimitPerMinute" binding:"gte=0"`
	// IsActive is only read on update; omitted keeps the current state.
	IsActive *bool `json:"isActive"`
}

// ToPolicy converts the body into a domain policy.
func (r PolicyRequest) ToPolicy() *domain.SigningPolicy {
	return &domain.SigningPolicy{
		Name:               r.Name,
		WalletRole:         r.WalletRole,
		Network:            domain.Network(r.Network),
		TxType:             r.TxType,
		MaxAmountXrp:       r.MaxAmountXrp,
		RequiresMultiSign:  r.RequiresMultiSign,
		MinSigners:         r.MinSigners,
		RateLimitPerMinute: r.RateLimitPerMinute,
	}
}

// PolicyListQuery filters the policy listing.
type PolicyListQuery struct {
	Role       string `form:"role" binding:"omitempty,policy_key"`
	Network    string `form:"network" binding:"omitempty,network"`
	ActiveOnly bool   `form:"activeOnly"`
}

// ToParams converts the query into repository parameters.
func (q PolicyListQuery) ToParams() ports.PolicyListParams {
	p := ports.PolicyListParams{Role: q.Role, ActiveOnly: q.ActiveOnly}
	if q.Network != "" {
		n := domain.Network(q.Network)
		p.Network = &n
	}
	return p
}

// ResolvePolicyQuery asks which policy applies to a triple.
type ResolvePolicyQuery struct {
	Role    string `form:"role" binding:"required"`
	Network string `form:"network" binding:"required,network"`
	TxType  string `form:"txType" binding:"required,tx_type"`
}

// ResolvePolicyResponse is the answer to ResolvePolicyQuery. Policy is null when none is configured.
type ResolvePolicyResponse struct {
	Policy *domain.SigningPolicy `json:"policy"`
}

// AuditListQuery filters the signing audit trail.
type AuditListQuery struct {
	WalletID string `form:"walletId" binding:"omitempty,uuid"`
	Status   string `form:"status" binding:"omitempty,oneof=SIGNED REJECTED FAILED"`
	Page     int    `form:"page" binding:"omitempty,gte=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,gte=1,lte=100"`
}

// ToParams converts the query into repository parameters.
func (q AuditListQuery) ToParams() ports.AuditListParams {
	p := ports.AuditListParams{Page: q.Page, PageSize: q.PageSize}
	if id, err := uuid.Parse(q.WalletID); err == nil {
		p.WalletID = &id
	}
	if q.Status != "" {
		s := domain.SigningStatus(q.Status)
		p.Status = &s
	}
	return p
}

// ListResponse wraps a paginated list.
type ListResponse struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// NewListResponse computes the page count.
func NewListResponse(items interface{}, total int64, page, pageSize int) ListResponse {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return ListResponse{Items: items, Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages}
}
