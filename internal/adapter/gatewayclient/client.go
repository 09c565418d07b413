// Package gatewayclient talks to a remote signing gateway over HTTPS.
package gatewayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"rwa-signing-gateway/internal/adapter/http/dto"
	"rwa-signing-gateway/internal/core/domain"
	"rwa-signing-gateway/internal/core/ports"
	"rwa-signing-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxResponseBytes = 4 << 20

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements ports.TransactionSigner, ports.WalletLookup and ports.PolicyResolver
// against the gateway's HTTP API.
type Client struct {
	baseURL string
	token   string
	http    HTTPClient
	log     zerolog.Logger
}

// New creates a client for the gateway at baseURL, authenticating with token.
func New(baseURL, token string, httpClient HTTPClient, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
		log:     log,
	}
}

// envelope is the admin API success shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// errorBody is the failure shape shared by every endpoint.
type errorBody struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	ErrorCode  string `json:"errorCode"`
	AuditLogID string `json:"auditLogId"`
}

// SignTransaction posts one signing request. Gateway rejections come back as
// an unsuccessful response; transport failures and unreadable answers as errors.
func (c *Client) SignTransaction(ctx context.Context, req ports.SigningRequest) (*ports.SigningResponse, error) {
	body, err := json.Marshal(dto.NewSignTransactionRequest(req))
	if err != nil {
		return nil, fmt.Errorf("encoding signing request: %w", err)
	}
	status, data, err := c.do(ctx, http.MethodPost, "/api/v1/sign-transaction", body)
	if err != nil {
		return nil, err
	}

	var resp ports.SigningResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding signing response (status %d): %w", status, err)
	}
	if status >= 300 || !resp.Success {
		if resp.ErrorCode == "" {
			return nil, fmt.Errorf("gateway returned status %d without an error code", status)
		}
		resp.Success = false
	}
	return &resp, nil
}

// GetWallet fetches a wallet. A missing wallet is WALLET_NOT_FOUND.
func (c *Client) GetWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	var w domain.Wallet
	if err := c.get(ctx, "/api/v1/wallets/"+id.String(), &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// Resolve asks the gateway which policy applies. Returns nil, nil when none is configured.
func (c *Client) Resolve(ctx context.Context, role string, network domain.Network, txType string) (*domain.SigningPolicy, error) {
	q := url.Values{}
	q.Set("role", role)
	q.Set("network", string(network))
	q.Set("txType", txType)

	var out dto.ResolvePolicyResponse
	if err := c.get(ctx, "/api/v1/policies/resolve?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Policy, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	status, data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return decodeError(status, data)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding %s data: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("gateway request failed")
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("reading %s %s: %w", method, path, err)
	}
	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("gateway response")
	return resp.StatusCode, data, nil
}

// decodeError rebuilds the AppError the gateway rendered.
func decodeError(status int, data []byte) error {
	var e errorBody
	if err := json.Unmarshal(data, &e); err != nil || e.ErrorCode == "" {
		return apperror.InternalError(fmt.Errorf("gateway returned status %d", status))
	}
	return apperror.New(e.ErrorCode, e.Error, status)
}
