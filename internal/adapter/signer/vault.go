package signer

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"rwa-signing-gateway/config"
	"rwa-signing-gateway/internal/core/domain"
	"rwa-signing-gateway/internal/core/ports"
	"rwa-signing-gateway/internal/ledger"

	"github.com/rs/zerolog"
)

const (
	defaultTransitMount = "transit"
	maxVaultResponse    = 1 << 20
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// VaultAdapter signs through a transit-style key vault. The private key never
// leaves the vault; only the signature comes back.
type VaultAdapter struct {
	providers map[string]config.VaultProvider
	client    HTTPClient
	retries   int
	backoff   time.Duration
	log       zerolog.Logger

	mu      sync.RWMutex
	pubKeys map[string]ed25519.PublicKey
}

// NewVaultAdapter creates a VAULT adapter over the configured providers.
func NewVaultAdapter(cfg config.VaultConfig, client HTTPClient, log zerolog.Logger) *VaultAdapter {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}
	return &VaultAdapter{
		providers: cfg.Providers,
		client:    client,
		retries:   retries,
		backoff:   cfg.Backoff,
		log:       log,
		pubKeys:   make(map[string]ed25519.PublicKey),
	}
}

// StorageType reports that this adapter serves VAULT wallets.
func (a *VaultAdapter) StorageType() domain.KeyStorageType {
	return domain.KeyStorageVault
}

// ParseKeyRef splits a "provider://key" vault reference.
func ParseKeyRef(ref string) (provider, key string, err error) {
	provider, key, ok := strings.Cut(ref, "://")
	if !ok || provider == "" || key == "" {
		return "", "", fmt.Errorf("vault key reference %q is not of the form provider://key", ref)
	}
	return provider, strings.Trim(key, "/"), nil
}

// Sign asks the vault to sign the blob's signing payload and attaches the result.
func (a *VaultAdapter) Sign(ctx context.Context, unsignedTxBlob string, key domain.KeyMaterial) (*ports.SignedTx, error) {
	providerName, keyName, err := ParseKeyRef(key.VaultKeyRef)
	if err != nil {
		return nil, &SigningError{Kind: KindKeyMaterial, Err: err}
	}
	provider, ok := a.providers[providerName]
	if !ok {
		return nil, signingErr(KindKeyMaterial, "vault provider %q is not configured", providerName)
	}

	payload, err := ledger.SigningPayload(unsignedTxBlob)
	if err != nil {
		return nil, &SigningError{Kind: KindLedger, Err: err}
	}

	pub, err := a.publicKey(ctx, providerName, provider, keyName)
	if err != nil {
		return nil, &SigningError{Kind: KindVault, Err: err}
	}
	sig, err := a.sign(ctx, provider, keyName, payload)
	if err != nil {
		return nil, &SigningError{Kind: KindVault, Err: err}
	}
	if !ed25519.Verify(pub, payload, sig) {
		return nil, signingErr(KindVault, "signature from %s does not verify against key %s", providerName, keyName)
	}

	signedBlob, txHash, err := ledger.Attach(unsignedTxBlob, LedgerPublicKey(pub), sig)
	if err != nil {
		return nil, &SigningError{Kind: KindLedger, Err: err}
	}
	a.log.Debug().Str("provider", providerName).Str("key", keyName).Str("tx_hash", txHash).Msg("vault: transaction signed")
	return &ports.SignedTx{SignedTxBlob: signedBlob, TxHash: txHash}, nil
}

type transitSignRequest struct {
	Input string `json:"input"`
}

type transitSignResponse struct {
	Data struct {
		Signature string `json:"signature"`
	} `json:"data"`
}

type transitKeyResponse struct {
	Data struct {
		LatestVersion int `json:"latest_version"`
		Keys          map[string]struct {
			PublicKey string `json:"public_key"`
		} `json:"keys"`
	} `json:"data"`
}

func (a *VaultAdapter) sign(ctx context.Context, p config.VaultProvider, keyName string, payload []byte) ([]byte, error) {
	body, err := json.Marshal(transitSignRequest{Input: base64.StdEncoding.EncodeToString(payload)})
	if err != nil {
		return nil, err
	}
	data, err := a.do(ctx, http.MethodPost, transitURL(p, "sign", keyName), p.Token, body)
	if err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	var resp transitSignResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding sign response: %w", err)
	}
	// vault:v<version>:<base64 signature>
	parts := strings.SplitN(resp.Data.Signature, ":", 3)
	if len(parts) != 3 || parts[0] != "vault" {
		return nil, fmt.Errorf("unexpected signature format %q", resp.Data.Signature)
	}
	sig, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("decoding signature: %w", err)
	}
	return sig, nil
}

func (a *VaultAdapter) publicKey(ctx context.Context, providerName string, p config.VaultProvider, keyName string) (ed25519.PublicKey, error) {
	cacheKey := providerName + "/" + keyName
	a.mu.RLock()
	pub, ok := a.pubKeys[cacheKey]
	a.mu.RUnlock()
	if ok {
		return pub, nil
	}

	data, err := a.do(ctx, http.MethodGet, transitURL(p, "keys", keyName), p.Token, nil)
	if err != nil {
		return nil, fmt.Errorf("key lookup: %w", err)
	}
	var resp transitKeyResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding key response: %w", err)
	}
	version, ok := resp.Data.Keys[strconv.Itoa(resp.Data.LatestVersion)]
	if !ok {
		return nil, fmt.Errorf("key %s has no version %d", keyName, resp.Data.LatestVersion)
	}
	raw, err := base64.StdEncoding.DecodeString(version.PublicKey)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("key %s is not an ed25519 key", keyName)
	}

	pub = ed25519.PublicKey(raw)
	a.mu.Lock()
	a.pubKeys[cacheKey] = pub
	a.mu.Unlock()
	return pub, nil
}

// do performs a vault call, retrying transport errors and 5xx answers with linear backoff.
func (a *VaultAdapter) do(ctx context.Context, method, url, token string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= a.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(a.backoff * time.Duration(attempt)):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Vault-Token", token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := a.client.Do(req)
		if err != nil {
			lastErr = err
			a.log.Warn().Err(err).Str("url", url).Int("attempt", attempt+1).Msg("vault: request failed")
			continue
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxVaultResponse))
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("vault returned %d", resp.StatusCode)
			a.log.Warn().Str("url", url).Int("attempt", attempt+1).Int("status", resp.StatusCode).Msg("vault: server error, retrying")
			continue
		case resp.StatusCode >= 300:
			return nil, fmt.Errorf("vault returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return data, nil
	}
	return nil, fmt.Errorf("vault unavailable after %d attempts: %w", a.retries+1, lastErr)
}

func transitURL(p config.VaultProvider, op, keyName string) string {
	mount := strings.Trim(p.Mount, "/")
	if mount == "" {
		mount = defaultTransitMount
	}
	return strings.TrimRight(p.Address, "/") + "/v1/" + mount + "/" + op + "/" + keyName
}

// HealthCheckers returns one probe per configured provider. A vault outage only
// affects VAULT wallets, so the probes are not critical.
func (a *VaultAdapter) HealthCheckers() []ports.HealthChecker {
	names := make([]string, 0, len(a.providers))
	for name := range a.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ports.HealthChecker, 0, len(names))
	for _, name := range names {
		out = append(out, &vaultHealth{name: name, provider: a.providers[name], client: a.client})
	}
	return out
}

type vaultHealth struct {
	name     string
	provider config.VaultProvider
	client   HTTPClient
}

func (h *vaultHealth) Name() string   { return "vault:" + h.name }
func (h *vaultHealth) Critical() bool { return false }

// Ping asks the provider's sys/health endpoint. Standby nodes (429) still serve transit reads.
func (h *vaultHealth) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(h.provider.Address, "/")+"/v1/sys/health", nil)
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxVaultResponse))

	switch resp.StatusCode {
	case http.StatusOK, http.StatusTooManyRequests:
		return nil
	case http.StatusServiceUnavailable:
		return fmt.Errorf("vault %s is sealed", h.name)
	default:
		return fmt.Errorf("vault %s health returned %d", h.name, resp.StatusCode)
	}
}
