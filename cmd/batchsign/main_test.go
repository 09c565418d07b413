package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"rwa-signing-gateway/internal/core/domain"
	"rwa-signing-gateway/internal/core/ports"
	"rwa-signing-gateway/internal/service"
	"rwa-signing-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifest = `
walletId: %s
mode: ALL_OR_NOTHING
transactions:
  - txType: Payment
    params:
      destination: rGWrZyQqhTp9Xu7G5Pkayo7bXjH4k4QYpf
      amount:
        currency: XRP
        value: "12.5"
  - txType: AccountSet
    params:
      domain: 6578616D706C652E636F6D
`

func TestReadManifest(t *testing.T) {
	id := uuid.New()
	b, err := readManifest(strings.NewReader(strings.Replace(testManifest, "%s", id.String(), 1)))
	require.NoError(t, err)

	assert.Equal(t, id, b.WalletID)
	assert.Equal(t, domain.ModeAllOrNothing, b.Mode)
	require.Len(t, b.Transactions, 2)
	p, ok := b.Transactions[0].Params.(*domain.Payment)
	require.True(t, ok)
	assert.Equal(t, "12.5", p.Value.Value.String())
	assert.Equal(t, domain.TxTypeAccountSet, b.Transactions[1].TxType())
}

func TestReadManifest_Errors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{"bad wallet id", "walletId: nope\ntransactions: []\n"},
		{"unknown mode", "walletId: " + uuid.NewString() + "\nmode: SOMETIMES\n"},
		{"unknown top-level field", "walletId: " + uuid.NewString() + "\nwallet: x\n"},
		{"unknown tx type", "walletId: " + uuid.NewString() + "\ntransactions:\n  - txType: EscrowCreate\n"},
		{"unknown param", "walletId: " + uuid.NewString() + "\ntransactions:\n  - txType: Payment\n    params:\n      memo: hi\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readManifest(strings.NewReader(tt.manifest))
			assert.Error(t, err)
		})
	}
}

func TestReadManifest_DefaultsToAllOrNothing(t *testing.T) {
	b, err := readManifest(strings.NewReader("walletId: " + uuid.NewString() + "\n"))
	require.NoError(t, err)
	assert.Equal(t, domain.ModeAllOrNothing, b.Mode)
}

func testToken(t *testing.T, id ports.Identity) string {
	tok, _, err := service.NewJWTTokenService("cli-test-secret", time.Hour, "test").Generate(id)
	require.NoError(t, err)
	return tok
}

func TestIdentityFromToken(t *testing.T) {
	id, err := identityFromToken(testToken(t, ports.Identity{UserID: "u-1", Name: "Ops", Role: "operator"}))
	require.NoError(t, err)
	assert.Equal(t, ports.Identity{UserID: "u-1", Name: "Ops", Role: "operator"}, *id)

	_, err = identityFromToken("not.a.jwt")
	assert.Error(t, err)
}

// fakeGateway serves the three endpoints the CLI uses. The second signing call is rejected.
func fakeGateway(t *testing.T, walletID uuid.UUID) (*httptest.Server, *int32) {
	var signCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/wallets/{id}", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": domain.Wallet{
			ID: walletID, Address: "rPT1Sjq2YGrBMTttX4GZHjKu9dyfzbpAYe", Status: domain.WalletStatusActive,
			KeyStorageType: domain.KeyStorageVault, Network: domain.NetworkTestnet, Role: "issuer",
		}})
	})
	mux.HandleFunc("GET /api/v1/policies/resolve", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"policy": nil}})
	})
	mux.HandleFunc("POST /api/v1/sign-transaction", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "u-1", body["requestedBy"])

		if atomic.AddInt32(&signCalls, 1) == 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(ports.SigningResponse{
				Error: "rate limit exceeded", ErrorCode: apperror.CodeRateLimitExceeded, AuditLogID: "audit-2",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(ports.SigningResponse{Success: true, SignedTxBlob: "AA", TxHash: "HASH1", AuditLogID: "audit-1"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &signCalls
}

func writeManifest(t *testing.T, walletID uuid.UUID) string {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(testManifest, "%s", walletID.String(), 1)), 0o600))
	return path
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	walletID := uuid.New()
	srv, calls := fakeGateway(t, walletID)

	var out bytes.Buffer
	err := run(context.Background(), options{
		manifest:   writeManifest(t, walletID),
		gatewayURL: srv.URL,
		token:      testToken(t, ports.Identity{UserID: "u-1", Role: "issuer"}),
		timeout:    10 * time.Second,
	}, &out, zerolog.Nop())

	assert.ErrorIs(t, err, errBatchFailed)
	assert.EqualValues(t, 2, atomic.LoadInt32(calls))
	assert.Contains(t, out.String(), "signed HASH1 (audit audit-1)")
	assert.Contains(t, out.String(), apperror.CodeRateLimitExceeded)
	assert.Contains(t, out.String(), ": ERROR")
}

func TestRun_DryRunSignsNothing(t *testing.T) {
	walletID := uuid.New()
	srv, calls := fakeGateway(t, walletID)

	var out bytes.Buffer
	err := run(context.Background(), options{
		manifest:   writeManifest(t, walletID),
		gatewayURL: srv.URL,
		token:      testToken(t, ports.Identity{UserID: "u-1", Role: "issuer"}),
		timeout:    10 * time.Second,
		dryRun:     true,
	}, &out, zerolog.Nop())

	require.NoError(t, err)
	assert.Zero(t, atomic.LoadInt32(calls))
	assert.Contains(t, out.String(), "no policy configured")
	assert.Contains(t, out.String(), "dry run")
}

func TestRun_RequiresToken(t *testing.T) {
	err := run(context.Background(), options{manifest: "unused.yaml"}, &bytes.Buffer{}, zerolog.Nop())
	assert.Error(t, err)
}
