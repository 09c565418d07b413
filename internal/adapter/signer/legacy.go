package signer

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"

	"rwa-signing-gateway/internal/core/domain"
	"rwa-signing-gateway/internal/core/ports"
	"rwa-signing-gateway/internal/ledger"
)

// ed25519KeyPrefix marks an Ed25519 public key on the ledger.
const ed25519KeyPrefix = 0xED

// LegacyAdapter signs with seeds stored encrypted in the database.
type LegacyAdapter struct {
	enc ports.EncryptionService
}

// NewLegacyAdapter creates a LEGACY_DB adapter. enc must use the key derived
// from the shared service secret.
func NewLegacyAdapter(enc ports.EncryptionService) *LegacyAdapter {
	return &LegacyAdapter{enc: enc}
}

// StorageType reports that this adapter serves LEGACY_DB wallets.
func (a *LegacyAdapter) StorageType() domain.KeyStorageType {
	return domain.KeyStorageLegacyDB
}

// Sign decrypts the hex seed, derives the Ed25519 key from SHA-512Half(seed)
// and attaches the signature to the blob.
func (a *LegacyAdapter) Sign(ctx context.Context, unsignedTxBlob string, key domain.KeyMaterial) (*ports.SignedTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, &SigningError{Kind: KindLedger, Err: err}
	}
	if key.EncryptedSeed == "" {
		return nil, signingErr(KindKeyMaterial, "encrypted seed is missing")
	}

	seedHex, err := a.enc.Decrypt(key.EncryptedSeed)
	if err != nil {
		return nil, signingErr(KindKeyMaterial, "decrypting seed: %w", err)
	}
	seed, err := hex.DecodeString(seedHex)
	if err != nil || len(seed) == 0 {
		return nil, signingErr(KindKeyMaterial, "stored seed is not hex encoded")
	}

	priv := LegacyPrivateKey(seed)
	payload, err := ledger.SigningPayload(unsignedTxBlob)
	if err != nil {
		return nil, &SigningError{Kind: KindLedger, Err: err}
	}
	sig := ed25519.Sign(priv, payload)

	signedBlob, txHash, err := ledger.Attach(unsignedTxBlob, LedgerPublicKey(priv.Public().(ed25519.PublicKey)), sig)
	if err != nil {
		return nil, &SigningError{Kind: KindLedger, Err: err}
	}
	return &ports.SignedTx{SignedTxBlob: signedBlob, TxHash: txHash}, nil
}

// LegacyPrivateKey derives the Ed25519 key for a raw seed.
func LegacyPrivateKey(seed []byte) ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(ledger.SHA512Half(seed))
}

// LedgerPublicKey renders an Ed25519 public key the way the ledger expects it.
func LedgerPublicKey(pub ed25519.PublicKey) []byte {
	out := make([]byte, 0, len(pub)+1)
	out = append(out, ed25519KeyPrefix)
	return append(out, pub...)
}
