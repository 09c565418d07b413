// Package signer holds one signing adapter per key storage type and the
// registry the gateway uses to pick between them.
package signer

import (
	"fmt"

	"rwa-signing-gateway/internal/core/domain"
	"rwa-signing-gateway/internal/core/ports"
)

// ErrorKind classifies adapter failures.
type ErrorKind string

const (
	KindKeyMaterial ErrorKind = "KEY_MATERIAL"
	KindVault       ErrorKind = "VAULT"
	KindLedger      ErrorKind = "LEDGER"
)

// SigningError is returned by every adapter in this package.
type SigningError struct {
	Kind ErrorKind
	Err  error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

func signingErr(kind ErrorKind, format string, args ...any) *SigningError {
	return &SigningError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Registry implements ports.AdapterRegistry.
type Registry struct {
	adapters map[domain.KeyStorageType]ports.SigningAdapter
}

// NewRegistry registers adapters by the storage type they report.
// A later adapter for the same type replaces an earlier one.
func NewRegistry(adapters ...ports.SigningAdapter) *Registry {
	r := &Registry{adapters: make(map[domain.KeyStorageType]ports.SigningAdapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.StorageType()] = a
	}
	return r
}

// Adapter returns the adapter for storageType.
func (r *Registry) Adapter(storageType domain.KeyStorageType) (ports.SigningAdapter, error) {
	a, ok := r.adapters[storageType]
	if !ok {
		return nil, fmt.Errorf("no signing adapter registered for key storage type %q", storageType)
	}
	return a, nil
}
