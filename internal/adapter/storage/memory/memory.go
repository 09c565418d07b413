// Package memory holds process-local repositories for development and tests.
// Nothing here survives a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"rwa-signing-gateway/internal/core/domain"
	"rwa-signing-gateway/internal/core/ports"

	"github.com/google/uuid"
)

// --- Wallets ---

// WalletStore implements ports.WalletRepository.
type WalletStore struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]domain.Wallet
}

func NewWalletStore() *WalletStore {
	return &WalletStore{wallets: make(map[uuid.UUID]domain.Wallet)}
}

// Put inserts or replaces a wallet. Provisioning is out of band, so this is the only writer besides UpdateStatus.
func (s *WalletStore) Put(w domain.Wallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[w.ID] = w
}

func (s *WalletStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (s *WalletStore) List(ctx context.Context, params ports.WalletListParams) ([]domain.Wallet, int64, error) {
	s.mu.RLock()
	var matched []domain.Wallet
	for _, w := range s.wallets {
		if params.Status != nil && w.Status != *params.Status {
			continue
		}
		if params.Network != nil && w.Network != *params.Network {
			continue
		}
		if params.Role != "" && w.Role != params.Role {
			continue
		}
		matched = append(matched, w)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return page(matched, params.Page, params.PageSize), int64(len(matched)), nil
}

func (s *WalletStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.WalletStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok || w.Status != from {
		return false, nil
	}
	w.Status = to
	w.UpdatedAt = time.Now().UTC()
	s.wallets[id] = w
	return true, nil
}

// --- Policies ---

// PolicyStore implements ports.PolicyRepository.
type PolicyStore struct {
	mu       sync.RWMutex
	policies map[string]domain.SigningPolicy
}

func NewPolicyStore() *PolicyStore {
	return &PolicyStore{policies: make(map[string]domain.SigningPolicy)}
}

func (s *PolicyStore) FindCandidates(ctx context.Context, role string, network domain.Network, txType string) ([]domain.SigningPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.SigningPolicy
	for _, p := range s.policies {
		if !p.IsActive || p.Network != network {
			continue
		}
		if p.WalletRole != role && p.WalletRole != domain.Wildcard {
			continue
		}
		if p.TxType != txType && p.TxType != domain.Wildcard {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *PolicyStore) GetByID(ctx context.Context, id string) (*domain.SigningPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *PolicyStore) List(ctx context.Context, params ports.PolicyListParams) ([]domain.SigningPolicy, error) {
	s.mu.RLock()
	var out []domain.SigningPolicy
	for _, p := range s.policies {
		if params.Role != "" && p.WalletRole != params.Role {
			continue
		}
		if params.Network != nil && p.Network != *params.Network {
			continue
		}
		if params.ActiveOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Network != b.Network {
			return a.Network < b.Network
		}
		if a.WalletRole != b.WalletRole {
			return a.WalletRole < b.WalletRole
		}
		if a.TxType != b.TxType {
			return a.TxType < b.TxType
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *PolicyStore) Create(ctx context.Context, p *domain.SigningPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.policies[p.ID]; exists {
		return fmt.Errorf("policy %s already exists", p.ID)
	}
	s.policies[p.ID] = *p
	return nil
}

func (s *PolicyStore) Update(ctx context.Context, p *domain.SigningPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[p.ID]; !ok {
		return fmt.Errorf("policy not found: %s", p.ID)
	}
	s.policies[p.ID] = *p
	return nil
}

func (s *PolicyStore) Deactivate(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.policies[id]
	if !ok {
		return false, nil
	}
	p.IsActive = false
	p.UpdatedAt = time.Now().UTC()
	s.policies[id] = p
	return true, nil
}

// --- Signing audit ---

// SigningAuditStore implements ports.SigningAuditRepository as an append-only slice.
type SigningAuditStore struct {
	mu      sync.RWMutex
	entries []domain.SigningAuditEntry
}

func NewSigningAuditStore() *SigningAuditStore {
	return &SigningAuditStore{}
}

func (s *SigningAuditStore) Append(ctx context.Context, e *domain.SigningAuditEntry) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.entries = append(s.entries, *e)
	return e.ID, nil
}

func (s *SigningAuditStore) FindSigned(ctx context.Context, walletID uuid.UUID, unsignedTxHash string) (*domain.SigningAuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.WalletID == walletID && e.UnsignedTxHash == unsignedTxHash && e.Status == domain.SigningStatusSigned {
			return &e, nil
		}
	}
	return nil, nil
}

// List returns entries newest first.
func (s *SigningAuditStore) List(ctx context.Context, params ports.AuditListParams) ([]domain.SigningAuditEntry, int64, error) {
	s.mu.RLock()
	var matched []domain.SigningAuditEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if params.WalletID != nil && e.WalletID != *params.WalletID {
			continue
		}
		if params.Status != nil && e.Status != *params.Status {
			continue
		}
		matched = append(matched, e)
	}
	s.mu.RUnlock()
	return page(matched, params.Page, params.PageSize), int64(len(matched)), nil
}

// Len reports how many entries were appended.
func (s *SigningAuditStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// --- Admin audit ---

// AdminAuditStore implements ports.AdminAuditRepository.
type AdminAuditStore struct {
	mu   sync.Mutex
	logs []domain.AdminAuditLog
}

func NewAdminAuditStore() *AdminAuditStore {
	return &AdminAuditStore{}
}

func (s *AdminAuditStore) Create(ctx context.Context, log *domain.AdminAuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, *log)
	return nil
}

// Logs returns a copy of everything recorded so far.
func (s *AdminAuditStore) Logs() []domain.AdminAuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AdminAuditLog(nil), s.logs...)
}

func page[T any](items []T, pageNum, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}
	if pageNum < 1 {
		pageNum = 1
	}
	start := (pageNum - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
