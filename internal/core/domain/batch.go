package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// MaxBatchTransactions is the largest number of transactions one batch may hold.
const MaxBatchTransactions = 8

// BatchAtomicityMode governs whether a batch continues after a failed transaction.
type BatchAtomicityMode string

const (
	ModeAllOrNothing BatchAtomicityMode = "ALL_OR_NOTHING"
	ModeUntilFailure BatchAtomicityMode = "UNTIL_FAILURE"
	ModeOnlyOne      BatchAtomicityMode = "ONLY_ONE"
	ModeIndependent  BatchAtomicityMode = "INDEPENDENT"
)

// Valid reports whether m is a known mode.
func (m BatchAtomicityMode) Valid() bool {
	switch m {
	case ModeAllOrNothing, ModeUntilFailure, ModeOnlyOne, ModeIndependent:
		return true
	}
	return false
}

// BatchTxStatus is the per-transaction outcome within a batch.
type BatchTxStatus string

const (
	BatchTxPending BatchTxStatus = "PENDING"
	BatchTxSuccess BatchTxStatus = "SUCCESS"
	BatchTxFailed  BatchTxStatus = "FAILED"
	BatchTxSkipped BatchTxStatus = "SKIPPED"
)

var (
	ErrBatchFull       = fmt.Errorf("batch already holds %d transactions", MaxBatchTransactions)
	ErrTxNotInBatch    = errors.New("transaction not in batch")
	ErrOrderOutOfRange = errors.New("order out of range")
)

// BatchTransaction is one ordered element of a batch.
type BatchTransaction struct {
	ID     uuid.UUID
	Order  int
	Params TxParams
	Status BatchTxStatus
}

// TxType returns the type carried by the params.
func (t BatchTransaction) TxType() TxType {
	if t.Params == nil {
		return ""
	}
	return t.Params.TxType()
}

type batchTransactionJSON struct {
	ID     uuid.UUID       `json:"id"`
	Order  int             `json:"order"`
	TxType TxType          `json:"txType"`
	Params json.RawMessage `json:"params"`
	Status BatchTxStatus   `json:"status"`
}

// MarshalJSON writes the transaction with its params under an explicit txType.
func (t BatchTransaction) MarshalJSON() ([]byte, error) {
	params, err := json.Marshal(t.Params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(batchTransactionJSON{
		ID:     t.ID,
		Order:  t.Order,
		TxType: t.TxType(),
		Params: params,
		Status: t.Status,
	})
}

// UnmarshalJSON decodes params into the struct matching txType.
func (t *BatchTransaction) UnmarshalJSON(data []byte) error {
	var raw batchTransactionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	params, err := DecodeTxParams(raw.TxType, raw.Params)
	if err != nil {
		return err
	}
	t.ID = raw.ID
	t.Order = raw.Order
	t.Params = params
	t.Status = raw.Status
	if t.Status == "" {
		t.Status = BatchTxPending
	}
	return nil
}

// Batch is a client-composed, ordered list of transactions for one wallet.
type Batch struct {
	ID           uuid.UUID          `json:"id"`
	WalletID     uuid.UUID          `json:"walletId"`
	Mode         BatchAtomicityMode `json:"mode"`
	Transactions []BatchTransaction `json:"transactions"`
}

// NewBatch creates an empty batch.
func NewBatch(walletID uuid.UUID, mode BatchAtomicityMode) (*Batch, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown atomicity mode %q", mode)
	}
	return &Batch{ID: uuid.New(), WalletID: walletID, Mode: mode}, nil
}

// Add appends a transaction at the end of the batch.
func (b *Batch) Add(params TxParams) (BatchTransaction, error) {
	if len(b.Transactions) >= MaxBatchTransactions {
		return BatchTransaction{}, ErrBatchFull
	}
	if params == nil {
		return BatchTransaction{}, errors.New("params are required")
	}
	b.normalize()
	tx := BatchTransaction{
		ID:     uuid.New(),
		Order:  len(b.Transactions) + 1,
		Params: params,
		Status: BatchTxPending,
	}
	b.Transactions = append(b.Transactions, tx)
	return tx, nil
}

// Remove deletes a transaction and closes the gap in order.
func (b *Batch) Remove(id uuid.UUID) error {
	b.normalize()
	idx := b.indexOf(id)
	if idx < 0 {
		return ErrTxNotInBatch
	}
	b.Transactions = append(b.Transactions[:idx], b.Transactions[idx+1:]...)
	b.renumber()
	return nil
}

// Move places a transaction at newOrder (1-indexed), shifting the others.
func (b *Batch) Move(id uuid.UUID, newOrder int) error {
	b.normalize()
	idx := b.indexOf(id)
	if idx < 0 {
		return ErrTxNotInBatch
	}
	if newOrder < 1 || newOrder > len(b.Transactions) {
		return ErrOrderOutOfRange
	}
	tx := b.Transactions[idx]
	rest := append(b.Transactions[:idx:idx], b.Transactions[idx+1:]...)

	moved := make([]BatchTransaction, 0, len(b.Transactions))
	moved = append(moved, rest[:newOrder-1]...)
	moved = append(moved, tx)
	moved = append(moved, rest[newOrder-1:]...)
	b.Transactions = moved
	b.renumber()
	return nil
}

// Ordered returns the transactions sorted by ascending order.
func (b *Batch) Ordered() []BatchTransaction {
	out := make([]BatchTransaction, len(b.Transactions))
	copy(out, b.Transactions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// normalize sorts by order so that decoded batches with arbitrary order values behave.
func (b *Batch) normalize() {
	b.Transactions = b.Ordered()
	b.renumber()
}

func (b *Batch) renumber() {
	for i := range b.Transactions {
		b.Transactions[i].Order = i + 1
	}
}

func (b *Batch) indexOf(id uuid.UUID) int {
	for i, tx := range b.Transactions {
		if tx.ID == id {
			return i
		}
	}
	return -1
}
