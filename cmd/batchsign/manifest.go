package main

import (
	"encoding/json"
	"fmt"
	"io"

	"rwa-signing-gateway/internal/core/domain"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// manifest is the YAML description of a batch.
type manifest struct {
	WalletID     string                `yaml:"walletId"`
	Mode         string                `yaml:"mode"`
	Transactions []manifestTransaction `yaml:"transactions"`
}

type manifestTransaction struct {
	TxType string         `yaml:"txType"`
	Params map[string]any `yaml:"params"`
}

// readManifest decodes a manifest and builds the batch it describes.
// Params go through the same JSON decoding the HTTP API uses, so unknown fields are rejected.
func readManifest(r io.Reader) (*domain.Batch, error) {
	var m manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}

	walletID, err := uuid.Parse(m.WalletID)
	if err != nil {
		return nil, fmt.Errorf("walletId: %w", err)
	}
	mode := domain.BatchAtomicityMode(m.Mode)
	if m.Mode == "" {
		mode = domain.ModeAllOrNothing
	}
	b, err := domain.NewBatch(walletID, mode)
	if err != nil {
		return nil, err
	}

	for i, tx := range m.Transactions {
		var raw json.RawMessage
		if tx.Params != nil {
			if raw, err = json.Marshal(tx.Params); err != nil {
				return nil, fmt.Errorf("transactions[%d]: %w", i, err)
			}
		}
		params, err := domain.DecodeTxParams(domain.TxType(tx.TxType), raw)
		if err != nil {
			return nil, fmt.Errorf("transactions[%d]: %w", i, err)
		}
		if _, err := b.Add(params); err != nil {
			return nil, fmt.Errorf("transactions[%d]: %w", i, err)
		}
	}
	return b, nil
}
