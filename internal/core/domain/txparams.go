package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// TxType is a ledger transaction type.
type TxType string

const (
	TxTypePayment     TxType = "Payment"
	TxTypeTrustSet    TxType = "TrustSet"
	TxTypeAccountSet  TxType = "AccountSet"
	TxTypeOfferCreate TxType = "OfferCreate"
	TxTypeNFTokenMint TxType = "NFTokenMint"
	TxTypeClawback    TxType = "Clawback"
)

// Valid reports whether t is a supported transaction type.
func (t TxType) Valid() bool {
	switch t {
	case TxTypePayment, TxTypeTrustSet, TxTypeAccountSet, TxTypeOfferCreate, TxTypeNFTokenMint, TxTypeClawback:
		return true
	}
	return false
}

// NativeCurrency is the ledger's native asset code.
const NativeCurrency = "XRP"

const dropsPerXRP = 1_000_000

var (
	classicAddressRe = regexp.MustCompile(`^r[1-9A-HJ-NP-Za-km-z]{24,34}$`)
	currencyCodeRe   = regexp.MustCompile(`^([A-Za-z0-9?!@#$%^&*<>(){}\[\]|]{3}|[0-9A-Fa-f]{40})$`)
	hexRe            = regexp.MustCompile(`^([0-9A-Fa-f]{2})*$`)
)

// IsClassicAddress reports whether s looks like a classic ledger account address.
func IsClassicAddress(s string) bool {
	return classicAddressRe.MatchString(s)
}

// Amount is either a native XRP amount or an issued-currency amount.
type Amount struct {
	Currency string          `json:"currency"`
	Issuer   string          `json:"issuer,omitempty"`
	Value    decimal.Decimal `json:"value"`
}

// IsNative returns true for XRP amounts.
func (a Amount) IsNative() bool {
	return a.Currency == NativeCurrency
}

// Validate checks currency, issuer and value.
func (a Amount) Validate(field string) error {
	if a.Currency == "" {
		return fmt.Errorf("%s.currency is required", field)
	}
	if !a.Value.IsPositive() {
		return fmt.Errorf("%s.value must be positive", field)
	}
	if a.IsNative() {
		if a.Issuer != "" {
			return fmt.Errorf("%s: XRP amounts have no issuer", field)
		}
		if !a.Value.Mul(decimal.NewFromInt(dropsPerXRP)).IsInteger() {
			return fmt.Errorf("%s.value has more than 6 decimal places", field)
		}
		return nil
	}
	if !currencyCodeRe.MatchString(a.Currency) {
		return fmt.Errorf("%s.currency %q is not a valid currency code", field, a.Currency)
	}
	if !IsClassicAddress(a.Issuer) {
		return fmt.Errorf("%s.issuer must be a valid account address", field)
	}
	return nil
}

// LedgerValue renders the amount the way the ledger expects it:
// drops as a string for XRP, an object for issued currencies.
func (a Amount) LedgerValue() interface{} {
	if a.IsNative() {
		return a.Value.Mul(decimal.NewFromInt(dropsPerXRP)).Truncate(0).String()
	}
	return map[string]string{
		"currency": a.Currency,
		"issuer":   a.Issuer,
		"value":    a.Value.String(),
	}
}

// TxParams is the strongly typed parameter set of one transaction type.
type TxParams interface {
	TxType() TxType
	Validate() error
	// Amount is the value moved out of the wallet, nil when the type moves none.
	Amount() *Amount
	// LedgerFields are the type-specific fields of the unsigned transaction.
	LedgerFields() map[string]interface{}
}

// Payment sends value to another account.
type Payment struct {
	Destination    string  `json:"destination"`
	DestinationTag *uint32 `json:"destinationTag,omitempty"`
	Value          Amount  `json:"amount"`
}

func (p *Payment) TxType() TxType { return TxTypePayment }

func (p *Payment) Validate() error {
	if !IsClassicAddress(p.Destination) {
		return errors.New("destination must be a valid account address")
	}
	return p.Value.Validate("amount")
}

func (p *Payment) Amount() *Amount { return &p.Value }

func (p *Payment) LedgerFields() map[string]interface{} {
	f := map[string]interface{}{
		"Destination": p.Destination,
		"Amount":      p.Value.LedgerValue(),
	}
	if p.DestinationTag != nil {
		f["DestinationTag"] = *p.DestinationTag
	}
	return f
}

// TrustSet creates or modifies a trust line.
type TrustSet struct {
	LimitAmount Amount `json:"limitAmount"`
	NoRipple    bool   `json:"noRipple,omitempty"`
}

func (p *TrustSet) TxType() TxType { return TxTypeTrustSet }

func (p *TrustSet) Validate() error {
	if p.LimitAmount.IsNative() {
		return errors.New("limitAmount must be an issued currency")
	}
	return p.LimitAmount.Validate("limitAmount")
}

func (p *TrustSet) Amount() *Amount { return nil }

func (p *TrustSet) LedgerFields() map[string]interface{} {
	f := map[string]interface{}{"LimitAmount": p.LimitAmount.LedgerValue()}
	if p.NoRipple {
		f["Flags"] = uint32(0x00020000) // tfSetNoRipple
	}
	return f
}

// AccountSet changes account flags and settings.
type AccountSet struct {
	SetFlag      *uint32 `json:"setFlag,omitempty"`
	ClearFlag    *uint32 `json:"clearFlag,omitempty"`
	Domain       string  `json:"domain,omitempty"` // hex encoded
	TransferRate *uint32 `json:"transferRate,omitempty"`
}

func (p *AccountSet) TxType() TxType { return TxTypeAccountSet }

func (p *AccountSet) Validate() error {
	if p.SetFlag == nil && p.ClearFlag == nil && p.Domain == "" && p.TransferRate == nil {
		return errors.New("at least one of setFlag, clearFlag, domain, transferRate is required")
	}
	if p.SetFlag != nil && p.ClearFlag != nil && *p.SetFlag == *p.ClearFlag {
		return errors.New("setFlag and clearFlag must differ")
	}
	if p.Domain != "" && (!hexRe.MatchString(p.Domain) || len(p.Domain) > 512) {
		return errors.New("domain must be hex encoded and at most 256 bytes")
	}
	if p.TransferRate != nil && *p.TransferRate != 0 && (*p.TransferRate < 1_000_000_000 || *p.TransferRate > 2_000_000_000) {
		return errors.New("transferRate must be 0 or between 1000000000 and 2000000000")
	}
	return nil
}

func (p *AccountSet) Amount() *Amount { return nil }

func (p *AccountSet) LedgerFields() map[string]interface{} {
	f := map[string]interface{}{}
	if p.SetFlag != nil {
		f["SetFlag"] = *p.SetFlag
	}
	if p.ClearFlag != nil {
		f["ClearFlag"] = *p.ClearFlag
	}
	if p.Domain != "" {
		f["Domain"] = p.Domain
	}
	if p.TransferRate != nil {
		f["TransferRate"] = *p.TransferRate
	}
	return f
}

// OfferCreate places an order on the decentralized exchange.
type OfferCreate struct {
	TakerGets  Amount  `json:"takerGets"`
	TakerPays  Amount  `json:"takerPays"`
	Expiration *uint32 `json:"expiration,omitempty"`
}

func (p *OfferCreate) TxType() TxType { return TxTypeOfferCreate }

func (p *OfferCreate) Validate() error {
	if err := p.TakerGets.Validate("takerGets"); err != nil {
		return err
	}
	if err := p.TakerPays.Validate("takerPays"); err != nil {
		return err
	}
	if p.TakerGets.Currency == p.TakerPays.Currency && p.TakerGets.Issuer == p.TakerPays.Issuer {
		return errors.New("takerGets and takerPays must be different assets")
	}
	return nil
}

// Amount of an offer is what the wallet gives away.
func (p *OfferCreate) Amount() *Amount { return &p.TakerGets }

func (p *OfferCreate) LedgerFields() map[string]interface{} {
	f := map[string]interface{}{
		"TakerGets": p.TakerGets.LedgerValue(),
		"TakerPays": p.TakerPays.LedgerValue(),
	}
	if p.Expiration != nil {
		f["Expiration"] = *p.Expiration
	}
	return f
}

// NFTokenMint mints a non-fungible token, typically representing the tokenized asset.
type NFTokenMint struct {
	NFTokenTaxon uint32  `json:"nftokenTaxon"`
	URI          string  `json:"uri,omitempty"` // hex encoded
	TransferFee  *uint16 `json:"transferFee,omitempty"`
	Transferable bool    `json:"transferable,omitempty"`
}

func (p *NFTokenMint) TxType() TxType { return TxTypeNFTokenMint }

func (p *NFTokenMint) Validate() error {
	if p.URI != "" && (!hexRe.MatchString(p.URI) || len(p.URI) > 512) {
		return errors.New("uri must be hex encoded and at most 256 bytes")
	}
	if p.TransferFee != nil {
		if *p.TransferFee > 50000 {
			return errors.New("transferFee must be between 0 and 50000")
		}
		if !p.Transferable {
			return errors.New("transferFee requires a transferable token")
		}
	}
	return nil
}

func (p *NFTokenMint) Amount() *Amount { return nil }

func (p *NFTokenMint) LedgerFields() map[string]interface{} {
	f := map[string]interface{}{"NFTokenTaxon": p.NFTokenTaxon}
	if p.URI != "" {
		f["URI"] = p.URI
	}
	if p.TransferFee != nil {
		f["TransferFee"] = *p.TransferFee
	}
	if p.Transferable {
		f["Flags"] = uint32(0x00000008) // tfTransferable
	}
	return f
}

// Clawback recovers issued tokens from a holder. Value.Issuer names the holder.
type Clawback struct {
	Value Amount `json:"amount"`
}

func (p *Clawback) TxType() TxType { return TxTypeClawback }

func (p *Clawback) Validate() error {
	if p.Value.IsNative() {
		return errors.New("XRP cannot be clawed back")
	}
	return p.Value.Validate("amount")
}

func (p *Clawback) Amount() *Amount { return &p.Value }

func (p *Clawback) LedgerFields() map[string]interface{} {
	return map[string]interface{}{"Amount": p.Value.LedgerValue()}
}

// NewTxParams returns an empty parameter struct for txType.
func NewTxParams(txType TxType) (TxParams, error) {
	switch txType {
	case TxTypePayment:
		return &Payment{}, nil
	case TxTypeTrustSet:
		return &TrustSet{}, nil
	case TxTypeAccountSet:
		return &AccountSet{}, nil
	case TxTypeOfferCreate:
		return &OfferCreate{}, nil
	case TxTypeNFTokenMint:
		return &NFTokenMint{}, nil
	case TxTypeClawback:
		return &Clawback{}, nil
	default:
		return nil, fmt.Errorf("unsupported transaction type %q", txType)
	}
}

// DecodeTxParams decodes raw JSON params into the struct for txType.
// Unknown fields are rejected.
func DecodeTxParams(txType TxType, raw json.RawMessage) (TxParams, error) {
	p, err := NewTxParams(txType)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return p, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("decoding %s params: %w", txType, err)
	}
	return p, nil
}
