// Package ledger builds unsigned transaction blobs and computes the hashes
// the signing gateway keys its decisions on.
//
// A blob is the hex encoding of the transaction's canonical JSON (sorted keys).
// Hashes follow the ledger's SHA-512Half convention with a four byte
// domain prefix, rendered as uppercase hex.
package ledger

import (
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"rwa-signing-gateway/internal/core/domain"

	"github.com/shopspring/decimal"
)

var (
	// PrefixTxSign is prepended to an unsigned transaction before signing.
	PrefixTxSign = []byte{'S', 'T', 'X', 0x00}
	// PrefixTxID is prepended to a signed transaction to derive its id.
	PrefixTxID = []byte{'T', 'X', 'N', 0x00}
)

// DefaultFee is the base fee in drops used when building a transaction.
const DefaultFee = "12"

var ErrInvalidBlob = errors.New("transaction blob is not valid hex-encoded JSON")

// SHA512Half returns the first 32 bytes of SHA-512 over the concatenated parts.
func SHA512Half(parts ...[]byte) []byte {
	h := sha512.New()
	for _, p := range parts {
		h.Write(p)
	}
	sum := h.Sum(nil)
	return sum[:32]
}

// Encode builds the unsigned blob for a transaction sent from account.
func Encode(account string, params domain.TxParams) (string, error) {
	if params == nil {
		return "", errors.New("params are required")
	}
	if account == "" {
		return "", errors.New("account is required")
	}
	fields := params.LedgerFields()
	tx := make(map[string]interface{}, len(fields)+4)
	for k, v := range fields {
		tx[k] = v
	}
	tx["TransactionType"] = string(params.TxType())
	tx["Account"] = account
	tx["Fee"] = DefaultFee
	if _, ok := tx["Flags"]; !ok {
		tx["Flags"] = uint32(0)
	}
	return encodeFields(tx)
}

// Decode returns the fields of a blob.
func Decode(blob string) (map[string]interface{}, error) {
	raw, err := hex.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBlob, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBlob, err)
	}
	return fields, nil
}

// Summary is the part of an unsigned transaction a signing decision depends on.
type Summary struct {
	TransactionType string
	Account         string
	// NativeOutflow is the XRP the transaction sends out of Account, nil when it sends none.
	NativeOutflow *decimal.Decimal
}

// nativeOutflowField names the field carrying the value a transaction type spends.
var nativeOutflowField = map[string]string{
	string(domain.TxTypePayment):     "Amount",
	string(domain.TxTypeOfferCreate): "TakerGets",
}

// Summarize decodes a blob and extracts its type, sender and native outflow.
// Issued-currency amounts are objects and do not count as native outflow.
func Summarize(blob string) (*Summary, error) {
	fields, err := Decode(blob)
	if err != nil {
		return nil, err
	}
	txType, _ := fields["TransactionType"].(string)
	account, _ := fields["Account"].(string)
	if txType == "" || account == "" {
		return nil, fmt.Errorf("%w: TransactionType and Account are required", ErrInvalidBlob)
	}
	sum := &Summary{TransactionType: txType, Account: account}

	field, ok := nativeOutflowField[txType]
	if !ok {
		return sum, nil
	}
	var drops string
	switch v := fields[field].(type) {
	case string:
		drops = v
	case json.Number:
		drops = v.String()
	default:
		return sum, nil
	}
	xrp, err := DropsToXRP(drops)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBlob, field, err)
	}
	sum.NativeOutflow = &xrp
	return sum, nil
}

// DropsToXRP converts an integer drops string to XRP.
func DropsToXRP(drops string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(drops)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !d.IsInteger() || d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("drops must be a non-negative integer, got %q", drops)
	}
	return d.Shift(-6), nil
}

// SigningPayload is the exact message a key signs for an unsigned blob.
func SigningPayload(unsignedBlob string) ([]byte, error) {
	raw, err := hex.DecodeString(unsignedBlob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBlob, err)
	}
	payload := make([]byte, 0, len(PrefixTxSign)+len(raw))
	payload = append(payload, PrefixTxSign...)
	return append(payload, raw...), nil
}

// UnsignedHash returns the hash identifying an unsigned blob.
func UnsignedHash(unsignedBlob string) (string, error) {
	raw, err := hex.DecodeString(unsignedBlob)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBlob, err)
	}
	return strings.ToUpper(hex.EncodeToString(SHA512Half(PrefixTxSign, raw))), nil
}

// Attach adds the public key and signature to an unsigned blob and returns
// the signed blob together with its transaction id.
func Attach(unsignedBlob string, publicKey, signature []byte) (string, string, error) {
	if len(signature) == 0 {
		return "", "", errors.New("signature is empty")
	}
	fields, err := Decode(unsignedBlob)
	if err != nil {
		return "", "", err
	}
	if _, signed := fields["TxnSignature"]; signed {
		return "", "", errors.New("transaction is already signed")
	}
	fields["SigningPubKey"] = strings.ToUpper(hex.EncodeToString(publicKey))
	fields["TxnSignature"] = strings.ToUpper(hex.EncodeToString(signature))

	signedBlob, err := encodeFields(fields)
	if err != nil {
		return "", "", err
	}
	txHash, err := TxHash(signedBlob)
	if err != nil {
		return "", "", err
	}
	return signedBlob, txHash, nil
}

// TxHash returns the transaction id of a signed blob.
func TxHash(signedBlob string) (string, error) {
	raw, err := hex.DecodeString(signedBlob)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBlob, err)
	}
	return strings.ToUpper(hex.EncodeToString(SHA512Half(PrefixTxID, raw))), nil
}

func encodeFields(fields map[string]interface{}) (string, error) {
	// encoding/json sorts map keys, which makes the encoding canonical.
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encoding transaction: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(raw)), nil
}
