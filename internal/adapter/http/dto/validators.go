package dto

import (
	"html"
	"reflect"
	"regexp"
	"strings"

	"rwa-signing-gateway/internal/core/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var safeStringRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("safe_id", validateSafeID)
		_ = v.RegisterValidation("policy_key", validatePolicyKey)
		_ = v.RegisterValidation("network", validateNetwork)
		_ = v.RegisterValidation("tx_type", validateTxType)
		_ = v.RegisterValidation("batch_mode", validateBatchMode)
		_ = v.RegisterValidation("wallet_status", validateWalletStatus)
	}
}

// validateSafeID allows alphanumeric, underscore, dash, and dot.
func validateSafeID(fl validator.FieldLevel) bool {
	return safeStringRe.MatchString(fl.Field().String())
}

// validatePolicyKey accepts a safe id or the wildcard.
func validatePolicyKey(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == domain.Wildcard || safeStringRe.MatchString(s)
}

func validateNetwork(fl validator.FieldLevel) bool {
	return domain.Network(fl.Field().String()).Valid()
}

func validateTxType(fl validator.FieldLevel) bool {
	return domain.TxType(fl.Field().String()).Valid()
}

func validateBatchMode(fl validator.FieldLevel) bool {
	return domain.BatchAtomicityMode(fl.Field().String()).Valid()
}

func validateWalletStatus(fl validator.FieldLevel) bool {
	switch domain.WalletStatus(fl.Field().String()) {
	case domain.WalletStatusProvisioning, domain.WalletStatusActive, domain.WalletStatusSuspended, domain.WalletStatusArchived:
		return true
	}
	return false
}

// SanitizeStruct trims whitespace and HTML-escapes every exported string
// field (including *string) of a struct pointer.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(sanitize(f.String()))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				elem.SetString(sanitize(elem.String()))
			}
		}
	}
}

func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
