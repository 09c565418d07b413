package batch

import "rwa-signing-gateway/pkg/apperror"

// Remediation is the operator-facing explanation of a failed transaction.
type Remediation struct {
	Message string `json:"message"`
	Action  string `json:"action"`
}

var remediations = map[string]Remediation{
	apperror.CodeUnauthorized: {
		Message: "Your session is not authorized to sign transactions",
		Action:  "Sign in again with a signer role",
	},
	apperror.CodeForbidden: {
		Message: "You are not allowed to sign for this wallet",
		Action:  "Ask a wallet administrator to check the wallet status and your role",
	},
	apperror.CodeWalletNotFound: {
		Message: "The wallet no longer exists",
		Action:  "Pick another wallet and rebuild the batch",
	},
	apperror.CodeWalletSuspended: {
		Message: "The wallet is suspended",
		Action:  "Ask a wallet administrator to reactivate it",
	},
	apperror.CodeWalletArchived: {
		Message: "The wallet is archived and can never sign again",
		Action:  "Use an active wallet",
	},
	apperror.CodeLegacyMainnetBlocked: {
		Message: "Legacy key storage cannot sign on mainnet",
		Action:  "Migrate to vault storage",
	},
	apperror.CodePolicyViolation: {
		Message: "No signing policy allows this transaction",
		Action:  "Ask a policy administrator to configure a policy for this wallet role and transaction type",
	},
	apperror.CodeAmountLimitExceeded: {
		Message: "The amount is above the policy ceiling",
		Action:  "Lower the amount or split it across several transactions",
	},
	apperror.CodeMultiSignRequired: {
		Message: "The policy requires multi-signature",
		Action:  "Enable multi-signing on the wallet before retrying",
	},
	apperror.CodeRateLimitExceeded: {
		Message: "Too many signing requests for this wallet",
		Action:  "Wait a minute and retry",
	},
	apperror.CodeVaultError: {
		Message: "The key vault could not sign the transaction",
		Action:  "Retry later; contact custody operations if it persists",
	},
	apperror.CodeInvalidRequest: {
		Message: "The transaction was rejected as malformed or already in flight",
		Action:  "Check the transaction parameters and retry",
	},
	apperror.CodeInternalError: {
		Message: "The signing service failed unexpectedly",
		Action:  "Retry later; contact support with the audit log id",
	},
}

// RemediationFor translates an error code into a message and suggested action.
func RemediationFor(code string) Remediation {
	if r, ok := remediations[code]; ok {
		return r
	}
	return remediations[apperror.CodeInternalError]
}
