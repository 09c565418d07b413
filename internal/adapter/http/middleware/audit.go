package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"rwa-signing-gateway/internal/core/domain"
	"rwa-signing-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type adminRoute struct {
	action       domain.AdminAction
	resourceType string
}

// adminRoutes maps "METHOD route-pattern" to the audited action.
var adminRoutes = map[string]adminRoute{
	"POST /api/v1/wallets/:id/suspend":    {domain.AdminActionSuspendWallet, "wallet"},
	"POST /api/v1/wallets/:id/archive":    {domain.AdminActionArchiveWallet, "wallet"},
	"POST /api/v1/wallets/:id/reactivate": {domain.AdminActionReactivateWallet, "wallet"},
	"POST /api/v1/policies":               {domain.AdminActionCreatePolicy, "policy"},
	"PUT /api/v1/policies/:id":            {domain.AdminActionUpdatePolicy, "policy"},
	"DELETE /api/v1/policies/:id":         {domain.AdminActionDeactivatePolicy, "policy"},
}

// AuditLog records successful administrative writes after the handler ran.
// Signing attempts are audited by the gateway itself, not here.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions {
			return
		}

		route, ok := adminRoutes[c.Request.Method+" "+c.FullPath()]
		if !ok {
			return
		}

		resourceID := c.Param("id")
		if resourceID == "" {
			resourceID = c.GetString(CtxResourceID)
		}
		actor := "unknown"
		if identity, ok := IdentityFrom(c); ok {
			actor = identity.UserID
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"requestId": c.GetString(CtxRequestID),
		})

		auditSvc.Log(c.Request.Context(), &domain.AdminAuditLog{
			ID:           uuid.New(),
			Actor:        actor,
			Action:       route.action,
			ResourceType: route.resourceType,
			ResourceID:   resourceID,
			Details:      string(details),
			IPAddress:    c.ClientIP(),
			CreatedAt:    time.Now().UTC(),
		})
	}
}
