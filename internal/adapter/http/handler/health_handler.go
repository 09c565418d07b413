package handler

import (
	"net/http"

	"rwa-signing-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
)

type dependencyStatus struct {
	Status   string `json:"status"`
	Critical bool   `json:"critical"`
	Error    string `json:"error,omitempty"`
}

// HealthCheck pings every dependency.
//
//	healthy   all dependencies answer                     200
//	degraded  only non-critical dependencies are failing  200
//	unhealthy a critical dependency is failing            503
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		deps := make(map[string]dependencyStatus, len(checkers))
		status := "healthy"

		for _, checker := range checkers {
			dep := dependencyStatus{Status: "healthy", Critical: checker.Critical()}
			if err := checker.Ping(c.Request.Context()); err != nil {
				dep.Status = "unhealthy"
				dep.Error = err.Error()
				switch {
				case dep.Critical:
					status = "unhealthy"
				case status == "healthy":
					status = "degraded"
				}
			}
			deps[checker.Name()] = dep
		}

		code := http.StatusOK
		if status == "unhealthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "dependencies": deps})
	}
}
