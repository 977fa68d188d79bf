package handler

import (
	"Go_Vault/internal/dto"
	"Go_Vault/internal/service"
	"Go_Vault/utils"
	"strconv"

	"github.com/gin-gonic/gin"
)

// RecentActivity returns the caller's audit entries from the last ?days= days (default 30).
func RecentActivity(c *gin.Context) {
	days := service.DefaultActivityDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			badRequest(c, "days must be a positive integer")
			return
		}
		days = parsed
	}
	entries, err := service.ListRecentAuditLog(c.Request.Context(), utils.CurrentEmail(c), days)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, dto.NewAuditLogResponses(entries))
}

// AllActivity returns every retained audit entry of the caller.
func AllActivity(c *gin.Context) {
	entries, err := service.ListAuditLog(c.Request.Context(), utils.CurrentEmail(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, dto.NewAuditLogResponses(entries))
}
