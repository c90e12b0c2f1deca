package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	pharmacyIDKey = "pharmacyID"
	userIDKey     = "userID"

	// HeaderPharmacyID carries the tenant on every request. There is no
	// ambient tenant; a request without it is rejected before any handler
	// runs.
	HeaderPharmacyID = "X-Pharmacy-ID"
	HeaderUserID     = "X-User-ID"
)

// Tenant resolves the pharmacy and acting user from request headers and
// stores them in the gin context for handlers.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		pharmacyID, err := uuid.Parse(c.GetHeader(HeaderPharmacyID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MISSING_PHARMACY_ID",
					"message": "X-Pharmacy-ID header is required and must be a valid UUID",
				},
			})
			c.Abort()
			return
		}

		userID, err := uuid.Parse(c.GetHeader(HeaderUserID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MISSING_USER_ID",
					"message": "X-User-ID header is required and must be a valid UUID",
				},
			})
			c.Abort()
			return
		}

		c.Set(pharmacyIDKey, pharmacyID)
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// PharmacyID returns the tenant set by Tenant(). Panics if the middleware
// did not run, which is a routing bug, not a runtime condition.
func PharmacyID(c *gin.Context) uuid.UUID {
	return c.MustGet(pharmacyIDKey).(uuid.UUID)
}

// UserID returns the acting user set by Tenant().
func UserID(c *gin.Context) uuid.UUID {
	return c.MustGet(userIDKey).(uuid.UUID)
}
