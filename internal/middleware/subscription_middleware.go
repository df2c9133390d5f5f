package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tapreview/tapreview-backend/internal/app/service"
	apperrors "github.com/tapreview/tapreview-backend/internal/errors"
)

// RequireActiveSubscription gates paid surfaces behind a live entitlement for
// the business in the :id route parameter. The check runs the same lazy
// expiry as any other read, so a lapsed business is both corrected and
// rejected in one pass.
func RequireActiveSubscription(subService *service.SubscriptionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		businessID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid business id")
			c.Abort()
			return
		}

		status, err := subService.CheckSubscriptionActive(uint(businessID))
		if err != nil {
			log.Error("Entitlement check failed", err, map[string]interface{}{
				"business_id": businessID,
			})
			apperrors.InternalError(c, "")
			c.Abort()
			return
		}

		if !status.Active {
			log.Warn("Paid feature blocked without subscription", map[string]interface{}{
				"business_id": businessID,
				"path":        c.Request.URL.Path,
			})
			apperrors.RespondWithError(c, http.StatusPaymentRequired, apperrors.SubscriptionRequired, "an active subscription is required")
			c.Abort()
			return
		}

		c.Next()
	}
}
