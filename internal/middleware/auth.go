// internal/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/javajoker/abc-retail/internal/i18n"
	"github.com/javajoker/abc-retail/internal/models"
	"github.com/javajoker/abc-retail/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the bearer token and stores the caller's identity
// under "user_id" and "user_type". Customer ids are normalized emails.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", i18n.T(lang, i18n.KeyAuthRequired))
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.AbortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", i18n.T(lang, i18n.KeyAuthInvalidToken))
			return
		}

		claims, err := utils.ValidateJWT(strings.TrimSpace(parts[1]))
		if err != nil {
			utils.AbortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", i18n.T(lang, i18n.KeyAuthTokenExpired))
			return
		}

		userID := claims.UserID
		if claims.UserType == string(models.UserTypeCustomer) {
			userID = models.NormalizeEmail(userID)
		}

		c.Set("user_id", userID)
		c.Set("user_type", claims.UserType)
		c.Next()
	}
}

// CustomerRequired must run after AuthRequired.
func CustomerRequired() gin.HandlerFunc {
	return requireUserType(models.UserTypeCustomer, i18n.KeyCustomerOnly)
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return requireUserType(models.UserTypeAdmin, i18n.KeyAdminAccessDenied)
}

func requireUserType(want models.UserType, key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userType, _ := utils.GetUserTypeFromContext(c)
		if userType != string(want) {
			utils.ForbiddenResponse(c, i18n.T(utils.GetLangFromContext(c), key))
			c.Abort()
			return
		}
		c.Next()
	}
}
