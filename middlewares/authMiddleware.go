package middlewares

import (
	"net/http"

	"bitbucket.org/mmdatafocus/fieldsales_backend/models"
	"bitbucket.org/mmdatafocus/fieldsales_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthMiddleware validates the bearer token issued by the auth collaborator
// and copies the employee identity into the request context. Requests without
// a token pass through unauthenticated; write handlers reject them because no
// employee code is present.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		correlationId := c.Request.Header.Get("X-Correlation-Id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx = utils.SetCorrelationIdInContext(ctx, correlationId)

		auth := c.Request.Header.Get("Authorization")
		if auth == "" {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return
		}

		bearer := "Bearer "
		if len(auth) > len(bearer) {
			auth = auth[len(bearer):]
		}

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		claim, _ := validate.Claims.(*utils.JwtCustomClaim)

		ctx = utils.SetEmpCodeInContext(ctx, claim.EmpCode)
		ctx = utils.SetEmpNameInContext(ctx, claim.EmpName)
		ctx = utils.SetRoleInContext(ctx, claim.Role)
		ctx = utils.SetRegionInContext(ctx, claim.Region)
		ctx = utils.SetIsAdminInContext(ctx, claim.Role == string(models.RoleAdmin))

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
