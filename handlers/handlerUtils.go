package handlers

import (
	"errors"
	"net/http"

	"bitbucket.org/mmdatafocus/fieldsales_backend/utils"
	"github.com/gin-gonic/gin"
)

// respondError maps the business-rule taxonomy onto HTTP statuses. Every one
// of these is caller-correctable; only StorageUnavailable signals a transient
// backend fault.
func respondError(c *gin.Context, err error) {
	if ise, ok := utils.IsInsufficientStock(err); ok {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "insufficient stock",
			"detail":  ise.Error(),
			"balance": ise.Balance,
		})
		return
	}

	switch {
	case errors.Is(err, utils.ErrorRecordNotFound),
		errors.Is(err, utils.ErrorUnknownEmployee),
		errors.Is(err, utils.ErrorUnknownItem),
		errors.Is(err, utils.ErrorLineNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorInvalidQuantity),
		errors.Is(err, utils.ErrorLRMissing):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorPurposeNotDispatchable),
		errors.Is(err, utils.ErrorUsageExceedsAvailable),
		errors.Is(err, utils.ErrorLRNumberAlreadyAssigned):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
