package handlers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/fieldsales_backend/models"
	"bitbucket.org/mmdatafocus/fieldsales_backend/models/reports"
	"github.com/gin-gonic/gin"
)

func ExportAssignmentLedgerHandler(c *gin.Context) {
	var filter models.AssignmentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := reports.ExportAssignmentLedgerExcel(c.Request.Context(), c.Writer, &filter); err != nil {
		respondError(c, err)
	}
}
