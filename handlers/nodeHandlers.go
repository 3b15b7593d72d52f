package handlers

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/fieldsales_backend/models"
	"bitbucket.org/mmdatafocus/fieldsales_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GetNodeHandler returns one assignment node with its lines, usage events and
// per-line live available quantity.
func GetNodeHandler(c *gin.Context) {
	nodeId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid node id"})
		return
	}

	node, err := models.FetchNode(c.Request.Context(), nodeId)
	if err != nil {
		respondError(c, err)
		return
	}

	available := make(map[int]decimal.Decimal, len(node.Lines))
	for i := range node.Lines {
		available[node.Lines[i].ID] = node.Lines[i].Available()
	}

	c.JSON(http.StatusOK, gin.H{
		"node":           node,
		"line_available": available,
		"visible":        utils.DereferencePtr(node.VisibleToRecipient, false),
	})
}

// ListEmployeesHandler exposes the read-only directory, filterable by role
// and region for the assignment form's recipient pickers.
func ListEmployeesHandler(c *gin.Context) {
	condition := "1 = 1"
	values := []interface{}{}
	if role := c.Query("role"); role != "" {
		condition += " AND role = ?"
		values = append(values, role)
	}
	if region := c.Query("region"); region != "" {
		condition += " AND region = ?"
		values = append(values, region)
	}

	employees, err := utils.FetchModelsWhere[models.Employee](c.Request.Context(), condition, values...)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employees": employees})
}
