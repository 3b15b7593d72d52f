package handlers

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/fieldsales_backend/models"
	"bitbucket.org/mmdatafocus/fieldsales_backend/workflow"
	"github.com/gin-gonic/gin"
)

func CreateAllocationHandler(c *gin.Context) {
	var input workflow.NewAllocation
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := workflow.CreateAllocation(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func DispatchAssignmentHandler(c *gin.Context) {
	nodes, err := workflow.DispatchAssignment(c.Request.Context(), c.Param("assignmentNo"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nodes": nodes})
}

func AssignLRNumberHandler(c *gin.Context) {
	var input struct {
		LRNumber string `json:"lr_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	nodes, err := workflow.AssignLRNumber(c.Request.Context(), c.Param("assignmentNo"), input.LRNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nodes": nodes})
}

func SendPODHandler(c *gin.Context) {
	nodes, err := workflow.SendPOD(c.Request.Context(), c.Param("assignmentNo"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nodes": nodes})
}

func RecordUsageHandler(c *gin.Context) {
	nodeId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid node id"})
		return
	}

	var input workflow.NewUsage
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	line, err := workflow.RecordUsage(c.Request.Context(), nodeId, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"line": line})
}

func AssignmentTreeHandler(c *gin.Context) {
	var filter models.AssignmentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roots, err := models.BuildAssignmentTree(c.Request.Context(), &filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roots": roots})
}

func EmployeeStockHandler(c *gin.Context) {
	var filter models.AssignmentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stocks, err := models.GetEmployeeStock(c.Request.Context(), c.Param("empCode"), &filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stocks": stocks})
}

func OrgSummaryHandler(c *gin.Context) {
	year, _ := strconv.Atoi(c.Query("year"))
	lot := c.Query("lot")

	summary, err := models.GetOrgSummary(c.Request.Context(), year, lot)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
