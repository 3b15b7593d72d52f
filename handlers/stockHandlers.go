package handlers

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/fieldsales_backend/models"
	"github.com/gin-gonic/gin"
)

// UpsertStockItemHandler creates or updates one (name, year, lot) pool.
// Admin only; the workflow enforces that from the request context.
func UpsertStockItemHandler(c *gin.Context) {
	var input models.NewStockItem
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := models.UpsertStockItem(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item, "balance": item.Balance()})
}

func ListStockItemsHandler(c *gin.Context) {
	year, _ := strconv.Atoi(c.Query("year"))
	lot := c.Query("lot")

	items, err := models.GetStockItems(c.Request.Context(), year, lot)
	if err != nil {
		respondError(c, err)
		return
	}

	type itemWithBalance struct {
		*models.StockItem
		Balance string `json:"balance"`
	}
	out := make([]itemWithBalance, 0, len(items))
	for _, item := range items {
		out = append(out, itemWithBalance{StockItem: item, Balance: item.Balance().String()})
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}
