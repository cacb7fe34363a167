package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// exportOrdersCSV streams the order history as a CSV file, one row per
// order.
func (h *Handler) exportOrdersCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="orders.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	w.Write([]string{"Order ID", "Customer", "Items", "Total", "Status", "Date"})

	for _, order := range h.orders.Orders() {
		w.Write([]string{
			order.ID,
			order.CustomerName,
			formatOrderItems(order.Items),
			strconv.FormatFloat(order.Total, 'f', -1, 64),
			string(order.Status),
			order.Date.Format(time.RFC3339),
		})
	}

	w.Flush()
	if err := w.Error(); err != nil {
		util.GetLogger().Warn("CSV export write failed", zap.Error(err))
	}
}

func formatOrderItems(items []models.CartItem) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprintf("%dx %s (%s)", item.Quantity, item.Name, item.CardType)
	}
	return strings.Join(parts, "; ")
}
