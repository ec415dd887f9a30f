package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	app "github.com/aismartspeaker9-cloud/zenheart-erp/internal/application/fulfillment"
)

type FulfillmentHandler struct {
	svc *app.Service
}

func NewFulfillmentHandler(svc *app.Service) *FulfillmentHandler {
	return &FulfillmentHandler{svc: svc}
}

// ListFulfillments filters by ?tracking_number= or ?status=&limit=.
func (h *FulfillmentHandler) ListFulfillments(c *gin.Context) {
	ctx := c.Request.Context()

	if trackingNumber := c.Query("tracking_number"); trackingNumber != "" {
		records, err := h.svc.FindByTrackingNumber(ctx, trackingNumber)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"fulfillments": records})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	records, err := h.svc.ListByStatus(ctx, c.Query("status"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"fulfillments": records})
}
