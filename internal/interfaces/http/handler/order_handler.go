package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/aismartspeaker9-cloud/zenheart-erp/internal/domain/order"
	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/domain/repository"
)

type OrderHandler struct {
	repo repository.OrderRepository
}

func NewOrderHandler(repo repository.OrderRepository) *OrderHandler {
	return &OrderHandler{repo: repo}
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	subOrderNo := c.Param("sub_order_no")

	order, err := h.repo.FindBySubOrderNo(c.Request.Context(), subOrderNo)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"parent_order_no": order.ParentOrderNo,
		"sub_order_no":    order.SubOrderNo,
		"shop_id":         order.ShopID,
		"source_order_id": order.SourceOrderID,
		"amount":          order.Amount,
		"shipping_fee":    order.ShippingFee,
		"currency":        order.Currency,
		"payment_status":  order.PaymentStatus,
		"payment_method":  order.PaymentMethod,
		"region":          order.Region,
		"items":           order.Items,
		"customer":        order.Customer,
		"extra_info":      order.ExtraInfo,
	})
}
