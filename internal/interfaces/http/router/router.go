package router

import (
	"github.com/gin-gonic/gin"

	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/interfaces/http/handler"
)

func RegisterRoutes(
	r *gin.Engine,
	syncHandler *handler.SyncHandler,
	orderHandler *handler.OrderHandler,
	fulfillmentHandler *handler.FulfillmentHandler,
) {
	api := r.Group("/api")
	{
		api.POST("/sync", syncHandler.TriggerSync)
		api.GET("/orders/:sub_order_no", orderHandler.GetOrder)
		api.GET("/fulfillments", fulfillmentHandler.ListFulfillments)
	}
}
