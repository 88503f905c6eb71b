package routes

import (
	"github.com/gin-gonic/gin"
	orderControllers "github.com/lyrion-studio/lyrion-api/controllers/order"
)

func SetupOrderRoutes(admin *gin.RouterGroup, deps Dependencies) {
	db := deps.DB
	orders := admin.Group("/orders")
	{
		// Fetch all orders, newest first
		orders.GET("", orderControllers.GetAllOrdersHandler(db))

		// Reconciliation spreadsheet
		orders.GET("/export-excel", orderControllers.ExportOrdersToExcel(db))

		// websocket endpoint for webhook outcomes as they happen
		orders.GET("/feed", orderControllers.OrderWebSocketHandler(deps.Hub))

		// Fetch one order by order_ref or checkout session id
		orders.GET("/:ref", orderControllers.GetOrderHandler(db))

		// Update fulfillment status (e.g., shipped by the studio)
		orders.PUT("/:ref/fulfillment-status", orderControllers.UpdateFulfillmentStatusHandler(db))
	}
}
