package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/marketplace-api/internal/dto"
	"github.com/flicky/marketplace-api/internal/middleware"
	"github.com/flicky/marketplace-api/internal/model"
	"github.com/flicky/marketplace-api/internal/service"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	order, err := h.orderService.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PlaceOrderResponse{Message: "Order placed successfully!", OrderID: order.ID})
}

func (h *OrderHandler) ListSellerOrders(c *gin.Context) {
	orders, err := h.orderService.ListForSeller(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]dto.SellerOrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, dto.SellerOrderResponse{
			OrderID:      o.ID,
			CustomerName: o.CustomerName,
			TotalAmount:  o.TotalAmount,
			Status:       o.Status,
			OrderDate:    o.OrderDate,
			Items:        toOrderItems(o.Items),
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}

	change, err := h.orderService.UpdateStatus(c.Request.Context(), middleware.GetUserID(c), orderID, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	msg := "Order status updated successfully!"
	switch change {
	case service.StatusDelivered:
		msg = "Order delivered and deleted successfully!"
	case service.StatusAlreadyDelivered:
		msg = "Order already delivered"
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: msg})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetDetail(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OrderDetailResponse{
		ID:           order.ID,
		UserID:       order.UserID,
		CustomerName: order.CustomerName,
		Address:      order.Address,
		TotalAmount:  order.TotalAmount,
		Status:       order.Status,
		OrderDate:    order.OrderDate,
		Items:        toOrderItems(order.Items),
	})
}

func toOrderItems(items []model.OrderItem) []dto.OrderItemResponse {
	resp := make([]dto.OrderItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, dto.OrderItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}
	return resp
}
