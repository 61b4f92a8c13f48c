package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/marketplace-api/internal/dto"
	"github.com/flicky/marketplace-api/internal/model"
	"github.com/flicky/marketplace-api/internal/service"
)

// CartTotalHeader carries the cart total next to the line array.
const CartTotalHeader = "X-Cart-Total"

type CartHandler struct {
	svc *service.CartService
}

func NewCartHandler(svc *service.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	cart, err := h.svc.GetCart(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header(CartTotalHeader, cart.Total.StringFixed(2))
	c.JSON(http.StatusOK, toCartLines(cart.Lines))
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if _, err := h.svc.AddItem(c.Request.Context(), req); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Item added to cart!"})
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	lineID, ok := pathID(c, "cart_id")
	if !ok {
		return
	}
	cart, err := h.svc.RemoveLine(c.Request.Context(), lineID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header(CartTotalHeader, cart.Total.StringFixed(2))
	c.JSON(http.StatusOK, dto.RemoveCartLineResponse{
		Message: "Item removed successfully",
		Cart:    toCartLines(cart.Lines),
	})
}

func toCartLines(lines []model.CartLine) []dto.CartLineResponse {
	items := make([]dto.CartLineResponse, 0, len(lines))
	for _, l := range lines {
		items = append(items, dto.CartLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Name:      l.Name,
			Price:     l.Price,
			ImageURL:  l.ImageURL,
		})
	}
	return items
}
