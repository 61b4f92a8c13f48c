package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/marketplace-api/internal/dto"
	"github.com/flicky/marketplace-api/internal/middleware"
	"github.com/flicky/marketplace-api/internal/service"
)

type ProductHandler struct {
	productService *service.ProductService
}

func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "All fields are required")
		return
	}

	id, err := h.productService.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ProductCreatedResponse{Message: "Product added successfully", ID: id})
}

func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.productService.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "All fields are required")
		return
	}

	if err := h.productService.Update(c.Request.Context(), middleware.GetUserID(c), id, req); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Product updated successfully!"})
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Product deleted successfully!"})
}
