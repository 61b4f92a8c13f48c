package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/marketplace-api/internal/dto"
	"github.com/flicky/marketplace-api/internal/middleware"
	"github.com/flicky/marketplace-api/internal/service"
)

type StatsHandler struct {
	svc *service.StatsService
}

func NewStatsHandler(svc *service.StatsService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

func (h *StatsHandler) SellerStats(c *gin.Context) {
	stats, err := h.svc.ForSeller(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SellerStatsResponse{
		SellerID:        stats.SellerID,
		OrdersReceived:  stats.OrdersReceived,
		OrdersDelivered: stats.OrdersDelivered,
		UnitsSold:       stats.UnitsSold,
		Revenue:         stats.Revenue,
	})
}
