package delivery

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/usecase"
)

type orderUpdateRequest struct {
	Status            *domain.OrderStatus   `json:"status"`
	PaymentStatus     *domain.PaymentStatus `json:"paymentStatus"`
	TrackingNumber    *string               `json:"trackingNumber"`
	Notes             *string               `json:"notes"`
	EstimatedDelivery *time.Time            `json:"estimatedDelivery"`
}

// PlaceOrder creates an order for a payment method outside the card gateway.
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req usecase.DirectOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, "place order", err)
		return
	}
	view, err := h.orders.PlaceDirect(c.Request.Context(), identityFrom(c), req)
	if err != nil {
		respondError(c, h.log, "place order", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "order": view})
}

func (h *Handler) MyOrders(c *gin.Context) {
	page, err := h.orders.ListMine(c.Request.Context(), identityFrom(c), queryInt(c, "page", 1), queryInt(c, "limit", 10))
	if err != nil {
		respondError(c, h.log, "list my orders", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) GetOrder(c *gin.Context) {
	view, err := h.orders.Get(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, "get order", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) AdminListOrders(c *gin.Context) {
	page, err := h.orders.AdminList(c.Request.Context(), domain.OrderFilter{
		Status: domain.OrderStatus(c.Query("status")),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 10),
	})
	if err != nil {
		respondError(c, h.log, "admin list orders", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) AdminUpdateOrder(c *gin.Context) {
	var req orderUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, "admin update order", err)
		return
	}
	updated, err := h.orders.AdminUpdate(c.Request.Context(), c.Param("id"), domain.OrderUpdate{
		Status:            req.Status,
		PaymentStatus:     req.PaymentStatus,
		TrackingNumber:    req.TrackingNumber,
		Notes:             req.Notes,
		EstimatedDelivery: req.EstimatedDelivery,
	})
	if err != nil {
		respondError(c, h.log, "admin update order", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
