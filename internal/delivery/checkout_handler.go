package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/usecase"
)

const signatureHeader = "Stripe-Signature"

type verifyRequest struct {
	SessionID string `json:"sessionId"`
}

func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var req usecase.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, "create checkout session", err)
		return
	}
	res, err := h.checkout.CreateSession(c.Request.Context(), identityFrom(c), req)
	if err != nil {
		respondError(c, h.log, "create checkout session", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) VerifyPayment(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, "verify payment", err)
		return
	}
	view, err := h.payments.VerifyPayment(c.Request.Context(), identityFrom(c), req.SessionID)
	if err != nil {
		respondError(c, h.log, "verify payment", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// StripeWebhook needs the raw body untouched for signature verification.
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		h.log.Warnf("Handler: Failed to read webhook body: %v", err)
		ErrorResponse(c, http.StatusBadRequest, domain.CodeInvalidInput, "unreadable body")
		return
	}

	res, err := h.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader(signatureHeader))
	if err != nil {
		respondError(c, h.log, "stripe webhook", err)
		return
	}
	h.log.WithFields(logrus.Fields{
		"event_id":     res.EventID,
		"action":       res.Action,
		"order_number": res.OrderNumber,
	}).Info("Handler: Webhook processed")
	c.JSON(http.StatusOK, gin.H{"received": true})
}
