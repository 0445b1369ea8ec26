package handler

import (
	"errors"
	"net/http"

	"tipjar/internal/service"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	donations  *service.DonationService
	reconciler *service.Reconciler
	receiver   string
}

func NewPaymentHandler(donations *service.DonationService, reconciler *service.Reconciler, receiver string) *PaymentHandler {
	return &PaymentHandler{donations: donations, reconciler: reconciler, receiver: receiver}
}

type createPaymentRequest struct {
	Amount  float64 `json:"amount" binding:"required"`
	Message string  `json:"message"`
}

// Create registers a pending donation and hands the browser everything it
// needs to build the quickpay redirect (receiver wallet + label).
func (h *PaymentHandler) Create(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	p, err := h.donations.Create(req.Amount, req.Message)
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "details": gin.H{"field": ve.Field, "reason": ve.Reason}})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create payment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"orderId":     p.OrderID,
		"amount":      p.Amount,
		"totalAmount": p.TotalAmount,
		"receiver":    h.receiver,
	})
}

// List returns every payment, newest first.
func (h *PaymentHandler) List(c *gin.Context) {
	list, err := h.donations.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payments"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// Check returns one payment, reconciling it against the gateway first when it
// is still pending.
func (h *PaymentHandler) Check(c *gin.Context) {
	orderID := c.Param("orderId")
	p, err := h.reconciler.CheckPayment(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check payment"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PaymentHandler) Delete(c *gin.Context) {
	orderID := c.Param("orderId")
	if err := h.donations.Delete(orderID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "payment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to delete payment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *PaymentHandler) Clear(c *gin.Context) {
	count, err := h.donations.Clear()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear payments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cleared": count})
}

func (h *PaymentHandler) Stats(c *gin.Context) {
	stats, err := h.donations.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *PaymentHandler) TopDonors(c *gin.Context) {
	donors, err := h.donations.TopDonors()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rank donors"})
		return
	}
	c.JSON(http.StatusOK, donors)
}
