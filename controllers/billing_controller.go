package controllers

import (
	"io"
	"net/http"

	"formdeck/models"
	"formdeck/services"
	"formdeck/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type BillingController struct {
	billing *services.BillingService
}

func NewBillingController(billing *services.BillingService) *BillingController {
	return &BillingController{billing: billing}
}

// CreateCheckout starts a Stripe checkout session for the pro plan
func (ctrl *BillingController) CreateCheckout(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := utils.CurrentUserID(c)

	var requestBody struct {
		PriceID string `json:"price_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	url, err := ctrl.billing.CreateCheckoutSession(&user, requestBody.PriceID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// CreatePortal opens the Stripe billing portal for the current user
func (ctrl *BillingController) CreatePortal(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := utils.CurrentUserID(c)

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	url, err := ctrl.billing.CreatePortalSession(&user)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// GetSubscription returns the user's plan, latest subscription record
// and payment history
func (ctrl *BillingController) GetSubscription(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := utils.CurrentUserID(c)

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	sub, payments, err := ctrl.billing.GetBillingStatus(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load billing status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plan":               user.Plan,
		"current_period_end": user.CurrentPeriodEnd,
		"subscription":       sub,
		"payments":           payments,
	})
}

// Webhook receives Stripe lifecycle events. Once the signature checks
// out the event is always acknowledged, recognized or not.
func (ctrl *BillingController) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read payload"})
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	if sigHeader == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing signature"})
		return
	}

	if err := ctrl.billing.HandleWebhook(payload, sigHeader); err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
