package routes

import (
	"formdeck/controllers"
	"formdeck/services"
	"formdeck/utils"

	"github.com/gin-gonic/gin"
)

func BillingRoutes(r *gin.Engine, billing *services.BillingService, jwtSecret string) {
	billingController := controllers.NewBillingController(billing)

	// Stripe posts here directly, signature-verified instead of auth
	r.POST("/api/billing/webhook", billingController.Webhook)

	billingGroup := r.Group("/api/billing")
	billingGroup.Use(utils.AuthMiddleware(jwtSecret))
	{
		billingGroup.POST("/checkout", billingController.CreateCheckout)
		billingGroup.POST("/portal", billingController.CreatePortal)
		billingGroup.GET("/subscription", billingController.GetSubscription)
	}
}
