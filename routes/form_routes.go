package routes

import (
	"formdeck/controllers"
	"formdeck/utils"

	"github.com/gin-gonic/gin"
)

func FormRoutes(r *gin.Engine, jwtSecret string) {
	// Form management - all protected by auth middleware
	formGroup := r.Group("/api/forms")
	formGroup.Use(utils.AuthMiddleware(jwtSecret))
	{
		formGroup.POST("", controllers.CreateForm)
		formGroup.GET("", controllers.GetForms)
		formGroup.GET("/:id", controllers.GetForm)
		formGroup.PUT("/:id", controllers.UpdateForm)
		formGroup.DELETE("/:id", controllers.DeleteForm)
		formGroup.PUT("/:id/settings", controllers.UpdateFormSettings)

		formGroup.POST("/:id/fields", controllers.CreateField)
		// Reordering addresses the collection, not a single field
		formGroup.PUT("/:id/fields", controllers.ReorderFields)
		formGroup.PUT("/:id/fields/:fieldId", controllers.UpdateField)
		formGroup.DELETE("/:id/fields/:fieldId", controllers.DeleteField)

		formGroup.GET("/:id/responses", controllers.ListResponses)
		formGroup.DELETE("/:id/responses/:responseId", controllers.DeleteResponse)
	}
}
