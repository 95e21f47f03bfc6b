package routes

import (
	"formdeck/controllers"
	"formdeck/services"

	"github.com/gin-gonic/gin"
)

func SubmissionRoutes(r *gin.Engine, submissions *services.SubmissionService) {
	submissionController := controllers.NewSubmissionController(submissions)

	// Public endpoints, no auth
	r.GET("/api/public/forms/:slug", controllers.GetPublicForm)
	r.POST("/api/public/forms/:slug/submit", submissionController.Submit)
}
