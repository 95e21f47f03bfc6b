package routes

import (
	"formdeck/controllers"
	"formdeck/services"
	"formdeck/utils"

	"github.com/gin-gonic/gin"
)

func AuthRoutes(r *gin.Engine, authService *services.AuthService, jwtSecret string) {
	authController := controllers.NewAuthController(authService)

	r.POST("/api/auth/register", authController.Register)
	r.POST("/api/auth/login", authController.Login)

	userGroup := r.Group("/api/user")
	userGroup.Use(utils.AuthMiddleware(jwtSecret))
	{
		userGroup.GET("/me", controllers.Me)
	}
}
