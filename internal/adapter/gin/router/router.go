package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"user-service/internal/adapter/gin/handler"
	"user-service/internal/adapter/gin/middleware"
	"user-service/internal/config"
)

// SetupRouter configures and returns a Gin router with all routes and
// middleware.
func SetupRouter(userHandler *handler.UserHandler, cfg *config.Config, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware; recovery first so it also covers the others
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.App.FrontendOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Liveness
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "user service is up and running")
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": cfg.Logger.ServiceName,
		})
	})

	// Swagger UI over the checked-in OpenAPI document. The document itself
	// lives under the same wildcard, so it is served here too.
	swaggerUI := gin.WrapH(httpSwagger.Handler(
		httpSwagger.URL("/swagger/users.swagger.json"),
	))
	router.GET("/swagger/*any", func(c *gin.Context) {
		if c.Param("any") == "/users.swagger.json" {
			c.File("./api/swagger/users.swagger.json")
			return
		}
		swaggerUI(c)
	})

	// User routes
	router.POST("/sign-up", userHandler.SignUp)
	users := router.Group("/users")
	{
		users.GET("", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	return router
}
