package router

import (
	"comment-service/config"
	"comment-service/handler"
	"comment-service/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "comment-service"

func Setup(cfg *config.Config, comments *handler.CommentsHandler) *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	r.Use(middleware.PrometheusMiddleware(serviceName))

	api := r.Group("/api")
	{
		api.GET("/comments", comments.GetComments)
		api.GET("/comments/snapshot", comments.GetSnapshot)
		api.POST("/comments/refresh", comments.RefreshComments)
		api.GET("/hello", comments.GetHello)
	}

	// Health check endpoint
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": serviceName})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy", "service": serviceName})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func corsConfig(origins []string) cors.Config {
	config := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if len(origins) == 0 {
		config.AllowOrigins = nil
		config.AllowAllOrigins = true
		config.AllowCredentials = false
	}
	return config
}
