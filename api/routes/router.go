package routes

import (
	"blog/api/handlers"
	"blog/api/middleware"

	"github.com/gin-gonic/gin"
)

const serviceName = "blog"

// NewRouter собирает gin с логированием, метриками, CORS и всеми маршрутами
func NewRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.PrometheusMiddleware(serviceName))
	router.Use(middleware.CORSMiddleware(h.AllowedOrigins))

	PublicApi(router, h)
	return router
}
