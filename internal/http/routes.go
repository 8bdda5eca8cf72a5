package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Metrics())

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	users := r.Group("/api/users")
	{
		// check-session runs without the mongo guard: it only touches
		// the session store.
		users.GET("/check-session", h.CheckSession)
		users.GET("", MongoChecker(h.Store), h.ListUsers)
		users.POST("", MongoChecker(h.Store), h.Register)
		users.POST("/login", MongoChecker(h.Store), h.Login)

		byID := users.Group("/:id", MongoChecker(h.Store), ObjectIDRequired())
		byID.GET("", h.GetUser)
		byID.POST("/reviews", h.AddReview)
		byID.PATCH("/image", h.UpdateImage)
		byID.DELETE("", h.DeleteUser)
	}
	return r
}
