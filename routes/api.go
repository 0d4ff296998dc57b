package routes

import (
	"github.com/address-cleaner/app/controllers"
	"github.com/gin-gonic/gin"
)

// Controllers groups the handlers mounted by SetupAllRoutes.
type Controllers struct {
	Address *controllers.AddressController
	Rules   *controllers.RulesController
	Review  *controllers.ReviewController
	Admin   *controllers.AdminController
}

// SetupAPIRoutes mounts the /v1 API.
func SetupAPIRoutes(router *gin.Engine, ctl Controllers) {
	v1 := router.Group("/v1")
	{
		addresses := v1.Group("/addresses")
		{
			addresses.POST("/clean", ctl.Address.CleanAddress)
			addresses.POST("/jobs", ctl.Address.BatchClean)
			addresses.GET("/jobs/:jobID/status", ctl.Address.GetJobStatus)
			addresses.GET("/jobs/:jobID/results", ctl.Address.GetJobResults)
		}

		rules := v1.Group("/rules")
		{
			rules.GET("", ctl.Rules.GetRules)
			rules.PUT("", ctl.Rules.ReplaceRules)
			rules.GET("/history", ctl.Rules.History)
			rules.POST("/suffixes", ctl.Rules.AddSuffix)
			rules.DELETE("/suffixes/:name", ctl.Rules.RemoveSuffix)
			rules.POST("/external", ctl.Rules.AddExternal)
			rules.DELETE("/external/:word", ctl.Rules.RemoveExternal)
		}

		review := v1.Group("/review")
		{
			review.GET("/search", ctl.Review.Search)
			review.GET("/:reviewID", ctl.Review.Get)
			review.POST("/:reviewID/approve", ctl.Review.Approve)
			review.POST("/:reviewID/reject", ctl.Review.Reject)
			review.POST("/:reviewID/correct", ctl.Review.Correct)
		}

		admin := v1.Group("/admin")
		{
			admin.POST("/cache/invalidate", ctl.Admin.InvalidateCache)
			admin.GET("/stats", ctl.Admin.GetSystemStats)
			admin.GET("/export/:type", ctl.Admin.ExportData)
		}

		v1.GET("/health", ctl.Address.HealthCheck)
	}
}

func SetupHealthRoutes(router *gin.Engine, addressController *controllers.AddressController) {
	router.GET("/health", addressController.HealthCheck)
	router.GET("/ready", addressController.HealthCheck)
	router.GET("/live", addressController.HealthCheck)
	router.GET("/status", addressController.Status)
}

// SetupAllRoutes installs middleware and every route group.
func SetupAllRoutes(router *gin.Engine, ctl Controllers) {
	setupMiddleware(router)

	SetupWebRoutes(router)
	SetupHealthRoutes(router, ctl.Address)
	SetupAPIRoutes(router, ctl)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"error":  "Route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}

func setupMiddleware(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
}
