package routes

import (
	"github.com/gin-gonic/gin"
)

func SetupWebRoutes(router *gin.Engine) {
	web := router.Group("/")
	{
		web.GET("/", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"message": "Address Cleaner Service",
				"version": "1.0.0",
				"docs":    "/docs",
			})
		})

		web.GET("/docs", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"api": "Address Cleaner API v1",
				"endpoints": map[string]string{
					"clean":          "POST /v1/addresses/clean",
					"batch":          "POST /v1/addresses/jobs",
					"job_status":     "GET /v1/addresses/jobs/:jobID/status",
					"job_results":    "GET /v1/addresses/jobs/:jobID/results",
					"rules":          "GET /v1/rules",
					"add_suffix":     "POST /v1/rules/suffixes",
					"add_external":   "POST /v1/rules/external",
					"review_search":  "GET /v1/review/search",
					"review_approve": "POST /v1/review/:reviewID/approve",
					"stats":          "GET /v1/admin/stats",
					"health":         "GET /v1/health",
				},
			})
		})
	}
}
