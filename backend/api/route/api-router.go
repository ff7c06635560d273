package route

import (
	"ferdi-server/backend/api/handler"
	"ferdi-server/backend/api/middleware"

	"github.com/gin-gonic/gin"
)

// SetApiRouter wires the /v1 API the Franz/Ferdi desktop client speaks.
func SetApiRouter(route *gin.Engine) {
	route.GET("/health", handler.Health)

	v1 := route.Group("/v1")
	{
		// Public routes (no authentication required)
		v1.POST("/auth/signup", middleware.CriticalRateLimit(), handler.Signup)
		v1.POST("/auth/login", middleware.CriticalRateLimit(), handler.Login)

		v1.GET("/recipes", handler.ListRecipes)
		v1.GET("/recipes/search", handler.SearchRecipes)
		v1.GET("/recipes/popular", handler.PopularRecipes)
		v1.GET("/recipes/update", handler.RecipesUpdate)
		v1.GET("/recipes/download/:recipe", handler.DownloadRecipe)

		v1.GET("/icon/:id", handler.ServiceIcon)
		v1.GET("/features", handler.Features)
		v1.GET("/services", handler.EmptyArray)
		v1.GET("/news", handler.EmptyArray)
		v1.GET("/payment/plans", handler.Plans)
		v1.GET("/announcements/:version", handler.Announcement)

		// Routes that require authentication
		authed := v1.Group("")
		authed.Use(middleware.JWTAuth())
		{
			authed.GET("/me", handler.Me)
			authed.PUT("/me", handler.UpdateMe)

			authed.POST("/service", handler.CreateService)
			authed.GET("/me/services", handler.ListServices)
			authed.PUT("/service/reorder", handler.ReorderServices)
			authed.PUT("/service/:id", handler.EditService)
			authed.DELETE("/service/:id", handler.DeleteService)

			authed.POST("/workspace", handler.CreateWorkspace)
			authed.GET("/workspace", handler.ListWorkspaces)
			authed.PUT("/workspace/:id", handler.EditWorkspace)
			authed.DELETE("/workspace/:id", handler.DeleteWorkspace)
		}
	}

	// Human-facing flows posted from the embedded pages
	route.POST("/import", middleware.CriticalRateLimit(), handler.Import)
	route.POST("/new", middleware.CriticalRateLimit(), handler.CreateRecipe)
}
