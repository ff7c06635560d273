package route

import (
	"embed"

	"ferdi-server/backend/api/middleware"

	"github.com/gin-gonic/gin"
)

func SetRouter(route *gin.Engine, webFS embed.FS) {
	route.Use(middleware.GzipDecodeMiddleware())
	route.Use(middleware.GzipEncodeMiddleware())

	SetApiRouter(route)
	setWebRouter(route, webFS)
}
