package route

import (
	"embed"
	"net/http"

	"ferdi-server/backend/common"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

// setWebRouter serves the embedded human-facing pages (import form,
// new-recipe form). The extensionless aliases match the URLs the desktop
// client opens.
func setWebRouter(route *gin.Engine, webFS embed.FS) {
	route.Use(static.Serve("/", common.EmbedFolder(webFS, "web")))

	servePage := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			page, err := webFS.ReadFile("web/" + name)
			if err != nil {
				c.String(http.StatusNotFound, "page not found")
				return
			}
			c.Data(http.StatusOK, "text/html; charset=utf-8", page)
		}
	}
	route.GET("/import", servePage("import.html"))
	route.GET("/new", servePage("new.html"))
}
