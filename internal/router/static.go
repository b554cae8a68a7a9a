package router

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/cofre-digital/pkg/response"
)

// MountStatic serves the web bundle in dir for every unmatched GET. Paths
// resolve to the file, then to file.html, then to the directory index for page
// routes. Unknown /api paths get a JSON 404.
func MountStatic(engine *gin.Engine, dir string) {
	engine.NoRoute(func(c *gin.Context) {
		p := c.Request.URL.Path
		if dir == "" || strings.HasPrefix(p, "/api/") || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			response.Error(c, http.StatusNotFound, "not-found", nil)
			return
		}
		clean := path.Clean("/" + p)
		for _, candidate := range []string{clean, clean + ".html", path.Join(clean, "index.html")} {
			full := filepath.Join(dir, filepath.FromSlash(candidate))
			if st, err := os.Stat(full); err == nil && !st.IsDir() {
				c.File(full)
				return
			}
		}
		response.Error(c, http.StatusNotFound, "not-found", nil)
	})
}
