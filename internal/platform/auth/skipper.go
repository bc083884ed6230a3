package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths are served without a bearer token.
var publicPaths = map[string]bool{
	"/health":    true,
	"/health/db": true,
}

// AuthSkipper matches on the registered route path, so /health/extra is not
// public even though it shares a prefix.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

func IsPublicPath(path string) bool {
	return publicPaths[path]
}
