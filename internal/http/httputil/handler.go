package httputil

import "github.com/gin-gonic/gin"

// IHttpHandler is one mountable slice of the public API. The quote engine
// exposes read-only endpoints, so every handler registers into the single
// versioned group.
type IHttpHandler interface {
	Root() string
	SetRoutes(api *gin.RouterGroup)
}
