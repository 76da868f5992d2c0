// Package router mounts the HTTP handlers of the cash register API.
package router

import (
	"net/http"
	"slices"
	"strings"

	"github.com/ech/backend/internal/interfaces/http/dto"
	"github.com/ech/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// APIVersion is the version segment of BasePath
const APIVersion = "v1"

// BasePath prefixes every versioned route
const BasePath = "/api/" + APIVersion

// handleUnmatched answers unknown routes and methods with the error envelope
// instead of gin's plain text 404.
func handleUnmatched(engine *gin.Engine) {
	engine.HandleMethodNotAllowed = true
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFoundRoute, "Route not found", middleware.GetRequestID(c)))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeMethodNotAllowed, "Method not allowed", middleware.GetRequestID(c)))
	})
}

// RouteTable lists the routes of engine as "METHOD /path", sorted by path
// then method.
func RouteTable(engine *gin.Engine) []string {
	routes := engine.Routes()
	slices.SortFunc(routes, func(a, b gin.RouteInfo) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return strings.Compare(a.Method, b.Method)
	})
	table := make([]string, len(routes))
	for i, r := range routes {
		table[i] = r.Method + " " + r.Path
	}
	return table
}

// chain appends the handler to the route middleware without aliasing mw
func chain(mw []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	return append(slices.Clip(mw), h)
}
