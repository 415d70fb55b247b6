// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/calc-service/internal/handler"
	"github.com/iliyamo/calc-service/internal/metrics"
)

// Deps carries everything the routes need. Metrics and Cache are optional.
type Deps struct {
	Calculate *handler.CalculateHandler
	Metrics   *metrics.Metrics
	// Cache wraps GET / only; the health timestamp must stay live.
	Cache echo.MiddlewareFunc
}

// Endpoints lists the routes RegisterRoutes will mount for deps, in the
// order GET / reports them.
func Endpoints(deps Deps) []string {
	eps := []string{"GET /", "GET /health", "POST /calculate"}
	if deps.Metrics != nil {
		eps = append(eps, "GET /metrics")
	}
	return eps
}

// CalculateBodyLimit caps POST /calculate bodies; larger ones get 413.
const CalculateBodyLimit = "100K"

// RegisterRoutes mounts the service routes on e.
func RegisterRoutes(e *echo.Echo, deps Deps) {
	info := handler.NewInfoHandler(Endpoints(deps))

	if deps.Cache != nil {
		e.GET("/", info.Index, deps.Cache)
	} else {
		e.GET("/", info.Index)
	}
	e.GET("/health", info.Health)
	e.POST("/calculate", deps.Calculate.Calculate, echomw.BodyLimit(CalculateBodyLimit))

	if deps.Metrics != nil {
		e.GET("/metrics", deps.Metrics.Handler())
	}
}
