package http

import "github.com/labstack/echo/v4"

// Handler mounts API routes. NewServer calls RegisterRoutes once, after the
// global middleware chain and /health are in place and before /metrics.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
