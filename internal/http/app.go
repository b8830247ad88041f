// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"tripsearch_backend/platform/httpkit"
	"tripsearch_backend/platform/logger"
)

// RouterConfig is the subset of application config the router needs.
type RouterConfig interface {
	httpkit.CORSConfig
	GetHTTPAddr() string
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP and CORS settings only).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness checks (the persisted cache tier).
	Health HealthChecker
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
