// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"property_portal_backend/internal/events"
	"property_portal_backend/platform/config"
	"property_portal_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker reports whether the datastore is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is the composition root's hand-off to the router.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health backs /api/health. Nil reports healthy.
	Health HealthChecker
	// EventBus carries mutation outcomes to the notification module.
	EventBus events.Bus
	Modules  []Module
}
