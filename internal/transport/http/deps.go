package http

import (
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/application/retention"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/application/verification"
	jwtinfra "github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/infrastructure/jwt"
	appmiddleware "github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/transport/http/middleware"
)

// Deps holds the services and infrastructure the router mounts.
type Deps struct {
	Verification verification.Service
	Retention    retention.Service
	// JWTProvider is optional; admin routes are not mounted without it.
	JWTProvider *jwtinfra.Provider
	RateLimiter *appmiddleware.RateLimiter
}
