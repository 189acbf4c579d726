// Package handlers holds the reusable HTTP plumbing shared by the
// hub's routes: health checks, API key auth, and per-route middleware
// for caching, timeouts, security headers and body size limits.
//
// # Health checks
//
// CompositeHealthChecker runs named probes in parallel, each under its
// own timeout:
//
//	checker := handlers.NewCompositeHealthChecker("1.0.0")
//	checker.AddCheck("database", handlers.NewDatabaseCheck(pool))
//	checker.AddCheck("cache", handlers.NewCacheCheck(cache))
//	checker.AddCheck("gemini", func(ctx context.Context) error {
//	    if client.Status().BreakerState == "open" {
//	        return errors.New("circuit open")
//	    }
//	    return nil
//	})
//
//	status := checker.Check(ctx)
//
// A failing probe marks the service unhealthy on /health and not ready
// on /ready.
//
// # Middleware
//
//	// guard /metrics with an API key
//	auth := handlers.NewAPIKeyAuth("X-API-Key", cfg.APIKeys)
//	mux.Handle("GET /metrics", auth.Middleware(metricsHandler))
//
//	// cap the tutor route at 25s
//	mux.Handle("POST /api/v1/learners/{id}/tutor",
//	    handlers.TimeoutMiddleware(25*time.Second)(tutorHandler))
//
//	// let browsers cache the static badge shelf
//	mux.Handle("GET /api/v1/badges",
//	    handlers.CacheControlMiddleware(time.Hour, false)(badgesHandler))
package handlers
