// Package api implements the control-API HTTP surface: authentication,
// submarine and torpedo control, fueler logistics, the SSE event
// stream, and admin introspection.
package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lab1702/subwar/config"
	"github.com/lab1702/subwar/events"
	"github.com/lab1702/subwar/sim"
	"github.com/lab1702/subwar/world"
)

// Server wires the simulation world, its configuration, and the event
// fabric to a set of HTTP routes.
type Server struct {
	World  *world.World
	Cfg    *config.Config
	Fabric *events.Fabric
	Engine *sim.Engine

	validator *config.Validator
	metrics   *metrics
	limiter   *ipLimiter
	registry  *prometheus.Registry
}

// NewServer constructs a Server ready to build routes.
func NewServer(w *world.World, cfg *config.Config, fabric *events.Fabric, engine *sim.Engine) *Server {
	reg := prometheus.NewRegistry()
	return &Server{
		World:     w,
		Cfg:       cfg,
		Fabric:    fabric,
		Engine:    engine,
		validator: config.NewValidator(),
		metrics:   newMetrics(reg),
		limiter:   newIPLimiter(),
		registry:  reg,
	}
}

// Routes assembles the full control-API mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	auth := RequireAuth(s.World)
	admin := func(h http.Handler) http.Handler { return auth(RequireAdmin(h)) }

	public := map[string]http.HandlerFunc{
		"POST /register":  s.handleRegister,
		"POST /login":     s.handleLogin,
		"GET /health":     s.handleHealth,
		"GET /world":      s.handleWorldInfo,
		"GET /config":     s.handleConfigDump,
		"GET /leaderboard": s.handleLeaderboard,
	}
	for pattern, h := range public {
		route := pattern
		mux.Handle(pattern, s.metrics.Instrument(route, h))
	}

	authed := map[string]http.HandlerFunc{
		"GET /stream":                       s.handleStream,
		"POST /subs":                        s.handleSpawnSub,
		"GET /subs":                         s.handleListSubs,
		"POST /subs/{id}/helm":              s.handleHelm,
		"POST /subs/{id}/blow":              s.handleBlow,
		"POST /subs/{id}/snorkel":           s.handleSnorkel,
		"POST /subs/{id}/ping":              s.handlePing,
		"POST /subs/{id}/fire":              s.handleFire,
		"POST /subs/{id}/reload":            s.handleReload,
		"POST /subs/{id}/weather-scan":      s.handleWeatherScan,
		"POST /subs/{id}/passive-array":     s.handlePassiveArray,
		"POST /subs/{id}/call-fueler":       s.handleCallFueler,
		"POST /subs/{id}/refuel/bind":       s.handleRefuelBind,
		"POST /torpedoes/{id}/guide":        s.handleTorpedoGuide,
		"POST /torpedoes/{id}/ping":         s.handleTorpedoPing,
		"POST /torpedoes/{id}/active-ping":  s.handleTorpedoAutoPingToggle,
		"POST /torpedoes/{id}/passive-sonar": s.handleTorpedoPassiveToggle,
		"POST /torpedoes/{id}/detonate":     s.handleTorpedoDetonate,
		"GET /fuelers":                      s.handleListFuelers,
	}
	for pattern, h := range authed {
		route := pattern
		mux.Handle(pattern, s.metrics.Instrument(route, auth(h)))
	}

	adminRoutes := map[string]http.HandlerFunc{
		"GET /admin/world":        s.handleAdminWorld,
		"POST /admin/users/grant": s.handleAdminGrant,
	}
	for pattern, h := range adminRoutes {
		route := pattern
		mux.Handle(pattern, s.metrics.Instrument(route, admin(h)))
	}
	mux.Handle("GET /admin/perf", admin(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	return chain(mux, RateLimit(s.limiter), CORS)
}

// ListenAndServe starts the control API on addr with the teacher's
// timeout conventions.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // the SSE stream handler blocks for the life of the connection
		IdleTimeout:  60 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
