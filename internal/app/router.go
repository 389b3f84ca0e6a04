package app

import (
	"net/http"

	"github.com/heartmarshall/ranking-backend/internal/adapter/metrics"
	"github.com/heartmarshall/ranking-backend/internal/transport/middleware"
	"github.com/heartmarshall/ranking-backend/internal/transport/rest"
	"github.com/heartmarshall/ranking-backend/pkg/ctxutil"
)

// routes collects everything the HTTP surface is assembled from.
type routes struct {
	health      *rest.HealthHandler
	leaderboard *rest.LeaderboardHandler
	admin       *rest.AdminHandler
	events      *rest.EventsHandler

	auth      middleware.Middleware
	rateLimit middleware.Middleware
	accessLog middleware.Middleware
	recovery  middleware.Middleware

	// Both nil when metrics are disabled.
	httpMetrics *metrics.HTTPMetrics
	metrics     http.Handler
	metricsPath string
}

// newRouter mounts the read API, the admin API, event ingestion, probes and
// metrics on one mux. Auth runs for every route so the read API can serve
// /me; the admin and ingestion groups additionally require a role.
func newRouter(rt routes) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", rt.health.Live)
	mux.HandleFunc("GET /ready", rt.health.Ready)
	mux.HandleFunc("GET /health", rt.health.Health)
	if rt.metrics != nil {
		mux.Handle("GET "+rt.metricsPath, rt.metrics)
	}

	public := func(h http.HandlerFunc) http.Handler { return rt.rateLimit(h) }
	mux.Handle("GET /api/leaderboard", public(rt.leaderboard.Board))
	mux.Handle("GET /api/leaderboard/weekly", public(rt.leaderboard.Weekly))
	mux.Handle("GET /api/leaderboard/monthly", public(rt.leaderboard.Monthly))
	mux.Handle("GET /api/leaderboard/top", public(rt.leaderboard.Top))
	mux.Handle("GET /api/leaderboard/history", public(rt.leaderboard.History))
	mux.Handle("GET /api/leaderboard/users/{id}/stats", public(rt.leaderboard.UserStats))
	mux.Handle("GET /api/leaderboard/me/stats", public(rt.leaderboard.MyStats))

	adminOnly := middleware.RequireRole(ctxutil.RoleAdmin)
	mux.Handle("POST /admin/leaderboard/recompute", adminOnly(http.HandlerFunc(rt.admin.Recompute)))
	mux.Handle("POST /admin/leaderboard/sweep", adminOnly(http.HandlerFunc(rt.admin.Sweep)))
	mux.Handle("POST /admin/leaderboard/adjust", adminOnly(http.HandlerFunc(rt.admin.Adjust)))

	producers := middleware.RequireRole(ctxutil.RoleAdmin, ctxutil.RoleService)
	mux.Handle("POST /internal/events", producers(http.HandlerFunc(rt.events.Ingest)))

	chain := []middleware.Middleware{rt.recovery, middleware.RequestID, rt.accessLog}
	if rt.httpMetrics != nil {
		chain = append(chain, rt.httpMetrics.Middleware(mux))
	}
	chain = append(chain, rt.auth)

	return middleware.Chain(chain...)(mux)
}
