// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	accountsfeature "github.com/slotdesk/slotdesk/internal/app/features/accounts"
	dashboardfeature "github.com/slotdesk/slotdesk/internal/app/features/dashboard"
	eventsfeature "github.com/slotdesk/slotdesk/internal/app/features/events"
	healthfeature "github.com/slotdesk/slotdesk/internal/app/features/health"
	registrationsfeature "github.com/slotdesk/slotdesk/internal/app/features/registrations"
	slotprefsfeature "github.com/slotdesk/slotdesk/internal/app/features/slotprefs"
	slotsfeature "github.com/slotdesk/slotdesk/internal/app/features/slots"
	streamfeature "github.com/slotdesk/slotdesk/internal/app/features/stream"
	surveysfeature "github.com/slotdesk/slotdesk/internal/app/features/surveys"
	"github.com/slotdesk/slotdesk/internal/app/realtime"
	"github.com/slotdesk/slotdesk/internal/app/registration"
	eventstore "github.com/slotdesk/slotdesk/internal/app/store/events"
	slotprefstore "github.com/slotdesk/slotdesk/internal/app/store/slotprefs"
	slotstore "github.com/slotdesk/slotdesk/internal/app/store/slots"
	surveystore "github.com/slotdesk/slotdesk/internal/app/store/surveys"
	userstore "github.com/slotdesk/slotdesk/internal/app/store/users"
	"github.com/slotdesk/slotdesk/internal/app/system/auth"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. SlotDesk exposes a JSON API:
//   - /api/auth for account registration and session login/logout
//   - /api/user/* for browsing and registering into offerings
//   - /api/admin/* for offering CRUD and aggregate stats
//   - /api/stream for the server-sent-events feed
//   - /health for load balancers and orchestrators
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase

	// The realtime hub and the registration service are shared across
	// features: handlers mutate through the service so that every
	// successful admission produces exactly one broadcast.
	hub := realtime.NewHub(logger)
	svc := registration.NewService(
		slotstore.New(db),
		eventstore.New(db),
		slotprefstore.New(db),
		surveystore.New(db),
		userstore.New(db),
		hub,
		logger,
	)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Account registration and session management
	accountsHandler := accountsfeature.NewHandler(db, sessionMgr, logger)
	r.Mount("/api/auth", accountsfeature.Routes(accountsHandler))

	// User-facing offering catalogs and registration endpoints
	slotsHandler := slotsfeature.NewHandler(db, svc, hub, logger)
	r.Mount("/api/user/test-slots", slotsfeature.UserRoutes(slotsHandler, sessionMgr))

	eventsHandler := eventsfeature.NewHandler(db, svc, hub, logger)
	r.Mount("/api/user/events", eventsfeature.UserRoutes(eventsHandler, sessionMgr))

	slotprefsHandler := slotprefsfeature.NewHandler(db, svc, hub, logger)
	r.Mount("/api/user/slot-preferences", slotprefsfeature.UserRoutes(slotprefsHandler, sessionMgr))

	surveysHandler := surveysfeature.NewHandler(db, svc, hub, logger)
	r.Mount("/api/user/survey-questions", surveysfeature.UserRoutes(surveysHandler, sessionMgr))

	// Per-user registration and response history
	registrationsHandler := registrationsfeature.NewHandler(db, logger)
	r.Mount("/api/user", registrationsfeature.Routes(registrationsHandler, sessionMgr))

	// Admin CRUD for every offering kind
	r.Mount("/api/admin/test-slots", slotsfeature.AdminRoutes(slotsHandler, sessionMgr))
	r.Mount("/api/admin/events", eventsfeature.AdminRoutes(eventsHandler, sessionMgr))
	r.Mount("/api/admin/slot-preferences", slotprefsfeature.AdminRoutes(slotprefsHandler, sessionMgr))
	r.Mount("/api/admin/survey-questions", surveysfeature.AdminRoutes(surveysHandler, sessionMgr))

	// Aggregate platform stats
	dashboardHandler := dashboardfeature.NewHandler(db, logger)
	r.Mount("/api/admin/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	// Server-sent events feed of admission and CRUD broadcasts
	streamHandler := streamfeature.NewHandler(hub, logger)
	r.Mount("/api/stream", streamfeature.Routes(streamHandler, sessionMgr))

	return r, nil
}
