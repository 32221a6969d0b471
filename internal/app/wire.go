package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rentlover/platform/internal/auth"
	"github.com/rentlover/platform/internal/catalog"
	"github.com/rentlover/platform/internal/directory"
	"github.com/rentlover/platform/internal/guard"
	"github.com/rentlover/platform/internal/handler"
	adminhandler "github.com/rentlover/platform/internal/handler/admin"
	"github.com/rentlover/platform/internal/infra"
	"github.com/rentlover/platform/internal/ledger"
	"github.com/rentlover/platform/internal/policy"
	"github.com/rentlover/platform/internal/pricing"
	"github.com/rentlover/platform/internal/provider"
	"github.com/rentlover/platform/internal/repository"
	"github.com/rentlover/platform/internal/service"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool      *pgxpool.Pool
	JWTMgr    *auth.JWTManager
	Logger    *slog.Logger
	Catalog   *catalog.Catalog
	Directory *directory.Directory
	Hub       *infra.WSHub
	// Notifier may be nil; decisions then go out without a message.
	Notifier          service.Notifier
	MidtransServerKey string
	CORSOrigins       string
	// Extra health probes beyond Postgres, e.g. Redis.
	HealthChecks []handler.DependencyCheck
	// Zero values fall back to the policy defaults.
	Limits  policy.BookingLimitPolicy
	Routing policy.PaymentRoutingPolicy
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	pool := deps.Pool
	jwtMgr := deps.JWTMgr
	logger := deps.Logger

	limits := deps.Limits
	if limits == (policy.BookingLimitPolicy{}) {
		limits = policy.DefaultBookingLimits()
	}
	routing := deps.Routing
	if len(routing.AllowedMethods) == 0 && len(routing.BlockedMethods) == 0 && len(routing.DeferredMethods) == 0 {
		routing = policy.DefaultPaymentRoutingPolicy()
	}

	// Repositories
	accountRepo := repository.NewPgAccountRepository()
	profileRepo := repository.NewPgProfileRepository()
	bookingRepo := repository.NewBookingRepository()
	txRepo := repository.NewTransactionRepository()
	earningRepo := repository.NewEarningRepository()
	outboxRepo := repository.NewOutboxRepository()
	identityStore := repository.NewPgIdentityStore(pool, accountRepo, profileRepo, outboxRepo)

	// Ledger
	ledgerEngine := ledger.NewEngine(bookingRepo, txRepo, earningRepo, outboxRepo, routing)
	poolLedger := ledger.NewPoolLedger(pool, ledgerEngine)

	// Services
	verificationSvc := service.NewVerificationService(identityStore, deps.Directory, deps.Notifier, logger)
	bookingSvc := service.NewBookingService(deps.Directory, deps.Catalog, pricing.NewEngine(deps.Catalog.Commission),
		limits, routing, poolLedger, logger)
	txSvc := service.NewTransactionService(poolLedger, provider.NewMidtransProvider(deps.MidtransServerKey),
		guard.NewIdempotencyGuard(24*time.Hour), logger)

	// Handlers
	catalogHandler := handler.NewCatalogHandler(deps.Catalog, deps.Directory)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	txHandler := handler.NewTransactionHandler(txSvc)
	webhookHandler := handler.NewWebhookHandler(txSvc, logger)
	userAdmin := adminhandler.NewUserAdminHandler(deps.Directory, verificationSvc, deps.Hub)

	// Guards
	bookingLimiter := guard.NewRateLimiter(20, time.Minute)
	decisionLimiter := guard.NewRateLimiter(60, time.Minute)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORSWithOrigins(deps.CORSOrigins))
	r.Use(handler.JSONContentType)

	// Health (no auth)
	checks := append([]handler.DependencyCheck{{Name: "postgres", Probe: func(ctx context.Context) error {
		return infra.HealthCheck(ctx, pool)
	}}}, deps.HealthChecks...)
	r.Get("/health", handler.HealthHandler(checks...))

	// Webhooks (no auth; the signature is in the body)
	r.Post("/webhooks/midtrans", webhookHandler.HandleMidtrans)

	// Catalog (token optional)
	r.With(auth.OptionalMember(jwtMgr)).Get("/services", catalogHandler.ListServices)

	// Member routes
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticateMember(jwtMgr))
		r.Use(handler.RateLimit(bookingLimiter, "bookings"))

		r.Post("/bookings/price", bookingHandler.Price)
		r.Post("/bookings", bookingHandler.Create)
	})

	// Member or admin routes; handlers scope members to their own records
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticateAny(jwtMgr, auth.RealmMember, auth.RealmAdmin))

		r.Get("/users/{id}/eligible-services", catalogHandler.EligibleServices)
		r.Get("/transactions/{id}", txHandler.Get)
		r.Post("/transactions/{id}/gateway-outcome", txHandler.ApplyGatewayOutcome)
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticateAdmin(jwtMgr))

		r.Get("/users", userAdmin.ListUsers)
		r.Get("/users/{id}", userAdmin.GetUser)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(auth.WriteRoles()...))
			r.Use(handler.RateLimit(decisionLimiter, "decisions"))

			r.Post("/users/{id}/approve", userAdmin.Approve)
			r.Post("/users/{id}/reject", userAdmin.Reject)
			r.Post("/transactions/{id}/confirm", txHandler.Confirm)
			r.Post("/transactions/{id}/refund", txHandler.Refund)
		})
	})

	// Admin websocket stream (token may ride in the query string)
	r.With(auth.AuthenticateAdminStream(jwtMgr)).Get("/admin/users/stream", userAdmin.Stream)

	return r
}
